package payment

import (
	"errors"

	vo "github.com/mateatletas/tutorbilling/internal/domain/payment/valueobjects"
)

var (
	ErrPaymentNotFound = errors.New("payment not found")
	// ErrPaymentRefConflict means a gateway payment reference arrived for a second subscription.
	ErrPaymentRefConflict = errors.New("gateway payment reference belongs to another subscription")
	// ErrDuplicateEvent signals an already-seen gateway event. It is a no-op, not a failure.
	ErrDuplicateEvent   = errors.New("duplicate gateway event")
	ErrUnmappableStatus = vo.ErrUnmappableStatus
)
