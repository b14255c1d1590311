package subscription

import (
	"errors"
	"fmt"
	"strings"

	vo "github.com/mateatletas/tutorbilling/internal/domain/subscription/valueobjects"
)

var (
	ErrSubscriptionNotFound    = errors.New("subscription not found")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrAlreadyTerminal         = errors.New("subscription already cancelled")
	ErrConcurrentModification  = errors.New("subscription was modified concurrently")
	ErrGatewayRefConflict      = errors.New("gateway subscription reference already assigned")
	ErrPlanNotFound            = errors.New("plan not found")
	ErrPlanInactive            = errors.New("plan inactive")
	ErrInvalidPrice            = errors.New("invalid price")
	ErrCancelReasonRequired    = errors.New("cancellation reason is required")
	ErrInvalidActor            = errors.New("invalid actor")
	ErrHistoryImmutable        = errors.New("history record is immutable")
)

func ErrInvalidTransition(from, to vo.SubscriptionStatus) error {
	allowed := from.AllowedTargets()
	names := make([]string, len(allowed))
	for i, s := range allowed {
		names[i] = s.String()
	}
	return fmt.Errorf("%w: from %s to %s (allowed: %s)", ErrInvalidStatusTransition, from, to, strings.Join(names, ", "))
}
