package valueobjects

import (
	"errors"
	"fmt"
	"strings"
)

// Intent is what a gateway status means for the subscription lifecycle.
type Intent string

const (
	IntentConfirmPayment Intent = "confirm_payment"
	IntentPaymentPending Intent = "payment_pending"
	IntentRejectPayment  Intent = "reject_payment"
	IntentCancel         Intent = "cancel"
	IntentPauseEcho      Intent = "pause_echo"
)

// ErrUnmappableStatus is returned for gateway vocabulary outside the mapping table.
var ErrUnmappableStatus = errors.New("unmappable gateway status")

var gatewayStatusIntents = map[string]Intent{
	"authorized": IntentConfirmPayment,
	"approved":   IntentConfirmPayment,
	"pending":    IntentPaymentPending,
	"in_process": IntentPaymentPending,
	"rejected":   IntentRejectPayment,
	"cancelled":  IntentCancel,
	"canceled":   IntentCancel,
	"paused":     IntentPauseEcho,
}

// NormalizeGatewayStatus trims and lowercases a raw gateway status.
func NormalizeGatewayStatus(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// MapGatewayStatus resolves a raw gateway status through the fixed table. Unknown values
// fail closed.
func MapGatewayStatus(raw string) (Intent, error) {
	intent, ok := gatewayStatusIntents[NormalizeGatewayStatus(raw)]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnmappableStatus, raw)
	}
	return intent, nil
}

func (i Intent) String() string {
	return string(i)
}

// SignalsMissedPayment reports whether the intent means a charge was not collected.
func (i Intent) SignalsMissedPayment() bool {
	return i == IntentPaymentPending || i == IntentRejectPayment
}
