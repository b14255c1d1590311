package payment

import (
	"fmt"
	"time"
)

// EventOutcome is how the reconciler resolved a gateway event.
type EventOutcome string

const (
	OutcomeReceived EventOutcome = "received"
	OutcomeApplied  EventOutcome = "applied"
	OutcomeNoop     EventOutcome = "noop"
	OutcomeRejected EventOutcome = "rejected"
)

// ProcessedEvent marks a gateway event ID as seen. The unique gateway event ID is the
// deduplication set.
type ProcessedEvent struct {
	id                     uint
	gatewayEventID         string
	gatewaySubscriptionRef string
	gatewayStatus          string
	outcome                EventOutcome
	errorMessage           *string
	createdAt              time.Time
}

func NewProcessedEvent(gatewayEventID, gatewaySubscriptionRef, gatewayStatus string, now time.Time) (*ProcessedEvent, error) {
	if gatewayEventID == "" {
		return nil, fmt.Errorf("gateway event ID is required")
	}
	return &ProcessedEvent{
		gatewayEventID:         gatewayEventID,
		gatewaySubscriptionRef: gatewaySubscriptionRef,
		gatewayStatus:          gatewayStatus,
		outcome:                OutcomeReceived,
		createdAt:              now,
	}, nil
}

func ReconstructProcessedEvent(
	id uint,
	gatewayEventID, gatewaySubscriptionRef, gatewayStatus string,
	outcome EventOutcome,
	errorMessage *string,
	createdAt time.Time,
) *ProcessedEvent {
	return &ProcessedEvent{
		id:                     id,
		gatewayEventID:         gatewayEventID,
		gatewaySubscriptionRef: gatewaySubscriptionRef,
		gatewayStatus:          gatewayStatus,
		outcome:                outcome,
		errorMessage:           errorMessage,
		createdAt:              createdAt,
	}
}

func (e *ProcessedEvent) ID() uint                       { return e.id }
func (e *ProcessedEvent) GatewayEventID() string         { return e.gatewayEventID }
func (e *ProcessedEvent) GatewaySubscriptionRef() string { return e.gatewaySubscriptionRef }
func (e *ProcessedEvent) GatewayStatus() string          { return e.gatewayStatus }
func (e *ProcessedEvent) Outcome() EventOutcome          { return e.outcome }
func (e *ProcessedEvent) ErrorMessage() *string          { return e.errorMessage }
func (e *ProcessedEvent) CreatedAt() time.Time           { return e.createdAt }

func (e *ProcessedEvent) SetID(id uint) {
	e.id = id
}
