package subscription

import (
	"fmt"
	"time"

	vo "github.com/mateatletas/tutorbilling/internal/domain/subscription/valueobjects"
)

// HistoryRecord is one entry of the append-only transition ledger.
type HistoryRecord struct {
	id             uint
	subscriptionID uint
	previousStatus *vo.SubscriptionStatus
	newStatus      vo.SubscriptionStatus
	reason         string
	actor          vo.Actor
	metadata       map[string]interface{}
	createdAt      time.Time
}

// NewHistoryRecord builds a ledger entry. previous is nil only for the first record of a
// subscription.
func NewHistoryRecord(
	subscriptionID uint,
	previous *vo.SubscriptionStatus,
	next vo.SubscriptionStatus,
	reason string,
	actor vo.Actor,
	metadata map[string]interface{},
	at time.Time,
) (*HistoryRecord, error) {
	if subscriptionID == 0 {
		return nil, fmt.Errorf("subscription ID cannot be zero")
	}
	if !next.IsValid() {
		return nil, fmt.Errorf("invalid new status: %s", next)
	}
	if !actor.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidActor, actor)
	}

	return &HistoryRecord{
		subscriptionID: subscriptionID,
		previousStatus: previous,
		newStatus:      next,
		reason:         reason,
		actor:          actor,
		metadata:       copyMetadata(metadata),
		createdAt:      at,
	}, nil
}

func ReconstructHistoryRecord(
	id, subscriptionID uint,
	previous *vo.SubscriptionStatus,
	next vo.SubscriptionStatus,
	reason string,
	actor vo.Actor,
	metadata map[string]interface{},
	createdAt time.Time,
) (*HistoryRecord, error) {
	if id == 0 {
		return nil, fmt.Errorf("history ID cannot be zero")
	}
	if metadata == nil {
		metadata = make(map[string]interface{})
	}
	return &HistoryRecord{
		id:             id,
		subscriptionID: subscriptionID,
		previousStatus: previous,
		newStatus:      next,
		reason:         reason,
		actor:          actor,
		metadata:       metadata,
		createdAt:      createdAt,
	}, nil
}

func (h *HistoryRecord) ID() uint                               { return h.id }
func (h *HistoryRecord) SubscriptionID() uint                   { return h.subscriptionID }
func (h *HistoryRecord) PreviousStatus() *vo.SubscriptionStatus { return h.previousStatus }
func (h *HistoryRecord) NewStatus() vo.SubscriptionStatus       { return h.newStatus }
func (h *HistoryRecord) Reason() string                         { return h.reason }
func (h *HistoryRecord) Actor() vo.Actor                        { return h.actor }
func (h *HistoryRecord) CreatedAt() time.Time                   { return h.createdAt }

// Metadata returns a copy so callers cannot alter a stored record.
func (h *HistoryRecord) Metadata() map[string]interface{} {
	return copyMetadata(h.metadata)
}

// IsNoOp reports whether the record only echoes a gateway status without a state change.
func (h *HistoryRecord) IsNoOp() bool {
	return h.previousStatus != nil && *h.previousStatus == h.newStatus
}

// SetID sets the ID after the record is appended. A stored record cannot be re-identified.
func (h *HistoryRecord) SetID(id uint) error {
	if h.id != 0 {
		return ErrHistoryImmutable
	}
	h.id = id
	return nil
}

func copyMetadata(src map[string]interface{}) map[string]interface{} {
	dst := make(map[string]interface{}, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
