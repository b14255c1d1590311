package subscription

import (
	"fmt"
	"time"

	vo "github.com/mateatletas/tutorbilling/internal/domain/subscription/valueobjects"
)

// Subscription is the aggregate root for a tutor's recurring billing agreement.
// Every mutation goes through the transition engine; the repository persists it with an
// optimistic version check.
type Subscription struct {
	id               uint
	sid              string
	tutorID          string
	planID           uint
	status           vo.SubscriptionStatus
	finalPrice       int64
	currency         string
	gatewayRef       *string
	gatewayStatus    *string
	graceDaysUsed    int
	gracePeriodStart *time.Time
	delinquentSince  *time.Time
	cancelledAt      *time.Time
	cancelReason     *string
	cancelledBy      *vo.Actor
	version          int
	loadedVersion    int
	createdAt        time.Time
	updatedAt        time.Time
}

// NewSubscription creates a subscription in PENDIENTE, the state a tutor enters at checkout.
func NewSubscription(
	tutorID string,
	planID uint,
	finalPrice int64,
	currency string,
	gatewayRef *string,
	now time.Time,
	sidGenerator func() (string, error),
) (*Subscription, error) {
	if tutorID == "" {
		return nil, fmt.Errorf("tutor ID is required")
	}
	if planID == 0 {
		return nil, fmt.Errorf("plan ID is required")
	}
	if finalPrice <= 0 {
		return nil, fmt.Errorf("%w: final price must be positive, got %d", ErrInvalidPrice, finalPrice)
	}
	if len(currency) != 3 {
		return nil, fmt.Errorf("invalid currency %q", currency)
	}
	if gatewayRef != nil && *gatewayRef == "" {
		gatewayRef = nil
	}

	sid, err := sidGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to generate subscription SID: %w", err)
	}

	return &Subscription{
		sid:           sid,
		tutorID:       tutorID,
		planID:        planID,
		status:        vo.StatusPending,
		finalPrice:    finalPrice,
		currency:      currency,
		gatewayRef:    gatewayRef,
		version:       1,
		loadedVersion: 1,
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

// ReconstructSubscription rebuilds a subscription from persistence.
func ReconstructSubscription(
	id uint,
	sid string,
	tutorID string,
	planID uint,
	status vo.SubscriptionStatus,
	finalPrice int64,
	currency string,
	gatewayRef, gatewayStatus *string,
	graceDaysUsed int,
	gracePeriodStart, delinquentSince *time.Time,
	cancelledAt *time.Time,
	cancelReason *string,
	cancelledBy *vo.Actor,
	version int,
	createdAt, updatedAt time.Time,
) (*Subscription, error) {
	if id == 0 {
		return nil, fmt.Errorf("subscription ID cannot be zero")
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid subscription status: %s", status)
	}
	cancelSet := cancelledAt != nil && cancelReason != nil && cancelledBy != nil
	cancelEmpty := cancelledAt == nil && cancelReason == nil && cancelledBy == nil
	if !cancelSet && !cancelEmpty {
		return nil, fmt.Errorf("subscription %d has partial cancellation fields", id)
	}
	if cancelSet != (status == vo.StatusCancelled) {
		return nil, fmt.Errorf("subscription %d: cancellation fields do not match status %s", id, status)
	}

	return &Subscription{
		id:               id,
		sid:              sid,
		tutorID:          tutorID,
		planID:           planID,
		status:           status,
		finalPrice:       finalPrice,
		currency:         currency,
		gatewayRef:       gatewayRef,
		gatewayStatus:    gatewayStatus,
		graceDaysUsed:    graceDaysUsed,
		gracePeriodStart: gracePeriodStart,
		delinquentSince:  delinquentSince,
		cancelledAt:      cancelledAt,
		cancelReason:     cancelReason,
		cancelledBy:      cancelledBy,
		version:          version,
		loadedVersion:    version,
		createdAt:        createdAt,
		updatedAt:        updatedAt,
	}, nil
}

func (s *Subscription) ID() uint                      { return s.id }
func (s *Subscription) SID() string                   { return s.sid }
func (s *Subscription) TutorID() string               { return s.tutorID }
func (s *Subscription) PlanID() uint                  { return s.planID }
func (s *Subscription) Status() vo.SubscriptionStatus { return s.status }
func (s *Subscription) FinalPrice() int64             { return s.finalPrice }
func (s *Subscription) Currency() string              { return s.currency }
func (s *Subscription) GatewayRef() *string           { return s.gatewayRef }
func (s *Subscription) GatewayStatus() *string        { return s.gatewayStatus }
func (s *Subscription) GraceDaysUsed() int            { return s.graceDaysUsed }
func (s *Subscription) GracePeriodStart() *time.Time  { return s.gracePeriodStart }
func (s *Subscription) DelinquentSince() *time.Time   { return s.delinquentSince }
func (s *Subscription) CancelledAt() *time.Time       { return s.cancelledAt }
func (s *Subscription) CancelReason() *string         { return s.cancelReason }
func (s *Subscription) CancelledBy() *vo.Actor        { return s.cancelledBy }
func (s *Subscription) Version() int                  { return s.version }
func (s *Subscription) CreatedAt() time.Time          { return s.createdAt }
func (s *Subscription) UpdatedAt() time.Time          { return s.updatedAt }

// ExpectedVersion is the version the snapshot had when loaded; the repository writes
// conditionally on it.
func (s *Subscription) ExpectedVersion() int { return s.loadedVersion }

// IsDirty reports whether the aggregate changed since it was loaded.
func (s *Subscription) IsDirty() bool { return s.version != s.loadedVersion }

// SetID sets the ID after persistence
func (s *Subscription) SetID(id uint) error {
	if s.id != 0 {
		return fmt.Errorf("subscription ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("subscription ID cannot be zero")
	}
	s.id = id
	return nil
}

// MarkPersisted records that the current version is now stored.
func (s *Subscription) MarkPersisted() {
	s.loadedVersion = s.version
}

// TransitionTo moves the subscription to target and applies the side effects of the
// transition table. Same-state requests are not transitions and are rejected here;
// the engine resolves them as no-ops before calling in.
func (s *Subscription) TransitionTo(target vo.SubscriptionStatus, reason string, actor vo.Actor, at time.Time) error {
	if s.status.IsTerminal() {
		return ErrAlreadyTerminal
	}
	if !actor.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidActor, actor)
	}
	if !s.status.CanTransitionTo(target) {
		return ErrInvalidTransition(s.status, target)
	}

	switch target {
	case vo.StatusActive:
		s.graceDaysUsed = 0
		s.gracePeriodStart = nil
		s.delinquentSince = nil
	case vo.StatusGrace:
		start := at
		s.gracePeriodStart = &start
		s.graceDaysUsed = 0
	case vo.StatusDelinquent:
		since := at
		s.delinquentSince = &since
	case vo.StatusCancelled:
		if reason == "" {
			return ErrCancelReasonRequired
		}
		cancelledAt := at
		by := actor
		s.cancelledAt = &cancelledAt
		s.cancelReason = &reason
		s.cancelledBy = &by
	}

	s.status = target
	s.touch(at)
	return nil
}

// EchoGatewayStatus stores the raw gateway status for diagnostics. It reports whether the
// stored value changed.
func (s *Subscription) EchoGatewayStatus(raw string, at time.Time) bool {
	if raw == "" || (s.gatewayStatus != nil && *s.gatewayStatus == raw) {
		return false
	}
	s.gatewayStatus = &raw
	s.touch(at)
	return true
}

// RecordGraceUsage raises the grace counter while the subscription is in grace. The counter
// never decreases.
func (s *Subscription) RecordGraceUsage(days int, at time.Time) bool {
	if s.status != vo.StatusGrace || days <= s.graceDaysUsed {
		return false
	}
	s.graceDaysUsed = days
	s.touch(at)
	return true
}

// LinkGatewayReference assigns the gateway subscription reference on first contact.
func (s *Subscription) LinkGatewayReference(ref string, at time.Time) (bool, error) {
	if ref == "" {
		return false, fmt.Errorf("gateway reference is required")
	}
	if s.status.IsTerminal() {
		return false, ErrAlreadyTerminal
	}
	if s.gatewayRef != nil {
		if *s.gatewayRef == ref {
			return false, nil
		}
		return false, fmt.Errorf("%w: subscription %d already linked to %s", ErrGatewayRefConflict, s.id, *s.gatewayRef)
	}
	s.gatewayRef = &ref
	s.touch(at)
	return true, nil
}

// touch bumps the version once per unit of work.
func (s *Subscription) touch(at time.Time) {
	if s.version == s.loadedVersion {
		s.version++
	}
	s.updatedAt = at
}
