package valueobjects

// SubscriptionStatus is the persisted lifecycle state of a subscription.
type SubscriptionStatus string

const (
	StatusPending    SubscriptionStatus = "PENDIENTE"
	StatusActive     SubscriptionStatus = "ACTIVA"
	StatusGrace      SubscriptionStatus = "EN_GRACIA"
	StatusDelinquent SubscriptionStatus = "MOROSA"
	StatusCancelled  SubscriptionStatus = "CANCELADA"
	// StatusPaused is recognised for gateway compatibility only. No transition targets it.
	StatusPaused SubscriptionStatus = "PAUSADA"
)

var transitions = map[SubscriptionStatus][]SubscriptionStatus{
	StatusPending:    {StatusActive, StatusCancelled},
	StatusActive:     {StatusGrace, StatusCancelled},
	StatusGrace:      {StatusActive, StatusDelinquent, StatusCancelled},
	StatusDelinquent: {StatusActive, StatusCancelled},
	StatusCancelled:  {},
	StatusPaused:     {},
}

func (s SubscriptionStatus) String() string {
	return string(s)
}

func (s SubscriptionStatus) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

func (s SubscriptionStatus) IsTerminal() bool {
	return s == StatusCancelled
}

// CanTransitionTo reports whether target is a legal business transition from s.
// Staying in the same state is not a transition; callers treat it as a no-op.
func (s SubscriptionStatus) CanTransitionTo(target SubscriptionStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// AllowedTargets returns the states reachable from s.
func (s SubscriptionStatus) AllowedTargets() []SubscriptionStatus {
	out := make([]SubscriptionStatus, len(transitions[s]))
	copy(out, transitions[s])
	return out
}

// HasServiceAccess reports whether the tutor keeps full platform access in this state.
func (s SubscriptionStatus) HasServiceAccess() bool {
	return s == StatusActive || s == StatusGrace
}

func ParseStatus(raw string) (SubscriptionStatus, bool) {
	s := SubscriptionStatus(raw)
	return s, s.IsValid()
}
