package subscription

import (
	"time"

	vo "github.com/mateatletas/tutorbilling/internal/domain/subscription/valueobjects"
	"github.com/mateatletas/tutorbilling/internal/shared/biztime"
)

// DefaultGracePeriodDays is the grace window after a missed payment.
const DefaultGracePeriodDays = 3

// GraceOutcome is the result of evaluating a subscription's grace window.
type GraceOutcome struct {
	ElapsedDays            int
	RemainingDays          int
	ShouldEscalateToMorosa bool
}

// ComputeGraceOutcome evaluates the grace window of sub at now. Only EN_GRACIA subscriptions
// with a grace start can escalate; anything else reports the full window.
func ComputeGraceOutcome(sub *Subscription, now time.Time, lengthDays int) GraceOutcome {
	if sub == nil || sub.Status() != vo.StatusGrace || sub.GracePeriodStart() == nil {
		return GraceOutcome{RemainingDays: lengthDays}
	}

	elapsed := biztime.WholeDaysBetween(*sub.GracePeriodStart(), now)
	remaining := lengthDays - elapsed
	return GraceOutcome{
		ElapsedDays:            elapsed,
		RemainingDays:          remaining,
		ShouldEscalateToMorosa: remaining <= 0,
	}
}

// GracePolicy binds the configured grace length.
type GracePolicy struct {
	LengthDays int
}

func NewGracePolicy(lengthDays int) GracePolicy {
	if lengthDays < 1 {
		lengthDays = DefaultGracePeriodDays
	}
	return GracePolicy{LengthDays: lengthDays}
}

func (p GracePolicy) Evaluate(sub *Subscription, now time.Time) GraceOutcome {
	return ComputeGraceOutcome(sub, now, p.LengthDays)
}

// UsedDays is the grace counter value for sub at now, capped at the window length.
func (p GracePolicy) UsedDays(sub *Subscription, now time.Time) int {
	out := p.Evaluate(sub, now)
	if out.ElapsedDays > p.LengthDays {
		return p.LengthDays
	}
	return out.ElapsedDays
}
