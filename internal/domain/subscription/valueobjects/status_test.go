package valueobjects

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubscriptionStatusCanTransitionTo(t *testing.T) {
	tests := []struct {
		from SubscriptionStatus
		to   SubscriptionStatus
		want bool
	}{
		{StatusPending, StatusActive, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusGrace, false},
		{StatusActive, StatusGrace, true},
		{StatusActive, StatusDelinquent, false},
		{StatusActive, StatusCancelled, true},
		{StatusGrace, StatusActive, true},
		{StatusGrace, StatusDelinquent, true},
		{StatusGrace, StatusCancelled, true},
		{StatusDelinquent, StatusActive, true},
		{StatusDelinquent, StatusCancelled, true},
		{StatusDelinquent, StatusGrace, false},
		{StatusCancelled, StatusActive, false},
		{StatusActive, StatusActive, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestPausedIsNeverATarget(t *testing.T) {
	for from := range transitions {
		assert.False(t, from.CanTransitionTo(StatusPaused), "from %s", from)
	}
}

func TestParseStatus(t *testing.T) {
	s, ok := ParseStatus("EN_GRACIA")
	assert.True(t, ok)
	assert.Equal(t, StatusGrace, s)

	_, ok = ParseStatus("active")
	assert.False(t, ok)
}

func TestActorIsValid(t *testing.T) {
	assert.True(t, ActorTutor.IsValid())
	assert.False(t, Actor("robot").IsValid())
}

func TestAllowedTargetsIsACopy(t *testing.T) {
	targets := StatusGrace.AllowedTargets()
	assert.Equal(t, []SubscriptionStatus{StatusActive, StatusDelinquent, StatusCancelled}, targets)

	targets[0] = StatusPaused
	assert.True(t, StatusGrace.CanTransitionTo(StatusActive))
	assert.Empty(t, StatusCancelled.AllowedTargets())
}
