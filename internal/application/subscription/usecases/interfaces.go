package usecases

import (
	"context"

	"github.com/mateatletas/tutorbilling/internal/application/subscription/services"
	"github.com/mateatletas/tutorbilling/internal/domain/subscription"
)

// TransitionApplier is the part of the transition engine the use cases drive.
type TransitionApplier interface {
	ApplyTransition(ctx context.Context, req services.TransitionRequest) (*services.TransitionResult, error)
	TrackGraceUsage(ctx context.Context, subscriptionID uint) (int, error)
	GracePolicy() subscription.GracePolicy
}

// SweepRecorder counts sweep results.
type SweepRecorder interface {
	RecordSweep(escalated, cancelled, failed int)
}
