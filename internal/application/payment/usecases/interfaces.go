package usecases

import (
	"context"
	"time"

	"github.com/mateatletas/tutorbilling/internal/application/subscription/services"
	"github.com/mateatletas/tutorbilling/internal/domain/subscription"
)

// TransitionApplier is the part of the transition engine the reconciler drives.
type TransitionApplier interface {
	ApplyTransition(ctx context.Context, req services.TransitionRequest) (*services.TransitionResult, error)
	LinkGatewayReference(ctx context.Context, subscriptionID uint, ref string) error
	GracePolicy() subscription.GracePolicy
}

// ReconcileRecorder observes reconciler outcomes.
type ReconcileRecorder interface {
	RecordReconcile(outcome string, duration time.Duration)
}
