package usecases

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mateatletas/tutorbilling/internal/application/subscription/dto"
	"github.com/mateatletas/tutorbilling/internal/domain/subscription"
	vo "github.com/mateatletas/tutorbilling/internal/domain/subscription/valueobjects"
	"github.com/mateatletas/tutorbilling/internal/shared/biztime"
	"github.com/mateatletas/tutorbilling/internal/shared/errors"
	"github.com/mateatletas/tutorbilling/internal/shared/logger"
)

// CheckAccessUseCase answers what platform access a tutor has from their latest subscription.
type CheckAccessUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	gracePolicy      subscription.GracePolicy
	now              func() time.Time
	logger           logger.Interface
}

func NewCheckAccessUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	gracePolicy subscription.GracePolicy,
	logger logger.Interface,
) *CheckAccessUseCase {
	return &CheckAccessUseCase{
		subscriptionRepo: subscriptionRepo,
		gracePolicy:      gracePolicy,
		now:              biztime.NowUTC,
		logger:           logger,
	}
}

func (uc *CheckAccessUseCase) Execute(ctx context.Context, tutorID string) (*dto.AccessDTO, error) {
	tutorID = strings.TrimSpace(tutorID)
	if tutorID == "" {
		return nil, errors.NewValidationError("tutor_id is required")
	}

	sub, err := uc.subscriptionRepo.GetLatestByTutorID(ctx, tutorID)
	if err != nil {
		uc.logger.Errorw("failed to get latest subscription", "tutor_id", tutorID, "error", err)
		return nil, fmt.Errorf("failed to get latest subscription: %w", err)
	}

	out := &dto.AccessDTO{TutorID: tutorID, Access: dto.AccessNone}
	if sub == nil {
		return out, nil
	}

	id, status := sub.ID(), sub.Status().String()
	out.SubscriptionID = &id
	out.Status = &status

	switch {
	case sub.Status().HasServiceAccess():
		out.Access = dto.AccessFull
		if sub.Status() == vo.StatusGrace {
			remaining := uc.gracePolicy.Evaluate(sub, uc.now()).RemainingDays
			if remaining < 0 {
				remaining = 0
			}
			out.GraceDaysRemaining = &remaining
		}
	case sub.Status() == vo.StatusPending:
		out.Access = dto.AccessLimited
	}
	return out, nil
}
