package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mateatletas/tutorbilling/internal/application/subscription/services"
	"github.com/mateatletas/tutorbilling/internal/domain/subscription"
	vo "github.com/mateatletas/tutorbilling/internal/domain/subscription/valueobjects"
	"github.com/mateatletas/tutorbilling/internal/shared/biztime"
	"github.com/mateatletas/tutorbilling/internal/shared/logger"
)

const defaultSweepBatchSize = 100

// SweepGracePeriodsResult summarises one sweep.
type SweepGracePeriodsResult struct {
	Scanned   int `json:"scanned"`
	Escalated int `json:"escalated"`
	Tracked   int `json:"tracked"`
	Cancelled int `json:"cancelled"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// SweepGracePeriodsUseCase escalates EN_GRACIA subscriptions whose grace ran out and, when
// configured, cancels subscriptions that stayed MOROSA too long. One subscription failing
// never stops the sweep.
type SweepGracePeriodsUseCase struct {
	subscriptionRepo          subscription.SubscriptionRepository
	engine                    TransitionApplier
	delinquentCancelAfterDays int
	batchSize                 int
	recorder                  SweepRecorder
	now                       func() time.Time
	logger                    logger.Interface
}

func NewSweepGracePeriodsUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	engine TransitionApplier,
	delinquentCancelAfterDays int,
	logger logger.Interface,
) *SweepGracePeriodsUseCase {
	return &SweepGracePeriodsUseCase{
		subscriptionRepo:          subscriptionRepo,
		engine:                    engine,
		delinquentCancelAfterDays: delinquentCancelAfterDays,
		batchSize:                 defaultSweepBatchSize,
		now:                       biztime.NowUTC,
		logger:                    logger,
	}
}

// SetRecorder sets the sweep metrics recorder (optional dependency injection)
func (uc *SweepGracePeriodsUseCase) SetRecorder(recorder SweepRecorder) {
	uc.recorder = recorder
}

// SetClock replaces the time source.
func (uc *SweepGracePeriodsUseCase) SetClock(now func() time.Time) {
	uc.now = now
}

func (uc *SweepGracePeriodsUseCase) Execute(ctx context.Context) (*SweepGracePeriodsResult, error) {
	result := &SweepGracePeriodsResult{}
	now := uc.now()
	policy := uc.engine.GracePolicy()

	grace := vo.StatusGrace
	err := uc.forEach(ctx, subscription.SubscriptionFilter{Status: &grace}, func(sub *subscription.Subscription) {
		result.Scanned++
		outcome := policy.Evaluate(sub, now)
		if !outcome.ShouldEscalateToMorosa {
			if _, err := uc.engine.TrackGraceUsage(ctx, sub.ID()); err != nil {
				uc.logger.Warnw("failed to track grace usage", "subscription_id", sub.ID(), "error", err)
				result.Failed++
				return
			}
			result.Tracked++
			return
		}

		version := sub.Version()
		_, err := uc.engine.ApplyTransition(ctx, services.TransitionRequest{
			SubscriptionID:  sub.ID(),
			Target:          vo.StatusDelinquent,
			Reason:          fmt.Sprintf("grace period of %d days expired", policy.LengthDays),
			Actor:           vo.ActorSystem,
			Metadata:        map[string]interface{}{"source": "grace_sweep", "elapsed_days": outcome.ElapsedDays},
			ExpectedVersion: &version,
		})
		uc.count(result, sub.ID(), err, &result.Escalated)
	})
	if err != nil {
		return result, err
	}

	if uc.delinquentCancelAfterDays > 0 {
		delinquent := vo.StatusDelinquent
		cutoff := now.Add(-time.Duration(uc.delinquentCancelAfterDays) * 24 * time.Hour)
		filter := subscription.SubscriptionFilter{Status: &delinquent, DelinquentBefore: &cutoff}
		err = uc.forEach(ctx, filter, func(sub *subscription.Subscription) {
			result.Scanned++
			version := sub.Version()
			_, err := uc.engine.ApplyTransition(ctx, services.TransitionRequest{
				SubscriptionID:  sub.ID(),
				Target:          vo.StatusCancelled,
				Reason:          fmt.Sprintf("delinquent for more than %d days", uc.delinquentCancelAfterDays),
				Actor:           vo.ActorSystem,
				Metadata:        map[string]interface{}{"source": "grace_sweep"},
				ExpectedVersion: &version,
			})
			uc.count(result, sub.ID(), err, &result.Cancelled)
		})
		if err != nil {
			return result, err
		}
	}

	if uc.recorder != nil {
		uc.recorder.RecordSweep(result.Escalated, result.Cancelled, result.Failed)
	}
	uc.logger.Infow("grace sweep finished",
		"scanned", result.Scanned,
		"escalated", result.Escalated,
		"tracked", result.Tracked,
		"cancelled", result.Cancelled,
		"skipped", result.Skipped,
		"failed", result.Failed,
	)
	return result, nil
}

// count classifies a transition error. A lost version race or a subscription that moved on
// is skipped; the next sweep sees the fresh state.
func (uc *SweepGracePeriodsUseCase) count(result *SweepGracePeriodsResult, subscriptionID uint, err error, success *int) {
	switch {
	case err == nil:
		*success++
	case errors.Is(err, subscription.ErrConcurrentModification),
		errors.Is(err, subscription.ErrInvalidStatusTransition),
		errors.Is(err, subscription.ErrAlreadyTerminal):
		result.Skipped++
	default:
		uc.logger.Errorw("grace sweep transition failed", "subscription_id", subscriptionID, "error", err)
		result.Failed++
	}
}

func (uc *SweepGracePeriodsUseCase) forEach(ctx context.Context, filter subscription.SubscriptionFilter, fn func(*subscription.Subscription)) error {
	filter.Limit = uc.batchSize
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		batch, err := uc.subscriptionRepo.List(ctx, filter)
		if err != nil {
			uc.logger.Errorw("failed to list subscriptions for sweep", "error", err)
			return fmt.Errorf("failed to list subscriptions: %w", err)
		}
		for _, sub := range batch {
			if err := ctx.Err(); err != nil {
				return err
			}
			fn(sub)
			filter.AfterID = sub.ID()
		}
		if len(batch) < filter.Limit {
			return nil
		}
	}
}
