// Package services holds the subscription transition engine, the only writer of subscription
// state.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mateatletas/tutorbilling/internal/domain/subscription"
	vo "github.com/mateatletas/tutorbilling/internal/domain/subscription/valueobjects"
	"github.com/mateatletas/tutorbilling/internal/shared/biztime"
	"github.com/mateatletas/tutorbilling/internal/shared/db"
	"github.com/mateatletas/tutorbilling/internal/shared/logger"
)

// Notifier receives committed transitions. Implementations must not block and must not
// report failures back to the caller.
type Notifier interface {
	Notify(ctx context.Context, subscriptionID uint, previous, next vo.SubscriptionStatus, reason string)
}

// TransactionRunner runs fn in one database transaction, joining the transaction already
// carried by ctx if there is one.
type TransactionRunner interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// TransitionRecorder counts committed transitions.
type TransitionRecorder interface {
	RecordTransition(from, to vo.SubscriptionStatus, actor vo.Actor)
}

type TransitionOutcome string

const (
	// OutcomeApplied is a state change with snapshot update, ledger record and notification.
	OutcomeApplied TransitionOutcome = "applied"
	// OutcomeNoop means the subscription already held the target and nothing was written.
	OutcomeNoop TransitionOutcome = "noop"
	// OutcomeNoopEcho means the state was unchanged but a new raw gateway status was stored
	// and a no-op ledger record appended.
	OutcomeNoopEcho TransitionOutcome = "noop_echo"
)

type TransitionRequest struct {
	SubscriptionID uint
	Target         vo.SubscriptionStatus
	Reason         string
	Actor          vo.Actor
	Metadata       map[string]interface{}
	// ExpectedVersion, when set, must match the stored version or the request fails with
	// ErrConcurrentModification. Callers that derived Target from an earlier read set it.
	ExpectedVersion *int
	// GatewayStatus is the raw vendor status to echo onto the snapshot.
	GatewayStatus string
}

type TransitionResult struct {
	Subscription *subscription.Subscription
	Previous     vo.SubscriptionStatus
	Outcome      TransitionOutcome
	Record       *subscription.HistoryRecord
}

type TransitionEngine struct {
	subscriptionRepo subscription.SubscriptionRepository
	historyRepo      subscription.HistoryRepository
	txMgr            TransactionRunner
	notifier         Notifier
	recorder         TransitionRecorder
	gracePolicy      subscription.GracePolicy
	now              func() time.Time
	logger           logger.Interface
}

func NewTransitionEngine(
	subscriptionRepo subscription.SubscriptionRepository,
	historyRepo subscription.HistoryRepository,
	txMgr TransactionRunner,
	notifier Notifier,
	gracePolicy subscription.GracePolicy,
	logger logger.Interface,
) *TransitionEngine {
	return &TransitionEngine{
		subscriptionRepo: subscriptionRepo,
		historyRepo:      historyRepo,
		txMgr:            txMgr,
		notifier:         notifier,
		gracePolicy:      gracePolicy,
		now:              biztime.NowUTC,
		logger:           logger,
	}
}

// SetRecorder sets the transition metrics recorder (optional dependency injection)
func (e *TransitionEngine) SetRecorder(recorder TransitionRecorder) {
	e.recorder = recorder
}

// SetClock replaces the time source.
func (e *TransitionEngine) SetClock(now func() time.Time) {
	e.now = now
}

func (e *TransitionEngine) GracePolicy() subscription.GracePolicy {
	return e.gracePolicy
}

// ApplyTransition moves a subscription to req.Target. The snapshot update and the ledger
// record commit together; the notifier runs only after commit.
func (e *TransitionEngine) ApplyTransition(ctx context.Context, req TransitionRequest) (*TransitionResult, error) {
	if !req.Target.IsValid() {
		return nil, fmt.Errorf("invalid target status %q", req.Target)
	}
	if !req.Actor.IsValid() {
		return nil, fmt.Errorf("%w: %q", subscription.ErrInvalidActor, req.Actor)
	}

	var result *TransitionResult
	err := e.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		sub, err := e.load(txCtx, req.SubscriptionID)
		if err != nil {
			return err
		}
		if req.ExpectedVersion != nil && *req.ExpectedVersion != sub.Version() {
			return subscription.ErrConcurrentModification
		}

		result, err = e.apply(txCtx, sub, req)
		return err
	})
	if err != nil {
		e.logRejection(req, err)
		return nil, err
	}

	if result.Outcome == OutcomeApplied {
		e.logger.Infow("subscription transition applied",
			"subscription_id", req.SubscriptionID,
			"from", result.Previous,
			"to", req.Target,
			"actor", req.Actor,
			"reason", req.Reason,
		)
	}
	return result, nil
}

func (e *TransitionEngine) apply(ctx context.Context, sub *subscription.Subscription, req TransitionRequest) (*TransitionResult, error) {
	now := e.now()
	current := sub.Status()

	if current.IsTerminal() {
		return nil, subscription.ErrAlreadyTerminal
	}

	if req.Target == current {
		return e.applySameState(ctx, sub, req, now)
	}

	if !current.CanTransitionTo(req.Target) {
		return nil, subscription.ErrInvalidTransition(current, req.Target)
	}

	if current == vo.StatusGrace && req.Target == vo.StatusDelinquent {
		sub.RecordGraceUsage(e.gracePolicy.UsedDays(sub, now), now)
	}
	if err := sub.TransitionTo(req.Target, req.Reason, req.Actor, now); err != nil {
		return nil, err
	}
	if req.GatewayStatus != "" {
		sub.EchoGatewayStatus(req.GatewayStatus, now)
	}

	if err := e.subscriptionRepo.Update(ctx, sub); err != nil {
		return nil, err
	}

	previous, err := e.previousForLedger(ctx, sub.ID(), current)
	if err != nil {
		return nil, err
	}
	record, err := e.appendRecord(ctx, sub.ID(), previous, req.Target, req, now)
	if err != nil {
		return nil, err
	}

	subscriptionID, reason, actor := sub.ID(), req.Reason, req.Actor
	db.AfterCommit(ctx, func() {
		if e.recorder != nil {
			e.recorder.RecordTransition(current, req.Target, actor)
		}
		if e.notifier != nil {
			e.notifier.Notify(context.Background(), subscriptionID, current, req.Target, reason)
		}
	})

	return &TransitionResult{
		Subscription: sub,
		Previous:     current,
		Outcome:      OutcomeApplied,
		Record:       record,
	}, nil
}

// applySameState resolves a request for the state the subscription already holds. Only a
// changed raw gateway status is written, as a no-op ledger record without notification.
func (e *TransitionEngine) applySameState(ctx context.Context, sub *subscription.Subscription, req TransitionRequest, now time.Time) (*TransitionResult, error) {
	current := sub.Status()
	result := &TransitionResult{Subscription: sub, Previous: current, Outcome: OutcomeNoop}

	if req.GatewayStatus == "" || !sub.EchoGatewayStatus(req.GatewayStatus, now) {
		return result, nil
	}

	if err := e.subscriptionRepo.Update(ctx, sub); err != nil {
		return nil, err
	}
	previous, err := e.previousForLedger(ctx, sub.ID(), current)
	if err != nil {
		return nil, err
	}
	record, err := e.appendRecord(ctx, sub.ID(), previous, current, req, now)
	if err != nil {
		return nil, err
	}

	result.Outcome = OutcomeNoopEcho
	result.Record = record
	return result, nil
}

// previousForLedger returns nil for the first record of a subscription.
func (e *TransitionEngine) previousForLedger(ctx context.Context, subscriptionID uint, current vo.SubscriptionStatus) (*vo.SubscriptionStatus, error) {
	latest, err := e.historyRepo.Latest(ctx, subscriptionID)
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}
	if latest == nil {
		return nil, nil
	}
	return &current, nil
}

func (e *TransitionEngine) appendRecord(
	ctx context.Context,
	subscriptionID uint,
	previous *vo.SubscriptionStatus,
	next vo.SubscriptionStatus,
	req TransitionRequest,
	now time.Time,
) (*subscription.HistoryRecord, error) {
	metadata := make(map[string]interface{}, len(req.Metadata)+1)
	for k, v := range req.Metadata {
		metadata[k] = v
	}
	if req.GatewayStatus != "" {
		metadata["gateway_status"] = req.GatewayStatus
	}

	record, err := subscription.NewHistoryRecord(subscriptionID, previous, next, req.Reason, req.Actor, metadata, now)
	if err != nil {
		return nil, err
	}
	if err := e.historyRepo.Append(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// LinkGatewayReference stores the gateway subscription reference on first contact.
func (e *TransitionEngine) LinkGatewayReference(ctx context.Context, subscriptionID uint, ref string) error {
	return e.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		sub, err := e.load(txCtx, subscriptionID)
		if err != nil {
			return err
		}
		changed, err := sub.LinkGatewayReference(ref, e.now())
		if err != nil || !changed {
			return err
		}
		return e.subscriptionRepo.Update(txCtx, sub)
	})
}

// TrackGraceUsage refreshes the grace counter of an EN_GRACIA subscription and returns the
// stored value. Other states are left untouched.
func (e *TransitionEngine) TrackGraceUsage(ctx context.Context, subscriptionID uint) (int, error) {
	var used int
	err := e.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		sub, err := e.load(txCtx, subscriptionID)
		if err != nil {
			return err
		}
		now := e.now()
		if sub.RecordGraceUsage(e.gracePolicy.UsedDays(sub, now), now) {
			if err := e.subscriptionRepo.Update(txCtx, sub); err != nil {
				return err
			}
		}
		used = sub.GraceDaysUsed()
		return nil
	})
	return used, err
}

func (e *TransitionEngine) load(ctx context.Context, subscriptionID uint) (*subscription.Subscription, error) {
	sub, err := e.subscriptionRepo.GetByID(ctx, subscriptionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}
	if sub == nil {
		return nil, subscription.ErrSubscriptionNotFound
	}
	return sub, nil
}

func (e *TransitionEngine) logRejection(req TransitionRequest, err error) {
	switch {
	case errors.Is(err, subscription.ErrConcurrentModification):
		e.logger.Debugw("subscription transition lost version race",
			"subscription_id", req.SubscriptionID, "target", req.Target)
	case errors.Is(err, subscription.ErrInvalidStatusTransition),
		errors.Is(err, subscription.ErrAlreadyTerminal),
		errors.Is(err, subscription.ErrSubscriptionNotFound):
		e.logger.Warnw("subscription transition rejected",
			"subscription_id", req.SubscriptionID, "target", req.Target, "actor", req.Actor, "error", err)
	default:
		e.logger.Errorw("subscription transition failed",
			"subscription_id", req.SubscriptionID, "target", req.Target, "error", err)
	}
}
