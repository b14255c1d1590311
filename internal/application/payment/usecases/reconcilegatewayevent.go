package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mateatletas/tutorbilling/internal/application/subscription/services"
	"github.com/mateatletas/tutorbilling/internal/domain/payment"
	paymentvo "github.com/mateatletas/tutorbilling/internal/domain/payment/valueobjects"
	"github.com/mateatletas/tutorbilling/internal/domain/subscription"
	vo "github.com/mateatletas/tutorbilling/internal/domain/subscription/valueobjects"
	"github.com/mateatletas/tutorbilling/internal/shared/biztime"
	apperrors "github.com/mateatletas/tutorbilling/internal/shared/errors"
	"github.com/mateatletas/tutorbilling/internal/shared/logger"
	"github.com/mateatletas/tutorbilling/internal/shared/utils"
)

const defaultMaxReconcileAttempts = 3

// Reconcile outcomes, also used as metric labels.
const (
	ReconcileApplied    = "applied"
	ReconcileNoop       = "noop"
	ReconcileDuplicate  = "duplicate"
	ReconcileRejected   = "rejected"
	ReconcileUnmappable = "unmappable"
	ReconcileNotFound   = "not_found"
	ReconcileConflict   = "conflict"
	ReconcileError      = "error"
)

// ReconcileGatewayEventCommand is one inbound gateway notification.
type ReconcileGatewayEventCommand struct {
	GatewayEventID         string     `json:"gateway_event_id" validate:"required,max=128"`
	GatewaySubscriptionRef string     `json:"gateway_subscription_ref" validate:"required,max=128"`
	GatewayPaymentRef      *string    `json:"gateway_payment_ref" validate:"omitempty,min=1,max=128"`
	GatewayStatus          string     `json:"gateway_status" validate:"required,max=64"`
	Amount                 *float64   `json:"amount" validate:"omitempty,gte=0,lte=92233720368547758"`
	Currency               *string    `json:"currency" validate:"omitempty,currency"`
	PeriodStart            *time.Time `json:"period_start"`
	PeriodEnd              *time.Time `json:"period_end"`
	// ExternalReference is the subscription SID handed to the gateway at checkout. It links
	// an unknown gateway reference on first contact.
	ExternalReference string          `json:"external_reference" validate:"max=64"`
	RawPayload        json.RawMessage `json:"raw_payload"`
}

type ReconcileResult struct {
	Outcome        string  `json:"outcome"`
	SubscriptionID uint    `json:"subscription_id"`
	PreviousStatus string  `json:"previous_status"`
	NewStatus      string  `json:"new_status"`
	PaymentID      *uint   `json:"payment_id,omitempty"`
	Attempts       int     `json:"attempts"`
	Reason         *string `json:"reason,omitempty"`
}

// ReconcileGatewayEventUseCase turns at-least-once gateway events into at-most-once state
// changes. Dedup marker, payment upsert and transition commit in one transaction; a lost
// version race rolls all of it back and the whole decision is retried.
type ReconcileGatewayEventUseCase struct {
	subscriptionRepo     subscription.SubscriptionRepository
	paymentRepo          payment.PaymentRepository
	eventRepo            payment.ProcessedEventRepository
	engine               TransitionApplier
	txMgr                services.TransactionRunner
	maxAttempts          int
	pausedAsCancellation bool
	recorder             ReconcileRecorder
	now                  func() time.Time
	logger               logger.Interface
}

func NewReconcileGatewayEventUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	paymentRepo payment.PaymentRepository,
	eventRepo payment.ProcessedEventRepository,
	engine TransitionApplier,
	txMgr services.TransactionRunner,
	logger logger.Interface,
) *ReconcileGatewayEventUseCase {
	return &ReconcileGatewayEventUseCase{
		subscriptionRepo: subscriptionRepo,
		paymentRepo:      paymentRepo,
		eventRepo:        eventRepo,
		engine:           engine,
		txMgr:            txMgr,
		maxAttempts:      defaultMaxReconcileAttempts,
		now:              biztime.NowUTC,
		logger:           logger,
	}
}

// SetMaxAttempts bounds the retries on concurrent modification.
func (uc *ReconcileGatewayEventUseCase) SetMaxAttempts(attempts int) {
	if attempts > 0 {
		uc.maxAttempts = attempts
	}
}

// SetPausedAsCancellation makes a gateway pause cancel the subscription instead of only
// echoing the raw status.
func (uc *ReconcileGatewayEventUseCase) SetPausedAsCancellation(enabled bool) {
	uc.pausedAsCancellation = enabled
}

// SetRecorder sets the reconcile metrics recorder (optional dependency injection)
func (uc *ReconcileGatewayEventUseCase) SetRecorder(recorder ReconcileRecorder) {
	uc.recorder = recorder
}

// SetClock replaces the time source.
func (uc *ReconcileGatewayEventUseCase) SetClock(now func() time.Time) {
	uc.now = now
}

func (uc *ReconcileGatewayEventUseCase) Execute(ctx context.Context, cmd ReconcileGatewayEventCommand) (*ReconcileResult, error) {
	started := time.Now()

	if cmd.Currency != nil {
		normalized := strings.ToUpper(strings.TrimSpace(*cmd.Currency))
		cmd.Currency = &normalized
	}
	if err := utils.ValidateStruct(cmd); err != nil {
		return nil, err
	}
	if cmd.PeriodStart != nil && cmd.PeriodEnd != nil && cmd.PeriodEnd.Before(*cmd.PeriodStart) {
		return nil, apperrors.NewValidationError("Validation failed", "period_end must not be before period_start")
	}

	intent, err := paymentvo.MapGatewayStatus(cmd.GatewayStatus)
	if err != nil {
		uc.logger.Warnw("unmappable gateway status",
			"gateway_event_id", cmd.GatewayEventID,
			"gateway_subscription_ref", cmd.GatewaySubscriptionRef,
			"gateway_status", cmd.GatewayStatus,
		)
		uc.record(ReconcileUnmappable, started)
		return nil, err
	}

	var (
		result *ReconcileResult
		failed error
	)
	for attempt := 1; ; attempt++ {
		result, failed = uc.reconcileOnce(ctx, cmd, intent)
		if result != nil {
			result.Attempts = attempt
		}
		if !errors.Is(failed, subscription.ErrConcurrentModification) || attempt >= uc.maxAttempts {
			break
		}
		uc.logger.Debugw("retrying gateway event after concurrent modification",
			"gateway_event_id", cmd.GatewayEventID, "attempt", attempt)
	}

	uc.record(outcomeOf(result, failed), started)
	uc.logOutcome(cmd, result, failed)
	return result, failed
}

// reconcileOnce runs one full decision in a transaction. Permanent rejections commit the
// dedup marker and the payment; every other error rolls back.
func (uc *ReconcileGatewayEventUseCase) reconcileOnce(
	ctx context.Context,
	cmd ReconcileGatewayEventCommand,
	intent paymentvo.Intent,
) (*ReconcileResult, error) {
	status := paymentvo.NormalizeGatewayStatus(cmd.GatewayStatus)
	var (
		result    *ReconcileResult
		permanent error
	)

	err := uc.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		now := uc.now()

		event, err := payment.NewProcessedEvent(cmd.GatewayEventID, cmd.GatewaySubscriptionRef, status, now)
		if err != nil {
			return err
		}
		if err := uc.eventRepo.Record(txCtx, event); err != nil {
			return err
		}

		sub, err := uc.resolveSubscription(txCtx, cmd)
		if err != nil {
			return err
		}

		result = &ReconcileResult{
			SubscriptionID: sub.ID(),
			PreviousStatus: sub.Status().String(),
			NewStatus:      sub.Status().String(),
		}

		if cmd.GatewayPaymentRef != nil {
			paymentID, err := uc.upsertPayment(txCtx, sub, cmd, status, now)
			if err != nil {
				return err
			}
			result.PaymentID = &paymentID
		}

		target, reason := uc.deriveTarget(intent, sub, status, now)
		version := sub.Version()
		transition, err := uc.engine.ApplyTransition(txCtx, services.TransitionRequest{
			SubscriptionID:  sub.ID(),
			Target:          target,
			Reason:          reason,
			Actor:           vo.ActorGateway,
			Metadata:        uc.ledgerMetadata(cmd, intent),
			ExpectedVersion: &version,
			GatewayStatus:   status,
		})
		switch {
		case errors.Is(err, subscription.ErrInvalidStatusTransition), errors.Is(err, subscription.ErrAlreadyTerminal):
			permanent = err
			result.Outcome = ReconcileRejected
			msg := err.Error()
			result.Reason = &msg
			return uc.eventRepo.SetOutcome(txCtx, cmd.GatewayEventID, payment.OutcomeRejected, &msg)
		case err != nil:
			return err
		}

		result.NewStatus = transition.Subscription.Status().String()
		eventOutcome := payment.OutcomeNoop
		result.Outcome = ReconcileNoop
		if transition.Outcome == services.OutcomeApplied {
			eventOutcome = payment.OutcomeApplied
			result.Outcome = ReconcileApplied
		}
		return uc.eventRepo.SetOutcome(txCtx, cmd.GatewayEventID, eventOutcome, nil)
	})
	if err != nil {
		return nil, err
	}
	return result, permanent
}

// resolveSubscription finds the subscription by gateway reference, falling back to the
// external reference for a first event on a subscription created without one.
func (uc *ReconcileGatewayEventUseCase) resolveSubscription(ctx context.Context, cmd ReconcileGatewayEventCommand) (*subscription.Subscription, error) {
	sub, err := uc.subscriptionRepo.GetByGatewayRef(ctx, cmd.GatewaySubscriptionRef)
	if err != nil {
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}
	if sub != nil {
		return sub, nil
	}
	if cmd.ExternalReference == "" {
		return nil, subscription.ErrSubscriptionNotFound
	}

	sub, err = uc.subscriptionRepo.GetBySID(ctx, cmd.ExternalReference)
	if err != nil {
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}
	if sub == nil || sub.GatewayRef() != nil {
		return nil, subscription.ErrSubscriptionNotFound
	}

	if err := uc.engine.LinkGatewayReference(ctx, sub.ID(), cmd.GatewaySubscriptionRef); err != nil {
		return nil, err
	}
	uc.logger.Infow("gateway reference linked",
		"subscription_id", sub.ID(), "gateway_subscription_ref", cmd.GatewaySubscriptionRef)

	sub, err = uc.subscriptionRepo.GetByID(ctx, sub.ID())
	if err != nil {
		return nil, fmt.Errorf("failed to reload subscription: %w", err)
	}
	if sub == nil {
		return nil, subscription.ErrSubscriptionNotFound
	}
	return sub, nil
}

func (uc *ReconcileGatewayEventUseCase) upsertPayment(
	ctx context.Context,
	sub *subscription.Subscription,
	cmd ReconcileGatewayEventCommand,
	status string,
	now time.Time,
) (uint, error) {
	var amount *paymentvo.Money
	if cmd.Amount != nil {
		currency := sub.Currency()
		if cmd.Currency != nil {
			currency = *cmd.Currency
		}
		m, err := paymentvo.NewMoneyFromMajor(*cmd.Amount, currency)
		if err != nil {
			return 0, apperrors.NewValidationError("Validation failed", err.Error())
		}
		amount = &m
	}

	previousAttempts, err := uc.paymentRepo.CountForPeriod(ctx, sub.ID(), cmd.PeriodStart)
	if err != nil {
		return 0, fmt.Errorf("failed to count payment attempts: %w", err)
	}

	p, err := payment.NewPayment(
		sub.ID(),
		*cmd.GatewayPaymentRef,
		status,
		amount,
		cmd.PeriodStart,
		cmd.PeriodEnd,
		int(previousAttempts)+1,
		map[string]interface{}{
			"gateway_event_id": cmd.GatewayEventID,
			"raw_payload":      rawPayload(cmd.RawPayload),
		},
		now,
	)
	if err != nil {
		return 0, err
	}

	created, err := uc.paymentRepo.Upsert(ctx, p)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert payment: %w", err)
	}
	if created {
		uc.logger.Infow("payment recorded",
			"payment_id", p.ID(),
			"subscription_id", sub.ID(),
			"gateway_payment_ref", p.GatewayPaymentRef(),
			"attempt", p.AttemptNumber(),
		)
	}
	return p.ID(), nil
}

// deriveTarget decides the lifecycle target for intent given the current snapshot.
func (uc *ReconcileGatewayEventUseCase) deriveTarget(
	intent paymentvo.Intent,
	sub *subscription.Subscription,
	status string,
	now time.Time,
) (vo.SubscriptionStatus, string) {
	current := sub.Status()

	if intent.SignalsMissedPayment() {
		switch current {
		case vo.StatusActive:
			return vo.StatusGrace, fmt.Sprintf("payment %s", status)
		case vo.StatusGrace:
			if uc.engine.GracePolicy().Evaluate(sub, now).ShouldEscalateToMorosa {
				return vo.StatusDelinquent, fmt.Sprintf("grace period expired, payment %s", status)
			}
		}
		return current, fmt.Sprintf("payment %s", status)
	}

	switch intent {
	case paymentvo.IntentConfirmPayment:
		return vo.StatusActive, fmt.Sprintf("gateway reported %s", status)
	case paymentvo.IntentCancel:
		return vo.StatusCancelled, "cancelled at gateway"
	case paymentvo.IntentPauseEcho:
		if uc.pausedAsCancellation {
			return vo.StatusCancelled, "paused at gateway"
		}
		return current, "paused at gateway"
	}
	return current, status
}

func (uc *ReconcileGatewayEventUseCase) ledgerMetadata(cmd ReconcileGatewayEventCommand, intent paymentvo.Intent) map[string]interface{} {
	metadata := map[string]interface{}{
		"gateway_event_id":         cmd.GatewayEventID,
		"gateway_subscription_ref": cmd.GatewaySubscriptionRef,
		"intent":                   intent.String(),
		"raw_payload":              rawPayload(cmd.RawPayload),
	}
	if cmd.GatewayPaymentRef != nil {
		metadata["gateway_payment_ref"] = *cmd.GatewayPaymentRef
	}
	return metadata
}

func (uc *ReconcileGatewayEventUseCase) record(outcome string, started time.Time) {
	if uc.recorder != nil {
		uc.recorder.RecordReconcile(outcome, time.Since(started))
	}
}

func (uc *ReconcileGatewayEventUseCase) logOutcome(cmd ReconcileGatewayEventCommand, result *ReconcileResult, err error) {
	fields := []interface{}{
		"gateway_event_id", cmd.GatewayEventID,
		"gateway_subscription_ref", cmd.GatewaySubscriptionRef,
		"gateway_status", cmd.GatewayStatus,
	}
	if result != nil {
		fields = append(fields,
			"subscription_id", result.SubscriptionID,
			"from", result.PreviousStatus,
			"to", result.NewStatus,
			"attempts", result.Attempts,
		)
	}

	switch {
	case err == nil:
		uc.logger.Infow("gateway event reconciled", append(fields, "outcome", result.Outcome)...)
	case errors.Is(err, payment.ErrDuplicateEvent):
		uc.logger.Infow("duplicate gateway event ignored", fields...)
	case errors.Is(err, subscription.ErrInvalidStatusTransition), errors.Is(err, subscription.ErrAlreadyTerminal):
		uc.logger.Warnw("gateway event rejected", append(fields, "error", err)...)
	case errors.Is(err, subscription.ErrSubscriptionNotFound):
		uc.logger.Warnw("gateway event for unknown subscription", fields...)
	default:
		uc.logger.Errorw("failed to reconcile gateway event", append(fields, "error", err)...)
	}
}

func outcomeOf(result *ReconcileResult, err error) string {
	switch {
	case err == nil:
		return result.Outcome
	case errors.Is(err, payment.ErrDuplicateEvent):
		return ReconcileDuplicate
	case errors.Is(err, subscription.ErrInvalidStatusTransition), errors.Is(err, subscription.ErrAlreadyTerminal):
		return ReconcileRejected
	case errors.Is(err, subscription.ErrSubscriptionNotFound):
		return ReconcileNotFound
	case errors.Is(err, subscription.ErrConcurrentModification):
		return ReconcileConflict
	}
	return ReconcileError
}

// rawPayload keeps the payload bytes verbatim when they are valid JSON and as a string
// otherwise.
func rawPayload(raw json.RawMessage) interface{} {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return nil
	}
	if json.Valid([]byte(trimmed)) {
		return json.RawMessage(trimmed)
	}
	return trimmed
}
