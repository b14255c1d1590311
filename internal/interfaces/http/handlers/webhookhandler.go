package handlers

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	paymentUsecases "github.com/mateatletas/tutorbilling/internal/application/payment/usecases"
	"github.com/mateatletas/tutorbilling/internal/domain/payment"
	"github.com/mateatletas/tutorbilling/internal/domain/subscription"
	"github.com/mateatletas/tutorbilling/internal/shared/errors"
	"github.com/mateatletas/tutorbilling/internal/shared/logger"
	"github.com/mateatletas/tutorbilling/internal/shared/utils"
)

// GatewayWebhookRequest is the payload the payment gateway posts for every event.
type GatewayWebhookRequest struct {
	GatewayEventID         string          `json:"gateway_event_id"`
	GatewaySubscriptionRef string          `json:"gateway_subscription_ref"`
	GatewayPaymentRef      *string         `json:"gateway_payment_ref"`
	GatewayStatus          string          `json:"gateway_status"`
	Amount                 *float64        `json:"amount"`
	Currency               *string         `json:"currency"`
	PeriodStart            *time.Time      `json:"period_start"`
	PeriodEnd              *time.Time      `json:"period_end"`
	ExternalReference      string          `json:"external_reference"`
	RawPayload             json.RawMessage `json:"raw_payload"`
}

type WebhookResponse struct {
	Outcome        string  `json:"outcome"`
	SubscriptionID uint    `json:"subscription_id,omitempty"`
	PreviousStatus string  `json:"previous_status,omitempty"`
	NewStatus      string  `json:"new_status,omitempty"`
	PaymentID      *uint   `json:"payment_id,omitempty"`
	Attempts       int     `json:"attempts,omitempty"`
	Duplicate      bool    `json:"duplicate"`
	Rejected       bool    `json:"rejected"`
	Reason         *string `json:"reason,omitempty"`
}

// WebhookHandler acknowledges gateway events. Every 2xx tells the gateway to stop
// redelivering, so only outcomes that a retry cannot change are acknowledged.
type WebhookHandler struct {
	reconcileUC reconcileGatewayEventUseCase
	logger      logger.Interface
}

func NewWebhookHandler(reconcileUC reconcileGatewayEventUseCase, logger logger.Interface) *WebhookHandler {
	return &WebhookHandler{
		reconcileUC: reconcileUC,
		logger:      logger,
	}
}

func (h *WebhookHandler) HandleGatewayEvent(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		utils.ErrorResponseWithError(c, errors.NewValidationError("failed to read request body"))
		return
	}

	var req GatewayWebhookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.logger.Warnw("invalid gateway webhook body", "error", err)
		utils.ErrorResponseWithError(c, bindError(err))
		return
	}

	raw := req.RawPayload
	if len(raw) == 0 || string(raw) == "null" {
		raw = json.RawMessage(body)
	}

	cmd := paymentUsecases.ReconcileGatewayEventCommand{
		GatewayEventID:         req.GatewayEventID,
		GatewaySubscriptionRef: req.GatewaySubscriptionRef,
		GatewayPaymentRef:      req.GatewayPaymentRef,
		GatewayStatus:          req.GatewayStatus,
		Amount:                 req.Amount,
		Currency:               req.Currency,
		PeriodStart:            req.PeriodStart,
		PeriodEnd:              req.PeriodEnd,
		ExternalReference:      req.ExternalReference,
		RawPayload:             raw,
	}

	result, err := h.reconcileUC.Execute(c.Request.Context(), cmd)
	switch {
	case err == nil:
		utils.SuccessResponse(c, http.StatusOK, "Event processed", toWebhookResponse(result))
	case stderrors.Is(err, payment.ErrDuplicateEvent):
		utils.SuccessResponse(c, http.StatusOK, "Event already processed", WebhookResponse{
			Outcome:   paymentUsecases.ReconcileDuplicate,
			Duplicate: true,
		})
	case stderrors.Is(err, subscription.ErrInvalidStatusTransition), stderrors.Is(err, subscription.ErrAlreadyTerminal):
		resp := toWebhookResponse(result)
		resp.Outcome = paymentUsecases.ReconcileRejected
		resp.Rejected = true
		if resp.Reason == nil {
			reason := err.Error()
			resp.Reason = &reason
		}
		utils.SuccessResponse(c, http.StatusOK, "Event rejected", resp)
	case stderrors.Is(err, payment.ErrUnmappableStatus):
		utils.ErrorResponseWithError(c, errors.NewUnprocessableError("unmappable gateway status", req.GatewayStatus))
	case stderrors.Is(err, subscription.ErrSubscriptionNotFound):
		utils.ErrorResponseWithError(c, errors.NewNotFoundError("subscription not found", req.GatewaySubscriptionRef))
	case stderrors.Is(err, payment.ErrPaymentRefConflict):
		utils.ErrorResponseWithError(c, errors.NewConflictError("gateway payment reference belongs to another subscription", *req.GatewayPaymentRef))
	case stderrors.Is(err, subscription.ErrConcurrentModification):
		utils.ErrorResponseWithError(c, errors.NewConflictError("subscription was modified concurrently, retry later"))
	default:
		utils.ErrorResponseWithError(c, err)
	}
}

func toWebhookResponse(result *paymentUsecases.ReconcileResult) WebhookResponse {
	if result == nil {
		return WebhookResponse{}
	}
	return WebhookResponse{
		Outcome:        result.Outcome,
		SubscriptionID: result.SubscriptionID,
		PreviousStatus: result.PreviousStatus,
		NewStatus:      result.NewStatus,
		PaymentID:      result.PaymentID,
		Attempts:       result.Attempts,
		Reason:         result.Reason,
	}
}
