package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mateatletas/tutorbilling/internal/application/subscription/usecases"
	"github.com/mateatletas/tutorbilling/internal/shared/logger"
	"github.com/mateatletas/tutorbilling/internal/shared/utils"
)

type SubscriptionHandler struct {
	createSubscriptionUC  createSubscriptionUseCase
	requestCancellationUC requestCancellationUseCase
	getHistoryUC          getSubscriptionHistoryUseCase
	checkAccessUC         checkAccessUseCase
	logger                logger.Interface
}

func NewSubscriptionHandler(
	createSubscriptionUC createSubscriptionUseCase,
	requestCancellationUC requestCancellationUseCase,
	getHistoryUC getSubscriptionHistoryUseCase,
	checkAccessUC checkAccessUseCase,
	logger logger.Interface,
) *SubscriptionHandler {
	return &SubscriptionHandler{
		createSubscriptionUC:  createSubscriptionUC,
		requestCancellationUC: requestCancellationUC,
		getHistoryUC:          getHistoryUC,
		checkAccessUC:         checkAccessUC,
		logger:                logger,
	}
}

type CreateSubscriptionRequest struct {
	TutorID                string `json:"tutor_id" binding:"required"`
	PlanID                 uint   `json:"plan_id" binding:"required"`
	DiscountPercent        int    `json:"discount_percent"`
	GatewaySubscriptionRef string `json:"gateway_subscription_ref"`
}

type CancelSubscriptionRequest struct {
	Actor  string `json:"actor" binding:"required"`
	Reason string `json:"reason" binding:"required"`
}

// CreateSubscription is checkout: the subscription starts PENDIENTE.
func (h *SubscriptionHandler) CreateSubscription(c *gin.Context) {
	var req CreateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for create subscription", "error", err)
		utils.ErrorResponseWithError(c, bindError(err))
		return
	}

	result, err := h.createSubscriptionUC.Execute(c.Request.Context(), usecases.CreateSubscriptionCommand{
		TutorID:                req.TutorID,
		PlanID:                 req.PlanID,
		DiscountPercent:        req.DiscountPercent,
		GatewaySubscriptionRef: req.GatewaySubscriptionRef,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, result, "Subscription created successfully")
}

func (h *SubscriptionHandler) CancelSubscription(c *gin.Context) {
	subscriptionID, err := parseIDParam(c, "id")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	var req CancelSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for cancel subscription",
			"subscription_id", subscriptionID,
			"error", err)
		utils.ErrorResponseWithError(c, bindError(err))
		return
	}

	result, err := h.requestCancellationUC.Execute(c.Request.Context(), usecases.RequestCancellationCommand{
		SubscriptionID: subscriptionID,
		Actor:          req.Actor,
		Reason:         req.Reason,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Subscription cancelled successfully", result)
}

func (h *SubscriptionHandler) GetHistory(c *gin.Context) {
	subscriptionID, err := parseIDParam(c, "id")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.getHistoryUC.Execute(c.Request.Context(), subscriptionID)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}

func (h *SubscriptionHandler) CheckAccess(c *gin.Context) {
	result, err := h.checkAccessUC.Execute(c.Request.Context(), c.Param("tutor_id"))
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}
