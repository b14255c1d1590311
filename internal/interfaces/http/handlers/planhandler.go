package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mateatletas/tutorbilling/internal/application/subscription/usecases"
	"github.com/mateatletas/tutorbilling/internal/shared/logger"
	"github.com/mateatletas/tutorbilling/internal/shared/utils"
)

type PlanHandler struct {
	createPlanUC     createPlanUseCase
	deactivatePlanUC deactivatePlanUseCase
	logger           logger.Interface
}

func NewPlanHandler(
	createPlanUC createPlanUseCase,
	deactivatePlanUC deactivatePlanUseCase,
	logger logger.Interface,
) *PlanHandler {
	return &PlanHandler{
		createPlanUC:     createPlanUC,
		deactivatePlanUC: deactivatePlanUC,
		logger:           logger,
	}
}

type CreatePlanRequest struct {
	Name          string `json:"name" binding:"required"`
	BasePrice     int64  `json:"base_price" binding:"required"`
	Currency      string `json:"currency" binding:"required"`
	Interval      string `json:"interval" binding:"required"`
	IntervalCount int    `json:"interval_count"`
}

func (h *PlanHandler) CreatePlan(c *gin.Context) {
	var req CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for create plan", "error", err)
		utils.ErrorResponseWithError(c, bindError(err))
		return
	}

	result, err := h.createPlanUC.Execute(c.Request.Context(), usecases.CreatePlanCommand{
		Name:          req.Name,
		BasePrice:     req.BasePrice,
		Currency:      req.Currency,
		Interval:      req.Interval,
		IntervalCount: req.IntervalCount,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, result, "Plan created successfully")
}

func (h *PlanHandler) DeactivatePlan(c *gin.Context) {
	planID, err := parseIDParam(c, "id")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.deactivatePlanUC.Execute(c.Request.Context(), planID)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Plan deactivated successfully", result)
}
