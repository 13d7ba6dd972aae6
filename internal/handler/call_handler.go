package handler

import (
	"net/http"

	"coinmeet/internal/middleware"
	"coinmeet/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CallHandler struct {
	billing *service.BillingService
	log     *zap.Logger
}

func NewCallHandler(billing *service.BillingService, log *zap.Logger) *CallHandler {
	return &CallHandler{billing: billing, log: log}
}

// Start handles POST /male-user/calls/start.
func (h *CallHandler) Start(c *gin.Context) {
	var req struct {
		ReceiverID uint `json:"receiver_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	res, err := h.billing.StartCall(c.Request.Context(), middleware.GetUserID(c), req.ReceiverID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "call can start", res)
}

// End handles POST /male-user/calls/end.
func (h *CallHandler) End(c *gin.Context) {
	var req struct {
		ReceiverID uint   `json:"receiver_id" binding:"required"`
		Duration   *int64 `json:"duration" binding:"required"`
		CallType   string `json:"call_type" binding:"omitempty,oneof=video audio"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	res, err := h.billing.EndCall(c.Request.Context(), service.EndCallInput{
		CallerID:   middleware.GetUserID(c),
		ReceiverID: req.ReceiverID,
		Duration:   *req.Duration,
		CallType:   req.CallType,
	})
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "call settled", res)
}

// History handles GET /male-user/calls/history.
func (h *CallHandler) History(c *gin.Context) {
	limit, skip := parseLimitSkip(c)
	list, total, err := h.billing.History(middleware.GetUserID(c), limit, skip)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "call history", gin.H{"items": list, "total": total, "limit": limit, "skip": skip})
}

// ReceivedHistory handles GET /female-user/calls/history.
func (h *CallHandler) ReceivedHistory(c *gin.Context) {
	limit, skip := parseLimitSkip(c)
	list, total, err := h.billing.ReceivedHistory(middleware.GetUserID(c), limit, skip)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "call history", gin.H{"items": list, "total": total, "limit": limit, "skip": skip})
}

// Stats handles GET /male-user/calls/stats.
func (h *CallHandler) Stats(c *gin.Context) {
	stats, err := h.billing.Stats(middleware.GetUserID(c))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "call stats", stats)
}
