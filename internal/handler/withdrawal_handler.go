package handler

import (
	"net/http"
	"strconv"

	"coinmeet/internal/middleware"
	"coinmeet/internal/models"
	"coinmeet/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type WithdrawalHandler struct {
	withdrawals *service.WithdrawalService
	admin       *service.AdminService
	log         *zap.Logger
}

func NewWithdrawalHandler(withdrawals *service.WithdrawalService, admin *service.AdminService, log *zap.Logger) *WithdrawalHandler {
	return &WithdrawalHandler{withdrawals: withdrawals, admin: admin, log: log}
}

type createWithdrawalRequest struct {
	Coins          *int64               `json:"coins"`
	AmountInRupees *decimal.Decimal     `json:"amount_in_rupees"`
	PayoutMethod   string               `json:"payout_method" binding:"required"`
	PayoutDetails  models.PayoutDetails `json:"payout_details"`
}

// Create handles POST /female-user/withdrawals and POST /agency/withdrawals.
func (h *WithdrawalHandler) Create(c *gin.Context) {
	var req createWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	w, err := h.withdrawals.Create(c.Request.Context(), service.CreateWithdrawalInput{
		UserType:       middleware.GetUserType(c),
		UserID:         middleware.GetUserID(c),
		Coins:          req.Coins,
		AmountInRupees: req.AmountInRupees,
		PayoutMethod:   req.PayoutMethod,
		PayoutDetails:  req.PayoutDetails,
	})
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusCreated, "withdrawal request created", w)
}

// ListMine handles GET /female-user/withdrawals and GET /agency/withdrawals.
func (h *WithdrawalHandler) ListMine(c *gin.Context) {
	page, limit := parsePagination(c)
	list, total, err := h.withdrawals.ListMine(middleware.GetUserType(c), middleware.GetUserID(c), page, limit)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "withdrawals", pageOf(list, total, page, limit))
}

// AdminList handles GET /admin/withdrawals?status=.
func (h *WithdrawalHandler) AdminList(c *gin.Context) {
	page, limit := parsePagination(c)
	list, total, err := h.withdrawals.List(c.Query("status"), page, limit)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "withdrawals", pageOf(list, total, page, limit))
}

// Approve handles POST /admin/withdrawals/:id/approve.
func (h *WithdrawalHandler) Approve(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	adminID := middleware.GetUserID(c)
	w, err := h.withdrawals.Approve(c.Request.Context(), id, adminID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	h.admin.Audit(auditFrom(c, adminID, "withdrawal.approve", "withdrawal_request", strconv.FormatUint(uint64(id), 10), map[string]interface{}{
		"payout_ref": w.PayoutRef,
	}))
	respond(c, http.StatusOK, "withdrawal approved", w)
}

// Reject handles POST /admin/withdrawals/:id/reject.
func (h *WithdrawalHandler) Reject(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Reason string `json:"reason"`
	}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
	}
	adminID := middleware.GetUserID(c)
	w, err := h.withdrawals.Reject(c.Request.Context(), id, adminID, req.Reason)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	h.admin.Audit(auditFrom(c, adminID, "withdrawal.reject", "withdrawal_request", strconv.FormatUint(uint64(id), 10), map[string]interface{}{
		"reason":         req.Reason,
		"coins_refunded": w.CoinsRequested,
	}))
	respond(c, http.StatusOK, "withdrawal rejected and coins refunded", w)
}

func auditFrom(c *gin.Context, adminID uint, action, resource, resourceID string, meta map[string]interface{}) service.AuditEntry {
	return service.AuditEntry{
		AdminID:    adminID,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		IP:         c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
		Metadata:   meta,
	}
}
