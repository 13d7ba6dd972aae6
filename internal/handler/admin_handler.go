package handler

import (
	"net/http"
	"strconv"

	"coinmeet/internal/domain"
	"coinmeet/internal/middleware"
	"coinmeet/internal/repository"
	"coinmeet/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AdminHandler struct {
	admin    *service.AdminService
	settings *service.Settings
	profiles *service.ProfileService
	ledger   *service.Ledger
	users    *service.UserAdminService
	log      *zap.Logger
}

func NewAdminHandler(
	admin *service.AdminService,
	settings *service.Settings,
	profiles *service.ProfileService,
	ledger *service.Ledger,
	users *service.UserAdminService,
	log *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		admin:    admin,
		settings: settings,
		profiles: profiles,
		ledger:   ledger,
		users:    users,
		log:      log,
	}
}

// Dashboard handles GET /admin/dashboard.
func (h *AdminHandler) Dashboard(c *gin.Context) {
	stats, err := h.admin.Dashboard()
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "dashboard", stats)
}

// GetConfig handles GET /admin/config.
func (h *AdminHandler) GetConfig(c *gin.Context) {
	respond(c, http.StatusOK, "config", h.settings.Current())
}

// UpdateConfig returns a handler for PUT /admin/config/<key>. The body is
// {"value": ...}; numbers and numeric strings are both accepted.
func (h *AdminHandler) UpdateConfig(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Value interface{} `json:"value" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		value, ok := configValue(req.Value)
		if !ok {
			badRequest(c, key+" must be a number")
			return
		}
		adminID := middleware.GetUserID(c)
		cur, err := h.settings.Update(key, value, adminID)
		if err != nil {
			fail(c, h.log, err)
			return
		}
		h.admin.Audit(auditFrom(c, adminID, "config.update", "system_setting", key, map[string]interface{}{"value": value}))
		respond(c, http.StatusOK, key+" updated", cur)
	}
}

func configValue(v interface{}) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, t != ""
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	}
	return "", false
}

// ListUsers handles GET /admin/users?user_type=&review_status=&search=.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	page, limit := parsePagination(c)
	users, total, err := h.profiles.ListUsers(c.Query("user_type"), c.Query("review_status"), c.Query("search"), page, limit)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "users", pageOf(users, total, page, limit))
}

// ReviewUser handles PUT /admin/users/:id/review.
func (h *AdminHandler) ReviewUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req struct {
		ReviewStatus string `json:"review_status" binding:"required,oneof=approved rejected"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	u, err := h.profiles.Review(c.Request.Context(), id, req.ReviewStatus)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	adminID := middleware.GetUserID(c)
	h.admin.Audit(auditFrom(c, adminID, "user.review", "user", strconv.FormatUint(uint64(id), 10), map[string]interface{}{
		"review_status": req.ReviewStatus,
	}))
	respond(c, http.StatusOK, "profile "+req.ReviewStatus, u)
}

// ListTransactions handles GET /admin/transactions?user_type=&action=.
func (h *AdminHandler) ListTransactions(c *gin.Context) {
	f := repository.TransactionFilter{
		UserType:      c.Query("user_type"),
		Action:        c.Query("action"),
		OperationType: c.Query("operation_type"),
	}
	if v := c.Query("user_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			badRequest(c, "invalid user_id")
			return
		}
		f.UserID = uint(id)
	}
	if f.Action != "" && f.Action != domain.ActionCredit && f.Action != domain.ActionDebit {
		badRequest(c, "action must be credit or debit")
		return
	}
	if !parseDateRange(c, &f) {
		return
	}
	page, limit := parsePagination(c)
	list, total, err := h.ledger.List(f, page, limit)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "transactions", pageOf(list, total, page, limit))
}

// AuditLogs handles GET /admin/audit-logs?action=.
func (h *AdminHandler) AuditLogs(c *gin.Context) {
	page, limit := parsePagination(c)
	list, total, err := h.admin.AuditLogs(c.Query("action"), page, limit)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "audit logs", pageOf(list, total, page, limit))
}

// OperateBalance handles POST /admin/users/operate-balance.
func (h *AdminHandler) OperateBalance(c *gin.Context) {
	var req struct {
		UserType      string `json:"user_type" binding:"required"`
		UserID        uint   `json:"user_id" binding:"required"`
		OperationType string `json:"operation_type" binding:"required,oneof=coin wallet"`
		Action        string `json:"action" binding:"required,oneof=credit debit"`
		Amount        int64  `json:"amount" binding:"required,gt=0"`
		Message       string `json:"message" binding:"max=255"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	adminID := middleware.GetUserID(c)
	out, err := h.users.AdjustBalance(c.Request.Context(), service.BalanceAdjustment{
		UserType:  req.UserType,
		UserID:    req.UserID,
		Operation: req.OperationType,
		Action:    req.Action,
		Amount:    req.Amount,
		Message:   req.Message,
		AdminID:   adminID,
	})
	if err != nil {
		fail(c, h.log, err)
		return
	}
	h.admin.Audit(auditFrom(c, adminID, "user.balance."+req.Action, "user", strconv.FormatUint(uint64(req.UserID), 10), map[string]interface{}{
		"operation_type": req.OperationType,
		"amount":         req.Amount,
		"balance_after":  out.BalanceAfter,
		"transaction_id": out.Transaction.ID,
	}))
	respond(c, http.StatusOK, "balance updated", out)
}

// ToggleStatus handles POST /admin/users/toggle-status.
func (h *AdminHandler) ToggleStatus(c *gin.Context) {
	var req struct {
		UserType string `json:"user_type" binding:"required"`
		UserID   uint   `json:"user_id" binding:"required"`
		IsActive *bool  `json:"is_active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	u, err := h.users.SetActive(req.UserType, req.UserID, *req.IsActive)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	adminID := middleware.GetUserID(c)
	h.admin.Audit(auditFrom(c, adminID, "user.status", "user", strconv.FormatUint(uint64(u.ID), 10), map[string]interface{}{
		"is_active": u.IsActive,
	}))
	msg := "user activated"
	if !u.IsActive {
		msg = "user deactivated"
	}
	respond(c, http.StatusOK, msg, u)
}
