package handler

import (
	"net/http"
	"strconv"

	"coinmeet/internal/middleware"
	"coinmeet/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type KYCHandler struct {
	kyc   *service.KYCService
	admin *service.AdminService
	log   *zap.Logger
}

func NewKYCHandler(kyc *service.KYCService, admin *service.AdminService, log *zap.Logger) *KYCHandler {
	return &KYCHandler{kyc: kyc, admin: admin, log: log}
}

// Submit handles POST /female-user/kyc and POST /agency/kyc.
func (h *KYCHandler) Submit(c *gin.Context) {
	var req struct {
		Method        string `json:"method" binding:"required,oneof=account_details upi_id"`
		AccountName   string `json:"account_name"`
		AccountNumber string `json:"account_number"`
		IFSC          string `json:"ifsc"`
		UPIID         string `json:"upi_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	k, err := h.kyc.Submit(c.Request.Context(), service.SubmitKYCInput{
		UserType:      middleware.GetUserType(c),
		UserID:        middleware.GetUserID(c),
		Method:        req.Method,
		AccountName:   req.AccountName,
		AccountNumber: req.AccountNumber,
		IFSC:          req.IFSC,
		UPIID:         req.UPIID,
	})
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusCreated, "KYC submitted for review", k)
}

// Status handles GET /female-user/kyc and GET /agency/kyc.
func (h *KYCHandler) Status(c *gin.Context) {
	k, err := h.kyc.Status(middleware.GetUserType(c), middleware.GetUserID(c))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	if k == nil {
		respond(c, http.StatusOK, "no KYC submitted", nil)
		return
	}
	respond(c, http.StatusOK, "KYC "+k.Status, k)
}

// Pending handles GET /admin/kyc/pending.
func (h *KYCHandler) Pending(c *gin.Context) {
	page, limit := parsePagination(c)
	list, total, err := h.kyc.ListPending(page, limit)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "pending KYC", pageOf(list, total, page, limit))
}

// Review handles POST /admin/review-kyc.
func (h *KYCHandler) Review(c *gin.Context) {
	var req struct {
		KYCID  uint   `json:"kyc_id" binding:"required"`
		Status string `json:"status" binding:"required,oneof=approved rejected"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	adminID := middleware.GetUserID(c)
	k, err := h.kyc.Review(c.Request.Context(), req.KYCID, req.Status, adminID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	h.admin.Audit(auditFrom(c, adminID, "kyc.review", "kyc", strconv.FormatUint(uint64(k.ID), 10), map[string]interface{}{
		"status":  req.Status,
		"user_id": k.UserID,
	}))
	respond(c, http.StatusOK, "KYC "+req.Status, k)
}
