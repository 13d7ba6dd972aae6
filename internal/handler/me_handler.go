package handler

import (
	"net/http"
	"time"

	"coinmeet/internal/middleware"
	"coinmeet/internal/repository"
	"coinmeet/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// MeHandler serves the caller's own profile, balances and ledger.
type MeHandler struct {
	accounts *service.AccountService
	ledger   *service.Ledger
	log      *zap.Logger
}

func NewMeHandler(accounts *service.AccountService, ledger *service.Ledger, log *zap.Logger) *MeHandler {
	return &MeHandler{accounts: accounts, ledger: ledger, log: log}
}

// Me handles GET /{type}/me.
func (h *MeHandler) Me(c *gin.Context) {
	u, err := h.accounts.Me(middleware.GetUserType(c), middleware.GetUserID(c))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "profile", u)
}

// RegisterFCMToken handles POST /{type}/fcm-token.
func (h *MeHandler) RegisterFCMToken(c *gin.Context) {
	var req struct {
		Token string `json:"fcm_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := h.accounts.UpdateFCMToken(middleware.GetUserID(c), req.Token); err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "fcm token saved", nil)
}

// Balance handles GET /female-user/balance.
func (h *MeHandler) Balance(c *gin.Context) {
	info, err := h.accounts.Balance(middleware.GetUserType(c), middleware.GetUserID(c))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "balance", info)
}

// Transactions handles GET /{type}/me/transactions.
func (h *MeHandler) Transactions(c *gin.Context) {
	f := repository.TransactionFilter{
		UserType:      middleware.GetUserType(c),
		UserID:        middleware.GetUserID(c),
		OperationType: c.Query("operation_type"),
	}
	if !parseDateRange(c, &f) {
		return
	}
	h.listTransactions(c, f)
}

func (h *MeHandler) listTransactions(c *gin.Context, f repository.TransactionFilter) {
	page, limit := parsePagination(c)
	list, total, err := h.ledger.List(f, page, limit)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "transactions", pageOf(list, total, page, limit))
}

func pageOf(items interface{}, total int64, p, limit int) page {
	return page{Items: items, Total: total, Page: p, Limit: limit}
}

// parseDateRange reads start_date/end_date (YYYY-MM-DD). The end date is
// inclusive through its last millisecond.
func parseDateRange(c *gin.Context, f *repository.TransactionFilter) bool {
	if v := c.Query("start_date"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			badRequest(c, "start_date must be YYYY-MM-DD")
			return false
		}
		f.Start = &t
	}
	if v := c.Query("end_date"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			badRequest(c, "end_date must be YYYY-MM-DD")
			return false
		}
		end := t.Add(24*time.Hour - time.Millisecond)
		f.End = &end
	}
	return true
}
