package handler

import (
	"net/http"

	"coinmeet/internal/middleware"
	"coinmeet/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ReferralHandler struct {
	referrals *service.ReferralService
	log       *zap.Logger
}

func NewReferralHandler(referrals *service.ReferralService, log *zap.Logger) *ReferralHandler {
	return &ReferralHandler{referrals: referrals, log: log}
}

// GetMyReferrals returns the caller's referral code and who used it.
// GET /{type}/referrals
func (h *ReferralHandler) GetMyReferrals(c *gin.Context) {
	limit, skip := parseLimitSkip(c)
	sum, err := h.referrals.Summary(middleware.GetUserID(c), limit, skip)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "referrals", sum)
}
