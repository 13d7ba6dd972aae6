package handler

import (
	"net/http"

	"coinmeet/internal/domain"
	"coinmeet/internal/middleware"
	"coinmeet/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SocialHandler struct {
	social *service.SocialService
	log    *zap.Logger
}

func NewSocialHandler(social *service.SocialService, log *zap.Logger) *SocialHandler {
	return &SocialHandler{social: social, log: log}
}

type followRequest struct {
	FemaleUserID uint `json:"female_user_id"`
	MaleUserID   uint `json:"male_user_id"`
}

// target picks the id field that matches the caller's counterpart.
func (r followRequest) target(userType string) uint {
	if userType == domain.UserTypeFemale {
		return r.MaleUserID
	}
	return r.FemaleUserID
}

func (h *SocialHandler) bindTarget(c *gin.Context) (uint, bool) {
	var req followRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return 0, false
	}
	id := req.target(middleware.GetUserType(c))
	if id == 0 {
		if middleware.GetUserType(c) == domain.UserTypeFemale {
			badRequest(c, "male_user_id is required")
		} else {
			badRequest(c, "female_user_id is required")
		}
		return 0, false
	}
	return id, true
}

// Follow handles POST /{male|female}-user/follow.
func (h *SocialHandler) Follow(c *gin.Context) {
	target, ok := h.bindTarget(c)
	if !ok {
		return
	}
	if err := h.social.Follow(middleware.GetUserType(c), middleware.GetUserID(c), target); err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "followed", gin.H{"user_id": target})
}

// Unfollow handles POST /{male|female}-user/unfollow.
func (h *SocialHandler) Unfollow(c *gin.Context) {
	target, ok := h.bindTarget(c)
	if !ok {
		return
	}
	if err := h.social.Unfollow(middleware.GetUserType(c), middleware.GetUserID(c), target); err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "unfollowed", gin.H{"user_id": target})
}

// Following handles GET /{male|female}-user/following.
func (h *SocialHandler) Following(c *gin.Context) {
	limit, skip := parseLimitSkip(c)
	users, err := h.social.Following(middleware.GetUserID(c), limit, skip)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "following", users)
}

type blockRequest struct {
	UserID uint `json:"user_id" binding:"required"`
}

// Block handles POST /{male|female}-user/block.
func (h *SocialHandler) Block(c *gin.Context) {
	var req blockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := h.social.Block(c.Request.Context(), middleware.GetUserType(c), middleware.GetUserID(c), req.UserID); err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "blocked", gin.H{"user_id": req.UserID})
}

// Unblock handles POST /{male|female}-user/unblock.
func (h *SocialHandler) Unblock(c *gin.Context) {
	var req blockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := h.social.Unblock(middleware.GetUserID(c), req.UserID); err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "unblocked", gin.H{"user_id": req.UserID})
}

// BlockList handles GET /{male|female}-user/block-list.
func (h *SocialHandler) BlockList(c *gin.Context) {
	ids, err := h.social.Blocked(middleware.GetUserID(c))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "blocked users", ids)
}
