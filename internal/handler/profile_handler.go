package handler

import (
	"net/http"

	"coinmeet/internal/domain"
	"coinmeet/internal/middleware"
	"coinmeet/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ProfileHandler serves the female profile flow.
type ProfileHandler struct {
	profiles *service.ProfileService
	log      *zap.Logger
}

func NewProfileHandler(profiles *service.ProfileService, log *zap.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, log: log}
}

// UploadImage handles POST /female-user/upload-image.
func (h *ProfileHandler) UploadImage(c *gin.Context) {
	h.upload(c, domain.MediaTypeImage)
}

// UploadVideo handles POST /female-user/upload-video.
func (h *ProfileHandler) UploadVideo(c *gin.Context) {
	h.upload(c, domain.MediaTypeVideo)
}

func (h *ProfileHandler) upload(c *gin.Context, mediaType string) {
	file, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "file required")
		return
	}
	f, err := file.Open()
	if err != nil {
		badRequest(c, "could not read file")
		return
	}
	defer f.Close()

	m, err := h.profiles.Upload(c.Request.Context(), middleware.GetUserID(c), mediaType, f)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusCreated, mediaType+" uploaded", m)
}

// Media handles GET /female-user/media.
func (h *ProfileHandler) Media(c *gin.Context) {
	list, err := h.profiles.Media(middleware.GetUserID(c))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "media", list)
}

// CompleteProfile handles POST /female-user/complete-profile.
func (h *ProfileHandler) CompleteProfile(c *gin.Context) {
	var req struct {
		Name   string `json:"name" binding:"required"`
		Age    int    `json:"age" binding:"required"`
		Gender string `json:"gender"`
		Bio    string `json:"bio"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	res, err := h.profiles.CompleteProfile(c.Request.Context(), middleware.GetUserID(c), service.CompleteProfileInput{
		Name:   req.Name,
		Age:    req.Age,
		Gender: req.Gender,
		Bio:    req.Bio,
	})
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "profile submitted for review", res)
}

// SetCallRate handles PUT /female-user/call-rate.
func (h *ProfileHandler) SetCallRate(c *gin.Context) {
	var req struct {
		CoinsPerSecond int64 `json:"coins_per_second" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	u, err := h.profiles.SetCallRate(middleware.GetUserID(c), req.CoinsPerSecond)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "call rate updated", gin.H{"coins_per_second": u.CoinsPerSecond})
}
