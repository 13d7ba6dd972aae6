package handler

import (
	"net/http"

	"coinmeet/internal/middleware"
	"coinmeet/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type NotificationHandler struct {
	notifier *service.Notifier
	log      *zap.Logger
}

func NewNotificationHandler(notifier *service.Notifier, log *zap.Logger) *NotificationHandler {
	return &NotificationHandler{notifier: notifier, log: log}
}

// List handles GET /{type}/notifications?limit=&skip=.
func (h *NotificationHandler) List(c *gin.Context) {
	limit, skip := parseLimitSkip(c)
	inbox, err := h.notifier.Inbox(middleware.GetUserID(c), limit, skip)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "notifications", inbox)
}

// MarkRead handles POST /{type}/notifications/:id/read.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	h.markRead(c, id)
}

// MarkAllRead handles POST /{type}/notifications/read-all.
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	h.markRead(c, 0)
}

func (h *NotificationHandler) markRead(c *gin.Context, id uint) {
	n, err := h.notifier.MarkRead(middleware.GetUserID(c), id)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "notifications marked read", gin.H{"updated": n})
}
