package service

import (
	"context"
	"encoding/json"
	"fmt"

	"coinmeet/internal/domain"
	"coinmeet/internal/models"
	"coinmeet/internal/repository"
	"coinmeet/internal/ws"

	"go.uber.org/zap"
)

// Notifier fans events out to open websockets and, for the ones a user
// should see while offline, to the inbox and FCM.
type Notifier struct {
	hub      *ws.Hub
	fcm      *FCMService
	userRepo *repository.UserRepository
	inbox    *repository.NotificationRepository
	log      *zap.Logger
}

func NewNotifier(hub *ws.Hub, fcm *FCMService, userRepo *repository.UserRepository, inbox *repository.NotificationRepository, log *zap.Logger) *Notifier {
	return &Notifier{hub: hub, fcm: fcm, userRepo: userRepo, inbox: inbox, log: log}
}

// Publish pushes a realtime event. It never blocks on slow clients.
func (n *Notifier) Publish(userID uint, eventType string, data map[string]interface{}) {
	if n == nil || n.hub == nil {
		return
	}
	n.hub.SendToUser(userID, ws.Event{Type: eventType, Data: data})
}

// Notify publishes the event, stores it in the user's inbox and sends a
// push notification.
func (n *Notifier) Notify(ctx context.Context, userID uint, eventType, title, body string, data map[string]interface{}) {
	if n == nil {
		return
	}
	n.Publish(userID, eventType, data)
	n.store(userID, eventType, title, body, data)
	if n.fcm == nil || n.userRepo == nil {
		return
	}
	u, err := n.userRepo.GetByID(userID)
	if err != nil || u.FCMToken == "" {
		return
	}
	err = n.fcm.SendToUser(ctx, u.FCMToken, eventType, title, body, data)
	switch {
	case err == nil:
	case IsStaleToken(err):
		n.log.Info("dropping stale fcm token", zap.Uint("user_id", userID))
		if err := n.userRepo.ClearFCMToken(userID, u.FCMToken); err != nil {
			n.log.Warn("clear fcm token", zap.Uint("user_id", userID), zap.Error(err))
		}
	default:
		n.log.Warn("push failed", zap.Uint("user_id", userID), zap.String("type", eventType), zap.Error(err))
	}
}

// Balances publishes the current balances of a user.
func (n *Notifier) Balances(userID uint, coinBalance, walletBalance int64) {
	n.Publish(userID, domain.EventBalanceUpdated, map[string]interface{}{
		"coin_balance":   coinBalance,
		"wallet_balance": walletBalance,
	})
}

func (n *Notifier) store(userID uint, eventType, title, body string, data map[string]interface{}) {
	if n.inbox == nil {
		return
	}
	row := &models.Notification{UserID: userID, Type: eventType, Title: title, Body: body}
	if len(data) > 0 {
		if b, err := json.Marshal(data); err == nil {
			row.Data = string(b)
		}
	}
	if err := n.inbox.Create(row); err != nil {
		n.log.Warn("store notification", zap.Uint("user_id", userID), zap.String("type", eventType), zap.Error(err))
	}
}

// Inbox is a page of a user's stored notifications.
type Inbox struct {
	Items  []models.Notification `json:"items"`
	Unread int64                 `json:"unread"`
}

func (n *Notifier) Inbox(userID uint, limit, offset int) (*Inbox, error) {
	list, unread, err := n.inbox.ListByUserID(userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return &Inbox{Items: list, Unread: unread}, nil
}

// MarkRead marks one notification read, or every unread one when id is 0.
func (n *Notifier) MarkRead(userID, id uint) (int64, error) {
	updated, err := n.inbox.MarkRead(id, userID)
	if err != nil {
		return 0, fmt.Errorf("mark notifications read: %w", err)
	}
	if id != 0 && updated == 0 {
		return 0, domain.NotFound("notification not found")
	}
	return updated, nil
}
