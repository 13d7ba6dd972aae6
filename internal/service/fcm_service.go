package service

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"coinmeet/internal/domain"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// An incoming call is useless once the caller gave up ringing.
const callPushTTL = 30 * time.Second

// FCMService delivers pushes through Firebase Cloud Messaging. A nil
// *FCMService is valid and sends nothing.
type FCMService struct {
	client *messaging.Client
	log    *zap.Logger
}

// NewFCMService returns nil when no service account is configured or the
// Firebase app cannot be built.
func NewFCMService(serviceAccountPath string, log *zap.Logger) *FCMService {
	if serviceAccountPath == "" {
		return nil
	}
	ctx := context.Background()
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(serviceAccountPath))
	if err != nil {
		log.Error("firebase init", zap.String("service_account_path", serviceAccountPath), zap.Error(err))
		return nil
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		log.Error("firebase messaging init", zap.Error(err))
		return nil
	}
	return &FCMService{client: client, log: log}
}

// SendToUser pushes one event to a device token.
func (s *FCMService) SendToUser(ctx context.Context, token, eventType, title, body string, data map[string]interface{}) error {
	if s == nil || token == "" {
		return nil
	}
	id, err := s.client.Send(ctx, buildPush(token, eventType, title, body, data))
	if err != nil {
		return err
	}
	s.log.Debug("push sent", zap.String("type", eventType), zap.String("message_id", id))
	return nil
}

// IsStaleToken reports whether err means the device token will never work
// again and should be forgotten.
func IsStaleToken(err error) bool {
	return err != nil && messaging.IsUnregistered(err)
}

// buildPush maps an event onto an FCM message. Calls ring at high priority
// and expire quickly. Everything else collapses per event type so a device
// that was offline only shows the latest balance or review update.
func buildPush(token, eventType, title, body string, data map[string]interface{}) *messaging.Message {
	msg := &messaging.Message{
		Token:        token,
		Notification: &messaging.Notification{Title: title, Body: body},
		Data:         pushData(eventType, data),
	}
	if eventType == domain.EventCallIncoming {
		ttl := callPushTTL
		msg.Android = &messaging.AndroidConfig{
			Priority: "high",
			TTL:      &ttl,
			Notification: &messaging.AndroidNotification{
				Sound:     "default",
				ChannelID: "calls",
			},
		}
		msg.APNS = &messaging.APNSConfig{
			Headers: map[string]string{
				"apns-priority":   "10",
				"apns-expiration": strconv.FormatInt(time.Now().Add(ttl).Unix(), 10),
			},
			Payload: &messaging.APNSPayload{Aps: &messaging.Aps{Sound: "default"}},
		}
		return msg
	}
	msg.Android = &messaging.AndroidConfig{
		Priority:    "normal",
		CollapseKey: eventType,
		Notification: &messaging.AndroidNotification{
			Tag: eventType,
		},
	}
	msg.APNS = &messaging.APNSConfig{
		Headers: map[string]string{
			"apns-priority":    "5",
			"apns-collapse-id": eventType,
		},
		Payload: &messaging.APNSPayload{Aps: &messaging.Aps{Sound: "default"}},
	}
	return msg
}

// pushData flattens event data into FCM's string-only map.
func pushData(eventType string, data map[string]interface{}) map[string]string {
	out := make(map[string]string, len(data)+1)
	for k, v := range data {
		switch val := v.(type) {
		case string:
			out[k] = val
		case int:
			out[k] = strconv.Itoa(val)
		case int64:
			out[k] = strconv.FormatInt(val, 10)
		case uint:
			out[k] = strconv.FormatUint(uint64(val), 10)
		case bool:
			out[k] = strconv.FormatBool(val)
		case nil:
		default:
			if b, err := json.Marshal(val); err == nil {
				out[k] = string(b)
			}
		}
	}
	out["type"] = eventType
	return out
}
