package repository

import (
	"time"

	"coinmeet/internal/models"

	"gorm.io/gorm"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(n *models.Notification) error {
	return r.db.Create(n).Error
}

// ListByUserID returns the inbox newest first with the unread count.
func (r *NotificationRepository) ListByUserID(userID uint, limit, offset int) ([]models.Notification, int64, error) {
	var unread int64
	if err := r.db.Model(&models.Notification{}).Where("user_id = ? AND read_at IS NULL", userID).Count(&unread).Error; err != nil {
		return nil, 0, err
	}
	var list []models.Notification
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, unread, err
}

// MarkRead marks one notification, or all of them when id is 0.
func (r *NotificationRepository) MarkRead(id, userID uint) (int64, error) {
	q := r.db.Model(&models.Notification{}).Where("user_id = ? AND read_at IS NULL", userID)
	if id != 0 {
		q = q.Where("id = ?", id)
	}
	res := q.Update("read_at", time.Now())
	return res.RowsAffected, res.Error
}
