package models

import (
	"time"

	"gorm.io/gorm"
)

type UserMedia struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	UserID       uint           `gorm:"not null;index" json:"user_id"`
	Type         string         `gorm:"size:10;not null" json:"type"` // image | video
	URL          string         `gorm:"size:512;not null" json:"url"`
	ThumbnailURL string         `gorm:"size:512" json:"thumbnail_url"`
	PublicID     string         `gorm:"size:128" json:"-"`
	CreatedAt    time.Time      `json:"created_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (UserMedia) TableName() string { return "user_media" }
