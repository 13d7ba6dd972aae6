package models

import "time"

// CallHistory is written once when a call is settled.
type CallHistory struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	CallerID        uint      `gorm:"not null;index" json:"caller_id"`
	ReceiverID      uint      `gorm:"not null;index" json:"receiver_id"`
	Duration        int64     `gorm:"not null" json:"duration"`         // seconds reported by the client
	BillableSeconds int64     `gorm:"not null" json:"billable_seconds"` // seconds actually charged
	CoinsPerSecond  int64     `gorm:"not null" json:"coins_per_second"`
	TotalCoins      int64     `gorm:"not null" json:"total_coins"`
	Status          string    `gorm:"size:24;not null;index" json:"status"` // completed | failed | insufficient_coins
	CallType        string    `gorm:"size:10;not null;default:'video'" json:"call_type"`
	ErrorMessage    string    `gorm:"size:255" json:"error_message,omitempty"`
	CreatedAt       time.Time `gorm:"index" json:"created_at"`

	Caller   User `gorm:"foreignKey:CallerID" json:"-"`
	Receiver User `gorm:"foreignKey:ReceiverID" json:"-"`
}

func (CallHistory) TableName() string { return "call_histories" }

// CallStats aggregates completed calls for one caller.
type CallStats struct {
	TotalCalls    int64 `json:"total_calls"`
	TotalDuration int64 `json:"total_duration"`
	TotalCoins    int64 `json:"total_coins"`
}
