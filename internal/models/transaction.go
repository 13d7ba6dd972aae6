package models

import "time"

// Transaction is an append-only ledger row written with every balance mutation.
type Transaction struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserType      string    `gorm:"size:10;not null;index:idx_tx_user" json:"user_type"`
	UserID        uint      `gorm:"not null;index:idx_tx_user" json:"user_id"`
	OperationType string    `gorm:"size:10;not null;index" json:"operation_type"` // wallet | coin
	Action        string    `gorm:"size:10;not null;index" json:"action"`         // credit | debit
	Amount        int64     `gorm:"not null" json:"amount"`
	Message       string    `gorm:"size:255" json:"message"`
	BalanceAfter  int64     `gorm:"not null" json:"balance_after"`
	CreatedBy     uint      `gorm:"not null" json:"created_by"`
	RelatedID     *uint     `gorm:"index" json:"related_id,omitempty"`
	RelatedModel  string    `gorm:"size:32" json:"related_model,omitempty"`
	EarningType   string    `gorm:"size:20;index" json:"earning_type,omitempty"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
}

func (Transaction) TableName() string { return "transactions" }
