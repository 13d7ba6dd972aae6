package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PayoutDetails is where the money goes. Bank fields or VPA are set depending on method.
type PayoutDetails struct {
	AccountHolderName string `gorm:"size:128" json:"account_holder_name,omitempty"`
	AccountNumber     string `gorm:"size:34" json:"account_number,omitempty"`
	IFSC              string `gorm:"size:11" json:"ifsc,omitempty"`
	VPA               string `gorm:"size:100" json:"vpa,omitempty"`
}

// Complete reports whether the details are usable for method.
func (p PayoutDetails) Complete(method string) bool {
	if method == "upi" {
		return p.VPA != ""
	}
	return p.AccountHolderName != "" && p.AccountNumber != "" && p.IFSC != ""
}

type WithdrawalRequest struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	UserType       string          `gorm:"size:10;not null;index:idx_wd_user" json:"user_type"`
	UserID         uint            `gorm:"not null;index:idx_wd_user" json:"user_id"`
	CoinsRequested int64           `gorm:"not null" json:"coins_requested"`
	AmountInRupees decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount_in_rupees"`
	PayoutMethod   string          `gorm:"size:10;not null" json:"payout_method"` // bank | upi
	PayoutDetails  PayoutDetails   `gorm:"embedded;embeddedPrefix:payout_" json:"payout_details"`
	Status         string          `gorm:"size:20;not null;index" json:"status"` // pending | processing | approved | rejected
	ProcessedBy    *uint           `json:"processed_by,omitempty"`
	ProcessedAt    *time.Time      `json:"processed_at,omitempty"`
	Notes          string          `gorm:"type:text" json:"notes,omitempty"`
	PayoutRef      string          `gorm:"size:128" json:"payout_ref,omitempty"`
	CreatedAt      time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (WithdrawalRequest) TableName() string { return "withdrawal_requests" }
