package models

import "time"

// KYC is a staged payout-details submission awaiting admin review.
type KYC struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	UserType      string     `gorm:"size:10;not null;index:idx_kyc_user" json:"user_type"`
	UserID        uint       `gorm:"not null;index:idx_kyc_user" json:"user_id"`
	Method        string     `gorm:"size:20;not null" json:"method"` // account_details | upi_id
	AccountName   string     `gorm:"size:128" json:"account_name,omitempty"`
	AccountNumber string     `gorm:"size:34" json:"account_number,omitempty"`
	IFSC          string     `gorm:"column:ifsc;size:11" json:"ifsc,omitempty"`
	UPIID         string     `gorm:"column:upi_id;size:100" json:"upi_id,omitempty"`
	Status        string     `gorm:"size:20;not null;index" json:"status"` // pending | approved | rejected
	VerifiedBy    *uint      `json:"verified_by,omitempty"`
	ReviewedAt    *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (KYC) TableName() string { return "kycs" }
