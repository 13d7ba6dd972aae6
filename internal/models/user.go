package models

import (
	"time"

	"coinmeet/internal/domain"

	"gorm.io/gorm"
)

// KYCBankDetails is the verified bank copy materialized on KYC approval.
type KYCBankDetails struct {
	Name          string     `gorm:"size:128" json:"name"`
	AccountNumber string     `gorm:"size:34" json:"account_number"`
	IFSC          string     `gorm:"column:ifsc;size:11" json:"ifsc"`
	VerifiedAt    *time.Time `json:"verified_at"`
}

// KYCUPIDetails is the verified UPI copy materialized on KYC approval.
type KYCUPIDetails struct {
	UPIID      string     `gorm:"column:upi_id;size:100" json:"upi_id"`
	VerifiedAt *time.Time `json:"verified_at"`
}

// User is one row per account; UserType decides which balances and flows apply.
type User struct {
	ID           uint    `gorm:"primaryKey" json:"id"`
	UserType     string  `gorm:"size:10;not null;index;uniqueIndex:idx_users_email_type" json:"user_type"` // male | female | agency | admin
	Email        string  `gorm:"size:255;not null;uniqueIndex:idx_users_email_type" json:"email"`
	MobileNumber *string `gorm:"size:20;index" json:"mobile_number,omitempty"`
	FirstName    string  `gorm:"size:64" json:"first_name,omitempty"`
	LastName     string  `gorm:"size:64" json:"last_name,omitempty"`
	Name         string  `gorm:"size:128" json:"name,omitempty"`
	PasswordHash string  `gorm:"size:255" json:"-"`
	Age          int     `json:"age,omitempty"`
	Gender       string  `gorm:"size:20" json:"gender,omitempty"`
	Bio          string  `gorm:"type:text" json:"bio,omitempty"`

	IsVerified   bool       `gorm:"default:false" json:"is_verified"`
	IsActive     bool       `gorm:"default:false" json:"is_active"`
	OTPCode      string     `gorm:"column:otp_code;size:8" json:"-"`
	OTPExpiresAt *time.Time `gorm:"column:otp_expires_at" json:"-"`

	CoinBalance    int64 `gorm:"not null;default:0" json:"coin_balance"`
	WalletBalance  int64 `gorm:"not null;default:0" json:"wallet_balance"`
	CoinsPerSecond int64 `gorm:"not null;default:0" json:"coins_per_second"` // 0 = platform default

	KYCStatus string         `gorm:"column:kyc_status;size:20;not null;default:'pending'" json:"kyc_status"`
	KYCBank   KYCBankDetails `gorm:"embedded;embeddedPrefix:kyc_bank_" json:"kyc_bank"`
	KYCUPI    KYCUPIDetails  `gorm:"embedded;embeddedPrefix:kyc_upi_" json:"kyc_upi"`

	ReferralCode         *string `gorm:"size:16;uniqueIndex" json:"referral_code,omitempty"`
	ReferredByID         *uint   `gorm:"index" json:"referred_by_id,omitempty"`
	ReferralBonusAwarded bool    `gorm:"not null;default:false" json:"referral_bonus_awarded"`

	ProfileCompleted bool   `gorm:"not null;default:false" json:"profile_completed"`
	ReviewStatus     string `gorm:"size:20;not null;default:'pending'" json:"review_status"`
	FCMToken         string `gorm:"column:fcm_token;size:512" json:"-"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "users" }

func (u *User) IsMale() bool   { return u.UserType == domain.UserTypeMale }
func (u *User) IsFemale() bool { return u.UserType == domain.UserTypeFemale }
func (u *User) IsAgency() bool { return u.UserType == domain.UserTypeAgency }

// DisplayName picks the most human field available.
func (u *User) DisplayName() string {
	switch {
	case u.Name != "":
		return u.Name
	case u.FirstName != "":
		if u.LastName != "" {
			return u.FirstName + " " + u.LastName
		}
		return u.FirstName
	default:
		return u.Email
	}
}

// HasVerifiedPayout reports whether the embedded KYC copy for method is verified.
func (u *User) HasVerifiedPayout(method string) bool {
	switch method {
	case domain.PayoutMethodBank:
		return u.KYCBank.VerifiedAt != nil && u.KYCBank.AccountNumber != ""
	case domain.PayoutMethodUPI:
		return u.KYCUPI.VerifiedAt != nil && u.KYCUPI.UPIID != ""
	}
	return false
}
