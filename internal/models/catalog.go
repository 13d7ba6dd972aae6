package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Gift struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Title     string         `gorm:"size:64;not null" json:"title"`
	Coin      int64          `gorm:"not null" json:"coin"`
	ImageURL  string         `gorm:"size:512" json:"image_url"`
	Published bool           `gorm:"not null" json:"published"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Gift) TableName() string { return "gifts" }

// CoinPackage is a purchasable bundle of coins.
type CoinPackage struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Title       string          `gorm:"size:64;not null" json:"title"`
	Coins       int64           `gorm:"not null" json:"coins"`
	PriceRupees decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price_rupees"`
	Active      bool            `gorm:"not null" json:"active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (CoinPackage) TableName() string { return "coin_packages" }
