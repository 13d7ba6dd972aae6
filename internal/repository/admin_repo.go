package repository

import (
	"coinmeet/internal/domain"
	"coinmeet/internal/models"

	"gorm.io/gorm"
)

type DashboardStats struct {
	TotalMale          int64 `json:"total_male"`
	TotalFemale        int64 `json:"total_female"`
	TotalAgency        int64 `json:"total_agency"`
	PendingReviews     int64 `json:"pending_reviews"`
	PendingKYC         int64 `json:"pending_kyc"`
	PendingWithdrawals int64 `json:"pending_withdrawals"`
	CompletedCalls     int64 `json:"completed_calls"`
	CoinsBilled        int64 `json:"coins_billed"`
	CoinsLocked        int64 `json:"coins_locked"`
}

type AdminRepository struct {
	db *gorm.DB
}

func NewAdminRepository(db *gorm.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

func (r *AdminRepository) GetDashboardStats() (*DashboardStats, error) {
	var s DashboardStats
	counts := []struct {
		dst   *int64
		model interface{}
		where string
		args  []interface{}
	}{
		{&s.TotalMale, &models.User{}, "user_type = ?", []interface{}{domain.UserTypeMale}},
		{&s.TotalFemale, &models.User{}, "user_type = ?", []interface{}{domain.UserTypeFemale}},
		{&s.TotalAgency, &models.User{}, "user_type = ?", []interface{}{domain.UserTypeAgency}},
		{&s.PendingReviews, &models.User{}, "user_type = ? AND profile_completed = ? AND review_status = ?", []interface{}{domain.UserTypeFemale, true, domain.ReviewStatusPending}},
		{&s.PendingKYC, &models.KYC{}, "status = ?", []interface{}{domain.KYCStatusPending}},
		{&s.PendingWithdrawals, &models.WithdrawalRequest{}, "status = ?", []interface{}{domain.WithdrawalPending}},
		{&s.CompletedCalls, &models.CallHistory{}, "status = ?", []interface{}{domain.CallStatusCompleted}},
	}
	for _, c := range counts {
		if err := r.db.Model(c.model).Where(c.where, c.args...).Count(c.dst).Error; err != nil {
			return nil, err
		}
	}

	var billed struct{ Total int64 }
	if err := r.db.Model(&models.CallHistory{}).Select("COALESCE(SUM(total_coins), 0) AS total").
		Where("status = ?", domain.CallStatusCompleted).Scan(&billed).Error; err != nil {
		return nil, err
	}
	s.CoinsBilled = billed.Total

	var locked struct{ Total int64 }
	if err := r.db.Model(&models.WithdrawalRequest{}).Select("COALESCE(SUM(coins_requested), 0) AS total").
		Where("status IN ?", []string{domain.WithdrawalPending, domain.WithdrawalProcessing}).Scan(&locked).Error; err != nil {
		return nil, err
	}
	s.CoinsLocked = locked.Total
	return &s, nil
}
