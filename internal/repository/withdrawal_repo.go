package repository

import (
	"coinmeet/internal/domain"
	"coinmeet/internal/models"

	"gorm.io/gorm"
)

type WithdrawalRepository struct {
	db *gorm.DB
}

func NewWithdrawalRepository(db *gorm.DB) *WithdrawalRepository {
	return &WithdrawalRepository{db: db}
}

func (r *WithdrawalRepository) WithTx(tx *gorm.DB) *WithdrawalRepository {
	return &WithdrawalRepository{db: tx}
}

func (r *WithdrawalRepository) Create(w *models.WithdrawalRequest) error {
	return r.db.Create(w).Error
}

func (r *WithdrawalRepository) GetByID(id uint) (*models.WithdrawalRequest, error) {
	var w models.WithdrawalRequest
	if err := r.db.First(&w, id).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

// Transition applies fields only while the request is in status from. It
// returns false if another request moved it first.
func (r *WithdrawalRepository) Transition(id uint, from string, fields map[string]interface{}) (bool, error) {
	res := r.db.Model(&models.WithdrawalRequest{}).
		Where("id = ? AND status = ?", id, from).
		Updates(fields)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *WithdrawalRepository) TransitionFromPending(id uint, fields map[string]interface{}) (bool, error) {
	return r.Transition(id, domain.WithdrawalPending, fields)
}

func (r *WithdrawalRepository) ListByUser(userType string, userID uint, page, limit int) ([]models.WithdrawalRequest, int64, error) {
	q := r.db.Model(&models.WithdrawalRequest{}).Where("user_type = ? AND user_id = ?", userType, userID)
	return r.page(q, page, limit)
}

// List returns all requests, optionally filtered by status.
func (r *WithdrawalRepository) List(status string, page, limit int) ([]models.WithdrawalRequest, int64, error) {
	q := r.db.Model(&models.WithdrawalRequest{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	return r.page(q, page, limit)
}

// SumPending returns coins locked in requests that are not settled yet,
// including ones whose payout is in flight.
func (r *WithdrawalRepository) SumPending(userType string, userID uint) (int64, error) {
	var out struct{ Total int64 }
	err := r.db.Model(&models.WithdrawalRequest{}).
		Select("COALESCE(SUM(coins_requested), 0) AS total").
		Where("user_type = ? AND user_id = ? AND status IN ?", userType, userID, []string{domain.WithdrawalPending, domain.WithdrawalProcessing}).
		Scan(&out).Error
	return out.Total, err
}

func (r *WithdrawalRepository) page(q *gorm.DB, page, limit int) ([]models.WithdrawalRequest, int64, error) {
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.WithdrawalRequest
	err := q.Order("created_at DESC, id DESC").Limit(limit).Offset((page - 1) * limit).Find(&list).Error
	return list, total, err
}
