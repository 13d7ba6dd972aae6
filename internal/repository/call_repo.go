package repository

import (
	"coinmeet/internal/domain"
	"coinmeet/internal/models"

	"gorm.io/gorm"
)

type CallRepository struct {
	db *gorm.DB
}

func NewCallRepository(db *gorm.DB) *CallRepository {
	return &CallRepository{db: db}
}

func (r *CallRepository) WithTx(tx *gorm.DB) *CallRepository {
	return &CallRepository{db: tx}
}

func (r *CallRepository) Create(c *models.CallHistory) error {
	return r.db.Create(c).Error
}

func (r *CallRepository) GetByID(id uint) (*models.CallHistory, error) {
	var c models.CallHistory
	if err := r.db.First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// ListByCaller returns newest first using limit/skip paging.
func (r *CallRepository) ListByCaller(callerID uint, limit, skip int) ([]models.CallHistory, int64, error) {
	return r.list("caller_id = ?", callerID, limit, skip)
}

func (r *CallRepository) ListByReceiver(receiverID uint, limit, skip int) ([]models.CallHistory, int64, error) {
	return r.list("receiver_id = ?", receiverID, limit, skip)
}

func (r *CallRepository) list(cond string, id uint, limit, skip int) ([]models.CallHistory, int64, error) {
	q := r.db.Model(&models.CallHistory{}).Where(cond, id)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.CallHistory
	err := q.Order("created_at DESC, id DESC").Limit(limit).Offset(skip).Find(&list).Error
	return list, total, err
}

// StatsByCaller aggregates completed calls only.
func (r *CallRepository) StatsByCaller(callerID uint) (*models.CallStats, error) {
	var s models.CallStats
	err := r.db.Model(&models.CallHistory{}).
		Select("COUNT(*) AS total_calls, COALESCE(SUM(billable_seconds), 0) AS total_duration, COALESCE(SUM(total_coins), 0) AS total_coins").
		Where("caller_id = ? AND status = ?", callerID, domain.CallStatusCompleted).
		Scan(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}
