package repository

import (
	"coinmeet/internal/domain"
	"coinmeet/internal/models"

	"gorm.io/gorm"
)

type KYCRepository struct {
	db *gorm.DB
}

func NewKYCRepository(db *gorm.DB) *KYCRepository {
	return &KYCRepository{db: db}
}

func (r *KYCRepository) WithTx(tx *gorm.DB) *KYCRepository {
	return &KYCRepository{db: tx}
}

func (r *KYCRepository) Create(k *models.KYC) error {
	return r.db.Create(k).Error
}

func (r *KYCRepository) GetByID(id uint) (*models.KYC, error) {
	var k models.KYC
	if err := r.db.First(&k, id).Error; err != nil {
		return nil, err
	}
	return &k, nil
}

// Latest returns the most recent submission of a user.
func (r *KYCRepository) Latest(userType string, userID uint) (*models.KYC, error) {
	var k models.KYC
	err := r.db.Where("user_type = ? AND user_id = ?", userType, userID).Order("created_at DESC, id DESC").First(&k).Error
	if err != nil {
		return nil, err
	}
	return &k, nil
}

func (r *KYCRepository) HasPending(userType string, userID uint) (bool, error) {
	var c int64
	err := r.db.Model(&models.KYC{}).
		Where("user_type = ? AND user_id = ? AND status = ?", userType, userID, domain.KYCStatusPending).
		Count(&c).Error
	return c > 0, err
}

func (r *KYCRepository) ListPending(page, limit int) ([]models.KYC, int64, error) {
	q := r.db.Model(&models.KYC{}).Where("status = ?", domain.KYCStatusPending)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.KYC
	err := q.Order("created_at ASC, id ASC").Limit(limit).Offset((page - 1) * limit).Find(&list).Error
	return list, total, err
}

// TransitionFromPending returns false if the submission was already reviewed.
func (r *KYCRepository) TransitionFromPending(id uint, fields map[string]interface{}) (bool, error) {
	res := r.db.Model(&models.KYC{}).
		Where("id = ? AND status = ?", id, domain.KYCStatusPending).
		Updates(fields)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
