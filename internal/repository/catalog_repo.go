package repository

import (
	"coinmeet/internal/models"

	"gorm.io/gorm"
)

type GiftRepository struct {
	db *gorm.DB
}

func NewGiftRepository(db *gorm.DB) *GiftRepository {
	return &GiftRepository{db: db}
}

func (r *GiftRepository) Create(g *models.Gift) error {
	return r.db.Create(g).Error
}

func (r *GiftRepository) GetByID(id uint) (*models.Gift, error) {
	var g models.Gift
	if err := r.db.First(&g, id).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

// List returns gifts cheapest first. publishedOnly hides drafts from users.
func (r *GiftRepository) List(publishedOnly bool) ([]models.Gift, error) {
	q := r.db.Model(&models.Gift{})
	if publishedOnly {
		q = q.Where("published = ?", true)
	}
	var list []models.Gift
	err := q.Order("coin ASC, id ASC").Find(&list).Error
	return list, err
}

type CoinPackageRepository struct {
	db *gorm.DB
}

func NewCoinPackageRepository(db *gorm.DB) *CoinPackageRepository {
	return &CoinPackageRepository{db: db}
}

func (r *CoinPackageRepository) Create(p *models.CoinPackage) error {
	return r.db.Create(p).Error
}

func (r *CoinPackageRepository) GetByID(id uint) (*models.CoinPackage, error) {
	var p models.CoinPackage
	if err := r.db.First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *CoinPackageRepository) ListActive() ([]models.CoinPackage, error) {
	var list []models.CoinPackage
	err := r.db.Where("active = ?", true).Order("coins ASC").Find(&list).Error
	return list, err
}

type MediaRepository struct {
	db *gorm.DB
}

func NewMediaRepository(db *gorm.DB) *MediaRepository {
	return &MediaRepository{db: db}
}

func (r *MediaRepository) Create(m *models.UserMedia) error {
	return r.db.Create(m).Error
}

func (r *MediaRepository) CountByType(userID uint, mediaType string) (int64, error) {
	var c int64
	err := r.db.Model(&models.UserMedia{}).Where("user_id = ? AND type = ?", userID, mediaType).Count(&c).Error
	return c, err
}

func (r *MediaRepository) ListByUser(userID uint) ([]models.UserMedia, error) {
	var list []models.UserMedia
	err := r.db.Where("user_id = ?", userID).Order("created_at ASC").Find(&list).Error
	return list, err
}
