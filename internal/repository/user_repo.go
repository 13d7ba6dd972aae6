package repository

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"coinmeet/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// WithTx returns a copy bound to tx.
func (r *UserRepository) WithTx(tx *gorm.DB) *UserRepository {
	return &UserRepository{db: tx}
}

func (r *UserRepository) Create(u *models.User) error {
	return r.db.Create(u).Error
}

func (r *UserRepository) GetByID(id uint) (*models.User, error) {
	var u models.User
	err := r.db.First(&u, id).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// LockByID reads the row with FOR UPDATE so the balance read and the
// following conditional update happen under the same lock.
func (r *UserRepository) LockByID(id uint) (*models.User, error) {
	var u models.User
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&u, id).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(email, userType string) (*models.User, error) {
	var u models.User
	err := r.db.Where("email = ? AND user_type = ?", strings.ToLower(email), userType).First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByReferralCode(code string) (*models.User, error) {
	var u models.User
	err := r.db.Where("referral_code = ?", strings.ToUpper(code)).First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) Update(u *models.User) error {
	return r.db.Save(u).Error
}

// UpdateFields writes only the given columns.
func (r *UserRepository) UpdateFields(id uint, fields map[string]interface{}) error {
	return r.db.Model(&models.User{}).Where("id = ?", id).Updates(fields).Error
}

// MarkReferralAwarded flips referral_bonus_awarded false->true. It returns
// false when another request already flipped it.
func (r *UserRepository) MarkReferralAwarded(id uint) (bool, error) {
	res := r.db.Model(&models.User{}).
		Where("id = ? AND referral_bonus_awarded = ?", id, false).
		UpdateColumn("referral_bonus_awarded", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ClearFCMToken drops token from the user unless a newer one replaced it.
func (r *UserRepository) ClearFCMToken(id uint, token string) error {
	return r.db.Model(&models.User{}).
		Where("id = ? AND fcm_token = ?", id, token).
		UpdateColumn("fcm_token", "").Error
}

// List returns users with optional type and review filters.
func (r *UserRepository) List(userType, reviewStatus, search string, page, limit int) ([]models.User, int64, error) {
	q := r.db.Model(&models.User{})
	if userType != "" {
		q = q.Where("user_type = ?", userType)
	}
	if reviewStatus != "" {
		q = q.Where("review_status = ?", reviewStatus)
	}
	if search != "" {
		like := "%" + search + "%"
		q = q.Where("email LIKE ? OR name LIKE ? OR first_name LIKE ?", like, like, like)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var users []models.User
	err := q.Order("created_at DESC").Limit(limit).Offset((page - 1) * limit).Find(&users).Error
	return users, total, err
}

// generateReferralCode returns an 8-character uppercase hex referral code.
func generateReferralCode() (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(b)), nil
}

// NewReferralCode returns a code no other user holds.
func (r *UserRepository) NewReferralCode() (string, error) {
	for i := 0; i < 10; i++ {
		code, err := generateReferralCode()
		if err != nil {
			return "", err
		}
		var c int64
		if err := r.db.Model(&models.User{}).Where("referral_code = ?", code).Count(&c).Error; err != nil {
			return "", err
		}
		if c == 0 {
			return code, nil
		}
	}
	return "", fmt.Errorf("failed to generate a unique referral code after retries")
}

// ListReferred returns users whose referred_by_id is referrerID, newest first.
func (r *UserRepository) ListReferred(referrerID uint, limit, offset int) ([]models.User, int64, error) {
	q := r.db.Model(&models.User{}).Where("referred_by_id = ?", referrerID)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var users []models.User
	err := q.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&users).Error
	return users, total, err
}
