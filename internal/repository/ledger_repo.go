package repository

import (
	"errors"
	"fmt"
	"time"

	"coinmeet/internal/domain"
	"coinmeet/internal/models"

	"gorm.io/gorm"
)

var ErrInsufficientBalance = errors.New("insufficient balance")

// LedgerRepository mutates user balances and appends transaction rows.
// Transactions are never updated or deleted.
type LedgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) WithTx(tx *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: tx}
}

func balanceColumn(operation string) (string, error) {
	switch operation {
	case domain.OperationCoin:
		return "coin_balance", nil
	case domain.OperationWallet:
		return "wallet_balance", nil
	}
	return "", fmt.Errorf("unknown operation type %q", operation)
}

// Debit subtracts amount only if the balance covers it, in one statement.
// Returns the balance after the debit.
func (r *LedgerRepository) Debit(userID uint, operation string, amount int64) (int64, error) {
	col, err := balanceColumn(operation)
	if err != nil {
		return 0, err
	}
	res := r.db.Model(&models.User{}).
		Where("id = ? AND "+col+" >= ?", userID, amount).
		UpdateColumn(col, gorm.Expr(col+" - ?", amount))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, ErrInsufficientBalance
	}
	return r.balance(userID, col)
}

// Credit adds amount and returns the balance after the credit.
func (r *LedgerRepository) Credit(userID uint, operation string, amount int64) (int64, error) {
	col, err := balanceColumn(operation)
	if err != nil {
		return 0, err
	}
	res := r.db.Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn(col, gorm.Expr(col+" + ?", amount))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	return r.balance(userID, col)
}

func (r *LedgerRepository) balance(userID uint, col string) (int64, error) {
	var vals []int64
	if err := r.db.Model(&models.User{}).Where("id = ?", userID).Pluck(col, &vals).Error; err != nil {
		return 0, err
	}
	if len(vals) == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	return vals[0], nil
}

func (r *LedgerRepository) Record(t *models.Transaction) error {
	return r.db.Create(t).Error
}

// TransactionFilter narrows a transaction listing. Zero values are ignored.
type TransactionFilter struct {
	UserType      string
	UserID        uint
	OperationType string
	Action        string
	Start         *time.Time
	End           *time.Time
}

func (r *LedgerRepository) List(f TransactionFilter, page, limit int) ([]models.Transaction, int64, error) {
	q := r.db.Model(&models.Transaction{})
	if f.UserType != "" {
		q = q.Where("user_type = ?", f.UserType)
	}
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.OperationType != "" {
		q = q.Where("operation_type = ?", f.OperationType)
	}
	if f.Action != "" {
		q = q.Where("action = ?", f.Action)
	}
	if f.Start != nil {
		q = q.Where("created_at >= ?", *f.Start)
	}
	if f.End != nil {
		q = q.Where("created_at <= ?", *f.End)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.Transaction
	err := q.Order("created_at DESC, id DESC").Limit(limit).Offset((page - 1) * limit).Find(&list).Error
	return list, total, err
}

// ListByRelated returns the rows written for one call, withdrawal or gift.
func (r *LedgerRepository) ListByRelated(relatedModel string, relatedID uint) ([]models.Transaction, error) {
	var list []models.Transaction
	err := r.db.Where("related_model = ? AND related_id = ?", relatedModel, relatedID).Order("id ASC").Find(&list).Error
	return list, err
}
