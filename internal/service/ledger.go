package service

import (
	"fmt"

	"coinmeet/internal/domain"
	"coinmeet/internal/models"
	"coinmeet/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Entry is one balance mutation together with its transaction row.
type Entry struct {
	UserType     string
	UserID       uint
	Operation    string // coin | wallet
	Action       string // credit | debit
	Amount       int64
	Message      string
	CreatedBy    uint
	RelatedID    *uint
	RelatedModel string
	EarningType  string
}

// Ledger pairs every balance change with an append-only Transaction.
type Ledger struct {
	repo *repository.LedgerRepository
	log  *zap.Logger
}

func NewLedger(repo *repository.LedgerRepository, log *zap.Logger) *Ledger {
	return &Ledger{repo: repo, log: log}
}

// Post applies e inside tx. A debit that the balance does not cover
// returns repository.ErrInsufficientBalance and changes nothing.
func (l *Ledger) Post(tx *gorm.DB, e Entry) (*models.Transaction, error) {
	if e.Amount <= 0 {
		return nil, domain.Validation("amount must be positive")
	}
	repo := l.repo.WithTx(tx)
	var (
		after int64
		err   error
	)
	switch e.Action {
	case domain.ActionDebit:
		after, err = repo.Debit(e.UserID, e.Operation, e.Amount)
	case domain.ActionCredit:
		after, err = repo.Credit(e.UserID, e.Operation, e.Amount)
	default:
		return nil, fmt.Errorf("unknown ledger action %q", e.Action)
	}
	if err != nil {
		return nil, err
	}
	createdBy := e.CreatedBy
	if createdBy == 0 {
		createdBy = e.UserID
	}
	t := &models.Transaction{
		UserType:      e.UserType,
		UserID:        e.UserID,
		OperationType: e.Operation,
		Action:        e.Action,
		Amount:        e.Amount,
		Message:       e.Message,
		BalanceAfter:  after,
		CreatedBy:     createdBy,
		RelatedID:     e.RelatedID,
		RelatedModel:  e.RelatedModel,
		EarningType:   e.EarningType,
	}
	if err := repo.Record(t); err != nil {
		return nil, fmt.Errorf("record transaction: %w", err)
	}
	l.log.Info("balance mutated",
		zap.Uint("user_id", e.UserID),
		zap.String("operation", e.Operation),
		zap.String("action", e.Action),
		zap.Int64("amount", e.Amount),
		zap.Int64("balance_after", after),
	)
	return t, nil
}

func (l *Ledger) List(f repository.TransactionFilter, page, limit int) ([]models.Transaction, int64, error) {
	return l.repo.List(f, page, limit)
}

// earningBalance is the balance that receives earnings for a user type.
func earningBalance(userType string) string {
	if userType == domain.UserTypeMale || userType == domain.UserTypeAgency {
		return domain.OperationCoin
	}
	return domain.OperationWallet
}

// withdrawableBalance is the balance a withdrawal debits.
func withdrawableBalance(userType string) string {
	if userType == domain.UserTypeFemale {
		return domain.OperationWallet
	}
	return domain.OperationCoin
}
