package service

import (
	"context"
	"errors"
	"fmt"

	"coinmeet/internal/domain"
	"coinmeet/internal/models"
	"coinmeet/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UserAdminService holds the admin's direct interventions on an account:
// manual balance corrections and enabling or disabling login.
type UserAdminService struct {
	db       *gorm.DB
	users    *repository.UserRepository
	ledger   *Ledger
	notifier *Notifier
	log      *zap.Logger
}

func NewUserAdminService(db *gorm.DB, users *repository.UserRepository, ledger *Ledger, notifier *Notifier, log *zap.Logger) *UserAdminService {
	return &UserAdminService{db: db, users: users, ledger: ledger, notifier: notifier, log: log}
}

type BalanceAdjustment struct {
	UserType  string
	UserID    uint
	Operation string // coin | wallet
	Action    string // credit | debit
	Amount    int64
	Message   string
	AdminID   uint
}

type BalanceAdjustmentResult struct {
	UserID       uint                `json:"user_id"`
	Operation    string              `json:"operation_type"`
	BalanceAfter int64               `json:"balance_after"`
	Transaction  *models.Transaction `json:"transaction"`
}

func isMemberType(t string) bool {
	return t == domain.UserTypeMale || t == domain.UserTypeFemale || t == domain.UserTypeAgency
}

// AdjustBalance credits or debits one balance and records who did it. A
// debit larger than the balance is refused and changes nothing.
func (s *UserAdminService) AdjustBalance(ctx context.Context, in BalanceAdjustment) (*BalanceAdjustmentResult, error) {
	if !isMemberType(in.UserType) {
		return nil, domain.Validation("invalid user_type")
	}
	if in.Operation != domain.OperationCoin && in.Operation != domain.OperationWallet {
		return nil, domain.Validation("operation_type must be coin or wallet")
	}
	if in.Action != domain.ActionCredit && in.Action != domain.ActionDebit {
		return nil, domain.Validation("action must be credit or debit")
	}
	if in.Amount <= 0 {
		return nil, domain.Validation("amount must be positive")
	}
	u, err := s.users.GetByID(in.UserID)
	if err != nil {
		return nil, lookupErr(err, "user")
	}
	if u.UserType != in.UserType {
		return nil, domain.NotFound("user not found")
	}
	msg := in.Message
	if msg == "" {
		msg = "Balance credited by admin"
		if in.Action == domain.ActionDebit {
			msg = "Balance debited by admin"
		}
	}

	var txn *models.Transaction
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		txn, err = s.ledger.Post(tx, Entry{
			UserType:    u.UserType,
			UserID:      u.ID,
			Operation:   in.Operation,
			Action:      in.Action,
			Amount:      in.Amount,
			Message:     msg,
			CreatedBy:   in.AdminID,
			EarningType: domain.EarningAdjustment,
		})
		return err
	})
	if errors.Is(err, repository.ErrInsufficientBalance) {
		available := u.CoinBalance
		if in.Operation == domain.OperationWallet {
			available = u.WalletBalance
		}
		return nil, domain.Insufficient("insufficient balance", in.Amount, available)
	}
	if err != nil {
		return nil, err
	}
	s.log.Info("balance adjusted by admin",
		zap.Uint("admin_id", in.AdminID),
		zap.Uint("user_id", u.ID),
		zap.String("operation", in.Operation),
		zap.String("action", in.Action),
		zap.Int64("amount", in.Amount),
	)
	s.notifier.Publish(u.ID, domain.EventBalanceUpdated, map[string]interface{}{
		"operation_type": in.Operation,
		"balance_after":  txn.BalanceAfter,
	})
	return &BalanceAdjustmentResult{UserID: u.ID, Operation: in.Operation, BalanceAfter: txn.BalanceAfter, Transaction: txn}, nil
}

// SetActive enables or disables login for a member account. Tokens already
// issued stay valid until they expire.
func (s *UserAdminService) SetActive(userType string, userID uint, active bool) (*models.User, error) {
	if !isMemberType(userType) {
		return nil, domain.Validation("invalid user_type")
	}
	u, err := s.users.GetByID(userID)
	if err != nil {
		return nil, lookupErr(err, "user")
	}
	if u.UserType != userType {
		return nil, domain.NotFound("user not found")
	}
	fields := map[string]interface{}{"is_active": active}
	if !active {
		fields["fcm_token"] = ""
	}
	if err := s.users.UpdateFields(u.ID, fields); err != nil {
		return nil, fmt.Errorf("set user status: %w", err)
	}
	u.IsActive = active
	if !active {
		u.FCMToken = ""
	}
	s.log.Info("user status changed", zap.Uint("user_id", u.ID), zap.Bool("active", active))
	return u, nil
}
