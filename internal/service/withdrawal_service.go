package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"coinmeet/internal/domain"
	"coinmeet/internal/metrics"
	"coinmeet/internal/models"
	"coinmeet/internal/repository"
	"coinmeet/pkg/payout"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CreateWithdrawalInput struct {
	UserType       string
	UserID         uint
	Coins          *int64
	AmountInRupees *decimal.Decimal
	PayoutMethod   string
	PayoutDetails  models.PayoutDetails
}

// WithdrawalService runs the pending -> processing -> approved and
// pending -> rejected lifecycle. Coins are debited at creation and only
// returned on rejection.
type WithdrawalService struct {
	db          *gorm.DB
	users       *repository.UserRepository
	withdrawals *repository.WithdrawalRepository
	ledger      *Ledger
	settings    *Settings
	provider    payout.Provider
	notifier    *Notifier
	log         *zap.Logger
}

func NewWithdrawalService(
	db *gorm.DB,
	users *repository.UserRepository,
	withdrawals *repository.WithdrawalRepository,
	ledger *Ledger,
	settings *Settings,
	provider payout.Provider,
	notifier *Notifier,
	log *zap.Logger,
) *WithdrawalService {
	return &WithdrawalService{
		db:          db,
		users:       users,
		withdrawals: withdrawals,
		ledger:      ledger,
		settings:    settings,
		provider:    provider,
		notifier:    notifier,
		log:         log,
	}
}

// CoinsToRupees converts at rate coins per rupee, rounded to paise.
func CoinsToRupees(coins, rate int64) decimal.Decimal {
	if rate <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(coins).DivRound(decimal.NewFromInt(rate), 2)
}

// RupeesToCoins converts at rate coins per rupee, rounding up to whole coins.
func RupeesToCoins(rupees decimal.Decimal, rate int64) int64 {
	return rupees.Mul(decimal.NewFromInt(rate)).Ceil().IntPart()
}

func (s *WithdrawalService) Create(ctx context.Context, in CreateWithdrawalInput) (*models.WithdrawalRequest, error) {
	if in.UserType != domain.UserTypeFemale && in.UserType != domain.UserTypeAgency {
		return nil, domain.Forbidden("only female and agency accounts can withdraw")
	}
	if in.PayoutMethod != domain.PayoutMethodBank && in.PayoutMethod != domain.PayoutMethodUPI {
		return nil, domain.Validation("payout_method must be bank or upi")
	}
	if (in.Coins == nil) == (in.AmountInRupees == nil) {
		return nil, domain.Validation("provide exactly one of coins or amount_in_rupees")
	}

	cfg := s.settings.Current()
	var (
		coins  int64
		rupees decimal.Decimal
	)
	if in.Coins != nil {
		if *in.Coins <= 0 {
			return nil, domain.Validation("coins must be positive")
		}
		coins = *in.Coins
		rupees = CoinsToRupees(coins, cfg.CoinToRupeeRate)
	} else {
		if !in.AmountInRupees.IsPositive() {
			return nil, domain.Validation("amount_in_rupees must be positive")
		}
		rupees = in.AmountInRupees.Round(2)
		coins = RupeesToCoins(rupees, cfg.CoinToRupeeRate)
	}
	if rupees.LessThan(cfg.MinWithdrawalAmount) {
		return nil, domain.Validation("minimum withdrawal amount is %s rupees", cfg.MinWithdrawalAmount.StringFixed(2))
	}

	user, err := s.users.GetByID(in.UserID)
	if err != nil {
		return nil, lookupErr(err, "user")
	}
	if user.UserType != in.UserType {
		return nil, domain.NotFound("user not found")
	}
	if user.KYCStatus != domain.KYCStatusApproved {
		return nil, domain.Forbidden("KYC not approved for %s user", in.UserType)
	}
	if !user.HasVerifiedPayout(in.PayoutMethod) {
		return nil, domain.Forbidden("no verified %s details on file", in.PayoutMethod)
	}
	details := in.PayoutDetails
	if in.UserType == domain.UserTypeFemale || !details.Complete(in.PayoutMethod) {
		details = verifiedDetails(user, in.PayoutMethod)
	}

	op := withdrawableBalance(in.UserType)
	available := user.WalletBalance
	if op == domain.OperationCoin {
		available = user.CoinBalance
	}
	if available < coins {
		return nil, domain.Insufficient("insufficient balance", coins, available)
	}

	req := &models.WithdrawalRequest{
		UserType:       in.UserType,
		UserID:         user.ID,
		CoinsRequested: coins,
		AmountInRupees: rupees,
		PayoutMethod:   in.PayoutMethod,
		PayoutDetails:  details,
		Status:         domain.WithdrawalPending,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.withdrawals.WithTx(tx).Create(req); err != nil {
			return fmt.Errorf("create withdrawal: %w", err)
		}
		_, err := s.ledger.Post(tx, Entry{
			UserType:     in.UserType,
			UserID:       user.ID,
			Operation:    op,
			Action:       domain.ActionDebit,
			Amount:       coins,
			Message:      "Withdrawal requested - coins debited",
			RelatedID:    &req.ID,
			RelatedModel: domain.RelatedWithdrawal,
			EarningType:  domain.EarningPayout,
		})
		return err
	})
	if errors.Is(err, repository.ErrInsufficientBalance) {
		return nil, domain.Insufficient("insufficient balance", coins, available)
	}
	if err != nil {
		return nil, err
	}
	metrics.Withdrawals.WithLabelValues(domain.WithdrawalPending).Inc()
	s.log.Info("withdrawal requested",
		zap.Uint("withdrawal_id", req.ID),
		zap.Uint("user_id", user.ID),
		zap.Int64("coins", coins),
		zap.String("rupees", rupees.StringFixed(2)),
	)
	return req, nil
}

// verifiedDetails builds payout details from the KYC-approved copy on the user.
func verifiedDetails(u *models.User, method string) models.PayoutDetails {
	if method == domain.PayoutMethodUPI {
		return models.PayoutDetails{VPA: u.KYCUPI.UPIID}
	}
	return models.PayoutDetails{
		AccountHolderName: u.KYCBank.Name,
		AccountNumber:     u.KYCBank.AccountNumber,
		IFSC:              u.KYCBank.IFSC,
	}
}

func (s *WithdrawalService) ListMine(userType string, userID uint, page, limit int) ([]models.WithdrawalRequest, int64, error) {
	return s.withdrawals.ListByUser(userType, userID, page, limit)
}

func (s *WithdrawalService) List(status string, page, limit int) ([]models.WithdrawalRequest, int64, error) {
	return s.withdrawals.List(status, page, limit)
}

func (s *WithdrawalService) loadPending(id uint) (*models.WithdrawalRequest, error) {
	req, err := s.withdrawals.GetByID(id)
	if err != nil {
		return nil, lookupErr(err, "withdrawal request")
	}
	if req.Status != domain.WithdrawalPending {
		return nil, domain.State("request not pending")
	}
	return req, nil
}

// payoutReference is the idempotency key sent to the gateway. It is stable
// per request so a retried approval cannot pay twice.
func payoutReference(id uint) string {
	return fmt.Sprintf("wd-%d", id)
}

// Approve settles a request. Funds were moved at creation so no balance
// changes here.
//
// The request is first claimed pending -> processing and committed, then the
// provider is called with a stable reference, then processing -> approved is
// written with the payout id. A declined payout releases the claim back to
// pending. Any other failure leaves the request processing; approving it
// again resumes with the same reference.
func (s *WithdrawalService) Approve(ctx context.Context, id, adminID uint) (*models.WithdrawalRequest, error) {
	req, err := s.withdrawals.GetByID(id)
	if err != nil {
		return nil, lookupErr(err, "withdrawal request")
	}
	repo := s.withdrawals.WithTx(s.db.WithContext(ctx))
	now := time.Now()
	switch req.Status {
	case domain.WithdrawalPending:
		ok, err := repo.TransitionFromPending(id, map[string]interface{}{
			"status":       domain.WithdrawalProcessing,
			"processed_by": adminID,
			"processed_at": now,
		})
		if err != nil {
			return nil, fmt.Errorf("claim withdrawal: %w", err)
		}
		if !ok {
			return nil, domain.State("request not pending")
		}
	case domain.WithdrawalProcessing:
		s.log.Info("resuming withdrawal payout", zap.Uint("withdrawal_id", id), zap.Uint("admin_id", adminID))
	default:
		return nil, domain.State("request not pending")
	}

	payoutRef := ""
	if s.provider != nil {
		user, err := s.users.GetByID(req.UserID)
		if err != nil {
			return nil, lookupErr(err, "user")
		}
		out, err := s.provider.Payout(ctx, payout.Request{
			ReferenceID: payoutReference(req.ID),
			Name:        user.DisplayName(),
			Email:       user.Email,
			ContactType: req.UserType,
			Method:      req.PayoutMethod,
			AccountName: req.PayoutDetails.AccountHolderName,
			AccountNo:   req.PayoutDetails.AccountNumber,
			IFSC:        req.PayoutDetails.IFSC,
			VPA:         req.PayoutDetails.VPA,
			Amount:      req.AmountInRupees,
		})
		if err != nil {
			return nil, s.payoutFailed(ctx, req, err)
		}
		payoutRef = out.PayoutID
	}

	ok, err := repo.Transition(id, domain.WithdrawalProcessing, map[string]interface{}{
		"status":       domain.WithdrawalApproved,
		"payout_ref":   payoutRef,
		"processed_by": adminID,
		"processed_at": now,
	})
	if err != nil {
		s.log.Error("withdrawal paid but not recorded, approve again to finish",
			zap.Uint("withdrawal_id", id), zap.String("payout_ref", payoutRef), zap.Error(err))
		return nil, fmt.Errorf("record payout: %w", err)
	}
	if !ok {
		return nil, domain.State("request no longer processing")
	}
	req.Status = domain.WithdrawalApproved
	req.PayoutRef = payoutRef
	req.ProcessedBy = &adminID
	req.ProcessedAt = &now

	metrics.Withdrawals.WithLabelValues(domain.WithdrawalApproved).Inc()
	s.log.Info("withdrawal approved", zap.Uint("withdrawal_id", id), zap.String("payout_ref", payoutRef))
	s.notifier.Notify(ctx, req.UserID, domain.EventWithdrawalUpdated, "Withdrawal approved",
		fmt.Sprintf("Your withdrawal of Rs %s has been approved", req.AmountInRupees.StringFixed(2)),
		map[string]interface{}{"withdrawal_id": req.ID, "status": req.Status})
	return req, nil
}

func (s *WithdrawalService) payoutFailed(ctx context.Context, req *models.WithdrawalRequest, cause error) error {
	err := fmt.Errorf("%s payout: %w", s.provider.Name(), cause)
	if !payout.IsDeclined(cause) {
		s.log.Error("payout outcome unknown, request left processing",
			zap.Uint("withdrawal_id", req.ID), zap.Error(err))
		return err
	}
	ok, rerr := s.withdrawals.WithTx(s.db.WithContext(ctx)).Transition(req.ID, domain.WithdrawalProcessing, map[string]interface{}{
		"status":       domain.WithdrawalPending,
		"processed_by": nil,
		"processed_at": nil,
	})
	if rerr != nil || !ok {
		s.log.Error("release declined withdrawal", zap.Uint("withdrawal_id", req.ID), zap.Bool("released", ok), zap.Error(rerr))
	} else {
		s.log.Warn("payout declined, request back to pending", zap.Uint("withdrawal_id", req.ID), zap.Error(err))
	}
	return err
}

// Reject marks the request rejected and refunds exactly the coins it locked.
func (s *WithdrawalService) Reject(ctx context.Context, id, adminID uint, reason string) (*models.WithdrawalRequest, error) {
	req, err := s.loadPending(id)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	var refund *models.Transaction
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := s.withdrawals.WithTx(tx).TransitionFromPending(id, map[string]interface{}{
			"status":       domain.WithdrawalRejected,
			"processed_by": adminID,
			"processed_at": now,
			"notes":        reason,
		})
		if err != nil {
			return err
		}
		if !ok {
			return domain.State("request not pending")
		}
		refund, err = s.ledger.Post(tx, Entry{
			UserType:     req.UserType,
			UserID:       req.UserID,
			Operation:    withdrawableBalance(req.UserType),
			Action:       domain.ActionCredit,
			Amount:       req.CoinsRequested,
			Message:      "Withdrawal rejected - coins refunded",
			CreatedBy:    adminID,
			RelatedID:    &req.ID,
			RelatedModel: domain.RelatedWithdrawal,
			EarningType:  domain.EarningPayout,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	req.Status = domain.WithdrawalRejected
	req.ProcessedBy = &adminID
	req.ProcessedAt = &now
	req.Notes = reason

	metrics.Withdrawals.WithLabelValues(domain.WithdrawalRejected).Inc()
	s.notifier.Notify(ctx, req.UserID, domain.EventWithdrawalUpdated, "Withdrawal rejected",
		"Your withdrawal was rejected and the coins were refunded",
		map[string]interface{}{"withdrawal_id": req.ID, "status": req.Status, "balance_after": refund.BalanceAfter})
	return req, nil
}
