package service

import (
	"context"
	"errors"
	"fmt"

	"coinmeet/internal/domain"
	"coinmeet/internal/metrics"
	"coinmeet/internal/models"
	"coinmeet/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ComputeCharge clamps a claimed duration to what balance can pay for at rate.
func ComputeCharge(balance, rate, duration int64) (billableSeconds, coins int64) {
	if rate <= 0 || duration <= 0 || balance <= 0 {
		return 0, 0
	}
	maxSeconds := balance / rate
	billableSeconds = duration
	if billableSeconds > maxSeconds {
		billableSeconds = maxSeconds
	}
	return billableSeconds, billableSeconds * rate
}

type StartCallResult struct {
	ReceiverID     uint  `json:"receiver_id"`
	CoinsPerSecond int64 `json:"coins_per_second"`
	CoinBalance    int64 `json:"coin_balance"`
	MaxSeconds     int64 `json:"max_seconds"`
	MinCallCoins   int64 `json:"min_call_coins"`
}

type EndCallInput struct {
	CallerID   uint
	ReceiverID uint
	Duration   int64
	CallType   string
}

type EndCallResult struct {
	CallID          uint  `json:"call_id"`
	Duration        int64 `json:"duration"`
	BillableSeconds int64 `json:"billable_seconds"`
	CoinsPerSecond  int64 `json:"coins_per_second"`
	CoinsCharged    int64 `json:"coins_charged"`
	CallerBalance   int64 `json:"caller_coin_balance"`
	ReceiverBalance int64 `json:"receiver_wallet_balance"`
}

// BillingService meters calls from a male caller to a female receiver.
type BillingService struct {
	db       *gorm.DB
	users    *repository.UserRepository
	calls    *repository.CallRepository
	follows  *repository.FollowRepository
	blocks   *repository.BlockRepository
	ledger   *Ledger
	settings *Settings
	notifier *Notifier
	log      *zap.Logger
}

func NewBillingService(
	db *gorm.DB,
	users *repository.UserRepository,
	calls *repository.CallRepository,
	follows *repository.FollowRepository,
	blocks *repository.BlockRepository,
	ledger *Ledger,
	settings *Settings,
	notifier *Notifier,
	log *zap.Logger,
) *BillingService {
	return &BillingService{
		db:       db,
		users:    users,
		calls:    calls,
		follows:  follows,
		blocks:   blocks,
		ledger:   ledger,
		settings: settings,
		notifier: notifier,
		log:      log,
	}
}

func (s *BillingService) parties(callerID, receiverID uint) (*models.User, *models.User, error) {
	if callerID == receiverID {
		return nil, nil, domain.Validation("cannot call yourself")
	}
	caller, err := s.users.GetByID(callerID)
	if err != nil {
		return nil, nil, lookupErr(err, "caller")
	}
	if !caller.IsMale() {
		return nil, nil, domain.Forbidden("only male users can place calls")
	}
	receiver, err := s.users.GetByID(receiverID)
	if err != nil || !receiver.IsFemale() {
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("load receiver: %w", err)
		}
		return nil, nil, domain.NotFound("receiver not found")
	}
	return caller, receiver, nil
}

// rateFor resolves the receiver's per-second rate with platform fallbacks.
func (s *BillingService) rateFor(receiver *models.User) int64 {
	if receiver.CoinsPerSecond > 0 {
		return receiver.CoinsPerSecond
	}
	if r := s.settings.Current().DefaultCoinsPerSecond; r > 0 {
		return r
	}
	return domain.FallbackCoinsPerSecond
}

// StartCall checks the preconditions of a call and returns how long the
// caller can afford to talk.
func (s *BillingService) StartCall(ctx context.Context, callerID, receiverID uint) (*StartCallResult, error) {
	caller, receiver, err := s.parties(callerID, receiverID)
	if err != nil {
		return nil, err
	}
	blocked, err := s.blocks.IsBlockedEither(callerID, receiverID)
	if err != nil {
		return nil, fmt.Errorf("check block: %w", err)
	}
	if blocked {
		return nil, domain.Forbidden("call not allowed between these users")
	}
	mutual, err := s.follows.IsMutual(callerID, receiverID)
	if err != nil {
		return nil, fmt.Errorf("check follow: %w", err)
	}
	if !mutual {
		return nil, domain.Forbidden("both users must follow each other to call")
	}

	rate := s.rateFor(receiver)
	minCoins := s.settings.Current().MinCallCoins
	required := minCoins
	if required < rate {
		required = rate
	}
	if caller.CoinBalance < required {
		return nil, domain.Insufficient(fmt.Sprintf("minimum %d coins required to start a call", required), required, caller.CoinBalance)
	}

	res := &StartCallResult{
		ReceiverID:     receiver.ID,
		CoinsPerSecond: rate,
		CoinBalance:    caller.CoinBalance,
		MaxSeconds:     caller.CoinBalance / rate,
		MinCallCoins:   minCoins,
	}
	s.notifier.Notify(ctx, receiver.ID, domain.EventCallIncoming, "Incoming call", caller.DisplayName()+" is calling you", map[string]interface{}{
		"caller_id":   caller.ID,
		"caller_name": caller.DisplayName(),
		"max_seconds": res.MaxSeconds,
	})
	return res, nil
}

var errCallUnaffordable = errors.New("call unaffordable")

// EndCall settles a finished call. Debit, credit, call row and both
// transactions commit together or not at all.
func (s *BillingService) EndCall(ctx context.Context, in EndCallInput) (*EndCallResult, error) {
	if in.Duration < 0 {
		return nil, domain.Validation("duration must be a non-negative number of seconds")
	}
	if in.CallType == "" {
		in.CallType = domain.CallTypeVideo
	}
	caller, receiver, err := s.parties(in.CallerID, in.ReceiverID)
	if err != nil {
		return nil, err
	}
	rate := s.rateFor(receiver)

	if in.Duration == 0 {
		call := &models.CallHistory{
			CallerID:       caller.ID,
			ReceiverID:     receiver.ID,
			CoinsPerSecond: rate,
			Status:         domain.CallStatusCompleted,
			CallType:       in.CallType,
		}
		if err := s.calls.WithTx(s.db.WithContext(ctx)).Create(call); err != nil {
			return nil, fmt.Errorf("record call: %w", err)
		}
		metrics.CallsSettled.WithLabelValues(domain.CallStatusCompleted).Inc()
		return &EndCallResult{
			CallID:          call.ID,
			CoinsPerSecond:  rate,
			CallerBalance:   caller.CoinBalance,
			ReceiverBalance: receiver.WalletBalance,
		}, nil
	}

	var (
		res       *EndCallResult
		available int64
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := s.users.WithTx(tx).LockByID(caller.ID)
		if err != nil {
			return lookupErr(err, "caller")
		}
		available = locked.CoinBalance
		billable, coins := ComputeCharge(locked.CoinBalance, rate, in.Duration)
		if billable == 0 {
			return errCallUnaffordable
		}

		call := &models.CallHistory{
			CallerID:        caller.ID,
			ReceiverID:      receiver.ID,
			Duration:        in.Duration,
			BillableSeconds: billable,
			CoinsPerSecond:  rate,
			TotalCoins:      coins,
			Status:          domain.CallStatusCompleted,
			CallType:        in.CallType,
		}
		if err := s.calls.WithTx(tx).Create(call); err != nil {
			return fmt.Errorf("record call: %w", err)
		}
		debit, err := s.ledger.Post(tx, Entry{
			UserType:     domain.UserTypeMale,
			UserID:       caller.ID,
			Operation:    domain.OperationCoin,
			Action:       domain.ActionDebit,
			Amount:       coins,
			Message:      fmt.Sprintf("Call with %s for %d seconds", receiver.DisplayName(), billable),
			RelatedID:    &call.ID,
			RelatedModel: domain.RelatedCallHistory,
			EarningType:  domain.EarningCall,
		})
		if errors.Is(err, repository.ErrInsufficientBalance) {
			return errCallUnaffordable
		}
		if err != nil {
			return err
		}
		credit, err := s.ledger.Post(tx, Entry{
			UserType:     domain.UserTypeFemale,
			UserID:       receiver.ID,
			Operation:    domain.OperationWallet,
			Action:       domain.ActionCredit,
			Amount:       coins,
			Message:      fmt.Sprintf("Call earnings from %s for %d seconds", caller.DisplayName(), billable),
			CreatedBy:    caller.ID,
			RelatedID:    &call.ID,
			RelatedModel: domain.RelatedCallHistory,
			EarningType:  domain.EarningCall,
		})
		if err != nil {
			return err
		}
		res = &EndCallResult{
			CallID:          call.ID,
			Duration:        in.Duration,
			BillableSeconds: billable,
			CoinsPerSecond:  rate,
			CoinsCharged:    coins,
			CallerBalance:   debit.BalanceAfter,
			ReceiverBalance: credit.BalanceAfter,
		}
		return nil
	})
	if errors.Is(err, errCallUnaffordable) {
		return nil, s.recordUnaffordable(ctx, caller, receiver, in, rate, available)
	}
	if err != nil {
		return nil, err
	}

	metrics.CallsSettled.WithLabelValues(domain.CallStatusCompleted).Inc()
	metrics.CoinsBilled.Add(float64(res.CoinsCharged))
	ended := map[string]interface{}{
		"call_id":          res.CallID,
		"billable_seconds": res.BillableSeconds,
		"coins":            res.CoinsCharged,
	}
	s.notifier.Publish(caller.ID, domain.EventCallEnded, ended)
	s.notifier.Publish(receiver.ID, domain.EventCallEnded, ended)
	s.notifier.Balances(caller.ID, res.CallerBalance, caller.WalletBalance)
	s.notifier.Balances(receiver.ID, receiver.CoinBalance, res.ReceiverBalance)
	return res, nil
}

// recordUnaffordable writes the insufficient_coins row after the settlement
// transaction rolled back, and returns the shortfall to the caller.
func (s *BillingService) recordUnaffordable(ctx context.Context, caller, receiver *models.User, in EndCallInput, rate, available int64) error {
	derr := domain.Insufficient("insufficient coins to pay for this call", rate, available)
	call := &models.CallHistory{
		CallerID:       caller.ID,
		ReceiverID:     receiver.ID,
		Duration:       in.Duration,
		CoinsPerSecond: rate,
		Status:         domain.CallStatusInsufficientCoins,
		CallType:       in.CallType,
		ErrorMessage:   derr.Message,
	}
	if err := s.calls.WithTx(s.db.WithContext(ctx)).Create(call); err != nil {
		return fmt.Errorf("record call: %w", err)
	}
	metrics.CallsSettled.WithLabelValues(domain.CallStatusInsufficientCoins).Inc()
	derr.Data["call_id"] = call.ID
	s.log.Warn("call settlement unaffordable",
		zap.Uint("caller_id", caller.ID),
		zap.Uint("receiver_id", receiver.ID),
		zap.Int64("duration", in.Duration),
		zap.Int64("available", available),
	)
	return derr
}

// History lists calls placed by callerID, newest first.
func (s *BillingService) History(callerID uint, limit, skip int) ([]models.CallHistory, int64, error) {
	return s.calls.ListByCaller(callerID, limit, skip)
}

// ReceivedHistory lists calls answered by receiverID, newest first.
func (s *BillingService) ReceivedHistory(receiverID uint, limit, skip int) ([]models.CallHistory, int64, error) {
	return s.calls.ListByReceiver(receiverID, limit, skip)
}

func (s *BillingService) Stats(callerID uint) (*models.CallStats, error) {
	return s.calls.StatsByCaller(callerID)
}
