package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"coinmeet/internal/domain"
	"coinmeet/internal/models"
	"coinmeet/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CreateGiftInput struct {
	Title     string
	Coin      int64
	ImageURL  string
	Published *bool
}

type CreatePackageInput struct {
	Title       string
	Coins       int64
	PriceRupees decimal.Decimal
}

type SendGiftResult struct {
	GiftID          uint  `json:"gift_id"`
	Coins           int64 `json:"coins"`
	SenderBalance   int64 `json:"sender_coin_balance"`
	ReceiverBalance int64 `json:"receiver_wallet_balance"`
}

// CatalogService owns gifts and coin packages and the balance moves they cause.
type CatalogService struct {
	db       *gorm.DB
	users    *repository.UserRepository
	gifts    *repository.GiftRepository
	packages *repository.CoinPackageRepository
	blocks   *repository.BlockRepository
	ledger   *Ledger
	notifier *Notifier
	log      *zap.Logger
}

func NewCatalogService(
	db *gorm.DB,
	users *repository.UserRepository,
	gifts *repository.GiftRepository,
	packages *repository.CoinPackageRepository,
	blocks *repository.BlockRepository,
	ledger *Ledger,
	notifier *Notifier,
	log *zap.Logger,
) *CatalogService {
	return &CatalogService{
		db:       db,
		users:    users,
		gifts:    gifts,
		packages: packages,
		blocks:   blocks,
		ledger:   ledger,
		notifier: notifier,
		log:      log,
	}
}

func (s *CatalogService) CreateGift(in CreateGiftInput) (*models.Gift, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, domain.Validation("title is required")
	}
	if in.Coin <= 0 {
		return nil, domain.Validation("coin must be positive")
	}
	published := true
	if in.Published != nil {
		published = *in.Published
	}
	g := &models.Gift{Title: title, Coin: in.Coin, ImageURL: in.ImageURL, Published: published}
	if err := s.gifts.Create(g); err != nil {
		return nil, fmt.Errorf("create gift: %w", err)
	}
	return g, nil
}

// Gifts lists gifts cheapest first. Users only see published ones.
func (s *CatalogService) Gifts(publishedOnly bool) ([]models.Gift, error) {
	return s.gifts.List(publishedOnly)
}

func (s *CatalogService) CreatePackage(in CreatePackageInput) (*models.CoinPackage, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, domain.Validation("title is required")
	}
	if in.Coins <= 0 {
		return nil, domain.Validation("coins must be positive")
	}
	if in.PriceRupees.IsNegative() {
		return nil, domain.Validation("price_rupees cannot be negative")
	}
	p := &models.CoinPackage{Title: title, Coins: in.Coins, PriceRupees: in.PriceRupees.Round(2), Active: true}
	if err := s.packages.Create(p); err != nil {
		return nil, fmt.Errorf("create coin package: %w", err)
	}
	return p, nil
}

func (s *CatalogService) Packages() ([]models.CoinPackage, error) {
	return s.packages.ListActive()
}

// SendGift moves the gift price from the sender's coins to the receiver's wallet.
func (s *CatalogService) SendGift(ctx context.Context, senderID, receiverID, giftID uint) (*SendGiftResult, error) {
	sender, err := s.users.GetByID(senderID)
	if err != nil {
		return nil, lookupErr(err, "user")
	}
	if !sender.IsMale() {
		return nil, domain.Forbidden("only male users can send gifts")
	}
	receiver, err := s.users.GetByID(receiverID)
	if err != nil {
		return nil, lookupErr(err, "female user")
	}
	if !receiver.IsFemale() {
		return nil, domain.NotFound("female user not found")
	}
	gift, err := s.gifts.GetByID(giftID)
	if err != nil {
		return nil, lookupErr(err, "gift")
	}
	if !gift.Published {
		return nil, domain.NotFound("gift not found")
	}
	blocked, err := s.blocks.IsBlockedEither(senderID, receiverID)
	if err != nil {
		return nil, fmt.Errorf("check block: %w", err)
	}
	if blocked {
		return nil, domain.Forbidden("cannot send gifts to this user")
	}

	res := &SendGiftResult{GiftID: gift.ID, Coins: gift.Coin}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		debit, err := s.ledger.Post(tx, Entry{
			UserType:     domain.UserTypeMale,
			UserID:       sender.ID,
			Operation:    domain.OperationCoin,
			Action:       domain.ActionDebit,
			Amount:       gift.Coin,
			Message:      fmt.Sprintf("Sent %s to %s", gift.Title, receiver.DisplayName()),
			RelatedID:    &gift.ID,
			RelatedModel: domain.RelatedGift,
			EarningType:  domain.EarningGift,
		})
		if err != nil {
			return err
		}
		credit, err := s.ledger.Post(tx, Entry{
			UserType:     domain.UserTypeFemale,
			UserID:       receiver.ID,
			Operation:    domain.OperationWallet,
			Action:       domain.ActionCredit,
			Amount:       gift.Coin,
			Message:      fmt.Sprintf("Received %s from %s", gift.Title, sender.DisplayName()),
			CreatedBy:    sender.ID,
			RelatedID:    &gift.ID,
			RelatedModel: domain.RelatedGift,
			EarningType:  domain.EarningGift,
		})
		if err != nil {
			return err
		}
		res.SenderBalance = debit.BalanceAfter
		res.ReceiverBalance = credit.BalanceAfter
		return nil
	})
	if errors.Is(err, repository.ErrInsufficientBalance) {
		return nil, domain.Insufficient("insufficient coins to send this gift", gift.Coin, sender.CoinBalance)
	}
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, receiver.ID, domain.EventGiftReceived, "New gift",
		fmt.Sprintf("%s sent you %s", sender.DisplayName(), gift.Title),
		map[string]interface{}{"gift_id": gift.ID, "sender_id": sender.ID, "coins": gift.Coin})
	s.notifier.Balances(sender.ID, res.SenderBalance, sender.WalletBalance)
	s.notifier.Balances(receiver.ID, receiver.CoinBalance, res.ReceiverBalance)
	return res, nil
}

// BuyCoins credits a package to a male user. Payment capture happens before
// this is called.
func (s *CatalogService) BuyCoins(ctx context.Context, userID, packageID uint) (*models.Transaction, error) {
	u, err := s.users.GetByID(userID)
	if err != nil {
		return nil, lookupErr(err, "user")
	}
	if !u.IsMale() {
		return nil, domain.Forbidden("only male users can buy coins")
	}
	pkg, err := s.packages.GetByID(packageID)
	if err != nil {
		return nil, lookupErr(err, "coin package")
	}
	if !pkg.Active {
		return nil, domain.NotFound("coin package not found")
	}
	var t *models.Transaction
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, err = s.ledger.Post(tx, Entry{
			UserType:     domain.UserTypeMale,
			UserID:       u.ID,
			Operation:    domain.OperationCoin,
			Action:       domain.ActionCredit,
			Amount:       pkg.Coins,
			Message:      fmt.Sprintf("Purchased %s (%d coins)", pkg.Title, pkg.Coins),
			RelatedID:    &pkg.ID,
			RelatedModel: domain.RelatedCoinPackage,
			EarningType:  domain.EarningPurchase,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.notifier.Balances(u.ID, t.BalanceAfter, u.WalletBalance)
	return t, nil
}
