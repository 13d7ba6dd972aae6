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

// ReferralAward describes a bonus that was actually paid.
type ReferralAward struct {
	RefereeID        uint  `json:"referee_id"`
	ReferrerID       uint  `json:"referrer_id"`
	Bonus            int64 `json:"bonus"`
	ReferrerCredited bool  `json:"referrer_credited"`
}

// ReferralService pays the one-time referral bonus.
type ReferralService struct {
	db       *gorm.DB
	users    *repository.UserRepository
	ledger   *Ledger
	settings *Settings
	notifier *Notifier
	log      *zap.Logger
}

func NewReferralService(
	db *gorm.DB,
	users *repository.UserRepository,
	ledger *Ledger,
	settings *Settings,
	notifier *Notifier,
	log *zap.Logger,
) *ReferralService {
	return &ReferralService{
		db:       db,
		users:    users,
		ledger:   ledger,
		settings: settings,
		notifier: notifier,
		log:      log,
	}
}

// ResolveReferrer validates a code entered at registration for a new user of
// type userType. Male users may only be referred by male users; female users
// by female users or agencies. An empty code returns nil.
func (s *ReferralService) ResolveReferrer(code, userType string) (*models.User, error) {
	if code == "" {
		return nil, nil
	}
	ref, err := s.users.GetByReferralCode(code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.Validation("invalid referral code")
		}
		return nil, fmt.Errorf("resolve referral code: %w", err)
	}
	switch userType {
	case domain.UserTypeMale:
		if ref.IsMale() {
			return ref, nil
		}
	case domain.UserTypeFemale:
		if ref.IsFemale() || ref.IsAgency() {
			return ref, nil
		}
	}
	return nil, domain.Validation("invalid referral code")
}

// Award pays the referral bonus for userID at most once. It returns nil
// without error when there is nothing to pay: no referrer, referrer gone,
// or already awarded.
func (s *ReferralService) Award(ctx context.Context, userID uint) (*ReferralAward, error) {
	return s.AwardWith(ctx, userID, nil)
}

// AwardWith runs trigger and the award in one transaction, so the update
// that earns the bonus and the bonus itself commit or fail together. A nil
// trigger awards alone.
func (s *ReferralService) AwardWith(ctx context.Context, userID uint, trigger func(users *repository.UserRepository) error) (*ReferralAward, error) {
	var award *ReferralAward
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if trigger != nil {
			if err := trigger(s.users.WithTx(tx)); err != nil {
				return err
			}
		}
		var err error
		award, err = s.awardTx(tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if award != nil {
		metrics.ReferralBonuses.Inc()
		s.log.Info("referral bonus awarded", zap.Uint("referee_id", award.RefereeID), zap.Uint("referrer_id", award.ReferrerID), zap.Int64("bonus", award.Bonus))
		data := map[string]interface{}{"bonus": award.Bonus}
		s.notifier.Notify(ctx, award.RefereeID, domain.EventBalanceUpdated, "Referral bonus", fmt.Sprintf("You received %d coins as a referral bonus", award.Bonus), data)
		if award.ReferrerCredited {
			s.notifier.Notify(ctx, award.ReferrerID, domain.EventBalanceUpdated, "Referral bonus", fmt.Sprintf("You received %d coins for inviting a friend", award.Bonus), data)
		}
	}
	return award, nil
}

func (s *ReferralService) awardTx(tx *gorm.DB, userID uint) (*ReferralAward, error) {
	users := s.users.WithTx(tx)
	u, err := users.GetByID(userID)
	if err != nil {
		return nil, lookupErr(err, "user")
	}
	if u.ReferredByID == nil || u.ReferralBonusAwarded {
		return nil, nil
	}
	referrer, err := users.GetByID(*u.ReferredByID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.log.Warn("referrer missing, bonus not awarded", zap.Uint("user_id", u.ID), zap.Uint("referrer_id", *u.ReferredByID))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load referrer: %w", err)
	}
	flipped, err := users.MarkReferralAwarded(u.ID)
	if err != nil {
		return nil, err
	}
	if !flipped {
		return nil, nil
	}

	bonus := s.settings.Current().ReferralBonus
	if bonus <= 0 {
		bonus = domain.FallbackReferralBonus
	}
	code := ""
	if referrer.ReferralCode != nil {
		code = *referrer.ReferralCode
	}
	if _, err := s.ledger.Post(tx, Entry{
		UserType:     u.UserType,
		UserID:       u.ID,
		Operation:    earningBalance(u.UserType),
		Action:       domain.ActionCredit,
		Amount:       bonus,
		Message:      fmt.Sprintf("Referral signup bonus using %s", code),
		CreatedBy:    referrer.ID,
		RelatedID:    &referrer.ID,
		RelatedModel: domain.RelatedUser,
		EarningType:  domain.EarningReferral,
	}); err != nil {
		return nil, err
	}
	award := &ReferralAward{RefereeID: u.ID, ReferrerID: referrer.ID, Bonus: bonus}

	// Agencies recruit but are not paid a peer bonus.
	if referrer.UserType != u.UserType {
		return award, nil
	}
	if _, err := s.ledger.Post(tx, Entry{
		UserType:     referrer.UserType,
		UserID:       referrer.ID,
		Operation:    earningBalance(referrer.UserType),
		Action:       domain.ActionCredit,
		Amount:       bonus,
		Message:      fmt.Sprintf("Referral bonus for inviting %s", u.DisplayName()),
		CreatedBy:    u.ID,
		RelatedID:    &u.ID,
		RelatedModel: domain.RelatedUser,
		EarningType:  domain.EarningReferral,
	}); err != nil {
		return nil, err
	}
	award.ReferrerCredited = true
	return award, nil
}

// ReferredUser is the public view of an account someone referred.
type ReferredUser struct {
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	UserType     string `json:"user_type"`
	BonusAwarded bool   `json:"bonus_awarded"`
}

type ReferralSummary struct {
	Code          string         `json:"referral_code"`
	Bonus         int64          `json:"bonus_per_referral"`
	TotalReferred int64          `json:"total_referred"`
	Referred      []ReferredUser `json:"referred"`
}

// Summary returns the caller's code and the accounts that signed up with it.
func (s *ReferralService) Summary(userID uint, limit, offset int) (*ReferralSummary, error) {
	u, err := s.users.GetByID(userID)
	if err != nil {
		return nil, lookupErr(err, "user")
	}
	users, total, err := s.users.ListReferred(userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list referred users: %w", err)
	}
	bonus := s.settings.Current().ReferralBonus
	if bonus <= 0 {
		bonus = domain.FallbackReferralBonus
	}
	out := &ReferralSummary{Bonus: bonus, TotalReferred: total, Referred: make([]ReferredUser, 0, len(users))}
	if u.ReferralCode != nil {
		out.Code = *u.ReferralCode
	}
	for i := range users {
		out.Referred = append(out.Referred, ReferredUser{
			ID:           users[i].ID,
			Name:         users[i].DisplayName(),
			UserType:     users[i].UserType,
			BonusAwarded: users[i].ReferralBonusAwarded,
		})
	}
	return out, nil
}
