package service

import (
	"fmt"
	"strconv"
	"sync"

	"coinmeet/config"
	"coinmeet/internal/domain"
	"coinmeet/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PlatformSettings is an immutable snapshot of the admin-tunable values.
type PlatformSettings struct {
	MinCallCoins          int64           `json:"min_call_coins"`
	CoinToRupeeRate       int64           `json:"coin_to_rupee_rate"` // coins per rupee
	MinWithdrawalAmount   decimal.Decimal `json:"min_withdrawal_amount"`
	ReferralBonus         int64           `json:"referral_bonus"`
	DefaultCoinsPerSecond int64           `json:"default_coins_per_second"`
}

// Settings is loaded once at startup and injected into every component that
// needs a tunable. Updates persist first and then swap the snapshot.
type Settings struct {
	repo *repository.SettingRepository
	log  *zap.Logger

	mu  sync.RWMutex
	cur PlatformSettings
}

func NewSettings(repo *repository.SettingRepository, log *zap.Logger) *Settings {
	return &Settings{repo: repo, log: log}
}

// Load seeds missing keys from defaults and reads the persisted values.
func (s *Settings) Load(defaults config.PlatformConfig) error {
	seed := map[string]string{
		domain.SettingMinCallCoins:          strconv.FormatInt(defaults.MinCallCoins, 10),
		domain.SettingCoinToRupeeRate:       strconv.FormatInt(defaults.CoinToRupeeRate, 10),
		domain.SettingMinWithdrawalAmount:   defaults.MinWithdrawalAmount,
		domain.SettingReferralBonus:         strconv.FormatInt(defaults.ReferralBonus, 10),
		domain.SettingDefaultCoinsPerSecond: strconv.FormatInt(defaults.DefaultCoinsPerSecond, 10),
	}
	seeded, err := s.repo.InsertMissing(seed)
	if err != nil {
		return fmt.Errorf("seed settings: %w", err)
	}
	if seeded > 0 {
		s.log.Info("seeded platform settings", zap.Int64("count", seeded))
	}
	stored, err := s.repo.Values()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	next := PlatformSettings{
		MinCallCoins:          defaults.MinCallCoins,
		CoinToRupeeRate:       defaults.CoinToRupeeRate,
		ReferralBonus:         defaults.ReferralBonus,
		DefaultCoinsPerSecond: defaults.DefaultCoinsPerSecond,
	}
	if d, err := decimal.NewFromString(defaults.MinWithdrawalAmount); err == nil {
		next.MinWithdrawalAmount = d
	}
	for key, value := range stored {
		if err := apply(&next, key, value); err != nil {
			s.log.Warn("ignoring invalid setting", zap.String("key", key), zap.String("value", value), zap.Error(err))
		}
	}
	s.mu.Lock()
	s.cur = next
	s.mu.Unlock()
	return nil
}

func (s *Settings) Current() PlatformSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// Update validates value, persists it and publishes the new snapshot.
func (s *Settings) Update(key, value string, adminID uint) (PlatformSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.cur
	if err := apply(&next, key, value); err != nil {
		return s.cur, err
	}
	if err := s.repo.Upsert(key, value, &adminID); err != nil {
		return s.cur, fmt.Errorf("persist setting %s: %w", key, err)
	}
	s.cur = next
	s.log.Info("setting updated", zap.String("key", key), zap.String("value", value), zap.Uint("admin_id", adminID))
	return next, nil
}

func apply(p *PlatformSettings, key, value string) error {
	switch key {
	case domain.SettingMinWithdrawalAmount:
		d, err := decimal.NewFromString(value)
		if err != nil || d.IsNegative() {
			return domain.Validation("min_withdrawal_amount must be a non-negative number")
		}
		p.MinWithdrawalAmount = d.Round(2)
		return nil
	case domain.SettingMinCallCoins, domain.SettingCoinToRupeeRate, domain.SettingReferralBonus, domain.SettingDefaultCoinsPerSecond:
	default:
		return domain.Validation("unknown setting %q", key)
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return domain.Validation("%s must be an integer", key)
	}
	switch key {
	case domain.SettingMinCallCoins:
		if n < 0 {
			return domain.Validation("min_call_coins must be >= 0")
		}
		p.MinCallCoins = n
	case domain.SettingCoinToRupeeRate:
		if n <= 0 {
			return domain.Validation("coin_to_rupee_rate must be > 0")
		}
		p.CoinToRupeeRate = n
	case domain.SettingReferralBonus:
		if n < 0 {
			return domain.Validation("referral_bonus must be >= 0")
		}
		p.ReferralBonus = n
	case domain.SettingDefaultCoinsPerSecond:
		if n < 1 || n > domain.MaxCoinsPerSecond {
			return domain.Validation("default_coins_per_second must be between 1 and %d", domain.MaxCoinsPerSecond)
		}
		p.DefaultCoinsPerSecond = n
	}
	return nil
}
