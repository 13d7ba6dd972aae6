package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"coinmeet/config"
	"coinmeet/internal/database"
	"coinmeet/internal/domain"
	"coinmeet/internal/models"
	"coinmeet/internal/repository"
	"coinmeet/internal/ws"
	"coinmeet/pkg/otp"
	"coinmeet/pkg/payout"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type testEnv struct {
	db          *gorm.DB
	cfg         *config.Config
	users       *repository.UserRepository
	follows     *repository.FollowRepository
	blocks      *repository.BlockRepository
	calls       *repository.CallRepository
	settings    *Settings
	ledger      *Ledger
	notifier    *Notifier
	referrals   *ReferralService
	accounts    *AccountService
	billing     *BillingService
	withdrawals *WithdrawalService
	kyc         *KYCService
	social      *SocialService
	catalog     *CatalogService
	userAdmin   *UserAdminService
	sent        *recordingSender
}

// recordingSender keeps the last code sent to each destination.
type recordingSender struct {
	codes map[string]string
}

func (r *recordingSender) Send(_ context.Context, destination, code string) error {
	r.codes[destination] = code
	return nil
}

var _ otp.Sender = (*recordingSender)(nil)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.AutoMigrate(db))
	return db
}

func testPlatform() config.PlatformConfig {
	return config.PlatformConfig{
		MinCallCoins:          60,
		CoinToRupeeRate:       10,
		MinWithdrawalAmount:   "500",
		ReferralBonus:         100,
		DefaultCoinsPerSecond: 2,
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)
	log := zap.NewNop()
	cfg := &config.Config{
		Server: config.ServerConfig{Env: "development"},
		JWT:    config.JWTConfig{AccessSecret: "test-secret", AccessExpiry: time.Hour, Issuer: "coinmeet-test"},
	}

	e := &testEnv{
		db:      db,
		cfg:     cfg,
		users:   repository.NewUserRepository(db),
		follows: repository.NewFollowRepository(db),
		blocks:  repository.NewBlockRepository(db),
		calls:   repository.NewCallRepository(db),
		sent:    &recordingSender{codes: map[string]string{}},
	}
	e.settings = NewSettings(repository.NewSettingRepository(db), log)
	require.NoError(t, e.settings.Load(testPlatform()))
	e.ledger = NewLedger(repository.NewLedgerRepository(db), log)
	e.notifier = NewNotifier(ws.NewHub(), nil, e.users, repository.NewNotificationRepository(db), log)
	e.referrals = NewReferralService(db, e.users, e.ledger, e.settings, e.notifier, log)
	e.accounts = NewAccountService(db, cfg, e.users, e.referrals, e.settings, e.sent, log)
	e.billing = NewBillingService(db, e.users, e.calls, e.follows, e.blocks, e.ledger, e.settings, e.notifier, log)
	e.withdrawals = NewWithdrawalService(db, e.users, repository.NewWithdrawalRepository(db), e.ledger, e.settings, payout.StubProvider{}, e.notifier, log)
	e.kyc = NewKYCService(db, e.users, repository.NewKYCRepository(db), e.notifier, log)
	e.social = NewSocialService(db, e.users, e.follows, e.blocks, log)
	e.catalog = NewCatalogService(db, e.users, repository.NewGiftRepository(db), repository.NewCoinPackageRepository(db), e.blocks, e.ledger, e.notifier, log)
	e.userAdmin = NewUserAdminService(db, e.users, e.ledger, e.notifier, log)
	return e
}

var userSeq int

// createUser inserts an active, verified user; mutate adjusts fields before insert.
func (e *testEnv) createUser(t *testing.T, userType string, mutate func(u *models.User)) *models.User {
	t.Helper()
	userSeq++
	code := fmt.Sprintf("CODE%04d", userSeq)
	u := &models.User{
		UserType:     userType,
		Email:        fmt.Sprintf("%s%d@example.com", userType, userSeq),
		FirstName:    fmt.Sprintf("%s%d", userType, userSeq),
		IsVerified:   true,
		IsActive:     true,
		KYCStatus:    domain.KYCStatusPending,
		ReviewStatus: domain.ReviewStatusApproved,
		ReferralCode: &code,
	}
	if mutate != nil {
		mutate(u)
	}
	require.NoError(t, e.users.Create(u))
	return u
}

func (e *testEnv) reload(t *testing.T, id uint) *models.User {
	t.Helper()
	u, err := e.users.GetByID(id)
	require.NoError(t, err)
	return u
}

func (e *testEnv) transactionsFor(t *testing.T, userID uint) []models.Transaction {
	t.Helper()
	list, _, err := e.ledger.List(repository.TransactionFilter{UserID: userID}, 1, 100)
	require.NoError(t, err)
	return list
}

// failLedgerWrites makes every insert into the transaction log fail while
// the returned flag is true.
func (e *testEnv) failLedgerWrites(t *testing.T) *bool {
	t.Helper()
	failing := true
	require.NoError(t, e.db.Callback().Create().Before("gorm:create").Register("fail_ledger_write", func(tx *gorm.DB) {
		if _, ok := tx.Statement.Dest.(*models.Transaction); ok && failing {
			_ = tx.AddError(errors.New("ledger write failed"))
		}
	}))
	return &failing
}
