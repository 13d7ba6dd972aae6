package repository

import (
	"testing"

	"coinmeet/internal/domain"
	"coinmeet/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Transaction{},
		&models.WithdrawalRequest{},
		&models.Follow{},
		&models.SystemSetting{},
		&models.Notification{},
	))
	return db
}

func TestLedgerDebitIsConditional(t *testing.T) {
	db := newTestDB(t)
	u := &models.User{UserType: domain.UserTypeMale, Email: "m@example.com", CoinBalance: 100}
	require.NoError(t, db.Create(u).Error)
	repo := NewLedgerRepository(db)

	after, err := repo.Debit(u.ID, domain.OperationCoin, 60)
	require.NoError(t, err)
	assert.Equal(t, int64(40), after)

	_, err = repo.Debit(u.ID, domain.OperationCoin, 41)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	after, err = repo.Debit(u.ID, domain.OperationCoin, 40)
	require.NoError(t, err)
	assert.Zero(t, after)

	after, err = repo.Credit(u.ID, domain.OperationWallet, 25)
	require.NoError(t, err)
	assert.Equal(t, int64(25), after)

	_, err = repo.Credit(9999, domain.OperationCoin, 1)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	_, err = repo.Debit(u.ID, "gems", 1)
	assert.Error(t, err)
}

func TestTransactionFilter(t *testing.T) {
	db := newTestDB(t)
	repo := NewLedgerRepository(db)
	for _, tx := range []models.Transaction{
		{UserType: domain.UserTypeMale, UserID: 1, OperationType: domain.OperationCoin, Action: domain.ActionDebit, Amount: 10, CreatedBy: 1},
		{UserType: domain.UserTypeMale, UserID: 1, OperationType: domain.OperationCoin, Action: domain.ActionCredit, Amount: 20, CreatedBy: 1},
		{UserType: domain.UserTypeFemale, UserID: 2, OperationType: domain.OperationWallet, Action: domain.ActionCredit, Amount: 10, CreatedBy: 1},
	} {
		require.NoError(t, repo.Record(&tx))
	}

	list, total, err := repo.List(TransactionFilter{UserType: domain.UserTypeMale, Action: domain.ActionCredit}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, int64(20), list[0].Amount)

	_, total, err = repo.List(TransactionFilter{}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
}

func TestMarkReferralAwardedFlipsOnce(t *testing.T) {
	db := newTestDB(t)
	u := &models.User{UserType: domain.UserTypeMale, Email: "r@example.com"}
	require.NoError(t, db.Create(u).Error)
	users := NewUserRepository(db)

	ok, err := users.MarkReferralAwarded(u.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = users.MarkReferralAwarded(u.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWithdrawalTransitionFromPending(t *testing.T) {
	db := newTestDB(t)
	repo := NewWithdrawalRepository(db)
	w := &models.WithdrawalRequest{UserType: domain.UserTypeFemale, UserID: 1, CoinsRequested: 5000, PayoutMethod: domain.PayoutMethodUPI, Status: domain.WithdrawalPending}
	require.NoError(t, repo.Create(w))

	sum, err := repo.SumPending(domain.UserTypeFemale, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), sum)

	ok, err := repo.TransitionFromPending(w.ID, map[string]interface{}{"status": domain.WithdrawalApproved})
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.TransitionFromPending(w.ID, map[string]interface{}{"status": domain.WithdrawalRejected})
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.GetByID(w.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawalApproved, got.Status)
}

func TestWithdrawalProcessingStillLocksCoins(t *testing.T) {
	db := newTestDB(t)
	repo := NewWithdrawalRepository(db)
	w := &models.WithdrawalRequest{UserType: domain.UserTypeFemale, UserID: 2, CoinsRequested: 700, PayoutMethod: domain.PayoutMethodBank, Status: domain.WithdrawalPending}
	require.NoError(t, repo.Create(w))

	ok, err := repo.TransitionFromPending(w.ID, map[string]interface{}{"status": domain.WithdrawalProcessing})
	require.NoError(t, err)
	require.True(t, ok)
	sum, err := repo.SumPending(domain.UserTypeFemale, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(700), sum)

	ok, err = repo.Transition(w.ID, domain.WithdrawalPending, map[string]interface{}{"status": domain.WithdrawalApproved})
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = repo.Transition(w.ID, domain.WithdrawalProcessing, map[string]interface{}{"status": domain.WithdrawalApproved, "payout_ref": "pout_1"})
	require.NoError(t, err)
	assert.True(t, ok)
	sum, err = repo.SumPending(domain.UserTypeFemale, 2)
	require.NoError(t, err)
	assert.Zero(t, sum)
}

func TestFollowMutualAndSettingsUpsert(t *testing.T) {
	db := newTestDB(t)
	follows := NewFollowRepository(db)
	require.NoError(t, follows.Add(1, 2))
	require.NoError(t, follows.Add(1, 2))
	mutual, err := follows.IsMutual(1, 2)
	require.NoError(t, err)
	assert.False(t, mutual)
	require.NoError(t, follows.Add(2, 1))
	mutual, err = follows.IsMutual(1, 2)
	require.NoError(t, err)
	assert.True(t, mutual)

	settings := NewSettingRepository(db)
	n, err := settings.InsertMissing(map[string]string{"min_call_coins": "60", "referral_bonus": "50"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	_, err = settings.InsertMissing(map[string]string{"min_call_coins": "99"})
	require.NoError(t, err)
	v, err := settings.Value("min_call_coins")
	require.NoError(t, err)
	assert.Equal(t, "60", v)

	admin := uint(1)
	require.NoError(t, settings.Upsert("min_call_coins", "120", &admin))
	all, err := settings.Values()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"min_call_coins": "120", "referral_bonus": "50"}, all)
}

func TestNotificationMarkRead(t *testing.T) {
	db := newTestDB(t)
	repo := NewNotificationRepository(db)
	for _, typ := range []string{"a", "b", "c"} {
		require.NoError(t, repo.Create(&models.Notification{UserID: 5, Type: typ}))
	}
	require.NoError(t, repo.Create(&models.Notification{UserID: 6, Type: "other"}))

	list, unread, err := repo.ListByUserID(5, 10, 0)
	require.NoError(t, err)
	assert.Len(t, list, 3)
	assert.Equal(t, int64(3), unread)

	n, err := repo.MarkRead(list[0].ID, 6)
	require.NoError(t, err)
	assert.Zero(t, n, "not the owner")

	n, err = repo.MarkRead(0, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	_, unread, err = repo.ListByUserID(6, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)
}

func TestClearFCMTokenKeepsNewerToken(t *testing.T) {
	db := newTestDB(t)
	u := &models.User{UserType: domain.UserTypeMale, Email: "fcm@example.com", FCMToken: "new"}
	require.NoError(t, db.Create(u).Error)
	repo := NewUserRepository(db)

	require.NoError(t, repo.ClearFCMToken(u.ID, "old"))
	got, err := repo.GetByID(u.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", got.FCMToken)

	require.NoError(t, repo.ClearFCMToken(u.ID, "new"))
	got, err = repo.GetByID(u.ID)
	require.NoError(t, err)
	assert.Empty(t, got.FCMToken)
}
