package service

import (
	"context"
	"strings"
	"testing"

	"coinmeet/internal/auth"
	"coinmeet/internal/domain"
	"coinmeet/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestMaleRegistrationFlow(t *testing.T) {
	e := newTestEnv(t)
	referrer := e.createUser(t, domain.UserTypeMale, nil)
	ctx := context.Background()

	res, err := e.accounts.Register(ctx, RegisterInput{
		UserType:     domain.UserTypeMale,
		Email:        " Ravi@Example.com ",
		Password:     "secret1",
		FirstName:    "Ravi",
		ReferralCode: *referrer.ReferralCode,
	})
	require.NoError(t, err)
	require.Len(t, res.OTP, 4)
	assert.Equal(t, res.OTP, e.sent.codes["ravi@example.com"])
	assert.False(t, res.User.IsVerified)
	require.NotNil(t, res.User.ReferralCode)

	_, err = e.accounts.VerifyOTP(ctx, domain.UserTypeMale, "ravi@example.com", "xxxx")
	assert.True(t, domain.IsKind(err, domain.KindValidation))

	verified, err := e.accounts.VerifyOTP(ctx, domain.UserTypeMale, "ravi@example.com", res.OTP)
	require.NoError(t, err)
	assert.True(t, verified.User.IsVerified)
	assert.True(t, verified.User.IsActive)
	require.NotNil(t, verified.ReferralAward)
	assert.Equal(t, int64(100), verified.User.CoinBalance)

	claims, err := auth.ParseAccessToken(&e.cfg.JWT, verified.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, verified.User.ID, claims.UserID)
	assert.Equal(t, domain.UserTypeMale, claims.UserType)

	_, err = e.accounts.Register(ctx, RegisterInput{UserType: domain.UserTypeMale, Email: "ravi@example.com", Password: "secret1", FirstName: "Ravi"})
	assert.True(t, domain.IsKind(err, domain.KindConflict))

	_, err = e.accounts.VerifyOTP(ctx, domain.UserTypeMale, "ravi@example.com", res.OTP)
	assert.True(t, domain.IsKind(err, domain.KindState))
}

func TestLoginOTP(t *testing.T) {
	e := newTestEnv(t)
	u := e.createUser(t, domain.UserTypeMale, nil)
	ctx := context.Background()

	res, err := e.accounts.Login(ctx, domain.UserTypeMale, u.Email)
	require.NoError(t, err)
	require.NotEmpty(t, res.OTP)
	assert.Nil(t, res.User)

	out, err := e.accounts.VerifyLoginOTP(ctx, domain.UserTypeMale, u.Email, res.OTP)
	require.NoError(t, err)
	assert.NotEmpty(t, out.AccessToken)

	// The code is single use.
	_, err = e.accounts.VerifyLoginOTP(ctx, domain.UserTypeMale, u.Email, res.OTP)
	assert.True(t, domain.IsKind(err, domain.KindValidation))
}

func TestFemaleLoginRequiresApprovedReview(t *testing.T) {
	e := newTestEnv(t)
	pending := e.createUser(t, domain.UserTypeFemale, func(u *models.User) { u.ReviewStatus = domain.ReviewStatusPending })

	_, err := e.accounts.Login(context.Background(), domain.UserTypeFemale, pending.Email)
	assert.True(t, domain.IsKind(err, domain.KindForbidden))

	_, err = e.accounts.Login(context.Background(), domain.UserTypeFemale, "nobody@example.com")
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
}

func TestRegisterValidation(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	for name, in := range map[string]RegisterInput{
		"bad email":         {UserType: domain.UserTypeMale, Email: "nope", Password: "secret1", FirstName: "A"},
		"short password":    {UserType: domain.UserTypeMale, Email: "a@example.com", Password: "123", FirstName: "A"},
		"female no mobile":  {UserType: domain.UserTypeFemale, Email: "b@example.com"},
		"agency no names":   {UserType: domain.UserTypeAgency, Email: "c@example.com", MobileNumber: "9000000000"},
		"unknown user type": {UserType: "robot", Email: "d@example.com"},
		"bad referral code": {UserType: domain.UserTypeMale, Email: "e@example.com", Password: "secret1", FirstName: "E", ReferralCode: "MISSING1"},
	} {
		_, err := e.accounts.Register(ctx, in)
		assert.True(t, domain.IsKind(err, domain.KindValidation), name)
	}
}

func TestFemaleOTPGoesToMobile(t *testing.T) {
	e := newTestEnv(t)
	res, err := e.accounts.Register(context.Background(), RegisterInput{
		UserType:     domain.UserTypeFemale,
		Email:        "meera@example.com",
		MobileNumber: "9876543210",
	})
	require.NoError(t, err)
	assert.Equal(t, res.OTP, e.sent.codes["9876543210"])
}

func TestBalanceInRupees(t *testing.T) {
	e := newTestEnv(t)
	u := e.createUser(t, domain.UserTypeFemale, func(u *models.User) { u.WalletBalance = 1234 })

	b, err := e.accounts.Balance(domain.UserTypeFemale, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "123.40", b.WalletInRupees.StringFixed(2))
	assert.Equal(t, int64(10), b.CoinToRupeeRate)

	_, err = e.accounts.Balance(domain.UserTypeMale, u.ID)
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
}

func TestEmailLookupIgnoresCaseAndSpace(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	res, err := e.accounts.Register(ctx, RegisterInput{UserType: domain.UserTypeMale, Email: "kiran@example.com", Password: "secret1", FirstName: "Kiran"})
	require.NoError(t, err)

	verified, err := e.accounts.VerifyOTP(ctx, domain.UserTypeMale, "  KIRAN@Example.COM", res.OTP)
	require.NoError(t, err)
	assert.Equal(t, "kiran@example.com", verified.User.Email)

	login, err := e.accounts.Login(ctx, domain.UserTypeMale, "Kiran@EXAMPLE.com ")
	require.NoError(t, err)
	_, err = e.accounts.VerifyLoginOTP(ctx, domain.UserTypeMale, "kiran@example.COM", login.OTP)
	require.NoError(t, err)

	hash, err := bcrypt.GenerateFromPassword([]byte("admin-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	admin := e.createUser(t, domain.UserTypeAdmin, func(u *models.User) { u.PasswordHash = string(hash) })
	out, err := e.accounts.AdminLogin(" "+strings.ToUpper(admin.Email)+" ", "admin-pass")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, out.User.ID)
}

func TestVerifyOTPRollsBackWhenReferralFails(t *testing.T) {
	e := newTestEnv(t)
	referrer := e.createUser(t, domain.UserTypeMale, nil)
	ctx := context.Background()
	res, err := e.accounts.Register(ctx, RegisterInput{UserType: domain.UserTypeMale, Email: "arun@example.com", Password: "secret1", FirstName: "Arun", ReferralCode: *referrer.ReferralCode})
	require.NoError(t, err)

	failing := e.failLedgerWrites(t)
	_, err = e.accounts.VerifyOTP(ctx, domain.UserTypeMale, "arun@example.com", res.OTP)
	require.Error(t, err)
	got := e.reload(t, res.User.ID)
	assert.False(t, got.IsVerified)
	assert.False(t, got.ReferralBonusAwarded)
	assert.Equal(t, int64(0), got.CoinBalance)

	// The code was not consumed, so the retry activates and pays.
	*failing = false
	verified, err := e.accounts.VerifyOTP(ctx, domain.UserTypeMale, "arun@example.com", res.OTP)
	require.NoError(t, err)
	require.NotNil(t, verified.ReferralAward)
	assert.True(t, verified.User.IsVerified)
	assert.Equal(t, int64(100), verified.User.CoinBalance)
	assert.Equal(t, int64(100), e.reload(t, referrer.ID).CoinBalance)
}
