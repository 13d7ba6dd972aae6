package service

import (
	"context"
	"testing"

	"coinmeet/internal/domain"
	"coinmeet/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReferralAwardPaysOnce(t *testing.T) {
	e := newTestEnv(t)
	referrer := e.createUser(t, domain.UserTypeMale, nil)
	referee := e.createUser(t, domain.UserTypeMale, func(u *models.User) { u.ReferredByID = &referrer.ID })
	ctx := context.Background()

	award, err := e.referrals.Award(ctx, referee.ID)
	require.NoError(t, err)
	require.NotNil(t, award)
	assert.Equal(t, int64(100), award.Bonus)
	assert.True(t, award.ReferrerCredited)

	again, err := e.referrals.Award(ctx, referee.ID)
	require.NoError(t, err)
	assert.Nil(t, again)

	assert.Equal(t, int64(100), e.reload(t, referee.ID).CoinBalance)
	assert.Equal(t, int64(100), e.reload(t, referrer.ID).CoinBalance)
	assert.True(t, e.reload(t, referee.ID).ReferralBonusAwarded)

	txs := e.transactionsFor(t, referee.ID)
	require.Len(t, txs, 1)
	assert.Equal(t, domain.EarningReferral, txs[0].EarningType)
	assert.Contains(t, txs[0].Message, *referrer.ReferralCode)
}

func TestReferralAwardAgencyReferrerNotCredited(t *testing.T) {
	e := newTestEnv(t)
	agency := e.createUser(t, domain.UserTypeAgency, nil)
	female := e.createUser(t, domain.UserTypeFemale, func(u *models.User) { u.ReferredByID = &agency.ID })

	award, err := e.referrals.Award(context.Background(), female.ID)
	require.NoError(t, err)
	require.NotNil(t, award)
	assert.False(t, award.ReferrerCredited)

	assert.Equal(t, int64(100), e.reload(t, female.ID).WalletBalance)
	got := e.reload(t, agency.ID)
	assert.Zero(t, got.CoinBalance)
	assert.Zero(t, got.WalletBalance)
	assert.Empty(t, e.transactionsFor(t, agency.ID))
}

func TestReferralAwardUsesConfiguredBonus(t *testing.T) {
	e := newTestEnv(t)
	_, err := e.settings.Update(domain.SettingReferralBonus, "250", 1)
	require.NoError(t, err)
	referrer := e.createUser(t, domain.UserTypeFemale, nil)
	referee := e.createUser(t, domain.UserTypeFemale, func(u *models.User) { u.ReferredByID = &referrer.ID })

	award, err := e.referrals.Award(context.Background(), referee.ID)
	require.NoError(t, err)
	require.NotNil(t, award)
	assert.Equal(t, int64(250), award.Bonus)
	assert.Equal(t, int64(250), e.reload(t, referrer.ID).WalletBalance)
}

func TestReferralAwardWithoutReferrer(t *testing.T) {
	e := newTestEnv(t)
	u := e.createUser(t, domain.UserTypeMale, nil)
	award, err := e.referrals.Award(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Nil(t, award)
	assert.False(t, e.reload(t, u.ID).ReferralBonusAwarded)
}

func TestResolveReferrer(t *testing.T) {
	e := newTestEnv(t)
	male := e.createUser(t, domain.UserTypeMale, nil)
	female := e.createUser(t, domain.UserTypeFemale, nil)
	agency := e.createUser(t, domain.UserTypeAgency, nil)

	ref, err := e.referrals.ResolveReferrer("", domain.UserTypeMale)
	require.NoError(t, err)
	assert.Nil(t, ref)

	ref, err = e.referrals.ResolveReferrer(*male.ReferralCode, domain.UserTypeMale)
	require.NoError(t, err)
	assert.Equal(t, male.ID, ref.ID)

	ref, err = e.referrals.ResolveReferrer(*agency.ReferralCode, domain.UserTypeFemale)
	require.NoError(t, err)
	assert.Equal(t, agency.ID, ref.ID)

	_, err = e.referrals.ResolveReferrer(*female.ReferralCode, domain.UserTypeMale)
	assert.True(t, domain.IsKind(err, domain.KindValidation))
	_, err = e.referrals.ResolveReferrer(*male.ReferralCode, domain.UserTypeFemale)
	assert.True(t, domain.IsKind(err, domain.KindValidation))
	_, err = e.referrals.ResolveReferrer("NOPE0000", domain.UserTypeMale)
	assert.True(t, domain.IsKind(err, domain.KindValidation))
}

func TestReferralSummary(t *testing.T) {
	e := newTestEnv(t)
	referrer := e.createUser(t, domain.UserTypeMale, nil)
	for i := 0; i < 3; i++ {
		e.createUser(t, domain.UserTypeMale, func(u *models.User) { u.ReferredByID = &referrer.ID })
	}

	sum, err := e.referrals.Summary(referrer.ID, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, *referrer.ReferralCode, sum.Code)
	assert.Equal(t, int64(3), sum.TotalReferred)
	assert.Len(t, sum.Referred, 2)
	assert.Equal(t, int64(100), sum.Bonus)
}
