package service

import (
	"context"
	"testing"

	"coinmeet/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKYCSubmitAndApproveBank(t *testing.T) {
	e := newTestEnv(t)
	female := e.createUser(t, domain.UserTypeFemale, nil)
	admin := e.createUser(t, domain.UserTypeAdmin, nil)
	ctx := context.Background()

	k, err := e.kyc.Submit(ctx, SubmitKYCInput{
		UserType:      domain.UserTypeFemale,
		UserID:        female.ID,
		Method:        domain.KYCMethodAccountDetails,
		AccountName:   "Asha Rao",
		AccountNumber: "001122334455",
		IFSC:          "hdfc0001234",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.KYCStatusPending, k.Status)
	assert.Equal(t, "HDFC0001234", k.IFSC)

	_, err = e.kyc.Submit(ctx, SubmitKYCInput{UserType: domain.UserTypeFemale, UserID: female.ID, Method: domain.KYCMethodUPI, UPIID: "asha@upi"})
	assert.True(t, domain.IsKind(err, domain.KindConflict))

	reviewed, err := e.kyc.Review(ctx, k.ID, domain.KYCStatusApproved, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.KYCStatusApproved, reviewed.Status)
	require.NotNil(t, reviewed.VerifiedBy)
	assert.Equal(t, admin.ID, *reviewed.VerifiedBy)

	u := e.reload(t, female.ID)
	assert.Equal(t, domain.KYCStatusApproved, u.KYCStatus)
	assert.Equal(t, "Asha Rao", u.KYCBank.Name)
	assert.Equal(t, "001122334455", u.KYCBank.AccountNumber)
	assert.Equal(t, "HDFC0001234", u.KYCBank.IFSC)
	assert.True(t, u.HasVerifiedPayout(domain.PayoutMethodBank))
	assert.False(t, u.HasVerifiedPayout(domain.PayoutMethodUPI))

	_, err = e.kyc.Review(ctx, k.ID, domain.KYCStatusRejected, admin.ID)
	assert.True(t, domain.IsKind(err, domain.KindState))

	status, err := e.kyc.Status(domain.UserTypeFemale, female.ID)
	require.NoError(t, err)
	assert.Equal(t, k.ID, status.ID)
}

func TestKYCRejectKeepsEarlierApproval(t *testing.T) {
	e := newTestEnv(t)
	agency := e.createUser(t, domain.UserTypeAgency, nil)
	ctx := context.Background()

	first, err := e.kyc.Submit(ctx, SubmitKYCInput{UserType: domain.UserTypeAgency, UserID: agency.ID, Method: domain.KYCMethodUPI, UPIID: "agency@upi"})
	require.NoError(t, err)
	_, err = e.kyc.Review(ctx, first.ID, domain.KYCStatusApproved, 1)
	require.NoError(t, err)

	second, err := e.kyc.Submit(ctx, SubmitKYCInput{UserType: domain.UserTypeAgency, UserID: agency.ID, Method: domain.KYCMethodUPI, UPIID: "other@upi"})
	require.NoError(t, err)
	_, err = e.kyc.Review(ctx, second.ID, domain.KYCStatusRejected, 1)
	require.NoError(t, err)

	u := e.reload(t, agency.ID)
	assert.Equal(t, domain.KYCStatusApproved, u.KYCStatus)
	assert.Equal(t, "agency@upi", u.KYCUPI.UPIID)
	assert.True(t, u.HasVerifiedPayout(domain.PayoutMethodUPI))
}

func TestKYCSubmitValidation(t *testing.T) {
	e := newTestEnv(t)
	female := e.createUser(t, domain.UserTypeFemale, nil)
	ctx := context.Background()

	_, err := e.kyc.Submit(ctx, SubmitKYCInput{UserType: domain.UserTypeMale, UserID: female.ID, Method: domain.KYCMethodUPI, UPIID: "x@upi"})
	assert.True(t, domain.IsKind(err, domain.KindForbidden))
	_, err = e.kyc.Submit(ctx, SubmitKYCInput{UserType: domain.UserTypeFemale, UserID: female.ID, Method: domain.KYCMethodAccountDetails, AccountName: "A"})
	assert.True(t, domain.IsKind(err, domain.KindValidation))
	_, err = e.kyc.Submit(ctx, SubmitKYCInput{UserType: domain.UserTypeFemale, UserID: female.ID, Method: "passport"})
	assert.True(t, domain.IsKind(err, domain.KindValidation))

	status, err := e.kyc.Status(domain.UserTypeFemale, female.ID)
	require.NoError(t, err)
	assert.Nil(t, status)
}
