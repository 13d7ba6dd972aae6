package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"coinmeet/internal/domain"
	"coinmeet/internal/models"
	"coinmeet/internal/repository"
	"coinmeet/pkg/cloudinary"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeUploader struct {
	uploads []string
	deleted []string
	err     error
}

func (f *fakeUploader) upload(folder, publicID string) (*cloudinary.UploadResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	id := folder + "/" + publicID
	f.uploads = append(f.uploads, id)
	return &cloudinary.UploadResult{URL: "https://cdn.example.com/" + id, PublicID: id}, nil
}

func (f *fakeUploader) UploadImage(_ context.Context, _ io.Reader, folder, publicID string) (*cloudinary.UploadResult, error) {
	return f.upload(folder, publicID)
}

func (f *fakeUploader) UploadVideo(_ context.Context, _ io.Reader, folder, publicID string) (*cloudinary.UploadResult, error) {
	res, err := f.upload(folder, publicID)
	if res != nil {
		res.ThumbnailURL = res.URL + ".jpg"
	}
	return res, err
}

func (f *fakeUploader) Delete(_ context.Context, publicID, _ string) error {
	f.deleted = append(f.deleted, publicID)
	return nil
}

func newProfileService(e *testEnv, up cloudinary.Client) *ProfileService {
	return NewProfileService(e.users, repository.NewMediaRepository(e.db), up, e.referrals, e.notifier, zap.NewNop())
}

func TestUploadLimitsImages(t *testing.T) {
	e := newTestEnv(t)
	up := &fakeUploader{}
	svc := newProfileService(e, up)
	female := e.createUser(t, domain.UserTypeFemale, nil)
	ctx := context.Background()

	for i := 0; i < domain.MaxProfileImages; i++ {
		m, err := svc.Upload(ctx, female.ID, domain.MediaTypeImage, strings.NewReader("img"))
		require.NoError(t, err)
		assert.True(t, strings.Contains(m.PublicID, "/img_"))
	}
	_, err := svc.Upload(ctx, female.ID, domain.MediaTypeImage, strings.NewReader("img"))
	assert.True(t, domain.IsKind(err, domain.KindValidation))

	v, err := svc.Upload(ctx, female.ID, domain.MediaTypeVideo, strings.NewReader("vid"))
	require.NoError(t, err)
	assert.NotEmpty(t, v.ThumbnailURL)

	list, err := svc.Media(female.ID)
	require.NoError(t, err)
	assert.Len(t, list, domain.MaxProfileImages+1)
	assert.Len(t, up.uploads, domain.MaxProfileImages+1)
}

func TestUploadRejectsMaleAndStorageErrors(t *testing.T) {
	e := newTestEnv(t)
	male := e.createUser(t, domain.UserTypeMale, nil)
	female := e.createUser(t, domain.UserTypeFemale, nil)

	_, err := newProfileService(e, &fakeUploader{}).Upload(context.Background(), male.ID, domain.MediaTypeImage, strings.NewReader("x"))
	assert.True(t, domain.IsKind(err, domain.KindForbidden))

	_, err = newProfileService(e, &fakeUploader{err: errors.New("boom")}).Upload(context.Background(), female.ID, domain.MediaTypeImage, strings.NewReader("x"))
	require.Error(t, err)
	assert.Equal(t, domain.KindInternal, domain.KindOf(err))
}

func TestCompleteProfilePaysReferral(t *testing.T) {
	e := newTestEnv(t)
	svc := newProfileService(e, &fakeUploader{})
	referrer := e.createUser(t, domain.UserTypeFemale, nil)
	female := e.createUser(t, domain.UserTypeFemale, func(u *models.User) {
		u.ReferredByID = &referrer.ID
		u.ReviewStatus = domain.ReviewStatusPending
	})
	ctx := context.Background()
	in := CompleteProfileInput{Name: "Meera", Age: 24, Bio: "hi"}

	_, err := svc.CompleteProfile(ctx, female.ID, in)
	assert.True(t, domain.IsKind(err, domain.KindValidation), "media required")

	_, err = svc.Upload(ctx, female.ID, domain.MediaTypeImage, strings.NewReader("img"))
	require.NoError(t, err)
	_, err = svc.Upload(ctx, female.ID, domain.MediaTypeVideo, strings.NewReader("vid"))
	require.NoError(t, err)

	_, err = svc.CompleteProfile(ctx, female.ID, CompleteProfileInput{Name: "Meera", Age: 17})
	assert.True(t, domain.IsKind(err, domain.KindValidation), "underage")

	res, err := svc.CompleteProfile(ctx, female.ID, in)
	require.NoError(t, err)
	assert.True(t, res.User.ProfileCompleted)
	assert.Equal(t, "Meera", res.User.Name)
	require.NotNil(t, res.ReferralAward)
	assert.Equal(t, int64(100), res.User.WalletBalance)
	assert.Equal(t, int64(100), e.reload(t, referrer.ID).WalletBalance)

	_, err = svc.CompleteProfile(ctx, female.ID, in)
	assert.True(t, domain.IsKind(err, domain.KindConflict))
}

func TestSetCallRateAndReview(t *testing.T) {
	e := newTestEnv(t)
	svc := newProfileService(e, nil)
	female := e.createUser(t, domain.UserTypeFemale, func(u *models.User) { u.ReviewStatus = domain.ReviewStatusPending })

	_, err := svc.SetCallRate(female.ID, 0)
	assert.True(t, domain.IsKind(err, domain.KindValidation))
	_, err = svc.SetCallRate(female.ID, domain.MaxCoinsPerSecond+1)
	assert.True(t, domain.IsKind(err, domain.KindValidation))
	u, err := svc.SetCallRate(female.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), u.CoinsPerSecond)

	_, err = svc.Review(context.Background(), female.ID, "maybe")
	assert.True(t, domain.IsKind(err, domain.KindValidation))
	u, err = svc.Review(context.Background(), female.ID, domain.ReviewStatusApproved)
	require.NoError(t, err)
	assert.Equal(t, domain.ReviewStatusApproved, e.reload(t, u.ID).ReviewStatus)

	inbox, err := e.notifier.Inbox(female.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, inbox.Items, 1)
	assert.Equal(t, domain.EventProfileReviewed, inbox.Items[0].Type)
	assert.Equal(t, int64(1), inbox.Unread)
}

func TestCompleteProfileRollsBackWhenReferralFails(t *testing.T) {
	e := newTestEnv(t)
	svc := newProfileService(e, &fakeUploader{})
	referrer := e.createUser(t, domain.UserTypeFemale, nil)
	female := e.createUser(t, domain.UserTypeFemale, func(u *models.User) {
		u.ReferredByID = &referrer.ID
		u.ReviewStatus = domain.ReviewStatusPending
	})
	ctx := context.Background()
	_, err := svc.Upload(ctx, female.ID, domain.MediaTypeImage, strings.NewReader("img"))
	require.NoError(t, err)
	_, err = svc.Upload(ctx, female.ID, domain.MediaTypeVideo, strings.NewReader("vid"))
	require.NoError(t, err)
	in := CompleteProfileInput{Name: "Asha", Age: 22}

	failing := e.failLedgerWrites(t)
	_, err = svc.CompleteProfile(ctx, female.ID, in)
	require.Error(t, err)
	got := e.reload(t, female.ID)
	assert.False(t, got.ProfileCompleted)
	assert.False(t, got.ReferralBonusAwarded)
	assert.Equal(t, int64(0), got.WalletBalance)

	*failing = false
	res, err := svc.CompleteProfile(ctx, female.ID, in)
	require.NoError(t, err)
	require.NotNil(t, res.ReferralAward)
	assert.True(t, res.User.ProfileCompleted)
	assert.Equal(t, int64(100), res.User.WalletBalance)
	assert.Equal(t, int64(100), e.reload(t, referrer.ID).WalletBalance)
}
