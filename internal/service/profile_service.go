package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"coinmeet/internal/domain"
	"coinmeet/internal/models"
	"coinmeet/internal/repository"
	"coinmeet/pkg/cloudinary"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CompleteProfileInput struct {
	Name   string
	Age    int
	Gender string
	Bio    string
}

type CompleteProfileResult struct {
	User          *models.User   `json:"user"`
	ReferralAward *ReferralAward `json:"referral_award,omitempty"`
}

// ProfileService manages female profiles, their media and admin review.
type ProfileService struct {
	users     *repository.UserRepository
	media     *repository.MediaRepository
	uploader  cloudinary.Client
	referrals *ReferralService
	notifier  *Notifier
	log       *zap.Logger
}

func NewProfileService(
	users *repository.UserRepository,
	media *repository.MediaRepository,
	uploader cloudinary.Client,
	referrals *ReferralService,
	notifier *Notifier,
	log *zap.Logger,
) *ProfileService {
	return &ProfileService{
		users:     users,
		media:     media,
		uploader:  uploader,
		referrals: referrals,
		notifier:  notifier,
		log:       log,
	}
}

func (s *ProfileService) female(userID uint) (*models.User, error) {
	u, err := s.users.GetByID(userID)
	if err != nil {
		return nil, lookupErr(err, "user")
	}
	if !u.IsFemale() {
		return nil, domain.Forbidden("female accounts only")
	}
	return u, nil
}

// Upload stores an image or intro video for a female user.
func (s *ProfileService) Upload(ctx context.Context, userID uint, mediaType string, file io.Reader) (*models.UserMedia, error) {
	if _, err := s.female(userID); err != nil {
		return nil, err
	}
	if mediaType != domain.MediaTypeImage && mediaType != domain.MediaTypeVideo {
		return nil, domain.Validation("unsupported media type %q", mediaType)
	}
	if mediaType == domain.MediaTypeImage {
		n, err := s.media.CountByType(userID, domain.MediaTypeImage)
		if err != nil {
			return nil, fmt.Errorf("count images: %w", err)
		}
		if n >= domain.MaxProfileImages {
			return nil, domain.Validation("at most %d images allowed", domain.MaxProfileImages)
		}
	}
	if s.uploader == nil {
		return nil, fmt.Errorf("media storage not configured")
	}

	folder := fmt.Sprintf("coinmeet/users/%d/%ss", userID, mediaType)
	prefix := "img_"
	if mediaType == domain.MediaTypeVideo {
		prefix = "vid_"
	}
	publicID := prefix + strings.ReplaceAll(uuid.New().String(), "-", "")[:16]
	var (
		res *cloudinary.UploadResult
		err error
	)
	if mediaType == domain.MediaTypeVideo {
		res, err = s.uploader.UploadVideo(ctx, file, folder, publicID)
	} else {
		res, err = s.uploader.UploadImage(ctx, file, folder, publicID)
	}
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", mediaType, err)
	}
	m := &models.UserMedia{
		UserID:       userID,
		Type:         mediaType,
		URL:          res.URL,
		ThumbnailURL: res.ThumbnailURL,
		PublicID:     res.PublicID,
	}
	if err := s.media.Create(m); err != nil {
		// Keep storage in step with the table.
		if derr := s.uploader.Delete(ctx, res.PublicID, mediaType); derr != nil {
			s.log.Warn("orphaned upload", zap.String("public_id", res.PublicID), zap.Error(derr))
		}
		return nil, fmt.Errorf("save media: %w", err)
	}
	return m, nil
}

func (s *ProfileService) Media(userID uint) ([]models.UserMedia, error) {
	return s.media.ListByUser(userID)
}

// CompleteProfile submits a female profile for review and pays any pending
// referral bonus.
func (s *ProfileService) CompleteProfile(ctx context.Context, userID uint, in CompleteProfileInput) (*CompleteProfileResult, error) {
	u, err := s.female(userID)
	if err != nil {
		return nil, err
	}
	if u.ProfileCompleted {
		return nil, domain.Conflict("profile already completed")
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, domain.Validation("name is required")
	}
	if in.Age < 18 {
		return nil, domain.Validation("must be 18 or older")
	}
	images, err := s.media.CountByType(userID, domain.MediaTypeImage)
	if err != nil {
		return nil, fmt.Errorf("count images: %w", err)
	}
	videos, err := s.media.CountByType(userID, domain.MediaTypeVideo)
	if err != nil {
		return nil, fmt.Errorf("count videos: %w", err)
	}
	if images < 1 || videos < 1 {
		return nil, domain.Validation("upload at least one image and one video first")
	}
	award, err := s.referrals.AwardWith(ctx, userID, func(users *repository.UserRepository) error {
		if err := users.UpdateFields(userID, map[string]interface{}{
			"name":              in.Name,
			"age":               in.Age,
			"gender":            in.Gender,
			"bio":               in.Bio,
			"profile_completed": true,
			"review_status":     domain.ReviewStatusPending,
		}); err != nil {
			return fmt.Errorf("complete profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	res := &CompleteProfileResult{ReferralAward: award}
	if res.User, err = s.users.GetByID(userID); err != nil {
		return nil, lookupErr(err, "user")
	}
	return res, nil
}

// SetCallRate sets the per-second price a female user charges.
func (s *ProfileService) SetCallRate(userID uint, coinsPerSecond int64) (*models.User, error) {
	if coinsPerSecond < 1 || coinsPerSecond > domain.MaxCoinsPerSecond {
		return nil, domain.Validation("coins_per_second must be between 1 and %d", domain.MaxCoinsPerSecond)
	}
	u, err := s.female(userID)
	if err != nil {
		return nil, err
	}
	if err := s.users.UpdateFields(userID, map[string]interface{}{"coins_per_second": coinsPerSecond}); err != nil {
		return nil, fmt.Errorf("set call rate: %w", err)
	}
	u.CoinsPerSecond = coinsPerSecond
	return u, nil
}

// Review sets the moderation outcome of a female profile.
func (s *ProfileService) Review(ctx context.Context, userID uint, status string) (*models.User, error) {
	if status != domain.ReviewStatusApproved && status != domain.ReviewStatusRejected {
		return nil, domain.Validation("review_status must be approved or rejected")
	}
	u, err := s.female(userID)
	if err != nil {
		return nil, err
	}
	if err := s.users.UpdateFields(userID, map[string]interface{}{"review_status": status}); err != nil {
		return nil, fmt.Errorf("review profile: %w", err)
	}
	u.ReviewStatus = status
	s.notifier.Notify(ctx, userID, domain.EventProfileReviewed, "Profile "+status,
		fmt.Sprintf("Your profile was %s", status),
		map[string]interface{}{"review_status": status})
	return u, nil
}

func (s *ProfileService) ListUsers(userType, reviewStatus, search string, page, limit int) ([]models.User, int64, error) {
	return s.users.List(userType, reviewStatus, search, page, limit)
}
