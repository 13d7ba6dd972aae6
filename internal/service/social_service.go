package service

import (
	"context"
	"fmt"

	"coinmeet/internal/domain"
	"coinmeet/internal/models"
	"coinmeet/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SocialService maintains follow and block edges between male and female users.
type SocialService struct {
	db      *gorm.DB
	users   *repository.UserRepository
	follows *repository.FollowRepository
	blocks  *repository.BlockRepository
	log     *zap.Logger
}

func NewSocialService(db *gorm.DB, users *repository.UserRepository, follows *repository.FollowRepository, blocks *repository.BlockRepository, log *zap.Logger) *SocialService {
	return &SocialService{db: db, users: users, follows: follows, blocks: blocks, log: log}
}

// counterpart loads targetID and checks it is of the opposite call role.
func (s *SocialService) counterpart(actorType string, actorID, targetID uint) (*models.User, error) {
	if actorID == targetID {
		return nil, domain.Validation("cannot target yourself")
	}
	want := domain.UserTypeFemale
	if actorType == domain.UserTypeFemale {
		want = domain.UserTypeMale
	}
	u, err := s.users.GetByID(targetID)
	if err != nil {
		return nil, lookupErr(err, want+" user")
	}
	if u.UserType != want {
		return nil, domain.NotFound("%s user not found", want)
	}
	return u, nil
}

func (s *SocialService) Follow(actorType string, actorID, targetID uint) error {
	if _, err := s.counterpart(actorType, actorID, targetID); err != nil {
		return err
	}
	blocked, err := s.blocks.IsBlockedEither(actorID, targetID)
	if err != nil {
		return fmt.Errorf("check block: %w", err)
	}
	if blocked {
		return domain.Forbidden("cannot follow a blocked user")
	}
	if err := s.follows.Add(actorID, targetID); err != nil {
		return fmt.Errorf("follow: %w", err)
	}
	return nil
}

func (s *SocialService) Unfollow(actorType string, actorID, targetID uint) error {
	if _, err := s.counterpart(actorType, actorID, targetID); err != nil {
		return err
	}
	return s.follows.Remove(actorID, targetID)
}

func (s *SocialService) Following(userID uint, limit, offset int) ([]models.User, error) {
	return s.follows.ListFollowing(userID, limit, offset)
}

// Block records the block and drops follows in both directions.
func (s *SocialService) Block(ctx context.Context, actorType string, actorID, targetID uint) error {
	if _, err := s.counterpart(actorType, actorID, targetID); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.blocks.WithTx(tx).Create(actorID, targetID); err != nil {
			return err
		}
		return s.follows.WithTx(tx).RemoveBetween(actorID, targetID)
	})
	if err != nil {
		return fmt.Errorf("block: %w", err)
	}
	s.log.Info("user blocked", zap.Uint("blocker_id", actorID), zap.Uint("blocked_id", targetID))
	return nil
}

func (s *SocialService) Unblock(actorID, targetID uint) error {
	return s.blocks.Delete(actorID, targetID)
}

func (s *SocialService) Blocked(actorID uint) ([]uint, error) {
	return s.blocks.ListBlocked(actorID)
}
