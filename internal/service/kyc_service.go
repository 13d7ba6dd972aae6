package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"coinmeet/internal/domain"
	"coinmeet/internal/models"
	"coinmeet/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type SubmitKYCInput struct {
	UserType      string
	UserID        uint
	Method        string
	AccountName   string
	AccountNumber string
	IFSC          string
	UPIID         string
}

// KYCService stages payout-details submissions and materializes approved
// ones onto the user row.
type KYCService struct {
	db       *gorm.DB
	users    *repository.UserRepository
	kycs     *repository.KYCRepository
	notifier *Notifier
	log      *zap.Logger
}

func NewKYCService(db *gorm.DB, users *repository.UserRepository, kycs *repository.KYCRepository, notifier *Notifier, log *zap.Logger) *KYCService {
	return &KYCService{db: db, users: users, kycs: kycs, notifier: notifier, log: log}
}

func (s *KYCService) Submit(ctx context.Context, in SubmitKYCInput) (*models.KYC, error) {
	if in.UserType != domain.UserTypeFemale && in.UserType != domain.UserTypeAgency {
		return nil, domain.Forbidden("only female and agency accounts submit KYC")
	}
	k := &models.KYC{
		UserType: in.UserType,
		UserID:   in.UserID,
		Method:   in.Method,
		Status:   domain.KYCStatusPending,
	}
	switch in.Method {
	case domain.KYCMethodAccountDetails:
		k.AccountName = strings.TrimSpace(in.AccountName)
		k.AccountNumber = strings.TrimSpace(in.AccountNumber)
		k.IFSC = strings.ToUpper(strings.TrimSpace(in.IFSC))
		if k.AccountName == "" || k.AccountNumber == "" || k.IFSC == "" {
			return nil, domain.Validation("account_name, account_number and ifsc are required")
		}
	case domain.KYCMethodUPI:
		k.UPIID = strings.TrimSpace(in.UPIID)
		if k.UPIID == "" {
			return nil, domain.Validation("upi_id is required")
		}
	default:
		return nil, domain.Validation("method must be account_details or upi_id")
	}

	u, err := s.users.GetByID(in.UserID)
	if err != nil {
		return nil, lookupErr(err, "user")
	}
	if u.UserType != in.UserType {
		return nil, domain.NotFound("user not found")
	}
	pending, err := s.kycs.HasPending(in.UserType, in.UserID)
	if err != nil {
		return nil, fmt.Errorf("check pending kyc: %w", err)
	}
	if pending {
		return nil, domain.Conflict("a KYC submission is already pending review")
	}
	if err := s.kycs.WithTx(s.db.WithContext(ctx)).Create(k); err != nil {
		return nil, fmt.Errorf("create kyc: %w", err)
	}
	s.log.Info("kyc submitted", zap.Uint("kyc_id", k.ID), zap.Uint("user_id", k.UserID), zap.String("method", k.Method))
	return k, nil
}

// Status returns the latest submission, or nil when the user never submitted.
func (s *KYCService) Status(userType string, userID uint) (*models.KYC, error) {
	k, err := s.kycs.Latest(userType, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load kyc: %w", err)
	}
	return k, nil
}

func (s *KYCService) ListPending(page, limit int) ([]models.KYC, int64, error) {
	return s.kycs.ListPending(page, limit)
}

// Review approves or rejects a pending submission.
func (s *KYCService) Review(ctx context.Context, kycID uint, status string, adminID uint) (*models.KYC, error) {
	if status != domain.KYCStatusApproved && status != domain.KYCStatusRejected {
		return nil, domain.Validation("status must be approved or rejected")
	}
	k, err := s.kycs.GetByID(kycID)
	if err != nil {
		return nil, lookupErr(err, "KYC")
	}
	if k.Status != domain.KYCStatusPending {
		return nil, domain.State("KYC already reviewed")
	}

	now := time.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := s.kycs.WithTx(tx).TransitionFromPending(k.ID, map[string]interface{}{
			"status":      status,
			"verified_by": adminID,
			"reviewed_at": now,
		})
		if err != nil {
			return err
		}
		if !ok {
			return domain.State("KYC already reviewed")
		}
		users := s.users.WithTx(tx)
		u, err := users.GetByID(k.UserID)
		if err != nil {
			return lookupErr(err, "user")
		}
		if status == domain.KYCStatusRejected {
			if u.KYCStatus == domain.KYCStatusApproved {
				return nil
			}
			return users.UpdateFields(u.ID, map[string]interface{}{"kyc_status": domain.KYCStatusRejected})
		}
		fields := map[string]interface{}{"kyc_status": domain.KYCStatusApproved}
		if k.Method == domain.KYCMethodUPI {
			fields["kyc_upi_upi_id"] = k.UPIID
			fields["kyc_upi_verified_at"] = now
		} else {
			fields["kyc_bank_name"] = k.AccountName
			fields["kyc_bank_account_number"] = k.AccountNumber
			fields["kyc_bank_ifsc"] = k.IFSC
			fields["kyc_bank_verified_at"] = now
		}
		return users.UpdateFields(u.ID, fields)
	})
	if err != nil {
		return nil, err
	}
	k.Status = status
	k.VerifiedBy = &adminID
	k.ReviewedAt = &now

	s.log.Info("kyc reviewed", zap.Uint("kyc_id", k.ID), zap.Uint("user_id", k.UserID), zap.String("status", status))
	s.notifier.Notify(ctx, k.UserID, domain.EventKYCReviewed, "KYC "+status,
		fmt.Sprintf("Your KYC submission was %s", status),
		map[string]interface{}{"kyc_id": k.ID, "status": status, "method": k.Method})
	return k, nil
}
