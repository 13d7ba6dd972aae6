package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"coinmeet/config"
	"coinmeet/internal/auth"
	"coinmeet/internal/domain"
	"coinmeet/internal/models"
	"coinmeet/internal/repository"
	"coinmeet/pkg/otp"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const otpTTL = 10 * time.Minute

var ErrInvalidCreds = domain.Unauthorized("invalid email or password")

type RegisterInput struct {
	UserType     string
	Email        string
	Password     string
	FirstName    string
	LastName     string
	MobileNumber string
	ReferralCode string
}

// AuthResult is returned by every register/login step. OTP is only set
// outside production.
type AuthResult struct {
	User          *models.User   `json:"user"`
	AccessToken   string         `json:"access_token,omitempty"`
	OTP           string         `json:"otp,omitempty"`
	ReferralAward *ReferralAward `json:"referral_award,omitempty"`
}

type BalanceInfo struct {
	CoinBalance     int64           `json:"coin_balance"`
	WalletBalance   int64           `json:"wallet_balance"`
	CoinInRupees    decimal.Decimal `json:"coin_balance_in_rupees"`
	WalletInRupees  decimal.Decimal `json:"wallet_balance_in_rupees"`
	CoinToRupeeRate int64           `json:"coin_to_rupee_rate"`
}

type AccountService struct {
	db        *gorm.DB
	cfg       *config.Config
	users     *repository.UserRepository
	referrals *ReferralService
	settings  *Settings
	sender    otp.Sender
	log       *zap.Logger
}

func NewAccountService(
	db *gorm.DB,
	cfg *config.Config,
	users *repository.UserRepository,
	referrals *ReferralService,
	settings *Settings,
	sender otp.Sender,
	log *zap.Logger,
) *AccountService {
	return &AccountService{
		db:        db,
		cfg:       cfg,
		users:     users,
		referrals: referrals,
		settings:  settings,
		sender:    sender,
		log:       log,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateRegistration(in *RegisterInput) error {
	in.Email = normalizeEmail(in.Email)
	in.MobileNumber = strings.TrimSpace(in.MobileNumber)
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		return domain.Validation("a valid email is required")
	}
	switch in.UserType {
	case domain.UserTypeMale:
		if in.FirstName == "" {
			return domain.Validation("first_name is required")
		}
		if len(in.Password) < 6 {
			return domain.Validation("password must be at least 6 characters")
		}
	case domain.UserTypeFemale:
		if in.MobileNumber == "" {
			return domain.Validation("mobile_number is required")
		}
	case domain.UserTypeAgency:
		if in.MobileNumber == "" || in.FirstName == "" || in.LastName == "" {
			return domain.Validation("mobile_number, first_name and last_name are required")
		}
		in.ReferralCode = ""
	default:
		return domain.Validation("unsupported user type %q", in.UserType)
	}
	return nil
}

// Register creates an unverified account and issues an OTP. Registering an
// email that exists but was never verified refreshes the OTP and referral link.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	if err := validateRegistration(&in); err != nil {
		return nil, err
	}
	referrer, err := s.referrals.ResolveReferrer(in.ReferralCode, in.UserType)
	if err != nil {
		return nil, err
	}

	u, err := s.users.GetByEmail(in.Email, in.UserType)
	switch {
	case err == nil && u.IsVerified:
		return nil, domain.Conflict("email already registered")
	case err == nil:
	case errors.Is(err, gorm.ErrRecordNotFound):
		code, err := s.users.NewReferralCode()
		if err != nil {
			return nil, fmt.Errorf("referral code: %w", err)
		}
		u = &models.User{
			UserType:     in.UserType,
			Email:        in.Email,
			KYCStatus:    domain.KYCStatusPending,
			ReviewStatus: domain.ReviewStatusPending,
			ReferralCode: &code,
		}
	default:
		return nil, fmt.Errorf("load user: %w", err)
	}

	u.FirstName = in.FirstName
	u.LastName = in.LastName
	if in.MobileNumber != "" {
		mobile := in.MobileNumber
		u.MobileNumber = &mobile
	}
	if in.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = string(hash)
	}
	if referrer != nil {
		if referrer.ID == u.ID {
			return nil, domain.Validation("invalid referral code")
		}
		u.ReferredByID = &referrer.ID
	}
	code, err := s.issueOTP(u)
	if err != nil {
		return nil, err
	}
	if u.ID == 0 {
		err = s.users.WithTx(s.db.WithContext(ctx)).Create(u)
	} else {
		err = s.users.WithTx(s.db.WithContext(ctx)).Update(u)
	}
	if err != nil {
		return nil, fmt.Errorf("save user: %w", err)
	}
	s.deliver(ctx, u, code)
	s.log.Info("user registered", zap.Uint("user_id", u.ID), zap.String("user_type", u.UserType))
	return s.otpResult(u, code), nil
}

func (s *AccountService) issueOTP(u *models.User) (string, error) {
	code, err := otp.Generate()
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	exp := time.Now().Add(otpTTL)
	u.OTPCode = code
	u.OTPExpiresAt = &exp
	return code, nil
}

func (s *AccountService) deliver(ctx context.Context, u *models.User, code string) {
	dest := u.Email
	if u.UserType != domain.UserTypeMale && u.MobileNumber != nil {
		dest = *u.MobileNumber
	}
	if err := s.sender.Send(ctx, dest, code); err != nil {
		s.log.Warn("otp delivery failed", zap.Uint("user_id", u.ID), zap.Error(err))
	}
}

func (s *AccountService) otpResult(u *models.User, code string) *AuthResult {
	res := &AuthResult{User: u}
	if !s.cfg.IsProduction() {
		res.OTP = code
	}
	return res
}

func checkOTP(u *models.User, code string) error {
	if u.OTPCode == "" || u.OTPExpiresAt == nil {
		return domain.Validation("no OTP pending, request a new one")
	}
	if time.Now().After(*u.OTPExpiresAt) {
		return domain.Validation("OTP expired")
	}
	if subtle.ConstantTimeCompare([]byte(u.OTPCode), []byte(code)) != 1 {
		return domain.Validation("invalid OTP")
	}
	return nil
}

func (s *AccountService) loadByEmail(userType, email string) (*models.User, error) {
	u, err := s.users.GetByEmail(normalizeEmail(email), userType)
	if err != nil {
		return nil, lookupErr(err, "user")
	}
	return u, nil
}

// VerifyOTP activates a freshly registered account. Male activation pays
// the referral bonus; female accounts are paid on profile completion.
func (s *AccountService) VerifyOTP(ctx context.Context, userType, email, code string) (*AuthResult, error) {
	u, err := s.loadByEmail(userType, email)
	if err != nil {
		return nil, err
	}
	if u.IsVerified {
		return nil, domain.State("account already verified, log in instead")
	}
	if err := checkOTP(u, code); err != nil {
		return nil, err
	}
	activate := func(users *repository.UserRepository) error {
		if err := users.UpdateFields(u.ID, map[string]interface{}{
			"is_verified":    true,
			"is_active":      true,
			"otp_code":       "",
			"otp_expires_at": nil,
		}); err != nil {
			return fmt.Errorf("activate user: %w", err)
		}
		return nil
	}
	res := &AuthResult{}
	if !u.IsMale() {
		if err := activate(s.users); err != nil {
			return nil, err
		}
		return s.withToken(res, u.ID)
	}
	// Activation and the bonus commit together, so a failed award leaves
	// the OTP valid for another try.
	award, err := s.referrals.AwardWith(ctx, u.ID, activate)
	if err != nil {
		return nil, err
	}
	res.ReferralAward = award
	return s.withToken(res, u.ID)
}

// Login sends an OTP to an active account.
func (s *AccountService) Login(ctx context.Context, userType, email string) (*AuthResult, error) {
	u, err := s.loadByEmail(userType, email)
	if err != nil {
		return nil, err
	}
	if err := canLogin(u); err != nil {
		return nil, err
	}
	code, err := s.issueOTP(u)
	if err != nil {
		return nil, err
	}
	if err := s.users.UpdateFields(u.ID, map[string]interface{}{
		"otp_code":       u.OTPCode,
		"otp_expires_at": u.OTPExpiresAt,
	}); err != nil {
		return nil, fmt.Errorf("store otp: %w", err)
	}
	s.deliver(ctx, u, code)
	res := s.otpResult(u, code)
	res.User = nil
	return res, nil
}

func canLogin(u *models.User) error {
	if !u.IsVerified {
		return domain.Forbidden("account not verified")
	}
	if !u.IsActive {
		return domain.Forbidden("account is disabled")
	}
	if u.IsFemale() && u.ReviewStatus != domain.ReviewStatusApproved {
		return domain.Forbidden("profile is %s review", reviewPhrase(u.ReviewStatus))
	}
	return nil
}

func reviewPhrase(status string) string {
	if status == domain.ReviewStatusRejected {
		return "rejected in"
	}
	return "pending"
}

func (s *AccountService) VerifyLoginOTP(ctx context.Context, userType, email, code string) (*AuthResult, error) {
	u, err := s.loadByEmail(userType, email)
	if err != nil {
		return nil, err
	}
	if err := canLogin(u); err != nil {
		return nil, err
	}
	if err := checkOTP(u, code); err != nil {
		return nil, err
	}
	if err := s.users.UpdateFields(u.ID, map[string]interface{}{
		"otp_code":       "",
		"otp_expires_at": nil,
	}); err != nil {
		return nil, fmt.Errorf("clear otp: %w", err)
	}
	return s.withToken(&AuthResult{}, u.ID)
}

func (s *AccountService) withToken(res *AuthResult, userID uint) (*AuthResult, error) {
	u, err := s.users.GetByID(userID)
	if err != nil {
		return nil, lookupErr(err, "user")
	}
	token, err := auth.GenerateAccessToken(&s.cfg.JWT, u.ID, u.UserType)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	res.User = u
	res.AccessToken = token
	return res, nil
}

func (s *AccountService) AdminLogin(email, password string) (*AuthResult, error) {
	u, err := s.users.GetByEmail(normalizeEmail(email), domain.UserTypeAdmin)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCreds
		}
		return nil, fmt.Errorf("load admin: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCreds
	}
	return s.withToken(&AuthResult{}, u.ID)
}

// Me returns the caller's own row, refusing tokens minted for another type.
func (s *AccountService) Me(userType string, userID uint) (*models.User, error) {
	u, err := s.users.GetByID(userID)
	if err != nil {
		return nil, lookupErr(err, "user")
	}
	if u.UserType != userType {
		return nil, domain.NotFound("user not found")
	}
	return u, nil
}

func (s *AccountService) UpdateFCMToken(userID uint, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.Validation("fcm_token is required")
	}
	return s.users.UpdateFields(userID, map[string]interface{}{"fcm_token": token})
}

// Balance reports both balances in coins and in rupees at the current rate.
func (s *AccountService) Balance(userType string, userID uint) (*BalanceInfo, error) {
	u, err := s.Me(userType, userID)
	if err != nil {
		return nil, err
	}
	rate := s.settings.Current().CoinToRupeeRate
	return &BalanceInfo{
		CoinBalance:     u.CoinBalance,
		WalletBalance:   u.WalletBalance,
		CoinInRupees:    CoinsToRupees(u.CoinBalance, rate),
		WalletInRupees:  CoinsToRupees(u.WalletBalance, rate),
		CoinToRupeeRate: rate,
	}, nil
}
