package handler

import (
	"net/http"

	"coinmeet/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	accounts *service.AccountService
	log      *zap.Logger
}

func NewAuthHandler(accounts *service.AccountService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{accounts: accounts, log: log}
}

type registerRequest struct {
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	MobileNumber string `json:"mobile_number"`
	ReferralCode string `json:"referral_code"`
}

type otpRequest struct {
	Email string `json:"email" binding:"required,email"`
	OTP   string `json:"otp" binding:"required"`
}

type loginRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// Register handles POST /{type}/register.
func (h *AuthHandler) Register(userType string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		res, err := h.accounts.Register(c.Request.Context(), service.RegisterInput{
			UserType:     userType,
			Email:        req.Email,
			Password:     req.Password,
			FirstName:    req.FirstName,
			LastName:     req.LastName,
			MobileNumber: req.MobileNumber,
			ReferralCode: req.ReferralCode,
		})
		if err != nil {
			fail(c, h.log, err)
			return
		}
		respond(c, http.StatusCreated, "OTP sent, verify to activate your account", res)
	}
}

// VerifyOTP handles POST /{type}/verify-otp.
func (h *AuthHandler) VerifyOTP(userType string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req otpRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		res, err := h.accounts.VerifyOTP(c.Request.Context(), userType, req.Email, req.OTP)
		if err != nil {
			fail(c, h.log, err)
			return
		}
		respond(c, http.StatusOK, "account verified", res)
	}
}

// Login handles POST /{type}/login.
func (h *AuthHandler) Login(userType string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		res, err := h.accounts.Login(c.Request.Context(), userType, req.Email)
		if err != nil {
			fail(c, h.log, err)
			return
		}
		respond(c, http.StatusOK, "OTP sent", res)
	}
}

// VerifyLoginOTP handles POST /{type}/verify-login-otp.
func (h *AuthHandler) VerifyLoginOTP(userType string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req otpRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		res, err := h.accounts.VerifyLoginOTP(c.Request.Context(), userType, req.Email, req.OTP)
		if err != nil {
			fail(c, h.log, err)
			return
		}
		respond(c, http.StatusOK, "logged in", res)
	}
}

// AdminLogin handles POST /admin/login.
func (h *AuthHandler) AdminLogin(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	res, err := h.accounts.AdminLogin(req.Email, req.Password)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "logged in", res)
}
