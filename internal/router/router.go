package router

import (
	"context"
	"net/http"

	"coinmeet/config"
	"coinmeet/internal/domain"
	"coinmeet/internal/handler"
	"coinmeet/internal/middleware"
	"coinmeet/internal/repository"
	"coinmeet/internal/service"
	"coinmeet/internal/ws"
	"coinmeet/pkg/cloudinary"
	"coinmeet/pkg/otp"
	"coinmeet/pkg/payout"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps are the collaborators built in main before the router.
type Deps struct {
	DB       *gorm.DB
	Log      *zap.Logger
	Settings *service.Settings
	Cloud    cloudinary.Client
	Payout   payout.Provider
	OTP      otp.Sender
}

func Setup(ctx context.Context, cfg *config.Config, d Deps) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Metrics())
	limiter := middleware.NewInMemoryRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	go limiter.Run(ctx)
	r.Use(middleware.RateLimit(limiter))

	db, log := d.DB, d.Log

	// Repositories
	userRepo := repository.NewUserRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	callRepo := repository.NewCallRepository(db)
	withdrawalRepo := repository.NewWithdrawalRepository(db)
	kycRepo := repository.NewKYCRepository(db)
	followRepo := repository.NewFollowRepository(db)
	blockRepo := repository.NewBlockRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)
	giftRepo := repository.NewGiftRepository(db)
	packageRepo := repository.NewCoinPackageRepository(db)
	mediaRepo := repository.NewMediaRepository(db)
	adminRepo := repository.NewAdminRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	hub := ws.NewHub()

	// Services
	fcmSvc := service.NewFCMService(cfg.Firebase.ServiceAccountPath, log)
	if fcmSvc != nil {
		log.Info("push notifications enabled")
	} else {
		log.Info("push notifications disabled", zap.String("service_account_path", cfg.Firebase.ServiceAccountPath))
	}
	notifier := service.NewNotifier(hub, fcmSvc, userRepo, notificationRepo, log)
	ledger := service.NewLedger(ledgerRepo, log)
	referralSvc := service.NewReferralService(db, userRepo, ledger, d.Settings, notifier, log)
	accountSvc := service.NewAccountService(db, cfg, userRepo, referralSvc, d.Settings, d.OTP, log)
	billingSvc := service.NewBillingService(db, userRepo, callRepo, followRepo, blockRepo, ledger, d.Settings, notifier, log)
	withdrawalSvc := service.NewWithdrawalService(db, userRepo, withdrawalRepo, ledger, d.Settings, d.Payout, notifier, log)
	kycSvc := service.NewKYCService(db, userRepo, kycRepo, notifier, log)
	profileSvc := service.NewProfileService(userRepo, mediaRepo, d.Cloud, referralSvc, notifier, log)
	socialSvc := service.NewSocialService(db, userRepo, followRepo, blockRepo, log)
	catalogSvc := service.NewCatalogService(db, userRepo, giftRepo, packageRepo, blockRepo, ledger, notifier, log)
	adminSvc := service.NewAdminService(adminRepo, auditRepo, log)
	userAdminSvc := service.NewUserAdminService(db, userRepo, ledger, notifier, log)

	// Handlers
	authHandler := handler.NewAuthHandler(accountSvc, log)
	meHandler := handler.NewMeHandler(accountSvc, ledger, log)
	callHandler := handler.NewCallHandler(billingSvc, log)
	withdrawalHandler := handler.NewWithdrawalHandler(withdrawalSvc, adminSvc, log)
	kycHandler := handler.NewKYCHandler(kycSvc, adminSvc, log)
	profileHandler := handler.NewProfileHandler(profileSvc, log)
	socialHandler := handler.NewSocialHandler(socialSvc, log)
	catalogHandler := handler.NewCatalogHandler(catalogSvc, log)
	referralHandler := handler.NewReferralHandler(referralSvc, log)
	notificationHandler := handler.NewNotificationHandler(notifier, log)
	adminHandler := handler.NewAdminHandler(adminSvc, d.Settings, profileSvc, ledger, userAdminSvc, log)

	authMw := middleware.AuthRequired(&cfg.JWT)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "ok", "data": gin.H{"ws_clients": hub.ClientCount()}})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/ws/events", ws.UpgradeEventsWS(&cfg.JWT, hub, log))

	api := r.Group("/api/v1")

	// Signup and OTP login, identical for the three account types.
	for _, t := range []struct {
		prefix   string
		userType string
	}{
		{"/male-user", domain.UserTypeMale},
		{"/female-user", domain.UserTypeFemale},
		{"/agency", domain.UserTypeAgency},
	} {
		g := api.Group(t.prefix)
		g.POST("/register", authHandler.Register(t.userType))
		g.POST("/verify-otp", authHandler.VerifyOTP(t.userType))
		g.POST("/login", authHandler.Login(t.userType))
		g.POST("/verify-login-otp", authHandler.VerifyLoginOTP(t.userType))

		me := g.Group("")
		me.Use(authMw, middleware.RequireUserType(t.userType))
		me.GET("/me", meHandler.Me)
		me.GET("/me/transactions", meHandler.Transactions)
		me.POST("/fcm-token", meHandler.RegisterFCMToken)
		me.GET("/referrals", referralHandler.GetMyReferrals)
		me.GET("/notifications", notificationHandler.List)
		me.POST("/notifications/read-all", notificationHandler.MarkAllRead)
		me.POST("/notifications/:id/read", notificationHandler.MarkRead)
	}

	male := api.Group("/male-user")
	male.Use(authMw, middleware.RequireUserType(domain.UserTypeMale))
	{
		male.POST("/calls/start", callHandler.Start)
		male.POST("/calls/end", callHandler.End)
		male.GET("/calls/history", callHandler.History)
		male.GET("/calls/stats", callHandler.Stats)
		male.POST("/follow", socialHandler.Follow)
		male.POST("/unfollow", socialHandler.Unfollow)
		male.GET("/following", socialHandler.Following)
		male.POST("/block", socialHandler.Block)
		male.POST("/unblock", socialHandler.Unblock)
		male.GET("/block-list", socialHandler.BlockList)
		male.GET("/gifts", catalogHandler.Gifts)
		male.POST("/gifts/send", catalogHandler.SendGift)
		male.GET("/coin-packages", catalogHandler.Packages)
		male.POST("/buy-coins", catalogHandler.BuyCoins)
	}

	female := api.Group("/female-user")
	female.Use(authMw, middleware.RequireUserType(domain.UserTypeFemale))
	{
		female.GET("/balance", meHandler.Balance)
		female.GET("/calls/history", callHandler.ReceivedHistory)
		female.POST("/upload-image", profileHandler.UploadImage)
		female.POST("/upload-video", profileHandler.UploadVideo)
		female.GET("/media", profileHandler.Media)
		female.POST("/complete-profile", profileHandler.CompleteProfile)
		female.PUT("/call-rate", profileHandler.SetCallRate)
		female.POST("/kyc", kycHandler.Submit)
		female.GET("/kyc", kycHandler.Status)
		female.POST("/withdrawals", withdrawalHandler.Create)
		female.GET("/withdrawals", withdrawalHandler.ListMine)
		female.POST("/follow", socialHandler.Follow)
		female.POST("/unfollow", socialHandler.Unfollow)
		female.GET("/following", socialHandler.Following)
		female.POST("/block", socialHandler.Block)
		female.POST("/unblock", socialHandler.Unblock)
		female.GET("/block-list", socialHandler.BlockList)
	}

	agency := api.Group("/agency")
	agency.Use(authMw, middleware.RequireUserType(domain.UserTypeAgency))
	{
		agency.GET("/balance", meHandler.Balance)
		agency.POST("/kyc", kycHandler.Submit)
		agency.GET("/kyc", kycHandler.Status)
		agency.POST("/withdrawals", withdrawalHandler.Create)
		agency.GET("/withdrawals", withdrawalHandler.ListMine)
	}

	api.POST("/admin/login", authHandler.AdminLogin)
	admin := api.Group("/admin")
	admin.Use(authMw, middleware.AdminRequired())
	{
		admin.GET("/dashboard", adminHandler.Dashboard)
		admin.GET("/config", adminHandler.GetConfig)
		admin.PUT("/config/min-call-coins", adminHandler.UpdateConfig(domain.SettingMinCallCoins))
		admin.PUT("/config/coin-to-rupee-rate", adminHandler.UpdateConfig(domain.SettingCoinToRupeeRate))
		admin.PUT("/config/min-withdrawal-amount", adminHandler.UpdateConfig(domain.SettingMinWithdrawalAmount))
		admin.PUT("/config/referral-bonus", adminHandler.UpdateConfig(domain.SettingReferralBonus))
		admin.PUT("/config/default-coins-per-second", adminHandler.UpdateConfig(domain.SettingDefaultCoinsPerSecond))
		admin.GET("/users", adminHandler.ListUsers)
		admin.PUT("/users/:id/review", adminHandler.ReviewUser)
		admin.POST("/users/operate-balance", adminHandler.OperateBalance)
		admin.POST("/users/toggle-status", adminHandler.ToggleStatus)
		admin.GET("/transactions", adminHandler.ListTransactions)
		admin.GET("/audit-logs", adminHandler.AuditLogs)
		admin.GET("/kyc/pending", kycHandler.Pending)
		admin.POST("/review-kyc", kycHandler.Review)
		admin.GET("/withdrawals", withdrawalHandler.AdminList)
		admin.POST("/withdrawals/:id/approve", withdrawalHandler.Approve)
		admin.POST("/withdrawals/:id/reject", withdrawalHandler.Reject)
		admin.POST("/gifts", catalogHandler.CreateGift)
		admin.GET("/gifts", catalogHandler.AdminGifts)
		admin.POST("/coin-packages", catalogHandler.CreatePackage)
	}

	return r
}
