package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coinmeet/config"
	"coinmeet/internal/database"
	"coinmeet/internal/logger"
	"coinmeet/internal/repository"
	"coinmeet/internal/router"
	"coinmeet/internal/service"
	"coinmeet/pkg/cloudinary"
	"coinmeet/pkg/otp"
	"coinmeet/pkg/payout"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load("configs")
	if err != nil {
		panic(err)
	}
	log := logger.New(cfg.Server.Env)
	defer log.Sync()

	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		log.Fatal("database", zap.Error(err))
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatal("migrate", zap.Error(err))
	}
	if err := database.SeedAdmin(db, &cfg.Admin, log); err != nil {
		log.Fatal("seed admin", zap.Error(err))
	}

	settings := service.NewSettings(repository.NewSettingRepository(db), log)
	if err := settings.Load(cfg.Platform); err != nil {
		log.Fatal("settings", zap.Error(err))
	}

	var cloud cloudinary.Client
	if cfg.Cloudinary.CloudName != "" {
		cloud, err = cloudinary.NewClientFromParams(cfg.Cloudinary.CloudName, cfg.Cloudinary.APIKey, cfg.Cloudinary.APISecret)
		if err != nil {
			log.Fatal("cloudinary", zap.Error(err))
		}
	} else {
		log.Warn("cloudinary not configured, media uploads disabled")
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	engine := router.Setup(ctx, cfg, router.Deps{
		DB:       db,
		Log:      log,
		Settings: settings,
		Cloud:    cloud,
		Payout:   newPayoutProvider(&cfg.Payout, log),
		OTP:      otp.LogSender{Log: log},
	})
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		log.Info("server listening", zap.String("port", cfg.Server.Port), zap.String("env", cfg.Server.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen", zap.Error(err))
		}
	}()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")
	stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", zap.Error(err))
		return
	}
	log.Info("server stopped")
}

func newPayoutProvider(cfg *config.PayoutConfig, log *zap.Logger) payout.Provider {
	switch cfg.Provider {
	case "razorpay":
		log.Info("payouts via razorpay", zap.String("base_url", cfg.BaseURL))
		return payout.NewRazorpayProvider(cfg.BaseURL, cfg.KeyID, cfg.KeySecret, cfg.SourceAccount, cfg.Timeout, log)
	case "", "stub":
		return payout.StubProvider{}
	default:
		log.Warn("unknown payout provider, using stub", zap.String("provider", cfg.Provider))
		return payout.StubProvider{}
	}
}
