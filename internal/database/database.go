package database

import (
	"errors"
	"fmt"

	"coinmeet/config"
	"coinmeet/internal/domain"
	"coinmeet/internal/models"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "", "mysql":
		dialector = mysql.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.New(postgres.Config{DSN: cfg.DSN})
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error), // Only log errors, not every SQL query
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return db, nil
}

// AutoMigrate runs Gorm auto-migration for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Transaction{},
		&models.CallHistory{},
		&models.WithdrawalRequest{},
		&models.KYC{},
		&models.Follow{},
		&models.Block{},
		&models.Gift{},
		&models.CoinPackage{},
		&models.UserMedia{},
		&models.SystemSetting{},
		&models.AuditLog{},
		&models.Notification{},
	)
}

// SeedAdmin creates the bootstrap admin account if none exists with that email.
func SeedAdmin(db *gorm.DB, cfg *config.AdminConfig, log *zap.Logger) error {
	if cfg.Email == "" || cfg.Password == "" {
		return nil
	}
	var existing models.User
	err := db.Where("email = ? AND user_type = ?", cfg.Email, domain.UserTypeAdmin).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := &models.User{
		UserType:     domain.UserTypeAdmin,
		Email:        cfg.Email,
		Name:         "Administrator",
		PasswordHash: string(hash),
		IsVerified:   true,
		IsActive:     true,
		ReviewStatus: domain.ReviewStatusApproved,
	}
	if err := db.Create(admin).Error; err != nil {
		return err
	}
	log.Info("seeded admin account", zap.String("email", cfg.Email))
	return nil
}
