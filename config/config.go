package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	Cloudinary CloudinaryConfig `mapstructure:"cloudinary"`
	Firebase   FirebaseConfig   `mapstructure:"firebase"`
	Payout     PayoutConfig     `mapstructure:"payout"`
	RateLimit  RateLimitConfig  `mapstructure:"ratelimit"`
	Admin      AdminConfig      `mapstructure:"admin"`
	Platform   PlatformConfig   `mapstructure:"platform"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	Env          string        `mapstructure:"env"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // mysql | postgres
	DSN             string        `mapstructure:"dsn"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type JWTConfig struct {
	AccessSecret string        `mapstructure:"access_secret"`
	AccessExpiry time.Duration `mapstructure:"access_expiry"`
	Issuer       string        `mapstructure:"issuer"`
}

type CloudinaryConfig struct {
	CloudName string `mapstructure:"cloud_name"`
	APIKey    string `mapstructure:"api_key"`
	APISecret string `mapstructure:"api_secret"`
}

type FirebaseConfig struct {
	ServiceAccountPath string `mapstructure:"service_account_path"`
}

// PayoutConfig selects the gateway used when an admin approves a withdrawal.
type PayoutConfig struct {
	Provider      string        `mapstructure:"provider"` // stub | razorpay
	BaseURL       string        `mapstructure:"base_url"`
	KeyID         string        `mapstructure:"key_id"`
	KeySecret     string        `mapstructure:"key_secret"`
	SourceAccount string        `mapstructure:"source_account"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

type RateLimitConfig struct {
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// AdminConfig is the bootstrap admin account created on first start.
type AdminConfig struct {
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

// PlatformConfig holds the seed values for admin-tunable settings.
// Once persisted, the database copy wins.
type PlatformConfig struct {
	MinCallCoins          int64  `mapstructure:"min_call_coins"`
	CoinToRupeeRate       int64  `mapstructure:"coin_to_rupee_rate"`
	MinWithdrawalAmount   string `mapstructure:"min_withdrawal_amount"`
	ReferralBonus         int64  `mapstructure:"referral_bonus"`
	DefaultCoinsPerSecond int64  `mapstructure:"default_coins_per_second"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8099")
	v.SetDefault("server.env", "development")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.dsn", "coinmeet:coinmeet@tcp(localhost:3306)/coinmeet?charset=utf8mb4&parseTime=True&loc=Local")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", time.Hour)

	v.SetDefault("jwt.access_secret", "change-me-in-production")
	v.SetDefault("jwt.access_expiry", 72*time.Hour)
	v.SetDefault("jwt.issuer", "coinmeet")

	v.SetDefault("cloudinary.cloud_name", "")
	v.SetDefault("cloudinary.api_key", "")
	v.SetDefault("cloudinary.api_secret", "")

	v.SetDefault("firebase.service_account_path", "")

	v.SetDefault("payout.provider", "stub")
	v.SetDefault("payout.base_url", "https://api.razorpay.com/v1")
	v.SetDefault("payout.key_id", "")
	v.SetDefault("payout.key_secret", "")
	v.SetDefault("payout.source_account", "")
	v.SetDefault("payout.timeout", 15*time.Second)

	v.SetDefault("ratelimit.requests", 100)
	v.SetDefault("ratelimit.window", time.Minute)

	v.SetDefault("admin.email", "admin@coinmeet.local")
	v.SetDefault("admin.password", "change-me")

	v.SetDefault("platform.min_call_coins", 60)
	v.SetDefault("platform.coin_to_rupee_rate", 10)
	v.SetDefault("platform.min_withdrawal_amount", "500")
	v.SetDefault("platform.referral_bonus", 100)
	v.SetDefault("platform.default_coins_per_second", 2)
}

// Load reads config.yaml from dir (if present) and overlays environment
// variables, e.g. DATABASE_DSN overrides database.dsn.
func Load(dir string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AddConfigPath(dir)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) IsProduction() bool { return c.Server.Env == "production" }
