// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type HTTPConfig struct {
	Port int `yaml:"port"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type AuthConfig struct {
	JWTSecret  string        `yaml:"jwt_secret"`
	AccessTTL  time.Duration `yaml:"access_ttl"`
	RefreshTTL time.Duration `yaml:"refresh_ttl"`
	BcryptCost int           `yaml:"bcrypt_cost"`
}

type YooKassaConfig struct {
	ShopID         string        `yaml:"shop_id"`
	SecretKey      string        `yaml:"secret_key"`
	APIURL         string        `yaml:"api_url"`
	ReturnURL      string        `yaml:"return_url"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type MailConfig struct {
	PostmarkServerToken  string `yaml:"postmark_server_token"`
	PostmarkAccountToken string `yaml:"postmark_account_token"`
	Sender               string `yaml:"sender"`
}

type JobsConfig struct {
	ReconcileInterval time.Duration `yaml:"reconcile_interval"`
	ExpireInterval    time.Duration `yaml:"expire_interval"`
	ReconcileBatch    int           `yaml:"reconcile_batch"`
}

type Config struct {
	Log      LogConfig      `yaml:"log"`
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Auth     AuthConfig     `yaml:"auth"`
	YooKassa YooKassaConfig `yaml:"yookassa"`
	Mail     MailConfig     `yaml:"mail"`
	Jobs     JobsConfig     `yaml:"jobs"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads and validates the YAML config. Missing credentials are a
// startup-time fatal error, never a per-request one.
func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.Auth.AccessTTL <= 0 {
		cfg.Auth.AccessTTL = 15 * time.Minute
	}
	if cfg.Auth.RefreshTTL <= 0 {
		cfg.Auth.RefreshTTL = 30 * 24 * time.Hour
	}
	if cfg.Auth.BcryptCost < 4 || cfg.Auth.BcryptCost > 15 {
		cfg.Auth.BcryptCost = 12
	}
	if cfg.YooKassa.APIURL == "" {
		cfg.YooKassa.APIURL = "https://api.yookassa.ru/v3"
	}
	if cfg.YooKassa.RequestTimeout <= 0 {
		cfg.YooKassa.RequestTimeout = 10 * time.Second
	}
	if cfg.Jobs.ReconcileInterval <= 0 {
		cfg.Jobs.ReconcileInterval = time.Minute
	}
	if cfg.Jobs.ExpireInterval <= 0 {
		cfg.Jobs.ExpireInterval = time.Minute
	}
	if cfg.Jobs.ReconcileBatch <= 0 {
		cfg.Jobs.ReconcileBatch = 100
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("auth.jwt_secret is required")
	}
	if cfg.YooKassa.ShopID == "" {
		return nil, errors.New("yookassa.shop_id is required")
	}
	if cfg.YooKassa.SecretKey == "" {
		return nil, errors.New("yookassa.secret_key is required")
	}
	if cfg.YooKassa.ReturnURL == "" {
		return nil, errors.New("yookassa.return_url is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
