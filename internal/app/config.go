package app

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/knowledgebase-backend/internal/pkg/logger"
	"github.com/yungbote/knowledgebase-backend/internal/utils"
)

type Config struct {
	ServiceName string
	Environment string
	Version     string

	Port    string
	GinMode string

	JWTSecretKey    string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	RateLimitRequests int
	RateLimitWindow   time.Duration
	MaxBodyBytes      int64
}

// fileConfig is the optional YAML overlay read from CONFIG_PATH.
// Environment variables win over file values.
type fileConfig struct {
	ServiceName       string `yaml:"service_name"`
	Environment       string `yaml:"environment"`
	Port              string `yaml:"port"`
	GinMode           string `yaml:"gin_mode"`
	JWTSecretKey      string `yaml:"jwt_secret_key"`
	AccessTokenTTL    int    `yaml:"access_token_ttl_seconds"`
	RefreshTokenTTL   int    `yaml:"refresh_token_ttl_seconds"`
	RateLimitRequests int    `yaml:"rate_limit_requests"`
	RateLimitWindow   int    `yaml:"rate_limit_window_seconds"`
	MaxBodyMB         int    `yaml:"max_body_mb"`
}

func LoadConfig(log *logger.Logger) (Config, error) {
	var file fileConfig
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &file); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
		log.Info("Loaded config overlay", "path", path)
	}

	cfg := Config{
		ServiceName:       utils.GetEnv("SERVICE_NAME", fallback(file.ServiceName, "knowledgebase-backend"), log),
		Environment:       utils.GetEnv("APP_ENV", fallback(file.Environment, "development"), log),
		Version:           utils.GetEnv("APP_VERSION", "dev", log),
		Port:              utils.GetEnv("PORT", fallback(file.Port, "8080"), log),
		GinMode:           utils.GetEnv("GIN_MODE", fallback(file.GinMode, "debug"), log),
		JWTSecretKey:      utils.GetEnv("JWT_SECRET_KEY", fallback(file.JWTSecretKey, "defaultsecret"), log),
		AccessTokenTTL:    time.Duration(utils.GetEnvAsInt("ACCESS_TOKEN_TTL", fallbackInt(file.AccessTokenTTL, 3600), log)) * time.Second,
		RefreshTokenTTL:   time.Duration(utils.GetEnvAsInt("REFRESH_TOKEN_TTL", fallbackInt(file.RefreshTokenTTL, 604800), log)) * time.Second,
		RateLimitRequests: utils.GetEnvAsInt("RATE_LIMIT_REQUESTS", fallbackInt(file.RateLimitRequests, 100), log),
		RateLimitWindow:   time.Duration(utils.GetEnvAsInt("RATE_LIMIT_WINDOW_SECONDS", fallbackInt(file.RateLimitWindow, 900), log)) * time.Second,
		MaxBodyBytes:      int64(utils.GetEnvAsInt("MAX_BODY_MB", fallbackInt(file.MaxBodyMB, 10), log)) << 20,
	}
	if cfg.JWTSecretKey == "defaultsecret" && cfg.Environment == "production" {
		return Config{}, fmt.Errorf("JWT_SECRET_KEY must be set in production")
	}
	return cfg, nil
}

func fallback(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func fallbackInt(v, def int) int {
	if v != 0 {
		return v
	}
	return def
}
