package app

import (
	"time"

	"github.com/openshelf/openshelf-backend/internal/platform/envutil"
)

type Config struct {
	Port            string
	JWTSecretKey    string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	MetricsAddr     string
}

func LoadConfig() Config {
	return Config{
		Port:            envutil.Str("PORT", "8080"),
		JWTSecretKey:    envutil.Str("JWT_SECRET_KEY", "defaultsecret"),
		AccessTokenTTL:  time.Duration(envutil.Int("ACCESS_TOKEN_TTL", 3600)) * time.Second,
		RefreshTokenTTL: time.Duration(envutil.Int("REFRESH_TOKEN_TTL", 86400)) * time.Second,
		MetricsAddr:     envutil.Str("METRICS_ADDR", ""),
	}
}
