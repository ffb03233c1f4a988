package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env      string
	HTTPPort string
	LogLevel string

	DatabaseURL string

	JWTIssuer         string
	JWTAudience       string
	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	TokenTTL          time.Duration
	SessionTTL        time.Duration
	TokenPepper       string

	VerificationTokenTTL time.Duration
	ResetTokenTTL        time.Duration
	AppBaseURL           string

	CookieDomain string
	CookieSecure bool

	CORSAllowedOrigins  []string
	BootstrapAdminEmail string

	AuthRateLimitPerMin int
	APIRateLimitPerMin  int
	RedisAddr           string
	RateLimitFailOpen   bool

	SweepInterval time.Duration

	MinioEndpoint   string
	MinioAccessKey  string
	MinioSecretKey  string
	MinioBucket     string
	MinioUseSSL     bool
	AvatarURLExpiry time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		Env:                 getEnv("APP_ENV", "development"),
		HTTPPort:            getEnv("HTTP_PORT", "8080"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		JWTIssuer:           getEnv("JWT_ISSUER", "creator-marketplace-service"),
		JWTAudience:         getEnv("JWT_AUDIENCE", "creator-marketplace-api"),
		JWTPrivateKeyPath:   getEnv("JWT_PRIVATE_KEY_PATH", "keys/private.pem"),
		JWTPublicKeyPath:    getEnv("JWT_PUBLIC_KEY_PATH", "keys/public.pem"),
		TokenPepper:         os.Getenv("TOKEN_PEPPER"),
		AppBaseURL:          getEnv("APP_BASE_URL", "http://localhost:3000"),
		CookieDomain:        os.Getenv("COOKIE_DOMAIN"),
		CookieSecure:        getEnvBool("COOKIE_SECURE", true),
		CORSAllowedOrigins:  splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		BootstrapAdminEmail: strings.TrimSpace(strings.ToLower(os.Getenv("BOOTSTRAP_ADMIN_EMAIL"))),
		AuthRateLimitPerMin: getEnvInt("AUTH_RATE_LIMIT_PER_MIN", 30),
		APIRateLimitPerMin:  getEnvInt("API_RATE_LIMIT_PER_MIN", 120),
		RedisAddr:           os.Getenv("REDIS_ADDR"),
		RateLimitFailOpen:   getEnvBool("RATE_LIMIT_FAIL_OPEN", false),
		MinioEndpoint:       os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey:      os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey:      os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:         getEnv("MINIO_BUCKET", "avatars"),
		MinioUseSSL:         getEnvBool("MINIO_USE_SSL", false),
	}

	var err error
	// Access and refresh tokens share one 90-day lifetime. Session validity
	// is enforced server-side through the session store, not token expiry.
	if cfg.TokenTTL, err = parseDurationEnv("TOKEN_TTL", "2160h"); err != nil {
		return nil, err
	}
	if cfg.SessionTTL, err = parseDurationEnv("SESSION_TTL", "2160h"); err != nil {
		return nil, err
	}
	if cfg.VerificationTokenTTL, err = parseDurationEnv("VERIFICATION_TOKEN_TTL", "24h"); err != nil {
		return nil, err
	}
	if cfg.ResetTokenTTL, err = parseDurationEnv("RESET_TOKEN_TTL", "1h"); err != nil {
		return nil, err
	}
	if cfg.SweepInterval, err = parseDurationEnv("SESSION_SWEEP_INTERVAL", "1h"); err != nil {
		return nil, err
	}
	if cfg.AvatarURLExpiry, err = parseDurationEnv("AVATAR_URL_EXPIRY", "15m"); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []string
	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}
	if len(c.TokenPepper) < 16 {
		errs = append(errs, "TOKEN_PEPPER must be at least 16 chars")
	}
	if c.JWTPrivateKeyPath == "" || c.JWTPublicKeyPath == "" {
		errs = append(errs, "JWT key paths are required")
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, "TOKEN_TTL must be > 0")
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, "SESSION_TTL must be > 0")
	}
	if c.AuthRateLimitPerMin <= 0 {
		errs = append(errs, "AUTH_RATE_LIMIT_PER_MIN must be > 0")
	}
	if c.APIRateLimitPerMin <= 0 {
		errs = append(errs, "API_RATE_LIMIT_PER_MIN must be > 0")
	}
	if c.SweepInterval <= 0 {
		errs = append(errs, "SESSION_SWEEP_INTERVAL must be > 0")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func parseDurationEnv(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getEnv(key, def))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func getEnv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trim := strings.TrimSpace(p)
		if trim != "" {
			out = append(out, trim)
		}
	}
	return out
}
