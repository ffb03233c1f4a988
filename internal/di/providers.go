package di

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"creator-marketplace-service/internal/app"
	"creator-marketplace-service/internal/config"
	"creator-marketplace-service/internal/database"
	"creator-marketplace-service/internal/http/handler"
	"creator-marketplace-service/internal/http/middleware"
	"creator-marketplace-service/internal/http/router"
	"creator-marketplace-service/internal/observability"
	"creator-marketplace-service/internal/repository"
	"creator-marketplace-service/internal/security"
	"creator-marketplace-service/internal/service"
)

var ConfigSet = wire.NewSet(config.Load)

var ObservabilitySet = wire.NewSet(provideLogger)

var RuntimeInfraSet = wire.NewSet(
	provideOpenDB,
	provideRedisClient,
	provideRateLimitStore,
	provideStorageService,
	provideNotifier,
)

var RepositorySet = wire.NewSet(
	repository.NewUserRepository,
	repository.NewSessionRepository,
	repository.NewVerificationTokenRepository,
)

var SecuritySet = wire.NewSet(
	provideKeyPair,
	provideJWTManager,
	security.NewPasswordHasher,
	provideCookieManager,
)

var ServiceSet = wire.NewSet(
	provideAuthService,
	wire.Bind(new(service.AuthServiceInterface), new(*service.AuthService)),
	service.NewSessionService,
	wire.Bind(new(service.SessionServiceInterface), new(*service.SessionService)),
	provideSweeper,
)

var HTTPSet = wire.NewSet(
	provideAuthGate,
	provideAuthHandler,
	handler.NewUserHandler,
	handler.NewHealthHandler,
	provideRouterDependencies,
	router.New,
	provideHTTPServer,
)

var AppSet = wire.NewSet(app.New)

func provideLogger(cfg *config.Config) *slog.Logger {
	logger := observability.NewLogger(cfg.LogLevel)
	slog.SetDefault(logger)
	return logger
}

func provideOpenDB(cfg *config.Config) (*gorm.DB, error) {
	return database.Open(cfg)
}

// provideRedisClient returns nil when no Redis address is configured;
// rate limiting then falls back to the in-process store.
func provideRedisClient(cfg *config.Config) redis.UniversalClient {
	if cfg.RedisAddr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
}

func provideRateLimitStore(cfg *config.Config, client redis.UniversalClient, logger *slog.Logger) middleware.Limiter {
	if client == nil {
		logger.Info("rate limiting using in-process store")
		return middleware.NewLocalFixedWindowLimiter()
	}
	logger.Info("rate limiting using redis store", "addr", cfg.RedisAddr)
	return middleware.NewRedisFixedWindowLimiter(client, "rl")
}

func provideStorageService(cfg *config.Config, logger *slog.Logger) (service.StorageService, error) {
	if cfg.MinioEndpoint == "" {
		logger.Warn("object storage not configured, avatar endpoints disabled")
		return nil, nil
	}
	return service.NewMinioStorageService(service.MinioStorageConfig{
		Endpoint:  cfg.MinioEndpoint,
		AccessKey: cfg.MinioAccessKey,
		SecretKey: cfg.MinioSecretKey,
		Bucket:    cfg.MinioBucket,
		UseSSL:    cfg.MinioUseSSL,
		URLExpiry: cfg.AvatarURLExpiry,
	})
}

func provideNotifier(cfg *config.Config, logger *slog.Logger) service.Notifier {
	return service.NewDevNotifier(logger, cfg.AppBaseURL)
}

func provideKeyPair(cfg *config.Config) (*security.KeyPair, error) {
	return security.LoadKeyPair(cfg.JWTPrivateKeyPath, cfg.JWTPublicKeyPath)
}

func provideJWTManager(cfg *config.Config, keys *security.KeyPair) *security.JWTManager {
	return security.NewJWTManager(cfg.JWTIssuer, cfg.JWTAudience, keys)
}

func provideCookieManager(cfg *config.Config) *security.CookieManager {
	return security.NewCookieManager(cfg.CookieDomain, cfg.CookieSecure)
}

func provideAuthService(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	tokens repository.VerificationTokenRepository,
	jwtMgr *security.JWTManager,
	hasher *security.PasswordHasher,
	notifier service.Notifier,
	logger *slog.Logger,
	cfg *config.Config,
) *service.AuthService {
	return service.NewAuthService(users, sessions, tokens, jwtMgr, hasher, notifier, logger, service.AuthServiceConfig{
		TokenPepper:          cfg.TokenPepper,
		TokenTTL:             cfg.TokenTTL,
		SessionTTL:           cfg.SessionTTL,
		VerificationTokenTTL: cfg.VerificationTokenTTL,
		ResetTokenTTL:        cfg.ResetTokenTTL,
		BootstrapAdminEmail:  cfg.BootstrapAdminEmail,
	})
}

func provideSweeper(sessions repository.SessionRepository, cfg *config.Config, logger *slog.Logger) *service.SessionSweeper {
	return service.NewSessionSweeper(sessions, cfg.SweepInterval, logger)
}

func provideAuthGate(jwtMgr *security.JWTManager, sessions repository.SessionRepository, users repository.UserRepository, cfg *config.Config, logger *slog.Logger) *middleware.AuthGate {
	return middleware.NewAuthGate(jwtMgr, sessions, users, cfg.TokenPepper, logger)
}

func provideAuthHandler(auth service.AuthServiceInterface, cookies *security.CookieManager, logger *slog.Logger, cfg *config.Config) *handler.AuthHandler {
	return handler.NewAuthHandler(auth, cookies, logger, cfg.TokenTTL)
}

func provideRouterDependencies(
	auth *handler.AuthHandler,
	users *handler.UserHandler,
	health *handler.HealthHandler,
	gate *middleware.AuthGate,
	limiter middleware.Limiter,
	jwtMgr *security.JWTManager,
	cfg *config.Config,
) router.Dependencies {
	return router.Dependencies{
		Auth:              auth,
		Users:             users,
		Health:            health,
		Gate:              gate,
		Limiter:           limiter,
		RateLimitKeyFunc:  middleware.SubjectOrIPKeyFunc(jwtMgr),
		RateLimitFailOpen: cfg.RateLimitFailOpen,
		AuthRateLimitRPM:  cfg.AuthRateLimitPerMin,
		APIRateLimitRPM:   cfg.APIRateLimitPerMin,
		CORSOrigins:       cfg.CORSAllowedOrigins,
	}
}

func provideHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           h,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// MigrationRunner runs schema migration and exits, for the migrate
// subcommand.
type MigrationRunner struct {
	db *gorm.DB
}

func NewMigrationRunner(db *gorm.DB) *MigrationRunner {
	return &MigrationRunner{db: db}
}

func (m *MigrationRunner) Run() error {
	return database.Migrate(m.db)
}
