package integration

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"creator-marketplace-service/internal/domain"
	"creator-marketplace-service/internal/http/handler"
	"creator-marketplace-service/internal/http/middleware"
	"creator-marketplace-service/internal/http/router"
	"creator-marketplace-service/internal/repository"
	"creator-marketplace-service/internal/security"
	"creator-marketplace-service/internal/service"
)

const integrationPepper = "integration-test-pepper"

// captureNotifier records the raw tokens that would be emailed, so the
// test can walk the verification and reset flows end to end.
type captureNotifier struct {
	mu                sync.Mutex
	verificationToken string
	resetToken        string
}

func (n *captureNotifier) SendVerificationEmail(_ context.Context, _ string, token string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.verificationToken = token
	return nil
}

func (n *captureNotifier) SendPasswordResetEmail(_ context.Context, _ string, token string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.resetToken = token
	return nil
}

func (n *captureNotifier) lastVerificationToken() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.verificationToken
}

func (n *captureNotifier) lastResetToken() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.resetToken
}

type authTestServer struct {
	*httptest.Server
	notifier *captureNotifier
	db       *gorm.DB
}

func newAuthTestServer(t *testing.T) *authTestServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.User{}, &domain.Session{}, &domain.VerificationToken{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}
	jwtMgr := security.NewJWTManager("integration-issuer", "integration-audience", &security.KeyPair{Private: key, Public: &key.PublicKey})

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	users := repository.NewUserRepository(db)
	sessions := repository.NewSessionRepository(db)
	tokens := repository.NewVerificationTokenRepository(db)
	notifier := &captureNotifier{}

	authSvc := service.NewAuthService(users, sessions, tokens, jwtMgr, security.NewPasswordHasher(), notifier, log, service.AuthServiceConfig{
		TokenPepper:          integrationPepper,
		TokenTTL:             time.Hour,
		SessionTTL:           time.Hour,
		VerificationTokenTTL: time.Hour,
		ResetTokenTTL:        time.Hour,
	})
	sessionSvc := service.NewSessionService(sessions)
	cookies := security.NewCookieManager("", false)
	gate := middleware.NewAuthGate(jwtMgr, sessions, users, integrationPepper, log)

	h := router.New(router.Dependencies{
		Auth:             handler.NewAuthHandler(authSvc, cookies, log, time.Hour),
		Users:            handler.NewUserHandler(users, sessionSvc, nil, log),
		Health:           handler.NewHealthHandler(db),
		Gate:             gate,
		AuthRateLimitRPM: 1000,
		APIRateLimitRPM:  1000,
		CORSOrigins:      []string{"http://localhost:3000"},
	})

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return &authTestServer{Server: srv, notifier: notifier, db: db}
}

func newClientWithJar(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &http.Client{Jar: jar}
}

func postJSON(t *testing.T, client *http.Client, url, body string) *http.Response {
	t.Helper()
	resp, err := client.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func getJSON(t *testing.T, client *http.Client, url string) *http.Response {
	t.Helper()
	resp, err := client.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	return resp
}
