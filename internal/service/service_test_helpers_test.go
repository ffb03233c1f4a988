package service

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"creator-marketplace-service/internal/domain"
	"creator-marketplace-service/internal/security"
)

func newTestJWTManager(t *testing.T) *security.JWTManager {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}
	return security.NewJWTManager("test-issuer", "test-audience", &security.KeyPair{Private: key, Public: &key.PublicKey})
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubUserRepository struct {
	createFn            func(user *domain.User) error
	findByIDFn          func(id uint) (*domain.User, error)
	findByEmailFn       func(email string) (*domain.User, error)
	updatePasswordFn    func(userID uint, hash string) error
	markEmailVerifiedFn func(userID uint) error
	touchLastLoginFn    func(userID uint, at time.Time) error
}

func (s *stubUserRepository) Create(user *domain.User) error {
	if s.createFn == nil {
		return errors.New("not implemented")
	}
	return s.createFn(user)
}
func (s *stubUserRepository) FindByID(id uint) (*domain.User, error) {
	if s.findByIDFn == nil {
		return nil, errors.New("not implemented")
	}
	return s.findByIDFn(id)
}
func (s *stubUserRepository) FindByEmail(email string) (*domain.User, error) {
	if s.findByEmailFn == nil {
		return nil, errors.New("not implemented")
	}
	return s.findByEmailFn(email)
}
func (s *stubUserRepository) UpdatePassword(userID uint, hash string) error {
	if s.updatePasswordFn == nil {
		return errors.New("not implemented")
	}
	return s.updatePasswordFn(userID, hash)
}
func (s *stubUserRepository) MarkEmailVerified(userID uint) error {
	if s.markEmailVerifiedFn == nil {
		return errors.New("not implemented")
	}
	return s.markEmailVerifiedFn(userID)
}
func (s *stubUserRepository) UpdateAvatarKey(_ uint, _ string) error {
	return errors.New("not implemented")
}
func (s *stubUserRepository) TouchLastLogin(userID uint, at time.Time) error {
	if s.touchLastLoginFn == nil {
		return nil
	}
	return s.touchLastLoginFn(userID, at)
}
func (s *stubUserRepository) List() ([]domain.User, error) {
	return nil, errors.New("not implemented")
}

type stubSessionRepository struct {
	createFn                  func(session *domain.Session) error
	findByIDFn                func(id uint) (*domain.Session, error)
	findActiveByAccessHashFn  func(hash string, now time.Time) (*domain.Session, error)
	findActiveByRefreshHashFn func(hash string, now time.Time) (*domain.Session, error)
	listActiveByUserFn        func(userID uint, now time.Time) ([]domain.Session, error)
	revokeFn                  func(id uint, reason string, at time.Time) (bool, error)
	revokeAllByUserFn         func(userID uint, reason string, at time.Time) (int64, error)
	revokeByIDForUserFn       func(userID, id uint, reason string, at time.Time) (bool, error)
	sweepExpiredFn            func(now time.Time) (int64, error)
}

func (s *stubSessionRepository) Create(session *domain.Session) error {
	if s.createFn == nil {
		return errors.New("not implemented")
	}
	return s.createFn(session)
}
func (s *stubSessionRepository) FindByID(id uint) (*domain.Session, error) {
	if s.findByIDFn == nil {
		return nil, errors.New("not implemented")
	}
	return s.findByIDFn(id)
}
func (s *stubSessionRepository) FindActiveByAccessHash(hash string, now time.Time) (*domain.Session, error) {
	if s.findActiveByAccessHashFn == nil {
		return nil, errors.New("not implemented")
	}
	return s.findActiveByAccessHashFn(hash, now)
}
func (s *stubSessionRepository) FindActiveByRefreshHash(hash string, now time.Time) (*domain.Session, error) {
	if s.findActiveByRefreshHashFn == nil {
		return nil, errors.New("not implemented")
	}
	return s.findActiveByRefreshHashFn(hash, now)
}
func (s *stubSessionRepository) ListActiveByUser(userID uint, now time.Time) ([]domain.Session, error) {
	if s.listActiveByUserFn == nil {
		return nil, errors.New("not implemented")
	}
	return s.listActiveByUserFn(userID, now)
}
func (s *stubSessionRepository) TouchActivity(_ uint, _ time.Time) error { return nil }
func (s *stubSessionRepository) Revoke(id uint, reason string, at time.Time) (bool, error) {
	if s.revokeFn == nil {
		return false, errors.New("not implemented")
	}
	return s.revokeFn(id, reason, at)
}
func (s *stubSessionRepository) RevokeAllByUser(userID uint, reason string, at time.Time) (int64, error) {
	if s.revokeAllByUserFn == nil {
		return 0, errors.New("not implemented")
	}
	return s.revokeAllByUserFn(userID, reason, at)
}
func (s *stubSessionRepository) RevokeByIDForUser(userID, id uint, reason string, at time.Time) (bool, error) {
	if s.revokeByIDForUserFn == nil {
		return false, errors.New("not implemented")
	}
	return s.revokeByIDForUserFn(userID, id, reason, at)
}
func (s *stubSessionRepository) SweepExpired(now time.Time) (int64, error) {
	if s.sweepExpiredFn == nil {
		return 0, nil
	}
	return s.sweepExpiredFn(now)
}

type stubTokenRepository struct {
	createFn                  func(token *domain.VerificationToken) error
	findActiveByHashPurposeFn func(hash, purpose string, now time.Time) (*domain.VerificationToken, error)
	consumeFn                 func(id, userID uint, now time.Time) error
}

func (s *stubTokenRepository) Create(token *domain.VerificationToken) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(token)
}
func (s *stubTokenRepository) FindActiveByHashPurpose(hash, purpose string, now time.Time) (*domain.VerificationToken, error) {
	if s.findActiveByHashPurposeFn == nil {
		return nil, errors.New("not implemented")
	}
	return s.findActiveByHashPurposeFn(hash, purpose, now)
}
func (s *stubTokenRepository) Consume(id, userID uint, now time.Time) error {
	if s.consumeFn == nil {
		return nil
	}
	return s.consumeFn(id, userID, now)
}
func (s *stubTokenRepository) InvalidateActiveByUserPurpose(_ uint, _ string, _ time.Time) error {
	return nil
}

type recordingNotifier struct {
	mu                 sync.Mutex
	verificationEmails []string
	resetEmails        []string
	lastToken          string
}

func (n *recordingNotifier) SendVerificationEmail(_ context.Context, email, token string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.verificationEmails = append(n.verificationEmails, email)
	n.lastToken = token
	return nil
}

func (n *recordingNotifier) SendPasswordResetEmail(_ context.Context, email, token string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.resetEmails = append(n.resetEmails, email)
	n.lastToken = token
	return nil
}
