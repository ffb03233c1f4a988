package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"creator-marketplace-service/internal/domain"
	"creator-marketplace-service/internal/observability"
	"creator-marketplace-service/internal/repository"
	"creator-marketplace-service/internal/security"
)

const verificationTokenBytes = 32

type SignupInput struct {
	Email    string
	Name     string
	Password string
	Role     string
}

// LoginResult is what a successful login or refresh hands back: the raw
// token pair for the cookies plus the freshly created session.
type LoginResult struct {
	User         *domain.User
	Session      *domain.Session
	AccessToken  string
	RefreshToken string
}

type AuthServiceInterface interface {
	Signup(ctx context.Context, in SignupInput) (*domain.User, error)
	VerifyEmail(ctx context.Context, token string) error
	ResendVerification(ctx context.Context, email string) error
	Login(ctx context.Context, email, password string, dev DeviceInfo) (*LoginResult, error)
	Refresh(ctx context.Context, refreshToken string, dev DeviceInfo) (*LoginResult, error)
	Logout(ctx context.Context, presentedToken string) error
	LogoutAll(ctx context.Context, userID uint) (int64, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

type AuthService struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	tokens   repository.VerificationTokenRepository
	jwt      *security.JWTManager
	hasher   *security.PasswordHasher
	notifier Notifier
	logger   *slog.Logger

	tokenPepper          string
	tokenTTL             time.Duration
	sessionTTL           time.Duration
	verificationTokenTTL time.Duration
	resetTokenTTL        time.Duration
	bootstrapAdminEmail  string
}

type AuthServiceConfig struct {
	TokenPepper          string
	TokenTTL             time.Duration
	SessionTTL           time.Duration
	VerificationTokenTTL time.Duration
	ResetTokenTTL        time.Duration
	BootstrapAdminEmail  string
}

func NewAuthService(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	tokens repository.VerificationTokenRepository,
	jwtMgr *security.JWTManager,
	hasher *security.PasswordHasher,
	notifier Notifier,
	logger *slog.Logger,
	cfg AuthServiceConfig,
) *AuthService {
	return &AuthService{
		users:                users,
		sessions:             sessions,
		tokens:               tokens,
		jwt:                  jwtMgr,
		hasher:               hasher,
		notifier:             notifier,
		logger:               logger,
		tokenPepper:          cfg.TokenPepper,
		tokenTTL:             cfg.TokenTTL,
		sessionTTL:           cfg.SessionTTL,
		verificationTokenTTL: cfg.VerificationTokenTTL,
		resetTokenTTL:        cfg.ResetTokenTTL,
		bootstrapAdminEmail:  cfg.BootstrapAdminEmail,
	}
}

func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*domain.User, error) {
	email := repository.NormalizeEmail(in.Email)

	if existing, err := s.users.FindByEmail(email); err == nil {
		if existing.EmailVerified {
			observability.RecordAuthEvent(ctx, "signup", "email_exists")
			return nil, ErrEmailExists
		}
		// Unverified duplicate: re-issue the verification token rather
		// than leaking whether the address is registered.
		s.issueVerification(ctx, existing)
		return existing, nil
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	role := in.Role
	if !domain.ValidSignupRole(role) {
		role = domain.RoleCreator
	}
	if s.bootstrapAdminEmail != "" && email == s.bootstrapAdminEmail {
		role = domain.RoleAdmin
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &domain.User{
		Email:        email,
		Name:         in.Name,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.users.Create(user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			observability.RecordAuthEvent(ctx, "signup", "email_exists")
			return nil, ErrEmailExists
		}
		return nil, err
	}

	s.issueVerification(ctx, user)
	observability.RecordAuthEvent(ctx, "signup", "success")
	return user, nil
}

// issueVerification creates a fresh email-verification token and fires
// the notification. Failures are logged, never surfaced: the signup
// itself already succeeded.
func (s *AuthService) issueVerification(ctx context.Context, user *domain.User) {
	raw, err := security.NewRandomToken(verificationTokenBytes)
	if err != nil {
		s.logger.ErrorContext(ctx, "generate verification token", "user_id", user.ID, "error", err)
		return
	}
	now := time.Now().UTC()
	if err := s.tokens.InvalidateActiveByUserPurpose(user.ID, domain.TokenPurposeEmailVerify, now); err != nil {
		s.logger.WarnContext(ctx, "invalidate old verification tokens", "user_id", user.ID, "error", err)
	}
	token := &domain.VerificationToken{
		UserID:    user.ID,
		TokenHash: security.HashToken(raw, s.tokenPepper),
		Purpose:   domain.TokenPurposeEmailVerify,
		ExpiresAt: now.Add(s.verificationTokenTTL),
	}
	if err := s.tokens.Create(token); err != nil {
		s.logger.ErrorContext(ctx, "persist verification token", "user_id", user.ID, "error", err)
		return
	}
	if err := s.notifier.SendVerificationEmail(ctx, user.Email, raw); err != nil {
		s.logger.WarnContext(ctx, "send verification email", "user_id", user.ID, "error", err)
	}
}

func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	now := time.Now().UTC()
	record, err := s.tokens.FindActiveByHashPurpose(security.HashToken(token, s.tokenPepper), domain.TokenPurposeEmailVerify, now)
	if err != nil {
		observability.RecordAuthEvent(ctx, "verify_email", "invalid_token")
		return security.ErrInvalidToken
	}
	if err := s.tokens.Consume(record.ID, record.UserID, now); err != nil {
		observability.RecordAuthEvent(ctx, "verify_email", "invalid_token")
		return security.ErrInvalidToken
	}
	if err := s.users.MarkEmailVerified(record.UserID); err != nil {
		return err
	}
	observability.RecordAuthEvent(ctx, "verify_email", "success")
	return nil
}

func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil
		}
		return err
	}
	if user.EmailVerified {
		return nil
	}
	s.issueVerification(ctx, user)
	return nil
}

func (s *AuthService) Login(ctx context.Context, email, password string, dev DeviceInfo) (*LoginResult, error) {
	user, err := s.users.FindByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			observability.RecordAuthEvent(ctx, "login", "invalid_credentials")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if user.PasswordHash == "" || !s.hasher.Verify(password, user.PasswordHash) {
		observability.RecordAuthEvent(ctx, "login", "invalid_credentials")
		return nil, ErrInvalidCredentials
	}
	if !user.EmailVerified {
		observability.RecordAuthEvent(ctx, "login", "email_not_verified")
		return nil, ErrEmailNotVerified
	}

	// Housekeeping, not blocking: a failed sweep never fails the login.
	if n, err := s.sessions.SweepExpired(time.Now().UTC()); err != nil {
		s.logger.WarnContext(ctx, "session sweep during login", "error", err)
	} else {
		observability.RecordSessionsSwept(ctx, n)
	}

	result, err := s.createSession(ctx, user, dev)
	if err != nil {
		return nil, err
	}
	if err := s.users.TouchLastLogin(user.ID, time.Now().UTC()); err != nil {
		s.logger.WarnContext(ctx, "touch last login", "user_id", user.ID, "error", err)
	}
	observability.RecordAuthEvent(ctx, "login", "success")
	return result, nil
}

// createSession mints a token pair and persists the session row. A hash
// collision is cryptographically negligible but still handled: one retry
// with freshly minted tokens.
func (s *AuthService) createSession(ctx context.Context, user *domain.User, dev DeviceInfo) (*LoginResult, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		access, err := s.jwt.Sign(user.ID, user.Role, s.tokenTTL)
		if err != nil {
			return nil, err
		}
		refresh, err := s.jwt.Sign(user.ID, user.Role, s.tokenTTL)
		if err != nil {
			return nil, err
		}

		now := time.Now().UTC()
		device := classifyDevice(dev.UserAgent)
		session := &domain.Session{
			UserID:           user.ID,
			AccessTokenHash:  security.HashToken(access, s.tokenPepper),
			RefreshTokenHash: security.HashToken(refresh, s.tokenPepper),
			UserAgent:        dev.UserAgent,
			IP:               dev.IP,
			Browser:          device.Browser,
			OS:               device.OS,
			DeviceType:       device.DeviceType,
			LastActivity:     now,
			ExpiresAt:        now.Add(s.sessionTTL),
		}
		if err := s.sessions.Create(session); err != nil {
			if errors.Is(err, repository.ErrSessionTokenConflict) {
				lastErr = err
				s.logger.WarnContext(ctx, "session token collision, regenerating", "user_id", user.ID)
				continue
			}
			return nil, err
		}
		return &LoginResult{User: user, Session: session, AccessToken: access, RefreshToken: refresh}, nil
	}
	return nil, lastErr
}

// Refresh rotates the session: the presented refresh token's session is
// revoked and a brand-new session is created, never mutated in place.
// Any resolution failure is terminal for the caller.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, dev DeviceInfo) (*LoginResult, error) {
	if _, err := s.jwt.Parse(refreshToken); err != nil {
		observability.RecordAuthEvent(ctx, "refresh", "invalid_token")
		return nil, security.ErrInvalidToken
	}
	now := time.Now().UTC()
	session, err := s.sessions.FindActiveByRefreshHash(security.HashToken(refreshToken, s.tokenPepper), now)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			observability.RecordAuthEvent(ctx, "refresh", "invalid_token")
			return nil, security.ErrInvalidToken
		}
		return nil, err
	}
	user, err := s.users.FindByID(session.UserID)
	if err != nil {
		return nil, err
	}

	// First writer wins: a concurrent refresh on the same token finds
	// the session already revoked and fails as a replay.
	revoked, err := s.sessions.Revoke(session.ID, domain.RevokeReasonRotation, now)
	if err != nil {
		return nil, err
	}
	if !revoked {
		observability.RecordAuthEvent(ctx, "refresh", "replay")
		return nil, security.ErrInvalidToken
	}
	observability.RecordSessionRevokedCount(ctx, "rotation", 1)

	result, err := s.createSession(ctx, user, dev)
	if err != nil {
		return nil, err
	}
	observability.RecordAuthEvent(ctx, "refresh", "success")
	return result, nil
}

// Logout resolves the presented token as either an access or a refresh
// token and revokes its session. Absence is not an error: logging out
// twice, or with an already-expired session, succeeds silently.
func (s *AuthService) Logout(ctx context.Context, presentedToken string) error {
	if presentedToken == "" {
		return nil
	}
	now := time.Now().UTC()
	hash := security.HashToken(presentedToken, s.tokenPepper)

	session, err := s.sessions.FindActiveByAccessHash(hash, now)
	if errors.Is(err, repository.ErrSessionNotFound) {
		session, err = s.sessions.FindActiveByRefreshHash(hash, now)
	}
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			observability.RecordAuthEvent(ctx, "logout", "no_session")
			return nil
		}
		return err
	}

	if _, err := s.sessions.Revoke(session.ID, domain.RevokeReasonLogout, now); err != nil {
		return err
	}
	observability.RecordAuthEvent(ctx, "logout", "success")
	observability.RecordSessionRevokedCount(ctx, "logout", 1)
	return nil
}

func (s *AuthService) LogoutAll(ctx context.Context, userID uint) (int64, error) {
	n, err := s.sessions.RevokeAllByUser(userID, domain.RevokeReasonLogoutAll, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	observability.RecordAuthEvent(ctx, "logout_all", "success")
	observability.RecordSessionRevokedCount(ctx, "logout_all", n)
	return n, nil
}

// RequestPasswordReset always succeeds outwardly, whether or not the
// address is registered.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil
		}
		return err
	}
	raw, err := security.NewRandomToken(verificationTokenBytes)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if err := s.tokens.InvalidateActiveByUserPurpose(user.ID, domain.TokenPurposePasswordReset, now); err != nil {
		s.logger.WarnContext(ctx, "invalidate old reset tokens", "user_id", user.ID, "error", err)
	}
	token := &domain.VerificationToken{
		UserID:    user.ID,
		TokenHash: security.HashToken(raw, s.tokenPepper),
		Purpose:   domain.TokenPurposePasswordReset,
		ExpiresAt: now.Add(s.resetTokenTTL),
	}
	if err := s.tokens.Create(token); err != nil {
		return err
	}
	if err := s.notifier.SendPasswordResetEmail(ctx, user.Email, raw); err != nil {
		s.logger.WarnContext(ctx, "send password reset email", "user_id", user.ID, "error", err)
	}
	observability.RecordAuthEvent(ctx, "password_reset_request", "success")
	return nil
}

// ResetPassword consumes the reset token, replaces the hash and revokes
// every session the user holds: a credential reset must revoke all
// standing access, not just future logins.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	now := time.Now().UTC()
	record, err := s.tokens.FindActiveByHashPurpose(security.HashToken(token, s.tokenPepper), domain.TokenPurposePasswordReset, now)
	if err != nil {
		observability.RecordAuthEvent(ctx, "password_reset", "invalid_token")
		return security.ErrInvalidToken
	}
	if err := s.tokens.Consume(record.ID, record.UserID, now); err != nil {
		observability.RecordAuthEvent(ctx, "password_reset", "invalid_token")
		return security.ErrInvalidToken
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(record.UserID, hash); err != nil {
		return err
	}

	n, err := s.sessions.RevokeAllByUser(record.UserID, domain.RevokeReasonPasswordReset, now)
	if err != nil {
		return err
	}
	observability.RecordAuthEvent(ctx, "password_reset", "success")
	observability.RecordSessionRevokedCount(ctx, "password_reset", n)
	return nil
}
