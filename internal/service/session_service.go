package service

import (
	"context"
	"errors"
	"time"

	"creator-marketplace-service/internal/domain"
	"creator-marketplace-service/internal/observability"
	"creator-marketplace-service/internal/repository"
)

// SessionView is the device-listing projection of a session; token
// hashes never leave the repository layer.
type SessionView struct {
	ID           uint      `json:"id"`
	Browser      string    `json:"browser"`
	OS           string    `json:"os"`
	DeviceType   string    `json:"device_type"`
	IP           string    `json:"ip"`
	LastActivity time.Time `json:"last_activity"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
	IsCurrent    bool      `json:"is_current"`
}

type SessionServiceInterface interface {
	ListActiveSessions(userID, currentSessionID uint) ([]SessionView, error)
	RevokeSession(userID, sessionID uint) (string, error)
}

type SessionService struct {
	sessions repository.SessionRepository
}

func NewSessionService(sessions repository.SessionRepository) *SessionService {
	return &SessionService{sessions: sessions}
}

func (s *SessionService) ListActiveSessions(userID, currentSessionID uint) ([]SessionView, error) {
	sessions, err := s.sessions.ListActiveByUser(userID, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	views := make([]SessionView, 0, len(sessions))
	for _, sess := range sessions {
		views = append(views, SessionView{
			ID:           sess.ID,
			Browser:      sess.Browser,
			OS:           sess.OS,
			DeviceType:   sess.DeviceType,
			IP:           sess.IP,
			LastActivity: sess.LastActivity,
			CreatedAt:    sess.CreatedAt,
			ExpiresAt:    sess.ExpiresAt,
			IsCurrent:    sess.ID == currentSessionID,
		})
	}
	return views, nil
}

// RevokeSession enforces ownership: revoking another user's session is
// forbidden and leaves the target untouched, an unknown id is not found.
func (s *SessionService) RevokeSession(userID, sessionID uint) (string, error) {
	session, err := s.sessions.FindByID(sessionID)
	if err != nil {
		return "", err
	}
	if session.UserID != userID {
		return "", ErrSessionForbidden
	}

	revoked, err := s.sessions.RevokeByIDForUser(userID, sessionID, domain.RevokeReasonUserRevoked, time.Now().UTC())
	if err != nil {
		return "", err
	}
	if !revoked {
		observability.RecordSessionManagementEvent(context.Background(), "revoke", "already_revoked")
		return "already_revoked", nil
	}
	observability.RecordSessionManagementEvent(context.Background(), "revoke", "revoked")
	observability.RecordSessionRevokedCount(context.Background(), "user_revoked", 1)
	return "revoked", nil
}

// IsNotFound reports whether an error from this service means the
// session does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, repository.ErrSessionNotFound)
}
