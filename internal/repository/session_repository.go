package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"creator-marketplace-service/internal/domain"
	"creator-marketplace-service/internal/observability"
)

var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionTokenConflict = errors.New("session token conflict")
)

type SessionRepository interface {
	Create(session *domain.Session) error
	FindByID(id uint) (*domain.Session, error)
	FindActiveByAccessHash(hash string, now time.Time) (*domain.Session, error)
	FindActiveByRefreshHash(hash string, now time.Time) (*domain.Session, error)
	ListActiveByUser(userID uint, now time.Time) ([]domain.Session, error)
	TouchActivity(id uint, at time.Time) error
	Revoke(id uint, reason string, at time.Time) (bool, error)
	RevokeAllByUser(userID uint, reason string, at time.Time) (int64, error)
	RevokeByIDForUser(userID, id uint, reason string, at time.Time) (bool, error)
	SweepExpired(now time.Time) (int64, error)
}

type GormSessionRepository struct{ db *gorm.DB }

func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &GormSessionRepository{db: db}
}

func (r *GormSessionRepository) Create(session *domain.Session) error {
	if err := r.db.Create(session).Error; err != nil {
		if isUniqueViolation(err) {
			observability.RecordRepositoryOperation(context.Background(), "session", "create", "conflict")
			return ErrSessionTokenConflict
		}
		observability.RecordRepositoryOperation(context.Background(), "session", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "create", "success")
	return nil
}

func (r *GormSessionRepository) FindByID(id uint) (*domain.Session, error) {
	var session domain.Session
	if err := r.db.First(&session, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "session", "find_by_id", "not_found")
			return nil, ErrSessionNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "session", "find_by_id", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "find_by_id", "success")
	return &session, nil
}

// findActiveByHash filters validity in the query itself so callers can
// never skip the revoked/expired check.
func (r *GormSessionRepository) findActiveByHash(column, hash string, now time.Time) (*domain.Session, error) {
	var session domain.Session
	err := r.db.
		Where(column+" = ?", hash).
		Where("revoked_at IS NULL").
		Where("expires_at > ?", now).
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &session, nil
}

func (r *GormSessionRepository) FindActiveByAccessHash(hash string, now time.Time) (*domain.Session, error) {
	session, err := r.findActiveByHash("access_token_hash", hash, now)
	observability.RecordRepositoryOperation(context.Background(), "session", "find_by_access", outcomeOf(err))
	return session, err
}

func (r *GormSessionRepository) FindActiveByRefreshHash(hash string, now time.Time) (*domain.Session, error) {
	session, err := r.findActiveByHash("refresh_token_hash", hash, now)
	observability.RecordRepositoryOperation(context.Background(), "session", "find_by_refresh", outcomeOf(err))
	return session, err
}

func (r *GormSessionRepository) ListActiveByUser(userID uint, now time.Time) ([]domain.Session, error) {
	var sessions []domain.Session
	err := r.db.
		Where("user_id = ?", userID).
		Where("revoked_at IS NULL").
		Where("expires_at > ?", now).
		Order("last_activity desc").
		Find(&sessions).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "session", "list_active", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "list_active", "success")
	return sessions, nil
}

func (r *GormSessionRepository) TouchActivity(id uint, at time.Time) error {
	return r.db.Model(&domain.Session{}).Where("id = ?", id).Update("last_activity", at).Error
}

func (r *GormSessionRepository) Revoke(id uint, reason string, at time.Time) (bool, error) {
	res := r.db.Model(&domain.Session{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Updates(map[string]any{"revoked_at": at, "revoke_reason": reason})
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "session", "revoke", "error")
		return false, res.Error
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "revoke", "success")
	return res.RowsAffected > 0, nil
}

func (r *GormSessionRepository) RevokeAllByUser(userID uint, reason string, at time.Time) (int64, error) {
	res := r.db.Model(&domain.Session{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Updates(map[string]any{"revoked_at": at, "revoke_reason": reason})
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "session", "revoke_all", "error")
		return 0, res.Error
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "revoke_all", "success")
	return res.RowsAffected, nil
}

func (r *GormSessionRepository) RevokeByIDForUser(userID, id uint, reason string, at time.Time) (bool, error) {
	res := r.db.Model(&domain.Session{}).
		Where("id = ? AND user_id = ? AND revoked_at IS NULL", id, userID).
		Updates(map[string]any{"revoked_at": at, "revoke_reason": reason})
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "session", "revoke_one", "error")
		return false, res.Error
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "revoke_one", "success")
	return res.RowsAffected > 0, nil
}

// SweepExpired marks expired-but-unrevoked rows. Idempotent and safe to
// run concurrently: each matching row is a single conditional flag flip.
func (r *GormSessionRepository) SweepExpired(now time.Time) (int64, error) {
	res := r.db.Model(&domain.Session{}).
		Where("expires_at <= ? AND revoked_at IS NULL", now).
		Updates(map[string]any{"revoked_at": now, "revoke_reason": domain.RevokeReasonExpiredSweep})
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "session", "sweep_expired", "error")
		return 0, res.Error
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "sweep_expired", "success")
	return res.RowsAffected, nil
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrSessionNotFound):
		return "not_found"
	default:
		return "error"
	}
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique failed")
}
