package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"creator-marketplace-service/internal/domain"
	"creator-marketplace-service/internal/observability"
)

var ErrVerificationTokenNotFound = errors.New("verification token not found")

type VerificationTokenRepository interface {
	Create(token *domain.VerificationToken) error
	FindActiveByHashPurpose(hash, purpose string, now time.Time) (*domain.VerificationToken, error)
	Consume(id, userID uint, now time.Time) error
	InvalidateActiveByUserPurpose(userID uint, purpose string, now time.Time) error
}

type GormVerificationTokenRepository struct{ db *gorm.DB }

func NewVerificationTokenRepository(db *gorm.DB) VerificationTokenRepository {
	return &GormVerificationTokenRepository{db: db}
}

func (r *GormVerificationTokenRepository) Create(token *domain.VerificationToken) error {
	if err := r.db.Create(token).Error; err != nil {
		observability.RecordRepositoryOperation(context.Background(), "verification_token", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "verification_token", "create", "success")
	return nil
}

func (r *GormVerificationTokenRepository) FindActiveByHashPurpose(hash, purpose string, now time.Time) (*domain.VerificationToken, error) {
	var token domain.VerificationToken
	err := r.db.
		Where("token_hash = ? AND purpose = ?", hash, purpose).
		Where("used_at IS NULL").
		Where("expires_at > ?", now).
		First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "verification_token", "find_active", "not_found")
			return nil, ErrVerificationTokenNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "verification_token", "find_active", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "verification_token", "find_active", "success")
	return &token, nil
}

// Consume is a conditional single-row update: with two concurrent
// consumers exactly one wins, the other sees not-found.
func (r *GormVerificationTokenRepository) Consume(id, userID uint, now time.Time) error {
	res := r.db.Model(&domain.VerificationToken{}).
		Where("id = ? AND user_id = ? AND used_at IS NULL", id, userID).
		Update("used_at", now)
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "verification_token", "consume", "error")
		return res.Error
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(context.Background(), "verification_token", "consume", "not_found")
		return ErrVerificationTokenNotFound
	}
	observability.RecordRepositoryOperation(context.Background(), "verification_token", "consume", "success")
	return nil
}

func (r *GormVerificationTokenRepository) InvalidateActiveByUserPurpose(userID uint, purpose string, now time.Time) error {
	err := r.db.Model(&domain.VerificationToken{}).
		Where("user_id = ? AND purpose = ? AND used_at IS NULL", userID, purpose).
		Update("used_at", now).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "verification_token", "invalidate_active", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "verification_token", "invalidate_active", "success")
	return nil
}
