package domain

import "time"

// Session revocation reasons recorded alongside RevokedAt.
const (
	RevokeReasonLogout        = "logout"
	RevokeReasonLogoutAll     = "logout_all"
	RevokeReasonRotation      = "refresh_rotation"
	RevokeReasonPasswordReset = "password_reset"
	RevokeReasonUserRevoked   = "user_session_revoked"
	RevokeReasonExpiredSweep  = "expired_sweep"
)

type Session struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	UserID           uint       `gorm:"index;not null" json:"user_id"`
	AccessTokenHash  string     `gorm:"size:128;uniqueIndex;not null" json:"-"`
	RefreshTokenHash string     `gorm:"size:128;uniqueIndex;not null" json:"-"`
	UserAgent        string     `gorm:"size:512" json:"user_agent"`
	IP               string     `gorm:"size:64" json:"ip"`
	Browser          string     `gorm:"size:64" json:"browser"`
	OS               string     `gorm:"size:64" json:"os"`
	DeviceType       string     `gorm:"size:32" json:"device_type"`
	LastActivity     time.Time  `gorm:"index" json:"last_activity"`
	ExpiresAt        time.Time  `gorm:"index;not null" json:"expires_at"`
	RevokedAt        *time.Time `gorm:"index" json:"revoked_at,omitempty"`
	RevokeReason     string     `gorm:"size:64" json:"-"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Valid is always computed, never cached: a session is usable iff it has
// not been revoked and has not passed its expiry.
func (s *Session) Valid(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}
