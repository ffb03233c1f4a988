package domain

import "time"

const (
	RoleCreator = "creator"
	RoleBrand   = "brand"
	RoleAdmin   = "admin"
)

// ValidSignupRole reports whether a role may be chosen at signup.
// Admin is assigned through the bootstrap email, never self-selected.
func ValidSignupRole(role string) bool {
	return role == RoleCreator || role == RoleBrand
}

type User struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	Email          string     `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Name           string     `gorm:"size:255" json:"name"`
	PasswordHash   string     `gorm:"size:128" json:"-"`
	Role           string     `gorm:"size:32;not null;default:creator;index" json:"role"`
	Status         string     `gorm:"size:32;not null;default:active" json:"status"`
	EmailVerified  bool       `gorm:"not null;default:false" json:"email_verified"`
	Provider       *string    `gorm:"size:32;index:idx_provider_uid,unique" json:"provider,omitempty"`
	ProviderUserID *string    `gorm:"size:255;index:idx_provider_uid,unique" json:"-"`
	AvatarKey      string     `gorm:"size:255" json:"avatar_key,omitempty"`
	LastLoginAt    *time.Time `json:"last_login_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// CanLogin holds the credential invariant: a user is loginable through
// exactly one of a local password hash or an external provider identity,
// though both may coexist after account linking. Local accounts keep
// both provider columns NULL so they never collide on the provider
// identity index.
func (u *User) CanLogin() bool {
	return u.PasswordHash != "" ||
		(u.Provider != nil && *u.Provider != "" && u.ProviderUserID != nil && *u.ProviderUserID != "")
}
