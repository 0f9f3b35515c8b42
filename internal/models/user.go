// Package models contains the domain entities of the stride moderation backend.
package models

import (
	"time"

	"gorm.io/gorm"
)

// Role constants, ordered by rank. Suspending a user forces their role back
// to RoleUser so a sanctioned moderator cannot keep acting on reports.
const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

var roleRank = map[string]int{
	RoleUser:      0,
	RoleModerator: 1,
	RoleAdmin:     2,
}

// User represents an account on the platform.
type User struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Username    string         `gorm:"unique;not null" json:"username"`
	Email       string         `gorm:"unique;not null" json:"email"`
	Password    string         `gorm:"not null" json:"-"`
	Role        string         `gorm:"not null;default:'user';index" json:"role"`
	IsActive    bool           `gorm:"not null;default:true" json:"is_active"`
	SuspendedAt *time.Time     `json:"suspended_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// HasModeratorRights reports whether the user's role meets the moderation threshold.
func (u *User) HasModeratorRights() bool {
	return roleRank[u.Role] >= roleRank[RoleModerator]
}

// Suspended reports whether the account is currently suspended.
func (u *User) Suspended() bool {
	return u.SuspendedAt != nil
}

// NotificationPreference records a per-user opt-out for one notification kind.
// A row with Enabled=false suppresses dispatch of that kind to the user.
type NotificationPreference struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_notif_pref_user_kind" json:"user_id"`
	Kind      string    `gorm:"not null;uniqueIndex:idx_notif_pref_user_kind" json:"kind"`
	Enabled   bool      `gorm:"not null;default:true" json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
