package models

import (
	"time"

	"gorm.io/gorm"
)

// Workout visibility levels.
const (
	VisibilityPublic    = "public"
	VisibilityFollowers = "followers_only"
	VisibilityPrivate   = "private"
)

// Workout is a published activity. The moderation engine only reads ownership
// and visibility and writes SuspendedAt; everything else belongs to the
// workout CRUD, which is outside this subsystem.
type Workout struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	ShortID     string         `gorm:"uniqueIndex;not null" json:"short_id"`
	UserID      uint           `gorm:"not null;index" json:"user_id"`
	User        *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Title       string         `gorm:"not null" json:"title"`
	Visibility  string         `gorm:"not null;default:'private'" json:"visibility"`
	SuspendedAt *time.Time     `json:"suspended_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// Suspended reports whether the workout is currently suspended.
func (w *Workout) Suspended() bool {
	return w.SuspendedAt != nil
}

// BeforeCreate assigns the public short id.
func (w *Workout) BeforeCreate(_ *gorm.DB) error {
	if w.ShortID == "" {
		w.ShortID = NewShortID()
	}
	return nil
}
