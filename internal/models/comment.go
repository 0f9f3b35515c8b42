package models

import (
	"time"

	"gorm.io/gorm"
)

// Comment is a remark a user leaves on a workout. Like Workout, only
// ownership and SuspendedAt matter to the moderation engine.
type Comment struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	ShortID     string         `gorm:"uniqueIndex;not null" json:"short_id"`
	UserID      uint           `gorm:"not null;index" json:"user_id"`
	User        *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	WorkoutID   *uint          `gorm:"index" json:"workout_id,omitempty"`
	Text        string         `gorm:"not null" json:"text"`
	SuspendedAt *time.Time     `json:"suspended_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// Suspended reports whether the comment is currently suspended.
func (c *Comment) Suspended() bool {
	return c.SuspendedAt != nil
}

// BeforeCreate assigns the public short id.
func (c *Comment) BeforeCreate(_ *gorm.DB) error {
	if c.ShortID == "" {
		c.ShortID = NewShortID()
	}
	return nil
}
