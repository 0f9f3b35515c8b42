package models

import (
	"time"
)

// Appeal is a user's dispute of one moderation action. At most one appeal
// exists per (action, user). Approved is tri-state: nil while pending, then
// set exactly once by a moderator. An independent reversal of the underlying
// sanction resets a pending appeal back to nil.
type Appeal struct {
	ID          uint              `gorm:"primaryKey" json:"-"`
	ShortID     string            `gorm:"uniqueIndex;not null" json:"short_id"`
	ActionID    uint              `gorm:"not null;uniqueIndex:idx_appeal_action_user" json:"-"`
	Action      *ModerationAction `gorm:"foreignKey:ActionID;constraint:OnDelete:CASCADE" json:"action,omitempty"`
	UserID      uint              `gorm:"not null;uniqueIndex:idx_appeal_action_user" json:"user_id"`
	User        *User             `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	ModeratorID *uint             `json:"moderator_id,omitempty"`
	Moderator   *User             `gorm:"foreignKey:ModeratorID;constraint:OnDelete:SET NULL" json:"moderator,omitempty"`
	Approved    *bool             `json:"approved"`
	Text        string            `gorm:"not null" json:"text"`
	Reason      *string           `json:"reason,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	// Null until processed or reset; written explicitly, never
	// auto-stamped on insert.
	UpdatedAt *time.Time `gorm:"autoUpdateTime:false" json:"updated_at,omitempty"`
}

// NewAppeal validates appealability and ownership before building the appeal.
func NewAppeal(action *ModerationAction, userID uint, text string) (*Appeal, error) {
	if !action.ActionType.Appealable() {
		return nil, NewInvalidAppealError(
			"appeals can only be submitted for suspensions or warnings")
	}
	if action.UserID == nil || *action.UserID != userID {
		return nil, NewInvalidAppealUserError()
	}
	return &Appeal{
		ShortID:  NewShortID(),
		ActionID: action.ID,
		UserID:   userID,
		Text:     text,
	}, nil
}

// Pending reports whether the appeal has not been processed yet.
func (a *Appeal) Pending() bool {
	return a.Approved == nil
}
