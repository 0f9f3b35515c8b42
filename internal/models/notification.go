package models

import (
	"time"
)

// Notification kinds that are not named after a moderation action type.
// Action-driven notifications reuse string(ActionType) as their kind.
const (
	NotificationReport            = "report"
	NotificationSuspensionAppeal  = "suspension_appeal"
	NotificationUserWarningAppeal = "user_warning_appeal"
	NotificationAppealRejected    = "appeal_rejected"
)

// Notification is one fan-out row produced by the dispatcher. The
// (from, to, kind, object) tuple is unique; a duplicate insert is a silent
// no-op, not an error.
type Notification struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	FromUserID   *uint     `gorm:"uniqueIndex:idx_notification_tuple" json:"from_user_id,omitempty"`
	FromUser     *User     `gorm:"foreignKey:FromUserID;constraint:OnDelete:CASCADE" json:"from_user,omitempty"`
	ToUserID     uint      `gorm:"not null;uniqueIndex:idx_notification_tuple;index" json:"to_user_id"`
	ToUser       *User     `gorm:"foreignKey:ToUserID;constraint:OnDelete:CASCADE" json:"-"`
	Kind         string    `gorm:"not null;uniqueIndex:idx_notification_tuple" json:"kind"`
	ObjectID     *uint     `gorm:"uniqueIndex:idx_notification_tuple" json:"object_id,omitempty"`
	MarkedAsRead bool      `gorm:"not null;default:false;index" json:"marked_as_read"`
	CreatedAt    time.Time `json:"created_at"`
}
