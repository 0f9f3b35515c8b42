package models

import (
	"fmt"
	"time"
)

// ActionType is the closed set of moderation action kinds.
type ActionType string

const (
	ActionReportResolution    ActionType = "report_resolution"
	ActionReportReopening     ActionType = "report_reopening"
	ActionUserSuspension      ActionType = "user_suspension"
	ActionUserUnsuspension    ActionType = "user_unsuspension"
	ActionUserWarning         ActionType = "user_warning"
	ActionUserWarningLifting  ActionType = "user_warning_lifting"
	ActionCommentSuspension   ActionType = "comment_suspension"
	ActionCommentUnsuspension ActionType = "comment_unsuspension"
	ActionWorkoutSuspension   ActionType = "workout_suspension"
	ActionWorkoutUnsuspension ActionType = "workout_unsuspension"
)

// reportActionTypes only reference a report; userActionTypes require an
// affected user; content action types additionally require the content ref.
var (
	reportActionTypes = map[ActionType]bool{
		ActionReportResolution: true,
		ActionReportReopening:  true,
	}
	userActionTypes = map[ActionType]bool{
		ActionUserSuspension:     true,
		ActionUserUnsuspension:   true,
		ActionUserWarning:        true,
		ActionUserWarningLifting: true,
	}
	commentActionTypes = map[ActionType]bool{
		ActionCommentSuspension:   true,
		ActionCommentUnsuspension: true,
	}
	workoutActionTypes = map[ActionType]bool{
		ActionWorkoutSuspension:   true,
		ActionWorkoutUnsuspension: true,
	}
	appealableActionTypes = map[ActionType]bool{
		ActionUserSuspension:    true,
		ActionUserWarning:       true,
		ActionCommentSuspension: true,
		ActionWorkoutSuspension: true,
	}
)

// Valid reports whether the action type belongs to the taxonomy.
func (t ActionType) Valid() bool {
	return reportActionTypes[t] || userActionTypes[t] ||
		commentActionTypes[t] || workoutActionTypes[t]
}

// Appealable reports whether a user may dispute an action of this type.
func (t ActionType) Appealable() bool {
	return appealableActionTypes[t]
}

// ModerationAction is an immutable log entry for one sanction or
// report-lifecycle event. Rows are never mutated after creation and only
// disappear when their report is deleted (cascade).
type ModerationAction struct {
	ID          uint       `gorm:"primaryKey" json:"-"`
	ShortID     string     `gorm:"uniqueIndex;not null" json:"short_id"`
	ActionType  ActionType `gorm:"not null;index" json:"action_type"`
	ModeratorID *uint      `json:"moderator_id,omitempty"`
	Moderator   *User      `gorm:"foreignKey:ModeratorID;constraint:OnDelete:SET NULL" json:"moderator,omitempty"`
	ReportID    *uint      `gorm:"index" json:"report_id,omitempty"`
	UserID      *uint      `gorm:"index" json:"user_id,omitempty"`
	User        *User      `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL" json:"user,omitempty"`
	CommentID   *uint      `json:"comment_id,omitempty"`
	WorkoutID   *uint      `json:"workout_id,omitempty"`
	Reason      *string    `json:"reason,omitempty"`
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`

	Appeal *Appeal `gorm:"foreignKey:ActionID" json:"appeal,omitempty"`
}

// ActionParams collects the references an action may carry. The constructor
// keeps only the ones the action type needs.
type ActionParams struct {
	ModeratorID *uint
	ReportID    *uint
	UserID      *uint
	CommentID   *uint
	WorkoutID   *uint
	Reason      *string
}

// NewModerationAction validates the type-specific required references and
// forces every non-relevant reference to null, so a report_resolution row can
// never carry a user or content id.
func NewModerationAction(actionType ActionType, p ActionParams) (*ModerationAction, error) {
	if !actionType.Valid() {
		return nil, NewInvalidActionError("invalid action type")
	}

	a := &ModerationAction{
		ShortID:     NewShortID(),
		ActionType:  actionType,
		ModeratorID: p.ModeratorID,
		ReportID:    p.ReportID,
		Reason:      p.Reason,
	}

	switch {
	case reportActionTypes[actionType]:
		if p.ReportID == nil {
			return nil, NewInvalidActionError("'report_id' is missing")
		}
	case userActionTypes[actionType]:
		if p.UserID == nil {
			return nil, NewInvalidActionError("'user_id' is missing")
		}
		a.UserID = p.UserID
		// Warnings keep the content reference for context.
		if actionType == ActionUserWarning || actionType == ActionUserWarningLifting {
			a.CommentID = p.CommentID
			a.WorkoutID = p.WorkoutID
		}
	case commentActionTypes[actionType]:
		if p.CommentID == nil {
			return nil, NewInvalidActionError("'comment_id' is missing")
		}
		if p.UserID == nil {
			return nil, NewInvalidActionError("'user_id' is missing")
		}
		a.UserID = p.UserID
		a.CommentID = p.CommentID
	case workoutActionTypes[actionType]:
		if p.WorkoutID == nil {
			return nil, NewInvalidActionError("'workout_id' is missing")
		}
		if p.UserID == nil {
			return nil, NewInvalidActionError("'user_id' is missing")
		}
		a.UserID = p.UserID
		a.WorkoutID = p.WorkoutID
	}

	return a, nil
}

// ObjectType returns the kind of object the action sanctions, for building
// user-facing messages ("comment already suspended", ...).
func (a *ModerationAction) ObjectType() ObjectType {
	switch {
	case commentActionTypes[a.ActionType]:
		return ObjectComment
	case workoutActionTypes[a.ActionType]:
		return ObjectWorkout
	default:
		return ObjectUser
	}
}

func (a *ModerationAction) String() string {
	return fmt.Sprintf("ModerationAction(%s, %s)", a.ShortID, a.ActionType)
}
