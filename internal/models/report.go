package models

import (
	"time"
)

// Report is a complaint against a user, comment or workout. The target is
// stored as a nullable reference triplet tagged by ObjectType; ReportedUserID
// always carries the owning user of the target (the user themself for user
// reports). Target references null out if the target is deleted
// (ON DELETE SET NULL), the report itself is never hard-deleted.
type Report struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	ReporterID        *uint      `gorm:"index" json:"reporter_id,omitempty"`
	Reporter          *User      `gorm:"foreignKey:ReporterID;constraint:OnDelete:SET NULL" json:"reporter,omitempty"`
	ObjectType        ObjectType `gorm:"not null;index" json:"object_type"`
	ReportedCommentID *uint      `gorm:"index" json:"reported_comment_id,omitempty"`
	ReportedComment   *Comment   `gorm:"foreignKey:ReportedCommentID;constraint:OnDelete:SET NULL" json:"reported_comment,omitempty"`
	ReportedUserID    *uint      `gorm:"index" json:"reported_user_id,omitempty"`
	ReportedUser      *User      `gorm:"foreignKey:ReportedUserID;constraint:OnDelete:SET NULL" json:"reported_user,omitempty"`
	ReportedWorkoutID *uint      `gorm:"index" json:"reported_workout_id,omitempty"`
	ReportedWorkout   *Workout   `gorm:"foreignKey:ReportedWorkoutID;constraint:OnDelete:SET NULL" json:"reported_workout,omitempty"`
	Note              string     `gorm:"not null" json:"note"`
	Resolved          bool       `gorm:"not null;default:false;index" json:"resolved"`
	ResolvedAt        *time.Time `json:"resolved_at,omitempty"`
	ResolvedByID      *uint      `json:"resolved_by,omitempty"`
	ResolvedBy        *User      `gorm:"foreignKey:ResolvedByID;constraint:OnDelete:SET NULL" json:"-"`
	CreatedAt         time.Time  `json:"created_at"`
	// Null until the first moderator update; the services write it
	// explicitly, GORM must not stamp it on insert.
	UpdatedAt *time.Time `gorm:"autoUpdateTime:false" json:"updated_at,omitempty"`

	Comments []ReportComment    `gorm:"foreignKey:ReportID;constraint:OnDelete:CASCADE" json:"comments,omitempty"`
	Actions  []ModerationAction `gorm:"foreignKey:ReportID;constraint:OnDelete:CASCADE" json:"actions,omitempty"`
}

// NewReport builds an unresolved report from a domain target.
func NewReport(reporterID uint, note string, target ReportTarget) *Report {
	r := &Report{
		ReporterID: &reporterID,
		Note:       note,
	}
	target.apply(r)
	return r
}

// Target reconstructs the domain target from the storage triplet.
func (r *Report) Target() ReportTarget {
	var owner uint
	if r.ReportedUserID != nil {
		owner = *r.ReportedUserID
	}
	switch r.ObjectType {
	case ObjectComment:
		var id uint
		if r.ReportedCommentID != nil {
			id = *r.ReportedCommentID
		}
		return ReportTarget{Type: ObjectComment, ID: id, OwnerID: owner}
	case ObjectWorkout:
		var id uint
		if r.ReportedWorkoutID != nil {
			id = *r.ReportedWorkoutID
		}
		return ReportTarget{Type: ObjectWorkout, ID: id, OwnerID: owner}
	default:
		return ReportTarget{Type: ObjectUser, ID: owner, OwnerID: owner}
	}
}

// ReportComment is an append-only moderator remark on a report, listed in
// creation order for audit display.
type ReportComment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ReportID  uint      `gorm:"not null;index" json:"report_id"`
	UserID    *uint     `json:"user_id,omitempty"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL" json:"user,omitempty"`
	Comment   string    `gorm:"not null" json:"comment"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}
