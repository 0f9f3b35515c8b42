package models

import "fmt"

// ObjectType tags the kind of object a report points at.
type ObjectType string

const (
	ObjectComment ObjectType = "comment"
	ObjectUser    ObjectType = "user"
	ObjectWorkout ObjectType = "workout"
)

// ParseObjectType validates a raw object-type string.
func ParseObjectType(raw string) (ObjectType, error) {
	switch ObjectType(raw) {
	case ObjectComment, ObjectUser, ObjectWorkout:
		return ObjectType(raw), nil
	}
	return "", NewValidationError(fmt.Sprintf("invalid object type %q", raw))
}

// ReportTarget is the domain-layer view of a report's target: a tagged union
// over comment/user/workout. The nullable foreign-key triplet on Report is
// only produced and consumed at the persistence boundary, so business logic
// never has to ask "which field is set".
type ReportTarget struct {
	Type    ObjectType
	ID      uint
	OwnerID uint
}

// CommentTarget builds a target for a reported comment.
func CommentTarget(commentID, ownerID uint) ReportTarget {
	return ReportTarget{Type: ObjectComment, ID: commentID, OwnerID: ownerID}
}

// UserTarget builds a target for a reported user.
func UserTarget(userID uint) ReportTarget {
	return ReportTarget{Type: ObjectUser, ID: userID, OwnerID: userID}
}

// WorkoutTarget builds a target for a reported workout.
func WorkoutTarget(workoutID, ownerID uint) ReportTarget {
	return ReportTarget{Type: ObjectWorkout, ID: workoutID, OwnerID: ownerID}
}

// apply writes the target into a report's storage columns. The owning user is
// recorded for every target type; the comment/workout reference only for the
// matching type.
func (t ReportTarget) apply(r *Report) {
	r.ObjectType = t.Type
	owner := t.OwnerID
	r.ReportedUserID = &owner
	switch t.Type {
	case ObjectComment:
		id := t.ID
		r.ReportedCommentID = &id
	case ObjectWorkout:
		id := t.ID
		r.ReportedWorkoutID = &id
	}
}
