package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAppeal_Validation(t *testing.T) {
	t.Parallel()

	suspension := &ModerationAction{
		ID:         7,
		ActionType: ActionUserSuspension,
		UserID:     uintPtr(3),
	}

	t.Run("non-appealable action type", func(t *testing.T) {
		t.Parallel()
		action := &ModerationAction{ID: 8, ActionType: ActionUserUnsuspension, UserID: uintPtr(3)}
		_, err := NewAppeal(action, 3, "please reconsider")
		require.Error(t, err)
		assert.True(t, IsCode(err, CodeInvalidAppeal))
	})

	t.Run("wrong user", func(t *testing.T) {
		t.Parallel()
		_, err := NewAppeal(suspension, 99, "please reconsider")
		require.Error(t, err)
		assert.True(t, IsCode(err, CodeInvalidAppealUser))
	})

	t.Run("valid appeal starts pending", func(t *testing.T) {
		t.Parallel()
		appeal, err := NewAppeal(suspension, 3, "please reconsider")
		require.NoError(t, err)
		assert.Equal(t, uint(7), appeal.ActionID)
		assert.Nil(t, appeal.Approved)
		assert.True(t, appeal.Pending())
		assert.NotEmpty(t, appeal.ShortID)
	})
}

func TestReport_TargetRoundTrip(t *testing.T) {
	t.Parallel()

	t.Run("workout target", func(t *testing.T) {
		t.Parallel()
		r := NewReport(1, "spam", WorkoutTarget(42, 9))
		require.NotNil(t, r.ReportedWorkoutID)
		assert.Equal(t, uint(42), *r.ReportedWorkoutID)
		require.NotNil(t, r.ReportedUserID)
		assert.Equal(t, uint(9), *r.ReportedUserID)
		assert.Nil(t, r.ReportedCommentID)

		target := r.Target()
		assert.Equal(t, ObjectWorkout, target.Type)
		assert.Equal(t, uint(42), target.ID)
		assert.Equal(t, uint(9), target.OwnerID)
	})

	t.Run("user target has no content reference", func(t *testing.T) {
		t.Parallel()
		r := NewReport(1, "abuse", UserTarget(5))
		assert.Nil(t, r.ReportedCommentID)
		assert.Nil(t, r.ReportedWorkoutID)
		require.NotNil(t, r.ReportedUserID)
		assert.Equal(t, uint(5), *r.ReportedUserID)

		target := r.Target()
		assert.Equal(t, ObjectUser, target.Type)
		assert.Equal(t, uint(5), target.ID)
	})
}
