package service

import (
	"context"
	"testing"

	"stride/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// suspendedWorkoutFixture reports a workout, suspends it and returns the
// pieces the appeal tests need.
type suspendedWorkoutFixture struct {
	owner      *models.User
	moderator  *models.User
	workout    *models.Workout
	report     *models.Report
	suspension *models.ModerationAction
}

func suspendWorkout(t *testing.T, e *engine) *suspendedWorkoutFixture {
	t.Helper()
	owner := createUser(t, e.db, models.RoleUser)
	reporter := createUser(t, e.db, models.RoleUser)
	moderator := createUser(t, e.db, models.RoleModerator)
	workout := createWorkout(t, e.db, owner)

	report := reportOn(t, e, reporter, "workout", workout.ShortID)
	suspension, err := e.actions.CreateAction(context.Background(), CreateActionInput{
		ReportID:    report.ID,
		ModeratorID: moderator.ID,
		ActionType:  "workout_suspension",
		WorkoutID:   workout.ShortID,
	})
	require.NoError(t, err)

	return &suspendedWorkoutFixture{
		owner:      owner,
		moderator:  moderator,
		workout:    workout,
		report:     report,
		suspension: suspension,
	}
}

func TestAppealService_CreateAppeal(t *testing.T) {
	t.Parallel()

	e := newEngine(t)
	f := suspendWorkout(t, e)
	other := createUser(t, e.db, models.RoleModerator)
	ctx := context.Background()

	appeal, err := e.appeals.CreateAppeal(ctx, CreateAppealInput{
		ActionShortID: f.suspension.ShortID,
		UserID:        f.owner.ID,
		Text:          "please reconsider",
	})
	require.NoError(t, err)

	assert.Nil(t, appeal.Approved)
	assert.Equal(t, f.suspension.ID, appeal.ActionID)
	assert.Equal(t, f.owner.ID, appeal.UserID)
	assert.NotEmpty(t, appeal.ShortID)

	// An unprocessed appeal carries no update timestamp, in memory or stored.
	assert.Nil(t, appeal.UpdatedAt)
	var fresh models.Appeal
	require.NoError(t, e.db.First(&fresh, appeal.ID).Error)
	assert.Nil(t, fresh.UpdatedAt)

	// Moderators are told about the new appeal; the appellant is not.
	for _, moderator := range []*models.User{f.moderator, other} {
		notifs := notificationsFor(t, e.db, moderator.ID)
		var found bool
		for _, n := range notifs {
			if n.Kind == models.NotificationSuspensionAppeal {
				found = true
				require.NotNil(t, n.ObjectID)
				assert.Equal(t, appeal.ID, *n.ObjectID)
			}
		}
		assert.True(t, found, "moderator %d missing suspension_appeal notification", moderator.ID)
	}
}

func TestAppealService_CreateAppeal_Validation(t *testing.T) {
	t.Parallel()

	e := newEngine(t)
	f := suspendWorkout(t, e)
	stranger := createUser(t, e.db, models.RoleUser)
	ctx := context.Background()

	t.Run("unknown action", func(t *testing.T) {
		_, err := e.appeals.CreateAppeal(ctx, CreateAppealInput{
			ActionShortID: "missing",
			UserID:        f.owner.ID,
			Text:          "t",
		})
		assertAppCode(t, err, models.CodeNotFound)
	})

	t.Run("empty text", func(t *testing.T) {
		_, err := e.appeals.CreateAppeal(ctx, CreateAppealInput{
			ActionShortID: f.suspension.ShortID,
			UserID:        f.owner.ID,
		})
		assertAppCode(t, err, models.CodeValidation)
	})

	t.Run("not the affected user", func(t *testing.T) {
		_, err := e.appeals.CreateAppeal(ctx, CreateAppealInput{
			ActionShortID: f.suspension.ShortID,
			UserID:        stranger.ID,
			Text:          "t",
		})
		assertAppCode(t, err, models.CodeInvalidAppealUser)
		assert.Equal(t, "user can not appeal this action", err.(*models.AppError).Message)
	})

	t.Run("non-appealable action type", func(t *testing.T) {
		// The reversing unsuspension is not appealable.
		reversal, err := e.actions.CreateAction(ctx, CreateActionInput{
			ReportID:    f.report.ID,
			ModeratorID: f.moderator.ID,
			ActionType:  "workout_unsuspension",
			WorkoutID:   f.workout.ShortID,
		})
		require.NoError(t, err)

		_, err = e.appeals.CreateAppeal(ctx, CreateAppealInput{
			ActionShortID: reversal.ShortID,
			UserID:        f.owner.ID,
			Text:          "t",
		})
		assertAppCode(t, err, models.CodeInvalidAppeal)
		assert.Equal(t, "appeals can only be submitted for suspensions or warnings", err.(*models.AppError).Message)
	})
}

func TestAppealService_CreateAppeal_OnlyOnce(t *testing.T) {
	t.Parallel()

	e := newEngine(t)
	f := suspendWorkout(t, e)
	ctx := context.Background()

	_, err := e.appeals.CreateAppeal(ctx, CreateAppealInput{
		ActionShortID: f.suspension.ShortID,
		UserID:        f.owner.ID,
		Text:          "first",
	})
	require.NoError(t, err)

	_, err = e.appeals.CreateAppeal(ctx, CreateAppealInput{
		ActionShortID: f.suspension.ShortID,
		UserID:        f.owner.ID,
		Text:          "second",
	})
	assertAppCode(t, err, models.CodeInvalidAppeal)
	assert.Equal(t, "you can appeal only once", err.(*models.AppError).Message)
}

func TestAppealService_ProcessAppeal_ApproveWorkoutSuspension(t *testing.T) {
	t.Parallel()

	e := newEngine(t)
	f := suspendWorkout(t, e)
	second := createUser(t, e.db, models.RoleModerator)
	ctx := context.Background()

	appeal, err := e.appeals.CreateAppeal(ctx, CreateAppealInput{
		ActionShortID: f.suspension.ShortID,
		UserID:        f.owner.ID,
		Text:          "please reconsider",
	})
	require.NoError(t, err)

	processed, reversal, err := e.appeals.ProcessAppeal(ctx, ProcessAppealInput{
		AppealShortID: appeal.ShortID,
		ModeratorID:   second.ID,
		Approved:      true,
		Reason:        "ok",
	})
	require.NoError(t, err)

	require.NotNil(t, processed.Approved)
	assert.True(t, *processed.Approved)
	require.NotNil(t, processed.ModeratorID)
	assert.Equal(t, second.ID, *processed.ModeratorID)
	assert.NotNil(t, processed.UpdatedAt)

	require.NotNil(t, reversal)
	assert.Equal(t, models.ActionWorkoutUnsuspension, reversal.ActionType)

	var workout models.Workout
	require.NoError(t, e.db.First(&workout, f.workout.ID).Error)
	assert.Nil(t, workout.SuspendedAt)

	require.NotEmpty(t, e.mailer.sent)
	last := e.mailer.sent[len(e.mailer.sent)-1]
	assert.Equal(t, EmailWorkoutUnsuspension, last.Template)
	assert.Equal(t, f.owner.Email, last.To)
}

func TestAppealService_ProcessAppeal_Reject(t *testing.T) {
	t.Parallel()

	e := newEngine(t)
	f := suspendWorkout(t, e)
	ctx := context.Background()

	appeal, err := e.appeals.CreateAppeal(ctx, CreateAppealInput{
		ActionShortID: f.suspension.ShortID,
		UserID:        f.owner.ID,
		Text:          "please reconsider",
	})
	require.NoError(t, err)

	processed, reversal, err := e.appeals.ProcessAppeal(ctx, ProcessAppealInput{
		AppealShortID: appeal.ShortID,
		ModeratorID:   f.moderator.ID,
		Approved:      false,
		Reason:        "no grounds",
	})
	require.NoError(t, err)

	// Rejection produces no reversing action; the sanction stands.
	assert.Nil(t, reversal)
	require.NotNil(t, processed.Approved)
	assert.False(t, *processed.Approved)

	var workout models.Workout
	require.NoError(t, e.db.First(&workout, f.workout.ID).Error)
	assert.NotNil(t, workout.SuspendedAt)
}

func TestAppealService_ProcessAppeal_AlreadyProcessed(t *testing.T) {
	t.Parallel()

	e := newEngine(t)
	f := suspendWorkout(t, e)
	ctx := context.Background()

	appeal, err := e.appeals.CreateAppeal(ctx, CreateAppealInput{
		ActionShortID: f.suspension.ShortID,
		UserID:        f.owner.ID,
		Text:          "t",
	})
	require.NoError(t, err)

	_, _, err = e.appeals.ProcessAppeal(ctx, ProcessAppealInput{
		AppealShortID: appeal.ShortID,
		ModeratorID:   f.moderator.ID,
		Approved:      false,
		Reason:        "no",
	})
	require.NoError(t, err)

	_, _, err = e.appeals.ProcessAppeal(ctx, ProcessAppealInput{
		AppealShortID: appeal.ShortID,
		ModeratorID:   f.moderator.ID,
		Approved:      true,
		Reason:        "changed my mind",
	})
	assertAppCode(t, err, models.CodeInvalidAction)
	assert.Equal(t, "appeal already processed", err.(*models.AppError).Message)
}

func TestAppealService_ProcessAppeal_StaleState(t *testing.T) {
	t.Parallel()

	e := newEngine(t)
	f := suspendWorkout(t, e)
	ctx := context.Background()

	appeal, err := e.appeals.CreateAppeal(ctx, CreateAppealInput{
		ActionShortID: f.suspension.ShortID,
		UserID:        f.owner.ID,
		Text:          "t",
	})
	require.NoError(t, err)

	// The workout is reactivated independently before the appeal is handled.
	// That reset leaves the appeal pending, but approving it now has nothing
	// to reverse.
	_, err = e.actions.CreateAction(ctx, CreateActionInput{
		ReportID:    f.report.ID,
		ModeratorID: f.moderator.ID,
		ActionType:  "workout_unsuspension",
		WorkoutID:   f.workout.ShortID,
	})
	require.NoError(t, err)

	_, _, err = e.appeals.ProcessAppeal(ctx, ProcessAppealInput{
		AppealShortID: appeal.ShortID,
		ModeratorID:   f.moderator.ID,
		Approved:      true,
		Reason:        "ok",
	})
	assertAppCode(t, err, models.CodeInvalidAction)
	assert.Equal(t, "workout already reactivated", err.(*models.AppError).Message)
}

func TestAppealService_ProcessAppeal_ApproveUserSuspension(t *testing.T) {
	t.Parallel()

	e := newEngine(t)
	reported := createUser(t, e.db, models.RoleUser)
	reporter := createUser(t, e.db, models.RoleUser)
	moderator := createUser(t, e.db, models.RoleModerator)
	ctx := context.Background()

	report := reportOn(t, e, reporter, "user", reported.Username)
	suspension, err := e.actions.CreateAction(ctx, CreateActionInput{
		ReportID:    report.ID,
		ModeratorID: moderator.ID,
		ActionType:  "user_suspension",
		Username:    reported.Username,
	})
	require.NoError(t, err)

	appeal, err := e.appeals.CreateAppeal(ctx, CreateAppealInput{
		ActionShortID: suspension.ShortID,
		UserID:        reported.ID,
		Text:          "t",
	})
	require.NoError(t, err)

	_, reversal, err := e.appeals.ProcessAppeal(ctx, ProcessAppealInput{
		AppealShortID: appeal.ShortID,
		ModeratorID:   moderator.ID,
		Approved:      true,
		Reason:        "ok",
	})
	require.NoError(t, err)
	require.NotNil(t, reversal)
	assert.Equal(t, models.ActionUserUnsuspension, reversal.ActionType)

	var user models.User
	require.NoError(t, e.db.First(&user, reported.ID).Error)
	assert.Nil(t, user.SuspendedAt)

	// The approved appeal stays approved; the reset rule only touches
	// pending appeals.
	var reloaded models.Appeal
	require.NoError(t, e.db.First(&reloaded, appeal.ID).Error)
	require.NotNil(t, reloaded.Approved)
	assert.True(t, *reloaded.Approved)
}

func TestAppealService_ProcessAppeal_ApproveUserWarning(t *testing.T) {
	t.Parallel()

	e := newEngine(t)
	owner := createUser(t, e.db, models.RoleUser)
	reporter := createUser(t, e.db, models.RoleUser)
	moderator := createUser(t, e.db, models.RoleModerator)
	workout := createWorkout(t, e.db, owner)
	ctx := context.Background()

	report := reportOn(t, e, reporter, "workout", workout.ShortID)
	warning, err := e.actions.CreateAction(ctx, CreateActionInput{
		ReportID:    report.ID,
		ModeratorID: moderator.ID,
		ActionType:  "user_warning",
		Username:    owner.Username,
	})
	require.NoError(t, err)

	appeal, err := e.appeals.CreateAppeal(ctx, CreateAppealInput{
		ActionShortID: warning.ShortID,
		UserID:        owner.ID,
		Text:          "unfair",
	})
	require.NoError(t, err)

	// Moderators got a warning-appeal notification, not a suspension one.
	notifs := notificationsFor(t, e.db, moderator.ID)
	var found bool
	for _, n := range notifs {
		if n.Kind == models.NotificationUserWarningAppeal {
			found = true
		}
	}
	assert.True(t, found)

	_, reversal, err := e.appeals.ProcessAppeal(ctx, ProcessAppealInput{
		AppealShortID: appeal.ShortID,
		ModeratorID:   moderator.ID,
		Approved:      true,
		Reason:        "agreed",
	})
	require.NoError(t, err)
	require.NotNil(t, reversal)
	assert.Equal(t, models.ActionUserWarningLifting, reversal.ActionType)
	require.NotNil(t, reversal.UserID)
	assert.Equal(t, owner.ID, *reversal.UserID)
	// The lifting action keeps the warning's content reference.
	require.NotNil(t, reversal.WorkoutID)
	assert.Equal(t, workout.ID, *reversal.WorkoutID)
}

func TestAppealService_ProcessAppeal_DeletedContentIsNoop(t *testing.T) {
	t.Parallel()

	e := newEngine(t)
	owner := createUser(t, e.db, models.RoleUser)
	reporter := createUser(t, e.db, models.RoleUser)
	moderator := createUser(t, e.db, models.RoleModerator)
	workout := createWorkout(t, e.db, owner)
	comment := createComment(t, e.db, owner, &workout.ID)
	ctx := context.Background()

	report := reportOn(t, e, reporter, "comment", comment.ShortID)
	suspension, err := e.actions.CreateAction(ctx, CreateActionInput{
		ReportID:    report.ID,
		ModeratorID: moderator.ID,
		ActionType:  "comment_suspension",
		CommentID:   comment.ShortID,
	})
	require.NoError(t, err)

	appeal, err := e.appeals.CreateAppeal(ctx, CreateAppealInput{
		ActionShortID: suspension.ShortID,
		UserID:        owner.ID,
		Text:          "t",
	})
	require.NoError(t, err)

	require.NoError(t, e.db.Delete(&models.Comment{}, comment.ID).Error)

	processed, reversal, err := e.appeals.ProcessAppeal(ctx, ProcessAppealInput{
		AppealShortID: appeal.ShortID,
		ModeratorID:   moderator.ID,
		Approved:      true,
		Reason:        "ok",
	})
	require.NoError(t, err)
	// Nothing left to reverse, but the approval itself stands.
	assert.Nil(t, reversal)
	require.NotNil(t, processed.Approved)
	assert.True(t, *processed.Approved)
}

func TestAppealService_GetAppeal(t *testing.T) {
	t.Parallel()

	e := newEngine(t)
	f := suspendWorkout(t, e)
	ctx := context.Background()

	appeal, err := e.appeals.CreateAppeal(ctx, CreateAppealInput{
		ActionShortID: f.suspension.ShortID,
		UserID:        f.owner.ID,
		Text:          "t",
	})
	require.NoError(t, err)

	loaded, err := e.appeals.GetAppeal(ctx, appeal.ShortID)
	require.NoError(t, err)
	assert.Equal(t, appeal.ID, loaded.ID)
	require.NotNil(t, loaded.Action)
	assert.Equal(t, f.suspension.ID, loaded.Action.ID)

	_, err = e.appeals.GetAppeal(ctx, "missing")
	assertAppCode(t, err, models.CodeNotFound)
}

func TestAppealService_ListAppeals(t *testing.T) {
	t.Parallel()

	e := newEngine(t)
	ctx := context.Background()

	first := suspendWorkout(t, e)
	second := suspendWorkout(t, e)

	pending, err := e.appeals.CreateAppeal(ctx, CreateAppealInput{
		ActionShortID: first.suspension.ShortID,
		UserID:        first.owner.ID,
		Text:          "still open",
	})
	require.NoError(t, err)

	decided, err := e.appeals.CreateAppeal(ctx, CreateAppealInput{
		ActionShortID: second.suspension.ShortID,
		UserID:        second.owner.ID,
		Text:          "will be rejected",
	})
	require.NoError(t, err)
	_, _, err = e.appeals.ProcessAppeal(ctx, ProcessAppealInput{
		AppealShortID: decided.ShortID,
		ModeratorID:   second.moderator.ID,
		Approved:      false,
		Reason:        "no grounds",
	})
	require.NoError(t, err)

	all, total, err := e.appeals.ListAppeals(ctx, ListAppealsInput{Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, all, 2)
	// Actions come preloaded for the review queue.
	require.NotNil(t, all[0].Action)

	open, total, err := e.appeals.ListAppeals(ctx, ListAppealsInput{Pending: boolPtr(true), Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, open, 1)
	assert.Equal(t, pending.ID, open[0].ID)

	closed, total, err := e.appeals.ListAppeals(ctx, ListAppealsInput{Pending: boolPtr(false), Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, closed, 1)
	assert.Equal(t, decided.ID, closed[0].ID)
}
