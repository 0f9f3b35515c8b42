package service

import (
	"context"
	"errors"
	"time"

	"stride/internal/models"
	"stride/internal/notifications"
	"stride/internal/observability"

	"gorm.io/gorm"
)

// ActionService applies moderator sanctions against the object a report
// points at. Every call validates the payload reference against the report,
// mutates the target's suspension state and records exactly one immutable
// action row, all inside a single transaction.
type ActionService struct {
	db         *gorm.DB
	dispatcher *NotificationService
	accounts   *AccountService
	notifier   *notifications.Notifier
	mailer     Mailer
}

// NewActionService returns a new ActionService.
func NewActionService(db *gorm.DB, dispatcher *NotificationService, accounts *AccountService, notifier *notifications.Notifier, mailer Mailer) *ActionService {
	return &ActionService{db: db, dispatcher: dispatcher, accounts: accounts, notifier: notifier, mailer: mailer}
}

// CreateActionInput carries the payload of create action. Username is set for
// user-targeted types; CommentID/WorkoutID carry the target's public short id
// for content-targeted types.
type CreateActionInput struct {
	ReportID    uint
	ModeratorID uint
	ActionType  string
	Username    string
	CommentID   string
	WorkoutID   string
	Reason      *string
}

// creatableActionTypes are the types a moderator may apply directly.
// Report-lifecycle actions come from update report and user_warning_lifting
// only from an approved appeal.
var creatableActionTypes = map[models.ActionType]bool{
	models.ActionUserSuspension:      true,
	models.ActionUserUnsuspension:    true,
	models.ActionUserWarning:         true,
	models.ActionCommentSuspension:   true,
	models.ActionCommentUnsuspension: true,
	models.ActionWorkoutSuspension:   true,
	models.ActionWorkoutUnsuspension: true,
}

// CreateAction applies one sanction referencing a report.
func (s *ActionService) CreateAction(ctx context.Context, in CreateActionInput) (*models.ModerationAction, error) {
	actionType := models.ActionType(in.ActionType)
	if !creatableActionTypes[actionType] {
		return nil, models.NewInvalidActionError("invalid action type")
	}

	var action *models.ModerationAction
	var affected *models.User
	var created []*models.Notification

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var report models.Report
		if err := tx.First(&report, in.ReportID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("report", in.ReportID)
			}
			return err
		}

		var err error
		switch actionType {
		case models.ActionUserSuspension, models.ActionUserUnsuspension, models.ActionUserWarning:
			action, affected, err = s.applyUserAction(tx, &report, actionType, in)
		case models.ActionCommentSuspension, models.ActionCommentUnsuspension:
			action, affected, err = s.applyCommentAction(tx, &report, actionType, in)
		default:
			action, affected, err = s.applyWorkoutAction(tx, &report, actionType, in)
		}
		if err != nil {
			return err
		}

		notif, err := s.dispatcher.NotifyUser(tx, string(actionType), &in.ModeratorID, affected.ID, &action.ID)
		if err != nil {
			return err
		}
		if notif != nil {
			created = append(created, notif)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.ModerationActions.WithLabelValues(string(actionType)).Inc()
	publishNotifications(ctx, s.notifier, created)
	sendActionEmail(ctx, s.mailer, affected, action)
	return action, nil
}

// ListActions returns a report's actions in creation order for audit display.
func (s *ActionService) ListActions(ctx context.Context, reportID uint) ([]models.ModerationAction, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Report{}).
		Where("id = ?", reportID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, models.NewNotFoundError("report", reportID)
	}

	var actions []models.ModerationAction
	err := s.db.WithContext(ctx).
		Where("report_id = ?", reportID).
		Order("created_at ASC, id ASC").
		Preload("Appeal").
		Find(&actions).Error
	return actions, err
}

func (s *ActionService) applyUserAction(tx *gorm.DB, report *models.Report, actionType models.ActionType, in CreateActionInput) (*models.ModerationAction, *models.User, error) {
	if in.Username == "" {
		return nil, nil, models.NewInvalidActionError("'username' is missing")
	}
	if report.ReportedUserID == nil {
		return nil, nil, models.NewInvalidActionError("invalid 'username'")
	}

	var user models.User
	if err := tx.First(&user, *report.ReportedUserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, models.NewInvalidActionError("invalid 'username'")
		}
		return nil, nil, err
	}
	if user.Username != in.Username {
		return nil, nil, models.NewInvalidActionError("invalid 'username'")
	}

	switch actionType {
	case models.ActionUserWarning:
		var count int64
		if err := tx.Model(&models.ModerationAction{}).
			Where("action_type = ? AND report_id = ? AND user_id = ?",
				models.ActionUserWarning, report.ID, user.ID).
			Count(&count).Error; err != nil {
			return nil, nil, err
		}
		if count > 0 {
			return nil, nil, models.NewDuplicateWarningError()
		}

		// Warnings carry the reported content reference for context.
		action, err := models.NewModerationAction(models.ActionUserWarning, models.ActionParams{
			ModeratorID: &in.ModeratorID,
			ReportID:    &report.ID,
			UserID:      &user.ID,
			CommentID:   report.ReportedCommentID,
			WorkoutID:   report.ReportedWorkoutID,
			Reason:      in.Reason,
		})
		if err != nil {
			return nil, nil, err
		}
		if err := tx.Create(action).Error; err != nil {
			return nil, nil, err
		}
		return action, &user, nil

	case models.ActionUserSuspension:
		action, err := s.accounts.Suspend(tx, &user, in.ModeratorID, &report.ID, in.Reason)
		if err != nil {
			return nil, nil, err
		}
		return action, &user, nil

	default:
		action, err := s.accounts.Unsuspend(tx, &user, in.ModeratorID, &report.ID, in.Reason)
		if err != nil {
			return nil, nil, err
		}
		return action, &user, nil
	}
}

func (s *ActionService) applyCommentAction(tx *gorm.DB, report *models.Report, actionType models.ActionType, in CreateActionInput) (*models.ModerationAction, *models.User, error) {
	if in.CommentID == "" {
		return nil, nil, models.NewInvalidActionError("'comment_id' is missing")
	}
	if report.ReportedCommentID == nil {
		return nil, nil, models.NewInvalidActionError("invalid 'comment_id'")
	}

	var comment models.Comment
	if err := tx.First(&comment, *report.ReportedCommentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, models.NewInvalidActionError("invalid 'comment_id'")
		}
		return nil, nil, err
	}
	if comment.ShortID != in.CommentID {
		return nil, nil, models.NewInvalidActionError("invalid 'comment_id'")
	}

	if actionType == models.ActionCommentSuspension {
		if comment.Suspended() {
			return nil, nil, models.NewAlreadySuspendedError("comment")
		}
		now := time.Now().UTC()
		if err := tx.Model(&comment).Update("suspended_at", now).Error; err != nil {
			return nil, nil, err
		}
	} else {
		if !comment.Suspended() {
			return nil, nil, models.NewAlreadyReactivatedError("comment")
		}
		if err := tx.Model(&comment).Update("suspended_at", nil).Error; err != nil {
			return nil, nil, err
		}
		if err := resetPendingAppealForLastSuspension(tx, models.ActionCommentSuspension, "comment_id = ?", comment.ID); err != nil {
			return nil, nil, err
		}
	}

	action, err := models.NewModerationAction(actionType, models.ActionParams{
		ModeratorID: &in.ModeratorID,
		ReportID:    &report.ID,
		UserID:      &comment.UserID,
		CommentID:   &comment.ID,
		Reason:      in.Reason,
	})
	if err != nil {
		return nil, nil, err
	}
	if err := tx.Create(action).Error; err != nil {
		return nil, nil, err
	}

	var owner models.User
	if err := tx.First(&owner, comment.UserID).Error; err != nil {
		return nil, nil, err
	}
	return action, &owner, nil
}

func (s *ActionService) applyWorkoutAction(tx *gorm.DB, report *models.Report, actionType models.ActionType, in CreateActionInput) (*models.ModerationAction, *models.User, error) {
	if in.WorkoutID == "" {
		return nil, nil, models.NewInvalidActionError("'workout_id' is missing")
	}
	if report.ReportedWorkoutID == nil {
		return nil, nil, models.NewInvalidActionError("invalid 'workout_id'")
	}

	var workout models.Workout
	if err := tx.First(&workout, *report.ReportedWorkoutID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, models.NewInvalidActionError("invalid 'workout_id'")
		}
		return nil, nil, err
	}
	if workout.ShortID != in.WorkoutID {
		return nil, nil, models.NewInvalidActionError("invalid 'workout_id'")
	}

	if actionType == models.ActionWorkoutSuspension {
		if workout.Suspended() {
			return nil, nil, models.NewAlreadySuspendedError("workout")
		}
		now := time.Now().UTC()
		if err := tx.Model(&workout).Update("suspended_at", now).Error; err != nil {
			return nil, nil, err
		}
	} else {
		if !workout.Suspended() {
			return nil, nil, models.NewAlreadyReactivatedError("workout")
		}
		if err := tx.Model(&workout).Update("suspended_at", nil).Error; err != nil {
			return nil, nil, err
		}
		if err := resetPendingAppealForLastSuspension(tx, models.ActionWorkoutSuspension, "workout_id = ?", workout.ID); err != nil {
			return nil, nil, err
		}
	}

	action, err := models.NewModerationAction(actionType, models.ActionParams{
		ModeratorID: &in.ModeratorID,
		ReportID:    &report.ID,
		UserID:      &workout.UserID,
		WorkoutID:   &workout.ID,
		Reason:      in.Reason,
	})
	if err != nil {
		return nil, nil, err
	}
	if err := tx.Create(action).Error; err != nil {
		return nil, nil, err
	}

	var owner models.User
	if err := tx.First(&owner, workout.UserID).Error; err != nil {
		return nil, nil, err
	}
	return action, &owner, nil
}
