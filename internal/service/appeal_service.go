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

// AppealService implements the appeal workflow: filing an appeal against an
// appealable action and the single terminal approve/reject transition. An
// approved appeal reverses the underlying sanction through the same paths a
// moderator would use directly.
type AppealService struct {
	db         *gorm.DB
	dispatcher *NotificationService
	accounts   *AccountService
	notifier   *notifications.Notifier
	mailer     Mailer
}

// NewAppealService returns a new AppealService.
func NewAppealService(db *gorm.DB, dispatcher *NotificationService, accounts *AccountService, notifier *notifications.Notifier, mailer Mailer) *AppealService {
	return &AppealService{db: db, dispatcher: dispatcher, accounts: accounts, notifier: notifier, mailer: mailer}
}

// CreateAppealInput carries the sanctioned user's dispute.
type CreateAppealInput struct {
	ActionShortID string
	UserID        uint
	Text          string
}

// ProcessAppealInput carries a moderator's terminal decision.
type ProcessAppealInput struct {
	AppealShortID string
	ModeratorID   uint
	Approved      bool
	Reason        string
}

// CreateAppeal files an appeal against a moderation action.
func (s *AppealService) CreateAppeal(ctx context.Context, in CreateAppealInput) (*models.Appeal, error) {
	if in.Text == "" {
		return nil, models.NewValidationError("text is required")
	}

	var appeal *models.Appeal
	var created []*models.Notification

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var action models.ModerationAction
		if err := tx.Where("short_id = ?", in.ActionShortID).First(&action).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("action", in.ActionShortID)
			}
			return err
		}

		var err error
		appeal, err = models.NewAppeal(&action, in.UserID, in.Text)
		if err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&models.Appeal{}).
			Where("action_id = ? AND user_id = ?", action.ID, in.UserID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return models.NewInvalidAppealError("you can appeal only once")
		}

		if err := tx.Create(appeal).Error; err != nil {
			return err
		}

		kind := models.NotificationSuspensionAppeal
		if action.ActionType == models.ActionUserWarning {
			kind = models.NotificationUserWarningAppeal
		}
		created, err = s.dispatcher.NotifyModerators(tx, kind, in.UserID, &appeal.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	publishNotifications(ctx, s.notifier, created)
	return appeal, nil
}

// ListAppealsInput filters the moderator appeal queue.
type ListAppealsInput struct {
	Pending *bool
	Page    int
	PerPage int
}

// ListAppeals returns a page of appeals, newest first.
func (s *AppealService) ListAppeals(ctx context.Context, in ListAppealsInput) ([]models.Appeal, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Appeal{})
	if in.Pending != nil {
		if *in.Pending {
			q = q.Where("approved IS NULL")
		} else {
			q = q.Where("approved IS NOT NULL")
		}
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var appeals []models.Appeal
	if err := q.Preload("Action").
		Order("created_at DESC, id DESC").
		Limit(in.PerPage).
		Offset((in.Page - 1) * in.PerPage).
		Find(&appeals).Error; err != nil {
		return nil, 0, err
	}
	return appeals, total, nil
}

// GetAppeal loads one appeal by short id with its action.
func (s *AppealService) GetAppeal(ctx context.Context, shortID string) (*models.Appeal, error) {
	var appeal models.Appeal
	err := s.db.WithContext(ctx).
		Preload("Action").
		Where("short_id = ?", shortID).
		First(&appeal).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewNotFoundError("appeal", shortID)
	}
	if err != nil {
		return nil, err
	}
	return &appeal, nil
}

// ProcessAppeal records a moderator's decision. On approval it reverses the
// underlying sanction and returns the reversing action; on rejection it
// returns no action, and the caller is expected to send the appeal_rejected
// notification and email afterwards.
func (s *AppealService) ProcessAppeal(ctx context.Context, in ProcessAppealInput) (*models.Appeal, *models.ModerationAction, error) {
	var appeal models.Appeal
	var reversal *models.ModerationAction
	var affected *models.User
	var created []*models.Notification

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Action").
			Where("short_id = ?", in.AppealShortID).
			First(&appeal).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("appeal", in.AppealShortID)
			}
			return err
		}
		if !appeal.Pending() {
			return models.NewInvalidActionError("appeal already processed")
		}
		if appeal.Action == nil {
			return models.NewInvalidActionError("invalid action type")
		}

		now := time.Now().UTC()
		appeal.ModeratorID = &in.ModeratorID
		appeal.Approved = &in.Approved
		appeal.Reason = &in.Reason
		appeal.UpdatedAt = &now
		if err := tx.Model(&appeal).
			Select("moderator_id", "approved", "reason", "updated_at").
			Updates(map[string]interface{}{
				"moderator_id": appeal.ModeratorID,
				"approved":     appeal.Approved,
				"reason":       appeal.Reason,
				"updated_at":   appeal.UpdatedAt,
			}).Error; err != nil {
			return err
		}

		var err error
		if in.Approved {
			reversal, affected, err = s.approve(tx, &appeal, in)
		} else {
			err = s.checkSanctionStillActive(tx, appeal.Action)
		}
		if err != nil {
			return err
		}

		if reversal != nil && affected != nil {
			notif, err := s.dispatcher.NotifyUser(tx, string(reversal.ActionType), &in.ModeratorID, affected.ID, &reversal.ID)
			if err != nil {
				return err
			}
			if notif != nil {
				created = append(created, notif)
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	outcome := "rejected"
	if in.Approved {
		outcome = "approved"
	}
	observability.AppealsProcessed.WithLabelValues(outcome).Inc()
	if reversal != nil {
		observability.ModerationActions.WithLabelValues(string(reversal.ActionType)).Inc()
	}

	publishNotifications(ctx, s.notifier, created)
	sendActionEmail(ctx, s.mailer, affected, reversal)
	return &appeal, reversal, nil
}

// approve reverses the appealed sanction. A deleted content target means
// there is nothing left to reverse and the approval stands without a new
// action.
func (s *AppealService) approve(tx *gorm.DB, appeal *models.Appeal, in ProcessAppealInput) (*models.ModerationAction, *models.User, error) {
	action := appeal.Action
	reason := in.Reason

	switch action.ActionType {
	case models.ActionUserSuspension:
		user, err := s.loadAffectedUser(tx, action)
		if err != nil {
			return nil, nil, err
		}
		if !user.Suspended() {
			return nil, nil, models.NewInvalidActionError("user account has already been reactivated")
		}
		reversal, err := s.accounts.Unsuspend(tx, user, in.ModeratorID, action.ReportID, &reason)
		if err != nil {
			return nil, nil, err
		}
		return reversal, user, nil

	case models.ActionUserWarning:
		user, err := s.loadAffectedUser(tx, action)
		if err != nil {
			return nil, nil, err
		}
		reversal, err := models.NewModerationAction(models.ActionUserWarningLifting, models.ActionParams{
			ModeratorID: &in.ModeratorID,
			ReportID:    action.ReportID,
			UserID:      action.UserID,
			CommentID:   action.CommentID,
			WorkoutID:   action.WorkoutID,
			Reason:      &reason,
		})
		if err != nil {
			return nil, nil, err
		}
		if err := tx.Create(reversal).Error; err != nil {
			return nil, nil, err
		}
		return reversal, user, nil

	case models.ActionCommentSuspension:
		if action.CommentID == nil {
			return nil, nil, nil
		}
		var comment models.Comment
		if err := tx.First(&comment, *action.CommentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Comment deleted since the appeal was filed; nothing to reverse.
				return nil, nil, nil
			}
			return nil, nil, err
		}
		if !comment.Suspended() {
			return nil, nil, models.NewInvalidActionError("comment already reactivated")
		}
		if err := tx.Model(&comment).Update("suspended_at", nil).Error; err != nil {
			return nil, nil, err
		}
		reversal, err := models.NewModerationAction(models.ActionCommentUnsuspension, models.ActionParams{
			ModeratorID: &in.ModeratorID,
			ReportID:    action.ReportID,
			UserID:      &comment.UserID,
			CommentID:   &comment.ID,
			Reason:      &reason,
		})
		if err != nil {
			return nil, nil, err
		}
		if err := tx.Create(reversal).Error; err != nil {
			return nil, nil, err
		}
		var owner models.User
		if err := tx.First(&owner, comment.UserID).Error; err != nil {
			return nil, nil, err
		}
		return reversal, &owner, nil

	case models.ActionWorkoutSuspension:
		if action.WorkoutID == nil {
			return nil, nil, nil
		}
		var workout models.Workout
		if err := tx.First(&workout, *action.WorkoutID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Workout deleted since the appeal was filed; nothing to reverse.
				return nil, nil, nil
			}
			return nil, nil, err
		}
		if !workout.Suspended() {
			return nil, nil, models.NewInvalidActionError("workout already reactivated")
		}
		if err := tx.Model(&workout).Update("suspended_at", nil).Error; err != nil {
			return nil, nil, err
		}
		reversal, err := models.NewModerationAction(models.ActionWorkoutUnsuspension, models.ActionParams{
			ModeratorID: &in.ModeratorID,
			ReportID:    action.ReportID,
			UserID:      &workout.UserID,
			WorkoutID:   &workout.ID,
			Reason:      &reason,
		})
		if err != nil {
			return nil, nil, err
		}
		if err := tx.Create(reversal).Error; err != nil {
			return nil, nil, err
		}
		var owner models.User
		if err := tx.First(&owner, workout.UserID).Error; err != nil {
			return nil, nil, err
		}
		return reversal, &owner, nil

	default:
		return nil, nil, models.NewInvalidActionError("invalid action type")
	}
}

// checkSanctionStillActive guards the reject path: rejecting an appeal whose
// sanction was independently reversed in the meantime makes no sense.
func (s *AppealService) checkSanctionStillActive(tx *gorm.DB, action *models.ModerationAction) error {
	switch action.ActionType {
	case models.ActionUserSuspension:
		user, err := s.loadAffectedUser(tx, action)
		if err != nil {
			return err
		}
		if !user.Suspended() {
			return models.NewInvalidActionError("user account has already been reactivated")
		}
	case models.ActionUserWarning:
		var count int64
		if err := tx.Model(&models.ModerationAction{}).
			Where("action_type = ? AND report_id = ? AND user_id = ?",
				models.ActionUserWarningLifting, action.ReportID, action.UserID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return models.NewInvalidActionError("user warning has already been lifted")
		}
	case models.ActionCommentSuspension:
		if action.CommentID == nil {
			return nil
		}
		var comment models.Comment
		if err := tx.First(&comment, *action.CommentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if !comment.Suspended() {
			return models.NewInvalidActionError("comment already reactivated")
		}
	case models.ActionWorkoutSuspension:
		if action.WorkoutID == nil {
			return nil
		}
		var workout models.Workout
		if err := tx.First(&workout, *action.WorkoutID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if !workout.Suspended() {
			return models.NewInvalidActionError("workout already reactivated")
		}
	}
	return nil
}

func (s *AppealService) loadAffectedUser(tx *gorm.DB, action *models.ModerationAction) (*models.User, error) {
	if action.UserID == nil {
		return nil, models.NewNotFoundError("user", "unknown")
	}
	var user models.User
	if err := tx.First(&user, *action.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("user", *action.UserID)
		}
		return nil, err
	}
	return &user, nil
}
