package service

import (
	"errors"
	"time"

	"stride/internal/models"

	"gorm.io/gorm"
)

// AccountService owns the account-level side of sanctions: it mutates
// suspended_at and role on the user row and records the matching moderation
// action itself. This is the one place where the action record is not created
// by the calling engine, so appeal approval and direct unsuspension share
// exactly one code path.
type AccountService struct{}

// NewAccountService returns a new AccountService.
func NewAccountService() *AccountService {
	return &AccountService{}
}

// Suspend suspends the user's account and records a user_suspension action.
// Suspension forces the role back to the baseline so a sanctioned moderator
// loses their moderation rights.
func (s *AccountService) Suspend(tx *gorm.DB, user *models.User, moderatorID uint, reportID *uint, reason *string) (*models.ModerationAction, error) {
	if user.Suspended() {
		return nil, models.NewAlreadySuspendedError("user account")
	}

	now := time.Now().UTC()
	user.SuspendedAt = &now
	user.Role = models.RoleUser
	if err := tx.Model(user).
		Updates(map[string]interface{}{"suspended_at": now, "role": models.RoleUser}).Error; err != nil {
		return nil, err
	}

	action, err := models.NewModerationAction(models.ActionUserSuspension, models.ActionParams{
		ModeratorID: &moderatorID,
		ReportID:    reportID,
		UserID:      &user.ID,
		Reason:      reason,
	})
	if err != nil {
		return nil, err
	}
	if err := tx.Create(action).Error; err != nil {
		return nil, err
	}
	return action, nil
}

// Unsuspend reactivates the user's account and records a user_unsuspension
// action. A pending appeal on the suspension being reversed is reset rather
// than left stale.
func (s *AccountService) Unsuspend(tx *gorm.DB, user *models.User, moderatorID uint, reportID *uint, reason *string) (*models.ModerationAction, error) {
	if !user.Suspended() {
		return nil, models.NewAlreadyReactivatedError("user account")
	}

	user.SuspendedAt = nil
	if err := tx.Model(user).Update("suspended_at", nil).Error; err != nil {
		return nil, err
	}

	action, err := models.NewModerationAction(models.ActionUserUnsuspension, models.ActionParams{
		ModeratorID: &moderatorID,
		ReportID:    reportID,
		UserID:      &user.ID,
		Reason:      reason,
	})
	if err != nil {
		return nil, err
	}
	if err := tx.Create(action).Error; err != nil {
		return nil, err
	}

	if err := resetPendingAppealForLastSuspension(tx, models.ActionUserSuspension, "user_id = ?", user.ID); err != nil {
		return nil, err
	}
	return action, nil
}

// resetPendingAppealForLastSuspension finds the most recent suspension action
// matching the condition and, if it carries an unprocessed appeal, bumps the
// appeal's updated_at while leaving approved null.
func resetPendingAppealForLastSuspension(tx *gorm.DB, suspensionType models.ActionType, query string, args ...interface{}) error {
	var prior models.ModerationAction
	err := tx.Where("action_type = ?", suspensionType).
		Where(query, args...).
		Order("created_at DESC, id DESC").
		First(&prior).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	return tx.Model(&models.Appeal{}).
		Where("action_id = ? AND approved IS NULL", prior.ID).
		Updates(map[string]interface{}{"approved": nil, "updated_at": now}).Error
}
