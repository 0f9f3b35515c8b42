package service

import (
	"context"
	"errors"

	"stride/internal/models"
	"stride/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NotificationService is the dispatcher that turns moderation lifecycle events
// into notification rows. Fan-out is synchronous and runs inside the caller's
// transaction; the (from, to, kind, object) tuple is unique and a duplicate
// insert is silently dropped.
type NotificationService struct {
	db *gorm.DB
}

// NewNotificationService returns a new NotificationService.
func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

// NotifyUser inserts one notification row for the recipient. It returns nil
// without error when the row is suppressed: recipient equals sender, the
// recipient opted out of this kind, or an identical tuple already exists.
func (s *NotificationService) NotifyUser(tx *gorm.DB, kind string, fromUserID *uint, toUserID uint, objectID *uint) (*models.Notification, error) {
	if fromUserID != nil && *fromUserID == toUserID {
		observability.NotificationsDropped.WithLabelValues("self").Inc()
		return nil, nil
	}

	var pref models.NotificationPreference
	err := tx.Where("user_id = ? AND kind = ?", toUserID, kind).First(&pref).Error
	if err == nil && !pref.Enabled {
		observability.NotificationsDropped.WithLabelValues("preference_disabled").Inc()
		return nil, nil
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	notif := &models.Notification{
		FromUserID: fromUserID,
		ToUserID:   toUserID,
		Kind:       kind,
		ObjectID:   objectID,
	}
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(notif)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		observability.NotificationsDropped.WithLabelValues("duplicate").Inc()
		return nil, nil
	}

	observability.NotificationsDispatched.WithLabelValues(kind).Inc()
	return notif, nil
}

// NotifyModerators fans an event out to every active user with moderator
// rights or above, excluding the originating user. Returns the rows actually
// inserted so the caller can push them out after commit.
func (s *NotificationService) NotifyModerators(tx *gorm.DB, kind string, fromUserID uint, objectID *uint) ([]*models.Notification, error) {
	var moderators []models.User
	if err := tx.
		Where("role IN ? AND is_active = ? AND id <> ?",
			[]string{models.RoleModerator, models.RoleAdmin}, true, fromUserID).
		Find(&moderators).Error; err != nil {
		return nil, err
	}

	from := fromUserID
	created := make([]*models.Notification, 0, len(moderators))
	for _, moderator := range moderators {
		notif, err := s.NotifyUser(tx, kind, &from, moderator.ID, objectID)
		if err != nil {
			return nil, err
		}
		if notif != nil {
			created = append(created, notif)
		}
	}
	return created, nil
}

// ListForUser returns a page of the user's notifications, newest first.
func (s *NotificationService) ListForUser(ctx context.Context, userID uint, page, perPage int) ([]models.Notification, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("to_user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var notifs []models.Notification
	if err := s.db.WithContext(ctx).
		Where("to_user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(perPage).
		Offset((page - 1) * perPage).
		Find(&notifs).Error; err != nil {
		return nil, 0, err
	}
	return notifs, total, nil
}

// UnreadCount returns the number of unread notifications for the user.
func (s *NotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("to_user_id = ? AND marked_as_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

// MarkRead marks one of the user's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID uint) (*models.Notification, error) {
	var notif models.Notification
	if err := s.db.WithContext(ctx).
		Where("id = ? AND to_user_id = ?", notificationID, userID).
		First(&notif).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("notification", notificationID)
		}
		return nil, err
	}
	if notif.MarkedAsRead {
		return &notif, nil
	}
	notif.MarkedAsRead = true
	if err := s.db.WithContext(ctx).Model(&notif).
		Update("marked_as_read", true).Error; err != nil {
		return nil, err
	}
	return &notif, nil
}

// MarkAllRead marks every unread notification for the user as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) error {
	return s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("to_user_id = ? AND marked_as_read = ?", userID, false).
		Update("marked_as_read", true).Error
}

// SetPreference upserts the user's opt-in/opt-out for one notification kind.
func (s *NotificationService) SetPreference(ctx context.Context, userID uint, kind string, enabled bool) (*models.NotificationPreference, error) {
	pref := &models.NotificationPreference{
		UserID:  userID,
		Kind:    kind,
		Enabled: enabled,
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "kind"}},
			DoUpdates: clause.AssignmentColumns([]string{"enabled", "updated_at"}),
		}).
		Create(pref).Error
	if err != nil {
		return nil, err
	}
	return pref, nil
}
