package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"stride/internal/middleware"
	"stride/internal/models"
	"stride/internal/notifications"
	"stride/internal/observability"

	"gorm.io/gorm"
)

// ReportService implements the report lifecycle: creation with dedup and
// self-report guards, and updates that append moderator comments and move the
// resolved flag while logging the matching lifecycle actions.
type ReportService struct {
	db         *gorm.DB
	dispatcher *NotificationService
	notifier   *notifications.Notifier
}

// NewReportService returns a new ReportService.
func NewReportService(db *gorm.DB, dispatcher *NotificationService, notifier *notifications.Notifier) *ReportService {
	return &ReportService{db: db, dispatcher: dispatcher, notifier: notifier}
}

// CreateReportInput carries the caller-facing fields of create report. The
// locator is a username for user targets and a public short id otherwise.
type CreateReportInput struct {
	ReporterID uint
	Note       string
	ObjectType string
	Locator    string
}

// UpdateReportInput carries one moderator update: a mandatory remark and an
// optional resolved transition. Resolved nil means comment-only.
type UpdateReportInput struct {
	ReportID    uint
	ModeratorID uint
	Comment     string
	Resolved    *bool
}

// CreateReport opens a report against a comment, user or workout.
func (s *ReportService) CreateReport(ctx context.Context, in CreateReportInput) (*models.Report, error) {
	if in.Note == "" {
		return nil, models.NewValidationError("note is required")
	}
	objectType, err := models.ParseObjectType(in.ObjectType)
	if err != nil {
		return nil, err
	}

	var report *models.Report
	var created []*models.Notification

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		target, suspended, err := lookupTarget(tx, objectType, in.Locator)
		if err != nil {
			return err
		}
		if target.OwnerID == in.ReporterID {
			return models.NewInvalidReporterError(string(objectType))
		}
		if suspended {
			return models.NewSuspendedTargetError(string(objectType))
		}
		if err := s.checkDuplicate(tx, in.ReporterID, target); err != nil {
			return err
		}

		report = models.NewReport(in.ReporterID, in.Note, target)
		if err := tx.Create(report).Error; err != nil {
			return err
		}

		created, err = s.dispatcher.NotifyModerators(tx, models.NotificationReport, in.ReporterID, &report.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	observability.ReportsCreated.WithLabelValues(string(objectType)).Inc()
	publishNotifications(ctx, s.notifier, created)
	return report, nil
}

// GetReport loads one report with its comments and actions in audit order.
func (s *ReportService) GetReport(ctx context.Context, reportID uint) (*models.Report, error) {
	var report models.Report
	err := s.db.WithContext(ctx).
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("report_comments.created_at ASC, report_comments.id ASC")
		}).
		Preload("Actions", func(db *gorm.DB) *gorm.DB {
			return db.Order("moderation_actions.created_at ASC, moderation_actions.id ASC")
		}).
		Preload("Actions.Appeal").
		First(&report, reportID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewNotFoundError("report", reportID)
	}
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// ListReportsInput filters the moderator report listing.
type ListReportsInput struct {
	Resolved   *bool
	ObjectType string
	ReporterID *uint
	Page       int
	PerPage    int
}

// ListReports returns a page of reports, newest first.
func (s *ReportService) ListReports(ctx context.Context, in ListReportsInput) ([]models.Report, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Report{})
	if in.Resolved != nil {
		q = q.Where("resolved = ?", *in.Resolved)
	}
	if in.ObjectType != "" {
		objectType, err := models.ParseObjectType(in.ObjectType)
		if err != nil {
			return nil, 0, err
		}
		q = q.Where("object_type = ?", objectType)
	}
	if in.ReporterID != nil {
		q = q.Where("reporter_id = ?", *in.ReporterID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reports []models.Report
	if err := q.Order("created_at DESC, id DESC").
		Limit(in.PerPage).
		Offset((in.Page - 1) * in.PerPage).
		Find(&reports).Error; err != nil {
		return nil, 0, err
	}
	return reports, total, nil
}

// UnresolvedCount returns the number of open reports, for the moderator
// dashboard badge.
func (s *ReportService) UnresolvedCount(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Report{}).
		Where("resolved = ?", false).
		Count(&count).Error
	return count, err
}

// UpdateReport appends a moderator remark and optionally moves the resolved
// flag. Resolving an unresolved report logs a report_resolution action;
// reopening a resolved one logs a report_reopening action. Neither emits a
// notification.
func (s *ReportService) UpdateReport(ctx context.Context, in UpdateReportInput) (*models.Report, error) {
	if in.Comment == "" {
		return nil, models.NewValidationError("comment is required")
	}

	var report models.Report
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&report, in.ReportID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("report", in.ReportID)
			}
			return err
		}

		remark := &models.ReportComment{
			ReportID: report.ID,
			UserID:   &in.ModeratorID,
			Comment:  in.Comment,
		}
		if err := tx.Create(remark).Error; err != nil {
			return err
		}

		now := time.Now().UTC()
		report.UpdatedAt = &now

		if in.Resolved != nil {
			wasResolved := report.Resolved
			if *in.Resolved {
				if !wasResolved {
					report.Resolved = true
					report.ResolvedAt = &now
					report.ResolvedByID = &in.ModeratorID
					if err := s.logLifecycleAction(tx, models.ActionReportResolution, report.ID, in.ModeratorID); err != nil {
						return err
					}
				}
			} else {
				report.Resolved = false
				report.ResolvedAt = nil
				report.ResolvedByID = nil
				if wasResolved {
					if err := s.logLifecycleAction(tx, models.ActionReportReopening, report.ID, in.ModeratorID); err != nil {
						return err
					}
				}
			}
		}

		return tx.Model(&report).
			Select("resolved", "resolved_at", "resolved_by_id", "updated_at").
			Updates(map[string]interface{}{
				"resolved":       report.Resolved,
				"resolved_at":    report.ResolvedAt,
				"resolved_by_id": report.ResolvedByID,
				"updated_at":     report.UpdatedAt,
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return s.GetReport(ctx, report.ID)
}

func (s *ReportService) logLifecycleAction(tx *gorm.DB, actionType models.ActionType, reportID, moderatorID uint) error {
	action, err := models.NewModerationAction(actionType, models.ActionParams{
		ModeratorID: &moderatorID,
		ReportID:    &reportID,
	})
	if err != nil {
		return err
	}
	if err := tx.Create(action).Error; err != nil {
		return err
	}
	observability.ModerationActions.WithLabelValues(string(actionType)).Inc()
	return nil
}

// checkDuplicate rejects a second unresolved report from the same reporter
// against the same target.
func (s *ReportService) checkDuplicate(tx *gorm.DB, reporterID uint, target models.ReportTarget) error {
	q := tx.Model(&models.Report{}).
		Where("reporter_id = ? AND object_type = ? AND resolved = ?", reporterID, target.Type, false)
	switch target.Type {
	case models.ObjectComment:
		q = q.Where("reported_comment_id = ?", target.ID)
	case models.ObjectWorkout:
		q = q.Where("reported_workout_id = ?", target.ID)
	default:
		q = q.Where("reported_user_id = ?", target.ID)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return models.NewDuplicateReportError(string(target.Type))
	}
	return nil
}

// lookupTarget resolves a locator to a domain target and reports whether the
// target is currently suspended. Inactive users are treated as absent.
func lookupTarget(tx *gorm.DB, objectType models.ObjectType, locator string) (models.ReportTarget, bool, error) {
	switch objectType {
	case models.ObjectComment:
		var comment models.Comment
		if err := tx.Where("short_id = ?", locator).First(&comment).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ReportTarget{}, false, models.NewNotFoundError("comment", locator)
			}
			return models.ReportTarget{}, false, err
		}
		return models.CommentTarget(comment.ID, comment.UserID), comment.Suspended(), nil
	case models.ObjectWorkout:
		var workout models.Workout
		if err := tx.Where("short_id = ?", locator).First(&workout).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ReportTarget{}, false, models.NewNotFoundError("workout", locator)
			}
			return models.ReportTarget{}, false, err
		}
		return models.WorkoutTarget(workout.ID, workout.UserID), workout.Suspended(), nil
	default:
		var user models.User
		if err := tx.Where("username = ?", locator).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ReportTarget{}, false, models.NewNotFoundError("user", locator)
			}
			return models.ReportTarget{}, false, err
		}
		if !user.IsActive {
			return models.ReportTarget{}, false, models.NewNotFoundError("user", locator)
		}
		return models.UserTarget(user.ID), user.Suspended(), nil
	}
}

// publishNotifications pushes committed notification rows to Redis. Best
// effort only; a failed publish is logged and the rows stay queryable.
func publishNotifications(ctx context.Context, notifier *notifications.Notifier, notifs []*models.Notification) {
	if notifier == nil {
		return
	}
	for _, notif := range notifs {
		if err := notifier.PublishNotification(ctx, notif); err != nil {
			middleware.Logger.WarnContext(ctx, "notification publish failed",
				slog.Uint64("to_user_id", uint64(notif.ToUserID)),
				slog.String("error", err.Error()))
		}
	}
}
