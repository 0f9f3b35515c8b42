package service

import (
	"context"
	"log/slog"

	"stride/internal/middleware"
	"stride/internal/models"
	"stride/internal/observability"
)

// EmailTemplate identifies one moderation email template.
type EmailTemplate string

const (
	EmailUserSuspension      EmailTemplate = "user_suspension"
	EmailUserUnsuspension    EmailTemplate = "user_unsuspension"
	EmailUserWarning         EmailTemplate = "user_warning"
	EmailUserWarningLifting  EmailTemplate = "user_warning_lifting"
	EmailCommentSuspension   EmailTemplate = "comment_suspension"
	EmailCommentUnsuspension EmailTemplate = "comment_unsuspension"
	EmailWorkoutSuspension   EmailTemplate = "workout_suspension"
	EmailWorkoutUnsuspension EmailTemplate = "workout_unsuspension"
	EmailAppealRejected      EmailTemplate = "appeal_rejected"
)

// actionEmailTemplates maps each user-facing action type to its template.
// Report-lifecycle actions have no email.
var actionEmailTemplates = map[models.ActionType]EmailTemplate{
	models.ActionUserSuspension:      EmailUserSuspension,
	models.ActionUserUnsuspension:    EmailUserUnsuspension,
	models.ActionUserWarning:         EmailUserWarning,
	models.ActionUserWarningLifting:  EmailUserWarningLifting,
	models.ActionCommentSuspension:   EmailCommentSuspension,
	models.ActionCommentUnsuspension: EmailCommentUnsuspension,
	models.ActionWorkoutSuspension:   EmailWorkoutSuspension,
	models.ActionWorkoutUnsuspension: EmailWorkoutUnsuspension,
}

// TemplateForAction returns the email template for an action type, if any.
func TemplateForAction(t models.ActionType) (EmailTemplate, bool) {
	tmpl, ok := actionEmailTemplates[t]
	return tmpl, ok
}

// EmailData carries the fields a moderation email template renders.
type EmailData struct {
	Username      string
	Reason        *string
	ActionShortID string
	AppealShortID string
}

// Mailer delivers moderation emails. Delivery is best effort and happens
// after the surrounding transaction has committed; a failed send is logged
// and never rolls back moderation state.
type Mailer interface {
	Send(ctx context.Context, to string, template EmailTemplate, data EmailData) error
}

// LogMailer is the default Mailer: it writes the email to the structured log
// instead of sending it. Deployments plug in a real transport behind the
// same interface.
type LogMailer struct {
	log *slog.Logger
}

// NewLogMailer returns a LogMailer using the application logger.
func NewLogMailer() *LogMailer {
	return &LogMailer{log: middleware.Logger}
}

func (m *LogMailer) Send(ctx context.Context, to string, template EmailTemplate, data EmailData) error {
	m.log.InfoContext(ctx, "moderation email",
		slog.String("to", to),
		slog.String("template", string(template)),
		slog.String("username", data.Username),
	)
	return nil
}

// sendActionEmail dispatches the template keyed by the action type to the
// affected user. Called after commit; errors are logged, not propagated.
func sendActionEmail(ctx context.Context, mailer Mailer, user *models.User, action *models.ModerationAction) {
	if mailer == nil || user == nil || action == nil {
		return
	}
	tmpl, ok := TemplateForAction(action.ActionType)
	if !ok {
		return
	}
	data := EmailData{
		Username:      user.Username,
		Reason:        action.Reason,
		ActionShortID: action.ShortID,
	}
	if err := mailer.Send(ctx, user.Email, tmpl, data); err != nil {
		middleware.Logger.WarnContext(ctx, "moderation email failed",
			slog.String("template", string(tmpl)),
			slog.String("error", err.Error()))
		return
	}
	observability.EmailsSent.WithLabelValues(string(tmpl)).Inc()
}

// SendAppealRejectedEmail notifies the appellant that their appeal was
// rejected. The engine's reject path creates no record; this email plus the
// appeal_rejected notification is the caller's follow-up.
func SendAppealRejectedEmail(ctx context.Context, mailer Mailer, user *models.User, appeal *models.Appeal) {
	if mailer == nil || user == nil || appeal == nil {
		return
	}
	data := EmailData{
		Username:      user.Username,
		Reason:        appeal.Reason,
		AppealShortID: appeal.ShortID,
	}
	if err := mailer.Send(ctx, user.Email, EmailAppealRejected, data); err != nil {
		middleware.Logger.WarnContext(ctx, "moderation email failed",
			slog.String("template", string(EmailAppealRejected)),
			slog.String("error", err.Error()))
		return
	}
	observability.EmailsSent.WithLabelValues(string(EmailAppealRejected)).Inc()
}
