package models

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Error codes for the moderation engine. Every rejected precondition carries
// one of these so callers can map it to user-facing copy without parsing
// messages (the messages themselves are user-facing and must be preserved
// verbatim).
const (
	CodeNotFound           = "NOT_FOUND"
	CodeValidation         = "VALIDATION_ERROR"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeInternal           = "INTERNAL_ERROR"
	CodeInvalidReporter    = "INVALID_REPORTER"
	CodeSuspendedTarget    = "SUSPENDED_TARGET"
	CodeDuplicateReport    = "DUPLICATE_REPORT"
	CodeInvalidAction      = "INVALID_ACTION"
	CodeAlreadySuspended   = "ALREADY_SUSPENDED"
	CodeAlreadyReactivated = "ALREADY_REACTIVATED"
	CodeDuplicateWarning   = "DUPLICATE_WARNING"
	CodeInvalidAppeal      = "INVALID_APPEAL"
	CodeInvalidAppealUser  = "INVALID_APPEAL_USER"
)

// Predefined error constructors
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

// NewInvalidReporterError is returned when a user reports their own content.
func NewInvalidReporterError(objectType string) *AppError {
	return &AppError{
		Code:    CodeInvalidReporter,
		Message: fmt.Sprintf("users can not report their own %s", objectType),
	}
}

// NewSuspendedTargetError is returned when the reported object is already suspended.
func NewSuspendedTargetError(objectType string) *AppError {
	return &AppError{
		Code:    CodeSuspendedTarget,
		Message: fmt.Sprintf("reported %s is already suspended", objectType),
	}
}

// NewDuplicateReportError is returned when an unresolved report from the same
// reporter against the same target already exists.
func NewDuplicateReportError(objectType string) *AppError {
	return &AppError{
		Code:    CodeDuplicateReport,
		Message: fmt.Sprintf("a report already exists for this %s", objectType),
	}
}

func NewInvalidActionError(message string) *AppError {
	return &AppError{
		Code:    CodeInvalidAction,
		Message: message,
	}
}

func NewAlreadySuspendedError(objectType string) *AppError {
	return &AppError{
		Code:    CodeAlreadySuspended,
		Message: fmt.Sprintf("%s already suspended", objectType),
	}
}

func NewAlreadyReactivatedError(objectType string) *AppError {
	return &AppError{
		Code:    CodeAlreadyReactivated,
		Message: fmt.Sprintf("%s already reactivated", objectType),
	}
}

func NewDuplicateWarningError() *AppError {
	return &AppError{
		Code:    CodeDuplicateWarning,
		Message: "user already warned",
	}
}

func NewInvalidAppealError(message string) *AppError {
	return &AppError{
		Code:    CodeInvalidAppeal,
		Message: message,
	}
}

func NewInvalidAppealUserError() *AppError {
	return &AppError{
		Code:    CodeInvalidAppealUser,
		Message: "user can not appeal this action",
	}
}

// IsCode reports whether err is an AppError carrying the given code.
func IsCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// StatusForError maps an application error to an HTTP status code.
func StatusForError(err error) int {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return fiber.StatusInternalServerError
	}
	switch appErr.Code {
	case CodeNotFound:
		return fiber.StatusNotFound
	case CodeUnauthorized:
		return fiber.StatusUnauthorized
	case CodeInternal:
		return fiber.StatusInternalServerError
	default:
		return fiber.StatusBadRequest
	}
}

// respondWithError creates a standardized error response
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	var response ErrorResponse

	if appErr, ok := err.(*AppError); ok {
		response = ErrorResponse{
			Error: appErr.Message,
			Code:  appErr.Code,
		}
		if appErr.Err != nil {
			response.Details = appErr.Err.Error()
		}
	} else {
		response = ErrorResponse{
			Error: err.Error(),
		}
	}

	return c.Status(status).JSON(response)
}
