package errors

import (
	stderrors "errors"
	"fmt"
)

// Error kinds. Every *Error unwraps to exactly one of these.
var (
	ErrValidation      = stderrors.New("validation error")
	ErrAuthorization   = stderrors.New("authorization error")
	ErrNotFound        = stderrors.New("not found")
	ErrConflict        = stderrors.New("conflict")
	ErrIntegrity       = stderrors.New("integrity error")
	ErrUnauthenticated = stderrors.New("unauthenticated")
	ErrUnavailable     = stderrors.New("unavailable")
)

// Reason is a stable, machine-readable code attached to every domain failure.
type Reason string

const (
	ReasonValidationFailed     Reason = "validation-failed"
	ReasonInvalidStatus        Reason = "invalid-status"
	ReasonInvalidPriority      Reason = "invalid-priority"
	ReasonInvalidRole          Reason = "invalid-role"
	ReasonDueDateInPast        Reason = "due-date-in-past"
	ReasonEmptyComment         Reason = "empty-comment"
	ReasonCommentTooLong       Reason = "comment-too-long"
	ReasonAssigneeNotFound     Reason = "assignee-not-found"
	ReasonPasswordTooShort     Reason = "password-too-short"
	ReasonAccessDenied         Reason = "access-denied"
	ReasonNotOwnerOrAssignee   Reason = "not-owner-or-assignee"
	ReasonNotOwner             Reason = "not-owner"
	ReasonNotAdmin             Reason = "not-admin"
	ReasonAccountDisabled      Reason = "account-disabled"
	ReasonUnauthenticated      Reason = "unauthenticated"
	ReasonInvalidCredentials   Reason = "invalid-credentials"
	ReasonTaskNotFound         Reason = "task-not-found"
	ReasonUserNotFound         Reason = "user-not-found"
	ReasonEmailTaken           Reason = "email-taken"
	ReasonCannotDeleteSelf     Reason = "cannot-delete-self"
	ReasonCannotDeactivateSelf Reason = "cannot-deactivate-self"
	ReasonUserHasTasks         Reason = "user-has-tasks"
	ReasonAIUnavailable        Reason = "ai-unavailable"
)

// Error is a typed domain failure carrying its kind and reason code.
type Error struct {
	Kind    error
	Reason  Reason
	Msg     string
	Details interface{}
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg == "" {
		return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Msg)
}

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, reason Reason, format string, args ...any) *Error {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return &Error{Kind: kind, Reason: reason, Msg: msg}
}

func Validation(reason Reason, format string, args ...any) *Error {
	return newError(ErrValidation, reason, format, args...)
}

func Authorization(reason Reason, format string, args ...any) *Error {
	return newError(ErrAuthorization, reason, format, args...)
}

func NotFoundError(reason Reason, format string, args ...any) *Error {
	return newError(ErrNotFound, reason, format, args...)
}

func ConflictError(reason Reason, format string, args ...any) *Error {
	return newError(ErrConflict, reason, format, args...)
}

func Integrity(reason Reason, format string, args ...any) *Error {
	return newError(ErrIntegrity, reason, format, args...)
}

func Unauthenticated(reason Reason, format string, args ...any) *Error {
	return newError(ErrUnauthenticated, reason, format, args...)
}

func Unavailable(reason Reason, format string, args ...any) *Error {
	return newError(ErrUnavailable, reason, format, args...)
}

// ReasonOf extracts the reason code from err, or "" when err is not a domain error.
func ReasonOf(err error) Reason {
	var de *Error
	if stderrors.As(err, &de) {
		return de.Reason
	}
	return ""
}

// HasReason reports whether err is a domain error with the given reason.
func HasReason(err error, reason Reason) bool {
	return ReasonOf(err) == reason
}
