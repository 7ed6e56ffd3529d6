package errors

import (
	stderrors "errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error codes
const (
	// Authentication errors
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"

	// Authorization errors
	ErrCodeForbidden = "FORBIDDEN"

	// Validation errors
	ErrCodeInvalidInput = "INVALID_INPUT"

	// Resource errors
	ErrCodeNotFound = "NOT_FOUND"
	ErrCodeConflict = "CONFLICT"

	// Business logic errors
	ErrCodeInvalidOperation = "INVALID_OPERATION"

	// Service errors
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// APIError represents a standardized API error response
type APIError struct {
	Code    string      `json:"code"`
	Reason  Reason      `json:"reason,omitempty"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// NewAPIError creates a new APIError
func NewAPIError(code, message string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
	}
}

// RespondWithError sends an error response
func RespondWithError(c *gin.Context, statusCode int, err *APIError) {
	c.JSON(statusCode, err)
}

// Respond maps any error returned by the service layer onto an HTTP response.
// Domain errors keep their reason code; everything else becomes a 500 and is logged.
func Respond(c *gin.Context, err error) {
	var de *Error
	if !stderrors.As(err, &de) {
		if c.Request != nil {
			log.Printf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		} else {
			log.Printf("unhandled error: %v", err)
		}
		InternalError(c, "")
		return
	}

	status, code := statusFor(de)
	RespondWithError(c, status, &APIError{
		Code:    code,
		Reason:  de.Reason,
		Message: de.Msg,
		Details: de.Details,
	})
}

func statusFor(e *Error) (int, string) {
	switch e.Reason {
	case ReasonCannotDeleteSelf, ReasonCannotDeactivateSelf:
		return http.StatusBadRequest, ErrCodeInvalidOperation
	case ReasonInvalidCredentials:
		return http.StatusUnauthorized, ErrCodeInvalidCredentials
	}

	switch {
	case stderrors.Is(e.Kind, ErrValidation):
		return http.StatusBadRequest, ErrCodeInvalidInput
	case stderrors.Is(e.Kind, ErrAuthorization):
		return http.StatusForbidden, ErrCodeForbidden
	case stderrors.Is(e.Kind, ErrNotFound):
		return http.StatusNotFound, ErrCodeNotFound
	case stderrors.Is(e.Kind, ErrConflict):
		return http.StatusConflict, ErrCodeConflict
	case stderrors.Is(e.Kind, ErrIntegrity):
		return http.StatusBadRequest, ErrCodeInvalidOperation
	case stderrors.Is(e.Kind, ErrUnauthenticated):
		return http.StatusUnauthorized, ErrCodeUnauthorized
	case stderrors.Is(e.Kind, ErrUnavailable):
		return http.StatusServiceUnavailable, ErrCodeServiceUnavailable
	default:
		return http.StatusInternalServerError, ErrCodeInternalError
	}
}

// Helper functions for common error responses

// Unauthorized sends a 401 response
func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "Authentication required"
	}
	RespondWithError(c, http.StatusUnauthorized, NewAPIError(ErrCodeUnauthorized, message))
}

// BadRequest sends a 400 response
func BadRequest(c *gin.Context, message string) {
	if message == "" {
		message = "Invalid request"
	}
	RespondWithError(c, http.StatusBadRequest, &APIError{
		Code:    ErrCodeInvalidInput,
		Reason:  ReasonValidationFailed,
		Message: message,
	})
}

// BadRequestWithDetails sends a 400 response carrying a reason code and
// per-field details
func BadRequestWithDetails(c *gin.Context, reason Reason, message string, details interface{}) {
	RespondWithError(c, http.StatusBadRequest, &APIError{
		Code:    ErrCodeInvalidInput,
		Reason:  reason,
		Message: message,
		Details: details,
	})
}

// InternalError sends a 500 response
func InternalError(c *gin.Context, message string) {
	if message == "" {
		message = "Internal server error"
	}
	RespondWithError(c, http.StatusInternalServerError, NewAPIError(ErrCodeInternalError, message))
}
