package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorUnwrapsToKind(t *testing.T) {
	err := fmt.Errorf("update task: %w", Validation(ReasonDueDateInPast, "due date cannot be in the past"))

	assert.True(t, stderrors.Is(err, ErrValidation))
	assert.False(t, stderrors.Is(err, ErrAuthorization))
	assert.Equal(t, ReasonDueDateInPast, ReasonOf(err))
	assert.True(t, HasReason(err, ReasonDueDateInPast))
	assert.Equal(t, Reason(""), ReasonOf(stderrors.New("plain")))
}

func TestRespondStatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name   string
		err    error
		status int
		reason Reason
	}{
		{"validation", Validation(ReasonEmptyComment, "empty"), http.StatusBadRequest, ReasonEmptyComment},
		{"authorization", Authorization(ReasonNotOwnerOrAssignee, "denied"), http.StatusForbidden, ReasonNotOwnerOrAssignee},
		{"not found", NotFoundError(ReasonTaskNotFound, "missing"), http.StatusNotFound, ReasonTaskNotFound},
		{"conflict", ConflictError(ReasonEmailTaken, "taken"), http.StatusConflict, ReasonEmailTaken},
		{"self protection", ConflictError(ReasonCannotDeactivateSelf, "self"), http.StatusBadRequest, ReasonCannotDeactivateSelf},
		{"integrity", Integrity(ReasonUserHasTasks, "has tasks"), http.StatusBadRequest, ReasonUserHasTasks},
		{"unauthenticated", Unauthenticated(ReasonUnauthenticated, "login"), http.StatusUnauthorized, ReasonUnauthenticated},
		{"credentials", Unauthenticated(ReasonInvalidCredentials, "bad"), http.StatusUnauthorized, ReasonInvalidCredentials},
		{"unavailable", Unavailable(ReasonAIUnavailable, "no ai"), http.StatusServiceUnavailable, ReasonAIUnavailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			Respond(c, tc.err)

			require.Equal(t, tc.status, w.Code)
			var body APIError
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tc.reason, body.Reason)
		})
	}
}

func TestRespondHidesUnexpectedErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/tasks", nil)

	Respond(c, stderrors.New("connection refused"))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestBadRequestWithDetails(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/tasks", nil)

	BadRequestWithDetails(c, ReasonInvalidPriority, "Invalid value for priority", []map[string]string{
		{"field": "priority", "rule": "taskpriority"},
	})

	require.Equal(t, http.StatusBadRequest, w.Code)

	var body APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, ErrCodeInvalidInput, body.Code)
	assert.Equal(t, ReasonInvalidPriority, body.Reason)
	assert.Equal(t, "Invalid value for priority", body.Message)
	assert.Equal(t, []any{map[string]any{"field": "priority", "rule": "taskpriority"}}, body.Details)
}
