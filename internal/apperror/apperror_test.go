package apperror

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindStatus(t *testing.T) {
	tests := []struct {
		kind   Kind
		status int
	}{
		{KindServer, http.StatusInternalServerError},
		{KindValidation, http.StatusBadRequest},
		{KindNotFound, http.StatusNotFound},
		{KindUnprocessableEntity, http.StatusUnprocessableEntity},
		{KindEmailAlreadyTaken, http.StatusUnprocessableEntity},
		{KindInvalidPassword, http.StatusUnprocessableEntity},
		{Kind("SOMETHING_ELSE"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(string(tc.kind), func(t *testing.T) {
			assert.Equal(t, tc.status, tc.kind.Status())
		})
	}
}

func TestIsAndKindOf_Wrapped(t *testing.T) {
	err := fmt.Errorf("create user: %w", New(KindEmailAlreadyTaken, "Email already existed"))

	assert.True(t, Is(err, KindEmailAlreadyTaken))
	assert.False(t, Is(err, KindInvalidPassword))
	assert.Equal(t, KindEmailAlreadyTaken, KindOf(err))
	assert.Equal(t, KindServer, KindOf(errors.New("boom")))
}

func TestWithField_DoesNotMutateOriginal(t *testing.T) {
	base := New(KindValidation, "Invalid request")
	withName := base.WithField("name", "is required")
	withBoth := withName.WithField("email", "is required")

	assert.Nil(t, base.Errors)
	assert.Len(t, withName.Errors, 1)
	assert.Len(t, withBoth.Errors, 2)
}

func TestWrite_TypedError(t *testing.T) {
	rec := httptest.NewRecorder()
	Write(rec, New(KindValidation, "Invalid request").WithField("email", "is required"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, http.StatusBadRequest, body.StatusCode)
	assert.Equal(t, KindValidation, body.Error)
	assert.Equal(t, "Invalid request", body.Message)
	assert.Equal(t, "is required", body.Errors["email"])
}

func TestWrite_UntypedErrorHidesDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	Write(rec, errors.New("pq: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
	assert.Contains(t, rec.Body.String(), string(KindServer))
}

func TestWrap_KeepsCauseOutOfResponse(t *testing.T) {
	cause := errors.New("pq: connection refused")
	err := Wrap(KindUnprocessableEntity, "Failed to create user", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")

	resp := ToResponse(err)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "Failed to create user", resp.Message)
}
