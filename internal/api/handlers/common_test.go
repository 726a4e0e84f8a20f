package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shoplist-service/internal/models"
	"shoplist-service/internal/services"
)

func runRespondError(t *testing.T, err error) (int, models.ErrorResponse) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	respondError(c, err)

	var body models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestRespondErrorMapsSentinels(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"invalid credentials", services.ErrInvalidCredentials, http.StatusUnauthorized},
		{"revoked token", services.ErrTokenRevoked, http.StatusUnauthorized},
		{"permission denied", services.ErrPermissionDenied, http.StatusForbidden},
		{"not a member", services.ErrNotMember, http.StatusForbidden},
		{"list not found", services.ErrListNotFound, http.StatusNotFound},
		{"member not found", services.ErrMemberNotFound, http.StatusNotFound},
		{"duplicate user", services.ErrUserAlreadyExists, http.StatusConflict},
		{"already a member", services.ErrAlreadyMember, http.StatusConflict},
		{"expired invitation", services.ErrInvitationExpired, http.StatusGone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := runRespondError(t, tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.status, body.Code)
			assert.Equal(t, tt.err.Error(), body.Message)
		})
	}
}

func TestRespondErrorHidesUnknownErrors(t *testing.T) {
	status, body := runRespondError(t, errors.New("pq: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, status)
	assert.NotContains(t, body.Message, "pq:", "internals must not leak to clients")
}

func TestRespondErrorUnwrapsWrappedSentinels(t *testing.T) {
	wrapped := errors.Join(errors.New("context"), services.ErrListNotFound)
	status, _ := runRespondError(t, wrapped)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestPathUUID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("valid", func(t *testing.T) {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		c.Params = gin.Params{{Key: "id", Value: "b9c7a2e4-91df-4c3a-8a4e-2f64f3f8a111"}}

		id, ok := pathUUID(c, "id")
		require.True(t, ok)
		assert.Equal(t, "b9c7a2e4-91df-4c3a-8a4e-2f64f3f8a111", id.String())
	})

	t.Run("malformed answers 400", func(t *testing.T) {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		c.Params = gin.Params{{Key: "id", Value: "not-a-uuid"}}

		_, ok := pathUUID(c, "id")
		require.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
