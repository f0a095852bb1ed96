package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/tbourn/go-chatcode-backend/internal/services"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{services.ErrInvalidFormat, http.StatusBadRequest, ErrCodeInvalidFormat},
		{services.ErrInvalidValidity, http.StatusBadRequest, ErrCodeBadRequest},
		{services.ErrCodeNotFound, http.StatusNotFound, ErrCodeCodeNotFound},
		{services.ErrSelfRequest, http.StatusConflict, ErrCodeSelfRequest},
		{services.ErrDuplicateRequest, http.StatusConflict, ErrCodeDuplicateRequest},
		{services.ErrUnauthorized, http.StatusForbidden, ErrCodeUnauthorized},
		{services.ErrAlreadyResolved, http.StatusConflict, ErrCodeAlreadyResolved},
		{services.ErrCodeGenerationExhausted, http.StatusServiceUnavailable, ErrCodeExhausted},
		{fmt.Errorf("wrapped: %w", services.ErrRequestNotFound), http.StatusNotFound, ErrCodeNotFound},
	}
	for _, tc := range cases {
		status, code, ok := statusFor(tc.err)
		assert.True(t, ok, tc.err.Error())
		assert.Equal(t, tc.status, status, tc.err.Error())
		assert.Equal(t, tc.code, code, tc.err.Error())
	}

	status, code, ok := statusFor(errors.New("disk on fire"))
	assert.False(t, ok)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, ErrCodeInternal, code)
}

func TestFailErr(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("internal errors are not leaked", func(t *testing.T) {
		r := gin.New()
		r.GET("/x", func(c *gin.Context) { failErr(c, errors.New("pq: connection refused")) })
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "connection refused")
	})

	t.Run("exhaustion sets Retry-After", func(t *testing.T) {
		r := gin.New()
		r.GET("/x", func(c *gin.Context) { failErr(c, services.ErrCodeGenerationExhausted) })
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "1", w.Header().Get("Retry-After"))
	})
}
