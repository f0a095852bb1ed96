package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-chatcode-backend/internal/http/middleware"
)

// ErrorResponse is the error envelope every endpoint returns.
type ErrorResponse struct {
	// Echo of X-Request-ID, for correlating client errors with server logs
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go)
	Code string `json:"code" example:"code_not_found"`
	// Human-readable message, safe to show to users
	Message string `json:"message" example:"code not found"`
}

// fail aborts with the error envelope. The code is recorded for the error
// metrics; 5xx responses are also logged with the request-scoped logger.
func fail(c *gin.Context, status int, code, msg string) {
	middleware.SetErrorCode(c, code)

	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Str("cause", c.Errors.String()).
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	})
}

// Fail exposes fail to the router (NoRoute, NoMethod, readiness).
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
