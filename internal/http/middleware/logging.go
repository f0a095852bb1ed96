package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	requestIDKey    = "requestID"
	requestIDHeader = "X-Request-ID"
	loggerKey       = "logger"

	// maxRequestIDLength bounds client-supplied correlation ids.
	maxRequestIDLength = 128
	// maxQueryLogLength caps the bytes of raw query logged per request.
	maxQueryLogLength = 2048
)

// RequestID propagates X-Request-ID when the client sent a usable one and
// generates a UUID otherwise. The id is echoed on the response and stored
// under "requestID" in the Gin context.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if !validRequestID(rid) {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(requestIDHeader, rid)
		c.Next()
	}
}

// validRequestID accepts non-empty printable ASCII up to maxRequestIDLength,
// so ids are safe to echo and to write into log lines.
func validRequestID(s string) bool {
	if s == "" || len(s) > maxRequestIDLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 0x21 || s[i] > 0x7e {
			return false
		}
	}
	return true
}

// Logger attaches a request-scoped zerolog.Logger carrying request_id, method,
// route template and client IP. It is stored in the Gin context (LoggerFrom)
// and on the request context, so services that log with zerolog.Ctx(ctx)
// share the same fields. The access line itself is written by RedactingLogger.
//
// The route template is logged rather than the raw path: raw paths carry
// chat codes.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "" {
			path = unmatchedRoute
		}

		l := log.With().
			Str("request_id", c.GetString(requestIDKey)).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("remote_ip", c.ClientIP()).
			Logger()
		setLogger(c, l)

		c.Next()

		if len(c.Errors) > 0 {
			LoggerFrom(c).Error().Str("errors", c.Errors.String()).Msg("request errors")
		}
	}
}

// enrichLogger adds a string field to the request-scoped logger.
func enrichLogger(c *gin.Context, key, val string) {
	setLogger(c, LoggerFrom(c).With().Str(key, val).Logger())
}

func setLogger(c *gin.Context, l zerolog.Logger) {
	c.Set(loggerKey, &l)
	c.Request = c.Request.WithContext(l.WithContext(c.Request.Context()))
}

// Recovery turns panics into the JSON error envelope with status 500 and
// logs the panic with its stack. When the handler already wrote a response
// only the status is aborted.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			LoggerFrom(c).Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Msg("panic recovered")

			if c.Writer.Written() {
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			c.Header(requestIDHeader, c.GetString(requestIDKey))
			abortWithError(c, http.StatusInternalServerError, "internal_error", "internal server error")
		}()
		c.Next()
	}
}

// LoggerFrom returns the request-scoped logger, or a copy of the global
// logger when Logger() is not installed. The result is never nil.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if lg, ok := v.(*zerolog.Logger); ok {
			return lg
		}
	}
	l := log.With().Logger()
	return &l
}

// truncate caps s at max bytes, appending an ellipsis. max <= 0 disables it.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
