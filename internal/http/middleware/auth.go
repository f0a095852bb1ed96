package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// userIDKey is the Gin context key holding the authenticated user id.
	userIDKey = "userID"
	// HeaderUserID is accepted as identity only when trust mode is enabled.
	HeaderUserID = "X-User-ID"
)

// IdentityResolver turns a bearer credential into a user id.
type IdentityResolver interface {
	Resolve(ctx context.Context, token string) (string, error)
}

// IdentityOptions configures RequireIdentity.
type IdentityOptions struct {
	// TrustUserHeader accepts X-User-ID without a token. Dev and test only.
	TrustUserHeader bool
	// Expired reports whether a resolver error means the token has expired.
	Expired func(error) bool
	// QueryParam, when set, names a query parameter carrying the token for
	// clients that cannot send headers (browser WebSocket handshakes).
	QueryParam string
}

// UserID returns the authenticated caller stored by RequireIdentity, or "".
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

// RequireIdentity authenticates every request in the group. A valid
// "Authorization: Bearer <token>" (or the configured query parameter) wins;
// otherwise, in trust mode, a non-empty X-User-ID is used. Anything else is
// rejected with 401 unauthenticated.
//
// On success the user id is stored under "userID" in the Gin context and the
// request-scoped logger (and the request context logger) gain a user_id field.
func RequireIdentity(resolver IdentityResolver, opts IdentityOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, msg := "", "missing credentials"

		raw, ok := bearer(c.GetHeader("Authorization"))
		if !ok && opts.QueryParam != "" {
			raw = strings.TrimSpace(c.Query(opts.QueryParam))
			ok = raw != ""
		}
		if ok && resolver != nil {
			id, err := resolver.Resolve(c.Request.Context(), raw)
			switch {
			case err == nil:
				uid = id
			case opts.Expired != nil && opts.Expired(err):
				msg = "token expired"
			default:
				msg = "invalid token"
			}
		} else if opts.TrustUserHeader {
			uid = strings.TrimSpace(c.GetHeader(HeaderUserID))
		}

		if uid == "" {
			c.Header("WWW-Authenticate", `Bearer realm="api"`)
			abortWithError(c, http.StatusUnauthorized, "unauthenticated", msg)
			return
		}

		c.Set(userIDKey, uid)
		enrichLogger(c, "user_id", uid)
		c.Next()
	}
}

// bearer extracts the token from an "Authorization: Bearer <token>" value.
func bearer(h string) (string, bool) {
	const prefix = "bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	tok := strings.TrimSpace(h[len(prefix):])
	return tok, tok != ""
}
