// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements Idempotency-Key support for the unsafe POST routes
// (code generation, request creation). The middleware validates the header,
// asks a lookup whether the caller already completed the same operation under
// that key, and annotates the context so handlers can:
//   - read the normalized key (GetIdempotencyKey)
//   - detect a replay and the resource it produced (IsReplay, ReplayResourceID)
//   - skip rate limiting when a replay is served (via an internal flag)
//
// Persistence stays behind the IdempotencyLookup function type; the handler
// records the key once the operation has succeeded.
package middleware

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey is the request header carrying the client's key.
const HeaderIdempotencyKey = "Idempotency-Key"

// HeaderIdempotentReplay is set on responses served from a stored result.
const HeaderIdempotentReplay = "Idempotency-Replayed"

const (
	ctxKeyIdemKey      = "idem.key"
	ctxKeyIdemScope    = "idem.scope"
	ctxKeyIdemReplay   = "idem.replay"   // bool
	ctxKeyIdemResource = "idem.resource" // string: id produced by the first call
	ctxKeyRateBypass   = "rate.bypass"   // bool
)

// GetIdempotencyKey returns the validated key and its scope as stashed by
// IdempotencyValidator. ok is false when the request carried no key.
func GetIdempotencyKey(c *gin.Context) (key, scope string, ok bool) {
	key = c.GetString(ctxKeyIdemKey)
	scope = c.GetString(ctxKeyIdemScope)
	return key, scope, key != ""
}

// IsReplay reports whether the key matched a previously completed operation.
func IsReplay(c *gin.Context) bool {
	return c.GetBool(ctxKeyIdemReplay)
}

// ReplayResourceID returns the id of the resource created by the original
// request when IsReplay is true.
func ReplayResourceID(c *gin.Context) string {
	return c.GetString(ctxKeyIdemResource)
}

// IdempotencyOptions configures header validation.
type IdempotencyOptions struct {
	// Scopes maps "METHOD /route/path" (the registered Gin route) to the
	// scope its keys live in, e.g. "POST /api/v1/codes" → "codes.generate".
	// Requests on routes not listed ignore the header.
	Scopes map[string]string
	// MaxLen caps the accepted key length. Values <= 0 default to 200.
	MaxLen int
	// Pattern restricts allowed characters. Defaults to ^[A-Za-z0-9._~\-:]+$
	Pattern *regexp.Regexp
}

// IdempotencyLookup reports the resource id stored for (userID, scope, key)
// if a still-valid record exists at now. Lookup errors never block the
// request; they are treated as "no record".
type IdempotencyLookup func(ctx context.Context, userID, scope, key string, now time.Time) (resourceID string, exists bool, err error)

// IdempotencyValidator validates the Idempotency-Key header and, when lookup
// finds a stored result for the authenticated caller, marks the request as a
// replay.
//
//   - No header, or a route without a scope: no-op.
//   - Malformed header: 400 bad_idempotency_key.
//   - No authenticated user in context: the key is stashed but never looked up.
//
// Install it after RequireIdentity so the caller is known, and before the
// rate limiter so replays bypass it.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		scope, scoped := opts.Scopes[c.Request.Method+" "+c.FullPath()]
		if key == "" || !scoped {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			abortWithError(c, http.StatusBadRequest, "bad_idempotency_key", "invalid Idempotency-Key")
			return
		}

		c.Set(ctxKeyIdemKey, key)
		c.Set(ctxKeyIdemScope, scope)

		if uid := UserID(c); lookup != nil && uid != "" {
			rid, exists, err := lookup(c.Request.Context(), uid, scope, key, time.Now().UTC())
			if err != nil {
				LoggerFrom(c).Warn().Err(err).Str("scope", scope).Msg("idempotency lookup failed")
			}
			if exists && rid != "" {
				c.Set(ctxKeyIdemReplay, true)
				c.Set(ctxKeyIdemResource, rid)
				c.Set(ctxKeyRateBypass, true)
			}
		}

		c.Next()
	}
}
