// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// SecurityHeaders hardens JSON responses. Chat codes act as bearer secrets
// while they are active, so API responses are marked no-store by default;
// conditional list endpoints replace that with "private, no-cache" so their
// weak ETags can be revalidated.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const defaultHSTSMaxAge = 180 * 24 * time.Hour

// SecurityOptions configures SecurityHeaders.
type SecurityOptions struct {
	// EnableHSTS emits Strict-Transport-Security on HTTPS requests only.
	EnableHSTS bool
	HSTSMaxAge time.Duration // defaults to 180 days

	// NoStore marks responses Cache-Control: no-store. Handlers may override.
	NoStore bool
	// CacheablePaths are path prefixes exempt from NoStore (e.g. /swagger).
	CacheablePaths []string

	// EnablePolicy adds Permissions-Policy and X-Permitted-Cross-Domain-Policies.
	EnablePolicy bool

	// Expose lists response headers browser clients may read. X-Request-ID is
	// always included.
	Expose []string
}

// SecurityHeaders returns a Gin middleware that sets the baseline headers
// (nosniff, frame deny, no-referrer) and the optional ones selected in opt.
// Expose entries are merged into any Access-Control-Expose-Headers value a
// previous middleware (CORS) already wrote.
func SecurityHeaders(opt SecurityOptions) gin.HandlerFunc {
	maxAge := opt.HSTSMaxAge
	if maxAge <= 0 {
		maxAge = defaultHSTSMaxAge
	}
	hsts := "max-age=" + strconv.Itoa(int(maxAge.Seconds())) + "; includeSubDomains; preload"
	expose := append([]string{requestIDHeader}, opt.Expose...)

	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")

		if opt.EnablePolicy {
			h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()")
			h.Set("X-Permitted-Cross-Domain-Policies", "none")
		}
		if opt.NoStore && !hasAnyPrefix(c.Request.URL.Path, opt.CacheablePaths) {
			h.Set("Cache-Control", "no-store")
			h.Set("Pragma", "no-cache")
			h.Set("Expires", "0")
		}
		if opt.EnableHSTS && isHTTPS(c.Request) {
			h.Set("Strict-Transport-Security", hsts)
		}
		if v := mergeHeaderList(h.Get("Access-Control-Expose-Headers"), expose); v != "" {
			h.Set("Access-Control-Expose-Headers", v)
		}

		c.Next()
	}
}

// mergeHeaderList appends names missing (case-insensitively) from the
// comma-separated list cur, preserving its order.
func mergeHeaderList(cur string, names []string) string {
	seen := make(map[string]struct{})
	out := make([]string, 0, len(names))
	for _, p := range strings.Split(cur, ",") {
		if p = strings.TrimSpace(p); p != "" {
			seen[strings.ToLower(p)] = struct{}{}
			out = append(out, p)
		}
	}
	for _, n := range names {
		k := strings.ToLower(strings.TrimSpace(n))
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, strings.TrimSpace(n))
	}
	return strings.Join(out, ", ")
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// isHTTPS reports whether the request arrived over TLS, directly or through a
// proxy that set X-Forwarded-Proto: https.
func isHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
