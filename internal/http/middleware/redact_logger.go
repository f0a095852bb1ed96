package middleware

import (
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const redactedValue = "[REDACTED]"

// Scrub patterns, applied in order. JWTs and UUIDs go first so their segments
// are not partially rewritten by the looser patterns.
var scrubbers = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`\beyJ[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+\.[A-Za-z0-9_-]*`), "[REDACTED:token]"},
	{regexp.MustCompile(`(?i)\b[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}\b`), "[REDACTED:id]"},
	{regexp.MustCompile(`\b[0-9]{8}\b`), "[REDACTED:code]"},
	{regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`), "[REDACTED:email]"},
}

// alwaysMasked are request headers never logged, whatever the options say.
var alwaysMasked = []string{"Authorization", "Cookie", "Set-Cookie", HeaderIdempotencyKey}

// RedactOptions adds to the built-in scrubbing of RedactingLogger.
type RedactOptions struct {
	// MaskHeaders are extra header names (case-insensitive) logged as [REDACTED].
	MaskHeaders []string
	// MaskQuery are query parameter names whose values are replaced wholesale,
	// e.g. "access_token".
	MaskQuery []string
}

// redact applies every scrub pattern to s.
func redact(s string) string {
	for _, sc := range scrubbers {
		if s == "" {
			break
		}
		s = sc.re.ReplaceAllString(s, sc.repl)
	}
	return s
}

// RedactingLogger writes one access log line per request through the
// request-scoped logger: info for 2xx/3xx, warn for 4xx, error for 5xx.
// Bodies are never logged. Chat codes, user ids, emails and tokens are
// scrubbed from unmatched paths, the query and header values; credential
// headers are masked entirely.
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	maskHeaders := make(map[string]struct{})
	for _, h := range append(append([]string(nil), alwaysMasked...), opts.MaskHeaders...) {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			maskHeaders[h] = struct{}{}
		}
	}
	maskParams := make(map[string]struct{}, len(opts.MaskQuery))
	for _, p := range opts.MaskQuery {
		if p = strings.TrimSpace(p); p != "" {
			maskParams[p] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		start := time.Now()

		route := c.FullPath()
		if route == "" {
			route = redact(c.Request.URL.Path)
		}
		query := redact(truncate(maskQuery(c.Request.URL.RawQuery, maskParams), maxQueryLogLength))

		headers := make(map[string]string, len(c.Request.Header))
		for k, vv := range c.Request.Header {
			if _, ok := maskHeaders[strings.ToLower(k)]; ok {
				headers[k] = redactedValue
				continue
			}
			headers[k] = redact(strings.Join(vv, ", "))
		}

		c.Next()

		status := c.Writer.Status()
		lg := LoggerFrom(c)
		ev := lg.Info()
		switch {
		case status >= 500:
			ev = lg.Error()
		case status >= 400:
			ev = lg.Warn()
		}
		// Logger() already put request_id and method on the scoped logger.
		if _, scoped := c.Get(loggerKey); !scoped {
			rid := c.Writer.Header().Get(requestIDHeader)
			if rid == "" {
				rid = c.GetHeader(requestIDHeader)
			}
			ev = ev.Str("request_id", rid).Str("method", c.Request.Method)
		}
		ev.Str("route", route).
			Str("query", query).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Interface("headers", headers).
			Msg("http_request")
	}
}

// maskQuery replaces the values of the named parameters in a raw query
// string and leaves everything else byte-for-byte intact.
func maskQuery(raw string, params map[string]struct{}) string {
	if raw == "" || len(params) == 0 {
		return raw
	}
	parts := strings.Split(raw, "&")
	for i, p := range parts {
		name, _, hasValue := strings.Cut(p, "=")
		if _, ok := params[name]; ok && hasValue {
			parts[i] = name + "=" + redactedValue
		}
	}
	return strings.Join(parts, "&")
}
