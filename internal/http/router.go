// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, identity, idempotency, and rate limiting.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-chatcode-backend/internal/auth"
	"github.com/tbourn/go-chatcode-backend/internal/config"
	"github.com/tbourn/go-chatcode-backend/internal/http/handlers"
	"github.com/tbourn/go-chatcode-backend/internal/http/middleware"
	"github.com/tbourn/go-chatcode-backend/internal/repo"
)

// maxBodyBytes caps every request body.
const maxBodyBytes = 1 << 20

// accessTokenParam carries the bearer token for WebSocket clients that cannot
// set headers.
const accessTokenParam = "access_token"

// exposedHeaders are the response headers browser clients need to read for
// conditional lists, rate limiting and idempotent replay.
var exposedHeaders = []string{"ETag", "Retry-After", middleware.HeaderIdempotentReplay}

// Deps carries everything RegisterRoutes needs beyond configuration. Redis,
// Tokens and Events are optional.
type Deps struct {
	DB       *gorm.DB
	Redis    *redis.Client
	Codes    handlers.CodeService
	Requests handlers.RequestService
	Accounts handlers.AccountService
	Tokens   *auth.TokenManager
	Events   handlers.EventStream
}

// idempotencyStore adapts the repository to the middleware lookup and the
// handler recorder.
type idempotencyStore struct {
	db  *gorm.DB
	ttl time.Duration
}

// Lookup reports the resource stored under (userID, scope, key).
func (s idempotencyStore) Lookup(ctx context.Context, userID, scope, key string, now time.Time) (string, bool, error) {
	rec, err := repo.GetIdempotency(ctx, s.db, userID, scope, key, now)
	if repo.IsNotFound(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return rec.ResourceID, true, nil
}

// Remember stores resourceID under (userID, scope, key) for the configured TTL.
func (s idempotencyStore) Remember(ctx context.Context, userID, scope, key, resourceID string, status int) error {
	_, err := repo.CreateIdempotency(ctx, s.db, userID, scope, key, resourceID, status, s.ttl)
	return err
}

// idempotentRoutes maps the POST routes that honor Idempotency-Key to the
// scope their keys live in.
func idempotentRoutes(base string) map[string]string {
	if base == "/" {
		base = ""
	}
	return map[string]string{
		http.MethodPost + " " + base + "/codes":    "codes.generate",
		http.MethodPost + " " + base + "/requests": "requests.create",
	}
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), CORS and security
// headers, health and metrics endpoints, optional Swagger UI, and then mounts
// the versioned public API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger + RedactingLogger: request-scoped logger, scrubbed access log
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. CORS and Security headers
//  8. gzip (not on the WebSocket upgrade)
//
// Authenticated groups then add identity, idempotency (needs the identity)
// and rate limiting (bypassed on idempotent replay), in that order.
func RegisterRoutes(r *gin.Engine, d Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.Logger())
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskQuery: []string{accessTokenParam},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit
	r.Use(limitBody(maxBodyBytes))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) CORS posture and security headers
	r.Use(corsMiddleware(cfg.CORS)...)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:     cfg.Security.EnableHSTS,
		HSTSMaxAge:     cfg.Security.HSTSMaxAge,
		NoStore:        true,
		CacheablePaths: []string{"/swagger/"},
		EnablePolicy:   true,
		Expose:         exposedHeaders,
	}))

	apiBase := cfg.APIBasePath // e.g. "/api/v1"
	wsPath := joinPath(apiBase, "/ws")

	// 8) Compression; hijacked WebSocket connections must bypass it
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{wsPath})))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/readiness
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/ready", readiness(d))

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection
	store := idempotencyStore{db: d.DB, ttl: cfg.IdempotencyTTL}
	var (
		resolver middleware.IdentityResolver
		issuer   handlers.TokenIssuer
	)
	if d.Tokens != nil {
		resolver, issuer = d.Tokens, d.Tokens
	}
	h := handlers.New(handlers.Deps{
		Codes:       d.Codes,
		Requests:    d.Requests,
		Accounts:    d.Accounts,
		Tokens:      issuer,
		Idempotency: store,
		Events:      d.Events,
	})

	identity := middleware.IdentityOptions{
		TrustUserHeader: cfg.Auth.TrustUserHeader,
		Expired:         func(err error) bool { return errors.Is(err, auth.ErrExpiredToken) },
	}
	idem := middleware.IdempotencyValidator(middleware.IdempotencyOptions{
		Scopes: idempotentRoutes(apiBase),
		MaxLen: 200,
	}, store.Lookup)
	limiter := rateLimiter(d.Redis, cfg.Rate)

	api := groupWithPrefix(r, apiBase)
	{
		// Accounts (anonymous; rate limited by IP)
		pub := api.Group("/auth", limiter)
		pub.POST("/sign-up", h.SignUp)
		pub.POST("/sign-in", h.SignIn)

		authed := api.Group("", middleware.RequireIdentity(resolver, identity), idem, limiter)

		authed.GET("/me", h.Me)

		// Code Registry
		authed.POST("/codes", h.GenerateCode)
		authed.GET("/codes", h.ListCodes)
		authed.GET("/codes/:code", h.CheckCode)
		authed.GET("/codes/:code/request", h.CodeRequest)
		authed.DELETE("/codes/:id", h.RetireCode)

		// Request Ledger
		authed.POST("/requests", h.CreateRequest)
		authed.GET("/requests/incoming", h.ListIncoming)
		authed.GET("/requests/outgoing", h.ListOutgoing)
		authed.GET("/requests/:id", h.GetRequest)
		authed.POST("/requests/:id/resolve", h.ResolveRequest)
	}

	// Realtime: browsers cannot set Authorization on the upgrade request.
	wsIdentity := identity
	wsIdentity.QueryParam = accessTokenParam
	r.GET(wsPath, middleware.RequireIdentity(resolver, wsIdentity), h.Events)
}

// corsMiddleware returns the CORS chain. With no allowlist every origin is
// accepted without credentials; otherwise allowed origins are echoed back.
func corsMiddleware(cfg config.CORSConfig) []gin.HandlerFunc {
	methods := []string{"GET", "POST", "DELETE", "OPTIONS"}
	headers := []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderUserID, middleware.HeaderIdempotencyKey, "If-None-Match"}
	expose := append([]string{"X-Request-ID", "Content-Length"}, exposedHeaders...)

	if len(cfg.AllowedOrigins) == 0 {
		return []gin.HandlerFunc{
			// Force ACAO: * even without an Origin header (simple health checks).
			func(c *gin.Context) {
				c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
				c.Next()
			},
			cors.New(cors.Config{
				AllowAllOrigins:  true,
				AllowMethods:     methods,
				AllowHeaders:     headers,
				ExposeHeaders:    expose,
				AllowCredentials: false, // must remain false with AllowAllOrigins
				MaxAge:           12 * time.Hour,
			}),
		}
	}

	allowed := make(map[string]struct{}, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		allowed[o] = struct{}{}
	}
	return []gin.HandlerFunc{
		func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		},
		cors.New(cors.Config{
			AllowOrigins:     cfg.AllowedOrigins,
			AllowMethods:     methods,
			AllowHeaders:     headers,
			ExposeHeaders:    expose,
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}),
	}
}

// rateLimiter picks the limiter backend. The Redis backend falls back to the
// in-process bucket when no client is available.
func rateLimiter(rdb *redis.Client, cfg config.RateLimitConfig) gin.HandlerFunc {
	if cfg.Backend == "redis" && rdb != nil {
		return middleware.NewRedisRateLimiter(rdb, cfg.PerMinute, middleware.KeyByUserOrIP()).Handler()
	}
	return middleware.NewRateLimiter(cfg.RPS, cfg.Burst, middleware.KeyByUserOrIP()).Handler()
}

// readiness pings the database and, when configured, Redis.
func readiness(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		checks := gin.H{}
		healthy := true
		if d.DB != nil {
			if sqlDB, err := d.DB.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
				checks["db"], healthy = "down", false
			} else {
				checks["db"] = "ok"
			}
		}
		if d.Redis != nil {
			if err := d.Redis.Ping(ctx).Err(); err != nil {
				checks["redis"], healthy = "down", false
			} else {
				checks["redis"] = "ok"
			}
		}
		if !healthy {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "checks": checks})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "checks": checks})
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}

// joinPath appends p to base, treating "/" (or empty) as root.
func joinPath(base, p string) string {
	if base == "" || base == "/" {
		return p
	}
	return base + p
}
