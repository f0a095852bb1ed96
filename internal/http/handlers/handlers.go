// Package handlers provides HTTP handler implementations for the public API.
//
// Handlers are transport-thin: they bind and validate input, call the
// application services through the interfaces below, and translate results
// into HTTP responses (including conditional GETs and idempotent replays).
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-chatcode-backend/internal/domain"
	"github.com/tbourn/go-chatcode-backend/internal/http/middleware"
)

//
// Service contracts (context-aware)
//

// CodeService is the Code Registry as seen by HTTP handlers.
type CodeService interface {
	Generate(ctx context.Context, ownerID string, isOneTime bool, validityHours int) (*domain.ChatCode, error)
	IsCodeActive(ctx context.Context, code string) (string, error)
	ListActive(ctx context.Context, ownerID string) ([]domain.ChatCode, error)
	Get(ctx context.Context, ownerID, codeID string) (*domain.ChatCode, error)
	RetireOwned(ctx context.Context, ownerID, codeID string) error
	Stats(ctx context.Context, ownerID string) (int64, *time.Time, error)
}

// RequestService is the Request Ledger as seen by HTTP handlers.
type RequestService interface {
	Create(ctx context.Context, requesterID, code string) (*domain.ChatRequest, error)
	Get(ctx context.Context, userID, requestID string) (*domain.ChatRequest, error)
	ListIncoming(ctx context.Context, userID string) ([]domain.ChatRequest, error)
	ListOutgoing(ctx context.Context, userID string) ([]domain.ChatRequest, error)
	FindOutgoingForCode(ctx context.Context, requesterID, code string) (*domain.ChatRequest, error)
	Resolve(ctx context.Context, requestID, resolverID, action string) (*domain.ChatRequest, error)
	IncomingStats(ctx context.Context, userID string) (int64, *time.Time, error)
	OutgoingStats(ctx context.Context, userID string) (int64, *time.Time, error)
}

// AccountService registers and authenticates users.
type AccountService interface {
	SignUp(ctx context.Context, name, email, password string) (*domain.User, error)
	SignIn(ctx context.Context, email, password string) (*domain.User, error)
	Profile(ctx context.Context, userID string) (*domain.User, error)
}

// TokenIssuer mints bearer tokens for authenticated users.
type TokenIssuer interface {
	Issue(userID string) (token string, expiresAt time.Time, err error)
}

// IdempotencyRecorder stores the resource produced under an Idempotency-Key
// so IdempotencyValidator can flag retries as replays.
type IdempotencyRecorder interface {
	Remember(ctx context.Context, userID, scope, key, resourceID string, status int) error
}

// EventStream attaches an upgraded websocket connection to a user's event
// feed. It returns once the connection is closed.
type EventStream interface {
	Serve(w http.ResponseWriter, r *http.Request, userID string) error
}

//
// Handler wiring
//

// Deps groups the services Handlers depends on. Idempotency and Events are
// optional.
type Deps struct {
	Codes       CodeService
	Requests    RequestService
	Accounts    AccountService
	Tokens      TokenIssuer
	Idempotency IdempotencyRecorder
	Events      EventStream
}

// Handlers groups HTTP endpoints for codes, requests, accounts, and the
// realtime stream.
type Handlers struct {
	codes    CodeService
	requests RequestService
	accounts AccountService
	tokens   TokenIssuer
	idem     IdempotencyRecorder
	events   EventStream
}

// New constructs a Handlers instance bound to the given services.
func New(d Deps) *Handlers {
	return &Handlers{
		codes:    d.Codes,
		requests: d.Requests,
		accounts: d.Accounts,
		tokens:   d.Tokens,
		idem:     d.Idempotency,
		events:   d.Events,
	}
}

// userID returns the caller authenticated by middleware.RequireIdentity.
func userID(c *gin.Context) string { return middleware.UserID(c) }

//
// Helpers
//

// listETag builds a weak ETag from a list's size and latest update. It changes
// whenever an item is added, removed, or updated.
func listETag(kind, uid string, count int64, maxTS *time.Time) string {
	var ts int64
	if maxTS != nil {
		ts = maxTS.UnixNano()
	}
	return fmt.Sprintf(`W/"%s:%s:%d:%d"`, kind, uid, count, ts)
}

// notModified sets the ETag and returns true (after writing 304) when the
// client's If-None-Match already names it. Stats errors skip the check.
func notModified(c *gin.Context, kind string, stats func() (int64, *time.Time, error)) bool {
	count, maxTS, err := stats()
	if err != nil {
		middleware.LoggerFrom(c).Warn().Err(err).Str("list", kind).Msg("etag stats failed")
		return false
	}
	etag := listETag(kind, userID(c), count, maxTS)
	c.Header("ETag", etag)
	c.Header("Cache-Control", "private, no-cache")
	if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
		c.Status(http.StatusNotModified)
		return true
	}
	return false
}

// remember records the idempotency key (if any) for a freshly created
// resource. Failures are logged; the response is already decided.
func (h *Handlers) remember(c *gin.Context, resourceID string, status int) {
	if h.idem == nil {
		return
	}
	key, scope, ok := middleware.GetIdempotencyKey(c)
	if !ok {
		return
	}
	if err := h.idem.Remember(c.Request.Context(), userID(c), scope, key, resourceID, status); err != nil {
		middleware.LoggerFrom(c).Warn().Err(err).Str("scope", scope).Msg("idempotency record failed")
	}
}

// replayed marks a response as served from a stored result.
func replayed(c *gin.Context) {
	c.Header(middleware.HeaderIdempotentReplay, "true")
}
