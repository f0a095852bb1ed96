// Request HTTP handlers.
//
// This file exposes REST endpoints for chat requests:
//   - POST /requests              (request a chat with a code; Idempotency-Key aware)
//   - GET  /requests/incoming     (live requests addressed to the caller, ETag support)
//   - GET  /requests/outgoing     (live requests sent by the caller, ETag support)
//   - GET  /requests/{id}         (one request the caller takes part in)
//   - POST /requests/{id}/resolve (accept or decline)
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-chatcode-backend/internal/domain"
	"github.com/tbourn/go-chatcode-backend/internal/http/middleware"
)

//
// DTOs
//

// CreateRequestRequest is the JSON payload for requesting a chat.
type CreateRequestRequest struct {
	// Code is the 8-digit code shared by the other user.
	Code string `json:"code" binding:"required" example:"47182930"`
}

// ResolveRequestRequest is the JSON payload for resolving a request.
type ResolveRequestRequest struct {
	// Action is exactly "accept" or "decline" (case-sensitive).
	Action string `json:"action" binding:"required" example:"accept" enums:"accept,decline"`
}

// ListRequestsResponse wraps requests in insertion order.
type ListRequestsResponse struct {
	Requests []domain.ChatRequest `json:"requests"`
}

//
// Handlers
//

// CreateRequest godoc
// @ID          createRequest
// @Summary     Request a chat
// @Description Sends a pending request to the owner of a live code. Supports idempotency via the Idempotency-Key header.
// @Tags        Requests
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries (UUID recommended)"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       body             body    handlers.CreateRequestRequest  true  "Code to request"
//
// @Success     201  {object}  domain.ChatRequest
// @Success     200  {object}  domain.ChatRequest  "Idempotent replay"
// @Failure     400  {object}  handlers.ErrorResponse  "Malformed code or body"
// @Failure     404  {object}  handlers.ErrorResponse  "Unknown, expired, or retired code"
// @Failure     409  {object}  handlers.ErrorResponse  "Own code or duplicate request"
// @Router      /requests [post]
func (h *Handlers) CreateRequest(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)

	if middleware.IsReplay(c) {
		if prev, err := h.requests.Get(ctx, uid, middleware.ReplayResourceID(c)); err == nil {
			replayed(c)
			ok(c, http.StatusOK, prev)
			return
		}
	}

	var req CreateRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "code required")
		return
	}

	r, err := h.requests.Create(ctx, uid, req.Code)
	if err != nil {
		failErr(c, err)
		return
	}
	h.remember(c, r.ID, http.StatusCreated)
	ok(c, http.StatusCreated, r)
}

// ListIncoming godoc
// @ID          listIncomingRequests
// @Summary     List incoming requests
// @Description Returns pending and accepted requests addressed to the caller, oldest first. Supports weak ETag via If-None-Match.
// @Tags        Requests
// @Produce     json
// @Security    BearerAuth
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
//
// @Success     200  {object} handlers.ListRequestsResponse
// @Header      200  {string} ETag  "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     401  {object} handlers.ErrorResponse "Unauthenticated"
// @Router      /requests/incoming [get]
func (h *Handlers) ListIncoming(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)

	if notModified(c, "incoming", func() (int64, *time.Time, error) { return h.requests.IncomingStats(ctx, uid) }) {
		return
	}
	items, err := h.requests.ListIncoming(ctx, uid)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ListRequestsResponse{Requests: items})
}

// ListOutgoing godoc
// @ID          listOutgoingRequests
// @Summary     List outgoing requests
// @Description Returns pending and accepted requests sent by the caller, oldest first. Supports weak ETag via If-None-Match.
// @Tags        Requests
// @Produce     json
// @Security    BearerAuth
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
//
// @Success     200  {object} handlers.ListRequestsResponse
// @Header      200  {string} ETag  "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     401  {object} handlers.ErrorResponse "Unauthenticated"
// @Router      /requests/outgoing [get]
func (h *Handlers) ListOutgoing(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)

	if notModified(c, "outgoing", func() (int64, *time.Time, error) { return h.requests.OutgoingStats(ctx, uid) }) {
		return
	}
	items, err := h.requests.ListOutgoing(ctx, uid)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ListRequestsResponse{Requests: items})
}

// GetRequest godoc
// @ID          getRequest
// @Summary     Get a request
// @Description Returns a request the caller sent or received, including declined ones.
// @Tags        Requests
// @Produce     json
// @Security    BearerAuth
//
// @Param       id  path  string  true  "Request ID (UUID)"  format(uuid)
//
// @Success     200  {object} domain.ChatRequest
// @Failure     404  {object} handlers.ErrorResponse "Not found"
// @Router      /requests/{id} [get]
func (h *Handlers) GetRequest(c *gin.Context) {
	r, err := h.requests.Get(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, r)
}

// ResolveRequest godoc
// @ID          resolveRequest
// @Summary     Accept or decline a request
// @Description Resolves a pending request addressed to the caller. Declined requests disappear from listings.
// @Tags        Requests
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       id    path  string  true  "Request ID (UUID)"  format(uuid)
// @Param       body  body  handlers.ResolveRequestRequest  true  "Resolution"
//
// @Success     200  {object} domain.ChatRequest
// @Failure     400  {object} handlers.ErrorResponse "Unknown action"
// @Failure     403  {object} handlers.ErrorResponse "Not the recipient"
// @Failure     409  {object} handlers.ErrorResponse "Already resolved"
// @Router      /requests/{id}/resolve [post]
func (h *Handlers) ResolveRequest(c *gin.Context) {
	var req ResolveRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "action required")
		return
	}
	r, err := h.requests.Resolve(c.Request.Context(), c.Param("id"), userID(c), req.Action)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, r)
}
