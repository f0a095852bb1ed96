// Code HTTP handlers.
//
// This file exposes REST endpoints for chat codes:
//   - POST   /codes                (generate; Idempotency-Key aware)
//   - GET    /codes                (list caller's live codes, ETag support)
//   - GET    /codes/{code}         (is the code live, and whose is it)
//   - GET    /codes/{code}/request (caller's live request on that code)
//   - DELETE /codes/{id}           (retire an owned code)
package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-chatcode-backend/internal/domain"
	"github.com/tbourn/go-chatcode-backend/internal/http/middleware"
)

//
// DTOs
//

// GenerateCodeRequest is the JSON payload for minting a code.
type GenerateCodeRequest struct {
	// IsOneTime marks the code single-use.
	IsOneTime bool `json:"is_one_time" example:"true"`
	// ValidityHours sets the lifetime; omit or 0 for a code that never expires.
	ValidityHours *int `json:"validity_hours,omitempty" example:"24"`
}

// ListCodesResponse wraps the caller's live codes, newest first.
type ListCodesResponse struct {
	Codes []domain.ChatCode `json:"codes"`
}

// CodeStatusResponse reports a live code and its owner.
type CodeStatusResponse struct {
	Code    string `json:"code"     example:"47182930"`
	OwnerID string `json:"owner_id" example:"5b0c0b5e-6a0a-4a5f-9d55-0d1b1bd0c7a2"`
}

// CodeRequestResponse names the caller's live request on a code.
type CodeRequestResponse struct {
	RequestID string `json:"request_id" example:"9e2a3b1c-6f0d-4e6b-8a8e-1f2a3b4c5d6e"`
	Status    string `json:"status"     example:"pending"`
}

//
// Handlers
//

// GenerateCode godoc
// @ID          generateCode
// @Summary     Generate a chat code
// @Description Mints a fresh 8-digit code owned by the caller. Supports idempotency via the Idempotency-Key header (same key → same code).
// @Tags        Codes
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries (UUID recommended)"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       body             body    handlers.GenerateCodeRequest  false  "Code options"
//
// @Success     201  {object}  domain.ChatCode
// @Success     200  {object}  domain.ChatCode  "Idempotent replay"
// @Header      200  {string}  Idempotency-Replayed  "true when served from a previous request"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthenticated"
// @Failure     503  {object}  handlers.ErrorResponse  "Code space exhausted"
// @Router      /codes [post]
func (h *Handlers) GenerateCode(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)

	if middleware.IsReplay(c) {
		if prev, err := h.codes.Get(ctx, uid, middleware.ReplayResourceID(c)); err == nil {
			replayed(c)
			ok(c, http.StatusOK, prev)
			return
		}
	}

	// an empty body means defaults: reusable, never expires
	var req GenerateCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	hours := 0
	if req.ValidityHours != nil {
		hours = *req.ValidityHours
	}

	code, err := h.codes.Generate(ctx, uid, req.IsOneTime, hours)
	if err != nil {
		failErr(c, err)
		return
	}
	h.remember(c, code.ID, http.StatusCreated)
	ok(c, http.StatusCreated, code)
}

// ListCodes godoc
// @ID          listCodes
// @Summary     List my live codes
// @Description Returns the caller's codes that are neither retired nor expired, newest first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Codes
// @Produce     json
// @Security    BearerAuth
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"codes:u1:2:1700000000000000000\")
//
// @Success     200  {object} handlers.ListCodesResponse
// @Header      200  {string} ETag  "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     401  {object} handlers.ErrorResponse "Unauthenticated"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /codes [get]
func (h *Handlers) ListCodes(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)

	if notModified(c, "codes", func() (int64, *time.Time, error) { return h.codes.Stats(ctx, uid) }) {
		return
	}

	items, err := h.codes.ListActive(ctx, uid)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ListCodesResponse{Codes: items})
}

// CheckCode godoc
// @ID          checkCode
// @Summary     Check a code
// @Description Reports whether the code is live and who owns it.
// @Tags        Codes
// @Produce     json
// @Security    BearerAuth
//
// @Param       code  path  string  true  "8-digit code"  example(47182930)
//
// @Success     200  {object} handlers.CodeStatusResponse
// @Failure     400  {object} handlers.ErrorResponse "Malformed code"
// @Failure     404  {object} handlers.ErrorResponse "Unknown, expired, or retired code"
// @Router      /codes/{code} [get]
func (h *Handlers) CheckCode(c *gin.Context) {
	code := c.Param("code")
	owner, err := h.codes.IsCodeActive(c.Request.Context(), code)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, CodeStatusResponse{Code: code, OwnerID: owner})
}

// CodeRequest godoc
// @ID          codeRequest
// @Summary     Find my request on a code
// @Description Returns the caller's live request made with the given code.
// @Tags        Codes
// @Produce     json
// @Security    BearerAuth
//
// @Param       code  path  string  true  "8-digit code"  example(47182930)
//
// @Success     200  {object} handlers.CodeRequestResponse
// @Failure     400  {object} handlers.ErrorResponse "Malformed code"
// @Failure     404  {object} handlers.ErrorResponse "No live code or no request"
// @Router      /codes/{code}/request [get]
func (h *Handlers) CodeRequest(c *gin.Context) {
	r, err := h.requests.FindOutgoingForCode(c.Request.Context(), userID(c), c.Param("code"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, CodeRequestResponse{RequestID: r.ID, Status: r.Status})
}

// RetireCode godoc
// @ID          retireCode
// @Summary     Retire a code
// @Description Retires one of the caller's codes. Retiring an already retired code succeeds.
// @Tags        Codes
// @Security    BearerAuth
//
// @Param       id  path  string  true  "Code ID (UUID)"  format(uuid)
//
// @Success     204  {string} string "No Content"
// @Failure     403  {object} handlers.ErrorResponse "Not the owner"
// @Failure     404  {object} handlers.ErrorResponse "Unknown code"
// @Router      /codes/{id} [delete]
func (h *Handlers) RetireCode(c *gin.Context) {
	if err := h.codes.RetireOwned(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}
