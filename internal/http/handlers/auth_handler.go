// Account HTTP handlers.
//
//   - POST /auth/sign-up  (register, returns a bearer token)
//   - POST /auth/sign-in  (authenticate, returns a bearer token)
//   - GET  /me            (caller's profile)
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-chatcode-backend/internal/domain"
)

// SignUpRequest is the JSON payload for registering.
type SignUpRequest struct {
	Name     string `json:"name"     binding:"required" example:"Ada Lovelace"`
	Email    string `json:"email"    binding:"required" example:"ada@example.com"`
	Password string `json:"password" binding:"required" example:"correct horse battery"`
}

// SignInRequest is the JSON payload for authenticating.
type SignInRequest struct {
	Email    string `json:"email"    binding:"required" example:"ada@example.com"`
	Password string `json:"password" binding:"required" example:"correct horse battery"`
}

// AuthResponse carries the account and a bearer token for it.
type AuthResponse struct {
	User      *domain.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// SignUp godoc
// @ID          signUp
// @Summary     Register
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.SignUpRequest  true  "Account"
// @Success     201  {object} handlers.AuthResponse
// @Failure     400  {object} handlers.ErrorResponse "Invalid profile"
// @Failure     409  {object} handlers.ErrorResponse "Email taken"
// @Router      /auth/sign-up [post]
func (h *Handlers) SignUp(c *gin.Context) {
	var req SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "name, email and password required")
		return
	}
	u, err := h.accounts.SignUp(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		failErr(c, err)
		return
	}
	h.issue(c, http.StatusCreated, u)
}

// SignIn godoc
// @ID          signIn
// @Summary     Sign in
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.SignInRequest  true  "Credentials"
// @Success     200  {object} handlers.AuthResponse
// @Failure     401  {object} handlers.ErrorResponse "Invalid credentials"
// @Router      /auth/sign-in [post]
func (h *Handlers) SignIn(c *gin.Context) {
	var req SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "email and password required")
		return
	}
	u, err := h.accounts.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		failErr(c, err)
		return
	}
	h.issue(c, http.StatusOK, u)
}

// Me godoc
// @ID          me
// @Summary     Current user
// @Tags        Auth
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object} domain.User
// @Failure     401  {object} handlers.ErrorResponse "Unauthenticated"
// @Failure     404  {object} handlers.ErrorResponse "No account for this identity"
// @Router      /me [get]
func (h *Handlers) Me(c *gin.Context) {
	u, err := h.accounts.Profile(c.Request.Context(), userID(c))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}

func (h *Handlers) issue(c *gin.Context, status int, u *domain.User) {
	if h.tokens == nil {
		fail(c, http.StatusServiceUnavailable, ErrCodeInternal, "token issuing disabled")
		return
	}
	tok, exp, err := h.tokens.Issue(u.ID)
	if err != nil {
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not issue token")
		return
	}
	ok(c, status, AuthResponse{User: u, Token: tok, ExpiresAt: exp})
}
