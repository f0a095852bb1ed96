package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-chatcode-backend/internal/http/middleware"
)

// Events godoc
// @ID          events
// @Summary     Event stream
// @Description Upgrades to a WebSocket that pushes request.created, request.resolved and code.retired events for the caller. Browsers may pass the bearer token as access_token.
// @Tags        Realtime
// @Security    BearerAuth
// @Param       access_token  query  string  false  "Bearer token for clients that cannot set headers"
// @Success     101  {string} string "Switching Protocols"
// @Failure     401  {object} handlers.ErrorResponse "Unauthenticated"
// @Router      /ws [get]
func (h *Handlers) Events(c *gin.Context) {
	if h.events == nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "realtime disabled")
		return
	}
	uid := userID(c)
	lg := middleware.LoggerFrom(c)
	lg.Debug().Msg("event stream opened")
	if err := h.events.Serve(c.Writer, c.Request, uid); err != nil {
		lg.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}
	lg.Debug().Msg("event stream closed")
}
