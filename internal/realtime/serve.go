package realtime

import (
	"net/http"

	"github.com/gorilla/websocket"
)

// Server upgrades HTTP requests to event streams on a Hub.
type Server struct {
	hub      *Hub
	upgrader websocket.Upgrader
}

// NewServer returns a Server accepting browser origins in allowedOrigins.
// An empty list accepts any origin.
func NewServer(hub *Hub, allowedOrigins []string) *Server {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}
	return &Server{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if len(allowed) == 0 || origin == "" {
					return true
				}
				_, ok := allowed[origin]
				return ok
			},
		},
	}
}

// Serve upgrades the connection and streams userID's events until the peer
// disconnects or the hub stops. On upgrade failure the upgrader has already
// written an HTTP error.
func (s *Server) Serve(w http.ResponseWriter, r *http.Request, userID string) error {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := NewClient(s.hub, conn, userID)
	s.hub.Register(c)
	go c.WritePump()
	c.ReadPump()
	return nil
}
