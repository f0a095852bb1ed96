package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeStream struct{ users []string }

func (f *fakeStream) Serve(w http.ResponseWriter, _ *http.Request, userID string) error {
	f.users = append(f.users, userID)
	w.WriteHeader(http.StatusSwitchingProtocols)
	return nil
}

func TestEvents(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		api := newTestAPI(t, nil)
		w := api.do(t, http.MethodGet, "/ws", "alice", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("hands the caller to the stream", func(t *testing.T) {
		s := &fakeStream{}
		api := newTestAPI(t, s)
		w := api.do(t, http.MethodGet, "/ws", "alice", nil)
		assert.Equal(t, http.StatusSwitchingProtocols, w.Code)
		assert.Equal(t, []string{"alice"}, s.users)

		w = api.do(t, http.MethodGet, "/ws", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Len(t, s.users, 1)
	})
}
