package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbourn/go-chatcode-backend/internal/domain"
	"github.com/tbourn/go-chatcode-backend/internal/http/middleware"
)

func TestGenerateCode(t *testing.T) {
	api := newTestAPI(t, nil)

	t.Run("empty body gives a reusable code that never expires", func(t *testing.T) {
		w := api.do(t, http.MethodPost, "/codes", "alice", nil)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		c := decode[domain.ChatCode](t, w)
		assert.Regexp(t, `^[0-9]{8}$`, c.Code)
		assert.Equal(t, "alice", c.OwnerID)
		assert.False(t, c.IsOneTime)
		assert.Nil(t, c.ExpiresAt)
	})

	t.Run("one-time with validity", func(t *testing.T) {
		w := api.do(t, http.MethodPost, "/codes", "alice", map[string]any{"is_one_time": true, "validity_hours": 24})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		c := decode[domain.ChatCode](t, w)
		assert.True(t, c.IsOneTime)
		require.NotNil(t, c.ExpiresAt)
		assert.WithinDuration(t, c.CreatedAt.Add(24*time.Hour), *c.ExpiresAt, 2*time.Second)
	})

	t.Run("negative validity", func(t *testing.T) {
		w := api.do(t, http.MethodPost, "/codes", "alice", map[string]any{"validity_hours": -1})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, ErrCodeBadRequest, errCode(t, w))
	})

	t.Run("malformed json", func(t *testing.T) {
		w := api.do(t, http.MethodPost, "/codes", "alice", "{nope")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("anonymous", func(t *testing.T) {
		w := api.do(t, http.MethodPost, "/codes", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestGenerateCode_IdempotentReplay(t *testing.T) {
	api := newTestAPI(t, nil)
	key := "7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab"

	first := api.do(t, http.MethodPost, "/codes", "alice", nil, middleware.HeaderIdempotencyKey, key)
	require.Equal(t, http.StatusCreated, first.Code)
	orig := decode[domain.ChatCode](t, first)

	again := api.do(t, http.MethodPost, "/codes", "alice", nil, middleware.HeaderIdempotencyKey, key)
	require.Equal(t, http.StatusOK, again.Code)
	assert.Equal(t, "true", again.Header().Get(middleware.HeaderIdempotentReplay))
	assert.Equal(t, orig.ID, decode[domain.ChatCode](t, again).ID)

	// keys are per user
	other := api.do(t, http.MethodPost, "/codes", "bob", nil, middleware.HeaderIdempotencyKey, key)
	require.Equal(t, http.StatusCreated, other.Code)
	assert.NotEqual(t, orig.ID, decode[domain.ChatCode](t, other).ID)

	list := decode[ListCodesResponse](t, api.do(t, http.MethodGet, "/codes", "alice", nil))
	assert.Len(t, list.Codes, 1)
}

func TestListCodes_ETag(t *testing.T) {
	api := newTestAPI(t, nil)

	w := api.do(t, http.MethodGet, "/codes", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[ListCodesResponse](t, w).Codes)
	assert.JSONEq(t, `{"codes":[]}`, w.Body.String())

	require.Equal(t, http.StatusCreated, api.do(t, http.MethodPost, "/codes", "alice", nil).Code)

	w = api.do(t, http.MethodGet, "/codes", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	etag := w.Header().Get("ETag")
	require.NotEmpty(t, etag)
	assert.Contains(t, etag, `W/"codes:alice:1:`)
	assert.Equal(t, "private, no-cache", w.Header().Get("Cache-Control"))

	w = api.do(t, http.MethodGet, "/codes", "alice", nil, "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, w.Code)
	assert.Empty(t, w.Body.String())

	require.Equal(t, http.StatusCreated, api.do(t, http.MethodPost, "/codes", "alice", nil).Code)
	w = api.do(t, http.MethodGet, "/codes", "alice", nil, "If-None-Match", etag)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[ListCodesResponse](t, w).Codes, 2)
}

func TestCheckCode(t *testing.T) {
	api := newTestAPI(t, nil)
	c := decode[domain.ChatCode](t, api.do(t, http.MethodPost, "/codes", "alice", nil))

	cases := []struct {
		name     string
		code     string
		wantCode int
		wantErr  string
	}{
		{"live", c.Code, http.StatusOK, ""},
		{"too short", "1234567", http.StatusBadRequest, ErrCodeInvalidFormat},
		{"letters", "1234abcd", http.StatusBadRequest, ErrCodeInvalidFormat},
		{"unknown", nextCode(c.Code), http.StatusNotFound, ErrCodeCodeNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := api.do(t, http.MethodGet, "/codes/"+tc.code, "bob", nil)
			require.Equal(t, tc.wantCode, w.Code, w.Body.String())
			if tc.wantErr != "" {
				assert.Equal(t, tc.wantErr, errCode(t, w))
				return
			}
			got := decode[CodeStatusResponse](t, w)
			assert.Equal(t, c.Code, got.Code)
			assert.Equal(t, "alice", got.OwnerID)
		})
	}
}

func TestRetireCode(t *testing.T) {
	api := newTestAPI(t, nil)
	c := decode[domain.ChatCode](t, api.do(t, http.MethodPost, "/codes", "alice", nil))

	w := api.do(t, http.MethodDelete, "/codes/"+c.ID, "bob", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, ErrCodeUnauthorized, errCode(t, w))

	w = api.do(t, http.MethodDelete, "/codes/"+c.ID, "alice", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	// retiring twice is fine
	w = api.do(t, http.MethodDelete, "/codes/"+c.ID, "alice", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = api.do(t, http.MethodGet, "/codes/"+c.Code, "bob", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(t, http.MethodDelete, "/codes/00000000-0000-0000-0000-000000000000", "alice", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCodeRequest(t *testing.T) {
	api := newTestAPI(t, nil)
	c := decode[domain.ChatCode](t, api.do(t, http.MethodPost, "/codes", "alice", nil))

	w := api.do(t, http.MethodGet, "/codes/"+c.Code+"/request", "bob", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, ErrCodeNotFound, errCode(t, w))

	created := decode[domain.ChatRequest](t, api.do(t, http.MethodPost, "/requests", "bob", CreateRequestRequest{Code: c.Code}))

	w = api.do(t, http.MethodGet, "/codes/"+c.Code+"/request", "bob", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decode[CodeRequestResponse](t, w)
	assert.Equal(t, created.ID, got.RequestID)
	assert.Equal(t, domain.StatusPending, got.Status)

	w = api.do(t, http.MethodGet, "/codes/bad/request", "bob", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// nextCode returns a different well-formed code.
func nextCode(code string) string {
	if code == "99999999" {
		return "10000000"
	}
	b := []byte(code)
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] < '9' {
			b[i]++
			break
		}
		b[i] = '0'
	}
	return string(b)
}
