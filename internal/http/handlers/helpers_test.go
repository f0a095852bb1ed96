package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-chatcode-backend/internal/auth"
	"github.com/tbourn/go-chatcode-backend/internal/http/middleware"
	"github.com/tbourn/go-chatcode-backend/internal/repo"
	"github.com/tbourn/go-chatcode-backend/internal/services"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:h_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, repo.AutoMigrate(db))
	return db
}

// memIdem is an in-memory idempotency store serving both the middleware
// lookup and the handler recorder.
type memIdem struct {
	mu   sync.Mutex
	recs map[string]string
}

func newMemIdem() *memIdem { return &memIdem{recs: map[string]string{}} }

func (m *memIdem) Remember(_ context.Context, userID, scope, key, resourceID string, _ int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs[userID+"|"+scope+"|"+key] = resourceID
	return nil
}

func (m *memIdem) Lookup(_ context.Context, userID, scope, key string, _ time.Time) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rid, ok := m.recs[userID+"|"+scope+"|"+key]
	return rid, ok, nil
}

type testAPI struct {
	Router   *gin.Engine
	DB       *gorm.DB
	Registry *services.CodeRegistry
	Ledger   *services.RequestLedger
	Tokens   *auth.TokenManager
	Idem     *memIdem
}

// newTestAPI wires real services over an in-memory database. Callers
// identify themselves with the X-User-ID header or a bearer token.
func newTestAPI(t *testing.T, events EventStream) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := newTestDB(t)
	reg := services.NewCodeRegistry(db)
	led := services.NewRequestLedger(db, reg)
	acc := &services.AccountService{DB: db}
	tm := auth.NewTokenManager("test-secret", "chatcode-test", time.Hour)
	idem := newMemIdem()

	h := New(Deps{
		Codes:       reg,
		Requests:    led,
		Accounts:    acc,
		Tokens:      tm,
		Idempotency: idem,
		Events:      events,
	})

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger())

	r.POST("/auth/sign-up", h.SignUp)
	r.POST("/auth/sign-in", h.SignIn)

	api := r.Group("/")
	api.Use(middleware.RequireIdentity(tm, middleware.IdentityOptions{TrustUserHeader: true}))
	api.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{
		Scopes: map[string]string{
			"POST /codes":    "codes.generate",
			"POST /requests": "requests.create",
		},
	}, idem.Lookup))

	api.GET("/me", h.Me)
	api.POST("/codes", h.GenerateCode)
	api.GET("/codes", h.ListCodes)
	api.GET("/codes/:code", h.CheckCode)
	api.GET("/codes/:code/request", h.CodeRequest)
	api.DELETE("/codes/:id", h.RetireCode)
	api.POST("/requests", h.CreateRequest)
	api.GET("/requests/incoming", h.ListIncoming)
	api.GET("/requests/outgoing", h.ListOutgoing)
	api.GET("/requests/:id", h.GetRequest)
	api.POST("/requests/:id/resolve", h.ResolveRequest)
	api.GET("/ws", h.Events)

	return &testAPI{Router: r, DB: db, Registry: reg, Ledger: led, Tokens: tm, Idem: idem}
}

// do sends a request as user (empty for anonymous) and returns the recorder.
func (a *testAPI) do(t *testing.T, method, path, user string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	if rdr != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set(middleware.HeaderUserID, user)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())
	return out
}

// errCode returns the "code" field of an error envelope.
func errCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[ErrorResponse](t, w).Code
}
