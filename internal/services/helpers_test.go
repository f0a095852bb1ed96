package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-chatcode-backend/internal/repo"
)

// ---------- test helpers ----------

func newSvcDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection keeps transactions on the shared in-memory DB serialized.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, repo.AutoMigrate(db))
	return db
}

// scripted returns each value in order, then repeats the last one.
func scripted(vals ...string) CodeSource {
	var mu sync.Mutex
	i := 0
	return CodeSourceFunc(func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		v := vals[i]
		if i < len(vals)-1 {
			i++
		}
		return v, nil
	})
}

type clock struct{ t time.Time }

func (c *clock) Now() time.Time          { return c.t }
func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *clock { return &clock{t: time.Now().UTC()} }

type sentEvent struct {
	UserID  string
	Kind    string
	Payload any
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []sentEvent
}

func (n *recordingNotifier) Notify(_ context.Context, userID, kind string, payload any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, sentEvent{UserID: userID, Kind: kind, Payload: payload})
}

func (n *recordingNotifier) kinds() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.events))
	for _, e := range n.events {
		out = append(out, e.Kind+"@"+e.UserID)
	}
	return out
}

type mockReserver struct{ mock.Mock }

func (m *mockReserver) Reserve(ctx context.Context, code string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, code, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *mockReserver) Release(ctx context.Context, code string) error {
	return m.Called(ctx, code).Error(0)
}

type fixture struct {
	DB       *gorm.DB
	Clock    *clock
	Notifier *recordingNotifier
	Registry *CodeRegistry
	Ledger   *RequestLedger
}

func newFixture(t *testing.T, codes ...string) *fixture {
	t.Helper()
	db := newSvcDB(t)
	clk := newClock()
	n := &recordingNotifier{}
	reg := NewCodeRegistry(db)
	reg.Now = clk.Now
	reg.Notifier = n
	if len(codes) > 0 {
		reg.Source = scripted(codes...)
	}
	led := NewRequestLedger(db, reg)
	led.Now = clk.Now
	led.Notifier = n
	return &fixture{DB: db, Clock: clk, Notifier: n, Registry: reg, Ledger: led}
}
