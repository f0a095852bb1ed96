package repo

import (
	"context"
	"testing"
	"time"

	"github.com/tbourn/go-chatcode-backend/internal/domain"
)

func TestCodesStats_CountError_NoTable(t *testing.T) {
	db := newTestDB(t /* no migrations */)
	if _, _, err := CodesStats(context.Background(), db, "u1", time.Now().UTC()); err == nil {
		t.Fatalf("expected error due to missing chat_codes table")
	}
}

func TestCodesStats_ZeroRows(t *testing.T) {
	db := newTestDB(t, allModels()...)
	count, maxAt, err := CodesStats(context.Background(), db, "u1", time.Now().UTC())
	if err != nil || count != 0 || maxAt != nil {
		t.Fatalf("expected (0, nil, nil), got (%d, %v, %v)", count, maxAt, err)
	}
}

func TestCodesStats_ActiveOnly(t *testing.T) {
	db := newTestDB(t, allModels()...)
	ctx := context.Background()
	now := time.Now().UTC()
	past := now.Add(-time.Minute)

	mustCreateCode(t, db, &domain.ChatCode{Code: "10000001", OwnerID: "u1"})
	mustCreateCode(t, db, &domain.ChatCode{Code: "10000002", OwnerID: "u1", ExpiresAt: &past})

	count, maxAt, err := CodesStats(ctx, db, "u1", now)
	if err != nil || count != 1 || maxAt == nil {
		t.Fatalf("expected one active code, got (%d, %v, %v)", count, maxAt, err)
	}
}

func TestRequestStats_TrackResolution(t *testing.T) {
	db, c := seedRequestFixture(t)
	ctx := context.Background()
	r := &domain.ChatRequest{ChatCodeID: c.ID, RequestedBy: "b", RequestedTo: "owner"}
	if err := CreateRequest(ctx, db, r); err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}

	in, _, err := IncomingStats(ctx, db, "owner")
	if err != nil || in != 1 {
		t.Fatalf("IncomingStats = %d, %v", in, err)
	}
	out, _, err := OutgoingStats(ctx, db, "b")
	if err != nil || out != 1 {
		t.Fatalf("OutgoingStats = %d, %v", out, err)
	}

	if _, err := ResolveRequest(ctx, db, r.ID, domain.StatusDeclined, true, time.Now().UTC()); err != nil {
		t.Fatalf("decline: %v", err)
	}
	in, maxAt, err := IncomingStats(ctx, db, "owner")
	if err != nil || in != 0 || maxAt != nil {
		t.Fatalf("declined requests must drop out of stats: (%d, %v, %v)", in, maxAt, err)
	}
}
