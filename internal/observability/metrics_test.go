package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestDomainCounters(t *testing.T) {
	before := testutil.ToFloat64(CodesGenerated.WithLabelValues("true"))
	CodeGenerated(true)
	if got := testutil.ToFloat64(CodesGenerated.WithLabelValues("true")); got != before+1 {
		t.Fatalf("codes generated: got %v want %v", got, before+1)
	}

	before = testutil.ToFloat64(CodeCollisions.WithLabelValues(StageInsert))
	CodeCollision(StageInsert)
	if got := testutil.ToFloat64(CodeCollisions.WithLabelValues(StageInsert)); got != before+1 {
		t.Fatalf("collisions: got %v want %v", got, before+1)
	}

	before = testutil.ToFloat64(RequestsCreated)
	RequestCreated()
	if got := testutil.ToFloat64(RequestsCreated); got != before+1 {
		t.Fatalf("requests created: got %v want %v", got, before+1)
	}

	before = testutil.ToFloat64(RequestsResolved.WithLabelValues("decline"))
	RequestResolved("decline")
	if got := testutil.ToFloat64(RequestsResolved.WithLabelValues("decline")); got != before+1 {
		t.Fatalf("requests resolved: got %v want %v", got, before+1)
	}
}
