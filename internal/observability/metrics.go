package observability

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Collision stages reported by the code generator.
const (
	StageLookup      = "lookup"      // digits already held by an active code
	StageReservation = "reservation" // digits reserved by a concurrent generator
	StageInsert      = "insert"      // unique index rejected the insert
)

var (
	// CodesGenerated counts chat codes minted, split by single-use flag.
	CodesGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatcode_codes_generated_total",
			Help: "Total number of chat codes generated.",
		},
		[]string{"one_time"},
	)

	// CodeCollisions counts redraws during generation by the stage that
	// detected the collision.
	CodeCollisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatcode_code_collisions_total",
			Help: "Total number of code draws rejected as collisions.",
		},
		[]string{"stage"},
	)

	// RequestsCreated counts chat requests recorded as pending.
	RequestsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chatcode_requests_created_total",
			Help: "Total number of chat requests created.",
		},
	)

	// RequestsResolved counts request resolutions by action.
	RequestsResolved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatcode_requests_resolved_total",
			Help: "Total number of chat requests resolved.",
		},
		[]string{"action"},
	)
)

func init() {
	prometheus.MustRegister(CodesGenerated, CodeCollisions, RequestsCreated, RequestsResolved)
}

// CodeGenerated records a minted code.
func CodeGenerated(oneTime bool) {
	CodesGenerated.WithLabelValues(strconv.FormatBool(oneTime)).Inc()
}

// CodeCollision records a rejected draw.
func CodeCollision(stage string) {
	CodeCollisions.WithLabelValues(stage).Inc()
}

// RequestCreated records a new pending request.
func RequestCreated() { RequestsCreated.Inc() }

// RequestResolved records an accept or decline.
func RequestResolved(action string) {
	RequestsResolved.WithLabelValues(action).Inc()
}
