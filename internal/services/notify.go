package services

import (
	"context"
	"time"

	"github.com/tbourn/go-chatcode-backend/internal/domain"
)

// Event kinds pushed to connected clients.
const (
	EventRequestCreated  = "request.created"
	EventRequestResolved = "request.resolved"
	EventCodeRetired     = "code.retired"
)

// Notifier delivers lifecycle events to a user. Delivery is best effort and
// never fails the operation that triggered it.
type Notifier interface {
	Notify(ctx context.Context, userID, kind string, payload any)
}

// Reserver holds freshly drawn digits across processes while a generator
// inserts them. Reserve returns false when another holder has the digits.
type Reserver interface {
	Reserve(ctx context.Context, code string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, code string) error
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, string, string, any) {}

// RequestEvent is the payload of request.* events.
type RequestEvent struct {
	RequestID   string `json:"request_id"`
	ChatCodeID  string `json:"chat_code_id"`
	RequestedBy string `json:"requested_by"`
	RequestedTo string `json:"requested_to"`
	Status      string `json:"status"`
}

func requestEvent(r *domain.ChatRequest) RequestEvent {
	return RequestEvent{
		RequestID:   r.ID,
		ChatCodeID:  r.ChatCodeID,
		RequestedBy: r.RequestedBy,
		RequestedTo: r.RequestedTo,
		Status:      r.Status,
	}
}

// CodeEvent is the payload of code.* events.
type CodeEvent struct {
	CodeID string `json:"code_id"`
	Code   string `json:"code"`
}
