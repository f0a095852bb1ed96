// Package services – RequestLedger
//
// This file implements the RequestLedger, which records directional chat
// requests made with a code and tracks their accept/decline lifecycle.
//
// createRequest validates in a fixed order and the first failing check wins:
// code format, code liveness, self-request, duplicate. Resolution is a
// conditional update from pending so concurrent resolvers cannot both win.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-chatcode-backend/internal/domain"
	"github.com/tbourn/go-chatcode-backend/internal/observability"
	"github.com/tbourn/go-chatcode-backend/internal/repo"
)

// RequestLedger creates, lists and resolves chat requests.
type RequestLedger struct {
	DB       *gorm.DB
	Registry *CodeRegistry
	Notifier Notifier

	// RetireOneTimeOnAccept retires a one-time code in the same transaction
	// that accepts a request made with it.
	RetireOneTimeOnAccept bool

	Now func() time.Time
}

// NewRequestLedger constructs a RequestLedger that retires one-time codes on
// accept.
func NewRequestLedger(db *gorm.DB, registry *CodeRegistry) *RequestLedger {
	return &RequestLedger{
		DB:                    db,
		Registry:              registry,
		RetireOneTimeOnAccept: true,
	}
}

func (s *RequestLedger) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *RequestLedger) notifier() Notifier {
	if s.Notifier == nil {
		return nopNotifier{}
	}
	return s.Notifier
}

// Create records a pending request from requesterID to the owner of code.
func (s *RequestLedger) Create(ctx context.Context, requesterID, code string) (*domain.ChatRequest, error) {
	tr := observability.Tracer("services/RequestLedger")
	ctx, span := tr.Start(ctx, "Create",
		trace.WithAttributes(attribute.String("user.id", requesterID)),
	)
	defer span.End()

	if !ValidCode(code) {
		return nil, ErrInvalidFormat
	}
	c, err := s.Registry.Lookup(ctx, code)
	if err != nil {
		return nil, err
	}
	if c.OwnerID == requesterID {
		return nil, ErrSelfRequest
	}
	exists, err := repo.ActiveRequestExists(ctx, s.DB, requesterID, c.ID)
	if err != nil {
		return nil, fmt.Errorf("check request: %w", err)
	}
	if exists {
		return nil, ErrDuplicateRequest
	}

	r := &domain.ChatRequest{
		ChatCodeID:  c.ID,
		RequestedBy: requesterID,
		RequestedTo: c.OwnerID,
		Status:      domain.StatusPending,
		CreatedAt:   s.now(),
	}
	if err := repo.CreateRequest(ctx, s.DB, r); err != nil {
		if repo.IsUniqueViolation(err) {
			return nil, ErrDuplicateRequest
		}
		return nil, fmt.Errorf("insert request: %w", err)
	}

	observability.RequestCreated()
	span.SetAttributes(attribute.String("request.id", r.ID))
	zerolog.Ctx(ctx).Debug().Str("request_id", r.ID).Str("code_id", c.ID).Msg("request created")
	s.notifier().Notify(ctx, r.RequestedTo, EventRequestCreated, requestEvent(r))
	return r, nil
}

// ListIncoming returns live requests addressed to userID in insertion order.
func (s *RequestLedger) ListIncoming(ctx context.Context, userID string) ([]domain.ChatRequest, error) {
	return nonNil(repo.ListIncoming(ctx, s.DB, userID))
}

// ListOutgoing returns live requests sent by userID in insertion order.
func (s *RequestLedger) ListOutgoing(ctx context.Context, userID string) ([]domain.ChatRequest, error) {
	return nonNil(repo.ListOutgoing(ctx, s.DB, userID))
}

func nonNil(out []domain.ChatRequest, err error) ([]domain.ChatRequest, error) {
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.ChatRequest{}
	}
	return out, nil
}

// Get returns a request visible to userID as requester or recipient,
// including declined ones. Anything else reports ErrRequestNotFound.
func (s *RequestLedger) Get(ctx context.Context, userID, requestID string) (*domain.ChatRequest, error) {
	r, err := repo.GetRequestUnscoped(ctx, s.DB, requestID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	if r.RequestedBy != userID && r.RequestedTo != userID {
		return nil, ErrRequestNotFound
	}
	return r, nil
}

// FindOutgoingForCode returns requesterID's live request on the code with the
// given digits.
func (s *RequestLedger) FindOutgoingForCode(ctx context.Context, requesterID, code string) (*domain.ChatRequest, error) {
	c, err := s.Registry.Lookup(ctx, code)
	if err != nil {
		return nil, err
	}
	r, err := repo.FindActiveRequest(ctx, s.DB, requesterID, c.ID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	return r, nil
}

// Resolve accepts or declines a pending request addressed to resolverID.
func (s *RequestLedger) Resolve(ctx context.Context, requestID, resolverID, action string) (*domain.ChatRequest, error) {
	tr := observability.Tracer("services/RequestLedger")
	ctx, span := tr.Start(ctx, "Resolve",
		trace.WithAttributes(
			attribute.String("request.id", requestID),
			attribute.String("user.id", resolverID),
			attribute.String("request.action", action),
		),
	)
	defer span.End()

	if !domain.ValidAction(action) {
		return nil, ErrInvalidAction
	}

	now := s.now()
	var (
		out     *domain.ChatRequest
		retired *domain.ChatCode
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, err := repo.GetRequestUnscoped(ctx, tx, requestID)
		if err != nil {
			if isNotFound(err) {
				return ErrUnauthorized
			}
			return err
		}
		if r.RequestedTo != resolverID {
			return ErrUnauthorized
		}
		if !r.Pending() {
			return ErrAlreadyResolved
		}

		status, softDelete := domain.StatusAccepted, false
		if action == domain.ActionDecline {
			status, softDelete = domain.StatusDeclined, true
		}
		n, err := repo.ResolveRequest(ctx, tx, r.ID, status, softDelete, now)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrAlreadyResolved
		}
		r.Status = status
		r.UpdatedAt = now
		if softDelete {
			r.DeletedAt = gorm.DeletedAt{Time: now, Valid: true}
		}

		if status == domain.StatusAccepted && s.RetireOneTimeOnAccept {
			c, err := repo.GetCodeUnscoped(ctx, tx, r.ChatCodeID)
			if err != nil {
				return err
			}
			if c.IsOneTime && !c.DeletedAt.Valid {
				if _, err := repo.RetireCode(ctx, tx, c.ID, now); err != nil {
					return err
				}
				retired = c
			}
		}
		out = r
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrAlreadyResolved) {
			return nil, err
		}
		return nil, fmt.Errorf("resolve request: %w", err)
	}

	observability.RequestResolved(action)
	log := zerolog.Ctx(ctx)
	log.Info().Str("request_id", out.ID).Str("status", out.Status).Msg("request resolved")
	s.notifier().Notify(ctx, out.RequestedBy, EventRequestResolved, requestEvent(out))
	if retired != nil {
		log.Info().Str("code_id", retired.ID).Msg("one-time code retired on accept")
		s.notifier().Notify(ctx, retired.OwnerID, EventCodeRetired, CodeEvent{CodeID: retired.ID, Code: retired.Code})
	}
	return out, nil
}

// IncomingStats returns the live incoming count and latest update for userID.
func (s *RequestLedger) IncomingStats(ctx context.Context, userID string) (int64, *time.Time, error) {
	return repo.IncomingStats(ctx, s.DB, userID)
}

// OutgoingStats returns the live outgoing count and latest update for userID.
func (s *RequestLedger) OutgoingStats(ctx context.Context, userID string) (int64, *time.Time, error) {
	return repo.OutgoingStats(ctx, s.DB, userID)
}
