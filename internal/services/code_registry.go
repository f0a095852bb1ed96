// Package services – CodeRegistry
//
// This file implements the CodeRegistry, which mints shareable 8-digit chat
// codes, answers "is this code live and whose is it", lists a user's live
// codes, and retires codes.
//
// Uniqueness among live codes is enforced three ways per draw: a lookup
// against the active set, an optional cross-process reservation, and a
// partial unique index that rejects the insert if a concurrent generator got
// there first. Any of the three triggers a redraw, bounded by MaxAttempts.
package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-chatcode-backend/internal/domain"
	"github.com/tbourn/go-chatcode-backend/internal/observability"
	"github.com/tbourn/go-chatcode-backend/internal/repo"
)

// MaxRepresentableValidityHours is the largest validity whose expiry still
// fits in a time.Duration. Anything above it would wrap into the past.
const MaxRepresentableValidityHours = int(math.MaxInt64 / int64(time.Hour))

// CodeRegistry issues, validates, lists and retires chat codes.
type CodeRegistry struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB

	// Source draws candidate digits; RandomCodes when nil.
	Source CodeSource
	// Reserver is optional; nil skips cross-process reservation.
	Reserver Reserver
	// Notifier receives code.retired events; nil drops them.
	Notifier Notifier

	MaxAttempts      int
	MaxValidityHours int
	ReservationTTL   time.Duration

	// Now is the clock; time.Now when nil.
	Now func() time.Time
}

// NewCodeRegistry constructs a CodeRegistry with default policy.
func NewCodeRegistry(db *gorm.DB) *CodeRegistry {
	return &CodeRegistry{
		DB:               db,
		Source:           RandomCodes{},
		MaxAttempts:      32,
		MaxValidityHours: 24 * 365,
		ReservationTTL:   30 * time.Second,
	}
}

func (s *CodeRegistry) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *CodeRegistry) notifier() Notifier {
	if s.Notifier == nil {
		return nopNotifier{}
	}
	return s.Notifier
}

// Generate mints a live code for ownerID. validityHours of 0 means the code
// never expires; otherwise it expires validityHours after now.
func (s *CodeRegistry) Generate(ctx context.Context, ownerID string, isOneTime bool, validityHours int) (*domain.ChatCode, error) {
	tr := observability.Tracer("services/CodeRegistry")
	ctx, span := tr.Start(ctx, "Generate",
		trace.WithAttributes(
			attribute.String("user.id", ownerID),
			attribute.Bool("code.one_time", isOneTime),
			attribute.Int("code.validity_hours", validityHours),
		),
	)
	defer span.End()

	if validityHours < 0 || validityHours > MaxRepresentableValidityHours ||
		(s.MaxValidityHours > 0 && validityHours > s.MaxValidityHours) {
		return nil, ErrInvalidValidity
	}

	now := s.now()
	var expiresAt *time.Time
	if validityHours > 0 {
		t := now.Add(time.Duration(validityHours) * time.Hour)
		expiresAt = &t
	}

	src := s.Source
	if src == nil {
		src = RandomCodes{}
	}
	attempts := s.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	log := zerolog.Ctx(ctx)

	for attempt := 1; attempt <= attempts; attempt++ {
		digits, err := src.Draw()
		if err != nil {
			return nil, fmt.Errorf("draw code: %w", err)
		}
		if !ValidCode(digits) {
			return nil, fmt.Errorf("draw code: source produced %q", digits)
		}

		taken, err := repo.ActiveCodeExists(ctx, s.DB, digits, now)
		if err != nil {
			return nil, fmt.Errorf("check code: %w", err)
		}
		if taken {
			observability.CodeCollision(observability.StageLookup)
			continue
		}

		reserved, ok := s.reserve(ctx, digits)
		if !ok {
			observability.CodeCollision(observability.StageReservation)
			continue
		}

		c := &domain.ChatCode{
			Code:      digits,
			OwnerID:   ownerID,
			IsOneTime: isOneTime,
			ExpiresAt: expiresAt,
			CreatedAt: now,
			UpdatedAt: now,
		}
		err = repo.InsertCodeTx(ctx, s.DB, c, now)
		if reserved {
			if rerr := s.Reserver.Release(ctx, digits); rerr != nil {
				log.Warn().Err(rerr).Msg("release code reservation")
			}
		}
		if repo.IsUniqueViolation(err) {
			observability.CodeCollision(observability.StageInsert)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("insert code: %w", err)
		}

		observability.CodeGenerated(isOneTime)
		span.SetAttributes(attribute.Int("code.attempts", attempt))
		log.Debug().Str("code_id", c.ID).Int("attempts", attempt).Msg("code generated")
		return c, nil
	}

	log.Error().Int("attempts", attempts).Msg("code generation exhausted")
	return nil, ErrCodeGenerationExhausted
}

// reserve returns (held, proceed). A reservation backend failure degrades to
// proceeding without a hold; the unique index still guards the insert.
func (s *CodeRegistry) reserve(ctx context.Context, digits string) (bool, bool) {
	if s.Reserver == nil {
		return false, true
	}
	ok, err := s.Reserver.Reserve(ctx, digits, s.ReservationTTL)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("code reservation unavailable")
		return false, true
	}
	return ok, ok
}

// Lookup returns the live code with the given digits.
func (s *CodeRegistry) Lookup(ctx context.Context, code string) (*domain.ChatCode, error) {
	if !ValidCode(code) {
		return nil, ErrInvalidFormat
	}
	c, err := repo.FindActiveCode(ctx, s.DB, code, s.now())
	if err != nil {
		if isNotFound(err) {
			return nil, ErrCodeNotFound
		}
		return nil, err
	}
	return c, nil
}

// IsCodeActive returns the owner of the live code with the given digits.
func (s *CodeRegistry) IsCodeActive(ctx context.Context, code string) (string, error) {
	c, err := s.Lookup(ctx, code)
	if err != nil {
		return "", err
	}
	return c.OwnerID, nil
}

// ListActive returns ownerID's live codes, newest first.
func (s *CodeRegistry) ListActive(ctx context.Context, ownerID string) ([]domain.ChatCode, error) {
	out, err := repo.ListActiveCodes(ctx, s.DB, ownerID, s.now())
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.ChatCode{}
	}
	return out, nil
}

// Get returns ownerID's code by id, including retired and expired ones.
func (s *CodeRegistry) Get(ctx context.Context, ownerID, codeID string) (*domain.ChatCode, error) {
	c, err := repo.GetCodeUnscoped(ctx, s.DB, codeID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrCodeNotFound
		}
		return nil, err
	}
	if c.OwnerID != ownerID {
		return nil, ErrUnauthorized
	}
	return c, nil
}

// Retire marks a code retired. Retiring an already retired code is a no-op.
func (s *CodeRegistry) Retire(ctx context.Context, codeID string) error {
	c, err := repo.GetCodeUnscoped(ctx, s.DB, codeID)
	if err != nil {
		if isNotFound(err) {
			return ErrCodeNotFound
		}
		return err
	}
	return s.retire(ctx, c)
}

// RetireOwned retires codeID on behalf of ownerID.
func (s *CodeRegistry) RetireOwned(ctx context.Context, ownerID, codeID string) error {
	c, err := repo.GetCodeUnscoped(ctx, s.DB, codeID)
	if err != nil {
		if isNotFound(err) {
			return ErrCodeNotFound
		}
		return err
	}
	if c.OwnerID != ownerID {
		return ErrUnauthorized
	}
	return s.retire(ctx, c)
}

func (s *CodeRegistry) retire(ctx context.Context, c *domain.ChatCode) error {
	if c.DeletedAt.Valid {
		return nil
	}
	n, err := repo.RetireCode(ctx, s.DB, c.ID, s.now())
	if err != nil {
		return err
	}
	if n > 0 {
		zerolog.Ctx(ctx).Info().Str("code_id", c.ID).Msg("code retired")
		s.notifier().Notify(ctx, c.OwnerID, EventCodeRetired, CodeEvent{CodeID: c.ID, Code: c.Code})
	}
	return nil
}

// Stats returns the live-code count and latest update for ownerID, used to
// derive list ETags.
func (s *CodeRegistry) Stats(ctx context.Context, ownerID string) (int64, *time.Time, error) {
	return repo.CodesStats(ctx, s.DB, ownerID, s.now())
}
