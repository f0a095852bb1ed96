// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the ChatCode
// model.
//
// A code is active when it is not soft-deleted and its expires_at is either
// NULL or later than the supplied instant. GORM's soft-delete scope covers
// the first half; activeAt adds the second. Every function takes `now`
// explicitly so callers control the clock.
//
// Error semantics:
//   - Lookups that match nothing return ErrNotFound.
//   - Insert conflicts on the live-code unique index surface as the raw
//     driver error; use IsUniqueViolation to detect them.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-chatcode-backend/internal/domain"
)

func activeAt(now time.Time) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("(expires_at IS NULL OR expires_at > ?)", now)
	}
}

// CreateCode inserts c, assigning an ID and CreatedAt when they are empty.
func CreateCode(ctx context.Context, db *gorm.DB, c *domain.ChatCode) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(c).Error
}

// FindActiveCode returns the active code with the given digits.
func FindActiveCode(ctx context.Context, db *gorm.DB, code string, now time.Time) (*domain.ChatCode, error) {
	var c domain.ChatCode
	err := db.WithContext(ctx).
		Scopes(activeAt(now)).
		Where("code = ?", code).
		Order("created_at DESC").
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ActiveCodeExists reports whether an active code holds the given digits.
func ActiveCodeExists(ctx context.Context, db *gorm.DB, code string, now time.Time) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.ChatCode{}).
		Scopes(activeAt(now)).
		Where("code = ?", code).
		Count(&n).Error
	return n > 0, err
}

// ListActiveCodes returns the owner's active codes, newest first.
func ListActiveCodes(ctx context.Context, db *gorm.DB, ownerID string, now time.Time) ([]domain.ChatCode, error) {
	var out []domain.ChatCode
	err := db.WithContext(ctx).
		Scopes(activeAt(now)).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&out).Error
	return out, err
}

// GetCodeUnscoped fetches a code by ID including retired rows.
func GetCodeUnscoped(ctx context.Context, db *gorm.DB, id string) (*domain.ChatCode, error) {
	var c domain.ChatCode
	if err := db.WithContext(ctx).Unscoped().First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// RetireCode sets deleted_at on a code that is not yet retired. It returns
// the number of rows changed: 0 means already retired or missing.
func RetireCode(ctx context.Context, db *gorm.DB, id string, now time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.ChatCode{}).
		Where("id = ?", id).
		Updates(map[string]any{"deleted_at": now, "updated_at": now})
	return res.RowsAffected, res.Error
}

// RetireExpiredWithDigits retires expired rows still holding code so the
// live-code unique index admits a fresh row with the same digits.
func RetireExpiredWithDigits(ctx context.Context, db *gorm.DB, code string, now time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.ChatCode{}).
		Where("code = ? AND expires_at IS NOT NULL AND expires_at <= ?", code, now).
		Updates(map[string]any{"deleted_at": now, "updated_at": now})
	return res.RowsAffected, res.Error
}

// InsertCodeTx retires stale holders of c.Code and inserts c in a single
// transaction.
func InsertCodeTx(ctx context.Context, db *gorm.DB, c *domain.ChatCode, now time.Time) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := RetireExpiredWithDigits(ctx, tx, c.Code, now); err != nil {
			return err
		}
		return CreateCode(ctx, tx, c)
	})
}

// IsNotFound reports whether err is a record-not-found error.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
