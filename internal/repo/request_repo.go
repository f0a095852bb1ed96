// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// ChatRequest model.
//
// Listings exclude soft-deleted (declined) requests and return rows in
// insertion order: created_at ASC, then id ASC as a tiebreaker.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-chatcode-backend/internal/domain"
)

// CreateRequest inserts r, assigning an ID, CreatedAt and pending status
// when they are empty.
func CreateRequest(ctx context.Context, db *gorm.DB, r *domain.ChatRequest) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	if r.Status == "" {
		r.Status = domain.StatusPending
	}
	return db.WithContext(ctx).Create(r).Error
}

// FindActiveRequest returns the live request requesterID made with codeID.
func FindActiveRequest(ctx context.Context, db *gorm.DB, requesterID, codeID string) (*domain.ChatRequest, error) {
	var r domain.ChatRequest
	err := db.WithContext(ctx).
		Where("requested_by = ? AND chat_code_id = ?", requesterID, codeID).
		First(&r).Error
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ActiveRequestExists reports whether requesterID holds a live request on codeID.
func ActiveRequestExists(ctx context.Context, db *gorm.DB, requesterID, codeID string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.ChatRequest{}).
		Where("requested_by = ? AND chat_code_id = ?", requesterID, codeID).
		Count(&n).Error
	return n > 0, err
}

// ListIncoming returns live requests addressed to userID.
func ListIncoming(ctx context.Context, db *gorm.DB, userID string) ([]domain.ChatRequest, error) {
	return listRequests(ctx, db, "requested_to = ?", userID)
}

// ListOutgoing returns live requests sent by userID.
func ListOutgoing(ctx context.Context, db *gorm.DB, userID string) ([]domain.ChatRequest, error) {
	return listRequests(ctx, db, "requested_by = ?", userID)
}

func listRequests(ctx context.Context, db *gorm.DB, cond string, userID string) ([]domain.ChatRequest, error) {
	var out []domain.ChatRequest
	err := db.WithContext(ctx).
		Where(cond, userID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&out).Error
	return out, err
}

// GetRequestUnscoped fetches a request by ID including declined rows.
func GetRequestUnscoped(ctx context.Context, db *gorm.DB, id string) (*domain.ChatRequest, error) {
	var r domain.ChatRequest
	if err := db.WithContext(ctx).Unscoped().First(&r, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// ResolveRequest moves a pending request to status. When softDelete is set
// the row is also marked deleted. The update only matches a row that is
// still pending, so the returned count is 0 when another caller won.
func ResolveRequest(ctx context.Context, db *gorm.DB, id, status string, softDelete bool, now time.Time) (int64, error) {
	fields := map[string]any{"status": status, "updated_at": now}
	if softDelete {
		fields["deleted_at"] = now
	}
	res := db.WithContext(ctx).
		Model(&domain.ChatRequest{}).
		Where("id = ? AND status = ?", id, domain.StatusPending).
		Updates(fields)
	return res.RowsAffected, res.Error
}
