// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate/statistics queries used
// for conditional responses (ETag generation) in the HTTP layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-chatcode-backend/internal/domain"
)

// CodesStats returns the number of active codes owned by ownerID and the
// greatest UpdatedAt among them. When the owner has no active codes, count
// is 0 and maxUpdatedAt is nil.
func CodesStats(ctx context.Context, db *gorm.DB, ownerID string, now time.Time) (count int64, maxUpdatedAt *time.Time, err error) {
	q := db.WithContext(ctx).
		Model(&domain.ChatCode{}).
		Scopes(activeAt(now)).
		Where("owner_id = ?", ownerID)
	return statsOf(q)
}

// IncomingStats returns count and latest UpdatedAt of live requests
// addressed to userID.
func IncomingStats(ctx context.Context, db *gorm.DB, userID string) (int64, *time.Time, error) {
	return statsOf(db.WithContext(ctx).Model(&domain.ChatRequest{}).Where("requested_to = ?", userID))
}

// OutgoingStats returns count and latest UpdatedAt of live requests sent by
// userID.
func OutgoingStats(ctx context.Context, db *gorm.DB, userID string) (int64, *time.Time, error) {
	return statsOf(db.WithContext(ctx).Model(&domain.ChatRequest{}).Where("requested_by = ?", userID))
}

func statsOf(q *gorm.DB) (count int64, maxUpdatedAt *time.Time, err error) {
	if err = q.Session(&gorm.Session{}).Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	if err = q.Session(&gorm.Session{}).Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}
