package auth

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NextNumber atomically increments the named counter and returns its new
// value, creating the counter at 1 on first use. The increment-or-create is
// a single upsert, so concurrent callers never observe the same number.
func NextNumber(ctx context.Context, tx *gorm.DB, name string) (int64, error) {
	var count int64
	err := tx.WithContext(ctx).Raw(`
		INSERT INTO sequence_counters (id, name, current_count, status, created_at, updated_at)
		VALUES (?, ?, 1, 'active', now(), now())
		ON CONFLICT (name) DO UPDATE
		SET current_count = sequence_counters.current_count + 1, updated_at = now()
		RETURNING current_count`,
		uuid.New(), name,
	).Scan(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
