package repository

import (
	"context"
	"fmt"

	"github.com/canis-majoris/instantly-assignment-v3/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StatsRepository maintains the single-row counter cache over the emails
// table. Counters are never patched in place: overlapping predicates (an
// email can be both unread and important) make incremental deltas
// error-prone, so every refresh recomputes all five counts from scratch.
type StatsRepository interface {
	Recalculate(ctx context.Context) (*models.EmailStats, error)
	Get(ctx context.Context) (*models.EmailStats, error)
	Invalidate(ctx context.Context) (*models.EmailStats, error)
}

// statsRepository implements StatsRepository using GORM
type statsRepository struct {
	db *gorm.DB
}

// NewStatsRepository creates a new StatsRepository instance
func NewStatsRepository(db *gorm.DB) StatsRepository {
	return &statsRepository{db: db}
}

// Recalculate recomputes every counter from the emails table and upserts the
// stats row. Safe to call concurrently: each call writes a fully consistent
// snapshot, so last-writer-wins on the single row is acceptable.
func (r *statsRepository) Recalculate(ctx context.Context) (*models.EmailStats, error) {
	stats := &models.EmailStats{ID: models.StatsRowID}

	counts := []struct {
		dest *int64
		cond string
		args []interface{}
	}{
		{&stats.TotalEmails, "direction = ? AND is_deleted = ?", []interface{}{models.DirectionIncoming, false}},
		{&stats.UnreadCount, "is_read = ? AND is_deleted = ?", []interface{}{false, false}},
		{&stats.ImportantCount, "is_important = ? AND is_deleted = ?", []interface{}{true, false}},
		{&stats.SentCount, "direction = ? AND is_deleted = ?", []interface{}{models.DirectionOutgoing, false}},
		{&stats.DeletedCount, "is_deleted = ?", []interface{}{true}},
	}

	for _, c := range counts {
		result := r.db.WithContext(ctx).Model(&models.Email{}).Where(c.cond, c.args...).Count(c.dest)
		if result.Error != nil {
			return nil, fmt.Errorf("failed to count emails for stats: %w", result.Error)
		}
	}

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(stats)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to upsert email stats: %w", result.Error)
	}

	return stats, nil
}

// Get reads the cached stats row, falling back to a full recalculation when
// the row was never initialized.
func (r *statsRepository) Get(ctx context.Context) (*models.EmailStats, error) {
	var stats models.EmailStats
	result := r.db.WithContext(ctx).First(&stats, models.StatsRowID)
	if result.Error != nil {
		if isNotFound(result.Error) {
			return r.Recalculate(ctx)
		}
		return nil, fmt.Errorf("failed to get email stats: %w", result.Error)
	}
	return &stats, nil
}

// Invalidate refreshes the cache after a mutation. Alias for Recalculate;
// every mutation path calls it.
func (r *statsRepository) Invalidate(ctx context.Context) (*models.EmailStats, error) {
	return r.Recalculate(ctx)
}
