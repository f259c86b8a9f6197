package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/misty-step/scry-sub000/internal/logger"
	"github.com/misty-step/scry-sub000/internal/models"
	"github.com/misty-step/scry-sub000/internal/repository"
)

type statsRepository struct {
	db dbtx
}

// NewStatsRepository creates a new StatsRepository implementation
func NewStatsRepository(db *sql.DB) repository.StatsRepository {
	return &statsRepository{db: db}
}

func (r *statsRepository) WithTx(tx *sql.Tx) repository.StatsRepository {
	return &statsRepository{db: tx}
}

func (r *statsRepository) Get(ctx context.Context, userID uuid.UUID) (*models.UserStats, error) {
	log := logger.FromContext(ctx).WithPrefix("stats_repo")

	stats, err := r.get(ctx, userID)
	if err != nil {
		log.Error("failed to get user stats: %v", err)
		return nil, err
	}
	return stats, nil
}

func (r *statsRepository) get(ctx context.Context, userID uuid.UUID) (*models.UserStats, error) {
	var (
		stats      models.UserStats
		nextReview sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, `
SELECT user_id, total_cards, new_count, learning_count, mature_count, next_review_time, updated_at
FROM user_stats
WHERE user_id = ?
`, userID.String()).Scan(&stats.UserID, &stats.TotalCards, &stats.NewCount,
		&stats.LearningCount, &stats.MatureCount, &nextReview, &stats.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		// Absent row reads as all-zero stats.
		return &models.UserStats{UserID: userID}, nil
	}
	if err != nil {
		return nil, err
	}
	if nextReview.Valid {
		stats.NextReviewTime = &nextReview.Time
	}
	return &stats, nil
}

// ApplyDelta applies a signed stats delta via read-modify-write. Callers that
// need atomicity with other writes must join this repository to their
// transaction with WithTx; SQLite's single writer serializes the rest.
func (r *statsRepository) ApplyDelta(ctx context.Context, userID uuid.UUID, delta models.StatsDelta) error {
	log := logger.FromContext(ctx).WithPrefix("stats_repo")
	if delta.IsZero() {
		return nil
	}

	stats, err := r.get(ctx, userID)
	if err != nil {
		log.Error("failed to read stats for delta: %v", err)
		return err
	}

	if clamped := stats.Apply(delta); clamped {
		log.Warn("stats delta clamped at zero: user_id=%s, delta=%+v", userID, delta)
	}

	nextReview := stats.NextReviewTime
	if delta.RecomputeNextReview {
		nextReview, err = r.earliestNextReview(ctx, userID)
		if err != nil {
			log.Error("failed to recompute next review time: %v", err)
			return err
		}
	} else if delta.NextReviewCandidate != nil {
		if nextReview == nil || delta.NextReviewCandidate.Before(*nextReview) {
			nextReview = delta.NextReviewCandidate
		}
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO user_stats (user_id, total_cards, new_count, learning_count, mature_count, next_review_time, updated_at)
VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(user_id) DO UPDATE SET
    total_cards = excluded.total_cards,
    new_count = excluded.new_count,
    learning_count = excluded.learning_count,
    mature_count = excluded.mature_count,
    next_review_time = excluded.next_review_time,
    updated_at = CURRENT_TIMESTAMP
`, userID.String(), stats.TotalCards, stats.NewCount, stats.LearningCount,
		stats.MatureCount, nullTime(nextReview))
	if err != nil {
		log.Error("failed to apply stats delta: %v", err)
	}
	return err
}

func (r *statsRepository) earliestNextReview(ctx context.Context, userID uuid.UUID) (*time.Time, error) {
	var next time.Time
	err := r.db.QueryRowContext(ctx, `
SELECT next_review_at FROM concepts
WHERE user_id = ? AND archived_at IS NULL AND deleted_at IS NULL
ORDER BY next_review_at ASC
LIMIT 1
`, userID.String()).Scan(&next)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &next, nil
}

// Rebuild recomputes the stats row from a full concept scan. This is the
// offline repair path only; the online path applies deltas.
func (r *statsRepository) Rebuild(ctx context.Context, userID uuid.UUID) (*models.UserStats, error) {
	log := logger.FromContext(ctx).WithPrefix("stats_repo")
	log.Info("rebuilding user stats from full scan: user_id=%s", userID)

	var stats models.UserStats
	stats.UserID = userID
	err := r.db.QueryRowContext(ctx, `
SELECT
    COUNT(*),
    COALESCE(SUM(CASE WHEN state = 'new' THEN 1 ELSE 0 END), 0),
    COALESCE(SUM(CASE WHEN state IN ('learning', 'relearning') THEN 1 ELSE 0 END), 0),
    COALESCE(SUM(CASE WHEN state = 'review' THEN 1 ELSE 0 END), 0)
FROM concepts
WHERE user_id = ? AND archived_at IS NULL AND deleted_at IS NULL
`, userID.String()).Scan(&stats.TotalCards, &stats.NewCount, &stats.LearningCount,
		&stats.MatureCount)
	if err != nil {
		log.Error("failed to rebuild stats: %v", err)
		return nil, err
	}
	stats.NextReviewTime, err = r.earliestNextReview(ctx, userID)
	if err != nil {
		log.Error("failed to recompute next review during rebuild: %v", err)
		return nil, err
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO user_stats (user_id, total_cards, new_count, learning_count, mature_count, next_review_time, updated_at)
VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(user_id) DO UPDATE SET
    total_cards = excluded.total_cards,
    new_count = excluded.new_count,
    learning_count = excluded.learning_count,
    mature_count = excluded.mature_count,
    next_review_time = excluded.next_review_time,
    updated_at = CURRENT_TIMESTAMP
`, userID.String(), stats.TotalCards, stats.NewCount, stats.LearningCount,
		stats.MatureCount, nullTime(stats.NextReviewTime))
	if err != nil {
		log.Error("failed to persist rebuilt stats: %v", err)
		return nil, err
	}
	stats.UpdatedAt = time.Now()
	return &stats, nil
}
