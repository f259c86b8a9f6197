package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/misty-step/scry-sub000/internal/logger"
	"github.com/misty-step/scry-sub000/internal/models"
	"github.com/misty-step/scry-sub000/internal/repository"
)

const conceptColumns = `id, user_id, title, description, stability, difficulty, state, step, reps, lapses,
elapsed_days, scheduled_days, last_review_at, next_review_at, retrievability,
phrasing_count, canonical_phrasing_id, archived_at, deleted_at, created_at`

type conceptRepository struct {
	db dbtx
}

// NewConceptRepository creates a new ConceptRepository implementation
func NewConceptRepository(db *sql.DB) repository.ConceptRepository {
	return &conceptRepository{db: db}
}

func (r *conceptRepository) WithTx(tx *sql.Tx) repository.ConceptRepository {
	return &conceptRepository{db: tx}
}

func (r *conceptRepository) Insert(ctx context.Context, c models.Concept) error {
	log := logger.FromContext(ctx).WithPrefix("concept_repo")
	log.Debug("inserting concept: id=%s, state=%s", c.ID, c.Memory.State)

	_, err := r.db.ExecContext(ctx, `
INSERT INTO concepts (`+conceptColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
		c.ID.String(), c.UserID.String(), c.Title, c.Description,
		c.Memory.Stability, c.Memory.Difficulty, c.Memory.State.String(), c.Memory.Step,
		c.Memory.Reps, c.Memory.Lapses,
		nullFloat(c.Memory.ElapsedDays), nullFloat(c.Memory.ScheduledDays),
		nullTime(c.Memory.LastReviewAt), c.Memory.NextReviewAt,
		nullFloat(c.Memory.Retrievability),
		c.PhrasingCount, nullUUID(c.CanonicalPhrasingID),
		nullTime(c.ArchivedAt), nullTime(c.DeletedAt), c.CreatedAt,
	)
	if err != nil {
		log.Error("failed to insert concept: %v", err)
	}
	return err
}

func (r *conceptRepository) Get(ctx context.Context, userID, id uuid.UUID) (*models.Concept, error) {
	log := logger.FromContext(ctx).WithPrefix("concept_repo")
	log.Debug("getting concept: id=%s", id)

	row := r.db.QueryRowContext(ctx, `
SELECT `+conceptColumns+`
FROM concepts
WHERE id = ? AND user_id = ?
`, id.String(), userID.String())

	c, err := scanConcept(row)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("concept not found: id=%s", id)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get concept: %v", err)
		return nil, err
	}
	return c, nil
}

func (r *conceptRepository) Page(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Concept, error) {
	log := logger.FromContext(ctx).WithPrefix("concept_repo")
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	query := sqlBuilder.Select(conceptColumns).
		From("concepts").
		Where(squirrel.Eq{"user_id": userID.String()}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).Offset(uint64(offset))

	return r.queryConcepts(ctx, log, query)
}

func (r *conceptRepository) DueCandidates(ctx context.Context, userID uuid.UUID, now time.Time, limit int) ([]models.Concept, error) {
	log := logger.FromContext(ctx).WithPrefix("concept_repo")
	log.Debug("fetching due candidates: user_id=%s, limit=%d", userID, limit)

	query := sqlBuilder.Select(conceptColumns).
		From("concepts").
		Where(squirrel.Eq{"user_id": userID.String(), "archived_at": nil, "deleted_at": nil}).
		Where(squirrel.LtOrEq{"next_review_at": now}).
		OrderBy("next_review_at ASC").
		Limit(uint64(limit))

	return r.queryConcepts(ctx, log, query)
}

func (r *conceptRepository) NewCandidates(ctx context.Context, userID uuid.UUID, limit int) ([]models.Concept, error) {
	log := logger.FromContext(ctx).WithPrefix("concept_repo")
	log.Debug("fetching new candidates: user_id=%s, limit=%d", userID, limit)

	query := sqlBuilder.Select(conceptColumns).
		From("concepts").
		Where(squirrel.Eq{
			"user_id":     userID.String(),
			"archived_at": nil,
			"deleted_at":  nil,
			"state":       models.StateNew.String(),
		}).
		OrderBy("created_at ASC").
		Limit(uint64(limit))

	return r.queryConcepts(ctx, log, query)
}

func (r *conceptRepository) queryConcepts(ctx context.Context, log *logger.Logger, query squirrel.SelectBuilder) ([]models.Concept, error) {
	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error("failed to query concepts: %v", err)
		return nil, err
	}
	defer rows.Close()

	var concepts []models.Concept
	for rows.Next() {
		c, err := scanConcept(rows)
		if err != nil {
			log.Error("failed to scan concept row: %v", err)
			return nil, err
		}
		concepts = append(concepts, *c)
	}
	return concepts, rows.Err()
}

func (r *conceptRepository) CountDue(ctx context.Context, userID uuid.UUID, now time.Time) (int, int, error) {
	log := logger.FromContext(ctx).WithPrefix("concept_repo")

	var due, orphaned int
	err := r.db.QueryRowContext(ctx, `
SELECT
    COUNT(*),
    COALESCE(SUM(CASE WHEN NOT EXISTS (
        SELECT 1 FROM phrasings p
        WHERE p.concept_id = c.id AND p.archived_at IS NULL AND p.deleted_at IS NULL
    ) THEN 1 ELSE 0 END), 0)
FROM concepts c
WHERE c.user_id = ? AND c.archived_at IS NULL AND c.deleted_at IS NULL AND c.next_review_at <= ?
`, userID.String(), now).Scan(&due, &orphaned)
	if err != nil {
		log.Error("failed to count due concepts: %v", err)
		return 0, 0, err
	}
	log.Debug("due count: due=%d, orphaned=%d", due, orphaned)
	return due, orphaned, nil
}

func (r *conceptRepository) UpdateMemory(ctx context.Context, userID, id uuid.UUID, m models.Memory) error {
	log := logger.FromContext(ctx).WithPrefix("concept_repo")
	log.Debug("updating memory: id=%s, state=%s, stability=%.3f", id, m.State, m.Stability)

	res, err := r.db.ExecContext(ctx, `
UPDATE concepts
SET stability = ?, difficulty = ?, state = ?, step = ?, reps = ?, lapses = ?,
    elapsed_days = ?, scheduled_days = ?, last_review_at = ?, next_review_at = ?, retrievability = ?
WHERE id = ? AND user_id = ?
`,
		m.Stability, m.Difficulty, m.State.String(), m.Step, m.Reps, m.Lapses,
		nullFloat(m.ElapsedDays), nullFloat(m.ScheduledDays),
		nullTime(m.LastReviewAt), m.NextReviewAt, nullFloat(m.Retrievability),
		id.String(), userID.String(),
	)
	if err != nil {
		log.Error("failed to update memory: %v", err)
		return err
	}
	return requireRow(res, sql.ErrNoRows)
}

func (r *conceptRepository) SetArchived(ctx context.Context, userID, id uuid.UUID, at *time.Time) error {
	log := logger.FromContext(ctx).WithPrefix("concept_repo")
	log.Debug("setting archived: id=%s, archived=%t", id, at != nil)

	res, err := r.db.ExecContext(ctx,
		`UPDATE concepts SET archived_at = ? WHERE id = ? AND user_id = ?`,
		nullTime(at), id.String(), userID.String())
	if err != nil {
		log.Error("failed to set archived: %v", err)
		return err
	}
	return requireRow(res, sql.ErrNoRows)
}

func (r *conceptRepository) SetDeleted(ctx context.Context, userID, id uuid.UUID, at *time.Time) error {
	log := logger.FromContext(ctx).WithPrefix("concept_repo")
	log.Debug("setting deleted: id=%s, deleted=%t", id, at != nil)

	res, err := r.db.ExecContext(ctx,
		`UPDATE concepts SET deleted_at = ? WHERE id = ? AND user_id = ?`,
		nullTime(at), id.String(), userID.String())
	if err != nil {
		log.Error("failed to set deleted: %v", err)
		return err
	}
	return requireRow(res, sql.ErrNoRows)
}

func (r *conceptRepository) SetCanonicalPhrasing(ctx context.Context, userID, id uuid.UUID, phrasingID *uuid.UUID) error {
	log := logger.FromContext(ctx).WithPrefix("concept_repo")
	log.Debug("setting canonical phrasing: concept_id=%s", id)

	res, err := r.db.ExecContext(ctx,
		`UPDATE concepts SET canonical_phrasing_id = ? WHERE id = ? AND user_id = ?`,
		nullUUID(phrasingID), id.String(), userID.String())
	if err != nil {
		log.Error("failed to set canonical phrasing: %v", err)
		return err
	}
	return requireRow(res, sql.ErrNoRows)
}

func (r *conceptRepository) AdjustPhrasingCount(ctx context.Context, id uuid.UUID, delta int) error {
	log := logger.FromContext(ctx).WithPrefix("concept_repo")

	_, err := r.db.ExecContext(ctx,
		`UPDATE concepts SET phrasing_count = MAX(0, phrasing_count + ?) WHERE id = ?`,
		delta, id.String())
	if err != nil {
		log.Error("failed to adjust phrasing count: %v", err)
	}
	return err
}

func (r *conceptRepository) EarliestNextReview(ctx context.Context, userID uuid.UUID) (*time.Time, error) {
	log := logger.FromContext(ctx).WithPrefix("concept_repo")

	// Selecting the column directly (not MIN) keeps the driver's DATETIME
	// conversion and uses the (user_id, next_review_at) index.
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
		log.Error("failed to get earliest next review: %v", err)
		return nil, err
	}
	return &next, nil
}

func scanConcept(s scanner) (*models.Concept, error) {
	var (
		c                             models.Concept
		idStr, userIDStr, stateStr    string
		elapsed, scheduled, retrCache sql.NullFloat64
		lastReview, archived, deleted sql.NullTime
		canonical                     sql.NullString
	)
	err := s.Scan(&idStr, &userIDStr, &c.Title, &c.Description,
		&c.Memory.Stability, &c.Memory.Difficulty, &stateStr, &c.Memory.Step,
		&c.Memory.Reps, &c.Memory.Lapses,
		&elapsed, &scheduled, &lastReview, &c.Memory.NextReviewAt, &retrCache,
		&c.PhrasingCount, &canonical, &archived, &deleted, &c.CreatedAt)
	if err != nil {
		return nil, err
	}

	if c.ID, err = uuid.Parse(idStr); err != nil {
		return nil, err
	}
	if c.UserID, err = uuid.Parse(userIDStr); err != nil {
		return nil, err
	}
	if c.Memory.State, err = models.ParseState(stateStr); err != nil {
		return nil, err
	}
	if elapsed.Valid {
		c.Memory.ElapsedDays = &elapsed.Float64
	}
	if scheduled.Valid {
		c.Memory.ScheduledDays = &scheduled.Float64
	}
	if retrCache.Valid {
		c.Memory.Retrievability = &retrCache.Float64
	}
	if lastReview.Valid {
		c.Memory.LastReviewAt = &lastReview.Time
	}
	if archived.Valid {
		c.ArchivedAt = &archived.Time
	}
	if deleted.Valid {
		c.DeletedAt = &deleted.Time
	}
	if canonical.Valid {
		id, err := uuid.Parse(canonical.String)
		if err != nil {
			return nil, err
		}
		c.CanonicalPhrasingID = &id
	}
	return &c, nil
}

func nullFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func nullUUID(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return id.String()
}

// requireRow converts a zero-row update into notFound so ownership checks
// surface as missing resources.
func requireRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
