package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/misty-step/scry-sub000/internal/logger"
	"github.com/misty-step/scry-sub000/internal/models"
	"github.com/misty-step/scry-sub000/internal/repository"
)

const phrasingColumns = `id, concept_id, user_id, question, options, correct_answer, explanation,
attempt_count, correct_count, last_attempted_at, archived_at, deleted_at, created_at`

type phrasingRepository struct {
	db dbtx
}

// NewPhrasingRepository creates a new PhrasingRepository implementation
func NewPhrasingRepository(db *sql.DB) repository.PhrasingRepository {
	return &phrasingRepository{db: db}
}

func (r *phrasingRepository) WithTx(tx *sql.Tx) repository.PhrasingRepository {
	return &phrasingRepository{db: tx}
}

func (r *phrasingRepository) Insert(ctx context.Context, p models.Phrasing) error {
	log := logger.FromContext(ctx).WithPrefix("phrasing_repo")
	log.Debug("inserting phrasing: id=%s, concept_id=%s", p.ID, p.ConceptID)

	options, err := marshalOptions(p.Options)
	if err != nil {
		log.Error("failed to marshal options: %v", err)
		return err
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO phrasings (`+phrasingColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
		p.ID.String(), p.ConceptID.String(), p.UserID.String(),
		p.Question, options, p.CorrectAnswer, p.Explanation,
		p.AttemptCount, p.CorrectCount, nullTime(p.LastAttemptedAt),
		nullTime(p.ArchivedAt), nullTime(p.DeletedAt), p.CreatedAt,
	)
	if err != nil {
		log.Error("failed to insert phrasing: %v", err)
	}
	return err
}

func (r *phrasingRepository) Get(ctx context.Context, userID, id uuid.UUID) (*models.Phrasing, error) {
	log := logger.FromContext(ctx).WithPrefix("phrasing_repo")
	log.Debug("getting phrasing: id=%s", id)

	row := r.db.QueryRowContext(ctx, `
SELECT `+phrasingColumns+`
FROM phrasings
WHERE id = ? AND user_id = ?
`, id.String(), userID.String())

	p, err := scanPhrasing(row)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("phrasing not found: id=%s", id)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get phrasing: %v", err)
		return nil, err
	}
	return p, nil
}

func (r *phrasingRepository) ActiveByConcept(ctx context.Context, conceptID uuid.UUID, limit int) ([]models.Phrasing, error) {
	log := logger.FromContext(ctx).WithPrefix("phrasing_repo")
	log.Debug("fetching active phrasings: concept_id=%s, limit=%d", conceptID, limit)

	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT `+phrasingColumns+`
FROM phrasings
WHERE concept_id = ? AND archived_at IS NULL AND deleted_at IS NULL
ORDER BY created_at ASC
LIMIT ?
`, conceptID.String(), limit)
	if err != nil {
		log.Error("failed to query phrasings: %v", err)
		return nil, err
	}
	defer rows.Close()

	var phrasings []models.Phrasing
	for rows.Next() {
		p, err := scanPhrasing(rows)
		if err != nil {
			log.Error("failed to scan phrasing row: %v", err)
			return nil, err
		}
		phrasings = append(phrasings, *p)
	}
	log.Debug("found %d active phrasings", len(phrasings))
	return phrasings, rows.Err()
}

func (r *phrasingRepository) RecordAttempt(ctx context.Context, id uuid.UUID, correct bool, at time.Time) error {
	log := logger.FromContext(ctx).WithPrefix("phrasing_repo")
	log.Debug("recording attempt: id=%s, correct=%t", id, correct)

	correctDelta := 0
	if correct {
		correctDelta = 1
	}
	res, err := r.db.ExecContext(ctx, `
UPDATE phrasings
SET attempt_count = attempt_count + 1, correct_count = correct_count + ?, last_attempted_at = ?
WHERE id = ?
`, correctDelta, at, id.String())
	if err != nil {
		log.Error("failed to record attempt: %v", err)
		return err
	}
	return requireRow(res, sql.ErrNoRows)
}

func scanPhrasing(s scanner) (*models.Phrasing, error) {
	var (
		p                               models.Phrasing
		idStr, conceptIDStr, userIDStr  string
		options                         string
		lastAttempted, archived, delAt  sql.NullTime
	)
	err := s.Scan(&idStr, &conceptIDStr, &userIDStr, &p.Question, &options,
		&p.CorrectAnswer, &p.Explanation, &p.AttemptCount, &p.CorrectCount,
		&lastAttempted, &archived, &delAt, &p.CreatedAt)
	if err != nil {
		return nil, err
	}

	if p.ID, err = uuid.Parse(idStr); err != nil {
		return nil, err
	}
	if p.ConceptID, err = uuid.Parse(conceptIDStr); err != nil {
		return nil, err
	}
	if p.UserID, err = uuid.Parse(userIDStr); err != nil {
		return nil, err
	}
	if p.Options, err = unmarshalOptions(options); err != nil {
		return nil, err
	}
	if lastAttempted.Valid {
		p.LastAttemptedAt = &lastAttempted.Time
	}
	if archived.Valid {
		p.ArchivedAt = &archived.Time
	}
	if delAt.Valid {
		p.DeletedAt = &delAt.Time
	}
	return &p, nil
}

// marshalOptions serializes phrasing options as a JSON array.
func marshalOptions(opts []string) (string, error) {
	if opts == nil {
		opts = []string{}
	}
	b, err := json.Marshal(opts)
	return string(b), err
}

func unmarshalOptions(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}
	var opts []string
	if err := json.Unmarshal([]byte(raw), &opts); err != nil {
		return nil, err
	}
	if len(opts) == 0 {
		return nil, nil
	}
	return opts, nil
}
