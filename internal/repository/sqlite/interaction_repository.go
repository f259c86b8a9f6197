package sqlite

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/misty-step/scry-sub000/internal/logger"
	"github.com/misty-step/scry-sub000/internal/models"
	"github.com/misty-step/scry-sub000/internal/repository"
)

type interactionRepository struct {
	db dbtx
}

// NewInteractionRepository creates a new InteractionRepository implementation
func NewInteractionRepository(db *sql.DB) repository.InteractionRepository {
	return &interactionRepository{db: db}
}

func (r *interactionRepository) WithTx(tx *sql.Tx) repository.InteractionRepository {
	return &interactionRepository{db: tx}
}

func (r *interactionRepository) Insert(ctx context.Context, in models.Interaction) error {
	log := logger.FromContext(ctx).WithPrefix("interaction_repo")
	log.Debug("inserting interaction: concept_id=%s, correct=%t", in.ConceptID, in.IsCorrect)

	var timeSpent any
	if in.TimeSpentMs != nil {
		timeSpent = *in.TimeSpentMs
	}

	_, err := r.db.ExecContext(ctx, `
INSERT INTO interactions (id, user_id, concept_id, phrasing_id, user_answer, is_correct, attempted_at,
                          time_spent_ms, ctx_scheduled_days, ctx_next_review, ctx_state)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
		in.ID.String(), in.UserID.String(), in.ConceptID.String(), in.PhrasingID.String(),
		in.UserAnswer, in.IsCorrect, in.AttemptedAt, timeSpent,
		in.Context.ScheduledDays, in.Context.NextReview, in.Context.State.String(),
	)
	if err != nil {
		log.Error("failed to insert interaction: %v", err)
	}
	return err
}

func (r *interactionRepository) RecentByConcept(ctx context.Context, conceptID uuid.UUID, limit int) ([]models.Interaction, error) {
	log := logger.FromContext(ctx).WithPrefix("interaction_repo")
	log.Debug("fetching recent interactions: concept_id=%s, limit=%d", conceptID, limit)

	if limit <= 0 {
		limit = 5
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT id, user_id, concept_id, phrasing_id, user_answer, is_correct, attempted_at,
       time_spent_ms, ctx_scheduled_days, ctx_next_review, ctx_state
FROM interactions
WHERE concept_id = ?
ORDER BY attempted_at DESC
LIMIT ?
`, conceptID.String(), limit)
	if err != nil {
		log.Error("failed to query interactions: %v", err)
		return nil, err
	}
	defer rows.Close()

	var interactions []models.Interaction
	for rows.Next() {
		in, err := scanInteraction(rows)
		if err != nil {
			log.Error("failed to scan interaction row: %v", err)
			return nil, err
		}
		interactions = append(interactions, *in)
	}
	return interactions, rows.Err()
}

func scanInteraction(s scanner) (*models.Interaction, error) {
	var (
		in                                          models.Interaction
		idStr, userIDStr, conceptIDStr, phrasingStr string
		stateStr                                    string
		timeSpent                                   sql.NullInt64
	)
	err := s.Scan(&idStr, &userIDStr, &conceptIDStr, &phrasingStr,
		&in.UserAnswer, &in.IsCorrect, &in.AttemptedAt,
		&timeSpent, &in.Context.ScheduledDays, &in.Context.NextReview, &stateStr)
	if err != nil {
		return nil, err
	}

	if in.ID, err = uuid.Parse(idStr); err != nil {
		return nil, err
	}
	if in.UserID, err = uuid.Parse(userIDStr); err != nil {
		return nil, err
	}
	if in.ConceptID, err = uuid.Parse(conceptIDStr); err != nil {
		return nil, err
	}
	if in.PhrasingID, err = uuid.Parse(phrasingStr); err != nil {
		return nil, err
	}
	if in.Context.State, err = models.ParseState(stateStr); err != nil {
		return nil, err
	}
	if timeSpent.Valid {
		v := int(timeSpent.Int64)
		in.TimeSpentMs = &v
	}
	return &in, nil
}
