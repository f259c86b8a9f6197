package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/misty-step/scry-sub000/internal/errors"
	"github.com/misty-step/scry-sub000/internal/logger"
	"github.com/misty-step/scry-sub000/internal/models"
	"github.com/misty-step/scry-sub000/internal/repository"
)

// StatsService exposes the per-user aggregates. The online path only ever
// reads the delta-maintained row; Rebuild is the offline repair tool.
type StatsService interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.UserStats, error)
	Rebuild(ctx context.Context, userID uuid.UUID) (*models.UserStats, error)
}

type statsService struct {
	stats repository.StatsRepository
}

// NewStatsService creates a new StatsService
func NewStatsService(stats repository.StatsRepository) StatsService {
	return &statsService{stats: stats}
}

func (s *statsService) Get(ctx context.Context, userID uuid.UUID) (*models.UserStats, error) {
	stats, err := s.stats.Get(ctx, userID)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	return stats, nil
}

func (s *statsService) Rebuild(ctx context.Context, userID uuid.UUID) (*models.UserStats, error) {
	log := logger.FromContext(ctx)
	log.Warn("full stats rebuild requested: user_id=%s", userID)

	stats, err := s.stats.Rebuild(ctx, userID)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	return stats, nil
}
