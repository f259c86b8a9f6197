package api

import (
	"context"

	"github.com/misty-step/scry-sub000/internal/services"
)

// Pinger reports backing-store connectivity. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Server holds the service dependencies for the HTTP handlers.
type Server struct {
	QueueService   services.QueueService
	ReviewService  services.ReviewService
	ConceptService services.ConceptService
	StatsService   services.StatsService
	DB             Pinger
}
