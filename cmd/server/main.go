package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/misty-step/scry-sub000/internal/api"
	"github.com/misty-step/scry-sub000/internal/config"
	"github.com/misty-step/scry-sub000/internal/db"
	"github.com/misty-step/scry-sub000/internal/logger"
	"github.com/misty-step/scry-sub000/internal/repository/sqlite"
	"github.com/misty-step/scry-sub000/internal/services"
	"github.com/misty-step/scry-sub000/internal/srs"
)

func main() {
	cfg := config.Load()

	log := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithColors(true),
	)
	logger.SetDefault(log)

	log.Info("===========================================")
	log.Info("Scry Scheduling Server Starting")
	log.Info("===========================================")
	log.Info("configuration loaded")
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("db_path=%s", cfg.DBPath)
	log.Debug("log_level=%s", cfg.LogLevel)
	log.Debug("desired_retention=%g", cfg.DesiredRetention)
	log.Debug("interval_clamp=[%d, %d] days", cfg.MinIntervalDays, cfg.MaxIntervalDays)
	log.Debug("relearn_interval_days=%d", cfg.RelearnIntervalDays)
	log.Debug("graduating_reps=%d", cfg.GraduatingReps)
	log.Debug("candidate_limit=%d", cfg.CandidateLimit)
	log.Debug("urgency_delta=%g", cfg.UrgencyDelta)

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Error("failed to open database: %v", err)
		os.Exit(1)
	}
	defer func() {
		log.Debug("closing database connection")
		database.Close()
	}()

	scheduler, err := srs.NewScheduler(srs.Config{
		DesiredRetention:    cfg.DesiredRetention,
		MinIntervalDays:     cfg.MinIntervalDays,
		MaxIntervalDays:     cfg.MaxIntervalDays,
		RelearnIntervalDays: cfg.RelearnIntervalDays,
		GraduatingReps:      cfg.GraduatingReps,
		RelearnGraduateReps: cfg.RelearnGraduateReps,
		DisableFuzz:         cfg.DisableFuzz,
	})
	if err != nil {
		log.Error("invalid scheduler configuration: %v", err)
		os.Exit(1)
	}

	concepts := sqlite.NewConceptRepository(database.DB)
	phrasings := sqlite.NewPhrasingRepository(database.DB)
	interactions := sqlite.NewInteractionRepository(database.DB)
	stats := sqlite.NewStatsRepository(database.DB)

	srv := &api.Server{
		QueueService: services.NewQueueService(concepts, phrasings, interactions, scheduler, services.QueueConfig{
			CandidateLimit:    cfg.CandidateLimit,
			PhrasingLimit:     cfg.PhrasingLimit,
			UrgencyDelta:      cfg.UrgencyDelta,
			RecentInteraction: cfg.RecentInteraction,
		}),
		ReviewService:  services.NewReviewService(database, concepts, phrasings, interactions, stats, scheduler),
		ConceptService: services.NewConceptService(database, concepts, phrasings, stats, scheduler),
		StatsService:   services.NewStatsService(stats),
		DB:             database.DB,
	}

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error: %v", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop

	log.Info("received signal %v, initiating graceful shutdown", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}

	log.Info("===========================================")
	log.Info("Scry Scheduling Server Stopped")
	log.Info("===========================================")
}
