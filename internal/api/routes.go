package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.userMiddleware)

		r.Get("/review/next", s.handleGetDue)
		r.Get("/review/count", s.handleGetDueCount)
		r.Post("/review", s.handleRecordInteraction)

		r.Get("/concepts", s.handleListConcepts)
		r.Post("/concepts", s.handleCreateConcept)
		r.Get("/concepts/{id}", s.handleGetConcept)
		r.Post("/concepts/{id}/archive", s.handleArchiveConcept)
		r.Post("/concepts/{id}/unarchive", s.handleUnarchiveConcept)
		r.Post("/concepts/{id}/delete", s.handleDeleteConcept)
		r.Post("/concepts/{id}/restore", s.handleRestoreConcept)
		r.Post("/concepts/{id}/phrasings", s.handleAddPhrasing)
		r.Post("/concepts/{id}/canonical-phrasing", s.handleSetCanonicalPhrasing)

		r.Get("/stats", s.handleGetStats)
		r.Post("/stats/rebuild", s.handleRebuildStats)
	})

	return r
}
