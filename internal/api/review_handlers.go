package api

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/misty-step/scry-sub000/internal/errors"
	"github.com/misty-step/scry-sub000/internal/logger"
)

func (s *Server) handleGetDue(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	log.Debug("fetching next due concept")

	due, err := s.QueueService.GetDue(r.Context(), userFromContext(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}

	if due == nil {
		// Nothing due and nothing new: a normal empty result, not an error.
		respondJSON(w, r, http.StatusOK, map[string]any{"due": nil})
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]any{"due": due})
}

func (s *Server) handleGetDueCount(w http.ResponseWriter, r *http.Request) {
	count, err := s.QueueService.GetDueCount(r.Context(), userFromContext(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, count)
}

type recordInteractionRequest struct {
	ConceptID   uuid.UUID `json:"concept_id"`
	PhrasingID  uuid.UUID `json:"phrasing_id"`
	UserAnswer  string    `json:"user_answer"`
	TimeSpentMs *int      `json:"time_spent_ms,omitempty"`
}

func (s *Server) handleRecordInteraction(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req recordInteractionRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	if req.ConceptID == uuid.Nil || req.PhrasingID == uuid.Nil {
		handleError(w, r, errors.NewBadRequestError("concept_id and phrasing_id are required"))
		return
	}
	if req.TimeSpentMs != nil && *req.TimeSpentMs < 0 {
		req.TimeSpentMs = nil
	}

	log.Debug("recording interaction: concept_id=%s", req.ConceptID)

	summary, err := s.ReviewService.RecordInteraction(r.Context(), userFromContext(r.Context()),
		req.ConceptID, req.PhrasingID, req.UserAnswer, req.TimeSpentMs)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, summary)
}
