package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/misty-step/scry-sub000/internal/errors"
	"github.com/misty-step/scry-sub000/internal/models"
	"github.com/misty-step/scry-sub000/internal/services"
)

type createConceptRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

func (s *Server) handleCreateConcept(w http.ResponseWriter, r *http.Request) {
	var req createConceptRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	concept, err := s.ConceptService.Create(r.Context(), userFromContext(r.Context()), req.Title, req.Description)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, concept)
}

func (s *Server) handleGetConcept(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamUUID(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}

	concept, err := s.ConceptService.Get(r.Context(), userFromContext(r.Context()), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, concept)
}

func (s *Server) handleListConcepts(w http.ResponseWriter, r *http.Request) {
	view := models.ViewAll
	if raw := r.URL.Query().Get("view"); raw != "" {
		parsed, err := models.ParseConceptView(raw)
		if err != nil {
			handleError(w, r, errors.NewBadRequestError("invalid view"))
			return
		}
		view = parsed
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	concepts, err := s.ConceptService.List(r.Context(), userFromContext(r.Context()), view, limit, offset)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]any{
		"view":     view.String(),
		"concepts": concepts,
	})
}

func (s *Server) handleArchiveConcept(w http.ResponseWriter, r *http.Request) {
	s.lifecycle(w, r, s.ConceptService.Archive)
}

func (s *Server) handleUnarchiveConcept(w http.ResponseWriter, r *http.Request) {
	s.lifecycle(w, r, s.ConceptService.Unarchive)
}

func (s *Server) handleDeleteConcept(w http.ResponseWriter, r *http.Request) {
	s.lifecycle(w, r, s.ConceptService.Delete)
}

func (s *Server) handleRestoreConcept(w http.ResponseWriter, r *http.Request) {
	s.lifecycle(w, r, s.ConceptService.Restore)
}

func (s *Server) lifecycle(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, userID, conceptID uuid.UUID) error) {
	id, err := urlParamUUID(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	if err := op(r.Context(), userFromContext(r.Context()), id); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

type addPhrasingRequest struct {
	Question      string   `json:"question"`
	Options       []string `json:"options,omitempty"`
	CorrectAnswer string   `json:"correctAnswer"`
	Explanation   string   `json:"explanation,omitempty"`
}

func (s *Server) handleAddPhrasing(w http.ResponseWriter, r *http.Request) {
	conceptID, err := urlParamUUID(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	var req addPhrasingRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	phrasing, err := s.ConceptService.AddPhrasing(r.Context(), userFromContext(r.Context()), conceptID, services.NewPhrasing{
		Question:      req.Question,
		Options:       req.Options,
		CorrectAnswer: req.CorrectAnswer,
		Explanation:   req.Explanation,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, phrasing)
}

type setCanonicalRequest struct {
	PhrasingID uuid.UUID `json:"phrasingId"`
}

func (s *Server) handleSetCanonicalPhrasing(w http.ResponseWriter, r *http.Request) {
	conceptID, err := urlParamUUID(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	var req setCanonicalRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	if req.PhrasingID == uuid.Nil {
		handleError(w, r, errors.NewBadRequestError("phrasingId is required"))
		return
	}

	if err := s.ConceptService.SetCanonicalPhrasing(r.Context(), userFromContext(r.Context()), conceptID, req.PhrasingID); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}
