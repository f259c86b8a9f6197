package api

import "net/http"

func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.StatsService.Get(r.Context(), userFromContext(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, stats)
}

func (s *Server) handleRebuildStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.StatsService.Rebuild(r.Context(), userFromContext(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, stats)
}
