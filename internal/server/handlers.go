package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/claude/repcounter/internal/ingest"
	"github.com/claude/repcounter/internal/models"
	"github.com/claude/repcounter/internal/session"
	"github.com/claude/repcounter/internal/storage"
	"github.com/go-chi/chi/v5"
)

// maxFrameBytes bounds a single frame upload.
const maxFrameBytes = 1 << 20

func (s *Server) handleExercises(w http.ResponseWriter, r *http.Request) {
	profiles := s.ctrl.Catalog().Profiles()
	out := make([]models.ExerciseInfo, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, models.ExerciseFromProfile(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleTotals(w http.ResponseWriter, r *http.Request) {
	totals := s.ctrl.Store().Totals(r.Context())
	// Every catalog exercise is listed, even before its first session.
	for _, id := range s.ctrl.Catalog().IDs() {
		if _, ok := totals[id]; !ok {
			totals[id] = 0
		}
	}
	writeJSON(w, http.StatusOK, totals)
}

func (s *Server) handleExerciseTotal(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "exercise")
	if _, err := s.ctrl.Catalog().Lookup(id); err != nil {
		writeError(w, err)
		return
	}

	stats, err := storage.StatsFor(r.Context(), s.ctrl.Store(), id)
	if err != nil {
		s.log.Error("stats query failed", "exercise", id, "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.StatsFromStorage(stats))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "exercise")
	if _, err := s.ctrl.Catalog().Lookup(id); err != nil {
		writeError(w, err)
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	records, err := s.ctrl.Store().History(r.Context(), id)
	if err != nil {
		s.log.Error("history query failed", "exercise", id, "error", err)
		writeError(w, err)
		return
	}
	if limit > 0 && len(records) > limit {
		records = records[len(records)-limit:]
	}
	writeJSON(w, http.StatusOK, models.RecordsFromStorage(records))
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req models.StartSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if req.Exercise == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "exercise is required"})
		return
	}

	snap, err := s.ctrl.Start(req.Exercise, req.TargetReps)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, models.StatusFromSnapshot(snap))
}

func (s *Server) handleCurrentSession(w http.ResponseWriter, r *http.Request) {
	snap, err := s.ctrl.Current()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.StatusFromSnapshot(snap))
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	var payload models.FramePayload
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFrameBytes)).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	snap, err := s.ctrl.Frame(ingest.Decode(payload))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.StatusFromSnapshot(snap))
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	rec, err := s.ctrl.Close(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.RecordFromStorage(rec))
}

// errorStatus maps domain errors onto HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, session.ErrUnknownExercise), errors.Is(err, session.ErrNoSession):
		return http.StatusNotFound
	case errors.Is(err, session.ErrSessionActive):
		return http.StatusConflict
	case errors.Is(err, session.ErrInvalidTarget):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, errorStatus(err), map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
