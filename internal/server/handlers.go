package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/floatplanner/apscrape/pkg/storage"
)

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.DB.GetStats(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if stats == nil {
		stats = []storage.RiverStats{}
	}
	writeJSON(w, stats)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := storage.ListOptions{RiverSlug: q.Get("river")}
	if l := q.Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		opts.Limit = n
	}

	runs, err := s.DB.ListRuns(r.Context(), opts)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, runs)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.DB.GetRun(r.Context(), r.PathValue("id"))
	if err != nil {
		s.runError(w, err)
		return
	}
	writeJSON(w, run)
}

func (s *Server) handleRunPoints(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.DB.GetRun(r.Context(), id); err != nil {
		s.runError(w, err)
		return
	}

	q := r.URL.Query()
	points, err := s.DB.ListRunPoints(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if disp := q.Get("disposition"); disp != "" {
		filtered := []storage.RunPoint{}
		for _, p := range points {
			if string(p.Disposition) == disp {
				filtered = append(filtered, p)
			}
		}
		points = filtered
	}
	writeJSON(w, points)
}

func (s *Server) runError(w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrRunNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}
