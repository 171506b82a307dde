// File path: internal/api/runs_handler.go
package api

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	chi "github.com/go-chi/chi/v5"

	"github.com/nicodishanthj/flowforge/internal/common"
)

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.catalog == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("run catalog unavailable"))
		return
	}
	limit := queryInt(r, "limit", 20)
	offset := queryInt(r, "offset", 0)
	page, err := s.catalog.ListRuns(r.Context(), r.URL.Query().Get("project_id"), limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("list runs: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if s.catalog == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("run catalog unavailable"))
		return
	}
	id := chi.URLParam(r, "id")
	run, err := s.catalog.GetRun(r.Context(), id)
	if err != nil {
		status := http.StatusInternalServerError
		if strings.Contains(err.Error(), "not found") {
			status = http.StatusNotFound
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

type projectSummary struct {
	ID            string  `json:"project_id"`
	Artifacts     int     `json:"artifacts"`
	Runs          int     `json:"runs"`
	Certified     int     `json:"certified"`
	AvgConfidence float64 `json:"avg_confidence"`
}

func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	summaries := make(map[string]*projectSummary)
	if s.archive != nil {
		infos, err := s.archive.Projects(ctx)
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Errorf("list archive projects: %w", err))
			return
		}
		for _, info := range infos {
			summaries[info.ID] = &projectSummary{ID: info.ID, Artifacts: info.Artifacts}
		}
	}
	if s.catalog != nil {
		rows, err := s.catalog.Projects(ctx)
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Errorf("list catalog projects: %w", err))
			return
		}
		for _, row := range rows {
			summary, ok := summaries[row.ProjectID]
			if !ok {
				summary = &projectSummary{ID: row.ProjectID}
				summaries[row.ProjectID] = summary
			}
			summary.Runs = row.Runs
			summary.Certified = row.Certified
			summary.AvgConfidence = row.AvgConfidence
		}
	}
	ordered := make([]projectSummary, 0, len(summaries))
	for _, summary := range summaries {
		ordered = append(ordered, *summary)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })
	writeJSON(w, http.StatusOK, map[string]interface{}{"projects": ordered})
}

func (s *Server) handleArtifact(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("artifact archive unavailable"))
		return
	}
	id := chi.URLParam(r, "id")
	artifact, err := s.archive.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, artifact)
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"logs": common.LogEntries()})
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
