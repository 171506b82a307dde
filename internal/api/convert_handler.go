// File path: internal/api/convert_handler.go
package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/nicodishanthj/flowforge/internal/pipeline"
)

type convertRequest struct {
	Text       string          `json:"text"`
	SourceName string          `json:"source_name"`
	Config     pipeline.Config `json:"config"`
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	if s.pipeline == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("pipeline unavailable"))
		return
	}
	var req convertRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, errors.New("text required"))
		return
	}
	result, err := s.pipeline.Process(r.Context(), pipeline.Request{
		Text:       req.Text,
		SourceName: req.SourceName,
		Config:     req.Config,
	})
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleConvertUpload(w http.ResponseWriter, r *http.Request) {
	if s.pipeline == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("pipeline unavailable"))
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("parse upload: %w", err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("missing file field: %w", err))
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("read upload: %w", err))
		return
	}

	cfg := pipeline.Config{
		ProjectID:  r.FormValue("project_id"),
		Title:      r.FormValue("title"),
		SplitMode:  r.FormValue("split_mode"),
		Extraction: r.FormValue("extraction"),
		Renderer:   r.FormValue("renderer"),
		Format:     r.FormValue("format"),
		OutputDir:  r.FormValue("output_dir"),
	}
	result, err := s.pipeline.Process(r.Context(), pipeline.Request{
		SourceName: header.Filename,
		Data:       data,
		Config:     cfg,
	})
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
