// File path: internal/api/graph_handler.go
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/nicodishanthj/flowforge/internal/detector"
	"github.com/nicodishanthj/flowforge/internal/flowchart"
	"github.com/nicodishanthj/flowforge/internal/renderer"
	"github.com/nicodishanthj/flowforge/internal/validator"
)

type detectRequest struct {
	Text      string `json:"text"`
	SplitMode string `json:"split_mode"`
}

func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	var req detectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, errors.New("text required"))
		return
	}
	if req.SplitMode == "" {
		req.SplitMode = "auto"
	}
	mode, err := detector.ParseSplitMode(req.SplitMode)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	d := detector.New()
	sections := d.AnalyzeAndFilter(d.Detect(req.Text, mode))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"split_mode": string(mode),
		"sections":   sections,
	})
}

type renderRequest struct {
	Flowchart *flowchart.Flowchart `json:"flowchart"`
	Notation  string               `json:"notation"`
	Direction string               `json:"direction"`
}

type renderResponse struct {
	Notation   string           `json:"notation"`
	Source     string           `json:"source"`
	Validation validator.Result `json:"validation"`
}

// handleRender produces diagram source text from a flowchart graph without
// touching external binaries. Image output goes through /v1/convert.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Flowchart == nil || len(req.Flowchart.Nodes) == 0 {
		writeError(w, http.StatusBadRequest, errors.New("flowchart with nodes required"))
		return
	}
	if req.Notation == "" {
		req.Notation = "mermaid"
	}
	var source string
	switch req.Notation {
	case "mermaid":
		source = renderer.GenerateMermaid(req.Flowchart, req.Direction)
	case "dot":
		source = renderer.GenerateDOT(req.Flowchart, req.Direction)
	case "d2":
		source = renderer.GenerateD2(req.Flowchart)
	default:
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown notation %q", req.Notation))
		return
	}
	writeJSON(w, http.StatusOK, renderResponse{
		Notation:   req.Notation,
		Source:     source,
		Validation: validator.New().Validate(req.Flowchart),
	})
}

func (s *Server) handleCapabilities(w http.ResponseWriter, r *http.Request) {
	caps := s.caps.Detect(r.Context())
	if r.URL.Query().Get("refresh") == "true" {
		caps = s.caps.Refresh(r.Context())
	}
	writeJSON(w, http.StatusOK, caps)
}

func decodeJSON(r *http.Request, target interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	return nil
}
