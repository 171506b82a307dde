// File path: internal/api/server.go
package api

import (
	"encoding/json"
	"expvar"
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"

	"github.com/nicodishanthj/flowforge/internal/archive"
	"github.com/nicodishanthj/flowforge/internal/capability"
	"github.com/nicodishanthj/flowforge/internal/catalog"
	"github.com/nicodishanthj/flowforge/internal/common"
	"github.com/nicodishanthj/flowforge/internal/pipeline"
)

// maxUploadBytes bounds multipart document uploads.
const maxUploadBytes = 32 << 20

// Server exposes the conversion pipeline over HTTP.
type Server struct {
	router   chi.Router
	pipeline *pipeline.Pipeline
	archive  *archive.Store
	catalog  *catalog.Store
	caps     *capability.Detector
}

// NewServer wires the pipeline and stores into a routed HTTP handler. The
// archive and catalog may be nil; their endpoints then report unavailability.
func NewServer(p *pipeline.Pipeline, arch *archive.Store, cat *catalog.Store, caps *capability.Detector) *Server {
	if caps == nil {
		caps = capability.NewDetector("")
	}
	s := &Server{
		router:   chi.NewRouter(),
		pipeline: p,
		archive:  arch,
		catalog:  cat,
		caps:     caps,
	}
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	logger := common.Logger()
	logger.Info("api: configuring routes")
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("request", "method", r.Method, "path", r.URL.Path, "dur", time.Since(start), "remote", r.RemoteAddr)
		})
	})

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	s.router.Get("/debug/vars", expvar.Handler().ServeHTTP)

	s.router.Post("/v1/convert", s.handleConvert)
	s.router.Post("/v1/convert/upload", s.handleConvertUpload)
	s.router.Post("/v1/detect", s.handleDetect)
	s.router.Post("/v1/render", s.handleRender)
	s.router.Get("/v1/capabilities", s.handleCapabilities)
	s.router.Get("/v1/runs", s.handleRuns)
	s.router.Get("/v1/runs/{id}", s.handleRun)
	s.router.Get("/v1/projects", s.handleProjects)
	s.router.Get("/v1/artifacts/{id}", s.handleArtifact)
	s.router.Get("/v1/logs", s.handleLogs)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	logger := common.Logger()
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
	} else {
		logger.Warn("request failed", "status", status, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
