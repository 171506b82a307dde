// File path: cmd/flowforge/services.go
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/nicodishanthj/flowforge/internal/common/process"
)

// startOllamaService launches a local Ollama server when one is not already
// reachable, so LLM extraction works out of the box on hosts that have the
// binary installed.
func startOllamaService(ctx context.Context, logger *slog.Logger) (*process.ManagedService, error) {
	binary, err := process.BinaryPath("ollama")
	if err != nil {
		return nil, fmt.Errorf("resolve ollama binary: %w", err)
	}

	baseURL := strings.TrimSpace(os.Getenv("OLLAMA_BASE_URL"))
	if baseURL == "" {
		baseURL = "http://127.0.0.1:11434"
	}
	readyURL, err := url.JoinPath(baseURL, "api", "tags")
	if err != nil {
		return nil, fmt.Errorf("build ollama ready url: %w", err)
	}

	service, err := process.Start(ctx, process.ServiceConfig{
		Name:         "ollama",
		Command:      binary,
		Args:         []string{"serve"},
		Env:          []string{fmt.Sprintf("OLLAMA_HOST=%s", hostFromURL(baseURL))},
		ReadyURL:     readyURL,
		ReadyTimeout: 2 * time.Minute,
		StopTimeout:  5 * time.Second,
		Logger:       logger.With("component", "launcher", "service", "ollama"),
	})
	if err != nil {
		return nil, err
	}
	return service, nil
}

func stopManagedService(ctx context.Context, service *process.ManagedService, logger *slog.Logger) {
	if service == nil {
		return
	}
	if err := service.Stop(ctx); err != nil && logger != nil {
		logger.Warn("launcher: service shutdown returned error", "error", err)
	}
}

func hostFromURL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return "127.0.0.1:11434"
	}
	return parsed.Host
}
