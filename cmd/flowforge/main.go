// File path: cmd/flowforge/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/nicodishanthj/flowforge/internal/api"
	"github.com/nicodishanthj/flowforge/internal/archive"
	"github.com/nicodishanthj/flowforge/internal/capability"
	"github.com/nicodishanthj/flowforge/internal/catalog"
	"github.com/nicodishanthj/flowforge/internal/common"
	"github.com/nicodishanthj/flowforge/internal/pipeline"
)

func main() {
	logger := common.Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := godotenv.Load(); err != nil {
		logger.Warn("flowforge: .env file not loaded", "error", err)
	} else {
		logger.Info("flowforge: environment loaded from .env")
	}

	serve := flag.Bool("serve", false, "run the HTTP server instead of a one-shot conversion")
	addr := flag.String("addr", ":8084", "listen address for -serve")
	input := flag.String("input", "", "document to convert (txt, md, docx, pdf)")
	output := flag.String("output", ".", "directory for rendered flowcharts")
	format := flag.String("format", "svg", "output format: svg, png, pdf, html")
	split := flag.String("split", "auto", "workflow split mode: auto, section, subsection, procedure, none")
	rendererName := flag.String("renderer", "auto", "renderer: auto, graphviz, d2, mermaid, html")
	extraction := flag.String("extraction", "auto", "extraction: auto, heuristic, openai, ollama")
	direction := flag.String("direction", "TD", "mermaid diagram direction: TD, LR, BT, RL")
	title := flag.String("title", "", "flowchart title (defaults to the detected section title)")
	projectID := flag.String("project", "default", "project identifier for archive and catalog records")
	archivePath := flag.String("archive", defaultArchivePath(), "path to the JSONL artifact archive")
	catalogPath := flag.String("catalog", defaultCatalogPath(), "path to the SQLite run catalog")
	showCaps := flag.Bool("capabilities", false, "print detected host capabilities as JSON and exit")
	autoStartOllama := flag.Bool("auto-start-ollama", false, "launch a local ollama server if the ollama binary is installed")
	flag.Parse()

	if *autoStartOllama {
		service, serviceErr := startOllamaService(ctx, logger)
		if serviceErr != nil {
			logger.Warn("flowforge: ollama launch skipped", "error", serviceErr)
		} else {
			defer stopManagedService(context.Background(), service, logger)
		}
	}

	if *showCaps {
		caps := capability.NewDetector(strings.TrimSpace(os.Getenv("OLLAMA_BASE_URL"))).Detect(ctx)
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(caps); err != nil {
			fmt.Println("capabilities error:", err)
			os.Exit(1)
		}
		return
	}

	arch, err := archive.NewStore(*archivePath)
	if err != nil {
		logger.Error("flowforge: archive init failed", "error", err)
		fmt.Println("archive error:", err)
		os.Exit(1)
	}
	cat, err := catalog.Open(*catalogPath)
	if err != nil {
		logger.Error("flowforge: catalog init failed", "error", err)
		fmt.Println("catalog error:", err)
		os.Exit(1)
	}
	defer cat.Close()

	p := pipeline.New(pipeline.WithArchive(arch), pipeline.WithCatalog(cat))

	if *serve {
		server := api.NewServer(p, arch, cat, capability.NewDetector(strings.TrimSpace(os.Getenv("OLLAMA_BASE_URL"))))
		logger.Info("flowforge: server listening", "addr", *addr, "health", "/healthz")
		fmt.Printf("Serving on %s\n", *addr)
		if err := http.ListenAndServe(*addr, server); err != nil {
			logger.Error("flowforge: server stopped", "error", err)
			fmt.Println("server stopped:", err)
		}
		return
	}

	if strings.TrimSpace(*input) == "" {
		fmt.Println("usage: flowforge -input document.txt [-output dir] [-format svg] or flowforge -serve")
		flag.PrintDefaults()
		os.Exit(2)
	}

	result, err := p.Process(ctx, pipeline.Request{
		Path: *input,
		Config: pipeline.Config{
			ProjectID:  *projectID,
			Title:      *title,
			SplitMode:  *split,
			Extraction: *extraction,
			Renderer:   *rendererName,
			Format:     *format,
			Direction:  *direction,
			OutputDir:  *output,
		},
	})
	if err != nil {
		logger.Error("flowforge: conversion failed", "input", *input, "error", err)
		fmt.Println("conversion error:", err)
		os.Exit(1)
	}

	for _, sec := range result.Sections {
		status := sec.Quality.Tier
		if !sec.Validation.Valid {
			status += ", invalid"
		}
		fmt.Printf("%-40s %s (%s)\n", sec.Flowchart.Title, sec.OutputPath, status)
		for _, warning := range sec.Validation.Warnings {
			fmt.Println("  warning:", warning)
		}
		for _, errMsg := range sec.Validation.Errors {
			fmt.Println("  error:", errMsg)
		}
	}
	fmt.Printf("%d section(s) converted in %s (run %s)\n", len(result.Sections), result.Duration.Round(time.Millisecond), result.RunID)
}

func defaultArchivePath() string {
	if env := strings.TrimSpace(os.Getenv("FLOWFORGE_ARCHIVE")); env != "" {
		return env
	}
	return filepath.Join("data", "archive")
}

func defaultCatalogPath() string {
	if env := strings.TrimSpace(os.Getenv("FLOWFORGE_CATALOG")); env != "" {
		return env
	}
	return filepath.Join("data", "catalog.db")
}
