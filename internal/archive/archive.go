// File path: internal/archive/archive.go
package archive

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/nicodishanthj/flowforge/internal/flowchart"
)

// Artifact is one archived conversion: the produced graph plus enough
// provenance to re-render or audit it later.
type Artifact struct {
	ID            string               `json:"id"`
	Title         string               `json:"title"`
	SourceName    string               `json:"source_name,omitempty"`
	Renderer      string               `json:"renderer,omitempty"`
	Format        string               `json:"format,omitempty"`
	Tier          string               `json:"tier,omitempty"`
	Confidence    float64              `json:"confidence"`
	Flowchart     *flowchart.Flowchart `json:"flowchart"`
	MermaidSource string               `json:"mermaid_source,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
}

// ProjectInfo summarizes one stored project file.
type ProjectInfo struct {
	ID        string `json:"id"`
	Artifacts int    `json:"artifacts"`
}

// Store persists artifacts as JSONL, one file per project. Safe for
// concurrent use.
type Store struct {
	path string
	mu   sync.RWMutex
}

func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("archive: store path required")
	}
	basePath := determineRoot(path)
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("archive: create store dir: %w", err)
	}
	return &Store{path: basePath}, nil
}

// Append adds artifacts to a project file, creating it when absent.
func (s *Store) Append(ctx context.Context, projectID string, artifacts []Artifact) error {
	if len(artifacts) == 0 {
		return nil
	}
	filePath, err := s.projectFile(projectID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	file, err := os.OpenFile(filePath, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("archive: open store: %w", err)
	}
	defer file.Close()
	enc := json.NewEncoder(file)
	for _, artifact := range artifacts {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := enc.Encode(artifact); err != nil {
			return fmt.Errorf("archive: encode artifact: %w", err)
		}
	}
	return nil
}

// Replace overwrites a project's archive with the provided artifacts.
func (s *Store) Replace(ctx context.Context, projectID string, artifacts []Artifact) error {
	filePath, err := s.projectFile(projectID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	file, err := os.OpenFile(filePath, os.O_TRUNC|os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("archive: open store: %w", err)
	}
	defer file.Close()
	enc := json.NewEncoder(file)
	for _, artifact := range artifacts {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := enc.Encode(artifact); err != nil {
			return fmt.Errorf("archive: encode artifact: %w", err)
		}
	}
	return nil
}

// All returns a project's artifacts, or every artifact when projectID is
// empty.
func (s *Store) All(ctx context.Context, projectID string) ([]Artifact, error) {
	if s == nil {
		return nil, errors.New("archive: store not initialized")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if strings.TrimSpace(projectID) == "" {
		return s.readAllProjects(ctx)
	}
	return s.readProject(ctx, projectID)
}

// Get returns the artifact with the given id, searching every project.
func (s *Store) Get(ctx context.Context, id string) (*Artifact, error) {
	artifacts, err := s.All(ctx, "")
	if err != nil {
		return nil, err
	}
	for i := range artifacts {
		if artifacts[i].ID == id {
			return &artifacts[i], nil
		}
	}
	return nil, fmt.Errorf("archive: artifact %q not found", id)
}

// Projects lists stored projects with artifact counts.
func (s *Store) Projects(ctx context.Context) ([]ProjectInfo, error) {
	if s == nil {
		return nil, errors.New("archive: store not initialized")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries, err := os.ReadDir(s.path)
	if err != nil {
		return nil, fmt.Errorf("archive: read store dir: %w", err)
	}
	infos := make([]ProjectInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		projectID, ok := decodeProjectFile(entry.Name())
		if !ok {
			continue
		}
		artifacts, err := s.readProject(ctx, projectID)
		if err != nil {
			return nil, err
		}
		infos = append(infos, ProjectInfo{ID: projectID, Artifacts: len(artifacts)})
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].ID < infos[j].ID
	})
	return infos, nil
}

// Root returns the underlying directory used for persistence.
func (s *Store) Root() string {
	if s == nil {
		return ""
	}
	return s.path
}

func (s *Store) readProject(ctx context.Context, projectID string) ([]Artifact, error) {
	filePath, err := s.projectFile(projectID)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("archive: open store: %w", err)
	}
	defer file.Close()
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64<<10), 8<<20)
	var artifacts []Artifact
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var artifact Artifact
		if err := json.Unmarshal(line, &artifact); err != nil {
			return nil, fmt.Errorf("archive: decode artifact: %w", err)
		}
		artifacts = append(artifacts, artifact)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("archive: scan artifacts: %w", err)
	}
	return artifacts, nil
}

func (s *Store) readAllProjects(ctx context.Context) ([]Artifact, error) {
	entries, err := os.ReadDir(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("archive: read store dir: %w", err)
	}
	var all []Artifact
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		projectID, ok := decodeProjectFile(entry.Name())
		if !ok {
			continue
		}
		artifacts, err := s.readProject(ctx, projectID)
		if err != nil {
			return nil, err
		}
		all = append(all, artifacts...)
	}
	return all, nil
}

func (s *Store) projectFile(projectID string) (string, error) {
	trimmed := strings.TrimSpace(projectID)
	if trimmed == "" {
		return "", fmt.Errorf("archive: project id required")
	}
	encoded := base64.RawURLEncoding.EncodeToString([]byte(trimmed))
	name := fmt.Sprintf("project_%s.jsonl", encoded)
	return filepath.Join(s.path, name), nil
}

func decodeProjectFile(name string) (string, bool) {
	if !strings.HasPrefix(name, "project_") || !strings.HasSuffix(name, ".jsonl") {
		return "", false
	}
	encoded := strings.TrimSuffix(strings.TrimPrefix(name, "project_"), ".jsonl")
	data, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", false
	}
	return string(data), true
}

func determineRoot(path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "."
	}
	info, err := os.Stat(trimmed)
	if err == nil {
		if info.IsDir() {
			return trimmed
		}
		return filepath.Dir(trimmed)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return filepath.Dir(trimmed)
	}
	// Path does not exist; assume the caller meant a file if an extension
	// is present.
	if ext := filepath.Ext(trimmed); ext != "" {
		dir := filepath.Dir(trimmed)
		if dir == "" || dir == "." {
			return "."
		}
		return dir
	}
	return trimmed
}
