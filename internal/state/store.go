package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"doc_archiver/internal/domain"
)

// Store persists per-source ingestion progress as one JSON document keyed by
// source ID. Snapshots are value-semantic: Get hands out an independent copy
// and Checkpoint replaces the stored snapshot wholesale, so no caller ever
// mutates shared state in place.
type Store struct {
	path   string
	logger *slog.Logger
	states map[string]domain.IngestState
}

// Open loads the state file if present. A missing file means no source has
// run yet.
func Open(path string, logger *slog.Logger) (*Store, error) {
	s := &Store{
		path:   path,
		logger: logger,
		states: make(map[string]domain.IngestState),
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state: %w", err)
	}
	if err := json.Unmarshal(data, &s.states); err != nil {
		return nil, fmt.Errorf("parse state: %w", err)
	}
	s.logger.Debug("state loaded", "path", path, "sources", len(s.states))
	return s, nil
}

// Get returns the source's snapshot, or a zero snapshot when it never ran.
func (s *Store) Get(sourceID string) domain.IngestState {
	return cloneState(s.states[sourceID])
}

// Checkpoint replaces the source's snapshot and writes the whole file
// atomically. Called after every processed candidate: an interrupted run
// resumes from the last completed document, not from the start.
func (s *Store) Checkpoint(sourceID string, st domain.IngestState) error {
	st = cloneState(st)
	st.SeenURLs = sortedUnique(st.SeenURLs)
	s.states[sourceID] = st

	if err := writeJSONAtomic(s.path, s.states); err != nil {
		return fmt.Errorf("checkpoint %s: %w", sourceID, err)
	}
	return nil
}

func cloneState(st domain.IngestState) domain.IngestState {
	out := st
	out.SeenURLs = append([]string(nil), st.SeenURLs...)
	if st.FailedURLs != nil {
		out.FailedURLs = make(map[string]domain.FailedFetch, len(st.FailedURLs))
		for k, v := range st.FailedURLs {
			out.FailedURLs[k] = v
		}
	}
	return out
}

func sortedUnique(urls []string) []string {
	if len(urls) == 0 {
		return urls
	}
	sort.Strings(urls)
	out := urls[:1]
	for _, u := range urls[1:] {
		if u != out[len(out)-1] {
			out = append(out, u)
		}
	}
	return out
}

func writeJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("chmod temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
