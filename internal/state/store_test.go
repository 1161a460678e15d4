package state

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"doc_archiver/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func openStore(t *testing.T, path string) *Store {
	t.Helper()
	s, err := Open(path, testLogger())
	require.NoError(t, err)
	return s
}

func TestStore_GetMissingReturnsZeroSnapshot(t *testing.T) {
	s := openStore(t, filepath.Join(t.TempDir(), "state.json"))

	st := s.Get("never-ran")
	require.Zero(t, st.Cursor)
	require.Empty(t, st.SeenURLs)
	require.Nil(t, st.FailedURLs)
	require.True(t, st.LastRun.IsZero())
}

func TestStore_CheckpointSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s := openStore(t, path)

	now := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	err := s.Checkpoint("doj", domain.IngestState{
		Cursor:   2,
		SeenURLs: []string{"https://x.gov/b.pdf", "https://x.gov/a.pdf", "https://x.gov/b.pdf"},
		FailedURLs: map[string]domain.FailedFetch{
			"https://x.gov/gone.pdf": {Status: 404, At: now},
		},
		LastRun: now,
	})
	require.NoError(t, err)

	reopened := openStore(t, path)
	st := reopened.Get("doj")
	require.Equal(t, 2, st.Cursor)
	// Persisted sorted and deduplicated.
	require.Equal(t, []string{"https://x.gov/a.pdf", "https://x.gov/b.pdf"}, st.SeenURLs)
	require.Equal(t, 404, st.FailedURLs["https://x.gov/gone.pdf"].Status)
	require.True(t, st.LastRun.Equal(now))
}

func TestStore_FileShapeIsPerSourceMap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s := openStore(t, path)

	require.NoError(t, s.Checkpoint("a", domain.IngestState{SeenURLs: []string{"https://x.gov/1.pdf"}}))
	require.NoError(t, s.Checkpoint("b", domain.IngestState{Cursor: 5}))

	var raw map[string]json.RawMessage
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Contains(t, raw, "a")
	require.Contains(t, raw, "b")

	// The atomic rename leaves no temp file next to the state file.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestStore_SnapshotsAreIsolated(t *testing.T) {
	s := openStore(t, filepath.Join(t.TempDir(), "state.json"))

	require.NoError(t, s.Checkpoint("src", domain.IngestState{
		SeenURLs:   []string{"https://x.gov/a.pdf"},
		FailedURLs: map[string]domain.FailedFetch{"https://x.gov/f.pdf": {Status: 500}},
	}))

	st := s.Get("src")
	st.SeenURLs[0] = "mutated"
	st.FailedURLs["https://x.gov/f.pdf"] = domain.FailedFetch{Status: 999}

	fresh := s.Get("src")
	require.Equal(t, []string{"https://x.gov/a.pdf"}, fresh.SeenURLs)
	require.Equal(t, 500, fresh.FailedURLs["https://x.gov/f.pdf"].Status)
}

func TestStore_CheckpointReplacesWholesale(t *testing.T) {
	s := openStore(t, filepath.Join(t.TempDir(), "state.json"))

	require.NoError(t, s.Checkpoint("src", domain.IngestState{
		Cursor:   7,
		SeenURLs: []string{"https://x.gov/a.pdf", "https://x.gov/b.pdf"},
	}))
	// A later snapshot with less in it wins; nothing is merged back in.
	require.NoError(t, s.Checkpoint("src", domain.IngestState{
		Cursor:   1,
		SeenURLs: []string{"https://x.gov/c.pdf"},
	}))

	st := s.Get("src")
	require.Equal(t, 1, st.Cursor)
	require.Equal(t, []string{"https://x.gov/c.pdf"}, st.SeenURLs)
}
