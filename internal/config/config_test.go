package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeFile(t, "config.yaml", "log_level: debug\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, "config/sources.json", cfg.Paths.Sources)
	require.Equal(t, "data/meta/catalog.json", cfg.Paths.Catalog)
	require.Equal(t, "data/raw", cfg.Paths.RawDir)
	require.Equal(t, 6*time.Hour, cfg.Ingest.Interval)
	require.Equal(t, 30*time.Minute, cfg.Ingest.RunTimeout)
	require.Zero(t, cfg.Ingest.MaxDocsPerSource)
	require.Zero(t, cfg.Ingest.MaxBytesPerRun)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ARCHIVER_MAX_DOCS_PER_SOURCE", "5")
	t.Setenv("ARCHIVER_MAX_BYTES_PER_RUN", "1000")
	t.Setenv("ARCHIVER_TIME_BUDGET_SECONDS", "90")
	t.Setenv("ARCHIVER_COOKIE_JAR", "/tmp/jar.txt")
	t.Setenv("ARCHIVER_BROWSER_FALLBACK", "true")

	path := writeFile(t, "config.yaml", "ingest:\n  max_docs_per_source: 1\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, 5, cfg.Ingest.MaxDocsPerSource)
	require.Equal(t, int64(1000), cfg.Ingest.MaxBytesPerRun)
	require.Equal(t, 90*time.Second, cfg.Ingest.TimeBudget)
	require.Equal(t, "/tmp/jar.txt", cfg.Cookies.Jar)
	require.True(t, cfg.Headless.Enabled)
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("ARCHIVE_ROOT", "/srv/archive")

	path := writeFile(t, "config.yaml", "paths:\n  raw_dir: ${ARCHIVE_ROOT}/raw\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/srv/archive/raw", cfg.Paths.RawDir)
}

func TestLoadSources_Defaults(t *testing.T) {
	path := writeFile(t, "sources.json", `{
		"defaults": {"allowed_extensions": [".pdf"]},
		"sources": [
			{"id": "hub", "name": "Hub", "base_url": "https://example.test/docs",
			 "discovery": {"type": "hub"}}
		]
	}`)

	doc, err := LoadSources(path)
	require.NoError(t, err)

	require.Equal(t, "DocArchiver/1.0", doc.Defaults.UserAgent)
	require.Equal(t, 30*time.Second, doc.Defaults.Timeout())
	require.Equal(t, 3, doc.Defaults.RetryMax)
	require.Equal(t, time.Second, doc.Defaults.BackoffBase())
	require.Zero(t, doc.Defaults.RequestsPerSecond)
	require.Len(t, doc.Sources, 1)
}

func TestLoadSources_EnvOverrides(t *testing.T) {
	t.Setenv("ARCHIVER_REQUESTS_PER_SECOND", "4")
	t.Setenv("ARCHIVER_RETRY_MAX", "7")
	t.Setenv("ARCHIVER_BACKOFF_BASE_SECONDS", "0.5")

	path := writeFile(t, "sources.json", `{
		"defaults": {"requests_per_second": 1, "retry_max": 2},
		"sources": []
	}`)

	doc, err := LoadSources(path)
	require.NoError(t, err)

	require.Equal(t, 4.0, doc.Defaults.RequestsPerSecond)
	require.Equal(t, 7, doc.Defaults.RetryMax)
	require.Equal(t, 500*time.Millisecond, doc.Defaults.BackoffBase())
}

func TestLoadSources_RejectsUnknownStrategy(t *testing.T) {
	path := writeFile(t, "sources.json", `{
		"sources": [
			{"id": "x", "name": "X", "base_url": "https://example.test",
			 "discovery": {"type": "guesswork"}}
		]
	}`)

	_, err := LoadSources(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown discovery strategy")
}

func TestLoadSources_RejectsDuplicateIDs(t *testing.T) {
	path := writeFile(t, "sources.json", `{
		"sources": [
			{"id": "x", "name": "X", "base_url": "https://example.test", "discovery": {"type": "hub"}},
			{"id": "x", "name": "X2", "base_url": "https://example.test/2", "discovery": {"type": "hub"}}
		]
	}`)

	_, err := LoadSources(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "duplicate id")
}

func TestLoadSources_StaticNeedsURLs(t *testing.T) {
	path := writeFile(t, "sources.json", `{
		"sources": [
			{"id": "x", "name": "X", "discovery": {"type": "static"}}
		]
	}`)

	_, err := LoadSources(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "static discovery needs urls")
}
