package linkcheck

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"doc_archiver/internal/domain"
	"doc_archiver/internal/fetch"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testClient() *fetch.Client {
	return fetch.NewClient(fetch.Config{UserAgent: "TestAgent/1.0", Timeout: 5 * time.Second}, fetch.NewPacer(0), testLogger())
}

func source(id, baseURL string) domain.SourceConfig {
	return domain.SourceConfig{
		ID:        id,
		Name:      id,
		BaseURL:   baseURL,
		Discovery: domain.DiscoverySpec{Type: domain.StrategyFiltered},
	}
}

func TestCheck_AllLinksHealthy(t *testing.T) {
	var gets atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("fine"))
	})
	mux.HandleFunc("/head-hostile", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		gets.Add(1)
		w.Write([]byte("fine"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	checker := NewChecker(testClient(), []domain.SourceConfig{
		source("plain", srv.URL+"/ok"),
		source("head-hostile", srv.URL+"/head-hostile"),
	}, testLogger())

	errs := checker.Check(context.Background())
	require.Empty(t, errs)
	require.Equal(t, int32(1), gets.Load(), "405 on HEAD should fall back to GET")
}

func TestCheck_ReportsSoftNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/gone", func(w http.ResponseWriter, r *http.Request) {
		// The body only reaches the checker through the GET fallback.
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><body><h1>Page Not Found</h1></body></html>"))
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	checker := NewChecker(testClient(), []domain.SourceConfig{
		source("soft", srv.URL+"/gone"),
		source("hard", srv.URL+"/missing"),
	}, testLogger())

	errs := checker.Check(context.Background())
	require.Len(t, errs, 2)
	require.Contains(t, errs[0], "soft: 404 not found")
	require.Contains(t, errs[1], "hard: 404 not found")
}

func TestCheck_ForbiddenToleratedOnlyWhileOnHub(t *testing.T) {
	var srvURL string
	mux := http.NewServeMux()
	mux.HandleFunc("/hub", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><body>
			<h2>Collections</h2>
			<a href="%s/citations">Court Records</a>
		</body></html>`, srvURL)
	})
	forbidden := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}
	mux.HandleFunc("/citations", forbidden)
	mux.HandleFunc("/dropped", forbidden)
	mux.HandleFunc("/plain", forbidden)
	srv := httptest.NewServer(mux)
	defer srv.Close()
	srvURL = srv.URL

	onHub := source("on-hub", srv.URL+"/citations")
	onHub.Discovery.HubURL = srv.URL + "/hub"
	onHub.Discovery.HubTarget = "court_records"
	onHub.LinkCheck.Allow403 = true

	dropped := source("dropped", srv.URL+"/dropped")
	dropped.Discovery.HubURL = srv.URL + "/hub"
	dropped.Discovery.HubTarget = "disclosures"
	dropped.LinkCheck.Allow403 = true

	plain := source("plain", srv.URL+"/plain")

	checker := NewChecker(testClient(), []domain.SourceConfig{onHub, dropped, plain}, testLogger())

	errs := checker.Check(context.Background())
	require.Len(t, errs, 2)
	require.Contains(t, errs[0], "dropped: 403 but not present on hub")
	require.Contains(t, errs[1], "plain: status 403")
}

func TestCheck_HubFetchFailureRecorded(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/hub", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("/citations", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	src := source("citations", srv.URL+"/citations")
	src.Discovery.HubURL = srv.URL + "/hub"
	src.Discovery.HubTarget = "court_records"
	src.LinkCheck.Allow403 = true

	checker := NewChecker(testClient(), []domain.SourceConfig{src}, testLogger())

	errs := checker.Check(context.Background())
	require.Len(t, errs, 2)
	require.Contains(t, errs[0], "hub fetch failed")

	// With no hub evidence the tolerated 403 cannot be confirmed.
	require.Contains(t, errs[1], "citations: 403 but not present on hub")
}
