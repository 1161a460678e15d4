package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"doc_archiver/internal/catalog"
	"doc_archiver/internal/domain"
	"doc_archiver/internal/fetch"
)

// SkipReasonCookies marks a source skipped because it requires
// authentication cookies that are not available.
const SkipReasonCookies = "cookie_required"

// Limits caps one ingestion run. Zero values mean uncapped.
type Limits struct {
	MaxDocsPerSource     int
	MaxBytesPerSource    int64
	MaxAttemptsPerSource int
	MaxBytesPerRun       int64
	TimeBudget           time.Duration
}

// Runner drives one ingestion pass: hub resolution, cookie gating,
// discovery, budgeted downloads, content-store handoff, and a state
// checkpoint after every attempted candidate. Sources are processed
// strictly sequentially so the shared pacer bounds the aggregate request
// rate.
type Runner struct {
	sources    []domain.SourceConfig
	fetcher    Fetcher
	discoverer Discoverer
	resolver   HubResolver
	catalog    Cataloger
	states     StateStore
	announcer  Announcer
	limits     Limits
	tmpDir     string
	cookiesOK  bool
	logger     *slog.Logger
}

func NewRunner(
	sources []domain.SourceConfig,
	fetcher Fetcher,
	discoverer Discoverer,
	resolver HubResolver,
	cat Cataloger,
	states StateStore,
	announcer Announcer,
	limits Limits,
	tmpDir string,
	cookiesAvailable bool,
	logger *slog.Logger,
) *Runner {
	return &Runner{
		sources:    sources,
		fetcher:    fetcher,
		discoverer: discoverer,
		resolver:   resolver,
		catalog:    cat,
		states:     states,
		announcer:  announcer,
		limits:     limits,
		tmpDir:     tmpDir,
		cookiesOK:  cookiesAvailable,
		logger:     logger,
	}
}

// run carries the mutable counters of one pass.
type run struct {
	id       string
	logger   *slog.Logger
	deadline time.Time
	bytes    int64
	stats    *domain.RunStats
}

func (r *run) expired() bool {
	return !r.deadline.IsZero() && time.Now().After(r.deadline)
}

// Run executes one full ingestion pass over all configured sources. A
// source failing does not stop the others; the catalog is written at most
// once, at the end, and only if something changed.
func (r *Runner) Run(ctx context.Context) (*domain.RunStats, error) {
	start := time.Now()
	stats := &domain.RunStats{
		RunID:   uuid.NewString(),
		Sources: len(r.sources),
	}

	logger := r.logger.With("run_id", stats.RunID)
	logger.Info("ingestion run started", "sources", len(r.sources))

	rn := &run{id: stats.RunID, logger: logger, stats: stats}
	if r.limits.TimeBudget > 0 {
		rn.deadline = start.Add(r.limits.TimeBudget)
	}

	for _, src := range r.sources {
		if ctx.Err() != nil {
			break
		}
		if rn.expired() {
			logger.Warn("time budget exhausted, stopping run")
			break
		}
		if r.limits.MaxBytesPerRun > 0 && rn.bytes >= r.limits.MaxBytesPerRun {
			logger.Warn("run byte budget exhausted, stopping run", "bytes", rn.bytes)
			break
		}

		if err := r.runSource(ctx, rn, src); err != nil {
			if ctx.Err() != nil {
				break
			}
			logger.Error("source aborted", "source", src.ID, "error", err)
		}
	}

	if err := r.catalog.Save(); err != nil {
		return stats, fmt.Errorf("save catalog: %w", err)
	}

	stats.Bytes = rn.bytes
	stats.Duration = time.Since(start)
	logger.Info("ingestion run finished",
		"discovered", stats.Discovered,
		"new", stats.New,
		"merged", stats.Merged,
		"refreshed", stats.Refreshed,
		"blocked", stats.Blocked,
		"failed", stats.Failed,
		"gated", stats.Gated,
		"bytes", stats.Bytes,
		"duration", stats.Duration,
	)
	return stats, nil
}

func (r *Runner) runSource(ctx context.Context, rn *run, src domain.SourceConfig) error {
	logger := rn.logger.With("source", src.ID)

	baseURL := r.resolveBaseURL(ctx, logger, src)

	// Gated sources are skipped before any discovery request goes out.
	if src.RequiresCookies && !r.cookiesOK {
		logger.Warn("source skipped", "reason", SkipReasonCookies)
		rn.stats.Gated++
		return nil
	}

	files, err := r.discoverer.Discover(ctx, src, baseURL)
	if err != nil {
		return fmt.Errorf("discover: %w", err)
	}
	candidates := dedupeSort(files)
	rn.stats.Discovered += len(candidates)
	logger.Info("discovery finished", "candidates", len(candidates))

	st := r.states.Get(src.ID)
	seen := make(map[string]bool, len(st.SeenURLs))
	for _, u := range st.SeenURLs {
		seen[u] = true
	}
	if st.FailedURLs == nil {
		st.FailedURLs = make(map[string]domain.FailedFetch)
	}

	// The cursor fast-forwards an interrupted pass; membership in seen is
	// what actually prevents re-downloads.
	start := st.Cursor
	if start < 0 || start > len(candidates) {
		start = 0
	}
	if start > 0 {
		logger.Debug("resuming from cursor", "cursor", start)
	}

	var attempts, docs int
	var srcBytes int64
	finished := true

	for i := start; i < len(candidates); i++ {
		if ctx.Err() != nil {
			st.Cursor = i
			finished = false
			break
		}
		if rn.expired() {
			logger.Warn("time budget exhausted, stopping source")
			st.Cursor = i
			finished = false
			break
		}
		if r.limits.MaxBytesPerRun > 0 && rn.bytes >= r.limits.MaxBytesPerRun {
			logger.Warn("run byte budget exhausted, stopping source", "bytes", rn.bytes)
			st.Cursor = i
			finished = false
			break
		}
		if r.limits.MaxDocsPerSource > 0 && docs >= r.limits.MaxDocsPerSource {
			logger.Info("document cap reached, stopping source", "docs", docs)
			st.Cursor = i
			finished = false
			break
		}
		if r.limits.MaxBytesPerSource > 0 && srcBytes >= r.limits.MaxBytesPerSource {
			logger.Info("source byte cap reached, stopping source", "bytes", srcBytes)
			st.Cursor = i
			finished = false
			break
		}
		if r.limits.MaxAttemptsPerSource > 0 && attempts >= r.limits.MaxAttemptsPerSource {
			logger.Info("attempt cap reached, stopping source", "attempts", attempts)
			st.Cursor = i
			finished = false
			break
		}

		cand := candidates[i]
		if seen[cand.URL] {
			st.Cursor = i + 1
			continue
		}

		out, err := r.processCandidate(ctx, logger, rn, src, cand, &st, seen)
		if err != nil {
			st.Cursor = i
			st.LastRun = time.Now().UTC()
			if cpErr := r.states.Checkpoint(src.ID, st); cpErr != nil {
				logger.Error("checkpoint failed", "error", cpErr)
			}
			return err
		}

		attempts++
		docs += out.docs
		srcBytes += out.bytes
		rn.bytes += out.bytes

		st.Cursor = i + 1
		if err := r.states.Checkpoint(src.ID, st); err != nil {
			return fmt.Errorf("checkpoint: %w", err)
		}
	}

	// A completed pass resets the cursor so the next run rescans the whole
	// list and picks up files that sort earlier than anything seen so far.
	if finished {
		st.Cursor = 0
	}
	st.LastRun = time.Now().UTC()
	if err := r.states.Checkpoint(src.ID, st); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}

	logger.Info("source finished",
		"attempts", attempts,
		"new_docs", docs,
		"bytes", srcBytes,
	)
	return nil
}

// outcome is what one candidate contributed to the budgets.
type outcome struct {
	docs  int
	bytes int64
}

func (r *Runner) processCandidate(ctx context.Context, logger *slog.Logger, rn *run, src domain.SourceConfig, cand domain.DiscoveredFile, st *domain.IngestState, seen map[string]bool) (outcome, error) {
	markSeen := func() {
		if !seen[cand.URL] {
			seen[cand.URL] = true
			st.SeenURLs = append(st.SeenURLs, cand.URL)
		}
	}

	// Revalidate URLs whose content we already hold instead of re-downloading.
	if known, ok := r.catalog.LookupURL(cand.URL); ok && (known.ETag != "" || known.LastModified != "") {
		resp, err := r.fetcher.Head(ctx, cand.URL, fetch.ConditionalHeaders(src, known.ETag, known.LastModified))
		if err != nil {
			return outcome{}, fmt.Errorf("conditional head %s: %w", cand.URL, err)
		}
		status := resp.StatusCode
		etag := resp.Header.Get("ETag")
		lastMod := resp.Header.Get("Last-Modified")
		resp.Body.Close()

		if status == http.StatusNotModified {
			r.catalog.Touch(cand.URL, etag, lastMod)
			markSeen()
			rn.stats.Refreshed++
			logger.Debug("not modified", "url", cand.URL)
			return outcome{}, nil
		}
		logger.Debug("revalidation missed, downloading", "url", cand.URL, "status", status)
	}

	res, tmpPath, err := r.fetcher.Download(ctx, cand.URL, fetch.SourceHeaders(src), r.tmpDir)
	if err != nil {
		return outcome{}, fmt.Errorf("download %s: %w", cand.URL, err)
	}

	verdict := fetch.Classify(res.Status, res.ContentType, res.BodyPrefix, res.FinalURL, wantDocument(cand.URL))
	switch verdict.Kind {
	case fetch.VerdictBlocked:
		removeTemp(tmpPath)
		rn.stats.Blocked++
		if verdict.Reason == fetch.BlockedForbidden {
			// A hard denial is permanent; gate pages may clear up, so those
			// URLs stay eligible for the next run.
			st.FailedURLs[cand.URL] = domain.FailedFetch{Status: res.Status, At: time.Now().UTC()}
			markSeen()
		}
		logger.Warn("candidate blocked",
			"url", cand.URL,
			"reason", verdict.Reason,
			"status", res.Status,
		)
		return outcome{}, nil

	case fetch.VerdictFailed:
		removeTemp(tmpPath)
		st.FailedURLs[cand.URL] = domain.FailedFetch{Status: res.Status, At: time.Now().UTC()}
		if !fetch.Retryable(res.Status) {
			markSeen()
		}
		rn.stats.Failed++
		logger.Warn("candidate failed", "url", cand.URL, "status", res.Status)
		return outcome{}, nil
	}

	// Same bytes, new location: merge provenance instead of duplicating.
	if _, ok := r.catalog.FindBySHA(res.SHA256); ok {
		removeTemp(tmpPath)
		entry, _ := r.catalog.Merge(res.SHA256, catalog.Sighting{
			SourceName:   src.Name,
			SourcePage:   cand.SourcePage,
			URL:          cand.URL,
			Title:        cand.Title,
			ReleaseDate:  cand.ReleaseDate,
			Tags:         cand.Tags,
			ETag:         res.ETag,
			LastModified: res.LastModified,
		})
		markSeen()
		rn.stats.Merged++
		logger.Info("content already archived, provenance merged", "url", cand.URL, "id", entry.ID)
		r.announce(ctx, logger, rn.id, "merged", entry)
		return outcome{bytes: res.Size}, nil
	}

	entry, err := r.catalog.Add(tmpPath, catalog.NewEntry{
		SHA256:       res.SHA256,
		Title:        cand.Title,
		SourceName:   src.Name,
		SourcePage:   cand.SourcePage,
		OriginURL:    cand.URL,
		ReleaseDate:  cand.ReleaseDate,
		Tags:         cand.Tags,
		ETag:         res.ETag,
		LastModified: res.LastModified,
		SizeBytes:    res.Size,
		FileName:     catalog.FileName(cand.URL, res.ContentDisposition),
	})
	if err != nil {
		removeTemp(tmpPath)
		return outcome{}, fmt.Errorf("archive %s: %w", cand.URL, err)
	}
	markSeen()
	rn.stats.New++
	logger.Info("document archived", "url", cand.URL, "id", entry.ID, "bytes", res.Size)
	r.announce(ctx, logger, rn.id, "archived", entry)
	return outcome{docs: 1, bytes: res.Size}, nil
}

func (r *Runner) resolveBaseURL(ctx context.Context, logger *slog.Logger, src domain.SourceConfig) string {
	spec := src.Discovery
	if spec.HubURL == "" || spec.HubTarget == "" {
		return src.BaseURL
	}

	resolved := r.resolver.Resolve(ctx, spec.HubURL, spec.HubTarget, fetch.SourceHeaders(src))
	if resolved == "" {
		logger.Warn("hub target not found, keeping configured URL",
			"hub", spec.HubURL,
			"target", spec.HubTarget,
		)
		return src.BaseURL
	}
	if resolved != src.BaseURL {
		logger.Info("hub resolution substitutes entry URL",
			"configured", src.BaseURL,
			"resolved", resolved,
		)
		return resolved
	}
	logger.Debug("hub resolution confirms configured URL", "url", src.BaseURL)
	return src.BaseURL
}

func (r *Runner) announce(ctx context.Context, logger *slog.Logger, runID, action string, entry domain.CatalogEntry) {
	if r.announcer == nil {
		return
	}
	if err := r.announcer.Announce(ctx, action, entry, runID); err != nil {
		logger.Warn("announce failed", "action", action, "id", entry.ID, "error", err)
	}
}

// dedupeSort dedupes candidates by URL and orders them so the cursor means
// the same thing across runs.
func dedupeSort(files []domain.DiscoveredFile) []domain.DiscoveredFile {
	seen := make(map[string]bool, len(files))
	out := make([]domain.DiscoveredFile, 0, len(files))
	for _, f := range files {
		if f.URL == "" || seen[f.URL] {
			continue
		}
		seen[f.URL] = true
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URL < out[j].URL })
	return out
}

// wantDocument reports whether the URL promises a document payload. HTML
// arriving at such a URL means the server substituted an interstitial page.
func wantDocument(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	switch strings.ToLower(path.Ext(u.Path)) {
	case "", ".html", ".htm":
		return false
	}
	return true
}

func removeTemp(path string) {
	if path != "" {
		os.Remove(path)
	}
}
