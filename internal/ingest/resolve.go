package ingest

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/PuerkitoBio/goquery"

	"doc_archiver/internal/discovery"
	"doc_archiver/internal/domain"
	"doc_archiver/internal/fetch"
)

// Resolver answers hub target lookups, fetching and parsing each hub page at
// most once per run. Failed fetches are cached too so a dead hub costs one
// request, not one per source.
type Resolver struct {
	fetcher discovery.Fetcher
	logger  *slog.Logger
	pages   map[string]*hubPage
}

type hubPage struct {
	doc  *goquery.Document
	base *url.URL
}

func NewResolver(fetcher discovery.Fetcher, logger *slog.Logger) *Resolver {
	return &Resolver{
		fetcher: fetcher,
		logger:  logger,
		pages:   make(map[string]*hubPage),
	}
}

// Resolve returns the hub's current URL for targetKey, or "" when the hub
// page cannot be fetched or nothing on it matches.
func (r *Resolver) Resolve(ctx context.Context, hubURL, targetKey string, headers http.Header) string {
	page, cached := r.pages[hubURL]
	if !cached {
		page = r.load(ctx, hubURL, headers)
		r.pages[hubURL] = page
	}
	if page == nil {
		return ""
	}
	return discovery.Targets(page.doc, page.base, []string{targetKey})[targetKey]
}

func (r *Resolver) load(ctx context.Context, hubURL string, headers http.Header) *hubPage {
	resp, err := r.fetcher.Get(ctx, hubURL, headers)
	if err != nil {
		r.logger.Warn("hub page fetch failed", "url", hubURL, "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		r.logger.Warn("hub page fetch failed", "url", hubURL, "status", resp.StatusCode)
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		r.logger.Warn("hub page parse failed", "url", hubURL, "error", err)
		return nil
	}
	base, err := url.Parse(hubURL)
	if err != nil {
		return nil
	}
	return &hubPage{doc: doc, base: base}
}

// AdapterDiscoverer runs the configured strategy adapter for a source.
type AdapterDiscoverer struct {
	fetcher  discovery.Fetcher
	fallback *discovery.Headless
	defaults discovery.Defaults
	logger   *slog.Logger
}

func NewAdapterDiscoverer(fetcher discovery.Fetcher, fallback *discovery.Headless, defaults discovery.Defaults, logger *slog.Logger) *AdapterDiscoverer {
	return &AdapterDiscoverer{
		fetcher:  fetcher,
		fallback: fallback,
		defaults: defaults,
		logger:   logger,
	}
}

func (d *AdapterDiscoverer) Discover(ctx context.Context, src domain.SourceConfig, baseURL string) ([]domain.DiscoveredFile, error) {
	adapter, err := discovery.New(src, baseURL, discovery.Deps{
		Fetcher:  d.fetcher,
		Headers:  fetch.SourceHeaders(src),
		Fallback: d.fallback,
		Defaults: d.defaults,
		Logger:   d.logger,
	})
	if err != nil {
		return nil, err
	}
	return adapter.Discover(ctx)
}
