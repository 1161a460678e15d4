package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/PuerkitoBio/goquery"

	"doc_archiver/internal/domain"
)

// Adapter turns one source's page structure into a list of candidate files.
// Deterministic modulo remote-content changes and safe to call repeatedly.
type Adapter interface {
	Discover(ctx context.Context) ([]domain.DiscoveredFile, error)
}

// Fetcher is the slice of the HTTP client discovery needs.
type Fetcher interface {
	Get(ctx context.Context, url string, headers http.Header) (*http.Response, error)
	Head(ctx context.Context, url string, headers http.Header) (*http.Response, error)
}

// Defaults are the global extension lists from the source configuration;
// a source's discovery spec may override the allow-list.
type Defaults struct {
	AllowedExtensions []string
	IgnoreExtensions  []string
}

// Deps carries what every adapter variant needs.
type Deps struct {
	Fetcher  Fetcher
	Headers  http.Header
	Fallback *Headless
	Defaults Defaults
	Logger   *slog.Logger
}

type factory func(src domain.SourceConfig, baseURL string, deps Deps) Adapter

// The strategy set is closed: dispatch goes through this registry and
// nothing else.
var registry = map[domain.Strategy]factory{
	domain.StrategyHub:      newHub,
	domain.StrategyDataset:  newDataset,
	domain.StrategySections: newSections,
	domain.StrategyFiltered: newFiltered,
	domain.StrategyStatic:   newStatic,
}

// New builds the adapter for the source's declared strategy. baseURL is the
// effective entry URL, possibly substituted by hub discovery.
func New(src domain.SourceConfig, baseURL string, deps Deps) (Adapter, error) {
	build, ok := registry[src.Discovery.Type]
	if !ok {
		return nil, fmt.Errorf("unknown discovery strategy %q", src.Discovery.Type)
	}
	return build(src, baseURL, deps), nil
}

// errForbidden marks a 403 on a discovery page so adapters can degrade to
// the headless helper instead of failing the source.
var errForbidden = errors.New("discovery page forbidden")

func (d Deps) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	resp, err := d.Fetcher.Get(ctx, pageURL, d.Headers)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		return nil, errForbidden
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", pageURL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", pageURL, err)
	}
	return doc, nil
}

// fallback delegates discovery to the external headless helper after a 403.
// Missing prerequisites yield zero results: a blocked page degrades the
// source, it must not fail the run.
func (d Deps) fallback(ctx context.Context, src domain.SourceConfig, pageURL string) ([]domain.DiscoveredFile, error) {
	urls, ok := d.Fallback.Fetch(ctx, pageURL)
	if !ok {
		d.Logger.Warn("discovery blocked and headless helper unavailable",
			"source", src.ID,
			"url", pageURL,
		)
		return nil, nil
	}

	d.Logger.Info("discovery delegated to headless helper",
		"source", src.ID,
		"url", pageURL,
		"urls", len(urls),
	)

	allowed := d.allowedExts(src)
	files := make([]domain.DiscoveredFile, 0, len(urls))
	for _, u := range urls {
		if !hasExt(u, allowed) {
			continue
		}
		files = append(files, domain.DiscoveredFile{
			URL:         u,
			Title:       titleFromURL(u),
			SourcePage:  pageURL,
			ReleaseDate: src.ReleaseDate,
			Tags:        src.Tags,
		})
	}
	return files, nil
}

func (d Deps) allowedExts(src domain.SourceConfig) []string {
	if len(src.Discovery.AllowedExtensions) > 0 {
		return src.Discovery.AllowedExtensions
	}
	return d.Defaults.AllowedExtensions
}
