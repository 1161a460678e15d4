package ingest

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"net/http"

	"doc_archiver/internal/catalog"
	"doc_archiver/internal/domain"
	"doc_archiver/internal/fetch"
)

type Fetcher interface {
	Head(ctx context.Context, url string, headers http.Header) (*http.Response, error)
	Download(ctx context.Context, url string, headers http.Header, dir string) (fetch.Result, string, error)
}

type Discoverer interface {
	Discover(ctx context.Context, src domain.SourceConfig, baseURL string) ([]domain.DiscoveredFile, error)
}

type HubResolver interface {
	Resolve(ctx context.Context, hubURL, targetKey string, headers http.Header) string
}

type Cataloger interface {
	LookupURL(url string) (domain.CatalogEntry, bool)
	FindBySHA(sha string) (domain.CatalogEntry, bool)
	Add(tmpPath string, n catalog.NewEntry) (domain.CatalogEntry, error)
	Merge(sha string, sight catalog.Sighting) (domain.CatalogEntry, bool)
	Touch(url, etag, lastModified string) bool
	Save() error
}

type StateStore interface {
	Get(sourceID string) domain.IngestState
	Checkpoint(sourceID string, st domain.IngestState) error
}

type Announcer interface {
	Announce(ctx context.Context, action string, entry domain.CatalogEntry, runID string) error
}
