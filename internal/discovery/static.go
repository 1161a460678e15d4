package discovery

import (
	"context"

	"doc_archiver/internal/domain"
)

type staticAdapter struct {
	src domain.SourceConfig
}

func newStatic(src domain.SourceConfig, _ string, _ Deps) Adapter {
	return &staticAdapter{src: src}
}

// Discover returns the configured URL list verbatim. Static sources exist
// for pages where automated discovery is infeasible; curation happens in
// the source configuration instead.
func (a *staticAdapter) Discover(_ context.Context) ([]domain.DiscoveredFile, error) {
	files := make([]domain.DiscoveredFile, 0, len(a.src.Discovery.URLs))
	for _, raw := range a.src.Discovery.URLs {
		files = append(files, domain.DiscoveredFile{
			URL:         raw,
			Title:       titleFromURL(raw),
			SourcePage:  a.src.BaseURL,
			ReleaseDate: a.src.ReleaseDate,
			Tags:        a.src.Tags,
		})
	}
	return files, nil
}
