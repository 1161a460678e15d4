package discovery

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"doc_archiver/internal/domain"
)

type filteredAdapter struct {
	src     domain.SourceConfig
	baseURL string
	deps    Deps
}

func newFiltered(src domain.SourceConfig, baseURL string, deps Deps) Adapter {
	return &filteredAdapter{src: src, baseURL: baseURL, deps: deps}
}

// Discover keeps links under the configured path prefix. Links with an
// allowed extension are accepted directly; extension-less links are verified
// with a HEAD request against the allowed content types, for servers that
// publish files without extensions.
func (a *filteredAdapter) Discover(ctx context.Context) ([]domain.DiscoveredFile, error) {
	doc, err := a.deps.fetchDocument(ctx, a.baseURL)
	if errors.Is(err, errForbidden) {
		return a.deps.fallback(ctx, a.src, a.baseURL)
	}
	if err != nil {
		return nil, err
	}

	base, err := url.Parse(a.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	prefix := a.src.Discovery.PathPrefix
	if prefix == "" {
		prefix = base.Path
	}
	allowed := a.deps.allowedExts(a.src)
	ignored := a.deps.Defaults.IgnoreExtensions

	var files []domain.DiscoveredFile
	seen := make(map[string]bool)
	for _, l := range collectLinks(doc) {
		href := normalizeURL(base, l.href)
		if href == "" || seen[href] {
			continue
		}
		u, err := url.Parse(href)
		if err != nil || !strings.HasPrefix(u.Path, prefix) {
			continue
		}
		if hasExt(href, ignored) {
			continue
		}
		if !hasExt(href, allowed) {
			if extOf(href) != "" || !a.typeAllowed(ctx, href) {
				continue
			}
		}
		seen[href] = true

		title := l.text
		if title == "" {
			title = titleFromURL(href)
		}
		files = append(files, domain.DiscoveredFile{
			URL:         href,
			Title:       title,
			SourcePage:  a.baseURL,
			ReleaseDate: a.src.ReleaseDate,
			Tags:        a.src.Tags,
		})
	}
	return files, nil
}

// typeAllowed probes an extension-less link and accepts it only when the
// server reports one of the source's allowed content types.
func (a *filteredAdapter) typeAllowed(ctx context.Context, href string) bool {
	types := a.src.Discovery.AllowedContentTypes
	if len(types) == 0 {
		return false
	}

	resp, err := a.deps.Fetcher.Head(ctx, href, a.deps.Headers)
	if err != nil {
		a.deps.Logger.Debug("content type probe failed", "url", href, "error", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return false
	}
	ct := resp.Header.Get("Content-Type")
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	ct = strings.ToLower(strings.TrimSpace(ct))
	for _, want := range types {
		if ct == strings.ToLower(want) {
			return true
		}
	}
	return false
}
