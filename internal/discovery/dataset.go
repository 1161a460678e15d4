package discovery

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"doc_archiver/internal/domain"
)

var datasetRe = regexp.MustCompile(`(?i)\bdata\s*set\s*\d+`)

type datasetAdapter struct {
	src     domain.SourceConfig
	baseURL string
	deps    Deps
}

func newDataset(src domain.SourceConfig, baseURL string, deps Deps) Adapter {
	return &datasetAdapter{src: src, baseURL: baseURL, deps: deps}
}

// Discover finds the numbered data-set sub-pages on the landing page, then
// walks each sub-page's own pagination and collects its files. Titles carry
// the sub-page label so files from different sets stay distinguishable.
func (a *datasetAdapter) Discover(ctx context.Context) ([]domain.DiscoveredFile, error) {
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

	type subpage struct {
		url   string
		label string
	}
	var subpages []subpage
	seen := make(map[string]bool)
	for _, l := range collectLinks(doc) {
		if !datasetRe.MatchString(l.text) {
			continue
		}
		href := normalizeURL(base, l.href)
		if href == "" || seen[href] {
			continue
		}
		seen[href] = true
		subpages = append(subpages, subpage{url: href, label: l.text})
	}

	var files []domain.DiscoveredFile
	for _, sp := range subpages {
		got, err := a.walkSubpage(ctx, sp.url, sp.label)
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", sp.url, err)
		}
		files = append(files, got...)
	}
	return files, nil
}

func (a *datasetAdapter) walkSubpage(ctx context.Context, pageURL, label string) ([]domain.DiscoveredFile, error) {
	allowed := a.deps.allowedExts(a.src)
	ignored := a.deps.Defaults.IgnoreExtensions

	var files []domain.DiscoveredFile
	visited := make(map[string]bool)
	seenFiles := make(map[string]bool)

	for pageURL != "" && !visited[pageURL] {
		visited[pageURL] = true

		doc, err := a.deps.fetchDocument(ctx, pageURL)
		if errors.Is(err, errForbidden) {
			fb, _ := a.deps.fallback(ctx, a.src, pageURL)
			return append(files, fb...), nil
		}
		if err != nil {
			return nil, err
		}

		page, err := url.Parse(pageURL)
		if err != nil {
			return nil, fmt.Errorf("parse page url: %w", err)
		}

		links := collectLinks(doc)
		for _, l := range links {
			href := normalizeURL(page, l.href)
			if href == "" || seenFiles[href] {
				continue
			}
			if hasExt(href, ignored) || !hasExt(href, allowed) {
				continue
			}
			seenFiles[href] = true

			title := l.text
			if title == "" {
				title = titleFromURL(href)
			}
			files = append(files, domain.DiscoveredFile{
				URL:         href,
				Title:       fmt.Sprintf("%s: %s", label, title),
				SourcePage:  pageURL,
				ReleaseDate: a.src.ReleaseDate,
				Tags:        a.src.Tags,
			})
		}

		pageURL = nextPageURL(page, links)
	}
	return files, nil
}

// nextPageURL finds the next pagination step: an explicit rel="next" or
// "next" link wins, otherwise an anchor on the same path whose page= query
// parameter is exactly one past the current page.
func nextPageURL(current *url.URL, links []link) string {
	for _, l := range links {
		if strings.EqualFold(l.rel, "next") || strings.EqualFold(l.text, "next") {
			return normalizeURL(current, l.href)
		}
	}

	cur := pageParam(current)
	for _, l := range links {
		href := normalizeURL(current, l.href)
		if href == "" {
			continue
		}
		u, err := url.Parse(href)
		if err != nil {
			continue
		}
		if u.Host == current.Host && u.Path == current.Path && pageParam(u) == cur+1 {
			return href
		}
	}
	return ""
}

func pageParam(u *url.URL) int {
	n, err := strconv.Atoi(u.Query().Get("page"))
	if err != nil {
		return 0
	}
	return n
}
