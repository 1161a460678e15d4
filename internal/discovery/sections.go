package discovery

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"doc_archiver/internal/domain"
)

var (
	seeFilesRe = regexp.MustCompile(`(?i)\bsee\s+(?:the\s+)?files\b|\ball\s+files\b`)
	yearRe     = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)
)

type sectionsAdapter struct {
	src     domain.SourceConfig
	baseURL string
	deps    Deps
}

func newSections(src domain.SourceConfig, baseURL string, deps Deps) Adapter {
	return &sectionsAdapter{src: src, baseURL: baseURL, deps: deps}
}

// Discover collects direct file links from the landing page plus the files
// of every linked section sub-page, one level deep. A section's release
// year, when present in its heading or link text, overrides the source
// default as YYYY-01-01.
func (a *sectionsAdapter) Discover(ctx context.Context) ([]domain.DiscoveredFile, error) {
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

	allowed := a.deps.allowedExts(a.src)
	ignored := a.deps.Defaults.IgnoreExtensions

	type section struct {
		url   string
		label string
	}
	var files []domain.DiscoveredFile
	var sections []section
	seenFiles := make(map[string]bool)
	seenSections := make(map[string]bool)

	for _, l := range collectLinks(doc) {
		href := normalizeURL(base, l.href)
		if href == "" || hasExt(href, ignored) {
			continue
		}
		if hasExt(href, allowed) {
			if seenFiles[href] {
				continue
			}
			seenFiles[href] = true
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
			continue
		}
		if !a.isSectionLink(base, l, href) || seenSections[href] {
			continue
		}
		seenSections[href] = true
		sections = append(sections, section{url: href, label: l.text})
	}

	for _, sec := range sections {
		got, err := a.parseSection(ctx, sec.url, sec.label, allowed, ignored, seenFiles)
		if err != nil {
			return nil, fmt.Errorf("section %s: %w", sec.url, err)
		}
		files = append(files, got...)
	}
	return files, nil
}

// isSectionLink decides whether an extension-less anchor points at a section
// sub-page: either its text announces files, or it lives directly under the
// landing page's path on the same host.
func (a *sectionsAdapter) isSectionLink(base *url.URL, l link, href string) bool {
	if extOf(href) != "" || href == a.baseURL {
		return false
	}
	if seeFilesRe.MatchString(l.text) {
		return true
	}
	u, err := url.Parse(href)
	if err != nil || u.Host != base.Host {
		return false
	}
	prefix := strings.TrimSuffix(base.Path, "/") + "/"
	return strings.HasPrefix(u.Path, prefix)
}

func (a *sectionsAdapter) parseSection(ctx context.Context, pageURL, label string, allowed, ignored []string, seenFiles map[string]bool) ([]domain.DiscoveredFile, error) {
	doc, err := a.deps.fetchDocument(ctx, pageURL)
	if errors.Is(err, errForbidden) {
		fb, _ := a.deps.fallback(ctx, a.src, pageURL)
		return fb, nil
	}
	if err != nil {
		return nil, err
	}

	page, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}

	heading := squashSpace(doc.Find("h1").First().Text())
	release := a.src.ReleaseDate
	if year := yearRe.FindString(heading + " " + label); year != "" {
		release = year + "-01-01"
	}

	var files []domain.DiscoveredFile
	for _, l := range collectLinks(doc) {
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
			Title:       title,
			SourcePage:  pageURL,
			ReleaseDate: release,
			Tags:        a.src.Tags,
		})
	}
	return files, nil
}
