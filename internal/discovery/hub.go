package discovery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"doc_archiver/internal/domain"
)

type hubAdapter struct {
	src     domain.SourceConfig
	baseURL string
	deps    Deps
}

func newHub(src domain.SourceConfig, baseURL string, deps Deps) Adapter {
	return &hubAdapter{src: src, baseURL: baseURL, deps: deps}
}

// Discover keeps the page's anchors whose extension is on the allow-list.
func (a *hubAdapter) Discover(ctx context.Context) ([]domain.DiscoveredFile, error) {
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

	var files []domain.DiscoveredFile
	seen := make(map[string]bool)
	for _, l := range collectLinks(doc) {
		href := normalizeURL(base, l.href)
		if href == "" || seen[href] {
			continue
		}
		if hasExt(href, ignored) || !hasExt(href, allowed) {
			continue
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

// targetAliases carries extra search phrases for section keys whose links
// are often labelled differently from the key itself.
var targetAliases = map[string][]string{
	"disclosures":   {"doj disclosures", "disclosures"},
	"court_records": {"court records", "court record"},
	"foia":          {"foia", "freedom of information"},
}

func phrasesFor(key string) []string {
	key = strings.ToLower(key)
	if p, ok := targetAliases[key]; ok {
		return p
	}
	return []string{strings.ReplaceAll(key, "_", " ")}
}

// Targets scores every link on a hub page against the given section keys and
// returns the best URL per key. Per anchor and phrase: +3 when link text or
// the active heading contains the phrase, +4 when the href contains the
// dashed phrase, +2 when it contains the squashed phrase. A key scores the
// best of its alias phrases.
func Targets(doc *goquery.Document, base *url.URL, keys []string) map[string]string {
	type scored struct {
		url   string
		score int
	}
	best := make(map[string]scored)

	for _, l := range collectLinks(doc) {
		href := normalizeURL(base, l.href)
		if href == "" {
			continue
		}
		combined := strings.ToLower(l.text + " " + l.heading)
		hrefL := strings.ToLower(href)
		for _, key := range keys {
			score := 0
			for _, phrase := range phrasesFor(key) {
				if s := scoreLink(combined, hrefL, phrase); s > score {
					score = s
				}
			}
			if score <= 0 {
				continue
			}
			if cur, ok := best[key]; !ok || score > cur.score {
				best[key] = scored{url: href, score: score}
			}
		}
	}

	out := make(map[string]string, len(best))
	for key, s := range best {
		out[key] = s.url
	}
	return out
}

func scoreLink(text, href, phrase string) int {
	score := 0
	if strings.Contains(text, phrase) {
		score += 3
	}
	if strings.Contains(href, strings.ReplaceAll(phrase, " ", "-")) {
		score += 4
	}
	if strings.Contains(href, strings.ReplaceAll(phrase, " ", "")) {
		score += 2
	}
	return score
}

// FetchTargets fetches a hub page and resolves its section links. Used once
// per run to decide whether a source's configured entry URL should be
// substituted with what the hub currently links to.
func FetchTargets(ctx context.Context, fetcher Fetcher, hubURL string, keys []string, headers http.Header) (map[string]string, error) {
	resp, err := fetcher.Get(ctx, hubURL, headers)
	if err != nil {
		return nil, fmt.Errorf("fetch hub %s: %w", hubURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch hub %s: status %d", hubURL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse hub %s: %w", hubURL, err)
	}

	base, err := url.Parse(hubURL)
	if err != nil {
		return nil, fmt.Errorf("parse hub url: %w", err)
	}
	return Targets(doc, base, keys), nil
}
