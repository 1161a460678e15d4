package linkcheck

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"doc_archiver/internal/discovery"
	"doc_archiver/internal/domain"
	"doc_archiver/internal/fetch"
)

// peekBytes bounds how much of a page body is read for not-found sniffing.
const peekBytes = 8192

// Checker probes every configured source entry URL and reports the ones
// that rotted. A 403 can be tolerated per source, but only while the hub
// still links to the URL; a 403 on a page the hub dropped means the source
// is gone, not gated.
type Checker struct {
	fetcher discovery.Fetcher
	sources []domain.SourceConfig
	logger  *slog.Logger
}

func NewChecker(fetcher discovery.Fetcher, sources []domain.SourceConfig, logger *slog.Logger) *Checker {
	return &Checker{
		fetcher: fetcher,
		sources: sources,
		logger:  logger,
	}
}

// Check returns one message per broken source link. An empty slice means
// every source entry URL still resolves.
func (c *Checker) Check(ctx context.Context) []string {
	var errs []string
	hubLinks := c.hubLinks(ctx, &errs)

	for _, src := range c.sources {
		if src.BaseURL == "" {
			continue
		}

		resp, err := c.fetch(ctx, src)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: request failed %s (%v)", src.ID, src.BaseURL, err))
			continue
		}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, peekBytes))
		resp.Body.Close()

		switch {
		case pageNotFound(resp, body):
			errs = append(errs, fmt.Sprintf("%s: 404 not found %s", src.ID, src.BaseURL))

		case resp.StatusCode == http.StatusForbidden && src.LinkCheck.Allow403:
			if !hubLinks[src.BaseURL] {
				errs = append(errs, fmt.Sprintf("%s: 403 but not present on hub %s", src.ID, src.BaseURL))
			}

		case resp.StatusCode >= 400:
			errs = append(errs, fmt.Sprintf("%s: status %d %s", src.ID, resp.StatusCode, src.BaseURL))

		default:
			c.logger.Debug("link ok", "source", src.ID, "status", resp.StatusCode)
		}
	}

	return errs
}

// fetch probes with HEAD and falls back to GET for servers that refuse the
// method.
func (c *Checker) fetch(ctx context.Context, src domain.SourceConfig) (*http.Response, error) {
	resp, err := c.fetcher.Head(ctx, src.BaseURL, fetch.SourceHeaders(src))
	if err == nil && resp.StatusCode != http.StatusMethodNotAllowed && resp.StatusCode != http.StatusNotImplemented {
		return resp, nil
	}
	if err == nil {
		resp.Body.Close()
	}
	return c.fetcher.Get(ctx, src.BaseURL, fetch.SourceHeaders(src))
}

// hubLinks resolves every hub target the sources declare and returns the
// set of URLs the hubs currently link to. Failures are reported but do not
// stop the per-source checks.
func (c *Checker) hubLinks(ctx context.Context, errs *[]string) map[string]bool {
	keysByHub := make(map[string][]string)
	for _, src := range c.sources {
		spec := src.Discovery
		if spec.HubURL == "" || spec.HubTarget == "" {
			continue
		}
		keysByHub[spec.HubURL] = append(keysByHub[spec.HubURL], spec.HubTarget)
	}

	links := make(map[string]bool)
	for hubURL, keys := range keysByHub {
		targets, err := discovery.FetchTargets(ctx, c.fetcher, hubURL, keys, nil)
		if err != nil {
			*errs = append(*errs, fmt.Sprintf("hub fetch failed: %v", err))
			continue
		}
		for _, u := range targets {
			links[u] = true
		}
	}
	return links
}

func pageNotFound(resp *http.Response, body []byte) bool {
	if resp.StatusCode == http.StatusNotFound {
		return true
	}
	if !strings.Contains(strings.ToLower(resp.Header.Get("Content-Type")), "text/html") {
		return false
	}
	text := strings.ToLower(string(body))
	if strings.Contains(text, "page not found") {
		return true
	}
	head := text
	if len(head) > 2000 {
		head = head[:2000]
	}
	return strings.Contains(head, "404")
}
