package fetch

import (
	"net/http"

	"doc_archiver/internal/domain"
)

// Browser-presenting defaults; some of the target servers refuse clients
// that obviously are not browsers.
const (
	defaultAccept         = "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8"
	defaultAcceptLanguage = "en-US,en;q=0.9"
)

// SourceHeaders returns the extra request headers a source declares.
func SourceHeaders(src domain.SourceConfig) http.Header {
	headers := http.Header{}
	if src.Referer != "" {
		headers.Set("Referer", src.Referer)
	}
	return headers
}

// ConditionalHeaders returns If-None-Match / If-Modified-Since headers for a
// known catalog entry, merged over the source headers.
func ConditionalHeaders(src domain.SourceConfig, etag, lastModified string) http.Header {
	headers := SourceHeaders(src)
	if etag != "" {
		headers.Set("If-None-Match", etag)
	}
	if lastModified != "" {
		headers.Set("If-Modified-Since", lastModified)
	}
	return headers
}
