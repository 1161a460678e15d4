package domain

import "time"

// CatalogEntry is one unique piece of archived content, keyed by the SHA-256
// of its bytes. The same bytes discovered at two different URLs share a single
// entry with multiple provenance tuples.
type CatalogEntry struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	SHA256       string       `json:"sha256"`
	FilePath     string       `json:"file_path"`
	OriginURL    string       `json:"origin_url"`
	Sources      []Provenance `json:"sources"`
	ReleaseDate  string       `json:"release_date,omitempty"`
	Tags         []string     `json:"tags,omitempty"`
	ETag         string       `json:"etag,omitempty"`
	LastModified string       `json:"last_modified,omitempty"`
	MIMEType     string       `json:"mime_type"`
	SizeBytes    int64        `json:"size_bytes"`
	Pages        int          `json:"pages,omitempty"`
	DownloadedAt time.Time    `json:"downloaded_at"`
}

// Provenance records one place a piece of content was discovered.
type Provenance struct {
	SourceName string `json:"source_name"`
	SourcePage string `json:"source_page"`
}
