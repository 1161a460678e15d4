package domain

import "time"

// DiscoveredFile is a candidate found during discovery, not yet verified to
// exist as unique content. Ephemeral; never persisted directly.
type DiscoveredFile struct {
	URL         string
	Title       string
	SourcePage  string
	ReleaseDate string
	Tags        []string
}

// FailedFetch records a permanent per-URL failure so later runs skip the URL.
type FailedFetch struct {
	Status int       `json:"status"`
	At     time.Time `json:"at"`
}

// IngestState is one source's resumable progress. Snapshot-valued: a
// checkpoint replaces the stored value wholesale, it never mutates one in
// place. SeenURLs is authoritative for skip decisions; Cursor only
// fast-forwards the sorted candidate list.
type IngestState struct {
	Cursor     int                    `json:"cursor"`
	SeenURLs   []string               `json:"seen_urls"`
	FailedURLs map[string]FailedFetch `json:"failed_urls,omitempty"`
	LastRun    time.Time              `json:"last_run"`
}

// RunStats aggregates counters for one ingestion run.
type RunStats struct {
	RunID      string
	Sources    int
	Gated      int
	Discovered int
	New        int
	Merged     int
	Refreshed  int
	Blocked    int
	Failed     int
	Bytes      int64
	Duration   time.Duration
}
