package domain

// Strategy selects how a source's pages are turned into candidate files.
// The set is closed: configuration naming an unknown strategy is rejected
// at load time.
type Strategy string

const (
	StrategyHub      Strategy = "hub"
	StrategyDataset  Strategy = "dataset_pages"
	StrategySections Strategy = "sections"
	StrategyFiltered Strategy = "filtered"
	StrategyStatic   Strategy = "static"
)

func KnownStrategy(s Strategy) bool {
	switch s {
	case StrategyHub, StrategyDataset, StrategySections, StrategyFiltered, StrategyStatic:
		return true
	}
	return false
}

// DiscoverySpec holds the strategy tag plus its strategy-specific parameters.
type DiscoverySpec struct {
	Type      Strategy `json:"type"`
	HubURL    string   `json:"hub_url,omitempty"`
	HubTarget string   `json:"hub_target,omitempty"`
	// PathPrefix restricts the filtered strategy to links under this URL path.
	PathPrefix string `json:"path_prefix,omitempty"`
	// AllowedExtensions overrides the global allow-list when non-empty.
	AllowedExtensions []string `json:"allowed_extensions,omitempty"`
	// AllowedContentTypes accepts extensionless links whose HEAD content type
	// matches (filtered strategy only).
	AllowedContentTypes []string `json:"allowed_content_types,omitempty"`
	// URLs is the pre-enumerated candidate list for the static strategy.
	URLs []string `json:"urls,omitempty"`
}

// SourceConfig describes one ingestion target. Immutable after load; the
// effective base URL may still be substituted at runtime via hub discovery.
type SourceConfig struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	BaseURL         string        `json:"base_url"`
	Discovery       DiscoverySpec `json:"discovery"`
	ReleaseDate     string        `json:"release_date,omitempty"`
	Tags            []string      `json:"tags,omitempty"`
	RequiresCookies bool          `json:"requires_cookies,omitempty"`
	Referer         string        `json:"referer,omitempty"`
	LinkCheck       LinkCheckSpec `json:"link_check,omitempty"`
}

type LinkCheckSpec struct {
	// Allow403 tolerates a 403 on the base URL as long as the URL is still
	// linked from the hub page.
	Allow403 bool `json:"allow_403,omitempty"`
}
