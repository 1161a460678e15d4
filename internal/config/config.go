package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"doc_archiver/internal/domain"
)

type Config struct {
	Paths     PathsConfig     `yaml:"paths"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Cookies   CookieConfig    `yaml:"cookies"`
	Headless  HeadlessConfig  `yaml:"headless"`
	Publisher PublisherConfig `yaml:"publisher"`
	Mirror    MirrorConfig    `yaml:"mirror"`
	LogLevel  string          `yaml:"log_level"`
}

type PathsConfig struct {
	Sources string `yaml:"sources"`
	Catalog string `yaml:"catalog"`
	State   string `yaml:"state"`
	RawDir  string `yaml:"raw_dir"`
	MetaDir string `yaml:"meta_dir"`
	TmpDir  string `yaml:"tmp_dir"`
}

type IngestConfig struct {
	MaxDocsPerSource     int           `yaml:"max_docs_per_source"`
	MaxBytesPerSource    int64         `yaml:"max_bytes_per_source"`
	MaxAttemptsPerSource int           `yaml:"max_attempts_per_source"`
	MaxBytesPerRun       int64         `yaml:"max_bytes_per_run"`
	TimeBudget           time.Duration `yaml:"time_budget"`
	Interval             time.Duration `yaml:"interval"`
	RunTimeout           time.Duration `yaml:"run_timeout"`
}

type CookieConfig struct {
	Jar     string         `yaml:"jar"`
	Domain  string         `yaml:"domain"`
	Presets []CookiePreset `yaml:"presets"`
}

// CookiePreset is injected into the jar unconditionally, on top of whatever
// the jar file provides (e.g. an age-verification consent cookie).
type CookiePreset struct {
	Domain string `yaml:"domain"`
	Name   string `yaml:"name"`
	Value  string `yaml:"value"`
}

type HeadlessConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Script       string `yaml:"script"`
	SessionState string `yaml:"session_state"`
}

type PublisherConfig struct {
	Enabled    bool   `yaml:"enabled"`
	URL        string `yaml:"url"`
	Exchange   string `yaml:"exchange"`
	RoutingKey string `yaml:"routing_key"`
	QueueName  string `yaml:"queue_name"`
}

type MirrorConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

func (m MirrorConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		m.Host, m.Port, m.User, m.Password, m.DBName, m.SSLMode,
	)
}

func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()
	cfg.applyEnv()

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Paths.Sources == "" {
		c.Paths.Sources = "config/sources.json"
	}
	if c.Paths.Catalog == "" {
		c.Paths.Catalog = "data/meta/catalog.json"
	}
	if c.Paths.State == "" {
		c.Paths.State = "data/meta/ingest_state.json"
	}
	if c.Paths.RawDir == "" {
		c.Paths.RawDir = "data/raw"
	}
	if c.Paths.MetaDir == "" {
		c.Paths.MetaDir = "data/meta"
	}
	if c.Paths.TmpDir == "" {
		c.Paths.TmpDir = os.TempDir()
	}
	if c.Ingest.Interval == 0 {
		c.Ingest.Interval = 6 * time.Hour
	}
	if c.Ingest.RunTimeout == 0 {
		c.Ingest.RunTimeout = 30 * time.Minute
	}
	if c.Publisher.Exchange == "" {
		c.Publisher.Exchange = "doc_archiver"
	}
	if c.Publisher.RoutingKey == "" {
		c.Publisher.RoutingKey = "entries"
	}
	if c.Publisher.QueueName == "" {
		c.Publisher.QueueName = "archived_entries"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

func (c *Config) applyEnv() {
	if v, ok := envInt("ARCHIVER_MAX_DOCS_PER_SOURCE"); ok {
		c.Ingest.MaxDocsPerSource = v
	}
	if v, ok := envInt64("ARCHIVER_MAX_BYTES_PER_RUN"); ok {
		c.Ingest.MaxBytesPerRun = v
	}
	if v, ok := envInt("ARCHIVER_TIME_BUDGET_SECONDS"); ok {
		c.Ingest.TimeBudget = time.Duration(v) * time.Second
	}
	if v := os.Getenv("ARCHIVER_COOKIE_JAR"); v != "" {
		c.Cookies.Jar = v
	}
	if v, ok := envBool("ARCHIVER_BROWSER_FALLBACK"); ok {
		c.Headless.Enabled = v
	}
}

// Sources is the source configuration document: global fetch defaults plus
// the source descriptor array.
type Sources struct {
	Defaults FetchDefaults         `json:"defaults"`
	Sources  []domain.SourceConfig `json:"sources"`
}

type FetchDefaults struct {
	UserAgent          string   `json:"user_agent"`
	AllowedExtensions  []string `json:"allowed_extensions"`
	IgnoreExtensions   []string `json:"ignore_extensions"`
	TimeoutSeconds     int      `json:"timeout_seconds"`
	RequestsPerSecond  float64  `json:"requests_per_second"`
	RetryMax           int      `json:"retry_max"`
	BackoffBaseSeconds float64  `json:"backoff_base_seconds"`
}

func (d FetchDefaults) Timeout() time.Duration {
	return time.Duration(d.TimeoutSeconds) * time.Second
}

func (d FetchDefaults) BackoffBase() time.Duration {
	return time.Duration(d.BackoffBaseSeconds * float64(time.Second))
}

func LoadSources(path string) (*Sources, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}

	var doc Sources
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse sources: %w", err)
	}

	doc.setDefaults()
	doc.applyEnv()

	if err := doc.validate(); err != nil {
		return nil, err
	}

	return &doc, nil
}

func (s *Sources) setDefaults() {
	if s.Defaults.UserAgent == "" {
		s.Defaults.UserAgent = "DocArchiver/1.0"
	}
	if s.Defaults.TimeoutSeconds == 0 {
		s.Defaults.TimeoutSeconds = 30
	}
	if s.Defaults.RetryMax == 0 {
		s.Defaults.RetryMax = 3
	}
	if s.Defaults.BackoffBaseSeconds == 0 {
		s.Defaults.BackoffBaseSeconds = 1.0
	}
}

func (s *Sources) applyEnv() {
	if v, ok := envFloat("ARCHIVER_REQUESTS_PER_SECOND"); ok {
		s.Defaults.RequestsPerSecond = v
	}
	if v, ok := envInt("ARCHIVER_RETRY_MAX"); ok {
		s.Defaults.RetryMax = v
	}
	if v, ok := envFloat("ARCHIVER_BACKOFF_BASE_SECONDS"); ok {
		s.Defaults.BackoffBaseSeconds = v
	}
}

func (s *Sources) validate() error {
	seen := make(map[string]bool, len(s.Sources))
	for i, src := range s.Sources {
		if src.ID == "" {
			return fmt.Errorf("source %d: missing id", i)
		}
		if seen[src.ID] {
			return fmt.Errorf("source %q: duplicate id", src.ID)
		}
		seen[src.ID] = true
		if !domain.KnownStrategy(src.Discovery.Type) {
			return fmt.Errorf("source %q: unknown discovery strategy %q", src.ID, src.Discovery.Type)
		}
		if src.BaseURL == "" && src.Discovery.Type != domain.StrategyStatic {
			return fmt.Errorf("source %q: missing base_url", src.ID)
		}
		if src.Discovery.Type == domain.StrategyStatic && len(src.Discovery.URLs) == 0 {
			return fmt.Errorf("source %q: static discovery needs urls", src.ID)
		}
	}
	return nil
}

func envInt(name string) (int, bool) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func envInt64(name string) (int64, bool) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func envFloat(name string) (float64, bool) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func envBool(name string) (bool, bool) {
	v := os.Getenv(name)
	if v == "" {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}
