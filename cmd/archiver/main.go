package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"doc_archiver/internal/catalog"
	"doc_archiver/internal/config"
	"doc_archiver/internal/discovery"
	"doc_archiver/internal/domain"
	"doc_archiver/internal/fetch"
	"doc_archiver/internal/ingest"
	"doc_archiver/internal/linkcheck"
	"doc_archiver/internal/publisher"
	"doc_archiver/internal/scheduler"
	"doc_archiver/internal/state"
	"doc_archiver/internal/storage/postgres"
	"doc_archiver/internal/verify"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "archiver",
		Short: "Archive documents from government web pages",
		Long: `Archiver ingests documents from configured government web pages into a
local content-addressed archive with provenance tracking. New entries can
be announced over RabbitMQ and the catalog mirrored to Postgres.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to config file")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "ingest",
		Short: "Run one ingestion pass over all configured sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(configPath)
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "watch",
		Short: "Run ingestion passes on a fixed interval",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(configPath)
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "check-links",
		Short: "Probe every source page and report broken links",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheckLinks(configPath)
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "verify",
		Short: "Audit archived files against the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(configPath)
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "hub",
		Short: "Show where each hub page currently points its section links",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHub(configPath)
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "export",
		Short: "Push the full catalog to the Postgres mirror",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(configPath)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app holds the loaded configuration everything else wires from.
type app struct {
	cfg     *config.Config
	sources *config.Sources
	logger  *slog.Logger
}

func loadApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger := setupLogger(cfg.LogLevel)

	srcs, err := config.LoadSources(cfg.Paths.Sources)
	if err != nil {
		return nil, fmt.Errorf("load sources: %w", err)
	}
	logger.Info("configuration loaded", "sources", len(srcs.Sources))

	return &app{cfg: cfg, sources: srcs, logger: logger}, nil
}

// httpClient builds the shared paced client. cookiesOK reports whether an
// authentication jar was found, which decides the fate of cookie-gated
// sources this run.
func (a *app) httpClient() (*fetch.Client, bool, error) {
	presets := make([]fetch.PresetCookie, 0, len(a.cfg.Cookies.Presets))
	for _, p := range a.cfg.Cookies.Presets {
		presets = append(presets, fetch.PresetCookie{Domain: p.Domain, Name: p.Name, Value: p.Value})
	}

	cookiesOK := fetch.JarAvailable(a.cfg.Cookies.Jar)
	jar, err := fetch.NewJar(a.cfg.Cookies.Jar, a.cfg.Cookies.Domain, presets)
	if err != nil {
		return nil, false, fmt.Errorf("load cookie jar: %w", err)
	}
	if cookiesOK {
		a.logger.Info("cookie jar loaded", "path", a.cfg.Cookies.Jar)
	} else {
		a.logger.Info("no cookie jar, sources requiring cookies will be skipped")
	}

	d := a.sources.Defaults
	pacer := fetch.NewPacer(d.RequestsPerSecond)
	client := fetch.NewClient(fetch.Config{
		UserAgent:   d.UserAgent,
		Timeout:     d.Timeout(),
		RetryMax:    d.RetryMax,
		BackoffBase: d.BackoffBase(),
		Jar:         jar,
	}, pacer, a.logger)

	return client, cookiesOK, nil
}

// pipeline is the fully wired ingestion stack for one process.
type pipeline struct {
	runner  *ingest.Runner
	catalog *catalog.Store
	mirror  *postgres.Exporter
	db      *sqlx.DB
	rabbit  *publisher.RabbitMQ
	logger  *slog.Logger
}

func buildPipeline(a *app) (*pipeline, error) {
	client, cookiesOK, err := a.httpClient()
	if err != nil {
		return nil, err
	}

	cat, err := catalog.Open(a.cfg.Paths.Catalog, a.cfg.Paths.RawDir, a.cfg.Paths.MetaDir, a.logger)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	states, err := state.Open(a.cfg.Paths.State, a.logger)
	if err != nil {
		return nil, fmt.Errorf("open state: %w", err)
	}

	headless := &discovery.Headless{
		Enabled:      a.cfg.Headless.Enabled,
		Script:       a.cfg.Headless.Script,
		SessionState: a.cfg.Headless.SessionState,
		Logger:       a.logger,
	}
	resolver := ingest.NewResolver(client, a.logger)
	discoverer := ingest.NewAdapterDiscoverer(client, headless, discovery.Defaults{
		AllowedExtensions: a.sources.Defaults.AllowedExtensions,
		IgnoreExtensions:  a.sources.Defaults.IgnoreExtensions,
	}, a.logger)

	p := &pipeline{catalog: cat, logger: a.logger}

	var announcer ingest.Announcer
	if a.cfg.Publisher.Enabled {
		rabbit, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        a.cfg.Publisher.URL,
			Exchange:   a.cfg.Publisher.Exchange,
			RoutingKey: a.cfg.Publisher.RoutingKey,
			QueueName:  a.cfg.Publisher.QueueName,
		}, a.logger)
		if err != nil {
			return nil, fmt.Errorf("connect to rabbitmq: %w", err)
		}
		p.rabbit = rabbit
		announcer = rabbit
	}

	if a.cfg.Mirror.Enabled {
		db, err := sqlx.Connect("postgres", a.cfg.Mirror.DSN())
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("connect to mirror database: %w", err)
		}
		if err := db.Ping(); err != nil {
			db.Close()
			p.Close()
			return nil, fmt.Errorf("ping mirror database: %w", err)
		}
		a.logger.Info("connected to mirror database")
		p.db = db
		p.mirror = postgres.NewExporter(postgres.NewEntryStore(db), postgres.NewTransactionManager(db), a.logger)
	}

	p.runner = ingest.NewRunner(
		a.sources.Sources,
		client,
		discoverer,
		resolver,
		cat,
		states,
		announcer,
		ingest.Limits{
			MaxDocsPerSource:     a.cfg.Ingest.MaxDocsPerSource,
			MaxBytesPerSource:    a.cfg.Ingest.MaxBytesPerSource,
			MaxAttemptsPerSource: a.cfg.Ingest.MaxAttemptsPerSource,
			MaxBytesPerRun:       a.cfg.Ingest.MaxBytesPerRun,
			TimeBudget:           a.cfg.Ingest.TimeBudget,
		},
		a.cfg.Paths.TmpDir,
		cookiesOK,
		a.logger,
	)
	return p, nil
}

// Run executes one ingestion pass and refreshes the mirror afterwards. A
// mirror failure is logged, not fatal: the archive on disk is the source of
// truth and the mirror catches up on the next pass.
func (p *pipeline) Run(ctx context.Context) (*domain.RunStats, error) {
	stats, err := p.runner.Run(ctx)
	if err != nil {
		return stats, err
	}
	if p.mirror != nil {
		if _, merr := p.mirror.Export(ctx, p.catalog.Entries()); merr != nil {
			p.logger.Error("mirror export failed", "error", merr)
		}
	}
	return stats, nil
}

func (p *pipeline) Close() {
	if p.rabbit != nil {
		p.rabbit.Close()
	}
	if p.db != nil {
		p.db.Close()
	}
}

func runIngest(configPath string) error {
	a, err := loadApp(configPath)
	if err != nil {
		return err
	}
	p, err := buildPipeline(a)
	if err != nil {
		return err
	}
	defer p.Close()

	ctx, cancel := signalContext(a.logger)
	defer cancel()

	_, err = p.Run(ctx)
	return err
}

func runWatch(configPath string) error {
	a, err := loadApp(configPath)
	if err != nil {
		return err
	}
	p, err := buildPipeline(a)
	if err != nil {
		return err
	}
	defer p.Close()

	sched := scheduler.NewScheduler(p, a.cfg.Ingest.Interval, a.cfg.Ingest.RunTimeout, a.logger)

	ctx, cancel := signalContext(a.logger)
	defer cancel()

	a.logger.Info("starting archiver",
		"sources", len(a.sources.Sources),
		"interval", a.cfg.Ingest.Interval,
	)

	if err := sched.Start(ctx); err != nil && err != context.Canceled {
		return err
	}
	return nil
}

func runCheckLinks(configPath string) error {
	a, err := loadApp(configPath)
	if err != nil {
		return err
	}
	client, _, err := a.httpClient()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(a.logger)
	defer cancel()

	checker := linkcheck.NewChecker(client, a.sources.Sources, a.logger)
	problems := checker.Check(ctx)
	if len(problems) > 0 {
		for _, p := range problems {
			fmt.Println(p)
		}
		return fmt.Errorf("%d link problems", len(problems))
	}
	a.logger.Info("all source links healthy", "sources", len(a.sources.Sources))
	return nil
}

func runVerify(configPath string) error {
	a, err := loadApp(configPath)
	if err != nil {
		return err
	}
	cat, err := catalog.Open(a.cfg.Paths.Catalog, a.cfg.Paths.RawDir, a.cfg.Paths.MetaDir, a.logger)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}

	problems := verify.Catalog(cat.Entries(), a.cfg.Paths.MetaDir)
	if len(problems) > 0 {
		for _, p := range problems {
			fmt.Println(p)
		}
		return fmt.Errorf("%d catalog problems", len(problems))
	}
	a.logger.Info("archive verified", "entries", cat.Len())
	return nil
}

func runHub(configPath string) error {
	a, err := loadApp(configPath)
	if err != nil {
		return err
	}
	client, _, err := a.httpClient()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(a.logger)
	defer cancel()

	type hubSpec struct {
		keys    []string
		headers http.Header
	}
	hubs := make(map[string]*hubSpec)
	var order []string
	for _, src := range a.sources.Sources {
		d := src.Discovery
		if d.HubURL == "" || d.HubTarget == "" {
			continue
		}
		h, ok := hubs[d.HubURL]
		if !ok {
			h = &hubSpec{headers: fetch.SourceHeaders(src)}
			hubs[d.HubURL] = h
			order = append(order, d.HubURL)
		}
		h.keys = append(h.keys, d.HubTarget)
	}
	if len(order) == 0 {
		fmt.Println("no hub-backed sources configured")
		return nil
	}

	for _, hubURL := range order {
		h := hubs[hubURL]
		fmt.Println(hubURL)
		targets, err := discovery.FetchTargets(ctx, client, hubURL, h.keys, h.headers)
		if err != nil {
			fmt.Printf("  fetch failed: %v\n", err)
			continue
		}
		for _, key := range h.keys {
			if u, ok := targets[key]; ok {
				fmt.Printf("  %-16s %s\n", key, u)
			} else {
				fmt.Printf("  %-16s (no match)\n", key)
			}
		}
	}
	return nil
}

func runExport(configPath string) error {
	a, err := loadApp(configPath)
	if err != nil {
		return err
	}
	cat, err := catalog.Open(a.cfg.Paths.Catalog, a.cfg.Paths.RawDir, a.cfg.Paths.MetaDir, a.logger)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}

	db, err := sqlx.Connect("postgres", a.cfg.Mirror.DSN())
	if err != nil {
		return fmt.Errorf("connect to mirror database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping mirror database: %w", err)
	}
	a.logger.Info("connected to mirror database")

	ctx, cancel := signalContext(a.logger)
	defer cancel()

	exporter := postgres.NewExporter(postgres.NewEntryStore(db), postgres.NewTransactionManager(db), a.logger)
	if _, err := exporter.Export(ctx, cat.Entries()); err != nil {
		return err
	}
	return nil
}

func signalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()
	return ctx, cancel
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
