//go:build integration

package postgres

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"doc_archiver/internal/domain"
)

type PostgresIntegrationSuite struct {
	suite.Suite
	ctx       context.Context
	container *postgres.PostgresContainer
	db        *sqlx.DB
}

func (s *PostgresIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()

	migrationsPath, err := filepath.Abs("../../../migrations")
	s.Require().NoError(err)

	container, err := postgres.Run(s.ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test_db"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		postgres.WithInitScripts(
			filepath.Join(migrationsPath, "001_create_catalog.up.sql"),
		),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	s.Require().NoError(err)
	s.container = container

	connStr, err := container.ConnectionString(s.ctx, "sslmode=disable")
	s.Require().NoError(err)

	db, err := sqlx.Connect("postgres", connStr)
	s.Require().NoError(err)
	s.db = db
}

func (s *PostgresIntegrationSuite) TearDownSuite() {
	if s.db != nil {
		s.db.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *PostgresIntegrationSuite) SetupTest() {
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM entry_tags")
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM entry_sources")
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM catalog_entries")
}

func TestPostgresIntegrationSuite(t *testing.T) {
	suite.Run(t, new(PostgresIntegrationSuite))
}

func testEntry() domain.CatalogEntry {
	return domain.CatalogEntry{
		ID:        "3a7bd3e2360a-flight-logs",
		Title:     "Flight Logs",
		SHA256:    "3a7bd3e2360a3d29eea436fcfb7e44c735d117c42d1c1835420b6b9942dd4f1b",
		FilePath:  "data/raw/3a7bd3e2360a-flight-logs/logs.pdf",
		OriginURL: "https://archive.example/files/logs.pdf",
		Sources: []domain.Provenance{
			{SourceName: "Court Citations", SourcePage: "https://archive.example/citations"},
		},
		ReleaseDate:  "2020-05-05",
		Tags:         []string{"court", "foia"},
		ETag:         `"v1"`,
		MIMEType:     "application/pdf",
		SizeBytes:    2048,
		Pages:        12,
		DownloadedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

func (s *PostgresIntegrationSuite) TestEntryStore_Upsert_Insert() {
	store := NewEntryStore(s.db)

	entry := testEntry()
	id, err := store.Upsert(s.ctx, entry)
	s.NoError(err)
	s.Greater(id, int64(0))

	row, err := store.GetBySHA(s.ctx, entry.SHA256)
	s.NoError(err)
	s.Require().NotNil(row)
	s.Equal(entry.ID, row.EntryID)
	s.Equal(entry.Title, row.Title)
	s.Equal(entry.FilePath, row.FilePath)
	s.Equal(entry.ReleaseDate, row.ReleaseDate)
	s.Equal(entry.SizeBytes, row.SizeBytes)
	s.Equal(entry.Pages, row.Pages)
}

func (s *PostgresIntegrationSuite) TestEntryStore_Upsert_OverwritesBySHA() {
	store := NewEntryStore(s.db)

	entry := testEntry()
	id1, err := store.Upsert(s.ctx, entry)
	s.NoError(err)

	entry.Title = "Flight Logs (Unsealed)"
	entry.ReleaseDate = "2021-01-01"
	id2, err := store.Upsert(s.ctx, entry)
	s.NoError(err)
	s.Equal(id1, id2)

	row, err := store.GetBySHA(s.ctx, entry.SHA256)
	s.NoError(err)
	s.Require().NotNil(row)
	s.Equal("Flight Logs (Unsealed)", row.Title)
	s.Equal("2021-01-01", row.ReleaseDate)

	var count int
	err = s.db.GetContext(s.ctx, &count, "SELECT COUNT(*) FROM catalog_entries")
	s.NoError(err)
	s.Equal(1, count)
}

func (s *PostgresIntegrationSuite) TestEntryStore_GetBySHA_Missing() {
	store := NewEntryStore(s.db)

	row, err := store.GetBySHA(s.ctx, "deadbeef")
	s.NoError(err)
	s.Nil(row)
}

func (s *PostgresIntegrationSuite) TestEntryStore_ReplaceSources() {
	store := NewEntryStore(s.db)

	id, err := store.Upsert(s.ctx, testEntry())
	s.Require().NoError(err)

	err = store.ReplaceSources(s.ctx, id, []domain.Provenance{
		{SourceName: "Court Citations", SourcePage: "https://archive.example/citations"},
		{SourceName: "FOIA Library", SourcePage: "https://archive.example/foia"},
	})
	s.NoError(err)

	sources, err := store.GetSources(s.ctx, id)
	s.NoError(err)
	s.Len(sources, 2)
	s.Equal("Court Citations", sources[0].SourceName)
	s.Equal("FOIA Library", sources[1].SourceName)

	err = store.ReplaceSources(s.ctx, id, []domain.Provenance{
		{SourceName: "FOIA Library", SourcePage: "https://archive.example/foia"},
	})
	s.NoError(err)

	sources, err = store.GetSources(s.ctx, id)
	s.NoError(err)
	s.Len(sources, 1)
	s.Equal("FOIA Library", sources[0].SourceName)
}

func (s *PostgresIntegrationSuite) TestEntryStore_ReplaceTags() {
	store := NewEntryStore(s.db)

	id, err := store.Upsert(s.ctx, testEntry())
	s.Require().NoError(err)

	err = store.ReplaceTags(s.ctx, id, []string{"court", "foia"})
	s.NoError(err)

	tags, err := store.GetTags(s.ctx, id)
	s.NoError(err)
	s.Equal([]string{"court", "foia"}, tags)

	err = store.ReplaceTags(s.ctx, id, []string{"disclosures"})
	s.NoError(err)

	tags, err = store.GetTags(s.ctx, id)
	s.NoError(err)
	s.Equal([]string{"disclosures"}, tags)
}

func (s *PostgresIntegrationSuite) TestExporter_MirrorsWholeCatalog() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	store := NewEntryStore(s.db)
	exporter := NewExporter(store, NewTransactionManager(s.db), logger)

	first := testEntry()
	second := testEntry()
	second.ID = "486ea46224d1-deposition"
	second.Title = "Deposition Transcript"
	second.SHA256 = "486ea46224d1bb4fb680f34f7c9ad96a8f24ec88be73ea8e5a6c65260e9cb8a7"
	second.FilePath = "data/raw/486ea46224d1-deposition/transcript.pdf"
	second.OriginURL = "https://archive.example/files/transcript.pdf"
	second.Tags = []string{"deposition"}
	second.Sources = append(second.Sources, domain.Provenance{
		SourceName: "FOIA Library",
		SourcePage: "https://archive.example/foia",
	})

	n, err := exporter.Export(s.ctx, []domain.CatalogEntry{first, second})
	s.NoError(err)
	s.Equal(2, n)

	var count int
	err = s.db.GetContext(s.ctx, &count, "SELECT COUNT(*) FROM catalog_entries")
	s.NoError(err)
	s.Equal(2, count)

	row, err := store.GetBySHA(s.ctx, second.SHA256)
	s.NoError(err)
	s.Require().NotNil(row)

	sources, err := store.GetSources(s.ctx, row.ID)
	s.NoError(err)
	s.Len(sources, 2)

	tags, err := store.GetTags(s.ctx, row.ID)
	s.NoError(err)
	s.Equal([]string{"deposition"}, tags)

	// A second export is a no-op update, not a duplicate.
	n, err = exporter.Export(s.ctx, []domain.CatalogEntry{first, second})
	s.NoError(err)
	s.Equal(2, n)

	err = s.db.GetContext(s.ctx, &count, "SELECT COUNT(*) FROM catalog_entries")
	s.NoError(err)
	s.Equal(2, count)
}

func (s *PostgresIntegrationSuite) TestTransaction_Commit() {
	tm := NewTransactionManager(s.db)
	store := NewEntryStore(s.db)

	err := tm.WithTransaction(s.ctx, func(ctx context.Context) error {
		id, err := store.Upsert(ctx, testEntry())
		if err != nil {
			return err
		}
		return store.ReplaceTags(ctx, id, []string{"court"})
	})
	s.NoError(err)

	var count int
	err = s.db.GetContext(s.ctx, &count, "SELECT COUNT(*) FROM catalog_entries")
	s.NoError(err)
	s.Equal(1, count)
}

func (s *PostgresIntegrationSuite) TestTransaction_Rollback() {
	tm := NewTransactionManager(s.db)
	store := NewEntryStore(s.db)

	err := tm.WithTransaction(s.ctx, func(ctx context.Context) error {
		if _, err := store.Upsert(ctx, testEntry()); err != nil {
			return err
		}
		return context.Canceled
	})
	s.Error(err)

	var count int
	err = s.db.GetContext(s.ctx, &count, "SELECT COUNT(*) FROM catalog_entries")
	s.NoError(err)
	s.Equal(0, count)
}
