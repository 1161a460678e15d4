package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"doc_archiver/internal/domain"
)

// EntryStore mirrors catalog entries into Postgres. The local JSON catalog
// stays authoritative; rows here are overwritten on every export.
type EntryStore struct {
	db *sqlx.DB
}

func NewEntryStore(db *sqlx.DB) *EntryStore {
	return &EntryStore{db: db}
}

// EntryRow is the catalog_entries table shape.
type EntryRow struct {
	ID           int64     `db:"id"`
	EntryID      string    `db:"entry_id"`
	Title        string    `db:"title"`
	SHA256       string    `db:"sha256"`
	FilePath     string    `db:"file_path"`
	OriginURL    string    `db:"origin_url"`
	ReleaseDate  string    `db:"release_date"`
	ETag         string    `db:"etag"`
	LastModified string    `db:"last_modified"`
	MIMEType     string    `db:"mime_type"`
	SizeBytes    int64     `db:"size_bytes"`
	Pages        int       `db:"pages"`
	DownloadedAt time.Time `db:"downloaded_at"`
}

func (s *EntryStore) Upsert(ctx context.Context, entry domain.CatalogEntry) (int64, error) {
	query := `
		INSERT INTO catalog_entries (
			entry_id, title, sha256, file_path, origin_url, release_date,
			etag, last_modified, mime_type, size_bytes, pages, downloaded_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		)
		ON CONFLICT (sha256) DO UPDATE SET
			entry_id = EXCLUDED.entry_id,
			title = EXCLUDED.title,
			file_path = EXCLUDED.file_path,
			origin_url = EXCLUDED.origin_url,
			release_date = EXCLUDED.release_date,
			etag = EXCLUDED.etag,
			last_modified = EXCLUDED.last_modified,
			mime_type = EXCLUDED.mime_type,
			size_bytes = EXCLUDED.size_bytes,
			pages = EXCLUDED.pages,
			downloaded_at = EXCLUDED.downloaded_at
		RETURNING id`

	var id int64
	err := GetExecutor(ctx, s.db).QueryRowxContext(ctx, query,
		entry.ID,
		entry.Title,
		entry.SHA256,
		entry.FilePath,
		entry.OriginURL,
		entry.ReleaseDate,
		entry.ETag,
		entry.LastModified,
		entry.MIMEType,
		entry.SizeBytes,
		entry.Pages,
		entry.DownloadedAt,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// ReplaceSources rewrites the provenance rows for one entry.
func (s *EntryStore) ReplaceSources(ctx context.Context, entryID int64, sources []domain.Provenance) error {
	exec := GetExecutor(ctx, s.db)

	_, err := exec.ExecContext(ctx, "DELETE FROM entry_sources WHERE entry_id = $1", entryID)
	if err != nil {
		return err
	}

	if len(sources) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO entry_sources (entry_id, source_name, source_page) VALUES ")
	args := make([]interface{}, 0, len(sources)*2+1)
	args = append(args, entryID)

	for i, p := range sources {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("($1, $")
		sb.WriteString(strconv.Itoa(i*2 + 2))
		sb.WriteString(", $")
		sb.WriteString(strconv.Itoa(i*2 + 3))
		sb.WriteString(")")
		args = append(args, p.SourceName, p.SourcePage)
	}
	sb.WriteString(" ON CONFLICT DO NOTHING")

	_, err = exec.ExecContext(ctx, sb.String(), args...)
	return err
}

// ReplaceTags rewrites the tag rows for one entry.
func (s *EntryStore) ReplaceTags(ctx context.Context, entryID int64, tags []string) error {
	exec := GetExecutor(ctx, s.db)

	_, err := exec.ExecContext(ctx, "DELETE FROM entry_tags WHERE entry_id = $1", entryID)
	if err != nil {
		return err
	}

	if len(tags) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO entry_tags (entry_id, tag) VALUES ")
	args := make([]interface{}, 0, len(tags)+1)
	args = append(args, entryID)

	for i, tag := range tags {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("($1, $")
		sb.WriteString(strconv.Itoa(i + 2))
		sb.WriteString(")")
		args = append(args, tag)
	}
	sb.WriteString(" ON CONFLICT DO NOTHING")

	_, err = exec.ExecContext(ctx, sb.String(), args...)
	return err
}

func (s *EntryStore) GetBySHA(ctx context.Context, sha string) (*EntryRow, error) {
	var row EntryRow
	query := `
		SELECT id, entry_id, title, sha256, file_path, origin_url, release_date,
			etag, last_modified, mime_type, size_bytes, pages, downloaded_at
		FROM catalog_entries
		WHERE sha256 = $1`

	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &row, query, sha)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *EntryStore) GetSources(ctx context.Context, entryID int64) ([]domain.Provenance, error) {
	query := `SELECT source_name, source_page FROM entry_sources WHERE entry_id = $1 ORDER BY id`

	rows, err := GetExecutor(ctx, s.db).QueryxContext(ctx, query, entryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Provenance
	for rows.Next() {
		var p domain.Provenance
		if err := rows.Scan(&p.SourceName, &p.SourcePage); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *EntryStore) GetTags(ctx context.Context, entryID int64) ([]string, error) {
	query := `SELECT tag FROM entry_tags WHERE entry_id = $1 ORDER BY tag`

	var out []string
	err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &out, query, entryID)
	return out, err
}
