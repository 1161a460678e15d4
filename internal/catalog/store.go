package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"doc_archiver/internal/domain"
)

// Store is the content-addressed archive: files under raw/<id>/, one JSON
// sidecar per entry under meta/, and a single catalog file listing every
// entry. Content identity is the sha256 of the payload; the same bytes are
// stored once no matter how many pages link to them.
//
// Not safe for concurrent use. Ingestion runs are single-writer.
type Store struct {
	catalogPath string
	rawDir      string
	metaDir     string
	logger      *slog.Logger

	entries []*domain.CatalogEntry
	byHash  map[string]*domain.CatalogEntry
	byURL   map[string]*domain.CatalogEntry
	dirty   bool
}

// Open loads the catalog file if present and prepares the storage
// directories. A missing catalog is an empty archive, not an error.
func Open(catalogPath, rawDir, metaDir string, logger *slog.Logger) (*Store, error) {
	for _, dir := range []string{rawDir, metaDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}

	s := &Store{
		catalogPath: catalogPath,
		rawDir:      rawDir,
		metaDir:     metaDir,
		logger:      logger,
		byHash:      make(map[string]*domain.CatalogEntry),
		byURL:       make(map[string]*domain.CatalogEntry),
	}

	data, err := os.ReadFile(catalogPath)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	if err := json.Unmarshal(data, &s.entries); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	for _, e := range s.entries {
		if _, ok := s.byHash[e.SHA256]; !ok {
			s.byHash[e.SHA256] = e
		}
		if e.OriginURL != "" {
			if _, ok := s.byURL[e.OriginURL]; !ok {
				s.byURL[e.OriginURL] = e
			}
		}
	}
	s.logger.Debug("catalog loaded", "path", catalogPath, "entries", len(s.entries))
	return s, nil
}

func (s *Store) Len() int { return len(s.entries) }

// Dirty reports whether anything changed since the last Save.
func (s *Store) Dirty() bool { return s.dirty }

// Entries returns a snapshot of the catalog in its current order.
func (s *Store) Entries() []domain.CatalogEntry {
	out := make([]domain.CatalogEntry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, cloneEntry(e))
	}
	return out
}

// FindBySHA looks an entry up by content hash.
func (s *Store) FindBySHA(sha string) (domain.CatalogEntry, bool) {
	e, ok := s.byHash[sha]
	if !ok {
		return domain.CatalogEntry{}, false
	}
	return cloneEntry(e), true
}

// LookupURL finds the entry originally downloaded from the given URL, used
// to revalidate known documents with conditional requests.
func (s *Store) LookupURL(url string) (domain.CatalogEntry, bool) {
	e, ok := s.byURL[url]
	if !ok {
		return domain.CatalogEntry{}, false
	}
	return cloneEntry(e), true
}

// NewEntry carries what ingestion knows about a freshly downloaded file.
type NewEntry struct {
	SHA256       string
	Title        string
	SourceName   string
	SourcePage   string
	OriginURL    string
	ReleaseDate  string
	Tags         []string
	ETag         string
	LastModified string
	SizeBytes    int64
	FileName     string
}

// Add moves a downloaded temp file into the archive and appends a catalog
// entry for it. The caller has already established the hash is new.
func (s *Store) Add(tmpPath string, n NewEntry) (domain.CatalogEntry, error) {
	id := EntryID(n.SHA256, n.Title)
	dir := filepath.Join(s.rawDir, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return domain.CatalogEntry{}, fmt.Errorf("create entry dir: %w", err)
	}
	dest := filepath.Join(dir, n.FileName)
	if err := moveFile(tmpPath, dest); err != nil {
		return domain.CatalogEntry{}, fmt.Errorf("store download: %w", err)
	}

	e := &domain.CatalogEntry{
		ID:           id,
		Title:        n.Title,
		SHA256:       n.SHA256,
		FilePath:     dest,
		OriginURL:    n.OriginURL,
		Sources:      []domain.Provenance{{SourceName: n.SourceName, SourcePage: n.SourcePage}},
		ReleaseDate:  n.ReleaseDate,
		Tags:         append([]string(nil), n.Tags...),
		ETag:         n.ETag,
		LastModified: n.LastModified,
		MIMEType:     DetectMIME(n.FileName),
		SizeBytes:    n.SizeBytes,
		Pages:        PageCount(dest),
		DownloadedAt: time.Now().UTC().Truncate(time.Second),
	}

	s.entries = append(s.entries, e)
	s.byHash[e.SHA256] = e
	if e.OriginURL != "" {
		s.byURL[e.OriginURL] = e
	}
	s.dirty = true

	if err := s.writeMeta(e); err != nil {
		return domain.CatalogEntry{}, err
	}
	return cloneEntry(e), nil
}

// Sighting describes a re-encounter with already archived content, possibly
// from a new page or with fresh response validators.
type Sighting struct {
	SourceName   string
	SourcePage   string
	URL          string
	Title        string
	ReleaseDate  string
	Tags         []string
	ETag         string
	LastModified string
}

// Merge folds a sighting into the existing entry for sha: provenance grows
// set-wise, empty fields fill in, tags union. Values already present are
// never overwritten, except the response validators when the sighting came
// from the entry's own origin URL.
func (s *Store) Merge(sha string, sight Sighting) (domain.CatalogEntry, bool) {
	e, ok := s.byHash[sha]
	if !ok {
		return domain.CatalogEntry{}, false
	}

	if !hasProvenance(e.Sources, sight.SourceName, sight.SourcePage) {
		e.Sources = append(e.Sources, domain.Provenance{
			SourceName: sight.SourceName,
			SourcePage: sight.SourcePage,
		})
	}
	if e.Title == "" {
		e.Title = sight.Title
	}
	if e.ReleaseDate == "" {
		e.ReleaseDate = sight.ReleaseDate
	}
	e.Tags = unionTags(e.Tags, sight.Tags)
	if sight.URL == e.OriginURL {
		if sight.ETag != "" {
			e.ETag = sight.ETag
		}
		if sight.LastModified != "" {
			e.LastModified = sight.LastModified
		}
	}
	e.DownloadedAt = time.Now().UTC().Truncate(time.Second)
	s.dirty = true

	if err := s.writeMeta(e); err != nil {
		s.logger.Warn("meta sidecar write failed", "id", e.ID, "error", err)
	}
	return cloneEntry(e), true
}

// Touch refreshes the response validators after a 304 revalidation. Reports
// whether anything actually changed.
func (s *Store) Touch(url, etag, lastModified string) bool {
	e, ok := s.byURL[url]
	if !ok {
		return false
	}
	changed := false
	if etag != "" && etag != e.ETag {
		e.ETag = etag
		changed = true
	}
	if lastModified != "" && lastModified != e.LastModified {
		e.LastModified = lastModified
		changed = true
	}
	if changed {
		s.dirty = true
		if err := s.writeMeta(e); err != nil {
			s.logger.Warn("meta sidecar write failed", "id", e.ID, "error", err)
		}
	}
	return changed
}

// Save writes the catalog sorted by release date, undated entries first.
// A clean store is a no-op, so the catalog file is written at most once per
// run no matter how many entries changed.
func (s *Store) Save() error {
	if !s.dirty {
		return nil
	}
	sort.SliceStable(s.entries, func(i, j int) bool {
		return s.entries[i].ReleaseDate < s.entries[j].ReleaseDate
	})
	if err := writeJSONAtomic(s.catalogPath, s.entries); err != nil {
		return fmt.Errorf("save catalog: %w", err)
	}
	s.dirty = false
	s.logger.Info("catalog saved", "path", s.catalogPath, "entries", len(s.entries))
	return nil
}

func (s *Store) writeMeta(e *domain.CatalogEntry) error {
	path := filepath.Join(s.metaDir, e.ID+".json")
	if err := writeJSONAtomic(path, e); err != nil {
		return fmt.Errorf("write meta sidecar: %w", err)
	}
	return nil
}

func cloneEntry(e *domain.CatalogEntry) domain.CatalogEntry {
	out := *e
	out.Sources = append([]domain.Provenance(nil), e.Sources...)
	out.Tags = append([]string(nil), e.Tags...)
	return out
}

func hasProvenance(sources []domain.Provenance, name, page string) bool {
	for _, p := range sources {
		if p.SourceName == name && p.SourcePage == page {
			return true
		}
	}
	return false
}

func unionTags(a, b []string) []string {
	if len(b) == 0 {
		return a
	}
	set := make(map[string]bool, len(a)+len(b))
	for _, t := range a {
		set[t] = true
	}
	for _, t := range b {
		set[t] = true
	}
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// moveFile renames tmp into place, copying when the rename crosses
// filesystems.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}

func writeJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("chmod temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
