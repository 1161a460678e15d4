// Package verify audits an archive for corruption: every catalog entry must
// point at a file whose bytes still hash to the recorded digest, and the
// catalog's own uniqueness guarantees must hold.
package verify

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"doc_archiver/internal/domain"
)

// Catalog returns one message per defect found. An empty slice means the
// archive is intact.
func Catalog(entries []domain.CatalogEntry, metaDir string) []string {
	var problems []string

	ids := make(map[string]string, len(entries))
	hashes := make(map[string]string, len(entries))

	for _, e := range entries {
		if e.ID == "" {
			problems = append(problems, fmt.Sprintf("%s: empty entry id", e.SHA256))
			continue
		}
		if prev, dup := ids[e.ID]; dup {
			problems = append(problems, fmt.Sprintf("%s: duplicate id (also %s)", e.ID, prev))
		}
		ids[e.ID] = e.SHA256

		if prev, dup := hashes[e.SHA256]; dup {
			problems = append(problems, fmt.Sprintf("%s: duplicate sha256 (also entry %s)", e.ID, prev))
		}
		hashes[e.SHA256] = e.ID

		if len(e.Sources) == 0 {
			problems = append(problems, fmt.Sprintf("%s: no provenance", e.ID))
		}

		problems = append(problems, checkFile(e)...)

		if metaDir != "" {
			sidecar := filepath.Join(metaDir, e.ID+".json")
			if _, err := os.Stat(sidecar); err != nil {
				problems = append(problems, fmt.Sprintf("%s: missing sidecar %s", e.ID, sidecar))
			}
		}
	}

	return problems
}

func checkFile(e domain.CatalogEntry) []string {
	info, err := os.Stat(e.FilePath)
	if err != nil {
		return []string{fmt.Sprintf("%s: missing raw file %s", e.ID, e.FilePath)}
	}

	var problems []string
	if e.SizeBytes > 0 && info.Size() != e.SizeBytes {
		problems = append(problems, fmt.Sprintf("%s: size mismatch for %s (have %d, want %d)", e.ID, e.FilePath, info.Size(), e.SizeBytes))
	}

	sum, err := hashFile(e.FilePath)
	if err != nil {
		return append(problems, fmt.Sprintf("%s: unreadable raw file %s (%v)", e.ID, e.FilePath, err))
	}
	if sum != e.SHA256 {
		problems = append(problems, fmt.Sprintf("%s: sha256 mismatch for %s", e.ID, e.FilePath))
	}
	return problems
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
