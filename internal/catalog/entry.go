package catalog

import (
	"mime"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Slugify reduces a title to a filesystem-safe slug: lowercase with
// alphanumerics kept, separators collapsed to single hyphens and everything
// else dropped. An empty result falls back to "document".
func Slugify(text string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('-')
		}
	}
	slug := b.String()
	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return "document"
	}
	return slug
}

// EntryID derives the stable catalog ID from the content hash and title.
// The hash prefix keeps IDs unique across identically titled documents.
func EntryID(sha256, title string) string {
	return sha256[:12] + "-" + Slugify(title)
}

// DetectMIME guesses a content type from the file extension. PDFs get an
// explicit default since the host mime table is not guaranteed to map them.
func DetectMIME(name string) string {
	ext := strings.ToLower(path.Ext(name))
	if t := mime.TypeByExtension(ext); t != "" {
		if i := strings.IndexByte(t, ';'); i >= 0 {
			t = t[:i]
		}
		return strings.TrimSpace(t)
	}
	if ext == ".pdf" {
		return "application/pdf"
	}
	return "application/octet-stream"
}

// FileName picks the stored file name: the server's Content-Disposition
// filename when usable, else the URL basename, else a generic fallback.
func FileName(rawURL, contentDisposition string) string {
	if contentDisposition != "" {
		if _, params, err := mime.ParseMediaType(contentDisposition); err == nil {
			if name := baseName(params["filename"]); name != "" {
				return name
			}
		}
	}
	if u, err := url.Parse(rawURL); err == nil {
		if name := baseName(u.Path); name != "" {
			return name
		}
	}
	return "document.bin"
}

// baseName strips any directory component a hostile header could smuggle in.
func baseName(name string) string {
	name = strings.ReplaceAll(strings.TrimSpace(name), "\\", "/")
	name = path.Base(name)
	if name == "." || name == "/" {
		return ""
	}
	return name
}

// PageCount reads a PDF and returns its page count. Best-effort metadata:
// non-PDFs and unreadable files count as zero pages without an error.
func PageCount(filePath string) int {
	if strings.ToLower(filepath.Ext(filePath)) != ".pdf" {
		return 0
	}
	f, err := os.Open(filePath)
	if err != nil {
		return 0
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		return 0
	}
	return ctx.PageCount
}
