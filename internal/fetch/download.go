package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
)

// classifyPeek is how much of a body is kept for blocked-response
// classification. Gate and error pages fit comfortably.
const classifyPeek = 4096

// Result captures the response metadata a download produced alongside the
// bytes on disk.
type Result struct {
	Status             int
	SHA256             string
	Size               int64
	ContentType        string
	ContentDisposition string
	FinalURL           string
	ETag               string
	LastModified       string
	BodyPrefix         []byte
}

// Download streams url into a temp file under dir, hashing while writing.
// On a 200 the temp path is returned and the caller owns the file: move it
// into place or remove it. On any other status the body prefix is captured
// for classification and no file is left behind.
func (c *Client) Download(ctx context.Context, url string, headers http.Header, dir string) (Result, string, error) {
	resp, err := c.Get(ctx, url, headers)
	if err != nil {
		return Result{}, "", err
	}
	defer resp.Body.Close()

	res := Result{
		Status:             resp.StatusCode,
		ContentType:        resp.Header.Get("Content-Type"),
		ContentDisposition: resp.Header.Get("Content-Disposition"),
		ETag:               resp.Header.Get("ETag"),
		LastModified:       resp.Header.Get("Last-Modified"),
		FinalURL:           resp.Request.URL.String(),
	}

	if resp.StatusCode != http.StatusOK {
		prefix, _ := io.ReadAll(io.LimitReader(resp.Body, classifyPeek))
		res.BodyPrefix = prefix
		return res, "", nil
	}

	tmp, err := os.CreateTemp(dir, "archiver-*.part")
	if err != nil {
		return Result{}, "", fmt.Errorf("create temp file: %w", err)
	}

	hasher := sha256.New()
	peek := &prefixRecorder{limit: classifyPeek}
	size, err := io.Copy(io.MultiWriter(tmp, hasher, peek), resp.Body)
	closeErr := tmp.Close()
	if err != nil || closeErr != nil {
		os.Remove(tmp.Name())
		if err == nil {
			err = closeErr
		}
		return Result{}, "", fmt.Errorf("download %s: %w", url, err)
	}

	res.Size = size
	res.SHA256 = hex.EncodeToString(hasher.Sum(nil))
	res.BodyPrefix = peek.buf
	return res, tmp.Name(), nil
}

type prefixRecorder struct {
	buf   []byte
	limit int
}

func (p *prefixRecorder) Write(b []byte) (int, error) {
	if len(p.buf) < p.limit {
		take := p.limit - len(p.buf)
		if take > len(b) {
			take = len(b)
		}
		p.buf = append(p.buf, b[:take]...)
	}
	return len(b), nil
}
