package discovery

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

const defaultHelperTimeout = 2 * time.Minute

// Headless invokes an external headless-browser helper as the discovery path
// of last resort for pages that block plain HTTP clients. The helper is an
// opaque collaborator: given a page URL and a stored browser session state
// it prints one discovered URL per line on stdout.
type Headless struct {
	Enabled      bool
	Script       string
	SessionState string
	Timeout      time.Duration
	Logger       *slog.Logger
}

// Ready reports whether the fallback can run at all: it must be enabled and
// both the helper script and the stored session state must exist on disk.
func (h *Headless) Ready() bool {
	if h == nil || !h.Enabled || h.Script == "" || h.SessionState == "" {
		return false
	}
	if _, err := os.Stat(h.Script); err != nil {
		return false
	}
	if _, err := os.Stat(h.SessionState); err != nil {
		return false
	}
	return true
}

// Fetch runs the helper for pageURL and returns the URLs it printed. ok is
// false when the helper could not run, which callers treat as "no results"
// rather than an error.
func (h *Headless) Fetch(ctx context.Context, pageURL string) ([]string, bool) {
	if !h.Ready() {
		return nil, false
	}

	timeout := h.Timeout
	if timeout <= 0 {
		timeout = defaultHelperTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, h.Script, pageURL, h.SessionState)
	out, err := cmd.Output()
	if err != nil {
		h.Logger.Warn("headless helper failed", "url", pageURL, "error", err)
		return nil, false
	}

	var urls []string
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	return urls, true
}
