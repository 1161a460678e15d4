package fetch

import (
	"bytes"
	"net/http"
	"strings"
)

// VerdictKind tags the outcome of classifying a completed fetch.
type VerdictKind int

const (
	VerdictOK VerdictKind = iota
	VerdictBlocked
	VerdictFailed
)

const (
	BlockedForbidden      = "forbidden"
	BlockedAgeGate        = "age_gate"
	BlockedHTMLMasquerade = "html_masquerade"
)

type Verdict struct {
	Kind   VerdictKind
	Reason string // set for VerdictBlocked
	Status int    // set for VerdictFailed and VerdictBlocked
}

func (v Verdict) OK() bool      { return v.Kind == VerdictOK }
func (v Verdict) Blocked() bool { return v.Kind == VerdictBlocked }
func (v Verdict) Failed() bool  { return v.Kind == VerdictFailed }

// Classify decides whether a completed fetch produced usable content. Pure:
// it looks only at the response facts handed to it. wantDocument is true
// when the candidate was expected to be a document rather than an HTML page,
// in which case HTML in the body means a gate or error page stood in for the
// file.
func Classify(status int, contentType string, bodyPrefix []byte, finalURL string, wantDocument bool) Verdict {
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return Verdict{Kind: VerdictBlocked, Reason: BlockedForbidden, Status: status}
	}
	if status >= 400 {
		return Verdict{Kind: VerdictFailed, Status: status}
	}

	if strings.Contains(strings.ToLower(finalURL), "/age-verify") {
		return Verdict{Kind: VerdictBlocked, Reason: BlockedAgeGate, Status: status}
	}

	if looksHTML(contentType, bodyPrefix) {
		lower := strings.ToLower(string(bodyPrefix))
		if strings.Contains(lower, `rel="canonical"`) && strings.Contains(lower, "/age-verify") {
			return Verdict{Kind: VerdictBlocked, Reason: BlockedAgeGate, Status: status}
		}
		if wantDocument {
			return Verdict{Kind: VerdictBlocked, Reason: BlockedHTMLMasquerade, Status: status}
		}
	}

	return Verdict{Kind: VerdictOK, Status: status}
}

func looksHTML(contentType string, bodyPrefix []byte) bool {
	if strings.Contains(strings.ToLower(contentType), "text/html") {
		return true
	}
	prefix := bytes.ToLower(bytes.TrimSpace(bodyPrefix))
	return bytes.HasPrefix(prefix, []byte("<!doctype html")) || bytes.HasPrefix(prefix, []byte("<html"))
}
