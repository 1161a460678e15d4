package fetch

import (
	"encoding/json"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteNetscapeJar_FiltersAndFormats(t *testing.T) {
	cookies := []Cookie{
		{Domain: ".justice.gov", Path: "/", Secure: true, Expires: 2000000000, Name: "session", Value: "abc123"},
		{Domain: ".example.com", Path: "/", Secure: false, Expires: 2000000000, Name: "other", Value: "nope"},
	}
	path := filepath.Join(t.TempDir(), "cookies.txt")

	count, err := WriteNetscapeJar(cookies, path, "justice.gov")
	require.NoError(t, err)
	require.Equal(t, 1, count)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(content), "# Netscape HTTP Cookie File"))
	require.Contains(t, string(content), "justice.gov")
	require.NotContains(t, string(content), "example.com")
}

func TestNetscapeJar_RoundTrip(t *testing.T) {
	cookies := []Cookie{
		{Domain: ".justice.gov", Path: "/epstein", Secure: true, Expires: 2000000000, Name: "session", Value: "abc123"},
	}
	path := filepath.Join(t.TempDir(), "cookies.txt")

	_, err := WriteNetscapeJar(cookies, path, "")
	require.NoError(t, err)

	got, err := ReadNetscapeJar(path)
	require.NoError(t, err)
	require.Equal(t, cookies, got)
}

func TestNewJar_InjectsPresets(t *testing.T) {
	jar, err := NewJar("", "", []PresetCookie{
		{Domain: ".justice.gov", Name: "justiceGovAgeVerified", Value: "true"},
	})
	require.NoError(t, err)

	u, _ := url.Parse("https://www.justice.gov/files/doc.pdf")
	found := false
	for _, c := range jar.Cookies(u) {
		if c.Name == "justiceGovAgeVerified" && c.Value == "true" {
			found = true
		}
	}
	require.True(t, found, "preset cookie should apply to subdomains")
}

func TestNewJar_FallsBackToJSONExport(t *testing.T) {
	dir := t.TempDir()
	export := []Cookie{
		{Domain: ".justice.gov", Path: "/", Secure: true, Expires: 2000000000, Name: "session", Value: "abc123"},
		{Domain: ".example.com", Path: "/", Name: "other", Value: "nope"},
	}
	data, err := json.Marshal(export)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cookies.json"), data, 0o600))

	// The .txt path is missing; its .json sibling is picked up.
	jar, err := NewJar(filepath.Join(dir, "cookies.txt"), "justice.gov", nil)
	require.NoError(t, err)

	u, _ := url.Parse("https://www.justice.gov/")
	names := make([]string, 0, 1)
	for _, c := range jar.Cookies(u) {
		names = append(names, c.Name)
	}
	require.Equal(t, []string{"session"}, names)

	other, _ := url.Parse("https://www.example.com/")
	require.Empty(t, jar.Cookies(other), "filtered domain must not load")
}

func TestJarAvailable(t *testing.T) {
	dir := t.TempDir()
	require.False(t, JarAvailable(""))
	require.False(t, JarAvailable(filepath.Join(dir, "cookies.txt")))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "cookies.json"), []byte("[]"), 0o600))
	require.True(t, JarAvailable(filepath.Join(dir, "cookies.txt")), "json sibling counts")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "cookies.txt"), []byte("# Netscape HTTP Cookie File\n"), 0o600))
	require.True(t, JarAvailable(filepath.Join(dir, "cookies.txt")))
}
