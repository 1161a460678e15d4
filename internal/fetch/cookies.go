package fetch

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Cookie is one jar-file record, matching both the Netscape text format and
// the JSON shape browser extensions export.
type Cookie struct {
	Domain  string `json:"domain"`
	Path    string `json:"path"`
	Secure  bool   `json:"secure"`
	Expires int64  `json:"expires"`
	Name    string `json:"name"`
	Value   string `json:"value"`
}

// PresetCookie is injected into a jar on top of whatever the jar file
// provides, e.g. a consent cookie a site sets after age verification.
type PresetCookie struct {
	Domain string
	Name   string
	Value  string
}

// JarAvailable reports whether a usable cookie jar file exists at path,
// accepting the .json sibling of a missing .txt jar the way a browser
// export usually lands.
func JarAvailable(path string) bool {
	return resolveJarPath(path) != ""
}

func resolveJarPath(path string) string {
	if path == "" {
		return ""
	}
	if _, err := os.Stat(path); err == nil {
		return path
	}
	if filepath.Ext(path) == ".txt" {
		sibling := strings.TrimSuffix(path, ".txt") + ".json"
		if _, err := os.Stat(sibling); err == nil {
			return sibling
		}
	}
	return ""
}

// NewJar builds a cookie jar from the file at path (Netscape .txt or
// browser-export .json), keeping only cookies under domainFilter, then lays
// the presets on top. A missing file yields a jar holding just the presets.
func NewJar(path, domainFilter string, presets []PresetCookie) (http.CookieJar, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	if resolved := resolveJarPath(path); resolved != "" {
		cookies, err := readCookieFile(resolved)
		if err != nil {
			return nil, err
		}
		for _, c := range cookies {
			if !domainMatches(c.Domain, domainFilter) {
				continue
			}
			cookie := &http.Cookie{
				Name:   c.Name,
				Value:  c.Value,
				Path:   c.Path,
				Domain: strings.TrimPrefix(c.Domain, "."),
				Secure: c.Secure,
			}
			// Zero expiry stays a session cookie; time.Unix(0, 0) would
			// read as expired and the jar would drop it.
			if c.Expires > 0 {
				cookie.Expires = time.Unix(c.Expires, 0)
			}
			setJarCookie(jar, c.Domain, cookie)
		}
	}

	for _, p := range presets {
		setJarCookie(jar, p.Domain, &http.Cookie{
			Name:   p.Name,
			Value:  p.Value,
			Path:   "/",
			Domain: strings.TrimPrefix(p.Domain, "."),
		})
	}

	return jar, nil
}

func readCookieFile(path string) ([]Cookie, error) {
	if filepath.Ext(path) == ".json" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read cookie file: %w", err)
		}
		var cookies []Cookie
		if err := json.Unmarshal(data, &cookies); err != nil {
			return nil, fmt.Errorf("parse cookie export: %w", err)
		}
		return cookies, nil
	}
	return ReadNetscapeJar(path)
}

// ReadNetscapeJar parses a Netscape cookies.txt file: one cookie per line,
// seven tab-separated fields.
func ReadNetscapeJar(path string) ([]Cookie, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open cookie jar: %w", err)
	}
	defer f.Close()

	var cookies []Cookie
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 7 {
			continue
		}
		expires, _ := strconv.ParseInt(fields[4], 10, 64)
		cookies = append(cookies, Cookie{
			Domain:  fields[0],
			Path:    fields[2],
			Secure:  fields[3] == "TRUE",
			Expires: expires,
			Name:    fields[5],
			Value:   fields[6],
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read cookie jar: %w", err)
	}
	return cookies, nil
}

// WriteNetscapeJar writes cookies matching domainFilter to path in Netscape
// format and returns how many were written. Used to hand a browser-exported
// session to the headless helper.
func WriteNetscapeJar(cookies []Cookie, path, domainFilter string) (int, error) {
	var sb strings.Builder
	sb.WriteString("# Netscape HTTP Cookie File\n")

	count := 0
	for _, c := range cookies {
		if !domainMatches(c.Domain, domainFilter) {
			continue
		}
		includeSubs := "FALSE"
		if strings.HasPrefix(c.Domain, ".") {
			includeSubs = "TRUE"
		}
		secure := "FALSE"
		if c.Secure {
			secure = "TRUE"
		}
		cookiePath := c.Path
		if cookiePath == "" {
			cookiePath = "/"
		}
		fmt.Fprintf(&sb, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			c.Domain, includeSubs, cookiePath, secure, c.Expires, c.Name, c.Value)
		count++
	}

	if err := os.WriteFile(path, []byte(sb.String()), 0o600); err != nil {
		return 0, fmt.Errorf("write cookie jar: %w", err)
	}
	return count, nil
}

func domainMatches(cookieDomain, filter string) bool {
	if filter == "" {
		return true
	}
	domain := strings.TrimPrefix(cookieDomain, ".")
	return domain == filter || strings.HasSuffix(domain, "."+filter)
}

func setJarCookie(jar http.CookieJar, domain string, cookie *http.Cookie) {
	host := strings.TrimPrefix(domain, ".")
	jar.SetCookies(&url.URL{Scheme: "https", Host: host, Path: "/"}, []*http.Cookie{cookie})
}
