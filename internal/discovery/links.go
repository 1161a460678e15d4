package discovery

import (
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// link is one anchor together with the heading that was active where it
// appeared in the document.
type link struct {
	href    string
	text    string
	rel     string
	heading string
}

// collectLinks walks the document in order, tracking the most recent h1..h5
// heading so every anchor knows which section it belongs to.
func collectLinks(doc *goquery.Document) []link {
	var links []link
	heading := ""
	doc.Find("h1, h2, h3, h4, h5, a[href]").Each(func(_ int, s *goquery.Selection) {
		if goquery.NodeName(s) == "a" {
			href, _ := s.Attr("href")
			rel, _ := s.Attr("rel")
			links = append(links, link{
				href:    href,
				text:    squashSpace(s.Text()),
				rel:     rel,
				heading: heading,
			})
			return
		}
		if h := squashSpace(s.Text()); h != "" {
			heading = h
		}
	})
	return links
}

func squashSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// normalizeURL resolves href against base and strips any fragment, so the
// same document linked from several anchors dedupes to one URL.
func normalizeURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(ref)
	resolved.Fragment = ""
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	return resolved.String()
}

func extOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(path.Ext(u.Path))
}

func hasExt(rawURL string, exts []string) bool {
	e := extOf(rawURL)
	if e == "" {
		return false
	}
	for _, want := range exts {
		if e == strings.ToLower(want) {
			return true
		}
	}
	return false
}

func titleFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		return rawURL
	}
	return name
}
