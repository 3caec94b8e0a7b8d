package extract

import (
	"bytes"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Path patterns that suggest a page is policy/legal content.
var policyPathPattern = regexp.MustCompile(
	`(?i)/(privacy|policy|policies|legal|terms|tos|gdpr|ccpa|cookie|data-protection|` +
		`acceptable-use|community-guidelines|copyright|dmca|eula|sla|dpa|` +
		`data-processing|subprocessors|security|compliance)`)

// DiscoverLinks scans anchors for same-site URLs that look like related
// policy/legal pages. Returns a deduplicated, sorted list of absolute
// URLs with query and fragment stripped.
func DiscoverLinks(rawHTML []byte, pageURL string) []string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(rawHTML))
	if err != nil {
		return nil
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}
	baseHost := strings.ToLower(base.Hostname())
	basePath := strings.TrimRight(base.Path, "/")

	seen := map[string]struct{}{}
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") ||
			strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "javascript:") {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref)

		// Same registrable domain only: exact host or subdomain.
		host := strings.ToLower(abs.Hostname())
		if host != baseHost && !strings.HasSuffix(host, "."+baseHost) {
			return
		}

		linkPath := strings.TrimRight(abs.Path, "/")
		if linkPath == basePath {
			return
		}

		isSubpath := basePath != "" && strings.HasPrefix(linkPath, basePath+"/")
		if !isSubpath && !policyPathPattern.MatchString(linkPath) {
			return
		}

		clean := strings.TrimRight(abs.Scheme+"://"+abs.Host+abs.Path, "/")
		seen[clean] = struct{}{}
	})

	links := make([]string, 0, len(seen))
	for l := range seen {
		links = append(links, l)
	}
	sort.Strings(links)
	return links
}
