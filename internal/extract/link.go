package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// LinkFilter decides whether a resolved card link points at a listing
type LinkFilter func(u *url.URL) bool

// CanonicalLink returns the first anchor in card (or card itself) that resolves
// against base to an absolute http(s) URL accepted by filter. The fragment is dropped.
func CanonicalLink(card *goquery.Selection, base *url.URL, filter LinkFilter) (string, bool) {
	anchors := card.Filter("a[href]").AddSelection(card.Find("a[href]"))

	var found string
	anchors.EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		u, ok := Resolve(base, href)
		if !ok || (filter != nil && !filter(u)) {
			return true
		}
		found = u.String()
		return false
	})
	return found, found != ""
}

// Resolve makes href absolute against base, rejecting non-navigational links
func Resolve(base *url.URL, href string) (*url.URL, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return nil, false
	}
	lower := strings.ToLower(href)
	for _, p := range []string{"javascript:", "mailto:", "tel:", "data:"} {
		if strings.HasPrefix(lower, p) {
			return nil, false
		}
	}

	ref, err := url.Parse(href)
	if err != nil {
		return nil, false
	}
	u := ref
	if base != nil {
		u = base.ResolveReference(ref)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return nil, false
	}
	u.Fragment = ""
	u.RawFragment = ""
	return u, true
}

// PathContains accepts links whose path contains any of the fragments (case-insensitive)
func PathContains(fragments ...string) LinkFilter {
	return func(u *url.URL) bool {
		p := strings.ToLower(u.Path)
		for _, f := range fragments {
			if strings.Contains(p, strings.ToLower(f)) {
				return true
			}
		}
		return false
	}
}

// SameSite accepts links on host or any of its subdomains
func SameSite(host string) LinkFilter {
	host = strings.TrimPrefix(strings.ToLower(host), "www.")
	return func(u *url.URL) bool {
		h := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
		return h == host || strings.HasSuffix(h, "."+host)
	}
}
