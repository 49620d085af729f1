package imageurl

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	// rejectToken marks decoration rather than listing photos
	rejectToken = regexp.MustCompile(`(?i)icon|logo|placeholder|avatar|pixel|blank|spacer|loader|no-?image|\.svg(?:[?#]|$)`)
	imageExt    = regexp.MustCompile(`(?i)\.(?:jpe?g|png|webp|gif|bmp|avif)(?:[?#]|$)`)
)

// Normalize turns a raw attribute value into an absolute https URL.
// Protocol-relative and root-relative values are rewritten against origin.
func Normalize(raw string, origin *url.URL) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	lower := strings.ToLower(raw)
	for _, p := range []string{"data:", "javascript:", "about:", "blob:"} {
		if strings.HasPrefix(lower, p) {
			return "", false
		}
	}

	switch {
	case strings.HasPrefix(raw, "//"):
		raw = "https:" + raw
	case strings.HasPrefix(lower, "http://"):
		raw = "https://" + raw[len("http://"):]
	}

	ref, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	u := ref
	if !ref.IsAbs() {
		if origin == nil {
			return "", false
		}
		u = origin.ResolveReference(ref)
		u.Scheme = "https"
	}
	if u.Scheme != "https" || u.Host == "" {
		return "", false
	}
	return u.String(), true
}

// Acceptable reports whether a normalized URL looks like a listing photo
func Acceptable(u string) bool {
	return u != "" && !rejectToken.MatchString(u)
}

// firstSrcset returns the URL of the first srcset candidate
func firstSrcset(v string) string {
	first := strings.TrimSpace(strings.Split(v, ",")[0])
	if i := strings.IndexAny(first, " \t"); i >= 0 {
		first = first[:i]
	}
	return first
}

// HasImageExtension reports whether u's path ends in a known image extension
func HasImageExtension(u string) bool {
	return imageExt.MatchString(u)
}
