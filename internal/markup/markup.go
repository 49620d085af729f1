// Package markup holds the small DOM helpers shared by card location and field
// extraction: attribute-pattern hints and whitespace-safe text flattening.
package markup

import (
	"fmt"
	"regexp"
	"strings"

	"sjsage522/estateworker/helpers"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Hint locates elements by tag and an attribute pattern
type Hint struct {
	Tag     string         // tag selector, "*" for any
	Attr    string         // attribute tested, "class" when empty and Pattern is set
	Pattern *regexp.Regexp // nil only requires the attribute to exist; with no Attr, any element
}

// Class builds a hint matching tag elements whose class attribute matches pattern (case-insensitive)
func Class(tag, pattern string) Hint {
	return Hint{Tag: tag, Attr: "class", Pattern: regexp.MustCompile(`(?i)` + pattern)}
}

// Tag builds a hint matching every tag element
func Tag(tag string) Hint {
	return Hint{Tag: tag}
}

// Attr builds a hint matching tag elements whose attr matches pattern (case-insensitive)
func Attr(tag, attr, pattern string) Hint {
	h := Hint{Tag: tag, Attr: attr}
	if pattern != "" {
		h.Pattern = regexp.MustCompile(`(?i)` + pattern)
	}
	return h
}

// String renders the hint for logs
func (h Hint) String() string {
	attr := h.Attr
	if attr == "" {
		if h.Pattern == nil {
			return h.tag()
		}
		attr = "class"
	}
	if h.Pattern == nil {
		return fmt.Sprintf("%s[%s]", h.tag(), attr)
	}
	return fmt.Sprintf("%s[%s~/%s/]", h.tag(), attr, strings.TrimPrefix(h.Pattern.String(), "(?i)"))
}

func (h Hint) tag() string {
	if h.Tag == "" {
		return "*"
	}
	return h.Tag
}

// Matches reports whether the first node of s satisfies the hint's attribute test
func (h Hint) Matches(s *goquery.Selection) bool {
	attr := h.Attr
	if attr == "" {
		if h.Pattern == nil {
			return true
		}
		attr = "class"
	}
	v, ok := s.Attr(attr)
	if !ok {
		return false
	}
	return h.Pattern == nil || h.Pattern.MatchString(v)
}

// Find returns the descendants of s that satisfy the hint, in document order
func (h Hint) Find(s *goquery.Selection) *goquery.Selection {
	return s.Find(h.tag()).FilterFunction(func(_ int, el *goquery.Selection) bool {
		return h.Matches(el)
	})
}

// FirstText walks hints in order and returns the first matched element text that
// normalize accepts, as rewritten by normalize. A nil normalize accepts any text.
func FirstText(s *goquery.Selection, hints []Hint, normalize func(string) (string, bool)) (string, bool) {
	for _, h := range hints {
		var found string
		h.Find(s).EachWithBreak(func(_ int, el *goquery.Selection) bool {
			text := Text(el)
			if text == "" {
				return true
			}
			if normalize == nil {
				found = text
				return false
			}
			if v, ok := normalize(text); ok && v != "" {
				found = v
				return false
			}
			return true
		})
		if found != "" {
			return found, true
		}
	}
	return "", false
}

// Text flattens the visible text of s, separating text nodes with spaces so
// adjacent elements never run together.
func Text(s *goquery.Selection) string {
	var b strings.Builder
	for _, n := range s.Nodes {
		collect(&b, n)
	}
	return helpers.CleanText(b.String())
}

func collect(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		b.WriteByte(' ')
		return
	case html.ElementNode:
		switch n.Data {
		case "script", "style", "noscript", "template":
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collect(b, c)
	}
}
