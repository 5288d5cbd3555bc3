// Package urlpath canonicalises CMS slugs and URL paths.
//
// Every function here is total: blank or garbage input produces "" or "/",
// never an error. Normalised segments are lowercase runs of letters and
// digits joined by single hyphens.
package urlpath

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Root is the canonical path of the homepage.
const Root = "/"

// NormalizeSegment lowercases input and collapses every run of characters
// that are not letters or digits into a single hyphen. Leading and trailing
// hyphens are trimmed.
func NormalizeSegment(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return ""
	}

	lowered := norm.NFC.String(strings.ToLower(trimmed))

	var b strings.Builder
	b.Grow(len(lowered))
	pendingHyphen := false
	for _, r := range lowered {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}

	return b.String()
}

// NormalizePath normalises each slash-separated segment of path and drops the
// ones that end up empty. Blank input and "/" both yield Root.
func NormalizePath(path string) string {
	segments := Segments(path)
	if len(segments) == 0 {
		return Root
	}
	return "/" + strings.Join(segments, "/")
}

// NormalizeCustomURL is NormalizePath for administrator supplied custom URLs.
func NormalizeCustomURL(path string) string {
	if strings.TrimSpace(path) == "" {
		return Root
	}
	return NormalizePath(path)
}

// Segments returns the normalised, non-empty segments of path.
func Segments(path string) []string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" || trimmed == Root {
		return nil
	}

	parts := strings.Split(trimmed, "/")
	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		if segment := NormalizeSegment(part); segment != "" {
			segments = append(segments, segment)
		}
	}
	return segments
}

// TopLevelSegment returns the first normalised segment of path. The boolean
// is false for the root path and for input without any usable segment.
func TopLevelSegment(path string) (string, bool) {
	segments := Segments(path)
	if len(segments) == 0 {
		return "", false
	}
	return segments[0], true
}

// Join appends slug to a parent path. A root parent yields "/" + slug.
func Join(parentPath, slug string) string {
	base := strings.TrimRight(strings.TrimSpace(parentPath), "/")
	if base == "" {
		return "/" + slug
	}
	return base + "/" + slug
}

// HasFileExtension reports whether the last element of path looks like a
// file name, such as "/static/site.css".
func HasFileExtension(path string) bool {
	last := path
	if idx := strings.LastIndex(path, "/"); idx >= 0 {
		last = path[idx+1:]
	}
	dot := strings.LastIndex(last, ".")
	return dot >= 0 && dot < len(last)-1
}
