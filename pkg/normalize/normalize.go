// Package normalize turns raw hashtags and account handles into the
// canonical keys used for storage, filtering and deduplication.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Tag strips leading '#' characters and surrounding space, folds the
// Unicode form and lowercases. It returns "" for input with no tag body.
func Tag(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimLeft(s, "#")
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return strings.ToLower(norm.NFKC.String(s))
}

// Tags normalizes every entry, drops empties and removes duplicates while
// keeping first-seen order. The result is never nil.
func Tags(raw []string) []string {
	out := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, r := range raw {
		t := Tag(r)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// Handle canonicalizes an account reference. "@Alice@Example.Social"
// becomes "alice@example.social"; a bare numeric account id is kept as is.
func Handle(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "@")
	if s == "" || strings.ContainsFunc(s, unicode.IsSpace) {
		return ""
	}
	user, host, hasHost := strings.Cut(s, "@")
	if user == "" || (hasHost && (host == "" || strings.Contains(host, "@"))) {
		return ""
	}
	if !hasHost {
		return strings.ToLower(user)
	}
	return strings.ToLower(user) + "@" + strings.ToLower(host)
}

// Handles is Tags for account references.
func Handles(raw []string) []string {
	out := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, r := range raw {
		h := Handle(r)
		if h == "" {
			continue
		}
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, h)
	}
	return out
}

// IsAccountID reports whether s looks like a remote numeric account id
// rather than a handle that still needs a lookup.
func IsAccountID(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
