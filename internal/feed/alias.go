// Path: internal/feed/alias.go

// Package feed resolves user-supplied feed identifiers to canonical ids.
//
// Two naming schemes exist upstream: the hyphenated ids of the current
// marketing API ("top-free") and the concatenated ids of the legacy RSS
// endpoint ("topfreeapplications"). Everything downstream works with the
// canonical spelling.
package feed

import "strings"

// Canonical feed identifiers.
const (
	TopFree     = "top-free"
	TopPaid     = "top-paid"
	TopGrossing = "top-grossing"
)

// Default is used when the input is blank.
const Default = TopFree

var legacyAliases = map[string]string{
	"topfreeapplications":     TopFree,
	"toppaidapplications":     TopPaid,
	"topgrossingapplications": TopGrossing,
}

var legacyNames = map[string]string{
	TopFree:     "topfreeapplications",
	TopPaid:     "toppaidapplications",
	TopGrossing: "topgrossingapplications",
}

// families maps a substring of a non-canonical id to the canonical id it
// belongs to. Order matters: it fixes the order of fallback candidates.
var families = []struct {
	substr    string
	canonical string
}{
	{"topfree", TopFree},
	{"toppaid", TopPaid},
	{"topgrossing", TopGrossing},
}

// Normalize maps a feed identifier to its canonical id. Unknown ids are
// lower-cased and passed through so new upstream feeds keep working.
func Normalize(input string) string {
	text := strings.ToLower(strings.TrimSpace(input))
	if text == "" {
		return Default
	}
	if canonical, ok := legacyAliases[text]; ok {
		return canonical
	}
	return text
}

// Candidates returns the ordered, duplicate-free list of feed ids to try for
// input. The first element is always Normalize(input).
func Candidates(input string) []string {
	normalized := Normalize(input)
	out := []string{normalized}
	seen := map[string]struct{}{normalized: {}}
	for _, f := range families {
		if !strings.Contains(normalized, f.substr) {
			continue
		}
		if _, ok := seen[f.canonical]; ok {
			continue
		}
		seen[f.canonical] = struct{}{}
		out = append(out, f.canonical)
	}
	return out
}

// LegacyName returns the legacy RSS spelling of a canonical feed id.
// Ids without a legacy spelling are returned unchanged.
func LegacyName(canonical string) string {
	if name, ok := legacyNames[canonical]; ok {
		return name
	}
	return canonical
}
