// Path: internal/payload/payload.go

// Package payload turns upstream chart responses into canonical items.
//
// Upstream answers in one of two shapes:
//   - results: {"feed": {"results": [{"id": ..., "name": ..., ...}]}}
//   - entry:   {"feed": {"entry": [{"im:name": {"label": ...}, ...}]}}
//
// Decode classifies a body into a RawPayload variant and Normalize maps any
// variant to an ordered item list with 1-based ranks.
package payload

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/goccy/go-json"
)

// Shape tags a RawPayload variant.
type Shape int

const (
	ShapeEmpty Shape = iota
	ShapeResults
	ShapeEntry
)

func (s Shape) String() string {
	switch s {
	case ShapeResults:
		return "results"
	case ShapeEntry:
		return "entry"
	default:
		return "empty"
	}
}

// RawPayload is a decoded upstream response. It is one of ResultsPayload,
// EntryPayload or EmptyPayload.
type RawPayload interface {
	Shape() Shape
}

// ResultsPayload holds the flat records found under feed.results.
type ResultsPayload struct {
	Results []any
}

// Shape implements RawPayload.
func (ResultsPayload) Shape() Shape { return ShapeResults }

// EntryPayload holds the syndication-style records found under feed.entry.
type EntryPayload struct {
	Entries []any
}

// Shape implements RawPayload.
func (EntryPayload) Shape() Shape { return ShapeEntry }

// EmptyPayload is a response carrying neither known list.
type EmptyPayload struct{}

// Shape implements RawPayload.
func (EmptyPayload) Shape() Shape { return ShapeEmpty }

// Decode parses body and classifies it. feed.results wins over feed.entry;
// a key holding null counts as absent. Only invalid JSON is an error.
func Decode(body []byte) (RawPayload, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var root any
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}

	feedObj := lookup(root, "feed")
	if results := lookup(feedObj, "results"); results != nil {
		return ResultsPayload{Results: asList(results, false)}, nil
	}
	if entries := lookup(feedObj, "entry"); entries != nil {
		// A feed with a single entry is serialized as an object, not a list.
		return EntryPayload{Entries: asList(entries, true)}, nil
	}
	return EmptyPayload{}, nil
}

// lookup walks nested objects. Any missing or non-object step yields nil.
func lookup(v any, path ...string) any {
	current := v
	for _, key := range path {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = obj[key]
	}
	return current
}

// asList returns v as a list. When wrapObject is set a lone object becomes a
// one-element list; other non-list values yield an empty list.
func asList(v any, wrapObject bool) []any {
	switch t := v.(type) {
	case []any:
		return t
	case map[string]any:
		if wrapObject {
			return []any{t}
		}
	}
	return []any{}
}

// str degrades anything that is not a string or number to "".
func str(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}
