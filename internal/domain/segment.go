// Path: internal/domain/segment.go
package domain

import (
	"regexp"
	"time"
)

// LatestName is the file stem of every rolling "latest" copy.
const LatestName = "latest"

var segmentPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// ValidSegment reports whether a lower-cased region, category or feed value
// can be used as one element of an artifact path. Values that would shadow
// the latest or dated files written next to a slice are rejected.
func ValidSegment(s string) bool {
	if !segmentPattern.MatchString(s) || s == LatestName {
		return false
	}
	if _, err := time.Parse(DateLayout, s); err == nil {
		return false
	}
	return true
}
