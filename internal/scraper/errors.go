// Path: internal/scraper/errors.go
package scraper

import (
	"fmt"
	"strings"
)

// StatusError is a non-2xx upstream response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d", e.Code)
}

// FetchError is returned when one URL exhausted its attempts and no
// fallback payload was available.
type FetchError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s failed after %d attempt(s): %v", e.URL, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// AllCandidatesFailedError is returned when no feed candidate of a task
// produced a payload. Errs holds one error per candidate, in order.
type AllCandidatesFailedError struct {
	Region     string
	Category   string
	Feed       string
	Candidates []string
	Errs       []error
}

func (e *AllCandidatesFailedError) Error() string {
	msgs := make([]string, len(e.Errs))
	for i, err := range e.Errs {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("all feed candidates failed for %s/%s/%s (tried %s): %s",
		e.Region, e.Category, e.Feed, strings.Join(e.Candidates, ", "), strings.Join(msgs, "; "))
}

func (e *AllCandidatesFailedError) Unwrap() []error { return e.Errs }
