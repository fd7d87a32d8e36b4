// Path: internal/service/errors.go
package service

import (
	"fmt"

	"rank-sync/internal/domain"
)

// NoDatasetsSucceededError means every task of a run failed. Nothing was
// written and the ledger was not touched.
type NoDatasetsSucceededError struct {
	Failures []domain.Warning
	Errs     []error
}

func (e *NoDatasetsSucceededError) Error() string {
	msg := fmt.Sprintf("no datasets succeeded: all %d tasks failed", len(e.Failures))
	if len(e.Errs) > 0 {
		msg += fmt.Sprintf(" (first: %v)", e.Errs[0])
	}
	return msg
}

func (e *NoDatasetsSucceededError) Unwrap() []error { return e.Errs }
