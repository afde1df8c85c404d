package wizard

import (
	"errors"
	"fmt"
)

// ErrAlreadyBuilding is returned by SessionStore.Begin when the user already
// has a build in progress.
var ErrAlreadyBuilding = errors.New("wizard: a build is already in progress")

// ContractError marks a state the UI and the engine can only reach when they
// have desynchronized: a stage the catalog does not know, a missing draft on a
// path that guarantees its presence, a malformed identifier. Handling of the
// offending event is aborted; the process keeps running.
type ContractError struct {
	Op     string
	Detail string
	Err    error
}

func (e *ContractError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("wizard contract violation in %s: %s: %v", e.Op, e.Detail, e.Err)
	}
	return fmt.Sprintf("wizard contract violation in %s: %s", e.Op, e.Detail)
}

func (e *ContractError) Unwrap() error { return e.Err }

func contractf(op string, err error, format string, args ...any) *ContractError {
	return &ContractError{Op: op, Detail: fmt.Sprintf(format, args...), Err: err}
}
