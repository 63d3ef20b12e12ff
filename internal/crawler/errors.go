// internal/crawler/errors.go
package crawler

import (
	"errors"
	"fmt"
)

// ExhaustedRetriesError reports that an operation failed on every allowed
// attempt. It wraps the error from the final attempt.
type ExhaustedRetriesError struct {
	Op       string
	Attempts int
	Err      error
}

func (e *ExhaustedRetriesError) Error() string {
	return fmt.Sprintf("%s failed after %d attempt(s): %v", e.Op, e.Attempts, e.Err)
}

func (e *ExhaustedRetriesError) Unwrap() error {
	return e.Err
}

// IsExhausted reports whether err is (or wraps) an exhausted-retries error.
func IsExhausted(err error) bool {
	var exhausted *ExhaustedRetriesError
	return errors.As(err, &exhausted)
}
