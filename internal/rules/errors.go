package rules

import "fmt"

// NotFoundError reports a lookup for a rule id that is not in the
// repository. The offending id is always carried so callers can surface it.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("rule with ID '%s' not found", e.ID)
}

// ContentLoadError reports a failure reading a rule body from its backing
// location. It affects the single load call only.
type ContentLoadError struct {
	Path string
	Err  error
}

func (e *ContentLoadError) Error() string {
	return fmt.Sprintf("failed to load rule content from %s: %v", e.Path, e.Err)
}

func (e *ContentLoadError) Unwrap() error {
	return e.Err
}
