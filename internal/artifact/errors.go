package artifact

import "fmt"

// ParseError reports a fatal artifact parsing failure: missing file,
// malformed JSON, or a missing required field. It aborts the invocation
// before any event is built.
type ParseError struct {
	Path  string
	Field string // required field that was missing, empty for file/JSON errors
	Err   error
}

func (e *ParseError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: missing required field %q", e.Path, e.Field)
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
