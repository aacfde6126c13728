package sensor

import (
	"errors"
	"fmt"
)

// Failure kinds of one update cycle. None of them ever escapes
// [Coordinator.Update]; they are carried on the [Snapshot] so callers and
// the [Recorder] can tell why a value is absent.
var (
	// ErrNoBody means the fetch failed, so there is nothing to parse.
	ErrNoBody = errors.New("no response body")

	// ErrNotJSON means the body is not a JSON document (or is JSON null).
	ErrNotJSON = errors.New("response is not a JSON document")

	// ErrNoDocument means extraction was skipped because the shared parse failed.
	ErrNoDocument = errors.New("no JSON document to extract from")

	// ErrNoMatch means the path matched nothing, or only null.
	ErrNoMatch = errors.New("json path matched no value")
)

// QueryError reports a JSON path that could not be compiled or evaluated.
type QueryError struct {
	Path string
	Err  error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("json path %q: %v", e.Path, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// FailureKind names the failure for metrics labels.
func FailureKind(err error) string {
	var qe *QueryError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoBody):
		return "no_body"
	case errors.Is(err, ErrNotJSON):
		return "not_json"
	case errors.Is(err, ErrNoDocument):
		return "no_document"
	case errors.Is(err, ErrNoMatch):
		return "no_match"
	case errors.As(err, &qe):
		return "query"
	default:
		return "other"
	}
}
