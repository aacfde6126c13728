// Package render evaluates the value expressions attached to sensors.
//
// Two expression languages are supported: Go text/template (with the sprig
// function library) and expr-lang expressions. Both see the same inputs:
// value, the raw text, and value_json, the decoded JSON when there is one.
package render

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Input is what an expression is evaluated against.
type Input struct {
	// Value is the raw text: the response body for a primary sensor, the
	// stringified matched node for a sub-sensor.
	Value string

	// JSON is the decoded form of Value, or nil when Value is not JSON.
	JSON any
}

func (in Input) env() map[string]any {
	return map[string]any{
		"value":      in.Value,
		"value_json": in.JSON,
	}
}

// Renderer turns an [Input] into the observed value.
type Renderer interface {
	Render(in Input) (string, error)
	String() string
}

// ErrNilResult is returned when an expression evaluates to nothing.
var ErrNilResult = errors.New("expression produced no value")

// PanicError reports a renderer that panicked.
type PanicError struct {
	CorrelationID string
	Value         any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("renderer panic (correlation_id: %s): %v", e.CorrelationID, e.Value)
}

// Render evaluates r against in and never fails: on any error, including a
// panic inside r, it returns def together with the cause so callers can
// count or log it.
func Render(r Renderer, in Input, def string) (out string, err error) {
	defer func() {
		if p := recover(); p != nil {
			out = def
			err = &PanicError{CorrelationID: uuid.NewString(), Value: p}
		}
	}()

	out, err = r.Render(in)
	if err != nil {
		return def, err
	}
	return out, nil
}

// Compile builds a renderer from a template or an expression source.
// Exactly one of template and expression may be non-empty; when both are
// empty Compile returns nil, nil.
func Compile(template, expression string) (Renderer, error) {
	switch {
	case template != "" && expression != "":
		return nil, errors.New("value_template and value_expr are mutually exclusive")
	case template != "":
		return NewTemplate(template)
	case expression != "":
		return NewExpr(expression)
	default:
		return nil, nil
	}
}
