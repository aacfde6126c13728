package sensor

import (
	"fmt"

	"github.com/jpalmerr/restsensor/internal/render"
	"github.com/ohler55/ojg/jp"
)

// SubConfig describes one sub-sensor.
type SubConfig struct {
	// ID is the slug identifying the sub-sensor within its resource.
	ID string

	// Name is the display name. Empty defaults to ID.
	Name string

	// Path is a JSONPath expression such as $.a[*].b or $.items[?(@.on == true)].name.
	Path string

	// Renderer is applied to the first match. nil passes the match through.
	Renderer render.Renderer
}

// SubValueExtractor derives one sub-sensor value from the shared [Document].
//
// The path is compiled once. A path that does not compile is not rejected
// here: every evaluation then fails with a [*QueryError] for this extractor
// alone.
type SubValueExtractor struct {
	id       string
	name     string
	path     string
	query    jp.Expr
	pathErr  error
	renderer render.Renderer
}

// NewSubValueExtractor compiles cfg.Path and returns the extractor.
func NewSubValueExtractor(cfg SubConfig) *SubValueExtractor {
	name := cfg.Name
	if name == "" {
		name = cfg.ID
	}

	e := &SubValueExtractor{
		id:       cfg.ID,
		name:     name,
		path:     cfg.Path,
		renderer: cfg.Renderer,
	}

	query, err := jp.ParseString(cfg.Path)
	if err != nil {
		e.pathErr = &QueryError{Path: cfg.Path, Err: err}
	} else {
		e.query = query
	}
	return e
}

// ID returns the sub-sensor slug.
func (e *SubValueExtractor) ID() string { return e.id }

// Name returns the display name.
func (e *SubValueExtractor) Name() string { return e.name }

// Path returns the JSONPath source.
func (e *SubValueExtractor) Path() string { return e.path }

// PathErr returns the compile error of the path, if any.
func (e *SubValueExtractor) PathErr() error { return e.pathErr }

// Extract returns the first node the path matches in doc.
//
// Errors: [ErrNoDocument] when doc is absent, [*QueryError] when the path is
// invalid or evaluation panics, [ErrNoMatch] when nothing (or only null)
// matched.
func (e *SubValueExtractor) Extract(doc Document) (node any, err error) {
	if !doc.Present() {
		return nil, ErrNoDocument
	}
	if e.pathErr != nil {
		return nil, e.pathErr
	}

	defer func() {
		if r := recover(); r != nil {
			node = nil
			err = &QueryError{Path: e.path, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	matches := doc.Query(e.query)
	if len(matches) == 0 || matches[0] == nil {
		return nil, ErrNoMatch
	}
	return matches[0], nil
}

// Evaluate runs the extraction and the optional rendering and returns the
// resulting state. Failures never propagate: they are reported on the
// returned [SubState].
func (e *SubValueExtractor) Evaluate(doc Document) SubState {
	state := SubState{ID: e.id, Name: e.name}

	node, err := e.Extract(doc)
	if err != nil {
		state.Err = err
		return state
	}

	value := render.Stringify(node)
	if e.renderer != nil {
		value, state.RenderErr = render.Render(e.renderer, render.Input{Value: value, JSON: node}, StateUnknown)
	}

	state.Value = value
	state.Present = true
	return state
}
