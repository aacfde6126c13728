package sensor

import (
	"github.com/jpalmerr/restsensor/internal/poller"
	"github.com/jpalmerr/restsensor/internal/render"
)

// StateUnknown is the value reported when no real value could be determined.
const StateUnknown = "unknown"

// PrimaryValue derives the top-level sensor value from the raw body.
//
// Availability follows the fetch alone. A renderer failure still reports
// available=true with the unknown value, matching the REST sensor platform
// this package reproduces; dependents rely on that coupling.
type PrimaryValue struct {
	name     string
	unit     string
	renderer render.Renderer
}

// NewPrimaryValue returns a primary value. renderer may be nil.
func NewPrimaryValue(name, unit string, renderer render.Renderer) *PrimaryValue {
	return &PrimaryValue{name: name, unit: unit, renderer: renderer}
}

// PrimaryState is the outcome of one [PrimaryValue.Evaluate].
type PrimaryState struct {
	Value     string
	Available bool
	RenderErr error
}

// Evaluate computes the value for a fetch result. doc is the shared parse of
// the same body and is offered to the renderer as value_json.
func (p *PrimaryValue) Evaluate(res poller.FetchResult, doc Document) PrimaryState {
	body, ok := res.Text()
	switch {
	case !ok:
		return PrimaryState{Value: StateUnknown}
	case p.renderer == nil:
		return PrimaryState{Value: body, Available: true}
	}

	value, err := render.Render(p.renderer, render.Input{Value: body, JSON: doc.value()}, StateUnknown)
	return PrimaryState{Value: value, Available: true, RenderErr: err}
}

// Name returns the sensor name.
func (p *PrimaryValue) Name() string { return p.name }

// Unit returns the unit of measurement, or "".
func (p *PrimaryValue) Unit() string { return p.unit }
