package restsensor

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jpalmerr/restsensor/internal/render"
	"github.com/jpalmerr/restsensor/internal/sensor"
)

// DefaultName is the sensor name used when none is given.
const DefaultName = "REST Sensor"

var slugPattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// Sensor is one polled [Resource] together with its primary value and its
// sub-sensors.
//
// Sensor is immutable after creation via [NewSensor]. Value templates and
// expressions are compiled during construction, so a Sensor that exists is
// one whose expressions parse.
type Sensor struct {
	name          string
	resource      Resource
	unit          string
	valueTemplate string
	valueExpr     string
	renderer      render.Renderer
	subs          []SubSensor
	interval      time.Duration
}

// Name returns the sensor's display name.
func (s Sensor) Name() string {
	return s.name
}

// Resource returns the polled resource.
func (s Sensor) Resource() Resource {
	return s.resource
}

// Unit returns the unit of measurement, or "".
func (s Sensor) Unit() string {
	return s.unit
}

// ValueTemplate returns the primary value template source, or "".
func (s Sensor) ValueTemplate() string {
	return s.valueTemplate
}

// ValueExpr returns the primary value expression source, or "".
func (s Sensor) ValueExpr() string {
	return s.valueExpr
}

// SubSensors returns a copy of the sub-sensors in configuration order.
func (s Sensor) SubSensors() []SubSensor {
	cp := make([]SubSensor, len(s.subs))
	copy(cp, s.subs)
	return cp
}

// Interval returns the sensor's polling interval, or 0 when the monitor's
// global interval applies.
func (s Sensor) Interval() time.Duration {
	return s.interval
}

// NewSensor creates a [Sensor] polling resource.
//
// An empty name defaults to [DefaultName]. A value template and a value
// expression are mutually exclusive. Sub-sensor ids must be unique.
//
// Example:
//
//	s, err := restsensor.NewSensor("Weather", res,
//	    restsensor.WithUnit("°C"),
//	    restsensor.WithValueTemplate("{{ .value_json.temp }}"),
//	    restsensor.WithSubSensors(humidity, wind),
//	)
func NewSensor(name string, resource Resource, opts ...SensorOption) (Sensor, error) {
	if name == "" {
		name = DefaultName
	}
	if resource.url == "" {
		return Sensor{}, errors.New("sensor requires a resource created with NewResource")
	}

	cfg := &sensorConfig{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return Sensor{}, err
		}
	}

	renderer, err := render.Compile(cfg.valueTemplate, cfg.valueExpr)
	if err != nil {
		return Sensor{}, err
	}

	seen := make(map[string]bool, len(cfg.subs))
	for _, sub := range cfg.subs {
		if seen[sub.id] {
			return Sensor{}, fmt.Errorf("duplicate sub-sensor id: %q", sub.id)
		}
		seen[sub.id] = true
	}

	return Sensor{
		name:          name,
		resource:      resource,
		unit:          cfg.unit,
		valueTemplate: cfg.valueTemplate,
		valueExpr:     cfg.valueExpr,
		renderer:      renderer,
		subs:          cfg.subs,
		interval:      cfg.interval,
	}, nil
}

// coordinatorConfig converts the sensor into the coordinator's configuration.
func (s Sensor) coordinatorConfig() sensor.Config {
	subs := make([]sensor.SubConfig, len(s.subs))
	for i, sub := range s.subs {
		subs[i] = sensor.SubConfig{
			ID:       sub.id,
			Name:     sub.name,
			Path:     sub.path,
			Renderer: sub.renderer,
		}
	}
	return sensor.Config{
		Name:     s.name,
		Unit:     s.unit,
		Interval: s.interval,
		Renderer: s.renderer,
		Subs:     subs,
	}
}

// SubSensor extracts one value from the JSON body of its parent [Sensor]'s
// resource with a JSONPath expression.
type SubSensor struct {
	id            string
	name          string
	path          string
	valueTemplate string
	valueExpr     string
	renderer      render.Renderer
}

// ID returns the sub-sensor slug.
func (s SubSensor) ID() string {
	return s.id
}

// Name returns the friendly name, which defaults to the id.
func (s SubSensor) Name() string {
	return s.name
}

// JSONPath returns the path expression.
func (s SubSensor) JSONPath() string {
	return s.path
}

// ValueTemplate returns the template source, or "".
func (s SubSensor) ValueTemplate() string {
	return s.valueTemplate
}

// ValueExpr returns the expression source, or "".
func (s SubSensor) ValueExpr() string {
	return s.valueExpr
}

// PathError reports whether the JSONPath compiles. A sub-sensor with a bad
// path is still accepted: it simply never has a value. Tools such as the
// validate command use PathError to warn about it.
func (s SubSensor) PathError() error {
	return sensor.NewSubValueExtractor(sensor.SubConfig{ID: s.id, Path: s.path}).PathErr()
}

// NewSubSensor creates a [SubSensor].
//
// id must be a slug of lowercase letters, digits and underscores. jsonPath
// must not be empty. A value template and a value expression are mutually
// exclusive.
//
// Example:
//
//	humidity, err := restsensor.NewSubSensor("humidity", "$.main.humidity",
//	    restsensor.WithFriendlyName("Humidity"),
//	    restsensor.WithSubValueTemplate("{{ .value }}%"),
//	)
func NewSubSensor(id, jsonPath string, opts ...SubSensorOption) (SubSensor, error) {
	if !slugPattern.MatchString(id) {
		return SubSensor{}, fmt.Errorf("sub-sensor id %q must match [a-z0-9_]+", id)
	}
	if jsonPath == "" {
		return SubSensor{}, fmt.Errorf("sub-sensor %q requires a json path", id)
	}

	cfg := &subSensorConfig{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return SubSensor{}, err
		}
	}

	renderer, err := render.Compile(cfg.valueTemplate, cfg.valueExpr)
	if err != nil {
		return SubSensor{}, fmt.Errorf("sub-sensor %q: %w", id, err)
	}

	name := cfg.friendlyName
	if name == "" {
		name = id
	}

	return SubSensor{
		id:            id,
		name:          name,
		path:          jsonPath,
		valueTemplate: cfg.valueTemplate,
		valueExpr:     cfg.valueExpr,
		renderer:      renderer,
	}, nil
}
