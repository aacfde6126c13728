package restsensor

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"text/template"
)

// NewSensorGrid creates one sensor per combination of dimension values,
// each polling the URL produced by the template.
//
// Dimension values are URL-encoded before interpolation. Missing template
// keys cause an error. Sensor names have the form "Base Name (val1/val2)",
// with values ordered by sorted dimension key.
//
// Example:
//
//	sensors, err := NewSensorGrid("Weather",
//	    WithURLTemplate("https://api.example.com/weather?city={{.city}}"),
//	    WithDimensions(map[string][]string{"city": {"Oslo", "Lima"}}),
//	    WithGridSensorOptions(WithValueExpr("value_json.temp"), WithUnit("°C")),
//	)
//	// usable with WithSensors(sensors...)
func NewSensorGrid(baseName string, opts ...GridOption) ([]Sensor, error) {
	if strings.TrimSpace(baseName) == "" {
		return nil, errors.New("base name cannot be empty")
	}

	cfg := &gridConfig{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.urlTemplate == "" {
		return nil, errors.New("URL template required")
	}
	if len(cfg.dimensions) == 0 {
		return nil, errors.New("at least one dimension required")
	}

	tmpl, err := template.New("url").Option("missingkey=error").Parse(cfg.urlTemplate)
	if err != nil {
		return nil, fmt.Errorf("invalid URL template: %w", err)
	}

	combinations := cartesianProduct(cfg.dimensions)
	sensors := make([]Sensor, 0, len(combinations))
	for _, combo := range combinations {
		urlStr, err := executeTemplate(tmpl, urlEncodeMap(combo))
		if err != nil {
			return nil, fmt.Errorf("template execution failed: %w", err)
		}

		name := formatGridName(baseName, combo)

		res, err := NewResource(urlStr, cfg.resourceOptions...)
		if err != nil {
			return nil, fmt.Errorf("sensor '%s': %w", name, err)
		}
		s, err := NewSensor(name, res, cfg.sensorOptions...)
		if err != nil {
			return nil, fmt.Errorf("sensor '%s': %w", name, err)
		}
		sensors = append(sensors, s)
	}

	return sensors, nil
}

// cartesianProduct generates all combinations of dimension values.
// Keys are iterated in sorted order; values keep their slice order.
//
//	Input:  {"x": ["a","b"], "y": ["1","2"]}
//	Output: [{"x":"a","y":"1"}, {"x":"a","y":"2"}, {"x":"b","y":"1"}, {"x":"b","y":"2"}]
func cartesianProduct(dims map[string][]string) []map[string]string {
	keys := sortedKeys(dims)
	if len(keys) == 0 {
		return nil
	}
	for _, k := range keys {
		if len(dims[k]) == 0 {
			return nil
		}
	}

	var result []map[string]string
	indices := make([]int, len(keys))
	for {
		combo := make(map[string]string, len(keys))
		for i, k := range keys {
			combo[k] = dims[k][indices[i]]
		}
		result = append(result, combo)

		// odometer increment, rightmost first
		for i := len(keys) - 1; i >= 0; i-- {
			indices[i]++
			if indices[i] < len(dims[keys[i]]) {
				break
			}
			indices[i] = 0
			if i == 0 {
				return result
			}
		}
	}
}

func urlEncodeMap(m map[string]string) map[string]string {
	result := make(map[string]string, len(m))
	for k, v := range m {
		result[k] = url.QueryEscape(v)
	}
	return result
}

func executeTemplate(tmpl *template.Template, data map[string]string) (string, error) {
	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// formatGridName creates a name in the format "Base (v1/v2)".
func formatGridName(baseName string, combo map[string]string) string {
	keys := sortedKeys(combo)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = combo[k]
	}
	return fmt.Sprintf("%s (%s)", baseName, strings.Join(parts, "/"))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
