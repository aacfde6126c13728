// Package config provides YAML and TOML configuration parsing for restsensor.
//
// This package enables running restsensor as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
//
// Example configuration:
//
//	port: 8080
//	poll_interval: 30s
//
//	resources:
//	  - name: Weather
//	    resource: https://api.example.com/weather
//	    unit_of_measurement: "°C"
//	    value_template: '{{ .value_json.temp }}'
//	    sensors:
//	      humidity:
//	        json_path: $.humidity
//	        value_template: '{{ .value }}'
//
//	grids:
//	  - name: City
//	    url_template: "https://api.example.com/weather?city={{.city}}"
//	    dimensions:
//	      city: [Oslo, Lima]
//	    value_expr: value_json.temp
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/jpalmerr/restsensor"
	"github.com/jpalmerr/restsensor/internal/render"
)

// minPollInterval is the minimum allowed polling interval.
const minPollInterval = 1 * time.Second

// Config is the root configuration structure for restsensor.
//
// Use [Load], [Parse] or [ParseTOML] to create a Config.
type Config struct {
	// Title is the dashboard title. Defaults to "REST Sensor" if not set.
	Title string `yaml:"title" toml:"title"`

	// Port is the HTTP server port. Defaults to 8080.
	Port int `yaml:"port" toml:"port"`

	// PollInterval is the time between poll cycles. Defaults to 15s.
	PollInterval Duration `yaml:"poll_interval" toml:"poll_interval"`

	// Resources are polled endpoints, each feeding one primary sensor and
	// its sub-sensors.
	Resources []ResourceConfig `yaml:"resources" toml:"resources"`

	// Grids expand into one resource per dimension combination.
	Grids []GridConfig `yaml:"grids" toml:"grids"`
}

// ResourceConfig defines one polled resource and the sensors it feeds.
type ResourceConfig struct {
	// Name is the primary sensor's name. Defaults to "REST Sensor".
	Name string `yaml:"name" toml:"name"`

	// Resource is the URL to poll.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	Resource string `yaml:"resource" toml:"resource"`

	// Method is GET (default) or POST.
	Method string `yaml:"method" toml:"method"`

	// Authentication is "basic" or "digest". Requires Username and Password.
	Authentication string `yaml:"authentication" toml:"authentication"`
	Username       string `yaml:"username" toml:"username"`
	Password       string `yaml:"password" toml:"password"`

	// Headers are sent with every request. Values support substitution.
	Headers map[string]string `yaml:"headers" toml:"headers"`

	// Payload is the request body, sent identically each cycle.
	Payload string `yaml:"payload" toml:"payload"`

	// VerifySSL defaults to true.
	VerifySSL *bool `yaml:"verify_ssl" toml:"verify_ssl"`

	// Timeout is the request timeout. Defaults to 10s.
	Timeout Duration `yaml:"timeout" toml:"timeout"`

	// Interval overrides poll_interval for this resource. Must be between
	// 1s and 1h.
	Interval Duration `yaml:"interval" toml:"interval"`

	Unit string `yaml:"unit_of_measurement" toml:"unit_of_measurement"`

	// ValueTemplate (text/template) or ValueExpr (expr-lang) renders the
	// primary value. At most one may be set.
	ValueTemplate string `yaml:"value_template" toml:"value_template"`
	ValueExpr     string `yaml:"value_expr" toml:"value_expr"`

	// Sensors are the sub-sensors, in evaluation order.
	Sensors SubSensorList `yaml:"sensors" toml:"sensors"`
}

// GridConfig defines resources that expand via cartesian product.
//
// With dimensions {city: [Oslo, Lima], unit: [metric, imperial]} the grid
// expands to 4 resources.
type GridConfig struct {
	ResourceConfig `yaml:",inline"`

	// URLTemplate is a Go template for generating resource URLs.
	// Dimension keys are available as template variables: {{.city}}
	URLTemplate string `yaml:"url_template" toml:"url_template"`

	// Dimensions maps dimension names to their possible values.
	Dimensions map[string][]string `yaml:"dimensions" toml:"dimensions"`
}

// SubSensorConfig defines one sub-sensor extracted from the shared body.
type SubSensorConfig struct {
	// ID is the slug. In the YAML mapping form it is the mapping key.
	ID string `yaml:"id" toml:"id"`

	JSONPath     string `yaml:"json_path" toml:"json_path"`
	FriendlyName string `yaml:"friendly_name" toml:"friendly_name"`

	// Exactly one of ValueTemplate and ValueExpr is required.
	ValueTemplate string `yaml:"value_template" toml:"value_template"`
	ValueExpr     string `yaml:"value_expr" toml:"value_expr"`
}

// SubSensorList is the ordered list of sub-sensors of a resource.
//
// In YAML it accepts either a mapping keyed by slug, whose document order is
// kept, or a sequence of entries carrying an id:
//
//	sensors:
//	  humidity:
//	    json_path: $.humidity
//
//	sensors:
//	  - id: humidity
//	    json_path: $.humidity
type SubSensorList []SubSensorConfig

// UnmarshalYAML implements yaml.Unmarshaler for SubSensorList.
func (l *SubSensorList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.MappingNode:
		out := make(SubSensorList, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			var id string
			if err := node.Content[i].Decode(&id); err != nil {
				return err
			}
			var sc SubSensorConfig
			if err := node.Content[i+1].Decode(&sc); err != nil {
				return fmt.Errorf("sensors.%s: %w", id, err)
			}
			if sc.ID != "" && sc.ID != id {
				return fmt.Errorf("sensors.%s: id %q does not match key", id, sc.ID)
			}
			sc.ID = id
			out = append(out, sc)
		}
		*l = out
		return nil

	case yaml.SequenceNode:
		var list []SubSensorConfig
		if err := node.Decode(&list); err != nil {
			return err
		}
		*l = list
		return nil
	}

	return fmt.Errorf("sensors must be a mapping or a list, got %v", node.Kind)
}

// Duration wraps time.Duration for YAML and TOML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}

// UnmarshalText implements encoding.TextUnmarshaler, used by the TOML decoder.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

var slugPattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// Load reads and parses a configuration file. Files ending in .toml are
// decoded as TOML, everything else as YAML.
//
// Environment variables are expanded after decoding.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return ParseTOML(data)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Defaults are applied for Port (8080) and PollInterval (15s).
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return finish(&cfg)
}

// ParseTOML parses TOML configuration data. Sub-sensors are an array of
// tables with an id key:
//
//	[[resources]]
//	name = "Weather"
//	resource = "https://api.example.com/weather"
//
//	[[resources.sensors]]
//	id = "humidity"
//	json_path = "$.humidity"
//	value_template = "{{ .value }}"
func ParseTOML(data []byte) (*Config, error) {
	var cfg Config
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown TOML key %q", undecoded[0].String())
	}
	return finish(&cfg)
}

func finish(cfg *Config) (*Config, error) {
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = Duration(15 * time.Second)
	}

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// expandAndValidate expands environment variables, applies resource
// defaults and validates the config.
func (c *Config) expandAndValidate() error {
	if c.PollInterval.Duration() < minPollInterval {
		return fmt.Errorf("poll_interval must be at least %s, got %s", minPollInterval, c.PollInterval.Duration())
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}

	names := make(map[string]int, len(c.Resources))
	for i := range c.Resources {
		rc := &c.Resources[i]
		if rc.Name == "" {
			rc.Name = restsensor.DefaultName
		}
		where := fmt.Sprintf("resources[%d] (%s)", i, rc.Name)

		if prev, dup := names[rc.Name]; dup {
			return fmt.Errorf("%s: duplicate name, already used by resources[%d]", where, prev)
		}
		names[rc.Name] = i

		if rc.Resource == "" {
			return fmt.Errorf("%s: resource is required", where)
		}
		expanded, err := expandEnvVars(rc.Resource)
		if err != nil {
			return fmt.Errorf("%s: resource: %w", where, err)
		}
		rc.Resource = expanded
		if err := validateURL(rc.Resource); err != nil {
			return fmt.Errorf("%s: %w", where, err)
		}

		if err := rc.expandAndValidate(where); err != nil {
			return err
		}
	}

	for i := range c.Grids {
		g := &c.Grids[i]

		if g.Name == "" {
			return fmt.Errorf("grids[%d]: name is required", i)
		}
		where := fmt.Sprintf("grids[%d] (%s)", i, g.Name)

		if g.Resource != "" {
			return fmt.Errorf("%s: use url_template instead of resource", where)
		}
		if g.URLTemplate == "" {
			return fmt.Errorf("%s: url_template is required", where)
		}
		expanded, err := expandEnvVars(g.URLTemplate)
		if err != nil {
			return fmt.Errorf("%s: url_template: %w", where, err)
		}
		g.URLTemplate = expanded

		// fail fast before the SDK tries to use an invalid template
		if _, err := template.New("").Parse(g.URLTemplate); err != nil {
			return fmt.Errorf("%s: invalid url_template: %w", where, err)
		}

		if len(g.Dimensions) == 0 {
			return fmt.Errorf("%s: at least one dimension is required", where)
		}
		for dimName, dimValues := range g.Dimensions {
			if len(dimValues) == 0 {
				return fmt.Errorf("%s: dimension %q has no values", where, dimName)
			}
			seen := make(map[string]struct{}, len(dimValues))
			for _, v := range dimValues {
				if _, exists := seen[v]; exists {
					return fmt.Errorf("%s: dimension %q has duplicate value %q", where, dimName, v)
				}
				seen[v] = struct{}{}
			}
		}

		if err := g.ResourceConfig.expandAndValidate(where); err != nil {
			return err
		}
	}

	if len(c.Resources) == 0 && len(c.Grids) == 0 {
		return errors.New("at least one resource or grid must be defined")
	}

	return nil
}

// expandAndValidate checks everything but the URL, which differs between
// resources and grids.
func (rc *ResourceConfig) expandAndValidate(where string) error {
	for k, v := range rc.Headers {
		expanded, err := expandEnvVars(v)
		if err != nil {
			return fmt.Errorf("%s: headers[%s]: %w", where, k, err)
		}
		rc.Headers[k] = expanded
	}

	for _, field := range []struct {
		name string
		val  *string
	}{
		{"username", &rc.Username},
		{"password", &rc.Password},
		{"payload", &rc.Payload},
	} {
		expanded, err := expandEnvVars(*field.val)
		if err != nil {
			return fmt.Errorf("%s: %s: %w", where, field.name, err)
		}
		*field.val = expanded
	}

	rc.Method = strings.ToUpper(rc.Method)
	if rc.Method != "" && rc.Method != "GET" && rc.Method != "POST" {
		return fmt.Errorf("%s: method must be GET or POST", where)
	}

	switch rc.Authentication {
	case "":
	case "basic", "digest":
		if rc.Username == "" || rc.Password == "" {
			return fmt.Errorf("%s: authentication %q requires username and password", where, rc.Authentication)
		}
	default:
		return fmt.Errorf("%s: authentication must be basic or digest, got %q", where, rc.Authentication)
	}

	if rc.Timeout != 0 && rc.Timeout.Duration() < time.Second {
		return fmt.Errorf("%s: timeout must be at least 1s if specified, got %s", where, rc.Timeout)
	}

	if rc.Interval != 0 {
		if rc.Interval.Duration() < time.Second {
			return fmt.Errorf("%s: interval must be at least 1s, got %s", where, rc.Interval)
		}
		if rc.Interval.Duration() > time.Hour {
			return fmt.Errorf("%s: interval must not exceed 1h, got %s", where, rc.Interval)
		}
	}

	if _, err := render.Compile(rc.ValueTemplate, rc.ValueExpr); err != nil {
		return fmt.Errorf("%s: %w", where, err)
	}

	ids := make(map[string]struct{}, len(rc.Sensors))
	for j, sc := range rc.Sensors {
		subWhere := fmt.Sprintf("%s: sensors[%d]", where, j)
		if sc.ID == "" {
			return fmt.Errorf("%s: id is required", subWhere)
		}
		subWhere = fmt.Sprintf("%s: sensors.%s", where, sc.ID)
		if !slugPattern.MatchString(sc.ID) {
			return fmt.Errorf("%s: id must match [a-z0-9_]+", subWhere)
		}
		if _, dup := ids[sc.ID]; dup {
			return fmt.Errorf("%s: duplicate id", subWhere)
		}
		ids[sc.ID] = struct{}{}

		if sc.JSONPath == "" {
			return fmt.Errorf("%s: json_path is required", subWhere)
		}
		if sc.ValueTemplate == "" && sc.ValueExpr == "" {
			return fmt.Errorf("%s: value_template or value_expr is required", subWhere)
		}
		if _, err := render.Compile(sc.ValueTemplate, sc.ValueExpr); err != nil {
			return fmt.Errorf("%s: %w", subWhere, err)
		}
	}

	return nil
}

func validateURL(raw string) error {
	parsedURL, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid resource url: %w", err)
	}
	if parsedURL.Scheme == "" {
		return errors.New("resource must have a scheme (http:// or https://)")
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("resource scheme must be http or https, got %q", parsedURL.Scheme)
	}
	if parsedURL.Host == "" {
		return errors.New("resource must have a host")
	}
	return nil
}
