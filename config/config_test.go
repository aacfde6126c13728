package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParse_MinimalConfig(t *testing.T) {
	yaml := `
resources:
  - resource: https://example.com
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.PollInterval.Duration() != 15*time.Second {
		t.Errorf("PollInterval = %v, want 15s", cfg.PollInterval.Duration())
	}
	if len(cfg.Resources) != 1 {
		t.Fatalf("len(Resources) = %d, want 1", len(cfg.Resources))
	}
	if cfg.Resources[0].Name != "REST Sensor" {
		t.Errorf("Name = %q, want default", cfg.Resources[0].Name)
	}
}

func TestParse_FullResourceConfig(t *testing.T) {
	yaml := `
title: Home
port: 9090
poll_interval: 30s

resources:
  - name: Weather
    resource: https://api.example.com/weather
    method: post
    authentication: digest
    username: alice
    password: hunter2
    headers:
      Accept: application/json
    payload: '{"q":"oslo"}'
    verify_ssl: false
    timeout: 5s
    interval: 1m
    unit_of_measurement: "°C"
    value_template: '{{ .value_json.temp }}'
    sensors:
      humidity:
        json_path: $.humidity
        friendly_name: Humidity
        value_template: '{{ .value }}'
      wind:
        json_path: $.wind.speed
        value_expr: value_json * 3.6
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Title != "Home" || cfg.Port != 9090 || cfg.PollInterval.Duration() != 30*time.Second {
		t.Errorf("root = %q/%d/%v", cfg.Title, cfg.Port, cfg.PollInterval)
	}

	rc := cfg.Resources[0]
	if rc.Method != "POST" {
		t.Errorf("Method = %q, want normalised POST", rc.Method)
	}
	if rc.Authentication != "digest" || rc.Username != "alice" || rc.Password != "hunter2" {
		t.Errorf("auth = %q %q %q", rc.Authentication, rc.Username, rc.Password)
	}
	if rc.Headers["Accept"] != "application/json" {
		t.Errorf("Headers = %v", rc.Headers)
	}
	if rc.Payload != `{"q":"oslo"}` {
		t.Errorf("Payload = %q", rc.Payload)
	}
	if rc.VerifySSL == nil || *rc.VerifySSL {
		t.Errorf("VerifySSL = %v, want false", rc.VerifySSL)
	}
	if rc.Timeout.Duration() != 5*time.Second || rc.Interval.Duration() != time.Minute {
		t.Errorf("Timeout/Interval = %v/%v", rc.Timeout, rc.Interval)
	}
	if rc.Unit != "°C" {
		t.Errorf("Unit = %q", rc.Unit)
	}

	if len(rc.Sensors) != 2 {
		t.Fatalf("len(Sensors) = %d, want 2", len(rc.Sensors))
	}
	if rc.Sensors[0].ID != "humidity" || rc.Sensors[0].FriendlyName != "Humidity" {
		t.Errorf("Sensors[0] = %+v", rc.Sensors[0])
	}
	if rc.Sensors[1].ID != "wind" || rc.Sensors[1].ValueExpr != "value_json * 3.6" {
		t.Errorf("Sensors[1] = %+v", rc.Sensors[1])
	}
}

func TestParse_SubSensorMappingKeepsOrder(t *testing.T) {
	yaml := `
resources:
  - resource: https://example.com
    sensors:
      zeta: {json_path: $.z, value_template: "{{ .value }}"}
      alpha: {json_path: $.a, value_template: "{{ .value }}"}
      mid: {json_path: $.m, value_template: "{{ .value }}"}
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	var got []string
	for _, sc := range cfg.Resources[0].Sensors {
		got = append(got, sc.ID)
	}
	if strings.Join(got, ",") != "zeta,alpha,mid" {
		t.Errorf("order = %v, want document order", got)
	}
}

func TestParse_SubSensorListForm(t *testing.T) {
	yaml := `
resources:
  - resource: https://example.com
    sensors:
      - id: temp
        json_path: $.temp
        value_expr: value_json
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if sc := cfg.Resources[0].Sensors[0]; sc.ID != "temp" || sc.JSONPath != "$.temp" {
		t.Errorf("Sensors[0] = %+v", sc)
	}
}

func TestParse_SubSensorErrors(t *testing.T) {
	tests := []struct {
		name    string
		sensors string
		wantErr string
	}{
		{
			name:    "scalar",
			sensors: `sensors: nope`,
			wantErr: "sensors must be a mapping or a list",
		},
		{
			name: "id mismatch",
			sensors: `sensors:
      temp: {id: other, json_path: $.t, value_expr: value_json}`,
			wantErr: "does not match key",
		},
		{
			name: "missing id in list",
			sensors: `sensors:
      - json_path: $.t
        value_expr: value_json`,
			wantErr: "id is required",
		},
		{
			name: "not a slug",
			sensors: `sensors:
      Temp-C: {json_path: $.t, value_expr: value_json}`,
			wantErr: "must match [a-z0-9_]+",
		},
		{
			name: "duplicate id",
			sensors: `sensors:
      - {id: t, json_path: $.t, value_expr: value_json}
      - {id: t, json_path: $.u, value_expr: value_json}`,
			wantErr: "duplicate id",
		},
		{
			name: "missing json_path",
			sensors: `sensors:
      t: {value_expr: value_json}`,
			wantErr: "json_path is required",
		},
		{
			name: "missing value template",
			sensors: `sensors:
      t: {json_path: $.t}`,
			wantErr: "value_template or value_expr is required",
		},
		{
			name: "template and expr",
			sensors: `sensors:
      t: {json_path: $.t, value_template: "{{ .value }}", value_expr: value}`,
			wantErr: "mutually exclusive",
		},
		{
			name: "bad template",
			sensors: `sensors:
      t: {json_path: $.t, value_template: "{{ .value "}`,
			wantErr: "sensors.t",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			yaml := `
resources:
  - resource: https://example.com
    ` + tt.sensors

			_, err := Parse([]byte(yaml))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestParse_GridConfig(t *testing.T) {
	yaml := `
grids:
  - name: City
    url_template: "https://api.example.com/{{.region}}?city={{.city}}"
    dimensions:
      city: [Oslo, Lima]
      region: [eu, us]
    method: POST
    value_expr: value_json.temp
    sensors:
      humidity: {json_path: $.humidity, value_template: "{{ .value }}"}
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	g := cfg.Grids[0]
	if g.Name != "City" || len(g.Dimensions) != 2 {
		t.Errorf("grid = %+v", g)
	}
	if g.Method != "POST" || g.ValueExpr != "value_json.temp" {
		t.Errorf("inline resource fields not decoded: %+v", g.ResourceConfig)
	}
	if len(g.Sensors) != 1 || g.Sensors[0].ID != "humidity" {
		t.Errorf("Sensors = %+v", g.Sensors)
	}
}

func TestParse_EnvVarSubstitution(t *testing.T) {
	t.Setenv("TEST_API_HOST", "api.test.com")
	t.Setenv("TEST_API_TOKEN", "secret123")
	t.Setenv("TEST_USER", "bob")

	yaml := `
resources:
  - resource: https://${TEST_API_HOST}/weather
    authentication: basic
    username: ${TEST_USER}
    password: ${TEST_PASS:-fallback}
    payload: '{"token":"${TEST_API_TOKEN}"}'
    headers:
      Authorization: "Bearer ${TEST_API_TOKEN}"
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	rc := cfg.Resources[0]
	if rc.Resource != "https://api.test.com/weather" {
		t.Errorf("Resource = %q", rc.Resource)
	}
	if rc.Headers["Authorization"] != "Bearer secret123" {
		t.Errorf("Authorization = %q", rc.Headers["Authorization"])
	}
	if rc.Username != "bob" || rc.Password != "fallback" {
		t.Errorf("credentials = %q/%q", rc.Username, rc.Password)
	}
	if rc.Payload != `{"token":"secret123"}` {
		t.Errorf("Payload = %q", rc.Payload)
	}
}

func TestParse_EnvVarMissing(t *testing.T) {
	os.Unsetenv("RESTSENSOR_DEFINITELY_UNSET")

	yaml := `
resources:
  - resource: https://${RESTSENSOR_DEFINITELY_UNSET}/x
`
	_, err := Parse([]byte(yaml))
	if err == nil {
		t.Fatal("expected error for missing env var")
	}
	if !strings.Contains(err.Error(), "RESTSENSOR_DEFINITELY_UNSET") {
		t.Errorf("error = %q, want the variable name", err)
	}
}

func TestParse_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "no resources",
			yaml:    `port: 8080`,
			wantErr: "at least one resource or grid",
		},
		{
			name: "missing resource url",
			yaml: `
resources:
  - name: X`,
			wantErr: "resource is required",
		},
		{
			name: "no scheme",
			yaml: `
resources:
  - resource: example.com/x`,
			wantErr: "must have a scheme",
		},
		{
			name: "ftp scheme",
			yaml: `
resources:
  - resource: ftp://example.com`,
			wantErr: "scheme must be http or https",
		},
		{
			name: "duplicate names",
			yaml: `
resources:
  - resource: https://a.example.com
  - resource: https://b.example.com`,
			wantErr: "duplicate name",
		},
		{
			name: "bad method",
			yaml: `
resources:
  - resource: https://example.com
    method: DELETE`,
			wantErr: "method must be GET or POST",
		},
		{
			name: "unknown authentication",
			yaml: `
resources:
  - resource: https://example.com
    authentication: ntlm
    username: a
    password: b`,
			wantErr: "authentication must be basic or digest",
		},
		{
			name: "authentication without password",
			yaml: `
resources:
  - resource: https://example.com
    authentication: basic
    username: a`,
			wantErr: "requires username and password",
		},
		{
			name: "timeout too short",
			yaml: `
resources:
  - resource: https://example.com
    timeout: 500ms`,
			wantErr: "timeout must be at least 1s",
		},
		{
			name: "interval too long",
			yaml: `
resources:
  - resource: https://example.com
    interval: 2h`,
			wantErr: "interval must not exceed 1h",
		},
		{
			name: "interval too short",
			yaml: `
resources:
  - resource: https://example.com
    interval: 100ms`,
			wantErr: "interval must be at least 1s",
		},
		{
			name: "template and expr on resource",
			yaml: `
resources:
  - resource: https://example.com
    value_template: "{{ .value }}"
    value_expr: value`,
			wantErr: "mutually exclusive",
		},
		{
			name: "bad expr",
			yaml: `
resources:
  - resource: https://example.com
    value_expr: "value +"`,
			wantErr: "resources[0]",
		},
		{
			name: "poll interval too short",
			yaml: `
poll_interval: 100ms
resources:
  - resource: https://example.com`,
			wantErr: "poll_interval must be at least 1s",
		},
		{
			name: "port out of range",
			yaml: `
port: 70000
resources:
  - resource: https://example.com`,
			wantErr: "port must be between",
		},
		{
			name: "grid without name",
			yaml: `
grids:
  - url_template: https://x/{{.a}}
    dimensions: {a: [b]}`,
			wantErr: "grids[0]: name is required",
		},
		{
			name: "grid with resource",
			yaml: `
grids:
  - name: G
    resource: https://x
    url_template: https://x/{{.a}}
    dimensions: {a: [b]}`,
			wantErr: "use url_template instead of resource",
		},
		{
			name: "grid without template",
			yaml: `
grids:
  - name: G
    dimensions: {a: [b]}`,
			wantErr: "url_template is required",
		},
		{
			name: "grid bad template",
			yaml: `
grids:
  - name: G
    url_template: https://x/{{.a
    dimensions: {a: [b]}`,
			wantErr: "invalid url_template",
		},
		{
			name: "grid without dimensions",
			yaml: `
grids:
  - name: G
    url_template: https://x/{{.a}}`,
			wantErr: "at least one dimension",
		},
		{
			name: "grid empty dimension",
			yaml: `
grids:
  - name: G
    url_template: https://x/{{.a}}
    dimensions: {a: []}`,
			wantErr: "has no values",
		},
		{
			name: "grid duplicate dimension value",
			yaml: `
grids:
  - name: G
    url_template: https://x/{{.a}}
    dimensions: {a: [b, b]}`,
			wantErr: "duplicate value",
		},
		{
			name: "grid bad method",
			yaml: `
grids:
  - name: G
    url_template: https://x/{{.a}}
    dimensions: {a: [b]}
    method: HEAD`,
			wantErr: "grids[0] (G): method",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("resources: [unclosed"))
	if err == nil || !strings.Contains(err.Error(), "failed to parse YAML") {
		t.Errorf("error = %v, want YAML parse error", err)
	}
}

func TestDuration_Unmarshal(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Duration
		wantErr bool
	}{
		{"10s", 10 * time.Second, false},
		{"1m30s", 90 * time.Second, false},
		{"500ms", 500 * time.Millisecond, false},
		{"10", 0, true},
		{"soon", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var d Duration
			err := d.UnmarshalText([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("UnmarshalText() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && d.Duration() != tt.want {
				t.Errorf("Duration = %v, want %v", d.Duration(), tt.want)
			}
		})
	}
}

func TestParseTOML(t *testing.T) {
	data := `
title = "Home"
poll_interval = "20s"

[[resources]]
name = "Weather"
resource = "https://api.example.com/weather"
timeout = "3s"
value_expr = "value_json.temp"

[resources.headers]
Accept = "application/json"

[[resources.sensors]]
id = "humidity"
json_path = "$.humidity"
value_template = "{{ .value }}"

[[resources.sensors]]
id = "pressure"
json_path = "$.pressure"
value_expr = "value"

[[grids]]
name = "City"
url_template = "https://api.example.com/weather?city={{.city}}"
value_expr = "value_json.temp"

[grids.dimensions]
city = ["Oslo", "Lima"]
`
	cfg, err := ParseTOML([]byte(data))
	if err != nil {
		t.Fatalf("ParseTOML() error = %v", err)
	}

	if cfg.Title != "Home" || cfg.Port != 8080 || cfg.PollInterval.Duration() != 20*time.Second {
		t.Errorf("root = %q/%d/%v", cfg.Title, cfg.Port, cfg.PollInterval)
	}
	rc := cfg.Resources[0]
	if rc.Timeout.Duration() != 3*time.Second || rc.Headers["Accept"] != "application/json" {
		t.Errorf("resource = %+v", rc)
	}
	if len(rc.Sensors) != 2 || rc.Sensors[0].ID != "humidity" || rc.Sensors[1].ID != "pressure" {
		t.Errorf("Sensors = %+v", rc.Sensors)
	}
	if len(cfg.Grids) != 1 || len(cfg.Grids[0].Dimensions["city"]) != 2 {
		t.Errorf("Grids = %+v", cfg.Grids)
	}
	if cfg.Grids[0].ValueExpr != "value_json.temp" {
		t.Errorf("embedded grid fields not decoded: %+v", cfg.Grids[0].ResourceConfig)
	}
}

func TestParseTOML_Errors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{"syntax", `title = `, "failed to parse TOML"},
		{"unknown key", "[[resources]]\nresource = \"https://x.example.com\"\nbogus = 1\n", "unknown TOML key"},
		{"bad duration", "poll_interval = \"fast\"\n[[resources]]\nresource = \"https://x.example.com\"\n", "invalid duration"},
		{"validation", "[[resources]]\nresource = \"ftp://x\"\n", "scheme must be http or https"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTOML([]byte(tt.data))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_ByExtension(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "sensors.yaml")
	if err := os.WriteFile(yamlPath, []byte("resources:\n  - resource: https://example.com\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	tomlPath := filepath.Join(dir, "sensors.TOML")
	if err := os.WriteFile(tomlPath, []byte("[[resources]]\nresource = \"https://example.com\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{yamlPath, tomlPath} {
		cfg, err := Load(path)
		if err != nil {
			t.Errorf("Load(%s) error = %v", filepath.Base(path), err)
			continue
		}
		if len(cfg.Resources) != 1 {
			t.Errorf("Load(%s) resources = %d", filepath.Base(path), len(cfg.Resources))
		}
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("Load(missing) error = nil")
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("EXPAND_SET", "value")
	t.Setenv("EXPAND_EMPTY", "")

	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"plain", "plain", false},
		{"${EXPAND_SET}", "value", false},
		{"a-${EXPAND_SET}-b", "a-value-b", false},
		{"${EXPAND_EMPTY:-default}", "", false},
		{"${EXPAND_UNSET_X:-default}", "default", false},
		{"${EXPAND_UNSET_X:-}", "", false},
		{"${EXPAND_UNSET_X}", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := expandEnvVars(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("expandEnvVars() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("expandEnvVars() = %q, want %q", got, tt.want)
			}
		})
	}
}
