package sensor

import (
	"testing"
)

func TestPrimaryValue_Evaluate(t *testing.T) {
	tests := []struct {
		name          string
		tmpl          string
		expr          string
		res           string
		fail          bool
		want          string
		wantAvailable bool
		wantRenderErr bool
	}{
		{name: "raw body", res: "OK", want: "OK", wantAvailable: true},
		{name: "fetch failed", fail: true, want: StateUnknown},
		{name: "fetch failed with template", tmpl: "{{ .value }}", fail: true, want: StateUnknown},
		{name: "template on json", tmpl: "{{ .value_json.temp }}", res: `{"temp":21.5}`, want: "21.5", wantAvailable: true},
		{name: "expr on json", expr: "value_json.temp * 2", res: `{"temp":21}`, want: "42", wantAvailable: true},
		{name: "template on raw text", tmpl: "{{ .value | upper }}", res: "on", want: "ON", wantAvailable: true},
		{name: "render failure stays available", tmpl: "{{ .value_json.temp }}", res: "not json", want: StateUnknown, wantAvailable: true, wantRenderErr: true},
		{name: "nil expr result", expr: "value_json.missing", res: `{"temp":1}`, want: StateUnknown, wantAvailable: true, wantRenderErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := body(tt.res)
			if tt.fail {
				res = failed()
			}
			doc, _ := ParseDocument(res)

			p := NewPrimaryValue("test", "", mustCompile(t, tt.tmpl, tt.expr))
			got := p.Evaluate(res, doc)

			if got.Value != tt.want {
				t.Errorf("Value = %q, want %q", got.Value, tt.want)
			}
			if got.Available != tt.wantAvailable {
				t.Errorf("Available = %v, want %v", got.Available, tt.wantAvailable)
			}
			if (got.RenderErr != nil) != tt.wantRenderErr {
				t.Errorf("RenderErr = %v, wantRenderErr %v", got.RenderErr, tt.wantRenderErr)
			}
		})
	}
}

func TestPrimaryValue_Accessors(t *testing.T) {
	p := NewPrimaryValue("Outside", "°C", nil)
	if p.Name() != "Outside" {
		t.Errorf("Name() = %q", p.Name())
	}
	if p.Unit() != "°C" {
		t.Errorf("Unit() = %q", p.Unit())
	}
}
