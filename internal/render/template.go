package render

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// Template renders a Go text/template.
//
// The template data is a map with the keys value and value_json, so a
// temperature field is reached with {{ .value_json.temperature }}. Missing
// map keys are errors rather than "<no value>", and surrounding whitespace
// is trimmed from the output.
type Template struct {
	src  string
	tmpl *template.Template
}

// NewTemplate parses src.
func NewTemplate(src string) (*Template, error) {
	tmpl, err := template.New("value").
		Funcs(sprig.TxtFuncMap()).
		Option("missingkey=error").
		Parse(src)
	if err != nil {
		return nil, fmt.Errorf("invalid value_template: %w", err)
	}
	return &Template{src: src, tmpl: tmpl}, nil
}

// Render executes the template against in.
func (t *Template) Render(in Input) (string, error) {
	var buf bytes.Buffer
	if err := t.tmpl.Execute(&buf, in.env()); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

// String returns the template source.
func (t *Template) String() string {
	return t.src
}
