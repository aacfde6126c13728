package sensor

import (
	"fmt"
	"strings"

	"github.com/jpalmerr/restsensor/internal/poller"
	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
)

// Document is the JSON form of one response body, parsed once per cycle and
// shared by every extractor of that cycle.
//
// The decoded tree is unexported. Extractors reach it only through
// [Document.Query], and nothing in this package writes to a node it gets
// back, so one extractor cannot change what the next one sees.
type Document struct {
	root    any
	present bool
}

// ParseDocument decodes the body of a successful fetch.
//
// A failed fetch yields [ErrNoBody]. An empty body, malformed JSON or a bare
// null yields [ErrNotJSON]. Both leave the returned Document absent.
func ParseDocument(res poller.FetchResult) (Document, error) {
	body, ok := res.Text()
	if !ok {
		return Document{}, ErrNoBody
	}
	if strings.TrimSpace(body) == "" {
		return Document{}, ErrNotJSON
	}

	root, err := oj.ParseString(body)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrNotJSON, err)
	}
	if root == nil {
		return Document{}, fmt.Errorf("%w: null", ErrNotJSON)
	}

	return Document{root: root, present: true}, nil
}

// Present reports whether the document holds a parsed JSON value.
func (d Document) Present() bool {
	return d.present
}

// Query evaluates a compiled JSON path and returns the matches in document
// order.
func (d Document) Query(x jp.Expr) []any {
	if !d.present {
		return nil
	}
	return x.Get(d.root)
}

// value exposes the root to renderers as value_json.
func (d Document) value() any {
	return d.root
}
