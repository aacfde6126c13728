package render

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Expr renders an expr-lang expression such as
// value_json.temperature * 1.8 + 32.
//
// The program is compiled once without a typed environment, so value and
// value_json are resolved at run time.
type Expr struct {
	src     string
	program *vm.Program
}

// NewExpr compiles src.
func NewExpr(src string) (*Expr, error) {
	program, err := expr.Compile(src)
	if err != nil {
		return nil, fmt.Errorf("invalid value_expr: %w", err)
	}
	return &Expr{src: src, program: program}, nil
}

// Render runs the compiled program against in.
func (e *Expr) Render(in Input) (string, error) {
	out, err := expr.Run(e.program, in.env())
	if err != nil {
		return "", err
	}
	if out == nil {
		return "", ErrNilResult
	}
	return Stringify(out), nil
}

// String returns the expression source.
func (e *Expr) String() string {
	return e.src
}
