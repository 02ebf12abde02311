// Package expr compiles user supplied formulas of one real variable x into
// callable functions.
//
// Formulas are parsed into an expression tree over a fixed grammar of
// arithmetic operators and a whitelist of elementary functions, so compiling
// untrusted text never executes anything besides arithmetic. Python and numpy
// spellings are accepted for familiarity: "x**2", "np.sin(x)", "math.pi".
package expr

import (
	"errors"
	"fmt"
)

// ProbeX is the abscissa at which every compiled function is evaluated once
// to validate it.
const ProbeX = 1.0

var (
	// ErrInvalidExpression is returned by [Compile] when the text does not
	// parse as a formula in x or fails evaluation at [ProbeX].
	ErrInvalidExpression = errors.New("invalid expression")
	// ErrDomain is returned on evaluation outside of a function's domain,
	// such as sqrt(-1) or log(0).
	ErrDomain = errors.New("math domain error")
	// ErrDivisionByZero is returned on evaluation of a division by zero.
	ErrDivisionByZero = errors.New("division by zero")

	errMismatchBufferLength = errors.New("input and output buffer length mismatch")
	errNilFunction          = errors.New("nil function")
)

// SyntaxError describes a formula that could not be parsed.
// It matches [ErrInvalidExpression] with [errors.Is].
type SyntaxError struct {
	// Pos is the byte offset in the formula at which the error was found.
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at position %d: %s", e.Pos, e.Msg)
}

func (e *SyntaxError) Is(target error) bool { return target == ErrInvalidExpression }

// Function is a compiled formula. It is immutable and safe for concurrent use.
type Function struct {
	root node
}

// Compile parses text as a formula in x and validates it by evaluating it at [ProbeX].
// All returned errors match [ErrInvalidExpression].
func Compile(text string) (*Function, error) {
	root, err := parse(text)
	if err != nil {
		return nil, err
	}
	f := &Function{root: root}
	_, err = f.Eval(ProbeX)
	if err != nil {
		return nil, fmt.Errorf("%w: evaluating %q at x=%g: %w", ErrInvalidExpression, text, ProbeX, err)
	}
	return f, nil
}

// MustCompile is like [Compile] but panics on error. Intended for formulas known at compile time.
func MustCompile(text string) *Function {
	f, err := Compile(text)
	if err != nil {
		panic(err)
	}
	return f
}

// Eval evaluates the function at x. Evaluating a nil *Function returns an error.
func (f *Function) Eval(x float64) (float64, error) {
	if f == nil || f.root == nil {
		return 0, errNilFunction
	}
	return f.root.eval(x)
}

// Evaluate evaluates the function elementwise over x and stores results in y.
// x and y must be of equal length. Evaluation stops at the first failing element.
func (f *Function) Evaluate(x, y []float64) error {
	if f == nil || f.root == nil {
		return errNilFunction
	}
	if len(x) != len(y) {
		return errMismatchBufferLength
	}
	for i, xi := range x {
		v, err := f.root.eval(xi)
		if err != nil {
			return fmt.Errorf("x=%g: %w", xi, err)
		}
		y[i] = v
	}
	return nil
}

// IsConstant reports whether the function does not depend on x.
func (f *Function) IsConstant() bool {
	return isConst(f.root)
}

// String returns the canonical form of the formula, which compiles to an equivalent function.
func (f *Function) String() string {
	return string(f.root.appendString(nil))
}
