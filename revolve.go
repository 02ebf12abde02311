// Package revolve computes volumes of solids of revolution by numerical
// integration and generates triangulated surface meshes of said solids.
//
// Functions are consumed through the vectorized [Func] interface, implemented
// by compiled formulas of package expr.
package revolve

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// MaxFuncs is the maximum amount of functions a [Spec] may hold.
const MaxFuncs = 3

var (
	// ErrInvalidSelection is returned when the revolved function index is not
	// among the supplied functions or the amount of functions is not in 1..MaxFuncs.
	ErrInvalidSelection = errors.New("invalid function selection")
	// ErrInvalidMethod is returned for an unknown method or a method unsupported by the axis.
	ErrInvalidMethod = errors.New("invalid integration method")
	// ErrInvalidStep is returned for a non-positive or non-finite integration step.
	ErrInvalidStep = errors.New("invalid integration step")
	// ErrInvalidBounds is returned for non-finite or degenerate bounds.
	ErrInvalidBounds = errors.New("invalid integration bounds")
	// ErrEvaluationFailure wraps errors returned by a [Func] during sampling.
	ErrEvaluationFailure = errors.New("function evaluation failed")
	// ErrInvalidResolution is returned for mesh resolutions outside 2..MaxResolution.
	ErrInvalidResolution = errors.New("invalid mesh resolution")
)

// Func is a real valued function of one real variable in vectorized form.
// Implementations must not retain x or y.
type Func interface {
	// Evaluate evaluates the function over x and stores the results in y.
	// x and y must be of equal length.
	Evaluate(x, y []float64) error
}

// Axis is the coordinate axis a curve is revolved about.
type Axis uint8

const (
	AxisX Axis = iota
	AxisY
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	}
	return fmt.Sprintf("Axis(%d)", uint8(a))
}

// ParseAxis parses "x" or "y", case insensitive.
func ParseAxis(s string) (Axis, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "x":
		return AxisX, nil
	case "y":
		return AxisY, nil
	}
	return 0, fmt.Errorf("unknown axis %q, want x or y", s)
}

// Method is the volume integration method.
type Method uint8

const (
	// MethodDisk integrates solid circular cross sections πr²·dx about the x axis.
	MethodDisk Method = iota
	// MethodWasher integrates annular cross sections about the x axis. About the
	// y axis it integrates shells whose height is the revolved function minus
	// the remaining functions.
	MethodWasher
	// MethodShell integrates cylindrical shells 2πx·|h|·dx about the y axis.
	MethodShell
)

func (m Method) String() string {
	switch m {
	case MethodDisk:
		return "disk"
	case MethodWasher:
		return "washer"
	case MethodShell:
		return "shell"
	}
	return fmt.Sprintf("Method(%d)", uint8(m))
}

// ParseMethod parses "disk", "washer" or "shell", case insensitive.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "disk", "disc":
		return MethodDisk, nil
	case "washer":
		return MethodWasher, nil
	case "shell":
		return MethodShell, nil
	}
	return 0, fmt.Errorf("%w: unknown method %q", ErrInvalidMethod, s)
}

// Spec describes a solid of revolution and how its volume is integrated.
// Spec is a value type; it must not be modified while in use by [Integrate].
type Spec struct {
	// Funcs are the bounding curves, 1 to MaxFuncs.
	Funcs []Func
	// Revolve is the index in Funcs of the revolved (outer) function.
	Revolve int
	Axis    Axis
	Method  Method
	// A and B are the lower and upper bounds of the sweep variable.
	// A > B is integrated as a signed interval.
	A, B float64
	// DX is the Riemann sum step.
	DX float64
}

// Validate checks the spec for errors that can be found without evaluating functions.
// A typed nil stored in Funcs is not detected here; it fails on evaluation.
func (s Spec) Validate() error {
	if len(s.Funcs) == 0 || len(s.Funcs) > MaxFuncs {
		return fmt.Errorf("%w: got %d functions, want 1..%d", ErrInvalidSelection, len(s.Funcs), MaxFuncs)
	}
	if s.Revolve < 0 || s.Revolve >= len(s.Funcs) {
		return fmt.Errorf("%w: function %d selected but only %d supplied", ErrInvalidSelection, s.Revolve+1, len(s.Funcs))
	}
	for i, f := range s.Funcs {
		if f == nil {
			return fmt.Errorf("%w: nil function %d", ErrInvalidSelection, i+1)
		}
	}
	switch {
	case s.Axis != AxisX && s.Axis != AxisY:
		return fmt.Errorf("invalid axis %s", s.Axis)
	case s.Method > MethodShell:
		return fmt.Errorf("%w: %s", ErrInvalidMethod, s.Method)
	case s.Axis == AxisX && s.Method == MethodShell:
		return fmt.Errorf("%w: shell method revolves about the y axis", ErrInvalidMethod)
	}
	if isBadFloat(s.A) || isBadFloat(s.B) {
		return fmt.Errorf("%w: a=%g b=%g", ErrInvalidBounds, s.A, s.B)
	}
	if !(s.DX > 0) || math.IsInf(s.DX, 0) {
		return fmt.Errorf("%w: dx=%g must be positive", ErrInvalidStep, s.DX)
	}
	if n := sampleCount(math.Min(s.A, s.B), math.Max(s.A, s.B), s.DX); n > MaxSamples {
		return fmt.Errorf("%w: dx=%g yields %d samples, maximum is %d", ErrInvalidStep, s.DX, n, MaxSamples)
	}
	return nil
}

// Result is a computed volume and the spec that produced it.
type Result struct {
	Spec   Spec
	Volume float64
}

func isBadFloat(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}
