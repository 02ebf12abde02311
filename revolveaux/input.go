package revolveaux

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/soypat/revolve"
	"github.com/soypat/revolve/expr"
)

// Input holds the raw text fields of an interactive front end, unvalidated.
type Input struct {
	// Funcs are up to revolve.MaxFuncs formulas in x. Blank formulas are skipped.
	Funcs []string `json:"funcs"`
	// Axis is "x" or "y".
	Axis string `json:"axis"`
	// Revolve selects the revolved function: "f1", "1" or "f₁(x)" and so on.
	Revolve string `json:"revolve"`
	// Method is "disk", "washer" or "shell".
	Method string `json:"method"`
	A      string `json:"a"`
	B      string `json:"b"`
	DX     string `json:"dx"`
	// CrossSections enables cross section marks on previews.
	CrossSections bool `json:"crossSections"`
}

// DefaultInput returns the input an interactive session starts with.
func DefaultInput() Input {
	return Input{
		Funcs:   []string{"x**2"},
		Axis:    "x",
		Revolve: "f1",
		Method:  "washer",
		A:       "0",
		B:       "2",
		DX:      "0.01",
	}
}

// Request is a parsed and compiled [Input].
type Request struct {
	Spec revolve.Spec
	// Exprs are the source of each function in Spec.Funcs.
	Exprs []string
	// Slots are the 1-based input positions of each function in Spec.Funcs.
	Slots         []int
	CrossSections bool
}

// Parse compiles the formulas and parses the numeric fields of in. Blank formulas are
// dropped and the revolve selector indexes the remaining ones in order.
func (in Input) Parse() (Request, error) {
	var req Request
	if len(in.Funcs) > revolve.MaxFuncs {
		return req, fmt.Errorf("%w: got %d formulas, want at most %d", revolve.ErrInvalidSelection, len(in.Funcs), revolve.MaxFuncs)
	}
	for i, src := range in.Funcs {
		src = strings.TrimSpace(src)
		if src == "" {
			continue
		}
		f, err := expr.Compile(src)
		if err != nil {
			return req, fmt.Errorf("f%d: %w", i+1, err)
		}
		req.Spec.Funcs = append(req.Spec.Funcs, f)
		req.Exprs = append(req.Exprs, src)
		req.Slots = append(req.Slots, i+1)
	}
	if len(req.Spec.Funcs) == 0 {
		return req, fmt.Errorf("%w: no functions defined", revolve.ErrInvalidSelection)
	}
	sel, err := parseSelector(in.Revolve)
	if err != nil {
		return req, err
	}
	if sel >= len(req.Spec.Funcs) {
		return req, fmt.Errorf("%w: f%d selected but %d functions defined", revolve.ErrInvalidSelection, sel+1, len(req.Spec.Funcs))
	}
	req.Spec.Revolve = sel
	req.Spec.Axis, err = revolve.ParseAxis(in.Axis)
	if err != nil {
		return req, err
	}
	req.Spec.Method, err = revolve.ParseMethod(in.Method)
	if err != nil {
		return req, err
	}
	req.Spec.A, err = parseFloat(in.A, "a")
	if err != nil {
		return req, fmt.Errorf("%w: %w", revolve.ErrInvalidBounds, err)
	}
	req.Spec.B, err = parseFloat(in.B, "b")
	if err != nil {
		return req, fmt.Errorf("%w: %w", revolve.ErrInvalidBounds, err)
	}
	req.Spec.DX, err = parseFloat(in.DX, "dx")
	if err != nil {
		return req, fmt.Errorf("%w: %w", revolve.ErrInvalidStep, err)
	}
	req.CrossSections = in.CrossSections
	return req, req.Spec.Validate()
}

// Labels returns the legend label of each requested function, i.e: "f2(x)".
func (req Request) Labels() []string {
	labels := make([]string, len(req.Slots))
	for i, slot := range req.Slots {
		labels[i] = "f" + strconv.Itoa(slot) + "(x)"
	}
	return labels
}

var subscripts = strings.NewReplacer("₁", "1", "₂", "2", "₃", "3")

// parseSelector parses a revolve selector into a 0-based index.
func parseSelector(s string) (int, error) {
	orig := s
	s = strings.ToLower(strings.TrimSpace(s))
	s = subscripts.Replace(s)
	s = strings.TrimSuffix(s, "(x)")
	s = strings.TrimPrefix(s, "f")
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > revolve.MaxFuncs {
		return 0, fmt.Errorf("%w: bad revolve selector %q", revolve.ErrInvalidSelection, orig)
	}
	return n - 1, nil
}

func parseFloat(s, name string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q: %w", name, s, err)
	}
	return v, nil
}
