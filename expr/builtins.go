package expr

import (
	"fmt"
	"math"
)

// builtin is a whitelisted elementary function. Exactly one of f1 or f2 is set.
type builtin struct {
	name string
	f1   func(float64) float64
	f2   func(a, b float64) float64
	// domain returns false for arguments outside the function's domain
	// that would not otherwise produce NaN, such as log(0).
	domain func(args []float64) bool
}

func (b *builtin) nargs() int {
	if b.f2 != nil {
		return 2
	}
	return 1
}

func (b *builtin) call(args []float64) (float64, error) {
	if b.domain != nil && !b.domain(args) {
		return 0, fmt.Errorf("%w: %s%v", ErrDomain, b.name, args)
	}
	var v float64
	if b.f2 != nil {
		v = b.f2(args[0], args[1])
	} else {
		v = b.f1(args[0])
	}
	if math.IsNaN(v) {
		for _, a := range args {
			if math.IsNaN(a) {
				return v, nil // NaN propagates, it was not created here.
			}
		}
		return 0, fmt.Errorf("%w: %s%v", ErrDomain, b.name, args)
	}
	return v, nil
}

func positive(args []float64) bool { return args[0] > 0 }

var builtins = map[string]*builtin{
	"sin":   {f1: math.Sin},
	"cos":   {f1: math.Cos},
	"tan":   {f1: math.Tan},
	"asin":  {f1: math.Asin},
	"acos":  {f1: math.Acos},
	"atan":  {f1: math.Atan},
	"sinh":  {f1: math.Sinh},
	"cosh":  {f1: math.Cosh},
	"tanh":  {f1: math.Tanh},
	"exp":   {f1: math.Exp},
	"log":   {f1: math.Log, domain: positive},
	"log10": {f1: math.Log10, domain: positive},
	"log2":  {f1: math.Log2, domain: positive},
	"sqrt":  {f1: math.Sqrt},
	"cbrt":  {f1: math.Cbrt},
	"abs":   {f1: math.Abs},
	"floor": {f1: math.Floor},
	"ceil":  {f1: math.Ceil},
	"sign":  {f1: sign},
	"atan2": {f2: math.Atan2},
	"pow": {f2: math.Pow, domain: func(args []float64) bool {
		return !(args[0] == 0 && args[1] < 0)
	}},
	"hypot": {f2: math.Hypot},
	"min":   {f2: math.Min},
	"max":   {f2: math.Max},
}

// aliases maps numpy and math module spellings onto canonical builtin names.
var aliases = map[string]string{
	"arcsin":  "asin",
	"arccos":  "acos",
	"arctan":  "atan",
	"arctan2": "atan2",
	"fabs":    "abs",
	"power":   "pow",
	"minimum": "min",
	"maximum": "max",
}

var constants = map[string]float64{
	"pi":  math.Pi,
	"e":   math.E,
	"tau": 2 * math.Pi,
}

// qualifiers are module prefixes accepted in front of names, e.g. "np.sin(x)".
var qualifiers = map[string]bool{
	"np":    true,
	"numpy": true,
	"math":  true,
}

func init() {
	for name, b := range builtins {
		b.name = name
	}
}

func lookupBuiltin(name string) *builtin {
	if canon, ok := aliases[name]; ok {
		name = canon
	}
	return builtins[name]
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return x // Preserves NaN and signed zero.
}
