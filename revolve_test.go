package revolve_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/soypat/revolve"
	"github.com/soypat/revolve/expr"
)

func funcs(srcs ...string) []revolve.Func {
	var fs []revolve.Func
	for _, src := range srcs {
		fs = append(fs, expr.MustCompile(src))
	}
	return fs
}

func relErr(got, want float64) float64 {
	return math.Abs(got-want) / math.Abs(want)
}

func TestIntegrateConvergence(t *testing.T) {
	const (
		c = 1.5
		L = 3.0
	)
	ctx := context.Background()
	for _, test := range []struct {
		name string
		spec revolve.Spec
		want float64
	}{
		{
			name: "disk",
			spec: revolve.Spec{Funcs: funcs("1.5"), Axis: revolve.AxisX, Method: revolve.MethodDisk},
			want: math.Pi * c * c * L,
		},
		{
			name: "washer",
			spec: revolve.Spec{Funcs: funcs("2", "1"), Axis: revolve.AxisX, Method: revolve.MethodWasher},
			want: 3 * math.Pi * L,
		},
		{
			name: "shell",
			spec: revolve.Spec{Funcs: funcs("1.5"), Axis: revolve.AxisY, Method: revolve.MethodShell},
			want: math.Pi * c * L * L,
		},
		{
			name: "paraboloid",
			spec: revolve.Spec{Funcs: funcs("sqrt(x)"), Axis: revolve.AxisX, Method: revolve.MethodDisk},
			want: math.Pi * L * L / 2,
		},
		{
			name: "shell washer",
			spec: revolve.Spec{Funcs: funcs("x", "x**2"), Axis: revolve.AxisY, Method: revolve.MethodWasher},
			// ∫₀¹ 2πx(x-x²)dx = π/6, then ∫₁³ 2πx(x²-x)dx = 2π(20-26/3)
			want: math.Pi/6 + 2*math.Pi*(20-26./3),
		},
	} {
		spec := test.spec
		spec.B = L
		spec.DX = L / 10000
		got, err := revolve.Integrate(ctx, spec)
		if err != nil {
			t.Errorf("%s: %s", test.name, err)
			continue
		}
		if e := relErr(got, test.want); e > 0.01 {
			t.Errorf("%s: got %g, want %g (relative error %g)", test.name, got, test.want, e)
		}
	}
}

func TestIntegrateErrors(t *testing.T) {
	ctx := context.Background()
	base := revolve.Spec{Funcs: funcs("x", "1"), Axis: revolve.AxisX, Method: revolve.MethodWasher, B: 1, DX: 0.01}
	for _, test := range []struct {
		name   string
		modify func(*revolve.Spec)
		want   error
	}{
		{name: "zero step", modify: func(s *revolve.Spec) { s.DX = 0 }, want: revolve.ErrInvalidStep},
		{name: "negative step", modify: func(s *revolve.Spec) { s.DX = -1 }, want: revolve.ErrInvalidStep},
		{name: "NaN step", modify: func(s *revolve.Spec) { s.DX = math.NaN() }, want: revolve.ErrInvalidStep},
		{name: "too many samples", modify: func(s *revolve.Spec) { s.DX = 1e-12 }, want: revolve.ErrInvalidStep},
		{name: "selection out of range", modify: func(s *revolve.Spec) { s.Revolve = 5 }, want: revolve.ErrInvalidSelection},
		{name: "negative selection", modify: func(s *revolve.Spec) { s.Revolve = -1 }, want: revolve.ErrInvalidSelection},
		{name: "no functions", modify: func(s *revolve.Spec) { s.Funcs = nil }, want: revolve.ErrInvalidSelection},
		{name: "four functions", modify: func(s *revolve.Spec) { s.Funcs = funcs("1", "2", "3", "4") }, want: revolve.ErrInvalidSelection},
		{name: "infinite bound", modify: func(s *revolve.Spec) { s.B = math.Inf(1) }, want: revolve.ErrInvalidBounds},
		{name: "NaN bound", modify: func(s *revolve.Spec) { s.A = math.NaN() }, want: revolve.ErrInvalidBounds},
		{name: "shell about x", modify: func(s *revolve.Spec) { s.Method = revolve.MethodShell }, want: revolve.ErrInvalidMethod},
		{name: "typed nil function", modify: func(s *revolve.Spec) { s.Funcs = []revolve.Func{(*expr.Function)(nil)} }, want: revolve.ErrEvaluationFailure},
		{name: "domain error", modify: func(s *revolve.Spec) { s.Funcs = funcs("sqrt(x)"); s.A = -1 }, want: revolve.ErrEvaluationFailure},
	} {
		spec := base
		test.modify(&spec)
		_, err := revolve.Integrate(ctx, spec)
		if !errors.Is(err, test.want) {
			t.Errorf("%s: expected %v, got %v", test.name, test.want, err)
		}
	}
}

func TestIntegrateDeterministic(t *testing.T) {
	spec := revolve.Spec{
		Funcs:  funcs("x**2", "sin(x)", "0.5"),
		Axis:   revolve.AxisX,
		Method: revolve.MethodWasher,
		A:      0,
		B:      2,
		DX:     0.001,
	}
	v1, err := revolve.Integrate(context.Background(), spec)
	if err != nil {
		t.Fatal(err)
	}
	v2, err := revolve.Integrate(context.Background(), spec)
	if err != nil {
		t.Fatal(err)
	}
	if v1 != v2 {
		t.Errorf("nondeterministic integration: %v != %v", v1, v2)
	}
}

func TestIntegrateSampling(t *testing.T) {
	// Left Riemann sum of f(x)=1 disk with 4 samples at 0, 0.25, 0.5, 0.75.
	spec := revolve.Spec{Funcs: funcs("1"), B: 1, DX: 0.25}
	got, err := revolve.Integrate(context.Background(), spec)
	if err != nil {
		t.Fatal(err)
	}
	if want := 4 * math.Pi * 0.25; relErr(got, want) > 1e-15 {
		t.Errorf("got %v, want %v", got, want)
	}
	// Last partial step: samples at 0, 0.4, 0.8 strictly below 1.
	spec.Funcs = funcs("x")
	spec.DX = 0.4
	got, err = revolve.Integrate(context.Background(), spec)
	if err != nil {
		t.Fatal(err)
	}
	want := math.Pi * (0*0 + 0.4*0.4 + 0.8*0.8) * 0.4
	if relErr(got, want) > 1e-12 {
		t.Errorf("partial step: got %v, want %v", got, want)
	}
}

func TestWasherNegativeShellNot(t *testing.T) {
	// Revolved function 1 lies inside x+1 over [0,1].
	washer := revolve.Spec{Funcs: funcs("1", "x + 1"), Axis: revolve.AxisX, Method: revolve.MethodWasher, B: 1, DX: 0.001}
	v, err := revolve.Integrate(context.Background(), washer)
	if err != nil {
		t.Fatal(err)
	}
	if v >= 0 {
		t.Errorf("expected unclamped negative washer volume, got %g", v)
	}
	shell := washer
	shell.Axis = revolve.AxisY
	v, err = revolve.Integrate(context.Background(), shell)
	if err != nil {
		t.Fatal(err)
	}
	if v <= 0 {
		t.Errorf("expected positive shell volume, got %g", v)
	}
}

func TestShellNegativeAbscissas(t *testing.T) {
	// Shells over [-2,-1] have radii 1 to 2, the same solid as over [1,2].
	spec := revolve.Spec{Funcs: funcs("1"), Axis: revolve.AxisY, Method: revolve.MethodShell, A: -2, B: -1, DX: 0.001}
	neg, err := revolve.Integrate(context.Background(), spec)
	if err != nil {
		t.Fatal(err)
	}
	const want = 3 * math.Pi
	if neg <= 0 || relErr(neg, want) > 1e-2 {
		t.Errorf("shell volume over negative abscissas: got %g, want %g", neg, want)
	}
	// Interval straddling the axis counts both sides.
	spec.A, spec.B = -1, 1
	v, err := revolve.Integrate(context.Background(), spec)
	if err != nil {
		t.Fatal(err)
	}
	if relErr(v, 2*math.Pi) > 1e-2 {
		t.Errorf("shell volume over [-1,1]: got %g, want %g", v, 2*math.Pi)
	}
}

func TestIntegrateSignedInterval(t *testing.T) {
	spec := revolve.Spec{Funcs: funcs("x"), A: 0, B: 2, DX: 0.01}
	fwd, err := revolve.Integrate(context.Background(), spec)
	if err != nil {
		t.Fatal(err)
	}
	spec.A, spec.B = spec.B, spec.A
	bwd, err := revolve.Integrate(context.Background(), spec)
	if err != nil {
		t.Fatal(err)
	}
	if bwd != -fwd {
		t.Errorf("reversed interval: got %g, want %g", bwd, -fwd)
	}
	spec.A = spec.B
	zero, err := revolve.Integrate(context.Background(), spec)
	if err != nil || zero != 0 {
		t.Errorf("empty interval: got %g, %v", zero, err)
	}
}

func TestIntegrateCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	spec := revolve.Spec{Funcs: funcs("x"), B: 1, DX: 1e-5}
	_, err := revolve.Integrate(ctx, spec)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestCalculate(t *testing.T) {
	spec := revolve.Spec{Funcs: funcs("2"), B: 1, DX: 0.5}
	res, err := revolve.Calculate(context.Background(), spec)
	if err != nil {
		t.Fatal(err)
	}
	if res.Volume != 4*math.Pi {
		t.Errorf("got volume %g", res.Volume)
	}
	if res.Spec.DX != spec.DX {
		t.Error("result does not carry spec")
	}
}

func TestParse(t *testing.T) {
	ax, err := revolve.ParseAxis(" Y ")
	if err != nil || ax != revolve.AxisY {
		t.Errorf("ParseAxis: %v %v", ax, err)
	}
	_, err = revolve.ParseAxis("z")
	if err == nil {
		t.Error("expected error for z axis")
	}
	m, err := revolve.ParseMethod("Washer")
	if err != nil || m != revolve.MethodWasher {
		t.Errorf("ParseMethod: %v %v", m, err)
	}
	_, err = revolve.ParseMethod("cylinder")
	if !errors.Is(err, revolve.ErrInvalidMethod) {
		t.Errorf("expected ErrInvalidMethod, got %v", err)
	}
}

func TestCachedFunc(t *testing.T) {
	f := expr.MustCompile("x**2")
	c := revolve.NewCachedFunc(f)
	x := []float64{1, 2, 3}
	y := make([]float64, 3)
	for i := 0; i < 2; i++ {
		err := c.Evaluate(x, y)
		if err != nil {
			t.Fatal(err)
		}
		if y[0] != 1 || y[1] != 4 || y[2] != 9 {
			t.Fatalf("bad cached results %v", y)
		}
	}
	if c.Evaluations() != 6 || c.CacheHits() != 3 {
		t.Errorf("got %d evaluations and %d hits, want 6 and 3", c.Evaluations(), c.CacheHits())
	}
	spec := revolve.Spec{Funcs: []revolve.Func{c}, B: 1, DX: 0.1}
	cached, err := revolve.Integrate(context.Background(), spec)
	if err != nil {
		t.Fatal(err)
	}
	spec.Funcs = []revolve.Func{f}
	direct, _ := revolve.Integrate(context.Background(), spec)
	if cached != direct {
		t.Errorf("cached integration %g differs from direct %g", cached, direct)
	}
}
