package revolve

import (
	"context"
	"fmt"
	"math"
)

const (
	// MaxSamples is the maximum amount of Riemann sum samples a single integration may take.
	MaxSamples = 1 << 27
	// evalChunk is the amount of abscissas evaluated per Func.Evaluate call.
	evalChunk = 4096
)

// Calculate integrates the volume described by spec. See [Integrate].
func Calculate(ctx context.Context, spec Spec) (Result, error) {
	v, err := Integrate(ctx, spec)
	if err != nil {
		return Result{}, err
	}
	return Result{Spec: spec, Volume: v}, nil
}

// Integrate computes the volume of the solid of revolution described by spec
// with a left Riemann sum. Samples are taken at a, a+dx, a+2dx, ... strictly
// less than b, in ascending order, so identical inputs give identical results.
//
// Disk and washer volumes are not clamped: a washer whose revolved function does
// not bound the other functions may yield a negative volume. Shell volumes take
// the absolute value of the shell height and of the shell radius x, so they are
// never negative for a < b, even over intervals reaching below x=0.
// If a > b the result is the negated volume over [b, a].
func Integrate(ctx context.Context, spec Spec) (float64, error) {
	err := spec.Validate()
	if err != nil {
		return 0, err
	}
	lo, hi, sign := spec.A, spec.B, 1.0
	if lo > hi {
		lo, hi, sign = hi, lo, -1
	}
	dx := spec.DX
	n := sampleCount(lo, hi, dx)
	bufsize := min(n, evalChunk)
	xbuf := make([]float64, bufsize)
	ybufs := make([][]float64, len(spec.Funcs))
	for i := range ybufs {
		ybufs[i] = make([]float64, bufsize)
	}
	term := termFunc(spec, dx)
	var volume float64
	for start := 0; start < n; start += evalChunk {
		if err := ctx.Err(); err != nil {
			return 0, fmt.Errorf("integration interrupted at sample %d of %d: %w", start, n, err)
		}
		xs := xbuf[:min(evalChunk, n-start)]
		for i := range xs {
			xs[i] = lo + float64(start+i)*dx
		}
		for k, f := range spec.Funcs {
			err := f.Evaluate(xs, ybufs[k][:len(xs)])
			if err != nil {
				return 0, fmt.Errorf("%w: f%d: %w", ErrEvaluationFailure, k+1, err)
			}
		}
		for i, x := range xs {
			volume += term(x, i, ybufs)
		}
	}
	return sign * volume, nil
}

// termFunc returns the Riemann sum term for sample i at abscissa x given the
// evaluated function values ys[function][sample].
func termFunc(spec Spec, dx float64) func(x float64, i int, ys [][]float64) float64 {
	rev := spec.Revolve
	if spec.Axis == AxisY {
		subtract := spec.Method == MethodWasher && len(spec.Funcs) > 1
		return func(x float64, i int, ys [][]float64) float64 {
			height := ys[rev][i]
			if subtract {
				for k := range ys {
					if k != rev {
						height -= ys[k][i]
					}
				}
			}
			return 2 * math.Pi * math.Abs(x) * math.Abs(height) * dx
		}
	}
	if spec.Method == MethodDisk {
		return func(x float64, i int, ys [][]float64) float64 {
			r := ys[rev][i]
			return math.Pi * (r * r) * dx
		}
	}
	return func(x float64, i int, ys [][]float64) float64 {
		outer := ys[rev][i]
		var innerSq float64
		for k := range ys {
			if k != rev {
				innerSq += ys[k][i] * ys[k][i]
			}
		}
		return math.Pi * (outer*outer - innerSq) * dx
	}
}

// sampleCount returns the length of the sequence lo, lo+dx, ... strictly less than hi.
// Values above MaxSamples are saturated to MaxSamples+1.
func sampleCount(lo, hi, dx float64) int {
	n := math.Ceil((hi - lo) / dx)
	switch {
	case !(n > 0):
		return 0
	case n > MaxSamples:
		return MaxSamples + 1
	}
	return int(n)
}
