package revolve

import (
	"errors"
	"math"
	"slices"
)

var errMismatchBufferLength = errors.New("x and y buffer length mismatch")

// CachedFunc memoizes evaluations of a [Func] keyed on the exact bits of the abscissa.
// It is useful when the same function is integrated, meshed and plotted.
// CachedFunc is not safe for concurrent use.
type CachedFunc struct {
	f     Func
	m     map[uint64]float64
	xbuf  []float64
	ybuf  []float64
	idx   []int
	hits  uint64
	evals uint64
}

// NewCachedFunc returns a cache in front of f.
func NewCachedFunc(f Func) *CachedFunc {
	return &CachedFunc{f: f, m: make(map[uint64]float64)}
}

// CacheHits returns total amount of cached evaluations done throughout the cache's lifetime.
func (c *CachedFunc) CacheHits() uint64 {
	return c.hits
}

// Evaluations returns total evaluations performed successfully during the cache's lifetime, including cached.
func (c *CachedFunc) Evaluations() uint64 {
	return c.evals
}

// Evaluate implements the [Func] interface with cached evaluation.
func (c *CachedFunc) Evaluate(x, y []float64) error {
	if len(x) != len(y) {
		return errMismatchBufferLength
	}
	if c.m == nil {
		c.m = make(map[uint64]float64)
	}
	seekX := c.xbuf[:0]
	idx := c.idx[:0]
	for i, xi := range x {
		v, cached := c.m[math.Float64bits(xi)]
		if cached {
			y[i] = v
		} else {
			seekX = append(seekX, xi)
			idx = append(idx, i)
		}
	}
	if len(idx) > 0 {
		// Renew buffers in case they were grown.
		c.idx = idx
		c.xbuf = seekX
		c.ybuf = slices.Grow(c.ybuf[:0], len(seekX))
		seekY := c.ybuf[:len(seekX)]
		err := c.f.Evaluate(seekX, seekY)
		if err != nil {
			return err
		}
		for i, xi := range seekX {
			c.m[math.Float64bits(xi)] = seekY[i]
			y[idx[i]] = seekY[i]
		}
	}
	c.evals += uint64(len(y))
	c.hits += uint64(len(y) - len(seekX))
	return nil
}
