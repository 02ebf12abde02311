package revolve

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
)

const (
	// DefaultResolution is the mesh resolution used when MeshConfig.Resolution is zero.
	DefaultResolution = 50
	// MaxResolution bounds the mesh resolution. Meshes hold Resolution² vertices.
	MaxResolution = 4096
)

// MeshConfig configures revolution surface sampling.
type MeshConfig struct {
	// Resolution is the amount of samples along both the sweep variable and the
	// rotation angle. If zero DefaultResolution is used.
	Resolution int
	// OpenSeam leaves the last angular column unconnected to the first,
	// producing an open cylinder along the rotation angle. By default the seam
	// is closed for a watertight surface between the end rings.
	OpenSeam bool
}

// Mesh is a triangulated surface. Faces index into Vertices.
type Mesh struct {
	Vertices []ms3.Vec
	Faces    [][3]int
}

// NewMeshFromSpec meshes the revolved function of spec over [spec.A, spec.B] about spec.Axis.
func NewMeshFromSpec(ctx context.Context, spec Spec, cfg MeshConfig) (*Mesh, error) {
	if spec.Revolve < 0 || spec.Revolve >= len(spec.Funcs) {
		return nil, fmt.Errorf("%w: function %d selected but only %d supplied", ErrInvalidSelection, spec.Revolve+1, len(spec.Funcs))
	}
	return NewMesh(ctx, spec.Funcs[spec.Revolve], spec.Axis, spec.A, spec.B, cfg)
}

// NewMesh samples the surface generated by revolving r over [a, b] about axis.
// The sweep variable takes N values linearly spaced over [a, b] inclusive and the
// rotation angle θ takes N values spaced over [0, 2π). About the x axis
// vertex (i,j) is (xᵢ, r(xᵢ)cosθⱼ, r(xᵢ)sinθⱼ); about the y axis it is
// (r(yᵢ)cosθⱼ, yᵢ, r(yᵢ)sinθⱼ). Vertices are stored row major by sweep index.
//
// Each grid quad is split into two triangles. See [MeshConfig] for seam handling.
func NewMesh(ctx context.Context, r Func, axis Axis, a, b float64, cfg MeshConfig) (*Mesh, error) {
	n := cfg.Resolution
	if n == 0 {
		n = DefaultResolution
	}
	switch {
	case n < 2 || n > MaxResolution:
		return nil, fmt.Errorf("%w: %d, want 2..%d", ErrInvalidResolution, n, MaxResolution)
	case r == nil:
		return nil, fmt.Errorf("%w: nil function", ErrInvalidSelection)
	case isBadFloat(a) || isBadFloat(b) || a == b:
		return nil, fmt.Errorf("%w: a=%g b=%g", ErrInvalidBounds, a, b)
	case axis != AxisX && axis != AxisY:
		return nil, fmt.Errorf("invalid axis %s", axis)
	}

	sweep := make([]float64, n)
	step := (b - a) / float64(n-1)
	for i := range sweep {
		sweep[i] = a + float64(i)*step
	}
	sweep[n-1] = b
	radii := make([]float64, n)
	err := r.Evaluate(sweep, radii)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEvaluationFailure, err)
	}

	sin := make([]float32, n)
	cos := make([]float32, n)
	for j := range sin {
		theta := 2 * math32.Pi * float32(j) / float32(n)
		sin[j], cos[j] = math32.Sincos(theta)
	}

	m := &Mesh{
		Vertices: make([]ms3.Vec, 0, n*n),
	}
	for i, s := range sweep {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("meshing interrupted: %w", err)
		}
		u := float32(s)
		rad := float32(radii[i])
		for j := range sin {
			c := rad * cos[j]
			z := rad * sin[j]
			if axis == AxisX {
				m.Vertices = append(m.Vertices, ms3.Vec{X: u, Y: c, Z: z})
			} else {
				m.Vertices = append(m.Vertices, ms3.Vec{X: c, Y: u, Z: z})
			}
		}
	}

	cols := n - 1
	if !cfg.OpenSeam {
		cols = n
	}
	m.Faces = make([][3]int, 0, 2*(n-1)*cols)
	for i := 0; i < n-1; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("meshing interrupted: %w", err)
		}
		for j := 0; j < cols; j++ {
			jn := (j + 1) % n
			v1 := i*n + j
			v2 := i*n + jn
			v3 := (i+1)*n + j
			v4 := (i+1)*n + jn
			m.Faces = append(m.Faces, [3]int{v1, v2, v3}, [3]int{v2, v4, v3})
		}
	}
	return m, nil
}

// NumTriangles returns the amount of faces in the mesh.
func (m *Mesh) NumTriangles() int { return len(m.Faces) }

// Triangle returns the vertex positions of the i'th face.
func (m *Mesh) Triangle(i int) ms3.Triangle {
	f := m.Faces[i]
	return ms3.Triangle{m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]}
}

// AppendTriangles appends all faces of the mesh to dst as triangles and returns the result.
func (m *Mesh) AppendTriangles(dst []ms3.Triangle) []ms3.Triangle {
	for i := range m.Faces {
		dst = append(dst, m.Triangle(i))
	}
	return dst
}

// Bounds returns the axis aligned bounding box of the mesh vertices.
func (m *Mesh) Bounds() ms3.Box {
	if len(m.Vertices) == 0 {
		return ms3.Box{}
	}
	bb := ms3.Box{Min: m.Vertices[0], Max: m.Vertices[0]}
	for _, v := range m.Vertices[1:] {
		bb.Min = ms3.MinElem(bb.Min, v)
		bb.Max = ms3.MaxElem(bb.Max, v)
	}
	return bb
}

// Validate checks that every face indexes three distinct, existing vertices.
func (m *Mesh) Validate() error {
	nv := len(m.Vertices)
	for i, f := range m.Faces {
		for _, idx := range f {
			if idx < 0 || idx >= nv {
				return fmt.Errorf("face %d: vertex index %d out of range [0,%d)", i, idx, nv)
			}
		}
		if f[0] == f[1] || f[1] == f[2] || f[0] == f[2] {
			return fmt.Errorf("face %d: repeated vertex index %v", i, f)
		}
	}
	return nil
}

// TriangleReader returns a reader over the mesh triangles, which is useful for
// streaming a mesh through a triangle renderer interface.
func (m *Mesh) TriangleReader() *TriangleReader {
	return &TriangleReader{m: m}
}

// TriangleReader reads the faces of a [Mesh] as triangles in order.
type TriangleReader struct {
	m    *Mesh
	next int
}

// ReadTriangles reads up to len(dst) triangles into dst. It returns io.EOF once all
// triangles have been read. userData is unused.
func (tr *TriangleReader) ReadTriangles(dst []ms3.Triangle, userData any) (n int, err error) {
	if len(dst) == 0 {
		return 0, errors.New("empty triangle buffer")
	}
	for n < len(dst) && tr.next < len(tr.m.Faces) {
		dst[n] = tr.m.Triangle(tr.next)
		n++
		tr.next++
	}
	if tr.next >= len(tr.m.Faces) {
		return n, io.EOF
	}
	return n, nil
}

// NumTriangles returns the total amount of triangles the reader yields from the start.
func (tr *TriangleReader) NumTriangles() int { return len(tr.m.Faces) }
