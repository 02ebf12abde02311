package render

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
)

const (
	// STLHeaderSize is the size of the free form binary STL header.
	STLHeaderSize = 80
	// stlRecordSize is the size of a single triangle record: normal, 3 vertices
	// (12 float32s) and a 2 byte attribute count.
	stlRecordSize = 12*4 + 2
	// maxSTLTriangles bounds the triangle count accepted by ReadBinarySTL (~5GB file).
	maxSTLTriangles = 100_000_000
	// DefaultSTLHeader is written by WriteBinarySTL.
	DefaultSTLHeader = "binary STL generated by revolve"
)

// WriteBinarySTL writes triangles as a binary STL with the default header.
// It returns the amount of bytes written.
func WriteBinarySTL(w io.Writer, triangles []ms3.Triangle) (int, error) {
	return WriteBinarySTLHeader(w, DefaultSTLHeader, triangles)
}

// WriteBinarySTLHeader writes triangles as a binary STL. The header is truncated or
// zero padded to 80 bytes. The header should not begin with "solid" since some
// readers then assume an ASCII STL. Normals are computed from triangle edges
// following the right hand rule and are zero for degenerate triangles.
func WriteBinarySTLHeader(w io.Writer, header string, triangles []ms3.Triangle) (int, error) {
	if uint64(len(triangles)) > math.MaxUint32 {
		return 0, fmt.Errorf("%d triangles exceed binary STL limit", len(triangles))
	}
	bw := bufio.NewWriterSize(w, 64*stlRecordSize)
	var hdr [STLHeaderSize + 4]byte
	copy(hdr[:STLHeaderSize], header)
	binary.LittleEndian.PutUint32(hdr[STLHeaderSize:], uint32(len(triangles)))
	n, err := bw.Write(hdr[:])
	if err != nil {
		return n, err
	}
	var rec [stlRecordSize]byte
	for _, t := range triangles {
		normal := TriangleNormal(t)
		putVec(rec[0:12], normal)
		putVec(rec[12:24], t[0])
		putVec(rec[24:36], t[1])
		putVec(rec[36:48], t[2])
		// Attribute byte count rec[48:50] is always zero.
		nw, err := bw.Write(rec[:])
		n += nw
		if err != nil {
			return n, err
		}
	}
	return n, bw.Flush()
}

// ReadBinarySTL reads a binary STL written by [WriteBinarySTL] or any conforming
// writer. Stored normals and attributes are discarded.
func ReadBinarySTL(r io.Reader) ([]ms3.Triangle, error) {
	br := bufio.NewReaderSize(r, 64*stlRecordSize)
	var hdr [STLHeaderSize + 4]byte
	_, err := io.ReadFull(br, hdr[:])
	if err != nil {
		return nil, fmt.Errorf("reading STL header: %w", noEOF(err))
	}
	count := binary.LittleEndian.Uint32(hdr[STLHeaderSize:])
	if count > maxSTLTriangles {
		return nil, fmt.Errorf("STL triangle count %d too large", count)
	}
	triangles := make([]ms3.Triangle, count)
	var rec [stlRecordSize]byte
	for i := range triangles {
		_, err = io.ReadFull(br, rec[:])
		if err != nil {
			return nil, fmt.Errorf("reading STL triangle %d of %d: %w", i, count, noEOF(err))
		}
		triangles[i] = ms3.Triangle{getVec(rec[12:24]), getVec(rec[24:36]), getVec(rec[36:48])}
	}
	return triangles, nil
}

// TriangleNormal returns the unit normal of t following the right hand rule
// or the zero vector if t is degenerate.
func TriangleNormal(t ms3.Triangle) ms3.Vec {
	n := ms3.Cross(ms3.Sub(t[1], t[0]), ms3.Sub(t[2], t[0]))
	norm := ms3.Norm(n)
	if norm == 0 || math32.IsNaN(norm) || math32.IsInf(norm, 0) {
		return ms3.Vec{}
	}
	return ms3.Scale(1/norm, n)
}

func putVec(b []byte, v ms3.Vec) {
	_ = b[11] // Bounds check elimination.
	binary.LittleEndian.PutUint32(b[0:], math32.Float32bits(v.X))
	binary.LittleEndian.PutUint32(b[4:], math32.Float32bits(v.Y))
	binary.LittleEndian.PutUint32(b[8:], math32.Float32bits(v.Z))
}

func getVec(b []byte) ms3.Vec {
	_ = b[11]
	return ms3.Vec{
		X: math.Float32frombits(binary.LittleEndian.Uint32(b[0:])),
		Y: math.Float32frombits(binary.LittleEndian.Uint32(b[4:])),
		Z: math.Float32frombits(binary.LittleEndian.Uint32(b[8:])),
	}
}

// noEOF converts io.EOF to io.ErrUnexpectedEOF since a binary STL never ends early.
func noEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}
