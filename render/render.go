// Package render converts revolution meshes and profiles into interchange
// formats: binary STL for triangles and raster images for 2D previews.
package render

import (
	"errors"
	"io"

	"github.com/soypat/geometry/ms3"
)

// Renderer streams triangles. ReadTriangles returns io.EOF once exhausted.
type Renderer interface {
	ReadTriangles(dst []ms3.Triangle, userData any) (n int, err error)
}

// sizer is implemented by renderers that know their total triangle count in advance.
type sizer interface {
	NumTriangles() int
}

// RenderAll reads the full contents of a Renderer and returns the slice read.
// It does not return error on io.EOF, like the io.ReadAll implementation.
func RenderAll(r Renderer, userData any) ([]ms3.Triangle, error) {
	const startSize = 4096
	if r == nil {
		return nil, errors.New("nil Renderer")
	}
	capacity := startSize
	if s, ok := r.(sizer); ok {
		capacity = s.NumTriangles()
	}
	var err error
	var nt int
	result := make([]ms3.Triangle, 0, capacity)
	buf := make([]ms3.Triangle, startSize)
	for {
		nt, err = r.ReadTriangles(buf, userData)
		if err == nil || err == io.EOF {
			result = append(result, buf[:nt]...)
		}
		if err != nil {
			break
		}
	}
	if err == io.EOF {
		return result, nil
	}
	return result, err
}
