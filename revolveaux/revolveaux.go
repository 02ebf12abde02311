// Package revolveaux glues the revolve packages into ready made workflows:
// parsing raw user input, writing reports and rendering STL and PNG outputs
// with progress logging.
package revolveaux

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/revolve"
	"github.com/soypat/revolve/render"
)

// ErrSerializationFailure is returned when an output file or stream cannot be written.
var ErrSerializationFailure = errors.New("serialization failed")

const (
	// profileSamples is the amount of abscissas sampled per curve in PNG profiles.
	profileSamples = 400
	stlFileMode    = 0o644
)

type RenderConfig struct {
	// STLOutput receives the binary STL of the revolved surface.
	STLOutput io.Writer
	// VisualOutput receives a PNG of the 2D profile being revolved.
	VisualOutput io.Writer
	// Resolution is the mesh resolution, see [revolve.MeshConfig].
	Resolution int
	OpenSeam   bool
	// PlotHeight is the PNG height in pixels. Width is 4/3 of the height.
	PlotHeight int
	// CrossSections marks the profile at five evenly spaced abscissas.
	CrossSections bool
	// Labels are legend labels for the profile functions.
	Labels []string
	Silent bool
	// Logger receives progress messages. If nil the logrus standard logger is used.
	Logger *logrus.Logger
	// EnableCaching memoizes function evaluations with [revolve.CachedFunc].
	// Useful for expensive formulas sampled at repeated abscissas.
	EnableCaching bool
}

// Render is an auxiliary function that meshes and writes the solid described by spec
// to the outputs set in cfg, logging timings along the way.
func Render(ctx context.Context, spec revolve.Spec, cfg RenderConfig) (err error) {
	if cfg.STLOutput == nil && cfg.VisualOutput == nil {
		return errors.New("Render requires output parameter in config")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	log := func(fields logrus.Fields, msg string) {
		if !cfg.Silent {
			logger.WithFields(fields).Info(msg)
		}
	}
	if spec.Revolve < 0 || spec.Revolve >= len(spec.Funcs) {
		return fmt.Errorf("%w: function %d selected but only %d supplied", revolve.ErrInvalidSelection, spec.Revolve+1, len(spec.Funcs))
	}
	if cfg.EnableCaching {
		funcs := make([]revolve.Func, len(spec.Funcs))
		caches := make([]*revolve.CachedFunc, len(spec.Funcs))
		for i, f := range spec.Funcs {
			caches[i] = revolve.NewCachedFunc(f)
			funcs[i] = caches[i]
		}
		spec.Funcs = funcs
		defer func() {
			var hits, evals uint64
			for _, c := range caches {
				hits += c.CacheHits()
				evals += c.Evaluations()
			}
			log(logrus.Fields{"evaluations": evals, "percent": percentUint64(hits, evals)}, "function caching omitted evaluations")
		}()
	}

	if cfg.STLOutput != nil {
		watch := stopwatch()
		mesh, err := revolve.NewMeshFromSpec(ctx, spec, revolve.MeshConfig{Resolution: cfg.Resolution, OpenSeam: cfg.OpenSeam})
		if err != nil {
			return err
		}
		triangles, err := render.RenderAll(mesh.TriangleReader(), nil)
		if err != nil {
			return fmt.Errorf("rendering triangles: %w", err)
		}
		log(logrus.Fields{"vertices": len(mesh.Vertices), "triangles": len(triangles), "elapsed": watch()}, "meshed surface")

		watch = stopwatch()
		_, err = render.WriteBinarySTL(cfg.STLOutput, triangles)
		if err != nil {
			return fmt.Errorf("%w: writing STL: %w", ErrSerializationFailure, err)
		}
		log(logrus.Fields{"output": outputName(cfg.STLOutput, "STL"), "elapsed": watch()}, "wrote STL")
	}

	if cfg.VisualOutput != nil {
		watch := stopwatch()
		img, err := renderProfile(spec, cfg.PlotHeight, cfg.Labels, cfg.CrossSections, nil)
		if err != nil {
			return err
		}
		err = png.Encode(cfg.VisualOutput, img)
		if err != nil {
			return fmt.Errorf("%w: encoding PNG: %w", ErrSerializationFailure, err)
		}
		log(logrus.Fields{"output": outputName(cfg.VisualOutput, "PNG"), "elapsed": watch()}, "wrote profile")
	}
	return nil
}

// WriteSTLFile writes triangles as a binary STL file. The file is first written to a
// temporary file in the same directory and renamed into place once complete,
// so a failed write never leaves a partial file at filename. The file is
// created with mode 0644.
func WriteSTLFile(filename string, triangles []ms3.Triangle) (err error) {
	dir, base := filepath.Split(filename)
	if dir == "" {
		dir = "."
	}
	fp, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSerializationFailure, err)
	}
	tmpname := fp.Name()
	defer func() {
		if err != nil {
			fp.Close()
			if rmErr := os.Remove(tmpname); rmErr != nil {
				err = errors.Join(err, rmErr)
			}
			err = fmt.Errorf("%w: %w", ErrSerializationFailure, err)
		}
	}()
	_, err = render.WriteBinarySTL(fp, triangles)
	if err != nil {
		return err
	}
	err = fp.Chmod(stlFileMode)
	if err != nil {
		return err
	}
	err = fp.Sync()
	if err != nil {
		return err
	}
	err = fp.Close()
	if err != nil {
		return err
	}
	return os.Rename(tmpname, filename)
}

// RenderPNGFile renders the profile of spec as an image of the given height and saves
// it to a PNG file with said filename. If a nil palette is passed then one is automatically chosen.
func RenderPNGFile(filename string, spec revolve.Spec, picHeight int, labels []string, crossSections bool, palette func(int) color.Color) error {
	img, err := renderProfile(spec, picHeight, labels, crossSections, palette)
	if err != nil {
		return err
	}
	fp, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSerializationFailure, err)
	}
	defer fp.Close()
	err = png.Encode(fp, img)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSerializationFailure, err)
	}
	return fp.Sync()
}

func renderProfile(spec revolve.Spec, picHeight int, labels []string, crossSections bool, palette func(int) color.Color) (*image.RGBA, error) {
	if picHeight <= 0 {
		picHeight = 480
	}
	if palette == nil {
		palette = DefaultPalette()
	}
	pr, err := render.NewProfileRenderer(profileSamples, palette)
	if err != nil {
		return nil, err
	}
	p := render.Profile{
		Funcs:   make([]render.Func, len(spec.Funcs)),
		Revolve: spec.Revolve,
		A:       spec.A,
		B:       spec.B,
		Labels:  labels,
		Title:   fmt.Sprintf("%s method about the %s axis", spec.Method, spec.Axis),
	}
	for i, f := range spec.Funcs {
		p.Funcs[i] = f
	}
	if crossSections {
		p.CrossSections = CrossSectionAbscissas(spec.A, spec.B)
	}
	img := image.NewRGBA(image.Rect(0, 0, picHeight*4/3, picHeight))
	err = pr.Render(img, p)
	if err != nil {
		return nil, fmt.Errorf("rendering profile: %w", err)
	}
	return img, nil
}

// CrossSectionAbscissas returns the five evenly spaced abscissas over [a, b]
// inclusive at which cross sections are shown.
func CrossSectionAbscissas(a, b float64) []float64 {
	const n = 5
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = a + float64(i)*(b-a)/(n-1)
	}
	xs[n-1] = b
	return xs
}

func outputName(w io.Writer, fallback string) string {
	if fp, ok := w.(*os.File); ok {
		return fp.Name()
	}
	return fallback
}

func stopwatch() func() time.Duration {
	start := time.Now()
	return func() time.Duration {
		return time.Since(start)
	}
}
