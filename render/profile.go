package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"strconv"

	"github.com/golang/freetype/truetype"
	"github.com/soypat/geometry/ms2"
	"github.com/soypat/glgl/math/ms1"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// Func is a vectorized real function of one variable, see revolve.Func.
type Func = interface {
	Evaluate(x, y []float64) error
}

// Profile describes the 2D region between curves that is revolved.
type Profile struct {
	Funcs []Func
	// Revolve is the index of the revolved function, whose area down to y=0 is shaded.
	Revolve int
	// A and B are the plotted abscissa bounds.
	A, B float64
	// Labels are legend labels for Funcs. Missing labels default to "f1(x)", "f2(x)"...
	Labels []string
	// CrossSections are abscissas at which the revolved function is marked with a vertical line.
	CrossSections []float64
	Title         string
}

// ProfileRenderer rasterizes a [Profile] onto images. It reuses evaluation buffers
// between calls and is not safe for concurrent use.
type ProfileRenderer struct {
	palette func(i int) color.Color
	face    font.Face
	xs      []float64
	ys      [][]float64
	z       vector.Rasterizer
}

const (
	marginLeft   = 64
	marginRight  = 24
	marginTop    = 36
	marginBottom = 40
	strokeWidth  = 2
	fillAlpha    = 0.3
)

var defaultPalette = []color.Color{
	color.RGBA{R: 31, G: 119, B: 180, A: 255},
	color.RGBA{R: 214, G: 39, B: 40, A: 255},
	color.RGBA{R: 44, G: 160, B: 44, A: 255},
}

// NewProfileRenderer instances a [ProfileRenderer] that samples curves at the given
// amount of abscissas. A nil palette selects blue, red and green for the first three functions.
func NewProfileRenderer(samples int, palette func(i int) color.Color) (*ProfileRenderer, error) {
	if samples < 2 {
		return nil, errors.New("profile requires at least 2 samples")
	}
	if palette == nil {
		palette = func(i int) color.Color { return defaultPalette[i%len(defaultPalette)] }
	}
	ttf, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing label font: %w", err)
	}
	pr := &ProfileRenderer{
		palette: palette,
		face:    truetype.NewFace(ttf, &truetype.Options{Size: 13, DPI: 72, Hinting: font.HintingFull}),
		xs:      make([]float64, samples),
	}
	return pr, nil
}

// Render draws the profile onto img: shaded area of the revolved function, every
// curve, cross section marks, axes with bound labels, legend and title.
func (pr *ProfileRenderer) Render(img draw.Image, p Profile) error {
	if len(p.Funcs) == 0 {
		return errors.New("no functions to plot")
	} else if p.Revolve < 0 || p.Revolve >= len(p.Funcs) {
		return fmt.Errorf("revolved function %d out of range", p.Revolve)
	}
	a, b := math.Min(p.A, p.B), math.Max(p.A, p.B)
	if a == b || math.IsInf(b-a, 0) || math.IsNaN(b-a) {
		return fmt.Errorf("invalid profile bounds [%g, %g]", p.A, p.B)
	}
	bounds := img.Bounds()
	if bounds.Dx() <= marginLeft+marginRight || bounds.Dy() <= marginTop+marginBottom {
		return fmt.Errorf("image %v too small for profile", bounds.Size())
	}

	n := len(pr.xs)
	step := (b - a) / float64(n-1)
	for i := range pr.xs {
		pr.xs[i] = a + float64(i)*step
	}
	pr.xs[n-1] = b
	for len(pr.ys) < len(p.Funcs) {
		pr.ys = append(pr.ys, make([]float64, n))
	}
	ymin, ymax := 0.0, 0.0
	for k, f := range p.Funcs {
		ys := pr.ys[k][:n]
		err := f.Evaluate(pr.xs, ys)
		if err != nil {
			return fmt.Errorf("evaluating f%d: %w", k+1, err)
		}
		for _, y := range ys {
			if !math.IsInf(y, 0) && !math.IsNaN(y) {
				ymin = math.Min(ymin, y)
				ymax = math.Max(ymax, y)
			}
		}
	}
	if ymax == ymin {
		ymax += 1
	}
	pad := 0.05 * (ymax - ymin)
	ymin -= pad
	ymax += pad

	plot := image.Rect(bounds.Min.X+marginLeft, bounds.Min.Y+marginTop, bounds.Max.X-marginRight, bounds.Max.Y-marginBottom)
	tf := transform{plot: plot, a: a, b: b, ymin: ymin, ymax: ymax}
	draw.Draw(img, bounds, image.White, image.Point{}, draw.Src)

	// Shade the revolved function's area down to the x axis.
	rev := pr.ys[p.Revolve][:n]
	pr.resetRasterizer(bounds)
	zero := tf.pos(a, 0)
	pr.z.MoveTo(zero.X, zero.Y)
	for i, x := range pr.xs {
		pt := tf.pos(x, rev[i])
		pr.z.LineTo(pt.X, pt.Y)
	}
	end := tf.pos(b, 0)
	pr.z.LineTo(end.X, end.Y)
	pr.z.ClosePath()
	pr.z.Draw(img, bounds, image.NewUniform(withAlpha(pr.palette(p.Revolve), fillAlpha)), bounds.Min)

	// Axes.
	gray := color.Gray{Y: 96}
	pr.resetRasterizer(bounds)
	pr.strokeSegment(tf.pos(a, 0), tf.pos(b, 0), 1)
	pr.strokeRect(plot.Sub(bounds.Min))
	pr.z.Draw(img, bounds, image.NewUniform(gray), bounds.Min)

	// Cross section marks from the axis to the revolved curve.
	for _, xc := range p.CrossSections {
		if xc < a || xc > b {
			continue
		}
		var yc [1]float64
		err := p.Funcs[p.Revolve].Evaluate([]float64{xc}, yc[:])
		if err != nil {
			return fmt.Errorf("evaluating cross section at x=%g: %w", xc, err)
		}
		pr.resetRasterizer(bounds)
		pr.strokeSegment(tf.pos(xc, 0), tf.pos(xc, yc[0]), strokeWidth)
		pr.z.Draw(img, bounds, image.Black, bounds.Min)
	}

	// Curves and legend.
	for k := range p.Funcs {
		ys := pr.ys[k][:n]
		pr.resetRasterizer(bounds)
		prev := tf.pos(pr.xs[0], ys[0])
		for i := 1; i < n; i++ {
			pt := tf.pos(pr.xs[i], ys[i])
			pr.strokeSegment(prev, pt, strokeWidth)
			prev = pt
		}
		c := pr.palette(k)
		pr.z.Draw(img, bounds, image.NewUniform(c), bounds.Min)
		label := "f" + strconv.Itoa(k+1) + "(x)"
		if k < len(p.Labels) && p.Labels[k] != "" {
			label = p.Labels[k]
		}
		if k == p.Revolve {
			label += " (revolved)"
		}
		pr.drawText(img, plot.Max.X-pr.textWidth(label)-8, plot.Min.Y+18*(k+1), c, label)
	}

	// Bound labels and title.
	black := color.Black
	labelY := plot.Max.Y + 18
	pr.drawText(img, plot.Min.X, labelY, black, formatTick(a))
	bl := formatTick(b)
	pr.drawText(img, plot.Max.X-pr.textWidth(bl), labelY, black, bl)
	pr.drawText(img, bounds.Min.X+4, plot.Min.Y+12, black, formatTick(ymax))
	pr.drawText(img, bounds.Min.X+4, plot.Max.Y, black, formatTick(ymin))
	if p.Title != "" {
		pr.drawText(img, plot.Min.X+(plot.Dx()-pr.textWidth(p.Title))/2, bounds.Min.Y+marginTop-12, black, p.Title)
	}
	return nil
}

func (pr *ProfileRenderer) resetRasterizer(bounds image.Rectangle) {
	pr.z.Reset(bounds.Dx(), bounds.Dy())
	pr.z.DrawOp = draw.Over
}

// strokeSegment adds a quad of the given width covering the segment p0-p1 to the rasterizer path.
func (pr *ProfileRenderer) strokeSegment(p0, p1 ms2.Vec, width float32) {
	d := ms2.Sub(p1, p0)
	l := ms2.Norm(d)
	if l == 0 {
		return
	}
	off := ms2.Scale(width/(2*l), ms2.Vec{X: -d.Y, Y: d.X})
	q0, q1 := ms2.Add(p0, off), ms2.Add(p1, off)
	q2, q3 := ms2.Sub(p1, off), ms2.Sub(p0, off)
	pr.z.MoveTo(q0.X, q0.Y)
	pr.z.LineTo(q1.X, q1.Y)
	pr.z.LineTo(q2.X, q2.Y)
	pr.z.LineTo(q3.X, q3.Y)
	pr.z.ClosePath()
}

func (pr *ProfileRenderer) strokeRect(r image.Rectangle) {
	c := [4]ms2.Vec{
		{X: float32(r.Min.X), Y: float32(r.Min.Y)},
		{X: float32(r.Max.X), Y: float32(r.Min.Y)},
		{X: float32(r.Max.X), Y: float32(r.Max.Y)},
		{X: float32(r.Min.X), Y: float32(r.Max.Y)},
	}
	for i := range c {
		pr.strokeSegment(c[i], c[(i+1)%4], 1)
	}
}

func (pr *ProfileRenderer) drawText(img draw.Image, x, y int, c color.Color, s string) {
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: pr.face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

func (pr *ProfileRenderer) textWidth(s string) int {
	return font.MeasureString(pr.face, s).Ceil()
}

// transform maps plot coordinates to rasterizer coordinates, which are relative
// to the image bounds' minimum point.
type transform struct {
	plot       image.Rectangle
	a, b       float64
	ymin, ymax float64
}

func (tf transform) pos(x, y float64) ms2.Vec {
	if math.IsNaN(y) {
		y = 0
	}
	sx := float32((x - tf.a) / (tf.b - tf.a))
	sy := float32((tf.ymax - y) / (tf.ymax - tf.ymin))
	// Keep off-scale and infinite values just outside the plot area.
	sx = ms1.Clamp(sx, -0.01, 1.01)
	sy = ms1.Clamp(sy, -0.01, 1.01)
	return ms2.Vec{
		X: float32(marginLeft) + sx*float32(tf.plot.Dx()),
		Y: float32(marginTop) + sy*float32(tf.plot.Dy()),
	}
}

func withAlpha(c color.Color, alpha float32) color.Color {
	r, g, b, _ := c.RGBA()
	return color.NRGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: uint8(ms1.Clamp(alpha, 0, 1) * 255)}
}

func formatTick(v float64) string {
	return strconv.FormatFloat(v, 'g', 4, 64)
}
