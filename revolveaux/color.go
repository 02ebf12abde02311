package revolveaux

import (
	"image/color"

	math "github.com/chewxy/math32"
	"github.com/soypat/glgl/math/ms1"
)

var (
	blue  = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	green = color.RGBA{R: 44, G: 160, B: 44, A: 255}
)

// DefaultPalette returns the curve colors used when none are configured.
func DefaultPalette() func(i int) color.Color {
	return ColorPaletteHSV(3, blue, green)
}

// ColorPaletteHSV returns a palette of n colors interpolated in HSV space from c0 to c1,
// taking the short way around the hue circle. Indices outside [0, n) wrap around.
func ColorPaletteHSV(n int, c0, c1 color.Color) func(i int) color.Color {
	n = max(n, 1)
	h0, s0, v0 := colorToHSV(c0)
	h1, s1, v1 := colorToHSV(c1)
	switch {
	case h1-h0 > 0.5:
		h0++
	case h1-h0 < -0.5:
		h1++
	}
	colors := make([]color.Color, n)
	for i := range colors {
		var t float32
		if n > 1 {
			t = float32(i) / float32(n-1)
		}
		h := ms1.Interp(h0, h1, t)
		colors[i] = hsvToRGBA(h-math.Floor(h), ms1.Interp(s0, s1, t), ms1.Interp(v0, v1, t))
	}
	return func(i int) color.Color {
		i %= n
		if i < 0 {
			i += n
		}
		return colors[i]
	}
}

func percentUint64(num, denom uint64) float32 {
	if denom == 0 {
		return 0
	}
	return math.Trunc(10000*float32(num)/float32(denom)) / 100
}

// colorToHSV returns hue, saturation and value of c on the range 0.0 to 1.0.
func colorToHSV(c color.Color) (h, s, v float32) {
	r0, g0, b0, _ := c.RGBA()
	r, g, b := float32(r0)/0xffff, float32(g0)/0xffff, float32(b0)/0xffff
	v = max(r, g, b)
	chroma := v - min(r, g, b)
	switch {
	case chroma == 0:
	case v == r:
		h = (g - b) / (6 * chroma)
	case v == g:
		h = 1.0/3 + (b-r)/(6*chroma)
	default:
		h = 2.0/3 + (r-g)/(6*chroma)
	}
	if h < 0 {
		h++
	}
	if v > 0 {
		s = chroma / v
	}
	return h, s, v
}

// hsvToRGBA converts hue, saturation and value on the range 0.0 to 1.0 to an opaque color.
func hsvToRGBA(h, s, v float32) color.RGBA {
	chroma := s * v
	x := chroma * (1 - math.Abs(math.Mod(h*6, 2)-1))
	var r, g, b float32
	switch sector := min(int(h*6), 5); sector {
	case 0:
		r, g = chroma, x
	case 1:
		r, g = x, chroma
	case 2:
		g, b = chroma, x
	case 3:
		g, b = x, chroma
	case 4:
		r, b = x, chroma
	default:
		r, b = chroma, x
	}
	m := v - chroma
	return color.RGBA{R: to8(r + m), G: to8(g + m), B: to8(b + m), A: 255}
}

func to8(c float32) uint8 {
	return uint8(math.Round(ms1.Clamp(c, 0, 1) * 255))
}
