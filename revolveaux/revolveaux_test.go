package revolveaux

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/revolve"
	"github.com/soypat/revolve/expr"
	"github.com/soypat/revolve/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInputParse(t *testing.T) {
	in := Input{
		Funcs:   []string{"x**2", "  ", "sqrt(x)"},
		Axis:    "X",
		Revolve: "f₂(x)",
		Method:  "washer",
		A:       "0",
		B:       " 2 ",
		DX:      "0.01",
	}
	req, err := in.Parse()
	require.NoError(t, err)
	assert.Len(t, req.Spec.Funcs, 2)
	assert.Equal(t, []string{"x**2", "sqrt(x)"}, req.Exprs)
	assert.Equal(t, []int{1, 3}, req.Slots)
	assert.Equal(t, []string{"f1(x)", "f3(x)"}, req.Labels())
	assert.Equal(t, 1, req.Spec.Revolve)
	assert.Equal(t, revolve.AxisX, req.Spec.Axis)
	assert.Equal(t, revolve.MethodWasher, req.Spec.Method)
	assert.Equal(t, 2.0, req.Spec.B)

	for _, sel := range []string{"1", "f1", "F1", "f₁(x)", " f1(x) "} {
		in.Revolve = sel
		req, err = in.Parse()
		require.NoError(t, err, sel)
		assert.Equal(t, 0, req.Spec.Revolve, sel)
	}
}

func TestInputParseErrors(t *testing.T) {
	for _, test := range []struct {
		name   string
		modify func(*Input)
		want   error
	}{
		{name: "bad formula", modify: func(in *Input) { in.Funcs = []string{"not a formula"} }, want: expr.ErrInvalidExpression},
		{name: "no formulas", modify: func(in *Input) { in.Funcs = []string{"", " "} }, want: revolve.ErrInvalidSelection},
		{name: "too many formulas", modify: func(in *Input) { in.Funcs = []string{"1", "2", "3", "4"} }, want: revolve.ErrInvalidSelection},
		{name: "undefined selection", modify: func(in *Input) { in.Revolve = "f3" }, want: revolve.ErrInvalidSelection},
		{name: "bad selection", modify: func(in *Input) { in.Revolve = "g(x)" }, want: revolve.ErrInvalidSelection},
		{name: "bad method", modify: func(in *Input) { in.Method = "cylinder" }, want: revolve.ErrInvalidMethod},
		{name: "bad bound", modify: func(in *Input) { in.A = "zero" }, want: revolve.ErrInvalidBounds},
		{name: "infinite bound", modify: func(in *Input) { in.B = "inf" }, want: revolve.ErrInvalidBounds},
		{name: "bad step", modify: func(in *Input) { in.DX = "" }, want: revolve.ErrInvalidStep},
		{name: "zero step", modify: func(in *Input) { in.DX = "0" }, want: revolve.ErrInvalidStep},
	} {
		in := DefaultInput()
		in.Funcs = []string{"x**2", "x"}
		test.modify(&in)
		_, err := in.Parse()
		assert.ErrorIs(t, err, test.want, test.name)
	}
	in := DefaultInput()
	in.Axis = "z"
	_, err := in.Parse()
	assert.Error(t, err)
}

func TestWriteReport(t *testing.T) {
	in := DefaultInput()
	in.Funcs = []string{"x**2", "", "1"}
	in.CrossSections = true
	req, err := in.Parse()
	require.NoError(t, err)
	var buf bytes.Buffer
	err = WriteReport(&buf, req, math.Pi)
	require.NoError(t, err)
	banner := strings.Repeat("=", 60)
	want := banner + "\n" +
		"VOLUME OF REVOLUTION - RESULTS\n" +
		banner + "\n\n" +
		"FUNCTIONS:\n" +
		"  f1(x) = x**2 ⭐ (REVOLVE)\n" +
		"  f3(x) = 1\n" +
		"\nPARAMETERS:\n" +
		"  Axis of revolution: X-axis\n" +
		"  Lower limit (a): 0.0\n" +
		"  Upper limit (b): 2.0\n" +
		"  Method: Washer\n" +
		"  Δx step size: 0.01\n" +
		"  Show cross-sections: Yes\n" +
		"\nRESULTS:\n" +
		"  Calculated Volume: 3.141593 cubic units\n" +
		"\nEXPORT:\n" +
		"  3D model can be exported as STL for 3D printing\n" +
		banner
	assert.Equal(t, want, buf.String())
}

func TestRender(t *testing.T) {
	req, err := DefaultInput().Parse()
	require.NoError(t, err)
	var stl, pic bytes.Buffer
	logger := logrus.New()
	var logs bytes.Buffer
	logger.SetOutput(&logs)
	err = Render(context.Background(), req.Spec, RenderConfig{
		STLOutput:     &stl,
		VisualOutput:  &pic,
		Resolution:    10,
		PlotHeight:    240,
		CrossSections: true,
		Labels:        req.Labels(),
		Logger:        logger,
		EnableCaching: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 84+50*2*10*9, stl.Len())
	tris, err := render.ReadBinarySTL(&stl)
	require.NoError(t, err)
	assert.Len(t, tris, 180)

	img, err := png.Decode(&pic)
	require.NoError(t, err)
	assert.Equal(t, 320, img.Bounds().Dx())
	assert.Equal(t, 240, img.Bounds().Dy())
	assert.Contains(t, logs.String(), "wrote STL")
	assert.Contains(t, logs.String(), "caching")

	err = Render(context.Background(), req.Spec, RenderConfig{})
	assert.Error(t, err)

	logs.Reset()
	err = Render(context.Background(), req.Spec, RenderConfig{STLOutput: &stl, Logger: logger, Silent: true})
	require.NoError(t, err)
	assert.Empty(t, logs.String())
}

func TestWriteSTLFile(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, "solid.stl")
	tris := []ms3.Triangle{{{X: 1}, {Y: 1}, {Z: 1}}}
	err := WriteSTLFile(filename, tris)
	require.NoError(t, err)
	fp, err := os.Open(filename)
	require.NoError(t, err)
	defer fp.Close()
	got, err := render.ReadBinarySTL(fp)
	require.NoError(t, err)
	assert.Equal(t, tris, got)
	info, err := fp.Stat()
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file left behind")

	err = WriteSTLFile(filepath.Join(dir, "missing", "solid.stl"), tris)
	assert.True(t, errors.Is(err, ErrSerializationFailure))

	// Rename onto a non empty directory fails after the temporary file was written.
	target := filepath.Join(dir, "taken.stl")
	require.NoError(t, os.Mkdir(target, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(target, "keep"), nil, 0o644))
	err = WriteSTLFile(target, tris)
	assert.True(t, errors.Is(err, ErrSerializationFailure))
	entries, err = os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"solid.stl", "taken.stl"}, names, "temporary file left behind")
}

func TestRenderPNGFile(t *testing.T) {
	req, err := DefaultInput().Parse()
	require.NoError(t, err)
	filename := filepath.Join(t.TempDir(), "profile.png")
	err = RenderPNGFile(filename, req.Spec, 150, nil, false, nil)
	require.NoError(t, err)
	fp, err := os.Open(filename)
	require.NoError(t, err)
	defer fp.Close()
	cfg, err := png.DecodeConfig(fp)
	require.NoError(t, err)
	assert.Equal(t, 200, cfg.Width)
	assert.Equal(t, 150, cfg.Height)
}

func TestColorPaletteHSV(t *testing.T) {
	red := color.RGBA{R: 255, A: 255}
	blue := color.RGBA{B: 255, A: 255}
	palette := ColorPaletteHSV(3, red, blue)
	assert.Equal(t, color.Color(red), palette(0))
	assert.Equal(t, color.Color(blue), palette(2))
	assert.Equal(t, palette(0), palette(3))
	assert.Equal(t, palette(2), palette(-1))
	// Short way around the hue circle from red to blue passes through magenta.
	mid := palette(1).(color.RGBA)
	assert.Greater(t, mid.R, uint8(250))
	assert.Equal(t, uint8(0), mid.G)
	assert.Greater(t, mid.B, uint8(250))
}

func TestCrossSectionAbscissas(t *testing.T) {
	assert.Equal(t, []float64{0, 0.5, 1, 1.5, 2}, CrossSectionAbscissas(0, 2))
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig([]byte(`
[input]
f1 = sin(x)
f3 = 0.5
method = disk
dx = 0.001

[mesh]
resolution = 120
open_seam = true

[output]
log_level = DEBUG
`))
	require.NoError(t, err)
	def := DefaultConfig()
	assert.Equal(t, []string{"sin(x)", "", "0.5"}, cfg.Input.Funcs)
	assert.Equal(t, "disk", cfg.Input.Method)
	assert.Equal(t, "0.001", cfg.Input.DX)
	assert.Equal(t, def.Input.Axis, cfg.Input.Axis)
	assert.Equal(t, def.Input.B, cfg.Input.B)
	assert.Equal(t, 120, cfg.Resolution)
	assert.True(t, cfg.OpenSeam)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, def.Addr, cfg.Addr)
	assert.Equal(t, def.PlotHeight, cfg.PlotHeight)

	req, err := cfg.Input.Parse()
	require.NoError(t, err)
	assert.Equal(t, revolve.MethodDisk, req.Spec.Method)

	cfg, err = LoadConfig([]byte(""))
	require.NoError(t, err)
	assert.Equal(t, def, cfg)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.ini"))
	assert.Error(t, err)
}
