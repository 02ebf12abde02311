package revolveaux

import (
	"fmt"
	"strings"

	"github.com/soypat/revolve"
	"gopkg.in/ini.v1"
)

// Config holds application defaults, usually loaded from an ini file:
//
//	[input]
//	f1 = x**2
//	axis = x
//	revolve = f1
//	method = washer
//	a = 0
//	b = 2
//	dx = 0.01
//	cross_sections = false
//
//	[mesh]
//	resolution = 50
//	open_seam = false
//	caching = false
//
//	[output]
//	plot_height = 480
//	log_level = info
//
//	[server]
//	addr = localhost:8080
type Config struct {
	Input         Input
	Resolution    int
	OpenSeam      bool
	EnableCaching bool
	PlotHeight    int
	LogLevel      string
	Addr          string
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Input:      DefaultInput(),
		Resolution: revolve.DefaultResolution,
		PlotHeight: 480,
		LogLevel:   "info",
		Addr:       "localhost:8080",
	}
}

// LoadConfig reads an ini configuration from source, which may be a filename or
// the file contents as []byte. Missing keys take their [DefaultConfig] values.
func LoadConfig(source any) (Config, error) {
	file, err := ini.Load(source)
	if err != nil {
		return Config{}, fmt.Errorf("loading config: %w", err)
	}
	return loadCfg(file), nil
}

func loadCfg(file *ini.File) Config {
	def := DefaultConfig()
	in := file.Section("input")
	mesh := file.Section("mesh")
	out := file.Section("output")
	cfg := Config{
		Input: Input{
			Axis:          in.Key("axis").MustString(def.Input.Axis),
			Revolve:       in.Key("revolve").MustString(def.Input.Revolve),
			Method:        in.Key("method").MustString(def.Input.Method),
			A:             in.Key("a").MustString(def.Input.A),
			B:             in.Key("b").MustString(def.Input.B),
			DX:            in.Key("dx").MustString(def.Input.DX),
			CrossSections: in.Key("cross_sections").MustBool(def.Input.CrossSections),
		},
		Resolution:    mesh.Key("resolution").MustInt(def.Resolution),
		OpenSeam:      mesh.Key("open_seam").MustBool(def.OpenSeam),
		EnableCaching: mesh.Key("caching").MustBool(def.EnableCaching),
		PlotHeight:    out.Key("plot_height").MustInt(def.PlotHeight),
		LogLevel:      strings.ToLower(out.Key("log_level").MustString(def.LogLevel)),
		Addr:          file.Section("server").Key("addr").MustString(def.Addr),
	}
	for i := 1; i <= revolve.MaxFuncs; i++ {
		key := fmt.Sprintf("f%d", i)
		if !in.HasKey(key) {
			continue
		}
		for len(cfg.Input.Funcs) < i {
			cfg.Input.Funcs = append(cfg.Input.Funcs, "")
		}
		cfg.Input.Funcs[i-1] = in.Key(key).String()
	}
	if len(cfg.Input.Funcs) == 0 {
		cfg.Input.Funcs = def.Input.Funcs
	}
	return cfg
}
