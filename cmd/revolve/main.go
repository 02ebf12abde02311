// Command revolve computes the volume of a solid of revolution and optionally
// exports its surface as a binary STL and its profile as a PNG.
//
// Usage:
//
//	revolve -f1 "x**2" -a 0 -b 2 -method disk -stl out.stl -png profile.png
//	revolve -config revolve.ini -serve
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/soypat/revolve"
	"github.com/soypat/revolve/render"
	"github.com/soypat/revolve/revolveaux"
	"github.com/soypat/revolve/server"
)

const defaultPrintSTL = "revolve.stl"

type flags struct {
	config   string
	funcs    [revolve.MaxFuncs]string
	axis     string
	sel      string
	method   string
	a, b, dx string
	res      int
	openSeam bool
	stl      string
	png      string
	cross    bool
	serve    bool
	addr     string
	silent   bool
	logLevel string
	print    bool
}

func run() error {
	var fl flags
	for i := range fl.funcs {
		name := fmt.Sprintf("f%d", i+1)
		flag.StringVar(&fl.funcs[i], name, "", "formula in x for function "+name)
	}
	flag.StringVar(&fl.config, "config", "", "ini configuration file with defaults")
	flag.StringVar(&fl.axis, "axis", "", "axis of revolution: x or y")
	flag.StringVar(&fl.sel, "revolve", "", "revolved function: f1, f2 or f3")
	flag.StringVar(&fl.method, "method", "", "integration method: disk, washer or shell")
	flag.StringVar(&fl.a, "a", "", "lower bound")
	flag.StringVar(&fl.b, "b", "", "upper bound")
	flag.StringVar(&fl.dx, "dx", "", "Riemann sum step")
	flag.IntVar(&fl.res, "res", 0, "mesh resolution, samples along the sweep and around the axis")
	flag.BoolVar(&fl.openSeam, "open-seam", false, "leave the mesh seam at θ=2π unconnected")
	flag.StringVar(&fl.stl, "stl", "", "write binary STL of the revolved surface to file")
	flag.StringVar(&fl.png, "png", "", "write PNG of the revolved profile to file")
	flag.BoolVar(&fl.cross, "cross", false, "mark cross sections on the profile")
	flag.BoolVar(&fl.serve, "serve", false, "serve websocket requests instead of computing once")
	flag.StringVar(&fl.addr, "addr", "", "websocket listen address")
	flag.BoolVar(&fl.silent, "silent", false, "only log errors")
	flag.StringVar(&fl.logLevel, "loglevel", "", "log level: debug, info, warn or error")
	flag.BoolVar(&fl.print, "print", false, "export STL ready to be loaded into a slicer")
	flag.Parse()

	cfg := revolveaux.DefaultConfig()
	if fl.config != "" {
		var err error
		cfg, err = revolveaux.LoadConfig(fl.config)
		if err != nil {
			return err
		}
	}
	applyFlags(&cfg, fl)

	logger := logrus.New()
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger.SetLevel(level)
	if fl.silent {
		logger.SetLevel(logrus.ErrorLevel)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if fl.serve {
		upgrader := websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		}
		err = server.NewServer(cfg.Addr, upgrader, logger).ListenAndServe(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}

	req, err := cfg.Input.Parse()
	if err != nil {
		return err
	}
	start := time.Now()
	res, err := revolve.Calculate(ctx, req.Spec)
	if err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{"volume": res.Volume, "elapsed": time.Since(start)}).Debug("integrated volume")
	err = revolveaux.WriteReport(os.Stdout, req, res.Volume)
	if err != nil {
		return err
	}
	fmt.Println()

	stlFile := fl.stl
	if fl.print && stlFile == "" {
		stlFile = defaultPrintSTL
	}
	if stlFile != "" {
		err = exportSTL(ctx, logger, stlFile, req.Spec, cfg)
		if err != nil {
			return err
		}
	}
	if fl.print {
		logger.WithField("file", stlFile).Info("STL saved, load it into your slicer software to print")
	}
	if fl.png != "" {
		err = revolveaux.RenderPNGFile(fl.png, req.Spec, cfg.PlotHeight, req.Labels(), req.CrossSections, nil)
		if err != nil {
			return err
		}
		logger.WithField("file", fl.png).Info("wrote profile")
	}
	return nil
}

func exportSTL(ctx context.Context, logger *logrus.Logger, filename string, spec revolve.Spec, cfg revolveaux.Config) error {
	start := time.Now()
	if cfg.EnableCaching {
		spec.Funcs = slices.Clone(spec.Funcs)
		spec.Funcs[spec.Revolve] = revolve.NewCachedFunc(spec.Funcs[spec.Revolve])
	}
	mesh, err := revolve.NewMeshFromSpec(ctx, spec, revolve.MeshConfig{Resolution: cfg.Resolution, OpenSeam: cfg.OpenSeam})
	if err != nil {
		return err
	}
	triangles, err := render.RenderAll(mesh.TriangleReader(), nil)
	if err != nil {
		return err
	}
	err = revolveaux.WriteSTLFile(filename, triangles)
	if err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{
		"file":      filename,
		"triangles": len(triangles),
		"elapsed":   time.Since(start),
	}).Info("wrote STL")
	return nil
}

// applyFlags overrides configuration values with the flags set on the command line.
func applyFlags(cfg *revolveaux.Config, fl flags) {
	flag.Visit(func(f *flag.Flag) {
		in := &cfg.Input
		switch f.Name {
		case "f1", "f2", "f3":
			i := int(f.Name[1] - '1')
			for len(in.Funcs) <= i {
				in.Funcs = append(in.Funcs, "")
			}
			in.Funcs[i] = fl.funcs[i]
		case "axis":
			in.Axis = fl.axis
		case "revolve":
			in.Revolve = fl.sel
		case "method":
			in.Method = fl.method
		case "a":
			in.A = fl.a
		case "b":
			in.B = fl.b
		case "dx":
			in.DX = fl.dx
		case "cross":
			in.CrossSections = fl.cross
		case "res":
			cfg.Resolution = fl.res
		case "open-seam":
			cfg.OpenSeam = fl.openSeam
		case "addr":
			cfg.Addr = fl.addr
		case "loglevel":
			cfg.LogLevel = fl.logLevel
		}
	})
}

func main() {
	err := run()
	if err != nil {
		log.Fatal(err)
	}
}
