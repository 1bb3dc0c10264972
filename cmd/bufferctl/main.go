// Command bufferctl buffers every polyline of a shapefile and writes the
// chosen derived polygons to a new polygon shapefile.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/paulmach/orb"

	"github.com/samirrijal/mapbuffer/internal/adapters/kernel"
	"github.com/samirrijal/mapbuffer/internal/adapters/shapefile"
	"github.com/samirrijal/mapbuffer/internal/core/compositor"
	"github.com/samirrijal/mapbuffer/internal/core/domain"
	"github.com/samirrijal/mapbuffer/internal/core/ports"
	"github.com/samirrijal/mapbuffer/internal/pkg/config"
	"github.com/samirrijal/mapbuffer/internal/pkg/logging"
)

var (
	outArg      = flag.String("o", "", "output shapefile (default <input>_buffer.shp)")
	distanceArg = flag.Float64("d", 1, "buffer distance in kilometers")
	modesArg    = flag.String("m", "around,flat,left,right", "comma separated buffer modes")
)

func main() {
	flag.CommandLine.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(),
			"Usage: %s [options] <lines.shp>\n\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load("mapbuffer-bufferctl")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, "text")

	modes, err := parseModes(*modesArg)
	if err != nil {
		log.Fatal(err)
	}

	in := flag.Arg(0)
	out := *outArg
	if out == "" {
		out = strings.TrimSuffix(in, filepath.Ext(in)) + "_buffer.shp"
	}

	var k ports.GeometryKernel
	if cfg.Geometry.Kernel == "geodesic" {
		k = kernel.NewGeodesic(cfg.Geometry.CircleSegments)
	} else {
		k = kernel.NewPlanar(cfg.Geometry.CircleSegments, cfg.Geometry.UnitsPerKm)
	}

	st, err := bufferFile(compositor.New(k), in, out, *distanceArg, modes)
	if err != nil {
		log.Fatal(err)
	}
	slog.Info("done", "output", out, "lines", st.lines, "polygons", st.written, "failed", st.failed)
	if st.failed > 0 {
		os.Exit(1)
	}
}

func parseModes(s string) ([]domain.BufferMode, error) {
	var modes []domain.BufferMode
	seen := make(map[domain.BufferMode]bool)
	for _, name := range strings.Split(s, ",") {
		m, err := domain.ParseBufferMode(name)
		if err != nil {
			return nil, err
		}
		if !seen[m] {
			seen[m] = true
			modes = append(modes, m)
		}
	}
	return modes, nil
}

type stats struct {
	lines   int
	written int
	failed  int
}

// bufferFile writes one polygon per line and mode. Lines the compositor
// rejects are logged and counted, the rest of the file is still processed.
func bufferFile(comp *compositor.Compositor, in, out string, distanceKm float64, modes []domain.BufferMode) (stats, error) {
	var st stats
	if distanceKm <= 0 {
		return st, fmt.Errorf("%w: %v", domain.ErrInvalidDistance, distanceKm)
	}

	lines, err := shapefile.ReadLines(in)
	if err != nil {
		return st, err
	}
	w, err := shapefile.Create(out)
	if err != nil {
		return st, err
	}
	defer w.Close()

	for _, l := range lines {
		st.lines++
		polys, err := build(comp, l, distanceKm, modes)
		if err != nil {
			slog.Warn("line skipped", "record", l.Record, "part", l.Part, "error", err)
			st.failed++
			continue
		}
		for i, poly := range polys {
			err := w.Write(shapefile.Polygon{
				Record:     l.Record,
				Part:       l.Part,
				Mode:       string(modes[i]),
				DistanceKm: distanceKm,
				Shape:      poly,
			})
			if err != nil {
				return st, err
			}
			st.written++
		}
	}
	return st, nil
}

func build(comp *compositor.Compositor, l shapefile.Line, distanceKm float64, modes []domain.BufferMode) ([]orb.Polygon, error) {
	in := domain.Coordinates(l.Coords)
	if len(modes) == 1 {
		p, err := comp.Build(in, distanceKm, modes[0])
		if err != nil {
			return nil, err
		}
		return []orb.Polygon{p}, nil
	}

	res, err := comp.Compose(in, distanceKm)
	if err != nil {
		return nil, err
	}
	out := make([]orb.Polygon, len(modes))
	for i, m := range modes {
		if out[i], err = res.Get(m); err != nil {
			return nil, err
		}
	}
	return out, nil
}
