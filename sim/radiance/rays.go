package radiance

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/daylight-sim/daylight-sim/sim"
	"github.com/daylight-sim/daylight-sim/sim/geometry"
)

// WriteRays writes one "x y z dx dy dz" line per ray, the rtrace input format.
func WriteRays(out io.Writer, rays *geometry.RaySet) error {
	w := bufio.NewWriter(out)
	for i := 0; i < rays.Len(); i++ {
		r := rays.At(i)
		fmt.Fprintf(w, "%s %s %s %s %s %s\n",
			formatFloat(r.Origin.X), formatFloat(r.Origin.Y), formatFloat(r.Origin.Z),
			formatFloat(r.Direction.X), formatFloat(r.Direction.Y), formatFloat(r.Direction.Z))
	}
	return w.Flush()
}

// ReadRays parses a sensor file. Blank lines and '#' comments are skipped.
func ReadRays(in io.Reader) (*geometry.RaySet, error) {
	var rays []geometry.Ray
	sc := bufio.NewScanner(in)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		vals, err := parseFloats(text, 6)
		if err != nil {
			return nil, fmt.Errorf("%w: sensor line %d: %v", sim.ErrImport, line, err)
		}
		rays = append(rays, geometry.Ray{
			Origin:    geometry.Pt(vals[0], vals[1], vals[2]),
			Direction: geometry.Vec(vals[3], vals[4], vals[5]),
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: read sensors: %v", sim.ErrImport, err)
	}
	return geometry.NewRaySet(rays), nil
}

func parseFloats(text string, n int) ([]float64, error) {
	fields := strings.Fields(text)
	if len(fields) != n {
		return nil, fmt.Errorf("want %d values, got %d", n, len(fields))
	}
	vals := make([]float64, n)
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", i+1, err)
		}
		vals[i] = v
	}
	return vals, nil
}
