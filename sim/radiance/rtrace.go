package radiance

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"github.com/daylight-sim/daylight-sim/sim"
)

// ProcessTracer runs Radiance's oconv and rtrace as child processes.
type ProcessTracer struct {
	OconvPath  string // default "oconv"
	RtracePath string // default "rtrace"
	TempDir    string // parent for per-call scratch dirs; default os.TempDir()
	Log        *logrus.Entry
}

// NewProcessTracer returns a tracer that finds oconv and rtrace on PATH.
func NewProcessTracer() *ProcessTracer {
	return &ProcessTracer{
		OconvPath:  "oconv",
		RtracePath: "rtrace",
		Log:        logrus.NewEntry(logrus.StandardLogger()),
	}
}

// Trace writes the scene, its window and component includes, and the sky to
// a scratch directory, compiles them with oconv from that directory, and
// feeds the rays to "rtrace -h -I+". Cancelling ctx kills the running
// process.
func (p *ProcessTracer) Trace(ctx context.Context, req TraceRequest) (*mat.Dense, error) {
	if req.Model == nil {
		return nil, fmt.Errorf("%w: trace request has no model", sim.ErrAdapter)
	}
	n := req.Rays.Len()
	if n == 0 {
		return nil, fmt.Errorf("%w: trace request has no rays", sim.ErrAdapter)
	}

	dir, err := os.MkdirTemp(p.TempDir, "rtrace-")
	if err != nil {
		return nil, fmt.Errorf("%w: scratch dir: %v", sim.ErrAdapter, err)
	}
	defer os.RemoveAll(dir)

	exp := NewExporter(req.Model)
	skyFile := filepath.Join(dir, "sky.rad")
	sceneFile := filepath.Join(dir, "scene.rad")
	if err := writeFile(skyFile, func(w io.Writer) error { return req.Sky.Write(w, req.Model.Location) }); err != nil {
		return nil, fmt.Errorf("%w: %v", sim.ErrAdapter, err)
	}
	if err := writeFile(sceneFile, exp.WriteScene); err != nil {
		return nil, fmt.Errorf("%w: %v", sim.ErrAdapter, err)
	}
	if err := exp.WriteIncludes(dir); err != nil {
		return nil, fmt.Errorf("%w: %v", sim.ErrAdapter, err)
	}

	var octree bytes.Buffer
	if err := p.run(ctx, dir, p.oconv(), []string{"sky.rad", "scene.rad"}, nil, &octree); err != nil {
		return nil, err
	}
	octFile := filepath.Join(dir, "scene.oct")
	if err := os.WriteFile(octFile, octree.Bytes(), 0o600); err != nil {
		return nil, fmt.Errorf("%w: write octree: %v", sim.ErrAdapter, err)
	}

	var rays bytes.Buffer
	if err := WriteRays(&rays, req.Rays); err != nil {
		return nil, fmt.Errorf("%w: %v", sim.ErrAdapter, err)
	}
	args := append([]string{"-h", "-I+"}, req.Options.Args()...)
	args = append(args, "scene.oct")

	var out bytes.Buffer
	if err := p.run(ctx, dir, p.rtrace(), args, &rays, &out); err != nil {
		return nil, err
	}
	return parseIlluminance(&out, n)
}

func (p *ProcessTracer) oconv() string {
	if p.OconvPath == "" {
		return "oconv"
	}
	return p.OconvPath
}

func (p *ProcessTracer) rtrace() string {
	if p.RtracePath == "" {
		return "rtrace"
	}
	return p.RtracePath
}

func (p *ProcessTracer) run(ctx context.Context, dir, name string, args []string, stdin io.Reader, stdout io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if p.Log != nil {
		p.Log.WithField("cmd", name).Debugf("exec %s %s", name, strings.Join(args, " "))
	}
	err := cmd.Run()
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return fmt.Errorf("%w: %s exited with code %d: %s",
			sim.ErrAdapter, filepath.Base(name), exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
	}
	return fmt.Errorf("%w: run %s: %v", sim.ErrAdapter, filepath.Base(name), err)
}

// parseIlluminance reads one "r g b" line per ray and returns an n×1 matrix
// of illuminance values.
func parseIlluminance(r io.Reader, n int) (*mat.Dense, error) {
	vals := make([]float64, 0, n)
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		rgb, err := parseFloats(text, 3)
		if err != nil {
			return nil, fmt.Errorf("%w: rtrace output line %d: %v", sim.ErrAdapter, line, err)
		}
		vals = append(vals, Illuminance(rgb[0], rgb[1], rgb[2]))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: read rtrace output: %v", sim.ErrAdapter, err)
	}
	if len(vals) != n {
		return nil, fmt.Errorf("%w: rtrace returned %d values for %d rays", sim.ErrAdapter, len(vals), n)
	}
	return mat.NewDense(n, 1, vals), nil
}
