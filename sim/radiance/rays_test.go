package radiance_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daylight-sim/daylight-sim/sim"
	"github.com/daylight-sim/daylight-sim/sim/geometry"
	"github.com/daylight-sim/daylight-sim/sim/radiance"
)

func TestRays_RoundTrip(t *testing.T) {
	// GIVEN rays with coordinates that need full precision
	in := geometry.NewRaySet([]geometry.Ray{
		{Origin: geometry.Pt(0.1, 1.0/3, -2), Direction: geometry.Vec(0, 0, 1)},
		{Origin: geometry.Pt(1e-7, 12345.678, 0.8), Direction: geometry.Vec(0.6, 0, 0.8)},
	})

	// WHEN written and read back
	var buf bytes.Buffer
	require.NoError(t, radiance.WriteRays(&buf, in))
	out, err := radiance.ReadRays(&buf)

	// THEN count and coordinates survive exactly
	require.NoError(t, err)
	assert.Equal(t, in.Rays(), out.Rays())
}

func TestReadRays_SkipsCommentsAndBlanks(t *testing.T) {
	out, err := radiance.ReadRays(strings.NewReader("# desk\n\n1 2 3 0 0 1\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, out.Len())
}

func TestReadRays_MalformedIsImportError(t *testing.T) {
	for _, in := range []string{"1 2 3 0 0\n", "1 2 3 0 0 x\n"} {
		_, err := radiance.ReadRays(strings.NewReader(in))
		assert.ErrorIs(t, err, sim.ErrImport, in)
	}
}

func TestIlluminance(t *testing.T) {
	assert.InDelta(t, 179.0, radiance.Illuminance(1, 1, 1), 1e-9)
	assert.InDelta(t, 179*0.670, radiance.Illuminance(0, 1, 0), 1e-9)
}
