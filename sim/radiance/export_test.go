package radiance_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daylight-sim/daylight-sim/internal/testutil"
	"github.com/daylight-sim/daylight-sim/sim"
	"github.com/daylight-sim/daylight-sim/sim/geometry"
	"github.com/daylight-sim/daylight-sim/sim/model"
	"github.com/daylight-sim/daylight-sim/sim/radiance"
)

func TestOptions_WithKeepsOrderAndReplaces(t *testing.T) {
	// GIVEN an option set built in order
	opts := radiance.NewOptions(radiance.Option{Name: "ab", Value: "2"}, radiance.Option{Name: "ad", Value: "512"})

	// WHEN a value is replaced and a bare flag added
	opts2 := opts.With("-ab", "5").With("u+", "")

	// THEN position is kept, the original is untouched, and bare flags carry no value
	assert.Equal(t, []string{"-ab", "5", "-ad", "512", "-u+"}, opts2.Args())
	assert.Equal(t, []string{"-ab", "2", "-ad", "512"}, opts.Args())
	v, ok := opts2.Get("ab")
	assert.True(t, ok)
	assert.Equal(t, "5", v)
	_, ok = opts2.Get("lw")
	assert.False(t, ok)
}

func TestDefaultOptions_HaveAmbientBounces(t *testing.T) {
	v, ok := radiance.DefaultOptions().Get("ab")
	require.True(t, ok)
	assert.NotEmpty(t, v)
}

func TestSky_Overcast(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, radiance.OvercastSky(17900).Write(&buf, nil))

	out := buf.String()
	assert.Contains(t, out, "!gensky -ang 45 0 -c -B 100\n")
	assert.Contains(t, out, "skyfunc glow skyglow")
	assert.Contains(t, out, "skyglow source skydome")
	assert.Contains(t, out, "skyglow source ground")
}

func TestSky_ClearUsesSite(t *testing.T) {
	m := testutil.Room(t)
	var buf bytes.Buffer
	require.NoError(t, radiance.ClearSky(6, 21, 12.5).Write(&buf, m.Location))
	assert.Contains(t, buf.String(), "!gensky 6 21 12.5 +s -a -33.45 -o 70.66 -m 60\n")
}

func TestSky_Errors(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, radiance.OvercastSky(0).Write(&buf, nil))
	assert.Error(t, radiance.ClearSky(6, 21, 12).Write(&buf, nil), "clear sky needs a site")
	assert.ErrorIs(t, radiance.ClearSky(2, 30, 12).Write(&buf, testutil.Room(t).Location), sim.ErrRange)
}

func TestWritePrimitive_EveryKind(t *testing.T) {
	ring, err := geometry.NewRing(geometry.Pt(0, 0, 1), geometry.Vec(0, 0, 2), 0, 0.5)
	require.NoError(t, err)
	sphere, err := geometry.NewSphere(geometry.Pt(1, 1, 1), 0.25)
	require.NoError(t, err)
	cyl, err := geometry.NewCylinder(geometry.Pt(0, 0, 0), geometry.Pt(0, 0, 3), 0.1)
	require.NoError(t, err)
	loop := geometry.NewLoop(geometry.Pt(0, 0, 0), geometry.Pt(1, 0, 0), geometry.Pt(1, 1, 0))
	poly, err := geometry.NewPolygon(loop)
	require.NoError(t, err)
	face, err := geometry.NewFace(loop)
	require.NoError(t, err)

	tests := []struct {
		name string
		prim geometry.Primitive
		want string
	}{
		{"p", geometry.Pt(1, 2, 3), "# point p 1 2 3\n"},
		{"v", geometry.Vec(0, 0, 1), "# vector v 0 0 1\n"},
		{"l", loop, "mat polygon l\n0\n0\n9 0 0 0 1 0 0 1 1 0\n"},
		{"pg", poly, "mat polygon pg\n0\n0\n9 0 0 0 1 0 0 1 1 0\n"},
		{"f", face, "mat polygon f\n0\n0\n9 0 0 0 1 0 0 1 1 0\n"},
		{"r", ring, "mat ring r\n0\n0\n8 0 0 1 0 0 1 0 0.5\n"},
		{"s", sphere, "mat sphere s\n0\n0\n4 1 1 1 0.25\n"},
		{"c", cyl, "mat cylinder c\n0\n0\n7 0 0 0 0 0 3 0.1\n"},
	}
	for _, tc := range tests {
		t.Run(tc.prim.Kind().String(), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, radiance.WritePrimitive(&buf, "mat", tc.name, tc.prim))
			assert.Equal(t, tc.want+"\n", buf.String())
		})
	}
}

func TestWritePrimitive_FaceWithHolesIsKeyhole(t *testing.T) {
	// GIVEN the room's south wall, a 4-vertex outer loop with a 4-vertex hole
	m := testutil.Room(t)
	wall := m.Layers[0].Objects[2]
	require.Equal(t, geometry.KindFace, wall.Kind())

	// WHEN it is written
	var buf bytes.Buffer
	require.NoError(t, radiance.WritePrimitive(&buf, wall.Material, wall.Name, wall.Geometry))

	// THEN it is one polygon: outer(4) + bridge(1) + hole(4) + bridge back(1)
	assert.True(t, strings.HasPrefix(buf.String(), "white polygon south_wall\n0\n0\n30 "), buf.String())
}

func TestWritePrimitive_RejectsBadIdentifier(t *testing.T) {
	var buf bytes.Buffer
	err := radiance.WritePrimitive(&buf, "mat", "north wall", geometry.Pt(0, 0, 0))
	assert.ErrorIs(t, err, sim.ErrImport)
	assert.Empty(t, buf.String())
}

func TestWriteMaterial(t *testing.T) {
	tests := []struct {
		mat  model.Material
		want string
	}{
		{model.Material{Name: "w", Type: model.MaterialPlastic, Color: [3]float64{0.5, 0.5, 0.5}, Specularity: 0.01, Roughness: 0.1},
			"void plastic w\n0\n0\n5 0.5 0.5 0.5 0.01 0.1\n\n"},
		{model.Material{Name: "lamp", Type: model.MaterialLight, Color: [3]float64{100, 90, 80}},
			"void light lamp\n0\n0\n3 100 90 80\n\n"},
	}
	for _, tc := range tests {
		var buf bytes.Buffer
		require.NoError(t, radiance.WriteMaterial(&buf, tc.mat))
		assert.Equal(t, tc.want, buf.String())
	}
}

func TestWriteMaterial_GlassConvertsTransmittance(t *testing.T) {
	// GIVEN clear glass with 86% normal transmittance
	g := model.Material{Name: "g", Type: model.MaterialGlass, Color: [3]float64{0.86, 0.86, 0.86}}

	// WHEN it is written
	var buf bytes.Buffer
	require.NoError(t, radiance.WriteMaterial(&buf, g))

	// THEN the reals are transmissivities, about 0.937 each
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "void glass g", lines[0])
	fields := strings.Fields(lines[3])
	require.Len(t, fields, 4)
	assert.Equal(t, "3", fields[0])
	for _, f := range fields[1:] {
		v, err := strconv.ParseFloat(f, 64)
		require.NoError(t, err)
		assert.InDelta(t, 0.9367, v, 1e-3)
	}
	assert.Zero(t, radiance.Transmissivity(0))
}

func TestExporter_WriteSceneHasMaterialsBeforeGeometry(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, radiance.NewExporter(testutil.Room(t)).WriteScene(&buf))

	out := buf.String()
	matAt := strings.Index(out, "void plastic white")
	geoAt := strings.Index(out, "white polygon floor")
	require.GreaterOrEqual(t, matAt, 0)
	require.GreaterOrEqual(t, geoAt, 0)
	assert.Less(t, matAt, geoAt)
	assert.Contains(t, out, "## window group south\n!xform windows/south.rad\n")
	assert.Contains(t, out, "!xform -s 1 -rx 0 -ry 0 -rz 0 -t 3.5 3.5 0 components/column.rad\n")
	assert.NotContains(t, out, "polygon window", "glazing lives in its window group file")
	assert.NotContains(t, out, "cylinder shaft", "component geometry lives in its own file")
}

func TestExporter_WindowGroupHoldsGlazing(t *testing.T) {
	m := testutil.Room(t)
	var buf bytes.Buffer

	require.NoError(t, radiance.NewExporter(m).WriteWindowGroup(&buf, m.WindowGroups[0]))

	assert.Equal(t, "clear_glass polygon window\n0\n0\n12 1 0 1 3 0 1 3 0 2 1 0 2\n\n", buf.String())
}

func TestWriteInstance_TransformOrder(t *testing.T) {
	var buf bytes.Buffer
	inst := model.ComponentInstance{Definition: "chair", Scale: 0.5,
		Rotation: geometry.Vec(90, 0, 45), Translation: geometry.Vec(1, 2, 0)}

	require.NoError(t, radiance.WriteInstance(&buf, inst))

	assert.Equal(t, "!xform -s 0.5 -rx 90 -ry 0 -rz 45 -t 1 2 0 components/chair.rad\n\n", buf.String())
	assert.ErrorIs(t, radiance.WriteInstance(&buf, model.ComponentInstance{Definition: "../x", Scale: 1}), sim.ErrImport)
}

func TestExporter_ComponentIsSelfContained(t *testing.T) {
	// GIVEN a shelf of a board definition, where only the board uses a material
	m := testutil.Room(t)
	board, err := geometry.NewPolygon(geometry.NewLoop(geometry.Pt(0, 0, 0), geometry.Pt(1, 0, 0), geometry.Pt(1, 1, 0)))
	require.NoError(t, err)
	m.Components = append(m.Components,
		&model.ComponentDefinition{Name: "board", Objects: []geometry.Object{{Name: "top", Material: "white", Geometry: board}}},
		&model.ComponentDefinition{Name: "shelf", Instances: []model.ComponentInstance{{Definition: "board", Scale: 1, Translation: geometry.Vec(0, 0, 0.4)}}},
	)
	require.NoError(t, m.Validate())
	exp := radiance.NewExporter(m)

	// WHEN each is written
	var boardOut, shelfOut bytes.Buffer
	require.NoError(t, exp.WriteComponent(&boardOut, m.Components[1]))
	require.NoError(t, exp.WriteComponent(&shelfOut, m.Components[2]))

	// THEN the board carries its own material and the shelf only places boards
	assert.True(t, strings.HasPrefix(boardOut.String(), "void plastic white\n"), boardOut.String())
	assert.Contains(t, boardOut.String(), "white polygon top\n")
	assert.NotContains(t, boardOut.String(), "clear_glass")
	assert.Equal(t, "!xform -s 1 -rx 0 -ry 0 -rz 0 -t 0 0 0.4 components/board.rad\n\n", shelfOut.String())
}

func TestWriteView(t *testing.T) {
	m := testutil.Room(t)
	var buf bytes.Buffer

	require.NoError(t, radiance.WriteView(&buf, m.Views[0]))

	assert.Equal(t, "rvu -vtv -vp 2 3.9 1.6 -vd 0 -1 0 -vu 0 0 1 -vh 60 -vv 45\n", buf.String())
}

func TestExporter_WritePhotosensors(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, radiance.NewExporter(testutil.Room(t)).WritePhotosensors(&buf))

	assert.Equal(t, "center 2 2 0.8 0 0 1\n", buf.String())
}

func TestWritePixels_AlignWithSensors(t *testing.T) {
	wp := testutil.Room(t).Workplanes[0]
	var buf bytes.Buffer

	require.NoError(t, radiance.WritePixels(&buf, wp))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, wp.Sensors().Len())
	for _, l := range lines {
		assert.Len(t, strings.Fields(l), 9)
	}
}

func TestExporter_ExportDir(t *testing.T) {
	// GIVEN the room model
	m := testutil.Room(t)
	dir := t.TempDir()

	// WHEN it is exported
	require.NoError(t, radiance.NewExporter(m).ExportDir(dir, radiance.OvercastSky(10000)))

	// THEN every file exists and the sensor file round-trips the workplane
	for _, name := range []string{
		"materials.mat", "scene.rad", "sky.rad", "model_info.txt", "photosensors.txt",
		filepath.Join("windows", "south.rad"),
		filepath.Join("components", "column.rad"),
		filepath.Join("views", "entrance.vf"),
		filepath.Join("workplanes", "desk.pts"),
		filepath.Join("workplanes", "desk.pxl"),
	} {
		assert.FileExists(t, filepath.Join(dir, name))
	}
	f, err := os.Open(filepath.Join(dir, "workplanes", "desk.pts"))
	require.NoError(t, err)
	defer f.Close()
	rays, err := radiance.ReadRays(f)
	require.NoError(t, err)
	assert.Equal(t, m.Workplanes[0].Sensors().Rays(), rays.Rays())

	info, err := os.ReadFile(filepath.Join(dir, "model_info.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(info), "latitude -33.45\n")
	assert.Contains(t, string(info), "city not specified\n")
}
