package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/daylight-sim/daylight-sim/sim/geometry"
	"github.com/daylight-sim/daylight-sim/sim/model"
)

// Room returns a 4×4×3 m room with a window opening in the south wall glazed
// by the "south" window group, a column component placed in the "structure"
// layer, a "center" photosensor, an "entrance" view, and a "desk" workplane
// at 0.8 m tessellated into 1 m² cells (16 sensors).
func Room(t *testing.T) *model.Model {
	t.Helper()

	m := model.New("room")
	m.Location.SetLatitude(-33.45)
	m.Location.SetLongitude(70.66)
	m.Location.SetTimeZone(-4)
	m.Materials = []model.Material{
		{Name: "white", Type: model.MaterialPlastic, Color: [3]float64{0.7, 0.7, 0.7}},
		{Name: "clear_glass", Type: model.MaterialGlass, Color: [3]float64{0.86, 0.86, 0.86}},
	}

	floor := polygon(t, geometry.Pt(0, 0, 0), geometry.Pt(0, 4, 0), geometry.Pt(4, 4, 0), geometry.Pt(4, 0, 0))
	ceiling := polygon(t, geometry.Pt(0, 0, 3), geometry.Pt(4, 0, 3), geometry.Pt(4, 4, 3), geometry.Pt(0, 4, 3))
	south, err := geometry.NewFace(
		geometry.NewLoop(geometry.Pt(0, 0, 0), geometry.Pt(4, 0, 0), geometry.Pt(4, 0, 3), geometry.Pt(0, 0, 3)),
		geometry.NewLoop(geometry.Pt(1, 0, 1), geometry.Pt(1, 0, 2), geometry.Pt(3, 0, 2), geometry.Pt(3, 0, 1)),
	)
	require.NoError(t, err)
	window := polygon(t, geometry.Pt(1, 0, 1), geometry.Pt(3, 0, 1), geometry.Pt(3, 0, 2), geometry.Pt(1, 0, 2))

	m.Layers = []model.Layer{
		{Name: "envelope", Objects: []geometry.Object{
			{Name: "floor", Material: "white", Geometry: floor},
			{Name: "ceiling", Material: "white", Geometry: ceiling},
			{Name: "south_wall", Material: "white", Geometry: south},
		}},
		{Name: "structure", Instances: []model.ComponentInstance{
			{Definition: "column", Scale: 1, Translation: geometry.Vec(3.5, 3.5, 0)},
		}},
	}
	m.WindowGroups = []model.WindowGroup{
		{Name: "south", Windows: []geometry.Object{
			{Name: "window", Material: "clear_glass", Geometry: window},
		}},
	}
	column, err := geometry.NewCylinder(geometry.Pt(0, 0, 0), geometry.Pt(0, 0, 3), 0.15)
	require.NoError(t, err)
	m.Components = []*model.ComponentDefinition{
		{Name: "column", Objects: []geometry.Object{{Name: "shaft", Material: "white", Geometry: column}}},
	}
	m.Photosensors = []model.Photosensor{
		{Name: "center", Position: geometry.Pt(2, 2, 0.8), Direction: geometry.Vec(0, 0, 1)},
	}
	m.Views = []model.View{
		{Name: "entrance", Type: model.ViewPerspective, Point: geometry.Pt(2, 3.9, 1.6),
			Direction: geometry.Vec(0, -1, 0), Up: geometry.Vec(0, 0, 1), Horizontal: 60, Vertical: 45},
	}

	desk := polygon(t, geometry.Pt(0, 0, 0.8), geometry.Pt(4, 0, 0.8), geometry.Pt(4, 4, 0.8), geometry.Pt(0, 4, 0.8))
	wp, err := geometry.NewWorkplane("desk", 1.0, desk)
	require.NoError(t, err)
	m.Workplanes = []*geometry.Workplane{wp}

	require.NoError(t, m.Validate())
	return m
}

func polygon(t *testing.T, pts ...geometry.Point3D) *geometry.Polygon {
	t.Helper()
	p, err := geometry.NewPolygon(geometry.NewLoop(pts...))
	require.NoError(t, err)
	return p
}

// Rays builds a RaySet of n upward-facing sensors in a row at desk height.
func Rays(n int) *geometry.RaySet {
	rays := make([]geometry.Ray, n)
	for i := range rays {
		rays[i] = geometry.Ray{Origin: geometry.Pt(float64(i)+0.5, 1, 0.8), Direction: geometry.Vec(0, 0, 1)}
	}
	return geometry.NewRaySet(rays)
}
