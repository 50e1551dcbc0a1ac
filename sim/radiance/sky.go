package radiance

import (
	"fmt"
	"io"

	"github.com/daylight-sim/daylight-sim/sim/location"
)

// SkyKind selects the sky model.
type SkyKind string

const (
	SkyOvercast SkyKind = "overcast" // CIE standard overcast
	SkyClear    SkyKind = "clear"    // CIE clear sky with sun
)

// luminousEfficacy converts Radiance watts to lumens (lm/W).
const luminousEfficacy = 179.0

// Sky describes the luminous dome lighting a run.
type Sky struct {
	Kind SkyKind

	// Overcast: horizontal illuminance from the unobstructed sky, in lux.
	Illuminance float64

	// Clear: local date and solar time.
	Month int
	Day   int
	Hour  float64
}

// OvercastSky returns a CIE overcast sky delivering illuminance lux on an
// unobstructed horizontal plane.
func OvercastSky(illuminance float64) Sky {
	return Sky{Kind: SkyOvercast, Illuminance: illuminance}
}

// ClearSky returns a CIE clear sky with sun for a date and hour.
func ClearSky(month, day int, hour float64) Sky {
	return Sky{Kind: SkyClear, Month: month, Day: day, Hour: hour}
}

// Write renders the sky as Radiance scene text. loc is required for clear
// skies, whose sun position depends on the site.
func (s Sky) Write(w io.Writer, loc *location.Location) error {
	var gensky string
	switch s.Kind {
	case SkyOvercast:
		if s.Illuminance <= 0 {
			return fmt.Errorf("overcast sky needs positive illuminance, got %g", s.Illuminance)
		}
		// -B takes horizontal diffuse irradiance in W/m².
		gensky = fmt.Sprintf("!gensky -ang 45 0 -c -B %s", formatFloat(s.Illuminance/luminousEfficacy))
	case SkyClear:
		if loc == nil {
			return fmt.Errorf("clear sky needs a location")
		}
		if _, err := location.DayOfYear(s.Month, s.Day); err != nil {
			return err
		}
		gensky = fmt.Sprintf("!gensky %d %d %s +s -a %s -o %s -m %s",
			s.Month, s.Day, formatFloat(s.Hour),
			formatFloat(loc.Latitude()), formatFloat(loc.Longitude()), formatFloat(-15*loc.TimeZone()))
	default:
		return fmt.Errorf("unknown sky kind %q", s.Kind)
	}

	_, err := fmt.Fprintf(w, `%s

skyfunc glow skyglow
0
0
4 1 1 1 0

skyglow source skydome
0
0
4 0 0 1 180

skyglow source ground
0
0
4 0 0 -1 180
`, gensky)
	return err
}
