package location

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daylight-sim/daylight-sim/sim"
)

func loaded(t *testing.T, samples ...HourlyData) *Location {
	t.Helper()
	l := New()
	for _, s := range samples {
		require.NoError(t, l.AddHourlyData(s))
	}
	return l
}

func TestNew_Defaults(t *testing.T) {
	l := New()
	assert.Equal(t, "not specified", l.City())
	assert.Equal(t, "not specified", l.Country())
	assert.Equal(t, 0.2, l.Albedo())
	assert.Zero(t, l.Latitude())
	assert.False(t, l.HasWeather())
	assert.NoError(t, l.Validate())
}

func TestLocation_SettersAndValidate(t *testing.T) {
	l := New()
	l.SetLatitude(-33.45)
	l.SetLongitude(70.66)
	l.SetTimeZone(-4)
	l.SetCity("Santiago")
	l.SetCountry("Chile")
	l.SetElevation(520)
	l.SetAlbedo(0.3)

	assert.Equal(t, -33.45, l.Latitude())
	assert.Equal(t, 70.66, l.Longitude())
	assert.Equal(t, -4.0, l.TimeZone())
	assert.Equal(t, "Santiago", l.City())
	assert.Equal(t, "Chile", l.Country())
	assert.Equal(t, 520.0, l.Elevation())
	assert.NoError(t, l.Validate())

	l.SetLatitude(95)
	assert.ErrorIs(t, l.Validate(), sim.ErrImport)
}

func TestInterpolated_Midpoint(t *testing.T) {
	// GIVEN samples of 10 and 20 at steps 0 and 1
	l := loaded(t,
		HourlyData{Month: 1, Day: 1, Hour: 0, DiffuseHorizontal: 10, DirectNormal: 100},
		HourlyData{Month: 1, Day: 1, Hour: 1, DiffuseHorizontal: 20, DirectNormal: 300},
	)

	// WHEN interpolated halfway
	got, err := l.Interpolated(0, 0.5)

	// THEN values are linearly blended
	require.NoError(t, err)
	assert.InDelta(t, 15.0, got.DiffuseHorizontal, 1e-12)
	assert.InDelta(t, 200.0, got.DirectNormal, 1e-12)
	assert.InDelta(t, 0.5, got.Hour, 1e-12)
}

func TestInterpolated_Endpoints(t *testing.T) {
	l := loaded(t,
		HourlyData{Month: 1, Day: 1, Hour: 0, DiffuseHorizontal: 10},
		HourlyData{Month: 1, Day: 1, Hour: 1, DiffuseHorizontal: 20},
	)

	got, err := l.Interpolated(1, 0)
	require.NoError(t, err, "fraction 0 on the last sample returns it")
	assert.Equal(t, 20.0, got.DiffuseHorizontal)

	got, err = l.Interpolated(0, 1)
	require.NoError(t, err)
	assert.Equal(t, 20.0, got.DiffuseHorizontal)

	_, err = l.Interpolated(1, 0.5)
	assert.ErrorIs(t, err, sim.ErrRange)

	_, err = l.Interpolated(0, 1.5)
	assert.ErrorIs(t, err, sim.ErrRange)
}

func TestHourlyData_OutOfRangeIsRangeError(t *testing.T) {
	l := loaded(t, HourlyData{Month: 1, Day: 1, Hour: 0})

	_, err := l.HourlyData(1)

	require.Error(t, err)
	assert.ErrorIs(t, err, sim.ErrRange)
	assert.Equal(t, "RangeError", sim.ErrorKind(err))

	_, err = l.HourlyData(-1)
	assert.ErrorIs(t, err, sim.ErrRange)
}

func TestAddHourlyData_RejectsOutOfOrder(t *testing.T) {
	l := loaded(t, HourlyData{Month: 3, Day: 2, Hour: 5})

	err := l.AddHourlyData(HourlyData{Month: 3, Day: 1, Hour: 5})

	assert.ErrorIs(t, err, sim.ErrImport)
	assert.Equal(t, 1, l.WeatherSize())

	assert.ErrorIs(t, l.AddHourlyData(HourlyData{Month: 2, Day: 30}), sim.ErrImport)
}

func TestDateToStep(t *testing.T) {
	tests := []struct {
		month, day int
		hour       float64
		step       int
		fraction   float64
	}{
		{1, 1, 0, 0, 0},
		{1, 1, 12.5, 12, 0.5},
		{1, 2, 0, 24, 0},
		{3, 1, 6.25, 24*59 + 6, 0.25},
		{12, 31, 23, 8759, 0},
	}
	for _, tt := range tests {
		step, fraction, err := DateToStep(tt.month, tt.day, tt.hour)
		require.NoError(t, err)
		assert.Equal(t, tt.step, step)
		assert.InDelta(t, tt.fraction, fraction, 1e-12)
	}

	_, _, err := DateToStep(13, 1, 0)
	assert.ErrorIs(t, err, sim.ErrRange)
	_, _, err = DateToStep(2, 29, 0)
	assert.ErrorIs(t, err, sim.ErrRange)
	_, _, err = DateToStep(1, 1, 24)
	assert.ErrorIs(t, err, sim.ErrRange)
}

func TestByDate_InterpolatesWithinDay(t *testing.T) {
	// GIVEN two days of hourly samples where diffuse equals the step index
	l := New()
	for step := 0; step < 48; step++ {
		require.NoError(t, l.AddHourlyData(HourlyData{
			Month: 1, Day: 1 + step/24, Hour: float64(step % 24), DiffuseHorizontal: float64(step),
		}))
	}

	// WHEN looked up by date on the second day
	got, err := l.ByDate(1, 2, 3.75)

	// THEN the step and fraction map onto the series
	require.NoError(t, err)
	assert.InDelta(t, 27.75, got.DiffuseHorizontal, 1e-12)

	_, err = l.ByDate(1, 3, 0)
	assert.ErrorIs(t, err, sim.ErrRange)
}

func TestByDate_SeriesNotIndexedByHourOfYearIsRangeError(t *testing.T) {
	// GIVEN a chronological series that starts in June and skips hours
	l := loaded(t,
		HourlyData{Month: 6, Day: 1, Hour: 0, DiffuseHorizontal: 100},
		HourlyData{Month: 6, Day: 1, Hour: 12, DiffuseHorizontal: 500},
		HourlyData{Month: 6, Day: 2, Hour: 12, DiffuseHorizontal: 700},
	)

	// WHEN a date is looked up whose hour index lands on a June sample
	_, err := l.ByDate(1, 1, 1)

	// THEN the mismatch is reported instead of returning the wrong sample
	require.Error(t, err)
	assert.ErrorIs(t, err, sim.ErrRange)
	assert.Contains(t, err.Error(), "6/1 12h, not hour 1 of the year")

	_, err = l.ByDate(6, 1, 12)
	assert.ErrorIs(t, err, sim.ErrRange)
}

func TestByDate_GapBeforeNextSampleIsRangeError(t *testing.T) {
	// GIVEN hours 0 and 1 of January 1st followed by hour 3
	l := loaded(t,
		HourlyData{Month: 1, Day: 1, Hour: 0},
		HourlyData{Month: 1, Day: 1, Hour: 1},
		HourlyData{Month: 1, Day: 1, Hour: 3},
	)

	// WHEN interpolating across the gap
	_, err := l.ByDate(1, 1, 1.5)

	// THEN the sample taken at 3h is not blended in as 2h
	assert.ErrorIs(t, err, sim.ErrRange)

	got, err := l.ByDate(1, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got.Hour)
}
