// Package location holds the site of a building model and its hourly
// weather samples.
package location

import (
	"fmt"

	"github.com/daylight-sim/daylight-sim/sim"
)

const notSpecified = "not specified"

// Location places a model on Earth. Angles are in degrees; longitude is
// positive West, and the time zone is in GMT hours.
type Location struct {
	latitude  float64
	longitude float64
	timeZone  float64
	city      string
	country   string
	albedo    float64
	elevation float64
	weather   Weather
}

// New creates a Location at 0,0 with albedo 0.2 and unnamed city and country.
func New() *Location {
	return &Location{
		city:    notSpecified,
		country: notSpecified,
		albedo:  0.2,
	}
}

func (l *Location) Latitude() float64      { return l.latitude }
func (l *Location) SetLatitude(v float64)  { l.latitude = v }
func (l *Location) Longitude() float64     { return l.longitude }
func (l *Location) SetLongitude(v float64) { l.longitude = v }
func (l *Location) TimeZone() float64      { return l.timeZone }
func (l *Location) SetTimeZone(v float64)  { l.timeZone = v }
func (l *Location) City() string           { return l.city }
func (l *Location) SetCity(v string)       { l.city = v }
func (l *Location) Country() string        { return l.country }
func (l *Location) SetCountry(v string)    { l.country = v }
func (l *Location) Albedo() float64        { return l.albedo }
func (l *Location) SetAlbedo(v float64)    { l.albedo = v }
func (l *Location) Elevation() float64     { return l.elevation }
func (l *Location) SetElevation(v float64) { l.elevation = v }

// Validate checks that the site attributes are physically meaningful.
func (l *Location) Validate() error {
	switch {
	case l.latitude < -90 || l.latitude > 90:
		return fmt.Errorf("%w: latitude %g outside [-90, 90]", sim.ErrImport, l.latitude)
	case l.longitude < -180 || l.longitude > 180:
		return fmt.Errorf("%w: longitude %g outside [-180, 180]", sim.ErrImport, l.longitude)
	case l.timeZone < -12 || l.timeZone > 14:
		return fmt.Errorf("%w: time zone %g outside [-12, 14]", sim.ErrImport, l.timeZone)
	case l.albedo < 0 || l.albedo > 1:
		return fmt.Errorf("%w: albedo %g outside [0, 1]", sim.ErrImport, l.albedo)
	}
	return nil
}

// AddHourlyData appends a sample. Samples must arrive in chronological order.
func (l *Location) AddHourlyData(h HourlyData) error {
	return l.weather.add(h)
}

// HourlyData returns the sample at index hour.
func (l *Location) HourlyData(hour int) (HourlyData, error) {
	return l.weather.at(hour)
}

// WeatherSize returns the number of loaded samples.
func (l *Location) WeatherSize() int { return len(l.weather.samples) }

// HasWeather reports whether any samples are loaded.
func (l *Location) HasWeather() bool { return len(l.weather.samples) > 0 }

// Interpolated linearly interpolates between samples step and step+1.
func (l *Location) Interpolated(step int, fraction float64) (HourlyData, error) {
	return l.weather.interpolate(step, fraction)
}

// ByDate interpolates the weather at a calendar date and fractional hour.
// The series is indexed by hour of the year, so a series with gaps or one
// that does not start on January 1st at 0h yields ErrRange.
func (l *Location) ByDate(month, day int, hour float64) (HourlyData, error) {
	step, fraction, err := DateToStep(month, day, hour)
	if err != nil {
		return HourlyData{}, err
	}
	return l.weather.byDate(step, fraction)
}
