package location

import (
	"fmt"
	"math"

	"github.com/daylight-sim/daylight-sim/sim"
)

// HourlyData is one weather sample. Irradiances are in W/m².
type HourlyData struct {
	Month             int
	Day               int
	Hour              float64 // fractional hour of day
	DirectNormal      float64
	DiffuseHorizontal float64
	GlobalHorizontal  float64
	DryBulb           float64 // °C
}

// Weather is an append-only chronological series of hourly samples.
type Weather struct {
	samples []HourlyData
}

var daysInMonth = [12]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// DayOfYear returns the 1-based day of a non-leap year.
func DayOfYear(month, day int) (int, error) {
	if month < 1 || month > 12 {
		return 0, fmt.Errorf("%w: month %d outside [1, 12]", sim.ErrRange, month)
	}
	if day < 1 || day > daysInMonth[month-1] {
		return 0, fmt.Errorf("%w: day %d outside [1, %d] for month %d", sim.ErrRange, day, daysInMonth[month-1], month)
	}
	doy := day
	for m := 0; m < month-1; m++ {
		doy += daysInMonth[m]
	}
	return doy, nil
}

// DateToStep converts a date and fractional hour into the sample index and
// the interpolation fraction toward the next sample.
func DateToStep(month, day int, hour float64) (step int, fraction float64, err error) {
	doy, err := DayOfYear(month, day)
	if err != nil {
		return 0, 0, err
	}
	if hour < 0 || hour >= 24 || math.IsNaN(hour) {
		return 0, 0, fmt.Errorf("%w: hour %g outside [0, 24)", sim.ErrRange, hour)
	}
	whole := math.Floor(hour)
	return 24*(doy-1) + int(whole), hour - whole, nil
}

func (w *Weather) add(h HourlyData) error {
	if _, err := DayOfYear(h.Month, h.Day); err != nil {
		return fmt.Errorf("%w: sample %d: %v", sim.ErrImport, len(w.samples), err)
	}
	if n := len(w.samples); n > 0 && before(h, w.samples[n-1]) {
		last := w.samples[n-1]
		return fmt.Errorf("%w: sample %d (%d/%d %gh) precedes %d/%d %gh",
			sim.ErrImport, n, h.Month, h.Day, h.Hour, last.Month, last.Day, last.Hour)
	}
	w.samples = append(w.samples, h)
	return nil
}

func before(a, b HourlyData) bool {
	if a.Month != b.Month {
		return a.Month < b.Month
	}
	if a.Day != b.Day {
		return a.Day < b.Day
	}
	return a.Hour < b.Hour
}

func (w *Weather) at(hour int) (HourlyData, error) {
	if hour < 0 || hour >= len(w.samples) {
		return HourlyData{}, fmt.Errorf("%w: hour %d outside %d samples", sim.ErrRange, hour, len(w.samples))
	}
	return w.samples[hour], nil
}

// checkStep verifies that the sample stored at index step was taken during
// hour step of the year.
func (w *Weather) checkStep(step int) error {
	h, err := w.at(step)
	if err != nil {
		return err
	}
	got, _, err := DateToStep(h.Month, h.Day, h.Hour)
	if err != nil {
		return fmt.Errorf("%w: sample %d: %v", sim.ErrRange, step, err)
	}
	if got != step {
		return fmt.Errorf("%w: sample %d is %d/%d %gh, not hour %d of the year",
			sim.ErrRange, step, h.Month, h.Day, h.Hour, step)
	}
	return nil
}

// byDate interpolates between samples step and step+1 after checking that
// both sit at their hour of the year.
func (w *Weather) byDate(step int, fraction float64) (HourlyData, error) {
	if err := w.checkStep(step); err != nil {
		return HourlyData{}, err
	}
	if fraction > 0 {
		if err := w.checkStep(step + 1); err != nil {
			return HourlyData{}, err
		}
	}
	return w.interpolate(step, fraction)
}

func (w *Weather) interpolate(step int, fraction float64) (HourlyData, error) {
	if fraction < 0 || fraction > 1 || math.IsNaN(fraction) {
		return HourlyData{}, fmt.Errorf("%w: fraction %g outside [0, 1]", sim.ErrRange, fraction)
	}
	a, err := w.at(step)
	if err != nil {
		return HourlyData{}, err
	}
	if fraction == 0 {
		return a, nil
	}
	b, err := w.at(step + 1)
	if err != nil {
		return HourlyData{}, err
	}
	if fraction == 1 {
		return b, nil
	}
	lerp := func(x, y float64) float64 { return x + fraction*(y-x) }
	return HourlyData{
		Month:             a.Month,
		Day:               a.Day,
		Hour:              a.Hour + fraction,
		DirectNormal:      lerp(a.DirectNormal, b.DirectNormal),
		DiffuseHorizontal: lerp(a.DiffuseHorizontal, b.DiffuseHorizontal),
		GlobalHorizontal:  lerp(a.GlobalHorizontal, b.GlobalHorizontal),
		DryBulb:           lerp(a.DryBulb, b.DryBulb),
	}, nil
}
