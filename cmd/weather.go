package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/daylight-sim/daylight-sim/sim"
	"github.com/daylight-sim/daylight-sim/sim/location"
)

var (
	weatherMonth int     // 1-12
	weatherDay   int     // 1-31
	weatherTime  float64 // fractional hour of day
)

// weatherCmd prints the interpolated weather sample for a date and time
var weatherCmd = &cobra.Command{
	Use:   "weather",
	Short: "Look up the project's weather at a date and time",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()
		p := mustLoadProject()
		m, err := p.BuildModel()
		if err != nil {
			logrus.Fatalf("%s: %v", sim.ErrorKind(err), err)
		}
		if err := printWeather(cmd.OutOrStdout(), m.Location, weatherMonth, weatherDay, weatherTime); err != nil {
			logrus.Fatalf("%s: %v", sim.ErrorKind(err), err)
		}
	},
}

// weatherOutput is the JSON shape of a weather lookup.
type weatherOutput struct {
	Month             int     `json:"month"`
	Day               int     `json:"day"`
	Hour              float64 `json:"hour"`
	DirectNormal      float64 `json:"direct_normal"`
	DiffuseHorizontal float64 `json:"diffuse_horizontal"`
	GlobalHorizontal  float64 `json:"global_horizontal"`
	DryBulb           float64 `json:"dry_bulb"`
}

func printWeather(w io.Writer, loc *location.Location, month, day int, hour float64) error {
	if !loc.HasWeather() {
		return fmt.Errorf("%w: project has no weather data", sim.ErrImport)
	}
	h, err := loc.ByDate(month, day, hour)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(weatherOutput(h), "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

func init() {
	weatherCmd.Flags().IntVar(&weatherMonth, "month", 1, "Month (1-12)")
	weatherCmd.Flags().IntVar(&weatherDay, "day", 1, "Day of month")
	weatherCmd.Flags().Float64Var(&weatherTime, "time", 12, "Hour of day, fractional (0 <= time < 24)")
}
