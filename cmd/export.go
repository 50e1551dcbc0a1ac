package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/daylight-sim/daylight-sim/sim"
	"github.com/daylight-sim/daylight-sim/sim/daylight"
	"github.com/daylight-sim/daylight-sim/sim/radiance"
)

var exportDir string // Output directory for the Radiance scene

// exportCmd writes the project as a directory of Radiance files
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the project model as Radiance scene files",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()
		if exportDir == "" {
			logrus.Fatalf("Output directory not provided. Use --out.")
		}
		p := mustLoadProject()
		m, err := p.BuildModel()
		if err != nil {
			logrus.Fatalf("%s: %v", sim.ErrorKind(err), err)
		}
		sky := radiance.OvercastSky(daylight.ReferenceIlluminance)
		if err := radiance.NewExporter(m).ExportDir(exportDir, sky); err != nil {
			logrus.Fatalf("%s: %v", sim.ErrorKind(err), err)
		}
		logrus.Infof("Exported %s (%d objects, %d workplanes) to %s", m.Name, m.ObjectCount(), len(m.Workplanes), exportDir)
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportDir, "out", "", "Output directory")
}
