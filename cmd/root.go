package cmd

import (
	"context"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/daylight-sim/daylight-sim/sim"
	"github.com/daylight-sim/daylight-sim/sim/archive"
	"github.com/daylight-sim/daylight-sim/sim/radiance"
	"github.com/daylight-sim/daylight-sim/sim/trace"
)

var (
	// Shared flags
	projectPath string // Project YAML file
	logLevel    string // Log verbosity level

	// run flags
	parallel    int    // Max concurrent task bodies
	archivePath string // SQLite archive for run reports; empty disables
	rtraceBin   string // rtrace executable
	oconvBin    string // oconv executable
	traceLevel  string // Task trace verbosity
	metricsOut  string // Prometheus text file for engine metrics; empty disables
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "daylight-sim",
	Short: "Daylighting simulation driver for the Radiance ray-tracer",
}

// setupLogging applies --log to the standard logger.
func setupLogging() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// mustLoadProject loads and builds the project named by --project.
func mustLoadProject() *Project {
	if projectPath == "" {
		logrus.Fatalf("Project file not provided. Use --project.")
	}
	p, err := LoadProject(projectPath)
	if err != nil {
		logrus.Fatalf("%s: %v", sim.ErrorKind(err), err)
	}
	return p
}

// runCmd builds the task graph for every check in the project and runs it
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the project's daylight compliance checks",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()
		if !trace.IsValidTraceLevel(traceLevel) {
			logrus.Fatalf("Invalid trace level: %s", traceLevel)
		}

		p := mustLoadProject()
		m, err := p.BuildModel()
		if err != nil {
			logrus.Fatalf("%s: %v", sim.ErrorKind(err), err)
		}

		registry := prometheus.NewRegistry()
		metrics, err := sim.NewMetrics(registry)
		if err != nil {
			logrus.Fatalf("Failed to register metrics: %v", err)
		}
		runTrace := trace.NewRunTrace(trace.TraceConfig{Level: trace.TraceLevel(traceLevel)})
		g := sim.NewGraph(
			sim.WithLogger(logrus.WithField("project", p.Name)),
			sim.WithMetrics(metrics),
			sim.WithTrace(runTrace),
		)

		tracer := radiance.NewProcessTracer()
		tracer.RtracePath = rtraceBin
		tracer.OconvPath = oconvBin
		tracer.Log = logrus.WithField("run_id", g.RunID())

		logrus.Infof("Starting run %s: project=%s, checks=%d, parallel=%d", g.RunID(), p.Name, len(p.Checks), parallel)
		startTime := time.Now()

		summary, err := RunProject(cmd.Context(), g, p, m, tracer, parallel)
		if err != nil {
			logrus.Fatalf("%s: %v", sim.ErrorKind(err), err)
		}
		if err := summary.Print(cmd.OutOrStdout()); err != nil {
			logrus.Fatalf("Failed to write results: %v", err)
		}
		if runTrace.Enabled() {
			printTraceSummary(cmd.OutOrStdout(), trace.Summarize(runTrace))
		}

		if metricsOut != "" {
			if err := prometheus.WriteToTextfile(metricsOut, registry); err != nil {
				logrus.Fatalf("Failed to write metrics: %v", err)
			}
		}
		if archivePath != "" {
			if err := saveArchive(cmd.Context(), archivePath, p, g, startTime, summary); err != nil {
				logrus.Fatalf("Failed to archive run: %v", err)
			}
			logrus.Infof("Archived run %s to %s", g.RunID(), archivePath)
		}

		if summary.Failed {
			logrus.Fatalf("Run failed: task %q (%s)", summary.FirstFailure, summary.FirstFailureKind)
		}
		logrus.Infof("Run complete in %v.", time.Since(startTime))
	},
}

func saveArchive(ctx context.Context, path string, p *Project, g *sim.Graph, started time.Time, summary *RunSummary) error {
	store, err := archive.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	return store.SaveRun(ctx, p.Name, started, g.Report(), summary.compliance)
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&projectPath, "project", "", "Project YAML file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")

	runCmd.Flags().IntVar(&parallel, "parallel", 1, "Max task bodies running at once (1 runs serially)")
	runCmd.Flags().StringVar(&archivePath, "archive", "", "SQLite file to archive the run report into")
	runCmd.Flags().StringVar(&rtraceBin, "rtrace", "rtrace", "rtrace executable")
	runCmd.Flags().StringVar(&oconvBin, "oconv", "oconv", "oconv executable")
	runCmd.Flags().StringVar(&traceLevel, "trace", "none", "Task trace level (none, tasks)")
	runCmd.Flags().StringVar(&metricsOut, "metrics-out", "", "Write engine metrics in Prometheus text format to this file")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(weatherCmd)
}
