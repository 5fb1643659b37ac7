package cmd

import (
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gridchaos/gridchaos/sim"
	"github.com/gridchaos/gridchaos/sim/influx"
	"github.com/gridchaos/gridchaos/sim/powerflow"
)

var (
	logLevel string // Log verbosity level

	// Power-flow solver configuration
	maxSolverIterations int           // Newton-Raphson iteration bound per solve
	solverTolerance     float64       // Max p.u. power mismatch accepted as converged
	solveTimeout        time.Duration // Wall-clock budget per solve

	// Cascading failure detector configuration
	lowVoltageThreshold      float64 // Min bus voltage below which the grid is DEGRADED
	criticalVoltageThreshold float64 // Min bus voltage below which load shedding may trigger
	autoLoadShedding         bool    // Enable the corrective load-shed action
	loadShedFactor           float64 // Fleet demand multiplier applied when shedding

	// Telemetry sink configuration (optional InfluxDB)
	influxURL    string
	influxToken  string
	influxOrg    string
	influxBucket string
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "gridchaos",
	Short: "Digital-twin fault-injection simulator for transmission grids",
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setupLogging applies the --log flag before any subcommand runs.
func setupLogging() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// buildMachine assembles the incident machine from the shared flags: IEEE
// 14-bus baseline, Newton-Raphson solver, threshold detector and the
// configured telemetry sinks.
func buildMachine() *sim.IncidentMachine {
	solver := powerflow.NewSolver(sim.SolverConfig{
		MaxIterations: maxSolverIterations,
		Tolerance:     solverTolerance,
		Timeout:       solveTimeout,
	})
	detector := sim.NewDetector(sim.DetectorConfig{
		LowVoltagePU:      lowVoltageThreshold,
		CriticalVoltagePU: criticalVoltageThreshold,
		AutoLoadShedding:  autoLoadShedding,
		LoadShedFactor:    loadShedFactor,
	})

	emitters := sim.MultiEmitter{sim.LogEmitter{}}
	if influxURL != "" {
		emitters = append(emitters, influx.NewWriter(influx.Config{
			URL:    influxURL,
			Token:  influxToken,
			Org:    influxOrg,
			Bucket: influxBucket,
		}))
	}

	return sim.NewIncidentMachine(sim.CaseIEEE14(), solver, detector, emitters)
}

// loadScenario resolves --scenario as a YAML file path or a library name.
func loadScenario(name string) (*sim.Scenario, error) {
	if strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml") {
		return sim.LoadScenario(name)
	}
	return sim.BuiltinScenario(name)
}

// addCoreFlags attaches the configuration surface shared by run and serve.
func addCoreFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&logLevel, "log", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")

	cmd.Flags().IntVar(&maxSolverIterations, "max-solver-iterations", 30, "Newton-Raphson iteration bound per solve")
	cmd.Flags().Float64Var(&solverTolerance, "solver-tolerance", 1e-6, "Power mismatch convergence tolerance (p.u.)")
	cmd.Flags().DurationVar(&solveTimeout, "solve-timeout", 2*time.Second, "Wall-clock budget per solve")

	cmd.Flags().Float64Var(&lowVoltageThreshold, "low-voltage-threshold", 0.90, "Min bus voltage (p.u.) below which the grid is DEGRADED")
	cmd.Flags().Float64Var(&criticalVoltageThreshold, "critical-voltage-threshold", 0.85, "Min bus voltage (p.u.) below which load shedding may trigger")
	cmd.Flags().BoolVar(&autoLoadShedding, "auto-load-shedding", false, "Enable the corrective load-shed action")
	cmd.Flags().Float64Var(&loadShedFactor, "load-shed-factor", 0.85, "Fleet demand multiplier applied when shedding")

	cmd.Flags().StringVar(&influxURL, "influx-url", "", "InfluxDB URL for telemetry (empty disables the sink)")
	cmd.Flags().StringVar(&influxToken, "influx-token", "", "InfluxDB API token")
	cmd.Flags().StringVar(&influxOrg, "influx-org", "gridchaos", "InfluxDB organization")
	cmd.Flags().StringVar(&influxBucket, "influx-bucket", "grid_telemetry", "InfluxDB bucket")
}
