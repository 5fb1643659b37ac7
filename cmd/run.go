package cmd

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gridchaos/gridchaos/sim"
)

var (
	scenarioName string        // Built-in scenario name or path to a YAML file
	runDuration  time.Duration // Scenario horizon
	tickInterval time.Duration // Simulated time between solves
)

// runCmd executes one scenario to completion or blackout and prints a
// summary. Ticks step through simulated time without wall-clock sleeping, so
// a 60s scenario finishes as fast as the solver allows.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one fault-injection scenario against the IEEE 14-bus grid",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()

		sc, err := loadScenario(scenarioName)
		if err != nil {
			logrus.Fatalf("loading scenario: %v", err)
		}

		machine := buildMachine()
		id, err := machine.Start(sc)
		if err != nil {
			logrus.Fatalf("starting scenario: %v", err)
		}
		logrus.Infof("incident %s: running %q for %s at %s ticks", id, sc.Name, runDuration, tickInterval)

		for elapsed := tickInterval; elapsed <= runDuration; elapsed += tickInterval {
			as, err := machine.Tick(elapsed)
			if err != nil {
				logrus.Fatalf("tick at %s: %v", elapsed, err)
			}
			if as != nil && as.Classification == sim.Blackout {
				logrus.Warnf("blackout at %s, ending run early", elapsed)
				break
			}
		}

		closed := machine.Reset()
		if closed != nil {
			sim.BuildRunMetrics(closed).Print()
		}
	},
}

func init() {
	runCmd.Flags().StringVar(&scenarioName, "scenario", "cascade_demo", "Built-in scenario name or path to a scenario YAML file")
	runCmd.Flags().DurationVar(&runDuration, "duration", 60*time.Second, "Scenario horizon")
	runCmd.Flags().DurationVar(&tickInterval, "tick", time.Second, "Simulated time between solves")
	addCoreFlags(runCmd)

	rootCmd.AddCommand(runCmd)
}
