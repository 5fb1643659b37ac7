package cmd

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gridchaos/gridchaos/server"
)

var (
	serveAddr string        // HTTP listen address
	serveTick time.Duration // Wall-clock interval between solves
)

// serveCmd exposes the control plane over HTTP and drives the incident
// machine in real time: one solve per tick interval while a scenario runs.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP control plane and tick incidents in real time",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()

		machine := buildMachine()
		app := server.NewApp(machine)

		go func() {
			ticker := time.NewTicker(serveTick)
			defer ticker.Stop()
			for range ticker.C {
				if _, err := machine.TickWallClock(); err != nil {
					logrus.Warnf("tick: %v", err)
				}
			}
		}()

		logrus.Infof("control plane listening on %s, ticking every %s", serveAddr, serveTick)
		if err := http.ListenAndServe(serveAddr, app.Router()); err != nil {
			logrus.Fatalf("http server: %v", err)
		}
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "HTTP listen address")
	serveCmd.Flags().DurationVar(&serveTick, "tick", time.Second, "Wall-clock interval between solves")
	addCoreFlags(serveCmd)

	rootCmd.AddCommand(serveCmd)
}
