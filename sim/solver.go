// Solver adapter boundary. The numerical power-flow algorithm lives in
// sim/powerflow; the sim package only depends on this interface, so tests and
// the incident machine can run against scripted solvers.

package sim

import (
	"context"
	"time"
)

// SolveReason explains a SolveResult beyond the Converged flag. Divergence
// and timeout classify identically downstream; the tag exists for diagnostics.
type SolveReason string

const (
	// ReasonOK means the iteration met tolerance within the bound.
	ReasonOK SolveReason = "ok"
	// ReasonDiverged means the iteration bound was exhausted or the estimates
	// blew up numerically before meeting tolerance.
	ReasonDiverged SolveReason = "diverged"
	// ReasonSingular means the Jacobian was singular, typically a slack-less
	// island after a topology change.
	ReasonSingular SolveReason = "singular"
	// ReasonTimeout means the wall-clock budget expired mid-solve.
	ReasonTimeout SolveReason = "timeout"
)

// SolveResult is the immutable outcome of one power-flow solve. When
// Converged is false, Voltages is nil: there is no trustworthy operating
// point to report.
type SolveResult struct {
	RevisionNumber int64
	Converged      bool
	Reason         SolveReason
	Voltages       map[string]float64 // bus ID -> |V| in p.u.; nil unless converged
	Iterations     int
	SlackMW        float64 // slack unit active injection at the solution
	Timestamp      time.Time
}

// MinVoltage returns the lowest bus voltage magnitude and its bus ID. The
// second return is "" when there is no voltage data. Ties resolve to the
// lexicographically smallest bus ID so repeated runs report the same primary
// cause.
func (r SolveResult) MinVoltage() (float64, string) {
	var (
		minV   float64
		minBus string
	)
	for bus, v := range r.Voltages {
		if minBus == "" || v < minV || (v == minV && bus < minBus) {
			minV, minBus = v, bus
		}
	}
	return minV, minBus
}

// Solver is the adapter contract around the steady-state equation solver.
// Solve never blocks past the configured wall-clock budget and never fails:
// divergence, singularity and timeout all come back as Converged=false
// results with the matching reason.
type Solver interface {
	Solve(ctx context.Context, rev *Revision) SolveResult
}
