// Classifies solver output into grid health states. Classification is a pure
// function of one SolveResult and the configured thresholds; it holds no state
// across calls. Scheduling any corrective action belongs to the incident
// machine, not here.

package sim

// Classification is the health verdict for one solve.
type Classification string

const (
	Healthy  Classification = "HEALTHY"
	Degraded Classification = "DEGRADED"
	Blackout Classification = "BLACKOUT"
)

// Assessment is the detector's reading of a SolveResult. CauseBus names the
// single lowest-voltage bus when the grid is degraded; the full per-bus
// vector stays on the SolveResult for audit.
type Assessment struct {
	Classification  Classification
	MinVoltagePU    float64
	CauseBus        string
	ShedRecommended bool
}

// Detector applies voltage thresholds to solve results.
type Detector struct {
	cfg DetectorConfig
}

// NewDetector builds a detector with the given thresholds, filling defaults.
func NewDetector(cfg DetectorConfig) *Detector {
	return &Detector{cfg: cfg.WithDefaults()}
}

// Classify maps a SolveResult to a health assessment.
//
// Non-convergence is BLACKOUT unconditionally, timeout included. A converged
// result is DEGRADED only when the minimum voltage is strictly below the low
// threshold; a bus sitting exactly on the threshold is HEALTHY. Shedding is
// recommended strictly below the critical threshold when the gate is enabled.
func (d *Detector) Classify(res SolveResult) Assessment {
	if !res.Converged {
		return Assessment{Classification: Blackout}
	}

	minV, bus := res.MinVoltage()
	if minV < d.cfg.LowVoltagePU {
		return Assessment{
			Classification:  Degraded,
			MinVoltagePU:    minV,
			CauseBus:        bus,
			ShedRecommended: d.cfg.AutoLoadShedding && minV < d.cfg.CriticalVoltagePU,
		}
	}
	return Assessment{Classification: Healthy, MinVoltagePU: minV, CauseBus: bus}
}

// ShedEvent builds the corrective fleet load-shed event the incident machine
// enqueues when an assessment recommends shedding.
func (d *Detector) ShedEvent() FaultEvent {
	return FaultEvent{Kind: LoadSpike, Target: FleetTarget, Magnitude: d.cfg.LoadShedFactor}
}
