// Aggregates per-run statistics for final reporting at the end of a scenario.

package sim

import "fmt"

// RunMetrics summarizes one incident for the CLI report.
type RunMetrics struct {
	Scenario      string
	Solves        int
	Healthy       int
	Degraded      int
	Blackouts     int
	FaultsApplied int
	MinVoltagePU  float64 // low-water mark across converged solves
	MinVoltageBus string
	FinalStatus   MachineState
}

// BuildRunMetrics folds a closed incident into summary counters.
func BuildRunMetrics(in *Incident) RunMetrics {
	m := RunMetrics{
		Scenario:      in.Scenario,
		Solves:        len(in.Results),
		FaultsApplied: len(in.Applied),
		FinalStatus:   in.Status,
	}
	for _, as := range in.Assessments {
		switch as.Classification {
		case Healthy:
			m.Healthy++
		case Degraded:
			m.Degraded++
		case Blackout:
			m.Blackouts++
		}
		if as.Classification != Blackout {
			if m.MinVoltageBus == "" || as.MinVoltagePU < m.MinVoltagePU {
				m.MinVoltagePU = as.MinVoltagePU
				m.MinVoltageBus = as.CauseBus
			}
		}
	}
	return m
}

// Print displays the aggregated run metrics.
func (m RunMetrics) Print() {
	fmt.Println("=== Scenario Run Metrics ===")
	fmt.Printf("Scenario          : %s\n", m.Scenario)
	fmt.Printf("Solves            : %d\n", m.Solves)
	fmt.Printf("Healthy           : %d\n", m.Healthy)
	fmt.Printf("Degraded          : %d\n", m.Degraded)
	fmt.Printf("Blackout          : %d\n", m.Blackouts)
	fmt.Printf("Faults applied    : %d\n", m.FaultsApplied)
	if m.MinVoltageBus != "" {
		fmt.Printf("Min voltage       : %.4f p.u. at %s\n", m.MinVoltagePU, m.MinVoltageBus)
	}
	fmt.Printf("Final status      : %s\n", m.FinalStatus)
}
