package sim

import "time"

// SolverConfig groups the power-flow iteration bounds handed to the
// sim/powerflow solver. These are configuration, not constants; the CLI and
// control plane expose all three.
type SolverConfig struct {
	MaxIterations int           // iteration bound per solve (default 30)
	Tolerance     float64       // max p.u. power mismatch accepted as converged (default 1e-6)
	Timeout       time.Duration // wall-clock budget per solve (default 2s)
}

// DefaultSolverConfig returns the documented solver defaults.
func DefaultSolverConfig() SolverConfig {
	return SolverConfig{
		MaxIterations: 30,
		Tolerance:     1e-6,
		Timeout:       2 * time.Second,
	}
}

// WithDefaults fills zero fields with the documented defaults.
func (c SolverConfig) WithDefaults() SolverConfig {
	d := DefaultSolverConfig()
	if c.MaxIterations <= 0 {
		c.MaxIterations = d.MaxIterations
	}
	if c.Tolerance <= 0 {
		c.Tolerance = d.Tolerance
	}
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	return c
}

// DetectorConfig groups the cascading-failure classification thresholds.
type DetectorConfig struct {
	LowVoltagePU      float64 // below this (strict) a converged solve is DEGRADED (default 0.90)
	CriticalVoltagePU float64 // below this (strict) load shedding may trigger (default 0.85)
	AutoLoadShedding  bool    // gate for the corrective action (default false)
	LoadShedFactor    float64 // fleet multiplier applied when shedding (default 0.85)
}

// DefaultDetectorConfig returns the documented detector defaults.
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		LowVoltagePU:      0.90,
		CriticalVoltagePU: 0.85,
		AutoLoadShedding:  false,
		LoadShedFactor:    0.85,
	}
}

// WithDefaults fills zero fields with the documented defaults.
func (c DetectorConfig) WithDefaults() DetectorConfig {
	d := DefaultDetectorConfig()
	if c.LowVoltagePU <= 0 {
		c.LowVoltagePU = d.LowVoltagePU
	}
	if c.CriticalVoltagePU <= 0 {
		c.CriticalVoltagePU = d.CriticalVoltagePU
	}
	if c.LoadShedFactor <= 0 {
		c.LoadShedFactor = d.LoadShedFactor
	}
	return c
}
