// Package powerflow implements the steady-state AC power-flow solver behind
// the sim.Solver adapter: Newton-Raphson in polar form with a full Jacobian,
// solved per iteration with gonum's dense LU.
//
// The solver is total over its outcomes. Divergence, a singular Jacobian
// (typically a slack-less island after a line trip) and wall-clock timeout all
// return Converged=false results with the matching reason; none of them is an
// error to the caller.
package powerflow

import (
	"context"
	"math"
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"github.com/gridchaos/gridchaos/sim"
)

type busKind int

const (
	busPQ busKind = iota
	busPV
	busSlack
)

// NewtonSolver solves one grid revision at a time. It holds only
// configuration, so a single instance is safe for use by concurrent
// incident machines.
type NewtonSolver struct {
	cfg sim.SolverConfig
}

// NewSolver builds a solver, filling zero config fields with the defaults.
func NewSolver(cfg sim.SolverConfig) *NewtonSolver {
	return &NewtonSolver{cfg: cfg.WithDefaults()}
}

// Config returns the effective solver configuration.
func (s *NewtonSolver) Config() sim.SolverConfig { return s.cfg }

// Solve runs Newton-Raphson on the revision's operating point. The iteration
// bound and mismatch tolerance come from the configuration; the wall-clock
// budget is enforced on top of any deadline already on ctx.
func (s *NewtonSolver) Solve(ctx context.Context, rev *sim.Revision) sim.SolveResult {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	result := sim.SolveResult{
		RevisionNumber: rev.Number(),
		Timestamp:      time.Now(),
	}

	sys := newSystem(rev)

	for iter := 1; iter <= s.cfg.MaxIterations; iter++ {
		if ctx.Err() != nil {
			result.Reason = sim.ReasonTimeout
			result.Iterations = iter - 1
			return result
		}
		result.Iterations = iter

		sys.computeInjections()
		mismatch := sys.mismatch()

		worst := 0.0
		for _, m := range mismatch {
			if math.IsNaN(m) || math.IsInf(m, 0) {
				result.Reason = sim.ReasonDiverged
				return result
			}
			if a := math.Abs(m); a > worst {
				worst = a
			}
		}
		if worst < s.cfg.Tolerance {
			result.Converged = true
			result.Reason = sim.ReasonOK
			result.Voltages = sys.voltages()
			result.SlackMW = sys.pCalc[sys.slack] * sim.SystemBaseMVA
			logrus.Debugf("powerflow: revision %d converged in %d iterations (mismatch %.2e)",
				rev.Number(), iter, worst)
			return result
		}

		jac := sys.jacobian()
		rhs := mat.NewVecDense(len(mismatch), mismatch)
		var dx mat.VecDense
		if err := dx.SolveVec(jac, rhs); err != nil {
			logrus.Debugf("powerflow: revision %d singular Jacobian at iteration %d: %v", rev.Number(), iter, err)
			result.Reason = sim.ReasonSingular
			return result
		}
		if !sys.update(&dx) {
			result.Reason = sim.ReasonDiverged
			return result
		}
	}

	logrus.Debugf("powerflow: revision %d exhausted %d iterations", rev.Number(), s.cfg.MaxIterations)
	result.Reason = sim.ReasonDiverged
	return result
}

// system is the per-solve working state: bus ordering, admittance matrix,
// specified injections and the evolving voltage estimate.
type system struct {
	ids   []string
	kind  []busKind
	slack int

	g, b [][]float64 // Ybus real and imaginary parts

	pSpec []float64 // specified P injection, p.u. (non-slack)
	qSpec []float64 // specified Q injection, p.u. (PQ only)

	vm    []float64 // voltage magnitude estimate
	va    []float64 // voltage angle estimate, rad
	pCalc []float64
	qCalc []float64

	angIdx []int // bus -> position of its angle unknown, -1 for slack
	magIdx []int // bus -> position of its magnitude unknown, -1 unless PQ
	nUnk   int
}

func newSystem(rev *sim.Revision) *system {
	buses := rev.Buses()
	n := len(buses)
	sys := &system{
		ids:   make([]string, n),
		kind:  make([]busKind, n),
		slack: -1,
		g:     make([][]float64, n),
		b:     make([][]float64, n),
		pSpec: make([]float64, n),
		qSpec: make([]float64, n),
		vm:    make([]float64, n),
		va:    make([]float64, n),
		pCalc: make([]float64, n),
		qCalc: make([]float64, n),
	}
	idx := make(map[string]int, n)
	for i, bus := range buses {
		sys.ids[i] = bus.ID
		idx[bus.ID] = i
		sys.g[i] = make([]float64, n)
		sys.b[i] = make([]float64, n)
		sys.vm[i] = bus.VoltagePU
		if sys.vm[i] <= 0 {
			sys.vm[i] = 1.0
		}
		sys.va[i] = bus.AngleRad
	}

	for _, line := range rev.Lines() {
		if !line.InService {
			continue
		}
		f, t := idx[line.From], idx[line.To]
		den := line.R*line.R + line.X*line.X
		gs, bs := line.R/den, -line.X/den
		half := line.B / 2

		sys.g[f][f] += gs
		sys.b[f][f] += bs + half
		sys.g[t][t] += gs
		sys.b[t][t] += bs + half
		sys.g[f][t] -= gs
		sys.b[f][t] -= bs
		sys.g[t][f] -= gs
		sys.b[t][f] -= bs
	}

	for _, gen := range rev.Generators() {
		if !gen.InService {
			continue
		}
		i := idx[gen.Bus]
		if gen.Slack {
			sys.kind[i] = busSlack
			sys.slack = i
		} else if sys.kind[i] != busSlack {
			sys.kind[i] = busPV
			sys.pSpec[i] += gen.PMW / sim.SystemBaseMVA
		}
		if gen.VSetPU > 0 {
			sys.vm[i] = gen.VSetPU
		}
	}
	for _, load := range rev.Loads() {
		i := idx[load.Bus]
		sys.pSpec[i] -= load.PMW * load.Multiplier / sim.SystemBaseMVA
		sys.qSpec[i] -= load.QMVar * load.Multiplier / sim.SystemBaseMVA
	}

	sys.angIdx = make([]int, n)
	sys.magIdx = make([]int, n)
	pos := 0
	for i := range sys.angIdx {
		if sys.kind[i] == busSlack {
			sys.angIdx[i] = -1
			continue
		}
		sys.angIdx[i] = pos
		pos++
	}
	for i := range sys.magIdx {
		if sys.kind[i] == busPQ {
			sys.magIdx[i] = pos
			pos++
		} else {
			sys.magIdx[i] = -1
		}
	}
	sys.nUnk = pos
	return sys
}

func (s *system) computeInjections() {
	n := len(s.ids)
	for i := 0; i < n; i++ {
		var p, q float64
		for k := 0; k < n; k++ {
			if s.g[i][k] == 0 && s.b[i][k] == 0 {
				continue
			}
			d := s.va[i] - s.va[k]
			cos, sin := math.Cos(d), math.Sin(d)
			p += s.vm[k] * (s.g[i][k]*cos + s.b[i][k]*sin)
			q += s.vm[k] * (s.g[i][k]*sin - s.b[i][k]*cos)
		}
		s.pCalc[i] = s.vm[i] * p
		s.qCalc[i] = s.vm[i] * q
	}
}

func (s *system) mismatch() []float64 {
	f := make([]float64, s.nUnk)
	for i := range s.ids {
		if j := s.angIdx[i]; j >= 0 {
			f[j] = s.pSpec[i] - s.pCalc[i]
		}
		if j := s.magIdx[i]; j >= 0 {
			f[j] = s.qSpec[i] - s.qCalc[i]
		}
	}
	return f
}

// jacobian assembles the full Newton matrix in the same unknown ordering as
// the mismatch vector: angle corrections first, then PQ magnitudes.
func (s *system) jacobian() *mat.Dense {
	jac := mat.NewDense(s.nUnk, s.nUnk, nil)
	n := len(s.ids)

	for i := 0; i < n; i++ {
		rowP := s.angIdx[i]
		rowQ := s.magIdx[i]
		if rowP < 0 && rowQ < 0 {
			continue
		}
		for k := 0; k < n; k++ {
			colA := s.angIdx[k]
			colM := s.magIdx[k]
			if colA < 0 && colM < 0 {
				continue
			}

			var dPdA, dPdV, dQdA, dQdV float64
			if i == k {
				vi := s.vm[i]
				dPdA = -s.qCalc[i] - s.b[i][i]*vi*vi
				dPdV = s.pCalc[i]/vi + s.g[i][i]*vi
				dQdA = s.pCalc[i] - s.g[i][i]*vi*vi
				dQdV = s.qCalc[i]/vi - s.b[i][i]*vi
			} else {
				if s.g[i][k] == 0 && s.b[i][k] == 0 {
					continue
				}
				d := s.va[i] - s.va[k]
				cos, sin := math.Cos(d), math.Sin(d)
				gc := s.g[i][k]*cos + s.b[i][k]*sin
				gs := s.g[i][k]*sin - s.b[i][k]*cos
				dPdA = s.vm[i] * s.vm[k] * gs
				dPdV = s.vm[i] * gc
				dQdA = -s.vm[i] * s.vm[k] * gc
				dQdV = s.vm[i] * gs
			}

			if rowP >= 0 && colA >= 0 {
				jac.Set(rowP, colA, dPdA)
			}
			if rowP >= 0 && colM >= 0 {
				jac.Set(rowP, colM, dPdV)
			}
			if rowQ >= 0 && colA >= 0 {
				jac.Set(rowQ, colA, dQdA)
			}
			if rowQ >= 0 && colM >= 0 {
				jac.Set(rowQ, colM, dQdV)
			}
		}
	}
	return jac
}

// update applies the Newton step. Returns false when the estimate left the
// physically meaningful region (non-positive or non-finite magnitudes), which
// the caller reports as divergence.
func (s *system) update(dx *mat.VecDense) bool {
	for i := range s.ids {
		if j := s.angIdx[i]; j >= 0 {
			s.va[i] += dx.AtVec(j)
		}
		if j := s.magIdx[i]; j >= 0 {
			s.vm[i] += dx.AtVec(j)
			if s.vm[i] <= 0 || math.IsNaN(s.vm[i]) || math.IsInf(s.vm[i], 0) {
				return false
			}
		}
	}
	return true
}

func (s *system) voltages() map[string]float64 {
	out := make(map[string]float64, len(s.ids))
	for i, id := range s.ids {
		out[id] = s.vm[i]
	}
	return out
}
