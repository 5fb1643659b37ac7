// The incident state machine. One machine owns one scenario run: the current
// grid revision pointer, the schedule of pending fault events, the solve /
// classify / emit loop, and the reset path. Commands are serialized by a
// per-machine mutex; the solve itself runs outside the lock so Reset, Inject
// and Status never wait on a slow solve.

package sim

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// MachineState is the incident machine's top-level state. HEALTHY and
// DEGRADED are per-solve sub-states recorded on the incident, not machine
// states: the machine stays RUNNING while any converged classification holds.
type MachineState string

const (
	StateIdle     MachineState = "IDLE"
	StateRunning  MachineState = "RUNNING"
	StateBlackout MachineState = "BLACKOUT"
)

// AppliedFault is a fault event together with when it was applied and the
// revision it produced.
type AppliedFault struct {
	Event    FaultEvent
	Elapsed  time.Duration
	At       time.Time
	Revision int64
}

// Incident is the record of one scenario run. It is mutated only by the
// machine that owns it; Snapshot hands out a deep copy.
type Incident struct {
	ID          string
	Scenario    string
	StartedAt   time.Time
	ClosedAt    time.Time
	Status      MachineState
	Applied     []AppliedFault
	Results     []SolveResult
	Assessments []Assessment
}

// Snapshot deep-copies the incident for callers outside the machine's lock.
func (in *Incident) Snapshot() Incident {
	out := *in
	out.Applied = append([]AppliedFault(nil), in.Applied...)
	out.Results = append([]SolveResult(nil), in.Results...)
	out.Assessments = append([]Assessment(nil), in.Assessments...)
	return out
}

// Status is the externally visible machine snapshot served by GET /status.
type Status struct {
	State          MachineState
	IncidentID     string
	Scenario       string
	Elapsed        time.Duration
	RevisionNumber int64
	Classification Classification
	Converged      bool
	MinVoltagePU   float64
	CauseBus       string
	TotalLoadMW    float64
	GenerationMW   float64
	Solves         int
}

// IncidentMachine drives a single incident. Multiple machines are fully
// independent; they share nothing mutable.
type IncidentMachine struct {
	baseline *Revision
	solver   Solver
	detector *Detector
	emitter  Emitter

	mu          sync.Mutex
	state       MachineState
	incident    *Incident
	current     *Revision
	elapsed     time.Duration
	scenario    []FaultEvent // due-ordered, shrinks as events are consumed
	corrective  []FaultEvent // detector-recommended shed events for the next tick
	adhoc       []FaultEvent // operator injections queued for the next tick
	epoch       uint64 // bumped on reset; stale solve results are discarded
	lastSolved  int64  // revision number of the newest SolveResult, 0 before the first
	ticking     bool
	cancelSolve context.CancelFunc
}

// NewIncidentMachine wires a machine over a baseline grid. A nil emitter
// falls back to NopEmitter.
func NewIncidentMachine(baseline *Revision, solver Solver, detector *Detector, emitter Emitter) *IncidentMachine {
	if emitter == nil {
		emitter = NopEmitter{}
	}
	return &IncidentMachine{
		baseline: baseline,
		solver:   solver,
		detector: detector,
		emitter:  emitter,
		state:    StateIdle,
		current:  baseline,
	}
}

// Start begins a scenario run. It fails with ErrAlreadyRunning unless the
// machine is IDLE; a blacked-out machine must be reset first. The scenario's
// fault events are scheduled by offset, ties keeping declaration order.
func (m *IncidentMachine) Start(sc *Scenario) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateIdle {
		return "", ErrAlreadyRunning
	}

	events := append([]FaultEvent(nil), sc.Faults...)
	sort.SliceStable(events, func(i, j int) bool { return events[i].Offset < events[j].Offset })

	m.incident = &Incident{
		ID:        uuid.NewString(),
		Scenario:  sc.Name,
		StartedAt: time.Now(),
		Status:    StateRunning,
	}
	m.current = m.baseline
	m.elapsed = 0
	m.scenario = events
	m.corrective = nil
	m.adhoc = nil
	m.lastSolved = 0
	m.state = StateRunning

	logrus.Infof("incident %s: scenario %q started, %d scheduled faults", m.incident.ID, sc.Name, len(events))
	return m.incident.ID, nil
}

// Inject queues an ad-hoc fault event at the current elapsed time. The target
// is validated synchronously against the current revision; a rejection
// mutates nothing. Accepted events apply at the next tick, also when a solve
// is in flight right now.
func (m *IncidentMachine) Inject(ev FaultEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateRunning {
		return ErrNotRunning
	}
	if err := ev.Validate(m.current); err != nil {
		return err
	}
	ev.Offset = m.elapsed
	m.adhoc = append(m.adhoc, ev)
	logrus.Infof("incident %s: queued ad-hoc %s", m.incident.ID, ev)
	return nil
}

// Tick advances the run to the given elapsed time: applies due fault events
// in order, solves once, classifies, appends to the incident log and emits
// exactly one telemetry record. No-op unless RUNNING. A tick overlapping an
// in-flight tick is also a no-op; the driver must await each tick.
//
// A tick that leaves the revision where the last solve found it produces no
// new SolveResult: the incident's solve history references a strictly
// increasing revision chain, one entry per grid state.
func (m *IncidentMachine) Tick(elapsed time.Duration) (*Assessment, error) {
	m.mu.Lock()
	if m.state != StateRunning || m.ticking {
		m.mu.Unlock()
		return nil, nil
	}
	m.ticking = true
	if elapsed > m.elapsed {
		m.elapsed = elapsed
	}

	m.applyDue()

	if m.current.Number() == m.lastSolved {
		m.ticking = false
		m.mu.Unlock()
		return nil, nil
	}

	rev := m.current
	epoch := m.epoch
	// The solver enforces its own wall-clock budget; this cancel only exists
	// so Reset can abandon an in-flight solve.
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelSolve = cancel
	m.mu.Unlock()

	res := m.solver.Solve(ctx, rev)
	cancel()
	res.RevisionNumber = rev.Number()

	m.mu.Lock()
	m.cancelSolve = nil
	if m.epoch != epoch || m.state != StateRunning {
		// reset landed mid-solve; the result belongs to a closed incident
		m.ticking = false
		m.mu.Unlock()
		return nil, nil
	}

	assessment := m.detector.Classify(res)
	m.lastSolved = res.RevisionNumber
	m.incident.Results = append(m.incident.Results, res)
	m.incident.Assessments = append(m.incident.Assessments, assessment)

	if !res.Converged {
		m.state = StateBlackout
		m.incident.Status = StateBlackout
		logrus.Warnf("incident %s: solve diverged (%s) at revision %d, blackout", m.incident.ID, res.Reason, rev.Number())
	} else if assessment.ShedRecommended {
		shed := m.detector.ShedEvent()
		shed.Offset = m.elapsed
		m.corrective = append(m.corrective, shed)
		logrus.Warnf("incident %s: min voltage %.4f at %s below critical, scheduling load shed",
			m.incident.ID, assessment.MinVoltagePU, assessment.CauseBus)
	}

	rec := m.record(rev, res, assessment)
	m.mu.Unlock()

	// emitted outside the lock; the ticking flag keeps emissions in solve order
	m.emitter.Emit(rec)

	m.mu.Lock()
	m.ticking = false
	m.mu.Unlock()
	return &assessment, nil
}

// applyDue consumes every due fault event, earliest offset first, scenario
// events before corrective and ad-hoc ones. Caller holds the lock. An event
// invalidated by an earlier application (a line already tripped by the
// scenario, say) is dropped with a warning; the grid state is untouched.
func (m *IncidentMachine) applyDue() {
	var due []FaultEvent
	for len(m.scenario) > 0 && m.scenario[0].Offset <= m.elapsed {
		due = append(due, m.scenario[0])
		m.scenario = m.scenario[1:]
	}
	due = append(due, m.corrective...)
	m.corrective = nil
	due = append(due, m.adhoc...)
	m.adhoc = nil

	for _, ev := range due {
		next, err := Apply(m.current, ev)
		if err != nil {
			logrus.Warnf("incident %s: dropping %s: %v", m.incident.ID, ev, err)
			continue
		}
		m.current = next
		m.incident.Applied = append(m.incident.Applied, AppliedFault{
			Event:    ev,
			Elapsed:  m.elapsed,
			At:       time.Now(),
			Revision: next.Number(),
		})
		logrus.Infof("incident %s: applied %s -> revision %d", m.incident.ID, ev, next.Number())
	}
}

// TickWallClock drives Tick with the wall-clock time elapsed since the
// incident started. This is the entry point for real-time drivers like the
// serve loop; scripted drivers pass explicit offsets to Tick instead.
func (m *IncidentMachine) TickWallClock() (*Assessment, error) {
	m.mu.Lock()
	if m.state != StateRunning {
		m.mu.Unlock()
		return nil, nil
	}
	elapsed := time.Since(m.incident.StartedAt)
	m.mu.Unlock()
	return m.Tick(elapsed)
}

// Reset is valid from any state and always succeeds. It closes the current
// incident with a final snapshot, cancels any in-flight solve (whose result
// is then discarded on arrival), discards the revision chain and restores the
// baseline. A second consecutive Reset is a no-op back to IDLE.
func (m *IncidentMachine) Reset() *Incident {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.epoch++
	if m.cancelSolve != nil {
		m.cancelSolve()
	}

	var closed *Incident
	if m.incident != nil {
		m.incident.ClosedAt = time.Now()
		if m.incident.Status != StateBlackout {
			m.incident.Status = StateIdle
		}
		snap := m.incident.Snapshot()
		closed = &snap
		logrus.Infof("incident %s: closed with status %s after %d solves", closed.ID, closed.Status, len(closed.Results))
	}

	m.incident = nil
	m.current = m.baseline
	m.elapsed = 0
	m.scenario = nil
	m.corrective = nil
	m.adhoc = nil
	m.lastSolved = 0
	m.state = StateIdle
	return closed
}

// Status reports the machine and latest solve summary.
func (m *IncidentMachine) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := Status{
		State:          m.state,
		Elapsed:        m.elapsed,
		RevisionNumber: m.current.Number(),
		TotalLoadMW:    m.current.TotalLoadMW(),
	}
	if m.incident != nil {
		st.IncidentID = m.incident.ID
		st.Scenario = m.incident.Scenario
		st.Solves = len(m.incident.Results)
		if n := len(m.incident.Results); n > 0 {
			res := m.incident.Results[n-1]
			as := m.incident.Assessments[n-1]
			st.Classification = as.Classification
			st.Converged = res.Converged
			st.MinVoltagePU = as.MinVoltagePU
			st.CauseBus = as.CauseBus
			st.GenerationMW = generationMW(m.current, res)
		}
	}
	return st
}

// CurrentIncident returns a snapshot of the active incident, or nil.
func (m *IncidentMachine) CurrentIncident() *Incident {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.incident == nil {
		return nil
	}
	snap := m.incident.Snapshot()
	return &snap
}

func (m *IncidentMachine) record(rev *Revision, res SolveResult, as Assessment) Record {
	var voltages map[string]float64
	if res.Voltages != nil {
		voltages = make(map[string]float64, len(res.Voltages))
		for bus, v := range res.Voltages {
			voltages[bus] = v
		}
	}
	return Record{
		IncidentID:     m.incident.ID,
		Timestamp:      res.Timestamp,
		RevisionNumber: res.RevisionNumber,
		Converged:      res.Converged,
		Classification: as.Classification,
		BusVoltages:    voltages,
		MinVoltagePU:   as.MinVoltagePU,
		TotalLoadMW:    rev.TotalLoadMW(),
		GenerationMW:   generationMW(rev, res),
	}
}

// generationMW totals local generation plus the slack injection at the
// solution, mirroring how the dashboard sums res_gen and res_ext_grid.
func generationMW(rev *Revision, res SolveResult) float64 {
	if !res.Converged {
		return 0
	}
	total := res.SlackMW
	for _, g := range rev.Generators() {
		if g.InService && !g.Slack {
			total += g.PMW
		}
	}
	return total
}
