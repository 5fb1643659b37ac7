// Defines the grid model: buses, lines, generators, loads, and the immutable
// Revision snapshot that ties them together. Fault application never edits a
// revision in place; it derives a successor with the next revision number.

package sim

import (
	"fmt"
	"sort"
)

// Bus is a single electrical node. VoltagePU and AngleRad describe the present
// operating point (flat start for a freshly built model); solved voltages are
// reported on SolveResult, not written back here.
type Bus struct {
	ID        string
	NominalKV float64
	VoltagePU float64
	AngleRad  float64
}

// Line is a branch between two buses with series impedance R+jX and total line
// charging susceptance B, all in per-unit on the system base.
type Line struct {
	ID        string
	From      string
	To        string
	R         float64
	X         float64
	B         float64
	InService bool
}

// Generator is a machine injecting power at a bus. The unit marked Slack holds
// the reference voltage and absorbs the system power imbalance; every revision
// has exactly one. Non-slack in-service units regulate their bus to VSetPU.
type Generator struct {
	ID        string
	Bus       string
	PMW       float64
	QMVar     float64
	VSetPU    float64
	MaxPMW    float64
	MinQMVar  float64
	MaxQMVar  float64
	Slack     bool
	InService bool
}

// Load is a demand at a bus. Multiplier scales both P and Q and is the handle
// load-spike faults turn; it defaults to 1.0.
type Load struct {
	ID         string
	Bus        string
	PMW        float64
	QMVar      float64
	Multiplier float64
}

// Revision is an immutable snapshot of the whole grid. All mutation goes
// through Apply, which returns a new revision with Number incremented.
// Accessors hand out copies; the internal slices are never exposed.
type Revision struct {
	number int64
	buses  []Bus
	lines  []Line
	gens   []Generator
	loads  []Load

	busIdx  map[string]int
	lineIdx map[string]int
	genIdx  map[string]int
	loadIdx map[string]int
}

// NewRevision builds revision 1 from the given elements and validates the
// model invariants: every line endpoint, generator bus and load bus must name
// a bus in the same revision, element IDs must be unique, and exactly one
// in-service generator must be the slack.
func NewRevision(buses []Bus, lines []Line, gens []Generator, loads []Load) (*Revision, error) {
	r := &Revision{
		number: 1,
		buses:  append([]Bus(nil), buses...),
		lines:  append([]Line(nil), lines...),
		gens:   append([]Generator(nil), gens...),
		loads:  append([]Load(nil), loads...),
	}
	for i := range r.loads {
		if r.loads[i].Multiplier == 0 {
			r.loads[i].Multiplier = 1.0
		}
	}
	r.reindex()
	if err := r.validate(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Revision) reindex() {
	r.busIdx = make(map[string]int, len(r.buses))
	for i, b := range r.buses {
		r.busIdx[b.ID] = i
	}
	r.lineIdx = make(map[string]int, len(r.lines))
	for i, l := range r.lines {
		r.lineIdx[l.ID] = i
	}
	r.genIdx = make(map[string]int, len(r.gens))
	for i, g := range r.gens {
		r.genIdx[g.ID] = i
	}
	r.loadIdx = make(map[string]int, len(r.loads))
	for i, l := range r.loads {
		r.loadIdx[l.ID] = i
	}
}

func (r *Revision) validate() error {
	if len(r.busIdx) != len(r.buses) {
		return fmt.Errorf("sim: duplicate bus ID in revision %d", r.number)
	}
	if len(r.lineIdx) != len(r.lines) {
		return fmt.Errorf("sim: duplicate line ID in revision %d", r.number)
	}
	if len(r.genIdx) != len(r.gens) {
		return fmt.Errorf("sim: duplicate generator ID in revision %d", r.number)
	}
	if len(r.loadIdx) != len(r.loads) {
		return fmt.Errorf("sim: duplicate load ID in revision %d", r.number)
	}
	for _, l := range r.lines {
		if _, ok := r.busIdx[l.From]; !ok {
			return fmt.Errorf("sim: line %s references unknown bus %s", l.ID, l.From)
		}
		if _, ok := r.busIdx[l.To]; !ok {
			return fmt.Errorf("sim: line %s references unknown bus %s", l.ID, l.To)
		}
	}
	slack := 0
	for _, g := range r.gens {
		if _, ok := r.busIdx[g.Bus]; !ok {
			return fmt.Errorf("sim: generator %s references unknown bus %s", g.ID, g.Bus)
		}
		if g.Slack && g.InService {
			slack++
		}
	}
	if slack != 1 {
		return fmt.Errorf("sim: revision %d has %d in-service slack generators, want exactly 1", r.number, slack)
	}
	for _, l := range r.loads {
		if _, ok := r.busIdx[l.Bus]; !ok {
			return fmt.Errorf("sim: load %s references unknown bus %s", l.ID, l.Bus)
		}
		if l.Multiplier <= 0 {
			return fmt.Errorf("sim: load %s has non-positive multiplier %v", l.ID, l.Multiplier)
		}
	}
	return nil
}

// derive deep-copies the revision with the next number. Callers mutate the
// copy and then seal it with mustValid; Bus/Line/Generator/Load are plain
// value structs, so copying the slices copies everything.
func (r *Revision) derive() *Revision {
	next := &Revision{
		number: r.number + 1,
		buses:  append([]Bus(nil), r.buses...),
		lines:  append([]Line(nil), r.lines...),
		gens:   append([]Generator(nil), r.gens...),
		loads:  append([]Load(nil), r.loads...),
	}
	next.reindex()
	return next
}

// mustValid re-checks the invariants on a derived revision. A failure here is
// a corrupted build path, not a runtime condition, so it panics.
func (r *Revision) mustValid() {
	if err := r.validate(); err != nil {
		panic(err)
	}
}

// Number returns the revision number. Numbers are strictly increasing along a
// derivation chain, starting at 1 for a freshly built model.
func (r *Revision) Number() int64 { return r.number }

// Buses returns a copy of the bus list.
func (r *Revision) Buses() []Bus { return append([]Bus(nil), r.buses...) }

// Lines returns a copy of the line list.
func (r *Revision) Lines() []Line { return append([]Line(nil), r.lines...) }

// Generators returns a copy of the generator list.
func (r *Revision) Generators() []Generator { return append([]Generator(nil), r.gens...) }

// Loads returns a copy of the load list.
func (r *Revision) Loads() []Load { return append([]Load(nil), r.loads...) }

// BusByID looks up a bus by ID.
func (r *Revision) BusByID(id string) (Bus, bool) {
	i, ok := r.busIdx[id]
	if !ok {
		return Bus{}, false
	}
	return r.buses[i], true
}

// LineByID looks up a line by ID.
func (r *Revision) LineByID(id string) (Line, bool) {
	i, ok := r.lineIdx[id]
	if !ok {
		return Line{}, false
	}
	return r.lines[i], true
}

// GeneratorByID looks up a generator by ID.
func (r *Revision) GeneratorByID(id string) (Generator, bool) {
	i, ok := r.genIdx[id]
	if !ok {
		return Generator{}, false
	}
	return r.gens[i], true
}

// LoadByID looks up a load by ID.
func (r *Revision) LoadByID(id string) (Load, bool) {
	i, ok := r.loadIdx[id]
	if !ok {
		return Load{}, false
	}
	return r.loads[i], true
}

// TotalLoadMW sums active demand across all loads, multipliers applied.
func (r *Revision) TotalLoadMW() float64 {
	var total float64
	for _, l := range r.loads {
		total += l.PMW * l.Multiplier
	}
	return total
}

// BusIDs returns all bus IDs in deterministic (sorted) order.
func (r *Revision) BusIDs() []string {
	ids := make([]string, 0, len(r.buses))
	for _, b := range r.buses {
		ids = append(ids, b.ID)
	}
	sort.Strings(ids)
	return ids
}
