// Defines fault events and the injection engine that turns them into grid
// model mutations. Apply is pure: it derives a new revision and never touches
// its argument, so a failed validation leaves the grid exactly as it was.

package sim

import (
	"fmt"
	"time"
)

// FaultKind is the closed set of perturbations the engine understands.
type FaultKind string

const (
	// LineTrip marks a line out of service. Islanding part of the grid is an
	// expected, observable outcome, not an error.
	LineTrip FaultKind = "LINE_TRIP"

	// LoadSpike multiplies a load's active and reactive demand. Target
	// FleetTarget scales every load at once. A multiplier below 1.0 sheds
	// load instead of adding it; the corrective action uses exactly that.
	LoadSpike FaultKind = "LOAD_SPIKE"

	// GenTrip takes a non-slack generator offline.
	GenTrip FaultKind = "GEN_TRIP"
)

// FleetTarget addresses every load in the revision for a LoadSpike.
const FleetTarget = "fleet"

// ParseFaultKind maps the wire spelling of a fault kind onto the closed set.
func ParseFaultKind(s string) (FaultKind, error) {
	switch FaultKind(s) {
	case LineTrip, LoadSpike, GenTrip:
		return FaultKind(s), nil
	default:
		return "", fmt.Errorf("%w: unknown fault kind %q", ErrInvalidTarget, s)
	}
}

// FaultEvent is a single scheduled perturbation. Events are authored once,
// immutable, and consumed at most once per run. Offset is relative to
// scenario start; events sharing an offset apply in declaration order.
type FaultEvent struct {
	Kind      FaultKind
	Target    string
	Magnitude float64
	Offset    time.Duration
}

func (e FaultEvent) String() string {
	switch e.Kind {
	case LoadSpike:
		return fmt.Sprintf("%s %s x%.2f @%s", e.Kind, e.Target, e.Magnitude, e.Offset)
	default:
		return fmt.Sprintf("%s %s @%s", e.Kind, e.Target, e.Offset)
	}
}

// Validate checks an event against a revision without applying it. This is
// the synchronous rejection path for ad-hoc injections: nothing mutates.
func (e FaultEvent) Validate(rev *Revision) error {
	switch e.Kind {
	case LineTrip:
		line, ok := rev.LineByID(e.Target)
		if !ok {
			return fmt.Errorf("%w: no line %q in revision %d", ErrInvalidTarget, e.Target, rev.Number())
		}
		if !line.InService {
			return fmt.Errorf("%w: line %q is already out of service", ErrInvalidTarget, e.Target)
		}
	case LoadSpike:
		if e.Magnitude <= 0 {
			return fmt.Errorf("%w: got %v", ErrInvalidMagnitude, e.Magnitude)
		}
		if e.Target == FleetTarget {
			return nil
		}
		if _, ok := rev.LoadByID(e.Target); !ok {
			return fmt.Errorf("%w: no load %q in revision %d", ErrInvalidTarget, e.Target, rev.Number())
		}
	case GenTrip:
		gen, ok := rev.GeneratorByID(e.Target)
		if !ok {
			return fmt.Errorf("%w: no generator %q in revision %d", ErrInvalidTarget, e.Target, rev.Number())
		}
		if !gen.InService {
			return fmt.Errorf("%w: generator %q is already offline", ErrInvalidTarget, e.Target)
		}
		if gen.Slack {
			return fmt.Errorf("%w: generator %q is the slack unit", ErrInvalidTarget, e.Target)
		}
	default:
		panic(fmt.Sprintf("sim: unhandled fault kind %q", e.Kind))
	}
	return nil
}

// Apply translates one fault event into a new grid revision. Exactly one
// event per invocation; sequencing across events belongs to the incident
// machine. On validation failure the input revision is returned untouched
// alongside the error.
func Apply(rev *Revision, e FaultEvent) (*Revision, error) {
	if err := e.Validate(rev); err != nil {
		return rev, err
	}

	next := rev.derive()
	switch e.Kind {
	case LineTrip:
		i := next.lineIdx[e.Target]
		next.lines[i].InService = false
	case LoadSpike:
		if e.Target == FleetTarget {
			for i := range next.loads {
				next.loads[i].Multiplier *= e.Magnitude
			}
		} else {
			i := next.loadIdx[e.Target]
			next.loads[i].Multiplier *= e.Magnitude
		}
	case GenTrip:
		i := next.genIdx[e.Target]
		next.gens[i].InService = false
	default:
		panic(fmt.Sprintf("sim: unhandled fault kind %q", e.Kind))
	}

	next.mustValid()
	return next, nil
}
