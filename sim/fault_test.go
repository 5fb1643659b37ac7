package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply_LineTrip_DerivesNewRevision(t *testing.T) {
	// GIVEN a healthy two-bus grid
	rev := twoBusModel(t)

	// WHEN the only line is tripped
	next, err := Apply(rev, FaultEvent{Kind: LineTrip, Target: "line-ab"})
	require.NoError(t, err)

	// THEN the new revision has the line out of service and the next number
	line, ok := next.LineByID("line-ab")
	require.True(t, ok)
	assert.False(t, line.InService)
	assert.Equal(t, rev.Number()+1, next.Number())

	// AND the input revision is untouched
	orig, _ := rev.LineByID("line-ab")
	assert.True(t, orig.InService, "Apply mutated its argument")
}

func TestApply_LineTrip_UnknownTarget(t *testing.T) {
	rev := twoBusModel(t)

	next, err := Apply(rev, FaultEvent{Kind: LineTrip, Target: "line-nope"})

	assert.ErrorIs(t, err, ErrInvalidTarget)
	assert.Same(t, rev, next, "failed apply must return the input revision")
}

func TestApply_LineTrip_AlreadyOut(t *testing.T) {
	rev := twoBusModel(t)
	tripped, err := Apply(rev, FaultEvent{Kind: LineTrip, Target: "line-ab"})
	require.NoError(t, err)

	_, err = Apply(tripped, FaultEvent{Kind: LineTrip, Target: "line-ab"})
	assert.ErrorIs(t, err, ErrInvalidTarget)
}

func TestApply_LoadSpike_SingleTarget(t *testing.T) {
	rev := twoBusModel(t)

	next, err := Apply(rev, FaultEvent{Kind: LoadSpike, Target: "load-b", Magnitude: 1.8})
	require.NoError(t, err)

	load, _ := next.LoadByID("load-b")
	assert.InDelta(t, 1.8, load.Multiplier, 1e-9)

	orig, _ := rev.LoadByID("load-b")
	assert.InDelta(t, 1.0, orig.Multiplier, 1e-9)
}

func TestApply_LoadSpike_FleetScalesEveryLoad(t *testing.T) {
	rev := CaseIEEE14()

	next, err := Apply(rev, FaultEvent{Kind: LoadSpike, Target: FleetTarget, Magnitude: 2.0})
	require.NoError(t, err)

	for _, l := range next.Loads() {
		assert.InDelta(t, 2.0, l.Multiplier, 1e-9, "load %s", l.ID)
	}
}

func TestApply_LoadSpike_Compounds(t *testing.T) {
	rev := twoBusModel(t)

	once, err := Apply(rev, FaultEvent{Kind: LoadSpike, Target: "load-b", Magnitude: 2.0})
	require.NoError(t, err)
	twice, err := Apply(once, FaultEvent{Kind: LoadSpike, Target: "load-b", Magnitude: 1.5})
	require.NoError(t, err)

	load, _ := twice.LoadByID("load-b")
	assert.InDelta(t, 3.0, load.Multiplier, 1e-9)
}

func TestApply_LoadSpike_NonPositiveMagnitude(t *testing.T) {
	rev := twoBusModel(t)

	for _, magnitude := range []float64{0, -1.5} {
		_, err := Apply(rev, FaultEvent{Kind: LoadSpike, Target: "load-b", Magnitude: magnitude})
		assert.ErrorIs(t, err, ErrInvalidMagnitude, "magnitude %v", magnitude)
	}
}

func TestApply_GenTrip(t *testing.T) {
	rev := CaseIEEE14()

	next, err := Apply(rev, FaultEvent{Kind: GenTrip, Target: "gen-2"})
	require.NoError(t, err)

	gen, _ := next.GeneratorByID("gen-2")
	assert.False(t, gen.InService)
}

func TestApply_GenTrip_SlackRejected(t *testing.T) {
	rev := CaseIEEE14()

	_, err := Apply(rev, FaultEvent{Kind: GenTrip, Target: "gen-1"})
	assert.ErrorIs(t, err, ErrInvalidTarget)
}

func TestApply_RevisionNumbersIncrementAlongChain(t *testing.T) {
	rev := CaseIEEE14()
	events := []FaultEvent{
		{Kind: LoadSpike, Target: FleetTarget, Magnitude: 1.2},
		{Kind: LineTrip, Target: "line-20"},
		{Kind: GenTrip, Target: "gen-8"},
	}

	want := rev.Number()
	for _, ev := range events {
		next, err := Apply(rev, ev)
		require.NoError(t, err)
		want++
		assert.Equal(t, want, next.Number())
		rev = next
	}
}

func TestParseFaultKind(t *testing.T) {
	for _, s := range []string{"LINE_TRIP", "LOAD_SPIKE", "GEN_TRIP"} {
		kind, err := ParseFaultKind(s)
		require.NoError(t, err)
		assert.Equal(t, FaultKind(s), kind)
	}

	_, err := ParseFaultKind("EMP_BLAST")
	assert.ErrorIs(t, err, ErrInvalidTarget)
}
