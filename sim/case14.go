// IEEE 14-bus standard test system, the baseline grid for the built-in
// scenarios. Impedances are per-unit on a 100 MVA base; transformer taps are
// modeled as plain branches. Bus 1 carries the slack unit; buses 3, 6 and 8
// host synchronous condensers (voltage support, zero active output).

package sim

// SystemBaseMVA is the per-unit power base shared by the whole model.
const SystemBaseMVA = 100.0

// CaseIEEE14 builds revision 1 of the IEEE 14-bus system. It panics if the
// embedded data ever fails validation, since that is a defect in this file.
func CaseIEEE14() *Revision {
	buses := []Bus{
		{ID: "bus-1", NominalKV: 135, VoltagePU: 1.06},
		{ID: "bus-2", NominalKV: 135, VoltagePU: 1.045},
		{ID: "bus-3", NominalKV: 135, VoltagePU: 1.01},
		{ID: "bus-4", NominalKV: 135, VoltagePU: 1.0},
		{ID: "bus-5", NominalKV: 135, VoltagePU: 1.0},
		{ID: "bus-6", NominalKV: 14, VoltagePU: 1.07},
		{ID: "bus-7", NominalKV: 14, VoltagePU: 1.0},
		{ID: "bus-8", NominalKV: 12, VoltagePU: 1.09},
		{ID: "bus-9", NominalKV: 14, VoltagePU: 1.0},
		{ID: "bus-10", NominalKV: 14, VoltagePU: 1.0},
		{ID: "bus-11", NominalKV: 14, VoltagePU: 1.0},
		{ID: "bus-12", NominalKV: 14, VoltagePU: 1.0},
		{ID: "bus-13", NominalKV: 14, VoltagePU: 1.0},
		{ID: "bus-14", NominalKV: 14, VoltagePU: 1.0},
	}

	lines := []Line{
		{ID: "line-1", From: "bus-1", To: "bus-2", R: 0.01938, X: 0.05917, B: 0.0528, InService: true},
		{ID: "line-2", From: "bus-1", To: "bus-5", R: 0.05403, X: 0.22304, B: 0.0492, InService: true},
		{ID: "line-3", From: "bus-2", To: "bus-3", R: 0.04699, X: 0.19797, B: 0.0438, InService: true},
		{ID: "line-4", From: "bus-2", To: "bus-4", R: 0.05811, X: 0.17632, B: 0.0340, InService: true},
		{ID: "line-5", From: "bus-2", To: "bus-5", R: 0.05695, X: 0.17388, B: 0.0346, InService: true},
		{ID: "line-6", From: "bus-3", To: "bus-4", R: 0.06701, X: 0.17103, B: 0.0128, InService: true},
		{ID: "line-7", From: "bus-4", To: "bus-5", R: 0.01335, X: 0.04211, B: 0, InService: true},
		{ID: "line-8", From: "bus-4", To: "bus-7", R: 0, X: 0.20912, B: 0, InService: true},
		{ID: "line-9", From: "bus-4", To: "bus-9", R: 0, X: 0.55618, B: 0, InService: true},
		{ID: "line-10", From: "bus-5", To: "bus-6", R: 0, X: 0.25202, B: 0, InService: true},
		{ID: "line-11", From: "bus-6", To: "bus-11", R: 0.09498, X: 0.19890, B: 0, InService: true},
		{ID: "line-12", From: "bus-6", To: "bus-12", R: 0.12291, X: 0.25581, B: 0, InService: true},
		{ID: "line-13", From: "bus-6", To: "bus-13", R: 0.06615, X: 0.13027, B: 0, InService: true},
		{ID: "line-14", From: "bus-7", To: "bus-8", R: 0, X: 0.17615, B: 0, InService: true},
		{ID: "line-15", From: "bus-7", To: "bus-9", R: 0, X: 0.11001, B: 0, InService: true},
		{ID: "line-16", From: "bus-9", To: "bus-10", R: 0.03181, X: 0.08450, B: 0, InService: true},
		{ID: "line-17", From: "bus-9", To: "bus-14", R: 0.12711, X: 0.27038, B: 0, InService: true},
		{ID: "line-18", From: "bus-10", To: "bus-11", R: 0.08205, X: 0.19207, B: 0, InService: true},
		{ID: "line-19", From: "bus-12", To: "bus-13", R: 0.22092, X: 0.19988, B: 0, InService: true},
		{ID: "line-20", From: "bus-13", To: "bus-14", R: 0.17093, X: 0.34802, B: 0, InService: true},
	}

	gens := []Generator{
		{ID: "gen-1", Bus: "bus-1", PMW: 232.4, VSetPU: 1.06, MaxPMW: 332.4, MinQMVar: -40, MaxQMVar: 100, Slack: true, InService: true},
		{ID: "gen-2", Bus: "bus-2", PMW: 40, VSetPU: 1.045, MaxPMW: 140, MinQMVar: -40, MaxQMVar: 50, InService: true},
		{ID: "gen-3", Bus: "bus-3", PMW: 0, VSetPU: 1.01, MaxPMW: 100, MinQMVar: 0, MaxQMVar: 40, InService: true},
		{ID: "gen-6", Bus: "bus-6", PMW: 0, VSetPU: 1.07, MaxPMW: 100, MinQMVar: -6, MaxQMVar: 24, InService: true},
		{ID: "gen-8", Bus: "bus-8", PMW: 0, VSetPU: 1.09, MaxPMW: 100, MinQMVar: -6, MaxQMVar: 24, InService: true},
	}

	loads := []Load{
		{ID: "load-2", Bus: "bus-2", PMW: 21.7, QMVar: 12.7, Multiplier: 1.0},
		{ID: "load-3", Bus: "bus-3", PMW: 94.2, QMVar: 19.0, Multiplier: 1.0},
		{ID: "load-4", Bus: "bus-4", PMW: 47.8, QMVar: -3.9, Multiplier: 1.0},
		{ID: "load-5", Bus: "bus-5", PMW: 7.6, QMVar: 1.6, Multiplier: 1.0},
		{ID: "load-6", Bus: "bus-6", PMW: 11.2, QMVar: 7.5, Multiplier: 1.0},
		{ID: "load-9", Bus: "bus-9", PMW: 29.5, QMVar: 16.6, Multiplier: 1.0},
		{ID: "load-10", Bus: "bus-10", PMW: 9.0, QMVar: 5.8, Multiplier: 1.0},
		{ID: "load-11", Bus: "bus-11", PMW: 3.5, QMVar: 1.8, Multiplier: 1.0},
		{ID: "load-12", Bus: "bus-12", PMW: 6.1, QMVar: 1.6, Multiplier: 1.0},
		{ID: "load-13", Bus: "bus-13", PMW: 13.5, QMVar: 5.8, Multiplier: 1.0},
		{ID: "load-14", Bus: "bus-14", PMW: 14.9, QMVar: 5.0, Multiplier: 1.0},
	}

	rev, err := NewRevision(buses, lines, gens, loads)
	if err != nil {
		panic(err)
	}
	return rev
}
