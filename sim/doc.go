// Package sim provides the simulation and fault-injection core of GridChaos.
//
// # Reading Guide
//
// Start with these three files to understand the kernel:
//   - grid.go: the immutable, revisioned grid model (buses, lines, generators, loads)
//   - fault.go: fault events and Apply, the pure revision-to-revision mutation
//   - incident.go: the incident state machine driving the apply/solve/classify/emit loop
//
// # Architecture
//
// The sim package defines the model and interfaces; implementations live in
// sub-packages:
//   - sim/powerflow: Newton-Raphson steady-state solver behind the Solver interface
//   - sim/influx: InfluxDB telemetry sink behind the Emitter interface
//
// One IncidentMachine owns one scenario run: the current Revision pointer,
// the schedule of pending FaultEvents, and the incident log. Revisions are
// never edited in place; every applied fault derives a successor with the
// next revision number, so the incident's solve history references a strictly
// increasing revision chain.
//
// # Key Interfaces
//
// The extension points are small interfaces:
//   - Solver: solve one revision into a SolveResult; divergence, singularity
//     and timeout are ordinary results, never errors
//   - Emitter: receive one flat telemetry Record per solve, in solve order
//
// Classification (Detector.Classify) is a pure function of one SolveResult
// and the configured thresholds; cascading behavior such as scheduling the
// corrective load shed lives in the machine.
package sim
