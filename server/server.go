// Package server is the HTTP control plane over one incident machine. It is
// a thin boundary: request decoding, status codes and JSON shapes live here,
// all behavior lives in the sim package.
package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/gridchaos/gridchaos/sim"
)

// App bundles the machine behind the HTTP handlers.
type App struct {
	Machine *sim.IncidentMachine
}

// NewApp wires an App over a machine.
func NewApp(machine *sim.IncidentMachine) *App {
	return &App{Machine: machine}
}

// Router builds the control-plane routes.
func (app *App) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/scenario/start", app.StartHandler).Methods(http.MethodPost)
	r.HandleFunc("/scenario/reset", app.ResetHandler).Methods(http.MethodPost)
	r.HandleFunc("/fault/inject", app.InjectHandler).Methods(http.MethodPost)
	r.HandleFunc("/status", app.StatusHandler).Methods(http.MethodGet)
	r.HandleFunc("/scenarios", app.ScenariosHandler).Methods(http.MethodGet)
	return r
}

type startRequest struct {
	ScenarioName string `json:"scenario_name"`
}

type startResponse struct {
	IncidentID string `json:"incident_id"`
	Scenario   string `json:"scenario"`
}

// StartHandler begins a scenario from the built-in library. 409 when a run
// is already active, 404 for an unknown scenario name.
func (app *App) StartHandler(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	sc, err := sim.BuiltinScenario(req.ScenarioName)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	id, err := app.Machine.Start(sc)
	if err != nil {
		if errors.Is(err, sim.ErrAlreadyRunning) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, startResponse{IncidentID: id, Scenario: sc.Name})
}

type injectRequest struct {
	Kind      string  `json:"kind"`
	Target    string  `json:"target"`
	Magnitude float64 `json:"magnitude,omitempty"`
}

// InjectHandler queues an ad-hoc fault at the current elapsed time. All
// validation errors come back as 400 without mutating any state.
func (app *App) InjectHandler(w http.ResponseWriter, r *http.Request) {
	var req injectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	kind, err := sim.ParseFaultKind(req.Kind)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ev := sim.FaultEvent{Kind: kind, Target: req.Target, Magnitude: req.Magnitude}
	if err := app.Machine.Inject(ev); err != nil {
		switch {
		case errors.Is(err, sim.ErrNotRunning):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, sim.ErrInvalidTarget), errors.Is(err, sim.ErrInvalidMagnitude):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

type resetResponse struct {
	ClosedIncidentID string `json:"closed_incident_id,omitempty"`
	FinalStatus      string `json:"final_status,omitempty"`
}

// ResetHandler always succeeds, also when nothing is running.
func (app *App) ResetHandler(w http.ResponseWriter, r *http.Request) {
	closed := app.Machine.Reset()
	resp := resetResponse{}
	if closed != nil {
		resp.ClosedIncidentID = closed.ID
		resp.FinalStatus = string(closed.Status)
	}
	writeJSON(w, http.StatusOK, resp)
}

type statusResponse struct {
	State          string  `json:"state"`
	IncidentID     string  `json:"incident_id,omitempty"`
	Scenario       string  `json:"scenario,omitempty"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	Revision       int64   `json:"revision"`
	Classification string  `json:"classification,omitempty"`
	Converged      bool    `json:"converged"`
	MinVoltagePU   float64 `json:"min_voltage_pu"`
	CauseBus       string  `json:"cause_bus,omitempty"`
	TotalLoadMW    float64 `json:"total_load_mw"`
	GenerationMW   float64 `json:"generation_mw"`
	Solves         int     `json:"solves"`
}

// StatusHandler reports the machine state and the latest solve summary.
func (app *App) StatusHandler(w http.ResponseWriter, r *http.Request) {
	st := app.Machine.Status()
	writeJSON(w, http.StatusOK, statusResponse{
		State:          string(st.State),
		IncidentID:     st.IncidentID,
		Scenario:       st.Scenario,
		ElapsedSeconds: st.Elapsed.Seconds(),
		Revision:       st.RevisionNumber,
		Classification: string(st.Classification),
		Converged:      st.Converged,
		MinVoltagePU:   st.MinVoltagePU,
		CauseBus:       st.CauseBus,
		TotalLoadMW:    st.TotalLoadMW,
		GenerationMW:   st.GenerationMW,
		Solves:         st.Solves,
	})
}

type scenarioSummary struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Target      string `json:"target"`
	Faults      int    `json:"faults"`
}

// ScenariosHandler lists the built-in scenario library.
func (app *App) ScenariosHandler(w http.ResponseWriter, r *http.Request) {
	var out []scenarioSummary
	for _, sc := range sim.BuiltinScenarios() {
		out = append(out, scenarioSummary{
			Name:        sc.Name,
			DisplayName: sc.DisplayName,
			Target:      sc.Target,
			Faults:      len(sc.Faults),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Warnf("server: encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
