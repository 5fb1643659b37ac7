package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridchaos/gridchaos/sim"
	"github.com/gridchaos/gridchaos/sim/powerflow"
)

func TestMain(m *testing.M) {
	if os.Getenv("DEBUG_TESTS") == "" {
		logrus.SetLevel(logrus.WarnLevel)
	}
	os.Exit(m.Run())
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	machine := sim.NewIncidentMachine(
		sim.CaseIEEE14(),
		powerflow.NewSolver(sim.SolverConfig{}),
		sim.NewDetector(sim.DetectorConfig{}),
		nil,
	)
	return NewApp(machine)
}

func do(app *App, method, path, body string) *httptest.ResponseRecorder {
	var rd *bytes.Reader
	if body == "" {
		rd = bytes.NewReader(nil)
	} else {
		rd = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, rd)
	w := httptest.NewRecorder()
	app.Router().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}

func TestStart_CreatesIncident(t *testing.T) {
	app := newTestApp(t)

	w := do(app, http.MethodPost, "/scenario/start", `{"scenario_name":"cascade_demo"}`)

	require.Equal(t, http.StatusCreated, w.Code)
	var resp struct {
		IncidentID string `json:"incident_id"`
		Scenario   string `json:"scenario"`
	}
	decode(t, w, &resp)
	assert.NotEmpty(t, resp.IncidentID)
	assert.Equal(t, "cascade_demo", resp.Scenario)
}

func TestStart_ConflictWhileRunning(t *testing.T) {
	app := newTestApp(t)
	require.Equal(t, http.StatusCreated,
		do(app, http.MethodPost, "/scenario/start", `{"scenario_name":"cascade_demo"}`).Code)

	w := do(app, http.MethodPost, "/scenario/start", `{"scenario_name":"heatwave_2023"}`)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestStart_UnknownScenario(t *testing.T) {
	app := newTestApp(t)

	w := do(app, http.MethodPost, "/scenario/start", `{"scenario_name":"volcano"}`)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStart_MalformedBody(t *testing.T) {
	app := newTestApp(t)

	w := do(app, http.MethodPost, "/scenario/start", `{"scenario_name":`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInject_Accepted(t *testing.T) {
	app := newTestApp(t)
	require.Equal(t, http.StatusCreated,
		do(app, http.MethodPost, "/scenario/start", `{"scenario_name":"cascade_demo"}`).Code)

	w := do(app, http.MethodPost, "/fault/inject", `{"kind":"LINE_TRIP","target":"line-7"}`)

	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestInject_ConflictWhenIdle(t *testing.T) {
	app := newTestApp(t)

	w := do(app, http.MethodPost, "/fault/inject", `{"kind":"LINE_TRIP","target":"line-7"}`)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestInject_BadRequests(t *testing.T) {
	app := newTestApp(t)
	require.Equal(t, http.StatusCreated,
		do(app, http.MethodPost, "/scenario/start", `{"scenario_name":"cascade_demo"}`).Code)

	cases := map[string]string{
		"unknown kind":     `{"kind":"EMP_BLAST","target":"line-1"}`,
		"unknown target":   `{"kind":"LINE_TRIP","target":"line-999"}`,
		"bad magnitude":    `{"kind":"LOAD_SPIKE","target":"fleet","magnitude":-1}`,
		"malformed body":   `{"kind":`,
		"slack generation": `{"kind":"GEN_TRIP","target":"gen-1"}`,
	}
	for name, body := range cases {
		w := do(app, http.MethodPost, "/fault/inject", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, name)
	}
}

func TestReset_AlwaysSucceeds(t *testing.T) {
	app := newTestApp(t)
	start := do(app, http.MethodPost, "/scenario/start", `{"scenario_name":"cascade_demo"}`)
	require.Equal(t, http.StatusCreated, start.Code)
	var started struct {
		IncidentID string `json:"incident_id"`
	}
	decode(t, start, &started)

	w := do(app, http.MethodPost, "/scenario/reset", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		ClosedIncidentID string `json:"closed_incident_id"`
		FinalStatus      string `json:"final_status"`
	}
	decode(t, w, &resp)
	assert.Equal(t, started.IncidentID, resp.ClosedIncidentID)
	assert.Equal(t, "IDLE", resp.FinalStatus)

	// reset with nothing running is still 200, with no incident to report
	again := do(app, http.MethodPost, "/scenario/reset", "")
	require.Equal(t, http.StatusOK, again.Code)
	resp = struct {
		ClosedIncidentID string `json:"closed_incident_id"`
		FinalStatus      string `json:"final_status"`
	}{}
	decode(t, again, &resp)
	assert.Empty(t, resp.ClosedIncidentID)
}

func TestStatus_ReflectsRun(t *testing.T) {
	app := newTestApp(t)

	var idle struct {
		State    string `json:"state"`
		Revision int64  `json:"revision"`
	}
	w := do(app, http.MethodGet, "/status", "")
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &idle)
	assert.Equal(t, "IDLE", idle.State)
	assert.Equal(t, int64(1), idle.Revision)

	require.Equal(t, http.StatusCreated,
		do(app, http.MethodPost, "/scenario/start", `{"scenario_name":"cascade_demo"}`).Code)

	var running struct {
		State      string `json:"state"`
		IncidentID string `json:"incident_id"`
		Scenario   string `json:"scenario"`
	}
	w = do(app, http.MethodGet, "/status", "")
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &running)
	assert.Equal(t, "RUNNING", running.State)
	assert.NotEmpty(t, running.IncidentID)
	assert.Equal(t, "cascade_demo", running.Scenario)
}

func TestScenarios_ListsLibrary(t *testing.T) {
	app := newTestApp(t)

	w := do(app, http.MethodGet, "/scenarios", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "application/json"))

	var out []struct {
		Name   string `json:"name"`
		Faults int    `json:"faults"`
	}
	decode(t, w, &out)
	require.NotEmpty(t, out)

	names := make(map[string]int, len(out))
	for _, sc := range out {
		names[sc.Name] = sc.Faults
	}
	assert.Equal(t, 2, names["cascade_demo"])
	assert.Contains(t, names, "hurricane_ida")
	assert.Contains(t, names, "blackout_2003")
}

func TestRouter_MethodsEnforced(t *testing.T) {
	app := newTestApp(t)

	assert.Equal(t, http.StatusMethodNotAllowed,
		do(app, http.MethodGet, "/scenario/start", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed,
		do(app, http.MethodPost, "/status", "").Code)
}
