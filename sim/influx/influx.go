// Package influx pushes telemetry records to an InfluxDB v2 instance over
// the HTTP write API in line-protocol form. Writes are fire-and-forget: a
// failed write is logged and dropped, never surfaced to the tick loop.
package influx

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gridchaos/gridchaos/sim"
)

// Config locates the InfluxDB instance and bucket.
type Config struct {
	URL     string // e.g. http://localhost:8086
	Token   string
	Org     string
	Bucket  string
	Timeout time.Duration // per-write HTTP timeout (default 5s)
}

// Writer implements sim.Emitter against the v2 /api/v2/write endpoint.
type Writer struct {
	writeURL string
	token    string
	client   *http.Client
}

// NewWriter builds a writer for the configured org and bucket.
func NewWriter(cfg Config) *Writer {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	q := url.Values{}
	q.Set("org", cfg.Org)
	q.Set("bucket", cfg.Bucket)
	q.Set("precision", "ns")
	return &Writer{
		writeURL: strings.TrimRight(cfg.URL, "/") + "/api/v2/write?" + q.Encode(),
		token:    cfg.Token,
		client:   &http.Client{Timeout: timeout},
	}
}

// Emit writes one grid_health point. The flat record maps onto one
// measurement with the status as an indexed tag and the numbers as fields.
func (w *Writer) Emit(rec sim.Record) {
	body := w.line(rec)
	req, err := http.NewRequest(http.MethodPost, w.writeURL, strings.NewReader(body))
	if err != nil {
		logrus.Warnf("influx: building write request: %v", err)
		return
	}
	req.Header.Set("Authorization", "Token "+w.token)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")

	resp, err := w.client.Do(req)
	if err != nil {
		logrus.Warnf("influx: write failed: %v", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		logrus.Warnf("influx: write rejected with status %d", resp.StatusCode)
	}
}

// line renders the record in line protocol.
func (w *Writer) line(rec sim.Record) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "grid_health,status=%s,incident=%s ", rec.Classification, rec.IncidentID)
	fmt.Fprintf(&sb, "min_voltage=%g,total_load=%g,total_generation=%g,revision=%di,converged=%t",
		rec.MinVoltagePU, rec.TotalLoadMW, rec.GenerationMW, rec.RevisionNumber, rec.Converged)
	fmt.Fprintf(&sb, " %d", rec.Timestamp.UnixNano())
	return sb.String()
}
