package core

import (
	"time"

	"github.com/lestrrat-go/strftime"
	"github.com/prometheus/client_golang/prometheus"
)

// Purpose: telemetry counters for DEADLINE_MISSED / BUS_ABSENT (SPEC_FULL.md
// §7, §1 AMBIENT STACK), plus session-log-file naming. Grounded on the
// teacher's log.go daily-filename rollover (ported here from a hand-rolled
// date format to lestrrat-go/strftime, the library the teacher already
// depends on) and on the madpsy-ka9q_ubersdr pack entry's use of
// prometheus/client_golang for an SDR control plane's counters.

// Telemetry owns the process-wide Prometheus counters the error taxonomy
// in errors.go feeds.
type Telemetry struct {
	DeadlineMissed prometheus.Counter
	BusAbsent      *prometheus.GaugeVec
	NoInput        prometheus.Counter
	ConfigInvalid  prometheus.Counter
}

// NewTelemetry registers the counters against reg (cmd/phoenixdsp passes
// prometheus.DefaultRegisterer; cmd/iqreplay passes a fresh
// prometheus.NewRegistry(), as a test building an isolated Telemetry would).
func NewTelemetry(reg prometheus.Registerer) *Telemetry {
	t := &Telemetry{
		DeadlineMissed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "phoenixdsp_deadline_missed_total",
			Help: "Blocks whose processing exceeded one block period.",
		}),
		BusAbsent: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "phoenixdsp_bus_absent",
			Help: "1 if the named external bus device failed to respond at init.",
		}, []string{"device"}),
		NoInput: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "phoenixdsp_no_input_total",
			Help: "Block ticks where codec input queues were empty.",
		}),
		ConfigInvalid: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "phoenixdsp_config_invalid_total",
			Help: "Persisted configuration loads that failed validation.",
		}),
	}
	reg.MustRegister(t.DeadlineMissed, t.BusAbsent, t.NoInput, t.ConfigInvalid)
	return t
}

// MarkBusAbsent sets the sticky BUS_ABSENT gauge for device, matching §7's
// "remains true for the lifetime of the process for that specific device".
func (t *Telemetry) MarkBusAbsent(device string) {
	t.BusAbsent.WithLabelValues(device).Set(1)
}

// sessionLogPattern names session log files with the day embedded, grounded
// on the teacher's log.go daily-rollover filename.
const sessionLogPattern = "phoenixdsp-%Y%m%d.log"

// SessionLogName renders the current day's session log filename.
func SessionLogName() (string, error) {
	return strftime.Format(sessionLogPattern, time.Now())
}
