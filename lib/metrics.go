package awsivy

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsListener records transfers as Prometheus metrics.
type MetricsListener struct {
	transfersTotal   *prometheus.CounterVec
	transferBytes    *prometheus.CounterVec
	transferDuration *prometheus.HistogramVec
	activeTransfers  *prometheus.GaugeVec
}

// NewMetricsListener creates the transfer metrics and registers them with reg.
func NewMetricsListener(reg prometheus.Registerer) (*MetricsListener, error) {
	m := &MetricsListener{
		transfersTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "awsivy_transfers_total",
				Help: "Total number of finished transfers",
			},
			[]string{"kind", "success"},
		),
		transferBytes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "awsivy_transfer_bytes_total",
				Help: "Bytes moved by completed transfers",
			},
			[]string{"kind"},
		),
		transferDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "awsivy_transfer_duration_seconds",
				Help:    "Duration of transfers in seconds",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 300},
			},
			[]string{"kind", "success"},
		),
		activeTransfers: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "awsivy_active_transfers",
				Help: "Number of transfers in progress",
			},
			[]string{"kind"},
		),
	}

	for _, c := range []prometheus.Collector{
		m.transfersTotal,
		m.transferBytes,
		m.transferDuration,
		m.activeTransfers,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *MetricsListener) TransferInitiated(ev *TransferEvent) {
	m.activeTransfers.WithLabelValues(ev.Kind.String()).Inc()
}

func (m *MetricsListener) TransferProgress(ev *TransferEvent, transferred int64) {}

func (m *MetricsListener) TransferCompleted(ev *TransferEvent, total int64) {
	m.finish(ev, true)
	m.transferBytes.WithLabelValues(ev.Kind.String()).Add(float64(total))
}

func (m *MetricsListener) TransferError(ev *TransferEvent, err error) {
	m.finish(ev, false)
}

func (m *MetricsListener) finish(ev *TransferEvent, success bool) {
	kind := ev.Kind.String()
	status := "false"
	if success {
		status = "true"
	}
	m.activeTransfers.WithLabelValues(kind).Dec()
	m.transfersTotal.WithLabelValues(kind, status).Inc()
	m.transferDuration.WithLabelValues(kind, status).Observe(time.Since(ev.Started).Seconds())
}
