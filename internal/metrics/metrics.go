// Package metrics registers the server's runtime counters against a private
// prometheus.Registry and serves them over /metrics, grounded on
// runZeroInc-sockstats's client_golang usage (spec §8's observability
// ambient-stack addition).
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the server's attachment/session counters.
type Registry struct {
	reg *prometheus.Registry

	AttachmentsActive   prometheus.Gauge
	AttachmentsTotal    prometheus.Counter
	AttachmentsRejected *prometheus.CounterVec
	SessionsActive      prometheus.Gauge
	KeepAliveMisses     prometheus.Counter
	StreamWriterBytes   *prometheus.CounterVec
}

// New builds a Registry with every metric registered against a fresh
// private prometheus.Registry (never the global DefaultRegisterer, so
// multiple Servers in one process — e.g. in tests — never collide).
func New() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		reg: reg,
		AttachmentsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "mm",
			Subsystem: "server",
			Name:      "attachments_active",
			Help:      "Number of attachment streams currently open.",
		}),
		AttachmentsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mm",
			Subsystem: "server",
			Name:      "attachments_total",
			Help:      "Attachments successfully established since start.",
		}),
		AttachmentsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mm",
			Subsystem: "server",
			Name:      "attachments_rejected_total",
			Help:      "Attach requests rejected, labeled by reason.",
		}, []string{"reason"}),
		SessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "mm",
			Subsystem: "server",
			Name:      "sessions_active",
			Help:      "Number of launched sessions currently tracked.",
		}),
		KeepAliveMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mm",
			Subsystem: "server",
			Name:      "keepalive_misses_total",
			Help:      "Attachments evicted for failing to keep alive in time.",
		}),
		StreamWriterBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mm",
			Subsystem: "server",
			Name:      "stream_bytes_total",
			Help:      "Bytes handed to the datagram sink, labeled by stream kind.",
		}, []string{"stream"}),
	}

	reg.MustRegister(
		r.AttachmentsActive,
		r.AttachmentsTotal,
		r.AttachmentsRejected,
		r.SessionsActive,
		r.KeepAliveMisses,
		r.StreamWriterBytes,
	)
	return r
}

// Handler serves the registry in the Prometheus text exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
