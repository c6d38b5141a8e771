// Package metrics exposes Prometheus instrumentation for the relay.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the relay's instruments on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	// EventsRelayed counts server events by server and type (join, part, chat).
	EventsRelayed *prometheus.CounterVec
	// ChatSuppressed counts chat lines dropped because the player is muted.
	ChatSuppressed *prometheus.CounterVec
	// Commands counts operator commands by name.
	Commands *prometheus.CounterVec
	// Actions counts committed moderation actions by kind.
	Actions *prometheus.CounterVec
	// ExpiriesFired counts scheduler fires.
	ExpiriesFired prometheus.Counter
	// ReversalsSkipped counts expiries whose reversal was skipped because the
	// server was down.
	ReversalsSkipped prometheus.Counter
	// ServersUp tracks how many server links are currently connected.
	ServersUp prometheus.Gauge
}

// New creates the instrument set.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		EventsRelayed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "trackd_events_relayed_total",
			Help: "Server events mirrored into the channel, by server and type.",
		}, []string{"server", "type"}),
		ChatSuppressed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "trackd_chat_suppressed_total",
			Help: "Chat lines dropped because the sender is muted.",
		}, []string{"server"}),
		Commands: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "trackd_commands_total",
			Help: "Operator commands processed, by command name.",
		}, []string{"command"}),
		Actions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "trackd_moderation_actions_total",
			Help: "Committed moderation actions, by kind.",
		}, []string{"kind"}),
		ExpiriesFired: factory.NewCounter(prometheus.CounterOpts{
			Name: "trackd_expiries_fired_total",
			Help: "Timed moderation entries expired by the scheduler.",
		}),
		ReversalsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "trackd_reversals_skipped_total",
			Help: "Expiry reversal actions skipped because the server was down.",
		}),
		ServersUp: factory.NewGauge(prometheus.GaugeOpts{
			Name: "trackd_servers_up",
			Help: "Number of server links currently connected.",
		}),
	}
}

// Handler returns the /metrics HTTP handler for the private registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve blocks serving /metrics on addr.
func (m *Metrics) Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return http.ListenAndServe(addr, mux)
}
