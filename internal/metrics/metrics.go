// Package metrics declares the Prometheus collectors for the relay core.
// HTTP traffic on the probe router is instrumented separately by the gin
// middleware; these counters cover the bot-side pipeline.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	InboundRelayed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_inbound_total",
		Help: "Total user messages forwarded into the operator channel.",
	}, []string{"kind"})

	InboundFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "relay_inbound_failed_total",
		Help: "Total inbound forwards that failed at the transport.",
	})

	RepliesRelayed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "relay_replies_total",
		Help: "Total operator replies delivered back to users.",
	})

	RepliesFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "relay_replies_failed_total",
		Help: "Total reply deliveries that failed at the transport.",
	})

	ContextLost = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "relay_context_lost_total",
		Help: "Total operator replies with no matching ticket.",
	})

	EditsPropagated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "relay_edits_propagated_total",
		Help: "Total operator edits propagated to delivered messages.",
	})

	BroadcastSent = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "relay_broadcast_sent_total",
		Help: "Total broadcast messages delivered to recipients.",
	})

	BroadcastFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "relay_broadcast_failed_total",
		Help: "Total broadcast recipients that could not be reached.",
	})

	SweptTickets = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "relay_swept_tickets_total",
		Help: "Total expired ticket rows removed by the retention sweeper.",
	})

	SweepErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "relay_sweep_errors_total",
		Help: "Total sweeper cycles that ended with an error.",
	})
)

// Register installs all relay collectors on the default registry. Call once
// at startup, before the first handler runs.
func Register() {
	prometheus.MustRegister(
		InboundRelayed, InboundFailed,
		RepliesRelayed, RepliesFailed, ContextLost,
		EditsPropagated,
		BroadcastSent, BroadcastFailed,
		SweptTickets, SweepErrors,
	)
}
