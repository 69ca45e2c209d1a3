package observ

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Settlements = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settlements_total",
			Help: "Settled orders by terminal state",
		},
		[]string{"state"},
	)

	UntrustedCallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "untrusted_callbacks_total",
			Help: "Gateway callbacks rejected by signature verification",
		},
	)

	IntentIssueFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intent_issue_failures_total",
			Help: "Failed payment intent issuance attempts by reason",
		},
		[]string{"reason"},
	)
)
