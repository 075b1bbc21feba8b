// Package metrics exposes the controller's Prometheus instruments.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AccessChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wifigate_access_checks_total",
		Help: "Access-check decisions by outcome.",
	}, []string{"decision"})

	EnforcementCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wifigate_enforcement_calls_total",
		Help: "Enforcement backend calls by operation and result.",
	}, []string{"op", "result"})

	SessionsExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wifigate_sessions_expired_total",
		Help: "Sessions deactivated by the expiry sweeper.",
	})

	SessionsReconciled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wifigate_sessions_reconciled_total",
		Help: "Paid sessions whose enforcement was re-applied by the reconcile pass.",
	})
)
