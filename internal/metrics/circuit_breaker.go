// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Breaker states as reported on the upstream breaker gauge.
var breakerStates = [...]string{"closed", "half-open", "open"}

var (
	upstreamBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "transcriptd_upstream_breaker_state",
		Help: "Breaker guarding an upstream transcript source; the series for the current state is 1",
	}, []string{"upstream", "state"})

	upstreamBreakerTrips = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transcriptd_upstream_breaker_trips_total",
		Help: "Times an upstream transcript source was cut off by its breaker",
	}, []string{"upstream", "reason"})
)

// SetUpstreamBreakerState marks state as current for upstream and clears
// the other states.
func SetUpstreamBreakerState(upstream, state string) {
	for _, s := range breakerStates {
		v := 0.0
		if s == state {
			v = 1
		}
		upstreamBreakerState.WithLabelValues(upstream, s).Set(v)
	}
}

// RecordUpstreamBreakerTrip counts a transition of upstream's breaker to open.
func RecordUpstreamBreakerTrip(upstream, reason string) {
	upstreamBreakerTrips.WithLabelValues(upstream, reason).Inc()
}
