// Package metrics exposes prometheus counters for the hot paths.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	VotesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "featurevoting_votes_total",
		Help: "Vote mutations applied, by outcome.",
	}, []string{"outcome"}) // created, toggled_off, switched, duplicate

	RateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "featurevoting_rate_limited_total",
		Help: "Vote attempts denied by the rate limiter.",
	})

	LoginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "featurevoting_logins_total",
		Help: "Magic-link lifecycle events.",
	}, []string{"event"}) // requested, verified, expired, invalid
)
