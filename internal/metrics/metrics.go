// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// votesCast counts vote toggles by target kind and outcome
	votesCast = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stackit_votes_cast_total",
		Help: "Vote toggles by target kind and outcome",
	}, []string{"target_kind", "outcome"})

	answersAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stackit_answers_accepted_total",
		Help: "Answers newly marked accepted",
	})

	notificationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stackit_notifications_created_total",
		Help: "Notifications appended by kind",
	}, []string{"kind"})

	// httpRequestDuration tracks request latency by matched route
	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stackit_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
	}, []string{"method", "route", "status"})
)

func VoteCast(targetKind, outcome string) {
	votesCast.WithLabelValues(targetKind, outcome).Inc()
}

func AnswerAccepted() {
	answersAccepted.Inc()
}

func NotificationCreated(kind string) {
	notificationsCreated.WithLabelValues(kind).Inc()
}

func ObserveRequest(method, route string, status int, elapsed time.Duration) {
	httpRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
