// Package metrics exposes Prometheus counters for the account lifecycle.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	AuthSuccesses    *prometheus.CounterVec
	AuthFailures     *prometheus.CounterVec
	TokenGenerations *prometheus.CounterVec
	EmailsSent       *prometheus.CounterVec
	EventsPublished  *prometheus.CounterVec
	ErrorsReported   prometheus.Counter
}

// New creates the counters and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AuthSuccesses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "customer_auth_successes_total",
			Help: "Count of successful authentications",
		}, []string{"method"}),
		AuthFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "customer_auth_failures_total",
			Help: "Count of failed authentications",
		}, []string{"method"}),
		TokenGenerations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "customer_token_generations_total",
			Help: "Count of tokens issued",
		}, []string{"kind"}),
		EmailsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "customer_emails_sent_total",
			Help: "Count of emails dispatched",
		}, []string{"template", "result"}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "customer_events_published_total",
			Help: "Count of events published to other services",
		}, []string{"event", "result"}),
		ErrorsReported: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "customer_errors_reported_total",
			Help: "Count of unexpected errors forwarded to error tracking",
		}),
	}
	reg.MustRegister(m.AuthSuccesses, m.AuthFailures, m.TokenGenerations, m.EmailsSent, m.EventsPublished, m.ErrorsReported)
	return m
}

// Nop returns metrics registered on a throwaway registry.
func Nop() *Metrics {
	return New(prometheus.NewRegistry())
}
