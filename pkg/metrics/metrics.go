package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RequestsAuthenticated = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "hubauth", Name: "requests_authenticated_total", Help: "Outgoing requests by credential source (backend, provider, none)."},
		[]string{"source"},
	)
	UnauthorizedSignals = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "hubauth", Name: "unauthorized_signals_total", Help: "Number of 401 responses observed on outgoing requests."},
	)
	Renewals = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "hubauth", Name: "renewals_total", Help: "Silent renewal attempts by result (ok, failed, skipped)."},
		[]string{"result"},
	)
	Exchanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "hubauth", Name: "exchanges_total", Help: "Identity-token exchange attempts by result (ok, fallback)."},
		[]string{"result"},
	)
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "hubauth", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "hubauth", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RequestsAuthenticated)
	reg.MustRegister(UnauthorizedSignals)
	reg.MustRegister(Renewals)
	reg.MustRegister(Exchanges)
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
}
