package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Deployment outcomes used as the "outcome" label
const (
	OutcomeDeployed  = "deployed"
	OutcomeCached    = "cached"
	OutcomeDuplicate = "duplicate"
	OutcomeFailed    = "failed"
)

// Orchestrator metrics
var (
	DeploymentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deployd_deployments_total",
			Help: "Deployment attempts by network and outcome",
		},
		[]string{"network", "outcome"},
	)

	DeploymentErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deployd_deployment_errors_total",
			Help: "Failed deployment attempts by error kind",
		},
		[]string{"kind"},
	)

	DeploymentDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "deployd_deployment_duration_seconds",
			Help:    "Time taken by a deployment attempt, from ledger lookup to record",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		},
		[]string{"network"},
	)

	InFlightDeployments = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "deployd_inflight_deployments",
		Help: "Deployment attempts currently running",
	})

	WaitingCallers = promauto.NewCounter(prometheus.CounterOpts{
		Name: "deployd_waiting_callers_total",
		Help: "Callers that joined an in-flight deployment instead of starting one",
	})
)

// HTTP trigger metrics
var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deployd_http_requests_total",
			Help: "HTTP requests by route and status code",
		},
		[]string{"route", "code"},
	)
)
