package telemetry

import "github.com/prometheus/client_golang/prometheus"

// HTTPRequestDuration records request latency for every handled HTTP request.
var HTTPRequestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "fraudguard",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.2, 0.5, 1, 2.5},
	},
	[]string{"method", "path", "status"},
)

// FraudRuleTriggeredTotal counts how often each fraud rule contributes points.
var FraudRuleTriggeredTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "fraudguard",
		Subsystem: "fraud",
		Name:      "rule_triggered_total",
		Help:      "Total number of times a fraud rule contributed points to a score.",
	},
	[]string{"rule"},
)

// FraudRuleErrorTotal counts rule evaluations that failed open due to an
// infrastructure error.
var FraudRuleErrorTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "fraudguard",
		Subsystem: "fraud",
		Name:      "rule_error_total",
		Help:      "Total number of fraud rule evaluations that failed open.",
	},
	[]string{"rule"},
)

// FraudRuleTimeoutTotal counts rule evaluations that missed the scoring deadline.
var FraudRuleTimeoutTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "fraudguard",
		Subsystem: "fraud",
		Name:      "rule_timeout_total",
		Help:      "Total number of fraud rule evaluations that missed the scoring deadline.",
	},
	[]string{"rule"},
)

// FraudDecisionsTotal counts final decisions by outcome.
var FraudDecisionsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "fraudguard",
		Subsystem: "fraud",
		Name:      "decisions_total",
		Help:      "Total number of fraud decisions by outcome.",
	},
	[]string{"decision"},
)

// FraudVendorRiskDecisionsTotal counts decisions by the requesting vendor's
// registry risk bucket, giving visibility into whether high-risk vendors
// skew toward REVIEW/BLOCK independent of the per-request rule score.
var FraudVendorRiskDecisionsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "fraudguard",
		Subsystem: "fraud",
		Name:      "vendor_risk_decisions_total",
		Help:      "Total number of fraud decisions by vendor risk bucket.",
	},
	[]string{"risk_bucket", "decision"},
)

// FraudScoreDuration records the wall-clock time spent inside the rule fan-out/join.
var FraudScoreDuration = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: "fraudguard",
		Subsystem: "fraud",
		Name:      "score_duration_seconds",
		Help:      "Time spent evaluating fraud rules for a single request.",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.075, 0.1, 0.15, 0.2, 0.5},
	},
)

// AuthLoginsTotal counts login attempts by result.
var AuthLoginsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "fraudguard",
		Subsystem: "auth",
		Name:      "logins_total",
		Help:      "Total number of login attempts by result.",
	},
	[]string{"result"},
)

// TokenValidationsTotal counts token validation outcomes.
var TokenValidationsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "fraudguard",
		Subsystem: "auth",
		Name:      "token_validations_total",
		Help:      "Total number of token validations by outcome.",
	},
	[]string{"outcome"},
)

// All returns every fraudguard metric collector for registration.
func All() []prometheus.Collector {
	return []prometheus.Collector{
		HTTPRequestDuration,
		FraudRuleTriggeredTotal,
		FraudRuleErrorTotal,
		FraudRuleTimeoutTotal,
		FraudDecisionsTotal,
		FraudVendorRiskDecisionsTotal,
		FraudScoreDuration,
		AuthLoginsTotal,
		TokenValidationsTotal,
	}
}
