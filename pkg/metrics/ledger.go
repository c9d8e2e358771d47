package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// LedgerMetrics records credit ledger and payment settlement activity.
type LedgerMetrics struct {
	debits        *prometheus.CounterVec
	credits       *prometheus.CounterVec
	insufficient  prometheus.Counter
	verifications *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
}

// NewLedgerMetrics registers the ledger metrics on the provided registerer.
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	if reg == nil {
		return &LedgerMetrics{}
	}
	debits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_debits_total",
		Help: "Successful credit debits by context.",
	}, []string{"context"})
	credits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_credits_total",
		Help: "Successful credit additions by reason.",
	}, []string{"reason"})
	insufficient := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledger_insufficient_rejections_total",
		Help: "Debit attempts rejected for insufficient balance.",
	})
	verifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_verifications_total",
		Help: "Payment verification attempts by outcome.",
	}, []string{"outcome"})
	httpDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method", "status"})
	reg.MustRegister(debits, credits, insufficient, verifications, httpDuration)
	return &LedgerMetrics{
		debits:        debits,
		credits:       credits,
		insufficient:  insufficient,
		verifications: verifications,
		httpDuration:  httpDuration,
	}
}

// IncDebit increments the debit counter for the given usage context.
func (m *LedgerMetrics) IncDebit(context string) {
	if m == nil || m.debits == nil {
		return
	}
	m.debits.WithLabelValues(normalizeLabel(context)).Inc()
}

// IncCredit increments the credit counter for the given ledger reason.
func (m *LedgerMetrics) IncCredit(reason string) {
	if m == nil || m.credits == nil {
		return
	}
	m.credits.WithLabelValues(normalizeLabel(reason)).Inc()
}

// IncInsufficient increments the insufficient-balance rejection counter.
func (m *LedgerMetrics) IncInsufficient() {
	if m == nil || m.insufficient == nil {
		return
	}
	m.insufficient.Inc()
}

// IncVerification increments the verification counter for the given outcome.
func (m *LedgerMetrics) IncVerification(outcome string) {
	if m == nil || m.verifications == nil {
		return
	}
	m.verifications.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// ObserveHTTPRequest records the duration of one handled request.
func (m *LedgerMetrics) ObserveHTTPRequest(route, method, status string, seconds float64) {
	if m == nil || m.httpDuration == nil {
		return
	}
	m.httpDuration.WithLabelValues(normalizeLabel(route), normalizeLabel(method), normalizeLabel(status)).Observe(seconds)
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
