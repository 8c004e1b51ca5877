package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// StoreMetrics records storefront counters: verification outcomes keep the
// internally-distinct failure reasons that the HTTP surface deliberately
// collapses, and order placements feed the ops dashboard.
type StoreMetrics struct {
	codeRequests  prometheus.Counter
	codeVerify    *prometheus.CounterVec
	ordersPlaced  prometheus.Counter
	mailerFailure *prometheus.CounterVec
}

// NewStoreMetrics registers the storefront metrics on the provided registerer.
func NewStoreMetrics(reg prometheus.Registerer) *StoreMetrics {
	if reg == nil {
		return &StoreMetrics{}
	}
	codeRequests := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "verification_code_requests_total",
		Help: "Verification codes generated and stored.",
	})
	codeVerify := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "verification_code_verify_total",
		Help: "Verification attempts by outcome.",
	}, []string{"outcome"})
	ordersPlaced := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Orders accepted at checkout.",
	})
	mailerFailure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mailer_send_failures_total",
		Help: "Best-effort email deliveries that failed.",
	}, []string{"kind"})
	reg.MustRegister(codeRequests, codeVerify, ordersPlaced, mailerFailure)
	return &StoreMetrics{
		codeRequests:  codeRequests,
		codeVerify:    codeVerify,
		ordersPlaced:  ordersPlaced,
		mailerFailure: mailerFailure,
	}
}

// IncCodeRequested counts a stored verification code.
func (m *StoreMetrics) IncCodeRequested() {
	if m == nil || m.codeRequests == nil {
		return
	}
	m.codeRequests.Inc()
}

// IncCodeVerified counts a verification attempt outcome
// (success, not_found, mismatch, expired).
func (m *StoreMetrics) IncCodeVerified(outcome string) {
	if m == nil || m.codeVerify == nil {
		return
	}
	if outcome == "" {
		outcome = "unknown"
	}
	m.codeVerify.WithLabelValues(outcome).Inc()
}

// IncOrderPlaced counts an accepted checkout.
func (m *StoreMetrics) IncOrderPlaced() {
	if m == nil || m.ordersPlaced == nil {
		return
	}
	m.ordersPlaced.Inc()
}

// IncMailerFailure counts a failed best-effort email send.
func (m *StoreMetrics) IncMailerFailure(kind string) {
	if m == nil || m.mailerFailure == nil {
		return
	}
	if kind == "" {
		kind = "unknown"
	}
	m.mailerFailure.WithLabelValues(kind).Inc()
}
