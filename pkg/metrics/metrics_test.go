package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRoute(t *testing.T) {
	tests := map[string]string{
		"/api/v1/customers":                        "/api/v1/customers",
		"/api/v1/customers/id/65f0c0ffee/deposits": "/api/v1/customers/id/:id/deposits",
		"/api/v1/bookings/id/abc/confirm-payment":  "/api/v1/bookings/id/:id/confirm-payment",
		"/api/v1/reports/export/revenue":           "/api/v1/reports/export/:type",
		"/health":                                  "/health",
	}
	for in, want := range tests {
		assert.Equal(t, want, Route(in), in)
	}
}

func TestObserveLedger(t *testing.T) {
	m := New()

	m.ObserveLedger("deposit", 1500, nil)
	m.ObserveLedger("deposit", 500, nil)
	m.ObserveLedger("debit", 800, errors.New("insufficient"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ledgerOperations.WithLabelValues("deposit", OutcomeSuccess)))
	assert.Equal(t, 2000.0, testutil.ToFloat64(m.ledgerAmount.WithLabelValues("deposit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ledgerOperations.WithLabelValues("debit", OutcomeError)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ledgerAmount.WithLabelValues("debit")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveLedger("deposit", 1, nil)
	m.ObserveKafka("publish", nil, time.Millisecond)
	m.ObserveReconcileMismatch()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	assert.NotNil(t, m.Middleware(next))
}

func TestMiddleware_RecordsStatus(t *testing.T) {
	m := New()
	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/visits/id/123", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues(http.MethodPost, "/api/v1/visits/id/:id", "409")))
}
