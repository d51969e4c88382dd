package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestDomainCounters(t *testing.T) {
	m := New("clinic")

	m.Booked()
	m.Booked()
	m.Conflict("book", "precheck")
	m.Transition("accept")
	m.Registered("patient")
	m.LoginFailed()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.AppointmentsBooked))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BookingConflicts.WithLabelValues("book", "precheck")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AppointmentTransitions.WithLabelValues("accept")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Registrations.WithLabelValues("patient")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LoginFailures))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Booked()
		m.Conflict("book", "constraint")
		m.ObserveRequest("GET", "/", "200", 0.1, false)
	})
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New("clinic")
	m.ObserveRequest("GET", "/search", "200", 0.01, false)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "clinic_requests_total")
}
