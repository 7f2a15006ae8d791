package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddlewareLabelsByRouteTemplate(t *testing.T) {
	r := mux.NewRouter()
	r.Use(Middleware)
	r.HandleFunc("/api/users/{id}/rooms", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}).Methods("GET")

	before := testutil.ToFloat64(httpRequests.WithLabelValues("/api/users/{id}/rooms", "GET", "418"))

	for _, id := range []string{"a", "b"} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/users/"+id+"/rooms", nil))
		assert.Equal(t, http.StatusTeapot, rr.Code)
	}

	after := testutil.ToFloat64(httpRequests.WithLabelValues("/api/users/{id}/rooms", "GET", "418"))
	assert.Equal(t, 2.0, after-before)
}

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(bookingConflicts)
	IncBookingConflict()
	assert.Equal(t, 1.0, testutil.ToFloat64(bookingConflicts)-before)

	AddAvitoSyncBookings(2, 1, 0)
	assert.GreaterOrEqual(t, testutil.ToFloat64(avitoSyncBookings.WithLabelValues("inserted")), 2.0)

	PresenceConnected()
	PresenceDisconnected()
}

func TestRegisterIsIdempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		Register()
		Register()
	})
}
