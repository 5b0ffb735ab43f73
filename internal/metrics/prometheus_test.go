package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPrometheusMiddleware(t *testing.T) {
	router := chi.NewRouter()
	router.Use(PrometheusMiddleware)
	router.Get("/api/v1/bookings/{bookingID}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"1", "2", "3"} {
		req, _ := http.NewRequest("GET", "/api/v1/bookings/"+id, nil)
		router.ServeHTTP(httptest.NewRecorder(), req)
	}

	got := testutil.ToFloat64(totalRequests.WithLabelValues("GET", "/api/v1/bookings/{bookingID}", "404"))
	assert.Equal(t, float64(3), got)
}

func TestObserveTransition(t *testing.T) {
	before := testutil.ToFloat64(bookingTransitions.WithLabelValues("check_in", "rejected"))
	ObserveTransition("check_in", "rejected")
	after := testutil.ToFloat64(bookingTransitions.WithLabelValues("check_in", "rejected"))
	assert.Equal(t, before+1, after)
}

func TestObserveGrid(t *testing.T) {
	before := testutil.ToFloat64(gridResults.WithLabelValues("closed"))
	ObserveGrid("closed")
	assert.Equal(t, before+1, testutil.ToFloat64(gridResults.WithLabelValues("closed")))
}
