package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Collectors are created once per process, so every test registers on the
// same registry.
var testRegistry = prometheus.NewRegistry()

func TestRegister_ServesDomainCounters(t *testing.T) {
	// GIVEN: Collectors registered on a private registry
	handler, err := Register(testRegistry)
	require.NoError(t, err)

	// WHEN: Recording domain events
	before := testutil.ToFloat64(leaseTransitionsTotal.WithLabelValues("DRAFT", "ACTIVE"))
	LeaseTransition("DRAFT", "ACTIVE")
	RentChanged("add")
	RentAdjusted("RENT")
	AlertsComputed("INDEXATION", 2)
	AlertsComputed("END_NOTICE", 0)

	// THEN: Counters move and the handler exposes them
	assert.Equal(t, before+1, testutil.ToFloat64(leaseTransitionsTotal.WithLabelValues("DRAFT", "ACTIVE")))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	assert.Contains(t, body, "immocare_rent_changes_total")
	assert.Contains(t, body, `immocare_alerts_computed_total{type="INDEXATION"}`)
	assert.False(t, strings.Contains(body, `type="END_NOTICE"`), "zero counts are not recorded")
}

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	_, err := Register(testRegistry)
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/leases/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/leases/{id}", "404"))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/leases/abc", nil))

	assert.Equal(t, before+1, testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/leases/{id}", "404")))
}
