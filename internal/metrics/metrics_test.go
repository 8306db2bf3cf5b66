package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordSync_TogglesPending(t *testing.T) {
	RecordSync(errors.New("github down"), 10*time.Millisecond)
	assert.Equal(t, float64(1), testutil.ToFloat64(syncPending))

	RecordSync(nil, 10*time.Millisecond)
	assert.Equal(t, float64(0), testutil.ToFloat64(syncPending))
}

func TestRecordPromotions_IgnoresZero(t *testing.T) {
	before := testutil.ToFloat64(promotionsTotal.WithLabelValues("window"))
	RecordPromotions("window", 0)
	RecordPromotions("window", 2)
	assert.Equal(t, before+2, testutil.ToFloat64(promotionsTotal.WithLabelValues("window")))
}

func TestBusinessCounters(t *testing.T) {
	before := testutil.ToFloat64(registrationsTotal.WithLabelValues("waitlisted"))
	RecordRegistration("waitlisted")
	RecordUnregistration()
	RecordCatalogOp("attach")
	RecordBGG("thing", "cache")
	assert.Equal(t, before+1, testutil.ToFloat64(registrationsTotal.WithLabelValues("waitlisted")))
}

func TestMiddleware_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/events/{eventID}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/events/{eventID}", "418"))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/events/42", nil))
	assert.Equal(t, before+1, testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/events/{eventID}", "418")))
}

func TestHandler_ExposesMetrics(t *testing.T) {
	RecordUnregistration()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "club_service_unregistrations_total"))
}
