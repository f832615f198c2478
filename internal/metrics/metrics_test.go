package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestCollector_RecordsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordLogin("credentials")
	c.RecordLogin("credentials")
	c.RecordLogin("google")
	c.RecordLoginFailure("credentials")
	c.RecordRegistration()
	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(404)
	c.RecordRequestLatency("/api/locations", 120*time.Millisecond)
	c.RecordDBQueryLatency(5 * time.Millisecond)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	found := map[string]bool{}
	for _, f := range families {
		found[f.GetName()] = true
	}

	for _, name := range []string{
		"atlas_login_total",
		"atlas_login_failure_total",
		"atlas_registration_total",
		"atlas_http_status_total",
		"atlas_request_latency_seconds",
		"atlas_db_query_latency_seconds",
	} {
		if !found[name] {
			t.Errorf("metric %s should be registered and populated", name)
		}
	}
}

func TestHandler_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordLogin("credentials")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	Handler(reg).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "atlas_login_total") {
		t.Error("scrape output should contain atlas_login_total")
	}
}
