package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordRequest(t *testing.T) {
	before := testutil.ToFloat64(RequestsTotal.WithLabelValues("recommend", OutcomeOK))

	RecordRequest("recommend", OutcomeOK)
	RecordRequest("recommend", OutcomeOK)

	after := testutil.ToFloat64(RequestsTotal.WithLabelValues("recommend", OutcomeOK))
	if after-before != 2 {
		t.Errorf("expected counter to grow by 2, got %v", after-before)
	}
}

func TestRecordIndexBuild(t *testing.T) {
	RecordIndexBuild(250*time.Millisecond, 42)

	if got := testutil.ToFloat64(IndexEntries); got != 42 {
		t.Errorf("IndexEntries = %v, want 42", got)
	}

	SetIndexEntries(3)
	if got := testutil.ToFloat64(IndexEntries); got != 3 {
		t.Errorf("IndexEntries = %v, want 3", got)
	}
}

func TestRecordRetrievalAndGeneration(t *testing.T) {
	RecordRetrieval(2*time.Millisecond, 6)
	RecordGeneration(1500 * time.Millisecond)

	if n := testutil.CollectAndCount(RetrievalDuration); n != 1 {
		t.Errorf("expected one retrieval series, got %d", n)
	}
	if n := testutil.CollectAndCount(GenerationDuration); n != 1 {
		t.Errorf("expected one generation series, got %d", n)
	}
}

func TestHandler(t *testing.T) {
	RecordAPIRequest("GET", "/healthz", "200", time.Millisecond)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	for _, name := range []string{"animerec_api_requests_total", "animerec_index_entries", "go_goroutines"} {
		if !strings.Contains(string(body), name) {
			t.Errorf("metrics output missing %s", name)
		}
	}
}
