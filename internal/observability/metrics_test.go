package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	return rr.Body.String()
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/cotacoes/{id}")

	req := httptest.NewRequest(http.MethodGet, "/cotacoes/1", nil)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	req = req.WithContext(ctx)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusTeapot {
		t.Fatalf("expected status %d, got %d", http.StatusTeapot, rr.Code)
	}

	body := scrape(t, metrics)
	if !strings.Contains(body, `cotacao_http_requests_total{code="418",route="/cotacoes/{id}"} 1`) {
		t.Fatalf("expected metrics to record request, got: %s", body)
	}
	if !strings.Contains(body, `cotacao_http_request_duration_seconds_bucket{route="/cotacoes/{id}"`) {
		t.Fatalf("expected duration histogram to be present, got: %s", body)
	}
}

func TestEngineMetrics(t *testing.T) {
	metrics := NewMetrics()
	metrics.ObserveRecompute(2 * time.Millisecond)
	metrics.IncEdit("valor_unitario")
	metrics.IncEdit("valor_unitario")
	metrics.CacheResult(true)
	metrics.CacheResult(false)
	metrics.JobProcessed("cotacao:comparison-warmup", errors.New("boom"))

	body := scrape(t, metrics)
	for _, want := range []string{
		`cotacao_edits_total{kind="valor_unitario"} 2`,
		`cotacao_comparison_cache_total{result="hit"} 1`,
		`cotacao_comparison_cache_total{result="miss"} 1`,
		`cotacao_jobs_total{status="error",task="cotacao:comparison-warmup"} 1`,
		`cotacao_recompute_duration_seconds_count 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in metrics, got: %s", want, body)
		}
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.IncEdit("x")
	m.CacheResult(true)
	m.ObserveRecompute(time.Second)
	m.JobProcessed("x", nil)
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}
