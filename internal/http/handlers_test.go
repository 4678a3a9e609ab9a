package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-fleet-mx-report-ui/internal/maintenance"
)

func fixtureSource(t *testing.T) datasetFunc {
	t.Helper()

	day := func(s string) time.Time {
		d, err := time.Parse("2006-01-02", s)
		if err != nil {
			t.Fatalf("bad fixture date %q: %v", s, err)
		}
		return d
	}

	ds := maintenance.NewDataset([]maintenance.Record{
		{ComponentName: "Fuel Pump", ATAChapter: "28", FailureDate: day("2024-01-10"), HoursSinceInstall: 150, UnscheduledRemoval: 1, DowntimeHours: 5},
		{ComponentName: "Fuel Pump", ATAChapter: "28", FailureDate: day("2024-03-02"), HoursSinceInstall: 200, UnscheduledRemoval: 0, DowntimeHours: 0},
		{ComponentName: "Hydraulic Actuator", ATAChapter: "29", FailureDate: day("2024-03-15"), HoursSinceInstall: 80, UnscheduledRemoval: 1, DowntimeHours: 3},
	})

	return func(context.Context) (maintenance.Dataset, error) {
		return ds, nil
	}
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return payload
}

func TestKPIsHandler_NoSourceConfigured(t *testing.T) {
	h := kpisHandler(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/kpis", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status %d, got %d", http.StatusServiceUnavailable, rr.Code)
	}
	payload := decodeBody(t, rr)
	if payload["error"] == nil {
		t.Fatalf("expected error field in response")
	}
}

func TestKPIsHandler_ReturnsTotals(t *testing.T) {
	h := kpisHandler(fixtureSource(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/kpis", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	payload := decodeBody(t, rr)
	data, ok := payload["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data object, got %T", payload["data"])
	}
	if got := data["total_removals"].(float64); got != 2 {
		t.Fatalf("expected 2 total removals, got %v", got)
	}
	if got := data["total_components"].(float64); got != 2 {
		t.Fatalf("expected 2 components, got %v", got)
	}
	if got := data["best_component"].(string); got != "Fuel Pump" {
		t.Fatalf("expected best component Fuel Pump, got %q", got)
	}
}

func TestMonthlyRemovalsHandler_ZeroFillDefault(t *testing.T) {
	h := monthlyRemovalsHandler(fixtureSource(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/charts/monthly-removals", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	payload := decodeBody(t, rr)
	data, ok := payload["data"].([]any)
	if !ok {
		t.Fatalf("expected data array, got %T", payload["data"])
	}
	if len(data) != 12 {
		t.Fatalf("expected 12 zero-filled months, got %d", len(data))
	}
	first := data[0].(map[string]any)
	if first["month"] != "Jan" {
		t.Fatalf("expected series to start at Jan, got %v", first["month"])
	}
}

func TestMonthlyRemovalsHandler_ZeroFillDisabled(t *testing.T) {
	h := monthlyRemovalsHandler(fixtureSource(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/charts/monthly-removals?zero_fill=false", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	payload := decodeBody(t, rr)
	data := payload["data"].([]any)
	if len(data) != 2 {
		t.Fatalf("expected 2 observed months, got %d", len(data))
	}
}

func TestATARemovalsHandler_InvalidSortRejected(t *testing.T) {
	h := ataRemovalsHandler(fixtureSource(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/charts/ata-removals?sort=alphabet", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
}

func TestParetoHandler_CumulativeReachesHundred(t *testing.T) {
	h := paretoHandler(fixtureSource(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/charts/pareto", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	payload := decodeBody(t, rr)
	data := payload["data"].([]any)
	if len(data) == 0 {
		t.Fatal("expected pareto rows")
	}
	last := data[len(data)-1].(map[string]any)
	if got := last["cumulative_percent"].(float64); got != 100 {
		t.Fatalf("expected final cumulative percent 100, got %v", got)
	}
}

func TestComponentDetailRouter_InvalidPathReturnsNotFound(t *testing.T) {
	h := componentDetailRouter(fixtureSource(t), 15)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/components/Fuel%20Pump", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rr.Code)
	}
}

func TestComponentDetailRouter_UnknownActionReturnsNotFound(t *testing.T) {
	h := componentDetailRouter(fixtureSource(t), 15)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/components/Fuel%20Pump/unknown", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rr.Code)
	}
}

func TestComponentDetailRouter_DetailForEscapedName(t *testing.T) {
	h := componentDetailRouter(fixtureSource(t), 15)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/components/Fuel%20Pump/detail", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	payload := decodeBody(t, rr)
	data := payload["data"].(map[string]any)
	if data["component"] != "Fuel Pump" {
		t.Fatalf("expected component Fuel Pump, got %v", data["component"])
	}
	if got := data["mtbur"].(float64); got != 350 {
		t.Fatalf("expected mtbur 350, got %v", got)
	}
}

func TestDatasetReloadHandler_MethodNotAllowed(t *testing.T) {
	h := datasetReloadHandler(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dataset/reload", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status %d, got %d", http.StatusMethodNotAllowed, rr.Code)
	}
}

func TestDatasetReloadHandler_CSVSourceOnly(t *testing.T) {
	h := datasetReloadHandler(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/dataset/reload", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status %d, got %d", http.StatusServiceUnavailable, rr.Code)
	}
}

func TestSavedViewsHandler_MetaStoreDisabled(t *testing.T) {
	h := savedViewsHandler(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/views", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status %d, got %d", http.StatusServiceUnavailable, rr.Code)
	}
	payload := decodeBody(t, rr)
	if payload["hint"] == nil {
		t.Fatalf("expected hint field in response")
	}
}

func TestWatchlistDetailRouter_MetaStoreDisabled(t *testing.T) {
	h := watchlistDetailRouter(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/watchlists/hot-swaps", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status %d, got %d", http.StatusServiceUnavailable, rr.Code)
	}
}

func TestNormalizeMetricPath(t *testing.T) {
	cases := map[string]string{
		"/":                                    "/",
		"/metrics":                             "/metrics",
		"/api/v1/kpis":                         "/api/v1/kpis",
		"/api/v1/components/Fuel%20Pump/detail": "/api/v1/components/{name}/detail",
		"/api/v1/components/Fuel%20Pump/trend":  "/api/v1/components/{name}/trend",
		"/api/v1/components/Fuel%20Pump/life":   "/api/v1/components/{name}/life",
		"/api/v1/views/12":                     "/api/v1/views/{id}",
		"/api/v1/watchlists/hot-swaps":         "/api/v1/watchlists/{name}",
	}
	for path, want := range cases {
		if got := normalizeMetricPath(path); got != want {
			t.Fatalf("normalizeMetricPath(%q) = %q, want %q", path, got, want)
		}
	}
}
