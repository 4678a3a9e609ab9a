package http

import (
	nethttp "net/http"
	"net/url"
	"strings"
	"time"

	"go-fleet-mx-report-ui/internal/maintenance"
)

// componentDetailRouter serves /api/v1/components/{name}/{action} where
// action is one of detail, trend, life. Component names may be URL-escaped.
func componentDetailRouter(source datasetFunc, histogramBins int) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		trimmed := strings.TrimPrefix(r.URL.Path, "/api/v1/components/")
		parts := strings.Split(strings.Trim(trimmed, "/"), "/")
		if len(parts) != 2 || parts[0] == "" {
			writeJSON(w, nethttp.StatusNotFound, map[string]any{"error": "not found"})
			return
		}

		name, err := url.PathUnescape(parts[0])
		if err != nil || strings.TrimSpace(name) == "" {
			writeJSON(w, nethttp.StatusBadRequest, map[string]any{"error": "invalid component name"})
			return
		}
		action := parts[1]

		ds, ok := loadDataset(w, r, source)
		if !ok {
			return
		}

		switch action {
		case "detail":
			start := time.Now()
			detail := maintenance.ComponentDetail(ds, name)
			recordAggregation("ComponentDetail", time.Since(start).Seconds())

			writeJSON(w, nethttp.StatusOK, map[string]any{
				"meta": map[string]any{"component": name, "records": len(detail.LifeHours)},
				"data": detail,
			})
		case "trend":
			start := time.Now()
			series := maintenance.ZeroFilled(maintenance.ReliabilityTrend(ds, name))
			recordAggregation("ReliabilityTrend", time.Since(start).Seconds())

			writeJSON(w, nethttp.StatusOK, map[string]any{
				"meta": map[string]any{"component": name, "count": len(series)},
				"data": series,
			})
		case "life":
			bins := parseBins(r, histogramBins)

			start := time.Now()
			values := maintenance.LifeDistribution(ds.Filter(name))
			histogram := maintenance.Histogram(values, bins)
			summary := maintenance.Summarize(values)
			recordAggregation("LifeDistribution", time.Since(start).Seconds())

			writeJSON(w, nethttp.StatusOK, map[string]any{
				"meta": map[string]any{"component": name, "bins": bins, "values": len(values)},
				"data": map[string]any{
					"histogram": histogram,
					"summary":   summary,
				},
			})
		default:
			writeJSON(w, nethttp.StatusNotFound, map[string]any{"error": "not found"})
		}
	}
}
