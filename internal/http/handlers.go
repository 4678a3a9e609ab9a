package http

import (
	"errors"
	nethttp "net/http"
	"strconv"
	"time"

	csvstore "go-fleet-mx-report-ui/internal/connectors/csvfile"
	mysqlstore "go-fleet-mx-report-ui/internal/connectors/mysql"
	"go-fleet-mx-report-ui/internal/maintenance"
)

// loadDataset resolves the current dataset or writes the error response.
func loadDataset(w nethttp.ResponseWriter, r *nethttp.Request, source datasetFunc) (maintenance.Dataset, bool) {
	if source == nil {
		writeJSON(w, nethttp.StatusServiceUnavailable, map[string]any{
			"error": "no maintenance record source configured",
		})
		return maintenance.Dataset{}, false
	}

	ds, err := source(r.Context())
	if err != nil {
		var invalid *maintenance.InvalidInputError
		if errors.As(err, &invalid) {
			writeJSON(w, nethttp.StatusUnprocessableEntity, map[string]any{"error": invalid.Error()})
			return maintenance.Dataset{}, false
		}
		writeJSON(w, nethttp.StatusInternalServerError, map[string]any{"error": "failed to load maintenance dataset"})
		return maintenance.Dataset{}, false
	}
	return ds, true
}

func kpisHandler(source datasetFunc) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		ds, ok := loadDataset(w, r, source)
		if !ok {
			return
		}

		start := time.Now()
		kpis := maintenance.TotalKPIs(ds)
		recordAggregation("TotalKPIs", time.Since(start).Seconds())

		writeJSON(w, nethttp.StatusOK, map[string]any{
			"meta": map[string]any{"records": ds.Len()},
			"data": kpis,
		})
	}
}

func componentsHandler(source datasetFunc) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		ds, ok := loadDataset(w, r, source)
		if !ok {
			return
		}

		start := time.Now()
		components := maintenance.Components(ds)
		recordAggregation("Components", time.Since(start).Seconds())

		writeJSON(w, nethttp.StatusOK, map[string]any{
			"meta": map[string]any{"count": len(components)},
			"data": components,
		})
	}
}

func datasetStatusHandler(fileStore *csvstore.Store, dbStore *mysqlstore.Store, sourceName string) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		payload := map[string]any{"source": sourceName}

		switch {
		case dbStore != nil:
			start := time.Now()
			stats, err := dbStore.ServiceStats(r.Context())
			recordDBQuery("mysql", "ServiceStats", time.Since(start).Seconds(), err)
			if err != nil {
				writeJSON(w, nethttp.StatusInternalServerError, map[string]any{"error": "failed to read dataset status"})
				return
			}
			payload["rows"] = stats.RecordsTotal
			payload["components"] = stats.ComponentsTotal
		case fileStore != nil:
			status := fileStore.Status()
			payload["path"] = status.Path
			payload["rows"] = status.Rows
			payload["loaded_at"] = status.LoadedAt
			payload["file_mod_time"] = status.ModTime
		default:
			writeJSON(w, nethttp.StatusServiceUnavailable, map[string]any{
				"error": "no maintenance record source configured",
			})
			return
		}

		writeJSON(w, nethttp.StatusOK, map[string]any{"data": payload})
	}
}

func datasetReloadHandler(fileStore *csvstore.Store) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodPost {
			writeJSON(w, nethttp.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
			return
		}
		if fileStore == nil {
			writeJSON(w, nethttp.StatusServiceUnavailable, map[string]any{
				"error": "dataset reload applies to the csv source only",
			})
			return
		}

		start := time.Now()
		rows, err := fileStore.Reload()
		recordSourceLoad("csv", "Reload", time.Since(start).Seconds(), err)
		if err != nil {
			var invalid *maintenance.InvalidInputError
			if errors.As(err, &invalid) {
				writeJSON(w, nethttp.StatusUnprocessableEntity, map[string]any{"error": invalid.Error()})
				return
			}
			writeJSON(w, nethttp.StatusInternalServerError, map[string]any{"error": "failed to reload dataset"})
			return
		}

		writeJSON(w, nethttp.StatusOK, map[string]any{
			"meta": map[string]any{"reloaded": true},
			"data": map[string]any{"rows": rows},
		})
	}
}

func parseLimit(r *nethttp.Request, defaultLimit int) int {
	limit := defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err == nil && parsed > 0 && parsed <= 1000 {
			limit = parsed
		}
	}
	return limit
}

func parseBins(r *nethttp.Request, defaultBins int) int {
	bins := defaultBins
	if raw := r.URL.Query().Get("bins"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err == nil && parsed > 0 && parsed <= 100 {
			bins = parsed
		}
	}
	return bins
}
