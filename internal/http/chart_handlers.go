package http

import (
	nethttp "net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"go-fleet-mx-report-ui/internal/maintenance"
)

func monthlyRemovalsHandler(source datasetFunc) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		ds, ok := loadDataset(w, r, source)
		if !ok {
			return
		}

		component := strings.TrimSpace(r.URL.Query().Get("component"))
		zeroFill := true
		if raw := r.URL.Query().Get("zero_fill"); raw != "" {
			parsed, err := strconv.ParseBool(raw)
			if err == nil {
				zeroFill = parsed
			}
		}

		start := time.Now()
		scope := ds
		if component != "" {
			scope = ds.Filter(component)
		}
		series := maintenance.MonthlyRemovals(scope)
		if zeroFill {
			series = maintenance.ZeroFilled(series)
		}
		recordAggregation("MonthlyRemovals", time.Since(start).Seconds())

		meta := map[string]any{"zero_fill": zeroFill, "count": len(series)}
		if component != "" {
			meta["component"] = component
		}
		writeJSON(w, nethttp.StatusOK, map[string]any{"meta": meta, "data": series})
	}
}

func ataRemovalsHandler(source datasetFunc) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		ds, ok := loadDataset(w, r, source)
		if !ok {
			return
		}

		sortMode := strings.TrimSpace(r.URL.Query().Get("sort"))
		if sortMode == "" {
			sortMode = "chapter"
		}
		if sortMode != "chapter" && sortMode != "count" {
			writeJSON(w, nethttp.StatusBadRequest, map[string]any{"error": "sort must be chapter or count"})
			return
		}

		start := time.Now()
		series := maintenance.ATARemovals(ds)
		if sortMode == "count" {
			sort.SliceStable(series, func(i, j int) bool { return series[i].Removals > series[j].Removals })
		}
		recordAggregation("ATARemovals", time.Since(start).Seconds())

		writeJSON(w, nethttp.StatusOK, map[string]any{
			"meta": map[string]any{"sort": sortMode, "count": len(series)},
			"data": series,
		})
	}
}

func componentDowntimeHandler(source datasetFunc) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		ds, ok := loadDataset(w, r, source)
		if !ok {
			return
		}

		start := time.Now()
		series := maintenance.AverageDowntimeByComponent(ds)
		recordAggregation("AverageDowntimeByComponent", time.Since(start).Seconds())

		writeJSON(w, nethttp.StatusOK, map[string]any{
			"meta": map[string]any{"count": len(series)},
			"data": series,
		})
	}
}

func componentMTBURHandler(source datasetFunc) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		ds, ok := loadDataset(w, r, source)
		if !ok {
			return
		}

		start := time.Now()
		series := maintenance.MTBURByComponent(ds)
		recordAggregation("MTBURByComponent", time.Since(start).Seconds())

		writeJSON(w, nethttp.StatusOK, map[string]any{
			"meta": map[string]any{"count": len(series)},
			"data": series,
		})
	}
}

func paretoHandler(source datasetFunc) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		ds, ok := loadDataset(w, r, source)
		if !ok {
			return
		}

		start := time.Now()
		entries := maintenance.Pareto(ds)
		recordAggregation("Pareto", time.Since(start).Seconds())

		totalRemovals := int64(0)
		for _, e := range entries {
			totalRemovals += e.Removals
		}

		writeJSON(w, nethttp.StatusOK, map[string]any{
			"meta": map[string]any{"count": len(entries), "total_removals": totalRemovals},
			"data": entries,
		})
	}
}

func mtburVsMTTRHandler(source datasetFunc) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		ds, ok := loadDataset(w, r, source)
		if !ok {
			return
		}

		start := time.Now()
		points := maintenance.MTBURvsMTTR(ds)
		recordAggregation("MTBURvsMTTR", time.Since(start).Seconds())

		writeJSON(w, nethttp.StatusOK, map[string]any{
			"meta": map[string]any{"count": len(points)},
			"data": points,
		})
	}
}

func ageByRemovalHandler(source datasetFunc) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		ds, ok := loadDataset(w, r, source)
		if !ok {
			return
		}

		start := time.Now()
		groups := maintenance.AgeByRemovalStatus(ds)
		recordAggregation("AgeByRemovalStatus", time.Since(start).Seconds())

		writeJSON(w, nethttp.StatusOK, map[string]any{
			"meta": map[string]any{"records": ds.Len()},
			"data": groups,
		})
	}
}

func lifeDistributionHandler(source datasetFunc, fleetBins, componentBins int) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		ds, ok := loadDataset(w, r, source)
		if !ok {
			return
		}

		component := strings.TrimSpace(r.URL.Query().Get("component"))
		defaultBins := fleetBins
		scope := ds
		if component != "" {
			defaultBins = componentBins
			scope = ds.Filter(component)
		}
		bins := parseBins(r, defaultBins)

		start := time.Now()
		values := maintenance.LifeDistribution(scope)
		histogram := maintenance.Histogram(values, bins)
		summary := maintenance.Summarize(values)
		recordAggregation("LifeDistribution", time.Since(start).Seconds())

		meta := map[string]any{"bins": bins, "values": len(values)}
		if component != "" {
			meta["component"] = component
		}
		writeJSON(w, nethttp.StatusOK, map[string]any{
			"meta": meta,
			"data": map[string]any{
				"histogram": histogram,
				"summary":   summary,
			},
		})
	}
}

func reliabilityTrendHandler(source datasetFunc, defaultComponents int) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		ds, ok := loadDataset(w, r, source)
		if !ok {
			return
		}

		var selected []string
		if raw := strings.TrimSpace(r.URL.Query().Get("components")); raw != "" {
			for _, part := range strings.Split(raw, ",") {
				part = strings.TrimSpace(part)
				if part != "" {
					selected = append(selected, part)
				}
			}
		} else {
			all := maintenance.Components(ds)
			if len(all) > defaultComponents {
				all = all[:defaultComponents]
			}
			selected = all
		}

		start := time.Now()
		// One independent series per component; never merged.
		series := make(map[string][]maintenance.MonthCount, len(selected))
		for _, component := range selected {
			series[component] = maintenance.ZeroFilled(maintenance.ReliabilityTrend(ds, component))
		}
		recordAggregation("ReliabilityTrend", time.Since(start).Seconds())

		writeJSON(w, nethttp.StatusOK, map[string]any{
			"meta": map[string]any{"components": selected, "count": len(series)},
			"data": series,
		})
	}
}
