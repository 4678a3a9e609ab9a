package http

import (
	nethttp "net/http"

	"go-fleet-mx-report-ui/internal/config"
)

func displaySettingsHandler(cfg config.Config) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, _ *nethttp.Request) {
		writeJSON(w, nethttp.StatusOK, map[string]any{
			"data": map[string]any{
				"fleet_histogram_bins":     cfg.FleetHistogramBins,
				"component_histogram_bins": cfg.ComponentHistogramBins,
				"default_trend_components": cfg.DefaultTrendComponents,
			},
		})
	}
}
