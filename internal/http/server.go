package http

import (
	"context"
	"encoding/json"
	nethttp "net/http"
	"time"

	"github.com/sirupsen/logrus"

	"go-fleet-mx-report-ui/internal/config"
	csvstore "go-fleet-mx-report-ui/internal/connectors/csvfile"
	metastore "go-fleet-mx-report-ui/internal/connectors/fleetmeta"
	mysqlstore "go-fleet-mx-report-ui/internal/connectors/mysql"
	"go-fleet-mx-report-ui/internal/maintenance"
)

// datasetFunc returns the current immutable record dataset. Every handler
// recomputes its aggregates from this snapshot; nothing is cached between
// requests.
type datasetFunc func(ctx context.Context) (maintenance.Dataset, error)

// Server wraps an HTTP server and route handlers.
type Server struct {
	httpServer *nethttp.Server
	csvStore   *csvstore.Store
	dbStore    *mysqlstore.Store
	metaStore  *metastore.Store
	log        *logrus.Logger
}

// NewServer creates a configured HTTP server with v1 endpoints.
func NewServer(cfg config.Config, log *logrus.Logger) (*Server, error) {
	var dbStore *mysqlstore.Store
	if cfg.DBEnabled {
		createdStore, err := mysqlstore.NewStore(cfg)
		if err != nil {
			return nil, err
		}
		dbStore = createdStore
	}

	var fileStore *csvstore.Store
	if dbStore == nil {
		createdStore, err := csvstore.NewStore(cfg.DatasetCSVPath)
		if err != nil {
			return nil, err
		}
		fileStore = createdStore
	}

	var meta *metastore.Store
	if cfg.MetaSQLitePath != "" {
		createdStore, err := metastore.NewSQLiteStore(cfg.MetaSQLitePath)
		if err != nil {
			return nil, err
		}
		meta = createdStore
	}

	source, sourceName := datasetSource(fileStore, dbStore)

	mux := nethttp.NewServeMux()

	mux.HandleFunc("/", dashboardHandler)
	mux.HandleFunc("/favicon.ico", faviconHandler)
	mux.Handle("/metrics", metricsHandler())
	mux.HandleFunc("/api/v1/metrics/app", appMetricsSummaryHandler())
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/ready", readyHandler)

	mux.HandleFunc("/api/v1/kpis", kpisHandler(source))
	mux.HandleFunc("/api/v1/components", componentsHandler(source))
	mux.HandleFunc("/api/v1/components/", componentDetailRouter(source, cfg.ComponentHistogramBins))
	mux.HandleFunc("/api/v1/charts/monthly-removals", monthlyRemovalsHandler(source))
	mux.HandleFunc("/api/v1/charts/ata-removals", ataRemovalsHandler(source))
	mux.HandleFunc("/api/v1/charts/component-downtime", componentDowntimeHandler(source))
	mux.HandleFunc("/api/v1/charts/component-mtbur", componentMTBURHandler(source))
	mux.HandleFunc("/api/v1/charts/pareto", paretoHandler(source))
	mux.HandleFunc("/api/v1/charts/mtbur-vs-mttr", mtburVsMTTRHandler(source))
	mux.HandleFunc("/api/v1/charts/age-by-removal", ageByRemovalHandler(source))
	mux.HandleFunc("/api/v1/charts/life-distribution", lifeDistributionHandler(source, cfg.FleetHistogramBins, cfg.ComponentHistogramBins))
	mux.HandleFunc("/api/v1/charts/reliability-trend", reliabilityTrendHandler(source, cfg.DefaultTrendComponents))
	mux.HandleFunc("/api/v1/dataset/status", datasetStatusHandler(fileStore, dbStore, sourceName))
	mux.HandleFunc("/api/v1/dataset/reload", datasetReloadHandler(fileStore))
	mux.HandleFunc("/api/v1/status/services", servicesStatusHandler(fileStore, dbStore, meta))
	mux.HandleFunc("/api/v1/settings/display", displaySettingsHandler(cfg))
	mux.HandleFunc("/api/v1/views", savedViewsHandler(meta))
	mux.HandleFunc("/api/v1/views/", savedViewDetailRouter(meta))
	mux.HandleFunc("/api/v1/watchlists", watchlistsHandler(meta))
	mux.HandleFunc("/api/v1/watchlists/", watchlistDetailRouter(meta))

	httpServer := &nethttp.Server{
		Addr:         cfg.ListenAddr,
		Handler:      requestIDMiddleware(loggingMiddleware(log, observabilityMiddleware(mux))),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &Server{
		httpServer: httpServer,
		csvStore:   fileStore,
		dbStore:    dbStore,
		metaStore:  meta,
		log:        log,
	}, nil
}

// datasetSource prefers the database source when configured, falling back
// to the CSV file.
func datasetSource(fileStore *csvstore.Store, dbStore *mysqlstore.Store) (datasetFunc, string) {
	if dbStore != nil {
		return func(ctx context.Context) (maintenance.Dataset, error) {
			start := time.Now()
			records, err := dbStore.ListRecords(ctx)
			recordSourceLoad("mysql", "ListRecords", time.Since(start).Seconds(), err)
			if err != nil {
				return maintenance.Dataset{}, err
			}
			return maintenance.NewDataset(records), nil
		}, "mysql"
	}
	if fileStore != nil {
		return func(ctx context.Context) (maintenance.Dataset, error) {
			start := time.Now()
			ds, err := fileStore.Dataset()
			recordSourceLoad("csv", "Dataset", time.Since(start).Seconds(), err)
			return ds, err
		}, "csv"
	}
	return nil, ""
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.dbStore != nil {
		_ = s.dbStore.Close()
	}
	if s.metaStore != nil {
		_ = s.metaStore.Close()
	}
	return s.httpServer.Shutdown(ctx)
}

func healthHandler(w nethttp.ResponseWriter, _ *nethttp.Request) {
	writeJSON(w, nethttp.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC(),
	})
}

func readyHandler(w nethttp.ResponseWriter, _ *nethttp.Request) {
	writeJSON(w, nethttp.StatusOK, map[string]any{
		"status": "ready",
	})
}

func writeJSON(w nethttp.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}
