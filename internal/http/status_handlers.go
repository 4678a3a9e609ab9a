package http

import (
	"context"
	nethttp "net/http"
	"time"

	csvstore "go-fleet-mx-report-ui/internal/connectors/csvfile"
	metastore "go-fleet-mx-report-ui/internal/connectors/fleetmeta"
	mysqlstore "go-fleet-mx-report-ui/internal/connectors/mysql"
)

func servicesStatusHandler(fileStore *csvstore.Store, dbStore *mysqlstore.Store, meta *metastore.Store) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
		defer cancel()

		payload := map[string]any{
			"generated_at": time.Now().UTC(),
			"services":     map[string]any{},
		}
		services := payload["services"].(map[string]any)

		services["csv"] = csvStatus(fileStore)
		services["mysql"] = mysqlStatus(ctx, dbStore)
		services["meta_sqlite"] = metaStatus(meta)

		writeJSON(w, nethttp.StatusOK, payload)
	}
}

func csvStatus(store *csvstore.Store) map[string]any {
	if store == nil {
		return map[string]any{"enabled": false, "ok": false, "error": "csv record source disabled"}
	}
	return map[string]any{"enabled": true, "ok": true, "stats": store.Status()}
}

func mysqlStatus(ctx context.Context, store *mysqlstore.Store) map[string]any {
	if store == nil {
		return map[string]any{"enabled": false, "ok": false, "error": "database integration disabled"}
	}

	start := time.Now()
	stats, err := store.ServiceStats(ctx)
	recordDBQuery("mysql", "ServiceStats", time.Since(start).Seconds(), err)
	if err != nil {
		return map[string]any{"enabled": true, "ok": false, "error": err.Error()}
	}

	return map[string]any{"enabled": true, "ok": true, "stats": stats}
}

func metaStatus(store *metastore.Store) map[string]any {
	if store == nil {
		return map[string]any{"enabled": false, "ok": false, "error": "meta sqlite store disabled"}
	}
	return map[string]any{"enabled": true, "ok": true, "sqlite_path": store.Path()}
}
