package http

import (
	"encoding/json"
	nethttp "net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	metastore "go-fleet-mx-report-ui/internal/connectors/fleetmeta"
)

const defaultMetaListLimit = 100

type saveViewRequest struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Config      map[string]any `json:"config"`
}

type replaceWatchlistRequest struct {
	Components []string `json:"components"`
}

func metaUnavailable(w nethttp.ResponseWriter) {
	writeJSON(w, nethttp.StatusServiceUnavailable, map[string]any{
		"error": "meta sqlite store not available",
		"hint":  "set APP_META_SQLITE_PATH to enable saved views and watchlists",
	})
}

func savedViewsHandler(store *metastore.Store) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if store == nil {
			metaUnavailable(w)
			return
		}

		switch r.Method {
		case nethttp.MethodGet:
			limit := parseLimit(r, defaultMetaListLimit)
			start := time.Now()
			items, err := store.ListSavedViews(r.Context(), limit)
			recordDBQuery("metasqlite", "ListSavedViews", time.Since(start).Seconds(), err)
			if err != nil {
				writeJSON(w, nethttp.StatusInternalServerError, map[string]any{"error": "failed to list saved views"})
				return
			}
			writeJSON(w, nethttp.StatusOK, map[string]any{
				"meta": map[string]any{"count": len(items), "limit": limit},
				"data": items,
			})
		case nethttp.MethodPost:
			var req saveViewRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeJSON(w, nethttp.StatusBadRequest, map[string]any{"error": "invalid JSON body"})
				return
			}
			req.Name = strings.TrimSpace(req.Name)
			if req.Name == "" {
				writeJSON(w, nethttp.StatusBadRequest, map[string]any{"error": "view name is required"})
				return
			}
			if req.Config == nil {
				req.Config = map[string]any{}
			}
			configJSON, err := json.Marshal(req.Config)
			if err != nil {
				writeJSON(w, nethttp.StatusBadRequest, map[string]any{"error": "invalid view config"})
				return
			}

			startUpsert := time.Now()
			id, err := store.UpsertSavedView(r.Context(), req.Name, req.Description, string(configJSON))
			recordDBQuery("metasqlite", "UpsertSavedView", time.Since(startUpsert).Seconds(), err)
			if err != nil {
				writeJSON(w, nethttp.StatusBadRequest, map[string]any{"error": err.Error()})
				return
			}

			startGet := time.Now()
			item, err := store.GetSavedView(r.Context(), id)
			recordDBQuery("metasqlite", "GetSavedView", time.Since(startGet).Seconds(), err)
			if err != nil {
				writeJSON(w, nethttp.StatusInternalServerError, map[string]any{"error": "view saved but failed to read it back"})
				return
			}
			writeJSON(w, nethttp.StatusOK, map[string]any{
				"meta": map[string]any{"saved": true},
				"data": item,
			})
		default:
			writeJSON(w, nethttp.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		}
	}
}

func savedViewDetailRouter(store *metastore.Store) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if store == nil {
			metaUnavailable(w)
			return
		}

		idRaw := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/views/"), "/")
		id, err := strconv.ParseInt(idRaw, 10, 64)
		if err != nil || id <= 0 {
			writeJSON(w, nethttp.StatusBadRequest, map[string]any{"error": "invalid view id"})
			return
		}

		switch r.Method {
		case nethttp.MethodGet:
			start := time.Now()
			item, err := store.GetSavedView(r.Context(), id)
			recordDBQuery("metasqlite", "GetSavedView", time.Since(start).Seconds(), err)
			if err != nil {
				writeJSON(w, nethttp.StatusNotFound, map[string]any{"error": "view not found"})
				return
			}
			writeJSON(w, nethttp.StatusOK, map[string]any{"data": item})
		case nethttp.MethodDelete:
			start := time.Now()
			deleted, err := store.DeleteSavedView(r.Context(), id)
			recordDBQuery("metasqlite", "DeleteSavedView", time.Since(start).Seconds(), err)
			if err != nil {
				writeJSON(w, nethttp.StatusInternalServerError, map[string]any{"error": "failed to delete view"})
				return
			}
			writeJSON(w, nethttp.StatusOK, map[string]any{
				"meta": map[string]any{"deleted": deleted, "id": id},
			})
		default:
			writeJSON(w, nethttp.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		}
	}
}

func watchlistsHandler(store *metastore.Store) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if store == nil {
			metaUnavailable(w)
			return
		}
		if r.Method != nethttp.MethodGet {
			writeJSON(w, nethttp.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
			return
		}

		limit := parseLimit(r, defaultMetaListLimit)
		start := time.Now()
		items, err := store.ListWatchlists(r.Context(), limit)
		recordDBQuery("metasqlite", "ListWatchlists", time.Since(start).Seconds(), err)
		if err != nil {
			writeJSON(w, nethttp.StatusInternalServerError, map[string]any{"error": "failed to list watchlists"})
			return
		}
		writeJSON(w, nethttp.StatusOK, map[string]any{
			"meta": map[string]any{"count": len(items), "limit": limit},
			"data": items,
		})
	}
}

func watchlistDetailRouter(store *metastore.Store) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if store == nil {
			metaUnavailable(w)
			return
		}

		raw := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/watchlists/"), "/")
		name, err := url.PathUnescape(raw)
		if err != nil || strings.TrimSpace(name) == "" {
			writeJSON(w, nethttp.StatusBadRequest, map[string]any{"error": "watchlist name path parameter is required"})
			return
		}

		switch r.Method {
		case nethttp.MethodGet:
			start := time.Now()
			components, err := store.ComponentsForWatchlist(r.Context(), name)
			recordDBQuery("metasqlite", "ComponentsForWatchlist", time.Since(start).Seconds(), err)
			if err != nil {
				writeJSON(w, nethttp.StatusInternalServerError, map[string]any{"error": "failed to fetch watchlist"})
				return
			}
			writeJSON(w, nethttp.StatusOK, map[string]any{
				"meta": map[string]any{"watchlist": name, "count": len(components)},
				"data": components,
			})
		case nethttp.MethodPut:
			var req replaceWatchlistRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeJSON(w, nethttp.StatusBadRequest, map[string]any{"error": "invalid JSON body"})
				return
			}
			start := time.Now()
			count, err := store.ReplaceWatchlist(r.Context(), name, req.Components)
			recordDBQuery("metasqlite", "ReplaceWatchlist", time.Since(start).Seconds(), err)
			if err != nil {
				writeJSON(w, nethttp.StatusBadRequest, map[string]any{"error": err.Error()})
				return
			}
			writeJSON(w, nethttp.StatusOK, map[string]any{
				"meta": map[string]any{"watchlist": name, "count": count},
			})
		case nethttp.MethodDelete:
			start := time.Now()
			deleted, err := store.DeleteWatchlist(r.Context(), name)
			recordDBQuery("metasqlite", "DeleteWatchlist", time.Since(start).Seconds(), err)
			if err != nil {
				writeJSON(w, nethttp.StatusInternalServerError, map[string]any{"error": "failed to delete watchlist"})
				return
			}
			writeJSON(w, nethttp.StatusOK, map[string]any{
				"meta": map[string]any{"watchlist": name, "deleted": deleted},
			})
		default:
			writeJSON(w, nethttp.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		}
	}
}
