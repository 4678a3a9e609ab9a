package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// ServiceStats contains lightweight DB health and volume counters.
type ServiceStats struct {
	PingMS          int64 `json:"ping_ms"`
	UptimeSeconds   int64 `json:"uptime_seconds"`
	RecordsTotal    int64 `json:"records_total"`
	RemovalsTotal   int64 `json:"removals_total"`
	ComponentsTotal int64 `json:"components_total"`
}

// ServiceStats returns MySQL health and high-level record counters.
func (s *Store) ServiceStats(ctx context.Context) (*ServiceStats, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	start := time.Now()
	if err := s.db.PingContext(ctx); err != nil {
		return nil, err
	}

	out := &ServiceStats{
		PingMS: time.Since(start).Milliseconds(),
	}

	var statusName string
	var statusValue sql.NullString
	if err := s.db.QueryRowContext(ctx, `SHOW GLOBAL STATUS LIKE 'Uptime';`).Scan(&statusName, &statusValue); err == nil && statusValue.Valid {
		if v, err := time.ParseDuration(statusValue.String + "s"); err == nil {
			out.UptimeSeconds = int64(v.Seconds())
		}
	}

	if err := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s;`, s.table)).Scan(&out.RecordsTotal); err != nil {
		return nil, err
	}

	var removals sql.NullInt64
	if err := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COALESCE(SUM(unscheduled_removal), 0) FROM %s;`, s.table)).Scan(&removals); err != nil {
		return nil, err
	}
	out.RemovalsTotal = removals.Int64

	if err := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(DISTINCT component_name) FROM %s;`, s.table)).Scan(&out.ComponentsTotal); err != nil {
		return nil, err
	}

	return out, nil
}
