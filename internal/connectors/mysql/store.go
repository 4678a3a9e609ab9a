package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"go-fleet-mx-report-ui/internal/config"
	"go-fleet-mx-report-ui/internal/maintenance"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Store reads the maintenance record table from MySQL.
type Store struct {
	db           *sql.DB
	queryTimeout time.Duration
	table        string
}

// NewStore creates a MySQL-backed record source.
func NewStore(cfg config.Config) (*Store, error) {
	if !tableNamePattern.MatchString(cfg.DBTable) {
		return nil, fmt.Errorf("invalid table name: %q", cfg.DBTable)
	}

	db, err := sql.Open("mysql", cfg.MySQLDSN())
	if err != nil {
		return nil, err
	}

	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DBConnTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{
		db:           db,
		queryTimeout: cfg.DBQueryTimeout,
		table:        cfg.DBTable,
	}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// ListRecords loads and validates the full record table. Rows violating
// the input contract fail the whole load; the aggregator never sees a
// partially valid dataset.
func (s *Store) ListRecords(ctx context.Context) ([]maintenance.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	q := fmt.Sprintf(`
SELECT
  component_name,
  ata_chapter,
  failure_date,
  hours_since_install,
  unscheduled_removal,
  downtime_hours
FROM %s
ORDER BY failure_date, component_name;
`, s.table)

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]maintenance.Record, 0)
	line := 0
	for rows.Next() {
		line++
		var (
			rec      maintenance.Record
			date     sql.NullTime
			hours    sql.NullFloat64
			removal  sql.NullInt64
			downtime sql.NullFloat64
		)
		if err := rows.Scan(&rec.ComponentName, &rec.ATAChapter, &date, &hours, &removal, &downtime); err != nil {
			return nil, err
		}
		if date.Valid {
			rec.FailureDate = date.Time.UTC()
		}
		rec.HoursSinceInstall = hours.Float64
		rec.UnscheduledRemoval = int(removal.Int64)
		rec.DowntimeHours = downtime.Float64

		if err := maintenance.ValidateRecord(rec, line); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}
