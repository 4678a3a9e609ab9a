package csvfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"go-fleet-mx-report-ui/internal/maintenance"
)

var dateLayouts = []string{"2006-01-02", time.RFC3339}

// Status describes the currently loaded dataset file.
type Status struct {
	Path     string    `json:"path"`
	Rows     int       `json:"rows"`
	LoadedAt time.Time `json:"loaded_at"`
	ModTime  time.Time `json:"mod_time"`
}

// Store loads the maintenance record table from a CSV file and caches the
// parsed dataset, revalidating against the file mtime on access.
type Store struct {
	path string

	mu       sync.Mutex
	dataset  maintenance.Dataset
	loadedAt time.Time
	modTime  time.Time
}

// NewStore opens and parses the dataset file once up front, so a bad file
// fails at startup instead of on the first request.
func NewStore(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("dataset csv path required")
	}

	s := &Store{path: path}
	if _, err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Dataset returns the current immutable dataset, reloading the file first
// if its mtime changed since the last parse.
func (s *Store) Dataset() (maintenance.Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := os.Stat(s.path)
	if err != nil {
		return maintenance.Dataset{}, err
	}
	if !info.ModTime().Equal(s.modTime) {
		if err := s.reloadLocked(); err != nil {
			return maintenance.Dataset{}, err
		}
	}
	return s.dataset, nil
}

// Reload re-parses the file unconditionally and returns the row count.
func (s *Store) Reload() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.reloadLocked(); err != nil {
		return 0, err
	}
	return s.dataset.Len(), nil
}

// Status reports the loaded file for the services status endpoint.
func (s *Store) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		Path:     s.path,
		Rows:     s.dataset.Len(),
		LoadedAt: s.loadedAt,
		ModTime:  s.modTime,
	}
}

func (s *Store) reloadLocked() error {
	f, err := os.Open(s.path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	records, err := ParseRecords(f)
	if err != nil {
		return err
	}

	s.dataset = maintenance.NewDataset(records)
	s.loadedAt = time.Now().UTC()
	s.modTime = info.ModTime()
	return nil
}

// ParseRecords reads and validates the full record table. The header row
// must carry the six required column names; column order is free and
// unknown columns are ignored.
func ParseRecords(r io.Reader) ([]maintenance.Record, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &maintenance.InvalidInputError{Reason: "missing header row"}
	}
	if err != nil {
		return nil, err
	}

	index := map[string]int{}
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, col := range maintenance.Columns() {
		if _, ok := index[col]; !ok {
			return nil, &maintenance.InvalidInputError{Field: col, Reason: "missing column"}
		}
	}

	out := make([]maintenance.Record, 0)
	line := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++

		rec, err := parseRow(row, index, line)
		if err != nil {
			return nil, err
		}
		if err := maintenance.ValidateRecord(rec, line); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func parseRow(row []string, index map[string]int, line int) (maintenance.Record, error) {
	field := func(col string) string {
		i := index[col]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	rec := maintenance.Record{
		ComponentName: field(maintenance.ColComponentName),
		ATAChapter:    field(maintenance.ColATAChapter),
	}

	date, err := parseDate(field(maintenance.ColFailureDate))
	if err != nil {
		return maintenance.Record{}, &maintenance.InvalidInputError{Line: line, Field: maintenance.ColFailureDate, Reason: err.Error()}
	}
	rec.FailureDate = date

	hours, err := strconv.ParseFloat(field(maintenance.ColHoursSinceInstall), 64)
	if err != nil {
		return maintenance.Record{}, &maintenance.InvalidInputError{Line: line, Field: maintenance.ColHoursSinceInstall, Reason: "not a number"}
	}
	rec.HoursSinceInstall = hours

	removal, err := strconv.Atoi(field(maintenance.ColUnscheduledRemoval))
	if err != nil {
		return maintenance.Record{}, &maintenance.InvalidInputError{Line: line, Field: maintenance.ColUnscheduledRemoval, Reason: "not an integer"}
	}
	rec.UnscheduledRemoval = removal

	downtime, err := strconv.ParseFloat(field(maintenance.ColDowntimeHours), 64)
	if err != nil {
		return maintenance.Record{}, &maintenance.InvalidInputError{Line: line, Field: maintenance.ColDowntimeHours, Reason: "not a number"}
	}
	rec.DowntimeHours = downtime

	return rec, nil
}

func parseDate(raw string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", raw)
}
