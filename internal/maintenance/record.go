package maintenance

import (
	"fmt"
	"time"
)

// Column names of the maintenance record table. Loaders validate input
// against these exact names; the aggregator assumes they were honored.
const (
	ColComponentName      = "component_name"
	ColATAChapter         = "ata_chapter"
	ColFailureDate        = "failure_date"
	ColHoursSinceInstall  = "hours_since_install"
	ColUnscheduledRemoval = "unscheduled_removal"
	ColDowntimeHours      = "downtime_hours"
)

// Columns returns the required column names in canonical order.
func Columns() []string {
	return []string{
		ColComponentName,
		ColATAChapter,
		ColFailureDate,
		ColHoursSinceInstall,
		ColUnscheduledRemoval,
		ColDowntimeHours,
	}
}

// Record is one maintenance observation for an installed component instance.
type Record struct {
	ComponentName      string    `json:"component_name"`
	ATAChapter         string    `json:"ata_chapter"`
	FailureDate        time.Time `json:"failure_date"`
	HoursSinceInstall  float64   `json:"hours_since_install"`
	UnscheduledRemoval int       `json:"unscheduled_removal"`
	DowntimeHours      float64   `json:"downtime_hours"`
}

// InvalidInputError describes a record or table that violates the input
// contract. Loaders return it; aggregation never does.
type InvalidInputError struct {
	Line   int // 1-based data row, 0 when not row-specific
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	if e.Line > 0 && e.Field != "" {
		return fmt.Sprintf("invalid maintenance input at row %d, field %s: %s", e.Line, e.Field, e.Reason)
	}
	if e.Field != "" {
		return fmt.Sprintf("invalid maintenance input, field %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid maintenance input: %s", e.Reason)
}

// ValidateRecord checks one parsed record against the input contract.
// line is used for error reporting only.
func ValidateRecord(r Record, line int) error {
	if r.ComponentName == "" {
		return &InvalidInputError{Line: line, Field: ColComponentName, Reason: "empty component name"}
	}
	if r.ATAChapter == "" {
		return &InvalidInputError{Line: line, Field: ColATAChapter, Reason: "empty ATA chapter"}
	}
	if r.FailureDate.IsZero() {
		return &InvalidInputError{Line: line, Field: ColFailureDate, Reason: "missing failure date"}
	}
	if r.HoursSinceInstall < 0 {
		return &InvalidInputError{Line: line, Field: ColHoursSinceInstall, Reason: "negative hours"}
	}
	if r.UnscheduledRemoval != 0 && r.UnscheduledRemoval != 1 {
		return &InvalidInputError{Line: line, Field: ColUnscheduledRemoval, Reason: "removal flag must be 0 or 1"}
	}
	if r.DowntimeHours < 0 {
		return &InvalidInputError{Line: line, Field: ColDowntimeHours, Reason: "negative downtime"}
	}
	return nil
}

// Dataset is an immutable snapshot of the record table. All aggregation is
// a pure function of a Dataset; no operation mutates it.
type Dataset struct {
	records []Record
}

// NewDataset copies records into an immutable dataset.
func NewDataset(records []Record) Dataset {
	out := make([]Record, len(records))
	copy(out, records)
	return Dataset{records: out}
}

// Len returns the number of records.
func (ds Dataset) Len() int {
	return len(ds.records)
}

// Filter returns the subset of records matching one component name.
func (ds Dataset) Filter(componentName string) Dataset {
	out := make([]Record, 0)
	for _, r := range ds.records {
		if r.ComponentName == componentName {
			out = append(out, r)
		}
	}
	return Dataset{records: out}
}
