package csvfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-fleet-mx-report-ui/internal/maintenance"
)

const sampleCSV = `component_name,ata_chapter,failure_date,hours_since_install,unscheduled_removal,downtime_hours
Fuel Pump,28,2024-01-05,100,1,5
Fuel Pump,28,2024-03-12,50,0,0
Hydraulic Actuator,29,2024-06-02,80,0,0
`

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "maintenance_data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseRecords(t *testing.T) {
	records, err := ParseRecords(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "Fuel Pump", records[0].ComponentName)
	assert.Equal(t, "28", records[0].ATAChapter)
	assert.Equal(t, time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC), records[0].FailureDate)
	assert.Equal(t, 100.0, records[0].HoursSinceInstall)
	assert.Equal(t, 1, records[0].UnscheduledRemoval)
	assert.Equal(t, 5.0, records[0].DowntimeHours)
}

func TestParseRecords_ColumnOrderIsFree(t *testing.T) {
	shuffled := `downtime_hours,component_name,failure_date,ata_chapter,unscheduled_removal,hours_since_install
2.5,Fuel Pump,2024-02-01,28,1,120
`
	records, err := ParseRecords(strings.NewReader(shuffled))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 2.5, records[0].DowntimeHours)
	assert.Equal(t, 120.0, records[0].HoursSinceInstall)
}

func TestParseRecords_MissingColumn(t *testing.T) {
	_, err := ParseRecords(strings.NewReader("component_name,ata_chapter\nFuel Pump,28\n"))
	require.Error(t, err)

	var invalid *maintenance.InvalidInputError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, maintenance.ColFailureDate, invalid.Field)
}

func TestParseRecords_UnparseableDate(t *testing.T) {
	bad := `component_name,ata_chapter,failure_date,hours_since_install,unscheduled_removal,downtime_hours
Fuel Pump,28,05 January,100,1,5
`
	_, err := ParseRecords(strings.NewReader(bad))
	require.Error(t, err)

	var invalid *maintenance.InvalidInputError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, maintenance.ColFailureDate, invalid.Field)
	assert.Equal(t, 1, invalid.Line)
}

func TestParseRecords_BadRemovalFlag(t *testing.T) {
	bad := `component_name,ata_chapter,failure_date,hours_since_install,unscheduled_removal,downtime_hours
Fuel Pump,28,2024-01-05,100,3,5
`
	_, err := ParseRecords(strings.NewReader(bad))
	var invalid *maintenance.InvalidInputError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, maintenance.ColUnscheduledRemoval, invalid.Field)
}

func TestNewStore_LoadsAndCounts(t *testing.T) {
	store, err := NewStore(writeTemp(t, sampleCSV))
	require.NoError(t, err)

	ds, err := store.Dataset()
	require.NoError(t, err)
	assert.Equal(t, 3, ds.Len())

	status := store.Status()
	assert.Equal(t, 3, status.Rows)
	assert.False(t, status.LoadedAt.IsZero())
}

func TestNewStore_EmptyPath(t *testing.T) {
	_, err := NewStore("  ")
	require.Error(t, err)
}

func TestNewStore_BadFileFailsAtStartup(t *testing.T) {
	_, err := NewStore(writeTemp(t, "not,a,maintenance,table\n1,2,3,4\n"))
	require.Error(t, err)
}

func TestDataset_ReloadsOnModTimeChange(t *testing.T) {
	path := writeTemp(t, sampleCSV)
	store, err := NewStore(path)
	require.NoError(t, err)

	extended := sampleCSV + "Fuel Pump,28,2024-07-09,300,1,4\n"
	require.NoError(t, os.WriteFile(path, []byte(extended), 0o644))
	// Push the mtime forward in case the writes share a timestamp tick.
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))

	ds, err := store.Dataset()
	require.NoError(t, err)
	assert.Equal(t, 4, ds.Len())
}

func TestReload_Forced(t *testing.T) {
	store, err := NewStore(writeTemp(t, sampleCSV))
	require.NoError(t, err)

	rows, err := store.Reload()
	require.NoError(t, err)
	assert.Equal(t, 3, rows)
}
