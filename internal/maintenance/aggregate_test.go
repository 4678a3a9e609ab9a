package maintenance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(month time.Month, day int) time.Time {
	return time.Date(2024, month, day, 0, 0, 0, 0, time.UTC)
}

func exampleDataset() Dataset {
	return NewDataset([]Record{
		{ComponentName: "Fuel Pump", ATAChapter: "28", FailureDate: date(time.January, 5), HoursSinceInstall: 100, UnscheduledRemoval: 1, DowntimeHours: 5},
		{ComponentName: "Fuel Pump", ATAChapter: "28", FailureDate: date(time.March, 12), HoursSinceInstall: 50, UnscheduledRemoval: 0, DowntimeHours: 0},
		{ComponentName: "Fuel Pump", ATAChapter: "28", FailureDate: date(time.March, 20), HoursSinceInstall: 200, UnscheduledRemoval: 1, DowntimeHours: 3},
		{ComponentName: "Hydraulic Actuator", ATAChapter: "29", FailureDate: date(time.June, 2), HoursSinceInstall: 80, UnscheduledRemoval: 0, DowntimeHours: 0},
	})
}

func TestTotalKPIs_WorkedExample(t *testing.T) {
	kpis := TotalKPIs(exampleDataset())

	assert.Equal(t, int64(2), kpis.TotalRemovals)
	assert.Equal(t, 2, kpis.TotalComponents)
	assert.Equal(t, 8.0, kpis.TotalDowntime)
	// MTBUR(Fuel Pump) = 350/2 = 175, MTBUR(Hydraulic Actuator) = 80/1 = 80.
	assert.Equal(t, "Fuel Pump", kpis.BestComponent)
	assert.Equal(t, "Hydraulic Actuator", kpis.WorstComponent)
}

func TestTotalKPIs_EmptyDataset(t *testing.T) {
	kpis := TotalKPIs(NewDataset(nil))

	assert.Equal(t, int64(0), kpis.TotalRemovals)
	assert.Equal(t, 0, kpis.TotalComponents)
	assert.Equal(t, 0.0, kpis.TotalDowntime)
	assert.Empty(t, kpis.BestComponent)
	assert.Empty(t, kpis.WorstComponent)
}

func TestTotalKPIs_RemovalsMatchFlagCount(t *testing.T) {
	ds := exampleDataset()
	flagged := int64(0)
	for _, r := range ds.records {
		if r.UnscheduledRemoval == 1 {
			flagged++
		}
	}
	assert.Equal(t, flagged, TotalKPIs(ds).TotalRemovals)
}

func TestMTBURByComponent_ZeroRemovalFloor(t *testing.T) {
	values := MTBURByComponent(exampleDataset())
	require.Len(t, values, 2)

	assert.Equal(t, "Fuel Pump", values[0].Component)
	assert.Equal(t, 175.0, values[0].Value)
	// Zero removals: denominator floors at 1, reporting full install hours.
	assert.Equal(t, "Hydraulic Actuator", values[1].Component)
	assert.Equal(t, 80.0, values[1].Value)
}

func TestTotalKPIs_TieBreakIsLexicographic(t *testing.T) {
	ds := NewDataset([]Record{
		{ComponentName: "Bleed Valve", ATAChapter: "36", FailureDate: date(time.April, 1), HoursSinceInstall: 100, UnscheduledRemoval: 1, DowntimeHours: 1},
		{ComponentName: "Air Cycle Machine", ATAChapter: "21", FailureDate: date(time.April, 2), HoursSinceInstall: 100, UnscheduledRemoval: 1, DowntimeHours: 1},
	})

	kpis := TotalKPIs(ds)
	assert.Equal(t, "Air Cycle Machine", kpis.BestComponent)
	assert.Equal(t, "Air Cycle Machine", kpis.WorstComponent)
}

func TestMonthlyRemovals_OrderedObservedMonths(t *testing.T) {
	series := MonthlyRemovals(exampleDataset())
	require.Len(t, series, 3)

	assert.Equal(t, MonthCount{Month: "Jan", Removals: 1}, series[0])
	assert.Equal(t, MonthCount{Month: "Mar", Removals: 1}, series[1])
	// June has one record with no removal: observed month, zero count.
	assert.Equal(t, MonthCount{Month: "Jun", Removals: 0}, series[2])
}

func TestZeroFilled_FullYearAxis(t *testing.T) {
	series := ZeroFilled(MonthlyRemovals(exampleDataset()))
	require.Len(t, series, 12)

	assert.Equal(t, "Jan", series[0].Month)
	assert.Equal(t, "Dec", series[11].Month)
	assert.Equal(t, int64(0), series[1].Removals)
	assert.Equal(t, int64(1), series[2].Removals)
}

func TestATARemovals_ChapterKeysSortAsStrings(t *testing.T) {
	ds := NewDataset([]Record{
		{ComponentName: "a", ATAChapter: "21", FailureDate: date(time.May, 1), UnscheduledRemoval: 1},
		{ComponentName: "b", ATAChapter: "05", FailureDate: date(time.May, 2), UnscheduledRemoval: 1},
		{ComponentName: "c", ATAChapter: "110", FailureDate: date(time.May, 3), UnscheduledRemoval: 0},
	})

	series := ATARemovals(ds)
	require.Len(t, series, 3)
	assert.Equal(t, "05", series[0].Chapter)
	assert.Equal(t, "110", series[1].Chapter)
	assert.Equal(t, "21", series[2].Chapter)
}

func TestAverageDowntimeByComponent(t *testing.T) {
	values := AverageDowntimeByComponent(exampleDataset())
	require.Len(t, values, 2)

	assert.InDelta(t, 8.0/3.0, values[0].Value, 1e-9)
	assert.Equal(t, 0.0, values[1].Value)
}

func TestPareto_CumulativePercent(t *testing.T) {
	entries := Pareto(exampleDataset())
	require.Len(t, entries, 2)

	assert.Equal(t, "Fuel Pump", entries[0].Component)
	assert.Equal(t, int64(2), entries[0].Removals)
	assert.Equal(t, 100.0, entries[0].CumulativePercent)
	assert.Equal(t, 100.0, entries[1].CumulativePercent)

	prev := 0.0
	for _, e := range entries {
		assert.GreaterOrEqual(t, e.CumulativePercent, prev)
		prev = e.CumulativePercent
	}
}

func TestPareto_TiesSortByName(t *testing.T) {
	ds := NewDataset([]Record{
		{ComponentName: "Starter", ATAChapter: "80", FailureDate: date(time.July, 1), UnscheduledRemoval: 1},
		{ComponentName: "Igniter", ATAChapter: "74", FailureDate: date(time.July, 2), UnscheduledRemoval: 1},
	})

	entries := Pareto(ds)
	require.Len(t, entries, 2)
	assert.Equal(t, "Igniter", entries[0].Component)
	assert.Equal(t, "Starter", entries[1].Component)
	assert.InDelta(t, 50.0, entries[0].CumulativePercent, 1e-9)
	assert.InDelta(t, 100.0, entries[1].CumulativePercent, 1e-9)
}

func TestPareto_ZeroTotalRemovals(t *testing.T) {
	ds := NewDataset([]Record{
		{ComponentName: "Fan Blade", ATAChapter: "72", FailureDate: date(time.August, 1), UnscheduledRemoval: 0},
		{ComponentName: "Oil Pump", ATAChapter: "79", FailureDate: date(time.August, 2), UnscheduledRemoval: 0},
	})

	for _, e := range Pareto(ds) {
		assert.Equal(t, 0.0, e.CumulativePercent)
	}
}

func TestReliabilityTrend_IndependentPerComponent(t *testing.T) {
	ds := exampleDataset()

	pump := ReliabilityTrend(ds, "Fuel Pump")
	require.Len(t, pump, 2)
	assert.Equal(t, MonthCount{Month: "Jan", Removals: 1}, pump[0])
	assert.Equal(t, MonthCount{Month: "Mar", Removals: 1}, pump[1])

	actuator := ReliabilityTrend(ds, "Hydraulic Actuator")
	require.Len(t, actuator, 1)
	assert.Equal(t, MonthCount{Month: "Jun", Removals: 0}, actuator[0])
}

func TestComponentDetail(t *testing.T) {
	detail := ComponentDetail(exampleDataset(), "Fuel Pump")

	assert.Equal(t, int64(2), detail.TotalRemovals)
	assert.Equal(t, 8.0, detail.TotalDowntime)
	assert.Equal(t, 175.0, detail.MTBUR)
	assert.Equal(t, []float64{100, 50, 200}, detail.LifeHours)
	require.NotNil(t, detail.LifeSummary)
	assert.Equal(t, 3, detail.LifeSummary.Count)
	assert.Equal(t, 50.0, detail.LifeSummary.Min)
	assert.Equal(t, 200.0, detail.LifeSummary.Max)
}

func TestComponentDetail_UnknownComponent(t *testing.T) {
	detail := ComponentDetail(exampleDataset(), "APU Controller")

	assert.Equal(t, int64(0), detail.TotalRemovals)
	assert.Equal(t, 0.0, detail.TotalDowntime)
	assert.Equal(t, 0.0, detail.MTBUR)
	assert.Empty(t, detail.MonthlyTrend)
	assert.Empty(t, detail.LifeHours)
	assert.Nil(t, detail.LifeSummary)
}

func TestMTBURvsMTTR(t *testing.T) {
	points := MTBURvsMTTR(exampleDataset())
	require.Len(t, points, 2)

	assert.Equal(t, "Fuel Pump", points[0].Component)
	assert.Equal(t, 175.0, points[0].MTBUR)
	assert.InDelta(t, 8.0/3.0, points[0].MTTR, 1e-9)
}

func TestAgeByRemovalStatus(t *testing.T) {
	groups := AgeByRemovalStatus(exampleDataset())
	require.Len(t, groups, 2)

	assert.False(t, groups[0].Removed)
	assert.ElementsMatch(t, []float64{50, 80}, groups[0].Hours)
	assert.True(t, groups[1].Removed)
	assert.ElementsMatch(t, []float64{100, 200}, groups[1].Hours)
	require.NotNil(t, groups[1].Summary)
	assert.Equal(t, 150.0, groups[1].Summary.Mean)
}

func TestHistogram(t *testing.T) {
	bins := Histogram([]float64{0, 1, 2, 3, 10}, 5)
	require.Len(t, bins, 5)

	total := int64(0)
	for _, b := range bins {
		total += b.Count
	}
	assert.Equal(t, int64(5), total)
	assert.Equal(t, int64(1), bins[4].Count)
}

func TestHistogram_DegenerateInputs(t *testing.T) {
	assert.Empty(t, Histogram(nil, 10))
	assert.Empty(t, Histogram([]float64{1}, 0))

	same := Histogram([]float64{5, 5, 5}, 3)
	require.Len(t, same, 3)
	assert.Equal(t, int64(3), same[0].Count)
}

func TestAggregation_Idempotent(t *testing.T) {
	ds := exampleDataset()

	assert.Equal(t, TotalKPIs(ds), TotalKPIs(ds))
	assert.Equal(t, MTBURByComponent(ds), MTBURByComponent(ds))
	assert.Equal(t, Pareto(ds), Pareto(ds))
	assert.Equal(t, ComponentDetail(ds, "Fuel Pump"), ComponentDetail(ds, "Fuel Pump"))
}

func TestValidateRecord(t *testing.T) {
	valid := Record{ComponentName: "Fuel Pump", ATAChapter: "28", FailureDate: date(time.January, 1), HoursSinceInstall: 10, UnscheduledRemoval: 1, DowntimeHours: 2}
	require.NoError(t, ValidateRecord(valid, 1))

	cases := []struct {
		name   string
		mutate func(*Record)
		field  string
	}{
		{"empty component", func(r *Record) { r.ComponentName = "" }, ColComponentName},
		{"empty chapter", func(r *Record) { r.ATAChapter = "" }, ColATAChapter},
		{"zero date", func(r *Record) { r.FailureDate = time.Time{} }, ColFailureDate},
		{"negative hours", func(r *Record) { r.HoursSinceInstall = -1 }, ColHoursSinceInstall},
		{"bad flag", func(r *Record) { r.UnscheduledRemoval = 2 }, ColUnscheduledRemoval},
		{"negative downtime", func(r *Record) { r.DowntimeHours = -0.5 }, ColDowntimeHours},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := valid
			tc.mutate(&r)
			err := ValidateRecord(r, 7)
			require.Error(t, err)
			var invalid *InvalidInputError
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, tc.field, invalid.Field)
			assert.Equal(t, 7, invalid.Line)
		})
	}
}
