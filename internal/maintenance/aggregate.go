package maintenance

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"
)

var monthOrder = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// KPIs is the fleet-wide summary row shown at the top of the dashboard.
type KPIs struct {
	TotalRemovals   int64   `json:"total_removals"`
	TotalComponents int     `json:"total_components"`
	TotalDowntime   float64 `json:"total_downtime"`
	BestComponent   string  `json:"best_component"`
	WorstComponent  string  `json:"worst_component"`
}

// MonthCount is one month bucket of an unscheduled-removal series.
type MonthCount struct {
	Month    string `json:"month"`
	Removals int64  `json:"removals"`
}

// ChapterCount is one ATA chapter bucket of an unscheduled-removal series.
type ChapterCount struct {
	Chapter  string `json:"ata_chapter"`
	Removals int64  `json:"removals"`
}

// ComponentValue pairs a component name with one derived value
// (MTBUR hours, average downtime hours).
type ComponentValue struct {
	Component string  `json:"component"`
	Value     float64 `json:"value"`
}

// ParetoEntry is one component in the removal Pareto ranking.
type ParetoEntry struct {
	Component         string  `json:"component"`
	Removals          int64   `json:"removals"`
	CumulativePercent float64 `json:"cumulative_percent"`
}

// ScatterPoint pairs per-component MTBUR with its MTTR proxy
// (average downtime hours).
type ScatterPoint struct {
	Component string  `json:"component"`
	MTBUR     float64 `json:"mtbur"`
	MTTR      float64 `json:"mttr"`
}

// DistributionSummary is a five-number summary plus mean of a value set.
type DistributionSummary struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
}

// AgeGroup is the install-age distribution of records sharing one
// removal status.
type AgeGroup struct {
	Removed bool                 `json:"removed"`
	Hours   []float64            `json:"hours"`
	Summary *DistributionSummary `json:"summary,omitempty"`
}

// Detail is the drill-down view for one component.
type Detail struct {
	Component     string               `json:"component"`
	TotalRemovals int64                `json:"total_removals"`
	TotalDowntime float64              `json:"total_downtime"`
	MTBUR         float64              `json:"mtbur"`
	MonthlyTrend  []MonthCount         `json:"monthly_trend"`
	LifeHours     []float64            `json:"life_hours"`
	LifeSummary   *DistributionSummary `json:"life_summary,omitempty"`
}

// HistogramBin is one equal-width bucket of a value distribution.
type HistogramBin struct {
	From  float64 `json:"from"`
	To    float64 `json:"to"`
	Count int64   `json:"count"`
}

// TotalKPIs computes the summary row. An empty dataset yields all zeros
// and empty component names.
func TotalKPIs(ds Dataset) KPIs {
	out := KPIs{}
	seen := map[string]struct{}{}
	for _, r := range ds.records {
		out.TotalRemovals += int64(r.UnscheduledRemoval)
		out.TotalDowntime += r.DowntimeHours
		seen[r.ComponentName] = struct{}{}
	}
	out.TotalComponents = len(seen)
	out.TotalDowntime = round2(out.TotalDowntime)

	mtbur := MTBURByComponent(ds)
	out.BestComponent = selectComponent(mtbur, func(candidate, current float64) bool { return candidate > current })
	out.WorstComponent = selectComponent(mtbur, func(candidate, current float64) bool { return candidate < current })
	return out
}

// selectComponent picks from a name-sorted slice, so on equal values the
// lexicographically smallest component name wins.
func selectComponent(values []ComponentValue, better func(candidate, current float64) bool) string {
	name := ""
	current := 0.0
	for i, cv := range values {
		if i == 0 || better(cv.Value, current) {
			name = cv.Component
			current = cv.Value
		}
	}
	return name
}

// MTBURByComponent computes Mean Time Between Unscheduled Removals per
// component: cumulative install-hours over removal count, with the removal
// count floored at 1 so zero-removal components report their full install
// hours instead of dividing by zero. Result is sorted by component name.
func MTBURByComponent(ds Dataset) []ComponentValue {
	type group struct {
		hours    float64
		removals int64
	}
	groups := map[string]*group{}
	for _, r := range ds.records {
		g, ok := groups[r.ComponentName]
		if !ok {
			g = &group{}
			groups[r.ComponentName] = g
		}
		g.hours += r.HoursSinceInstall
		g.removals += int64(r.UnscheduledRemoval)
	}

	out := make([]ComponentValue, 0, len(groups))
	for name, g := range groups {
		denom := g.removals
		if denom < 1 {
			denom = 1
		}
		out = append(out, ComponentValue{Component: name, Value: g.hours / float64(denom)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Component < out[j].Component })
	return out
}

// MonthlyRemovals sums unscheduled removals per calendar month of the
// failure date. Only observed months appear; order is Jan through Dec.
// Use ZeroFilled for a full-year axis.
func MonthlyRemovals(ds Dataset) []MonthCount {
	totals := map[string]int64{}
	for _, r := range ds.records {
		totals[r.FailureDate.Format("Jan")] += int64(r.UnscheduledRemoval)
	}

	out := make([]MonthCount, 0, len(totals))
	for _, m := range monthOrder {
		if v, ok := totals[m]; ok {
			out = append(out, MonthCount{Month: m, Removals: v})
		}
	}
	return out
}

// ZeroFilled expands a monthly series to all twelve months, inserting
// zero buckets for months without records.
func ZeroFilled(series []MonthCount) []MonthCount {
	byMonth := make(map[string]int64, len(series))
	for _, p := range series {
		byMonth[p.Month] = p.Removals
	}
	out := make([]MonthCount, 0, len(monthOrder))
	for _, m := range monthOrder {
		out = append(out, MonthCount{Month: m, Removals: byMonth[m]})
	}
	return out
}

// ATARemovals sums unscheduled removals per ATA chapter. Chapters are
// string keys, so codes like "05" and "21" never sort numerically.
// Result is sorted by chapter key.
func ATARemovals(ds Dataset) []ChapterCount {
	totals := map[string]int64{}
	for _, r := range ds.records {
		totals[r.ATAChapter] += int64(r.UnscheduledRemoval)
	}

	keys := make([]string, 0, len(totals))
	for k := range totals {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]ChapterCount, 0, len(keys))
	for _, k := range keys {
		out = append(out, ChapterCount{Chapter: k, Removals: totals[k]})
	}
	return out
}

// AverageDowntimeByComponent computes the mean downtime hours per
// component (the MTTR proxy). Components without records are absent,
// not zero-filled. Result is sorted by component name.
func AverageDowntimeByComponent(ds Dataset) []ComponentValue {
	type group struct {
		sum   float64
		count int64
	}
	groups := map[string]*group{}
	for _, r := range ds.records {
		g, ok := groups[r.ComponentName]
		if !ok {
			g = &group{}
			groups[r.ComponentName] = g
		}
		g.sum += r.DowntimeHours
		g.count++
	}

	out := make([]ComponentValue, 0, len(groups))
	for name, g := range groups {
		out = append(out, ComponentValue{Component: name, Value: g.sum / float64(g.count)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Component < out[j].Component })
	return out
}

// Pareto ranks components by unscheduled removals descending (ties by
// component name ascending) and attaches the running share of total
// removals. When the total is zero every cumulative percent is 0.
func Pareto(ds Dataset) []ParetoEntry {
	totals := map[string]int64{}
	for _, r := range ds.records {
		totals[r.ComponentName] += int64(r.UnscheduledRemoval)
	}

	out := make([]ParetoEntry, 0, len(totals))
	grand := int64(0)
	for name, v := range totals {
		out = append(out, ParetoEntry{Component: name, Removals: v})
		grand += v
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Removals != out[j].Removals {
			return out[i].Removals > out[j].Removals
		}
		return out[i].Component < out[j].Component
	})

	running := int64(0)
	for i := range out {
		running += out[i].Removals
		if grand > 0 {
			out[i].CumulativePercent = float64(running) / float64(grand) * 100
		}
	}
	return out
}

// ReliabilityTrend is the monthly removal series of one component.
// Multiple selected components are independent calls; series are never
// merged.
func ReliabilityTrend(ds Dataset, componentName string) []MonthCount {
	return MonthlyRemovals(ds.Filter(componentName))
}

// ComponentDetail builds the drill-down view for one component. A name
// matching no records yields zero totals, MTBUR 0 and empty series.
func ComponentDetail(ds Dataset, componentName string) Detail {
	sub := ds.Filter(componentName)

	out := Detail{
		Component:    componentName,
		MonthlyTrend: MonthlyRemovals(sub),
		LifeHours:    LifeDistribution(sub),
	}
	hours := 0.0
	for _, r := range sub.records {
		out.TotalRemovals += int64(r.UnscheduledRemoval)
		out.TotalDowntime += r.DowntimeHours
		hours += r.HoursSinceInstall
	}
	out.TotalDowntime = round2(out.TotalDowntime)

	denom := out.TotalRemovals
	if denom < 1 {
		denom = 1
	}
	out.MTBUR = hours / float64(denom)
	out.LifeSummary = Summarize(out.LifeHours)
	return out
}

// MTBURvsMTTR pairs each component's MTBUR with its average downtime.
// Result is sorted by component name.
func MTBURvsMTTR(ds Dataset) []ScatterPoint {
	mttr := map[string]float64{}
	for _, cv := range AverageDowntimeByComponent(ds) {
		mttr[cv.Component] = cv.Value
	}

	mtbur := MTBURByComponent(ds)
	out := make([]ScatterPoint, 0, len(mtbur))
	for _, cv := range mtbur {
		out = append(out, ScatterPoint{Component: cv.Component, MTBUR: cv.Value, MTTR: mttr[cv.Component]})
	}
	return out
}

// AgeByRemovalStatus splits install-age hours by removal flag, not-removed
// first. Groups without records carry empty hours and a nil summary.
func AgeByRemovalStatus(ds Dataset) []AgeGroup {
	kept := make([]float64, 0)
	removed := make([]float64, 0)
	for _, r := range ds.records {
		if r.UnscheduledRemoval == 1 {
			removed = append(removed, r.HoursSinceInstall)
		} else {
			kept = append(kept, r.HoursSinceInstall)
		}
	}
	return []AgeGroup{
		{Removed: false, Hours: kept, Summary: Summarize(kept)},
		{Removed: true, Hours: removed, Summary: Summarize(removed)},
	}
}

// LifeDistribution returns the raw hours-since-install values. Binning is
// a presentation decision made by the caller.
func LifeDistribution(ds Dataset) []float64 {
	out := make([]float64, 0, len(ds.records))
	for _, r := range ds.records {
		out = append(out, r.HoursSinceInstall)
	}
	return out
}

// Components lists the distinct component names, sorted.
func Components(ds Dataset) []string {
	seen := map[string]struct{}{}
	for _, r := range ds.records {
		seen[r.ComponentName] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Summarize computes a five-number summary plus mean. Empty input yields
// nil.
func Summarize(values []float64) *DistributionSummary {
	if len(values) == 0 {
		return nil
	}

	data := stats.Float64Data(values)
	min, _ := stats.Min(data)
	max, _ := stats.Max(data)
	mean, _ := stats.Mean(data)
	median, _ := stats.Median(data)
	quartiles, _ := stats.Quartile(data)

	return &DistributionSummary{
		Count:  len(values),
		Min:    min,
		Q1:     quartiles.Q1,
		Median: median,
		Q3:     quartiles.Q3,
		Max:    max,
		Mean:   round2(mean),
	}
}

// Histogram buckets values into bins equal-width bins spanning
// [min, max]. Values are small synthetic datasets, so a single linear
// pass per value is fine.
func Histogram(values []float64, bins int) []HistogramBin {
	if len(values) == 0 || bins <= 0 {
		return []HistogramBin{}
	}

	min, max := values[0], values[0]
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	out := make([]HistogramBin, bins)
	width := (max - min) / float64(bins)
	if width == 0 {
		// All values identical: everything lands in one bucket.
		out[0] = HistogramBin{From: min, To: max, Count: int64(len(values))}
		for i := 1; i < bins; i++ {
			out[i] = HistogramBin{From: min, To: max}
		}
		return out
	}

	for i := range out {
		out[i].From = min + float64(i)*width
		out[i].To = min + float64(i+1)*width
	}
	for _, v := range values {
		idx := int((v - min) / width)
		if idx >= bins {
			idx = bins - 1
		}
		out[idx].Count++
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
