// Package engine is the generic aggregation core shared by the ad, shipping
// and commerce dashboards. Each domain supplies a declarative Config naming
// its dimensions and measures; the engine owns the arithmetic so rates,
// distributions and rankings behave identically across domains.
package engine

import "sort"

// NameValue is one bucket of a categorical distribution or ranking.
type NameValue struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// UnknownLabel is the bucket every empty categorical value folds into.
const UnknownLabel = "Unknown"

// TopNSize is the ranking length served by the dashboards.
const TopNSize = 10

// Config declares how the engine reads one record type.
type Config[T any] struct {
	// Include gates a record into aggregation; nil means include all.
	Include func(T) bool
	// Day returns the record's canonical YYYY-MM-DD date.
	Day func(T) string
	// DayValid reports whether the date is real, not a fallback. Records
	// with an invalid day count toward totals but not time series.
	DayValid func(T) bool
	// Field returns a named categorical value for filtering and grouping.
	Field func(T, string) string
}

// Rate divides num by den, defining 0/0 and n/0 as 0.
func Rate(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// Label substitutes UnknownLabel for empty categorical values.
func Label(v string) string {
	if v == "" {
		return UnknownLabel
	}
	return v
}

// Gate returns the subset of records passing the Include gate. Aggregation
// runs the gate exactly once, up front, so every metric of a report shares
// one denominator.
func (c Config[T]) Gate(records []T) []T {
	if c.Include == nil {
		return records
	}
	out := make([]T, 0, len(records))
	for _, r := range records {
		if c.Include(r) {
			out = append(out, r)
		}
	}
	return out
}

// Distribution accumulates a categorical distribution in insertion order.
type Distribution struct {
	order  []string
	values map[string]float64
}

func NewDistribution() *Distribution {
	return &Distribution{values: make(map[string]float64)}
}

// Add folds value into the bucket for name, creating it in first-seen order.
func (d *Distribution) Add(name string, value float64) {
	name = Label(name)
	if _, seen := d.values[name]; !seen {
		d.order = append(d.order, name)
	}
	d.values[name] += value
}

// Get returns the accumulated value for name.
func (d *Distribution) Get(name string) float64 {
	return d.values[Label(name)]
}

// Entries emits the distribution as {name, value} pairs in insertion order.
// Never nil, so an empty distribution serializes as [].
func (d *Distribution) Entries() []NameValue {
	out := make([]NameValue, 0, len(d.order))
	for _, name := range d.order {
		out = append(out, NameValue{Name: name, Value: d.values[name]})
	}
	return out
}

// TopN sorts entries descending by value and truncates to n. The sort is
// stable: ties keep their insertion order.
func TopN(entries []NameValue, n int) []NameValue {
	out := make([]NameValue, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Value > out[j].Value
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// GroupRate accumulates per-group numerators and denominators so the overall
// rate comes out as sum(num)/sum(den), a weighted mean, never an unweighted
// average of per-group rates.
type GroupRate struct {
	order  []string
	nums   map[string]float64
	dens   map[string]float64
	sumNum float64
	sumDen float64
}

func NewGroupRate() *GroupRate {
	return &GroupRate{nums: make(map[string]float64), dens: make(map[string]float64)}
}

// Add folds one observation into the group.
func (g *GroupRate) Add(group string, num, den float64) {
	group = Label(group)
	if _, seen := g.dens[group]; !seen {
		g.order = append(g.order, group)
	}
	g.nums[group] += num
	g.dens[group] += den
	g.sumNum += num
	g.sumDen += den
}

// Overall is the weighted-mean rate across all groups.
func (g *GroupRate) Overall() float64 {
	return Rate(g.sumNum, g.sumDen)
}

// PerGroup emits each group's own rate in insertion order.
func (g *GroupRate) PerGroup() []NameValue {
	out := make([]NameValue, 0, len(g.order))
	for _, group := range g.order {
		out = append(out, NameValue{Name: group, Value: Rate(g.nums[group], g.dens[group])})
	}
	return out
}
