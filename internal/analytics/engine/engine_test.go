package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	day       string
	dayValid  bool
	status    string
	courier   string
	total     float64
	delivered bool
}

var rowConfig = Config[row]{
	Include:  func(r row) bool { return true },
	Day:      func(r row) string { return r.day },
	DayValid: func(r row) bool { return r.dayValid },
	Field: func(r row, name string) string {
		switch name {
		case "status":
			return r.status
		case "courier":
			return r.courier
		}
		return ""
	},
}

func TestRateZeroDenominator(t *testing.T) {
	assert.Zero(t, Rate(0, 0))
	assert.Zero(t, Rate(5, 0))
	assert.Equal(t, 0.5, Rate(1, 2))
}

func TestDistributionInsertionOrderAndUnknown(t *testing.T) {
	d := NewDistribution()
	d.Add("Delivered", 1)
	d.Add("", 1)
	d.Add("Delivered", 1)
	d.Add("Returned", 1)

	entries := d.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, NameValue{Name: "Delivered", Value: 2}, entries[0])
	assert.Equal(t, NameValue{Name: UnknownLabel, Value: 1}, entries[1])
	assert.Equal(t, NameValue{Name: "Returned", Value: 1}, entries[2])

	var total float64
	for _, e := range entries {
		total += e.Value
	}
	assert.Equal(t, float64(4), total)
}

func TestDistributionEmptyIsNotNil(t *testing.T) {
	assert.NotNil(t, NewDistribution().Entries())
	assert.Empty(t, NewDistribution().Entries())
}

func TestTopNStableTies(t *testing.T) {
	entries := []NameValue{
		{Name: "a", Value: 5},
		{Name: "b", Value: 9},
		{Name: "c", Value: 5},
		{Name: "d", Value: 1},
	}

	top := TopN(entries, 3)
	require.Len(t, top, 3)
	assert.Equal(t, "b", top[0].Name)
	assert.Equal(t, "a", top[1].Name)
	assert.Equal(t, "c", top[2].Name)

	// input untouched
	assert.Equal(t, "a", entries[0].Name)
}

func TestGroupRateWeightedMean(t *testing.T) {
	g := NewGroupRate()
	// group A: 5 of 10 delivered, group B: 90 of 90
	g.Add("A", 5, 10)
	g.Add("B", 90, 90)

	assert.InDelta(t, 0.95, g.Overall(), 1e-9)

	per := g.PerGroup()
	require.Len(t, per, 2)
	assert.Equal(t, "A", per[0].Name)
	assert.InDelta(t, 0.5, per[0].Value, 1e-9)
	assert.Equal(t, "B", per[1].Name)
	assert.InDelta(t, 1.0, per[1].Value, 1e-9)
}

func TestFilterDateRangeInclusive(t *testing.T) {
	records := []row{
		{day: "2024-01-01", dayValid: true, status: "Delivered"},
		{day: "2024-01-02", dayValid: true, status: "Pending"},
		{day: "2024-01-03", dayValid: true, status: "Delivered"},
	}

	got := rowConfig.Filter(records, FilterSpec{StartDate: "2024-01-01", EndDate: "2024-01-02"})
	require.Len(t, got, 2)
	assert.Equal(t, "2024-01-01", got[0].day)
	assert.Equal(t, "2024-01-02", got[1].day)
}

func TestFilterEqualityConjunctive(t *testing.T) {
	records := []row{
		{day: "2024-01-01", status: "Delivered", courier: "JNE"},
		{day: "2024-01-01", status: "Delivered", courier: "SiCepat"},
		{day: "2024-01-01", status: "Pending", courier: "JNE"},
	}

	got := rowConfig.Filter(records, FilterSpec{Equals: map[string]string{
		"status":  "Delivered",
		"courier": "JNE",
	}})
	require.Len(t, got, 1)
	assert.Equal(t, "JNE", got[0].courier)
	assert.Equal(t, "Delivered", got[0].status)
}

func TestFilterThenAggregateEqualsAggregateThenDiscard(t *testing.T) {
	records := []row{
		{day: "2024-01-01", dayValid: true, status: "Delivered", total: 100},
		{day: "2024-01-05", dayValid: true, status: "Delivered", total: 50},
		{day: "2024-01-09", dayValid: true, status: "Pending", total: 25},
	}
	spec := FilterSpec{StartDate: "2024-01-01", EndDate: "2024-01-06"}

	filtered := rowConfig.Filter(records, spec)

	var manual []row
	for _, r := range records {
		if rowConfig.Matches(spec, r) {
			manual = append(manual, r)
		}
	}
	assert.Equal(t, manual, filtered)
}

func TestBucketByDayOrderAndGaps(t *testing.T) {
	records := []row{
		{day: "2024-01-03", dayValid: true, total: 10},
		{day: "2024-01-01", dayValid: true, total: 100},
		{day: "2024-01-01", dayValid: true, total: 50},
	}

	buckets := rowConfig.BucketByDay(records, map[string]func(row) float64{
		"total": func(r row) float64 { return r.total },
	})

	require.Len(t, buckets, 2)
	assert.Equal(t, "2024-01-01", buckets[0].Date)
	assert.Equal(t, 2, buckets[0].Count)
	assert.Equal(t, float64(150), buckets[0].Sums["total"])
	assert.Equal(t, "2024-01-03", buckets[1].Date)
	assert.Equal(t, 1, buckets[1].Count)
}

func TestBucketByDaySkipsFallbackDates(t *testing.T) {
	records := []row{
		{day: "2024-01-01", dayValid: true},
		{day: "2024-02-10", dayValid: false},
	}

	buckets := rowConfig.BucketByDay(records, nil)
	require.Len(t, buckets, 1)
	assert.Equal(t, "2024-01-01", buckets[0].Date)
}

func TestGateRunsOnce(t *testing.T) {
	cfg := rowConfig
	cfg.Include = func(r row) bool { return r.delivered }
	records := []row{
		{day: "2024-01-01", delivered: true},
		{day: "2024-01-02", delivered: false},
	}

	gated := cfg.Gate(records)
	require.Len(t, gated, 1)
	assert.Equal(t, "2024-01-01", gated[0].day)
}
