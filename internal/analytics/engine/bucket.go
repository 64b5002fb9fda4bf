package engine

import "sort"

// DayBucket is one calendar day of accumulated counts and sums. The date is
// a calendar label, never converted across timezones.
type DayBucket struct {
	Date  string             `json:"date"`
	Count int                `json:"count"`
	Sums  map[string]float64 `json:"sums,omitempty"`
}

// BucketByDay groups records by calendar day and accumulates a count plus
// the named measures, returning buckets in ascending date order. Days with
// no records produce no bucket. Records whose date came from the parse
// fallback are skipped: their day is fabricated and would fold into "today".
func (c Config[T]) BucketByDay(records []T, measures map[string]func(T) float64) []DayBucket {
	byDay := make(map[string]*DayBucket)
	for _, r := range records {
		if c.DayValid != nil && !c.DayValid(r) {
			continue
		}
		day := c.Day(r)
		bucket, ok := byDay[day]
		if !ok {
			bucket = &DayBucket{Date: day}
			if len(measures) > 0 {
				bucket.Sums = make(map[string]float64, len(measures))
			}
			byDay[day] = bucket
		}
		bucket.Count++
		for name, measure := range measures {
			bucket.Sums[name] += measure(r)
		}
	}

	out := make([]DayBucket, 0, len(byDay))
	for _, bucket := range byDay {
		out = append(out, *bucket)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}
