package engine

// FilterSpec is the predicate set a dashboard request carries. Dates are
// inclusive on both ends and compared on the canonical YYYY-MM-DD string.
type FilterSpec struct {
	StartDate string            `json:"start_date,omitempty"`
	EndDate   string            `json:"end_date,omitempty"`
	Equals    map[string]string `json:"equals,omitempty"`
}

// Empty reports whether the spec matches everything.
func (f FilterSpec) Empty() bool {
	return f.StartDate == "" && f.EndDate == "" && len(f.Equals) == 0
}

// Matches applies the spec to one record. Equality filters are conjunctive.
func (c Config[T]) Matches(f FilterSpec, r T) bool {
	if f.StartDate != "" || f.EndDate != "" {
		day := c.Day(r)
		if f.StartDate != "" && day < f.StartDate {
			return false
		}
		if f.EndDate != "" && day > f.EndDate {
			return false
		}
	}
	for field, want := range f.Equals {
		if want == "" {
			continue
		}
		if c.Field == nil || c.Field(r, field) != want {
			return false
		}
	}
	return true
}

// Filter returns the records matching f, preserving input order so that
// filtering then aggregating equals aggregating then discarding.
func (c Config[T]) Filter(records []T, f FilterSpec) []T {
	if f.Empty() {
		return records
	}
	out := make([]T, 0, len(records))
	for _, r := range records {
		if c.Matches(f, r) {
			out = append(out, r)
		}
	}
	return out
}
