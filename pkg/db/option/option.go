// Package option carries composable query options for the generic repository.
package option

import (
	"strings"

	"gorm.io/gorm"
)

// QueryOption mutates a gorm statement before execution.
type QueryOption interface {
	Apply(db *gorm.DB) *gorm.DB
}

type optionFunc func(db *gorm.DB) *gorm.DB

func (f optionFunc) Apply(db *gorm.DB) *gorm.DB { return f(db) }

// WithLimit caps the number of returned rows.
func WithLimit(limit int) QueryOption {
	return optionFunc(func(db *gorm.DB) *gorm.DB {
		if limit <= 0 {
			return db
		}
		return db.Limit(limit)
	})
}

// WithOrder appends an ORDER BY clause.
func WithOrder(order string) QueryOption {
	return optionFunc(func(db *gorm.DB) *gorm.DB {
		order = strings.TrimSpace(order)
		if order == "" {
			return db
		}
		return db.Order(order)
	})
}

// WithIDBefore keeps rows with an id strictly below the cursor. Combined
// with an id DESC order this pages backwards through time-ordered ids.
func WithIDBefore(id string) QueryOption {
	return optionFunc(func(db *gorm.DB) *gorm.DB {
		id = strings.TrimSpace(id)
		if id == "" {
			return db
		}
		return db.Where("id < ?", id)
	})
}

// WithDateRange constrains column to an inclusive day range. Empty bounds
// are skipped so callers can pass a half-open range.
func WithDateRange(column, start, end string) QueryOption {
	return optionFunc(func(db *gorm.DB) *gorm.DB {
		column = strings.TrimSpace(column)
		if column == "" {
			return db
		}
		if s := strings.TrimSpace(start); s != "" {
			db = db.Where(column+" >= ?", s)
		}
		if e := strings.TrimSpace(end); e != "" {
			db = db.Where(column+" <= ?", e)
		}
		return db
	})
}
