// Package models contains database model definitions.
package models

import "time"

// Setting is a named value the console keeps across restarts,
// e.g. the backend url chosen on the settings page.
type Setting struct {
	ID        uint64 `gorm:"primaryKey"`
	Name      string `gorm:"uniqueIndex;size:191"`
	Value     []byte
	UpdatedAt time.Time
}

// All returns every model the console migrates.
func All() []any {
	return []any{&Setting{}}
}
