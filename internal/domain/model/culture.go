package model

import (
	"strings"

	"github.com/target/crud-console/internal/validation"
)

const (
	// CultureIDWidth is the fixed width of the culture primary key column.
	CultureIDWidth    = 6
	maxCultureNameLen = 50
)

// Culture is a locale row keyed by a short fixed-width code such as "en" or "es-ES".
// Callers supply CultureID on create. The backend stores it space-padded.
type Culture struct {
	CultureID    string `json:"cultureId"`
	Name         string `json:"name"`
	ModifiedDate string `json:"modifiedDate,omitempty"`
}

// ResourceKey returns the culture code as sent by the backend.
func (c Culture) ResourceKey() string { return c.CultureID }

// Validate checks the fields the backend requires.
func (c Culture) Validate() error {
	return validation.New().
		Validate("cultureId", c.CultureID, validation.RequiredRange("Culture ID", 1, CultureIDWidth)).
		Validate("name", c.Name, validation.Required("Name", maxCultureNameLen)).
		Validate("modifiedDate", c.ModifiedDate, validation.Date("Modified date")).
		Err()
}

// TableHeader implements table rendering.
func (Culture) TableHeader() []string { return []string{"ID", "NAME", "MODIFIED"} }

// TableRow implements table rendering.
func (c Culture) TableRow() []string {
	return []string{strings.TrimRight(c.CultureID, " "), c.Name, c.ModifiedDate}
}
