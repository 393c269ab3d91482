package model

import (
	"strconv"

	"github.com/target/crud-console/internal/validation"
)

const maxDepartmentNameLen = 50

// Department is an academic department. Unlike employees and shippers the
// DepartmentID is chosen by the caller and must be present on create.
type Department struct {
	DepartmentID  int     `json:"departmentId"`
	Name          string  `json:"name"`
	Budget        float64 `json:"budget"`
	StartDate     string  `json:"startDate"`
	Administrator *int    `json:"administrator,omitempty"`
}

// ResourceKey returns the department identifier.
func (d Department) ResourceKey() int { return d.DepartmentID }

// Validate checks the fields the backend requires.
func (d Department) Validate() error {
	return validation.New().
		Check(d.DepartmentID > 0, "departmentId", "Department ID must be greater than 0.").
		Validate("name", d.Name, validation.Required("Name", maxDepartmentNameLen)).
		Validate("budget", formatFloat(d.Budget), validation.NonNegative("Budget")).
		Validate("startDate", d.StartDate, validation.Required("Start date", 64), validation.Date("Start date")).
		Err()
}

// TableHeader implements table rendering.
func (Department) TableHeader() []string {
	return []string{"ID", "NAME", "BUDGET", "START", "ADMINISTRATOR"}
}

// TableRow implements table rendering.
func (d Department) TableRow() []string {
	admin := ""
	if d.Administrator != nil {
		admin = strconv.Itoa(*d.Administrator)
	}
	return []string{
		strconv.Itoa(d.DepartmentID),
		d.Name,
		strconv.FormatFloat(d.Budget, 'f', 2, 64),
		d.StartDate,
		admin,
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
