package model

import (
	"strconv"

	"github.com/target/crud-console/internal/validation"
)

const maxEmployeeNameLen = 100

// Employee is a staff member. EmployeeID is assigned by the backend on create.
type Employee struct {
	EmployeeID int     `json:"employeeId"`
	Name       string  `json:"name"`
	Salary     float64 `json:"salary"`
}

// ResourceKey returns the employee identifier.
func (e Employee) ResourceKey() int { return e.EmployeeID }

// Validate checks the fields the backend requires.
func (e Employee) Validate() error {
	return validation.New().
		Validate("name", e.Name, validation.Required("Name", maxEmployeeNameLen)).
		Validate("salary", formatFloat(e.Salary), validation.Positive("Salary")).
		Err()
}

// TableHeader implements table rendering.
func (Employee) TableHeader() []string { return []string{"ID", "NAME", "SALARY"} }

// TableRow implements table rendering.
func (e Employee) TableRow() []string {
	return []string{strconv.Itoa(e.EmployeeID), e.Name, strconv.FormatFloat(e.Salary, 'f', 2, 64)}
}
