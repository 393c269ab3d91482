package model

import (
	"strconv"

	"github.com/target/crud-console/internal/validation"
)

const (
	maxCompanyNameLen = 40
	maxPhoneLen       = 24
)

// Shipper is a delivery company. ShipperID is assigned by the backend on create.
type Shipper struct {
	ShipperID   int     `json:"shipperId"`
	CompanyName string  `json:"companyName"`
	Phone       *string `json:"phone,omitempty"`
}

// ResourceKey returns the shipper identifier.
func (s Shipper) ResourceKey() int { return s.ShipperID }

// Validate checks the fields the backend requires.
func (s Shipper) Validate() error {
	return validation.New().
		Validate("companyName", s.CompanyName, validation.Required("Company name", maxCompanyNameLen)).
		Validate("phone", deref(s.Phone), validation.Optional("Phone", maxPhoneLen)).
		Err()
}

// TableHeader implements table rendering.
func (Shipper) TableHeader() []string { return []string{"ID", "COMPANY", "PHONE"} }

// TableRow implements table rendering.
func (s Shipper) TableRow() []string {
	return []string{strconv.Itoa(s.ShipperID), s.CompanyName, deref(s.Phone)}
}
