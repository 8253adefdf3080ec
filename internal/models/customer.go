package models

import (
	"fmt"
	"strings"
)

type Customer struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	StreetNumber  string `json:"streetNumber,omitempty"`
	StreetName    string `json:"streetName,omitempty"`
	City          string `json:"city,omitempty"`
	State         string `json:"state,omitempty"`
	Zip           string `json:"zip,omitempty"`
	Address       string `json:"address,omitempty"` // composite, kept for older rows that never split it
	Contact       string `json:"contact,omitempty"`
	Phone         string `json:"phone,omitempty"`
	Email         string `json:"email,omitempty"`
	ExtTech       string `json:"extTech,omitempty"` // technician on the extinguisher schedule
	SysTech       string `json:"sysTech,omitempty"` // technician on the suppression-system schedule
	ServiceMonths []int  `json:"serviceMonths"`
	SystemMonths  []int  `json:"systemMonths"`
	Notes         string `json:"notes,omitempty"`
	AccessNotes   string `json:"accessNotes,omitempty"` // gate codes, key box, contact on arrival
	CreatedAt     string `json:"createdAt,omitempty"`
}

// CreateCustomerRequest is the request body for POST /api/customers
type CreateCustomerRequest struct {
	Name          string `json:"name"`
	StreetNumber  string `json:"streetNumber"`
	StreetName    string `json:"streetName"`
	City          string `json:"city"`
	State         string `json:"state"`
	Zip           string `json:"zip"`
	Contact       string `json:"contact"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	ExtTech       string `json:"extTech"`
	SysTech       string `json:"sysTech"`
	ServiceMonths []int  `json:"serviceMonths"`
	SystemMonths  []int  `json:"systemMonths"`
	Notes         string `json:"notes"`
	AccessNotes   string `json:"accessNotes"`
}

// ComposeAddress joins the structured address parts into the display string.
// Falls back to the stored composite when the parts are empty.
func (c *Customer) ComposeAddress() string {
	street := strings.TrimSpace(strings.TrimSpace(c.StreetNumber) + " " + strings.TrimSpace(c.StreetName))
	var parts []string
	if street != "" {
		parts = append(parts, street)
	}
	if c.City != "" {
		parts = append(parts, c.City)
	}
	stateZip := strings.TrimSpace(c.State + " " + c.Zip)
	if stateZip != "" {
		parts = append(parts, stateZip)
	}
	if len(parts) == 0 {
		return c.Address
	}
	return strings.Join(parts, ", ")
}

// DisplayName is the label used in exports and equipment listings.
func (c *Customer) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return fmt.Sprintf("Customer %s", c.ID)
}

// IsDueInMonth reports whether either schedule includes the calendar month.
func (c *Customer) IsDueInMonth(month int) bool {
	for _, m := range c.ServiceMonths {
		if m == month {
			return true
		}
	}
	for _, m := range c.SystemMonths {
		if m == month {
			return true
		}
	}
	return false
}

// NormalizeMonths drops out-of-range and duplicate months, keeping first-seen order.
func NormalizeMonths(months []int) []int {
	out := make([]int, 0, len(months))
	seen := make(map[int]bool, len(months))
	for _, m := range months {
		if m < 1 || m > 12 || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}
