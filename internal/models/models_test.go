package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComposeAddress(t *testing.T) {
	c := Customer{StreetNumber: "45", StreetName: "Mission St", City: "Santa Cruz", State: "CA", Zip: "95060"}
	assert.Equal(t, "45 Mission St, Santa Cruz, CA 95060", c.ComposeAddress())

	legacy := Customer{Address: "PO Box 9, Aptos"}
	assert.Equal(t, "PO Box 9, Aptos", legacy.ComposeAddress())

	partial := Customer{City: "Aptos", Zip: "95003"}
	assert.Equal(t, "Aptos, 95003", partial.ComposeAddress())
}

func TestIsDueInMonth(t *testing.T) {
	c := Customer{ServiceMonths: []int{1, 7}, SystemMonths: []int{3}}
	assert.True(t, c.IsDueInMonth(7))
	assert.True(t, c.IsDueInMonth(3))
	assert.False(t, c.IsDueInMonth(2))
}

func TestNormalizeMonths(t *testing.T) {
	assert.Equal(t, []int{5, 1}, NormalizeMonths([]int{5, 0, 1, 13, 5}))
	assert.Empty(t, NormalizeMonths(nil))
}

func TestInspectionPassed(t *testing.T) {
	yes, no := true, false
	assert.True(t, (&InspectionRecord{}).Passed(), "no checks means nothing failed")
	assert.True(t, (&InspectionRecord{Checks: map[string]*bool{}}).Passed())
	assert.True(t, (&InspectionRecord{Checks: map[string]*bool{"0": &yes, "1": &yes}}).Passed())

	r := &InspectionRecord{Checks: map[string]*bool{"0": &yes, "1": &no, "2": nil}}
	assert.False(t, r.Passed())
	assert.Equal(t, []string{"1"}, r.FailedChecks())
}

func TestClone_IsDeep(t *testing.T) {
	due := "2026-01-01"
	d := &AppData{
		Customers:        []Customer{{ID: "c1", ServiceMonths: []int{1}}},
		Extinguishers:    []Extinguisher{{ID: "e1", NextDue: &due}},
		CustomChecklists: map[string][]string{"CO2": {"Horn intact"}},
		DropboxSettings:  &DropboxSettings{AccessToken: "tok"},
	}
	c := d.Clone()
	c.Customers[0].ServiceMonths[0] = 9
	*c.Extinguishers[0].NextDue = "2030-01-01"
	c.CustomChecklists["CO2"][0] = "changed"
	c.DropboxSettings.AccessToken = "other"

	assert.Equal(t, 1, d.Customers[0].ServiceMonths[0])
	assert.Equal(t, "2026-01-01", *d.Extinguishers[0].NextDue)
	assert.Equal(t, "Horn intact", d.CustomChecklists["CO2"][0])
	assert.Equal(t, "tok", d.DropboxSettings.AccessToken)

	var nilData *AppData
	assert.Nil(t, nilData.Clone())
}

func TestParseTimestamp(t *testing.T) {
	ts, ok := ParseTimestamp("2025-03-04T05:06:07.5Z")
	require.True(t, ok)
	assert.Equal(t, 2025, ts.Year())

	day, ok := ParseTimestamp("2025-03-04")
	require.True(t, ok)
	assert.Equal(t, time.March, day.Month())

	_, ok = ParseTimestamp("yesterday")
	assert.False(t, ok)
}

func TestLookups(t *testing.T) {
	d := &AppData{
		Customers:       []Customer{{ID: "c1", Name: "Harbor"}, {ID: "c2"}},
		Extinguishers:   []Extinguisher{{ID: "e1", CustomerID: "c1"}, {ID: "e2", CustomerID: "c2"}, {ID: "e3", CustomerID: "c1"}},
		RegisteredUsers: []RegisteredUser{{TechnicianID: "TECH-001", FirstName: "Admin", LastName: "User"}},
	}
	assert.Equal(t, "Harbor", d.CustomerName("c1"))
	assert.Equal(t, "Customer c2", d.CustomerName("c2"))
	assert.Equal(t, "", d.CustomerName("gone"))
	assert.Len(t, d.EquipmentFor("c1"), 2)

	_, idx := d.FindExtinguisher("e3")
	assert.Equal(t, 2, idx)

	u := d.FindUserByTechnicianID("TECH-001")
	require.NotNil(t, u)
	assert.Equal(t, "Admin User", u.FullName())
	assert.Nil(t, d.FindUserByTechnicianID("TECH-404"))
}
