package override

import (
	"testing"

	"firesafety-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var admin = models.User{Name: "Admin", TechnicianID: "TECH-001", Role: models.RoleAdmin}

func snapshot() *models.AppData {
	due := "2025-01-01"
	return &models.AppData{
		Customers: []models.Customer{
			{ID: "c1", Name: "Acme", ExtTech: "Sam", ServiceMonths: []int{1}},
			{ID: "c2", Name: "Beta", ExtTech: "Sam", ServiceMonths: []int{}},
			{ID: "c3", Name: "Gamma", ExtTech: "Alex", ServiceMonths: []int{6}},
		},
		Extinguishers: []models.Extinguisher{
			{ID: "e1", CustomerID: "c1", Status: models.StatusOperational, NextDue: &due},
			{ID: "e2", CustomerID: "c1", Status: models.StatusCritical, BatteryDue: true},
		},
	}
}

func fieldKinds(fields []Field) map[string]string {
	out := map[string]string{}
	for _, f := range fields {
		out[f.Name] = f.Kind
	}
	return out
}

func TestDiscoverFields(t *testing.T) {
	fields, err := DiscoverFields(snapshot(), CollectionCustomers)
	require.NoError(t, err)
	kinds := fieldKinds(fields)
	assert.Equal(t, KindString, kinds["extTech"])
	assert.Equal(t, KindNumberList, kinds["serviceMonths"])

	fields, err = DiscoverFields(snapshot(), CollectionExtinguishers)
	require.NoError(t, err)
	kinds = fieldKinds(fields)
	assert.Equal(t, KindBool, kinds["batteryDue"])
	assert.Equal(t, KindString, kinds["nextDue"])
	assert.Equal(t, KindUnknown, kinds["lastInspection"])

	_, err = DiscoverFields(snapshot(), "settings")
	assert.ErrorIs(t, err, ErrUnknownCollection)
}

func TestApply_MatchValue(t *testing.T) {
	data := snapshot()
	n, err := Apply(data, admin, Op{
		Collection: CollectionCustomers,
		Field:      "extTech",
		Value:      "Jordan",
		MatchValue: "Sam",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "Jordan", data.Customers[0].ExtTech)
	assert.Equal(t, "Jordan", data.Customers[1].ExtTech)
	assert.Equal(t, "Alex", data.Customers[2].ExtTech)
}

func TestApply_IDsAndCoercion(t *testing.T) {
	data := snapshot()
	n, err := Apply(data, admin, Op{
		Collection: CollectionCustomers,
		Field:      "serviceMonths",
		Value:      "3, 9",
		IDs:        []string{"c3"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []int{3, 9}, data.Customers[2].ServiceMonths)
	assert.Equal(t, []int{1}, data.Customers[0].ServiceMonths)

	n, err = Apply(data, admin, Op{Collection: CollectionExtinguishers, Field: "batteryDue", Value: "no"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.False(t, data.Extinguishers[1].BatteryDue)
}

func TestApply_Rejections(t *testing.T) {
	data := snapshot()

	_, err := Apply(data, admin, Op{Collection: CollectionCustomers, Field: "id", Value: "x"})
	assert.ErrorIs(t, err, ErrProtectedField)

	_, err = Apply(data, admin, Op{Collection: CollectionCustomers, Field: "favoriteColor", Value: "x"})
	assert.ErrorIs(t, err, ErrUnknownField)

	_, err = Apply(data, admin, Op{Collection: CollectionExtinguishers, Field: "batteryDue", Value: "maybe"})
	assert.ErrorIs(t, err, ErrTypeMismatch)

	_, err = Apply(data, admin, Op{Collection: CollectionCustomers, Field: "serviceMonths", Value: "1,two"})
	assert.ErrorIs(t, err, ErrTypeMismatch)

	// 1.5 is a number but serviceMonths holds ints
	_, err = Apply(data, admin, Op{Collection: CollectionCustomers, Field: "serviceMonths", Value: []any{1.5}})
	assert.ErrorIs(t, err, ErrTypeMismatch)
	assert.Equal(t, []int{1}, data.Customers[0].ServiceMonths, "failed op leaves data untouched")
}

func TestApply_NonAdminNoOp(t *testing.T) {
	data := snapshot()
	tech := models.User{TechnicianID: "TECH-002", Role: models.RoleTech}

	n, err := Apply(data, tech, Op{Collection: CollectionCustomers, Field: "extTech", Value: "Jordan"})
	assert.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, "Sam", data.Customers[0].ExtTech)
}

func TestApply_ClearNullable(t *testing.T) {
	data := snapshot()
	n, err := Apply(data, admin, Op{Collection: CollectionExtinguishers, Field: "nextDue", Value: nil, IDs: []string{"e1"}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Nil(t, data.Extinguishers[0].NextDue)
}
