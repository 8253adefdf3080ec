package interchange

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"firesafety-backend/internal/database"
	"firesafety-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func boolPtr(b bool) *bool { return &b }

func sampleSnapshot() *models.AppData {
	data := database.DemoSnapshot(time.Date(2025, 4, 2, 9, 30, 0, 0, time.UTC))
	data.Records = []models.InspectionRecord{
		{
			ID:             "rec-1",
			ExtinguisherID: "ext-1",
			Date:           "2025-04-02T09:30:00Z",
			Inspector:      "Alex Morgan",
			Checks:         map[string]*bool{"0": boolPtr(true), "1": boolPtr(true)},
			Severity:       models.SeverityLow,
		},
		{
			ID:             "rec-2",
			ExtinguisherID: "ext-2",
			Date:           "2025-04-02T10:00:00Z",
			Inspector:      "Alex Morgan",
			Checks:         map[string]*bool{"0": boolPtr(true), "1": boolPtr(false)},
			Disposition:    models.DispositionReplace,
		},
	}
	return data
}

func buildWorkbook(t *testing.T, sheets map[string][][]string) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for name, rows := range sheets {
		require.NoError(t, writeSheet(f, name, rows[0], rows[1:]))
	}
	require.NoError(t, f.DeleteSheet("Sheet1"))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestWorkbook_RoundTrip(t *testing.T) {
	data := sampleSnapshot()

	raw, err := ExportWorkbook(data)
	require.NoError(t, err)

	got, err := ImportWorkbook(bytes.NewReader(raw))
	require.NoError(t, err)

	require.Len(t, got.Customers, len(data.Customers))
	for i, c := range data.Customers {
		assert.Equal(t, c.ID, got.Customers[i].ID)
		assert.Equal(t, c.Name, got.Customers[i].Name)
		assert.Equal(t, c.ServiceMonths, got.Customers[i].ServiceMonths)
		assert.Equal(t, c.SystemMonths, got.Customers[i].SystemMonths)
	}

	require.Len(t, got.Extinguishers, len(data.Extinguishers))
	for i, e := range data.Extinguishers {
		assert.Equal(t, e.ID, got.Extinguishers[i].ID)
		assert.Equal(t, e.CustomerID, got.Extinguishers[i].CustomerID)
		assert.Equal(t, e.UnitNumber, got.Extinguishers[i].UnitNumber)
		assert.Equal(t, e.Status, got.Extinguishers[i].Status)
		assert.Equal(t, e.NextDue, got.Extinguishers[i].NextDue)
	}

	require.Len(t, got.Records, 2)
	assert.Equal(t, data.Records[1].Checks, got.Records[1].Checks)
	assert.Equal(t, "2025-04-02T10:00:00Z", got.Records[1].Date)

	// sheets that are not part of the workbook stay absent
	assert.Nil(t, got.Todos)
	assert.Nil(t, got.DropboxSettings)
}

func TestWorkbook_DerivedColumns(t *testing.T) {
	raw, err := ExportWorkbook(sampleSnapshot())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(raw))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetInspections)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, inspectionColumns, rows[0])

	col := func(name string) int {
		for i, c := range inspectionColumns {
			if c == name {
				return i
			}
		}
		t.Fatalf("no column %s", name)
		return -1
	}
	assert.Equal(t, "Yes", rows[1][col("Passed")])
	assert.Equal(t, "No", rows[2][col("Passed")])
	assert.Equal(t, "Harbor View Apartments", rows[1][col("Customer")])
	assert.Equal(t, "Lobby by elevator", rows[1][col("Unit_Loc")])
	assert.Equal(t, "2025-04-02", rows[1][col("Date")])
	assert.Equal(t, "09:30", rows[1][col("Time")])

	ext, err := f.GetRows(SheetExtinguishers)
	require.NoError(t, err)
	assert.Equal(t, "Harbor View Apartments", ext[1][2])
}

func TestImportWorkbook_ResolvesCustomerByNameWithinBatch(t *testing.T) {
	raw := buildWorkbook(t, map[string][][]string{
		SheetCustomers: {
			{"Name", "Service_Months"},
			{"Harbor View Apartments", "1, 7"},
		},
		SheetExtinguishers: {
			{"Customer", "Unit_No", "Location", "Type"},
			{"  harbor view apartments ", "1", "Lobby", "CO2"},
			{"Somebody Else", "2", "Hall", "CO2"},
		},
	})

	got, err := ImportWorkbook(bytes.NewReader(raw))
	require.NoError(t, err)

	require.Len(t, got.Customers, 1)
	cust := got.Customers[0]
	assert.NotEmpty(t, cust.ID)
	assert.Equal(t, []int{1, 7}, cust.ServiceMonths)

	require.Len(t, got.Extinguishers, 2)
	assert.Equal(t, cust.ID, got.Extinguishers[0].CustomerID)
	assert.Empty(t, got.Extinguishers[1].CustomerID, "names outside the batch are not resolved")
	assert.Equal(t, models.StatusPendingInspection, got.Extinguishers[1].Status)
	assert.NotEmpty(t, got.Extinguishers[1].ID)
}

func TestImportWorkbook_SheetsAreOptional(t *testing.T) {
	raw := buildWorkbook(t, map[string][][]string{
		SheetExtinguishers: {
			{"ID", "Customer_ID", "Battery_Due"},
			{"e9", "c1", "yes"},
		},
	})

	got, err := ImportWorkbook(bytes.NewReader(raw))
	require.NoError(t, err)

	assert.Nil(t, got.Customers)
	assert.Nil(t, got.Records)
	require.Len(t, got.Extinguishers, 1)
	assert.True(t, got.Extinguishers[0].BatteryDue)
}

func TestImportWorkbook_RejectsGarbage(t *testing.T) {
	_, err := ImportWorkbook(strings.NewReader("not a zip"))
	assert.Error(t, err)
}

func TestParseMonths(t *testing.T) {
	tests := []struct {
		in   string
		want []int
	}{
		{"", []int{}},
		{"1,7", []int{1, 7}},
		{" 3 , 9 ", []int{3, 9}},
		{"1,x,13,0,5,5", []int{1, 5}},
		{"12;6", []int{12, 6}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseMonths(tt.in), tt.in)
	}
}

func TestJSON_RoundTrip(t *testing.T) {
	data := sampleSnapshot()

	raw, err := ExportJSON(data)
	require.NoError(t, err)

	got, err := ImportJSON(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, data.Customers, got.Customers)
	assert.Equal(t, data.Records, got.Records)
}

func TestImportJSON_PartialFile(t *testing.T) {
	got, err := ImportJSON(strings.NewReader(`{"todos":[{"id":"t1","text":"call"}]}`))
	require.NoError(t, err)
	assert.Len(t, got.Todos, 1)
	assert.Nil(t, got.Customers)
	assert.Nil(t, got.DropboxSettings)

	_, err = ImportJSON(strings.NewReader(`{"todos":`))
	assert.Error(t, err)
}

func TestFilename(t *testing.T) {
	assert.Equal(t,
		"fire_safety_backup_2025-04-02T09-30-00-123Z.json",
		Filename(models.FormatJSON, "2025-04-02T09:30:00.123Z"))
}
