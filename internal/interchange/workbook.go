// Package interchange converts the snapshot to and from the spreadsheet
// workbook and the whole-snapshot JSON file.
package interchange

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"firesafety-backend/internal/models"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
)

// Sheet names
const (
	SheetCustomers     = "Customers"
	SheetExtinguishers = "Extinguishers"
	SheetInspections   = "Inspections"
)

var customerColumns = []string{
	"ID", "Name", "Street_Number", "Street_Name", "City", "State", "Zip_Code",
	"Address", "Contact", "Phone", "Email", "Ext_Tech", "Sys_Tech",
	"Service_Months", "System_Months", "Notes",
}

var extinguisherColumns = []string{
	"ID", "Customer_ID", "Customer", "Unit_No", "Location", "Type", "Size",
	"Brand", "Status", "Last_Service", "Next_Due", "Last_Inspection",
	"Battery_Type", "Battery_Due",
}

var inspectionColumns = []string{
	"ID", "Extinguisher_ID", "Date_ISO", "Date", "Time", "Inspector",
	"Customer", "Unit_Loc", "Unit_Type", "Severity", "Notes", "AI_Analysis",
	"Passed", "Checks_JSON",
}

// ExportWorkbook renders the three sheets as an xlsx file.
func ExportWorkbook(data *models.AppData) ([]byte, error) {
	if data == nil {
		data = &models.AppData{}
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			log.Warn().Err(err).Msg("⚠️  failed to close workbook")
		}
	}()

	customers := make([][]string, 0, len(data.Customers))
	for i := range data.Customers {
		customers = append(customers, customerRow(&data.Customers[i]))
	}
	extinguishers := make([][]string, 0, len(data.Extinguishers))
	for i := range data.Extinguishers {
		extinguishers = append(extinguishers, extinguisherRow(data, &data.Extinguishers[i]))
	}
	inspections := make([][]string, 0, len(data.Records))
	for i := range data.Records {
		inspections = append(inspections, inspectionRow(data, &data.Records[i]))
	}

	if err := writeSheet(f, SheetCustomers, customerColumns, customers); err != nil {
		return nil, err
	}
	if err := writeSheet(f, SheetExtinguishers, extinguisherColumns, extinguishers); err != nil {
		return nil, err
	}
	if err := writeSheet(f, SheetInspections, inspectionColumns, inspections); err != nil {
		return nil, err
	}

	// NewFile always starts with Sheet1
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to drop default sheet: %w", err)
	}
	if idx, err := f.GetSheetIndex(SheetCustomers); err == nil && idx >= 0 {
		f.SetActiveSheet(idx)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, name string, header []string, rows [][]string) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", name, err)
	}
	all := append([][]string{header}, rows...)
	for r, row := range all {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(row))
		for i, v := range row {
			values[i] = v
		}
		if err := f.SetSheetRow(name, cell, &values); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", name, r+1, err)
		}
	}
	return nil
}

func customerRow(c *models.Customer) []string {
	return []string{
		c.ID, c.Name, c.StreetNumber, c.StreetName, c.City, c.State, c.Zip,
		c.ComposeAddress(), c.Contact, c.Phone, c.Email, c.ExtTech, c.SysTech,
		FormatMonths(c.ServiceMonths), FormatMonths(c.SystemMonths), c.Notes,
	}
}

func extinguisherRow(data *models.AppData, e *models.Extinguisher) []string {
	return []string{
		e.ID, e.CustomerID, data.CustomerName(e.CustomerID), e.UnitNumber,
		e.Location, e.Type, e.Size, e.Brand, e.Status,
		deref(e.LastService), deref(e.NextDue), deref(e.LastInspection),
		e.BatteryType, yesNo(e.BatteryDue),
	}
}

func inspectionRow(data *models.AppData, r *models.InspectionRecord) []string {
	var unitLoc, unitType, customer string
	if e, _ := data.FindExtinguisher(r.ExtinguisherID); e != nil {
		unitLoc, unitType = e.Location, e.Type
		customer = data.CustomerName(e.CustomerID)
	}

	var date, clock string
	if t, ok := models.ParseTimestamp(r.Date); ok {
		date = t.Format("2006-01-02")
		clock = t.Format("15:04")
	}

	checks := "{}"
	if len(r.Checks) > 0 {
		if raw, err := json.Marshal(r.Checks); err == nil {
			checks = string(raw)
		}
	}

	return []string{
		r.ID, r.ExtinguisherID, r.Date, date, clock, r.Inspector,
		customer, unitLoc, unitType, r.Severity, r.Notes, r.AIAnalysis,
		yesNo(r.Passed()), checks,
	}
}

// ImportWorkbook reads whichever of the three sheets are present and returns
// a partial snapshot: collections for missing sheets stay nil so a merge
// leaves them untouched. The result is meant for merge.Merge, never for
// direct persistence.
func ImportWorkbook(r io.Reader) (*models.AppData, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	now := time.Now()
	out := &models.AppData{}

	rows, ok, err := sheetRows(f, SheetCustomers)
	if err != nil {
		return nil, err
	}
	if ok {
		out.Customers = make([]models.Customer, 0, len(rows))
		for _, row := range rows {
			out.Customers = append(out.Customers, parseCustomer(row, now))
		}
	}

	rows, ok, err = sheetRows(f, SheetExtinguishers)
	if err != nil {
		return nil, err
	}
	if ok {
		byName := customersByName(out.Customers)
		out.Extinguishers = make([]models.Extinguisher, 0, len(rows))
		for _, row := range rows {
			out.Extinguishers = append(out.Extinguishers, parseExtinguisher(row, byName))
		}
	}

	rows, ok, err = sheetRows(f, SheetInspections)
	if err != nil {
		return nil, err
	}
	if ok {
		out.Records = make([]models.InspectionRecord, 0, len(rows))
		for _, row := range rows {
			out.Records = append(out.Records, parseInspection(row, now))
		}
	}

	log.Info().
		Int("customers", len(out.Customers)).
		Int("extinguishers", len(out.Extinguishers)).
		Int("inspections", len(out.Records)).
		Msg("📥 workbook parsed")
	return out, nil
}

// row is one data row addressed by header name.
type row map[string]string

func (r row) get(col string) string {
	return r[strings.ToLower(col)]
}

// sheetRows returns the data rows of a sheet keyed by header. ok is false
// when the sheet does not exist.
func sheetRows(f *excelize.File, name string) ([]row, bool, error) {
	idx, err := f.GetSheetIndex(name)
	if err != nil || idx < 0 {
		return nil, false, nil
	}
	raw, err := f.GetRows(name)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read sheet %s: %w", name, err)
	}
	if len(raw) == 0 {
		return []row{}, true, nil
	}

	header := make([]string, len(raw[0]))
	for i, h := range raw[0] {
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}

	rows := make([]row, 0, len(raw)-1)
	for _, cells := range raw[1:] {
		r := make(row, len(header))
		empty := true
		for i, v := range cells {
			if i >= len(header) || header[i] == "" {
				continue
			}
			v = strings.TrimSpace(v)
			if v != "" {
				empty = false
			}
			r[header[i]] = v
		}
		if empty {
			continue
		}
		rows = append(rows, r)
	}
	return rows, true, nil
}

func parseCustomer(r row, now time.Time) models.Customer {
	c := models.Customer{
		ID:            r.get("ID"),
		Name:          r.get("Name"),
		StreetNumber:  r.get("Street_Number"),
		StreetName:    r.get("Street_Name"),
		City:          r.get("City"),
		State:         r.get("State"),
		Zip:           r.get("Zip_Code"),
		Address:       r.get("Address"),
		Contact:       r.get("Contact"),
		Phone:         r.get("Phone"),
		Email:         r.get("Email"),
		ExtTech:       r.get("Ext_Tech"),
		SysTech:       r.get("Sys_Tech"),
		ServiceMonths: ParseMonths(r.get("Service_Months")),
		SystemMonths:  ParseMonths(r.get("System_Months")),
		Notes:         r.get("Notes"),
	}
	if c.ID == "" {
		c.ID = models.NewID()
		c.CreatedAt = models.NowISO(now)
	}
	if c.Address == "" {
		c.Address = c.ComposeAddress()
	}
	return c
}

func parseExtinguisher(r row, customers map[string]string) models.Extinguisher {
	e := models.Extinguisher{
		ID:             r.get("ID"),
		CustomerID:     r.get("Customer_ID"),
		UnitNumber:     r.get("Unit_No"),
		Location:       r.get("Location"),
		Type:           r.get("Type"),
		Size:           r.get("Size"),
		Brand:          r.get("Brand"),
		Status:         r.get("Status"),
		LastService:    optional(r.get("Last_Service")),
		NextDue:        optional(r.get("Next_Due")),
		LastInspection: optional(r.get("Last_Inspection")),
		BatteryType:    r.get("Battery_Type"),
		BatteryDue:     strings.EqualFold(r.get("Battery_Due"), "yes"),
	}
	if e.ID == "" {
		e.ID = models.NewID()
	}
	if e.Status == "" {
		e.Status = models.StatusPendingInspection
	}
	// Only customers from this same workbook are matched; an unmatched
	// name leaves the reference blank.
	if e.CustomerID == "" {
		e.CustomerID = customers[nameKey(r.get("Customer"))]
	}
	return e
}

func parseInspection(r row, now time.Time) models.InspectionRecord {
	rec := models.InspectionRecord{
		ID:             r.get("ID"),
		ExtinguisherID: r.get("Extinguisher_ID"),
		Date:           r.get("Date_ISO"),
		Inspector:      r.get("Inspector"),
		Severity:       r.get("Severity"),
		Notes:          r.get("Notes"),
		AIAnalysis:     r.get("AI_Analysis"),
		Checks:         map[string]*bool{},
	}
	if rec.ID == "" {
		rec.ID = models.NewID()
	}
	if rec.Date == "" {
		rec.Date = joinDateTime(r.get("Date"), r.get("Time"), now)
	}
	if raw := r.get("Checks_JSON"); raw != "" {
		var checks map[string]*bool
		if err := json.Unmarshal([]byte(raw), &checks); err != nil {
			log.Warn().Err(err).Str("inspection_id", rec.ID).Msg("⚠️  ignoring unreadable Checks_JSON")
		} else if checks != nil {
			rec.Checks = checks
		}
	}
	return rec
}

func joinDateTime(date, clock string, now time.Time) string {
	if date == "" {
		return models.NowISO(now)
	}
	if clock != "" {
		if t, err := time.Parse("2006-01-02 15:04", date+" "+clock); err == nil {
			return models.NowISO(t)
		}
	}
	if t, err := time.Parse("2006-01-02", date); err == nil {
		return models.NowISO(t)
	}
	return models.NowISO(now)
}

func customersByName(customers []models.Customer) map[string]string {
	out := make(map[string]string, len(customers))
	for i := range customers {
		key := nameKey(customers[i].Name)
		if key == "" {
			continue
		}
		if _, dup := out[key]; !dup {
			out[key] = customers[i].ID
		}
	}
	return out
}

func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ParseMonths reads a month list such as "1, 7,13,x" leniently: tokens that
// are not integers in 1..12 are dropped.
func ParseMonths(s string) []int {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || r == ' '
	})
	months := make([]int, 0, len(fields))
	for _, tok := range fields {
		n, err := strconv.Atoi(tok)
		if err != nil {
			continue
		}
		months = append(months, n)
	}
	return models.NormalizeMonths(months)
}

// FormatMonths joins months with commas.
func FormatMonths(months []int) string {
	parts := make([]string, len(months))
	for i, m := range months {
		parts[i] = strconv.Itoa(m)
	}
	return strings.Join(parts, ",")
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
