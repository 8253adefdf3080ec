package models

// Equipment status values. Advisory only: set by technicians or by analysis.
const (
	StatusOperational       = "Operational"
	StatusNeedsAttention    = "Needs Attention"
	StatusCritical          = "Critical"
	StatusPendingInspection = "Pending Inspection"
)

// Default asset types; the registry in AppData is admin-extensible.
var DefaultAssetTypes = []string{
	"ABC Dry Chemical",
	"CO2",
	"Water",
	"Class K",
	"Clean Agent",
	"Emergency Light",
	"Exit Sign",
}

// Types that carry battery fields.
var batteryAssetTypes = map[string]bool{
	"Emergency Light": true,
	"Exit Sign":       true,
}

type Extinguisher struct {
	ID             string  `json:"id"`
	CustomerID     string  `json:"customerId"`
	UnitNumber     string  `json:"unitNumber"` // unique per site only
	Location       string  `json:"location"`
	Type           string  `json:"type"`
	Size           string  `json:"size,omitempty"`
	Brand          string  `json:"brand,omitempty"`
	Status         string  `json:"status"`
	LastService    *string `json:"lastService"`    // ISO-8601 date
	LastInspection *string `json:"lastInspection"` // ISO-8601 date
	NextDue        *string `json:"nextDue"`        // ISO-8601 date
	BatteryType    string  `json:"batteryType,omitempty"`
	BatteryDue     bool    `json:"batteryDue,omitempty"`
	Notes          string  `json:"notes,omitempty"`
}

// CreateExtinguisherRequest is the request body for POST /api/extinguishers
type CreateExtinguisherRequest struct {
	CustomerID  string  `json:"customerId"`
	UnitNumber  string  `json:"unitNumber"`
	Location    string  `json:"location"`
	Type        string  `json:"type"`
	Size        string  `json:"size"`
	Brand       string  `json:"brand"`
	Status      string  `json:"status"`
	LastService *string `json:"lastService,omitempty"`
	NextDue     *string `json:"nextDue,omitempty"`
	BatteryType string  `json:"batteryType"`
	BatteryDue  bool    `json:"batteryDue"`
	Notes       string  `json:"notes"`
}

// IsBatteryType reports whether the unit type tracks a battery.
func IsBatteryType(assetType string) bool {
	return batteryAssetTypes[assetType]
}

// ValidStatus reports whether s is one of the known status values.
func ValidStatus(s string) bool {
	switch s {
	case StatusOperational, StatusNeedsAttention, StatusCritical, StatusPendingInspection:
		return true
	}
	return false
}
