package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AppData is the whole-application snapshot: the unit of persistence,
// export, import and merge. In an incoming partial snapshot a nil slice or
// nil settings pointer means "absent".
type AppData struct {
	Customers             []Customer         `json:"customers"`
	Extinguishers         []Extinguisher     `json:"extinguishers"`
	Records               []InspectionRecord `json:"records"`
	AuditLogs             []AuditEntry       `json:"auditLogs"`
	RegisteredUsers       []RegisteredUser   `json:"registeredUsers"`
	ArchivedCustomers     []Customer         `json:"archivedCustomers"`
	ArchivedExtinguishers []Extinguisher     `json:"archivedExtinguishers"`
	Todos                 []Todo             `json:"todos"`

	Technicians        []string `json:"technicians"`
	ChecklistItems     []string `json:"checklistItems"`
	BatteryTypes       []string `json:"batteryTypes"`
	AssetTypes         []string `json:"assetTypes"`
	Brands             []string `json:"brands"`
	Agents             []string `json:"agents"`
	DisabledBulkFields []string `json:"disabledBulkFields"`

	// asset type -> checklist labels replacing the standard list
	CustomChecklists map[string][]string `json:"customChecklists"`

	DropboxSettings      *DropboxSettings      `json:"dropboxSettings,omitempty"`
	SupabaseSettings     *SupabaseSettings     `json:"supabaseSettings,omitempty"`
	VoiplySettings       *VoiplySettings       `json:"voiplySettings,omitempty"`
	DeviceMagicSettings  *DeviceMagicSettings  `json:"deviceMagicSettings,omitempty"`
	NotificationSettings *NotificationSettings `json:"notificationSettings,omitempty"`

	LastUpdated string `json:"lastUpdated"`
}

// NewID returns a fresh entity id.
func NewID() string {
	return uuid.New().String()
}

// NowISO formats t the way every timestamp in the snapshot is stored.
func NowISO(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// StampLayout is an ISO timestamp with fixed millisecond precision.
const StampLayout = "2006-01-02T15:04:05.000Z07:00"

// StampISO formats t for backup and export file names.
func StampISO(t time.Time) string {
	return t.UTC().Format(StampLayout)
}

// DateISO formats t as a calendar date.
func DateISO(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// ParseTimestamp accepts RFC3339 timestamps and bare ISO dates.
func ParseTimestamp(s string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// Clone returns a deep copy. Snapshots are treated as immutable once
// published, so every mutation starts from a clone.
func (d *AppData) Clone() *AppData {
	if d == nil {
		return nil
	}
	raw, err := json.Marshal(d)
	if err != nil {
		// Every field is plain data; marshal cannot fail.
		panic(err)
	}
	var out AppData
	if err := json.Unmarshal(raw, &out); err != nil {
		panic(err)
	}
	return &out
}

func (d *AppData) FindCustomer(id string) (*Customer, int) {
	for i := range d.Customers {
		if d.Customers[i].ID == id {
			return &d.Customers[i], i
		}
	}
	return nil, -1
}

func (d *AppData) FindExtinguisher(id string) (*Extinguisher, int) {
	for i := range d.Extinguishers {
		if d.Extinguishers[i].ID == id {
			return &d.Extinguishers[i], i
		}
	}
	return nil, -1
}

func (d *AppData) FindUserByTechnicianID(techID string) *RegisteredUser {
	for i := range d.RegisteredUsers {
		if d.RegisteredUsers[i].TechnicianID == techID {
			return &d.RegisteredUsers[i]
		}
	}
	return nil
}

// CustomerName resolves a customerId to its display name, or "" when the
// customer is unknown (orphaned equipment is tolerated).
func (d *AppData) CustomerName(id string) string {
	if c, _ := d.FindCustomer(id); c != nil {
		return c.DisplayName()
	}
	return ""
}

// EquipmentFor returns the active equipment belonging to a customer.
func (d *AppData) EquipmentFor(customerID string) []Extinguisher {
	var out []Extinguisher
	for _, e := range d.Extinguishers {
		if e.CustomerID == customerID {
			out = append(out, e)
		}
	}
	return out
}
