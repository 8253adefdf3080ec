package database

import (
	"time"

	"firesafety-backend/internal/models"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// Standard checklist labels seeded into the registry.
var DefaultChecklistItems = []string{
	"Pressure gauge in operable range",
	"Pin and tamper seal intact",
	"Hose and nozzle unobstructed",
	"No physical damage or corrosion",
	"Label legible and facing outward",
	"Mounted and accessible",
	"Inspection tag current",
	"Weight within specification",
}

// DemoSnapshot builds the seeded first-run dataset so the app never boots
// completely empty.
func DemoSnapshot(now time.Time) *models.AppData {
	log.Info().Msg("🌱 seeding demo snapshot")

	created := models.NowISO(now)
	lastService := models.DateISO(now.AddDate(0, -11, 0))
	nextDue := models.DateISO(now.AddDate(0, 1, 0))
	overdue := models.DateISO(now.AddDate(0, 0, -10))

	customers := []models.Customer{
		{
			ID: "cust-1", Name: "Harbor View Apartments",
			StreetNumber: "120", StreetName: "Harbor Way", City: "Santa Cruz", State: "CA", Zip: "95060",
			Contact: "Dana Ruiz", Phone: "831-555-0142", Email: "office@harborview.example",
			ExtTech: "Alex Morgan", SysTech: "Sam Lee",
			ServiceMonths: []int{1, 7}, SystemMonths: []int{3, 9},
			AccessNotes: "Key box at leasing office", CreatedAt: created,
		},
		{
			ID: "cust-2", Name: "Mission Street Bakery",
			StreetNumber: "45", StreetName: "Mission St", City: "Santa Cruz", State: "CA", Zip: "95060",
			Contact: "Priya Shah", Phone: "831-555-0199",
			ExtTech:       "Alex Morgan",
			ServiceMonths: []int{5}, SystemMonths: []int{5, 11},
			Notes:     "Class K unit behind fryer line",
			CreatedAt: created,
		},
	}
	for i := range customers {
		customers[i].Address = customers[i].ComposeAddress()
	}

	extinguishers := []models.Extinguisher{
		{ID: "ext-1", CustomerID: "cust-1", UnitNumber: "1", Location: "Lobby by elevator", Type: "ABC Dry Chemical", Size: "10 lb", Brand: "Amerex", Status: models.StatusOperational, LastService: &lastService, NextDue: &nextDue},
		{ID: "ext-2", CustomerID: "cust-1", UnitNumber: "2", Location: "Garage level P1", Type: "ABC Dry Chemical", Size: "5 lb", Brand: "Badger", Status: models.StatusPendingInspection, LastService: &lastService, NextDue: &overdue},
		{ID: "ext-3", CustomerID: "cust-1", UnitNumber: "3", Location: "Stairwell B exit", Type: "Emergency Light", Status: models.StatusOperational, BatteryType: "6V 4.5Ah SLA"},
		{ID: "ext-4", CustomerID: "cust-2", UnitNumber: "1", Location: "Kitchen fryer line", Type: "Class K", Size: "6 L", Brand: "Amerex", Status: models.StatusNeedsAttention, LastService: &lastService, NextDue: &nextDue},
	}

	return &models.AppData{
		Customers:             customers,
		Extinguishers:         extinguishers,
		Records:               []models.InspectionRecord{},
		AuditLogs:             []models.AuditEntry{},
		RegisteredUsers:       seedUsers(),
		ArchivedCustomers:     []models.Customer{},
		ArchivedExtinguishers: []models.Extinguisher{},
		Todos: []models.Todo{
			{ID: "todo-1", Text: "Order replacement Class K cartridge", CreatedAt: created, CustomerID: "cust-2"},
		},
		Technicians:        []string{"Alex Morgan", "Sam Lee"},
		ChecklistItems:     append([]string(nil), DefaultChecklistItems...),
		BatteryTypes:       []string{"6V 4.5Ah SLA", "12V 7Ah SLA", "3.6V NiCd"},
		AssetTypes:         append([]string(nil), models.DefaultAssetTypes...),
		Brands:             []string{"Amerex", "Badger", "Kidde", "Ansul", "Buckeye"},
		Agents:             []string{"Monoammonium phosphate", "Carbon dioxide", "Potassium acetate"},
		DisabledBulkFields: []string{},
		CustomChecklists: map[string][]string{
			"Emergency Light": {
				"Lamp illuminates on test",
				"Battery holds 90-minute test",
				"Housing undamaged",
			},
		},
		DropboxSettings:      models.DefaultDropboxSettings(),
		SupabaseSettings:     models.DefaultSupabaseSettings(),
		VoiplySettings:       models.DefaultVoiplySettings(),
		DeviceMagicSettings:  models.DefaultDeviceMagicSettings(),
		NotificationSettings: models.DefaultNotificationSettings(),
		LastUpdated:          created,
	}
}

func seedUsers() []models.RegisteredUser {
	users := []models.RegisteredUser{
		{ID: "user-1", FirstName: "Admin", LastName: "User", Email: "admin@firesafety.example", Role: models.RoleAdmin, TechnicianID: "TECH-001"},
		{ID: "user-2", FirstName: "Alex", LastName: "Morgan", Email: "alex@firesafety.example", Role: models.RoleTech, TechnicianID: "TECH-002"},
	}
	pins := []string{"1234", "2468"}

	for i := range users {
		hash, err := bcrypt.GenerateFromPassword([]byte(pins[i]), bcrypt.DefaultCost)
		if err != nil {
			// fall back to the legacy plaintext column rather than seeding a locked-out user
			log.Warn().Err(err).Str("technician_id", users[i].TechnicianID).Msg("⚠️  failed to hash seed PIN")
			users[i].PIN = pins[i]
			continue
		}
		users[i].PINHash = string(hash)
		log.Debug().Str("email", users[i].Email).Str("role", users[i].Role).Msg("  ✓ seeded user")
	}
	return users
}
