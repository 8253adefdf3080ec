package storage

import (
	"firesafety-backend/internal/database"
	"firesafety-backend/internal/models"
)

// BackFill fills every collection, registry and settings object that an
// older snapshot lacks. It only adds; existing fields are never renamed or
// dropped. Returns the names of the fields it filled.
func BackFill(d *models.AppData) []string {
	var filled []string
	mark := func(name string) { filled = append(filled, name) }

	if d.Customers == nil {
		d.Customers = []models.Customer{}
		mark("customers")
	}
	if d.Extinguishers == nil {
		d.Extinguishers = []models.Extinguisher{}
		mark("extinguishers")
	}
	if d.Records == nil {
		d.Records = []models.InspectionRecord{}
		mark("records")
	}
	if d.AuditLogs == nil {
		d.AuditLogs = []models.AuditEntry{}
		mark("auditLogs")
	}
	if d.RegisteredUsers == nil {
		d.RegisteredUsers = []models.RegisteredUser{}
		mark("registeredUsers")
	}
	if d.ArchivedCustomers == nil {
		d.ArchivedCustomers = []models.Customer{}
		mark("archivedCustomers")
	}
	if d.ArchivedExtinguishers == nil {
		d.ArchivedExtinguishers = []models.Extinguisher{}
		mark("archivedExtinguishers")
	}
	if d.Todos == nil {
		d.Todos = []models.Todo{}
		mark("todos")
	}

	if d.Technicians == nil {
		d.Technicians = []string{}
		mark("technicians")
	}
	if d.ChecklistItems == nil {
		d.ChecklistItems = append([]string(nil), database.DefaultChecklistItems...)
		mark("checklistItems")
	}
	if d.BatteryTypes == nil {
		d.BatteryTypes = []string{}
		mark("batteryTypes")
	}
	if d.AssetTypes == nil {
		d.AssetTypes = append([]string(nil), models.DefaultAssetTypes...)
		mark("assetTypes")
	}
	if d.Brands == nil {
		d.Brands = []string{}
		mark("brands")
	}
	if d.Agents == nil {
		d.Agents = []string{}
		mark("agents")
	}
	if d.DisabledBulkFields == nil {
		d.DisabledBulkFields = []string{}
		mark("disabledBulkFields")
	}
	if d.CustomChecklists == nil {
		d.CustomChecklists = map[string][]string{}
		mark("customChecklists")
	}

	if d.DropboxSettings == nil {
		d.DropboxSettings = models.DefaultDropboxSettings()
		mark("dropboxSettings")
	}
	if d.SupabaseSettings == nil {
		d.SupabaseSettings = models.DefaultSupabaseSettings()
		mark("supabaseSettings")
	}
	if d.VoiplySettings == nil {
		d.VoiplySettings = models.DefaultVoiplySettings()
		mark("voiplySettings")
	}
	if d.DeviceMagicSettings == nil {
		d.DeviceMagicSettings = models.DefaultDeviceMagicSettings()
		mark("deviceMagicSettings")
	}
	if d.NotificationSettings == nil {
		d.NotificationSettings = models.DefaultNotificationSettings()
		mark("notificationSettings")
	} else if d.NotificationSettings.DeviceTokens == nil {
		d.NotificationSettings.DeviceTokens = map[string][]string{}
	}

	// per-record fields added after the first release
	for i := range d.Customers {
		if d.Customers[i].ServiceMonths == nil {
			d.Customers[i].ServiceMonths = []int{}
		}
		if d.Customers[i].SystemMonths == nil {
			d.Customers[i].SystemMonths = []int{}
		}
	}
	for i := range d.Extinguishers {
		if d.Extinguishers[i].Status == "" {
			d.Extinguishers[i].Status = models.StatusPendingInspection
		}
	}
	return filled
}
