// Package merge reconciles the local snapshot with an imported one.
//
// Entities are matched by id and the incoming copy replaces the current one
// whole (last writer wins per entity, never per field). Registries are
// unioned. Backup credentials and notification device tokens are never
// taken from an import.
package merge

import (
	"time"

	"firesafety-backend/internal/models"
)

// Merge returns a new snapshot combining current and incoming. Neither
// argument is modified. A nil collection or settings pointer in incoming
// means "no change" for that field. The result is stamped with the current
// time.
func Merge(current, incoming *models.AppData) *models.AppData {
	return MergeAt(current, incoming, time.Now())
}

// MergeAt is Merge with an explicit clock.
func MergeAt(current, incoming *models.AppData, now time.Time) *models.AppData {
	out := current.Clone()
	if out == nil {
		out = &models.AppData{}
	}
	if incoming == nil {
		out.LastUpdated = models.NowISO(now)
		return out
	}
	in := incoming.Clone()

	out.Customers = unionByID(out.Customers, in.Customers, customerID)
	out.Extinguishers = unionByID(out.Extinguishers, in.Extinguishers, extinguisherID)
	out.Records = unionByID(out.Records, in.Records, recordID)
	out.AuditLogs = unionByID(out.AuditLogs, in.AuditLogs, auditID)
	out.RegisteredUsers = unionByID(out.RegisteredUsers, in.RegisteredUsers, userID)
	out.ArchivedCustomers = unionByID(out.ArchivedCustomers, in.ArchivedCustomers, customerID)
	out.ArchivedExtinguishers = unionByID(out.ArchivedExtinguishers, in.ArchivedExtinguishers, extinguisherID)
	out.Todos = unionByID(out.Todos, in.Todos, todoID)

	out.Technicians = unionStrings(out.Technicians, in.Technicians)
	out.ChecklistItems = unionStrings(out.ChecklistItems, in.ChecklistItems)
	out.BatteryTypes = unionStrings(out.BatteryTypes, in.BatteryTypes)
	out.AssetTypes = unionStrings(out.AssetTypes, in.AssetTypes)
	out.Brands = unionStrings(out.Brands, in.Brands)
	out.Agents = unionStrings(out.Agents, in.Agents)
	out.DisabledBulkFields = unionStrings(out.DisabledBulkFields, in.DisabledBulkFields)

	if len(in.CustomChecklists) > 0 {
		if out.CustomChecklists == nil {
			out.CustomChecklists = make(map[string][]string, len(in.CustomChecklists))
		}
		for assetType, items := range in.CustomChecklists {
			out.CustomChecklists[assetType] = items
		}
	}

	// Backup destinations and push device tokens are local-only. out keeps
	// whatever current had, including nil.
	if in.VoiplySettings != nil {
		out.VoiplySettings = in.VoiplySettings
	}
	if in.DeviceMagicSettings != nil {
		out.DeviceMagicSettings = in.DeviceMagicSettings
	}

	out.LastUpdated = models.NowISO(now)
	return out
}

func customerID(c models.Customer) string         { return c.ID }
func extinguisherID(e models.Extinguisher) string { return e.ID }
func recordID(r models.InspectionRecord) string   { return r.ID }
func auditID(a models.AuditEntry) string          { return a.ID }
func userID(u models.RegisteredUser) string       { return u.ID }
func todoID(t models.Todo) string                 { return t.ID }

// unionByID keeps current's order, replaces colliding ids in place with the
// incoming entity and appends new ids in incoming order. Duplicate ids inside
// incoming collapse to the last one.
func unionByID[T any](current, incoming []T, id func(T) string) []T {
	if incoming == nil {
		return current
	}

	out := make([]T, 0, len(current)+len(incoming))
	index := make(map[string]int, len(current)+len(incoming))
	for _, item := range current {
		key := id(item)
		if i, ok := index[key]; ok {
			out[i] = item
			continue
		}
		index[key] = len(out)
		out = append(out, item)
	}
	for _, item := range incoming {
		key := id(item)
		if i, ok := index[key]; ok {
			out[i] = item
			continue
		}
		index[key] = len(out)
		out = append(out, item)
	}
	return out
}

func unionStrings(current, incoming []string) []string {
	if incoming == nil {
		return current
	}
	seen := make(map[string]bool, len(current)+len(incoming))
	out := make([]string, 0, len(current)+len(incoming))
	for _, list := range [][]string{current, incoming} {
		for _, s := range list {
			if seen[s] {
				continue
			}
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
