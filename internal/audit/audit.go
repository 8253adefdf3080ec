// Package audit filters, records and purges activity-log entries.
//
// Authorization is part of the contract: technicians only ever see their
// own entries, and purge/delete are no-ops for anyone but an admin.
package audit

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"firesafety-backend/internal/metrics"
	"firesafety-backend/internal/models"

	"github.com/rs/zerolog/log"
)

// Age buckets for purge
const (
	Age1Week   = "1w"
	Age1Month  = "1m"
	Age3Months = "3m"
	Age6Months = "6m"
	Age1Year   = "1y"
	AgeAll     = "All"
)

var (
	ErrUnknownAge           = errors.New("audit: unknown age bucket")
	ErrConfirmationMismatch = errors.New("audit: confirmation does not match the number of entries to delete")
)

// Filter narrows a query. Empty fields (or "All") match everything.
type Filter struct {
	Search     string `json:"search"`
	Action     string `json:"action"`
	EntityType string `json:"entityType"`
}

// PurgeCriteria selects entries for bulk deletion. Both parts are optional
// and combine with AND.
type PurgeCriteria struct {
	UserID string `json:"userId"`
	Age    string `json:"age"`
}

// Visible returns the entries viewer may see.
func Visible(entries []models.AuditEntry, viewer models.User) []models.AuditEntry {
	out := make([]models.AuditEntry, 0, len(entries))
	for _, e := range entries {
		if viewer.IsAdmin() || e.UserID == viewer.TechnicianID {
			out = append(out, e)
		}
	}
	return out
}

// Query applies visibility, then the filter, newest first.
func Query(entries []models.AuditEntry, viewer models.User, f Filter) []models.AuditEntry {
	search := strings.ToLower(strings.TrimSpace(f.Search))

	var out []models.AuditEntry
	for _, e := range Visible(entries, viewer) {
		if !matches(f.Action, e.Action) || !matches(f.EntityType, e.EntityType) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(e.EntityName), search) &&
			!strings.Contains(strings.ToLower(e.UserName), search) &&
			!strings.Contains(strings.ToLower(e.Details), search) {
			continue
		}
		out = append(out, e)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return newer(out[i].Timestamp, out[j].Timestamp)
	})
	if out == nil {
		out = []models.AuditEntry{}
	}
	return out
}

func matches(want, got string) bool {
	return want == "" || want == AgeAll || want == got
}

func newer(a, b string) bool {
	ta, okA := models.ParseTimestamp(a)
	tb, okB := models.ParseTimestamp(b)
	if okA && okB {
		return ta.After(tb)
	}
	return a > b
}

// Cutoff returns the instant before which entries fall into the bucket.
// ok is false for "All" and the empty bucket, which apply no age limit.
func Cutoff(age string, now time.Time) (cutoff time.Time, ok bool, err error) {
	switch age {
	case "", AgeAll:
		return time.Time{}, false, nil
	case Age1Week:
		return now.AddDate(0, 0, -7), true, nil
	case Age1Month:
		return now.AddDate(0, -1, 0), true, nil
	case Age3Months:
		return now.AddDate(0, -3, 0), true, nil
	case Age6Months:
		return now.AddDate(0, -6, 0), true, nil
	case Age1Year:
		return now.AddDate(-1, 0, 0), true, nil
	}
	return time.Time{}, false, fmt.Errorf("%w: %q", ErrUnknownAge, age)
}

// PurgeCandidates evaluates criteria over the entire log, ignoring any
// query filter the caller may be showing. Entries with unreadable
// timestamps never match an age bucket.
func PurgeCandidates(entries []models.AuditEntry, c PurgeCriteria, now time.Time) ([]models.AuditEntry, error) {
	cutoff, byAge, err := Cutoff(c.Age, now)
	if err != nil {
		return nil, err
	}

	out := []models.AuditEntry{}
	for _, e := range entries {
		if c.UserID != "" && e.UserID != c.UserID {
			continue
		}
		if byAge {
			ts, ok := models.ParseTimestamp(e.Timestamp)
			if !ok || !ts.Before(cutoff) {
				continue
			}
		}
		out = append(out, e)
	}
	return out, nil
}

// Purge deletes the candidates for c. confirmed must equal the candidate
// count the operator was shown, otherwise nothing is deleted. A non-admin
// viewer gets the log back unchanged.
func Purge(entries []models.AuditEntry, viewer models.User, c PurgeCriteria, confirmed int, now time.Time) ([]models.AuditEntry, int, error) {
	if !viewer.IsAdmin() {
		log.Warn().Str("technician_id", viewer.TechnicianID).Msg("⚠️  non-admin purge ignored")
		return entries, 0, nil
	}

	candidates, err := PurgeCandidates(entries, c, now)
	if err != nil {
		return entries, 0, err
	}
	if confirmed != len(candidates) {
		return entries, 0, fmt.Errorf("%w: confirmed %d, found %d", ErrConfirmationMismatch, confirmed, len(candidates))
	}
	if len(candidates) == 0 {
		return entries, 0, nil
	}

	drop := make(map[string]bool, len(candidates))
	for _, e := range candidates {
		drop[e.ID] = true
	}
	remaining := make([]models.AuditEntry, 0, len(entries)-len(candidates))
	for _, e := range entries {
		if !drop[e.ID] {
			remaining = append(remaining, e)
		}
	}

	deleted := len(entries) - len(remaining)
	metrics.AuditPurged.Add(float64(deleted))
	log.Info().
		Int("deleted", deleted).
		Str("user_filter", c.UserID).
		Str("age", c.Age).
		Str("by", viewer.TechnicianID).
		Msg("🗑️  audit entries purged")
	return remaining, deleted, nil
}

// Describe builds the confirmation prompt for a purge.
func Describe(c PurgeCriteria, count int) string {
	noun := "entries"
	if count == 1 {
		noun = "entry"
	}
	msg := fmt.Sprintf("Permanently delete %d audit %s", count, noun)
	if c.UserID != "" {
		msg += fmt.Sprintf(" by user %s", c.UserID)
	}
	if label := ageLabel(c.Age); label != "" {
		msg += " older than " + label
	}
	return msg + "?"
}

func ageLabel(age string) string {
	switch age {
	case Age1Week:
		return "1 week"
	case Age1Month:
		return "1 month"
	case Age3Months:
		return "3 months"
	case Age6Months:
		return "6 months"
	case Age1Year:
		return "1 year"
	}
	return ""
}

// DeleteOne removes a single entry by id. Admin only; reports whether an
// entry was removed.
func DeleteOne(entries []models.AuditEntry, viewer models.User, id string) ([]models.AuditEntry, bool) {
	if !viewer.IsAdmin() {
		return entries, false
	}
	for i, e := range entries {
		if e.ID == id {
			out := make([]models.AuditEntry, 0, len(entries)-1)
			out = append(out, entries[:i]...)
			out = append(out, entries[i+1:]...)
			metrics.AuditPurged.Inc()
			return out, true
		}
	}
	return entries, false
}

// NewEntry builds an entry attributed to actor.
func NewEntry(action, entityType, entityName string, actor models.User, details string, now time.Time) models.AuditEntry {
	return models.AuditEntry{
		ID:         models.NewID(),
		Action:     action,
		EntityType: entityType,
		EntityName: entityName,
		UserID:     actor.TechnicianID,
		UserName:   actor.Name,
		Timestamp:  models.NowISO(now),
		Details:    details,
	}
}

// Record appends an entry to the snapshot's log.
func Record(d *models.AppData, action, entityType, entityName string, actor models.User, details string, now time.Time) {
	d.AuditLogs = append(d.AuditLogs, NewEntry(action, entityType, entityName, actor, details, now))
}

// SystemActor attributes entries written by scheduled jobs.
var SystemActor = models.User{Name: "System", TechnicianID: "SYSTEM", Role: models.RoleAdmin}
