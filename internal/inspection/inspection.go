// Package inspection builds checklists and turns a completed checklist into
// an InspectionRecord.
package inspection

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"firesafety-backend/internal/audit"
	"firesafety-backend/internal/database"
	"firesafety-backend/internal/models"
	"firesafety-backend/internal/services"

	"github.com/rs/zerolog/log"
)

var (
	ErrIncompleteChecklist = errors.New("every checklist item needs a pass or fail result")
	ErrDispositionRequired = errors.New("a failed inspection needs a disposition (Replace or New)")
	ErrUnknownEquipment    = errors.New("equipment not found")
)

// ChecklistFor returns the items for an asset type: the type's custom list
// when one is configured, otherwise the standard list. Item ids are the
// zero-based position as a string.
func ChecklistFor(data *models.AppData, assetType string) []models.ChecklistItem {
	labels := data.CustomChecklists[assetType]
	if len(labels) == 0 {
		labels = data.ChecklistItems
	}
	if len(labels) == 0 {
		labels = database.DefaultChecklistItems
	}

	items := make([]models.ChecklistItem, len(labels))
	for i, label := range labels {
		items[i] = models.ChecklistItem{ID: strconv.Itoa(i), Label: label}
	}
	return items
}

// Validate reports whether a draft can be submitted against checklist.
func Validate(draft models.SubmitInspectionRequest, checklist []models.ChecklistItem) error {
	var missing []string
	failed := false
	for _, item := range checklist {
		v := draft.Checks[item.ID]
		if v == nil {
			missing = append(missing, item.Label)
			continue
		}
		if !*v {
			failed = true
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrIncompleteChecklist, strings.Join(missing, ", "))
	}
	if failed && !models.ValidDisposition(draft.Disposition) {
		return ErrDispositionRequired
	}
	return nil
}

// Submit validates the draft, runs analysis and records the inspection in
// data, updating the inspected unit. analyzer should already be wrapped with
// services.WithFallback. data is modified in place; run it inside a store
// update.
func Submit(ctx context.Context, data *models.AppData, inspector models.User, draft models.SubmitInspectionRequest, analyzer services.AnalysisService, now time.Time) (*models.InspectionRecord, error) {
	record, err := Build(ctx, data, inspector, draft, analyzer, now)
	if err != nil {
		return nil, err
	}
	if err := Apply(data, inspector, record, now); err != nil {
		return nil, err
	}
	return record, nil
}

// Build validates the draft against data and produces the record, running
// analysis. data is only read, so Build can run against a snapshot copy
// while the slow analysis calls are in flight.
func Build(ctx context.Context, data *models.AppData, inspector models.User, draft models.SubmitInspectionRequest, analyzer services.AnalysisService, now time.Time) (*models.InspectionRecord, error) {
	unit, _ := data.FindExtinguisher(draft.ExtinguisherID)
	if unit == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEquipment, draft.ExtinguisherID)
	}

	checklist := ChecklistFor(data, unit.Type)
	if err := Validate(draft, checklist); err != nil {
		return nil, err
	}

	// keep only this checklist's ids so stale keys from another type do not
	// leak into the record
	checks := make(map[string]*bool, len(checklist))
	byLabel := make(map[string]*bool, len(checklist))
	for _, item := range checklist {
		v := *draft.Checks[item.ID]
		checks[item.ID] = &v
		byLabel[item.Label] = &v
	}

	record := &models.InspectionRecord{
		ID:             models.NewID(),
		ExtinguisherID: unit.ID,
		Date:           models.NowISO(now),
		Inspector:      inspector.Name,
		Checks:         checks,
		Notes:          draft.Notes,
	}
	if !record.Passed() {
		record.Disposition = draft.Disposition
	}

	if analyzer != nil {
		if a, _ := analyzer.AnalyzeText(ctx, draft.Notes, byLabel); a != nil {
			record.AIAnalysis = a.Analysis
			record.Severity = a.Severity
			record.Actions = a.Actions
		}
		if len(draft.Photo) > 0 {
			if a, _ := analyzer.AnalyzeImage(ctx, draft.Photo); a != nil {
				record.PhotoAnalysis = a.Analysis
				if severityRank(a.Severity) > severityRank(record.Severity) {
					record.Severity = a.Severity
				}
			}
		}
	}
	return record, nil
}

// Apply stores a built record: it updates the inspected unit, appends the
// record and writes the audit entry.
func Apply(data *models.AppData, inspector models.User, record *models.InspectionRecord, now time.Time) error {
	unit, _ := data.FindExtinguisher(record.ExtinguisherID)
	if unit == nil {
		return fmt.Errorf("%w: %s", ErrUnknownEquipment, record.ExtinguisherID)
	}

	inspected := models.DateISO(now)
	nextDue := models.DateISO(now.AddDate(1, 0, 0))
	unit.LastInspection = &inspected
	unit.NextDue = &nextDue
	unit.Status = StatusFor(record)

	data.Records = append(data.Records, *record)
	audit.Record(data, models.ActionUpdated, models.EntityAsset,
		fmt.Sprintf("Unit %s - %s", unit.UnitNumber, unit.Location),
		inspector, fmt.Sprintf("Inspection submitted (%s)", passLabel(record)), now)

	log.Info().
		Str("extinguisher_id", unit.ID).
		Str("inspector", inspector.TechnicianID).
		Bool("passed", record.Passed()).
		Str("severity", record.Severity).
		Msg("📋 inspection recorded")
	return nil
}

// StatusFor derives the unit status after an inspection.
func StatusFor(r *models.InspectionRecord) string {
	switch {
	case r.Severity == models.SeverityCritical:
		return models.StatusCritical
	case !r.Passed() || r.Severity == models.SeverityHigh:
		return models.StatusNeedsAttention
	}
	return models.StatusOperational
}

// NeedsAlert reports whether the record should notify the assigned
// technician.
func NeedsAlert(r *models.InspectionRecord) bool {
	return !r.Passed() || r.Severity == models.SeverityCritical
}

func severityRank(s string) int {
	switch s {
	case models.SeverityMedium:
		return 1
	case models.SeverityHigh:
		return 2
	case models.SeverityCritical:
		return 3
	}
	return 0
}

func passLabel(r *models.InspectionRecord) string {
	if r.Passed() {
		return "passed"
	}
	return "failed, " + r.Disposition
}
