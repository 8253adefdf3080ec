package inspection

import (
	"context"
	"testing"
	"time"

	"firesafety-backend/internal/models"
	"firesafety-backend/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 7, 14, 15, 0, 0, 0, time.UTC)

var inspector = models.User{Name: "Alex Morgan", TechnicianID: "TECH-002", Role: models.RoleTech}

func boolPtr(b bool) *bool { return &b }

func threeItemSnapshot() *models.AppData {
	return &models.AppData{
		Customers: []models.Customer{{ID: "c1", Name: "Acme"}},
		Extinguishers: []models.Extinguisher{
			{ID: "e1", CustomerID: "c1", UnitNumber: "1", Location: "Lobby", Type: "Exit Sign", Status: models.StatusPendingInspection},
		},
		ChecklistItems: []string{"Standard A", "Standard B"},
		CustomChecklists: map[string][]string{
			"Exit Sign": {"Illuminated", "Battery test", "Housing intact"},
		},
	}
}

type stubAnalyzer struct {
	text  *services.Analysis
	image *services.Analysis
}

func (s stubAnalyzer) AnalyzeText(context.Context, string, map[string]*bool) (*services.Analysis, error) {
	return s.text, nil
}

func (s stubAnalyzer) AnalyzeImage(context.Context, []byte) (*services.Analysis, error) {
	return s.image, nil
}

func TestChecklistFor(t *testing.T) {
	data := threeItemSnapshot()

	custom := ChecklistFor(data, "Exit Sign")
	require.Len(t, custom, 3)
	assert.Equal(t, models.ChecklistItem{ID: "2", Label: "Housing intact"}, custom[2])

	std := ChecklistFor(data, "CO2")
	assert.Len(t, std, 2)

	empty := ChecklistFor(&models.AppData{}, "CO2")
	assert.Len(t, empty, 8)
}

func TestValidate_Incomplete(t *testing.T) {
	checklist := ChecklistFor(threeItemSnapshot(), "Exit Sign")
	draft := models.SubmitInspectionRequest{Checks: map[string]*bool{"0": boolPtr(true), "1": nil}}

	err := Validate(draft, checklist)
	assert.ErrorIs(t, err, ErrIncompleteChecklist)
	assert.Contains(t, err.Error(), "Battery test")
	assert.Contains(t, err.Error(), "Housing intact")
}

func TestSubmit_FailedCheckNeedsDisposition(t *testing.T) {
	ctx := context.Background()
	data := threeItemSnapshot()
	draft := models.SubmitInspectionRequest{
		ExtinguisherID: "e1",
		Checks:         map[string]*bool{"0": boolPtr(true), "1": boolPtr(true), "2": boolPtr(false)},
		Notes:          "cracked housing",
	}
	analyzer := services.WithFallback(nil)

	_, err := Submit(ctx, data, inspector, draft, analyzer, now)
	require.ErrorIs(t, err, ErrDispositionRequired)
	assert.Empty(t, data.Records)

	draft.Disposition = models.DispositionReplace
	rec, err := Submit(ctx, data, inspector, draft, analyzer, now)
	require.NoError(t, err)

	assert.Equal(t, models.DispositionReplace, rec.Disposition)
	assert.False(t, rec.Passed())
	require.Len(t, data.Records, 1)
	assert.Equal(t, rec.ID, data.Records[0].ID)

	unit := data.Extinguishers[0]
	assert.Equal(t, models.StatusNeedsAttention, unit.Status)
	require.NotNil(t, unit.LastInspection)
	assert.Equal(t, "2025-07-14", *unit.LastInspection)
	assert.Equal(t, "2026-07-14", *unit.NextDue)

	require.Len(t, data.AuditLogs, 1)
	assert.Equal(t, "TECH-002", data.AuditLogs[0].UserID)
	assert.Equal(t, services.FallbackAnalysis().Analysis, rec.AIAnalysis)
}

func TestSubmit_PassUsesAnalysis(t *testing.T) {
	data := threeItemSnapshot()
	draft := models.SubmitInspectionRequest{
		ExtinguisherID: "e1",
		Checks:         map[string]*bool{"0": boolPtr(true), "1": boolPtr(true), "2": boolPtr(true), "stale": boolPtr(false)},
		Disposition:    models.DispositionNew,
		Photo:          []byte{0xff, 0xd8},
	}
	analyzer := stubAnalyzer{
		text:  &services.Analysis{Analysis: "All good", Severity: models.SeverityLow},
		image: &services.Analysis{Analysis: "Scorch mark", Severity: models.SeverityCritical},
	}

	rec, err := Submit(context.Background(), data, inspector, draft, analyzer, now)
	require.NoError(t, err)

	assert.True(t, rec.Passed())
	assert.Empty(t, rec.Disposition, "disposition only applies to failed inspections")
	assert.NotContains(t, rec.Checks, "stale")
	assert.Equal(t, "Scorch mark", rec.PhotoAnalysis)
	assert.Equal(t, models.SeverityCritical, rec.Severity)
	assert.Equal(t, models.StatusCritical, data.Extinguishers[0].Status)
	assert.True(t, NeedsAlert(rec))
}

func TestSubmit_UnknownEquipment(t *testing.T) {
	_, err := Submit(context.Background(), threeItemSnapshot(), inspector,
		models.SubmitInspectionRequest{ExtinguisherID: "nope"}, nil, now)
	assert.ErrorIs(t, err, ErrUnknownEquipment)
}

func TestBuild_DoesNotMutate(t *testing.T) {
	data := threeItemSnapshot()
	draft := models.SubmitInspectionRequest{
		ExtinguisherID: "e1",
		Checks:         map[string]*bool{"0": boolPtr(true), "1": boolPtr(true), "2": boolPtr(true)},
	}

	rec, err := Build(context.Background(), data, inspector, draft, nil, now)
	require.NoError(t, err)
	assert.Empty(t, data.Records)
	assert.Nil(t, data.Extinguishers[0].LastInspection)

	// the unit may be archived between build and apply
	data.Extinguishers = nil
	assert.ErrorIs(t, Apply(data, inspector, rec, now), ErrUnknownEquipment)
	assert.Empty(t, data.AuditLogs)
}
