package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"firesafety-backend/internal/models"

	"github.com/go-resty/resty/v2"
)

// SupabaseTable receives one row per push.
const SupabaseTable = "app_snapshots"

// Supabase inserts the reduced snapshot into a PostgREST table.
type Supabase struct {
	client *resty.Client
}

func NewSupabase(baseURL, apiKey string) *Supabase {
	c := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("apikey", apiKey).
		SetAuthToken(apiKey).
		SetTimeout(2 * time.Minute)
	return &Supabase{client: c}
}

func (s *Supabase) Name() string { return "supabase" }

func (s *Supabase) VerifyCredential(ctx context.Context) (bool, error) {
	resp, err := s.client.R().SetContext(ctx).Get("/rest/v1/")
	if err != nil {
		return false, fmt.Errorf("supabase request: %w", err)
	}
	switch resp.StatusCode() {
	case http.StatusUnauthorized, http.StatusForbidden:
		return false, nil
	}
	if resp.IsError() {
		return false, fmt.Errorf("supabase status %d: %s", resp.StatusCode(), resp.String())
	}
	return true, nil
}

// ReducedSnapshot is the row payload: core collections only, never settings
// or users.
type ReducedSnapshot struct {
	Customers     []models.Customer         `json:"customers"`
	Extinguishers []models.Extinguisher     `json:"extinguishers"`
	Inspections   []models.InspectionRecord `json:"inspections"`
	Todos         []models.Todo             `json:"todos"`
	AuditLogs     []models.AuditEntry       `json:"auditLogs"`
}

func Reduce(d *models.AppData) ReducedSnapshot {
	if d == nil {
		return ReducedSnapshot{}
	}
	return ReducedSnapshot{
		Customers:     d.Customers,
		Extinguishers: d.Extinguishers,
		Inspections:   d.Records,
		Todos:         d.Todos,
		AuditLogs:     d.AuditLogs,
	}
}

type snapshotRow struct {
	Data         ReducedSnapshot `json:"data"`
	TechnicianID string          `json:"technician_id"`
	Timestamp    string          `json:"timestamp"`
}

// Push ignores req.Format: the row is always JSON.
func (s *Supabase) Push(ctx context.Context, req PushRequest) Result {
	row := snapshotRow{
		Data:         Reduce(req.Snapshot),
		TechnicianID: req.TechnicianID,
		Timestamp:    models.NowISO(req.Time),
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Prefer", "return=minimal").
		SetBody(&row).
		Post("/rest/v1/" + SupabaseTable)
	if err != nil {
		return fail(KindNetwork, err.Error())
	}
	if resp.IsError() {
		kind := KindBackend
		if resp.StatusCode() == http.StatusUnauthorized {
			kind = KindAuth
		}
		return fail(kind, backendMessage(resp.Body()))
	}
	return ok("Snapshot synced to Supabase")
}

// backendMessage passes the PostgREST error through: its "message" field
// when the body is JSON, otherwise the raw body.
func backendMessage(body []byte) string {
	var e struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &e); err == nil && e.Message != "" {
		return e.Message
	}
	return strings.TrimSpace(string(body))
}
