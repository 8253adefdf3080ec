package backup

import (
	"context"
	"errors"
	"sync"
	"time"

	"firesafety-backend/internal/audit"
	"firesafety-backend/internal/metrics"
	"firesafety-backend/internal/models"
	"firesafety-backend/internal/storage"

	"github.com/rs/zerolog/log"
)

// Adapter names
const (
	AdapterDropbox  = "dropbox"
	AdapterSupabase = "supabase"
)

var ErrUnknownAdapter = errors.New("unknown backup adapter")

// Service pushes the store's current snapshot through the configured
// adapters and records the outcome in settings and the audit log.
type Service struct {
	store *storage.Store
	now   func() time.Time

	dropboxAPI     string
	dropboxContent string

	mu       sync.Mutex
	inFlight map[string]bool
}

type ServiceOption func(*Service)

// WithDropboxEndpoints overrides the Dropbox hosts, for tests.
func WithDropboxEndpoints(apiURL, contentURL string) ServiceOption {
	return func(s *Service) {
		s.dropboxAPI = apiURL
		s.dropboxContent = contentURL
	}
}

func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

func NewService(store *storage.Store, opts ...ServiceOption) *Service {
	s := &Service{
		store:          store,
		now:            time.Now,
		dropboxAPI:     DropboxAPIURL,
		dropboxContent: DropboxContentURL,
		inFlight:       make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// adapter builds the named adapter from current settings. A disabled or
// incomplete configuration yields a not-configured result.
func (s *Service) adapter(name string, data *models.AppData) (Adapter, string, *Result) {
	switch name {
	case AdapterDropbox:
		cfg := data.DropboxSettings
		if cfg == nil || !cfg.Enabled || cfg.AccessToken == "" {
			r := fail(KindNotConfigured, "Dropbox backup is not configured")
			return nil, "", &r
		}
		return NewDropboxWithEndpoints(cfg.AccessToken, s.dropboxAPI, s.dropboxContent), cfg.Format, nil
	case AdapterSupabase:
		cfg := data.SupabaseSettings
		if cfg == nil || !cfg.Enabled || cfg.URL == "" || cfg.APIKey == "" {
			r := fail(KindNotConfigured, "Supabase sync is not configured")
			return nil, "", &r
		}
		return NewSupabase(cfg.URL, cfg.APIKey), models.FormatJSON, nil
	}
	r := fail(KindNotConfigured, ErrUnknownAdapter.Error())
	return nil, "", &r
}

func (s *Service) acquire(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[name] {
		return false
	}
	s.inFlight[name] = true
	return true
}

func (s *Service) release(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, name)
}

// Push sends the current snapshot through the named adapter. Only one push
// per adapter runs at a time; a second caller gets a busy result.
func (s *Service) Push(ctx context.Context, name string, actor models.User) Result {
	if !s.acquire(name) {
		metrics.BackupPushes.WithLabelValues(name, string(KindBusy)).Inc()
		return fail(KindBusy, "Backup already in progress")
	}
	defer s.release(name)

	data := s.store.Current()
	if data == nil {
		return fail(KindNotConfigured, "No data loaded")
	}

	adapter, format, bad := s.adapter(name, data)
	if bad != nil {
		metrics.BackupPushes.WithLabelValues(name, string(bad.Kind)).Inc()
		return *bad
	}

	started := s.now()
	result := adapter.Push(ctx, PushRequest{
		Snapshot:     data,
		Format:       format,
		TechnicianID: actor.TechnicianID,
		Time:         started,
	})
	metrics.BackupDuration.WithLabelValues(name).Observe(time.Since(started).Seconds())

	outcome := "success"
	if !result.Success {
		outcome = string(result.Kind)
	}
	metrics.BackupPushes.WithLabelValues(name, outcome).Inc()

	if result.Success {
		log.Info().Str("adapter", name).Str("by", actor.TechnicianID).Msg("☁️  backup pushed")
	} else {
		log.Warn().Str("adapter", name).Str("kind", string(result.Kind)).Str("message", result.Message).Msg("⚠️  backup push failed")
	}

	if _, err := s.store.Update(ctx, func(d *models.AppData) error {
		stamp := models.NowISO(started)
		if result.Success {
			switch name {
			case AdapterDropbox:
				if d.DropboxSettings != nil {
					d.DropboxSettings.LastBackup = &stamp
				}
			case AdapterSupabase:
				if d.SupabaseSettings != nil {
					d.SupabaseSettings.LastSync = &stamp
				}
			}
		}
		detail := result.Message
		if !result.Success {
			detail = "failed: " + detail
		}
		audit.Record(d, models.ActionUpdated, models.EntitySystem, backupLabel(name), actor, detail, started)
		return nil
	}); err != nil {
		// the push itself already happened; report it and move on
		log.Error().Err(err).Str("adapter", name).Msg("❌ failed to record backup outcome")
	}
	return result
}

// Verify checks the credential in current settings.
func (s *Service) Verify(ctx context.Context, name string) (bool, error) {
	data := s.store.Current()
	if data == nil {
		return false, errors.New("no data loaded")
	}
	adapter, _, bad := s.adapter(name, data)
	if bad != nil {
		return false, errors.New(bad.Message)
	}
	return adapter.VerifyCredential(ctx)
}

// SaveDropboxSettings replaces the Dropbox settings. lastBackup is owned by
// the service and kept from the stored settings.
func (s *Service) SaveDropboxSettings(ctx context.Context, actor models.User, in models.DropboxSettings) (*models.DropboxSettings, error) {
	if in.Format != models.FormatXLSX {
		in.Format = models.FormatJSON
	}
	if in.IntervalHours <= 0 {
		in.IntervalHours = models.DefaultDropboxSettings().IntervalHours
	}
	data, err := s.store.Update(ctx, func(d *models.AppData) error {
		if d.DropboxSettings != nil {
			in.LastBackup = d.DropboxSettings.LastBackup
		}
		d.DropboxSettings = &in
		audit.Record(d, models.ActionUpdated, models.EntitySystem, "Dropbox settings", actor, "", s.now())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data.DropboxSettings, nil
}

// SaveSupabaseSettings replaces the Supabase settings, keeping lastSync.
func (s *Service) SaveSupabaseSettings(ctx context.Context, actor models.User, in models.SupabaseSettings) (*models.SupabaseSettings, error) {
	if in.IntervalHours <= 0 {
		in.IntervalHours = models.DefaultSupabaseSettings().IntervalHours
	}
	data, err := s.store.Update(ctx, func(d *models.AppData) error {
		if d.SupabaseSettings != nil {
			in.LastSync = d.SupabaseSettings.LastSync
		}
		d.SupabaseSettings = &in
		audit.Record(d, models.ActionUpdated, models.EntitySystem, "Supabase settings", actor, "", s.now())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data.SupabaseSettings, nil
}

func backupLabel(name string) string {
	switch name {
	case AdapterDropbox:
		return "Dropbox backup"
	case AdapterSupabase:
		return "Supabase sync"
	}
	return name
}
