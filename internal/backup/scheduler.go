package backup

import (
	"context"
	"time"

	"firesafety-backend/internal/audit"
	"firesafety-backend/internal/models"

	"github.com/rs/zerolog/log"
)

// Scheduler pushes each adapter whose auto option is on once its interval
// has passed. A failed push is not retried until the next tick finds it due.
type Scheduler struct {
	svc  *Service
	tick time.Duration
	now  func() time.Time
}

func NewScheduler(svc *Service, tick time.Duration) *Scheduler {
	return &Scheduler{svc: svc, tick: tick, now: time.Now}
}

// Run blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	log.Info().Dur("tick", s.tick).Msg("⏲️  backup scheduler started")
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("⏲️  backup scheduler stopped")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce pushes every due adapter and returns their results by name.
func (s *Scheduler) RunOnce(ctx context.Context) map[string]Result {
	data := s.svc.store.Current()
	if data == nil {
		return nil
	}

	results := map[string]Result{}
	for _, name := range DueAdapters(data, s.now()) {
		results[name] = s.svc.Push(ctx, name, audit.SystemActor)
	}
	return results
}

// DueAdapters lists the adapters with auto push on whose last run is older
// than their interval.
func DueAdapters(data *models.AppData, now time.Time) []string {
	var due []string
	if d := data.DropboxSettings; d != nil && d.Enabled && d.AutoBackup && isDue(d.LastBackup, d.IntervalHours, now) {
		due = append(due, AdapterDropbox)
	}
	if sb := data.SupabaseSettings; sb != nil && sb.Enabled && sb.AutoSync && isDue(sb.LastSync, sb.IntervalHours, now) {
		due = append(due, AdapterSupabase)
	}
	return due
}

func isDue(last *string, intervalHours int, now time.Time) bool {
	if last == nil {
		return true
	}
	t, ok := models.ParseTimestamp(*last)
	if !ok {
		return true
	}
	if intervalHours <= 0 {
		intervalHours = 24
	}
	return !now.Before(t.Add(time.Duration(intervalHours) * time.Hour))
}
