// Package storage persists the application snapshot and the login session
// to a key-value slot.
//
// The snapshot is handled as an immutable value: readers get clones, and
// every write goes through one writer goroutine that stamps lastUpdated,
// rewrites the whole slot and bumps a monotonic version. Subscribers are
// told about each committed version so other open sessions can refresh.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"firesafety-backend/internal/database"
	"firesafety-backend/internal/metrics"
	"firesafety-backend/internal/models"

	"github.com/rs/zerolog/log"
)

// DefaultSessionWindow is the sliding session lifetime.
const DefaultSessionWindow = 12 * time.Hour

var ErrClosed = errors.New("storage: store closed")

// ErrPanicked wraps a panic raised by an update callback. The snapshot is
// left as it was.
var ErrPanicked = errors.New("storage: update panicked")

// Event is published after every committed snapshot write.
type Event struct {
	Version     uint64 `json:"version"`
	LastUpdated string `json:"lastUpdated"`
}

type Option func(*Store)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithSessionWindow(d time.Duration) Option {
	return func(s *Store) { s.sessionWindow = d }
}

// WithSeed replaces the first-run demo snapshot.
func WithSeed(seed func(time.Time) *models.AppData) Option {
	return func(s *Store) { s.seed = seed }
}

type writeResult struct {
	data *models.AppData
	err  error
}

type writeRequest struct {
	ctx    context.Context
	build  func(current *models.AppData) (*models.AppData, error)
	result chan writeResult
}

type Store struct {
	slot          Slot
	now           func() time.Time
	sessionWindow time.Duration
	seed          func(time.Time) *models.AppData

	mu      sync.RWMutex
	current *models.AppData
	version uint64

	writes    chan writeRequest
	done      chan struct{}
	closeOnce sync.Once

	subMu   sync.Mutex
	subs    map[int]chan Event
	nextSub int
}

// NewStore starts the writer goroutine; call Close to stop it.
func NewStore(slot Slot, opts ...Option) *Store {
	s := &Store{
		slot:          slot,
		now:           time.Now,
		sessionWindow: DefaultSessionWindow,
		seed:          database.DemoSnapshot,
		writes:        make(chan writeRequest),
		done:          make(chan struct{}),
		subs:          make(map[int]chan Event),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.writer()
	return s
}

func (s *Store) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.subMu.Lock()
		for id, ch := range s.subs {
			close(ch)
			delete(s.subs, id)
		}
		s.subMu.Unlock()
	})
}

// Load reads the snapshot from the slot. An empty slot is seeded with the
// demo snapshot and persisted. A snapshot that fails to parse is logged and
// reported as no data (nil, nil); callers must not treat that as fatal.
func (s *Store) Load(ctx context.Context) (*models.AppData, error) {
	raw, ok, err := s.slot.Get(ctx, DataKey)
	if err != nil {
		log.Error().Err(err).Msg("❌ failed to read snapshot slot")
		return nil, err
	}

	if !ok {
		log.Info().Msg("📂 no snapshot found, seeding demo data")
		return s.Save(ctx, s.seed(s.now()))
	}

	var data models.AppData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		log.Error().Err(err).Int("bytes", len(raw)).Msg("❌ snapshot slot is not valid JSON, treating as no data")
		return nil, nil
	}

	if filled := BackFill(&data); len(filled) > 0 {
		log.Info().Strs("fields", filled).Msg("🔄 back-filled fields missing from older snapshot")
	}

	s.mu.Lock()
	s.current = &data
	s.mu.Unlock()

	return data.Clone(), nil
}

// Save stamps lastUpdated, rewrites the slot and publishes the snapshot as
// current. Last write wins.
func (s *Store) Save(ctx context.Context, snapshot *models.AppData) (*models.AppData, error) {
	if snapshot == nil {
		return nil, errors.New("storage: nil snapshot")
	}
	next := snapshot.Clone()
	return s.submit(ctx, func(*models.AppData) (*models.AppData, error) {
		return next, nil
	})
}

// Update applies fn to a copy of the current snapshot and commits the result.
// If fn returns an error nothing is written.
func (s *Store) Update(ctx context.Context, fn func(*models.AppData) error) (*models.AppData, error) {
	return s.submit(ctx, func(current *models.AppData) (*models.AppData, error) {
		var next *models.AppData
		if current == nil {
			next = &models.AppData{}
			BackFill(next)
		} else {
			next = current.Clone()
		}
		if err := fn(next); err != nil {
			return nil, err
		}
		return next, nil
	})
}

// Current returns a copy of the last committed or loaded snapshot, or nil.
func (s *Store) Current() *models.AppData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Subscribe returns a channel of committed-write events. Slow subscribers
// miss events rather than block the writer.
func (s *Store) Subscribe() (<-chan Event, func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	ch := make(chan Event, 16)
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch

	return ch, func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		if c, ok := s.subs[id]; ok {
			close(c)
			delete(s.subs, id)
		}
	}
}

func (s *Store) submit(ctx context.Context, build func(*models.AppData) (*models.AppData, error)) (*models.AppData, error) {
	req := writeRequest{ctx: ctx, build: build, result: make(chan writeResult, 1)}

	select {
	case s.writes <- req:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.done:
		return nil, ErrClosed
	}

	res := <-req.result
	return res.data, res.err
}

func (s *Store) writer() {
	for {
		select {
		case <-s.done:
			return
		case req := <-s.writes:
			data, err := s.commit(req)
			req.result <- writeResult{data: data, err: err}
		}
	}
}

func (s *Store) commit(req writeRequest) (*models.AppData, error) {
	if err := req.ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	current := s.current
	s.mu.RUnlock()

	next, err := safeBuild(req.build, current)
	if err != nil {
		return nil, err
	}

	next.LastUpdated = models.NowISO(s.now())

	raw, err := json.Marshal(next)
	if err != nil {
		metrics.SnapshotSaves.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("serialize snapshot: %w", err)
	}
	if err := s.slot.Put(req.ctx, DataKey, string(raw)); err != nil {
		metrics.SnapshotSaves.WithLabelValues("error").Inc()
		log.Error().Err(err).Msg("❌ failed to write snapshot slot")
		return nil, err
	}

	s.mu.Lock()
	s.current = next
	s.version++
	version := s.version
	s.mu.Unlock()

	metrics.SnapshotSaves.WithLabelValues("ok").Inc()
	metrics.SnapshotBytes.Set(float64(len(raw)))
	metrics.SnapshotVersion.Set(float64(version))
	log.Debug().Uint64("version", version).Int("bytes", len(raw)).Msg("💾 snapshot saved")

	s.publish(Event{Version: version, LastUpdated: next.LastUpdated})
	return next.Clone(), nil
}

// safeBuild runs build on the writer goroutine, where chi's Recoverer
// cannot reach.
func safeBuild(build func(*models.AppData) (*models.AppData, error), current *models.AppData) (next *models.AppData, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("stack", string(debug.Stack())).Msg("❌ snapshot update panicked")
			next, err = nil, fmt.Errorf("%w: %v", ErrPanicked, r)
		}
	}()
	return build(current)
}

func (s *Store) publish(ev Event) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
