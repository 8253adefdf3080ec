package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
)

// Slot keys
const (
	DataKey    = "fire_safety_app_data"
	SessionKey = "fire_safety_session"
	// biometric credential ids are stored under CredentialKeyPrefix + technicianId
	CredentialKeyPrefix = "fire_safety_credential_"
)

// Slot is a string key-value store: the equivalent of the browser's local
// storage. Get reports ok=false when the key is absent.
type Slot interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// SQLSlot keeps slots in the kv_slots table (SQLite or PostgreSQL).
type SQLSlot struct {
	db *sqlx.DB
}

func NewSQLSlot(db *sqlx.DB) *SQLSlot {
	return &SQLSlot{db: db}
}

func (s *SQLSlot) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.GetContext(ctx, &value, s.db.Rebind(`SELECT value FROM kv_slots WHERE key = ?`), key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read slot %s: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLSlot) Put(ctx context.Context, key, value string) error {
	query := s.db.Rebind(`
		INSERT INTO kv_slots (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`)
	if _, err := s.db.ExecContext(ctx, query, key, value, time.Now().Unix()); err != nil {
		return fmt.Errorf("write slot %s: %w", key, err)
	}
	return nil
}

func (s *SQLSlot) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM kv_slots WHERE key = ?`), key); err != nil {
		return fmt.Errorf("delete slot %s: %w", key, err)
	}
	return nil
}

// MemorySlot is an in-process Slot for tests and throwaway runs.
type MemorySlot struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemorySlot() *MemorySlot {
	return &MemorySlot{data: make(map[string]string)}
}

func (m *MemorySlot) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemorySlot) Put(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MemorySlot) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
