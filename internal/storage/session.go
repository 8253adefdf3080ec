package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"firesafety-backend/internal/models"

	"github.com/rs/zerolog/log"
)

// SaveSession stores the user with a fresh expiry window.
func (s *Store) SaveSession(ctx context.Context, user models.User) error {
	session := models.Session{
		User:   user,
		Expiry: s.now().Add(s.sessionWindow).UnixMilli(),
	}
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("serialize session: %w", err)
	}
	return s.slot.Put(ctx, SessionKey, string(raw))
}

// LoadSession returns the logged-in user, or nil when there is no session.
// An expired session is deleted; a valid one has its expiry pushed out by
// another full window (sliding, not absolute).
func (s *Store) LoadSession(ctx context.Context) (*models.User, error) {
	raw, ok, err := s.slot.Get(ctx, SessionKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	var session models.Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		log.Warn().Err(err).Msg("⚠️  discarding unreadable session")
		return nil, s.ClearSession(ctx)
	}

	now := s.now()
	if now.UnixMilli() > session.Expiry {
		log.Info().Str("technician_id", session.User.TechnicianID).Msg("⏰ session expired")
		return nil, s.ClearSession(ctx)
	}

	if err := s.SaveSession(ctx, session.User); err != nil {
		return nil, err
	}
	return &session.User, nil
}

func (s *Store) ClearSession(ctx context.Context) error {
	return s.slot.Delete(ctx, SessionKey)
}
