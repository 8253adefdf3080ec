package auth

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"errors"

	"firesafety-backend/internal/storage"
)

// CredentialOracle is the device's biometric check (WebAuthn on the UI
// side). It answers whether the enrolled credential for technicianID was
// just presented.
type CredentialOracle interface {
	Verify(ctx context.Context, technicianID string) bool
}

// CredentialStore keeps one opaque credential id per technician. Presence
// of the key is the enrollment signal; nothing else is stored.
type CredentialStore struct {
	slot storage.Slot
}

func NewCredentialStore(slot storage.Slot) *CredentialStore {
	return &CredentialStore{slot: slot}
}

func credentialKey(technicianID string) string {
	return storage.CredentialKeyPrefix + technicianID
}

// Enroll stores credentialID (raw bytes from the authenticator) base64 encoded.
func (s *CredentialStore) Enroll(ctx context.Context, technicianID string, credentialID []byte) error {
	if technicianID == "" || len(credentialID) == 0 {
		return errors.New("technician id and credential id are required")
	}
	return s.slot.Put(ctx, credentialKey(technicianID), base64.StdEncoding.EncodeToString(credentialID))
}

// Lookup returns the base64 credential id.
func (s *CredentialStore) Lookup(ctx context.Context, technicianID string) (string, bool, error) {
	return s.slot.Get(ctx, credentialKey(technicianID))
}

func (s *CredentialStore) IsEnrolled(ctx context.Context, technicianID string) (bool, error) {
	_, ok, err := s.Lookup(ctx, technicianID)
	return ok, err
}

func (s *CredentialStore) Remove(ctx context.Context, technicianID string) error {
	return s.slot.Delete(ctx, credentialKey(technicianID))
}

// PresentedCredential is the oracle for a credential id the client echoes
// back after a successful platform assertion.
type PresentedCredential struct {
	Store *CredentialStore
	ID    []byte
}

func (p PresentedCredential) Verify(ctx context.Context, technicianID string) bool {
	stored, ok, err := p.Store.Lookup(ctx, technicianID)
	if err != nil || !ok {
		return false
	}
	want, err := base64.StdEncoding.DecodeString(stored)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(want, p.ID) == 1
}
