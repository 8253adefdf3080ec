// Package auth verifies technician PINs, issues access tokens and keeps
// the biometric credential ids.
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"firesafety-backend/internal/models"

	"golang.org/x/crypto/bcrypt"
)

const (
	MinPINLength = 4
	MaxPINLength = 8
)

// CredentialVerifier checks a PIN against a registered user. Callers never
// look at how the PIN is stored.
type CredentialVerifier interface {
	Verify(user *models.RegisteredUser, pin string) bool
}

// PlaintextVerifier accepts legacy rows that still hold the raw PIN.
type PlaintextVerifier struct{}

func (PlaintextVerifier) Verify(user *models.RegisteredUser, pin string) bool {
	if user == nil || user.PIN == "" || pin == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(user.PIN), []byte(pin)) == 1
}

// BcryptVerifier checks PINHash.
type BcryptVerifier struct{}

func (BcryptVerifier) Verify(user *models.RegisteredUser, pin string) bool {
	if user == nil || user.PINHash == "" || pin == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(user.PINHash), []byte(pin)) == nil
}

// ChainVerifier accepts the first verifier that succeeds.
type ChainVerifier []CredentialVerifier

func (c ChainVerifier) Verify(user *models.RegisteredUser, pin string) bool {
	for _, v := range c {
		if v.Verify(user, pin) {
			return true
		}
	}
	return false
}

// DefaultVerifier prefers the hash and falls back to legacy plaintext rows.
func DefaultVerifier() CredentialVerifier {
	return ChainVerifier{BcryptVerifier{}, PlaintextVerifier{}}
}

// ValidatePIN checks PIN shape: digits only, 4 to 8 long.
func ValidatePIN(pin string) error {
	if len(pin) < MinPINLength || len(pin) > MaxPINLength {
		return fmt.Errorf("PIN must be %d to %d digits", MinPINLength, MaxPINLength)
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return errors.New("PIN must contain digits only")
		}
	}
	return nil
}

// HashPIN hashes a PIN for storage in RegisteredUser.PINHash.
func HashPIN(pin string) (string, error) {
	if err := ValidatePIN(pin); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash PIN: %w", err)
	}
	return string(hash), nil
}

// UpgradePIN replaces a plaintext PIN with its hash. It reports whether the
// user changed.
func UpgradePIN(user *models.RegisteredUser) (bool, error) {
	if user.PIN == "" || user.PINHash != "" {
		return false, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(user.PIN), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("failed to hash PIN: %w", err)
	}
	user.PINHash = string(hash)
	user.PIN = ""
	return true, nil
}
