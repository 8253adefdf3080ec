package auth

import (
	"context"
	"errors"
	"strings"

	"firesafety-backend/internal/models"

	"github.com/rs/zerolog/log"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotEnrolled        = errors.New("no biometric credential enrolled")
)

// FindUser matches an email (case-insensitive) or a technician id.
func FindUser(data *models.AppData, identifier string) *models.RegisteredUser {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || data == nil {
		return nil
	}
	for i := range data.RegisteredUsers {
		u := &data.RegisteredUsers[i]
		if strings.EqualFold(u.Email, identifier) || u.TechnicianID == identifier {
			return u
		}
	}
	return nil
}

// Login checks identifier and PIN against the registered users and returns
// the session projection.
func Login(data *models.AppData, identifier, pin string, verifier CredentialVerifier) (models.User, error) {
	user := FindUser(data, identifier)
	if user == nil || !verifier.Verify(user, pin) {
		log.Warn().Str("identifier", identifier).Msg("❌ login rejected")
		return models.User{}, ErrInvalidCredentials
	}
	log.Info().Str("technician_id", user.TechnicianID).Str("role", user.Role).Msg("✅ login")
	return user.ToSessionUser(), nil
}

// BiometricLogin logs a technician in after the device oracle confirms the
// enrolled credential.
func BiometricLogin(ctx context.Context, data *models.AppData, technicianID string, store *CredentialStore, oracle CredentialOracle) (models.User, error) {
	user := FindUser(data, technicianID)
	if user == nil {
		return models.User{}, ErrInvalidCredentials
	}
	enrolled, err := store.IsEnrolled(ctx, technicianID)
	if err != nil {
		return models.User{}, err
	}
	if !enrolled {
		return models.User{}, ErrNotEnrolled
	}
	if oracle == nil || !oracle.Verify(ctx, technicianID) {
		return models.User{}, ErrInvalidCredentials
	}
	return user.ToSessionUser(), nil
}
