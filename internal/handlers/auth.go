package handlers

import (
	"context"
	"errors"
	"net/http"

	"firesafety-backend/internal/auth"
	"firesafety-backend/internal/models"
	"firesafety-backend/internal/storage"
	"firesafety-backend/pkg/utils"

	"github.com/rs/zerolog/log"
)

type LoginRequest struct {
	Identifier string `json:"identifier"` // email or technicianId
	PIN        string `json:"pin"`
}

type LoginResponse struct {
	OK    bool         `json:"ok"`
	Token string       `json:"token,omitempty"`
	User  *models.User `json:"user,omitempty"`
}

type BiometricRequest struct {
	TechnicianID string `json:"technicianId"`
	CredentialID []byte `json:"credentialId"` // base64 in JSON
}

// Login checks identifier and PIN, starts the local session and issues an
// access token.
func Login(store *storage.Store, tokens *auth.TokenManager, verifier auth.CredentialVerifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := utils.DecodeJSON(r, &req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}

		data, ok := currentData(w, store)
		if !ok {
			return
		}

		user, err := auth.Login(data, req.Identifier, req.PIN, verifier)
		if err != nil {
			utils.RespondJSON(w, http.StatusUnauthorized, LoginResponse{OK: false})
			return
		}

		upgradeLegacyPIN(r.Context(), store, user.TechnicianID)
		startSession(w, r, store, tokens, user)
	}
}

// upgradeLegacyPIN replaces a plaintext PIN with its hash after a
// successful login. Failure leaves the plaintext row working.
func upgradeLegacyPIN(ctx context.Context, store *storage.Store, technicianID string) {
	data := store.Current()
	if u := data.FindUserByTechnicianID(technicianID); u == nil || u.PIN == "" {
		return
	}
	_, err := store.Update(ctx, func(d *models.AppData) error {
		u := d.FindUserByTechnicianID(technicianID)
		if u == nil {
			return ErrNotFound
		}
		_, err := auth.UpgradePIN(u)
		return err
	})
	if err != nil {
		log.Warn().Err(err).Str("technician_id", technicianID).Msg("⚠️  failed to upgrade legacy PIN")
		return
	}
	log.Info().Str("technician_id", technicianID).Msg("🔐 legacy PIN upgraded to hash")
}

func startSession(w http.ResponseWriter, r *http.Request, store *storage.Store, tokens *auth.TokenManager, user models.User) {
	if err := store.SaveSession(r.Context(), user); err != nil {
		log.Error().Err(err).Msg("❌ failed to save session")
		utils.RespondError(w, http.StatusInternalServerError, "Failed to start session")
		return
	}
	token, err := tokens.Issue(user)
	if err != nil {
		log.Error().Err(err).Msg("❌ failed to issue token")
		utils.RespondError(w, http.StatusInternalServerError, "Failed to create token")
		return
	}
	utils.RespondJSON(w, http.StatusOK, LoginResponse{OK: true, Token: token, User: &user})
}

// BiometricLogin logs in with an enrolled platform credential.
func BiometricLogin(store *storage.Store, creds *auth.CredentialStore, tokens *auth.TokenManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BiometricRequest
		if err := utils.DecodeJSON(r, &req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		data, ok := currentData(w, store)
		if !ok {
			return
		}

		oracle := auth.PresentedCredential{Store: creds, ID: req.CredentialID}
		user, err := auth.BiometricLogin(r.Context(), data, req.TechnicianID, creds, oracle)
		switch {
		case errors.Is(err, auth.ErrNotEnrolled):
			utils.RespondError(w, http.StatusPreconditionFailed, err.Error())
			return
		case err != nil:
			utils.RespondJSON(w, http.StatusUnauthorized, LoginResponse{OK: false})
			return
		}
		startSession(w, r, store, tokens, user)
	}
}

// EnrollBiometric stores the caller's platform credential id.
func EnrollBiometric(creds *auth.CredentialStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := requireUser(w, r)
		if !ok {
			return
		}
		var req BiometricRequest
		if err := utils.DecodeJSON(r, &req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := creds.Enroll(r.Context(), user.TechnicianID, req.CredentialID); err != nil {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Info().Str("technician_id", user.TechnicianID).Msg("🔑 biometric credential enrolled")
		utils.RespondJSON(w, http.StatusOK, map[string]bool{"enrolled": true})
	}
}

// RemoveBiometric deletes the caller's enrollment.
func RemoveBiometric(creds *auth.CredentialStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := requireUser(w, r)
		if !ok {
			return
		}
		if err := creds.Remove(r.Context(), user.TechnicianID); err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Failed to remove credential")
			return
		}
		utils.RespondJSON(w, http.StatusOK, map[string]bool{"enrolled": false})
	}
}

func Logout(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.ClearSession(r.Context()); err != nil {
			log.Error().Err(err).Msg("❌ failed to clear session")
			utils.RespondError(w, http.StatusInternalServerError, "Failed to log out")
			return
		}
		utils.RespondJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}

// Status reports the current session. Reading it slides the expiry.
func Status(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := store.LoadSession(r.Context())
		if err != nil {
			log.Error().Err(err).Msg("❌ failed to read session")
			utils.RespondError(w, http.StatusInternalServerError, "Failed to read session")
			return
		}
		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"authenticated": user != nil,
			"user":          user,
		})
	}
}
