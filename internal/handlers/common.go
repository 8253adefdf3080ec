package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"firesafety-backend/internal/audit"
	"firesafety-backend/internal/inspection"
	"firesafety-backend/internal/middleware"
	"firesafety-backend/internal/models"
	"firesafety-backend/internal/override"
	"firesafety-backend/internal/storage"
	"firesafety-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// maxImportBytes caps uploaded snapshot files.
const maxImportBytes = 32 << 20

var (
	ErrNotFound = errors.New("not found")
	ErrNoData   = errors.New("no data loaded")
)

// badRequest marks a validation failure raised inside a store update.
type badRequest struct{ msg string }

func (e *badRequest) Error() string { return e.msg }

func invalid(format string, args ...interface{}) error {
	return &badRequest{msg: fmt.Sprintf(format, args...)}
}

// respondUpdateError maps errors from store updates and the engines onto
// HTTP statuses.
func respondUpdateError(w http.ResponseWriter, err error) {
	var bad *badRequest
	switch {
	case errors.As(err, &bad):
		utils.RespondError(w, http.StatusBadRequest, bad.msg)
	case errors.Is(err, ErrNotFound), errors.Is(err, inspection.ErrUnknownEquipment):
		utils.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, inspection.ErrIncompleteChecklist),
		errors.Is(err, inspection.ErrDispositionRequired),
		errors.Is(err, audit.ErrUnknownAge),
		errors.Is(err, override.ErrUnknownField),
		errors.Is(err, override.ErrProtectedField),
		errors.Is(err, override.ErrTypeMismatch):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, override.ErrUnknownCollection):
		utils.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, audit.ErrConfirmationMismatch):
		utils.RespondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrNoData):
		utils.RespondError(w, http.StatusServiceUnavailable, "No data loaded")
	case errors.Is(err, storage.ErrClosed):
		utils.RespondError(w, http.StatusServiceUnavailable, "Store is shutting down")
	default:
		log.Error().Err(err).Msg("❌ update failed")
		utils.RespondError(w, http.StatusInternalServerError, "Failed to save changes")
	}
}

// requireUser pulls the session user set by middleware.Auth.
func requireUser(w http.ResponseWriter, r *http.Request) (models.User, bool) {
	user, ok := middleware.GetUserFromContext(r)
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
	}
	return user, ok
}

// currentData returns the snapshot or answers 503 when none is loaded.
func currentData(w http.ResponseWriter, store *storage.Store) (*models.AppData, bool) {
	data := store.Current()
	if data == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, "No data loaded")
		return nil, false
	}
	return data, true
}

// readBody reads a size-limited raw body, for partial updates.
func readBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, utils.MaxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	if len(body) == 0 {
		return nil, errors.New("request body is empty")
	}
	return body, nil
}

// urlParam returns the unescaped chi parameter.
func urlParam(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}
