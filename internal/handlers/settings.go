package handlers

import (
	"net/http"

	"firesafety-backend/internal/backup"
	"firesafety-backend/internal/models"
	"firesafety-backend/internal/storage"
	"firesafety-backend/pkg/utils"

	"github.com/rs/zerolog/log"
)

func GetDropboxSettings(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, ok := currentData(w, store)
		if !ok {
			return
		}
		settings := data.DropboxSettings
		if settings == nil {
			settings = models.DefaultDropboxSettings()
		}
		utils.RespondJSON(w, http.StatusOK, settings)
	}
}

func PutDropboxSettings(svc *backup.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := requireUser(w, r)
		if !ok {
			return
		}
		var in models.DropboxSettings
		if err := utils.DecodeJSON(r, &in); err != nil {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		saved, err := svc.SaveDropboxSettings(r.Context(), user, in)
		if err != nil {
			respondUpdateError(w, err)
			return
		}
		utils.RespondJSON(w, http.StatusOK, saved)
	}
}

func GetSupabaseSettings(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, ok := currentData(w, store)
		if !ok {
			return
		}
		settings := data.SupabaseSettings
		if settings == nil {
			settings = models.DefaultSupabaseSettings()
		}
		utils.RespondJSON(w, http.StatusOK, settings)
	}
}

func PutSupabaseSettings(svc *backup.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := requireUser(w, r)
		if !ok {
			return
		}
		var in models.SupabaseSettings
		if err := utils.DecodeJSON(r, &in); err != nil {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		saved, err := svc.SaveSupabaseSettings(r.Context(), user, in)
		if err != nil {
			respondUpdateError(w, err)
			return
		}
		utils.RespondJSON(w, http.StatusOK, saved)
	}
}

// PutNotificationSettings replaces the FCM settings and device tokens.
func PutNotificationSettings(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in models.NotificationSettings
		if err := utils.DecodeJSON(r, &in); err != nil {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if in.DeviceTokens == nil {
			in.DeviceTokens = map[string][]string{}
		}
		_, err := store.Update(r.Context(), func(d *models.AppData) error {
			d.NotificationSettings = &in
			return nil
		})
		if err != nil {
			respondUpdateError(w, err)
			return
		}
		utils.RespondJSON(w, http.StatusOK, in)
	}
}

// PushBackup runs one push through the named adapter now.
func PushBackup(svc *backup.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := requireUser(w, r)
		if !ok {
			return
		}
		adapter := urlParam(r, "adapter")
		if adapter != backup.AdapterDropbox && adapter != backup.AdapterSupabase {
			utils.RespondError(w, http.StatusNotFound, backup.ErrUnknownAdapter.Error())
			return
		}

		res := svc.Push(r.Context(), adapter, user)
		status := http.StatusOK
		switch res.Kind {
		case backup.KindBusy:
			status = http.StatusConflict
		case backup.KindNotConfigured:
			status = http.StatusPreconditionFailed
		case backup.KindAuth, backup.KindNetwork, backup.KindBackend:
			status = http.StatusBadGateway
		}
		utils.RespondJSON(w, status, res)
	}
}

// VerifyBackup checks the stored credential for an adapter.
func VerifyBackup(svc *backup.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		adapter := urlParam(r, "adapter")
		valid, err := svc.Verify(r.Context(), adapter)
		if err != nil {
			log.Warn().Err(err).Str("adapter", adapter).Msg("⚠️  credential check failed")
			utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"valid": false, "error": err.Error()})
			return
		}
		utils.RespondJSON(w, http.StatusOK, map[string]bool{"valid": valid})
	}
}
