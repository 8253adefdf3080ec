package handlers

import (
	"net/http"
	"strconv"

	"firesafety-backend/internal/audit"
	"firesafety-backend/internal/models"
	"firesafety-backend/internal/storage"
	"firesafety-backend/pkg/utils"
)

// GetSnapshot returns the whole snapshot as the viewer may see it.
func GetSnapshot(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := requireUser(w, r)
		if !ok {
			return
		}
		data, ok := currentData(w, store)
		if !ok {
			return
		}
		w.Header().Set("X-Snapshot-Version", strconv.FormatUint(store.Version(), 10))
		utils.RespondJSON(w, http.StatusOK, Redact(data, user))
	}
}

// Redact strips credentials from a snapshot copy. PINs never leave the
// service; technicians also lose settings secrets and other users' audit
// entries.
func Redact(data *models.AppData, viewer models.User) *models.AppData {
	out := data.Clone()
	for i := range out.RegisteredUsers {
		out.RegisteredUsers[i].PIN = ""
		out.RegisteredUsers[i].PINHash = ""
	}
	if viewer.IsAdmin() {
		return out
	}

	out.AuditLogs = audit.Visible(out.AuditLogs, viewer)
	if out.DropboxSettings != nil {
		out.DropboxSettings.AccessToken = ""
	}
	if out.SupabaseSettings != nil {
		out.SupabaseSettings.APIKey = ""
	}
	if out.VoiplySettings != nil {
		out.VoiplySettings.APIKey = ""
	}
	if out.DeviceMagicSettings != nil {
		out.DeviceMagicSettings.APIKey = ""
	}
	return out
}
