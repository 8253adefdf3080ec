package handlers

import (
	"net/http"

	"firesafety-backend/internal/storage"
	"firesafety-backend/pkg/utils"
)

// Health reports whether a snapshot is loaded.
func Health(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := store.Current()
		status := http.StatusOK
		body := map[string]interface{}{
			"status":  "ok",
			"version": store.Version(),
		}
		if data == nil {
			status = http.StatusServiceUnavailable
			body["status"] = "no data"
		} else {
			body["lastUpdated"] = data.LastUpdated
		}
		utils.RespondJSON(w, status, body)
	}
}
