package handlers

import (
	"fmt"
	"net/http"
	"time"

	"firesafety-backend/internal/audit"
	"firesafety-backend/internal/models"
	"firesafety-backend/internal/storage"
	"firesafety-backend/pkg/utils"
)

type PurgeRequest struct {
	audit.PurgeCriteria
	Confirm int `json:"confirm"`
}

type PurgePreview struct {
	Count   int    `json:"count"`
	Message string `json:"message"`
}

// GetAuditLog returns the viewer's visible entries, newest first, filtered
// by ?search=, ?action= and ?entityType=.
func GetAuditLog(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := requireUser(w, r)
		if !ok {
			return
		}
		data, ok := currentData(w, store)
		if !ok {
			return
		}
		q := r.URL.Query()
		entries := audit.Query(data.AuditLogs, user, audit.Filter{
			Search:     q.Get("search"),
			Action:     q.Get("action"),
			EntityType: q.Get("entityType"),
		})
		utils.RespondJSON(w, http.StatusOK, entries)
	}
}

// PreviewPurge counts what a purge would delete and returns the
// confirmation prompt.
func PreviewPurge(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PurgeRequest
		if err := utils.DecodeJSON(r, &req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		data, ok := currentData(w, store)
		if !ok {
			return
		}
		candidates, err := audit.PurgeCandidates(data.AuditLogs, req.PurgeCriteria, time.Now())
		if err != nil {
			respondUpdateError(w, err)
			return
		}
		utils.RespondJSON(w, http.StatusOK, PurgePreview{
			Count:   len(candidates),
			Message: audit.Describe(req.PurgeCriteria, len(candidates)),
		})
	}
}

// PurgeAudit deletes matching entries. confirm must equal the previewed
// count; a mismatch means the log changed and nothing is deleted.
func PurgeAudit(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := requireUser(w, r)
		if !ok {
			return
		}
		var req PurgeRequest
		if err := utils.DecodeJSON(r, &req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}

		deleted := 0
		_, err := store.Update(r.Context(), func(d *models.AppData) error {
			now := time.Now()
			remaining, n, err := audit.Purge(d.AuditLogs, user, req.PurgeCriteria, req.Confirm, now)
			if err != nil {
				return err
			}
			deleted = n
			d.AuditLogs = remaining
			if n > 0 {
				audit.Record(d, models.ActionCleared, models.EntitySystem, "Audit log", user,
					fmt.Sprintf("Purged %d entries", n), now)
			}
			return nil
		})
		if err != nil {
			respondUpdateError(w, err)
			return
		}
		utils.RespondJSON(w, http.StatusOK, map[string]int{"deleted": deleted})
	}
}

func DeleteAuditEntry(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := requireUser(w, r)
		if !ok {
			return
		}
		id := urlParam(r, "id")
		_, err := store.Update(r.Context(), func(d *models.AppData) error {
			remaining, removed := audit.DeleteOne(d.AuditLogs, user, id)
			if !removed {
				return fmt.Errorf("audit entry %s: %w", id, ErrNotFound)
			}
			d.AuditLogs = remaining
			return nil
		})
		if err != nil {
			respondUpdateError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
