package handlers

import (
	"fmt"
	"net/http"
	"time"

	"firesafety-backend/internal/audit"
	"firesafety-backend/internal/models"
	"firesafety-backend/internal/override"
	"firesafety-backend/internal/storage"
	"firesafety-backend/pkg/utils"
)

func GetOverrideFields(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, ok := currentData(w, store)
		if !ok {
			return
		}
		fields, err := override.DiscoverFields(data, urlParam(r, "collection"))
		if err != nil {
			respondUpdateError(w, err)
			return
		}
		utils.RespondJSON(w, http.StatusOK, fields)
	}
}

func ApplyOverride(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := requireUser(w, r)
		if !ok {
			return
		}
		var op override.Op
		if err := utils.DecodeJSON(r, &op); err != nil {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}

		affected := 0
		_, err := store.Update(r.Context(), func(d *models.AppData) error {
			n, err := override.Apply(d, user, op)
			if err != nil {
				return err
			}
			affected = n
			if n > 0 {
				audit.Record(d, models.ActionUpdated, models.EntitySystem, "Master override", user,
					fmt.Sprintf("%s.%s set on %d records", op.Collection, op.Field, n), time.Now())
			}
			return nil
		})
		if err != nil {
			respondUpdateError(w, err)
			return
		}
		utils.RespondJSON(w, http.StatusOK, map[string]int{"affected": affected})
	}
}
