package handlers

import (
	"context"
	"net/http"
	"time"

	"firesafety-backend/internal/inspection"
	"firesafety-backend/internal/models"
	"firesafety-backend/internal/services"
	"firesafety-backend/internal/storage"
	"firesafety-backend/pkg/utils"

	"github.com/rs/zerolog/log"
)

// photo uploads are base64 inside JSON
const maxInspectionBytes = 8 << 20

// GetChecklist returns the checklist for an asset type.
func GetChecklist(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, ok := currentData(w, store)
		if !ok {
			return
		}
		utils.RespondJSON(w, http.StatusOK, inspection.ChecklistFor(data, urlParam(r, "type")))
	}
}

// GetInspections lists records, newest last, optionally for one unit.
func GetInspections(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, ok := currentData(w, store)
		if !ok {
			return
		}
		unitID := r.URL.Query().Get("extinguisherId")
		out := make([]models.InspectionRecord, 0, len(data.Records))
		for _, rec := range data.Records {
			if unitID == "" || rec.ExtinguisherID == unitID {
				out = append(out, rec)
			}
		}
		utils.RespondJSON(w, http.StatusOK, out)
	}
}

// SubmitInspection validates and analyses the draft against the current
// snapshot outside the store writer, then commits it.
func SubmitInspection(store *storage.Store, analyzer services.AnalysisService, notifier services.Notifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := requireUser(w, r)
		if !ok {
			return
		}
		var draft models.SubmitInspectionRequest
		if err := utils.DecodeJSONLimit(r, &draft, maxInspectionBytes); err != nil {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		data, ok := currentData(w, store)
		if !ok {
			return
		}

		now := time.Now()
		record, err := inspection.Build(r.Context(), data, user, draft, analyzer, now)
		if err != nil {
			respondUpdateError(w, err)
			return
		}

		saved, err := store.Update(r.Context(), func(d *models.AppData) error {
			return inspection.Apply(d, user, record, now)
		})
		if err != nil {
			respondUpdateError(w, err)
			return
		}

		if notifier != nil && inspection.NeedsAlert(record) {
			// detached: the response does not wait on FCM
			go func(data *models.AppData, rec models.InspectionRecord) {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				if err := notifier.NotifyInspectionAlert(ctx, data, &rec); err != nil {
					log.Warn().Err(err).Str("record_id", rec.ID).Msg("⚠️  inspection alert not sent")
				}
			}(saved, *record)
		}

		utils.RespondJSON(w, http.StatusCreated, record)
	}
}
