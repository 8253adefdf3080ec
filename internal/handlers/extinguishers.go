package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"firesafety-backend/internal/audit"
	"firesafety-backend/internal/models"
	"firesafety-backend/internal/storage"
	"firesafety-backend/pkg/utils"

	"github.com/rs/zerolog/log"
)

// GetExtinguishers lists equipment, filtered by ?customerId= and ?status=.
// ?archived=true lists the archive instead.
func GetExtinguishers(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, ok := currentData(w, store)
		if !ok {
			return
		}
		list := data.Extinguishers
		if r.URL.Query().Get("archived") == "true" {
			list = data.ArchivedExtinguishers
		}
		customerID := r.URL.Query().Get("customerId")
		status := r.URL.Query().Get("status")

		out := make([]models.Extinguisher, 0, len(list))
		for _, e := range list {
			if customerID != "" && e.CustomerID != customerID {
				continue
			}
			if status != "" && e.Status != status {
				continue
			}
			out = append(out, e)
		}
		utils.RespondJSON(w, http.StatusOK, out)
	}
}

func unitLabel(e *models.Extinguisher) string {
	return fmt.Sprintf("Unit %s - %s", e.UnitNumber, e.Location)
}

func CreateExtinguisher(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := requireUser(w, r)
		if !ok {
			return
		}
		var req models.CreateExtinguisherRequest
		if err := utils.DecodeJSON(r, &req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.CustomerID == "" || strings.TrimSpace(req.Type) == "" {
			utils.RespondError(w, http.StatusBadRequest, "customerId and type are required")
			return
		}
		status := req.Status
		if status == "" {
			status = models.StatusPendingInspection
		}
		if !models.ValidStatus(status) {
			utils.RespondError(w, http.StatusBadRequest, "unknown status: "+status)
			return
		}

		unit := models.Extinguisher{
			ID:          models.NewID(),
			CustomerID:  req.CustomerID,
			UnitNumber:  req.UnitNumber,
			Location:    req.Location,
			Type:        req.Type,
			Size:        req.Size,
			Brand:       req.Brand,
			Status:      status,
			LastService: req.LastService,
			NextDue:     req.NextDue,
			Notes:       req.Notes,
		}
		if models.IsBatteryType(req.Type) {
			unit.BatteryType = req.BatteryType
			unit.BatteryDue = req.BatteryDue
		}

		_, err := store.Update(r.Context(), func(d *models.AppData) error {
			if c, _ := d.FindCustomer(unit.CustomerID); c == nil {
				return invalid("unknown customer: %s", unit.CustomerID)
			}
			d.Extinguishers = append(d.Extinguishers, unit)
			audit.Record(d, models.ActionCreated, models.EntityAsset, unitLabel(&unit), user,
				d.CustomerName(unit.CustomerID), time.Now())
			return nil
		})
		if err != nil {
			respondUpdateError(w, err)
			return
		}
		log.Info().Str("extinguisher_id", unit.ID).Str("customer_id", unit.CustomerID).Msg("✅ unit created")
		utils.RespondJSON(w, http.StatusCreated, unit)
	}
}

// UpdateExtinguisher applies a partial JSON body onto the stored unit.
func UpdateExtinguisher(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := requireUser(w, r)
		if !ok {
			return
		}
		id := urlParam(r, "id")
		body, err := readBody(r)
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}

		var updated models.Extinguisher
		_, err = store.Update(r.Context(), func(d *models.AppData) error {
			e, _ := d.FindExtinguisher(id)
			if e == nil {
				return fmt.Errorf("extinguisher %s: %w", id, ErrNotFound)
			}
			if err := json.Unmarshal(body, e); err != nil {
				return invalid("invalid request body: %v", err)
			}
			e.ID = id
			if !models.ValidStatus(e.Status) {
				return invalid("unknown status: %s", e.Status)
			}
			updated = *e
			audit.Record(d, models.ActionUpdated, models.EntityAsset, unitLabel(e), user, "", time.Now())
			return nil
		})
		if err != nil {
			respondUpdateError(w, err)
			return
		}
		utils.RespondJSON(w, http.StatusOK, updated)
	}
}

func ArchiveExtinguisher(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := requireUser(w, r)
		if !ok {
			return
		}
		id := urlParam(r, "id")

		_, err := store.Update(r.Context(), func(d *models.AppData) error {
			e, idx := d.FindExtinguisher(id)
			if e == nil {
				return fmt.Errorf("extinguisher %s: %w", id, ErrNotFound)
			}
			unit := *e
			d.Extinguishers = append(d.Extinguishers[:idx], d.Extinguishers[idx+1:]...)
			d.ArchivedExtinguishers = append(d.ArchivedExtinguishers, unit)
			audit.Record(d, models.ActionArchived, models.EntityAsset, unitLabel(&unit), user, "", time.Now())
			return nil
		})
		if err != nil {
			respondUpdateError(w, err)
			return
		}
		utils.RespondJSON(w, http.StatusOK, map[string]bool{"archived": true})
	}
}
