package handlers

import (
	"net/http"
	"strings"
	"time"

	"firesafety-backend/internal/audit"
	"firesafety-backend/internal/auth"
	"firesafety-backend/internal/models"
	"firesafety-backend/internal/storage"
	"firesafety-backend/pkg/utils"

	"github.com/rs/zerolog/log"
)

// GetUsers lists registered users without credentials.
func GetUsers(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, ok := currentData(w, store)
		if !ok {
			return
		}
		out := make([]models.RegisteredUser, len(data.RegisteredUsers))
		for i, u := range data.RegisteredUsers {
			u.PIN, u.PINHash = "", ""
			out[i] = u
		}
		utils.RespondJSON(w, http.StatusOK, out)
	}
}

// CreateUser registers a technician or admin. The PIN is stored hashed.
// Requires admin authentication
func CreateUser(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireUser(w, r)
		if !ok {
			return
		}
		var req models.CreateUserRequest
		if err := utils.DecodeJSON(r, &req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := validateNewUser(&req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}

		hash, err := auth.HashPIN(req.PIN)
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}

		user := models.RegisteredUser{
			ID:           models.NewID(),
			FirstName:    strings.TrimSpace(req.FirstName),
			LastName:     strings.TrimSpace(req.LastName),
			Email:        strings.TrimSpace(req.Email),
			PINHash:      hash,
			Role:         req.Role,
			TechnicianID: strings.TrimSpace(req.TechnicianID),
		}

		_, err = store.Update(r.Context(), func(d *models.AppData) error {
			if err := AddUser(d, user); err != nil {
				return err
			}
			audit.Record(d, models.ActionCreated, models.EntityUser, user.FullName(), actor, user.TechnicianID, time.Now())
			return nil
		})
		if err != nil {
			respondUpdateError(w, err)
			return
		}

		log.Info().Str("technician_id", user.TechnicianID).Str("role", user.Role).Msg("✅ user created")
		user.PINHash = ""
		utils.RespondJSON(w, http.StatusCreated, user)
	}
}

func validateNewUser(req *models.CreateUserRequest) error {
	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.TechnicianID) == "" || req.PIN == "" {
		return invalid("firstName, technicianId and pin are required")
	}
	if req.Role == "" {
		req.Role = models.RoleTech
	}
	if !models.ValidRole(req.Role) {
		return invalid("role must be 'admin' or 'tech'")
	}
	return nil
}

// AddUser appends u, rejecting a duplicate technician id or email.
func AddUser(d *models.AppData, u models.RegisteredUser) error {
	for _, existing := range d.RegisteredUsers {
		if existing.TechnicianID == u.TechnicianID {
			return invalid("technician id %s already registered", u.TechnicianID)
		}
		if u.Email != "" && strings.EqualFold(existing.Email, u.Email) {
			return invalid("email %s already registered", u.Email)
		}
	}
	d.RegisteredUsers = append(d.RegisteredUsers, u)
	if name := u.FullName(); name != "" && u.Role == models.RoleTech {
		for _, t := range d.Technicians {
			if t == name {
				return nil
			}
		}
		d.Technicians = append(d.Technicians, name)
	}
	return nil
}
