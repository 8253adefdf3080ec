package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"firesafety-backend/internal/audit"
	"firesafety-backend/internal/models"
	"firesafety-backend/internal/storage"
	"firesafety-backend/pkg/utils"

	"github.com/rs/zerolog/log"
)

// GetCustomers lists active customers, or archived ones with
// ?archived=true. ?month=N keeps customers due that month and ?q= matches
// name, address or contact.
func GetCustomers(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, ok := currentData(w, store)
		if !ok {
			return
		}

		list := data.Customers
		if r.URL.Query().Get("archived") == "true" {
			list = data.ArchivedCustomers
		}

		month := 0
		if m := r.URL.Query().Get("month"); m != "" {
			n, err := strconv.Atoi(m)
			if err != nil || n < 1 || n > 12 {
				utils.RespondError(w, http.StatusBadRequest, "month must be 1-12")
				return
			}
			month = n
		}
		q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))

		out := make([]models.Customer, 0, len(list))
		for _, c := range list {
			if month != 0 && !c.IsDueInMonth(month) {
				continue
			}
			if q != "" && !customerMatches(&c, q) {
				continue
			}
			out = append(out, c)
		}
		utils.RespondJSON(w, http.StatusOK, out)
	}
}

func customerMatches(c *models.Customer, q string) bool {
	for _, s := range []string{c.Name, c.ComposeAddress(), c.Contact} {
		if strings.Contains(strings.ToLower(s), q) {
			return true
		}
	}
	return false
}

func CreateCustomer(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := requireUser(w, r)
		if !ok {
			return
		}
		var req models.CreateCustomerRequest
		if err := utils.DecodeJSON(r, &req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if strings.TrimSpace(req.Name) == "" {
			utils.RespondError(w, http.StatusBadRequest, "name is required")
			return
		}

		now := time.Now()
		customer := models.Customer{
			ID:            models.NewID(),
			Name:          strings.TrimSpace(req.Name),
			StreetNumber:  req.StreetNumber,
			StreetName:    req.StreetName,
			City:          req.City,
			State:         req.State,
			Zip:           req.Zip,
			Contact:       req.Contact,
			Phone:         req.Phone,
			Email:         req.Email,
			ExtTech:       req.ExtTech,
			SysTech:       req.SysTech,
			ServiceMonths: models.NormalizeMonths(req.ServiceMonths),
			SystemMonths:  models.NormalizeMonths(req.SystemMonths),
			Notes:         req.Notes,
			AccessNotes:   req.AccessNotes,
			CreatedAt:     models.NowISO(now),
		}
		customer.Address = customer.ComposeAddress()

		_, err := store.Update(r.Context(), func(d *models.AppData) error {
			d.Customers = append(d.Customers, customer)
			audit.Record(d, models.ActionCreated, models.EntityCustomer, customer.Name, user, "", now)
			return nil
		})
		if err != nil {
			respondUpdateError(w, err)
			return
		}

		log.Info().Str("customer_id", customer.ID).Str("name", customer.Name).Msg("✅ customer created")
		utils.RespondJSON(w, http.StatusCreated, customer)
	}
}

// UpdateCustomer applies a partial JSON body onto the stored customer.
func UpdateCustomer(store *storage.Store) http.HandlerFunc {
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

		var updated models.Customer
		_, err = store.Update(r.Context(), func(d *models.AppData) error {
			c, _ := d.FindCustomer(id)
			if c == nil {
				return fmt.Errorf("customer %s: %w", id, ErrNotFound)
			}
			createdAt := c.CreatedAt
			if err := json.Unmarshal(body, c); err != nil {
				return invalid("invalid request body: %v", err)
			}
			c.ID = id
			c.CreatedAt = createdAt
			if strings.TrimSpace(c.Name) == "" {
				return invalid("name is required")
			}
			c.ServiceMonths = models.NormalizeMonths(c.ServiceMonths)
			c.SystemMonths = models.NormalizeMonths(c.SystemMonths)
			c.Address = c.ComposeAddress()
			updated = *c
			audit.Record(d, models.ActionUpdated, models.EntityCustomer, c.Name, user, "", time.Now())
			return nil
		})
		if err != nil {
			respondUpdateError(w, err)
			return
		}
		utils.RespondJSON(w, http.StatusOK, updated)
	}
}

// ArchiveCustomer moves a customer and its equipment to the archive lists.
func ArchiveCustomer(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := requireUser(w, r)
		if !ok {
			return
		}
		id := urlParam(r, "id")

		moved := 0
		_, err := store.Update(r.Context(), func(d *models.AppData) error {
			c, idx := d.FindCustomer(id)
			if c == nil {
				return fmt.Errorf("customer %s: %w", id, ErrNotFound)
			}
			customer := *c
			d.Customers = append(d.Customers[:idx], d.Customers[idx+1:]...)
			d.ArchivedCustomers = append(d.ArchivedCustomers, customer)

			kept := d.Extinguishers[:0]
			for _, e := range d.Extinguishers {
				if e.CustomerID == id {
					d.ArchivedExtinguishers = append(d.ArchivedExtinguishers, e)
					moved++
					continue
				}
				kept = append(kept, e)
			}
			d.Extinguishers = kept

			audit.Record(d, models.ActionArchived, models.EntityCustomer, customer.Name, user,
				fmt.Sprintf("%d units archived", moved), time.Now())
			return nil
		})
		if err != nil {
			respondUpdateError(w, err)
			return
		}
		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"archived": true, "units": moved})
	}
}

// RestoreCustomer brings an archived customer and its archived equipment back.
func RestoreCustomer(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := requireUser(w, r)
		if !ok {
			return
		}
		id := urlParam(r, "id")

		restored := 0
		_, err := store.Update(r.Context(), func(d *models.AppData) error {
			idx := -1
			for i := range d.ArchivedCustomers {
				if d.ArchivedCustomers[i].ID == id {
					idx = i
					break
				}
			}
			if idx < 0 {
				return fmt.Errorf("archived customer %s: %w", id, ErrNotFound)
			}
			customer := d.ArchivedCustomers[idx]
			d.ArchivedCustomers = append(d.ArchivedCustomers[:idx], d.ArchivedCustomers[idx+1:]...)
			d.Customers = append(d.Customers, customer)

			kept := d.ArchivedExtinguishers[:0]
			for _, e := range d.ArchivedExtinguishers {
				if e.CustomerID == id {
					d.Extinguishers = append(d.Extinguishers, e)
					restored++
					continue
				}
				kept = append(kept, e)
			}
			d.ArchivedExtinguishers = kept

			audit.Record(d, models.ActionRestored, models.EntityCustomer, customer.Name, user,
				fmt.Sprintf("%d units restored", restored), time.Now())
			return nil
		})
		if err != nil {
			respondUpdateError(w, err)
			return
		}
		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"restored": true, "units": restored})
	}
}
