package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"firesafety-backend/internal/models"
	"firesafety-backend/internal/storage"
	"firesafety-backend/pkg/utils"
)

type TodoRequest struct {
	Text       *string `json:"text"`
	Completed  *bool   `json:"completed"`
	CustomerID *string `json:"customerId"`
}

func GetTodos(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, ok := currentData(w, store)
		if !ok {
			return
		}
		showDone := r.URL.Query().Get("completed") != "false"
		out := make([]models.Todo, 0, len(data.Todos))
		for _, t := range data.Todos {
			if !showDone && t.Completed {
				continue
			}
			out = append(out, t)
		}
		utils.RespondJSON(w, http.StatusOK, out)
	}
}

func CreateTodo(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TodoRequest
		if err := utils.DecodeJSON(r, &req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.Text == nil || strings.TrimSpace(*req.Text) == "" {
			utils.RespondError(w, http.StatusBadRequest, "text is required")
			return
		}
		todo := models.Todo{
			ID:        models.NewID(),
			Text:      strings.TrimSpace(*req.Text),
			CreatedAt: models.NowISO(time.Now()),
		}
		if req.CustomerID != nil {
			todo.CustomerID = *req.CustomerID
		}

		_, err := store.Update(r.Context(), func(d *models.AppData) error {
			d.Todos = append(d.Todos, todo)
			return nil
		})
		if err != nil {
			respondUpdateError(w, err)
			return
		}
		utils.RespondJSON(w, http.StatusCreated, todo)
	}
}

func UpdateTodo(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := urlParam(r, "id")
		var req TodoRequest
		if err := utils.DecodeJSON(r, &req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}

		var updated models.Todo
		_, err := store.Update(r.Context(), func(d *models.AppData) error {
			for i := range d.Todos {
				t := &d.Todos[i]
				if t.ID != id {
					continue
				}
				if req.Text != nil {
					if strings.TrimSpace(*req.Text) == "" {
						return invalid("text must not be empty")
					}
					t.Text = strings.TrimSpace(*req.Text)
				}
				if req.Completed != nil {
					t.Completed = *req.Completed
				}
				if req.CustomerID != nil {
					t.CustomerID = *req.CustomerID
				}
				updated = *t
				return nil
			}
			return fmt.Errorf("todo %s: %w", id, ErrNotFound)
		})
		if err != nil {
			respondUpdateError(w, err)
			return
		}
		utils.RespondJSON(w, http.StatusOK, updated)
	}
}

func DeleteTodo(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := urlParam(r, "id")
		_, err := store.Update(r.Context(), func(d *models.AppData) error {
			for i := range d.Todos {
				if d.Todos[i].ID == id {
					d.Todos = append(d.Todos[:i], d.Todos[i+1:]...)
					return nil
				}
			}
			return fmt.Errorf("todo %s: %w", id, ErrNotFound)
		})
		if err != nil {
			respondUpdateError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
