package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mjajones/notifiq-app/internal/models"
	"github.com/mjajones/notifiq-app/internal/repository"
	"github.com/mjajones/notifiq-app/internal/utils"
)

type StatusLabelHTTP struct {
	repo repository.StatusLabelRepository
}

func NewStatusLabelHTTP(repo repository.StatusLabelRepository) *StatusLabelHTTP {
	return &StatusLabelHTTP{repo: repo}
}

// GET /api/status-labels/
func (h *StatusLabelHTTP) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		labels, err := h.repo.List(r.Context())
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		if labels == nil {
			labels = []models.StatusLabel{}
		}
		utils.JSON(w, http.StatusOK, labels)
	}
}

// POST /api/status-labels/
func (h *StatusLabelHTTP) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Name  string `json:"name"`
			Color string `json:"color"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			utils.Error(w, http.StatusBadRequest, "invalid json")
			return
		}
		in.Name = strings.TrimSpace(in.Name)
		if in.Name == "" {
			utils.FieldErrors(w, map[string]string{"name": "this field is required"})
			return
		}
		l := &models.StatusLabel{Name: in.Name, Color: in.Color}
		if err := h.repo.Create(r.Context(), l); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				utils.FieldErrors(w, map[string]string{"name": "status label with this name already exists"})
				return
			}
			utils.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		utils.JSON(w, http.StatusCreated, l)
	}
}

// GET /api/status-labels/{id}/
func (h *StatusLabelHTTP) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := utils.QueryInt64(chi.URLParam(r, "id"))
		if !ok {
			utils.Error(w, http.StatusNotFound, "not found")
			return
		}
		l, err := h.repo.Get(r.Context(), id)
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		if l == nil {
			utils.Error(w, http.StatusNotFound, "not found")
			return
		}
		utils.JSON(w, http.StatusOK, l)
	}
}

// PATCH /api/status-labels/{id}/
func (h *StatusLabelHTTP) Update() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := utils.QueryInt64(chi.URLParam(r, "id"))
		if !ok {
			utils.Error(w, http.StatusNotFound, "not found")
			return
		}
		l, err := h.repo.Get(r.Context(), id)
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		if l == nil {
			utils.Error(w, http.StatusNotFound, "not found")
			return
		}
		var in struct {
			Name  *string `json:"name"`
			Color *string `json:"color"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			utils.Error(w, http.StatusBadRequest, "invalid json")
			return
		}
		if in.Name != nil {
			if strings.TrimSpace(*in.Name) == "" {
				utils.FieldErrors(w, map[string]string{"name": "may not be blank"})
				return
			}
			l.Name = strings.TrimSpace(*in.Name)
		}
		if in.Color != nil {
			l.Color = *in.Color
		}
		if err := h.repo.Update(r.Context(), l); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				utils.FieldErrors(w, map[string]string{"name": "status label with this name already exists"})
				return
			}
			utils.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		utils.JSON(w, http.StatusOK, l)
	}
}

// DELETE /api/status-labels/{id}/
func (h *StatusLabelHTTP) Delete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := utils.QueryInt64(chi.URLParam(r, "id"))
		if !ok {
			utils.Error(w, http.StatusNotFound, "not found")
			return
		}
		if err := h.repo.Delete(r.Context(), id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				utils.Error(w, http.StatusNotFound, "not found")
				return
			}
			utils.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
