package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mjajones/notifiq-app/internal/models"
	"github.com/mjajones/notifiq-app/internal/repository"
	"github.com/mjajones/notifiq-app/internal/utils"
)

// AssetHTTP exposes asset CRUD. The visibility rule for non-staff callers is
// "nothing": list comes back empty and items read as missing, rather than a
// rejection. Writes are staff-only outright.
type AssetHTTP struct {
	repo repository.AssetRepository
}

func NewAssetHTTP(repo repository.AssetRepository) *AssetHTTP { return &AssetHTTP{repo: repo} }

type assetDTO struct {
	Name           *string `json:"name"`
	Tag            *string `json:"tag"`
	AssetType      *string `json:"asset_type"`
	Impact         *string `json:"impact"`
	Description    *string `json:"description"`
	EndOfLife      *string `json:"end_of_life"` // date, YYYY-MM-DD
	Location       *string `json:"location"`
	Department     *string `json:"department"`
	ManagedByGroup *string `json:"managed_by_group"`
	ManagedBy      *string `json:"managed_by"`
}

func (in *assetDTO) apply(a *models.Asset) error {
	if in.Name != nil {
		a.Name = strings.TrimSpace(*in.Name)
	}
	if in.Tag != nil {
		if t := strings.TrimSpace(*in.Tag); t == "" {
			a.Tag = nil
		} else {
			a.Tag = &t
		}
	}
	if in.AssetType != nil {
		a.AssetType = *in.AssetType
	}
	if in.Impact != nil {
		a.Impact = *in.Impact
	}
	if in.Description != nil {
		a.Description = *in.Description
	}
	if in.EndOfLife != nil {
		if *in.EndOfLife == "" {
			a.EndOfLife = nil
		} else {
			t, err := time.Parse("2006-01-02", *in.EndOfLife)
			if err != nil {
				return err
			}
			a.EndOfLife = &t
		}
	}
	if in.Location != nil {
		a.Location = *in.Location
	}
	if in.Department != nil {
		a.Department = *in.Department
	}
	if in.ManagedByGroup != nil {
		a.ManagedByGroup = *in.ManagedByGroup
	}
	if in.ManagedBy != nil {
		if *in.ManagedBy == "" {
			a.ManagedBy = nil
		} else {
			a.ManagedBy = in.ManagedBy
		}
	}
	return nil
}

// GET /api/assets/
func (h *AssetHTTP) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !utils.GetClaims(r.Context()).IsStaff() {
			utils.JSON(w, http.StatusOK, []models.Asset{})
			return
		}
		assets, err := h.repo.List(r.Context())
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		if assets == nil {
			assets = []models.Asset{}
		}
		utils.JSON(w, http.StatusOK, assets)
	}
}

// POST /api/assets/
func (h *AssetHTTP) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !utils.GetClaims(r.Context()).IsStaff() {
			utils.Error(w, http.StatusForbidden, "forbidden")
			return
		}
		var in assetDTO
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			utils.Error(w, http.StatusBadRequest, "invalid json")
			return
		}
		a := &models.Asset{Impact: "Low", Location: "US"}
		if err := in.apply(a); err != nil {
			utils.FieldErrors(w, map[string]string{"end_of_life": "expected a date (YYYY-MM-DD)"})
			return
		}
		if a.Name == "" {
			utils.FieldErrors(w, map[string]string{"name": "this field is required"})
			return
		}
		if err := h.repo.Create(r.Context(), a); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				utils.FieldErrors(w, map[string]string{"tag": "asset with this tag already exists"})
				return
			}
			utils.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		utils.JSON(w, http.StatusCreated, a)
	}
}

// GET /api/assets/{id}/
// Invisible and missing are indistinguishable for non-staff.
func (h *AssetHTTP) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !utils.GetClaims(r.Context()).IsStaff() {
			utils.Error(w, http.StatusNotFound, "not found")
			return
		}
		id, ok := utils.QueryInt64(chi.URLParam(r, "id"))
		if !ok {
			utils.Error(w, http.StatusNotFound, "not found")
			return
		}
		a, err := h.repo.Get(r.Context(), id)
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		if a == nil {
			utils.Error(w, http.StatusNotFound, "not found")
			return
		}
		utils.JSON(w, http.StatusOK, a)
	}
}

// PATCH /api/assets/{id}/
func (h *AssetHTTP) Update() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !utils.GetClaims(r.Context()).IsStaff() {
			utils.Error(w, http.StatusForbidden, "forbidden")
			return
		}
		id, ok := utils.QueryInt64(chi.URLParam(r, "id"))
		if !ok {
			utils.Error(w, http.StatusNotFound, "not found")
			return
		}
		a, err := h.repo.Get(r.Context(), id)
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		if a == nil {
			utils.Error(w, http.StatusNotFound, "not found")
			return
		}
		var in assetDTO
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			utils.Error(w, http.StatusBadRequest, "invalid json")
			return
		}
		if err := in.apply(a); err != nil {
			utils.FieldErrors(w, map[string]string{"end_of_life": "expected a date (YYYY-MM-DD)"})
			return
		}
		if err := h.repo.Update(r.Context(), a); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				utils.FieldErrors(w, map[string]string{"tag": "asset with this tag already exists"})
				return
			}
			utils.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		utils.JSON(w, http.StatusOK, a)
	}
}

// DELETE /api/assets/{id}/
func (h *AssetHTTP) Delete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !utils.GetClaims(r.Context()).IsStaff() {
			utils.Error(w, http.StatusForbidden, "forbidden")
			return
		}
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
