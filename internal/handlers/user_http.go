package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mjajones/notifiq-app/internal/models"
	"github.com/mjajones/notifiq-app/internal/repository"
	"github.com/mjajones/notifiq-app/internal/utils"
)

// UserHTTP exposes the read-only user directory.
type UserHTTP struct {
	repo repository.UserRepository
}

func NewUserHTTP(repo repository.UserRepository) *UserHTTP { return &UserHTTP{repo: repo} }

// GET /api/users/?groups__name=&search=
func (h *UserHTTP) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		qv := r.URL.Query()
		h.list(w, r, repository.UserFilter{
			GroupName: strings.TrimSpace(qv.Get("groups__name")),
			Search:    strings.TrimSpace(qv.Get("search")),
			Limit:     utils.QueryInt(qv, "limit", 100),
			Offset:    utils.QueryInt(qv, "offset", 0),
		})
	}
}

// GET /api/users/employees/
func (h *UserHTTP) Employees() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.list(w, r, repository.UserFilter{GroupName: models.GroupEmployee})
	}
}

// GET /api/users/it-staff/
func (h *UserHTTP) ITStaff() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.list(w, r, repository.UserFilter{GroupName: models.GroupITStaff})
	}
}

// GET /api/users/{id}/
func (h *UserHTTP) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := h.repo.GetByID(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		if u == nil {
			utils.Error(w, http.StatusNotFound, "not found")
			return
		}
		utils.JSON(w, http.StatusOK, u)
	}
}

func (h *UserHTTP) list(w http.ResponseWriter, r *http.Request, f repository.UserFilter) {
	users, err := h.repo.List(r.Context(), f)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	if users == nil {
		users = []models.User{}
	}
	utils.JSON(w, http.StatusOK, users)
}
