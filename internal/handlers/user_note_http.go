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

type UserNoteHTTP struct {
	notes repository.UserNoteRepository
	users repository.UserRepository
}

func NewUserNoteHTTP(notes repository.UserNoteRepository, users repository.UserRepository) *UserNoteHTTP {
	return &UserNoteHTTP{notes: notes, users: users}
}

// GET /api/user-notes/?user_profile=
func (h *UserNoteHTTP) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f := repository.UserNoteFilter{
			UserProfileID: strings.TrimSpace(r.URL.Query().Get("user_profile")),
		}
		notes, err := h.notes.List(r.Context(), f)
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		if notes == nil {
			notes = []models.UserNote{}
		}
		utils.JSON(w, http.StatusOK, notes)
	}
}

// POST /api/user-notes/
// Any "author" in the payload is ignored; the author is the caller.
func (h *UserNoteHTTP) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			UserProfile string `json:"user_profile"`
			Note        string `json:"note"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			utils.Error(w, http.StatusBadRequest, "invalid json")
			return
		}
		in.Note = strings.TrimSpace(in.Note)
		if in.Note == "" {
			utils.FieldErrors(w, map[string]string{"note": "this field is required"})
			return
		}
		subject, err := h.users.GetByID(r.Context(), in.UserProfile)
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		if subject == nil {
			utils.FieldErrors(w, map[string]string{"user_profile": "no such user"})
			return
		}

		caller := utils.GetClaims(r.Context())
		n := &models.UserNote{
			UserProfileID: subject.ID,
			AuthorID:      caller.UserID,
			Note:          in.Note,
		}
		if err := h.notes.Create(r.Context(), n); err != nil {
			utils.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		utils.JSON(w, http.StatusCreated, n)
	}
}

// GET /api/user-notes/{id}/
func (h *UserNoteHTTP) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := utils.QueryInt64(chi.URLParam(r, "id"))
		if !ok {
			utils.Error(w, http.StatusNotFound, "not found")
			return
		}
		n, err := h.notes.Get(r.Context(), id)
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		if n == nil {
			utils.Error(w, http.StatusNotFound, "not found")
			return
		}
		utils.JSON(w, http.StatusOK, n)
	}
}

// PATCH /api/user-notes/{id}/
func (h *UserNoteHTTP) Update() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := utils.QueryInt64(chi.URLParam(r, "id"))
		if !ok {
			utils.Error(w, http.StatusNotFound, "not found")
			return
		}
		n, err := h.notes.Get(r.Context(), id)
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		if n == nil {
			utils.Error(w, http.StatusNotFound, "not found")
			return
		}
		var in struct {
			Note *string `json:"note"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			utils.Error(w, http.StatusBadRequest, "invalid json")
			return
		}
		if in.Note != nil {
			if strings.TrimSpace(*in.Note) == "" {
				utils.FieldErrors(w, map[string]string{"note": "may not be blank"})
				return
			}
			n.Note = strings.TrimSpace(*in.Note)
		}
		if err := h.notes.Update(r.Context(), n); err != nil {
			utils.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		utils.JSON(w, http.StatusOK, n)
	}
}

// DELETE /api/user-notes/{id}/
func (h *UserNoteHTTP) Delete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := utils.QueryInt64(chi.URLParam(r, "id"))
		if !ok {
			utils.Error(w, http.StatusNotFound, "not found")
			return
		}
		if err := h.notes.Delete(r.Context(), id); err != nil {
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
