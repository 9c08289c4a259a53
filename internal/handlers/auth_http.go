package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mjajones/notifiq-app/internal/service"
	"github.com/mjajones/notifiq-app/internal/utils"
)

type AuthHTTP struct {
	svc *service.AuthService
}

func NewAuthHTTP(s *service.AuthService) *AuthHTTP { return &AuthHTTP{svc: s} }

// POST /api/token/
func (h *AuthHTTP) Token() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			utils.Error(w, http.StatusBadRequest, "invalid json")
			return
		}
		access, refresh, err := h.svc.Login(r.Context(), in.Email, in.Password)
		if err != nil {
			if errors.Is(err, service.ErrInvalidCredentials) {
				utils.Error(w, http.StatusUnauthorized, "No active account found with the given credentials")
				return
			}
			utils.Error(w, http.StatusInternalServerError, "login failed")
			return
		}
		utils.JSON(w, http.StatusOK, map[string]string{
			"access":  access,
			"refresh": refresh,
		})
	}
}

// POST /api/token/refresh/
func (h *AuthHTTP) Refresh() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Refresh string `json:"refresh"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Refresh == "" {
			utils.Error(w, http.StatusBadRequest, "refresh token required")
			return
		}
		access, err := h.svc.Refresh(r.Context(), in.Refresh)
		if err != nil {
			if errors.Is(err, service.ErrInvalidCredentials) {
				utils.Error(w, http.StatusUnauthorized, "Token is invalid or expired")
				return
			}
			utils.Error(w, http.StatusInternalServerError, "refresh failed")
			return
		}
		utils.JSON(w, http.StatusOK, map[string]string{"access": access})
	}
}

// POST /api/register/
func (h *AuthHTTP) Register() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Email     string `json:"email"`
			FirstName string `json:"first_name"`
			LastName  string `json:"last_name"`
			Password  string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			utils.Error(w, http.StatusBadRequest, "invalid json")
			return
		}
		u, err := h.svc.Register(r.Context(), in.Email, in.FirstName, in.LastName, in.Password)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		utils.JSON(w, http.StatusCreated, map[string]any{
			"id":         u.ID,
			"email":      u.Email,
			"first_name": u.FirstName,
			"last_name":  u.LastName,
		})
	}
}

// GET /api/verify-email/{uid}/{token}/
func (h *AuthHTTP) VerifyEmail() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid := chi.URLParam(r, "uid")
		tok := chi.URLParam(r, "token")
		if err := h.svc.Verify(r.Context(), uid, tok); err != nil {
			if errors.Is(err, service.ErrInvalidLink) {
				utils.Error(w, http.StatusBadRequest, "Activation link is invalid!")
				return
			}
			utils.Error(w, http.StatusInternalServerError, "verification failed")
			return
		}
		utils.JSON(w, http.StatusOK, map[string]string{"message": "Email successfully verified!"})
	}
}

// writeServiceError maps service-layer failures to HTTP: validation payloads
// keep their per-field shape, everything else is a generic server error.
func writeServiceError(w http.ResponseWriter, err error) {
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		utils.FieldErrors(w, ve.Fields)
		return
	}
	utils.Error(w, http.StatusInternalServerError, "internal error")
}
