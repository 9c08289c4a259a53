package middleware

import (
	"net/http"

	"github.com/mjajones/notifiq-app/internal/utils"
)

// RequireAuth blocks when no authenticated user is present in context (set
// by WithAuth).
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if utils.GetClaims(r.Context()) == nil {
			utils.Error(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireStaff allows superusers and "IT Staff" members only.
func RequireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := utils.GetClaims(r.Context())
		if c == nil {
			utils.Error(w, http.StatusUnauthorized, "authentication required")
			return
		}
		if !c.IsStaff() {
			utils.Error(w, http.StatusForbidden, "forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}
