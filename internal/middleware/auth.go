package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/danuwirya/homechore/internal/auth"
	"github.com/danuwirya/homechore/internal/identity"
	"github.com/danuwirya/homechore/internal/store"
)

// AccessCookieName and RefreshCookieName are the session cookie pair set on
// login and cleared on logout or auth failure.
const (
	AccessCookieName  = "sb-access-token"
	RefreshCookieName = "sb-refresh-token"
)

// RequireAuth validates the access-token cookie and populates AuthContext.
// Requests without a valid session get a JSON 401 and cleared cookies.
func RequireAuth(identitySvc *identity.Service, users *store.UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(AccessCookieName)
			if err != nil || cookie.Value == "" {
				unauthorized(w)
				return
			}

			sess, err := identitySvc.Resolve(cookie.Value)
			if err != nil {
				unauthorized(w)
				return
			}

			user, err := users.GetByID(sess.UserID)
			if err != nil || user == nil {
				unauthorized(w)
				return
			}

			ac := auth.AuthContext{
				UserID:    user.ID,
				Role:      user.Role,
				SessionID: sess.ID,
			}
			if user.HouseGroupID != nil {
				ac.HouseGroupID = *user.HouseGroupID
			}

			ctx := auth.WithAuth(r.Context(), ac)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireGroup checks that the authenticated user belongs to a house group.
func RequireGroup(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.HouseGroupID(r.Context()) == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			json.NewEncoder(w).Encode(map[string]any{
				"success": false,
				"error":   "user does not belong to a house group",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func unauthorized(w http.ResponseWriter) {
	ClearSessionCookies(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   "not authenticated",
	})
}

// ClearSessionCookies expires both session cookies.
func ClearSessionCookies(w http.ResponseWriter) {
	for _, name := range []string{AccessCookieName, RefreshCookieName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
}
