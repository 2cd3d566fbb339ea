package middleware

import (
	"log/slog"
	"net/http"

	"github.com/templui/tasktracker/internal/ctxkeys"
	"github.com/templui/tasktracker/internal/service"
)

// Profile identifies the browser profile from its signed cookie, issuing a
// new profile when the cookie is missing or invalid. The profile's signed-in
// user, if any, is added to the context as well.
func Profile(profiles *service.ProfileService, auth *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			profileID := ""

			cookie, err := r.Cookie(service.ProfileCookieName)
			if err == nil {
				profileID, err = profiles.VerifyToken(cookie.Value)
				if err != nil {
					slog.Debug("profile token rejected", "error", err)
				}
			}

			if profileID == "" {
				profileID = profiles.NewProfileID()
				token, err := profiles.GenerateToken(profileID)
				if err != nil {
					slog.Error("failed to issue profile token", "error", err)
					http.Error(w, "Internal server error", http.StatusInternalServerError)
					return
				}
				profiles.SetCookie(w, token)
			}

			ctx := ctxkeys.WithProfileID(r.Context(), profileID)
			_, user := auth.State(ctx, profileID)
			if user != nil {
				ctx = ctxkeys.WithUser(ctx, user)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
