package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/templui/muzer/internal/ctxkeys"
	"github.com/templui/muzer/internal/service"
)

// bearerToken returns the token of an "Authorization: Bearer" header.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// AuthMiddleware resolves the session from a bearer token or the auth cookie
// and adds the session user id and user to the context. A bearer header
// takes precedence; the cookie is never consulted when one is sent.
func AuthMiddleware(authService *service.AuthService, userService *service.UserService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, fromHeader := bearerToken(r)
			if !fromHeader {
				cookie, err := r.Cookie(service.AuthCookieName)
				if err != nil || cookie.Value == "" {
					next.ServeHTTP(w, r)
					return
				}
				token = cookie.Value
			}

			userID, err := authService.SessionUserID(token)
			if err != nil {
				if !fromHeader {
					authService.ClearJWTCookie(w)
				}
				next.ServeHTTP(w, r)
				return
			}

			ctx := ctxkeys.WithSessionUserID(r.Context(), userID)

			user, err := userService.ByID(ctx, userID)
			switch {
			case err == nil:
				ctx = ctxkeys.WithUser(ctx, user)
			case errors.Is(err, service.ErrUserNotFound):
				// RequireAuth answers 404 for sessions of deleted users
			default:
				slog.Error("failed to load session user", "error", err, "user_id", userID)
				ErrorResponse(w, http.StatusInternalServerError, "Internal server error")
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects requests without a session (401) and sessions whose
// user no longer exists (404).
func RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ctxkeys.SessionUserID(r.Context()) == "" {
			ErrorResponse(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		if ctxkeys.User(r.Context()) == nil {
			ErrorResponse(w, http.StatusNotFound, "User not found")
			return
		}

		next.ServeHTTP(w, r)
	}
}
