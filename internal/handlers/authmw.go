package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/cliptube/backend/internal/auth"
	"github.com/cliptube/backend/internal/models"
)

const (
	accessCookieName  = "accessToken"
	refreshCookieName = "refreshToken"
)

// RequireAuth validates the request's access token, loads the user, and
// attaches the identity to the request context. Requests without a valid
// credential are rejected with the envelope's 401 shape.
func RequireAuth(users UserStore, tokens TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := authenticate(r, users, tokens)
			if err != nil {
				respondError(r.Context(), w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), user)))
		})
	}
}

// OptionalAuth attaches an identity when a valid credential is present and
// lets anonymous requests through untouched.
func OptionalAuth(users UserStore, tokens TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if user, err := authenticate(r, users, tokens); err == nil {
				r = r.WithContext(auth.WithIdentity(r.Context(), user))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func authenticate(r *http.Request, users UserStore, tokens TokenIssuer) (models.User, error) {
	token := bearerToken(r)
	if token == "" {
		return models.User{}, unauthorized("Unauthorized request")
	}

	userID, err := tokens.ValidateAccess(token)
	if err != nil {
		return models.User{}, err
	}

	user, err := users.FindByID(r.Context(), userID)
	if err != nil {
		return models.User{}, unauthorized("Invalid access token")
	}

	return user, nil
}

func bearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie(accessCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// identity returns the authenticated user or a 401 classification. Handlers
// behind RequireAuth treat the error branch as unreachable in practice.
func identity(r *http.Request) (models.User, error) {
	user, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		return models.User{}, unauthorized("Unauthorized request")
	}
	return user, nil
}

// setAuthCookies delivers both tokens as secure, http-only, cross-site
// capable cookies alongside the JSON body.
func setAuthCookies(w http.ResponseWriter, pair models.TokenPair) {
	http.SetCookie(w, authCookie(accessCookieName, pair.AccessToken, pair.AccessExpiresAt))
	http.SetCookie(w, authCookie(refreshCookieName, pair.RefreshToken, pair.RefreshExpiresAt))
}

func clearAuthCookies(w http.ResponseWriter) {
	expired := time.Unix(0, 0)
	http.SetCookie(w, authCookie(accessCookieName, "", expired))
	http.SetCookie(w, authCookie(refreshCookieName, "", expired))
}

func authCookie(name, value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	}
}
