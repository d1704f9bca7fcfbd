package handler

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/templui/muzer/internal/config"
	"github.com/templui/muzer/internal/ctxkeys"
	"github.com/templui/muzer/internal/middleware"
	"github.com/templui/muzer/internal/model"
	"github.com/templui/muzer/internal/service"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
)

const oauthStateCookie = "oauth_state"

// oauthProvider is one sign-in option. fetchEmail reads the verified address
// from the provider's user API.
type oauthProvider struct {
	label       string
	config      *oauth2.Config
	userInfoURL string
	fetchEmail  func(ctx context.Context, client *http.Client, userInfoURL string) (string, error)
}

type authHandler struct {
	authService  *service.AuthService
	providers    map[string]*oauthProvider
	redirectURL  string
	isProduction bool
}

func NewAuthHandler(authService *service.AuthService, cfg *config.Config) *authHandler {
	return &authHandler{
		authService:  authService,
		redirectURL:  cfg.AppURL + cfg.AuthRedirectPath,
		isProduction: cfg.IsProduction(),
		providers: map[string]*oauthProvider{
			"google": {
				label: model.ProviderGoogle,
				config: &oauth2.Config{
					ClientID:     cfg.GoogleClientID,
					ClientSecret: cfg.GoogleClientSecret,
					RedirectURL:  cfg.AppURL + "/auth/google/callback",
					Scopes:       []string{"https://www.googleapis.com/auth/userinfo.email"},
					Endpoint:     google.Endpoint,
				},
				userInfoURL: "https://www.googleapis.com/oauth2/v2/userinfo",
				fetchEmail:  fetchGoogleEmail,
			},
			"github": {
				label: model.ProviderGitHub,
				config: &oauth2.Config{
					ClientID:     cfg.GitHubClientID,
					ClientSecret: cfg.GitHubClientSecret,
					RedirectURL:  cfg.AppURL + "/auth/github/callback",
					Scopes:       []string{"user:email"},
					Endpoint:     github.Endpoint,
				},
				userInfoURL: "https://api.github.com/user",
				fetchEmail:  fetchGitHubEmail,
			},
		},
	}
}

func (h *authHandler) provider(w http.ResponseWriter, r *http.Request) (*oauthProvider, bool) {
	p, ok := h.providers[r.PathValue("provider")]
	if !ok || p.config.ClientID == "" {
		middleware.ErrorResponse(w, http.StatusNotFound, "Unknown sign-in provider")
		return nil, false
	}
	return p, true
}

// Login handles GET /auth/{provider} by redirecting to the consent screen.
func (h *authHandler) Login(w http.ResponseWriter, r *http.Request) {
	p, ok := h.provider(w, r)
	if !ok {
		return
	}

	state := generateOAuthState()

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.isProduction,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   600,
	})

	http.Redirect(w, r, p.config.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// Callback handles GET /auth/{provider}/callback. Browsers are redirected
// with a session cookie; clients sending Accept: application/json receive the
// token in the body for use as a bearer credential.
func (h *authHandler) Callback(w http.ResponseWriter, r *http.Request) {
	p, ok := h.provider(w, r)
	if !ok {
		return
	}

	state := r.URL.Query().Get("state")
	cookie, err := r.Cookie(oauthStateCookie)
	if err != nil || state == "" || cookie.Value != state {
		slog.Warn("oauth state validation failed", "provider", p.label, "error", err)
		middleware.ErrorResponse(w, http.StatusUnauthorized, "OAuth authentication failed. Please try again.")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:   oauthStateCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	code := r.URL.Query().Get("code")
	if code == "" {
		slog.Warn("oauth callback missing code", "provider", p.label)
		middleware.ErrorResponse(w, http.StatusUnauthorized, "OAuth authentication failed. Please try again.")
		return
	}

	token, err := p.config.Exchange(r.Context(), code)
	if err != nil {
		slog.Error("oauth token exchange failed", "provider", p.label, "error", err)
		middleware.ErrorResponse(w, http.StatusUnauthorized, "OAuth authentication failed. Please try again.")
		return
	}

	email, err := p.fetchEmail(r.Context(), p.config.Client(r.Context(), token), p.userInfoURL)
	if err != nil {
		slog.Error("failed to read oauth user info", "provider", p.label, "error", err)
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Could not retrieve email from the identity provider.")
		return
	}

	user, err := h.authService.AuthenticateOAuth(r.Context(), email, p.label)
	if err != nil {
		serviceError(w, r, err, "Authentication failed. Please try again.")
		return
	}

	jwtToken, err := h.authService.GenerateJWT(user)
	if err != nil {
		serviceError(w, r, err, "An error occurred. Please try again.")
		return
	}

	h.authService.SetJWTCookie(w, jwtToken, time.Now().Add(h.authService.JWTExpiry()))
	slog.Info("user signed in", "user_id", user.ID, "provider", p.label)

	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		middleware.JSONResponse(w, http.StatusOK, map[string]string{"id": user.ID, "token": jwtToken})
		return
	}

	http.Redirect(w, r, h.redirectURL, http.StatusSeeOther)
}

// Logout handles POST /auth/logout
func (h *authHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.authService.ClearJWTCookie(w)
	if id := ctxkeys.SessionUserID(r.Context()); id != "" {
		slog.Info("user signed out", "user_id", id)
	}
	middleware.JSONResponse(w, http.StatusOK, map[string]string{"message": "Signed out"})
}

func getJSON(ctx context.Context, client *http.Client, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		closeErr := resp.Body.Close()
		if closeErr != nil {
			slog.Error("failed to close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: unexpected status %d", url, resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(v)
}

func fetchGoogleEmail(ctx context.Context, client *http.Client, userInfoURL string) (string, error) {
	var info struct {
		Email         string `json:"email"`
		VerifiedEmail bool   `json:"verified_email"`
	}
	err := getJSON(ctx, client, userInfoURL, &info)
	if err != nil {
		return "", err
	}
	if info.Email == "" || !info.VerifiedEmail {
		return "", errors.New("google account has no verified email")
	}
	return info.Email, nil
}

// fetchGitHubEmail falls back to /user/emails when the profile email is
// private.
func fetchGitHubEmail(ctx context.Context, client *http.Client, userInfoURL string) (string, error) {
	var info struct {
		Email string `json:"email"`
	}
	err := getJSON(ctx, client, userInfoURL, &info)
	if err != nil {
		return "", err
	}
	if info.Email != "" {
		return info.Email, nil
	}

	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	err = getJSON(ctx, client, strings.TrimSuffix(userInfoURL, "/")+"/emails", &emails)
	if err != nil {
		return "", err
	}
	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email, nil
		}
	}
	return "", errors.New("github account has no verified primary email")
}

// generateOAuthState creates cryptographically secure random state token for OAuth CSRF protection
func generateOAuthState() string {
	bytes := make([]byte, 32)
	_, err := rand.Read(bytes)
	if err != nil {
		panic("failed to generate oauth state: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(bytes)
}
