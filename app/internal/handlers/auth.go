package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/marketconnect/helpdesk-proxy/app/domain/entities"
	"github.com/marketconnect/helpdesk-proxy/app/internal/session"
	"github.com/marketconnect/helpdesk-proxy/app/internal/upstream"
)

var (
	errNotAuthenticated = errors.New("Not authenticated")
	errMissingLogin     = errors.New("Missing email, token, or subdomain.")
	errBadSubdomain     = errors.New("Invalid subdomain.")
	errBadJSON          = errors.New("Invalid JSON body.")
)

var sessionCredential = session.CredentialFromContext

type loginRequest struct {
	Email     string `json:"email"`
	Token     string `json:"token"`
	Subdomain string `json:"subdomain"`
}

type loginResponse struct {
	OK        bool          `json:"ok"`
	User      entities.User `json:"user"`
	Subdomain string        `json:"subdomain"`
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// login verifies the credential upstream and starts a session for it.
func (h *Handler) login(w http.ResponseWriter, r *http.Request) error {
	var req loginRequest
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)).Decode(&req)
	if err != nil && !errors.Is(err, io.EOF) {
		h.opts.Metrics.Login("invalid")
		return NewError(http.StatusBadRequest, errBadJSON)
	}

	defaults := h.opts.LoginDefaults
	cred := &entities.Credential{
		Email:     firstNonEmpty(req.Email, defaults.Email),
		APIToken:  firstNonEmpty(req.Token, defaults.APIToken),
		Subdomain: strings.ToLower(firstNonEmpty(req.Subdomain, defaults.Subdomain)),
	}
	if cred.Email == "" || cred.APIToken == "" || cred.Subdomain == "" {
		h.opts.Metrics.Login("invalid")
		return NewError(http.StatusBadRequest, errMissingLogin)
	}
	if !upstream.ValidSubdomain(cred.Subdomain) {
		h.opts.Metrics.Login("invalid")
		return NewError(http.StatusBadRequest, errBadSubdomain)
	}

	logger := zerolog.Ctx(r.Context())
	user, err := h.upstream.Me(r.Context(), cred)
	if err != nil {
		h.opts.Metrics.Login("rejected")
		logger.Info().Err(err).Str("subdomain", cred.Subdomain).Msg("login rejected")
		rejected := &HTTPError{Status: http.StatusUnauthorized, Err: err}
		var upErr *upstream.Error
		if errors.As(err, &upErr) {
			rejected.Body = upErr.Body
		}
		return rejected
	}

	sessionID, err := h.sessions.Create(cred.Email, cred.APIToken, cred.Subdomain)
	if err != nil {
		return NewError(http.StatusInternalServerError, err)
	}
	session.SetCookie(w, sessionID, h.sessions.TTL(), h.opts.SecureCookies)
	h.opts.Metrics.Login("ok")
	logger.Info().Str("subdomain", cred.Subdomain).Int64("user_id", user.ID).Msg("login")

	if user.Email == "" {
		user.Email = cred.Email
	}
	renderJSON(w, http.StatusOK, loginResponse{OK: true, User: *user, Subdomain: cred.Subdomain})
	return nil
}

// logout forgets the session, if any, and clears the cookie either way.
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) error {
	if sessionID := session.IDFromRequest(r); sessionID != "" {
		if err := h.sessions.Delete(sessionID); err != nil {
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("deleting session on logout")
		}
	}
	session.ClearCookie(w, h.opts.SecureCookies)
	renderJSON(w, http.StatusOK, struct {
		OK bool `json:"ok"`
	}{true})
	return nil
}

// sessionInfo reports who the current session belongs to.
func (h *Handler) sessionInfo(w http.ResponseWriter, r *http.Request) error {
	cred, err := credential(r)
	if err != nil {
		return err
	}
	renderJSON(w, http.StatusOK, struct {
		OK        bool   `json:"ok"`
		Email     string `json:"email"`
		Subdomain string `json:"subdomain"`
	}{true, cred.Email, cred.Subdomain})
	return nil
}
