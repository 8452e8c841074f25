package session

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/marketconnect/helpdesk-proxy/app/domain/entities"
)

type contextKey struct{}

// WithCredential returns a copy of ctx carrying cred.
func WithCredential(ctx context.Context, cred *entities.Credential) context.Context {
	return context.WithValue(ctx, contextKey{}, cred)
}

// CredentialFromContext returns the credential resolved by Require, if any.
func CredentialFromContext(ctx context.Context) (*entities.Credential, bool) {
	cred, ok := ctx.Value(contextKey{}).(*entities.Credential)
	return cred, ok && cred != nil
}

// Require rejects requests without a live session with 401 and otherwise
// passes the resolved credential to next through the request context.
// onReject writes the rejection.
func (sm *SessionManager) Require(onReject func(w http.ResponseWriter, r *http.Request, status int, msg string)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cred, err := sm.Get(IDFromRequest(r))
			switch {
			case err == nil:
				next.ServeHTTP(w, r.WithContext(WithCredential(r.Context(), cred)))
			case errors.Is(err, entities.ErrSessionNotFound):
				onReject(w, r, http.StatusUnauthorized, "Not authenticated")
			default:
				zerolog.Ctx(r.Context()).Error().Err(err).Msg("session lookup failed")
				onReject(w, r, http.StatusInternalServerError, "Session lookup failed")
			}
		})
	}
}
