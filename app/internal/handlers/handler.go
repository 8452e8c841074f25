package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/marketconnect/helpdesk-proxy/app/domain/entities"
	"github.com/marketconnect/helpdesk-proxy/app/internal/metrics"
	"github.com/marketconnect/helpdesk-proxy/app/internal/ticket"
)

type SessionManager interface {
	Create(email, apiToken, subdomain string) (string, error)
	Delete(sessionID string) error
	TTL() time.Duration
	Require(onReject func(w http.ResponseWriter, r *http.Request, status int, msg string)) func(http.Handler) http.Handler
}

type Upstream interface {
	Me(ctx context.Context, cred *entities.Credential) (*entities.User, error)
	GetTicket(ctx context.Context, cred *entities.Credential, id string) ([]byte, error)
	UpdateTicket(ctx context.Context, cred *entities.Credential, id string, body []byte) ([]byte, error)
	ListComments(ctx context.Context, cred *entities.Credential, id string) ([]byte, error)
	Do(ctx context.Context, cred *entities.Credential, op string, p entities.ProxyRequest) (*entities.ProxyResponse, error)
}

type CommentPoster interface {
	Post(ctx context.Context, cred *entities.Credential, id string, c ticket.Comment) ([]byte, error)
}

const (
	defaultMaxUploadBytes = 32 << 20
	maxJSONBodyBytes      = 10 << 20
)

// Options configures a Handler.
type Options struct {
	// LoginDefaults fill in login fields the caller leaves empty.
	LoginDefaults entities.Credential
	// SecureCookies marks the session cookie Secure (production).
	SecureCookies bool
	// AllowedOrigins may make credentialed cross-origin calls.
	AllowedOrigins []string
	MaxUploadBytes int64
	Metrics        *metrics.Metrics
}

// Handler serves the dashboard API. Every route except login, logout and
// health requires a session.
type Handler struct {
	sessions SessionManager
	upstream Upstream
	comments CommentPoster
	opts     Options
	now      func() time.Time
}

// NewHandler creates a new Handler with injected dependencies
func NewHandler(sessions SessionManager, up Upstream, comments CommentPoster, opts Options) *Handler {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUploadBytes
	}
	return &Handler{
		sessions: sessions,
		upstream: up,
		comments: comments,
		opts:     opts,
		now:      time.Now,
	}
}

// credential returns the session credential placed in the context by the
// session middleware. Routes without that middleware must not call it.
func credential(r *http.Request) (*entities.Credential, error) {
	cred, ok := sessionCredential(r.Context())
	if !ok {
		return nil, NewError(http.StatusUnauthorized, errNotAuthenticated)
	}
	return cred, nil
}
