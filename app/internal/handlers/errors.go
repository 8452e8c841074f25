package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/marketconnect/helpdesk-proxy/app/internal/ticket"
	"github.com/marketconnect/helpdesk-proxy/app/internal/upstream"
)

// HTTPError contains an HTTP status code and wrapped error.
type HTTPError struct {
	Status int
	Err    error
	// Body replaces Err's message in the response when set.
	Body json.RawMessage
}

// NewError returns an error that contains a HTTP status and error.
func NewError(status int, err error) error {
	return &HTTPError{Status: status, Err: err}
}

func (e *HTTPError) Error() string {
	return http.StatusText(e.Status) + ": " + e.Err.Error()
}

func (e *HTTPError) Unwrap() error { return e.Err }

// envelope is the wire form of every failure: {ok:false, error}.
type envelope struct {
	OK    bool `json:"ok"`
	Error any  `json:"error"`
}

type partialEnvelope struct {
	envelope
	Partial         bool     `json:"partial"`
	OrphanedUploads []string `json:"orphanedUploads"`
}

// upstreamStatus maps an upstream failure to the status relayed to the browser.
func upstreamStatus(e *upstream.Error) int {
	if e.Status == 0 {
		return http.StatusInternalServerError
	}
	return e.Status
}

// renderError converts err to a JSON envelope. It is the only place errors
// become wire responses.
func renderError(w http.ResponseWriter, r *http.Request, err error) {
	logger := zerolog.Ctx(r.Context())

	var (
		partial *ticket.PartialFailureError
		httpErr *HTTPError
		upErr   *upstream.Error
	)
	switch {
	case errors.As(err, &partial):
		status := http.StatusInternalServerError
		var msg any = partial.Err.Error()
		if errors.As(partial.Err, &upErr) {
			status = upstreamStatus(upErr)
			msg = upErr.Body
		}
		orphaned := partial.Orphaned
		if orphaned == nil {
			orphaned = []string{}
		}
		logger.Warn().Err(err).Int("status", status).Msg("comment partially failed")
		renderJSON(w, status, partialEnvelope{
			envelope:        envelope{Error: msg},
			Partial:         true,
			OrphanedUploads: orphaned,
		})
	case errors.As(err, &httpErr):
		if httpErr.Status >= http.StatusInternalServerError {
			logger.Error().Err(err).Msg("request failed")
		}
		var msg any = httpErr.Err.Error()
		if httpErr.Body != nil {
			msg = httpErr.Body
		}
		renderJSON(w, httpErr.Status, envelope{Error: msg})
	case errors.As(err, &upErr):
		status := upstreamStatus(upErr)
		logger.Info().Err(err).Int("status", status).Msg("upstream error relayed")
		renderJSON(w, status, envelope{Error: upErr.Body})
	case errors.Is(err, upstream.ErrInvalidPath):
		renderJSON(w, http.StatusBadRequest, envelope{Error: err.Error()})
	case errors.Is(err, ticket.ErrEmptyComment):
		renderJSON(w, http.StatusBadRequest, envelope{Error: err.Error()})
	default:
		logger.Error().Err(err).Msg("unhandled error")
		renderJSON(w, http.StatusInternalServerError, envelope{Error: "Internal server error"})
	}
}

// rejectRequest adapts renderError for middleware that only has a status and message.
func rejectRequest(w http.ResponseWriter, _ *http.Request, status int, msg string) {
	renderJSON(w, status, envelope{Error: msg})
}
