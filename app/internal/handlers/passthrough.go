package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/marketconnect/helpdesk-proxy/app/domain/entities"
	"github.com/marketconnect/helpdesk-proxy/app/internal/upstream"
)

var errBadPassthroughPath = errors.New("Missing or invalid ?path=/api/v2/...")

// passthrough relays an arbitrary /api/v2 call with the session's credential.
func (h *Handler) passthrough(w http.ResponseWriter, r *http.Request) error {
	path := r.URL.Query().Get("path")
	if err := upstream.ValidatePath(path); err != nil {
		return NewError(http.StatusBadRequest, errBadPassthroughPath)
	}
	cred, err := credential(r)
	if err != nil {
		return err
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes))
	if err != nil {
		return NewError(http.StatusRequestEntityTooLarge, errUploadTooLarge)
	}
	headers := upstream.ForwardHeaders(r.Header)
	if len(body) == 0 {
		body = nil
	} else if headers.Get("Content-Type") == "" {
		headers.Set("Content-Type", "application/json")
	}

	resp, err := h.upstream.Do(r.Context(), cred, "passthrough", entities.ProxyRequest{
		Method:  r.Method,
		Path:    path,
		Headers: headers,
		Body:    body,
	})
	if err != nil {
		return err
	}
	if !resp.OK() {
		return upstream.NewError(resp.StatusCode, resp.Body)
	}
	writeRaw(w, resp.StatusCode, resp.Headers.Get("Content-Type"), resp.Body)
	return nil
}
