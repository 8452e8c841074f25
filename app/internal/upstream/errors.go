package upstream

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

var (
	// ErrInvalidPath is returned for passthrough paths outside the API root.
	ErrInvalidPath = errors.New("path must start with " + APIRoot)
	// ErrNoIdentity is returned when the identity check succeeds without a usable user.
	ErrNoIdentity = errors.New("could not validate user")

	errMissingUploadToken = errors.New("upload response has no token")
)

// Error is a failed upstream call. Status is the upstream status code, or
// 500 when no response was received. Body is the upstream response as JSON.
type Error struct {
	Status int
	Body   json.RawMessage
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upstream %d: %v", e.Status, e.Err)
	}
	return fmt.Sprintf("upstream %d: %s", e.Status, http.StatusText(e.Status))
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds the error for a non-2xx response with the given raw body.
func NewError(status int, body []byte) *Error {
	return &Error{Status: status, Body: normalizeBody(body)}
}

func networkError(err error) *Error {
	msg, _ := json.Marshal(err.Error())
	return &Error{Status: http.StatusInternalServerError, Body: msg, Err: err}
}

// normalizeBody returns b when it is JSON and wraps anything else as {"raw": text}.
func normalizeBody(b []byte) json.RawMessage {
	if len(b) == 0 {
		return json.RawMessage("null")
	}
	if gjson.ValidBytes(b) {
		return json.RawMessage(b)
	}
	wrapped, _ := json.Marshal(struct {
		Raw string `json:"raw"`
	}{string(b)})
	return wrapped
}
