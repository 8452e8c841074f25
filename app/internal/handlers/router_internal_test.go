package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/marketconnect/helpdesk-proxy/app/internal/ticket"
	"github.com/marketconnect/helpdesk-proxy/app/internal/upstream"
)

func TestRecoverPanics(t *testing.T) {
	h := recoverPanics(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()

	assert.NotPanics(t, func() {
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"ok":false,"error":"Internal server error"}`, rec.Body.String())
}

func TestRenderError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"http error", NewError(http.StatusBadRequest, errors.New("bad")), http.StatusBadRequest, `{"ok":false,"error":"bad"}`},
		{"http error with body", &HTTPError{Status: http.StatusUnauthorized, Err: errors.New("x"), Body: []byte(`{"error":"nope"}`)}, http.StatusUnauthorized, `{"ok":false,"error":{"error":"nope"}}`},
		{"upstream", upstream.NewError(http.StatusConflict, []byte("busy")), http.StatusConflict, `{"ok":false,"error":{"raw":"busy"}}`},
		{"upstream without status", upstream.NewError(0, nil), http.StatusInternalServerError, `{"ok":false,"error":null}`},
		{"invalid path", upstream.ErrInvalidPath, http.StatusBadRequest, `{"ok":false,"error":"` + upstream.ErrInvalidPath.Error() + `"}`},
		{"empty comment", ticket.ErrEmptyComment, http.StatusBadRequest, `{"ok":false,"error":"comment body is required"}`},
		{"partial", &ticket.PartialFailureError{Err: errors.New("timeout"), Uploaded: []string{"t1"}}, http.StatusInternalServerError, `{"ok":false,"error":"timeout","partial":true,"orphanedUploads":[]}`},
		{"unknown", errors.New("secret detail"), http.StatusInternalServerError, `{"ok":false,"error":"Internal server error"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			renderError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)
			assert.Equal(t, tt.status, rec.Code)
			assert.JSONEq(t, tt.body, rec.Body.String())
		})
	}
}
