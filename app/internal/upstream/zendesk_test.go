package upstream_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketconnect/helpdesk-proxy/app/internal/upstream"
)

func TestClient_Me(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
		wantID  int64
	}{
		{"ok", http.StatusOK, `{"user":{"id":1,"name":"A","email":"a@b.com"}}`, nil, 1},
		{"anonymous", http.StatusOK, `{"user":{"id":null,"name":"Anonymous user"}}`, upstream.ErrNoIdentity, 0},
		{"no user", http.StatusOK, `{}`, upstream.ErrNoIdentity, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/v2/users/me.json", r.URL.Path)
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			user, err := c.Me(context.Background(), testCred)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, user.ID)
			assert.Equal(t, "A", user.Name)
			assert.Equal(t, "a@b.com", user.Email)
		})
	}
}

func TestClient_MeUnauthorized(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"Couldn't authenticate you"}`))
	})

	_, err := c.Me(context.Background(), testCred)
	var upErr *upstream.Error
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, http.StatusUnauthorized, upErr.Status)
}

func TestClient_TicketEndpoints(t *testing.T) {
	type seen struct{ method, path, query, body, contentType string }
	var got seen
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		got = seen{r.Method, r.URL.Path, r.URL.RawQuery, string(b), r.Header.Get("Content-Type")}
		w.Write([]byte(`{"ticket":{"id":42}}`))
	})
	ctx := context.Background()

	_, err := c.GetTicket(ctx, testCred, "42")
	require.NoError(t, err)
	assert.Equal(t, seen{http.MethodGet, "/api/v2/tickets/42.json", "include=users,organizations,groups", "", ""}, got)

	_, err = c.ListComments(ctx, testCred, "42")
	require.NoError(t, err)
	assert.Equal(t, seen{http.MethodGet, "/api/v2/tickets/42/comments.json", "include=users&include_inline_images=true", "", ""}, got)

	body, err := c.UpdateTicket(ctx, testCred, "42", []byte(`{"ticket":{"status":"solved"}}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"ticket":{"id":42}}`, string(body))
	assert.Equal(t, seen{http.MethodPut, "/api/v2/tickets/42.json", "", `{"ticket":{"status":"solved"}}`, "application/json"}, got)
}

func TestClient_Upload(t *testing.T) {
	var gotQuery, gotType, gotBody string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v2/uploads.json", r.URL.Path)
		gotQuery = r.URL.Query().Get("filename")
		gotType = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"upload":{"token":"tok-1","attachment":{}}}`))
	})

	token, err := c.Upload(context.Background(), testCred, "screen shot & co.png", "", []byte("PNGDATA"))
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)
	assert.Equal(t, "screen shot & co.png", gotQuery)
	assert.Equal(t, "application/octet-stream", gotType)
	assert.Equal(t, "PNGDATA", gotBody)
}

func TestClient_UploadFailures(t *testing.T) {
	t.Run("status", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			w.Write([]byte(`{"error":"too big"}`))
		})
		_, err := c.Upload(context.Background(), testCred, "f.txt", "text/plain", []byte("x"))
		var upErr *upstream.Error
		require.True(t, errors.As(err, &upErr))
		assert.Equal(t, http.StatusUnprocessableEntity, upErr.Status)
	})
	t.Run("missing token", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"upload":{}}`))
		})
		_, err := c.Upload(context.Background(), testCred, "f.txt", "text/plain", []byte("x"))
		var upErr *upstream.Error
		require.True(t, errors.As(err, &upErr))
		assert.Equal(t, http.StatusInternalServerError, upErr.Status)
	})
}

func TestClient_DeleteUpload(t *testing.T) {
	var gotMethod, gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, c.DeleteUpload(context.Background(), testCred, "tok-1"))
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/api/v2/uploads/tok-1.json", gotPath)
}
