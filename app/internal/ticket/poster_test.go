package ticket_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketconnect/helpdesk-proxy/app/domain/entities"
	"github.com/marketconnect/helpdesk-proxy/app/internal/ticket"
	"github.com/marketconnect/helpdesk-proxy/app/internal/upstream"
)

var cred = &entities.Credential{Email: "a@b.com", APIToken: "t", Subdomain: "acme"}

// fakeUpstream records calls; failUpload and failDelete are keyed by filename and token.
type fakeUpstream struct {
	uploads    []string
	deleted    []string
	updates    []string
	failUpload map[string]error
	failDelete map[string]error
	failUpdate error
	deleteErrs []error // ctx.Err() seen by each DeleteUpload call
}

func (f *fakeUpstream) Upload(_ context.Context, _ *entities.Credential, filename, _ string, _ []byte) (string, error) {
	if err := f.failUpload[filename]; err != nil {
		return "", err
	}
	token := fmt.Sprintf("tok-%d", len(f.uploads)+1)
	f.uploads = append(f.uploads, token)
	return token, nil
}

func (f *fakeUpstream) DeleteUpload(ctx context.Context, _ *entities.Credential, token string) error {
	f.deleteErrs= append(f.deleteErrs, ctx.Err())
	if err := f.failDelete[token]; err != nil {
		return err
	}
	f.deleted = append(f.deleted, token)
	return nil
}

func (f *fakeUpstream) UpdateTicket(_ context.Context, _ *entities.Credential, id string, body []byte) ([]byte, error) {
	if f.failUpdate != nil {
		return nil, f.failUpdate
	}
	f.updates = append(f.updates, id+" "+string(body))
	return []byte(`{"ticket":{"id":` + id + `}}`), nil
}

func files(names ...string) []ticket.File {
	out := make([]ticket.File, 0, len(names))
	for _, n := range names {
		out = append(out, ticket.File{Filename: n, ContentType: "text/plain", Data: []byte(n)})
	}
	return out
}

func TestPoster_Success(t *testing.T) {
	up := &fakeUpstream{}
	p := ticket.NewPoster(up, nil)

	resp, err := p.Post(context.Background(), cred, "42", ticket.Comment{Public: true, Files: files("a.txt", "b.txt")})
	require.NoError(t, err)

	assert.JSONEq(t, `{"ticket":{"id":42}}`, string(resp))
	assert.Equal(t, []string{"tok-1", "tok-2"}, up.uploads)
	require.Len(t, up.updates, 1)
	assert.Equal(t,
		`42 {"ticket":{"comment":{"body":"Attachment(s) uploaded.","public":true,"uploads":["tok-1","tok-2"]}}}`,
		up.updates[0])
	assert.Empty(t, up.deleted)
}

func TestPoster_EmptyComment(t *testing.T) {
	up := &fakeUpstream{}
	_, err := ticket.NewPoster(up, nil).Post(context.Background(), cred, "42", ticket.Comment{})

	assert.ErrorIs(t, err, ticket.ErrEmptyComment)
	assert.Empty(t, up.uploads)
	assert.Empty(t, up.updates)
}

func TestPoster_FirstUploadFails(t *testing.T) {
	upErr := &upstream.Error{Status: http.StatusUnprocessableEntity, Body: []byte(`{"error":"bad"}`)}
	up := &fakeUpstream{failUpload: map[string]error{"a.txt": upErr}}

	_, err := ticket.NewPoster(up, nil).Post(context.Background(), cred, "42", ticket.Comment{Body: "x", Files: files("a.txt", "b.txt")})

	var partial *ticket.PartialFailureError
	assert.False(t, errors.As(err, &partial), "nothing succeeded, so the failure is not partial")
	var got *upstream.Error
	require.True(t, errors.As(err, &got))
	assert.Equal(t, http.StatusUnprocessableEntity, got.Status)
	assert.Empty(t, up.updates)
	assert.Empty(t, up.deleteErrs)
}

func TestPoster_LaterUploadFailsCompensates(t *testing.T) {
	up := &fakeUpstream{failUpload: map[string]error{"b.txt": &upstream.Error{Status: http.StatusBadGateway}}}

	_, err := ticket.NewPoster(up, nil).Post(context.Background(), cred, "42", ticket.Comment{Body: "x", Files: files("a.txt", "b.txt", "c.txt")})

	var partial *ticket.PartialFailureError
	require.True(t, errors.As(err, &partial))
	assert.Equal(t, []string{"tok-1"}, partial.Uploaded)
	assert.Empty(t, partial.Orphaned)
	assert.Equal(t, []string{"tok-1"}, up.deleted)
	assert.Empty(t, up.updates)

	var got *upstream.Error
	require.True(t, errors.As(err, &got))
	assert.Equal(t, http.StatusBadGateway, got.Status)
}

func TestPoster_UpdateFailsReportsOrphans(t *testing.T) {
	up := &fakeUpstream{
		failUpdate: &upstream.Error{Status: http.StatusNotFound},
		failDelete: map[string]error{"tok-2": errors.New("network down")},
	}

	_, err := ticket.NewPoster(up, nil).Post(context.Background(), cred, "42", ticket.Comment{Body: "x", Files: files("a.txt", "b.txt")})

	var partial *ticket.PartialFailureError
	require.True(t, errors.As(err, &partial))
	assert.Equal(t, []string{"tok-1", "tok-2"}, partial.Uploaded)
	assert.Equal(t, []string{"tok-2"}, partial.Orphaned)
	assert.Equal(t, []string{"tok-1"}, up.deleted)
}

func TestPoster_UpdateFailsWithoutUploads(t *testing.T) {
	up := &fakeUpstream{failUpdate: &upstream.Error{Status: http.StatusForbidden}}

	_, err := ticket.NewPoster(up, nil).Post(context.Background(), cred, "42", ticket.Comment{Body: "x"})

	var partial *ticket.PartialFailureError
	assert.False(t, errors.As(err, &partial))
	var got *upstream.Error
	require.True(t, errors.As(err, &got))
	assert.Equal(t, http.StatusForbidden, got.Status)
}

func TestPoster_CompensatesAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	up := &fakeUpstream{failUpdate: context.Canceled}
	cancel()

	_, err := ticket.NewPoster(up, nil).Post(ctx, cred, "42", ticket.Comment{Files: files("a.txt")})

	var partial *ticket.PartialFailureError
	require.True(t, errors.As(err, &partial))
	require.Len(t, up.deleteErrs, 1)
	assert.NoError(t, up.deleteErrs[0], "cleanup must not inherit the request cancellation")
	assert.Equal(t, []string{"tok-1"}, up.deleted)
}
