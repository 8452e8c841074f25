package upstream

import (
	"context"
	"net/http"
	"net/url"

	"github.com/tidwall/gjson"

	"github.com/marketconnect/helpdesk-proxy/app/domain/entities"
)

// Me runs the identity check for cred.
func (c *Client) Me(ctx context.Context, cred *entities.Credential) (*entities.User, error) {
	body, err := c.Call(ctx, cred, "me", http.MethodGet, APIRoot+"/users/me.json", nil)
	if err != nil {
		return nil, err
	}
	user := gjson.GetBytes(body, "user")
	// anonymous callers get a user object without an id
	if !user.IsObject() || user.Get("id").Int() == 0 {
		return nil, ErrNoIdentity
	}
	return &entities.User{
		ID:    user.Get("id").Int(),
		Name:  user.Get("name").String(),
		Email: user.Get("email").String(),
	}, nil
}

// GetTicket fetches a ticket with its users, organizations and groups side-loaded.
func (c *Client) GetTicket(ctx context.Context, cred *entities.Credential, id string) ([]byte, error) {
	return c.Call(ctx, cred, "get_ticket", http.MethodGet,
		APIRoot+"/tickets/"+url.PathEscape(id)+".json?include=users,organizations,groups", nil)
}

// UpdateTicket sends body as-is as the ticket update.
func (c *Client) UpdateTicket(ctx context.Context, cred *entities.Credential, id string, body []byte) ([]byte, error) {
	if body == nil {
		body = []byte("{}")
	}
	return c.Call(ctx, cred, "update_ticket", http.MethodPut,
		APIRoot+"/tickets/"+url.PathEscape(id)+".json", body)
}

// ListComments fetches a ticket's comments with authors and inline images.
func (c *Client) ListComments(ctx context.Context, cred *entities.Credential, id string) ([]byte, error) {
	return c.Call(ctx, cred, "list_comments", http.MethodGet,
		APIRoot+"/tickets/"+url.PathEscape(id)+"/comments.json?include=users&include_inline_images=true", nil)
}

// Upload stores one file upstream and returns its upload token.
func (c *Client) Upload(ctx context.Context, cred *entities.Credential, filename, contentType string, data []byte) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if data == nil {
		data = []byte{}
	}
	resp, err := c.Do(ctx, cred, "upload", entities.ProxyRequest{
		Method:  http.MethodPost,
		Path:    APIRoot + "/uploads.json?filename=" + url.QueryEscape(filename),
		Headers: http.Header{"Content-Type": []string{contentType}},
		Body:    data,
	})
	if err != nil {
		return "", err
	}
	if !resp.OK() {
		return "", NewError(resp.StatusCode, resp.Body)
	}
	token := gjson.GetBytes(resp.Body, "upload.token").String()
	if token == "" {
		return "", &Error{Status: http.StatusInternalServerError, Body: normalizeBody(resp.Body), Err: errMissingUploadToken}
	}
	return token, nil
}

// DeleteUpload removes an upload that was never attached to a comment.
func (c *Client) DeleteUpload(ctx context.Context, cred *entities.Credential, token string) error {
	_, err := c.Call(ctx, cred, "delete_upload", http.MethodDelete,
		APIRoot+"/uploads/"+url.PathEscape(token)+".json", nil)
	return err
}
