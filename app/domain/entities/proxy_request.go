package entities

import "net/http"

// ProxyRequest is a single call forwarded to the helpdesk API.
// Path is relative to the API host and may carry a query string.
type ProxyRequest struct {
	Method  string
	Path    string
	Headers http.Header
	Body    []byte
}
