package entities

import "net/http"

type ProxyResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// OK reports whether the upstream answered with a 2xx status.
func (r *ProxyResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}
