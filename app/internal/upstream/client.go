// Package upstream calls the Zendesk REST API on behalf of a logged-in agent.
package upstream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/marketconnect/helpdesk-proxy/app/domain/entities"
	"github.com/marketconnect/helpdesk-proxy/app/internal/credential"
	"github.com/marketconnect/helpdesk-proxy/app/internal/metrics"
)

// APIRoot prefixes every path the proxy is allowed to reach.
const APIRoot = "/api/v2"

var subdomainRE = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)

// ValidSubdomain reports whether s is a single lower-case DNS label.
func ValidSubdomain(s string) bool {
	return subdomainRE.MatchString(s)
}

// ValidatePath checks a caller-supplied path against the API root.
func ValidatePath(path string) error {
	if path != APIRoot && !strings.HasPrefix(path, APIRoot+"/") && !strings.HasPrefix(path, APIRoot+"?") {
		return ErrInvalidPath
	}
	p, _, _ := strings.Cut(path, "?")
	if strings.Contains(p, "/../") || strings.HasSuffix(p, "/..") {
		return ErrInvalidPath
	}
	return nil
}

// ZendeskURL is the default base URL for a subdomain.
func ZendeskURL(subdomain string) string {
	return "https://" + subdomain + ".zendesk.com"
}

// Client forwards requests to the helpdesk. One attempt per call, no retries.
type Client struct {
	httpClient *http.Client
	baseURL    func(subdomain string) string
	limiter    *rate.Limiter
	metrics    *metrics.Metrics
}

type Option func(*Client)

// WithBaseURL overrides how a subdomain maps to a base URL.
func WithBaseURL(f func(subdomain string) string) Option {
	return func(c *Client) { c.baseURL = f }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimit spaces calls so that at most perMin start each minute.
// perMin <= 0 disables limiting.
func WithRateLimit(perMin int) Option {
	return func(c *Client) {
		if perMin <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMin)), 1)
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient creates a client whose calls give up after timeout.
func NewClient(timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    ZendeskURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// resolve joins path onto the session's base URL and refuses anything that
// would leave that host.
func (c *Client) resolve(cred *entities.Credential, path string) (string, error) {
	if !ValidSubdomain(cred.Subdomain) {
		return "", fmt.Errorf("invalid subdomain %q", cred.Subdomain)
	}
	base, err := url.Parse(c.baseURL(cred.Subdomain))
	if err != nil {
		return "", fmt.Errorf("invalid base url: %w", err)
	}
	if !strings.HasPrefix(path, "/") {
		return "", ErrInvalidPath
	}
	target, err := url.Parse(strings.TrimRight(base.String(), "/") + path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	if target.Scheme != base.Scheme || target.Host != base.Host || target.User != nil {
		return "", ErrInvalidPath
	}
	return target.String(), nil
}

// Do sends p and returns the upstream response whatever its status.
// Only transport failures are returned as errors, as *Error with status 500.
func (c *Client) Do(ctx context.Context, cred *entities.Credential, op string, p entities.ProxyRequest) (*entities.ProxyResponse, error) {
	targetURL, err := c.resolve(cred, p.Path)
	if err != nil {
		return nil, err
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, networkError(err)
		}
	}

	var body io.Reader
	if p.Body != nil {
		body = bytes.NewReader(p.Body)
	}
	req, err := http.NewRequestWithContext(ctx, p.Method, targetURL, body)
	if err != nil {
		return nil, fmt.Errorf("creating upstream request: %w", err)
	}
	if p.Headers != nil {
		req.Header = p.Headers.Clone()
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	req.Header.Set("Authorization", credential.BasicAuth(cred.Email, cred.APIToken))

	logger := zerolog.Ctx(ctx).With().Str("op", op).Str("method", p.Method).Logger()
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveUpstream(op, 0, time.Since(start))
		logger.Warn().Err(err).Msg("upstream request failed")
		return nil, networkError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	c.metrics.ObserveUpstream(op, resp.StatusCode, time.Since(start))
	if err != nil {
		logger.Warn().Err(err).Int("status", resp.StatusCode).Msg("reading upstream response failed")
		return nil, networkError(err)
	}
	logger.Debug().Int("status", resp.StatusCode).Int("bytes", len(respBody)).Dur("elapsed", time.Since(start)).Msg("upstream response")

	return &entities.ProxyResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header.Clone(),
		Body:       respBody,
	}, nil
}

// Call is Do for JSON endpoints: a non-2xx status becomes *Error carrying the upstream body.
func (c *Client) Call(ctx context.Context, cred *entities.Credential, op, method, path string, body []byte) ([]byte, error) {
	p := entities.ProxyRequest{Method: method, Path: path, Body: body}
	if body != nil {
		p.Headers = http.Header{"Content-Type": []string{"application/json"}}
	}
	resp, err := c.Do(ctx, cred, op, p)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, NewError(resp.StatusCode, resp.Body)
	}
	return resp.Body, nil
}

// forwardedHeaders are the only request headers a passthrough carries upstream.
var forwardedHeaders = []string{"Content-Type", "Accept", "Accept-Language"}

// ForwardHeaders copies the end-to-end content headers from h. Cookies,
// credentials and origin information never leave the proxy.
func ForwardHeaders(h http.Header) http.Header {
	out := make(http.Header)
	for _, k := range forwardedHeaders {
		if v := h.Values(k); len(v) > 0 {
			out[k] = append([]string(nil), v...)
		}
	}
	return out
}
