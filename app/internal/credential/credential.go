// Package credential encodes helpdesk API-token credentials as HTTP Basic auth.
package credential

import (
	"encoding/base64"
	"errors"
	"strings"
)

const (
	basicPrefix = "Basic "
	tokenMarker = "/token:"
)

var errMalformed = errors.New("malformed api token authorization header")

// BasicAuth returns the Authorization header value for an API-token login,
// i.e. "Basic " + base64("{email}/token:{apiToken}").
func BasicAuth(email, apiToken string) string {
	return basicPrefix + base64.StdEncoding.EncodeToString([]byte(email+tokenMarker+apiToken))
}

// Decode is the inverse of BasicAuth.
func Decode(header string) (email, apiToken string, err error) {
	if !strings.HasPrefix(header, basicPrefix) {
		return "", "", errMalformed
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(header, basicPrefix))
	if err != nil {
		return "", "", errMalformed
	}
	email, apiToken, ok := strings.Cut(string(raw), tokenMarker)
	if !ok {
		return "", "", errMalformed
	}
	return email, apiToken, nil
}
