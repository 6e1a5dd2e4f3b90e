package session

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// ErrAuthorizationFailed means an authorization code was rejected or could
// not be read. The user can try again.
var ErrAuthorizationFailed = errors.New("authorization failed")

// ErrInvalidCredentials means the OAuth client settings are incomplete.
var ErrInvalidCredentials = errors.New("invalid oauth client credentials")

// WHOOP OAuth endpoints.
const (
	AuthURL  = "https://api.prod.whoop.com/oauth/oauth2/auth"
	TokenURL = "https://api.prod.whoop.com/oauth/oauth2/token"
)

// Scopes requested on authorization. offline is what makes WHOOP issue a
// refresh token.
var Scopes = []string{
	"read:recovery",
	"read:cycles",
	"read:workout",
	"read:sleep",
	"read:profile",
	"read:body_measurement",
	"offline",
}

// Endpoint is the WHOOP token endpoint. WHOOP expects the client secret in
// the form body.
var Endpoint = oauth2.Endpoint{
	AuthURL:   AuthURL,
	TokenURL:  TokenURL,
	AuthStyle: oauth2.AuthStyleInParams,
}

// Credentials identify the registered OAuth client.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// Validate reports the first missing field.
func (c Credentials) Validate() error {
	var missing []string
	if c.ClientID == "" {
		missing = append(missing, "client_id")
	}
	if c.ClientSecret == "" {
		missing = append(missing, "client_secret")
	}
	if c.RedirectURI == "" {
		missing = append(missing, "redirect_uri")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidCredentials, strings.Join(missing, ", "))
	}
	return nil
}

// OAuthConfig builds the oauth2 configuration for c. A zero endpoint means
// the WHOOP one.
func OAuthConfig(c Credentials, endpoint oauth2.Endpoint) *oauth2.Config {
	if endpoint.TokenURL == "" {
		endpoint = Endpoint
	}
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  c.RedirectURI,
		Endpoint:     endpoint,
		Scopes:       Scopes,
	}
}

// NewState returns a random OAuth state value.
func NewState() string {
	return uuid.NewString()
}

// ExtractCode accepts either a bare authorization code or the whole URL the
// browser was redirected to. For a URL, an error parameter or a state other
// than expectedState is rejected.
func ExtractCode(input, expectedState string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("%w: empty authorization code", ErrAuthorizationFailed)
	}
	if !strings.Contains(input, "code=") && !strings.Contains(input, "error=") {
		return input, nil
	}

	raw := input
	if i := strings.IndexByte(input, '?'); i >= 0 {
		raw = input[i+1:]
	}
	q, err := url.ParseQuery(raw)
	if err != nil {
		return "", fmt.Errorf("%w: unreadable redirect URL: %w", ErrAuthorizationFailed, err)
	}

	if e := q.Get("error"); e != "" {
		if desc := q.Get("error_description"); desc != "" {
			e += ": " + desc
		}
		return "", fmt.Errorf("%w: %s", ErrAuthorizationFailed, e)
	}
	if state := q.Get("state"); state != "" && expectedState != "" && state != expectedState {
		return "", fmt.Errorf("%w: state mismatch, restart the login", ErrAuthorizationFailed)
	}
	code := q.Get("code")
	if code == "" {
		return "", fmt.Errorf("%w: redirect URL has no code", ErrAuthorizationFailed)
	}
	return code, nil
}
