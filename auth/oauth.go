// Package auth runs the GitHub OAuth web flow that yields the bearer token
// the conversion pipeline reads repositories with.
//
// The token is handed back to the browser in the URL fragment and is not
// stored server-side.
package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"
	githubendpoint "golang.org/x/oauth2/github"

	"github.com/richinex/staxchange/model"
)

// Scope is the OAuth scope requested from GitHub.
const Scope = "repo"

// ErrMissingCode is returned when the callback carries no code.
var ErrMissingCode = errors.New("Missing code")

// ErrMissingSecrets is returned when the OAuth app is not configured for
// the code exchange.
var ErrMissingSecrets = errors.New("Missing GitHub OAuth secrets")

// GitHubOAuth builds authorize URLs and exchanges callback codes.
type GitHubOAuth struct {
	clientID     string
	clientSecret string
	endpoint     oauth2.Endpoint
	httpClient   *http.Client
}

// Option configures a GitHubOAuth.
type Option func(*GitHubOAuth)

// WithEndpoint overrides the GitHub OAuth endpoint (GitHub Enterprise, tests).
func WithEndpoint(e oauth2.Endpoint) Option {
	return func(o *GitHubOAuth) {
		o.endpoint = e
	}
}

// WithHTTPClient sets the HTTP client used for the code exchange.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *GitHubOAuth) {
		o.httpClient = hc
	}
}

// New creates a GitHubOAuth for the given OAuth app credentials.
// Missing credentials are reported when a flow step needs them.
func New(clientID, clientSecret string, opts ...Option) *GitHubOAuth {
	o := &GitHubOAuth{
		clientID:     clientID,
		clientSecret: clientSecret,
		endpoint:     githubendpoint.Endpoint,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Configured reports whether both client id and secret are set.
func (o *GitHubOAuth) Configured() bool {
	return o.clientID != "" && o.clientSecret != ""
}

func (o *GitHubOAuth) config(redirectURI string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     o.clientID,
		ClientSecret: o.clientSecret,
		Endpoint:     o.endpoint,
		RedirectURL:  redirectURI,
		Scopes:       []string{Scope},
	}
}

// AuthCodeURL returns the GitHub authorize URL. The state parameter carries
// returnTo so the callback can send the browser back to it.
func (o *GitHubOAuth) AuthCodeURL(redirectURI, returnTo string) (string, error) {
	if o.clientID == "" {
		return "", &model.ConfigurationError{Key: "GITHUB_CLIENT_ID"}
	}
	return o.config(redirectURI).AuthCodeURL(EncodeState(returnTo)), nil
}

// Exchange trades an authorization code for an access token.
func (o *GitHubOAuth) Exchange(ctx context.Context, code, redirectURI string) (string, error) {
	if code == "" {
		return "", ErrMissingCode
	}
	if !o.Configured() {
		return "", ErrMissingSecrets
	}
	if o.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, o.httpClient)
	}

	tok, err := o.config(redirectURI).Exchange(ctx, code)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.ErrorDescription != "" {
			return "", errors.New(re.ErrorDescription)
		}
		return "", fmt.Errorf("Failed to exchange code: %w", err)
	}
	return tok.AccessToken, nil
}

type state struct {
	ReturnTo string `json:"return_to"`
}

// EncodeState packs returnTo into an OAuth state value.
func EncodeState(returnTo string) string {
	b, _ := json.Marshal(state{ReturnTo: returnTo})
	return base64.StdEncoding.EncodeToString(b)
}

// DecodeState recovers the return location from a state value.
// Missing or unreadable state yields "/".
func DecodeState(raw string) string {
	if raw == "" {
		return "/"
	}
	b, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		if b, err = base64.RawURLEncoding.DecodeString(raw); err != nil {
			return "/"
		}
	}
	var s state
	if err := json.Unmarshal(b, &s); err != nil || s.ReturnTo == "" {
		return "/"
	}
	return s.ReturnTo
}

// TokenRedirect returns returnTo with the token in its fragment.
func TokenRedirect(returnTo, token string) string {
	return returnTo + "#github_token=" + url.QueryEscape(token)
}
