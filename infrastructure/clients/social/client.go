package social

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"omnipost/domain/model"
	"omnipost/infrastructure/logger"

	"github.com/google/go-querystring/query"
	"golang.org/x/oauth2"
)

const maxProfileBody = 1 << 20

// Client runs the authorization-code flow against every provider in its table.
type Client struct {
	redirectURI string
	httpClient  *http.Client
	timeout     time.Duration
	providers   map[model.OAuthProvider]ProviderSpec
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout bounds each token exchange and profile request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithProvider replaces one provider's table entry.
func WithProvider(p model.OAuthProvider, spec ProviderSpec) Option {
	return func(c *Client) { c.providers[p] = spec }
}

func NewClient(redirectURI string, opts ...Option) *Client {
	c := &Client{
		redirectURI: redirectURI,
		httpClient:  &http.Client{},
		timeout:     15 * time.Second,
		providers:   DefaultProviders(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type authorizeParams struct {
	ResponseType        string `url:"response_type"`
	ClientID            string `url:"client_id"`
	RedirectURI         string `url:"redirect_uri"`
	State               string `url:"state"`
	Scope               string `url:"scope,omitempty"`
	CodeChallenge       string `url:"code_challenge,omitempty"`
	CodeChallengeMethod string `url:"code_challenge_method,omitempty"`
}

func (c *Client) spec(provider model.OAuthProvider) (ProviderSpec, error) {
	s, ok := c.providers[provider]
	if !ok {
		return ProviderSpec{}, fmt.Errorf("%w: no provider configuration for %s", model.ErrUnsupported, provider)
	}
	return s, nil
}

func (c *Client) config(spec ProviderSpec, creds model.ClientCredentials) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Endpoint:     spec.Endpoint,
		RedirectURL:  c.redirectURI,
	}
}

func (c *Client) RequiresPKCE(provider model.OAuthProvider) bool {
	return c.providers[provider].PKCE
}

// AuthorizationURL builds the consent URL. codeChallenge is ignored for providers without PKCE.
func (c *Client) AuthorizationURL(provider model.OAuthProvider, creds model.ClientCredentials, state, codeChallenge string) (string, error) {
	spec, err := c.spec(provider)
	if err != nil {
		return "", err
	}
	u, err := url.Parse(spec.Endpoint.AuthURL)
	if err != nil {
		return "", fmt.Errorf("parse authorization endpoint for %s: %w", provider, err)
	}

	params := authorizeParams{
		ResponseType: "code",
		ClientID:     creds.ClientID,
		RedirectURI:  c.redirectURI,
		State:        state,
		Scope:        spec.Scope,
	}
	if spec.PKCE {
		params.CodeChallenge = codeChallenge
		params.CodeChallengeMethod = "S256"
	}
	values, err := query.Values(params)
	if err != nil {
		return "", err
	}
	for k, v := range spec.Extra {
		values.Set(k, v)
	}
	u.RawQuery = values.Encode()
	return u.String(), nil
}

// Exchange trades the authorization code for an access token.
// Non-2xx responses and responses without an access_token wrap model.ErrTokenExchangeFailed.
func (c *Client) Exchange(ctx context.Context, provider model.OAuthProvider, creds model.ClientCredentials, code, codeVerifier string) (string, error) {
	spec, err := c.spec(provider)
	if err != nil {
		return "", err
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	var opts []oauth2.AuthCodeOption
	if spec.PKCE {
		opts = append(opts, oauth2.VerifierOption(codeVerifier))
	}
	tok, err := c.config(spec, creds).Exchange(ctx, code, opts...)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			entry := logger.GetLogger().WithField("provider", provider)
			if re.Response != nil {
				entry = entry.WithField("status", re.Response.StatusCode)
			}
			entry.Warn("Token endpoint rejected the code")
			return "", fmt.Errorf("%w: %s", model.ErrTokenExchangeFailed, string(re.Body))
		}
		return "", fmt.Errorf("%w: %v", model.ErrTokenExchangeFailed, err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("%w: missing access_token", model.ErrTokenExchangeFailed)
	}
	return tok.AccessToken, nil
}

// FetchProfile looks up the token owner with a Bearer request and normalizes it.
func (c *Client) FetchProfile(ctx context.Context, provider model.OAuthProvider, accessToken string) (*model.ProviderIdentity, error) {
	spec, err := c.spec(provider)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	hc := c.config(spec, model.ClientCredentials{}).Client(ctx, &oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, spec.ProfileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrProfileFetchFailed, err)
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrProfileFetchFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProfileBody))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrProfileFetchFailed, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.GetLogger().WithField("provider", provider).WithField("status", resp.StatusCode).Warn("Profile endpoint rejected the token")
		return nil, fmt.Errorf("%w: %s", model.ErrProfileFetchFailed, string(body))
	}
	return NormalizeProfile(spec.Profile, body)
}
