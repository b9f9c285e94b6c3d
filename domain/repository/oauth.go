package repository

import (
	"context"

	"omnipost/domain/model"
)

// ICredential reads the per-provider client registrations.
type ICredential interface {
	// Load returns every provider present in the credential resource, creating the template first if needed.
	Load() (map[model.OAuthProvider]model.ClientCredentials, error)
	// CredentialsFor fails with model.ErrMissingCredentials when the client ID is empty or absent.
	CredentialsFor(provider model.OAuthProvider) (model.ClientCredentials, error)
	EnsureTemplateExists() error
	Path() string
}

// IOAuthClient talks to the OAuth2 endpoints of every provider.
type IOAuthClient interface {
	// RequiresPKCE reports whether the provider needs a code verifier.
	RequiresPKCE(provider model.OAuthProvider) bool
	AuthorizationURL(provider model.OAuthProvider, creds model.ClientCredentials, state, codeChallenge string) (string, error)
	// Exchange trades an authorization code for an access token.
	Exchange(ctx context.Context, provider model.OAuthProvider, creds model.ClientCredentials, code, codeVerifier string) (string, error)
	// FetchProfile looks up and normalizes the token owner.
	FetchProfile(ctx context.Context, provider model.OAuthProvider, accessToken string) (*model.ProviderIdentity, error)
}

// IBrowser opens a URL for the user. Fire and forget.
type IBrowser interface {
	Open(url string)
}
