package social

import (
	"strings"

	"omnipost/domain/model"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/youtube/v3"
)

// ProviderSpec is everything the client needs to run one provider's authorization-code flow.
type ProviderSpec struct {
	Endpoint   oauth2.Endpoint
	ProfileURL string
	Scope      string
	// Extra authorization query parameters, appended after the standard ones.
	Extra map[string]string
	PKCE  bool
	// Profile describes where the account id and display name live in the profile response.
	Profile ProfileShape
}

// BasicAuthExchange reports whether client credentials go in the Authorization header.
func (s ProviderSpec) BasicAuthExchange() bool {
	return s.Endpoint.AuthStyle == oauth2.AuthStyleInHeader
}

// ProfileShape locates identity fields in a profile document using dotted paths.
// Numeric segments index into arrays.
type ProfileShape struct {
	Envelope  string
	IDPath    string
	NamePaths []string
	// FallbackName is used when the envelope exists but the name is missing.
	// Empty means the provider falls back to the generic account name.
	FallbackName string
	// AlwaysFallback applies FallbackName even when the envelope is absent,
	// and replaces the id as well unless both id and name are present.
	AlwaysFallback bool
}

const genericAccountName = "Connected Account"

var googleScope = strings.Join([]string{youtube.YoutubeUploadScope, youtube.YoutubeScope}, " ")

// DefaultProviders returns a fresh copy of the provider table.
func DefaultProviders() map[model.OAuthProvider]ProviderSpec {
	return map[model.OAuthProvider]ProviderSpec{
		model.ProviderFacebook: {
			Endpoint: oauth2.Endpoint{
				AuthURL:   "https://www.facebook.com/v18.0/dialog/oauth",
				TokenURL:  "https://graph.facebook.com/v18.0/oauth/access_token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
			ProfileURL: "https://graph.facebook.com/v18.0/me/accounts",
			Scope:      "pages_manage_posts,pages_read_engagement,instagram_basic,instagram_content_publish",
			Profile: ProfileShape{
				Envelope:       "data.0",
				IDPath:         "id",
				NamePaths:      []string{"name"},
				FallbackName:   "Facebook User",
				AlwaysFallback: true,
			},
		},
		model.ProviderTwitter: {
			Endpoint: oauth2.Endpoint{
				AuthURL:   "https://twitter.com/i/oauth2/authorize",
				TokenURL:  "https://api.twitter.com/2/oauth2/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
			ProfileURL: "https://api.twitter.com/2/users/me",
			Scope:      "tweet.read tweet.write users.read offline.access",
			PKCE:       true,
			Profile:    ProfileShape{Envelope: "data", IDPath: "id", NamePaths: []string{"username"}, FallbackName: "Twitter User"},
		},
		model.ProviderGoogle: {
			Endpoint: oauth2.Endpoint{
				AuthURL:   "https://accounts.google.com/o/oauth2/v2/auth",
				TokenURL:  google.Endpoint.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
			ProfileURL: "https://www.googleapis.com/oauth2/v2/userinfo",
			Scope:      googleScope,
			Extra:      map[string]string{"access_type": "offline", "prompt": "consent"},
			Profile:    ProfileShape{IDPath: "id", NamePaths: []string{"name"}, FallbackName: "Google User"},
		},
		model.ProviderReddit: {
			Endpoint: oauth2.Endpoint{
				AuthURL:   "https://www.reddit.com/api/v1/authorize",
				TokenURL:  "https://www.reddit.com/api/v1/access_token",
				AuthStyle: oauth2.AuthStyleInHeader,
			},
			ProfileURL: "https://oauth.reddit.com/api/v1/me",
			Scope:      "submit read account",
			Extra:      map[string]string{"duration": "permanent"},
			// The username doubles as the account id.
			Profile: ProfileShape{IDPath: "name", NamePaths: []string{"name"}},
		},
		model.ProviderLinkedIn: {
			Endpoint: oauth2.Endpoint{
				AuthURL:   "https://www.linkedin.com/oauth/v2/authorization",
				TokenURL:  "https://www.linkedin.com/oauth/v2/accessToken",
				AuthStyle: oauth2.AuthStyleInParams,
			},
			ProfileURL: "https://api.linkedin.com/v2/me",
			Scope:      "r_liteprofile w_member_social",
			Profile: ProfileShape{
				IDPath:       "id",
				NamePaths:    []string{"localizedFirstName", "localizedLastName"},
				FallbackName: "LinkedIn User",
			},
		},
		model.ProviderPinterest: {
			Endpoint: oauth2.Endpoint{
				AuthURL:   "https://www.pinterest.com/oauth/",
				TokenURL:  "https://api.pinterest.com/v5/oauth/token",
				AuthStyle: oauth2.AuthStyleInHeader,
			},
			ProfileURL: "https://api.pinterest.com/v5/user_account",
			Scope:      "boards:read boards:write pins:read pins:write",
			Profile:    ProfileShape{IDPath: "id", NamePaths: []string{"username"}, FallbackName: "Pinterest User"},
		},
		model.ProviderTikTok: {
			Endpoint: oauth2.Endpoint{
				AuthURL:   "https://www.tiktok.com/v2/auth/authorize/",
				TokenURL:  "https://open.tiktokapis.com/v2/oauth/token/",
				AuthStyle: oauth2.AuthStyleInParams,
			},
			ProfileURL: "https://open.tiktokapis.com/v2/user/info/",
			Scope:      "user.info.basic,video.upload,video.publish",
			Profile:    ProfileShape{Envelope: "data.user", IDPath: "open_id", NamePaths: []string{"display_name"}, FallbackName: "TikTok User"},
		},
		model.ProviderSnapchat: {
			Endpoint: oauth2.Endpoint{
				AuthURL:   "https://accounts.snapchat.com/accounts/oauth2/auth",
				TokenURL:  "https://accounts.snapchat.com/accounts/oauth2/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
			ProfileURL: "https://adsapi.snapchat.com/v1/me",
			Scope:      "snapchat-id user.display_name",
			Profile:    ProfileShape{Envelope: "me", IDPath: "id", NamePaths: []string{"display_name"}, FallbackName: "Snapchat User"},
		},
	}
}
