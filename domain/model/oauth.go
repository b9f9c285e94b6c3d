package model

import "time"

// OAuthProvider is an OAuth2 backend a platform authorizes through.
type OAuthProvider string

const (
	ProviderFacebook  OAuthProvider = "facebook"
	ProviderTwitter   OAuthProvider = "twitter"
	ProviderGoogle    OAuthProvider = "google"
	ProviderReddit    OAuthProvider = "reddit"
	ProviderLinkedIn  OAuthProvider = "linkedin"
	ProviderPinterest OAuthProvider = "pinterest"
	ProviderTikTok    OAuthProvider = "tiktok"
	ProviderSnapchat  OAuthProvider = "snapchat"
)

// AllProviders lists every OAuth backend, in credential file order.
var AllProviders = []OAuthProvider{
	ProviderFacebook,
	ProviderTwitter,
	ProviderGoogle,
	ProviderReddit,
	ProviderLinkedIn,
	ProviderPinterest,
	ProviderTikTok,
	ProviderSnapchat,
}

func (p OAuthProvider) String() string { return string(p) }

// ProviderRoute is the outcome of routing a platform to its OAuth backend.
// Exactly one of Provider or BlockReason is set.
type ProviderRoute struct {
	Provider    OAuthProvider `json:"provider,omitempty"`
	BlockReason string        `json:"block_reason,omitempty"`
}

func (r ProviderRoute) Blocked() bool { return r.BlockReason != "" }

const (
	BlockInstagram   = "Instagram delegates to the Facebook grant. Connect Facebook and ensure the instagram scopes are granted."
	BlockDiscord     = "Discord has no OAuth connection: it is webhook-only and not implemented in this build."
	BlockTumblr      = "Tumblr uses OAuth1, which is not implemented in this build."
	BlockUnsupported = "unsupported platform"
)

var platformProviders = map[PlatformID]OAuthProvider{
	PlatformFacebook:  ProviderFacebook,
	PlatformTwitter:   ProviderTwitter,
	PlatformYouTube:   ProviderGoogle,
	PlatformReddit:    ProviderReddit,
	PlatformLinkedIn:  ProviderLinkedIn,
	PlatformPinterest: ProviderPinterest,
	PlatformTikTok:    ProviderTikTok,
	PlatformSnapchat:  ProviderSnapchat,
}

var platformBlocks = map[PlatformID]string{
	PlatformInstagram: BlockInstagram,
	PlatformDiscord:   BlockDiscord,
	PlatformTumblr:    BlockTumblr,
}

// Route maps a platform to the OAuth provider that connects it.
func Route(platform PlatformID) ProviderRoute {
	if reason, ok := platformBlocks[platform]; ok {
		return ProviderRoute{BlockReason: reason}
	}
	if provider, ok := platformProviders[platform]; ok {
		return ProviderRoute{Provider: provider}
	}
	return ProviderRoute{BlockReason: BlockUnsupported + ": " + string(platform)}
}

// ClientCredentials is one app registration with a provider.
type ClientCredentials struct {
	ClientID     string `json:"clientID" mapstructure:"clientID"`
	ClientSecret string `json:"clientSecret" mapstructure:"clientSecret"`
}

// PendingOAuthSession is an authorization in flight for one platform.
type PendingOAuthSession struct {
	Platform     PlatformID    `json:"platform"`
	Provider     OAuthProvider `json:"provider"`
	State        string        `json:"state"`
	CodeVerifier string        `json:"-"`
	CreatedAt    time.Time     `json:"created_at"`
}

// ConnectStart is returned to the UI after a connection begins.
type ConnectStart struct {
	Platform              PlatformID `json:"platform"`
	Message               string     `json:"message"`
	AuthorizationURL      string     `json:"authorization_url"`
	RequiresCallbackPaste bool       `json:"requires_callback_paste"`
}

// ProviderIdentity is the normalized owner of an access token.
type ProviderIdentity struct {
	AccountID   string `json:"account_id"`
	AccountName string `json:"account_name"`
}

// ConnectedProfile is the result of a finished connection.
type ConnectedProfile struct {
	AccountID   string     `json:"account_id"`
	AccountName string     `json:"account_name"`
	Platform    PlatformID `json:"platform"`
}
