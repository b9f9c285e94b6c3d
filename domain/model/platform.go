package model

import (
	"fmt"
	"strings"
)

// PlatformID identifies a social platform a post can target.
type PlatformID string

const (
	PlatformFacebook  PlatformID = "facebook"
	PlatformInstagram PlatformID = "instagram"
	PlatformTwitter   PlatformID = "twitter"
	PlatformYouTube   PlatformID = "youtube"
	PlatformLinkedIn  PlatformID = "linkedin"
	PlatformReddit    PlatformID = "reddit"
	PlatformPinterest PlatformID = "pinterest"
	PlatformTikTok    PlatformID = "tiktok"
	PlatformTumblr    PlatformID = "tumblr"
	PlatformSnapchat  PlatformID = "snapchat"
	PlatformDiscord   PlatformID = "discord"
)

// AllPlatforms lists every platform in catalog order.
var AllPlatforms = []PlatformID{
	PlatformFacebook,
	PlatformInstagram,
	PlatformTwitter,
	PlatformYouTube,
	PlatformLinkedIn,
	PlatformReddit,
	PlatformPinterest,
	PlatformTikTok,
	PlatformTumblr,
	PlatformSnapchat,
	PlatformDiscord,
}

// ParsePlatform converts a raw identifier (case-insensitive) into a PlatformID.
func ParsePlatform(raw string) (PlatformID, error) {
	p := PlatformID(strings.ToLower(strings.TrimSpace(raw)))
	if p.Valid() {
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPlatform, raw)
}

func (p PlatformID) Valid() bool {
	for _, known := range AllPlatforms {
		if p == known {
			return true
		}
	}
	return false
}

func (p PlatformID) String() string { return string(p) }

// Title is the capitalized identifier used in user-facing messages.
func (p PlatformID) Title() string {
	if p == "" {
		return ""
	}
	return strings.ToUpper(string(p[:1])) + string(p[1:])
}

// ContentType is a kind of content a platform accepts.
type ContentType string

const (
	ContentText    ContentType = "text"
	ContentImage   ContentType = "image"
	ContentVideo   ContentType = "video"
	ContentLink    ContentType = "link"
	ContentArticle ContentType = "article"
)

// PlatformProfile is static reference data about a platform.
type PlatformProfile struct {
	ID               PlatformID    `json:"id"`
	Name             string        `json:"name"`
	CharacterLimit   int           `json:"character_limit"`
	SupportedContent []ContentType `json:"supported_content"`
}

func (p PlatformProfile) Supports(ct ContentType) bool {
	for _, c := range p.SupportedContent {
		if c == ct {
			return true
		}
	}
	return false
}

var catalog = []PlatformProfile{
	{ID: PlatformFacebook, Name: "Facebook", CharacterLimit: 63206, SupportedContent: []ContentType{ContentText, ContentImage, ContentVideo, ContentLink}},
	{ID: PlatformInstagram, Name: "Instagram", CharacterLimit: 2200, SupportedContent: []ContentType{ContentText, ContentImage, ContentVideo}},
	{ID: PlatformTwitter, Name: "Twitter/X", CharacterLimit: 280, SupportedContent: []ContentType{ContentText, ContentImage, ContentVideo, ContentLink}},
	{ID: PlatformYouTube, Name: "YouTube", CharacterLimit: 5000, SupportedContent: []ContentType{ContentVideo, ContentLink}},
	{ID: PlatformLinkedIn, Name: "LinkedIn", CharacterLimit: 3000, SupportedContent: []ContentType{ContentText, ContentImage, ContentVideo, ContentLink, ContentArticle}},
	{ID: PlatformReddit, Name: "Reddit", CharacterLimit: 40000, SupportedContent: []ContentType{ContentText, ContentImage, ContentVideo, ContentLink}},
	{ID: PlatformPinterest, Name: "Pinterest", CharacterLimit: 500, SupportedContent: []ContentType{ContentText, ContentImage, ContentVideo}},
	{ID: PlatformTikTok, Name: "TikTok", CharacterLimit: 2200, SupportedContent: []ContentType{ContentText, ContentVideo}},
	{ID: PlatformTumblr, Name: "Tumblr", CharacterLimit: 2000, SupportedContent: []ContentType{ContentText, ContentImage, ContentVideo, ContentLink}},
	{ID: PlatformSnapchat, Name: "Snapchat", CharacterLimit: 2000, SupportedContent: []ContentType{ContentImage, ContentVideo}},
	{ID: PlatformDiscord, Name: "Discord", CharacterLimit: 2000, SupportedContent: []ContentType{ContentText, ContentImage, ContentLink}},
}

// Catalog returns a copy of the platform reference data.
func Catalog() []PlatformProfile {
	out := make([]PlatformProfile, len(catalog))
	copy(out, catalog)
	return out
}

// CatalogEntry looks up the reference data for one platform.
func CatalogEntry(id PlatformID) (PlatformProfile, bool) {
	for _, p := range catalog {
		if p.ID == id {
			return p, true
		}
	}
	return PlatformProfile{}, false
}
