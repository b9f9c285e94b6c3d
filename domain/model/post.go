package model

import "time"

// ConnectedAccount is a platform account the user has authorized.
type ConnectedAccount struct {
	ID          string     `json:"id"`
	Platform    PlatformID `json:"platform"`
	AccountName string     `json:"account_name"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
}

type PostStatus string

const (
	PostStatusDraft      PostStatus = "draft"
	PostStatusQueued     PostStatus = "queued"
	PostStatusPublishing PostStatus = "publishing"
	PostStatusPublished  PostStatus = "published"
	PostStatusFailed     PostStatus = "failed"
)

type AttemptStatus string

const (
	AttemptPending AttemptStatus = "pending"
	AttemptSuccess AttemptStatus = "success"
	AttemptFailed  AttemptStatus = "failed"
)

// PostAttempt is the outcome of delivering a post to one platform.
type PostAttempt struct {
	ID           string        `json:"id"`
	Platform     PlatformID    `json:"platform"`
	Status       AttemptStatus `json:"status"`
	ErrorMessage *string       `json:"error_message,omitempty"`
	AttemptedAt  time.Time     `json:"attempted_at"`
}

// PostDraft is a piece of content targeted at one or more platforms.
// Attempts are aligned with Targets once the post has been published.
type PostDraft struct {
	ID          string                `json:"id"`
	Content     string                `json:"content"`
	MediaPaths  []string              `json:"media_paths"`
	Overrides   map[PlatformID]string `json:"overrides"`
	Targets     []PlatformID          `json:"targets"`
	Status      PostStatus            `json:"status"`
	CreatedAt   time.Time             `json:"created_at"`
	PublishedAt *time.Time            `json:"published_at,omitempty"`
	Attempts    []PostAttempt         `json:"attempts"`
}

// ContentFor returns the platform override when present, else the shared content.
func (p *PostDraft) ContentFor(platform PlatformID) string {
	if text, ok := p.Overrides[platform]; ok {
		return text
	}
	return p.Content
}

// Clone returns a deep copy so the owner can hand posts out without sharing slices.
func (p PostDraft) Clone() PostDraft {
	out := p
	out.MediaPaths = append([]string(nil), p.MediaPaths...)
	out.Targets = append([]PlatformID(nil), p.Targets...)
	out.Attempts = make([]PostAttempt, len(p.Attempts))
	for i, a := range p.Attempts {
		if a.ErrorMessage != nil {
			msg := *a.ErrorMessage
			a.ErrorMessage = &msg
		}
		out.Attempts[i] = a
	}
	if p.Overrides != nil {
		out.Overrides = make(map[PlatformID]string, len(p.Overrides))
		for k, v := range p.Overrides {
			out.Overrides[k] = v
		}
	}
	if p.PublishedAt != nil {
		t := *p.PublishedAt
		out.PublishedAt = &t
	}
	return out
}

// PublishResult is returned by publish and retry.
type PublishResult struct {
	Success  bool          `json:"success"`
	Attempts []PostAttempt `json:"attempts"`
}

// PostInput is what the user supplies when composing a post.
type PostInput struct {
	Content    string
	MediaPaths []string
	Overrides  map[PlatformID]string
	Targets    []PlatformID
}

// Snapshot is the persisted state of the workspace.
type Snapshot struct {
	Accounts []ConnectedAccount `json:"accounts"`
	Posts    []PostDraft        `json:"posts"`
}

type PostEventType string

const (
	PostEventPublished PostEventType = "post_published"
	PostEventQueued    PostEventType = "post_queued"
	PostEventRetried   PostEventType = "post_retried"
)

// PostEvent is broadcast to listeners after a post changes.
type PostEvent struct {
	Type       PostEventType `json:"type"`
	PostID     string        `json:"post_id"`
	Status     PostStatus    `json:"status"`
	Success    bool          `json:"success"`
	Attempts   []PostAttempt `json:"attempts"`
	OccurredAt time.Time     `json:"occurred_at"`
}
