package dto

import (
	"fmt"

	"omnipost/domain/model"
)

type FinishConnectionReq struct {
	CallbackURL string `json:"callback_url" binding:"required"`
}

const (
	PublishModeNow   = "now"
	PublishModeQueue = "queue"
)

type CreatePostReq struct {
	Content    string            `json:"content"`
	MediaPaths []string          `json:"media_paths"`
	Overrides  map[string]string `json:"overrides" binding:"omitempty,dive,keys,platform,endkeys"`
	Targets    []string          `json:"targets" binding:"required,min=1,dive,platform"`
	Mode       string            `json:"mode" binding:"omitempty,oneof=now queue"`
}

// ToInput converts validated request fields into the domain input.
func (r CreatePostReq) ToInput() (model.PostInput, error) {
	in := model.PostInput{
		Content:    r.Content,
		MediaPaths: r.MediaPaths,
		Overrides:  make(map[model.PlatformID]string, len(r.Overrides)),
	}
	for _, raw := range r.Targets {
		p, err := model.ParsePlatform(raw)
		if err != nil {
			return model.PostInput{}, err
		}
		in.Targets = append(in.Targets, p)
	}
	for raw, text := range r.Overrides {
		p, err := model.ParsePlatform(raw)
		if err != nil {
			return model.PostInput{}, err
		}
		if _, dup := in.Overrides[p]; dup {
			return model.PostInput{}, fmt.Errorf("%w: %s", model.ErrDuplicateOverride, p)
		}
		in.Overrides[p] = text
	}
	return in, nil
}

// PlatformRes is one catalog entry enriched with connection state.
type PlatformRes struct {
	model.PlatformProfile
	Provider    model.OAuthProvider `json:"provider,omitempty"`
	BlockReason string              `json:"block_reason,omitempty"`
	Connected   bool                `json:"connected"`
	Pending     bool                `json:"pending"`
}

type PostRes struct {
	Post   *model.PostDraft     `json:"post"`
	Result *model.PublishResult `json:"result,omitempty"`
}
