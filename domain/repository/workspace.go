package repository

import (
	"context"

	"omnipost/domain/model"
)

// ISnapshot persists the whole workspace as one unit.
type ISnapshot interface {
	// Load returns an empty snapshot when nothing was stored or the stored data is unreadable.
	Load(ctx context.Context) (*model.Snapshot, error)
	// Save atomically replaces the stored snapshot.
	Save(ctx context.Context, snapshot *model.Snapshot) error
}

// IPostEventPublisher receives post lifecycle events.
type IPostEventPublisher interface {
	PublishPostEvent(ctx context.Context, event *model.PostEvent) error
}

// IDelivery sends content to one platform. A nil error means the platform accepted it.
type IDelivery interface {
	Deliver(ctx context.Context, platform model.PlatformID, content string) error
}
