package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"omnipost/domain/model"
	"omnipost/infrastructure/logger"

	"cloud.google.com/go/pubsub"
)

func NewPubSub(ctx context.Context, projectID string) (*pubsub.Client, error) {
	if projectID == "" {
		return nil, errors.New("pubsub project id is empty")
	}
	return pubsub.NewClient(ctx, projectID)
}

// PostTopic publishes post events as JSON messages to one topic.
type PostTopic struct {
	client    *pubsub.Client
	topicName string

	mu    sync.Mutex
	topic *pubsub.Topic
}

func NewPostTopic(client *pubsub.Client, topicName string) *PostTopic {
	return &PostTopic{client: client, topicName: topicName}
}

// ensureTopic resolves the topic, creating it when it does not exist yet. Failures are retried on the next publish.
func (p *PostTopic) ensureTopic(ctx context.Context) (*pubsub.Topic, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.topic != nil {
		return p.topic, nil
	}
	topic := p.client.Topic(p.topicName)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		logger.GetLogger().WithField("topic", p.topicName).Info("Topic doesn't exist - creating it")
		if topic, err = p.client.CreateTopic(ctx, p.topicName); err != nil {
			return nil, err
		}
	}
	p.topic = topic
	return topic, nil
}

func (p *PostTopic) PublishPostEvent(ctx context.Context, event *model.PostEvent) error {
	topic, err := p.ensureTopic(ctx)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	msg := &pubsub.Message{
		Data: payload,
		Attributes: map[string]string{
			"type":    string(event.Type),
			"post_id": event.PostID,
		},
	}
	serverID, err := topic.Publish(ctx, msg).Get(ctx)
	if err != nil {
		return err
	}
	logger.GetLogger().WithField("server ID", serverID).WithField("post_id", event.PostID).Debug("Message published")
	return nil
}

// Close flushes pending publishes.
func (p *PostTopic) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.topic != nil {
		p.topic.Stop()
	}
}
