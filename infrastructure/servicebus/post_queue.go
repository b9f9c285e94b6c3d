package servicebus

import (
	"context"
	"encoding/json"
	"errors"

	"omnipost/domain/model"
	"omnipost/infrastructure/logger"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
)

// NewServiceBus authenticates with DefaultAzureCredential against a fully qualified namespace.
func NewServiceBus(ctx context.Context, namespace string) (*azservicebus.Client, error) {
	if namespace == "" {
		return nil, errors.New("service bus namespace is empty")
	}
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, err
	}
	return azservicebus.NewClient(namespace, cred, nil)
}

type messageSender interface {
	SendMessage(ctx context.Context, message *azservicebus.Message, options *azservicebus.SendMessageOptions) error
	Close(ctx context.Context) error
}

// PostQueue sends post events to a Service Bus queue, one sender per message.
type PostQueue struct {
	queue     string
	newSender func(queue string) (messageSender, error)
}

func NewPostQueue(client *azservicebus.Client, queue string) *PostQueue {
	return &PostQueue{
		queue: queue,
		newSender: func(queue string) (messageSender, error) {
			return client.NewSender(queue, nil)
		},
	}
}

func (q *PostQueue) PublishPostEvent(ctx context.Context, event *model.PostEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	sender, err := q.newSender(q.queue)
	if err != nil {
		logger.GetLogger().
			WithField("error", err).
			Error("Error while making new sender service bus.")
		return err
	}
	defer func() {
		if err := sender.Close(context.Background()); err != nil {
			logger.GetLogger().
				WithField("error", err).
				Error("Error while closing sender.")
		}
	}()

	contentType := "application/json"
	subject := string(event.Type)
	msg := &azservicebus.Message{
		Body:        body,
		ContentType: &contentType,
		Subject:     &subject,
		ApplicationProperties: map[string]interface{}{
			"post_id": event.PostID,
		},
	}
	if err := sender.SendMessage(ctx, msg, nil); err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while sending message.")
		return err
	}
	return nil
}
