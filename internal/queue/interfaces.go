package queue

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/BarkinBalci/dataset-validation-service/internal/domain"
)

// QueuePublisher defines the interface for publishing item batches to a queue
type QueuePublisher interface {
	PublishItems(ctx context.Context, items []domain.Item, batchID string) error
}

// QueueConsumer is the part of the SQS API the item consumer drives. A failed
// batch is retried by shortening the visibility of its messages.
type QueueConsumer interface {
	ReceiveMessages(ctx context.Context, input *sqs.ReceiveMessageInput) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, input *sqs.DeleteMessageInput) (*sqs.DeleteMessageOutput, error)
	ChangeMessageVisibility(ctx context.Context, input *sqs.ChangeMessageVisibilityInput) (*sqs.ChangeMessageVisibilityOutput, error)
	QueueURL() string
}
