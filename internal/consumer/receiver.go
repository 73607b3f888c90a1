package consumer

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"go.uber.org/zap"

	"github.com/BarkinBalci/dataset-validation-service/internal/queue"
)

// receiveSystemAttributes are requested with every message; the parser stage
// uses the receive count to drop poison messages.
var receiveSystemAttributes = []types.MessageSystemAttributeName{
	types.MessageSystemAttributeNameApproximateReceiveCount,
}

// ReceiverConfig configures long polling of the item queue
type ReceiverConfig struct {
	MaxMessages     int32
	WaitTimeSeconds int32
	// VisibilityTimeout is how long, in seconds, a received message stays
	// hidden. It must exceed the batch flush timeout plus the time of one push
	// or messages are redelivered while still batched. Zero keeps the queue default.
	VisibilityTimeout int32
	// ErrorBackoff is the pause after a failed receive.
	ErrorBackoff time.Duration
}

// Receiver long-polls the item queue and feeds raw messages to the parser stage
type Receiver struct {
	consumer queue.QueueConsumer
	config   ReceiverConfig
	log      *zap.Logger
}

func NewReceiver(consumer queue.QueueConsumer, config ReceiverConfig, log *zap.Logger) *Receiver {
	return &Receiver{
		consumer: consumer,
		config:   config,
		log:      log,
	}
}

// Start polls until ctx ends, then closes out
func (r *Receiver) Start(ctx context.Context, out chan<- types.Message) {
	defer close(out)

	for {
		select {
		case <-ctx.Done():
			r.log.Info("Receiver shutting down")
			return
		default:
			result, err := r.consumer.ReceiveMessages(ctx, &awssqs.ReceiveMessageInput{
				QueueUrl:                    aws.String(r.consumer.QueueURL()),
				MaxNumberOfMessages:         r.config.MaxMessages,
				WaitTimeSeconds:             r.config.WaitTimeSeconds,
				VisibilityTimeout:           r.config.VisibilityTimeout,
				MessageAttributeNames:       []string{"All"},
				MessageSystemAttributeNames: receiveSystemAttributes,
			})

			if err != nil {
				if ctx.Err() != nil {
					r.log.Info("Receiver shutting down")
					return
				}
				r.log.Error("Error receiving messages from SQS", zap.Error(err))
				if !r.backoff(ctx) {
					return
				}
				continue
			}

			if len(result.Messages) == 0 {
				continue
			}

			r.log.Debug("Received messages from SQS", zap.Int("message_count", len(result.Messages)))

			for _, msg := range result.Messages {
				select {
				case <-ctx.Done():
					r.log.Info("Receiver shutting down while sending messages")
					return
				case out <- msg:
				}
			}
		}
	}
}

// backoff waits ErrorBackoff and reports false when ctx ends first
func (r *Receiver) backoff(ctx context.Context) bool {
	timer := time.NewTimer(r.config.ErrorBackoff)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		r.log.Info("Receiver shutting down during backoff")
		return false
	case <-timer.C:
		return true
	}
}
