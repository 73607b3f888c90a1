package consumer

import (
	"context"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"go.uber.org/zap"

	"github.com/BarkinBalci/dataset-validation-service/internal/queue"
)

// ParserConfig configures message settlement for the parser stage
type ParserConfig struct {
	// MaxReceiveCount drops a message once it has been delivered more often
	// than this. Zero disables the check.
	MaxReceiveCount int
	// RetryDelay is the visibility, in seconds, given to a nacked message.
	RetryDelay int32
}

// ParserStage turns queue messages into item envelopes. Malformed and poison
// messages are deleted here and never reach the batch writer.
type ParserStage struct {
	consumer queue.QueueConsumer
	parser   MessageParser
	config   ParserConfig
	log      *zap.Logger
}

func NewParserStage(consumer queue.QueueConsumer, parser MessageParser, config ParserConfig, log *zap.Logger) *ParserStage {
	return &ParserStage{
		consumer: consumer,
		parser:   parser,
		config:   config,
		log:      log,
	}
}

// Start reads messages until ctx ends or in is closed, then closes out
func (p *ParserStage) Start(ctx context.Context, in <-chan types.Message, out chan<- *Envelope) {
	defer close(out)

	for {
		select {
		case <-ctx.Done():
			p.log.Info("Parser stage shutting down")
			return
		case msg, ok := <-in:
			if !ok {
				p.log.Info("Parser stage input channel closed")
				return
			}

			envelope := p.toEnvelope(ctx, msg)
			if envelope == nil {
				continue
			}

			select {
			case <-ctx.Done():
				return
			case out <- envelope:
			}
		}
	}
}

func (p *ParserStage) toEnvelope(ctx context.Context, msg types.Message) *Envelope {
	messageID := aws.ToString(msg.MessageId)
	receiveCount := approximateReceiveCount(msg)

	if p.config.MaxReceiveCount > 0 && receiveCount > p.config.MaxReceiveCount {
		p.log.Error("Dropping message after repeated push failures",
			zap.String("message_id", messageID),
			zap.Int("receive_count", receiveCount),
			zap.Int("max_receive_count", p.config.MaxReceiveCount))
		p.discard(ctx, msg)
		return nil
	}

	items, err := p.parser.Parse([]byte(aws.ToString(msg.Body)))
	if err != nil {
		p.log.Warn("Dropping malformed message",
			zap.String("message_id", messageID),
			zap.Error(err))
		p.discard(ctx, msg)
		return nil
	}

	ack := func(ctx context.Context) error {
		return p.deleteMessage(ctx, msg)
	}
	nack := func(ctx context.Context) error {
		return p.delayMessage(ctx, msg)
	}

	return NewEnvelope(messageID, receiveCount, items, ack, nack)
}

func (p *ParserStage) discard(ctx context.Context, msg types.Message) {
	if err := p.deleteMessage(ctx, msg); err != nil {
		p.log.Error("Failed to discard message",
			zap.String("message_id", aws.ToString(msg.MessageId)),
			zap.Error(err))
	}
}

func (p *ParserStage) deleteMessage(ctx context.Context, msg types.Message) error {
	_, err := p.consumer.DeleteMessage(ctx, &awssqs.DeleteMessageInput{
		QueueUrl:      aws.String(p.consumer.QueueURL()),
		ReceiptHandle: msg.ReceiptHandle,
	})
	if err != nil {
		return err
	}
	p.log.Debug("Deleted message from SQS",
		zap.String("message_id", aws.ToString(msg.MessageId)))
	return nil
}

// delayMessage makes the message visible again after RetryDelay. Without a
// delay the receive visibility timeout applies unchanged.
func (p *ParserStage) delayMessage(ctx context.Context, msg types.Message) error {
	if p.config.RetryDelay <= 0 {
		return nil
	}
	_, err := p.consumer.ChangeMessageVisibility(ctx, &awssqs.ChangeMessageVisibilityInput{
		QueueUrl:          aws.String(p.consumer.QueueURL()),
		ReceiptHandle:     msg.ReceiptHandle,
		VisibilityTimeout: p.config.RetryDelay,
	})
	return err
}

// approximateReceiveCount reads the SQS delivery counter, 0 when absent.
func approximateReceiveCount(msg types.Message) int {
	raw, ok := msg.Attributes[string(types.MessageSystemAttributeNameApproximateReceiveCount)]
	if !ok {
		return 0
	}
	count, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return count
}
