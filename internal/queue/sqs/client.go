package sqs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"go.uber.org/zap"

	envConfig "github.com/BarkinBalci/dataset-validation-service/internal/config"
	"github.com/BarkinBalci/dataset-validation-service/internal/domain"
	"github.com/BarkinBalci/dataset-validation-service/internal/queue"
)

// MaxMessageBytes is the largest item batch body accepted by SQS.
const MaxMessageBytes = 256 * 1024

// Attribute names set on every published item batch.
const (
	AttributeBatchID   = "BatchID"
	AttributeItemCount = "ItemCount"
)

// Client publishes item batches to the push queue and serves the consumer
type Client struct {
	client   *sqs.Client
	queueURL string
	log      *zap.Logger
}

// NewClient creates a client for the configured queue. A custom endpoint
// (ElasticMQ or LocalStack) is used with static dummy credentials.
func NewClient(ctx context.Context, sqsConfig envConfig.SQS, log *zap.Logger) (*Client, error) {
	if sqsConfig.QueueURL == "" {
		return nil, errors.New("SQS queue URL is required")
	}

	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(sqsConfig.Region),
	}

	var clientOpts []func(*sqs.Options)

	if sqsConfig.Endpoint != "" {
		log.Info("Using custom SQS endpoint",
			zap.String("endpoint", sqsConfig.Endpoint))
		loadOpts = append(loadOpts,
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("dummy", "dummy", "")))

		clientOpts = append(clientOpts, func(o *sqs.Options) {
			o.BaseEndpoint = aws.String(sqsConfig.Endpoint)
		})
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Info("SQS client created",
		zap.String("region", sqsConfig.Region),
		zap.String("queue_url", sqsConfig.QueueURL))

	return &Client{
		client:   sqs.NewFromConfig(awsCfg, clientOpts...),
		queueURL: sqsConfig.QueueURL,
		log:      log,
	}, nil
}

// QueueURL returns the configured queue URL
func (c *Client) QueueURL() string {
	return c.queueURL
}

func (c *Client) ReceiveMessages(ctx context.Context, input *sqs.ReceiveMessageInput) (*sqs.ReceiveMessageOutput, error) {
	return c.client.ReceiveMessage(ctx, input)
}

func (c *Client) DeleteMessage(ctx context.Context, input *sqs.DeleteMessageInput) (*sqs.DeleteMessageOutput, error) {
	return c.client.DeleteMessage(ctx, input)
}

func (c *Client) ChangeMessageVisibility(ctx context.Context, input *sqs.ChangeMessageVisibilityInput) (*sqs.ChangeMessageVisibilityOutput, error) {
	return c.client.ChangeMessageVisibility(ctx, input)
}

// PublishItems sends the items as one JSON array message tagged with the
// batch id and item count.
func (c *Client) PublishItems(ctx context.Context, items []domain.Item, batchID string) error {
	input, err := c.buildSendInput(items, batchID)
	if err != nil {
		c.log.Error("Failed to encode item batch",
			zap.String("batch_id", batchID),
			zap.Int("item_count", len(items)),
			zap.Error(err))
		return err
	}

	output, err := c.client.SendMessage(ctx, input)
	if err != nil {
		c.log.Error("Failed to send item batch to SQS",
			zap.String("batch_id", batchID),
			zap.Int("item_count", len(items)),
			zap.Error(err))
		return fmt.Errorf("failed to send message to SQS: %w", err)
	}

	c.log.Info("Item batch queued",
		zap.String("batch_id", batchID),
		zap.String("message_id", aws.ToString(output.MessageId)),
		zap.Int("item_count", len(items)))

	return nil
}

func (c *Client) buildSendInput(items []domain.Item, batchID string) (*sqs.SendMessageInput, error) {
	body, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal items: %w", err)
	}
	if len(body) > MaxMessageBytes {
		return nil, fmt.Errorf("%w: %d bytes", queue.ErrMessageTooLarge, len(body))
	}

	return &sqs.SendMessageInput{
		QueueUrl:    aws.String(c.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			AttributeBatchID: {
				DataType:    aws.String("String"),
				StringValue: aws.String(batchID),
			},
			AttributeItemCount: {
				DataType:    aws.String("Number"),
				StringValue: aws.String(strconv.Itoa(len(items))),
			},
		},
	}, nil
}
