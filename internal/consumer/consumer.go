package consumer

import (
	"context"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"go.uber.org/zap"

	"github.com/BarkinBalci/dataset-validation-service/internal/config"
	"github.com/BarkinBalci/dataset-validation-service/internal/queue"
)

const (
	maxMessagesPerReceive = 10
	longPollSeconds       = 20
	stageBufferSize       = 100
)

// Consumer drains the item queue through three stages: receive, parse into
// envelopes, and push in batches through the validated pusher.
type Consumer struct {
	receiver    *Receiver
	parser      *ParserStage
	batchWriter *BatchWriter
}

func NewConsumer(cfg *config.Config, queueConsumer queue.QueueConsumer, pusher ItemPusher, log *zap.Logger) *Consumer {
	receiver := NewReceiver(queueConsumer, ReceiverConfig{
		MaxMessages:       maxMessagesPerReceive,
		WaitTimeSeconds:   longPollSeconds,
		VisibilityTimeout: int32(cfg.Consumer.VisibilityTimeoutSec),
		ErrorBackoff:      time.Second,
	}, log.Named("receiver"))

	parser := NewParserStage(queueConsumer, NewJSONItemParser(), ParserConfig{
		MaxReceiveCount: cfg.Consumer.MaxReceiveCount,
		RetryDelay:      int32(cfg.Consumer.RetryDelaySec),
	}, log.Named("parser"))

	batchWriter := NewBatchWriter(pusher, BatchWriterConfig{
		MaxBatchSize: cfg.Consumer.BatchSizeMax,
		FlushTimeout: time.Duration(cfg.Consumer.BatchTimeoutSec) * time.Second,
	}, log.Named("batch_writer"))

	return &Consumer{
		receiver:    receiver,
		parser:      parser,
		batchWriter: batchWriter,
	}
}

// Start runs the pipeline until ctx is cancelled. The batch writer pushes
// whatever it still holds before Start returns.
func (c *Consumer) Start(ctx context.Context) error {
	messages := make(chan types.Message, stageBufferSize)
	envelopes := make(chan *Envelope, stageBufferSize)

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		c.receiver.Start(ctx, messages)
	}()

	go func() {
		defer wg.Done()
		c.parser.Start(ctx, messages, envelopes)
	}()

	go func() {
		defer wg.Done()
		c.batchWriter.Start(ctx, envelopes)
	}()

	wg.Wait()
	return nil
}
