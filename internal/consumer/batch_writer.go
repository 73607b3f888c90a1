package consumer

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// shutdownFlushTimeout bounds the final push after the pipeline context is cancelled.
const shutdownFlushTimeout = 30 * time.Second

type BatchWriterConfig struct {
	// MaxBatchSize is the item count that triggers a push.
	MaxBatchSize int
	FlushTimeout time.Duration
}

// BatchWriter collects queued items and pushes them in batches
type BatchWriter struct {
	pusher ItemPusher
	config BatchWriterConfig
	log    *zap.Logger
}

func NewBatchWriter(pusher ItemPusher, config BatchWriterConfig, log *zap.Logger) *BatchWriter {
	return &BatchWriter{
		pusher: pusher,
		config: config,
		log:    log,
	}
}

// Start begins processing envelopes, batching, and pushing their items
func (w *BatchWriter) Start(ctx context.Context, in <-chan *Envelope) {
	ticker := time.NewTicker(w.config.FlushTimeout)
	defer ticker.Stop()

	var batch []*Envelope
	itemCount := 0

	for {
		select {
		case <-ctx.Done():
			w.log.Info("Batch writer shutting down")
			w.flushFinal(ctx, batch)
			return

		case envelope, ok := <-in:
			if !ok {
				w.log.Info("Batch writer input channel closed")
				w.flushFinal(ctx, batch)
				return
			}

			batch = append(batch, envelope)
			itemCount += len(envelope.Items)

			if itemCount >= w.config.MaxBatchSize {
				w.log.Info("Batch size threshold reached",
					zap.Int("envelope_count", len(batch)),
					zap.Int("item_count", itemCount))
				w.processBatch(ctx, batch)
				batch = nil
				itemCount = 0
				ticker.Reset(w.config.FlushTimeout)
			}

		case <-ticker.C:
			if len(batch) > 0 {
				w.log.Info("Batch timeout reached",
					zap.Int("envelope_count", len(batch)),
					zap.Int("item_count", itemCount))
				w.processBatch(ctx, batch)
				batch = nil
				itemCount = 0
			}
		}
	}
}

// flushFinal pushes the remaining batch on a context detached from the
// cancelled pipeline context.
func (w *BatchWriter) flushFinal(ctx context.Context, batch []*Envelope) {
	if len(batch) == 0 {
		return
	}

	w.log.Info("Flushing final batch", zap.Int("envelope_count", len(batch)))

	flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownFlushTimeout)
	defer cancel()

	w.processBatch(flushCtx, batch)
}

// processBatch pushes every envelope of a flush on its own, so one message's
// invalid items never keep another message out of the validated dataset. A
// schema rejection is a completed push and is acknowledged like a success.
func (w *BatchWriter) processBatch(ctx context.Context, envelopes []*Envelope) {
	if len(envelopes) == 0 {
		return
	}

	var failed []*Envelope
	for _, env := range envelopes {
		if !w.pushEnvelope(ctx, env) {
			failed = append(failed, env)
		}
	}

	if len(failed) > 0 {
		w.log.Warn("Some messages of the flush were not pushed",
			zap.Int("envelope_count", len(envelopes)),
			zap.Strings("failed_message_ids", messageIDs(failed)))
	}
}

// pushEnvelope pushes one message's items and settles the message. It
// reports false when the push failed and the message was nacked.
func (w *BatchWriter) pushEnvelope(ctx context.Context, env *Envelope) bool {
	response, err := w.pusher.PushItems(ctx, env.Items)
	if err != nil {
		w.log.Error("Failed to push message, scheduling redelivery",
			zap.String("message_id", env.MessageID),
			zap.Int("item_count", len(env.Items)),
			zap.Error(err))
		w.settle(ctx, env, (*Envelope).Nack, "nack")
		return false
	}

	if !response.Accepted {
		w.log.Warn("Message rejected by schema validation",
			zap.String("message_id", env.MessageID),
			zap.String("push_id", response.PushID),
			zap.Int("item_count", len(env.Items)),
			zap.Int("invalid_count", len(response.InvalidItems)))
	} else {
		w.log.Info("Message pushed",
			zap.String("message_id", env.MessageID),
			zap.String("push_id", response.PushID),
			zap.Int("item_count", len(env.Items)))
	}
	w.settle(ctx, env, (*Envelope).Ack, "ack")
	return true
}

func (w *BatchWriter) settle(ctx context.Context, env *Envelope, fn func(*Envelope, context.Context) error, action string) {
	if err := fn(env, ctx); err != nil {
		w.log.Error("Failed to settle message",
			zap.String("action", action),
			zap.String("message_id", env.MessageID),
			zap.Error(err))
	}
}
