package consumer

import (
	"context"

	"github.com/BarkinBalci/dataset-validation-service/internal/domain"
)

// Envelope carries the items of one queue message together with the
// callbacks that settle the message once its batch has been pushed.
type Envelope struct {
	MessageID    string
	ReceiveCount int
	Items        []domain.Item

	ack  func(context.Context) error
	nack func(context.Context) error
}

func NewEnvelope(messageID string, receiveCount int, items []domain.Item, ack, nack func(context.Context) error) *Envelope {
	return &Envelope{
		MessageID:    messageID,
		ReceiveCount: receiveCount,
		Items:        items,
		ack:          ack,
		nack:         nack,
	}
}

// Ack removes the message from the queue.
func (e *Envelope) Ack(ctx context.Context) error {
	if e.ack == nil {
		return nil
	}
	return e.ack(ctx)
}

// Nack schedules the message for redelivery.
func (e *Envelope) Nack(ctx context.Context) error {
	if e.nack == nil {
		return nil
	}
	return e.nack(ctx)
}

func messageIDs(envelopes []*Envelope) []string {
	ids := make([]string, 0, len(envelopes))
	for _, env := range envelopes {
		ids = append(ids, env.MessageID)
	}
	return ids
}
