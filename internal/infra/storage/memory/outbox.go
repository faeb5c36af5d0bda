package memory

import (
	"context"
	"errors"
	"sync"

	appoutbox "stayquote/internal/app/outbox"
)

// Publisher delivers an encoded event, e.g. to a Kafka topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error
}

// Outbox buffers events until the command commits, then relays them to
// Publisher. Without a publisher flushed events are dropped.
type Outbox struct {
	mu        sync.Mutex
	records   []appoutbox.EventRecord
	publisher Publisher
	topic     string
	sent      int
}

func NewOutbox(publisher Publisher, topic string) *Outbox {
	return &Outbox{publisher: publisher, topic: topic}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.records = append(o.records, record)
	return nil
}

func (o *Outbox) Flush(ctx context.Context) error {
	o.mu.Lock()
	pending := o.records
	o.records = nil
	o.mu.Unlock()

	if o.publisher == nil {
		return nil
	}
	var errs []error
	for _, rec := range pending {
		headers := map[string]string{"event_id": rec.ID}
		for k, v := range rec.Headers {
			headers[k] = v
		}
		if err := o.publisher.Publish(ctx, o.topic, rec.Aggregate, rec.Payload, headers); err != nil {
			errs = append(errs, err)
			continue
		}
		o.mu.Lock()
		o.sent++
		o.mu.Unlock()
	}
	return errors.Join(errs...)
}

// Sent counts relayed events.
func (o *Outbox) Sent() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sent
}

var _ appoutbox.Outbox = (*Outbox)(nil)
