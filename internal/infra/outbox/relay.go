package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

type Producer interface {
	Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error
}

// Queue is the part of Store the Relay drives.
type Queue interface {
	Claim(ctx context.Context, workerID string) (*EventDocument, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error
	ReleaseStale(ctx context.Context, cutoff time.Time) (int64, error)
}

// Relay publishes committed outbox documents to one topic as CloudEvents
// envelopes. Failed publishes are retried on the Backoff schedule.
type Relay struct {
	Queue    Queue
	Producer Producer
	Topic    string
	Interval time.Duration
	Source   string
	ID       string
	Backoff  []time.Duration
	// ClaimTimeout bounds how long a claimed document may stay unpublished
	// before another pass releases it.
	ClaimTimeout time.Duration
	Logger       *slog.Logger
	Now          func() time.Time
}

var ErrRelayNotConfigured = errors.New("outbox: relay missing dependencies")

func (r *Relay) Run(ctx context.Context) error {
	if r.Queue == nil || r.Producer == nil || r.Topic == "" {
		return ErrRelayNotConfigured
	}
	id := r.workerID()
	ticker := time.NewTicker(r.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := r.Drain(ctx, id); err != nil {
				return err
			}
		}
	}
}

// Drain publishes every due document and reports how many were sent.
func (r *Relay) Drain(ctx context.Context, workerID string) (int, error) {
	if released, err := r.Queue.ReleaseStale(ctx, r.now().Add(-r.claimTimeout())); err != nil {
		return 0, err
	} else if released > 0 {
		r.logger().Warn("outbox claims released", "count", released)
	}
	sent := 0
	for {
		doc, err := r.Queue.Claim(ctx, workerID)
		if err != nil || doc == nil {
			return sent, err
		}
		ok, err := r.publish(ctx, doc)
		if err != nil {
			return sent, err
		}
		if !ok {
			// the rest of the queue waits for the next tick
			return sent, nil
		}
		sent++
	}
}

func (r *Relay) publish(ctx context.Context, doc *EventDocument) (bool, error) {
	payload, headers, err := r.envelope(doc)
	if err == nil {
		err = r.Producer.Publish(ctx, r.Topic, doc.Aggregate, payload, headers)
	}
	if err != nil {
		r.logger().Warn("outbox publish failed", "event_id", doc.ID, "event", doc.Name, "attempts", doc.Attempts+1, "error", err)
		return false, r.Queue.MarkFailed(ctx, doc.ID, r.nextRetry(doc.Attempts), err.Error())
	}
	return true, r.Queue.MarkSent(ctx, doc.ID)
}

func (r *Relay) envelope(doc *EventDocument) ([]byte, map[string]string, error) {
	var data json.RawMessage
	if err := json.Unmarshal(doc.Payload, &data); err != nil {
		return nil, nil, err
	}
	evt := map[string]any{
		"specversion":     "1.0",
		"id":              doc.ID,
		"type":            doc.Name + ".v1",
		"source":          r.source(),
		"subject":         doc.Aggregate,
		"time":            doc.OccurredAt,
		"datacontenttype": "application/json",
		"data":            data,
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, nil, err
	}
	headers := map[string]string{
		"content-type": "application/cloudevents+json",
		"event_id":     doc.ID,
	}
	for k, v := range doc.Headers {
		headers[k] = v
	}
	return payload, headers, nil
}

func (r *Relay) workerID() string {
	if r.ID != "" {
		return r.ID
	}
	return uuid.NewString()
}

func (r *Relay) interval() time.Duration {
	if r.Interval <= 0 {
		return 500 * time.Millisecond
	}
	return r.Interval
}

func (r *Relay) claimTimeout() time.Duration {
	if r.ClaimTimeout <= 0 {
		return time.Minute
	}
	return r.ClaimTimeout
}

func (r *Relay) nextRetry(attempts int) time.Time {
	now := r.now()
	if attempts < len(r.Backoff) {
		return now.Add(r.Backoff[attempts])
	}
	if len(r.Backoff) > 0 {
		return now.Add(r.Backoff[len(r.Backoff)-1])
	}
	return now.Add(5 * time.Second)
}

func (r *Relay) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now().UTC()
}

func (r *Relay) source() string {
	if r.Source != "" {
		return r.Source
	}
	return "app://stayquote"
}

func (r *Relay) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}
