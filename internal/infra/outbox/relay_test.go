package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appoutbox "stayquote/internal/app/outbox"
	"stayquote/internal/infra/obs"
)

type fakeQueue struct {
	docs     []*EventDocument
	sent     []string
	failed   map[string]time.Time
	released int64
}

func (q *fakeQueue) Claim(context.Context, string) (*EventDocument, error) {
	for _, d := range q.docs {
		if d.State == stateNew {
			d.State = stateClaimed
			return d, nil
		}
	}
	return nil, nil
}

func (q *fakeQueue) MarkSent(_ context.Context, id string) error {
	q.sent = append(q.sent, id)
	return nil
}

func (q *fakeQueue) MarkFailed(_ context.Context, id string, next time.Time, _ string) error {
	if q.failed == nil {
		q.failed = map[string]time.Time{}
	}
	q.failed[id] = next
	return nil
}

func (q *fakeQueue) ReleaseStale(context.Context, time.Time) (int64, error) {
	return q.released, nil
}

type message struct {
	topic   string
	key     string
	payload []byte
	headers map[string]string
}

type fakeProducer struct {
	messages []message
	err      error
}

func (p *fakeProducer) Publish(_ context.Context, topic, key string, payload []byte, headers map[string]string) error {
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, message{topic: topic, key: key, payload: payload, headers: headers})
	return nil
}

var relayNow = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func doc(id string, payload string) *EventDocument {
	d := newDocument(appoutbox.EventRecord{
		ID:         id,
		Name:       "calendar.synced",
		Payload:    []byte(payload),
		OccurredAt: relayNow,
		Aggregate:  "casa-azul",
		Headers:    map[string]string{"event_name": "calendar.synced"},
	}, relayNow)
	return &d
}

func TestRelayDrainPublishesEnvelopes(t *testing.T) {
	q := &fakeQueue{docs: []*EventDocument{doc("e1", `{"sequence":2}`), doc("e2", `{"sequence":3}`)}, released: 1}
	p := &fakeProducer{}
	r := &Relay{Queue: q, Producer: p, Topic: "stayquote.events", Logger: obs.Discard(), Now: func() time.Time { return relayNow }}

	sent, err := r.Drain(context.Background(), "w1")
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Equal(t, []string{"e1", "e2"}, q.sent)

	require.Len(t, p.messages, 2)
	m := p.messages[0]
	assert.Equal(t, "stayquote.events", m.topic)
	assert.Equal(t, "casa-azul", m.key)
	assert.Equal(t, "e1", m.headers["event_id"])
	assert.Equal(t, "calendar.synced", m.headers["event_name"])
	assert.Equal(t, "application/cloudevents+json", m.headers["content-type"])

	var env struct {
		ID   string          `json:"id"`
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(m.payload, &env))
	assert.Equal(t, "e1", env.ID)
	assert.Equal(t, "calendar.synced.v1", env.Type)
	assert.JSONEq(t, `{"sequence":2}`, string(env.Data))
}

func TestRelayBacksOffOnFailure(t *testing.T) {
	q := &fakeQueue{docs: []*EventDocument{doc("e1", `{}`), doc("e2", `{}`)}}
	r := &Relay{
		Queue:    q,
		Producer: &fakeProducer{err: errors.New("broker down")},
		Topic:    "stayquote.events",
		Backoff:  []time.Duration{time.Second, time.Minute},
		Logger:   obs.Discard(),
		Now:      func() time.Time { return relayNow },
	}

	sent, err := r.Drain(context.Background(), "w1")
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Equal(t, map[string]time.Time{"e1": relayNow.Add(time.Second)}, q.failed)
	assert.Equal(t, stateNew, q.docs[1].State, "queue stops after the first failure")

	assert.Equal(t, relayNow.Add(time.Minute), r.nextRetry(5))
}

func TestRelayMalformedPayloadIsFailedNotPublished(t *testing.T) {
	q := &fakeQueue{docs: []*EventDocument{doc("e1", `not json`)}}
	p := &fakeProducer{}
	r := &Relay{Queue: q, Producer: p, Topic: "t", Logger: obs.Discard(), Now: func() time.Time { return relayNow }}

	_, err := r.Drain(context.Background(), "w1")
	require.NoError(t, err)
	assert.Empty(t, p.messages)
	assert.Equal(t, relayNow.Add(5*time.Second), q.failed["e1"])
}

func TestRelayRunRequiresDependencies(t *testing.T) {
	err := (&Relay{}).Run(context.Background())
	assert.ErrorIs(t, err, ErrRelayNotConfigured)
}
