// Package outbox keeps domain events in Mongo next to the calendar writes that
// produced them and relays them to Kafka from a background worker.
package outbox

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	appoutbox "stayquote/internal/app/outbox"
)

const (
	stateNew     = "NEW"
	stateClaimed = "CLAIMED"
	stateSent    = "SENT"
	stateFailed  = "FAILED"
)

// Store is a Mongo-backed appoutbox.Outbox. Add runs with the caller's
// context, so inside a unit of work the insert joins the session transaction
// and a rolled back command leaves no event behind.
type Store struct {
	col *mongo.Collection
	now func() time.Time
}

// NewStore prepares the collection. Sent documents expire sentRetention after
// publishing; zero keeps them forever.
func NewStore(ctx context.Context, db *mongo.Database, sentRetention time.Duration) (*Store, error) {
	col := db.Collection("event_outbox")
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "state", Value: 1}, {Key: "next_attempt_at", Value: 1}}},
	}
	if sentRetention > 0 {
		// only SENT documents carry sent_at, so pending ones never expire
		models = append(models, mongo.IndexModel{
			Keys:    bson.D{{Key: "sent_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(sentRetention.Seconds())),
		})
	}
	if _, err := col.Indexes().CreateMany(ctx, models); err != nil {
		return nil, err
	}
	return &Store{col: col, now: func() time.Time { return time.Now().UTC() }}, nil
}

type EventDocument struct {
	ID          string            `bson:"_id"`
	Name        string            `bson:"name"`
	Payload     []byte            `bson:"payload"`
	OccurredAt  time.Time         `bson:"occurred_at"`
	Aggregate   string            `bson:"aggregate"`
	Headers     map[string]string `bson:"headers"`
	State       string            `bson:"state"`
	Attempts    int               `bson:"attempts"`
	NextAttempt time.Time         `bson:"next_attempt_at"`
	ClaimedBy   string            `bson:"claimed_by,omitempty"`
	ClaimedAt   time.Time         `bson:"claimed_at,omitempty"`
	SentAt      time.Time         `bson:"sent_at,omitempty"`
	LastError   string            `bson:"last_error,omitempty"`
}

func newDocument(record appoutbox.EventRecord, now time.Time) EventDocument {
	return EventDocument{
		ID:          record.ID,
		Name:        record.Name,
		Payload:     record.Payload,
		OccurredAt:  record.OccurredAt,
		Aggregate:   record.Aggregate,
		Headers:     record.Headers,
		State:       stateNew,
		NextAttempt: now,
	}
}

func (s *Store) Add(ctx context.Context, record appoutbox.EventRecord) error {
	_, err := s.col.InsertOne(ctx, newDocument(record, s.now()))
	return err
}

// Flush is a no-op: the Relay picks committed documents up on its own schedule.
func (s *Store) Flush(context.Context) error {
	return nil
}

// Claim takes the oldest due document for workerID, or returns nil when none is due.
func (s *Store) Claim(ctx context.Context, workerID string) (*EventDocument, error) {
	now := s.now()
	filter := bson.M{"state": bson.M{"$in": []string{stateNew, stateFailed}}, "next_attempt_at": bson.M{"$lte": now}}
	update := bson.M{"$set": bson.M{"state": stateClaimed, "claimed_by": workerID, "claimed_at": now}}
	opts := options.FindOneAndUpdate().
		SetSort(bson.D{{Key: "next_attempt_at", Value: 1}}).
		SetReturnDocument(options.After)
	var doc EventDocument
	if err := s.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &doc, nil
}

func (s *Store) MarkSent(ctx context.Context, id string) error {
	_, err := s.col.UpdateByID(ctx, id, bson.M{"$set": bson.M{"state": stateSent, "sent_at": s.now()}})
	return err
}

func (s *Store) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	update := bson.M{
		"$set": bson.M{
			"state":           stateFailed,
			"next_attempt_at": next,
			"last_error":      errMsg,
		},
		"$inc": bson.M{"attempts": 1},
	}
	_, err := s.col.UpdateByID(ctx, id, update)
	return err
}

// ReleaseStale hands documents claimed before cutoff back to the queue, so a
// relay that died mid-publish does not strand them.
func (s *Store) ReleaseStale(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.col.UpdateMany(ctx,
		bson.M{"state": stateClaimed, "claimed_at": bson.M{"$lt": cutoff}},
		bson.M{"$set": bson.M{"state": stateFailed, "next_attempt_at": s.now()}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

var _ appoutbox.Outbox = (*Store)(nil)
