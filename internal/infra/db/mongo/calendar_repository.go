package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainavailability "stayquote/internal/domain/availability"
	domainlistings "stayquote/internal/domain/listings"
	"stayquote/internal/domain/shared/daterange"
)

// CalendarRepository stores one document per listing. Writes are guarded by
// the snapshot sequence so an older snapshot can never overwrite a newer one,
// even across replicas.
type CalendarRepository struct {
	col *mongo.Collection
}

func NewCalendarRepository(db *mongo.Database) *CalendarRepository {
	return &CalendarRepository{col: db.Collection("agg_calendar")}
}

func (r *CalendarRepository) Calendar(ctx context.Context, id domainlistings.ListingID) (*domainavailability.Calendar, error) {
	var doc calendarDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainavailability.ErrCalendarNotFound
		}
		return nil, err
	}
	return doc.toAggregate()
}

func (r *CalendarRepository) Save(ctx context.Context, c *domainavailability.Calendar) error {
	doc := newCalendarDocument(c)
	filter := bson.M{"_id": doc.ID, "sequence": bson.M{"$lt": doc.Sequence}}
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	if err != nil {
		// The upsert collides with the existing _id when the stored sequence is not lower.
		if mongo.IsDuplicateKeyError(err) {
			return domainavailability.ErrStaleSnapshot
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return domainavailability.ErrStaleSnapshot
	}
	return nil
}

type calendarDocument struct {
	ID        string           `bson:"_id"`
	Occupied  []string         `bson:"occupied"`
	Rates     map[string]int64 `bson:"rates"`
	Sequence  int64            `bson:"sequence"`
	UpdatedAt int64            `bson:"updated_at"`
}

func newCalendarDocument(c *domainavailability.Calendar) calendarDocument {
	doc := calendarDocument{
		ID:        string(c.ListingID),
		Occupied:  make([]string, 0, c.Occupied.Len()),
		Rates:     make(map[string]int64, len(c.Rates)),
		Sequence:  c.Sequence,
		UpdatedAt: c.UpdatedAt.UnixMilli(),
	}
	for _, d := range c.Occupied.Days() {
		doc.Occupied = append(doc.Occupied, daterange.FormatDay(d))
	}
	for d, p := range c.Rates {
		doc.Rates[daterange.FormatDay(d)] = p
	}
	return doc
}

func (d calendarDocument) toAggregate() (*domainavailability.Calendar, error) {
	days := make([]time.Time, 0, len(d.Occupied))
	for _, raw := range d.Occupied {
		day, err := daterange.ParseDay(raw)
		if err != nil {
			return nil, err
		}
		days = append(days, day)
	}
	rates := make(map[time.Time]int64, len(d.Rates))
	for raw, p := range d.Rates {
		day, err := daterange.ParseDay(raw)
		if err != nil {
			return nil, err
		}
		rates[day] = p
	}
	return &domainavailability.Calendar{
		ListingID: domainlistings.ListingID(d.ID),
		Occupied:  domainavailability.NewOccupiedSet(days...),
		Rates:     domainavailability.NewRateOverrides(rates),
		Sequence:  d.Sequence,
		UpdatedAt: timestampToTime(d.UpdatedAt),
	}, nil
}

var _ domainavailability.Repository = (*CalendarRepository)(nil)
