package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainlistings "stayquote/internal/domain/listings"
	"stayquote/internal/domain/pricing"
)

type ListingRepository struct {
	col *mongo.Collection
}

func NewListingRepository(db *mongo.Database) *ListingRepository {
	return &ListingRepository{col: db.Collection("agg_listing")}
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	var doc listingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainlistings.ErrListingNotFound
		}
		return nil, err
	}
	return doc.toAggregate()
}

func (r *ListingRepository) Save(ctx context.Context, l *domainlistings.Listing) error {
	doc := newListingDocument(l)
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": doc.ID}, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	return err
}

func (r *ListingRepository) List(ctx context.Context) ([]*domainlistings.Listing, error) {
	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []*domainlistings.Listing
	for cur.Next(ctx) {
		var doc listingDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		l, err := doc.toAggregate()
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, cur.Err()
}

type listingDocument struct {
	ID           string           `bson:"_id"`
	Title        string           `bson:"title"`
	Sleeps       int              `bson:"sleeps"`
	CheckInTime  string           `bson:"check_in_time,omitempty"`
	CheckOutTime string           `bson:"check_out_time,omitempty"`
	ICalURL      string           `bson:"ical_url,omitempty"`
	RateCard     rateCardDocument `bson:"rate_card"`
	State        string           `bson:"state"`
	CreatedAt    int64            `bson:"created_at"`
	UpdatedAt    int64            `bson:"updated_at"`
}

type rateCardDocument struct {
	Currency             string `bson:"currency"`
	BaseNightly          int64  `bson:"base_nightly"`
	ExtraGuestNightlyFee int64  `bson:"extra_guest_nightly_fee"`
	GuestsIncluded       int    `bson:"guests_included"`
	CleaningFee          int64  `bson:"cleaning_fee"`
	CheckInFee           int64  `bson:"checkin_fee"`
	DamageDeposit        int64  `bson:"damage_deposit"`
	// WeeklyDiscount is kept as a decimal string to avoid float drift.
	WeeklyDiscount string `bson:"weekly_discount,omitempty"`
	MinNights      int    `bson:"min_nights"`
	MaxGuests      int    `bson:"max_guests"`
}

func newListingDocument(l *domainlistings.Listing) listingDocument {
	card := l.RateCard
	doc := listingDocument{
		ID:           string(l.ID),
		Title:        l.Title,
		Sleeps:       l.Sleeps,
		CheckInTime:  l.CheckInTime,
		CheckOutTime: l.CheckOutTime,
		ICalURL:      l.ICalURL,
		RateCard: rateCardDocument{
			Currency:             card.Currency,
			BaseNightly:          card.BaseNightly,
			ExtraGuestNightlyFee: card.ExtraGuestNightlyFee,
			GuestsIncluded:       card.GuestsIncluded,
			CleaningFee:          card.CleaningFee,
			CheckInFee:           card.CheckInFee,
			DamageDeposit:        card.DamageDeposit,
			MinNights:            card.MinNights,
			MaxGuests:            card.MaxGuests,
		},
		State:     string(l.State),
		CreatedAt: l.CreatedAt.UnixMilli(),
		UpdatedAt: l.UpdatedAt.UnixMilli(),
	}
	if !card.WeeklyDiscount.IsZero() {
		doc.RateCard.WeeklyDiscount = card.WeeklyDiscount.String()
	}
	return doc
}

func (d listingDocument) toAggregate() (*domainlistings.Listing, error) {
	card := pricing.RateCard{
		Currency:             d.RateCard.Currency,
		BaseNightly:          d.RateCard.BaseNightly,
		ExtraGuestNightlyFee: d.RateCard.ExtraGuestNightlyFee,
		GuestsIncluded:       d.RateCard.GuestsIncluded,
		CleaningFee:          d.RateCard.CleaningFee,
		CheckInFee:           d.RateCard.CheckInFee,
		DamageDeposit:        d.RateCard.DamageDeposit,
		MinNights:            d.RateCard.MinNights,
		MaxGuests:            d.RateCard.MaxGuests,
	}
	if d.RateCard.WeeklyDiscount != "" {
		m, err := decimal.NewFromString(d.RateCard.WeeklyDiscount)
		if err != nil {
			return nil, err
		}
		card.WeeklyDiscount = m
	}
	return &domainlistings.Listing{
		ID:           domainlistings.ListingID(d.ID),
		Title:        d.Title,
		Sleeps:       d.Sleeps,
		CheckInTime:  d.CheckInTime,
		CheckOutTime: d.CheckOutTime,
		ICalURL:      d.ICalURL,
		RateCard:     card,
		State:        domainlistings.ListingState(d.State),
		CreatedAt:    timestampToTime(d.CreatedAt),
		UpdatedAt:    timestampToTime(d.UpdatedAt),
	}, nil
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

var _ domainlistings.ListingRepository = (*ListingRepository)(nil)
