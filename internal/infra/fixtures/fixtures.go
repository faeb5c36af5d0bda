// Package fixtures loads demo listings, rate cards and calendars from TOML.
package fixtures

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/shopspring/decimal"

	domainavailability "stayquote/internal/domain/availability"
	domainlistings "stayquote/internal/domain/listings"
	"stayquote/internal/domain/pricing"
	"stayquote/internal/domain/shared/daterange"
)

type File struct {
	Listings []Listing `toml:"listing"`
}

type Listing struct {
	ID           string           `toml:"id"`
	Title        string           `toml:"title"`
	Sleeps       int              `toml:"sleeps"`
	CheckInTime  string           `toml:"check_in_time"`
	CheckOutTime string           `toml:"check_out_time"`
	ICalURL      string           `toml:"ical_url"`
	Inactive     bool             `toml:"inactive"`
	Rates        RateCard         `toml:"rates"`
	Occupied     []Stay           `toml:"occupied"`
	NightlyRates map[string]int64 `toml:"nightly_rates"`
}

type RateCard struct {
	Currency             string `toml:"currency"`
	BaseNightly          int64  `toml:"base_nightly"`
	ExtraGuestNightlyFee int64  `toml:"extra_guest_nightly_fee"`
	GuestsIncluded       int    `toml:"guests_included"`
	CleaningFee          int64  `toml:"cleaning_fee"`
	CheckInFee           int64  `toml:"checkin_fee"`
	DamageDeposit        int64  `toml:"damage_deposit"`
	WeeklyDiscount       string `toml:"weekly_discount"`
	MinNights            int    `toml:"min_nights"`
	MaxGuests            int    `toml:"max_guests"`
}

// Stay is an occupied interval; To is the checkout day and is not occupied.
type Stay struct {
	From string `toml:"from"`
	To   string `toml:"to"`
}

// Load decodes a fixtures file. Unknown keys are an error so typos surface early.
func Load(path string) (File, error) {
	var f File
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		return File{}, fmt.Errorf("decode fixtures %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return File{}, fmt.Errorf("decode fixtures %s: unknown keys %v", path, undecoded)
	}
	return f, nil
}

// DefaultPath returns the first existing candidate, or the first one if none exist.
func DefaultPath() string {
	candidates := []string{
		filepath.Join("data", "listings.toml"),
		filepath.Join("..", "..", "data", "listings.toml"),
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return candidates[0]
}

func (fx Listing) RateCard() (pricing.RateCard, error) {
	card := pricing.RateCard{
		Currency:             fx.Rates.Currency,
		BaseNightly:          fx.Rates.BaseNightly,
		ExtraGuestNightlyFee: fx.Rates.ExtraGuestNightlyFee,
		GuestsIncluded:       fx.Rates.GuestsIncluded,
		CleaningFee:          fx.Rates.CleaningFee,
		CheckInFee:           fx.Rates.CheckInFee,
		DamageDeposit:        fx.Rates.DamageDeposit,
		MinNights:            fx.Rates.MinNights,
		MaxGuests:            fx.Rates.MaxGuests,
	}
	if fx.Rates.WeeklyDiscount != "" {
		m, err := decimal.NewFromString(fx.Rates.WeeklyDiscount)
		if err != nil {
			return pricing.RateCard{}, fmt.Errorf("%w: weekly_discount %q", pricing.ErrInvalidRateCard, fx.Rates.WeeklyDiscount)
		}
		card.WeeklyDiscount = m
	}
	return card, nil
}

// Build turns one fixture into an active listing and its first calendar snapshot.
func (fx Listing) Build(now time.Time) (*domainlistings.Listing, domainavailability.Snapshot, error) {
	card, err := fx.RateCard()
	if err != nil {
		return nil, domainavailability.Snapshot{}, err
	}
	listing, err := domainlistings.NewListing(domainlistings.CreateListingParams{
		ID:           domainlistings.ListingID(fx.ID),
		Title:        fx.Title,
		Sleeps:       fx.Sleeps,
		CheckInTime:  fx.CheckInTime,
		CheckOutTime: fx.CheckOutTime,
		ICalURL:      fx.ICalURL,
		RateCard:     card,
		Now:          now,
	})
	if err != nil {
		return nil, domainavailability.Snapshot{}, err
	}
	if !fx.Inactive {
		if err := listing.Activate(now); err != nil {
			return nil, domainavailability.Snapshot{}, err
		}
	}

	stays := make([]daterange.DateRange, 0, len(fx.Occupied))
	for _, s := range fx.Occupied {
		from, err := daterange.ParseDay(s.From)
		if err != nil {
			return nil, domainavailability.Snapshot{}, fmt.Errorf("listing %s occupied.from: %w", fx.ID, err)
		}
		to, err := daterange.ParseDay(s.To)
		if err != nil {
			return nil, domainavailability.Snapshot{}, fmt.Errorf("listing %s occupied.to: %w", fx.ID, err)
		}
		stay, err := daterange.New(from, to)
		if err != nil {
			return nil, domainavailability.Snapshot{}, fmt.Errorf("listing %s occupied %s..%s: %w", fx.ID, s.From, s.To, err)
		}
		stays = append(stays, stay)
	}
	rates := make(map[time.Time]int64, len(fx.NightlyRates))
	for raw, price := range fx.NightlyRates {
		d, err := daterange.ParseDay(raw)
		if err != nil {
			return nil, domainavailability.Snapshot{}, fmt.Errorf("listing %s nightly_rates: %w", fx.ID, err)
		}
		rates[d] = price
	}
	snapshot := domainavailability.Snapshot{
		Sequence: 1,
		Source:   domainavailability.SourceManual,
		Occupied: domainavailability.OccupiedFromRanges(stays...).Days(),
		Rates:    rates,
	}
	return listing, snapshot, nil
}

// Seed stores every valid fixture. Invalid fixtures are logged and skipped.
func Seed(ctx context.Context, f File, listings domainlistings.ListingRepository, calendars domainavailability.Repository, now time.Time, logger *slog.Logger) (int, error) {
	seeded := 0
	for _, fx := range f.Listings {
		listing, snapshot, err := fx.Build(now)
		if err != nil {
			logger.Error("fixture invalid", "listing_id", fx.ID, "error", err)
			continue
		}
		calendar := domainavailability.NewCalendar(listing.ID)
		if err := calendar.Apply(snapshot, now); err != nil {
			logger.Error("fixture calendar invalid", "listing_id", fx.ID, "error", err)
			continue
		}
		if err := listings.Save(ctx, listing); err != nil {
			return seeded, fmt.Errorf("store fixture listing %s: %w", fx.ID, err)
		}
		if err := calendars.Save(ctx, calendar); err != nil && !errors.Is(err, domainavailability.ErrStaleSnapshot) {
			return seeded, fmt.Errorf("store fixture calendar %s: %w", fx.ID, err)
		}
		logger.Info("listing fixture imported", "listing_id", listing.ID, "occupied_nights", calendar.Occupied.Len())
		seeded++
	}
	return seeded, nil
}

// SeedFile loads path and seeds it. A missing file is not an error.
func SeedFile(ctx context.Context, path string, listings domainlistings.ListingRepository, calendars domainavailability.Repository, now time.Time, logger *slog.Logger) (int, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		logger.Info("listing fixtures file not found, skipping", "path", path)
		return 0, nil
	}
	f, err := Load(path)
	if err != nil {
		return 0, err
	}
	return Seed(ctx, f, listings, calendars, now, logger)
}
