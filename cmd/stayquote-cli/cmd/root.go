// Package cmd provides the offline stayquote commands: quotes, picker runs
// and calendar grids computed against the TOML listing fixtures.
package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"stayquote/internal/app/bootstrap"
	"stayquote/internal/app/policies"
	"stayquote/internal/domain/pricing"
	"stayquote/internal/domain/shared/daterange"
	"stayquote/internal/domain/shared/money"
	"stayquote/internal/infra/fixtures"
	"stayquote/internal/infra/ical"
	"stayquote/internal/infra/obs"
	"stayquote/internal/infra/storage/memory"
)

var (
	fixturesPath   string
	todayFlag      string
	serviceFeeRate string
	serviceFeeBase string
	verbose        bool
)

var rootCmd = &cobra.Command{
	Use:   "stayquote-cli",
	Short: "Quote vacation rental stays offline",
	Long: `stayquote-cli prices stays and replays date picker clicks against the
listing fixtures, without a server or database.

Examples:
  stayquote-cli listings
  stayquote-cli quote casa-azul --check-in 2026-12-01 --check-out 2026-12-08 --guests 5
  stayquote-cli pick casa-azul 2026-11-10 2026-11-22
  stayquote-cli calendar casa-azul --from 2026-11-01 --to 2026-11-30`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&fixturesPath, "fixtures", fixtures.DefaultPath(), "listing fixtures TOML file")
	rootCmd.PersistentFlags().StringVar(&todayFlag, "today", "", "treat this YYYY-MM-DD as today (default: current date)")
	rootCmd.PersistentFlags().StringVar(&serviceFeeRate, "service-fee-rate", pricing.DefaultServiceFeeRate.String(), "service fee rate")
	rootCmd.PersistentFlags().StringVar(&serviceFeeBase, "service-fee-base", string(pricing.FeeBasePreDiscount), "service fee base: pre_discount or post_discount")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log fixture loading")

	rootCmd.AddCommand(listingsCmd)
	rootCmd.AddCommand(quoteCmd)
	rootCmd.AddCommand(pickCmd)
	rootCmd.AddCommand(calendarCmd)
}

// workspace is an in-memory copy of the fixtures behind the regular buses.
type workspace struct {
	listings  *memory.ListingRepository
	calendars *memory.CalendarRepository
	buses     bootstrap.Buses
	today     time.Time
}

func openWorkspace(ctx context.Context, cmd *cobra.Command) (*workspace, error) {
	today := time.Now().UTC()
	if todayFlag != "" {
		d, err := daterange.ParseDay(todayFlag)
		if err != nil {
			return nil, fmt.Errorf("--today: %w", err)
		}
		today = d
	}
	rate, err := money.ParseRate(serviceFeeRate)
	if err != nil {
		return nil, fmt.Errorf("--service-fee-rate: %w", err)
	}
	base, err := pricing.ParseFeeBase(serviceFeeBase)
	if err != nil {
		return nil, fmt.Errorf("--service-fee-base: %w", err)
	}
	policy := pricing.DefaultPolicy()
	policy.ServiceFeeRate = rate
	policy.ServiceFeeBase = base

	logger := obs.Discard()
	if verbose {
		logger = obs.NewLoggerTo(cmd.ErrOrStderr(), "dev")
	}

	f, err := fixtures.Load(fixturesPath)
	if err != nil {
		return nil, err
	}
	listings := memory.NewListingRepository()
	calendars := memory.NewCalendarRepository()
	if _, err := fixtures.Seed(ctx, f, listings, calendars, today, logger); err != nil {
		return nil, err
	}

	buses, err := bootstrap.NewBuses(bootstrap.Deps{
		UoW:        memory.Factory{ListingsRepo: listings, CalendarsRepo: calendars},
		Outbox:     memory.NewOutbox(nil, ""),
		Calculator: pricing.NewCalculator(policy),
		Decoder:    ical.Decoder{},
		Clock:      policies.FixedClock(today),
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}
	return &workspace{listings: listings, calendars: calendars, buses: buses, today: today}, nil
}

func parseDayFlag(name, raw string) (time.Time, error) {
	d, err := daterange.ParseDay(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: %w", name, err)
	}
	return d, nil
}
