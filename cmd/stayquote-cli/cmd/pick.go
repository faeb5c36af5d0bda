package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"stayquote/internal/app/dto"
	quotesapp "stayquote/internal/app/handlers/quotes"
	"stayquote/internal/app/queries"
	domainavailability "stayquote/internal/domain/availability"
	domainlistings "stayquote/internal/domain/listings"
	"stayquote/internal/domain/selection"
	"stayquote/internal/domain/shared/daterange"
)

var pickGuests int

var pickCmd = &cobra.Command{
	Use:   "pick <listing-id> <date>...",
	Short: "Replay date picker clicks",
	Long: `Replay clicks on the date picker in order and print how each one
changes the selection. Every completed range is priced.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runPick,
}

func init() {
	pickCmd.Flags().IntVarP(&pickGuests, "guests", "g", 2, "guests for the quote of a completed range")
}

func runPick(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	ws, err := openWorkspace(ctx, cmd)
	if err != nil {
		return err
	}
	listingID := domainlistings.ListingID(args[0])
	var completed []daterange.DateRange
	picker, err := ws.picker(ctx, listingID, func(r daterange.DateRange) {
		completed = append(completed, r)
	})
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	for _, raw := range args[1:] {
		date, err := parseDayFlag("date", raw)
		if err != nil {
			return err
		}
		before := len(completed)
		res := dto.MapSelection(picker.Click(date))
		fmt.Fprintf(out, "click %s: %s\n", raw, describeSelection(res))
		if len(completed) == before {
			continue
		}

		r := completed[len(completed)-1]
		quote, err := queries.Ask[quotesapp.GetQuoteQuery, dto.QuoteResult](ctx, ws.buses.Queries, quotesapp.GetQuoteQuery{
			ListingID: string(listingID),
			CheckIn:   r.CheckIn,
			CheckOut:  r.CheckOut,
			Guests:    pickGuests,
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(out)
		if err := printQuote(out, quote); err != nil {
			return err
		}
		fmt.Fprintln(out)
	}
	return nil
}

// picker starts an empty session over the listing's stored calendar.
func (ws *workspace) picker(ctx context.Context, id domainlistings.ListingID, onComplete func(daterange.DateRange)) (*selection.Picker, error) {
	if _, err := ws.listings.ByID(ctx, id); err != nil {
		return nil, err
	}
	cal, err := ws.calendars.Calendar(ctx, id)
	if errors.Is(err, domainavailability.ErrCalendarNotFound) {
		cal = domainavailability.NewCalendar(id)
	} else if err != nil {
		return nil, err
	}
	return selection.NewPicker(daterange.DateRange{}, selection.DefaultConstraints(cal.Occupied, ws.today), onComplete), nil
}

func describeSelection(r dto.SelectionResult) string {
	switch {
	case !r.Accepted:
		return fmt.Sprintf("ignored (%s)", r.Reason)
	case r.Completed:
		return fmt.Sprintf("range %s -> %s, %d nights (selection complete)", r.CheckIn, r.CheckOut, r.Nights)
	default:
		return fmt.Sprintf("check-in %s, pick a check-out day", r.CheckIn)
	}
}
