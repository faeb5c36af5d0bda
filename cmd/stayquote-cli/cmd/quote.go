package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"stayquote/internal/app/dto"
	quotesapp "stayquote/internal/app/handlers/quotes"
	"stayquote/internal/app/queries"
	"stayquote/internal/domain/shared/money"
)

var (
	quoteCheckIn  string
	quoteCheckOut string
	quoteGuests   int
	quoteJSON     bool
)

var quoteCmd = &cobra.Command{
	Use:   "quote <listing-id>",
	Short: "Price a stay",
	Long: `Price a stay for a listing. Without --check-out the result is a
zero-night preview at the listing's base rate.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuote,
}

func init() {
	quoteCmd.Flags().StringVar(&quoteCheckIn, "check-in", "", "check-in day (YYYY-MM-DD)")
	quoteCmd.Flags().StringVar(&quoteCheckOut, "check-out", "", "check-out day (YYYY-MM-DD)")
	quoteCmd.Flags().IntVarP(&quoteGuests, "guests", "g", 2, "number of guests")
	quoteCmd.Flags().BoolVar(&quoteJSON, "json", false, "print the quote as JSON")
}

func runQuote(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	checkIn, err := parseDayFlag("check-in", quoteCheckIn)
	if err != nil {
		return err
	}
	checkOut, err := parseDayFlag("check-out", quoteCheckOut)
	if err != nil {
		return err
	}
	ws, err := openWorkspace(ctx, cmd)
	if err != nil {
		return err
	}
	res, err := queries.Ask[quotesapp.GetQuoteQuery, dto.QuoteResult](ctx, ws.buses.Queries, quotesapp.GetQuoteQuery{
		ListingID: args[0],
		CheckIn:   checkIn,
		CheckOut:  checkOut,
		Guests:    quoteGuests,
	})
	if err != nil {
		return err
	}
	if quoteJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	return printQuote(cmd.OutOrStdout(), res)
}

func printQuote(out io.Writer, res dto.QuoteResult) error {
	q := res.Quote
	if q.Nights == 0 {
		fmt.Fprintf(out, "%s: from %s / night (min %d nights)\n", q.ListingID, money.Format(q.AverageNightlyRate, q.Currency), q.MinNights)
		return nil
	}
	fmt.Fprintf(out, "%s  %s -> %s  %d guests\n", q.ListingID, q.CheckIn, q.CheckOut, q.Guests)
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
	for _, li := range q.LineItems {
		fmt.Fprintf(w, "%s\t%s\t\n", li.Label, li.Display)
	}
	fmt.Fprintf(w, "Total\t%s\t\n", q.TotalDisplay)
	if err := w.Flush(); err != nil {
		return err
	}
	switch {
	case !res.Available:
		fmt.Fprintln(out, "not available: the range includes booked nights")
	case !q.MeetsMinimumNights:
		fmt.Fprintf(out, "minimum stay is %d nights\n", q.MinNights)
	case res.CanCheckout:
		fmt.Fprintln(out, "ready for checkout")
	}
	return nil
}
