package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"stayquote/internal/domain/shared/money"
)

var listingsCmd = &cobra.Command{
	Use:   "listings",
	Short: "List fixture listings and their rate cards",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		ws, err := openWorkspace(ctx, cmd)
		if err != nil {
			return err
		}
		all, err := ws.listings.List(ctx)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tSLEEPS\tNIGHTLY\tMIN NIGHTS\tSTATE")
		for _, l := range all {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%d\t%s\n", l.ID, l.Title, l.Sleeps, money.Format(l.RateCard.BaseNightly, l.RateCard.Currency), l.RateCard.MinNights, l.State)
		}
		return w.Flush()
	},
}
