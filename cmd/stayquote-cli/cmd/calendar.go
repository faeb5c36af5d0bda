package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"stayquote/internal/app/dto"
	availabilityapp "stayquote/internal/app/handlers/availability"
	"stayquote/internal/app/queries"
	"stayquote/internal/domain/shared/daterange"
	"stayquote/internal/domain/shared/money"
)

var (
	calendarFrom    string
	calendarTo      string
	calendarCheckIn string
)

var calendarCmd = &cobra.Command{
	Use:   "calendar <listing-id>",
	Short: "Print the picker grid for a listing",
	Long: `Print one row per week. Booked nights are marked x, days the picker
would not accept are marked -, the selected range is marked *.`,
	Args: cobra.ExactArgs(1),
	RunE: runCalendar,
}

func init() {
	calendarCmd.Flags().StringVar(&calendarFrom, "from", "", "first day (default: today)")
	calendarCmd.Flags().StringVar(&calendarTo, "to", "", "last day (default: six weeks)")
	calendarCmd.Flags().StringVar(&calendarCheckIn, "check-in", "", "selected check-in day")
}

func runCalendar(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	from, err := parseDayFlag("from", calendarFrom)
	if err != nil {
		return err
	}
	to, err := parseDayFlag("to", calendarTo)
	if err != nil {
		return err
	}
	checkIn, err := parseDayFlag("check-in", calendarCheckIn)
	if err != nil {
		return err
	}
	ws, err := openWorkspace(ctx, cmd)
	if err != nil {
		return err
	}
	view, err := queries.Ask[availabilityapp.GetCalendarQuery, dto.CalendarView](ctx, ws.buses.Queries, availabilityapp.GetCalendarQuery{
		ListingID: args[0],
		From:      from,
		To:        to,
		CheckIn:   checkIn,
		Today:     ws.today,
	})
	if err != nil {
		return err
	}
	return printCalendar(cmd.OutOrStdout(), view)
}

func printCalendar(out io.Writer, view dto.CalendarView) error {
	fmt.Fprintf(out, "%s  %s .. %s  (%s)\n", view.ListingID, view.From, view.To, view.Phase)
	if view.RangeLimit != "" {
		fmt.Fprintf(out, "check-out no later than %s\n", view.RangeLimit)
	}
	if view.WeeklyDiscountPercent > 0 {
		fmt.Fprintf(out, "%d%% off stays of 7+ nights\n", view.WeeklyDiscountPercent)
	}
	var row strings.Builder
	for i, d := range view.Days {
		date, err := daterange.ParseDay(d.Date)
		if err != nil {
			return err
		}
		if i == 0 || date.Weekday() == time.Monday {
			if row.Len() > 0 {
				fmt.Fprintln(out, row.String())
				row.Reset()
			}
			fmt.Fprintf(&row, "%s ", d.Date)
		}
		fmt.Fprintf(&row, " %2d%s %-5s", date.Day(), dayMarker(d), money.Format(d.Price, view.Currency))
	}
	if row.Len() > 0 {
		fmt.Fprintln(out, row.String())
	}
	return nil
}

func dayMarker(d dto.CalendarDay) string {
	switch {
	case d.Occupied:
		return "x"
	case d.Start || d.End || d.InRange:
		return "*"
	case d.Disabled:
		return "-"
	default:
		return " "
	}
}
