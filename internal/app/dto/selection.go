package dto

import (
	"stayquote/internal/domain/selection"
	"stayquote/internal/domain/shared/daterange"
)

type SelectionResult struct {
	CheckIn   string `json:"check_in,omitempty"`
	CheckOut  string `json:"check_out,omitempty"`
	Phase     string `json:"phase"`
	Accepted  bool   `json:"accepted"`
	Completed bool   `json:"completed"`
	Reason    string `json:"reason,omitempty"`
	Nights    int    `json:"nights"`
}

func MapSelection(out selection.Outcome) SelectionResult {
	return SelectionResult{
		CheckIn:   daterange.FormatDay(out.State.Range.CheckIn),
		CheckOut:  daterange.FormatDay(out.State.Range.CheckOut),
		Phase:     string(out.State.Phase),
		Accepted:  out.Accepted,
		Completed: out.Completed,
		Reason:    string(out.Reason),
		Nights:    out.State.Range.Nights(),
	}
}
