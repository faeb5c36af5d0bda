package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"stayquote/internal/app/dto"
	availabilityapp "stayquote/internal/app/handlers/availability"
	"stayquote/internal/app/queries"
	"stayquote/internal/infra/obs"
)

// AvailabilityHandler serves the picker grid and single selector steps.
type AvailabilityHandler struct {
	Queries queries.Bus
	Metrics *obs.Metrics
	Logger  *slog.Logger
}

func (h AvailabilityHandler) Calendar(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "availability handler unavailable"})
		return
	}
	days, err := parseDays(map[string]string{
		"from":      c.Query("from"),
		"to":        c.Query("to"),
		"check_in":  c.Query("check_in"),
		"check_out": c.Query("check_out"),
		"today":     c.Query("today"),
	})
	if err != nil {
		respondWithError(c, h.Logger, "calendar request rejected", err)
		return
	}
	query := availabilityapp.GetCalendarQuery{
		ListingID: c.Param("id"),
		From:      days["from"],
		To:        days["to"],
		CheckIn:   days["check_in"],
		CheckOut:  days["check_out"],
		Today:     days["today"],
	}
	result, err := queries.Ask[availabilityapp.GetCalendarQuery, dto.CalendarView](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondWithError(c, h.Logger, "calendar request failed", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type selectRequest struct {
	CheckIn  string `json:"check_in"`
	CheckOut string `json:"check_out"`
	Date     string `json:"date"`
	Today    string `json:"today"`
}

// Select applies one click to the selection the client echoes back.
func (h AvailabilityHandler) Select(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "availability handler unavailable"})
		return
	}
	var req selectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	days, err := parseDays(map[string]string{
		"check_in":  req.CheckIn,
		"check_out": req.CheckOut,
		"date":      req.Date,
		"today":     req.Today,
	})
	if err != nil {
		respondWithError(c, h.Logger, "selection rejected", err)
		return
	}
	query := availabilityapp.SelectDateQuery{
		ListingID: c.Param("id"),
		CheckIn:   days["check_in"],
		CheckOut:  days["check_out"],
		Date:      days["date"],
		Today:     days["today"],
	}
	result, err := queries.Ask[availabilityapp.SelectDateQuery, dto.SelectionResult](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondWithError(c, h.Logger, "selection failed", err)
		return
	}
	h.Metrics.SelectionClick(selectionOutcome(result))
	c.JSON(http.StatusOK, result)
}

func selectionOutcome(r dto.SelectionResult) string {
	switch {
	case r.Completed:
		return "completed"
	case r.Accepted:
		return "started"
	default:
		return r.Reason
	}
}

var _ AvailabilityHTTP = AvailabilityHandler{}
