package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"stayquote/internal/app/dto"
	quotesapp "stayquote/internal/app/handlers/quotes"
	"stayquote/internal/app/queries"
	"stayquote/internal/infra/obs"
)

type QuoteHandler struct {
	Queries queries.Bus
	Metrics *obs.Metrics
	Logger  *slog.Logger
}

type quoteRequest struct {
	CheckIn   string `json:"check_in"`
	CheckOut  string `json:"check_out"`
	Guests    int    `json:"guests"`
	SessionID string `json:"session_id"`
	Sequence  int64  `json:"sequence"`
}

// Quote prices the requested range. session_id may also arrive in the
// X-Quote-Session header.
func (h QuoteHandler) Quote(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "quote handler unavailable"})
		return
	}
	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Metrics.QuoteRejected()
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	days, err := parseDays(map[string]string{"check_in": req.CheckIn, "check_out": req.CheckOut})
	if err != nil {
		h.Metrics.QuoteRejected()
		respondWithError(c, h.Logger, "quote rejected", err)
		return
	}
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = c.GetHeader("X-Quote-Session")
	}
	query := quotesapp.GetQuoteQuery{
		ListingID: c.Param("id"),
		CheckIn:   days["check_in"],
		CheckOut:  days["check_out"],
		Guests:    req.Guests,
		SessionID: sessionID,
		Sequence:  req.Sequence,
	}
	result, err := queries.Ask[quotesapp.GetQuoteQuery, dto.QuoteResult](c.Request.Context(), h.Queries, query)
	if err != nil {
		h.Metrics.QuoteRejected()
		respondWithError(c, h.Logger, "quote failed", err)
		return
	}
	h.Metrics.QuoteComputed(result.Stale)
	c.JSON(http.StatusOK, result)
}

var _ QuoteHTTP = QuoteHandler{}
