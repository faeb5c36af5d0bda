package ginserver

import (
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	availabilityapp "stayquote/internal/app/handlers/availability"
	quotesapp "stayquote/internal/app/handlers/quotes"
	domainavailability "stayquote/internal/domain/availability"
	domainlistings "stayquote/internal/domain/listings"
	domainpricing "stayquote/internal/domain/pricing"
	"stayquote/internal/domain/shared/daterange"
	"stayquote/internal/infra/ical"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, domainlistings.ErrListingNotFound):
		return http.StatusNotFound
	case errors.Is(err, quotesapp.ErrListingUnavailable):
		return http.StatusConflict
	case errors.Is(err, availabilityapp.ErrNoICalFeed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ical.ErrFeedUnavailable):
		return http.StatusBadGateway
	case isValidationError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, domainpricing.ErrInvalidQuoteRequest),
		errors.Is(err, availabilityapp.ErrInvalidWindow),
		errors.Is(err, availabilityapp.ErrDateRequired),
		errors.Is(err, availabilityapp.ErrListingIDRequired),
		errors.Is(err, availabilityapp.ErrEmptyICal),
		errors.Is(err, domainavailability.ErrInvalidPrice),
		errors.Is(err, daterange.ErrInvalidDay),
		errors.Is(err, daterange.ErrInvalidRange),
		errors.Is(err, ical.ErrMalformed),
		errors.Is(err, ical.ErrNoCalendar):
		return true
	}
	return false
}

// respondWithError logs server-side failures and writes {"error": ...}.
func respondWithError(c *gin.Context, logger *slog.Logger, msg string, err error) {
	status := statusFor(err)
	if logger != nil {
		level := slog.LevelWarn
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(c.Request.Context(), level, msg, "status", status, "error", err, "path", c.FullPath(), "listing_id", c.Param("id"))
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": err.Error()})
}
