package ginserver

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"

	gin "github.com/gin-gonic/gin"

	"stayquote/internal/app/commands"
	"stayquote/internal/app/dto"
	availabilityapp "stayquote/internal/app/handlers/availability"
)

const maxICalUpload = 4 << 20

// HostCalendarHandler lets hosts push or pull their channel calendars.
type HostCalendarHandler struct {
	Commands commands.Bus
	Logger   *slog.Logger
}

// ImportICal replaces occupied nights with the uploaded export. An optional
// ?sequence= orders concurrent uploads.
func (h HostCalendarHandler) ImportICal(c *gin.Context) {
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	var seq int64
	if raw := c.Query("sequence"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "sequence must be a non-negative integer"})
			return
		}
		seq = v
	}
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxICalUpload+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(body) > maxICalUpload {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "ical upload too large"})
		return
	}
	cmd := availabilityapp.ImportICalCommand{ListingID: c.Param("id"), Body: body, Sequence: seq}
	result, err := commands.Dispatch[availabilityapp.ImportICalCommand, dto.CalendarSyncResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondWithError(c, h.Logger, "ical import failed", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h HostCalendarHandler) Refresh(c *gin.Context) {
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	cmd := availabilityapp.RefreshCalendarCommand{ListingID: c.Param("id")}
	result, err := commands.Dispatch[availabilityapp.RefreshCalendarCommand, dto.CalendarSyncResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondWithError(c, h.Logger, "calendar refresh failed", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ HostCalendarHTTP = HostCalendarHandler{}
