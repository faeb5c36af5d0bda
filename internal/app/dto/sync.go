package dto

// CalendarSyncResult reports how a snapshot was applied.
type CalendarSyncResult struct {
	ListingID      string `json:"listing_id"`
	Sequence       int64  `json:"sequence"`
	Applied        bool   `json:"applied"`
	OccupiedNights int    `json:"occupied_nights"`
	Events         int    `json:"events,omitempty"`
}
