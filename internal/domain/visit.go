package domain

import "time"

// Visit is one person's recorded stop at a venue. Visits are append-only:
// the engine creates them on ingestion and never mutates or deletes them.
type Visit struct {
	ID        string
	UserID    string
	VenueID   string // optional; empty when the visit was recorded by coordinates only
	VenueName string
	Latitude  float64
	Longitude float64
	VisitedAt time.Time
	CreatedAt time.Time
}

// HasVenue reports whether the visit is pinned to a known venue.
func (v Visit) HasVenue() bool {
	return v.VenueID != ""
}
