package domain

import (
	"fmt"
	"time"
)

// CrossingRecord aggregates the spatio-temporal overlaps between two users at
// one venue. UserAID < UserBID always; for a given (userA, userB, venueKey)
// at most one record is open at a time, and CrossCount only ever grows while
// the record stays open.
type CrossingRecord struct {
	ID             string
	UserAID        string
	UserBID        string
	VenueID        string // empty for proximity-only crossings
	VenueKey       string
	VenueName      string
	LocationLat    float64
	LocationLng    float64
	CrossCount     int64
	FirstCrossedAt time.Time
	LastCrossedAt  time.Time
}

// OtherUser returns the counterpart of userID on this record.
func (c CrossingRecord) OtherUser(userID string) string {
	if c.UserAID == userID {
		return c.UserBID
	}
	return c.UserAID
}

// PathProjection is the UI-facing row created exactly once per canonical
// pair, the first time any crossing is recorded between the two users.
// It is owned by the aggregator and read-only everywhere else.
type PathProjection struct {
	User1ID   string
	User2ID   string
	VenueName string
	Lat       float64
	Lng       float64
	IsActive  bool
	CreatedAt time.Time
}

// CandidateMatch is one overlapping visit found by the detector, keyed by
// the other user. It carries the location the crossing is attributed to.
type CandidateMatch struct {
	OtherUserID string
	VenueID     string
	VenueName   string
	Lat         float64
	Lng         float64
}

// CanonicalPair orders two user ids so the smaller one comes first. Every
// crossing is stored under this ordering, which is what prevents mirrored
// duplicate records for the same pair.
func CanonicalPair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

// VenueKeyFor returns the key a crossing is aggregated under: the venue id
// when the match happened at a known venue, otherwise a coarse coordinate
// bucket (~100 m at mid latitudes) so proximity crossings at the same spot
// collapse into one record.
func VenueKeyFor(venueID string, lat, lng float64) string {
	if venueID != "" {
		return venueID
	}
	return fmt.Sprintf("loc:%.3f:%.3f", lat, lng)
}
