package service

import (
	"context"
	"errors"
	"time"

	"github.com/aruiz/crossedpaths/backend/internal/domain"
	"github.com/aruiz/crossedpaths/backend/internal/geo"
)

// ErrInvalidInput marks visit payloads rejected before any write.
var ErrInvalidInput = errors.New("invalid input")

// CrossingRepository is the storage contract required by the engine.
type CrossingRepository interface {
	CreateVisit(ctx context.Context, visit domain.Visit) error
	VisitsAtVenueSince(ctx context.Context, venueID, excludeUserID string, since time.Time) ([]domain.Visit, error)
	VisitsNearSince(ctx context.Context, box geo.Box, excludeUserID string, since time.Time) ([]domain.Visit, error)
	FindOpenCrossing(ctx context.Context, userAID, userBID, venueKey string, windowStart time.Time) (*domain.CrossingRecord, error)
	IncrementCrossing(ctx context.Context, recordID, visitID, otherUserID string, now time.Time) (domain.CrossingRecord, error)
	CreateCrossing(ctx context.Context, record domain.CrossingRecord, visitID, otherUserID string) error
	CrossingsForUserAtVenue(ctx context.Context, userID, venueID string) ([]domain.CrossingRecord, error)
	CrossingsForUser(ctx context.Context, userID string) ([]domain.CrossingRecord, error)
	SharedPathsForUser(ctx context.Context, userID string) ([]domain.PathProjection, error)
}

// VisitInput is the inbound payload for recording a visit.
type VisitInput struct {
	VenueID   string
	VenueName string
	Latitude  float64
	Longitude float64
	VisitedAt *time.Time
}

// RecordVisitResult reports the outcome of a record-visit call.
type RecordVisitResult struct {
	Recorded       bool
	Disabled       bool
	VisitID        string
	CrossingsFound int
}

// SuggestionContext narrows suggestion ranking to the caller's situation.
// VenueID drives the same-venue tier; Lat/Lng drive the nearby tier.
type SuggestionContext struct {
	VenueID      string
	Lat          *float64
	Lng          *float64
	DiningStyle  string
	DietaryTheme string
}

// SuggestionsResult is the ranked list plus its pre-limit total. Disabled is
// set when the caller has not opted in, in which case the list is empty.
type SuggestionsResult struct {
	Suggestions []domain.Suggestion
	TotalFound  int
	Disabled    bool
}

// Settings tunes detection windows and ranking radii.
type Settings struct {
	Lookback          time.Duration
	ProximityRadiusKm float64
	NearbyRadiusKm    float64
	SuggestionLimit   int
}

// DefaultSettings mirrors the production defaults.
func DefaultSettings() Settings {
	return Settings{
		Lookback:          14 * 24 * time.Hour,
		ProximityRadiusKm: 0.1,
		NearbyRadiusKm:    5.0,
		SuggestionLimit:   10,
	}
}
