package domain

import "time"

// Suggestion classification. SameRestaurant outranks NearbyCompatible when a
// candidate qualifies under both rules.
const (
	SuggestionSameRestaurant   = "same_restaurant"
	SuggestionNearbyCompatible = "nearby_compatible"
)

// Suggestion is one ranked match candidate returned to a user.
type Suggestion struct {
	UserID        string
	CrossCount    int64
	VenueName     string
	LastCrossedAt time.Time
	Type          string
	Compatibility int
	Profile       ProfileSnapshot
}
