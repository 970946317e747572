package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/aruiz/crossedpaths/backend/internal/domain"
	"github.com/aruiz/crossedpaths/backend/internal/geo"
	"github.com/aruiz/crossedpaths/backend/internal/profile"
)

// Compatibility weights for the nearby tier. A matching dining style counts
// double a matching dietary theme; candidates scoring zero are dropped.
const (
	diningStyleWeight  = 2
	dietaryThemeWeight = 1
)

// GetSuggestions ranks the caller's crossing partners as match suggestions.
// Same-venue crossings (when a venue is given) come first ordered by count.
// When those leave room under the limit, nearby crossings with profile
// compatibility follow, also ordered by count. A partner appearing in both
// tiers is listed once, under the same-venue tier. Profiles are re-read on
// every call so opted-out partners disappear immediately.
func (s *CrossingService) GetSuggestions(ctx context.Context, userID string, sctx SuggestionContext, limit int) (SuggestionsResult, error) {
	if userID == "" {
		return SuggestionsResult{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if limit <= 0 {
		limit = s.settings.SuggestionLimit
	}

	caller, err := s.profiles.Snapshot(ctx, userID)
	if err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			return SuggestionsResult{Disabled: true}, nil
		}
		return SuggestionsResult{}, fmt.Errorf("load profile for %s: %w", userID, err)
	}
	if !caller.TrackingOptIn {
		return SuggestionsResult{Disabled: true}, nil
	}

	snapshots := make(map[string]*domain.ProfileSnapshot)
	lookup := func(otherID string) (*domain.ProfileSnapshot, error) {
		if snap, ok := snapshots[otherID]; ok {
			return snap, nil
		}
		snap, err := s.profiles.Snapshot(ctx, otherID)
		if err != nil {
			if errors.Is(err, profile.ErrNotFound) {
				snapshots[otherID] = nil
				return nil, nil
			}
			return nil, err
		}
		snapshots[otherID] = &snap
		return &snap, nil
	}

	var ranked []domain.Suggestion
	seen := make(map[string]bool)

	if sctx.VenueID != "" {
		records, err := s.repo.CrossingsForUserAtVenue(ctx, userID, sctx.VenueID)
		if err != nil {
			return SuggestionsResult{}, fmt.Errorf("venue crossings: %w", err)
		}
		var tier []domain.Suggestion
		for _, rec := range records {
			otherID := rec.OtherUser(userID)
			if seen[otherID] {
				continue
			}
			snap, err := lookup(otherID)
			if err != nil {
				return SuggestionsResult{}, fmt.Errorf("load profile for %s: %w", otherID, err)
			}
			if snap == nil || !snap.TrackingOptIn {
				continue
			}
			seen[otherID] = true
			tier = append(tier, domain.Suggestion{
				UserID:        otherID,
				CrossCount:    rec.CrossCount,
				VenueName:     rec.VenueName,
				LastCrossedAt: rec.LastCrossedAt,
				Type:          domain.SuggestionSameRestaurant,
				Profile:       *snap,
			})
		}
		sort.SliceStable(tier, func(i, j int) bool {
			return tier[i].CrossCount > tier[j].CrossCount
		})
		ranked = append(ranked, tier...)
	}

	if sctx.Lat != nil && sctx.Lng != nil && len(ranked) < limit {
		records, err := s.repo.CrossingsForUser(ctx, userID)
		if err != nil {
			return SuggestionsResult{}, fmt.Errorf("user crossings: %w", err)
		}
		var tier []domain.Suggestion
		for _, rec := range records {
			otherID := rec.OtherUser(userID)
			if seen[otherID] {
				continue
			}
			if geo.DistanceKm(*sctx.Lat, *sctx.Lng, rec.LocationLat, rec.LocationLng) > s.settings.NearbyRadiusKm {
				continue
			}
			snap, err := lookup(otherID)
			if err != nil {
				return SuggestionsResult{}, fmt.Errorf("load profile for %s: %w", otherID, err)
			}
			if snap == nil || !snap.TrackingOptIn {
				continue
			}
			score := compatibility(sctx, *snap)
			if score == 0 {
				continue
			}
			seen[otherID] = true
			tier = append(tier, domain.Suggestion{
				UserID:        otherID,
				CrossCount:    rec.CrossCount,
				VenueName:     rec.VenueName,
				LastCrossedAt: rec.LastCrossedAt,
				Type:          domain.SuggestionNearbyCompatible,
				Compatibility: score,
				Profile:       *snap,
			})
		}
		sort.SliceStable(tier, func(i, j int) bool {
			if tier[i].CrossCount != tier[j].CrossCount {
				return tier[i].CrossCount > tier[j].CrossCount
			}
			return tier[i].Compatibility > tier[j].Compatibility
		})
		ranked = append(ranked, tier...)
	}

	total := len(ranked)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return SuggestionsResult{Suggestions: ranked, TotalFound: total}, nil
}

func compatibility(sctx SuggestionContext, other domain.ProfileSnapshot) int {
	score := 0
	if sctx.DiningStyle != "" && other.DiningStyle == sctx.DiningStyle {
		score += diningStyleWeight
	}
	if sctx.DietaryTheme != "" && other.HasDietaryTag(sctx.DietaryTheme) {
		score += dietaryThemeWeight
	}
	return score
}
