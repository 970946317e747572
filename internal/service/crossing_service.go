package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aruiz/crossedpaths/backend/internal/domain"
	"github.com/aruiz/crossedpaths/backend/internal/geo"
	"github.com/aruiz/crossedpaths/backend/internal/notify"
	"github.com/aruiz/crossedpaths/backend/internal/profile"
)

// aggregation retries on transient storage errors before giving up on a
// single candidate. The visit itself is never rolled back.
const maxAggregateAttempts = 3

// CrossingService records visits, detects spatio-temporal overlaps with other
// members' visits, and folds each overlap into the pair's crossing record.
type CrossingService struct {
	repo     CrossingRepository
	profiles profile.Directory
	notifier notify.Notifier
	settings Settings
	logger   *slog.Logger
	locks    *pairLocks

	nowFn func() time.Time
	idFn  func() string
}

// NewCrossingService wires the engine with its collaborators.
func NewCrossingService(repo CrossingRepository, profiles profile.Directory, notifier notify.Notifier, settings Settings, logger *slog.Logger) *CrossingService {
	if settings.SuggestionLimit <= 0 {
		settings.SuggestionLimit = DefaultSettings().SuggestionLimit
	}
	return &CrossingService{
		repo:     repo,
		profiles: profiles,
		notifier: notifier,
		settings: settings,
		logger:   logger,
		locks:    newPairLocks(),
		nowFn:    time.Now,
		idFn:     uuid.NewString,
	}
}

// RecordVisit persists the visit and runs crossing detection against it. When
// the caller has tracking disabled nothing is persisted and Disabled is set.
// Detection failures after the visit write are logged, never surfaced: the
// visit stays and a later re-detection pass can pick the crossings up.
func (s *CrossingService) RecordVisit(ctx context.Context, userID string, input VisitInput) (RecordVisitResult, error) {
	if userID == "" {
		return RecordVisitResult{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if err := validateCoordinates(input.Latitude, input.Longitude); err != nil {
		return RecordVisitResult{}, err
	}

	snap, err := s.profiles.Snapshot(ctx, userID)
	if err != nil && !errors.Is(err, profile.ErrNotFound) {
		return RecordVisitResult{}, fmt.Errorf("load profile for %s: %w", userID, err)
	}
	if err != nil || !snap.TrackingOptIn {
		return RecordVisitResult{Disabled: true}, nil
	}

	now := s.nowFn().UTC()
	visitedAt := now
	if input.VisitedAt != nil {
		visitedAt = input.VisitedAt.UTC()
	}

	visit := domain.Visit{
		ID:        s.idFn(),
		UserID:    userID,
		VenueID:   input.VenueID,
		VenueName: input.VenueName,
		Latitude:  input.Latitude,
		Longitude: input.Longitude,
		VisitedAt: visitedAt,
		CreatedAt: now,
	}

	if err := s.repo.CreateVisit(ctx, visit); err != nil {
		return RecordVisitResult{}, fmt.Errorf("create visit: %w", err)
	}

	found := s.detectAndRecord(ctx, visit, now)
	return RecordVisitResult{Recorded: true, VisitID: visit.ID, CrossingsFound: found}, nil
}

// SeedVisit persists a pre-built visit without running detection. Used by
// bulk ingestion, which re-detects in a second pass once all visits exist.
func (s *CrossingService) SeedVisit(ctx context.Context, visit domain.Visit) error {
	if visit.ID == "" {
		visit.ID = s.idFn()
	}
	if visit.UserID == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if err := validateCoordinates(visit.Latitude, visit.Longitude); err != nil {
		return err
	}
	if visit.CreatedAt.IsZero() {
		visit.CreatedAt = s.nowFn().UTC()
	}
	if visit.VisitedAt.IsZero() {
		visit.VisitedAt = visit.CreatedAt
	}
	return s.repo.CreateVisit(ctx, visit)
}

// RedetectVisit runs crossing detection for an already-persisted visit and
// returns how many crossing records changed. The owner's current opt-in is
// re-checked first: a visit whose owner has since opted out (or is unknown)
// is skipped, so no record can ever name them. Contribution edges make the
// pass idempotent: re-running it over the same visits changes nothing.
func (s *CrossingService) RedetectVisit(ctx context.Context, visit domain.Visit) (int, error) {
	if visit.ID == "" || visit.UserID == "" {
		return 0, fmt.Errorf("%w: visit id and user id are required", ErrInvalidInput)
	}
	snap, err := s.profiles.Snapshot(ctx, visit.UserID)
	if err != nil && !errors.Is(err, profile.ErrNotFound) {
		return 0, fmt.Errorf("load profile for %s: %w", visit.UserID, err)
	}
	if err != nil || !snap.TrackingOptIn {
		return 0, nil
	}
	return s.detectAndRecord(ctx, visit, s.nowFn().UTC()), nil
}

// GetSharedPaths returns the caller's shared-path projections. Opted-out
// callers get an empty list.
func (s *CrossingService) GetSharedPaths(ctx context.Context, userID string) ([]domain.PathProjection, error) {
	snap, err := s.profiles.Snapshot(ctx, userID)
	if err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load profile for %s: %w", userID, err)
	}
	if !snap.TrackingOptIn {
		return nil, nil
	}
	return s.repo.SharedPathsForUser(ctx, userID)
}

func (s *CrossingService) detectAndRecord(ctx context.Context, visit domain.Visit, now time.Time) int {
	candidates, err := s.detect(ctx, visit, now)
	if err != nil {
		s.logger.Error("crossing detection failed, visit kept",
			"visitId", visit.ID, "userId", visit.UserID, "error", err)
		return 0
	}

	found := 0
	for _, match := range candidates {
		changed, err := s.recordCrossing(ctx, visit, match, now)
		if err != nil {
			s.logger.Error("crossing aggregation failed, visit kept",
				"visitId", visit.ID, "userId", visit.UserID,
				"otherUserId", match.OtherUserID, "error", err)
			continue
		}
		if changed {
			found++
		}
	}
	return found
}

// detect finds the other users whose recent visits overlap this one: same
// venue, or within the proximity radius of the visit's coordinates. Each
// other user yields at most one candidate per call, venue matches winning
// over proximity matches.
func (s *CrossingService) detect(ctx context.Context, visit domain.Visit, now time.Time) ([]domain.CandidateMatch, error) {
	windowStart := now.Add(-s.settings.Lookback)

	byUser := make(map[string]domain.CandidateMatch)
	order := make([]string, 0, 8)

	if visit.HasVenue() {
		venueVisits, err := s.repo.VisitsAtVenueSince(ctx, visit.VenueID, visit.UserID, windowStart)
		if err != nil {
			return nil, fmt.Errorf("venue candidates: %w", err)
		}
		for _, other := range venueVisits {
			if _, seen := byUser[other.UserID]; seen {
				continue
			}
			byUser[other.UserID] = domain.CandidateMatch{
				OtherUserID: other.UserID,
				VenueID:     visit.VenueID,
				VenueName:   visit.VenueName,
				Lat:         visit.Latitude,
				Lng:         visit.Longitude,
			}
			order = append(order, other.UserID)
		}
	}

	box := geo.BoundingBox(visit.Latitude, visit.Longitude, s.settings.ProximityRadiusKm)
	nearVisits, err := s.repo.VisitsNearSince(ctx, box, visit.UserID, windowStart)
	if err != nil {
		return nil, fmt.Errorf("proximity candidates: %w", err)
	}
	for _, other := range nearVisits {
		if _, seen := byUser[other.UserID]; seen {
			continue
		}
		// Bounding boxes over-approximate; confirm with the exact distance.
		dist := geo.DistanceKm(visit.Latitude, visit.Longitude, other.Latitude, other.Longitude)
		if dist > s.settings.ProximityRadiusKm {
			continue
		}
		byUser[other.UserID] = domain.CandidateMatch{
			OtherUserID: other.UserID,
			VenueID:     visit.VenueID,
			VenueName:   visit.VenueName,
			Lat:         visit.Latitude,
			Lng:         visit.Longitude,
		}
		order = append(order, other.UserID)
	}

	matches := make([]domain.CandidateMatch, 0, len(order))
	for _, userID := range order {
		matches = append(matches, byUser[userID])
	}
	return matches, nil
}

// recordCrossing folds one candidate into the pair's crossing record. The
// lookup-then-write sequence runs under a per-pair lock so two concurrent
// detections for the same pair cannot both create a record. Returns whether
// the count actually changed: a visit already counted into the record does
// not change it when detection runs over it again.
func (s *CrossingService) recordCrossing(ctx context.Context, visit domain.Visit, match domain.CandidateMatch, now time.Time) (bool, error) {
	userA, userB := domain.CanonicalPair(visit.UserID, match.OtherUserID)
	venueKey := domain.VenueKeyFor(match.VenueID, match.Lat, match.Lng)
	windowStart := now.Add(-s.settings.Lookback)

	release := s.locks.acquire(userA + "|" + userB + "|" + venueKey)
	defer release()

	var lastErr error
	for attempt := 1; attempt <= maxAggregateAttempts; attempt++ {
		existing, err := s.repo.FindOpenCrossing(ctx, userA, userB, venueKey, windowStart)
		if err != nil {
			lastErr = err
			continue
		}

		if existing != nil {
			updated, err := s.repo.IncrementCrossing(ctx, existing.ID, visit.ID, match.OtherUserID, now)
			if err != nil {
				lastErr = err
				continue
			}
			changed := updated.CrossCount > existing.CrossCount
			if changed {
				s.notifier.CrossingChanged(ctx, updated)
			}
			return changed, nil
		}

		record := domain.CrossingRecord{
			ID:             s.idFn(),
			UserAID:        userA,
			UserBID:        userB,
			VenueID:        match.VenueID,
			VenueKey:       venueKey,
			VenueName:      match.VenueName,
			LocationLat:    match.Lat,
			LocationLng:    match.Lng,
			CrossCount:     1,
			FirstCrossedAt: now,
			LastCrossedAt:  now,
		}
		if err := s.repo.CreateCrossing(ctx, record, visit.ID, match.OtherUserID); err != nil {
			lastErr = err
			continue
		}
		s.notifier.CrossingChanged(ctx, record)
		return true, nil
	}
	return false, fmt.Errorf("aggregate crossing for (%s, %s) at %s: %w", userA, userB, venueKey, lastErr)
}

func validateCoordinates(lat, lng float64) error {
	if lat < -90 || lat > 90 {
		return fmt.Errorf("%w: latitude %f out of range", ErrInvalidInput, lat)
	}
	if lng < -180 || lng > 180 {
		return fmt.Errorf("%w: longitude %f out of range", ErrInvalidInput, lng)
	}
	return nil
}
