package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aruiz/crossedpaths/backend/internal/domain"
	"github.com/aruiz/crossedpaths/backend/internal/geo"
	"github.com/aruiz/crossedpaths/backend/internal/graph"
)

// CreateVisit appends a visit to the store. Visits are immutable: this is a
// CREATE, never a MERGE, so repeated ingestion of the same payload yields
// distinct visit ids upstream rather than silent overwrites here.
func (r *Repository) CreateVisit(ctx context.Context, visit domain.Visit) error {
	if visit.ID == "" {
		return errors.New("visit id is required")
	}
	if visit.UserID == "" {
		return errors.New("user id is required")
	}

	params := map[string]any{
		"visitId":   visit.ID,
		"userId":    visit.UserID,
		"venueId":   visit.VenueID,
		"venueName": visit.VenueName,
		"latitude":  visit.Latitude,
		"longitude": visit.Longitude,
		"visitedAt": formatTime(visit.VisitedAt),
		"createdAt": formatTime(visit.CreatedAt),
	}

	_, err := r.client.ExecuteWrite(ctx, createVisitCypher, params)
	if err != nil {
		return fmt.Errorf("create visit %s: %w", visit.ID, err)
	}
	return nil
}

// VisitsAtVenueSince returns visits to the given venue by other members who
// are currently opted in, with visitedAt inside the lookback window. Opt-in
// is evaluated at query time against the member node, so a member who opted
// out after visiting never surfaces.
func (r *Repository) VisitsAtVenueSince(ctx context.Context, venueID, excludeUserID string, since time.Time) ([]domain.Visit, error) {
	if venueID == "" {
		return nil, errors.New("venue id is required")
	}

	res, err := r.client.ExecuteRead(ctx, venueVisitsCypher, map[string]any{
		"venueId":       venueID,
		"excludeUserId": excludeUserID,
		"since":         formatTime(since),
	})
	if err != nil {
		return nil, fmt.Errorf("venue visits query: %w", err)
	}
	return visitsFromRecords(res.Records), nil
}

// VisitsNearSince returns recent visits by other opted-in members whose
// coordinates fall inside the bounding box. The box over-approximates the
// search radius; the caller applies the exact distance filter.
func (r *Repository) VisitsNearSince(ctx context.Context, box geo.Box, excludeUserID string, since time.Time) ([]domain.Visit, error) {
	res, err := r.client.ExecuteRead(ctx, nearbyVisitsCypher, map[string]any{
		"excludeUserId": excludeUserID,
		"since":         formatTime(since),
		"minLat":        box.MinLat,
		"maxLat":        box.MaxLat,
		"minLng":        box.MinLng,
		"maxLng":        box.MaxLng,
	})
	if err != nil {
		return nil, fmt.Errorf("nearby visits query: %w", err)
	}
	return visitsFromRecords(res.Records), nil
}

func visitsFromRecords(records []graph.Record) []domain.Visit {
	var visits []domain.Visit
	for _, record := range records {
		visits = append(visits, domain.Visit{
			ID:        toString(record["visitId"]),
			UserID:    toString(record["userId"]),
			VenueID:   toString(record["venueId"]),
			VenueName: toString(record["venueName"]),
			Latitude:  toFloat64(record["latitude"]),
			Longitude: toFloat64(record["longitude"]),
			VisitedAt: toTime(record["visitedAt"]),
			CreatedAt: toTime(record["createdAt"]),
		})
	}
	return visits
}

const createVisitCypher = `
MERGE (m:Member {userId: $userId})
CREATE (vis:Visit {
	visitId: $visitId,
	userId: $userId,
	venueId: $venueId,
	venueName: $venueName,
	latitude: $latitude,
	longitude: $longitude,
	visitedAt: $visitedAt,
	createdAt: $createdAt
})
CREATE (m)-[:VISITED]->(vis)
FOREACH (_ IN CASE WHEN $venueId = "" THEN [] ELSE [1] END |
	MERGE (ven:Venue {venueId: $venueId})
	SET ven.name = $venueName
	MERGE (vis)-[:AT]->(ven)
)
RETURN vis.visitId AS visitId
`

const venueVisitsCypher = `
MATCH (other:Member)-[:VISITED]->(vis:Visit)
WHERE vis.venueId = $venueId
  AND vis.userId <> $excludeUserId
  AND other.trackingOptIn = true
  AND datetime(vis.visitedAt) >= datetime($since)
RETURN vis.visitId AS visitId,
       vis.userId AS userId,
       vis.venueId AS venueId,
       vis.venueName AS venueName,
       vis.latitude AS latitude,
       vis.longitude AS longitude,
       vis.visitedAt AS visitedAt,
       vis.createdAt AS createdAt
ORDER BY datetime(vis.visitedAt) DESC
`

const nearbyVisitsCypher = `
MATCH (other:Member)-[:VISITED]->(vis:Visit)
WHERE vis.userId <> $excludeUserId
  AND other.trackingOptIn = true
  AND datetime(vis.visitedAt) >= datetime($since)
  AND vis.latitude >= $minLat AND vis.latitude <= $maxLat
  AND vis.longitude >= $minLng AND vis.longitude <= $maxLng
RETURN vis.visitId AS visitId,
       vis.userId AS userId,
       vis.venueId AS venueId,
       vis.venueName AS venueName,
       vis.latitude AS latitude,
       vis.longitude AS longitude,
       vis.visitedAt AS visitedAt,
       vis.createdAt AS createdAt
ORDER BY datetime(vis.visitedAt) DESC
`
