package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aruiz/crossedpaths/backend/internal/domain"
	"github.com/aruiz/crossedpaths/backend/internal/graph"
)

// FindOpenCrossing returns the crossing record for the canonical pair and
// venue key whose window is still open (lastCrossedAt inside the lookback),
// or nil when none is open. At most one record can be open per key; if stale
// data ever violates that, the most recently touched record wins.
func (r *Repository) FindOpenCrossing(ctx context.Context, userAID, userBID, venueKey string, windowStart time.Time) (*domain.CrossingRecord, error) {
	if userAID == "" || userBID == "" {
		return nil, errors.New("both user ids are required")
	}
	if userAID >= userBID {
		return nil, fmt.Errorf("pair not canonical: %s >= %s", userAID, userBID)
	}

	res, err := r.client.ExecuteRead(ctx, openCrossingCypher, map[string]any{
		"userAId":     userAID,
		"userBId":     userBID,
		"venueKey":    venueKey,
		"windowStart": formatTime(windowStart),
	})
	if err != nil {
		return nil, fmt.Errorf("open crossing query: %w", err)
	}
	if len(res.Records) == 0 {
		return nil, nil
	}

	record := crossingFromRecord(res.Records[0])
	return &record, nil
}

// IncrementCrossing counts a new overlap into an open crossing record. The
// contribution edge is keyed by the triggering visit, so each processed
// visit moves the count at most once and replaying detection over an
// already-counted visit is a no-op.
func (r *Repository) IncrementCrossing(ctx context.Context, recordID, visitID, otherUserID string, now time.Time) (domain.CrossingRecord, error) {
	if recordID == "" {
		return domain.CrossingRecord{}, errors.New("record id is required")
	}
	if visitID == "" {
		return domain.CrossingRecord{}, errors.New("visit id is required")
	}

	res, err := r.client.ExecuteWrite(ctx, incrementCrossingCypher, map[string]any{
		"recordId":    recordID,
		"visitId":     visitID,
		"otherUserId": otherUserID,
		"now":         formatTime(now),
	})
	if err != nil {
		return domain.CrossingRecord{}, fmt.Errorf("increment crossing %s: %w", recordID, err)
	}
	if len(res.Records) == 0 {
		return domain.CrossingRecord{}, fmt.Errorf("crossing %s not found", recordID)
	}
	return crossingFromRecord(res.Records[0]), nil
}

// CreateCrossing inserts a fresh crossing record with count 1 and ensures
// the pair's shared-path projection exists. The projection MERGE is keyed by
// the canonical pair alone, so it is created exactly once per pair and left
// untouched on every later crossing at any venue. otherUserID is the
// counterpart of the visit's owner on this record.
func (r *Repository) CreateCrossing(ctx context.Context, record domain.CrossingRecord, visitID, otherUserID string) error {
	if record.ID == "" {
		return errors.New("record id is required")
	}
	if visitID == "" {
		return errors.New("visit id is required")
	}
	if record.UserAID == "" || record.UserBID == "" {
		return errors.New("both user ids are required")
	}
	if record.UserAID >= record.UserBID {
		return fmt.Errorf("pair not canonical: %s >= %s", record.UserAID, record.UserBID)
	}

	params := map[string]any{
		"recordId":    record.ID,
		"userAId":     record.UserAID,
		"userBId":     record.UserBID,
		"venueId":     record.VenueID,
		"venueKey":    record.VenueKey,
		"venueName":   record.VenueName,
		"locationLat": record.LocationLat,
		"locationLng": record.LocationLng,
		"visitId":     visitID,
		"otherUserId": otherUserID,
		"now":         formatTime(record.LastCrossedAt),
	}

	_, err := r.client.ExecuteWrite(ctx, createCrossingCypher, params)
	if err != nil {
		return fmt.Errorf("create crossing %s: %w", record.ID, err)
	}
	return nil
}

// CrossingsForUserAtVenue returns the user's crossing records at one venue,
// highest count first.
func (r *Repository) CrossingsForUserAtVenue(ctx context.Context, userID, venueID string) ([]domain.CrossingRecord, error) {
	if userID == "" {
		return nil, errors.New("user id is required")
	}
	if venueID == "" {
		return nil, errors.New("venue id is required")
	}

	res, err := r.client.ExecuteRead(ctx, userVenueCrossingsCypher, map[string]any{
		"userId":  userID,
		"venueId": venueID,
	})
	if err != nil {
		return nil, fmt.Errorf("venue crossings query: %w", err)
	}
	return crossingsFromRecords(res.Records), nil
}

// CrossingsForUser returns all of the user's crossing records across venues,
// highest count first.
func (r *Repository) CrossingsForUser(ctx context.Context, userID string) ([]domain.CrossingRecord, error) {
	if userID == "" {
		return nil, errors.New("user id is required")
	}

	res, err := r.client.ExecuteRead(ctx, userCrossingsCypher, map[string]any{
		"userId": userID,
	})
	if err != nil {
		return nil, fmt.Errorf("user crossings query: %w", err)
	}
	return crossingsFromRecords(res.Records), nil
}

// SharedPathsForUser returns the UI projection rows naming the user.
func (r *Repository) SharedPathsForUser(ctx context.Context, userID string) ([]domain.PathProjection, error) {
	if userID == "" {
		return nil, errors.New("user id is required")
	}

	res, err := r.client.ExecuteRead(ctx, sharedPathsCypher, map[string]any{
		"userId": userID,
	})
	if err != nil {
		return nil, fmt.Errorf("shared paths query: %w", err)
	}

	var paths []domain.PathProjection
	for _, record := range res.Records {
		paths = append(paths, domain.PathProjection{
			User1ID:   toString(record["user1Id"]),
			User2ID:   toString(record["user2Id"]),
			VenueName: toString(record["venueName"]),
			Lat:       toFloat64(record["locationLat"]),
			Lng:       toFloat64(record["locationLng"]),
			IsActive:  toBool(record["isActive"]),
			CreatedAt: toTime(record["createdAt"]),
		})
	}
	return paths, nil
}

func crossingFromRecord(record graph.Record) domain.CrossingRecord {
	return domain.CrossingRecord{
		ID:             toString(record["recordId"]),
		UserAID:        toString(record["userAId"]),
		UserBID:        toString(record["userBId"]),
		VenueID:        toString(record["venueId"]),
		VenueKey:       toString(record["venueKey"]),
		VenueName:      toString(record["venueName"]),
		LocationLat:    toFloat64(record["locationLat"]),
		LocationLng:    toFloat64(record["locationLng"]),
		CrossCount:     toInt64(record["crossCount"]),
		FirstCrossedAt: toTime(record["firstCrossedAt"]),
		LastCrossedAt:  toTime(record["lastCrossedAt"]),
	}
}

func crossingsFromRecords(records []graph.Record) []domain.CrossingRecord {
	var crossings []domain.CrossingRecord
	for _, record := range records {
		crossings = append(crossings, crossingFromRecord(record))
	}
	return crossings
}

const crossingReturnClause = `
RETURN c.recordId AS recordId,
       c.userAId AS userAId,
       c.userBId AS userBId,
       c.venueId AS venueId,
       c.venueKey AS venueKey,
       c.venueName AS venueName,
       c.locationLat AS locationLat,
       c.locationLng AS locationLng,
       c.crossCount AS crossCount,
       c.firstCrossedAt AS firstCrossedAt,
       c.lastCrossedAt AS lastCrossedAt
`

const openCrossingCypher = `
MATCH (c:Crossing {userAId: $userAId, userBId: $userBId, venueKey: $venueKey})
WHERE datetime(c.lastCrossedAt) >= datetime($windowStart)
` + crossingReturnClause + `
ORDER BY datetime(c.lastCrossedAt) DESC
LIMIT 1
`

const incrementCrossingCypher = `
MATCH (c:Crossing {recordId: $recordId})
MATCH (vis:Visit {visitId: $visitId})
MERGE (vis)-[ct:COUNTED_IN]->(c)
ON CREATE SET c.crossCount = c.crossCount + 1,
              c.lastCrossedAt = $now,
              ct.otherUserId = $otherUserId,
              ct.recordedAt = $now
` + crossingReturnClause

const createCrossingCypher = `
MATCH (vis:Visit {visitId: $visitId})
CREATE (c:Crossing {
	recordId: $recordId,
	userAId: $userAId,
	userBId: $userBId,
	venueId: $venueId,
	venueKey: $venueKey,
	venueName: $venueName,
	locationLat: $locationLat,
	locationLng: $locationLng,
	crossCount: 1,
	firstCrossedAt: $now,
	lastCrossedAt: $now
})
CREATE (vis)-[:COUNTED_IN {otherUserId: $otherUserId, recordedAt: $now}]->(c)
MERGE (p:SharedPath {user1Id: $userAId, user2Id: $userBId})
ON CREATE SET p.venueName = $venueName,
              p.locationLat = $locationLat,
              p.locationLng = $locationLng,
              p.isActive = true,
              p.createdAt = $now
RETURN c.recordId AS recordId
`

const userVenueCrossingsCypher = `
MATCH (c:Crossing)
WHERE c.venueId = $venueId
  AND (c.userAId = $userId OR c.userBId = $userId)
` + crossingReturnClause + `
ORDER BY c.crossCount DESC, datetime(c.lastCrossedAt) DESC
`

const userCrossingsCypher = `
MATCH (c:Crossing)
WHERE c.userAId = $userId OR c.userBId = $userId
` + crossingReturnClause + `
ORDER BY c.crossCount DESC, datetime(c.lastCrossedAt) DESC
`

const sharedPathsCypher = `
MATCH (p:SharedPath)
WHERE p.user1Id = $userId OR p.user2Id = $userId
RETURN p.user1Id AS user1Id,
       p.user2Id AS user2Id,
       p.venueName AS venueName,
       p.locationLat AS locationLat,
       p.locationLng AS locationLng,
       p.isActive AS isActive,
       p.createdAt AS createdAt
ORDER BY datetime(p.createdAt) DESC
`
