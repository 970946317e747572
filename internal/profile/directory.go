// Package profile exposes the member directory the engine consults for
// privacy and compatibility data. The directory is a collaborator: the
// engine never caches its answers, because tracking opt-in can change
// between any two reads.
package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aruiz/crossedpaths/backend/internal/domain"
	"github.com/aruiz/crossedpaths/backend/internal/graph"
)

// ErrNotFound indicates the member does not exist in the directory.
var ErrNotFound = errors.New("member not found")

// Directory answers point lookups of member profiles.
type Directory interface {
	Snapshot(ctx context.Context, userID string) (domain.ProfileSnapshot, error)
}

// GraphDirectory reads member profiles from the graph store.
type GraphDirectory struct {
	client graph.Client
}

// NewGraphDirectory constructs a GraphDirectory over the supplied client.
func NewGraphDirectory(client graph.Client) *GraphDirectory {
	return &GraphDirectory{client: client}
}

// Snapshot returns the current profile for the member, or ErrNotFound.
func (d *GraphDirectory) Snapshot(ctx context.Context, userID string) (domain.ProfileSnapshot, error) {
	if userID == "" {
		return domain.ProfileSnapshot{}, errors.New("user id is required")
	}

	res, err := d.client.ExecuteRead(ctx, memberSnapshotCypher, map[string]any{
		"userId": userID,
	})
	if err != nil {
		return domain.ProfileSnapshot{}, fmt.Errorf("member snapshot query: %w", err)
	}
	if len(res.Records) == 0 {
		return domain.ProfileSnapshot{}, fmt.Errorf("member %s: %w", userID, ErrNotFound)
	}

	record := res.Records[0]
	snapshot := domain.ProfileSnapshot{
		UserID:      toString(record["userId"]),
		DisplayName: toString(record["displayName"]),
		DiningStyle: toString(record["diningStyle"]),
	}
	if optIn, ok := record["trackingOptIn"].(bool); ok {
		snapshot.TrackingOptIn = optIn
	}
	if tags, ok := record["dietaryTags"].([]any); ok {
		for _, tag := range tags {
			if s := toString(tag); s != "" {
				snapshot.DietaryTags = append(snapshot.DietaryTags, s)
			}
		}
	}
	return snapshot, nil
}

// UpsertMember writes a member profile. Production traffic arrives through
// the external profile service; this path exists for ingestion and local
// development seeding.
func (d *GraphDirectory) UpsertMember(ctx context.Context, member domain.ProfileSnapshot, updatedAt time.Time) error {
	if member.UserID == "" {
		return errors.New("user id is required")
	}

	tags := make([]string, 0, len(member.DietaryTags))
	tags = append(tags, member.DietaryTags...)

	_, err := d.client.ExecuteWrite(ctx, upsertMemberCypher, map[string]any{
		"userId":        member.UserID,
		"displayName":   member.DisplayName,
		"trackingOptIn": member.TrackingOptIn,
		"diningStyle":   member.DiningStyle,
		"dietaryTags":   tags,
		"updatedAt":     updatedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("upsert member %s: %w", member.UserID, err)
	}
	return nil
}

func toString(val any) string {
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}

const memberSnapshotCypher = `
MATCH (m:Member {userId: $userId})
RETURN m.userId AS userId,
       m.displayName AS displayName,
       m.trackingOptIn AS trackingOptIn,
       m.diningStyle AS diningStyle,
       m.dietaryTags AS dietaryTags
`

const upsertMemberCypher = `
MERGE (m:Member {userId: $userId})
SET m.displayName = $displayName,
    m.trackingOptIn = $trackingOptIn,
    m.diningStyle = $diningStyle,
    m.dietaryTags = $dietaryTags,
    m.updatedAt = $updatedAt
RETURN m.userId AS userId
`
