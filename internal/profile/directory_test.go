package profile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aruiz/crossedpaths/backend/internal/domain"
	"github.com/aruiz/crossedpaths/backend/internal/graph"
)

func TestGraphDirectory_Snapshot(t *testing.T) {
	mem := graph.NewMemoryClient()
	mem.PushReadResult(graph.Result{Records: []graph.Record{
		{
			"userId":        "USR-001",
			"displayName":   "Amy Chen",
			"trackingOptIn": true,
			"diningStyle":   "casual",
			"dietaryTags":   []any{"vegan", "gluten_free"},
		},
	}})
	dir := NewGraphDirectory(mem)

	snap, err := dir.Snapshot(context.Background(), "USR-001")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if snap.UserID != "USR-001" || snap.DisplayName != "Amy Chen" {
		t.Errorf("unexpected snapshot %+v", snap)
	}
	if !snap.TrackingOptIn {
		t.Error("expected trackingOptIn true")
	}
	if len(snap.DietaryTags) != 2 || snap.DietaryTags[0] != "vegan" {
		t.Errorf("unexpected dietary tags %v", snap.DietaryTags)
	}

	calls := mem.ReadCalls()
	if len(calls) != 1 || calls[0].Query != memberSnapshotCypher {
		t.Fatalf("unexpected calls %+v", calls)
	}
}

func TestGraphDirectory_SnapshotNotFound(t *testing.T) {
	dir := NewGraphDirectory(graph.NewMemoryClient())

	_, err := dir.Snapshot(context.Background(), "USR-404")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGraphDirectory_UpsertMember(t *testing.T) {
	mem := graph.NewMemoryClient()
	dir := NewGraphDirectory(mem)

	member := domain.ProfileSnapshot{
		UserID:        "USR-001",
		DisplayName:   "Amy Chen",
		TrackingOptIn: true,
		DiningStyle:   "casual",
		DietaryTags:   []string{"vegan"},
	}
	updatedAt := time.Date(2026, time.March, 10, 19, 30, 0, 0, time.UTC)

	if err := dir.UpsertMember(context.Background(), member, updatedAt); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	calls := mem.WriteCalls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 write query, got %d", len(calls))
	}
	if calls[0].Query != upsertMemberCypher {
		t.Fatalf("unexpected query %s", calls[0].Query)
	}
	if calls[0].Params["displayName"] != "Amy Chen" {
		t.Errorf("unexpected displayName %v", calls[0].Params["displayName"])
	}
	if calls[0].Params["trackingOptIn"] != true {
		t.Errorf("unexpected trackingOptIn %v", calls[0].Params["trackingOptIn"])
	}
	if calls[0].Params["updatedAt"] != "2026-03-10T19:30:00Z" {
		t.Errorf("unexpected updatedAt %v", calls[0].Params["updatedAt"])
	}
}

func TestGraphDirectory_UpsertMemberRequiresID(t *testing.T) {
	dir := NewGraphDirectory(graph.NewMemoryClient())

	if err := dir.UpsertMember(context.Background(), domain.ProfileSnapshot{}, time.Now()); err == nil {
		t.Fatal("expected error for missing user id")
	}
}
