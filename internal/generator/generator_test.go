package generator

import (
	"context"
	"testing"
	"time"
)

func TestGenerateIsDeterministicForSeed(t *testing.T) {
	cfg := Config{NumMembers: 50, NumVenues: 5, NumVisits: 200, Seed: 7}

	first, err := New(cfg).Generate(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	second, err := New(cfg).Generate(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(first.Members) != 50 || len(first.Visits) != 200 {
		t.Fatalf("unexpected dataset size: %d members, %d visits", len(first.Members), len(first.Visits))
	}
	for i := range first.Members {
		if first.Members[i].UserID != second.Members[i].UserID ||
			first.Members[i].DisplayName != second.Members[i].DisplayName {
			t.Fatalf("member %d differs between runs", i)
		}
	}
	for i := range first.Visits {
		if first.Visits[i].VenueID != second.Visits[i].VenueID ||
			first.Visits[i].Latitude != second.Visits[i].Latitude {
			t.Fatalf("visit %d differs between runs", i)
		}
	}
}

func TestGenerateVisitShapes(t *testing.T) {
	dataset, err := New(Config{NumMembers: 20, NumVenues: 3, NumVisits: 100, Seed: 1}).Generate(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	memberIDs := make(map[string]bool, len(dataset.Members))
	for _, m := range dataset.Members {
		memberIDs[m.UserID] = true
	}

	venuePinned := 0
	for _, v := range dataset.Visits {
		if !memberIDs[v.UserID] {
			t.Fatalf("visit %s references unknown member %s", v.VisitID, v.UserID)
		}
		if (v.VenueID == "") != (v.VenueName == "") {
			t.Fatalf("visit %s has inconsistent venue fields", v.VisitID)
		}
		if v.VenueID != "" {
			venuePinned++
		}
		if _, err := time.Parse(time.RFC3339, v.VisitedAt); err != nil {
			t.Fatalf("visit %s has unparseable visitedAt %q", v.VisitID, v.VisitedAt)
		}
	}
	if venuePinned == 0 {
		t.Fatal("expected at least some visits pinned to venues")
	}
}

func TestGenerateRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := New(Config{NumMembers: 10, NumVisits: 10, Seed: 1}).Generate(ctx); err == nil {
		t.Fatal("expected context error")
	}
}

func TestVisitRecordToVisit(t *testing.T) {
	record := VisitRecord{
		VisitID:   "VIS-0000001",
		UserID:    "USR-000001",
		VenueID:   "VEN-0001",
		VenueName: "Trattoria Aurora",
		Latitude:  40.4,
		Longitude: -3.7,
		VisitedAt: "2026-03-10T19:30:00Z",
	}

	visit, err := record.ToVisit()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if visit.ID != record.VisitID || visit.VenueID != record.VenueID {
		t.Errorf("unexpected visit %+v", visit)
	}
	if !visit.VisitedAt.Equal(time.Date(2026, time.March, 10, 19, 30, 0, 0, time.UTC)) {
		t.Errorf("unexpected visitedAt %v", visit.VisitedAt)
	}

	record.VisitedAt = "not-a-time"
	if _, err := record.ToVisit(); err == nil {
		t.Fatal("expected error for invalid timestamp")
	}
}
