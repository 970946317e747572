package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aruiz/crossedpaths/backend/internal/domain"
)

func TestBulkDetectorSeedsAndDetects(t *testing.T) {
	repo := newStubRepository()
	dir := newStubDirectory(optedIn("u1"), optedIn("u2"), optedIn("u3"))
	svc := newTestService(repo, dir, &spyNotifier{})
	svc.nowFn = fixedClock(testNow)

	visits := []domain.Visit{
		{ID: "v1", UserID: "u1", VenueID: "venue-1", Latitude: 40.0, Longitude: -3.0, VisitedAt: testNow.Add(-time.Hour)},
		{ID: "v2", UserID: "u2", VenueID: "venue-1", Latitude: 40.0, Longitude: -3.0, VisitedAt: testNow.Add(-2 * time.Hour)},
		{ID: "v3", UserID: "u3", VenueID: "venue-2", Latitude: 41.0, Longitude: -3.0, VisitedAt: testNow.Add(-3 * time.Hour)},
	}

	detector := NewBulkDetector(svc, 3)
	require.NoError(t, detector.SeedVisits(context.Background(), visits))
	require.Len(t, repo.visits, 3)

	// v1 and v2 overlap at venue-1 and each contributes once.
	changed, err := detector.DetectAll(context.Background(), visits)
	require.NoError(t, err)
	assert.Equal(t, 2, changed)

	crossings := repo.allCrossings()
	require.Len(t, crossings, 1)
	assert.Equal(t, "u1", crossings[0].UserAID)
	assert.Equal(t, "u2", crossings[0].UserBID)
	assert.Equal(t, int64(2), crossings[0].CrossCount)

	// A second pass over the same visits is a no-op.
	changed, err = detector.DetectAll(context.Background(), visits)
	require.NoError(t, err)
	assert.Equal(t, 0, changed)
}

func TestBulkDetectorSkipsOptedOutMembers(t *testing.T) {
	repo := newStubRepository()
	dir := newStubDirectory(optedIn("u1"), optedIn("u2"))
	dir.setOptIn("u2", false)
	repo.markOptedOut("u2")
	svc := newTestService(repo, dir, &spyNotifier{})
	svc.nowFn = fixedClock(testNow)

	visits := []domain.Visit{
		{ID: "v1", UserID: "u1", VenueID: "venue-1", Latitude: 40.0, Longitude: -3.0, VisitedAt: testNow.Add(-time.Hour)},
		{ID: "v2", UserID: "u2", VenueID: "venue-1", Latitude: 40.0, Longitude: -3.0, VisitedAt: testNow.Add(-2 * time.Hour)},
	}

	detector := NewBulkDetector(svc, 2)
	require.NoError(t, detector.SeedVisits(context.Background(), visits))
	require.Len(t, repo.visits, 2)

	// u2 opted out after visiting: u1's detection must not see the visit and
	// u2's own detection pass is skipped outright.
	changed, err := detector.DetectAll(context.Background(), visits)
	require.NoError(t, err)
	assert.Equal(t, 0, changed)
	assert.Empty(t, repo.allCrossings())
}

func TestBulkDetectorAggregatesErrors(t *testing.T) {
	svc := newTestService(newStubRepository(), newStubDirectory(), &spyNotifier{})
	detector := NewBulkDetector(svc, 2)

	visits := []domain.Visit{
		{ID: "", UserID: "u1"},
		{ID: "v2", UserID: ""},
	}
	_, err := detector.DetectAll(context.Background(), visits)
	require.Error(t, err)

	var taskErr *TaskError
	require.ErrorAs(t, err, &taskErr)
	assert.Len(t, taskErr.Errors, 2)
}

func TestTaskErrorMessages(t *testing.T) {
	var e TaskError
	assert.Equal(t, "no errors", e.Error())

	e.append(fmt.Errorf("first"))
	assert.Equal(t, "first", e.Error())

	e.append(fmt.Errorf("second"))
	assert.Contains(t, e.Error(), "first")
	assert.Contains(t, e.Error(), "second")
}
