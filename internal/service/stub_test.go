package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aruiz/crossedpaths/backend/internal/domain"
	"github.com/aruiz/crossedpaths/backend/internal/geo"
	"github.com/aruiz/crossedpaths/backend/internal/profile"
)

// stubRepository is an in-memory CrossingRepository. It mirrors the storage
// semantics the Cypher layer provides: contribution-edge idempotence on
// increments and one path projection per pair. Safe for concurrent use.
type stubRepository struct {
	mu            sync.Mutex
	visits        []domain.Visit
	crossings     map[string]*domain.CrossingRecord
	contributions map[string]bool
	paths         []domain.PathProjection
	optedOut      map[string]bool

	findErrs   []error
	createErrs []error
}

func newStubRepository() *stubRepository {
	return &stubRepository{
		crossings:     make(map[string]*domain.CrossingRecord),
		contributions: make(map[string]bool),
		optedOut:      make(map[string]bool),
	}
}

// markOptedOut excludes the user's visits from candidate queries, the way
// the store-side trackingOptIn filter does.
func (r *stubRepository) markOptedOut(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.optedOut[userID] = true
}

func (r *stubRepository) pushFindError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.findErrs = append(r.findErrs, err)
}

func (r *stubRepository) pushCreateCrossingError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.createErrs = append(r.createErrs, err)
}

func (r *stubRepository) CreateVisit(_ context.Context, visit domain.Visit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.visits = append(r.visits, visit)
	return nil
}

func (r *stubRepository) VisitsAtVenueSince(_ context.Context, venueID, excludeUserID string, since time.Time) ([]domain.Visit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Visit
	for _, v := range r.visits {
		if v.VenueID == venueID && v.UserID != excludeUserID && !r.optedOut[v.UserID] && !v.VisitedAt.Before(since) {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r *stubRepository) VisitsNearSince(_ context.Context, box geo.Box, excludeUserID string, since time.Time) ([]domain.Visit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Visit
	for _, v := range r.visits {
		if v.UserID != excludeUserID && !r.optedOut[v.UserID] && !v.VisitedAt.Before(since) && box.Contains(v.Latitude, v.Longitude) {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r *stubRepository) FindOpenCrossing(_ context.Context, userAID, userBID, venueKey string, windowStart time.Time) (*domain.CrossingRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.findErrs) > 0 {
		err := r.findErrs[0]
		r.findErrs = r.findErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	var best *domain.CrossingRecord
	for _, rec := range r.crossings {
		if rec.UserAID != userAID || rec.UserBID != userBID || rec.VenueKey != venueKey {
			continue
		}
		if rec.LastCrossedAt.Before(windowStart) {
			continue
		}
		if best == nil || !rec.LastCrossedAt.Before(best.LastCrossedAt) {
			copied := *rec
			best = &copied
		}
	}
	return best, nil
}

func contributionKey(recordID, visitID string) string {
	return recordID + "|" + visitID
}

func (r *stubRepository) IncrementCrossing(_ context.Context, recordID, visitID, otherUserID string, now time.Time) (domain.CrossingRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.crossings[recordID]
	if !ok {
		return domain.CrossingRecord{}, fmt.Errorf("crossing %s not found", recordID)
	}
	key := contributionKey(recordID, visitID)
	if !r.contributions[key] {
		r.contributions[key] = true
		rec.CrossCount++
		rec.LastCrossedAt = now
	}
	return *rec, nil
}

func (r *stubRepository) CreateCrossing(_ context.Context, record domain.CrossingRecord, visitID, otherUserID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.createErrs) > 0 {
		err := r.createErrs[0]
		r.createErrs = r.createErrs[1:]
		if err != nil {
			return err
		}
	}
	copied := record
	r.crossings[record.ID] = &copied
	r.contributions[contributionKey(record.ID, visitID)] = true

	for _, p := range r.paths {
		if p.User1ID == record.UserAID && p.User2ID == record.UserBID {
			return nil
		}
	}
	r.paths = append(r.paths, domain.PathProjection{
		User1ID:   record.UserAID,
		User2ID:   record.UserBID,
		VenueName: record.VenueName,
		Lat:       record.LocationLat,
		Lng:       record.LocationLng,
		IsActive:  true,
		CreatedAt: record.FirstCrossedAt,
	})
	return nil
}

func (r *stubRepository) CrossingsForUserAtVenue(_ context.Context, userID, venueID string) ([]domain.CrossingRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.CrossingRecord
	for _, rec := range r.crossings {
		if rec.VenueID == venueID && (rec.UserAID == userID || rec.UserBID == userID) {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (r *stubRepository) CrossingsForUser(_ context.Context, userID string) ([]domain.CrossingRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.CrossingRecord
	for _, rec := range r.crossings {
		if rec.UserAID == userID || rec.UserBID == userID {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (r *stubRepository) SharedPathsForUser(_ context.Context, userID string) ([]domain.PathProjection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.PathProjection
	for _, p := range r.paths {
		if p.User1ID == userID || p.User2ID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *stubRepository) allCrossings() []domain.CrossingRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.CrossingRecord, 0, len(r.crossings))
	for _, rec := range r.crossings {
		out = append(out, *rec)
	}
	return out
}

// stubDirectory serves profile snapshots from a fixed map.
type stubDirectory struct {
	mu       sync.Mutex
	profiles map[string]domain.ProfileSnapshot
}

func newStubDirectory(profiles ...domain.ProfileSnapshot) *stubDirectory {
	d := &stubDirectory{profiles: make(map[string]domain.ProfileSnapshot)}
	for _, p := range profiles {
		d.profiles[p.UserID] = p
	}
	return d
}

func (d *stubDirectory) Snapshot(_ context.Context, userID string) (domain.ProfileSnapshot, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	snap, ok := d.profiles[userID]
	if !ok {
		return domain.ProfileSnapshot{}, profile.ErrNotFound
	}
	return snap, nil
}

func (d *stubDirectory) setOptIn(userID string, optIn bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	snap := d.profiles[userID]
	snap.TrackingOptIn = optIn
	d.profiles[userID] = snap
}

// spyNotifier counts crossing-change notifications.
type spyNotifier struct {
	mu      sync.Mutex
	records []domain.CrossingRecord
}

func (n *spyNotifier) CrossingChanged(_ context.Context, record domain.CrossingRecord) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.records = append(n.records, record)
}

func (n *spyNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.records)
}

func optedIn(userID string) domain.ProfileSnapshot {
	return domain.ProfileSnapshot{UserID: userID, DisplayName: userID, TrackingOptIn: true}
}

func newTestService(repo *stubRepository, dir *stubDirectory, notifier *spyNotifier) *CrossingService {
	svc := NewCrossingService(repo, dir, notifier, DefaultSettings(), slog.New(slog.NewTextHandler(discardWriter{}, nil)))
	return svc
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
