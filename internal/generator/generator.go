package generator

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/aruiz/crossedpaths/backend/internal/domain"
)

// MemberRecord is the JSON shape of a generated member profile.
type MemberRecord struct {
	UserID        string   `json:"userId"`
	DisplayName   string   `json:"displayName"`
	TrackingOptIn bool     `json:"trackingOptIn"`
	DiningStyle   string   `json:"diningStyle"`
	DietaryTags   []string `json:"dietaryTags"`
}

// VisitRecord is the JSON shape of a generated visit.
type VisitRecord struct {
	VisitID   string  `json:"visitId"`
	UserID    string  `json:"userId"`
	VenueID   string  `json:"venueId,omitempty"`
	VenueName string  `json:"venueName,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	VisitedAt string  `json:"visitedAt"`
}

// Dataset contains the generated members and visits.
type Dataset struct {
	Members []MemberRecord `json:"members"`
	Visits  []VisitRecord  `json:"visits"`
}

// ToProfile converts the record into its domain snapshot.
func (m MemberRecord) ToProfile() domain.ProfileSnapshot {
	return domain.ProfileSnapshot{
		UserID:        m.UserID,
		DisplayName:   m.DisplayName,
		TrackingOptIn: m.TrackingOptIn,
		DiningStyle:   m.DiningStyle,
		DietaryTags:   m.DietaryTags,
	}
}

// ToVisit converts the record into its domain visit. Timestamps that fail to
// parse surface as errors rather than silently becoming zero times.
func (v VisitRecord) ToVisit() (domain.Visit, error) {
	visitedAt, err := time.Parse(time.RFC3339, v.VisitedAt)
	if err != nil {
		return domain.Visit{}, fmt.Errorf("visit %s: invalid visitedAt %q: %w", v.VisitID, v.VisitedAt, err)
	}
	return domain.Visit{
		ID:        v.VisitID,
		UserID:    v.UserID,
		VenueID:   v.VenueID,
		VenueName: v.VenueName,
		Latitude:  v.Latitude,
		Longitude: v.Longitude,
		VisitedAt: visitedAt,
	}, nil
}

type venue struct {
	id   string
	name string
	lat  float64
	lng  float64
}

// Generator produces synthetic members and visits clustered around a pool of
// venues, so a realistic share of visits overlap in space and time.
type Generator struct {
	cfg           Config
	rand          *rand.Rand
	nameFragments nameFragments
	venues        []venue
}

// New returns a configured Generator instance.
func New(cfg Config) *Generator {
	def := DefaultConfig()
	if cfg.NumMembers <= 0 {
		cfg.NumMembers = def.NumMembers
	}
	if cfg.NumVenues <= 0 {
		cfg.NumVenues = def.NumVenues
	}
	if cfg.NumVisits <= 0 {
		cfg.NumVisits = def.NumVisits
	}
	if cfg.OptInRate <= 0 {
		cfg.OptInRate = def.OptInRate
	}
	if cfg.VenueVisitRate <= 0 {
		cfg.VenueVisitRate = def.VenueVisitRate
	}
	if cfg.SpreadDays <= 0 {
		cfg.SpreadDays = def.SpreadDays
	}
	if cfg.CityRadiusKm <= 0 {
		cfg.CityRadiusKm = def.CityRadiusKm
	}
	if cfg.CenterLatitude == 0 && cfg.CenterLongitude == 0 {
		cfg.CenterLatitude = def.CenterLatitude
		cfg.CenterLongitude = def.CenterLongitude
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	return &Generator{
		cfg:           cfg,
		rand:          rand.New(rand.NewSource(cfg.Seed)),
		nameFragments: defaultNameFragments(),
	}
}

// Generate synthesises members and visits. It respects context cancellation.
func (g *Generator) Generate(ctx context.Context) (Dataset, error) {
	g.venues = g.makeVenues()

	members := make([]MemberRecord, g.cfg.NumMembers)
	for i := 0; i < g.cfg.NumMembers; i++ {
		if err := ctx.Err(); err != nil {
			return Dataset{}, err
		}
		members[i] = MemberRecord{
			UserID:        fmt.Sprintf("USR-%06d", i+1),
			DisplayName:   g.randomFullName(),
			TrackingOptIn: g.rand.Float64() < g.cfg.OptInRate,
			DiningStyle:   g.randomDiningStyle(),
			DietaryTags:   g.randomDietaryTags(),
		}
	}

	now := time.Now().UTC()
	visits := make([]VisitRecord, g.cfg.NumVisits)
	for i := 0; i < g.cfg.NumVisits; i++ {
		if err := ctx.Err(); err != nil {
			return Dataset{}, err
		}

		member := members[g.rand.Intn(len(members))]
		visitedAt := now.Add(-time.Duration(g.rand.Intn(g.cfg.SpreadDays*24*60)) * time.Minute)
		record := VisitRecord{
			VisitID:   fmt.Sprintf("VIS-%07d", i+1),
			UserID:    member.UserID,
			VisitedAt: visitedAt.Format(time.RFC3339),
		}

		if g.rand.Float64() < g.cfg.VenueVisitRate {
			ven := g.venues[g.rand.Intn(len(g.venues))]
			record.VenueID = ven.id
			record.VenueName = ven.name
			// Jitter within ~30 m of the venue to mimic device readings.
			record.Latitude = ven.lat + g.jitterDegrees(0.03)
			record.Longitude = ven.lng + g.jitterDegrees(0.03)
		} else {
			record.Latitude, record.Longitude = g.randomPoint()
		}

		visits[i] = record
	}

	return Dataset{Members: members, Visits: visits}, nil
}

func (g *Generator) makeVenues() []venue {
	venues := make([]venue, g.cfg.NumVenues)
	for i := 0; i < g.cfg.NumVenues; i++ {
		lat, lng := g.randomPoint()
		venues[i] = venue{
			id:   fmt.Sprintf("VEN-%04d", i+1),
			name: g.randomVenueName(),
			lat:  lat,
			lng:  lng,
		}
	}
	return venues
}

func (g *Generator) randomPoint() (float64, float64) {
	return g.cfg.CenterLatitude + g.jitterDegrees(g.cfg.CityRadiusKm),
		g.cfg.CenterLongitude + g.jitterDegrees(g.cfg.CityRadiusKm)
}

// jitterDegrees converts a +-radius in kilometres into a random offset in
// degrees, using the rough 111 km-per-degree figure. Close enough for
// synthetic data.
func (g *Generator) jitterDegrees(radiusKm float64) float64 {
	return (g.rand.Float64()*2 - 1) * radiusKm / 111.0
}

func (g *Generator) randomFullName() string {
	return fmt.Sprintf("%s %s", g.nameFragments.first[g.rand.Intn(len(g.nameFragments.first))],
		g.nameFragments.last[g.rand.Intn(len(g.nameFragments.last))])
}

func (g *Generator) randomVenueName() string {
	return fmt.Sprintf("%s %s",
		g.nameFragments.venuePrefix[g.rand.Intn(len(g.nameFragments.venuePrefix))],
		g.nameFragments.venueSuffix[g.rand.Intn(len(g.nameFragments.venueSuffix))])
}

func (g *Generator) randomDiningStyle() string {
	styles := []string{"casual", "fine_dining", "street_food", "cafe", "family"}
	return styles[g.rand.Intn(len(styles))]
}

func (g *Generator) randomDietaryTags() []string {
	all := []string{"vegan", "vegetarian", "halal", "kosher", "gluten_free", "pescatarian"}
	count := g.rand.Intn(3)
	if count == 0 {
		return nil
	}
	tags := make([]string, 0, count)
	for _, idx := range g.rand.Perm(len(all))[:count] {
		tags = append(tags, all[idx])
	}
	return tags
}

type nameFragments struct {
	first       []string
	last        []string
	venuePrefix []string
	venueSuffix []string
}

func defaultNameFragments() nameFragments {
	return nameFragments{
		first:       []string{"Jane", "John", "Alex", "Priya", "Liu", "Maria", "Omar", "Sofia", "Noah", "Emma", "Lucas", "Mia", "Ava", "Ethan", "Zara"},
		last:        []string{"Doe", "Smith", "Chen", "Patel", "Garcia", "Khan", "Kim", "Ivanov", "Nguyen", "Silva", "Brown", "Lee"},
		venuePrefix: []string{"Trattoria", "Casa", "Bistro", "Cantina", "Taberna", "Osteria", "Brasserie", "Mesa", "Fonda", "Kitchen"},
		venueSuffix: []string{"Aurora", "Del Mar", "Verde", "Luna", "Central", "Norte", "Dorada", "Azul", "Real", "Madera"},
	}
}
