package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/aruiz/crossedpaths/backend/internal/generator"
)

func main() {
	cfg := generator.DefaultConfig()
	var (
		members    = flag.Int("members", cfg.NumMembers, "number of members to generate")
		venues     = flag.Int("venues", cfg.NumVenues, "number of venues in the pool")
		visits     = flag.Int("visits", cfg.NumVisits, "number of visits to generate")
		optInRate  = flag.Float64("opt-in-rate", cfg.OptInRate, "fraction of members with tracking enabled")
		venueRate  = flag.Float64("venue-visit-rate", cfg.VenueVisitRate, "fraction of visits pinned to a known venue")
		spreadDays = flag.Int("spread-days", cfg.SpreadDays, "how many days back visits are spread over")
		centerLat  = flag.Float64("center-lat", cfg.CenterLatitude, "latitude of the city center")
		centerLng  = flag.Float64("center-lng", cfg.CenterLongitude, "longitude of the city center")
		radiusKm   = flag.Float64("city-radius-km", cfg.CityRadiusKm, "radius venues and visits are scattered over")
		seed       = flag.Int64("seed", cfg.Seed, "random seed for deterministic generation")
		outputDir  = flag.String("output-dir", "data", "directory to write members.json and visits.json")
		useStdout  = flag.Bool("stdout", false, "write combined dataset to stdout instead of files")
	)
	flag.Parse()

	genCfg := generator.Config{
		NumMembers:      *members,
		NumVenues:       *venues,
		NumVisits:       *visits,
		OptInRate:       clampProbability(*optInRate),
		VenueVisitRate:  clampProbability(*venueRate),
		SpreadDays:      *spreadDays,
		CenterLatitude:  *centerLat,
		CenterLongitude: *centerLng,
		CityRadiusKm:    *radiusKm,
		Seed:            *seed,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	gen := generator.New(genCfg)
	dataset, err := gen.Generate(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generation failed: %v\n", err)
		os.Exit(1)
	}

	if *useStdout {
		if err := json.NewEncoder(os.Stdout).Encode(dataset); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write dataset to stdout: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := generator.WriteDataset(dataset, *outputDir); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write dataset: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stdout, "Generated %d members and %d visits into %s\n", len(dataset.Members), len(dataset.Visits), *outputDir)
}

func clampProbability(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
