package geo

import (
	"math"
	"testing"
)

func TestDistanceKm_KnownPairs(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lng1, lat2, lng2 float64
		wantKm                 float64
		tolKm                  float64
	}{
		{"same point", 40.7128, -74.0060, 40.7128, -74.0060, 0, 0.0001},
		{"paris to london", 48.8566, 2.3522, 51.5074, -0.1278, 343.5, 2},
		{"sf to nyc", 37.7749, -122.4194, 40.7128, -74.0060, 4129, 20},
		{"one degree latitude", 0, 0, 1, 0, 111.19, 0.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistanceKm(tt.lat1, tt.lng1, tt.lat2, tt.lng2)
			if math.Abs(got-tt.wantKm) > tt.tolKm {
				t.Fatalf("DistanceKm = %f, want %f ± %f", got, tt.wantKm, tt.tolKm)
			}
		})
	}
}

func TestDistanceKm_Symmetry(t *testing.T) {
	a := DistanceKm(41.02, 28.97, 41.03, 28.99)
	b := DistanceKm(41.03, 28.99, 41.02, 28.97)
	if math.Abs(a-b) > 1e-9 {
		t.Fatalf("distance not symmetric: %f vs %f", a, b)
	}
}

func TestDistanceKm_ProximityThreshold(t *testing.T) {
	// Two venues ~90 m apart along a meridian sit inside the 100 m
	// threshold; ~150 m apart sit outside it.
	base := 37.7749
	within := base + 0.0008 // ≈ 89 m
	outside := base + 0.00135

	if d := DistanceKm(base, -122.4194, within, -122.4194); d > 0.1 {
		t.Fatalf("expected %f km to be within the 100 m threshold", d)
	}
	if d := DistanceKm(base, -122.4194, outside, -122.4194); d <= 0.1 {
		t.Fatalf("expected %f km to be outside the 100 m threshold", d)
	}
}

func TestBoundingBox_ContainsRadius(t *testing.T) {
	lat, lng := 52.52, 13.405
	box := BoundingBox(lat, lng, 0.1)

	// Points just inside the radius in the four cardinal directions must
	// fall inside the box; the box may be larger, never smaller.
	offsets := []struct{ dLat, dLng float64 }{
		{0.0008, 0}, {-0.0008, 0}, {0, 0.0013}, {0, -0.0013},
	}
	for _, off := range offsets {
		pLat, pLng := lat+off.dLat, lng+off.dLng
		if DistanceKm(lat, lng, pLat, pLng) <= 0.1 && !box.Contains(pLat, pLng) {
			t.Fatalf("box %+v excludes in-radius point (%f, %f)", box, pLat, pLng)
		}
	}
}
