package generator

// Config drives the synthetic data generator.
type Config struct {
	NumMembers      int
	NumVenues       int
	NumVisits       int
	OptInRate       float64
	VenueVisitRate  float64
	SpreadDays      int
	CenterLatitude  float64
	CenterLongitude float64
	CityRadiusKm    float64
	Seed            int64
}

// DefaultConfig returns baseline settings that produce a dataset dense
// enough for crossings to actually occur.
func DefaultConfig() Config {
	return Config{
		NumMembers:      500,
		NumVenues:       40,
		NumVisits:       5000,
		OptInRate:       0.8,
		VenueVisitRate:  0.85,
		SpreadDays:      30,
		CenterLatitude:  40.4168,
		CenterLongitude: -3.7038,
		CityRadiusKm:    8.0,
		Seed:            42,
	}
}
