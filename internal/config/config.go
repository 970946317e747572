package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config aggregates application configuration values.
type Config struct {
	HTTP    HTTPConfig
	Graph   GraphConfig
	Logging LoggingConfig
	Engine  EngineConfig
	Auth    AuthConfig
}

// HTTPConfig governs HTTP server behaviour.
type HTTPConfig struct {
	Host              string
	Port              int
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	AllowedOriginsCSV string
	RateLimitPerSec   float64
	RateLimitBurst    int
}

// GraphConfig describes connectivity to the graph database.
type GraphConfig struct {
	URI            string
	Database       string
	Username       string
	Password       string
	MaxConnections int
}

// LoggingConfig controls structured logging settings.
type LoggingConfig struct {
	Level         string
	Format        string // text|json
	IncludeCaller bool
}

// EngineConfig tunes crossing detection and suggestion ranking.
type EngineConfig struct {
	LookbackDays         int
	ProximityRadiusKm    float64
	NearbyRadiusKm       float64
	DefaultSuggestionMax int
	DetectionWorkers     int
}

// AuthConfig holds the static bearer-token table used when no external
// identity service is wired in. Format: "token1:user1,token2:user2".
type AuthConfig struct {
	StaticTokensCSV string
}

const (
	defaultHost            = "0.0.0.0"
	defaultPort            = 8080
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 15 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultLoggingLevel    = "info"
	defaultLoggingFormat   = "text"
	defaultGraphSessions   = 10

	defaultLookbackDays      = 14
	defaultProximityRadiusKm = 0.1
	defaultNearbyRadiusKm    = 5.0
	defaultSuggestionMax     = 10
	defaultDetectionWorkers  = 4

	defaultRateLimitPerSec = 20.0
	defaultRateLimitBurst  = 40
)

// Load reads configuration from environment variables, applying defaults.
func Load() (Config, error) {
	cfg := Config{
		HTTP: HTTPConfig{
			Host:            valueOrDefault("SERVER_HOST", defaultHost),
			ReadTimeout:     defaultReadTimeout,
			WriteTimeout:    defaultWriteTimeout,
			IdleTimeout:     defaultIdleTimeout,
			ShutdownTimeout: defaultShutdownTimeout,
			RateLimitPerSec: parseFloatWithDefault("SERVER_RATE_LIMIT_PER_SEC", defaultRateLimitPerSec),
			RateLimitBurst:  parseIntWithDefault("SERVER_RATE_LIMIT_BURST", defaultRateLimitBurst),
		},
		Logging: LoggingConfig{
			Level:         valueOrDefault("LOG_LEVEL", defaultLoggingLevel),
			Format:        valueOrDefault("LOG_FORMAT", defaultLoggingFormat),
			IncludeCaller: parseBoolWithDefault("LOG_INCLUDE_CALLER", false),
		},
		Graph: GraphConfig{
			URI:            os.Getenv("GRAPH_URI"),
			Database:       valueOrDefault("GRAPH_DATABASE", ""),
			Username:       os.Getenv("GRAPH_USERNAME"),
			Password:       os.Getenv("GRAPH_PASSWORD"),
			MaxConnections: parseIntWithDefault("GRAPH_MAX_CONNECTIONS", defaultGraphSessions),
		},
		Engine: EngineConfig{
			LookbackDays:         parseIntWithDefault("ENGINE_LOOKBACK_DAYS", defaultLookbackDays),
			ProximityRadiusKm:    parseFloatWithDefault("ENGINE_PROXIMITY_RADIUS_KM", defaultProximityRadiusKm),
			NearbyRadiusKm:       parseFloatWithDefault("ENGINE_NEARBY_RADIUS_KM", defaultNearbyRadiusKm),
			DefaultSuggestionMax: parseIntWithDefault("ENGINE_SUGGESTION_LIMIT", defaultSuggestionMax),
			DetectionWorkers:     parseIntWithDefault("ENGINE_DETECTION_WORKERS", defaultDetectionWorkers),
		},
		Auth: AuthConfig{
			StaticTokensCSV: os.Getenv("AUTH_STATIC_TOKENS"),
		},
	}

	port, err := parsePort("SERVER_PORT", defaultPort)
	if err != nil {
		return Config{}, err
	}
	cfg.HTTP.Port = port

	if v := os.Getenv("SERVER_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.HTTP.ReadTimeout = d
		} else {
			return Config{}, fmt.Errorf("invalid SERVER_READ_TIMEOUT: %w", err)
		}
	}

	if v := os.Getenv("SERVER_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.HTTP.WriteTimeout = d
		} else {
			return Config{}, fmt.Errorf("invalid SERVER_WRITE_TIMEOUT: %w", err)
		}
	}

	if v := os.Getenv("SERVER_IDLE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.HTTP.IdleTimeout = d
		} else {
			return Config{}, fmt.Errorf("invalid SERVER_IDLE_TIMEOUT: %w", err)
		}
	}

	if v := os.Getenv("SERVER_SHUTDOWN_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.HTTP.ShutdownTimeout = d
		} else {
			return Config{}, fmt.Errorf("invalid SERVER_SHUTDOWN_TIMEOUT: %w", err)
		}
	}

	cfg.HTTP.AllowedOriginsCSV = os.Getenv("SERVER_ALLOWED_ORIGINS")

	if cfg.Engine.LookbackDays <= 0 {
		return Config{}, fmt.Errorf("ENGINE_LOOKBACK_DAYS must be positive, got %d", cfg.Engine.LookbackDays)
	}
	if cfg.Engine.ProximityRadiusKm <= 0 {
		return Config{}, fmt.Errorf("ENGINE_PROXIMITY_RADIUS_KM must be positive, got %f", cfg.Engine.ProximityRadiusKm)
	}

	return cfg, nil
}

func valueOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBoolWithDefault(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		val, err := strconv.ParseBool(v)
		if err != nil {
			return fallback
		}
		return val
	}
	return fallback
}

func parseIntWithDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if val, err := strconv.Atoi(v); err == nil {
			return val
		}
	}
	return fallback
}

func parseFloatWithDefault(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if val, err := strconv.ParseFloat(v, 64); err == nil {
			return val
		}
	}
	return fallback
}

func parsePort(key string, fallback int) (int, error) {
	if v := os.Getenv(key); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s value %q: %w", key, v, err)
		}
		if port <= 0 || port > 65535 {
			return 0, fmt.Errorf("port %d is out of range", port)
		}
		return port, nil
	}
	return fallback, nil
}
