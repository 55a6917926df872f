package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const appName = "dealfinder"

type ServerConfig struct {
	Port string
}

type AmadeusConfig struct {
	ClientID        string
	ClientSecret    string
	BaseURL         string
	Currency        string
	Timeout         time.Duration
	MaxRetries      int
	BackoffBase     time.Duration
	BackoffJitter   time.Duration
	RetryAfterCap   time.Duration
	MinRequestDelay time.Duration
	ConfirmMaxCalls int
	ConfirmWindow   time.Duration
}

type TravelpayoutsConfig struct {
	Token          string
	BaseURL        string
	Timeout        time.Duration
	MaxRetries     int
	RateLimitDelay time.Duration
	BackoffFactor  float64
}

type CacheConfig struct {
	Backend       string // sqlite | redis | none
	Path          string
	TTL           time.Duration
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
}

type Config struct {
	Server              ServerConfig
	Amadeus             AmadeusConfig
	Travelpayouts       TravelpayoutsConfig
	Cache               CacheConfig
	ExploreDestinations []string
	ExploreMaxCalls     int
}

// defaultExploreDestinations are the popular European hubs queried in
// explore mode when the caller does not name destinations. Overridable via
// EXPLORE_DESTINATIONS so orchestration code never hardwires the list.
var defaultExploreDestinations = []string{"LHR", "CDG", "FCO", "BCN", "AMS", "FRA", "MAD", "MUC", "ZRH", "VIE"}

// Load reads candidate env files (environment variables always win, since
// godotenv never overrides an already-set variable) and assembles the
// configuration with documented defaults.
func Load() *Config {
	loadEnvFiles()

	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Amadeus: AmadeusConfig{
			ClientID:        getEnv("AMADEUS_CLIENT_ID", ""),
			ClientSecret:    getEnv("AMADEUS_CLIENT_SECRET", ""),
			BaseURL:         getEnv("AMADEUS_BASE_URL", "https://test.api.amadeus.com"),
			Currency:        getEnv("DEFAULT_CURRENCY", "EUR"),
			Timeout:         getEnvDuration("AMADEUS_TIMEOUT", 15*time.Second),
			MaxRetries:      getEnvInt("AMADEUS_MAX_RETRIES", 2),
			BackoffBase:     getEnvDuration("AMADEUS_BACKOFF_BASE", time.Second),
			BackoffJitter:   getEnvDuration("AMADEUS_BACKOFF_JITTER", 500*time.Millisecond),
			RetryAfterCap:   getEnvDuration("AMADEUS_RETRY_AFTER_CAP", 5*time.Second),
			MinRequestDelay: getEnvDuration("AMADEUS_MIN_REQUEST_DELAY", time.Second),
			ConfirmMaxCalls: getEnvInt("CONFIRM_MAX_CALLS", 3),
			ConfirmWindow:   getEnvDuration("CONFIRM_WINDOW", 10*time.Minute),
		},
		Travelpayouts: TravelpayoutsConfig{
			Token:          getEnv("TRAVELPAYOUTS_TOKEN", ""),
			BaseURL:        getEnv("TRAVELPAYOUTS_BASE_URL", "https://api.travelpayouts.com"),
			Timeout:        getEnvDuration("TRAVELPAYOUTS_TIMEOUT", 10*time.Second),
			MaxRetries:     getEnvInt("TRAVELPAYOUTS_MAX_RETRIES", 3),
			RateLimitDelay: getEnvDuration("TRAVELPAYOUTS_MIN_REQUEST_DELAY", 500*time.Millisecond),
			BackoffFactor:  getEnvFloat("TRAVELPAYOUTS_BACKOFF_FACTOR", 2.0),
		},
		Cache: CacheConfig{
			Backend:       getEnv("CACHE_BACKEND", "sqlite"),
			Path:          getEnv("CACHE_PATH", "flight_cache.db"),
			TTL:           getEnvDuration("CACHE_TTL", 6*time.Hour),
			RedisHost:     getEnv("REDIS_HOST", "localhost"),
			RedisPort:     getEnv("REDIS_PORT", "6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getEnvInt("REDIS_DB", 0),
		},
		ExploreDestinations: getEnvList("EXPLORE_DESTINATIONS", defaultExploreDestinations),
		ExploreMaxCalls:     getEnvInt("EXPLORE_MAX_CALLS", 3),
	}
}

func loadEnvFiles() {
	for _, path := range candidateEnvFiles() {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		_ = godotenv.Load(path)
	}
}

// candidateEnvFiles lists config files highest priority first: a per-user
// config dir file, then a portable file next to the working directory.
func candidateEnvFiles() []string {
	var files []string
	if dir, err := os.UserConfigDir(); err == nil {
		files = append(files, filepath.Join(dir, appName, "config.env"))
	}
	files = append(files, "config.env", ".env")
	return files
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var result []string
	for _, item := range strings.Split(value, ",") {
		item = strings.ToUpper(strings.TrimSpace(item))
		if item != "" {
			result = append(result, item)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
