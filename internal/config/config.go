package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	Port        int
	LogLevel    string
	LogFormat   string
	Environment string
	ServiceName string
	Version     string
	APIKey      string // Optional; enables X-API-Key authentication when set

	StorageBackend string
	DBUser         string
	DBPassword     string
	DBHost         string
	DBPort         string
	DBName         string
	DBMaxConns     int

	RebrickableBaseURL  string
	RebrickableAPIKey   string
	RebrickablePageSize int
	RebrickableRPS      float64
	SyncPageTimeout     time.Duration
	SyncWorkers         int
	SyncOnStart         bool

	// RebrickableUserToken enables pushing lists to the account when set
	RebrickableUsersURL  string
	RebrickableUserToken string

	ImageCacheDir string
	ImageFallback string
}

// Load loads the configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists, but don't fail if it doesn't (could be real env vars)
	_ = godotenv.Load()

	cfg := &Config{
		LogLevel:             getEnv("LOG_LEVEL", DefaultLogLevel),
		LogFormat:            getEnv("LOG_FORMAT", DefaultLogFormat),
		Environment:          getEnv("ENVIRONMENT", DefaultEnvironment),
		ServiceName:          getEnv("SERVICE_NAME", DefaultServiceName),
		Version:              getEnv("VERSION", DefaultVersion),
		APIKey:               getEnv("API_KEY", ""),
		StorageBackend:       getEnv("STORAGE_BACKEND", BackendPostgres),
		DBUser:               getEnv("DB_USER", "postgres"),
		DBPassword:           getEnv("DB_PASSWORD", "postgres"),
		DBHost:               getEnv("DB_HOST", "localhost"),
		DBPort:               getEnv("DB_PORT", "5432"),
		DBName:               getEnv("DB_NAME", DefaultDBName),
		RebrickableBaseURL:   getEnv("REBRICKABLE_BASE_URL", DefaultRebrickableBaseURL),
		RebrickableAPIKey:    getEnv("REBRICKABLE_API_KEY", ""),
		RebrickableUsersURL:  getEnv("REBRICKABLE_USERS_URL", DefaultRebrickableUsersURL),
		RebrickableUserToken: getEnv("REBRICKABLE_USER_TOKEN", ""),
		ImageCacheDir:        getEnv("IMAGE_CACHE_DIR", DefaultImageCacheDir),
		ImageFallback:        getEnv("IMAGE_FALLBACK", DefaultImageFallback),
	}

	var err error
	if cfg.Port, err = getEnvInt("PORT", DefaultPort); err != nil {
		return nil, err
	}
	if cfg.DBMaxConns, err = getEnvInt("DB_MAX_CONNS", DefaultDBMaxConns); err != nil {
		return nil, err
	}
	if cfg.RebrickablePageSize, err = getEnvInt("REBRICKABLE_PAGE_SIZE", DefaultRebrickablePageSize); err != nil {
		return nil, err
	}
	if cfg.SyncWorkers, err = getEnvInt("SYNC_WORKERS", DefaultSyncWorkers); err != nil {
		return nil, err
	}
	if cfg.RebrickableRPS, err = getEnvFloat("REBRICKABLE_RPS", DefaultRebrickableRPS); err != nil {
		return nil, err
	}
	if cfg.SyncPageTimeout, err = getEnvDuration("SYNC_PAGE_TIMEOUT", DefaultSyncPageTimeout); err != nil {
		return nil, err
	}
	if cfg.SyncOnStart, err = getEnvBool("SYNC_ON_START", false); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the service cannot run with
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > MaxPort {
		return fmt.Errorf("invalid PORT value %d: must be between 1 and %d", c.Port, MaxPort)
	}
	if c.StorageBackend != BackendPostgres && c.StorageBackend != BackendMemory {
		return fmt.Errorf("invalid STORAGE_BACKEND %q: must be %q or %q", c.StorageBackend, BackendPostgres, BackendMemory)
	}
	if c.DBMaxConns <= 0 {
		return fmt.Errorf("invalid DB_MAX_CONNS value %d: must be positive", c.DBMaxConns)
	}
	if c.RebrickablePageSize <= 0 {
		return fmt.Errorf("invalid REBRICKABLE_PAGE_SIZE value %d: must be positive", c.RebrickablePageSize)
	}
	if c.RebrickableRPS <= 0 {
		return fmt.Errorf("invalid REBRICKABLE_RPS value %v: must be positive", c.RebrickableRPS)
	}
	if c.SyncPageTimeout <= 0 {
		return fmt.Errorf("invalid SYNC_PAGE_TIMEOUT value %s: must be positive", c.SyncPageTimeout)
	}
	if c.SyncWorkers <= 0 {
		return fmt.Errorf("invalid SYNC_WORKERS value %d: must be positive", c.SyncWorkers)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %w", key, err)
	}
	return n, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %w", key, err)
	}
	return f, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %w", key, err)
	}
	return d, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s value: %w", key, err)
	}
	return b, nil
}

// GetDBConnString returns the PostgreSQL connection string
func (c *Config) GetDBConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser,
		c.DBPassword,
		c.DBHost,
		c.DBPort,
		c.DBName,
	)
}
