package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // vendor timezone without system zoneinfo

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: every environment variable is read here
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database (ledger store)
	Database DatabaseConfig

	// Redis (shared pacing between processes)
	Redis RedisConfig

	// Vendor site
	Vendor VendorConfig

	// Ledger reconciliation
	Ledger LedgerConfig

	// Record extraction
	Extract ExtractConfig

	// Diagnostics sink
	Diagnostics DiagnosticsConfig

	// Scheduled audits
	Scheduler SchedulerConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// VendorConfig holds the ticket vendor site configuration
type VendorConfig struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	PageDelay time.Duration // pause between successive page visits
	// MinRequestInterval is the floor between any two vendor requests
	MinRequestInterval time.Duration
	// LayoutFile optionally overrides the built-in markup selectors (YAML)
	LayoutFile string
	// SkipMarker is page text that marks a product page as not audited
	SkipMarker string
}

// LedgerConfig holds the ledger matching configuration
type LedgerConfig struct {
	TargetOrganization string
	Timezone           string
	TicketsTable       string
	ProductionsTable   string
	RunsTable          string
}

// ExtractConfig holds record extraction configuration
type ExtractConfig struct {
	FailMode string // page, row
}

// DiagnosticsConfig holds diagnostics sink configuration
type DiagnosticsConfig struct {
	Dir string
}

// SchedulerConfig holds cron configuration for the audit job
type SchedulerConfig struct {
	Schedule string
	Enabled  bool
}

// Load reads configuration from environment variables
// ⭐ SSOT: the only caller of os.Getenv()
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 5),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Vendor: VendorConfig{
			BaseURL:    strings.TrimRight(getEnv("VENDOR_BASE_URL", "https://www.cal-store.co.il"), "/"),
			UserAgent:  getEnv("VENDOR_USER_AGENT", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"),
			Timeout:    getEnvAsDuration("VENDOR_TIMEOUT", "15s"),
			PageDelay:  getEnvAsDuration("VENDOR_PAGE_DELAY", "2s"),
			SkipMarker: getEnv("VENDOR_SKIP_MARKER", "מחיר מיוחד ללא שימוש בחוויה"),

			MinRequestInterval: getEnvAsDuration("VENDOR_MIN_REQUEST_INTERVAL", "500ms"),
			LayoutFile:         getEnv("VENDOR_LAYOUT_FILE", ""),
		},

		Ledger: LedgerConfig{
			TargetOrganization: getEnv("LEDGER_TARGET_ORGANIZATION", "ויזה כאל"),
			Timezone:           getEnv("LEDGER_TIMEZONE", "Asia/Jerusalem"),
			TicketsTable:       getEnv("LEDGER_TICKETS_TABLE", "ledger.tickets"),
			ProductionsTable:   getEnv("LEDGER_PRODUCTIONS_TABLE", "ledger.productions"),
			RunsTable:          getEnv("LEDGER_RUNS_TABLE", "ledger.audit_runs"),
		},

		Extract: ExtractConfig{
			FailMode: strings.ToLower(getEnv("EXTRACT_FAIL_MODE", "page")),
		},

		Diagnostics: DiagnosticsConfig{
			Dir: getEnv("DIAGNOSTICS_DIR", "screenshots"),
		},

		Scheduler: SchedulerConfig{
			Schedule: getEnv("SCHEDULE", "0 0 */2 * * *"),
			Enabled:  getEnvAsBool("SCHEDULER_ENABLED", true),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if configuration values are consistent
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Extract.FailMode != "page" && c.Extract.FailMode != "row" {
		return fmt.Errorf("EXTRACT_FAIL_MODE must be one of: page, row")
	}

	if _, err := time.LoadLocation(c.Ledger.Timezone); err != nil {
		return fmt.Errorf("LEDGER_TIMEZONE is invalid: %w", err)
	}

	if c.Ledger.TargetOrganization == "" {
		return fmt.Errorf("LEDGER_TARGET_ORGANIZATION is required")
	}

	return nil
}

// RequireDatabase reports an error when commands that touch the ledger run without a database
func (c *Config) RequireDatabase() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	return nil
}

// Location returns the vendor timezone used for ledger timestamps
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Ledger.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
