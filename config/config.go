package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// PoolAbandonPolicy decides what follows the abandonment of a pool-origin assignment.
type PoolAbandonPolicy string

const (
	// PoolAbandonRetain keeps the listing untouched; the abandoned slot stays consumed.
	PoolAbandonRetain PoolAbandonPolicy = "retain"
	// PoolAbandonReopen grows the listing capacity by one so another shop can take the slot.
	PoolAbandonReopen PoolAbandonPolicy = "reopen_listing"
	// PoolAbandonRecycle hands the style back to the same shop as a new direct assignment.
	PoolAbandonRecycle PoolAbandonPolicy = "recycle_private"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	CORS       CORSConfig
	Allocation AllocationConfig
	Scheduler  SchedulerConfig
}

type ServerConfig struct {
	Port        string
	GinMode     string
	Environment string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string

	// 커넥션 풀. 확정 트랜잭션이 listing/quota 행을 잠그고 있는 동안 다른 요청이 대기한다.
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	LogLevel        string // silent, error, warn, info
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
	Channel  string
}

type JWTConfig struct {
	Secret string
}

type CORSConfig struct {
	AllowedOrigins []string
}

// AllocationConfig holds the platform defaults used by the allocation engine.
type AllocationConfig struct {
	DefaultMaxIntents int
	DefaultShopCap    int
	AgingThreshold    time.Duration
	PoolAbandonPolicy PoolAbandonPolicy
	TxMaxAttempts     int
}

type SchedulerConfig struct {
	Enabled            bool
	ListingCloseSpec   string
	QuotaReconcileSpec string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			GinMode:     getEnv("GIN_MODE", "debug"),
			Environment: getEnv("ENVIRONMENT", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "admin"),
			Password: getEnv("DB_PASSWORD", "1234"),
			DBName:   getEnv("DB_NAME", "scm"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),

			MaxOpenConns:    parseInt(getEnv("DB_MAX_OPEN_CONNS", "25"), 25),
			MaxIdleConns:    parseInt(getEnv("DB_MAX_IDLE_CONNS", "5"), 5),
			ConnMaxLifetime: parseDuration(getEnv("DB_CONN_MAX_LIFETIME", "30m"), 30*time.Minute),
			LogLevel:        getEnv("DB_LOG_LEVEL", "silent"),
		},
		Redis: RedisConfig{
			Enabled:  parseBool(getEnv("REDIS_ENABLED", "false")),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       parseInt(getEnv("REDIS_DB", "0"), 0),
			Channel:  getEnv("REDIS_EVENT_CHANNEL", "scm:style-events"),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "your-secret-key"),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		Allocation: AllocationConfig{
			DefaultMaxIntents: parseInt(getEnv("ALLOCATION_DEFAULT_MAX_INTENTS", "2"), 2),
			DefaultShopCap:    parseInt(getEnv("ALLOCATION_DEFAULT_SHOP_CAP", "5"), 5),
			AgingThreshold:    parseDuration(getEnv("ALLOCATION_AGING_THRESHOLD", "240h"), 240*time.Hour),
			PoolAbandonPolicy: PoolAbandonPolicy(getEnv("ALLOCATION_POOL_ABANDON_POLICY", string(PoolAbandonRetain))),
			TxMaxAttempts:     parseInt(getEnv("ALLOCATION_TX_MAX_ATTEMPTS", "3"), 3),
		},
		Scheduler: SchedulerConfig{
			Enabled:            parseBool(getEnv("SCHEDULER_ENABLED", "true")),
			ListingCloseSpec:   getEnv("SCHEDULER_LISTING_CLOSE_SPEC", "*/10 * * * *"),
			QuotaReconcileSpec: getEnv("SCHEDULER_QUOTA_RECONCILE_SPEC", "0 * * * *"),
		},
	}

	if err := config.Allocation.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// DefaultAllocation returns the allocation defaults without reading the environment.
func DefaultAllocation() AllocationConfig {
	return AllocationConfig{
		DefaultMaxIntents: 2,
		DefaultShopCap:    5,
		AgingThreshold:    240 * time.Hour,
		PoolAbandonPolicy: PoolAbandonRetain,
		TxMaxAttempts:     3,
	}
}

// Validate rejects allocation settings the engine cannot run with.
func (c AllocationConfig) Validate() error {
	if c.DefaultMaxIntents <= 0 {
		return fmt.Errorf("ALLOCATION_DEFAULT_MAX_INTENTS must be positive, got %d", c.DefaultMaxIntents)
	}
	if c.DefaultShopCap <= 0 {
		return fmt.Errorf("ALLOCATION_DEFAULT_SHOP_CAP must be positive, got %d", c.DefaultShopCap)
	}
	switch c.PoolAbandonPolicy {
	case PoolAbandonRetain, PoolAbandonReopen, PoolAbandonRecycle:
	default:
		return fmt.Errorf("unknown ALLOCATION_POOL_ABANDON_POLICY %q", c.PoolAbandonPolicy)
	}
	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	duration, err := time.ParseDuration(s)
	if err != nil {
		log.Printf("Invalid duration %s, using default %s", s, fallback)
		return fallback
	}
	return duration
}

func parseInt(s string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		log.Printf("Invalid integer %s, using default %d", s, fallback)
		return fallback
	}
	return v
}

func parseBool(s string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(s))
	return err == nil && v
}

func parseSlice(s string) []string {
	if s == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
