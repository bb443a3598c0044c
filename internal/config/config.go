package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// KV backends accepted by APPDIR_KV_BACKEND.
const (
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s
	RequestTimeout  time.Duration // per-request deadline applied by chi middleware.Timeout

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	KVBackend  string // "redis" | "sqlite" | "memory"
	KVPrefix   string // namespace prepended to every key (ex: "appdir:")
	SQLitePath string // database file when KVBackend == "sqlite"

	SeedFile        string        // optional YAML catalog imported at startup and on reload
	ReloadInterval  time.Duration // interval to re-import the seed file (0 = startup and /reload only)
	ReindexInterval time.Duration // interval to verify and repair indexes/stats

	// Redis, only read when KVBackend == "redis"
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	AllowedHosts []string // optional, restrict access to specific Host headers
	AdminCIDRS   []string // optional, restrict mutating routes to these networks (e.g. "10.0.0.0/8, 1.2.3.4")
	TrustProxy   bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)
	RateBurst    int      // token bucket size per client IP on mutating routes
	RatePerMin   int      // refill rate per client IP on mutating routes (0 = unlimited)
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("APPDIR_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("APPDIR_SHUTDOWN_TIMEOUT", 5*time.Second),
		RequestTimeout:  mustDuration("APPDIR_REQUEST_TIMEOUT", 10*time.Second),

		// Logging
		LogLevel:  getenv("APPDIR_LOG_LEVEL", "info"),
		PrettyLog: mustBool("APPDIR_PRETTY_LOG", true),

		// Storage
		KVBackend:  strings.ToLower(getenv("APPDIR_KV_BACKEND", BackendSQLite)),
		KVPrefix:   getenv("APPDIR_KV_PREFIX", "appdir:"),
		SQLitePath: getenv("APPDIR_SQLITE_PATH", "/data/appdir.db"),

		// Seed catalog and maintenance
		SeedFile:        getenv("APPDIR_SEED_FILE", ""),
		ReloadInterval:  mustDuration("APPDIR_RELOAD_INTERVAL", 24*time.Hour),
		ReindexInterval: mustDuration("APPDIR_REINDEX_INTERVAL", time.Hour),

		// Access restrictions
		AllowedHosts: parseList(getenv("APPDIR_ALLOWED_HOSTS", "")),
		AdminCIDRS:   parseList(getenv("APPDIR_ADMIN_CIDRS", "")),
		TrustProxy:   mustBool("APPDIR_TRUST_PROXY", false),
		RateBurst:    getenvInt("APPDIR_RATE_BURST", 20),
		RatePerMin:   getenvInt("APPDIR_RATE_PER_MIN", 60),
	}

	switch cfg.KVBackend {
	case BackendRedis:
		loadRedis(cfg)
	case BackendSQLite, BackendMemory:
	default:
		panic(fmt.Sprintf("❌ FATAL: APPDIR_KV_BACKEND must be one of redis, sqlite, memory (got %q)", cfg.KVBackend))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		if cfgCopy.RedisPassword != "" {
			cfgCopy.RedisPassword = "***REDACTED***"
		}
		if cfg.RedisUser != "" {
			cfgCopy.RedisUser = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

func loadRedis(cfg *Config) {
	cfg.RedisAddr = requireEnv("APPDIR_REDIS_ADDR")
	cfg.RedisUser = getenv("APPDIR_REDIS_USERNAME", "default")
	cfg.RedisPasswordRequired = mustBool("APPDIR_REDIS_PASSWORD_REQUIRED", true)
	cfg.RedisPassword = getenv("APPDIR_REDIS_PASSWORD", "")
	cfg.RedisDB = requireEnvInt("APPDIR_REDIS_DB")
	cfg.RedisDT = mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second)
	cfg.RedisRT = mustDuration("REDIS_READ_TIMEOUT", 3*time.Second)
	cfg.RedisWT = mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second)
	cfg.RedisMaxWait = mustDuration("REDIS_MAX_WAIT", 10*time.Second)
	cfg.RedisPingTimeout = mustDuration("REDIS_PING_TIMEOUT", 5*time.Second)
	cfg.RedisPoolSize = getenvInt("REDIS_POOL_SIZE", 10)
	cfg.RedisConnectTimeout = mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second)
	cfg.RedisRetryInterval = mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second)
	cfg.RedisWarnThreshold = getenvInt("REDIS_WARN_THRESHOLD", 3)

	if cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
		panic("❌ FATAL: APPDIR_REDIS_PASSWORD is required when APPDIR_REDIS_PASSWORD_REQUIRED=true")
	}
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func requireEnvInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		panic(fmt.Sprintf("❌ FATAL: Invalid integer value for %s: %s", key, v))
	}
	return i
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseList(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	if len(parts) == 0 {
		return nil
	}
	return parts
}
