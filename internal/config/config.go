package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jambo-bank/jambo_bank/internal/address"
)

const (
	defaultAppName         = "JamboBank"
	defaultAppEnv          = "development"
	defaultPort            = "8080"
	defaultLogLevel        = "info"
	defaultShutdownDelay   = 10 * time.Second
	defaultIdempotencyTTL  = 24 * time.Hour
	defaultUnitScale       = 100
	defaultCreateMode      = "reject"
	defaultSignatureSkew   = 5 * time.Minute
	defaultRateLimit       = 60
	defaultKafkaTopic      = "jambo-bank.events"
	defaultMigrationsPath  = "file://migrations"
	idemTTLSecondsEnvVar   = "IDEMPOTENCY_TTL_SECONDS"
	idemTTLDurEnvVar       = "IDEMPOTENCY_TTL"
	shutdownSecondsEnvVar  = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurationEnvVar = "SHUTDOWN_TIMEOUT"
	signatureSkewEnvVar    = "SIGNATURE_MAX_SKEW"
	unitScaleEnvVar        = "INTERNAL_UNIT_SCALE"
	rateLimitEnvVar        = "RATE_LIMIT_PER_MINUTE"
	dbMaxConnsEnvVar       = "DB_MAX_CONNS"
	tokenAdminEnvVar       = "TOKEN_ADMIN"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName        string
	AppEnv         string
	Port           string
	LogLevel       string
	DatabaseURL    string
	DBMaxConns     int32
	RedisURL       string
	ShutdownPeriod time.Duration
	IdempotencyTTL time.Duration

	Owner             address.Pubkey
	ProgramID         address.Pubkey
	UnitScale         uint64
	AccountCreateMode string
	SignatureMaxSkew  time.Duration
	RateLimitPerMin   int
	TokenAdmin        bool

	KafkaBrokers   []string
	KafkaTopic     string
	MigrationsPath string
}

// Load reads configuration values from the environment and populates a Config instance.
func Load() (Config, error) {
	cfg := Config{
		AppName:           getEnv("APP_NAME", defaultAppName),
		AppEnv:            getEnv("APP_ENV", defaultAppEnv),
		Port:              getEnv("PORT", defaultPort),
		LogLevel:          strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		RedisURL:          os.Getenv("REDIS_URL"),
		ShutdownPeriod:    defaultShutdownDelay,
		IdempotencyTTL:    defaultIdempotencyTTL,
		UnitScale:         defaultUnitScale,
		AccountCreateMode: strings.ToLower(getEnv("ACCOUNT_CREATE_MODE", defaultCreateMode)),
		SignatureMaxSkew:  defaultSignatureSkew,
		RateLimitPerMin:   defaultRateLimit,
		KafkaBrokers:      splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:        getEnv("KAFKA_TOPIC", defaultKafkaTopic),
		MigrationsPath:    getEnv("MIGRATIONS_PATH", defaultMigrationsPath),
	}

	var err error
	if cfg.ShutdownPeriod, err = durationEnv(shutdownSecondsEnvVar, shutdownDurationEnvVar, cfg.ShutdownPeriod); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = durationEnv(idemTTLSecondsEnvVar, idemTTLDurEnvVar, cfg.IdempotencyTTL); err != nil {
		return Config{}, err
	}
	if v := os.Getenv(signatureSkewEnvVar); v != "" {
		if cfg.SignatureMaxSkew, err = time.ParseDuration(v); err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", signatureSkewEnvVar, err)
		}
	}

	if v := os.Getenv(unitScaleEnvVar); v != "" {
		scale, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", unitScaleEnvVar, err)
		}
		cfg.UnitScale = scale
	}
	if cfg.UnitScale == 0 {
		return Config{}, fmt.Errorf("%s must be positive", unitScaleEnvVar)
	}

	if v := os.Getenv(rateLimitEnvVar); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", rateLimitEnvVar, err)
		}
		cfg.RateLimitPerMin = n
	}

	if v := os.Getenv(dbMaxConnsEnvVar); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil || n < 1 {
			return Config{}, fmt.Errorf("invalid %s: %q", dbMaxConnsEnvVar, v)
		}
		cfg.DBMaxConns = int32(n)
	}

	cfg.TokenAdmin = cfg.IsDev()
	if v := os.Getenv(tokenAdminEnvVar); v != "" {
		if cfg.TokenAdmin, err = strconv.ParseBool(v); err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", tokenAdminEnvVar, err)
		}
	}

	switch cfg.AccountCreateMode {
	case "reject", "noop":
	default:
		return Config{}, fmt.Errorf("ACCOUNT_CREATE_MODE must be reject or noop, got %q", cfg.AccountCreateMode)
	}

	if cfg.Owner, err = pubkeyEnv("OWNER_PUBKEY"); err != nil {
		return Config{}, err
	}
	if cfg.ProgramID, err = pubkeyEnv("PROGRAM_ID"); err != nil {
		return Config{}, err
	}

	if !cfg.IsDev() {
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL must be set")
		}
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("REDIS_URL must be set")
		}
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// IsDev reports whether the service runs in a development environment,
// where Postgres and Redis are optional.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func durationEnv(secondsKey, durationKey string, fallback time.Duration) (time.Duration, error) {
	if v := os.Getenv(secondsKey); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", secondsKey, err)
		}
		return time.Duration(seconds) * time.Second, nil
	}
	if v := os.Getenv(durationKey); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", durationKey, err)
		}
		return d, nil
	}
	return fallback, nil
}

func pubkeyEnv(key string) (address.Pubkey, error) {
	v := os.Getenv(key)
	if v == "" {
		return address.Zero, fmt.Errorf("%s must be set", key)
	}
	pk, err := address.ParsePubkey(v)
	if err != nil {
		return address.Zero, fmt.Errorf("invalid %s: %w", key, err)
	}
	return pk, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
