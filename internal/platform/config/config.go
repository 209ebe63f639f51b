package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the full process configuration assembled from the environment.
type Config struct {
	Server   Server
	Auth     Auth
	Database Database
	Redis    Redis
	Kafka    Kafka
	Ledger   Ledger
	Login    Login
	Log      Log
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// Auth configures access token issuance.
type Auth struct {
	JWTSigningKey string
	Issuer        string
	Audience      string
	TokenTTL      time.Duration
}

// Database configures the relational store. An empty URL selects the
// in-memory stores.
type Database struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
	TxTimeout    time.Duration
	AutoMigrate  bool
}

// Redis configures the optional ledger read cache. An empty URL disables it.
type Redis struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	LedgerTTL    time.Duration
}

// Kafka configures notification fan-out. No brokers disables publishing.
type Kafka struct {
	Brokers           []string
	NotificationTopic string
}

// Ledger configures the JSON-RPC connection and signer.
type Ledger struct {
	RPCURL                string
	PrivateKeyHex         string
	ContractAddress       string
	PollInterval          time.Duration
	CallTimeout           time.Duration
	AutoProvisionChainIDs []int64
}

// Login configures failed sign-in lockout.
type Login struct {
	MaxAttempts  int
	Window       time.Duration
	LockDuration time.Duration
}

// Log configures the process logger.
type Log struct {
	Format string
	Level  string
}

// Load reads an optional .env file and then the environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	chainIDs, err := parseChainIDs(getEnv("LEDGER_AUTOPROVISION_CHAIN_IDS", "1337,31337"))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Server: Server{
			Addr:            getEnv("SERVER_ADDR", ":8080"),
			ShutdownTimeout: getDuration("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second),
		},
		Auth: Auth{
			// Development default; production deployments must override it.
			JWTSigningKey: getEnv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			Issuer:        getEnv("JWT_ISSUER", "petidentity"),
			Audience:      getEnv("JWT_AUDIENCE", "petidentity-api"),
			TokenTTL:      getDuration("JWT_TTL", 12*time.Hour),
		},
		Database: Database{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: getInt("DB_MAX_OPEN_CONNS", 20),
			MaxIdleConns: getInt("DB_MAX_IDLE_CONNS", 5),
			TxTimeout:    getDuration("DB_TX_TIMEOUT", 10*time.Second),
			AutoMigrate:  getBool("DB_AUTO_MIGRATE", true),
		},
		Redis: Redis{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			LedgerTTL:    getDuration("REDIS_LEDGER_TTL", 5*time.Minute),
		},
		Kafka: Kafka{
			Brokers:           splitList(os.Getenv("KAFKA_BROKERS")),
			NotificationTopic: getEnv("KAFKA_NOTIFICATION_TOPIC", "petidentity.notifications"),
		},
		Ledger: Ledger{
			RPCURL:                os.Getenv("LEDGER_RPC_URL"),
			PrivateKeyHex:         os.Getenv("LEDGER_PRIVATE_KEY"),
			ContractAddress:       os.Getenv("LEDGER_CONTRACT_ADDRESS"),
			PollInterval:          getDuration("LEDGER_POLL_INTERVAL", 500*time.Millisecond),
			CallTimeout:           getDuration("LEDGER_CALL_TIMEOUT", 60*time.Second),
			AutoProvisionChainIDs: chainIDs,
		},
		Login: Login{
			MaxAttempts:  getInt("LOGIN_MAX_ATTEMPTS", 5),
			Window:       getDuration("LOGIN_LOCKOUT_WINDOW", 15*time.Minute),
			LockDuration: getDuration("LOGIN_LOCKOUT_DURATION", 15*time.Minute),
		},
		Log: Log{
			Format: getEnv("LOG_FORMAT", "json"),
			Level:  getEnv("LOG_LEVEL", "info"),
		},
	}
	return cfg, cfg.Validate()
}

// Validate reports every missing or malformed required setting at once.
func (c Config) Validate() error {
	var errs []error
	if c.Ledger.RPCURL == "" {
		errs = append(errs, errors.New("LEDGER_RPC_URL is required"))
	}
	if c.Ledger.PrivateKeyHex == "" {
		errs = append(errs, errors.New("LEDGER_PRIVATE_KEY is required"))
	}
	if c.Ledger.ContractAddress == "" {
		errs = append(errs, errors.New("LEDGER_CONTRACT_ADDRESS is required"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}
	if c.Ledger.PollInterval <= 0 {
		errs = append(errs, errors.New("LEDGER_POLL_INTERVAL must be positive"))
	}
	return errors.Join(errs...)
}

func parseChainIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range splitList(raw) {
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("LEDGER_AUTOPROVISION_CHAIN_IDS: invalid chain id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}
