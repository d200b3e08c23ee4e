package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

type Config struct {
	Port    string
	GinMode string

	JWTSecret   string
	TokenTTL    time.Duration
	AdminEmails []string

	Store             string
	MongoURI          string
	MongoDatabase     string
	MongoTransactions bool

	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	CompanyCacheTTL time.Duration

	NATSURL         string
	NATSConnTimeout time.Duration

	CloudinaryURL string

	VAPIDPublicKey  string
	VAPIDPrivateKey string
	VAPIDSubscriber string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	OTELCollectorURL string

	BoardRefreshInterval time.Duration
	CORSOrigins          []string
}

// LoadConfig reads .env (when present) and the process environment.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:    getEnvString("PORT", "8080"),
		GinMode: getEnvString("GIN_MODE", "debug"),

		JWTSecret:   getEnvString("JWT_SECRET", ""),
		TokenTTL:    getEnvDuration("TOKEN_TTL", 24*time.Hour),
		AdminEmails: getEnvList("ADMIN_EMAILS", nil),

		Store:             getEnvString("STORE", StoreMongo),
		MongoURI:          getEnvString("MONGODB_URI", ""),
		MongoDatabase:     getEnvString("MONGODB_DATABASE", "jobboard"),
		MongoTransactions: getEnvBool("MONGO_TRANSACTIONS", true),

		RedisAddr:       getEnvString("REDIS_ADDR", ""),
		RedisPassword:   getEnvString("REDIS_PASSWORD", ""),
		RedisDB:         getEnvInt("REDIS_DB", 0),
		CompanyCacheTTL: getEnvDuration("COMPANY_CACHE_TTL", 0),

		NATSURL:         getEnvString("NATS_URL", ""),
		NATSConnTimeout: getEnvDuration("NATS_CONN_TIMEOUT", 10*time.Second),

		CloudinaryURL: getEnvString("CLOUDINARY_URL", ""),

		VAPIDPublicKey:  getEnvString("VAPID_PUBLIC_KEY", ""),
		VAPIDPrivateKey: getEnvString("VAPID_PRIVATE_KEY", ""),
		VAPIDSubscriber: getEnvString("VAPID_SUBSCRIBER", "mailto:admin@jobboard.local"),

		GoogleClientID:     getEnvString("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnvString("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnvString("GOOGLE_REDIRECT_URL", "http://localhost:8080/api/google/callback"),

		OTELCollectorURL: getEnvString("OTEL_COLLECTOR_URL", ""),

		BoardRefreshInterval: getEnvDuration("BOARD_REFRESH_INTERVAL", 5*time.Minute),
		CORSOrigins: getEnvList("CORS_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:5173",
			"http://127.0.0.1:3000",
		}),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set")
	}
	switch c.Store {
	case StoreMongo:
		if c.MongoURI == "" {
			return errors.New("MONGODB_URI must be set when STORE=mongo")
		}
	case StoreMemory:
	default:
		return errors.New("STORE must be one of: mongo, memory")
	}
	return nil
}

func (c *Config) IsRelease() bool {
	return c.GinMode == "release"
}

// IsAdminEmail reports whether email is allowed to hold the admin role.
func (c *Config) IsAdminEmail(email string) bool {
	for _, e := range c.AdminEmails {
		if strings.EqualFold(e, email) {
			return true
		}
	}
	return false
}

func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
