package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type Config struct {
	Port                    string
	Env                     string
	FirebaseCredentialsPath string
	FirebaseStorageBucket   string
	PostgresConnStr         string
	SQLitePath              string
	MongoURI                string
	MongoDatabase           string
	ContentStore            string
	RedisAddr               string
	RedisPassword           string
	RedisDB                 int
	ProfileCacheTTL         time.Duration
	JWTSecret               string
	SessionTTL              time.Duration
	FeedLimit               int
	RateLimit               float64
	AllowedOrigins          []string
}

const (
	ContentStoreMongo = "mongo"
	ContentStoreSQL   = "sql"
)

// DefaultJWTSecret is the development signing key. Production refuses to start with it.
const DefaultJWTSecret = "supersecretjwtkey"

var ErrInsecureJWTSecret = errors.New("JWT_SECRET must be set to a non-default value in production")

// Load reads the configuration from the environment, after loading a .env file when one exists.
func Load() *Config {
	// .env is optional; deployed environments set variables directly.
	_ = godotenv.Load()
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetTypeByDefaultValue(true)
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("FIREBASE_CREDENTIALS_PATH", "./firebase_credentials.json")
	v.SetDefault("FIREBASE_STORAGE_BUCKET", "")
	v.SetDefault("POSTGRES_CONN_STR", "")
	v.SetDefault("SQLITE_PATH", "preschool.db")
	v.SetDefault("MONGO_URI", "")
	v.SetDefault("MONGO_DATABASE", "preschool")
	v.SetDefault("CONTENT_STORE", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("PROFILE_CACHE_TTL", 5*time.Minute)
	v.SetDefault("JWT_SECRET", DefaultJWTSecret)
	v.SetDefault("SESSION_TTL", 72*time.Hour)
	v.SetDefault("FEED_LIMIT", 50)
	v.SetDefault("RATE_LIMIT", 20.0)
	v.SetDefault("ALLOWED_ORIGINS", "*")
	v.AutomaticEnv()
	return v
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) *Config {
	cfg := &Config{
		Port:                    v.GetString("PORT"),
		Env:                     v.GetString("ENV"),
		FirebaseCredentialsPath: v.GetString("FIREBASE_CREDENTIALS_PATH"),
		FirebaseStorageBucket:   v.GetString("FIREBASE_STORAGE_BUCKET"),
		PostgresConnStr:         v.GetString("POSTGRES_CONN_STR"),
		SQLitePath:              v.GetString("SQLITE_PATH"),
		MongoURI:                v.GetString("MONGO_URI"),
		MongoDatabase:           v.GetString("MONGO_DATABASE"),
		ContentStore:            strings.ToLower(v.GetString("CONTENT_STORE")),
		RedisAddr:               v.GetString("REDIS_ADDR"),
		RedisPassword:           v.GetString("REDIS_PASSWORD"),
		RedisDB:                 v.GetInt("REDIS_DB"),
		ProfileCacheTTL:         v.GetDuration("PROFILE_CACHE_TTL"),
		JWTSecret:               v.GetString("JWT_SECRET"),
		SessionTTL:              v.GetDuration("SESSION_TTL"),
		FeedLimit:               v.GetInt("FEED_LIMIT"),
		RateLimit:               v.GetFloat64("RATE_LIMIT"),
		AllowedOrigins:          splitList(v.GetString("ALLOWED_ORIGINS")),
	}
	if cfg.ContentStore == "" {
		if cfg.MongoURI != "" {
			cfg.ContentStore = ContentStoreMongo
		} else {
			cfg.ContentStore = ContentStoreSQL
		}
	}
	if cfg.FeedLimit <= 0 {
		cfg.FeedLimit = 50
	}
	return cfg
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate rejects settings that are only acceptable outside production.
func (c *Config) Validate() error {
	if c.IsProduction() && (c.JWTSecret == "" || c.JWTSecret == DefaultJWTSecret) {
		return ErrInsecureJWTSecret
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
