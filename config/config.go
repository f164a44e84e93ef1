package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port    string
	GinMode string
	AppEnv  string

	// MongoDB Atlas
	MongoDBURI        string
	MongoDBName       string
	EpisodeCollection string

	// Site
	ShellPath string
	SiteName  string
	SiteURL   string

	// Episode list cache
	EpisodeCache    bool
	EpisodeCacheTTL time.Duration

	SitemapIncludeCategories bool

	// Firebase Storage (optional, branding assets)
	FirebaseCredentials   string
	FirebaseStorageBucket string
	OGBackgroundObject    string
}

// Load reads configuration from the environment, after loading .env files if present.
func Load(envFiles ...string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load(envFiles...)

	cfg := &Config{
		Port:                     getEnv("PORT", "3000"),
		GinMode:                  getEnv("GIN_MODE", "release"),
		AppEnv:                   getEnv("APP_ENV", "production"),
		MongoDBURI:               getEnv("MONGODB_ATLAS_URI", ""),
		MongoDBName:              getEnv("MONGODB_ATLAS_DBNAME", "angle"),
		EpisodeCollection:        getEnv("MONGODB_EPISODES_COLLECTION", "episodes"),
		ShellPath:                getEnv("SHELL_PATH", "public/index.html"),
		SiteName:                 getEnv("SITE_NAME", "Angle"),
		SiteURL:                  getEnv("SITE_URL", ""),
		EpisodeCache:             getEnvBool("EPISODE_CACHE", true),
		EpisodeCacheTTL:          getEnvDuration("EPISODE_CACHE_TTL", 5*time.Minute),
		SitemapIncludeCategories: getEnvBool("SITEMAP_INCLUDE_CATEGORIES", true),
		FirebaseCredentials:      getEnv("FIREBASE_CREDENTIALS", ""),
		FirebaseStorageBucket:    getEnv("FIREBASE_STORAGE_BUCKET", ""),
		OGBackgroundObject:       getEnv("OG_BACKGROUND_OBJECT", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.MongoDBURI == "" {
		return fmt.Errorf("MONGODB_ATLAS_URI is required")
	}
	if c.ShellPath == "" {
		return fmt.Errorf("SHELL_PATH must not be empty")
	}
	if c.EpisodeCacheTTL <= 0 {
		return fmt.Errorf("EPISODE_CACHE_TTL must be positive, got %s", c.EpisodeCacheTTL)
	}
	return nil
}

// IsDevelopment reports whether diagnostic error bodies should be returned.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// HasFirebase checks if Firebase asset storage is configured
func (c *Config) HasFirebase() bool {
	return c.FirebaseCredentials != "" && c.FirebaseStorageBucket != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
