// Package config loads runtime options from the environment and an optional .env file.
// Command flags override what is loaded here.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

// DefaultAPIBaseURL is the public GitHub REST endpoint.
const DefaultAPIBaseURL = "https://api.github.com/"

// Config holds every runtime option the command needs.
type Config struct {
	GitHubToken string
	APIBaseURL  string
	GraphQLURL  string
	HTTPTimeout time.Duration

	DBPath      string
	StaleTime   time.Duration
	CacheBuster string

	LogLevel string
}

// Load parses the environment (and an optional .env file) into Config.
// A missing .env file is not an error.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		GitHubToken: getEnv("GITHUB_TOKEN", ""),
		APIBaseURL:  getEnv("GITHUB_API_URL", DefaultAPIBaseURL),
		GraphQLURL:  getEnv("GITHUB_GRAPHQL_URL", ""),
		HTTPTimeout: getDuration("REPO_DETAILS_HTTP_TIMEOUT", 0),
		DBPath:      getEnv("REPO_DETAILS_DB", defaultDBPath()),
		StaleTime:   getDuration("REPO_DETAILS_STALE_TIME", 0),
		CacheBuster: getEnv("REPO_DETAILS_CACHE_BUSTER", ""),
		LogLevel:    getEnv("LOG_LEVEL", "debug"),
	}
}

// defaultDBPath places the storage file in the user cache directory,
// falling back to the working directory.
func defaultDBPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "repo-details.db"
	}
	return filepath.Join(dir, "repo-details", "storage.db")
}

// getEnv returns env[key] if set, otherwise defaultVal.
func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// getDuration reads a Go duration string (e.g. "90s") from env, falling back to defaultVal.
func getDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
