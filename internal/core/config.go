package core

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents the main configuration for the newsroom service
type Config struct {
	Server   ServerConfig  `json:"server"`
	Store    StoreConfig   `json:"store"`
	Features FeatureConfig `json:"features"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Port int    `json:"port"`
	Host string `json:"host"`
}

// StoreConfig selects and configures the document store backend
type StoreConfig struct {
	Backend    string            `json:"backend"`
	Namespace  string            `json:"namespace"`
	RetryDelay time.Duration     `json:"retry_delay"`
	GitHub     GitHubStoreConfig `json:"github"`
	GCS        GCSStoreConfig    `json:"gcs"`
	Local      LocalStoreConfig  `json:"local"`
}

// GitHubStoreConfig configures the GitHub contents backend
type GitHubStoreConfig struct {
	Token   string `json:"-"`
	Repo    string `json:"repo"`
	BaseURL string `json:"base_url"`
}

// GCSStoreConfig configures the Google Cloud Storage backend
type GCSStoreConfig struct {
	Bucket          string `json:"bucket"`
	CredentialsFile string `json:"credentials_file"`
}

// LocalStoreConfig configures the local filesystem backend
type LocalStoreConfig struct {
	Dir string `json:"dir"`
}

// FeatureConfig contains feature-specific configuration
type FeatureConfig struct {
	Newsroom NewsroomConfig `json:"newsroom"`
}

// NewsroomConfig contains newsroom feature configuration
type NewsroomConfig struct {
	Enabled              bool     `json:"enabled"`
	UserAgent            string   `json:"user_agent"`
	FetchTimeout         int      `json:"fetch_timeout"`
	MaxConcurrentFetches int      `json:"max_concurrent_fetches"`
	MaxArticles          int      `json:"max_articles"`
	OpenAIKey            string   `json:"-"`
	Model                string   `json:"model"`
	DefaultFeeds         []string `json:"default_feeds"`
	DefaultKeywords      []string `json:"default_keywords"`
}

// Supported store backends
const (
	BackendGitHub = "github"
	BackendGCS    = "gcs"
	BackendLocal  = "local"
	BackendMemory = "memory"
)

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Port: getEnvAsInt("NEWSROOM_PORT", 4000),
			Host: getEnvOrDefault("NEWSROOM_HOST", "0.0.0.0"),
		},
		Store: StoreConfig{
			Backend:    getEnvOrDefault("NEWSROOM_STORE_BACKEND", BackendLocal),
			Namespace:  getEnvOrDefault("NEWSROOM_STORE_NAMESPACE", "data.json"),
			RetryDelay: time.Duration(getEnvAsInt("NEWSROOM_STORE_RETRY_DELAY_MS", 150)) * time.Millisecond,
			GitHub: GitHubStoreConfig{
				Token:   getEnvOrDefault("NEWSROOM_GITHUB_TOKEN", ""),
				Repo:    getEnvOrDefault("NEWSROOM_GITHUB_REPO", ""),
				BaseURL: getEnvOrDefault("NEWSROOM_GITHUB_BASE_URL", ""),
			},
			GCS: GCSStoreConfig{
				Bucket:          getEnvOrDefault("NEWSROOM_GCS_BUCKET", ""),
				CredentialsFile: getEnvOrDefault("NEWSROOM_GCS_CREDENTIALS_FILE", ""),
			},
			Local: LocalStoreConfig{
				Dir: getEnvOrDefault("NEWSROOM_LOCAL_DIR", "./newsroom-data"),
			},
		},
		Features: FeatureConfig{
			Newsroom: NewsroomConfig{
				Enabled:              getEnvAsBool("NEWSROOM_ENABLE_NEWSROOM", true),
				UserAgent:            getEnvOrDefault("NEWSROOM_USER_AGENT", "Newsroom RSS Collector/1.0"),
				FetchTimeout:         getEnvAsInt("NEWSROOM_FETCH_TIMEOUT", 30),
				MaxConcurrentFetches: getEnvAsInt("NEWSROOM_MAX_CONCURRENT_FETCHES", 5),
				MaxArticles:          getEnvAsInt("NEWSROOM_MAX_ARTICLES", 30),
				OpenAIKey:            getEnvOrDefault("NEWSROOM_OPENAI_API_KEY", ""),
				Model:                getEnvOrDefault("NEWSROOM_OPENAI_MODEL", "gpt-4o-mini"),
				DefaultFeeds: getEnvAsList("NEWSROOM_DEFAULT_FEEDS", []string{
					"https://news.google.com/rss/search?q=finance",
				}),
				DefaultKeywords: getEnvAsList("NEWSROOM_DEFAULT_KEYWORDS", []string{}),
			},
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Store.Namespace == "" {
		return fmt.Errorf("store namespace is required")
	}

	switch c.Store.Backend {
	case BackendGitHub:
		if c.Store.GitHub.Token == "" {
			return fmt.Errorf("GitHub token is required for the github backend")
		}
		if !strings.Contains(c.Store.GitHub.Repo, "/") {
			return fmt.Errorf("GitHub repo must be in owner/name form, got %q", c.Store.GitHub.Repo)
		}
	case BackendGCS:
		if c.Store.GCS.Bucket == "" {
			return fmt.Errorf("GCS bucket is required for the gcs backend")
		}
	case BackendLocal:
		if c.Store.Local.Dir == "" {
			return fmt.Errorf("local store directory is required for the local backend")
		}
	case BackendMemory:
		// Nothing to configure.
	default:
		return fmt.Errorf("unknown store backend: %q", c.Store.Backend)
	}

	if c.Features.Newsroom.Enabled {
		newsroom := c.Features.Newsroom
		if newsroom.FetchTimeout < 1 || newsroom.FetchTimeout > 300 {
			return fmt.Errorf("fetch timeout must be between 1 and 300 seconds")
		}
		if newsroom.MaxConcurrentFetches < 1 || newsroom.MaxConcurrentFetches > 20 {
			return fmt.Errorf("max concurrent fetches must be between 1 and 20")
		}
		if newsroom.MaxArticles < 1 || newsroom.MaxArticles > 100 {
			return fmt.Errorf("max articles must be between 1 and 100")
		}
		if newsroom.OpenAIKey == "" {
			return fmt.Errorf("OpenAI API key is required when the newsroom feature is enabled")
		}
	}

	return nil
}

// IsFeatureEnabled checks if a feature is enabled
func (c *Config) IsFeatureEnabled(featureName string) bool {
	switch strings.ToLower(featureName) {
	case "newsroom":
		return c.Features.Newsroom.Enabled
	default:
		return false
	}
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
