package newsroom

import (
	"fmt"
	"newsroom/internal/core"
)

// Config represents newsroom feature configuration
type Config struct {
	Enabled              bool
	UserAgent            string
	FetchTimeout         int
	MaxConcurrentFetches int
	MaxArticles          int
	OpenAIKey            string
	Model                string
	DefaultFeeds         []string
	DefaultKeywords      []string
}

// NewConfig creates newsroom config from core config
func NewConfig(coreConfig *core.Config) *Config {
	newsroom := coreConfig.Features.Newsroom
	return &Config{
		Enabled:              newsroom.Enabled,
		UserAgent:            newsroom.UserAgent,
		FetchTimeout:         newsroom.FetchTimeout,
		MaxConcurrentFetches: newsroom.MaxConcurrentFetches,
		MaxArticles:          newsroom.MaxArticles,
		OpenAIKey:            newsroom.OpenAIKey,
		Model:                newsroom.Model,
		DefaultFeeds:         newsroom.DefaultFeeds,
		DefaultKeywords:      newsroom.DefaultKeywords,
	}
}

// Validate validates the newsroom configuration
func (c *Config) Validate() error {
	if c.FetchTimeout < 1 || c.FetchTimeout > 300 {
		return fmt.Errorf("fetch timeout must be between 1 and 300 seconds")
	}

	if c.MaxConcurrentFetches < 1 || c.MaxConcurrentFetches > 20 {
		return fmt.Errorf("max concurrent fetches must be between 1 and 20")
	}

	if c.MaxArticles < 1 || c.MaxArticles > 100 {
		return fmt.Errorf("max articles must be between 1 and 100")
	}

	if c.Enabled && c.OpenAIKey == "" {
		return fmt.Errorf("OpenAI API key is required when the newsroom feature is enabled")
	}

	return nil
}
