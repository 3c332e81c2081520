package models

import (
	"time"

	"newsroom/internal/docstore"
)

// CollectorConfig holds configuration for the collector service
type CollectorConfig struct {
	UserAgent            string        `json:"user_agent"`
	Timeout              time.Duration `json:"timeout"`
	MaxConcurrentFetches int           `json:"max_concurrent_fetches"`
	MaxArticles          int           `json:"max_articles"`
}

// FeedRequest is the payload for adding or removing a feed subscription
type FeedRequest struct {
	URL string `json:"url"`
}

// KeywordRequest is the payload for adding or removing a keyword
type KeywordRequest struct {
	Keyword string `json:"keyword"`
}

// Dashboard is the overview returned to the UI: the current document plus
// the dates briefings exist for
type Dashboard struct {
	Feeds       []string `json:"feeds"`
	Keywords    []string `json:"keywords"`
	Visitors    int      `json:"visitors"`
	ReportDates []string `json:"report_dates"`
}

// DocumentResponse wraps the full document for API consumers
type DocumentResponse struct {
	Document docstore.Document `json:"document"`
	Success  bool              `json:"success"`
}

// CollectResponse carries the articles gathered by a collection run
type CollectResponse struct {
	Date     string             `json:"date"`
	Articles []docstore.Article `json:"articles"`
	Success  bool               `json:"success"`
}

// BriefingResponse carries a generated or stored briefing
type BriefingResponse struct {
	Date    string          `json:"date"`
	Report  docstore.Report `json:"report"`
	Success bool            `json:"success"`
}

// VisitResponse reports the visitor count after a visit is recorded
type VisitResponse struct {
	Visitors int  `json:"visitors"`
	Counted  bool `json:"counted"`
	Success  bool `json:"success"`
}
