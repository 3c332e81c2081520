package newsroom

import (
	"context"
	"time"

	"newsroom/internal/core"
	"newsroom/internal/docstore"
	"newsroom/internal/features/newsroom/handlers"
	"newsroom/internal/features/newsroom/models"
	"newsroom/internal/features/newsroom/services"
)

// Feature represents the AI newsroom feature: shared feed and keyword
// management, news collection and daily briefing generation on top of the
// versioned document store.
type Feature struct {
	*core.BaseFeature
	config   *Config
	service  *services.NewsroomService
	handlers *handlers.Handlers
}

// NewFeature creates a new newsroom feature
func NewFeature(logger *core.Logger, store *docstore.Store, namespace string, config *Config) *Feature {
	collectorConfig := &models.CollectorConfig{
		UserAgent:            config.UserAgent,
		Timeout:              time.Duration(config.FetchTimeout) * time.Second,
		MaxConcurrentFetches: config.MaxConcurrentFetches,
		MaxArticles:          config.MaxArticles,
	}
	featureLogger := logger.ForFeature("newsroom")
	collector := services.NewCollectorService(featureLogger, collectorConfig)
	analyst := services.NewAnalystService(featureLogger, config.OpenAIKey, config.Model)

	defaultDoc := docstore.NewDocument()
	defaultDoc.Feeds = append(defaultDoc.Feeds, config.DefaultFeeds...)
	defaultDoc.Keywords = append(defaultDoc.Keywords, config.DefaultKeywords...)

	service := services.NewNewsroomService(store, collector, analyst, featureLogger, namespace, defaultDoc)

	return &Feature{
		BaseFeature: core.NewBaseFeature("newsroom", "AI Financial Newsroom", config.Enabled, logger, store, config),
		config:      config,
		service:     service,
		handlers:    handlers.NewHandlers(featureLogger, service),
	}
}

// Init initializes the newsroom feature
func (f *Feature) Init(ctx context.Context) error {
	if err := f.BaseFeature.Init(ctx); err != nil {
		return err
	}

	if err := f.config.Validate(); err != nil {
		return core.NewFeatureError("newsroom", "invalid configuration", err)
	}

	f.Logger().Info("Newsroom feature initialized successfully")
	return nil
}

// Routes returns the HTTP routes for the newsroom feature
func (f *Feature) Routes() []core.Route {
	return []core.Route{
		// Dashboard and document state
		{Method: "GET", Path: "/newsroom", Handler: f.handlers.GetDashboard},
		{Method: "GET", Path: "/newsroom/document", Handler: f.handlers.GetDocument},

		// Feed management
		{Method: "POST", Path: "/newsroom/feeds", Handler: f.handlers.AddFeed},
		{Method: "DELETE", Path: "/newsroom/feeds", Handler: f.handlers.RemoveFeed},

		// Keyword management
		{Method: "POST", Path: "/newsroom/keywords", Handler: f.handlers.AddKeyword},
		{Method: "DELETE", Path: "/newsroom/keywords", Handler: f.handlers.RemoveKeyword},

		// Visits
		{Method: "POST", Path: "/newsroom/visits", Handler: f.handlers.RecordVisit},

		// Collection and briefings
		{Method: "POST", Path: "/newsroom/collect", Handler: f.handlers.CollectNews},
		{Method: "POST", Path: "/newsroom/briefings", Handler: f.handlers.GenerateBriefing},
		{Method: "GET", Path: "/newsroom/briefings/{date}", Handler: f.handlers.GetBriefing},
	}
}

// Service returns the newsroom service
func (f *Feature) Service() *services.NewsroomService {
	return f.service
}
