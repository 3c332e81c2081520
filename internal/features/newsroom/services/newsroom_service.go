package services

import (
	"context"
	"fmt"
	"time"

	"newsroom/internal/core"
	"newsroom/internal/docstore"
)

// Collector gathers articles for a set of feeds and keywords.
type Collector interface {
	Collect(ctx context.Context, feeds, keywords []string) ([]docstore.Article, error)
}

// Analyst writes a briefing from collected articles.
type Analyst interface {
	WriteBriefing(ctx context.Context, articles []docstore.Article) (string, error)
}

// NewsroomService orchestrates every newsroom operation as a load/commit
// pair against the shared document: the document is fetched fresh at the
// start of each operation and each commit carries exactly one mutator.
type NewsroomService struct {
	store      *docstore.Store
	collector  Collector
	analyst    Analyst
	logger     *core.Logger
	namespace  string
	defaultDoc docstore.Document
	now        func() time.Time
}

// NewNewsroomService creates a new newsroom service
func NewNewsroomService(store *docstore.Store, collector Collector, analyst Analyst, logger *core.Logger, namespace string, defaultDoc docstore.Document) *NewsroomService {
	return &NewsroomService{
		store:      store,
		collector:  collector,
		analyst:    analyst,
		logger:     logger,
		namespace:  namespace,
		defaultDoc: defaultDoc,
		now:        time.Now,
	}
}

// Document returns the current state of the shared document.
func (s *NewsroomService) Document(ctx context.Context) (docstore.Document, error) {
	doc, _, err := s.store.Load(ctx, s.namespace, s.defaultDoc)
	return doc, err
}

// AddFeed subscribes a feed URL and returns the updated document.
func (s *NewsroomService) AddFeed(ctx context.Context, url string) (docstore.Document, error) {
	return s.commit(ctx, AddFeed(url))
}

// RemoveFeed unsubscribes a feed URL and returns the updated document.
func (s *NewsroomService) RemoveFeed(ctx context.Context, url string) (docstore.Document, error) {
	return s.commit(ctx, RemoveFeed(url))
}

// AddKeyword tracks a keyword and returns the updated document.
func (s *NewsroomService) AddKeyword(ctx context.Context, keyword string) (docstore.Document, error) {
	return s.commit(ctx, AddKeyword(keyword))
}

// RemoveKeyword untracks a keyword and returns the updated document.
func (s *NewsroomService) RemoveKeyword(ctx context.Context, keyword string) (docstore.Document, error) {
	return s.commit(ctx, RemoveKeyword(keyword))
}

// RecordVisit bumps the visitor counter and returns the new count.
func (s *NewsroomService) RecordVisit(ctx context.Context) (int, error) {
	doc, err := s.commit(ctx, IncrementVisitors())
	if err != nil {
		return 0, err
	}
	return doc.Visitors, nil
}

// CollectToday gathers today's articles from the currently subscribed feeds
// filtered by the tracked keywords. Collection has no side effect on the
// document; articles are persisted only as the sources of a briefing.
func (s *NewsroomService) CollectToday(ctx context.Context) (string, []docstore.Article, error) {
	doc, _, err := s.store.Load(ctx, s.namespace, s.defaultDoc)
	if err != nil {
		return "", nil, err
	}

	articles, err := s.collector.Collect(ctx, doc.Feeds, doc.Keywords)
	if err != nil {
		return "", nil, err
	}
	return s.today(), articles, nil
}

// GenerateBriefing collects today's articles, writes a briefing from them
// and commits it under today's date, replacing any earlier briefing for the
// same date wholesale.
func (s *NewsroomService) GenerateBriefing(ctx context.Context) (string, docstore.Report, error) {
	date, articles, err := s.CollectToday(ctx)
	if err != nil {
		return "", docstore.Report{}, err
	}
	if len(articles) == 0 {
		return "", docstore.Report{}, core.NewValidationError("no articles collected, check feeds and keywords", nil)
	}

	content, err := s.analyst.WriteBriefing(ctx, articles)
	if err != nil {
		return "", docstore.Report{}, fmt.Errorf("failed to write briefing: %w", err)
	}

	report := docstore.Report{
		Content:   content,
		Sources:   articles,
		CreatedAt: s.now().UTC(),
	}
	if _, err := s.commit(ctx, PutReport(date, report)); err != nil {
		return "", docstore.Report{}, err
	}

	s.logger.Info("Committed briefing", "date", date, "sources", len(articles))
	return date, report, nil
}

// BriefingFor returns the stored briefing for an ISO date.
func (s *NewsroomService) BriefingFor(ctx context.Context, date string) (docstore.Report, error) {
	doc, _, err := s.store.Load(ctx, s.namespace, s.defaultDoc)
	if err != nil {
		return docstore.Report{}, err
	}

	report, ok := doc.Reports[date]
	if !ok {
		return docstore.Report{}, core.NewNotFoundError(fmt.Sprintf("no briefing for %s", date), nil)
	}
	return report, nil
}

// commit runs one mutator through a fresh load/commit cycle.
func (s *NewsroomService) commit(ctx context.Context, mutate docstore.Mutator) (docstore.Document, error) {
	doc, token, err := s.store.Load(ctx, s.namespace, s.defaultDoc)
	if err != nil {
		return docstore.Document{}, err
	}

	committed, _, err := s.store.Commit(ctx, s.namespace, doc, token, mutate)
	if err != nil {
		return docstore.Document{}, err
	}
	return committed, nil
}

func (s *NewsroomService) today() string {
	return s.now().UTC().Format("2006-01-02")
}
