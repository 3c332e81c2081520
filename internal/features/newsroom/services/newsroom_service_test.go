package services

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsroom/internal/core"
	"newsroom/internal/docstore"
)

type fakeCollector struct {
	articles  []docstore.Article
	err       error
	lastFeeds []string
	lastWords []string
}

func (f *fakeCollector) Collect(ctx context.Context, feeds, keywords []string) ([]docstore.Article, error) {
	f.lastFeeds = feeds
	f.lastWords = keywords
	return f.articles, f.err
}

type fakeAnalyst struct {
	content string
	err     error
}

func (f *fakeAnalyst) WriteBriefing(ctx context.Context, articles []docstore.Article) (string, error) {
	return f.content, f.err
}

func newServiceUnderTest(t *testing.T, collector Collector, analyst Analyst) *NewsroomService {
	t.Helper()

	store := docstore.New(docstore.NewMemoryBackend(), slog.New(slog.DiscardHandler), docstore.Config{})
	defaultDoc := docstore.NewDocument()
	defaultDoc.Feeds = []string{"https://example.com/rss.xml"}
	defaultDoc.Keywords = []string{"rates"}

	service := NewNewsroomService(store, collector, analyst, core.NewDiscardLogger(), "data.json", defaultDoc)
	service.now = func() time.Time {
		return time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	}
	return service
}

func TestServiceDocumentBootstrapsDefaults(t *testing.T) {
	service := newServiceUnderTest(t, &fakeCollector{}, &fakeAnalyst{})

	doc, err := service.Document(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com/rss.xml"}, doc.Feeds)
	assert.Equal(t, []string{"rates"}, doc.Keywords)
	assert.Zero(t, doc.Visitors)
}

func TestServiceAddAndRemoveFeed(t *testing.T) {
	service := newServiceUnderTest(t, &fakeCollector{}, &fakeAnalyst{})
	ctx := context.Background()

	doc, err := service.AddFeed(ctx, "https://b.example/rss")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com/rss.xml", "https://b.example/rss"}, doc.Feeds)

	doc, err = service.RemoveFeed(ctx, "https://example.com/rss.xml")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://b.example/rss"}, doc.Feeds)

	// The change persisted, not just the returned copy.
	doc, err = service.Document(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://b.example/rss"}, doc.Feeds)
}

func TestServiceAddFeedValidation(t *testing.T) {
	service := newServiceUnderTest(t, &fakeCollector{}, &fakeAnalyst{})

	_, err := service.AddFeed(context.Background(), "not-a-url")
	var appErr *core.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, core.ErrCodeValidation, appErr.Code)
}

func TestServiceKeywords(t *testing.T) {
	service := newServiceUnderTest(t, &fakeCollector{}, &fakeAnalyst{})
	ctx := context.Background()

	doc, err := service.AddKeyword(ctx, "earnings")
	require.NoError(t, err)
	assert.Equal(t, []string{"rates", "earnings"}, doc.Keywords)

	doc, err = service.RemoveKeyword(ctx, "rates")
	require.NoError(t, err)
	assert.Equal(t, []string{"earnings"}, doc.Keywords)
}

func TestServiceRecordVisit(t *testing.T) {
	service := newServiceUnderTest(t, &fakeCollector{}, &fakeAnalyst{})
	ctx := context.Background()

	count, err := service.RecordVisit(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = service.RecordVisit(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestServiceCollectTodayUsesStoredFeedsAndKeywords(t *testing.T) {
	collector := &fakeCollector{articles: testArticles()}
	service := newServiceUnderTest(t, collector, &fakeAnalyst{})
	ctx := context.Background()

	_, err := service.AddKeyword(ctx, "earnings")
	require.NoError(t, err)

	date, articles, err := service.CollectToday(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", date)
	assert.Len(t, articles, 2)
	assert.Equal(t, []string{"https://example.com/rss.xml"}, collector.lastFeeds)
	assert.Equal(t, []string{"rates", "earnings"}, collector.lastWords)
}

func TestServiceCollectTodayDoesNotTouchDocument(t *testing.T) {
	service := newServiceUnderTest(t, &fakeCollector{articles: testArticles()}, &fakeAnalyst{})
	ctx := context.Background()

	before, err := service.Document(ctx)
	require.NoError(t, err)

	_, _, err = service.CollectToday(ctx)
	require.NoError(t, err)

	after, err := service.Document(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestServiceGenerateBriefing(t *testing.T) {
	collector := &fakeCollector{articles: testArticles()}
	analyst := &fakeAnalyst{content: "# Daily Briefing\nMarkets were calm."}
	service := newServiceUnderTest(t, collector, analyst)
	ctx := context.Background()

	date, report, err := service.GenerateBriefing(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", date)
	assert.Equal(t, "# Daily Briefing\nMarkets were calm.", report.Content)
	assert.Equal(t, testArticles(), report.Sources)
	assert.Equal(t, time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC), report.CreatedAt)

	stored, err := service.BriefingFor(ctx, "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, report, stored)
}

func TestServiceGenerateBriefingReplacesSameDate(t *testing.T) {
	collector := &fakeCollector{articles: testArticles()}
	analyst := &fakeAnalyst{content: "first run"}
	service := newServiceUnderTest(t, collector, analyst)
	ctx := context.Background()

	_, _, err := service.GenerateBriefing(ctx)
	require.NoError(t, err)

	analyst.content = "second run"
	_, _, err = service.GenerateBriefing(ctx)
	require.NoError(t, err)

	stored, err := service.BriefingFor(ctx, "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, "second run", stored.Content)

	doc, err := service.Document(ctx)
	require.NoError(t, err)
	assert.Len(t, doc.Reports, 1)
}

func TestServiceGenerateBriefingNoArticles(t *testing.T) {
	service := newServiceUnderTest(t, &fakeCollector{}, &fakeAnalyst{})

	_, _, err := service.GenerateBriefing(context.Background())
	var appErr *core.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, core.ErrCodeValidation, appErr.Code)

	// Nothing was committed.
	doc, docErr := service.Document(context.Background())
	require.NoError(t, docErr)
	assert.Empty(t, doc.Reports)
}

func TestServiceGenerateBriefingAnalystFailure(t *testing.T) {
	boom := errors.New("model unavailable")
	service := newServiceUnderTest(t, &fakeCollector{articles: testArticles()}, &fakeAnalyst{err: boom})

	_, _, err := service.GenerateBriefing(context.Background())
	require.ErrorIs(t, err, boom)

	doc, docErr := service.Document(context.Background())
	require.NoError(t, docErr)
	assert.Empty(t, doc.Reports)
}

func TestServiceBriefingForMissingDate(t *testing.T) {
	service := newServiceUnderTest(t, &fakeCollector{}, &fakeAnalyst{})

	_, err := service.BriefingFor(context.Background(), "1999-12-31")
	var appErr *core.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, core.ErrCodeNotFound, appErr.Code)
}
