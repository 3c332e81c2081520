package services

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"newsroom/internal/core"
	"newsroom/internal/docstore"
	"newsroom/internal/features/newsroom/models"
)

// rssFeed is the subset of an RSS 2.0 document the collector reads
type rssFeed struct {
	XMLName xml.Name `xml:"rss"`
	Version string   `xml:"version,attr"`
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

// rssItem represents an RSS item/article
type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
}

// atomFeed is the subset of an Atom document the collector reads
type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Entries []atomEntry `xml:"entry"`
}

// atomEntry represents an entry in Atom feeds
type atomEntry struct {
	Title   string     `xml:"title"`
	Links   []atomLink `xml:"link"`
	Summary string     `xml:"summary"`
	Content string     `xml:"content"`
	Updated string     `xml:"updated"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
}

// CollectorService gathers articles from the subscribed feeds, filtered by
// the tracked keywords. Feeds that fail to fetch or parse are logged and
// skipped so one broken feed never sinks a collection run.
type CollectorService struct {
	client *http.Client
	logger *core.Logger
	config *models.CollectorConfig
}

// NewCollectorService creates a new collector service
func NewCollectorService(logger *core.Logger, config *models.CollectorConfig) *CollectorService {
	return &CollectorService{
		client: &http.Client{Timeout: config.Timeout},
		logger: logger,
		config: config,
	}
}

// Collect fetches every feed concurrently and returns the matching articles
// in feed order, capped at the configured maximum. An article matches when
// any keyword occurs in its title or summary; an empty keyword list keeps
// everything.
func (c *CollectorService) Collect(ctx context.Context, feeds, keywords []string) ([]docstore.Article, error) {
	// Each goroutine owns its own slot, so results stay in feed order.
	perFeed := make([][]docstore.Article, len(feeds))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.config.MaxConcurrentFetches)

	for i, feedURL := range feeds {
		g.Go(func() error {
			articles, err := c.fetchFeed(gctx, feedURL)
			if err != nil {
				c.logger.Warn("Skipping feed", "url", feedURL, "error", err)
				return nil
			}
			perFeed[i] = articles
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	collected := make([]docstore.Article, 0, c.config.MaxArticles)
	for _, articles := range perFeed {
		for _, article := range articles {
			if !matchesKeywords(article, keywords) {
				continue
			}
			collected = append(collected, article)
			if len(collected) >= c.config.MaxArticles {
				c.logger.Info("Collection capped", "max_articles", c.config.MaxArticles)
				return collected, nil
			}
		}
	}

	c.logger.Info("Collected articles", "feeds", len(feeds), "articles", len(collected))
	return collected, nil
}

// fetchFeed downloads and parses one feed as RSS or Atom.
func (c *CollectorService) fetchFeed(ctx context.Context, feedURL string) ([]docstore.Article, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read feed body: %w", err)
	}

	return parseFeed(body)
}

// parseFeed tries RSS first and falls back to Atom.
func parseFeed(content []byte) ([]docstore.Article, error) {
	var rss rssFeed
	if err := xml.Unmarshal(content, &rss); err == nil && len(rss.Channel.Items) > 0 {
		articles := make([]docstore.Article, 0, len(rss.Channel.Items))
		for _, item := range rss.Channel.Items {
			articles = append(articles, docstore.Article{
				Title:       strings.TrimSpace(item.Title),
				Link:        strings.TrimSpace(item.Link),
				PublishedAt: parseFeedDate(item.PubDate),
				Summary:     strings.TrimSpace(item.Description),
			})
		}
		return articles, nil
	}

	var atom atomFeed
	if err := xml.Unmarshal(content, &atom); err == nil && len(atom.Entries) > 0 {
		articles := make([]docstore.Article, 0, len(atom.Entries))
		for _, entry := range atom.Entries {
			summary := entry.Summary
			if summary == "" {
				summary = entry.Content
			}
			articles = append(articles, docstore.Article{
				Title:       strings.TrimSpace(entry.Title),
				Link:        atomAlternateLink(entry.Links),
				PublishedAt: parseFeedDate(entry.Updated),
				Summary:     strings.TrimSpace(summary),
			})
		}
		return articles, nil
	}

	return nil, fmt.Errorf("unable to parse feed as RSS or Atom")
}

func atomAlternateLink(links []atomLink) string {
	for _, link := range links {
		if link.Rel == "" || link.Rel == "alternate" {
			return link.Href
		}
	}
	return ""
}

// matchesKeywords reports whether any keyword occurs in the article's title
// or summary. No keywords means collect everything.
func matchesKeywords(article docstore.Article, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}
	haystack := strings.ToLower(article.Title + " " + article.Summary)
	for _, keyword := range keywords {
		if strings.Contains(haystack, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}

// parseFeedDate tries the date formats feeds commonly use; an unparseable
// date comes back as the zero time rather than failing the article.
func parseFeedDate(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}

	formats := []string{
		time.RFC1123Z,
		time.RFC1123,
		time.RFC822Z,
		time.RFC822,
		time.RFC3339,
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05",
		"Mon, 02 Jan 2006 15:04:05 MST",
		"02 Jan 2006 15:04:05 MST",
	}
	for _, format := range formats {
		if t, err := time.Parse(format, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
