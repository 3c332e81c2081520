package services

import (
	"strings"
	"time"

	"newsroom/internal/core"
	"newsroom/internal/docstore"
)

// The mutators below are the only way newsroom state changes. Each one is a
// pure function of the document it receives, so the store can re-apply it to
// freshly loaded state after a version conflict: an increment reads its base
// from the argument, an insert checks presence against the argument, never
// against an older snapshot.

// AddFeed inserts a feed URL if it is not already subscribed.
func AddFeed(url string) docstore.Mutator {
	return func(doc docstore.Document) (docstore.Document, error) {
		trimmed := strings.TrimSpace(url)
		if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
			return docstore.Document{}, core.NewValidationError("feed URL must start with http:// or https://", nil)
		}
		if doc.HasFeed(trimmed) {
			return doc, nil
		}
		doc.Feeds = append(doc.Feeds, trimmed)
		return doc, nil
	}
}

// RemoveFeed deletes a feed URL; removing an absent feed is a no-op.
func RemoveFeed(url string) docstore.Mutator {
	return func(doc docstore.Document) (docstore.Document, error) {
		trimmed := strings.TrimSpace(url)
		kept := doc.Feeds[:0]
		for _, f := range doc.Feeds {
			if f != trimmed {
				kept = append(kept, f)
			}
		}
		doc.Feeds = kept
		return doc, nil
	}
}

// AddKeyword inserts a trimmed keyword if it is not already tracked.
func AddKeyword(keyword string) docstore.Mutator {
	return func(doc docstore.Document) (docstore.Document, error) {
		trimmed := strings.TrimSpace(keyword)
		if trimmed == "" {
			return docstore.Document{}, core.NewValidationError("keyword must not be empty", nil)
		}
		if doc.HasKeyword(trimmed) {
			return doc, nil
		}
		doc.Keywords = append(doc.Keywords, trimmed)
		return doc, nil
	}
}

// RemoveKeyword deletes a keyword; removing an absent keyword is a no-op.
func RemoveKeyword(keyword string) docstore.Mutator {
	return func(doc docstore.Document) (docstore.Document, error) {
		trimmed := strings.TrimSpace(keyword)
		kept := doc.Keywords[:0]
		for _, k := range doc.Keywords {
			if k != trimmed {
				kept = append(kept, k)
			}
		}
		doc.Keywords = kept
		return doc, nil
	}
}

// IncrementVisitors bumps the visitor counter by one.
func IncrementVisitors() docstore.Mutator {
	return func(doc docstore.Document) (docstore.Document, error) {
		doc.Visitors++
		return doc, nil
	}
}

// PutReport stores a report under an ISO date key, replacing any existing
// report for that date wholesale.
func PutReport(date string, report docstore.Report) docstore.Mutator {
	return func(doc docstore.Document) (docstore.Document, error) {
		if _, err := time.Parse("2006-01-02", date); err != nil {
			return docstore.Document{}, core.NewValidationError("report date must be YYYY-MM-DD", err)
		}
		doc.Reports[date] = report
		return doc, nil
	}
}
