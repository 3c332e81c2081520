package docstore

import (
	"time"
)

// Document is the single shared unit of persisted newsroom state. Exactly one
// document exists per configured namespace; it is created on first access and
// fetched fresh at the start of every logical operation, never cached across
// operations.
type Document struct {
	Feeds    []string          `json:"feeds"`
	Keywords []string          `json:"keywords"`
	Visitors int               `json:"visitors"`
	Reports  map[string]Report `json:"reports"`
}

// Report is a generated daily briefing, keyed in Document.Reports by an ISO
// date string (YYYY-MM-DD). A commit that targets an existing date replaces
// the report wholesale.
type Report struct {
	Content   string    `json:"content"`
	Sources   []Article `json:"sources"`
	CreatedAt time.Time `json:"created_at"`
}

// Article is a single collected feed entry.
type Article struct {
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	PublishedAt time.Time `json:"published_at"`
	Summary     string    `json:"summary"`
}

// NewDocument returns an empty document with all collections initialised.
func NewDocument() Document {
	return Document{
		Feeds:    []string{},
		Keywords: []string{},
		Reports:  map[string]Report{},
	}
}

// Clone returns a deep copy of the document with all collections non-nil, so
// that a mutator can modify its argument freely without aliasing state held
// by the caller or by a previous commit attempt.
func (d Document) Clone() Document {
	out := Document{
		Feeds:    make([]string, len(d.Feeds)),
		Keywords: make([]string, len(d.Keywords)),
		Visitors: d.Visitors,
		Reports:  make(map[string]Report, len(d.Reports)),
	}
	copy(out.Feeds, d.Feeds)
	copy(out.Keywords, d.Keywords)
	for date, report := range d.Reports {
		sources := make([]Article, len(report.Sources))
		copy(sources, report.Sources)
		report.Sources = sources
		out.Reports[date] = report
	}
	return out
}

// HasFeed reports whether the feed URL is already present.
func (d Document) HasFeed(url string) bool {
	for _, f := range d.Feeds {
		if f == url {
			return true
		}
	}
	return false
}

// HasKeyword reports whether the keyword is already present.
func (d Document) HasKeyword(keyword string) bool {
	for _, k := range d.Keywords {
		if k == keyword {
			return true
		}
	}
	return false
}
