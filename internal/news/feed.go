package news

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"
)

// Announcement is a single feed entry, most-recent-first in feed order.
type Announcement struct {
	Title       string
	Link        string
	PublishedAt string
}

// AnnouncementFetcher retrieves the latest exchange announcements.
type AnnouncementFetcher interface {
	FetchLatestAnnouncements(ctx context.Context) ([]Announcement, error)
}

// FeedOptions parameterise the RSS feed client.
type FeedOptions struct {
	URL       string
	Timeout   time.Duration
	UserAgent string
}

// Feed reads margin announcements from a Google News RSS query.
type Feed struct {
	opts   FeedOptions
	logger zerolog.Logger
	parser *gofeed.Parser
}

// NewFeed constructs an RSS announcement fetcher.
func NewFeed(opts FeedOptions, logger zerolog.Logger) *Feed {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: timeout}
	if opts.UserAgent != "" {
		parser.UserAgent = opts.UserAgent
	}

	return &Feed{
		opts:   opts,
		logger: logger.With().Str("component", "news_feed").Logger(),
		parser: parser,
	}
}

// FetchLatestAnnouncements parses the feed, skipping malformed entries.
func (f *Feed) FetchLatestAnnouncements(ctx context.Context) ([]Announcement, error) {
	if f.opts.URL == "" {
		return nil, fmt.Errorf("feed url not configured")
	}

	feed, err := f.parser.ParseURLWithContext(f.opts.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse announcement feed: %w", err)
	}

	announcements := make([]Announcement, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil || item.Link == "" {
			continue
		}
		announcements = append(announcements, Announcement{
			Title:       item.Title,
			Link:        item.Link,
			PublishedAt: item.Published,
		})
	}

	return announcements, nil
}

var _ AnnouncementFetcher = (*Feed)(nil)
