package news

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>search results</title>
    <item>
      <title>CME raises COMEX silver margin requirements</title>
      <link>https://example.com/margin-hike</link>
      <pubDate>Mon, 25 Aug 2026 08:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Entry without a link</title>
    </item>
    <item>
      <title>Silver edges lower</title>
      <link>https://example.com/market-wrap</link>
      <pubDate>Mon, 25 Aug 2026 07:00:00 GMT</pubDate>
    </item>
  </channel>
</rss>`

func TestFeedFetchLatestAnnouncements(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, sampleRSS)
	}))
	defer srv.Close()

	feed := NewFeed(FeedOptions{URL: srv.URL, Timeout: time.Second}, zerolog.Nop())

	items, err := feed.FetchLatestAnnouncements(context.Background())
	if err != nil {
		t.Fatalf("解析 RSS 不应报错: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("无链接条目应被跳过, 期望 2 条, 实际 %d", len(items))
	}
	if items[0].Link != "https://example.com/margin-hike" {
		t.Fatalf("条目顺序应与源一致, 实际 %#v", items)
	}
	if items[0].PublishedAt == "" {
		t.Fatalf("发布时间应保留")
	}
}

func TestFeedFetchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	feed := NewFeed(FeedOptions{URL: srv.URL, Timeout: time.Second}, zerolog.Nop())
	if _, err := feed.FetchLatestAnnouncements(context.Background()); err == nil {
		t.Fatal("HTTP 500 应返回错误")
	}
}
