package news

import (
	"testing"

	"github.com/rs/zerolog"
)

func testTracker() *Tracker {
	return NewTracker([]string{"silver", "comex"}, []string{"margin", "保证金"}, zerolog.Nop())
}

func TestProcessRequiresBothKeywordSets(t *testing.T) {
	tracker := testTracker()

	items := []Announcement{
		{Title: "CME raises COMEX silver margin requirements", Link: "https://example.com/both"},
		{Title: "Silver rallies to a new high", Link: "https://example.com/subject-only"},
		{Title: "Margin rules updated for equity futures", Link: "https://example.com/margin-only"},
		{Title: "Crude oil inventory report", Link: "https://example.com/neither"},
	}

	alerts := tracker.Process(items, 10)
	if len(alerts) != 1 {
		t.Fatalf("仅双关键词命中的条目应告警, 实际 %d 条", len(alerts))
	}
	if alerts[0].Link != "https://example.com/both" {
		t.Fatalf("命中条目不正确: %s", alerts[0].Link)
	}

	// Every examined entry is marked seen, qualifying or not.
	if tracker.SeenCount() != 4 {
		t.Fatalf("所有被检查条目都应标记已见, 实际 %d", tracker.SeenCount())
	}
}

func TestProcessIsIdempotent(t *testing.T) {
	tracker := testTracker()
	items := []Announcement{
		{Title: "COMEX silver margin hike announced", Link: "https://example.com/a"},
	}

	if got := len(tracker.Process(items, 10)); got != 1 {
		t.Fatalf("首次处理应告警一次, 实际 %d", got)
	}
	if got := len(tracker.Process(items, 10)); got != 0 {
		t.Fatalf("重复处理不应再告警, 实际 %d", got)
	}
}

func TestProcessMatchesCaseInsensitively(t *testing.T) {
	tracker := testTracker()
	items := []Announcement{
		{Title: "comex SILVER Margin requirements raised", Link: "https://example.com/a"},
	}

	if got := len(tracker.Process(items, 10)); got != 1 {
		t.Fatalf("关键词匹配应忽略大小写, 实际 %d 条", got)
	}
}

func TestProcessHonorsScanLimit(t *testing.T) {
	tracker := testTracker()
	items := []Announcement{
		{Title: "COMEX silver margin change one", Link: "https://example.com/1"},
		{Title: "COMEX silver margin change two", Link: "https://example.com/2"},
	}

	alerts := tracker.Process(items, 1)
	if len(alerts) != 1 || alerts[0].Link != "https://example.com/1" {
		t.Fatalf("limit=1 时只应检查第一条, 实际 %#v", alerts)
	}

	// The truncated entry was never examined, so it still gets its chance.
	alerts = tracker.Process(items, 2)
	if len(alerts) != 1 || alerts[0].Link != "https://example.com/2" {
		t.Fatalf("被截断的条目之后仍应可告警, 实际 %#v", alerts)
	}
}

func TestProcessSkipsEmptyLinks(t *testing.T) {
	tracker := testTracker()
	items := []Announcement{
		{Title: "COMEX silver margin change", Link: ""},
	}

	if got := len(tracker.Process(items, 10)); got != 0 {
		t.Fatalf("无链接条目应跳过, 实际 %d 条", got)
	}
	if tracker.SeenCount() != 0 {
		t.Fatalf("无链接条目不应进入已见集合")
	}
}

func TestSeedEstablishesBaseline(t *testing.T) {
	tracker := testTracker()
	items := []Announcement{
		{Title: "COMEX silver margin hike", Link: "https://example.com/a"},
		{Title: "Unrelated headline", Link: "https://example.com/b"},
	}

	if got := tracker.Seed(items); got != 2 {
		t.Fatalf("基线应含 2 条, 实际 %d", got)
	}
	if got := len(tracker.Process(items, 10)); got != 0 {
		t.Fatalf("基线内的公告不应告警, 实际 %d 条", got)
	}
}
