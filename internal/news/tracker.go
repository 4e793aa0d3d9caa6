package news

import (
	"strings"

	"github.com/rs/zerolog"
)

// Tracker owns the set of announcement links already examined and classifies
// unseen entries against the keyword rules. A title qualifies only when it
// contains a subject keyword and a margin keyword; single-set matches are
// excluded to suppress unrelated headlines. Classification performs no I/O,
// the caller dispatches the returned announcements.
type Tracker struct {
	seen    map[string]struct{}
	subject []string
	margin  []string
	logger  zerolog.Logger
}

// NewTracker builds a tracker over lowercased copies of the keyword sets.
func NewTracker(subjectKeywords, marginKeywords []string, logger zerolog.Logger) *Tracker {
	return &Tracker{
		seen:    make(map[string]struct{}),
		subject: lowerAll(subjectKeywords),
		margin:  lowerAll(marginKeywords),
		logger:  logger.With().Str("component", "news_tracker").Logger(),
	}
}

// Seed marks every announcement as seen without classification, establishing
// the known baseline so historical items never alert on first run.
func (t *Tracker) Seed(items []Announcement) int {
	for _, item := range items {
		if item.Link == "" {
			continue
		}
		t.seen[item.Link] = struct{}{}
	}
	return len(t.seen)
}

// Process scans at most limit entries and returns the unseen ones whose title
// matches both keyword sets. Every examined entry is marked seen, qualifying
// or not; an entry gets exactly one chance to alert.
func (t *Tracker) Process(items []Announcement, limit int) []Announcement {
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	var alerts []Announcement
	for _, item := range items {
		if item.Link == "" {
			continue
		}
		if _, ok := t.seen[item.Link]; ok {
			continue
		}
		t.seen[item.Link] = struct{}{}

		if t.qualifies(item.Title) {
			alerts = append(alerts, item)
		}
	}

	if len(alerts) > 0 {
		t.logger.Info().Int("count", len(alerts)).Msg("new margin announcements detected")
	}
	return alerts
}

// SeenCount reports the size of the seen set.
func (t *Tracker) SeenCount() int {
	return len(t.seen)
}

func (t *Tracker) qualifies(title string) bool {
	lowered := strings.ToLower(title)
	return containsAny(lowered, t.subject) && containsAny(lowered, t.margin)
}

func containsAny(s string, terms []string) bool {
	for _, term := range terms {
		if term != "" && strings.Contains(s, term) {
			return true
		}
	}
	return false
}

func lowerAll(terms []string) []string {
	lowered := make([]string, 0, len(terms))
	for _, term := range terms {
		lowered = append(lowered, strings.ToLower(term))
	}
	return lowered
}
