package feed

import (
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/bilgisen/newshub/internal/models"
)

// SeenSet records fingerprints already produced in the current refresh cycle.
// It is created per cycle and discarded afterwards; it is safe for concurrent use.
type SeenSet struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

func NewSeenSet() *SeenSet {
	return &SeenSet{ids: make(map[string]struct{})}
}

// Claim marks id as seen and reports whether it was new.
func (s *SeenSet) Claim(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[id]; ok {
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

// Has reports whether id was already claimed.
func (s *SeenSet) Has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of claimed ids
func (s *SeenSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}

// FilterOptions configures one Filter call.
type FilterOptions struct {
	Now    time.Time
	Window time.Duration
	// Keywords, when non-empty, require headline+summary to mention at least one.
	Keywords []string
	// Limit caps the result after sorting; zero means no cap.
	Limit int
}

// FilterResult is the filtered, newest-first list plus counters for what was dropped.
type FilterResult struct {
	Items      []models.NewsItem
	Malformed  int
	Stale      int
	Irrelevant int
	Duplicates int
}

// Skipped is the total number of dropped entries
func (r FilterResult) Skipped() int {
	return r.Malformed + r.Stale + r.Irrelevant + r.Duplicates
}

// Filter normalizes entries and keeps the fresh, relevant, unseen ones,
// sorted by publication time descending. A malformed entry is counted and
// skipped; it never aborts the batch. When seen is nil a batch-local set is used.
func (p *Parser) Filter(category string, entries []models.RawEntry, opts FilterOptions, seen *SeenSet) FilterResult {
	if seen == nil {
		seen = NewSeenSet()
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	cutoff := now.Add(-opts.Window)
	keywords := lowerAll(opts.Keywords)

	var res FilterResult
	batch := make(map[string]struct{}, len(entries))
	for _, raw := range entries {
		item, summary, err := p.normalize(category, raw)
		if err != nil {
			res.Malformed++
			continue
		}

		if opts.Window > 0 && item.PublishedAt.Before(cutoff) {
			res.Stale++
			continue
		}

		if len(keywords) > 0 && !mentionsAny(item.Title+" "+summary, keywords) {
			res.Irrelevant++
			continue
		}

		if _, dup := batch[item.ID]; dup || seen.Has(item.ID) {
			res.Duplicates++
			continue
		}
		batch[item.ID] = struct{}{}

		res.Items = append(res.Items, item)
	}

	sort.SliceStable(res.Items, func(i, j int) bool {
		return res.Items[i].PublishedAt.After(res.Items[j].PublishedAt)
	})

	if opts.Limit > 0 && len(res.Items) > opts.Limit {
		res.Items = res.Items[:opts.Limit]
	}

	// only items that are shown take their id out of circulation
	kept := res.Items[:0]
	for _, item := range res.Items {
		if !seen.Claim(item.ID) {
			res.Duplicates++
			continue
		}
		kept = append(kept, item)
	}
	res.Items = kept
	return res
}

// mentionsAny matches keywords as whole words. A plural "s" or "es" after the
// keyword still counts, so "chip" matches "chips" but "ai" never matches "said".
func mentionsAny(text string, keywords []string) bool {
	text = strings.ToLower(text)
	for _, kw := range keywords {
		if containsWord(text, kw) {
			return true
		}
	}
	return false
}

func containsWord(text, word string) bool {
	for from := 0; from <= len(text)-len(word); {
		idx := strings.Index(text[from:], word)
		if idx < 0 {
			return false
		}
		start := from + idx
		end := start + len(word)
		if wordBoundaryBefore(text, start) && wordBoundaryAfter(text, end) {
			return true
		}
		from = start + 1
	}
	return false
}

func wordBoundaryBefore(text string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return !isWordRune(r)
}

func wordBoundaryAfter(text string, i int) bool {
	rest := text[i:]
	switch {
	case strings.HasPrefix(rest, "es"):
		rest = rest[2:]
	case strings.HasPrefix(rest, "s"):
		rest = rest[1:]
	}
	if boundary(rest) {
		return true
	}
	return boundary(text[i:])
}

func boundary(rest string) bool {
	if rest == "" {
		return true
	}
	r, _ := utf8.DecodeRuneInString(rest)
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
