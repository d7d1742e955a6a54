package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bilgisen/newshub/internal/logger"
	"github.com/bilgisen/newshub/internal/models"
	"github.com/mmcdole/gofeed"
	"github.com/mmcdole/gofeed/rss"
)

const (
	// DefaultSearchBaseURL is the Google News RSS search endpoint.
	DefaultSearchBaseURL = "https://news.google.com/rss/search"
	// DefaultMarketBaseURL is the Finnhub REST root.
	DefaultMarketBaseURL = "https://finnhub.io/api/v1"

	searchSourceName = "Google News"
	feedAccept       = "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8"
)

// Source yields raw entries for one category.
type Source interface {
	Fetch(ctx context.Context) ([]models.RawEntry, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) ([]models.RawEntry, error)

func (f SourceFunc) Fetch(ctx context.Context) ([]models.RawEntry, error) { return f(ctx) }

// SourceDeps carries what source adapters need beyond the category itself.
type SourceDeps struct {
	Fetcher       *Fetcher
	SearchBaseURL string
	Locale        SearchLocale
	MarketBaseURL string
	MarketAPIKey  string
}

// NewSource builds the adapter matching the category kind.
func NewSource(cat models.Category, deps SourceDeps) (Source, error) {
	if deps.Fetcher == nil {
		return nil, errors.New("source deps: fetcher is required")
	}

	switch cat.Kind {
	case models.KindSearch:
		base := deps.SearchBaseURL
		if base == "" {
			base = DefaultSearchBaseURL
		}
		return &SearchSource{
			fetcher: deps.Fetcher,
			baseURL: base,
			query:   cat.Query,
			window:  cat.Window.Std(),
			locale:  deps.Locale.withDefaults(),
		}, nil
	case models.KindFeeds:
		return &FeedSource{
			fetcher: deps.Fetcher,
			urls:    cat.Feeds,
		}, nil
	case models.KindAPI:
		base := deps.MarketBaseURL
		if base == "" {
			base = DefaultMarketBaseURL
		}
		return &MarketSource{
			fetcher:  deps.Fetcher,
			baseURL:  strings.TrimRight(base, "/"),
			apiKey:   deps.MarketAPIKey,
			category: cat.APICategory,
		}, nil
	default:
		return nil, fmt.Errorf("%w: unknown category kind %q", ErrConfiguration, cat.Kind)
	}
}

// SearchLocale selects the Google News edition.
type SearchLocale struct {
	Language string // hl
	Country  string // gl
}

func (l SearchLocale) withDefaults() SearchLocale {
	if l.Language == "" {
		l.Language = "en-US"
	}
	if l.Country == "" {
		l.Country = "US"
	}
	return l
}

// SearchSource queries the Google News RSS search endpoint.
type SearchSource struct {
	fetcher *Fetcher
	baseURL string
	query   string
	window  time.Duration
	locale  SearchLocale
}

// URL returns the search feed URL, with a when: clause matching the window.
func (s *SearchSource) URL() string {
	lang := strings.SplitN(s.locale.Language, "-", 2)[0]
	q := url.Values{}
	q.Set("q", strings.TrimSpace(s.query)+" "+whenClause(s.window))
	q.Set("hl", s.locale.Language)
	q.Set("gl", s.locale.Country)
	q.Set("ceid", s.locale.Country+":"+lang)
	return s.baseURL + "?" + q.Encode()
}

func (s *SearchSource) Fetch(ctx context.Context) ([]models.RawEntry, error) {
	body, err := s.fetcher.Get(ctx, s.URL(), RequestOptions{Accept: feedAccept})
	if err != nil {
		return nil, err
	}

	// Google News is always RSS 2.0; the rss parser keeps <source>, which
	// the universal item drops.
	parsed, err := (&rss.Parser{}).Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: search feed for %q: %v", ErrParse, s.query, err)
	}

	entries := make([]models.RawEntry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		entries = append(entries, models.RawEntry{
			Title:     item.Title,
			Link:      item.Link,
			Published: timestampOf(item.PubDateParsed, nil, item.PubDate, ""),
			Source:    searchItemSource(item),
			Summary:   item.Description,
		})
	}
	return entries, nil
}

// searchItemSource prefers the <source> element, then the title suffix.
func searchItemSource(item *rss.Item) string {
	if item.Source != nil {
		if name := strings.TrimSpace(item.Source.Title); name != "" {
			return name
		}
	}
	if _, suffix := SplitSourceSuffix(collapseSpaces(item.Title)); suffix != "" {
		return suffix
	}
	return searchSourceName
}

// whenClause renders a Google News recency operator; the service only
// understands whole hours and days.
func whenClause(window time.Duration) string {
	if window <= time.Hour {
		return "when:1h"
	}
	if window%(24*time.Hour) == 0 {
		return fmt.Sprintf("when:%dd", int(window/(24*time.Hour)))
	}
	hours := int((window + time.Hour - 1) / time.Hour)
	return fmt.Sprintf("when:%dh", hours)
}

// FeedSource reads a list of publisher RSS/Atom feeds. A failing feed is
// logged and skipped; the category fails only when every feed fails.
type FeedSource struct {
	fetcher *Fetcher
	urls    []string
}

func (s *FeedSource) Fetch(ctx context.Context) ([]models.RawEntry, error) {
	log := logger.Get()

	var entries []models.RawEntry
	var errs []error
	for _, u := range s.urls {
		got, err := s.fetchOne(ctx, u)
		if err != nil {
			log.Warn().Err(err).Str("url", u).Msg("Feed fetch failed")
			errs = append(errs, err)
			continue
		}
		entries = append(entries, got...)
	}

	if len(errs) > 0 && len(errs) == len(s.urls) {
		return nil, fmt.Errorf("all %d feeds failed: %w", len(s.urls), errors.Join(errs...))
	}
	return entries, nil
}

func (s *FeedSource) fetchOne(ctx context.Context, feedURL string) ([]models.RawEntry, error) {
	body, err := s.fetcher.Get(ctx, feedURL, RequestOptions{Accept: feedAccept})
	if err != nil {
		return nil, err
	}

	parsed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("%w: feed %s: %v", ErrParse, feedURL, err)
	}

	source := strings.TrimSpace(parsed.Title)
	if source == "" {
		if u, err := url.Parse(feedURL); err == nil {
			source = strings.TrimPrefix(u.Hostname(), "www.")
		}
	}

	entries := make([]models.RawEntry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		summary := item.Description
		if summary == "" {
			summary = item.Content
		}
		entries = append(entries, models.RawEntry{
			Title:     item.Title,
			Link:      item.Link,
			Published: timestampOf(item.PublishedParsed, item.UpdatedParsed, item.Published, item.Updated),
			Source:    source,
			Summary:   summary,
		})
	}
	return entries, nil
}

// timestampOf returns the first raw timestamp ParseTimestamp understands and
// otherwise the time gofeed parsed itself, so layouts only gofeed knows still
// yield a usable value.
func timestampOf(published, updated *time.Time, rawPublished, rawUpdated string) string {
	for _, raw := range []string{rawPublished, rawUpdated} {
		if _, err := ParseTimestamp(raw); err == nil {
			return raw
		}
	}
	for _, t := range []*time.Time{published, updated} {
		if t != nil && !t.IsZero() {
			return t.UTC().Format(time.RFC3339Nano)
		}
	}
	if strings.TrimSpace(rawPublished) != "" {
		return rawPublished
	}
	return rawUpdated
}

// MarketSource reads the keyed market-news API (Finnhub /news shape).
type MarketSource struct {
	fetcher  *Fetcher
	baseURL  string
	apiKey   string
	category string
}

type marketArticle struct {
	Category string `json:"category"`
	Datetime int64  `json:"datetime"`
	Headline string `json:"headline"`
	ID       int64  `json:"id"`
	Image    string `json:"image"`
	Related  string `json:"related"`
	Source   string `json:"source"`
	Summary  string `json:"summary"`
	URL      string `json:"url"`
}

func (s *MarketSource) Fetch(ctx context.Context) ([]models.RawEntry, error) {
	if strings.TrimSpace(s.apiKey) == "" {
		return nil, fmt.Errorf("%w: market news API key is not set", ErrConfiguration)
	}

	body, err := s.fetcher.Get(ctx, s.baseURL+"/news", RequestOptions{
		Query:   map[string]string{"category": s.category},
		Headers: map[string]string{"X-Finnhub-Token": s.apiKey},
		Accept:  "application/json",
	})
	if err != nil {
		return nil, err
	}

	var articles []marketArticle
	if err := json.Unmarshal(body, &articles); err != nil {
		return nil, fmt.Errorf("%w: market news response: %v", ErrParse, err)
	}

	entries := make([]models.RawEntry, 0, len(articles))
	for _, a := range articles {
		published := ""
		if a.Datetime > 0 {
			published = strconv.FormatInt(a.Datetime, 10)
		}
		entries = append(entries, marketEntry(a, published))
	}
	return entries, nil
}

func marketEntry(a marketArticle, published string) models.RawEntry {
	source := strings.TrimSpace(a.Source)
	if source == "" {
		source = DefaultSourceName
	}
	return models.RawEntry{
		Title:     a.Headline,
		Link:      a.URL,
		Published: published,
		Source:    source,
		Summary:   a.Summary,
	}
}
