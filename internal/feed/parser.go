package feed

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bilgisen/newshub/internal/models"
	"github.com/bilgisen/newshub/internal/utils"
)

const (
	// FingerprintLength is the number of hex characters kept from the title hash.
	FingerprintLength = 12

	displayLayout    = "2006-01-02 15:04"
	maxSummaryLength = 400
	maxSuffixWords   = 6
)

// Parser handles cleaning and normalizing raw entries
type Parser struct {
	htmlTagRegex *regexp.Regexp
	location     *time.Location
}

// NewParser returns a Parser that renders display times in loc (UTC if nil).
func NewParser(loc *time.Location) *Parser {
	if loc == nil {
		loc = time.UTC
	}
	return &Parser{
		htmlTagRegex: regexp.MustCompile(`<[^>]*>`),
		location:     loc,
	}
}

// CleanHTML removes HTML tags and normalizes whitespace
func (p *Parser) CleanHTML(input string) string {
	cleaned := p.htmlTagRegex.ReplaceAllString(input, " ")
	cleaned = html.UnescapeString(cleaned)
	return collapseSpaces(cleaned)
}

// Normalize turns a raw entry into a NewsItem. It fails with ErrParse when a
// required field is missing or the timestamp cannot be read.
func (p *Parser) Normalize(category string, raw models.RawEntry) (models.NewsItem, error) {
	item, _, err := p.normalize(category, raw)
	return item, err
}

// normalize also returns the cleaned summary before truncation, which the
// keyword filter matches against.
func (p *Parser) normalize(category string, raw models.RawEntry) (models.NewsItem, string, error) {
	title := collapseSpaces(html.UnescapeString(raw.Title))
	link := strings.TrimSpace(raw.Link)
	source := collapseSpaces(raw.Source)

	if head, suffix := SplitSourceSuffix(title); suffix != "" && (source == "" || strings.EqualFold(suffix, source)) {
		title = head
		if source == "" {
			source = suffix
		}
	}

	if title == "" {
		return models.NewsItem{}, "", fmt.Errorf("%w: missing title", ErrParse)
	}
	if link == "" {
		return models.NewsItem{}, "", fmt.Errorf("%w: missing link for %q", ErrParse, title)
	}
	if source == "" {
		source = DefaultSourceName
	}

	published, err := ParseTimestamp(raw.Published)
	if err != nil {
		return models.NewsItem{}, "", fmt.Errorf("entry %q: %w", title, err)
	}

	summary := p.CleanHTML(raw.Summary)
	return models.NewsItem{
		ID:          Fingerprint(title),
		Category:    category,
		Title:       title,
		Link:        link,
		Source:      source,
		Summary:     truncate(summary, maxSummaryLength),
		PublishedAt: published,
		DisplayTime: published.In(p.location).Format(displayLayout),
	}, summary, nil
}

// DefaultSourceName is used when neither the entry nor its title names a publisher.
const DefaultSourceName = "Unknown"

// Fingerprint is a deterministic short id derived from the normalized title alone.
func Fingerprint(title string) string {
	return utils.ShortHash(strings.ToLower(collapseSpaces(title)), FingerprintLength)
}

// SplitSourceSuffix splits "Headline - Publisher" into its parts. The suffix
// must be short (publisher names rarely exceed a few words); otherwise the
// dash is assumed to belong to the headline and suffix is empty.
func SplitSourceSuffix(title string) (head, suffix string) {
	idx := strings.LastIndex(title, " - ")
	if idx <= 0 {
		return title, ""
	}
	head = strings.TrimSpace(title[:idx])
	suffix = strings.TrimSpace(title[idx+3:])
	if head == "" || suffix == "" || len(strings.Fields(suffix)) > maxSuffixWords {
		return title, ""
	}
	return head, suffix
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}
