package feed

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/bilgisen/newshub/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitSourceSuffix(t *testing.T) {
	tests := []struct {
		input      string
		wantHead   string
		wantSuffix string
	}{
		{"NVIDIA posts record revenue - Reuters", "NVIDIA posts record revenue", "Reuters"},
		{"Tesla robotaxi expands - The Wall Street Journal", "Tesla robotaxi expands", "The Wall Street Journal"},
		{"Chip stocks - winners and losers - Bloomberg", "Chip stocks - winners and losers", "Bloomberg"},
		{"No suffix here", "No suffix here", ""},
		{"- Reuters", "- Reuters", ""},
		{"Headline - this trailing part is much too long to be a publisher name", "Headline - this trailing part is much too long to be a publisher name", ""},
	}
	for _, tt := range tests {
		head, suffix := SplitSourceSuffix(tt.input)
		assert.Equal(t, tt.wantHead, head, "input %q", tt.input)
		assert.Equal(t, tt.wantSuffix, suffix, "input %q", tt.input)
	}
}

func TestFingerprint(t *testing.T) {
	id := Fingerprint("NVIDIA posts record revenue")

	assert.Len(t, id, FingerprintLength)
	assert.Equal(t, id, Fingerprint("NVIDIA posts record revenue"))
	assert.Equal(t, id, Fingerprint("  nvidia  posts record REVENUE "))
	assert.NotEqual(t, id, Fingerprint("NVIDIA posts record loss"))
}

func TestNormalize(t *testing.T) {
	seoul, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)
	p := NewParser(seoul)

	item, err := p.Normalize("AI", models.RawEntry{
		Title:     "NVIDIA posts record revenue - Reuters",
		Link:      " https://news.google.com/rss/articles/abc ",
		Published: "Tue, 04 Mar 2025 15:04:05 GMT",
		Source:    "Reuters",
		Summary:   "<p>Data center <b>sales</b> &amp; more</p>",
	})
	require.NoError(t, err)

	assert.Equal(t, "AI", item.Category)
	assert.Equal(t, "NVIDIA posts record revenue", item.Title)
	assert.Equal(t, "Reuters", item.Source)
	assert.Equal(t, "https://news.google.com/rss/articles/abc", item.Link)
	assert.Equal(t, "Data center sales & more", item.Summary)
	assert.Equal(t, Fingerprint("NVIDIA posts record revenue"), item.ID)
	assert.Equal(t, time.UTC, item.PublishedAt.Location())
	assert.Equal(t, "2025-03-05 00:04", item.DisplayTime)
}

func TestNormalizeSourceDefaults(t *testing.T) {
	p := NewParser(nil)

	// Suffix becomes the source when none is given.
	item, err := p.Normalize("AI", models.RawEntry{Title: "Robots arrive - AP", Link: "https://x", Published: "1741100645"})
	require.NoError(t, err)
	assert.Equal(t, "Robots arrive", item.Title)
	assert.Equal(t, "AP", item.Source)

	// A suffix that does not match the known source stays in the title.
	item, err = p.Normalize("AI", models.RawEntry{Title: "Q&A - Part 2", Link: "https://x", Published: "1741100645", Source: "The Verge"})
	require.NoError(t, err)
	assert.Equal(t, "Q&A - Part 2", item.Title)
	assert.Equal(t, "The Verge", item.Source)

	item, err = p.Normalize("AI", models.RawEntry{Title: "Plain", Link: "https://x", Published: "1741100645"})
	require.NoError(t, err)
	assert.Equal(t, DefaultSourceName, item.Source)
}

func TestNormalizeRejectsMalformed(t *testing.T) {
	p := NewParser(nil)
	tests := []struct {
		name string
		raw  models.RawEntry
	}{
		{"missing title", models.RawEntry{Link: "https://x", Published: "1741100645"}},
		{"missing link", models.RawEntry{Title: "T", Published: "1741100645"}},
		{"bad timestamp", models.RawEntry{Title: "T", Link: "https://x", Published: "soon"}},
		{"missing timestamp", models.RawEntry{Title: "T", Link: "https://x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Normalize("AI", tt.raw)
			assert.ErrorIs(t, err, ErrParse)
		})
	}
}

func TestCleanHTML(t *testing.T) {
	p := NewParser(nil)
	tests := []struct {
		input string
		want  string
	}{
		{"<p>Hello</p>", "Hello"},
		{"<a href=\"url\">Link</a> text", "Link text"},
		{"Tom &amp; Jerry", "Tom & Jerry"},
		{"<div>  Multiple   spaces  </div>", "Multiple spaces"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, p.CleanHTML(tt.input), "input %q", tt.input)
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "this is...", truncate("this is a long string", 10))
	assert.Equal(t, "abc", truncate("abcd", 3))
	assert.Equal(t, "뉴스 요...", truncate("뉴스 요약입니다", 7))
}
