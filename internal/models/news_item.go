package models

import "time"

// NewsItem is a normalized, filtered entry ready for display
type NewsItem struct {
	ID          string    `json:"id"`
	Category    string    `json:"category"`
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	Source      string    `json:"source"`
	Summary     string    `json:"summary,omitempty"`
	PublishedAt time.Time `json:"published_at"`
	DisplayTime string    `json:"display_time"`
}
