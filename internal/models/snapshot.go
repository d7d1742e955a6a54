package models

import "time"

// Status describes the outcome of one category fetch.
type Status string

const (
	StatusOK             Status = "ok"
	StatusEmpty          Status = "empty"
	StatusConfigError    Status = "config_error"
	StatusTransportError Status = "transport_error"
	StatusParseError     Status = "parse_error"
	StatusFailed         Status = "failed"
)

// CategoryResult is the outcome of one category in one refresh cycle
type CategoryResult struct {
	Category  string     `json:"category"`
	Kind      Kind       `json:"kind"`
	Status    Status     `json:"status"`
	Message   string     `json:"message,omitempty"`
	Items     []NewsItem `json:"items"`
	Skipped   int        `json:"skipped"`
	FetchedAt time.Time  `json:"fetched_at"`
}

// Snapshot is the full board produced by one refresh cycle.
type Snapshot struct {
	CycleID     string           `json:"cycle_id"`
	StartedAt   time.Time        `json:"started_at"`
	CompletedAt time.Time        `json:"completed_at"`
	Categories  []CategoryResult `json:"categories"`
}

// Category returns the result for name, if present.
func (s *Snapshot) Category(name string) (CategoryResult, bool) {
	if s == nil {
		return CategoryResult{}, false
	}
	for _, c := range s.Categories {
		if c.Category == name {
			return c, true
		}
	}
	return CategoryResult{}, false
}

// FindItem looks up an item by category and id.
func (s *Snapshot) FindItem(category, id string) (NewsItem, bool) {
	res, ok := s.Category(category)
	if !ok {
		return NewsItem{}, false
	}
	for _, it := range res.Items {
		if it.ID == id {
			return it, true
		}
	}
	return NewsItem{}, false
}
