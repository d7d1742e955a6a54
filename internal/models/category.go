package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Kind selects which source adapter serves a category
type Kind string

const (
	KindSearch Kind = "search"
	KindFeeds  Kind = "feeds"
	KindAPI    Kind = "api"
)

// Category is a named group with its own source descriptor and freshness window.
type Category struct {
	Name  string `json:"name" validate:"required,max=64"`
	Kind  Kind   `json:"kind" validate:"required,oneof=search feeds api"`
	Query string `json:"query,omitempty" validate:"required_if=Kind search"`
	// Feeds lists RSS/Atom endpoints for feeds categories.
	Feeds       []string `json:"feeds,omitempty" validate:"required_if=Kind feeds,dive,url"`
	APICategory string   `json:"api_category,omitempty" validate:"required_if=Kind api"`
	Window      Duration `json:"window" validate:"gt=0"`
	// Keywords only apply to api categories. Empty means no relevance filter.
	Keywords []string `json:"keywords,omitempty" validate:"dive,required"`
	Limit    int      `json:"limit,omitempty" validate:"gte=0,lte=500"`
}

// DefaultWindow returns the freshness window used when a category does not set one.
func DefaultWindow(k Kind) time.Duration {
	switch k {
	case KindSearch:
		return time.Hour
	case KindFeeds:
		return 6 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// Duration is a time.Duration that reads "90m"-style strings from JSON.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		var n int64
		if nErr := json.Unmarshal(b, &n); nErr != nil {
			return fmt.Errorf("duration must be a string like \"1h\" or seconds: %w", err)
		}
		*d = Duration(time.Duration(n) * time.Second)
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}
