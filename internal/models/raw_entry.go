package models

// RawEntry is a source entry before normalization. Every source adapter
// produces this shape regardless of transport.
type RawEntry struct {
	Title     string `json:"title"`
	Link      string `json:"link"`
	Published string `json:"published"`
	Source    string `json:"source,omitempty"`
	Summary   string `json:"summary,omitempty"`
}
