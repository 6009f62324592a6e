package analytics

import "time"

// DateRange is an inclusive time window
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// StatCard is a single dashboard number with an optional change against
// the previous period
type StatCard struct {
	Title  string  `json:"title"`
	Value  float64 `json:"value"`
	Change float64 `json:"change,omitempty"` // percent
	Format string  `json:"format"`           // number, currency, percent
}

// Point is one bucket in a time series
type Point struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Value int64  `json:"value"`
}

// Filter scopes an aggregate query. Conditions are ANDed; a key containing
// "?" is used verbatim, any other key becomes "key = ?".
type Filter map[string]interface{}
