package domain

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DayLayout is the calendar-date layout used for WeightEntry.Day.
const DayLayout = "2006-01-02"

// WeightEntry represents a single weight measurement.
type WeightEntry struct {
	ID     int64   `json:"id"`
	UserID int64   `json:"userId"`
	Day    string  `json:"day"`
	Value  float64 `json:"value"`
	Notes  string  `json:"notes"`
}

// WeightRepository is the port for weight persistence.
type WeightRepository interface {
	AddWeight(ctx context.Context, userID int64, value float64, day string) (int64, error)
	UpdateWeight(ctx context.Context, entry WeightEntry) error
	DeleteWeight(ctx context.Context, id int64) error
	ListWeights(ctx context.Context, userID int64) ([]WeightEntry, error)
	// WatchWeights emits the user's weights, newest first, and again after
	// every committed weight mutation until ctx is done.
	WatchWeights(ctx context.Context, userID int64) <-chan []WeightEntry
}

// MostRecent returns the entry with the latest day, ties broken by the
// highest id. It returns nil for an empty list.
func MostRecent(entries []WeightEntry) *WeightEntry {
	if len(entries) == 0 {
		return nil
	}
	sorted := make([]WeightEntry, len(entries))
	copy(sorted, entries)
	SortNewestFirst(sorted)
	top := sorted[0]
	return &top
}

// SortNewestFirst orders entries by day descending, then id descending.
func SortNewestFirst(entries []WeightEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Day != entries[j].Day {
			return entries[i].Day > entries[j].Day
		}
		return entries[i].ID > entries[j].ID
	})
}

// ParseWeight parses user-entered decimal text. Non-finite and non-positive
// values are rejected.
func ParseWeight(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("parse weight %q: %w", s, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, fmt.Errorf("weight must be a positive number, got %q", s)
	}
	return v, nil
}

// FormatWeight renders a weight with one decimal place.
func FormatWeight(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// ParseDay validates a calendar date in DayLayout.
func ParseDay(s string) (string, error) {
	t, err := time.Parse(DayLayout, s)
	if err != nil {
		return "", fmt.Errorf("parse day %q: %w", s, err)
	}
	return t.Format(DayLayout), nil
}
