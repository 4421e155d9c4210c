package domain

import (
	"sort"
	"time"
)

// PricePoint is a single daily price observation. Currency is implicitly USD.
type PricePoint struct {
	Date  Date
	Price float64
}

// Series is an ordered-by-date collection of PricePoint. After any pipeline
// stage it is sorted ascending by date with at most one point per date.
type Series []PricePoint

// SortByDate sorts the series ascending by date in place.
func (s Series) SortByDate() {
	sort.Slice(s, func(i, j int) bool { return s[i].Date.Before(s[j].Date) })
}

// First returns the earliest point. The second return is false for an empty series.
func (s Series) First() (PricePoint, bool) {
	if len(s) == 0 {
		return PricePoint{}, false
	}
	return s[0], true
}

// Last returns the latest point. The second return is false for an empty series.
func (s Series) Last() (PricePoint, bool) {
	if len(s) == 0 {
		return PricePoint{}, false
	}
	return s[len(s)-1], true
}

// RunRecord describes one completed collection run for the archive.
type RunRecord struct {
	ID          int64
	RunTime     time.Time
	PointCount  int
	LatestDate  Date
	LatestPrice float64
	OutputFile  string
}
