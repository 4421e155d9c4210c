// Package history implements reconciliation of a prior price series with
// freshly fetched observations.
package history

import (
	"sort"

	"btcspot/internal/domain"
)

// Merge combines an existing series with incoming observations, keyed by date.
// Incoming wins on a date collision, which lets a same-day price be corrected
// by a later run. Dates present in only one input are kept. The result is
// sorted ascending by date and contains at most one point per date. Either
// input may be empty; both empty yields an empty series.
func Merge(existing, incoming domain.Series) domain.Series {
	byDate := make(map[domain.Date]float64, len(existing)+len(incoming))
	for _, p := range existing {
		byDate[p.Date] = p.Price
	}
	for _, p := range incoming {
		byDate[p.Date] = p.Price
	}

	dates := make([]domain.Date, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	merged := make(domain.Series, 0, len(dates))
	for _, d := range dates {
		merged = append(merged, domain.PricePoint{Date: d, Price: byDate[d]})
	}
	return merged
}
