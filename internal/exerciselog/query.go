package exerciselog

import (
	"math"
	"sort"

	"github.com/patric-chuzhbe/exercisetracker/internal/models"
)

// DateRange bounds a log by calendar day. Empty bounds are open.
type DateRange struct {
	From string
	To   string
}

func (r DateRange) isOpen() bool {
	return r.From == "" && r.To == ""
}

// Filter returns the entries whose date lies inside the range, both ends
// inclusive. A bound that is not a readable date matches nothing.
// The input slice is never modified.
func Filter(log []models.Exercise, bounds DateRange) []models.Exercise {
	if bounds.isOpen() {
		return append([]models.Exercise{}, log...)
	}

	from, fromOK := canonicalBound(bounds.From)
	to, toOK := canonicalBound(bounds.To)
	if !fromOK || !toOK {
		return []models.Exercise{}
	}

	filtered := make([]models.Exercise, 0, len(log))
	for _, entry := range log {
		if from != "" && entry.Date < from {
			continue
		}
		if to != "" && entry.Date > to {
			continue
		}
		filtered = append(filtered, entry)
	}

	return filtered
}

func canonicalBound(raw string) (string, bool) {
	if raw == "" {
		return "", true
	}
	date, err := CanonicalDate(raw)
	if err != nil {
		return "", false
	}
	return date, true
}

// SortByDateDesc orders entries most recent first in place. Entries sharing
// a date keep their append order.
func SortByDateDesc(log []models.Exercise) {
	sort.SliceStable(log, func(i, j int) bool {
		return log[i].Date > log[j].Date
	})
}

// Truncate cuts the log to limit entries. A zero or NaN limit leaves the log
// untouched and reports false. Fractions are cut toward zero and a negative
// limit counts from the end.
func Truncate(log []models.Exercise, limit float64) ([]models.Exercise, bool) {
	if limit == 0 || math.IsNaN(limit) {
		return log, false
	}

	size := float64(len(log))
	end := math.Trunc(limit)
	if end < 0 {
		end = math.Max(size+end, 0)
	}
	if end > size {
		end = size
	}

	return log[:int(end)], true
}
