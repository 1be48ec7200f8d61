// Package leaderboard computes the displayed ranking of a room's point table.
package leaderboard

import (
	"sort"

	"github.com/arkapradana/arenahub/models"
)

// RankedEntry is a point entry decorated with its display rank.
type RankedEntry struct {
	Rank int `json:"rank"`
	models.PointEntry
}

// Rank orders entries by descending total points and assigns ranks. Ties keep
// their input-relative order; there is no secondary tie-break key. Entries
// with zero or negative totals are filtered from the view but stay in the
// underlying collection.
func Rank(entries []models.PointEntry) []RankedEntry {
	visible := make([]models.PointEntry, 0, len(entries))
	for _, e := range entries {
		if e.TotalPoints > 0 {
			visible = append(visible, e)
		}
	}

	sort.SliceStable(visible, func(i, j int) bool {
		return visible[i].TotalPoints > visible[j].TotalPoints
	})

	ranked := make([]RankedEntry, len(visible))
	for i, e := range visible {
		ranked[i] = RankedEntry{Rank: i + 1, PointEntry: e}
	}
	return ranked
}
