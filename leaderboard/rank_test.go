package leaderboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkapradana/arenahub/models"
)

func entry(team string, rankPts, killPts int) models.PointEntry {
	e := models.PointEntry{TeamName: team, RankPoints: rankPts, KillPoints: killPts}
	e.TotalPoints = rankPts + killPts
	return e
}

func TestRank_DescendingByTotalPoints(t *testing.T) {
	ranked := Rank([]models.PointEntry{
		entry("alpha", 10, 5),
		entry("bravo", 30, 12),
		entry("charlie", 20, 1),
	})

	require.Len(t, ranked, 3)
	assert.Equal(t, "bravo", ranked[0].TeamName)
	assert.Equal(t, "charlie", ranked[1].TeamName)
	assert.Equal(t, "alpha", ranked[2].TeamName)
	assert.Equal(t, []int{1, 2, 3}, []int{ranked[0].Rank, ranked[1].Rank, ranked[2].Rank})
}

func TestRank_TiesKeepInputOrder(t *testing.T) {
	ranked := Rank([]models.PointEntry{
		entry("first", 10, 10),
		entry("second", 15, 5),
		entry("third", 5, 15),
	})

	require.Len(t, ranked, 3)
	assert.Equal(t, "first", ranked[0].TeamName)
	assert.Equal(t, "second", ranked[1].TeamName)
	assert.Equal(t, "third", ranked[2].TeamName)
}

func TestRank_ZeroAndNegativeTotalsExcluded(t *testing.T) {
	input := []models.PointEntry{
		entry("visible", 20, 5),
		entry("zero", 0, 0),
		entry("negative", -5, 2),
	}
	ranked := Rank(input)

	require.Len(t, ranked, 1)
	assert.Equal(t, "visible", ranked[0].TeamName)
	// the filter must not touch the underlying collection
	assert.Len(t, input, 3)
}

func TestRank_EmptyInput(t *testing.T) {
	assert.Empty(t, Rank(nil))
}

func TestPointEntry_TotalRecomputedOnSave(t *testing.T) {
	// an admin edit to either component must flow into the total; whatever
	// the client sent for total_points is overwritten by the hook
	e := models.PointEntry{TeamName: "edited", RankPoints: 20, KillPoints: 5, TotalPoints: 999}
	require.NoError(t, e.BeforeSave(nil))
	assert.Equal(t, 25, e.TotalPoints)

	e.RankPoints = 30
	require.NoError(t, e.BeforeSave(nil))
	assert.Equal(t, 35, e.TotalPoints)
}
