package reward

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRequiredExpTable(t *testing.T) {
	assert.Equal(t, 100, RequiredExp(1))
	assert.Equal(t, 150, RequiredExp(2))
	assert.Equal(t, 300, RequiredExp(3))
	assert.Equal(t, 500, RequiredExp(4))
	assert.Equal(t, 1000, RequiredExp(5))
	assert.Equal(t, 1000, RequiredExp(100))
}

func TestRequiredExp_ClampsBelowOne(t *testing.T) {
	assert.Equal(t, 100, RequiredExp(0))
	assert.Equal(t, 100, RequiredExp(-3))
}

func TestComputeGrant_NoLevelUp(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.Local)
	g := computeGrant(Progress{Level: 1, Exp: 90, TotalExp: 1000}, 5, now)

	assert.Equal(t, 1, g.Level)
	assert.Equal(t, 95, g.Exp)
	assert.Equal(t, 1005, g.TotalExp)
	assert.False(t, g.LeveledUp)
	assert.Equal(t, 1, g.DailyRewardCount)
	assert.Equal(t, "2026-03-14", g.RewardDate)
}

func TestComputeGrant_LevelUpDiscardsOverflow(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.Local)
	// 98+5=103 crosses the level-1 threshold of 100; the overflow of 3 is dropped.
	g := computeGrant(Progress{Level: 1, Exp: 98, TotalExp: 1000}, 5, now)

	assert.Equal(t, 2, g.Level)
	assert.Equal(t, 0, g.Exp)
	assert.Equal(t, 1005, g.TotalExp)
	assert.True(t, g.LeveledUp)
}

func TestComputeGrant_ExactThresholdLevelsUp(t *testing.T) {
	now := time.Now()
	g := computeGrant(Progress{Level: 2, Exp: 145, TotalExp: 250}, 5, now)

	assert.True(t, g.LeveledUp)
	assert.Equal(t, 3, g.Level)
	assert.Equal(t, 0, g.Exp)
}

func TestComputeGrant_DailyCounterIncrementsSameDay(t *testing.T) {
	now := time.Date(2026, 3, 14, 18, 30, 0, 0, time.Local)
	g := computeGrant(Progress{Level: 1, Exp: 10, DailyRewardCount: 3, LastRewardDate: "2026-03-14"}, 5, now)

	assert.Equal(t, 4, g.DailyRewardCount)
}

func TestComputeGrant_DailyCounterResetsOnNewDay(t *testing.T) {
	now := time.Date(2026, 3, 15, 0, 30, 0, 0, time.Local)
	g := computeGrant(Progress{Level: 1, Exp: 10, DailyRewardCount: 5, LastRewardDate: "2026-03-14"}, 5, now)

	assert.Equal(t, 1, g.DailyRewardCount)
	assert.Equal(t, "2026-03-15", g.RewardDate)
}
