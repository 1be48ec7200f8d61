package reward

import "time"

// requiredExpSteps holds the EXP thresholds for the early levels. Levels past
// the table all cost the flat cap.
var requiredExpSteps = [...]int{100, 150, 300, 500}

const requiredExpCap = 1000

// RequiredExp returns the EXP needed to advance from the given level.
func RequiredExp(level int) int {
	if level < 1 {
		level = 1
	}
	if level <= len(requiredExpSteps) {
		return requiredExpSteps[level-1]
	}
	return requiredExpCap
}

// DateOf formats t as the local calendar date used for the daily counter.
// String comparison avoids timezone/type mismatches with the stored column.
func DateOf(t time.Time) string {
	return t.In(time.Local).Format("2006-01-02")
}

// computeGrant applies one reward of `award` EXP to the latest progress
// snapshot. On level-up exp resets to exactly 0: overflow beyond the
// threshold is discarded, matching live behavior.
func computeGrant(p Progress, award int, now time.Time) Grant {
	level := p.Level
	if level < 1 {
		level = 1
	}
	count := p.DailyRewardCount
	if p.LastRewardDate != DateOf(now) {
		count = 0
	}

	g := Grant{
		TotalExp:         p.TotalExp + award,
		DailyRewardCount: count + 1,
		RewardDate:       DateOf(now),
		ExpAwarded:       award,
	}

	if newExp := p.Exp + award; newExp >= RequiredExp(level) {
		g.Exp = 0
		g.Level = level + 1
		g.LeveledUp = true
	} else {
		g.Exp = newExp
		g.Level = level
	}
	return g
}
