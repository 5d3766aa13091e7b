package service

import "math"

// xpPerLevelSquare is the multiplier in the cumulative level threshold
// formula threshold(l) = l² × 100. The same formula backs level-up detection
// here and the progress bar on the profile page, so it must not drift.
const xpPerLevelSquare = 100

// LevelThreshold returns the cumulative XP required to advance past the
// given level, counted from level 1. LevelThreshold(0) is 0.
func LevelThreshold(level int) int64 {
	if level <= 0 {
		return 0
	}
	return int64(level) * int64(level) * xpPerLevelSquare
}

// LevelForXP derives the level for a cumulative XP total: the largest L ≥ 1
// with LevelThreshold(L-1) ≤ xp, i.e. floor(sqrt(xp/100)) + 1.
func LevelForXP(xp int64) int {
	if xp < 0 {
		return 1
	}

	level := int(math.Sqrt(float64(xp)/xpPerLevelSquare)) + 1
	// Correct any floating point drift at exact thresholds.
	for LevelThreshold(level) <= xp {
		level++
	}
	for level > 1 && LevelThreshold(level-1) > xp {
		level--
	}
	return level
}

// LevelProgress returns the fraction of the way from the current level to
// the next, always in [0, 1).
func LevelProgress(xp int64) float64 {
	level := LevelForXP(xp)
	floor := LevelThreshold(level - 1)
	ceil := LevelThreshold(level)
	return float64(xp-floor) / float64(ceil-floor)
}
