package quizroom

import "math"

// awardPoints computes the points-mode score for a correct answer per
// §4.3.4. elapsed and limit are both in seconds; limit <= 0 means no
// countdown was armed for this round, in which case the time bonus is zero.
func awardPoints(grade int, elapsed, limit float64, submitOrder, streak int) int {
	base := float64(grade) * 100

	var timeBonus float64
	if limit > 0 {
		ratio := (limit - elapsed) / limit
		if ratio < 0 {
			ratio = 0
		}
		timeBonus = base * 0.5 * math.Pow(ratio, 1.5)
	}

	var positionBonus float64
	if submitOrder >= 0 && submitOrder < len(pointsPositionBonus) {
		positionBonus = float64(pointsPositionBonus[submitOrder])
	}

	multiplier := pointsStreakMultiplier[len(pointsStreakMultiplier)-1]
	if streak >= 0 && streak < len(pointsStreakMultiplier) {
		multiplier = pointsStreakMultiplier[streak]
	}

	total := (base + timeBonus + positionBonus) * multiplier
	return int(math.Round(total))
}
