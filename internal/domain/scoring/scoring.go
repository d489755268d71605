// Package scoring turns a candidate's self-reported skills into a 0-100 score.
package scoring

import (
	"math"

	"github.com/okian/skilltier/internal/domain/model"
)

// Scoring constants.
const (
	// DefaultExperienceMultiplier scales average years used into experience points.
	DefaultExperienceMultiplier = 1.2

	proficiencyWeight   = 10
	maxExperienceFactor = 20
	minScoreValue       = 0
	maxScoreValue       = 100
)

// ComputeScore averages proficiency (0-10, weighted x10) and adds an
// experience factor capped at 20 points. The result is clamped to [0,100].
// Input values are taken as given; range validation happens before skills
// reach the store.
func ComputeScore(skills []model.Skill, experienceMultiplier float64) float64 {
	if len(skills) == 0 {
		return 0
	}

	var proficiencySum, yearsSum float64
	for _, s := range skills {
		proficiencySum += s.Proficiency
		yearsSum += s.YearsUsed
	}
	n := float64(len(skills))
	avgProficiency := proficiencySum / n
	avgYearsUsed := yearsSum / n

	experienceFactor := math.Min(avgYearsUsed*experienceMultiplier, maxExperienceFactor)
	score := avgProficiency*proficiencyWeight + experienceFactor

	return math.Max(minScoreValue, math.Min(maxScoreValue, score))
}
