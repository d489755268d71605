package analytics

import (
	"math"

	"github.com/okian/skilltier/internal/domain/model"
)

// ExperienceBucket counts candidates whose years of experience fall in
// [Lower, Upper).
type ExperienceBucket struct {
	Range string  `json:"range"`
	Lower float64 `json:"-"`
	Upper float64 `json:"-"`
	Count int     `json:"count"`
}

// experienceBands are the fixed histogram bands, in display order.
var experienceBands = []ExperienceBucket{
	{Range: "0-1", Lower: 0, Upper: 1},
	{Range: "1-3", Lower: 1, Upper: 3},
	{Range: "3-5", Lower: 3, Upper: 5},
	{Range: "5-10", Lower: 5, Upper: 10},
	{Range: "10+", Lower: 10, Upper: math.Inf(1)},
}

// ExperienceHistogram always holds all five bands in order.
type ExperienceHistogram []ExperienceBucket

// Count returns the count for a range label, or 0 if the label is unknown.
func (h ExperienceHistogram) Count(label string) int {
	for _, b := range h {
		if b.Range == label {
			return b.Count
		}
	}
	return 0
}

// BuildExperienceHistogram buckets every candidate by years of experience.
// Values below the first band are counted in it.
func BuildExperienceHistogram(candidates []model.Candidate) ExperienceHistogram {
	h := make(ExperienceHistogram, len(experienceBands))
	copy(h, experienceBands)
	for _, c := range candidates {
		h[bucketIndex(c.YearsOfExperience)].Count++
	}
	return h
}

func bucketIndex(years float64) int {
	for i, b := range experienceBands {
		if years < b.Upper {
			return i
		}
	}
	return len(experienceBands) - 1
}
