// Package tier classifies assessment scores into the six skill tiers.
package tier

// Tier indices.
const (
	EntryLevel = iota
	Beginner
	Intermediate
	Advanced
	Expert
	Master
)

// Count is the number of tiers.
const Count = Master + 1

// Band is one row of the threshold table. Classification only looks at Min;
// Max is kept for display and for Contains.
type Band struct {
	Tier        int     `json:"tier"`
	Min         float64 `json:"minScore"`
	Max         float64 `json:"maxScore"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
}

// Contains reports whether score falls inside the band. Bands are half-open
// except the top one, which includes its upper bound.
func (b Band) Contains(score float64) bool {
	if score < b.Min {
		return false
	}
	if b.Tier == Master {
		return score <= b.Max
	}
	return score < b.Max
}

// bands is indexed by tier and ordered by Min.
var bands = [Count]Band{
	{Tier: EntryLevel, Min: 0, Max: 20, Name: "Entry Level", Description: "Basic knowledge with minimal experience"},
	{Tier: Beginner, Min: 20, Max: 35, Name: "Beginner", Description: "Limited practical experience"},
	{Tier: Intermediate, Min: 35, Max: 55, Name: "Intermediate", Description: "Solid experience across multiple skills"},
	{Tier: Advanced, Min: 55, Max: 70, Name: "Advanced", Description: "Deep expertise with leadership capabilities"},
	{Tier: Expert, Min: 70, Max: 85, Name: "Expert", Description: "Mastery in specialized domains"},
	{Tier: Master, Min: 85, Max: 100, Name: "Master", Description: "Exceptional expertise and thought leadership"},
}

// Classify returns the tier for score. The table is scanned from the top tier
// down and the first band whose Min is <= score wins, so boundary values land
// in the higher tier. Anything below the lowest Min (including NaN) is tier 0.
func Classify(score float64) int {
	for i := len(bands) - 1; i >= 0; i-- {
		if score >= bands[i].Min {
			return bands[i].Tier
		}
	}
	return EntryLevel
}

// Lookup returns the band for a tier index.
func Lookup(t int) (Band, bool) {
	if t < 0 || t >= Count {
		return Band{}, false
	}
	return bands[t], true
}

// Name returns the display name of t, or "" for an unknown tier.
func Name(t int) string {
	b, _ := Lookup(t)
	return b.Name
}

// Bands returns a copy of the threshold table ordered by tier.
func Bands() []Band {
	out := make([]Band, Count)
	copy(out, bands[:])
	return out
}
