// Package analytics computes read-only statistics over the candidate population.
//
// The Build* functions are pure and operate on rows already loaded from the
// store. Aggregator wires them to a Reader; each query loads its own snapshot,
// so results of two queries may reflect different store states.
package analytics

import (
	"math"
	"sort"

	"github.com/okian/skilltier/internal/domain/model"
	"github.com/okian/skilltier/internal/domain/tier"
)

// Dashboard summarizes assessment progress and the tier distribution.
type Dashboard struct {
	TotalCandidates    int         `json:"totalCandidates"`
	AssessedCandidates int         `json:"assessedCandidates"`
	PendingAssessment  int         `json:"pendingAssessment"`
	AssessmentRate     float64     `json:"assessmentRate"`
	AverageTierScore   float64     `json:"averageTierScore"`
	TierDistribution   []TierCount `json:"tierDistribution"`
}

// TierCount is one row of a tier distribution. Percentage is relative to all
// candidates, assessed or not.
type TierCount struct {
	Tier       int     `json:"tier"`
	TierName   string  `json:"tierName"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// SkillStat aggregates every skill row sharing a name.
type SkillStat struct {
	SkillName          string  `json:"skillName"`
	CandidatesCount    int     `json:"candidatesCount"`
	AverageProficiency float64 `json:"averageProficiency"`
	MaxProficiency     float64 `json:"maxProficiency"`
}

// LocationCount is the number of candidates in one location.
type LocationCount struct {
	Location string `json:"location"`
	Count    int    `json:"count"`
}

// TierStats summarizes assigned tier scores.
type TierStats struct {
	Count    int     `json:"count"`
	Assessed int     `json:"assessed"`
	Average  float64 `json:"averageTierScore"`
	Min      float64 `json:"minTierScore"`
	Max      float64 `json:"maxTierScore"`
}

// BuildDashboard computes dashboard statistics. The distribution lists only
// tiers that occur in the data, ordered by tier.
func BuildDashboard(candidates []model.Candidate) Dashboard {
	d := Dashboard{TotalCandidates: len(candidates), TierDistribution: []TierCount{}}

	var scoreSum float64
	var scored int
	for _, c := range candidates {
		if c.Status == model.StatusTierAssigned {
			d.AssessedCandidates++
		}
		if c.TierScore != nil {
			scoreSum += *c.TierScore
			scored++
		}
	}

	d.PendingAssessment = d.TotalCandidates - d.AssessedCandidates
	d.AssessmentRate = round2(percent(d.AssessedCandidates, d.TotalCandidates))
	d.AverageTierScore = round2(ratio(scoreSum, float64(scored)))

	for _, tc := range countTiers(candidates) {
		tc.Percentage = round2(percent(tc.Count, d.TotalCandidates))
		d.TierDistribution = append(d.TierDistribution, tc)
	}
	return d
}

// BuildTierDistribution counts candidates per assigned tier without percentages.
func BuildTierDistribution(candidates []model.Candidate) []TierCount {
	return countTiers(candidates)
}

// BuildTierStats computes count, average, min and max of assigned tier scores.
func BuildTierStats(candidates []model.Candidate) TierStats {
	st := TierStats{Count: len(candidates)}
	var sum float64
	for _, c := range candidates {
		if c.TierScore == nil {
			continue
		}
		s := *c.TierScore
		if st.Assessed == 0 || s < st.Min {
			st.Min = s
		}
		if st.Assessed == 0 || s > st.Max {
			st.Max = s
		}
		sum += s
		st.Assessed++
	}
	st.Average = round2(ratio(sum, float64(st.Assessed)))
	st.Min = round2(st.Min)
	st.Max = round2(st.Max)
	return st
}

// BuildSkillStats groups skill rows by name, sorted by row count descending.
func BuildSkillStats(skills []model.Skill) []SkillStat {
	type acc struct {
		count int
		sum   float64
		max   float64
	}
	groups := make(map[string]*acc)
	for _, s := range skills {
		a, ok := groups[s.Name]
		if !ok {
			a = &acc{max: s.Proficiency}
			groups[s.Name] = a
		}
		a.count++
		a.sum += s.Proficiency
		if s.Proficiency > a.max {
			a.max = s.Proficiency
		}
	}

	out := make([]SkillStat, 0, len(groups))
	for name, a := range groups {
		out = append(out, SkillStat{
			SkillName:          name,
			CandidatesCount:    a.count,
			AverageProficiency: round2(ratio(a.sum, float64(a.count))),
			MaxProficiency:     a.max,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CandidatesCount != out[j].CandidatesCount {
			return out[i].CandidatesCount > out[j].CandidatesCount
		}
		return out[i].SkillName < out[j].SkillName
	})
	return out
}

// BuildLocations counts candidates per location, skipping unset locations.
func BuildLocations(candidates []model.Candidate) []LocationCount {
	counts := make(map[string]int)
	for _, c := range candidates {
		if c.Location == "" {
			continue
		}
		counts[c.Location]++
	}
	out := make([]LocationCount, 0, len(counts))
	for loc, n := range counts {
		out = append(out, LocationCount{Location: loc, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Location < out[j].Location
	})
	return out
}

func countTiers(candidates []model.Candidate) []TierCount {
	var counts [tier.Count]int
	for _, c := range candidates {
		if c.Tier == nil {
			continue
		}
		if t := *c.Tier; t >= 0 && t < tier.Count {
			counts[t]++
		}
	}
	out := make([]TierCount, 0, tier.Count)
	for t, n := range counts {
		if n == 0 {
			continue
		}
		out = append(out, TierCount{Tier: t, TierName: tier.Name(t), Count: n})
	}
	return out
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

func percent(part, total int) float64 {
	return ratio(float64(part), float64(total)) * 100
}

func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(v*100) / 100
}
