package analytics

import (
	"context"
	"fmt"

	"github.com/okian/skilltier/internal/domain/model"
)

// Reader is the read side of the candidate store needed by the aggregator.
type Reader interface {
	ListCandidates(ctx context.Context, f model.ListFilter) ([]model.Candidate, int, error)
	AllSkills(ctx context.Context) ([]model.Skill, error)
}

// Aggregator runs analytics queries against a Reader. It holds no state of
// its own and never writes.
type Aggregator struct {
	reader Reader
}

// NewAggregator creates an aggregator over r.
func NewAggregator(r Reader) *Aggregator {
	return &Aggregator{reader: r}
}

// Dashboard returns dashboard statistics.
func (a *Aggregator) Dashboard(ctx context.Context) (Dashboard, error) {
	cs, err := a.candidates(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	return BuildDashboard(cs), nil
}

// Skills returns per-skill statistics.
func (a *Aggregator) Skills(ctx context.Context) ([]SkillStat, error) {
	skills, err := a.reader.AllSkills(ctx)
	if err != nil {
		return nil, fmt.Errorf("load skills: %w", err)
	}
	return BuildSkillStats(skills), nil
}

// Locations returns the candidate count per location.
func (a *Aggregator) Locations(ctx context.Context) ([]LocationCount, error) {
	cs, err := a.candidates(ctx)
	if err != nil {
		return nil, err
	}
	return BuildLocations(cs), nil
}

// Experience returns the experience histogram.
func (a *Aggregator) Experience(ctx context.Context) (ExperienceHistogram, error) {
	cs, err := a.candidates(ctx)
	if err != nil {
		return nil, err
	}
	return BuildExperienceHistogram(cs), nil
}

// TierDistribution returns the candidate count per assigned tier.
func (a *Aggregator) TierDistribution(ctx context.Context) ([]TierCount, error) {
	cs, err := a.candidates(ctx)
	if err != nil {
		return nil, err
	}
	return BuildTierDistribution(cs), nil
}

// TierStats returns tier score statistics.
func (a *Aggregator) TierStats(ctx context.Context) (TierStats, error) {
	cs, err := a.candidates(ctx)
	if err != nil {
		return TierStats{}, err
	}
	return BuildTierStats(cs), nil
}

func (a *Aggregator) candidates(ctx context.Context) ([]model.Candidate, error) {
	cs, _, err := a.reader.ListCandidates(ctx, model.ListFilter{})
	if err != nil {
		return nil, fmt.Errorf("load candidates: %w", err)
	}
	return cs, nil
}
