package model

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Proficiency bounds for a self-reported skill.
const (
	MinProficiency = 0
	MaxProficiency = 10
)

// Skill is a self-reported skill owned by a candidate.
type Skill struct {
	ID          string    `json:"id"`
	CandidateID string    `json:"candidateId"`
	Name        string    `json:"skillName"`
	Proficiency float64   `json:"proficiency"`
	YearsUsed   float64   `json:"yearsUsed"`
	CreatedAt   time.Time `json:"createdAt"`
}

// SkillInput carries a new skill. YearsUsed defaults to zero.
type SkillInput struct {
	Name        string  `json:"skillName"`
	Proficiency float64 `json:"proficiency"`
	YearsUsed   float64 `json:"yearsUsed,omitempty"`
}

// Validate checks name, proficiency range and years.
func (in SkillInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("skillName is required: %w", ErrInvalid)
	}
	if err := validateProficiency(in.Proficiency); err != nil {
		return err
	}
	return validateYears("yearsUsed", in.YearsUsed)
}

// SkillUpdate is a partial skill update; nil fields are left untouched.
type SkillUpdate struct {
	Name        *string  `json:"skillName,omitempty"`
	Proficiency *float64 `json:"proficiency,omitempty"`
	YearsUsed   *float64 `json:"yearsUsed,omitempty"`
}

// Validate checks the fields that are present.
func (u SkillUpdate) Validate() error {
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		return fmt.Errorf("skillName must not be empty: %w", ErrInvalid)
	}
	if u.Proficiency != nil {
		if err := validateProficiency(*u.Proficiency); err != nil {
			return err
		}
	}
	if u.YearsUsed != nil {
		return validateYears("yearsUsed", *u.YearsUsed)
	}
	return nil
}

// Apply returns s with the present fields of u copied over.
func (u SkillUpdate) Apply(s Skill) Skill {
	if u.Name != nil {
		s.Name = strings.TrimSpace(*u.Name)
	}
	if u.Proficiency != nil {
		s.Proficiency = *u.Proficiency
	}
	if u.YearsUsed != nil {
		s.YearsUsed = *u.YearsUsed
	}
	return s
}

func validateProficiency(p float64) error {
	if !isFinite(p) || p < MinProficiency || p > MaxProficiency {
		return fmt.Errorf("proficiency must be between %d and %d: %w", MinProficiency, MaxProficiency, ErrInvalid)
	}
	return nil
}

// validateYears rejects negative and non-finite year counts.
func validateYears(field string, v float64) error {
	if !isFinite(v) || v < 0 {
		return fmt.Errorf("%s must be a finite number >= 0: %w", field, ErrInvalid)
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
