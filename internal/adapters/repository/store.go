// Package repository defines the candidate store interface and an in-memory
// implementation.
package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/okian/skilltier/internal/domain/model"
)

// Store provides read/write access to candidates and their skills.
// Implementations must be safe for concurrent use.
type Store interface {
	// CreateCandidate inserts c. Returns ErrConflict if the email is taken.
	CreateCandidate(ctx context.Context, c model.Candidate) error
	// GetCandidate returns a candidate with its skills, or ErrNotFound.
	GetCandidate(ctx context.Context, id string) (model.Candidate, error)
	// ListCandidates returns the filtered page, newest first, and the
	// filtered total before paging.
	ListCandidates(ctx context.Context, f model.ListFilter) ([]model.Candidate, int, error)
	// UpdateCandidate applies a partial update and returns the result.
	UpdateCandidate(ctx context.Context, id string, u model.CandidateUpdate) (model.Candidate, error)
	// DeleteCandidate removes a candidate and its skills.
	DeleteCandidate(ctx context.Context, id string) error
	// CountCandidates returns the number of stored candidates.
	CountCandidates(ctx context.Context) (int, error)

	// ApplyAssessment sets tier, tier score and status=tier_assigned in one
	// atomic write and returns the updated candidate.
	ApplyAssessment(ctx context.Context, id string, tier int, score float64) (model.Candidate, error)
	// MarkNotified sets notificationSent only if it is currently false.
	// It returns true when this call performed the transition.
	MarkNotified(ctx context.Context, id string) (bool, error)

	// AddSkill inserts s for its candidate. Returns ErrNotFound if the
	// candidate does not exist.
	AddSkill(ctx context.Context, s model.Skill) error
	// GetSkill returns one skill, or ErrNotFound.
	GetSkill(ctx context.Context, id string) (model.Skill, error)
	// ListSkills returns a candidate's skills by proficiency descending.
	ListSkills(ctx context.Context, candidateID string) ([]model.Skill, error)
	// UpdateSkill applies a partial update and returns the result.
	UpdateSkill(ctx context.Context, id string, u model.SkillUpdate) (model.Skill, error)
	// DeleteSkill removes one skill.
	DeleteSkill(ctx context.Context, id string) error
	// AllSkills returns every skill row.
	AllSkills(ctx context.Context) ([]model.Skill, error)

	Close() error
}

// NewID returns a new random identifier for candidates and skills.
func NewID() string {
	return uuid.NewString()
}
