package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/skilltier/internal/adapters/repository"
	"github.com/okian/skilltier/internal/domain/model"
)

// AddSkill attaches a skill to an existing candidate. The candidate is not
// reassessed automatically.
func (s *Service) AddSkill(ctx context.Context, candidateID string, in model.SkillInput) (model.Skill, error) {
	if err := in.Validate(); err != nil {
		return model.Skill{}, err
	}
	sk := model.Skill{
		ID:          repository.NewID(),
		CandidateID: candidateID,
		Name:        strings.TrimSpace(in.Name),
		Proficiency: in.Proficiency,
		YearsUsed:   in.YearsUsed,
		CreatedAt:   s.now(),
	}
	if err := s.store.AddSkill(ctx, sk); err != nil {
		return model.Skill{}, fmt.Errorf("add skill: %w", err)
	}
	return sk, nil
}

// ListSkills returns a candidate's skills by proficiency descending.
func (s *Service) ListSkills(ctx context.Context, candidateID string) ([]model.Skill, error) {
	if _, err := s.store.GetCandidate(ctx, candidateID); err != nil {
		return nil, err
	}
	return s.store.ListSkills(ctx, candidateID)
}

// UpdateSkill applies a partial update to a skill owned by candidateID.
func (s *Service) UpdateSkill(ctx context.Context, candidateID, skillID string, u model.SkillUpdate) (model.Skill, error) {
	if err := u.Validate(); err != nil {
		return model.Skill{}, err
	}
	if err := s.ownedSkill(ctx, candidateID, skillID); err != nil {
		return model.Skill{}, err
	}
	return s.store.UpdateSkill(ctx, skillID, u)
}

// DeleteSkill removes a skill owned by candidateID.
func (s *Service) DeleteSkill(ctx context.Context, candidateID, skillID string) error {
	if err := s.ownedSkill(ctx, candidateID, skillID); err != nil {
		return err
	}
	return s.store.DeleteSkill(ctx, skillID)
}

func (s *Service) ownedSkill(ctx context.Context, candidateID, skillID string) error {
	sk, err := s.store.GetSkill(ctx, skillID)
	if err != nil {
		return err
	}
	if sk.CandidateID != candidateID {
		return fmt.Errorf("skill %s of candidate %s: %w", skillID, candidateID, model.ErrNotFound)
	}
	return nil
}
