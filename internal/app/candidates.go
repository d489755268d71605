package service

import (
	"context"
	"fmt"

	"github.com/okian/skilltier/internal/adapters/notify"
	"github.com/okian/skilltier/internal/adapters/repository"
	"github.com/okian/skilltier/internal/domain/model"
	"github.com/okian/skilltier/pkg/logger"
	"github.com/okian/skilltier/pkg/metrics"
)

// Register validates and stores a new candidate, then sends the welcome
// notification. A duplicate email returns model.ErrConflict.
func (s *Service) Register(ctx context.Context, in model.NewCandidate) (model.Candidate, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return model.Candidate{}, err
	}
	now := s.now()
	c := model.Candidate{
		ID:                repository.NewID(),
		Email:             in.Email,
		FirstName:         in.FirstName,
		LastName:          in.LastName,
		Phone:             in.Phone,
		Location:          in.Location,
		YearsOfExperience: in.YearsOfExperience,
		Status:            model.StatusRegistered,
		CreatedAt:         now,
		UpdatedAt:         now,
		Skills:            []model.Skill{},
	}
	if err := s.store.CreateCandidate(ctx, c); err != nil {
		return model.Candidate{}, fmt.Errorf("register: %w", err)
	}
	metrics.RecordRegistration()
	s.refreshCandidateGauge(ctx)
	s.logger.Info(ctx, "candidate registered", logger.String("candidate_id", c.ID))

	s.sendWelcome(ctx, c)
	return c, nil
}

func (s *Service) sendWelcome(ctx context.Context, c model.Candidate) {
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	err := s.notifier.NotifyWelcome(nctx, notify.Recipient{Email: c.Email, FirstName: c.FirstName})
	if err != nil {
		metrics.RecordNotification(metrics.NotificationWelcome, metrics.ResultFailed)
		s.logger.Warn(ctx, "welcome notification failed",
			logger.String("candidate_id", c.ID),
			logger.Error(err),
		)
		return
	}
	metrics.RecordNotification(metrics.NotificationWelcome, metrics.ResultSent)
}

// ListCandidates returns one filtered page, newest first. Take defaults to the
// configured page size and is capped at the maximum.
func (s *Service) ListCandidates(ctx context.Context, f model.ListFilter) (model.CandidatePage, error) {
	if f.Skip < 0 {
		f.Skip = 0
	}
	if f.Take <= 0 {
		f.Take = s.defaultPageSize
	}
	if f.Take > s.maxPageSize {
		f.Take = s.maxPageSize
	}
	cs, total, err := s.store.ListCandidates(ctx, f)
	if err != nil {
		return model.CandidatePage{}, fmt.Errorf("list candidates: %w", err)
	}
	return model.CandidatePage{Data: cs, Total: total, Skip: f.Skip, Take: f.Take}, nil
}

// GetCandidate returns one candidate with skills.
func (s *Service) GetCandidate(ctx context.Context, id string) (model.Candidate, error) {
	return s.store.GetCandidate(ctx, id)
}

// UpdateCandidate applies a partial update. Email cannot be changed.
func (s *Service) UpdateCandidate(ctx context.Context, id string, u model.CandidateUpdate) (model.Candidate, error) {
	if err := u.Validate(); err != nil {
		return model.Candidate{}, err
	}
	return s.store.UpdateCandidate(ctx, id, u)
}

// DeleteCandidate removes a candidate and its skills.
func (s *Service) DeleteCandidate(ctx context.Context, id string) error {
	if err := s.store.DeleteCandidate(ctx, id); err != nil {
		return err
	}
	s.refreshCandidateGauge(ctx)
	return nil
}
