package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/okian/skilltier/internal/adapters/mq/queue"
	"github.com/okian/skilltier/internal/adapters/notify"
	"github.com/okian/skilltier/internal/domain/model"
	"github.com/okian/skilltier/internal/domain/scoring"
	"github.com/okian/skilltier/internal/domain/tier"
	"github.com/okian/skilltier/pkg/logger"
	"github.com/okian/skilltier/pkg/metrics"
)

// AssessmentResult is the outcome of one assessment.
type AssessmentResult struct {
	Candidate       model.Candidate `json:"candidate"`
	Tier            int             `json:"tier"`
	TierName        string          `json:"tierName"`
	TierScore       float64         `json:"tierScore"`
	TierDescription string          `json:"tierDescription"`
}

// Assess scores a candidate's skills, stores tier and score, and sends the
// tier notification if none has been sent yet. A nil multiplier selects the
// configured default.
func (s *Service) Assess(ctx context.Context, candidateID string, multiplier *float64) (AssessmentResult, error) {
	start := time.Now()
	res, err := s.assess(ctx, candidateID, multiplier)
	if err != nil {
		metrics.RecordAssessmentError()
		return AssessmentResult{}, err
	}
	metrics.RecordAssessment(res.Tier, float64(time.Since(start).Milliseconds()))
	return res, nil
}

func (s *Service) assess(ctx context.Context, candidateID string, multiplier *float64) (AssessmentResult, error) {
	pre, err := s.store.GetCandidate(ctx, candidateID)
	if err != nil {
		return AssessmentResult{}, err
	}
	m, err := s.resolveMultiplier(multiplier)
	if err != nil {
		return AssessmentResult{}, err
	}

	score := scoring.ComputeScore(pre.Skills, m)
	t := tier.Classify(score)
	band, _ := tier.Lookup(t)

	updated, err := s.store.ApplyAssessment(ctx, candidateID, t, score)
	if err != nil {
		return AssessmentResult{}, fmt.Errorf("store assessment: %w", err)
	}
	s.logger.Info(ctx, "candidate assessed",
		logger.String("candidate_id", candidateID),
		logger.Int("tier", t),
		logger.Float64("score", score),
	)

	if pre.NotificationSent {
		metrics.RecordNotification(metrics.NotificationTier, metrics.ResultSkipped)
	} else if s.notifyOnce(ctx, updated, band) {
		updated.NotificationSent = true
	}

	return AssessmentResult{
		Candidate:       updated,
		Tier:            t,
		TierName:        band.Name,
		TierScore:       score,
		TierDescription: band.Description,
	}, nil
}

func (s *Service) resolveMultiplier(m *float64) (float64, error) {
	if m == nil {
		return s.multiplier, nil
	}
	if *m < 0 || math.IsNaN(*m) || math.IsInf(*m, 0) {
		return 0, fmt.Errorf("yearsOfExperienceMultiplier must be a finite number >= 0: %w", model.ErrInvalid)
	}
	return *m, nil
}

// notifyOnce claims the notification flag and, if this call won it, sends
// the tier message. It reports whether the flag is now set. Delivery errors
// are logged and counted only.
func (s *Service) notifyOnce(ctx context.Context, c model.Candidate, band tier.Band) bool {
	won, err := s.store.MarkNotified(ctx, c.ID)
	if err != nil {
		metrics.RecordErrorByComponent("service", "mark_notified")
		s.logger.Error(ctx, "claiming notification flag failed",
			logger.String("candidate_id", c.ID),
			logger.Error(err),
		)
		return false
	}
	if !won {
		metrics.RecordNotification(metrics.NotificationTier, metrics.ResultSkipped)
		return true
	}

	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	err = s.notifier.NotifyTierAssigned(nctx,
		notify.Recipient{Email: c.Email, FirstName: c.FirstName}, band.Tier, band.Name)
	if err != nil {
		metrics.RecordNotification(metrics.NotificationTier, metrics.ResultFailed)
		s.logger.Warn(ctx, "tier notification failed",
			logger.String("candidate_id", c.ID),
			logger.Error(err),
		)
		return true
	}
	metrics.RecordNotification(metrics.NotificationTier, metrics.ResultSent)
	return true
}

// EnqueueAssessment schedules a background assessment. It returns false
// without error when the candidate already has one pending, and wraps
// queue.ErrFull when the queue is at capacity.
func (s *Service) EnqueueAssessment(ctx context.Context, candidateID string, multiplier *float64) (bool, error) {
	return s.enqueue(ctx, candidateID, multiplier, false)
}

func (s *Service) enqueue(ctx context.Context, candidateID string, multiplier *float64, wait bool) (bool, error) {
	s.mu.RLock()
	started, q := s.started, s.queue
	s.mu.RUnlock()
	if !started {
		return false, ErrNotStarted
	}
	if _, err := s.resolveMultiplier(multiplier); err != nil {
		return false, err
	}
	if _, err := s.store.GetCandidate(ctx, candidateID); err != nil {
		return false, err
	}
	if s.deduper.SeenAndRecord(ctx, candidateID) {
		return false, nil
	}
	j := queue.Job{CandidateID: candidateID, Multiplier: multiplier}
	var err error
	if wait {
		err = q.EnqueueWait(ctx, j)
	} else {
		err = q.Enqueue(ctx, j)
	}
	if err != nil {
		s.deduper.Unrecord(ctx, candidateID)
		return false, fmt.Errorf("enqueue %s: %w", candidateID, err)
	}
	return true, nil
}

// BulkResult summarises AssessAll.
type BulkResult struct {
	Total   int `json:"total"`
	Queued  int `json:"queued"`
	Pending int `json:"alreadyPending"`
}

// AssessAll enqueues every stored candidate for background reassessment.
// When the queue is full it waits for the workers to make room, so every
// candidate is either queued or already pending on success. It stops early
// with an error when ctx ends or the service stops.
func (s *Service) AssessAll(ctx context.Context, multiplier *float64) (BulkResult, error) {
	if _, err := s.resolveMultiplier(multiplier); err != nil {
		return BulkResult{}, err
	}
	cs, total, err := s.store.ListCandidates(ctx, model.ListFilter{})
	if err != nil {
		return BulkResult{}, fmt.Errorf("list candidates: %w", err)
	}
	res := BulkResult{Total: total}
	for _, c := range cs {
		queued, err := s.enqueue(ctx, c.ID, multiplier, true)
		switch {
		case err == nil && queued:
			res.Queued++
		case err == nil:
			res.Pending++
		case errors.Is(err, model.ErrNotFound):
			// deleted since listing
			res.Total--
		default:
			s.logger.Warn(ctx, "bulk reassessment interrupted",
				logger.Int("queued", res.Queued),
				logger.Int("total", res.Total),
				logger.Error(err),
			)
			return res, err
		}
	}
	s.logger.Info(ctx, "bulk reassessment scheduled",
		logger.Int("queued", res.Queued),
		logger.Int("pending", res.Pending),
	)
	return res, nil
}

func (s *Service) handleJob(ctx context.Context, j queue.Job) error {
	_, err := s.Assess(ctx, j.CandidateID, j.Multiplier)
	if errors.Is(err, model.ErrNotFound) {
		s.logger.Debug(ctx, "candidate gone before reassessment", logger.String("candidate_id", j.CandidateID))
		return nil
	}
	return err
}
