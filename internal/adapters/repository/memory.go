package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/okian/skilltier/internal/domain/model"
)

type candidateRecord struct {
	candidate model.Candidate
	seq       uint64
	skillIDs  []string
}

// MemoryStore implements Store in process memory. All methods take a single
// lock, so every write is atomic with respect to readers.
type MemoryStore struct {
	mu         sync.RWMutex
	candidates map[string]*candidateRecord
	byEmail    map[string]string
	skills     map[string]model.Skill
	seq        uint64
	now        func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		candidates: make(map[string]*candidateRecord),
		byEmail:    make(map[string]string),
		skills:     make(map[string]model.Skill),
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateCandidate inserts a candidate.
func (s *MemoryStore) CreateCandidate(ctx context.Context, c model.Candidate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("candidate id is required: %w", model.ErrInvalid)
	}
	email := strings.ToLower(c.Email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[email]; ok {
		return fmt.Errorf("candidate with email %s: %w", email, ErrConflict)
	}
	if _, ok := s.candidates[c.ID]; ok {
		return fmt.Errorf("candidate %s: %w", c.ID, ErrConflict)
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}
	if c.Status == "" {
		c.Status = model.StatusRegistered
	}
	c.Skills = nil
	s.seq++
	s.candidates[c.ID] = &candidateRecord{candidate: cloneCandidate(c), seq: s.seq}
	s.byEmail[email] = c.ID
	return nil
}

// GetCandidate returns a candidate with its skills.
func (s *MemoryStore) GetCandidate(ctx context.Context, id string) (model.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return model.Candidate{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.candidates[id]
	if !ok {
		return model.Candidate{}, fmt.Errorf("candidate %s: %w", id, ErrNotFound)
	}
	return s.materialize(rec), nil
}

// ListCandidates returns a filtered page, newest first.
func (s *MemoryStore) ListCandidates(ctx context.Context, f model.ListFilter) ([]model.Candidate, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*candidateRecord, 0, len(s.candidates))
	for _, rec := range s.candidates {
		if f.Matches(rec.candidate) {
			matched = append(matched, rec)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.candidate.CreatedAt.Equal(b.candidate.CreatedAt) {
			return a.candidate.CreatedAt.After(b.candidate.CreatedAt)
		}
		return a.seq > b.seq
	})

	total := len(matched)
	start, end := pageBounds(total, f.Skip, f.Take)
	out := make([]model.Candidate, 0, end-start)
	for _, rec := range matched[start:end] {
		out = append(out, s.materialize(rec))
	}
	return out, total, nil
}

// UpdateCandidate applies a partial update.
func (s *MemoryStore) UpdateCandidate(ctx context.Context, id string, u model.CandidateUpdate) (model.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return model.Candidate{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.candidates[id]
	if !ok {
		return model.Candidate{}, fmt.Errorf("candidate %s: %w", id, ErrNotFound)
	}
	rec.candidate = u.Apply(rec.candidate)
	rec.candidate.UpdatedAt = s.now()
	return s.materialize(rec), nil
}

// DeleteCandidate removes a candidate and its skills.
func (s *MemoryStore) DeleteCandidate(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.candidates[id]
	if !ok {
		return fmt.Errorf("candidate %s: %w", id, ErrNotFound)
	}
	for _, sid := range rec.skillIDs {
		delete(s.skills, sid)
	}
	delete(s.byEmail, strings.ToLower(rec.candidate.Email))
	delete(s.candidates, id)
	return nil
}

// CountCandidates returns the number of candidates.
func (s *MemoryStore) CountCandidates(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.candidates), nil
}

// ApplyAssessment writes tier, score and status together.
func (s *MemoryStore) ApplyAssessment(ctx context.Context, id string, tier int, score float64) (model.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return model.Candidate{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.candidates[id]
	if !ok {
		return model.Candidate{}, fmt.Errorf("candidate %s: %w", id, ErrNotFound)
	}
	rec.candidate.Tier = &tier
	rec.candidate.TierScore = &score
	rec.candidate.Status = model.StatusTierAssigned
	rec.candidate.UpdatedAt = s.now()
	return s.materialize(rec), nil
}

// MarkNotified flips notificationSent from false to true.
func (s *MemoryStore) MarkNotified(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.candidates[id]
	if !ok {
		return false, fmt.Errorf("candidate %s: %w", id, ErrNotFound)
	}
	if rec.candidate.NotificationSent {
		return false, nil
	}
	rec.candidate.NotificationSent = true
	rec.candidate.UpdatedAt = s.now()
	return true, nil
}

// AddSkill inserts a skill for an existing candidate.
func (s *MemoryStore) AddSkill(ctx context.Context, sk model.Skill) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(sk.ID) == "" {
		return fmt.Errorf("skill id is required: %w", model.ErrInvalid)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.candidates[sk.CandidateID]
	if !ok {
		return fmt.Errorf("candidate %s: %w", sk.CandidateID, ErrNotFound)
	}
	if _, ok := s.skills[sk.ID]; ok {
		return fmt.Errorf("skill %s: %w", sk.ID, ErrConflict)
	}
	if sk.CreatedAt.IsZero() {
		sk.CreatedAt = s.now()
	}
	s.skills[sk.ID] = sk
	rec.skillIDs = append(rec.skillIDs, sk.ID)
	return nil
}

// GetSkill returns one skill.
func (s *MemoryStore) GetSkill(ctx context.Context, id string) (model.Skill, error) {
	if err := ctx.Err(); err != nil {
		return model.Skill{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	sk, ok := s.skills[id]
	if !ok {
		return model.Skill{}, fmt.Errorf("skill %s: %w", id, ErrNotFound)
	}
	return sk, nil
}

// ListSkills returns a candidate's skills by proficiency descending.
func (s *MemoryStore) ListSkills(ctx context.Context, candidateID string) ([]model.Skill, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.candidates[candidateID]
	if !ok {
		return []model.Skill{}, nil
	}
	out := s.skillsOf(rec)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Proficiency > out[j].Proficiency })
	return out, nil
}

// UpdateSkill applies a partial update.
func (s *MemoryStore) UpdateSkill(ctx context.Context, id string, u model.SkillUpdate) (model.Skill, error) {
	if err := ctx.Err(); err != nil {
		return model.Skill{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	sk, ok := s.skills[id]
	if !ok {
		return model.Skill{}, fmt.Errorf("skill %s: %w", id, ErrNotFound)
	}
	sk = u.Apply(sk)
	s.skills[id] = sk
	return sk, nil
}

// DeleteSkill removes one skill.
func (s *MemoryStore) DeleteSkill(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	sk, ok := s.skills[id]
	if !ok {
		return fmt.Errorf("skill %s: %w", id, ErrNotFound)
	}
	delete(s.skills, id)
	if rec, ok := s.candidates[sk.CandidateID]; ok {
		for i, sid := range rec.skillIDs {
			if sid == id {
				rec.skillIDs = append(rec.skillIDs[:i], rec.skillIDs[i+1:]...)
				break
			}
		}
	}
	return nil
}

// AllSkills returns every skill row.
func (s *MemoryStore) AllSkills(ctx context.Context) ([]model.Skill, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Skill, 0, len(s.skills))
	for _, sk := range s.skills {
		out = append(out, sk)
	}
	return out, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error { return nil }

// materialize must be called with s.mu held.
func (s *MemoryStore) materialize(rec *candidateRecord) model.Candidate {
	c := cloneCandidate(rec.candidate)
	c.Skills = s.skillsOf(rec)
	return c
}

func (s *MemoryStore) skillsOf(rec *candidateRecord) []model.Skill {
	out := make([]model.Skill, 0, len(rec.skillIDs))
	for _, sid := range rec.skillIDs {
		out = append(out, s.skills[sid])
	}
	return out
}

func cloneCandidate(c model.Candidate) model.Candidate {
	if c.Tier != nil {
		t := *c.Tier
		c.Tier = &t
	}
	if c.TierScore != nil {
		sc := *c.TierScore
		c.TierScore = &sc
	}
	return c
}

// pageBounds clamps skip/take to [0,total]. take <= 0 returns everything after skip.
func pageBounds(total, skip, take int) (int, int) {
	if skip < 0 {
		skip = 0
	}
	if skip > total {
		skip = total
	}
	end := total
	if take > 0 && skip+take < total {
		end = skip + take
	}
	return skip, end
}
