// Package storetest holds behaviour tests shared by every repository.Store
// implementation.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/skilltier/internal/adapters/repository"
	"github.com/okian/skilltier/internal/domain/model"
	"github.com/stretchr/testify/require"
)

// Factory returns a fresh, empty store. The store is closed by the caller's
// t.Cleanup.
type Factory func(t *testing.T) repository.Store

// Run executes the store contract against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	t.Run("create and get", func(t *testing.T) { testCreateGet(t, newStore(t)) })
	t.Run("duplicate email conflicts", func(t *testing.T) { testDuplicateEmail(t, newStore(t)) })
	t.Run("missing candidate", func(t *testing.T) { testMissing(t, newStore(t)) })
	t.Run("list filter and paging", func(t *testing.T) { testList(t, newStore(t)) })
	t.Run("partial update", func(t *testing.T) { testUpdate(t, newStore(t)) })
	t.Run("assessment write", func(t *testing.T) { testApplyAssessment(t, newStore(t)) })
	t.Run("mark notified once", func(t *testing.T) { testMarkNotified(t, newStore(t)) })
	t.Run("mark notified concurrently", func(t *testing.T) { testMarkNotifiedConcurrent(t, newStore(t)) })
	t.Run("skills lifecycle", func(t *testing.T) { testSkills(t, newStore(t)) })
	t.Run("delete cascades skills", func(t *testing.T) { testDeleteCascade(t, newStore(t)) })
}

// Candidate builds a registered candidate with a fresh id.
func Candidate(email, first, last string, created time.Time) model.Candidate {
	return model.Candidate{
		ID:        repository.NewID(),
		Email:     email,
		FirstName: first,
		LastName:  last,
		Status:    model.StatusRegistered,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

var base = time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC)

func testCreateGet(t *testing.T, s repository.Store) {
	ctx := context.Background()
	c := Candidate("ada@example.com", "Ada", "Lovelace", base)
	c.Phone = "+44 20 0000"
	c.Location = "London"
	c.YearsOfExperience = 4.5
	require.NoError(t, s.CreateCandidate(ctx, c))

	got, err := s.GetCandidate(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, c.Email, got.Email)
	require.Equal(t, "London", got.Location)
	require.Equal(t, 4.5, got.YearsOfExperience)
	require.Equal(t, model.StatusRegistered, got.Status)
	require.Nil(t, got.Tier)
	require.Nil(t, got.TierScore)
	require.False(t, got.NotificationSent)
	require.Empty(t, got.Skills)
	require.True(t, got.CreatedAt.Equal(base))

	n, err := s.CountCandidates(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func testDuplicateEmail(t *testing.T, s repository.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateCandidate(ctx, Candidate("dup@example.com", "A", "B", base)))
	err := s.CreateCandidate(ctx, Candidate("dup@example.com", "C", "D", base))
	require.True(t, errors.Is(err, model.ErrConflict), "got %v", err)

	n, err := s.CountCandidates(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func testMissing(t *testing.T, s repository.Store) {
	ctx := context.Background()
	_, err := s.GetCandidate(ctx, "nope")
	require.True(t, errors.Is(err, model.ErrNotFound))
	_, err = s.ApplyAssessment(ctx, "nope", 1, 25)
	require.True(t, errors.Is(err, model.ErrNotFound))
	_, err = s.MarkNotified(ctx, "nope")
	require.True(t, errors.Is(err, model.ErrNotFound))
	_, err = s.UpdateCandidate(ctx, "nope", model.CandidateUpdate{})
	require.True(t, errors.Is(err, model.ErrNotFound))
	require.True(t, errors.Is(s.DeleteCandidate(ctx, "nope"), model.ErrNotFound))
	_, err = s.GetSkill(ctx, "nope")
	require.True(t, errors.Is(err, model.ErrNotFound))
	err = s.AddSkill(ctx, model.Skill{ID: repository.NewID(), CandidateID: "nope", Name: "go", Proficiency: 5})
	require.True(t, errors.Is(err, model.ErrNotFound))
}

func testList(t *testing.T, s repository.Store) {
	ctx := context.Background()
	a := Candidate("grace@navy.mil", "Grace", "Hopper", base)
	b := Candidate("alan@bletchley.uk", "Alan", "Turing", base.Add(time.Hour))
	c := Candidate("edsger@tue.nl", "Edsger", "Dijkstra", base.Add(2*time.Hour))
	for _, x := range []model.Candidate{a, b, c} {
		require.NoError(t, s.CreateCandidate(ctx, x))
	}
	_, err := s.ApplyAssessment(ctx, a.ID, 4, 74.8)
	require.NoError(t, err)

	all, total, err := s.ListCandidates(ctx, model.ListFilter{})
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Equal(t, []string{c.ID, b.ID, a.ID}, ids(all))

	page, total, err := s.ListCandidates(ctx, model.ListFilter{Skip: 1, Take: 1})
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Equal(t, []string{b.ID}, ids(page))

	found, total, err := s.ListCandidates(ctx, model.ListFilter{Search: "TURING"})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Equal(t, []string{b.ID}, ids(found))

	tierFour := 4
	byTier, total, err := s.ListCandidates(ctx, model.ListFilter{Tier: &tierFour})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Equal(t, []string{a.ID}, ids(byTier))

	past, total, err := s.ListCandidates(ctx, model.ListFilter{Skip: 10, Take: 5})
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Empty(t, past)
}

func testUpdate(t *testing.T, s repository.Store) {
	ctx := context.Background()
	c := Candidate("u@example.com", "Old", "Name", base)
	c.Location = "Accra"
	require.NoError(t, s.CreateCandidate(ctx, c))

	first := "New"
	years := 7.0
	got, err := s.UpdateCandidate(ctx, c.ID, model.CandidateUpdate{FirstName: &first, YearsOfExperience: &years})
	require.NoError(t, err)
	require.Equal(t, "New", got.FirstName)
	require.Equal(t, "Name", got.LastName)
	require.Equal(t, "Accra", got.Location)
	require.Equal(t, 7.0, got.YearsOfExperience)

	reread, err := s.GetCandidate(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, "New", reread.FirstName)
}

func testApplyAssessment(t *testing.T, s repository.Store) {
	ctx := context.Background()
	c := Candidate("a@example.com", "A", "B", base)
	require.NoError(t, s.CreateCandidate(ctx, c))

	got, err := s.ApplyAssessment(ctx, c.ID, 2, 41.5)
	require.NoError(t, err)
	require.NotNil(t, got.Tier)
	require.NotNil(t, got.TierScore)
	require.Equal(t, 2, *got.Tier)
	require.Equal(t, 41.5, *got.TierScore)
	require.Equal(t, model.StatusTierAssigned, got.Status)

	got, err = s.ApplyAssessment(ctx, c.ID, 5, 90)
	require.NoError(t, err)
	require.Equal(t, 5, *got.Tier)
	require.Equal(t, 90.0, *got.TierScore)
	require.False(t, got.NotificationSent)
}

func testMarkNotified(t *testing.T, s repository.Store) {
	ctx := context.Background()
	c := Candidate("n@example.com", "N", "O", base)
	require.NoError(t, s.CreateCandidate(ctx, c))

	won, err := s.MarkNotified(ctx, c.ID)
	require.NoError(t, err)
	require.True(t, won)

	won, err = s.MarkNotified(ctx, c.ID)
	require.NoError(t, err)
	require.False(t, won)

	got, err := s.GetCandidate(ctx, c.ID)
	require.NoError(t, err)
	require.True(t, got.NotificationSent)
}

func testMarkNotifiedConcurrent(t *testing.T, s repository.Store) {
	ctx := context.Background()
	c := Candidate("race@example.com", "R", "C", base)
	require.NoError(t, s.CreateCandidate(ctx, c))

	const callers = 16
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			won, err := s.MarkNotified(ctx, c.ID)
			if err != nil {
				t.Errorf("mark notified: %v", err)
				return
			}
			if won {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 1, wins)
}

func testSkills(t *testing.T, s repository.Store) {
	ctx := context.Background()
	c := Candidate("s@example.com", "S", "K", base)
	require.NoError(t, s.CreateCandidate(ctx, c))

	low := model.Skill{ID: repository.NewID(), CandidateID: c.ID, Name: "sql", Proficiency: 3, YearsUsed: 1, CreatedAt: base}
	high := model.Skill{ID: repository.NewID(), CandidateID: c.ID, Name: "go", Proficiency: 9, YearsUsed: 6, CreatedAt: base}
	dup := model.Skill{ID: repository.NewID(), CandidateID: c.ID, Name: "go", Proficiency: 6, CreatedAt: base}
	for _, sk := range []model.Skill{low, high, dup} {
		require.NoError(t, s.AddSkill(ctx, sk))
	}

	listed, err := s.ListSkills(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	require.Equal(t, high.ID, listed[0].ID)
	require.Equal(t, low.ID, listed[2].ID)

	withSkills, err := s.GetCandidate(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, withSkills.Skills, 3)

	prof := 10.0
	updated, err := s.UpdateSkill(ctx, low.ID, model.SkillUpdate{Proficiency: &prof})
	require.NoError(t, err)
	require.Equal(t, 10.0, updated.Proficiency)
	require.Equal(t, "sql", updated.Name)
	require.Equal(t, 1.0, updated.YearsUsed)

	got, err := s.GetSkill(ctx, low.ID)
	require.NoError(t, err)
	require.Equal(t, 10.0, got.Proficiency)

	require.NoError(t, s.DeleteSkill(ctx, dup.ID))
	require.True(t, errors.Is(s.DeleteSkill(ctx, dup.ID), model.ErrNotFound))

	all, err := s.AllSkills(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func testDeleteCascade(t *testing.T, s repository.Store) {
	ctx := context.Background()
	c := Candidate("d@example.com", "D", "E", base)
	require.NoError(t, s.CreateCandidate(ctx, c))
	sk := model.Skill{ID: repository.NewID(), CandidateID: c.ID, Name: "go", Proficiency: 5, CreatedAt: base}
	require.NoError(t, s.AddSkill(ctx, sk))

	require.NoError(t, s.DeleteCandidate(ctx, c.ID))
	_, err := s.GetCandidate(ctx, c.ID)
	require.True(t, errors.Is(err, model.ErrNotFound))
	_, err = s.GetSkill(ctx, sk.ID)
	require.True(t, errors.Is(err, model.ErrNotFound))

	// The email is free again once the candidate is gone.
	require.NoError(t, s.CreateCandidate(ctx, Candidate("d@example.com", "D", "E", base)))
}

func ids(cs []model.Candidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.ID
	}
	return out
}
