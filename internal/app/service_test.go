package service_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	service "github.com/okian/skilltier/internal/app"
	"github.com/okian/skilltier/internal/adapters/export"
	"github.com/okian/skilltier/internal/adapters/notify"
	"github.com/okian/skilltier/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

type sentTier struct {
	email string
	tier  int
	name  string
}

type fakeNotifier struct {
	mu       sync.Mutex
	welcomes []string
	tiers    []sentTier
	failTier error
	failWelc error
}

func (f *fakeNotifier) NotifyWelcome(_ context.Context, to notify.Recipient) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.welcomes = append(f.welcomes, to.Email)
	return f.failWelc
}

func (f *fakeNotifier) NotifyTierAssigned(_ context.Context, to notify.Recipient, tier int, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tiers = append(f.tiers, sentTier{to.Email, tier, name})
	return f.failTier
}

func (f *fakeNotifier) tierCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tiers)
}

func ptr[T any](v T) *T { return &v }

func newService(n *fakeNotifier, opts ...service.Option) *service.Service {
	return service.New(append([]service.Option{service.WithNotifier(n)}, opts...)...)
}

func register(svc *service.Service, email string) model.Candidate {
	c, err := svc.Register(context.Background(), model.NewCandidate{
		Email: email, FirstName: "Test", LastName: "Candidate", Location: "Nairobi",
	})
	So(err, ShouldBeNil)
	return c
}

func addSkill(svc *service.Service, id, name string, prof, years float64) model.Skill {
	sk, err := svc.AddSkill(context.Background(), id, model.SkillInput{Name: name, Proficiency: prof, YearsUsed: years})
	So(err, ShouldBeNil)
	return sk
}

func TestRegister(t *testing.T) {
	Convey("Given a service", t, func() {
		ctx := context.Background()
		n := &fakeNotifier{}
		svc := newService(n)

		Convey("When a candidate registers with a mixed-case email", func() {
			c, err := svc.Register(ctx, model.NewCandidate{
				Email: "  Ada@Example.COM ", FirstName: "Ada", LastName: "Lovelace",
			})

			Convey("Then it is stored normalised and unassessed", func() {
				So(err, ShouldBeNil)
				So(c.ID, ShouldNotBeEmpty)
				So(c.Email, ShouldEqual, "ada@example.com")
				So(c.Status, ShouldEqual, model.StatusRegistered)
				So(c.Tier, ShouldBeNil)
				So(c.NotificationSent, ShouldBeFalse)
			})

			Convey("Then a welcome notification is sent", func() {
				So(n.welcomes, ShouldResemble, []string{"ada@example.com"})
			})

			Convey("Then the same email cannot register twice", func() {
				_, err := svc.Register(ctx, model.NewCandidate{Email: "ada@example.com", FirstName: "A", LastName: "L"})
				So(errors.Is(err, model.ErrConflict), ShouldBeTrue)
			})
		})

		Convey("When the payload is invalid", func() {
			_, err := svc.Register(ctx, model.NewCandidate{Email: "nope", FirstName: "A", LastName: "B"})

			Convey("Then ErrInvalid is returned and nothing is sent", func() {
				So(errors.Is(err, model.ErrInvalid), ShouldBeTrue)
				So(n.welcomes, ShouldBeEmpty)
			})
		})

		Convey("When the welcome notification fails", func() {
			n.failWelc = errors.New("smtp down")
			c, err := svc.Register(ctx, model.NewCandidate{Email: "b@example.com", FirstName: "B", LastName: "C"})

			Convey("Then registration still succeeds", func() {
				So(err, ShouldBeNil)
				_, err := svc.GetCandidate(ctx, c.ID)
				So(err, ShouldBeNil)
			})
		})
	})
}

func TestAssess(t *testing.T) {
	Convey("Given a registered candidate with two skills", t, func() {
		ctx := context.Background()
		n := &fakeNotifier{}
		svc := newService(n)
		c := register(svc, "grace@example.com")
		addSkill(svc, c.ID, "go", 7, 8)
		addSkill(svc, c.ID, "sql", 6, 8)

		Convey("When assessed with the default multiplier", func() {
			res, err := svc.Assess(ctx, c.ID, nil)
			So(err, ShouldBeNil)

			Convey("Then score and tier follow the formula", func() {
				So(res.TierScore, ShouldAlmostEqual, 74.6, 1e-9)
				So(res.Tier, ShouldEqual, 4)
				So(res.TierName, ShouldEqual, "Expert")
				So(res.TierDescription, ShouldEqual, "Mastery in specialized domains")
				So(res.Candidate.Status, ShouldEqual, model.StatusTierAssigned)
				So(*res.Candidate.Tier, ShouldEqual, 4)
				So(res.Candidate.NotificationSent, ShouldBeTrue)
			})

			Convey("Then exactly one tier notification is sent", func() {
				So(n.tiers, ShouldResemble, []sentTier{{"grace@example.com", 4, "Expert"}})
			})

			Convey("And assessing again gives the same result without a second notification", func() {
				again, err := svc.Assess(ctx, c.ID, nil)
				So(err, ShouldBeNil)
				So(again.Tier, ShouldEqual, res.Tier)
				So(again.TierScore, ShouldEqual, res.TierScore)
				So(n.tierCount(), ShouldEqual, 1)
			})

			Convey("And after a skill change the tier is recomputed, still without renotifying", func() {
				addSkill(svc, c.ID, "rust", 10, 20)
				again, err := svc.Assess(ctx, c.ID, nil)
				So(err, ShouldBeNil)
				So(again.TierScore, ShouldAlmostEqual, 91.0667, 1e-3)
				So(again.Tier, ShouldEqual, 5)
				So(n.tierCount(), ShouldEqual, 1)
			})
		})

		Convey("When assessed with an explicit multiplier of zero", func() {
			res, err := svc.Assess(ctx, c.ID, ptr(0.0))

			Convey("Then experience adds nothing", func() {
				So(err, ShouldBeNil)
				So(res.TierScore, ShouldEqual, 65)
				So(res.Tier, ShouldEqual, 3)
			})
		})

		Convey("When the multiplier is negative", func() {
			_, err := svc.Assess(ctx, c.ID, ptr(-1.0))

			Convey("Then ErrInvalid is returned and nothing is stored", func() {
				So(errors.Is(err, model.ErrInvalid), ShouldBeTrue)
				got, _ := svc.GetCandidate(ctx, c.ID)
				So(got.Tier, ShouldBeNil)
				So(n.tierCount(), ShouldEqual, 0)
			})
		})

		Convey("When the candidate does not exist", func() {
			_, err := svc.Assess(ctx, "missing", nil)

			Convey("Then ErrNotFound is returned", func() {
				So(errors.Is(err, model.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When the notifier fails", func() {
			n.failTier = errors.New("smtp down")
			res, err := svc.Assess(ctx, c.ID, nil)

			Convey("Then the assessment still succeeds and is not retried", func() {
				So(err, ShouldBeNil)
				So(res.Tier, ShouldEqual, 4)
				So(res.Candidate.NotificationSent, ShouldBeTrue)

				n.failTier = nil
				_, err = svc.Assess(ctx, c.ID, nil)
				So(err, ShouldBeNil)
				So(n.tierCount(), ShouldEqual, 1)
			})
		})

		Convey("When many assessments race", func() {
			var wg sync.WaitGroup
			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, _ = svc.Assess(ctx, c.ID, nil)
				}()
			}
			wg.Wait()

			Convey("Then exactly one notification is sent", func() {
				So(n.tierCount(), ShouldEqual, 1)
			})
		})
	})

	Convey("A candidate without skills is assessed as Entry Level and notified", t, func() {
		n := &fakeNotifier{}
		svc := newService(n)
		c := register(svc, "empty@example.com")
		res, err := svc.Assess(context.Background(), c.ID, nil)
		So(err, ShouldBeNil)
		So(res.TierScore, ShouldEqual, 0)
		So(res.Tier, ShouldEqual, 0)
		So(res.TierName, ShouldEqual, "Entry Level")
		So(n.tierCount(), ShouldEqual, 1)
	})
}

func TestCandidatesAndSkills(t *testing.T) {
	Convey("Given three candidates", t, func() {
		ctx := context.Background()
		tick := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		clock := func() time.Time { tick = tick.Add(time.Minute); return tick }
		svc := newService(&fakeNotifier{}, service.WithClock(clock), service.WithPageSizes(2, 50))
		a := register(svc, "a@example.com")
		b := register(svc, "b@example.com")
		c := register(svc, "c@example.com")

		Convey("Listing without take uses the default page size, newest first", func() {
			page, err := svc.ListCandidates(ctx, model.ListFilter{})
			So(err, ShouldBeNil)
			So(page.Total, ShouldEqual, 3)
			So(page.Take, ShouldEqual, 2)
			So(len(page.Data), ShouldEqual, 2)
			So(page.Data[0].ID, ShouldEqual, c.ID)
			So(page.Data[1].ID, ShouldEqual, b.ID)
		})

		Convey("Take is capped at the maximum", func() {
			page, err := svc.ListCandidates(ctx, model.ListFilter{Take: 500, Skip: -3})
			So(err, ShouldBeNil)
			So(page.Take, ShouldEqual, 50)
			So(page.Skip, ShouldEqual, 0)
			So(len(page.Data), ShouldEqual, 3)
		})

		Convey("A partial update keeps absent fields", func() {
			got, err := svc.UpdateCandidate(ctx, a.ID, model.CandidateUpdate{Location: ptr("Kigali")})
			So(err, ShouldBeNil)
			So(got.Location, ShouldEqual, "Kigali")
			So(got.FirstName, ShouldEqual, "Test")

			_, err = svc.UpdateCandidate(ctx, a.ID, model.CandidateUpdate{FirstName: ptr(" ")})
			So(errors.Is(err, model.ErrInvalid), ShouldBeTrue)
		})

		Convey("Skills are scoped to their candidate", func() {
			sk := addSkill(svc, a.ID, "go", 5, 1)

			_, err := svc.UpdateSkill(ctx, b.ID, sk.ID, model.SkillUpdate{Proficiency: ptr(9.0)})
			So(errors.Is(err, model.ErrNotFound), ShouldBeTrue)
			So(errors.Is(svc.DeleteSkill(ctx, b.ID, sk.ID), model.ErrNotFound), ShouldBeTrue)

			updated, err := svc.UpdateSkill(ctx, a.ID, sk.ID, model.SkillUpdate{Proficiency: ptr(9.0)})
			So(err, ShouldBeNil)
			So(updated.Proficiency, ShouldEqual, 9)

			_, err = svc.UpdateSkill(ctx, a.ID, sk.ID, model.SkillUpdate{Proficiency: ptr(11.0)})
			So(errors.Is(err, model.ErrInvalid), ShouldBeTrue)

			So(svc.DeleteSkill(ctx, a.ID, sk.ID), ShouldBeNil)
			list, err := svc.ListSkills(ctx, a.ID)
			So(err, ShouldBeNil)
			So(list, ShouldBeEmpty)
		})

		Convey("Adding a skill to a missing candidate fails", func() {
			_, err := svc.AddSkill(ctx, "missing", model.SkillInput{Name: "go", Proficiency: 5})
			So(errors.Is(err, model.ErrNotFound), ShouldBeTrue)
			_, err = svc.ListSkills(ctx, "missing")
			So(errors.Is(err, model.ErrNotFound), ShouldBeTrue)
		})

		Convey("Deleting a candidate removes it", func() {
			So(svc.DeleteCandidate(ctx, b.ID), ShouldBeNil)
			_, err := svc.GetCandidate(ctx, b.ID)
			So(errors.Is(err, model.ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestBackgroundReassessment(t *testing.T) {
	Convey("Given a service that has not been started", t, func() {
		svc := newService(&fakeNotifier{})
		c := register(svc, "idle@example.com")

		Convey("Enqueueing is refused", func() {
			_, err := svc.EnqueueAssessment(context.Background(), c.ID, nil)
			So(err, ShouldEqual, service.ErrNotStarted)
		})

		Convey("Bulk reassessment is refused", func() {
			_, err := svc.AssessAll(context.Background(), nil)
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
		})
	})

	Convey("Given a started service whose queue is smaller than the candidate list", t, func() {
		ctx := context.Background()
		n := &fakeNotifier{}
		svc := newService(n, service.WithWorkerCount(1), service.WithQueueSize(1))
		So(svc.Start(ctx), ShouldBeNil)

		const total = 12
		ids := make([]string, 0, total)
		for i := 0; i < total; i++ {
			c := register(svc, fmt.Sprintf("q%02d@example.com", i))
			addSkill(svc, c.ID, "go", 4, 2)
			ids = append(ids, c.ID)
		}

		Convey("When everyone is reassessed", func() {
			res, err := svc.AssessAll(ctx, nil)
			So(err, ShouldBeNil)
			So(res.Total, ShouldEqual, total)
			So(res.Queued+res.Pending, ShouldEqual, total)
			svc.Stop()

			Convey("Then no candidate is skipped", func() {
				for _, id := range ids {
					got, err := svc.GetCandidate(ctx, id)
					So(err, ShouldBeNil)
					So(got.Tier, ShouldNotBeNil)
				}
				So(n.tierCount(), ShouldEqual, total)
			})
		})
	})

	Convey("Given a started service with skilled candidates", t, func() {
		ctx := context.Background()
		n := &fakeNotifier{}
		svc := newService(n, service.WithWorkerCount(2), service.WithQueueSize(16))
		So(svc.Start(ctx), ShouldBeNil)

		ids := make([]string, 0, 4)
		for _, email := range []string{"w@example.com", "x@example.com", "y@example.com", "z@example.com"} {
			c := register(svc, email)
			addSkill(svc, c.ID, "go", 4, 2)
			ids = append(ids, c.ID)
		}

		Convey("When everyone is reassessed and the service stops", func() {
			res, err := svc.AssessAll(ctx, nil)
			So(err, ShouldBeNil)
			So(res.Total, ShouldEqual, 4)
			So(res.Queued+res.Pending, ShouldEqual, 4)
			svc.Stop()

			Convey("Then every candidate has a tier and one notification", func() {
				for _, id := range ids {
					got, err := svc.GetCandidate(ctx, id)
					So(err, ShouldBeNil)
					So(got.Tier, ShouldNotBeNil)
					So(*got.Tier, ShouldEqual, 2)
					So(got.NotificationSent, ShouldBeTrue)
				}
				So(n.tierCount(), ShouldEqual, 4)
			})
		})

		Convey("Enqueueing an unknown candidate fails", func() {
			_, err := svc.EnqueueAssessment(ctx, "missing", nil)
			So(errors.Is(err, model.ErrNotFound), ShouldBeTrue)
			svc.Stop()
		})

		Convey("Stats report the running pool", func() {
			stats := svc.GetStats(ctx)
			So(stats["started"], ShouldEqual, true)
			So(stats["totalCandidates"], ShouldEqual, 4)
			svc.Stop()
		})
	})
}

func TestReports(t *testing.T) {
	Convey("Given a service with one assessed and one pending candidate", t, func() {
		ctx := context.Background()
		svc := newService(&fakeNotifier{})

		Convey("Exports of an empty store are rejected", func() {
			_, err := svc.ExportCandidates(ctx, service.FormatCSV, model.ListFilter{}, &bytes.Buffer{})
			So(err, ShouldEqual, export.ErrNoRecords)
		})

		a := register(svc, "a@example.com")
		addSkill(svc, a.ID, "go", 9, 10)
		_, err := svc.Assess(ctx, a.ID, nil)
		So(err, ShouldBeNil)
		register(svc, "b@example.com")

		Convey("The dashboard counts both", func() {
			d, err := svc.Dashboard(ctx)
			So(err, ShouldBeNil)
			So(d.TotalCandidates, ShouldEqual, 2)
			So(d.AssessedCandidates, ShouldEqual, 1)
			So(d.AssessmentRate, ShouldEqual, 50)
		})

		Convey("The threshold table has six bands", func() {
			So(len(svc.Thresholds()), ShouldEqual, 6)
		})

		Convey("A CSV export filtered by tier contains only the assessed candidate", func() {
			var buf bytes.Buffer
			res, err := svc.ExportCandidates(ctx, service.FormatCSV, model.ListFilter{Tier: ptr(5)}, &buf)
			So(err, ShouldBeNil)
			So(res.Candidates, ShouldEqual, 1)
			So(res.ContentType, ShouldEqual, export.ContentTypeCSV)
			So(buf.String(), ShouldContainSubstring, "a@example.com")
			So(buf.String(), ShouldNotContainSubstring, "b@example.com")
		})

		Convey("A workbook export counts skills", func() {
			var buf bytes.Buffer
			res, err := svc.ExportCandidates(ctx, service.FormatXLSX, model.ListFilter{Take: 1}, &buf)
			So(err, ShouldBeNil)
			So(res.Candidates, ShouldEqual, 2)
			So(res.Skills, ShouldEqual, 1)
			So(buf.Len(), ShouldBeGreaterThan, 0)
		})

		Convey("Unknown formats are invalid", func() {
			_, err := svc.ExportCandidates(ctx, "pdf", model.ListFilter{}, &bytes.Buffer{})
			So(errors.Is(err, model.ErrInvalid), ShouldBeTrue)
		})
	})
}

func TestNonFiniteInputs(t *testing.T) {
	Convey("Given a registered candidate", t, func() {
		ctx := context.Background()
		n := &fakeNotifier{}
		svc := newService(n)
		c := register(svc, "nan@example.com")

		Convey("A NaN proficiency is refused before anything is stored", func() {
			_, err := svc.AddSkill(ctx, c.ID, model.SkillInput{Name: "go", Proficiency: math.NaN()})
			So(errors.Is(err, model.ErrInvalid), ShouldBeTrue)

			skills, err := svc.ListSkills(ctx, c.ID)
			So(err, ShouldBeNil)
			So(skills, ShouldBeEmpty)

			res, err := svc.Assess(ctx, c.ID, nil)
			So(err, ShouldBeNil)
			So(res.TierScore, ShouldEqual, 0)
			So(res.Tier, ShouldEqual, 0)
		})

		Convey("An infinite skill update is refused", func() {
			sk := addSkill(svc, c.ID, "go", 5, 1)
			inf := math.Inf(1)
			_, err := svc.UpdateSkill(ctx, c.ID, sk.ID, model.SkillUpdate{YearsUsed: &inf})
			So(errors.Is(err, model.ErrInvalid), ShouldBeTrue)
		})

		Convey("A NaN experience update is refused", func() {
			nan := math.NaN()
			_, err := svc.UpdateCandidate(ctx, c.ID, model.CandidateUpdate{YearsOfExperience: &nan})
			So(errors.Is(err, model.ErrInvalid), ShouldBeTrue)
		})
	})
}
