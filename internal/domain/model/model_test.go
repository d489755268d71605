package model_test

import (
	"errors"
	"math"
	"testing"

	model "github.com/okian/skilltier/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func ptr[T any](v T) *T { return &v }

func TestNewCandidate_Validate(t *testing.T) {
	convey.Convey("Given a registration payload", t, func() {
		valid := model.NewCandidate{
			Email:     "  Ada@Example.com ",
			FirstName: "Ada",
			LastName:  "Lovelace",
		}.Normalize()

		convey.Convey("Then normalization lowercases and trims the email", func() {
			convey.So(valid.Email, convey.ShouldEqual, "ada@example.com")
			convey.So(valid.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("When the email is malformed", func() {
			in := valid
			in.Email = "not-an-email"

			convey.Convey("Then it should be rejected as invalid", func() {
				convey.So(errors.Is(in.Validate(), model.ErrInvalid), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a name is missing", func() {
			in := valid
			in.LastName = ""
			convey.So(errors.Is(in.Validate(), model.ErrInvalid), convey.ShouldBeTrue)
		})

		convey.Convey("When experience is negative", func() {
			in := valid
			in.YearsOfExperience = -1
			convey.So(errors.Is(in.Validate(), model.ErrInvalid), convey.ShouldBeTrue)
		})

		convey.Convey("When experience is not a finite number", func() {
			for _, v := range []float64{math.NaN(), math.Inf(1)} {
				in := valid
				in.YearsOfExperience = v
				convey.So(errors.Is(in.Validate(), model.ErrInvalid), convey.ShouldBeTrue)
			}
			u := model.CandidateUpdate{YearsOfExperience: ptr(math.NaN())}
			convey.So(errors.Is(u.Validate(), model.ErrInvalid), convey.ShouldBeTrue)
		})
	})
}

func TestCandidateUpdate_Apply(t *testing.T) {
	convey.Convey("Given an existing candidate", t, func() {
		c := model.Candidate{FirstName: "Ada", LastName: "Lovelace", Location: "London", YearsOfExperience: 3}

		convey.Convey("When applying a partial update", func() {
			u := model.CandidateUpdate{Location: ptr("Paris"), YearsOfExperience: ptr(0.0)}
			got := u.Apply(c)

			convey.Convey("Then only the present fields change", func() {
				convey.So(got.FirstName, convey.ShouldEqual, "Ada")
				convey.So(got.LastName, convey.ShouldEqual, "Lovelace")
				convey.So(got.Location, convey.ShouldEqual, "Paris")
				convey.So(got.YearsOfExperience, convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When the update blanks a name", func() {
			u := model.CandidateUpdate{FirstName: ptr("  ")}
			convey.So(errors.Is(u.Validate(), model.ErrInvalid), convey.ShouldBeTrue)
		})
	})
}

func TestSkillInput_Validate(t *testing.T) {
	convey.Convey("Given skill inputs", t, func() {
		convey.Convey("Then boundary proficiencies are accepted", func() {
			convey.So(model.SkillInput{Name: "go", Proficiency: 0}.Validate(), convey.ShouldBeNil)
			convey.So(model.SkillInput{Name: "go", Proficiency: 10}.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then out-of-range proficiencies are rejected", func() {
			convey.So(errors.Is(model.SkillInput{Name: "go", Proficiency: 10.5}.Validate(), model.ErrInvalid), convey.ShouldBeTrue)
			convey.So(errors.Is(model.SkillInput{Name: "go", Proficiency: -0.1}.Validate(), model.ErrInvalid), convey.ShouldBeTrue)
		})

		convey.Convey("Then negative years and blank names are rejected", func() {
			convey.So(errors.Is(model.SkillInput{Name: "go", Proficiency: 5, YearsUsed: -1}.Validate(), model.ErrInvalid), convey.ShouldBeTrue)
			convey.So(errors.Is(model.SkillInput{Name: " ", Proficiency: 5}.Validate(), model.ErrInvalid), convey.ShouldBeTrue)
		})

		convey.Convey("Then NaN and infinite values are rejected", func() {
			nan, inf := math.NaN(), math.Inf(1)
			convey.So(errors.Is(model.SkillInput{Name: "go", Proficiency: nan}.Validate(), model.ErrInvalid), convey.ShouldBeTrue)
			convey.So(errors.Is(model.SkillInput{Name: "go", Proficiency: 5, YearsUsed: nan}.Validate(), model.ErrInvalid), convey.ShouldBeTrue)
			convey.So(errors.Is(model.SkillInput{Name: "go", Proficiency: 5, YearsUsed: inf}.Validate(), model.ErrInvalid), convey.ShouldBeTrue)
			convey.So(errors.Is(model.SkillUpdate{Proficiency: ptr(nan)}.Validate(), model.ErrInvalid), convey.ShouldBeTrue)
			convey.So(errors.Is(model.SkillUpdate{YearsUsed: ptr(math.Inf(-1))}.Validate(), model.ErrInvalid), convey.ShouldBeTrue)
		})

		convey.Convey("Then a partial update validates only present fields", func() {
			convey.So(model.SkillUpdate{YearsUsed: ptr(2.0)}.Validate(), convey.ShouldBeNil)
			convey.So(errors.Is(model.SkillUpdate{Proficiency: ptr(11.0)}.Validate(), model.ErrInvalid), convey.ShouldBeTrue)
		})
	})
}

func TestListFilter_Matches(t *testing.T) {
	convey.Convey("Given a set of candidates", t, func() {
		assessed := model.Candidate{FirstName: "Grace", LastName: "Hopper", Email: "grace@navy.mil", Tier: ptr(4), TierScore: ptr(74.8)}
		pending := model.Candidate{FirstName: "Alan", LastName: "Turing", Email: "alan@bletchley.uk"}

		convey.Convey("Then search is case-insensitive over names and email", func() {
			f := model.ListFilter{Search: "HOP"}
			convey.So(f.Matches(assessed), convey.ShouldBeTrue)
			convey.So(f.Matches(pending), convey.ShouldBeFalse)
			convey.So(model.ListFilter{Search: "bletchley"}.Matches(pending), convey.ShouldBeTrue)
		})

		convey.Convey("Then a tier filter excludes unassessed candidates", func() {
			f := model.ListFilter{Tier: ptr(4)}
			convey.So(f.Matches(assessed), convey.ShouldBeTrue)
			convey.So(f.Matches(pending), convey.ShouldBeFalse)
		})

		convey.Convey("Then Assessed requires both tier and score", func() {
			convey.So(assessed.Assessed(), convey.ShouldBeTrue)
			convey.So(pending.Assessed(), convey.ShouldBeFalse)
			convey.So(assessed.FullName(), convey.ShouldEqual, "Grace Hopper")
		})
	})
}
