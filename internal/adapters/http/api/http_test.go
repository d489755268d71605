package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/okian/skilltier/internal/adapters/http/api"
	"github.com/okian/skilltier/internal/adapters/notify"
	service "github.com/okian/skilltier/internal/app"
	"github.com/okian/skilltier/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

type countingNotifier struct {
	mu    sync.Mutex
	tiers int
}

func (n *countingNotifier) NotifyWelcome(context.Context, notify.Recipient) error { return nil }

func (n *countingNotifier) NotifyTierAssigned(context.Context, notify.Recipient, int, string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.tiers++
	return nil
}

type fixture struct {
	mux      *http.ServeMux
	svc      *service.Service
	notifier *countingNotifier
}

func newFixture() *fixture {
	n := &countingNotifier{}
	svc := service.New(service.WithNotifier(n))
	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(context.Background(), mux)
	return &fixture{mux: mux, svc: svc, notifier: n}
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.mux.ServeHTTP(w, req)
	return w
}

func decode[T any](w *httptest.ResponseRecorder) T {
	var v T
	So(json.Unmarshal(w.Body.Bytes(), &v), ShouldBeNil)
	return v
}

func (f *fixture) register(email string) model.Candidate {
	w := f.do(http.MethodPost, "/api/v1/candidates/register",
		`{"email":"`+email+`","firstName":"Ada","lastName":"Lovelace","location":"London"}`)
	So(w.Code, ShouldEqual, http.StatusCreated)
	return decode[model.Candidate](w)
}

type errBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func TestCandidateRoutes(t *testing.T) {
	Convey("Given the API mounted on a fresh service", t, func() {
		f := newFixture()

		Convey("When a candidate registers", func() {
			c := f.register("ada@example.com")

			Convey("Then the response carries the stored candidate", func() {
				So(c.ID, ShouldNotBeEmpty)
				So(c.Status, ShouldEqual, model.StatusRegistered)
				So(c.Tier, ShouldBeNil)
			})

			Convey("Then a second registration with the same email conflicts", func() {
				w := f.do(http.MethodPost, "/api/v1/candidates/register",
					`{"email":"ADA@example.com","firstName":"A","lastName":"L"}`)
				So(w.Code, ShouldEqual, http.StatusConflict)
				So(decode[errBody](w).Code, ShouldEqual, "conflict")
			})

			Convey("Then it can be fetched, updated and deleted", func() {
				w := f.do(http.MethodGet, "/api/v1/candidates/"+c.ID, "")
				So(w.Code, ShouldEqual, http.StatusOK)

				w = f.do(http.MethodPut, "/api/v1/candidates/"+c.ID, `{"location":"Paris"}`)
				So(w.Code, ShouldEqual, http.StatusOK)
				updated := decode[model.Candidate](w)
				So(updated.Location, ShouldEqual, "Paris")
				So(updated.FirstName, ShouldEqual, "Ada")

				w = f.do(http.MethodDelete, "/api/v1/candidates/"+c.ID, "")
				So(w.Code, ShouldEqual, http.StatusNoContent)

				w = f.do(http.MethodGet, "/api/v1/candidates/"+c.ID, "")
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})

			Convey("Then listing honours search and paging", func() {
				f.register("grace@example.com")
				w := f.do(http.MethodGet, "/api/v1/candidates?search=GRACE&take=5", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				page := decode[model.CandidatePage](w)
				So(page.Total, ShouldEqual, 1)
				So(page.Take, ShouldEqual, 5)
				So(page.Data[0].Email, ShouldEqual, "grace@example.com")
			})
		})

		Convey("When the registration body is malformed", func() {
			w := f.do(http.MethodPost, "/api/v1/candidates/register", `{"email":`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decode[errBody](w).Code, ShouldEqual, "bad_request")
		})

		Convey("When the registration fails validation", func() {
			w := f.do(http.MethodPost, "/api/v1/candidates/register", `{"email":"bad","firstName":"A","lastName":"B"}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When list parameters are not numbers", func() {
			So(f.do(http.MethodGet, "/api/v1/candidates?skip=x", "").Code, ShouldEqual, http.StatusBadRequest)
			So(f.do(http.MethodGet, "/api/v1/candidates?tier=9", "").Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestSkillAndTierRoutes(t *testing.T) {
	Convey("Given a registered candidate with skills", t, func() {
		f := newFixture()
		c := f.register("grace@example.com")
		base := "/api/v1/candidates/" + c.ID + "/skills"

		w := f.do(http.MethodPost, base, `{"skillName":"go","proficiency":7,"yearsUsed":8}`)
		So(w.Code, ShouldEqual, http.StatusCreated)
		goSkill := decode[model.Skill](w)
		So(f.do(http.MethodPost, base, `{"skillName":"sql","proficiency":6,"yearsUsed":8}`).Code, ShouldEqual, http.StatusCreated)

		Convey("Skills are listed by proficiency", func() {
			w := f.do(http.MethodGet, base, "")
			So(w.Code, ShouldEqual, http.StatusOK)
			list := decode[[]model.Skill](w)
			So(len(list), ShouldEqual, 2)
			So(list[0].ID, ShouldEqual, goSkill.ID)
		})

		Convey("Out of range proficiency is rejected", func() {
			So(f.do(http.MethodPost, base, `{"skillName":"x","proficiency":11}`).Code, ShouldEqual, http.StatusBadRequest)
			So(f.do(http.MethodPut, base+"/"+goSkill.ID, `{"proficiency":-1}`).Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Skills of another candidate are not reachable", func() {
			other := f.register("other@example.com")
			w := f.do(http.MethodDelete, "/api/v1/candidates/"+other.ID+"/skills/"+goSkill.ID, "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(f.do(http.MethodDelete, base+"/"+goSkill.ID, "").Code, ShouldEqual, http.StatusNoContent)
		})

		Convey("When assessed without a body", func() {
			w := f.do(http.MethodPost, "/api/v1/tier/assess/"+c.ID, "")
			So(w.Code, ShouldEqual, http.StatusOK)
			res := decode[service.AssessmentResult](w)

			Convey("Then the default multiplier applies", func() {
				So(res.Tier, ShouldEqual, 4)
				So(res.TierName, ShouldEqual, "Expert")
				So(res.TierScore, ShouldAlmostEqual, 74.6, 1e-9)
				So(res.Candidate.NotificationSent, ShouldBeTrue)
			})

			Convey("Then a repeat assessment does not notify again", func() {
				So(f.do(http.MethodPost, "/api/v1/tier/assess/"+c.ID, "").Code, ShouldEqual, http.StatusOK)
				So(f.notifier.tiers, ShouldEqual, 1)
			})

			Convey("Then tier reports include the candidate", func() {
				w := f.do(http.MethodGet, "/api/v1/tier/distribution", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"Expert"`)

				w = f.do(http.MethodGet, "/api/v1/analytics/dashboard", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"assessedCandidates":1`)
			})
		})

		Convey("When assessed with a multiplier of zero", func() {
			w := f.do(http.MethodPost, "/api/v1/tier/assess/"+c.ID, `{"yearsOfExperienceMultiplier":0}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode[service.AssessmentResult](w).TierScore, ShouldEqual, 65)
		})

		Convey("When the multiplier is negative", func() {
			w := f.do(http.MethodPost, "/api/v1/tier/assess/"+c.ID, `{"yearsOfExperienceMultiplier":-2}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the candidate is unknown", func() {
			So(f.do(http.MethodPost, "/api/v1/tier/assess/missing", "").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When bulk reassessment runs before the workers start", func() {
			w := f.do(http.MethodPost, "/api/v1/tier/assess-all", "")
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
		})

		Convey("When bulk reassessment runs on a started service", func() {
			So(f.svc.Start(context.Background()), ShouldBeNil)
			w := f.do(http.MethodPost, "/api/v1/tier/assess-all", "")
			f.svc.Stop()

			So(w.Code, ShouldEqual, http.StatusAccepted)
			res := decode[service.BulkResult](w)
			So(res.Total, ShouldEqual, 1)
			So(res.Queued, ShouldEqual, 1)
		})

		Convey("The threshold table is served", func() {
			w := f.do(http.MethodGet, "/api/v1/tier/thresholds", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(len(decode[[]map[string]any](w)), ShouldEqual, 6)
		})
	})
}

func TestExportRoutes(t *testing.T) {
	Convey("Given the API", t, func() {
		f := newFixture()

		Convey("An export of nothing is a bad request", func() {
			w := f.do(http.MethodGet, "/api/v1/export/csv", "")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decode[errBody](w).Code, ShouldEqual, "no_records")
		})

		Convey("With one candidate", func() {
			f.register("ada@example.com")

			Convey("The CSV export is an attachment", func() {
				w := f.do(http.MethodGet, "/api/v1/export/csv", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldStartWith, "text/csv")
				So(w.Header().Get("Content-Disposition"), ShouldContainSubstring, "candidates_")
				So(w.Body.String(), ShouldContainSubstring, "ada@example.com")
			})

			Convey("The workbook export is an attachment", func() {
				w := f.do(http.MethodGet, "/api/v1/export/excel", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Disposition"), ShouldContainSubstring, ".xlsx")
				So(w.Body.Len(), ShouldBeGreaterThan, 0)
			})

			Convey("A tier filter with no matches is a bad request", func() {
				So(f.do(http.MethodGet, "/api/v1/export/csv?tier=3", "").Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestOperationalRoutes(t *testing.T) {
	Convey("Given the API", t, func() {
		f := newFixture()

		Convey("Health serves Prometheus metrics", func() {
			f.register("m@example.com")
			w := f.do(http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "skilltier_")
		})

		Convey("Stats reports the service state", func() {
			w := f.do(http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			stats := decode[map[string]any](w)
			So(stats["started"], ShouldEqual, false)
		})

		Convey("Unknown methods are rejected by the router", func() {
			So(f.do(http.MethodPatch, "/api/v1/candidates", "").Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestErrorHelpers(t *testing.T) {
	Convey("Given API error helpers", t, func() {
		cause := errors.New("boom")

		Convey("WrapKind matches both the kind and the cause", func() {
			err := api.WrapKind("api.op", api.ErrBadRequest, cause)
			So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.op: bad request: boom")
		})

		Convey("Wrap keeps nil as nil", func() {
			So(api.Wrap("api.op", nil), ShouldBeNil)
			So(errors.Is(api.Wrap("api.op", model.ErrNotFound), model.ErrNotFound), ShouldBeTrue)
		})

		Convey("NewKind has no cause", func() {
			err := api.NewKind("api.op", api.ErrBackpressure)
			So(err.Error(), ShouldEqual, "api.op: backpressure")
		})
	})
}
