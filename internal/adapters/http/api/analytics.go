package api

import (
	"context"
	"net/http"
)

// jsonQuery adapts a read-only query into a handler.
func jsonQuery[T any](s *Server, op string, q func(context.Context) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := q(r.Context())
		if err != nil {
			s.writeFailure(w, r, Wrap(op, err))
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	jsonQuery(s, "api.dashboard", s.deps.Dashboard)(w, r)
}

func (s *Server) handleSkillStats(w http.ResponseWriter, r *http.Request) {
	jsonQuery(s, "api.skill_stats", s.deps.SkillStats)(w, r)
}

func (s *Server) handleLocations(w http.ResponseWriter, r *http.Request) {
	jsonQuery(s, "api.locations", s.deps.Locations)(w, r)
}

func (s *Server) handleExperience(w http.ResponseWriter, r *http.Request) {
	jsonQuery(s, "api.experience", s.deps.Experience)(w, r)
}
