package api

import (
	"net/http"
)

// assessRequest is the optional body of the assess endpoints.
type assessRequest struct {
	Multiplier *float64 `json:"yearsOfExperienceMultiplier"`
}

// handleAssess handles POST /tier/assess/{candidateId}. The body is optional.
func (s *Server) handleAssess(w http.ResponseWriter, r *http.Request) {
	const op = "api.assess"
	var req assessRequest
	if err := decodeBody(w, r, op, &req, true); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	res, err := s.deps.Assess(r.Context(), r.PathValue("candidateId"), req.Multiplier)
	if err != nil {
		s.writeFailure(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleAssessAll handles POST /tier/assess-all. Scoring runs in the
// background; the request returns once every candidate is queued.
func (s *Server) handleAssessAll(w http.ResponseWriter, r *http.Request) {
	const op = "api.assess_all"
	var req assessRequest
	if err := decodeBody(w, r, op, &req, true); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	res, err := s.deps.AssessAll(r.Context(), req.Multiplier)
	if err != nil {
		s.writeFailure(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusAccepted, res)
}

func (s *Server) handleTierDistribution(w http.ResponseWriter, r *http.Request) {
	d, err := s.deps.TierDistribution(r.Context())
	if err != nil {
		s.writeFailure(w, r, Wrap("api.tier_distribution", err))
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleTierStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.deps.TierStats(r.Context())
	if err != nil {
		s.writeFailure(w, r, Wrap("api.tier_stats", err))
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleThresholds(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Thresholds())
}
