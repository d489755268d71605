package api

import (
	"net/http"

	"github.com/okian/skilltier/internal/domain/model"
)

// handleRegister handles POST /candidates/register.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	const op = "api.register"
	var in model.NewCandidate
	if err := decodeBody(w, r, op, &in, false); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	c, err := s.deps.Register(r.Context(), in)
	if err != nil {
		s.writeFailure(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// handleListCandidates handles GET /candidates.
func (s *Server) handleListCandidates(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_candidates"
	f, err := listFilter(r, op)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	page, err := s.deps.ListCandidates(r.Context(), f)
	if err != nil {
		s.writeFailure(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleGetCandidate(w http.ResponseWriter, r *http.Request) {
	c, err := s.deps.GetCandidate(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeFailure(w, r, Wrap("api.get_candidate", err))
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleUpdateCandidate(w http.ResponseWriter, r *http.Request) {
	const op = "api.update_candidate"
	var u model.CandidateUpdate
	if err := decodeBody(w, r, op, &u, false); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	c, err := s.deps.UpdateCandidate(r.Context(), r.PathValue("id"), u)
	if err != nil {
		s.writeFailure(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleDeleteCandidate(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.DeleteCandidate(r.Context(), r.PathValue("id")); err != nil {
		s.writeFailure(w, r, Wrap("api.delete_candidate", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
