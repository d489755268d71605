package api

import (
	"net/http"

	"github.com/okian/skilltier/internal/domain/model"
)

func (s *Server) handleAddSkill(w http.ResponseWriter, r *http.Request) {
	const op = "api.add_skill"
	var in model.SkillInput
	if err := decodeBody(w, r, op, &in, false); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	sk, err := s.deps.AddSkill(r.Context(), r.PathValue("candidateId"), in)
	if err != nil {
		s.writeFailure(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, sk)
}

func (s *Server) handleListSkills(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.ListSkills(r.Context(), r.PathValue("candidateId"))
	if err != nil {
		s.writeFailure(w, r, Wrap("api.list_skills", err))
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleUpdateSkill(w http.ResponseWriter, r *http.Request) {
	const op = "api.update_skill"
	var u model.SkillUpdate
	if err := decodeBody(w, r, op, &u, false); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	sk, err := s.deps.UpdateSkill(r.Context(), r.PathValue("candidateId"), r.PathValue("skillId"), u)
	if err != nil {
		s.writeFailure(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, sk)
}

func (s *Server) handleDeleteSkill(w http.ResponseWriter, r *http.Request) {
	err := s.deps.DeleteSkill(r.Context(), r.PathValue("candidateId"), r.PathValue("skillId"))
	if err != nil {
		s.writeFailure(w, r, Wrap("api.delete_skill", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
