// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/okian/skilltier/internal/adapters/export"
	"github.com/okian/skilltier/internal/adapters/mq/queue"
	service "github.com/okian/skilltier/internal/app"
	"github.com/okian/skilltier/internal/domain/analytics"
	"github.com/okian/skilltier/internal/domain/model"
	"github.com/okian/skilltier/internal/domain/tier"
	"github.com/okian/skilltier/pkg/logger"
)

// Prefix is the mount point of the business API.
const Prefix = "/api/v1"

const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. *service.Service satisfies it.
type Dependencies interface {
	Register(ctx context.Context, in model.NewCandidate) (model.Candidate, error)
	ListCandidates(ctx context.Context, f model.ListFilter) (model.CandidatePage, error)
	GetCandidate(ctx context.Context, id string) (model.Candidate, error)
	UpdateCandidate(ctx context.Context, id string, u model.CandidateUpdate) (model.Candidate, error)
	DeleteCandidate(ctx context.Context, id string) error

	AddSkill(ctx context.Context, candidateID string, in model.SkillInput) (model.Skill, error)
	ListSkills(ctx context.Context, candidateID string) ([]model.Skill, error)
	UpdateSkill(ctx context.Context, candidateID, skillID string, u model.SkillUpdate) (model.Skill, error)
	DeleteSkill(ctx context.Context, candidateID, skillID string) error

	Assess(ctx context.Context, candidateID string, multiplier *float64) (service.AssessmentResult, error)
	AssessAll(ctx context.Context, multiplier *float64) (service.BulkResult, error)
	TierDistribution(ctx context.Context) ([]analytics.TierCount, error)
	TierStats(ctx context.Context) (analytics.TierStats, error)
	Thresholds() []tier.Band

	Dashboard(ctx context.Context) (analytics.Dashboard, error)
	SkillStats(ctx context.Context) ([]analytics.SkillStat, error)
	Locations(ctx context.Context) ([]analytics.LocationCount, error)
	Experience(ctx context.Context) (analytics.ExperienceHistogram, error)

	ExportCandidates(ctx context.Context, format string, f model.ListFilter, w io.Writer) (service.ExportResult, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	deps          Dependencies
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	logger        logger.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger used for failed requests.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		deps:          deps,
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(statsProvider),
		logger:        logger.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	routes := []struct {
		pattern  string
		endpoint string
		h        http.HandlerFunc
	}{
		{"POST /candidates/register", "candidates_register", s.handleRegister},
		{"GET /candidates", "candidates_list", s.handleListCandidates},
		{"GET /candidates/{id}", "candidates_get", s.handleGetCandidate},
		{"PUT /candidates/{id}", "candidates_update", s.handleUpdateCandidate},
		{"DELETE /candidates/{id}", "candidates_delete", s.handleDeleteCandidate},

		{"POST /candidates/{candidateId}/skills", "skills_add", s.handleAddSkill},
		{"GET /candidates/{candidateId}/skills", "skills_list", s.handleListSkills},
		{"PUT /candidates/{candidateId}/skills/{skillId}", "skills_update", s.handleUpdateSkill},
		{"DELETE /candidates/{candidateId}/skills/{skillId}", "skills_delete", s.handleDeleteSkill},

		{"POST /tier/assess/{candidateId}", "tier_assess", s.handleAssess},
		{"POST /tier/assess-all", "tier_assess_all", s.handleAssessAll},
		{"GET /tier/distribution", "tier_distribution", s.handleTierDistribution},
		{"GET /tier/stats", "tier_stats", s.handleTierStats},
		{"GET /tier/thresholds", "tier_thresholds", s.handleThresholds},

		{"GET /analytics/dashboard", "analytics_dashboard", s.handleDashboard},
		{"GET /analytics/skills", "analytics_skills", s.handleSkillStats},
		{"GET /analytics/locations", "analytics_locations", s.handleLocations},
		{"GET /analytics/experience", "analytics_experience", s.handleExperience},

		{"GET /export/csv", "export_csv", s.handleExportCSV},
		{"GET /export/excel", "export_excel", s.handleExportExcel},
	}
	for _, rt := range routes {
		method, path, _ := strings.Cut(rt.pattern, " ")
		mux.HandleFunc(method+" "+Prefix+path, MetricsMiddleware(rt.h, rt.endpoint))
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure maps domain and service errors onto HTTP statuses.
func (s *Server) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Error(err),
		)
	}
	writeError(w, status, code, err)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, model.ErrInvalid), errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, export.ErrNoRecords):
		return http.StatusBadRequest, "no_records"
	case errors.Is(err, model.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, queue.ErrFull), errors.Is(err, ErrBackpressure):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, service.ErrNotStarted), errors.Is(err, queue.ErrClosed), errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// decodeBody reads a JSON body into dst. An empty body leaves dst untouched
// when optional is true.
func decodeBody(w http.ResponseWriter, r *http.Request, op string, dst any, optional bool) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return nil
		}
		return WrapKind(op, ErrBadRequest, err)
	}
	return nil
}
