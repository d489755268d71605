package service

import (
	"context"
	"fmt"
	"io"

	"github.com/okian/skilltier/internal/adapters/export"
	"github.com/okian/skilltier/internal/domain/analytics"
	"github.com/okian/skilltier/internal/domain/model"
	"github.com/okian/skilltier/internal/domain/tier"
	"github.com/okian/skilltier/pkg/metrics"
)

// Dashboard returns dashboard statistics.
func (s *Service) Dashboard(ctx context.Context) (analytics.Dashboard, error) {
	return s.analytics.Dashboard(ctx)
}

// SkillStats returns per-skill statistics.
func (s *Service) SkillStats(ctx context.Context) ([]analytics.SkillStat, error) {
	return s.analytics.Skills(ctx)
}

// Locations returns the candidate count per location.
func (s *Service) Locations(ctx context.Context) ([]analytics.LocationCount, error) {
	return s.analytics.Locations(ctx)
}

// Experience returns the years-of-experience histogram.
func (s *Service) Experience(ctx context.Context) (analytics.ExperienceHistogram, error) {
	return s.analytics.Experience(ctx)
}

// TierDistribution returns the candidate count per assigned tier.
func (s *Service) TierDistribution(ctx context.Context) ([]analytics.TierCount, error) {
	return s.analytics.TierDistribution(ctx)
}

// TierStats returns tier score statistics.
func (s *Service) TierStats(ctx context.Context) (analytics.TierStats, error) {
	return s.analytics.TierStats(ctx)
}

// Thresholds returns the tier band table.
func (s *Service) Thresholds() []tier.Band {
	return tier.Bands()
}

// Export formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// ExportResult describes a written export.
type ExportResult struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Candidates  int    `json:"candidatesCount"`
	Skills      int    `json:"skillsCount"`
}

// ExportFileInfo returns the file name and content type for format without
// writing anything.
func (s *Service) ExportFileInfo(format string) (ExportResult, error) {
	switch format {
	case FormatCSV:
		return ExportResult{Filename: export.SummaryFilename(s.now()), ContentType: export.ContentTypeCSV}, nil
	case FormatXLSX:
		return ExportResult{Filename: export.DetailedFilename(s.now()), ContentType: export.ContentTypeXLSX}, nil
	default:
		return ExportResult{}, fmt.Errorf("unknown export format %q: %w", format, model.ErrInvalid)
	}
}

// ExportCandidates writes every candidate matching the search and tier of f
// to w in format. Paging fields of f are ignored. An empty selection returns
// export.ErrNoRecords before anything is written.
func (s *Service) ExportCandidates(ctx context.Context, format string, f model.ListFilter, w io.Writer) (ExportResult, error) {
	res, err := s.ExportFileInfo(format)
	if err != nil {
		return ExportResult{}, err
	}
	f.Skip, f.Take = 0, 0
	cs, _, err := s.store.ListCandidates(ctx, f)
	if err != nil {
		return ExportResult{}, fmt.Errorf("load candidates: %w", err)
	}

	switch format {
	case FormatCSV:
		n, err := export.WriteSummaryCSV(w, cs)
		if err != nil {
			return ExportResult{}, err
		}
		res.Candidates = n
	case FormatXLSX:
		d, err := export.WriteDetailedWorkbook(w, cs)
		if err != nil {
			return ExportResult{}, err
		}
		res.Candidates, res.Skills = d.Candidates, d.Skills
	}
	metrics.RecordExport(format)
	return res, nil
}
