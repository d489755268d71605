// Package export renders candidate listings as downloadable files.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/okian/skilltier/internal/domain/model"
)

// ErrNoRecords is returned when the filtered listing is empty.
var ErrNoRecords = errors.New("no candidates found to export")

// Content types of the produced files.
const (
	ContentTypeCSV  = "text/csv"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

const dateLayout = "2006-01-02"

var summaryHeader = []string{
	"First Name", "Last Name", "Email", "Phone", "Location", "Years of Experience",
	"Tier", "Tier Score", "Status", "Skills Count", "Created At",
}

var detailedHeader = []string{
	"First Name", "Last Name", "Email", "Phone", "Location", "Years of Experience",
	"Tier", "Tier Score", "Status",
}

var skillsHeader = []string{"Candidate Email", "Candidate Name", "Skill Name", "Proficiency", "Years Used"}

// SummaryFilename is the CSV file name for day.
func SummaryFilename(day time.Time) string {
	return "candidates_" + day.UTC().Format(dateLayout) + ".csv"
}

// DetailedFilename is the workbook file name for day.
func DetailedFilename(day time.Time) string {
	return "candidates_detailed_" + day.UTC().Format(dateLayout) + ".xlsx"
}

// WriteSummaryCSV writes one row per candidate. It returns the number of rows
// written, excluding the header.
func WriteSummaryCSV(w io.Writer, candidates []model.Candidate) (int, error) {
	if len(candidates) == 0 {
		return 0, ErrNoRecords
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(summaryHeader); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}
	for _, c := range candidates {
		row := append(candidateCells(c),
			strconv.Itoa(len(c.Skills)),
			c.CreatedAt.UTC().Format(dateLayout),
		)
		if err := cw.Write(row); err != nil {
			return 0, fmt.Errorf("write candidate %s: %w", c.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, fmt.Errorf("flush csv: %w", err)
	}
	return len(candidates), nil
}

func candidateCells(c model.Candidate) []string {
	return []string{
		c.FirstName,
		c.LastName,
		c.Email,
		orDash(c.Phone),
		orDash(c.Location),
		formatNumber(c.YearsOfExperience),
		formatTier(c.Tier),
		formatScore(c.TierScore),
		string(c.Status),
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func formatTier(t *int) string {
	if t == nil {
		return "-"
	}
	return strconv.Itoa(*t)
}

func formatScore(s *float64) string {
	if s == nil {
		return "-"
	}
	return strconv.FormatFloat(*s, 'f', 2, 64)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
