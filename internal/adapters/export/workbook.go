package export

import (
	"fmt"
	"io"

	"github.com/okian/skilltier/internal/domain/model"
	"github.com/xuri/excelize/v2"
)

// Sheet names of the detailed workbook.
const (
	SheetCandidates = "Candidates"
	SheetSkills     = "Skills"
)

// DetailedResult counts what WriteDetailedWorkbook wrote.
type DetailedResult struct {
	Candidates int `json:"candidatesCount"`
	Skills     int `json:"skillsCount"`
}

// WriteDetailedWorkbook writes an xlsx workbook with a Candidates sheet and a
// Skills sheet holding one row per candidate skill.
func WriteDetailedWorkbook(w io.Writer, candidates []model.Candidate) (DetailedResult, error) {
	if len(candidates) == 0 {
		return DetailedResult{}, ErrNoRecords
	}
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetCandidates); err != nil {
		return DetailedResult{}, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetSkills); err != nil {
		return DetailedResult{}, fmt.Errorf("add skills sheet: %w", err)
	}

	if err := setRow(f, SheetCandidates, 1, detailedHeader); err != nil {
		return DetailedResult{}, err
	}
	if err := setRow(f, SheetSkills, 1, skillsHeader); err != nil {
		return DetailedResult{}, err
	}

	var res DetailedResult
	for _, c := range candidates {
		res.Candidates++
		if err := setRow(f, SheetCandidates, res.Candidates+1, candidateCells(c)); err != nil {
			return DetailedResult{}, err
		}
		for _, sk := range c.Skills {
			res.Skills++
			row := []string{c.Email, c.FullName(), sk.Name, formatNumber(sk.Proficiency), formatNumber(sk.YearsUsed)}
			if err := setRow(f, SheetSkills, res.Skills+1, row); err != nil {
				return DetailedResult{}, err
			}
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return DetailedResult{}, fmt.Errorf("write workbook: %w", err)
	}
	return res, nil
}

func setRow(f *excelize.File, sheet string, row int, cells []string) error {
	axis, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	values := make([]interface{}, len(cells))
	for i, c := range cells {
		values[i] = c
	}
	if err := f.SetSheetRow(sheet, axis, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}
