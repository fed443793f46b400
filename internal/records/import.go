package records

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// RowError reports one spreadsheet row that could not be imported.
type RowError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

type ImportResult struct {
	Imported int        `json:"imported"`
	Failed   []RowError `json:"failed"`
}

// ImportSoilTypes reads the first sheet of an .xlsx workbook with columns
// name, pH, nutrients, water retention, recommended crops (comma separated).
// Bad rows are reported and skipped; the rest are imported.
func (s *Service) ImportSoilTypes(ctx context.Context, adminUID string, r io.Reader) (*ImportResult, error) {
	return s.importRows(ctx, r, func(row []string) error {
		ph, err := strconv.ParseFloat(strings.ReplaceAll(cell(row, 1), ",", "."), 64)
		if err != nil {
			return fmt.Errorf("%w: pH %q is not a number", ErrInvalidInput, cell(row, 1))
		}
		_, err = s.AddSoilType(ctx, adminUID, SoilTypeInput{
			Name:             cell(row, 0),
			PH:               ph,
			Nutrients:        cell(row, 2),
			WaterRetention:   cell(row, 3),
			RecommendedCrops: ParseCrops(cell(row, 4)),
		})
		return err
	})
}

// ImportDistributors reads columns name, contact, location.
func (s *Service) ImportDistributors(ctx context.Context, adminUID string, r io.Reader) (*ImportResult, error) {
	return s.importRows(ctx, r, func(row []string) error {
		_, err := s.AddDistributor(ctx, adminUID, DistributorInput{
			Name:     cell(row, 0),
			Contact:  cell(row, 1),
			Location: cell(row, 2),
		})
		return err
	})
}

func (s *Service) importRows(ctx context.Context, r io.Reader, add func(row []string) error) (*ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: workbook could not be read: %v", ErrInvalidInput, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrInvalidInput)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: sheet could not be read: %v", ErrInvalidInput, err)
	}

	start := 0
	if len(rows) > 0 && strings.EqualFold(cell(rows[0], 0), "name") {
		start = 1
	}

	res := &ImportResult{Failed: make([]RowError, 0)}
	for i := start; i < len(rows); i++ {
		if isBlank(rows[i]) {
			continue
		}
		if err := add(rows[i]); err != nil {
			if !errors.Is(err, ErrInvalidInput) {
				// store or lookup failure: later rows would fail the same way
				return res, err
			}
			res.Failed = append(res.Failed, RowError{Row: i + 1, Error: err.Error()})
			continue
		}
		res.Imported++
	}

	s.log.Info(ctx, "spreadsheet imported", "imported", res.Imported, "failed", len(res.Failed))
	return res, nil
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
