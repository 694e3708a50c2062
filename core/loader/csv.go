package loader

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/siherrmann/chronosatlas/helper"
	"github.com/siherrmann/chronosatlas/model"
)

// CSVColumns are the columns every import file must have.
var CSVColumns = []string{"name", "birth_year", "death_year", "normalized_birth_year", "normalized_death_year"}

// FigureImporter is the subset of the figures handler the CSV import needs
type FigureImporter interface {
	InsertFigureIgnoreConflict(ctx context.Context, figure *model.Figure) (bool, error)
}

// ParseCSV reads all figures from r. The whole file is parsed before
// anything is returned, so a bad row never leads to a partial import.
// Empty death year cells mark living figures.
func ParseCSV(r io.Reader) ([]*model.Figure, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	colIndex, err := readHeader(reader)
	if err != nil {
		return nil, err
	}

	return readRecords(reader, colIndex)
}

// readHeader reads and validates the CSV header row.
func readHeader(reader *csv.Reader) (map[string]int, error) {
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	colIndex := make(map[string]int)
	for i, col := range header {
		colIndex[strings.TrimSpace(col)] = i
	}

	for _, col := range CSVColumns {
		if _, ok := colIndex[col]; !ok {
			return nil, fmt.Errorf("missing required column: %s", col)
		}
	}

	return colIndex, nil
}

// readRecords reads all data rows and converts them to figures.
func readRecords(reader *csv.Reader, colIndex map[string]int) ([]*model.Figure, error) {
	figures := []*model.Figure{}
	lineNum := 1

	for {
		lineNum++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}

		figure, err := parseRecord(record, colIndex, lineNum)
		if err != nil {
			return nil, err
		}
		figures = append(figures, figure)
	}

	return figures, nil
}

// parseRecord converts a CSV record to a figure.
func parseRecord(record []string, colIndex map[string]int, lineNum int) (*model.Figure, error) {
	name := strings.TrimSpace(getColumn(record, colIndex, "name"))
	if name == "" {
		return nil, fmt.Errorf("line %d: empty name", lineNum)
	}

	years := map[string]*int{}
	for _, col := range CSVColumns[1:] {
		value := strings.TrimSpace(getColumn(record, colIndex, col))
		if value == "" {
			years[col] = nil
			continue
		}
		year, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid %s value %q: %w", lineNum, col, value, err)
		}
		years[col] = &year
	}

	if years["birth_year"] == nil {
		return nil, fmt.Errorf("line %d: missing birth_year", lineNum)
	}
	if years["normalized_birth_year"] == nil {
		return nil, fmt.Errorf("line %d: missing normalized_birth_year", lineNum)
	}

	figure := &model.Figure{
		Name:                name,
		Slug:                helper.Slugify(name),
		NormalizedBirthYear: *years["normalized_birth_year"],
		NormalizedDeathYear: years["normalized_death_year"],
		InstanceOfIDs:       []string{},
	}
	if err := figure.Validate(); err != nil {
		return nil, fmt.Errorf("line %d: %w", lineNum, err)
	}

	return figure, nil
}

// getColumn safely retrieves a column value from a record.
func getColumn(record []string, colIndex map[string]int, col string) string {
	if idx, ok := colIndex[col]; ok && idx < len(record) {
		return record[idx]
	}
	return ""
}

// ImportCSV inserts the parsed figures, skipping rows whose slug already
// exists. The caller binds w to one transaction.
func ImportCSV(ctx context.Context, w FigureImporter, figures []*model.Figure) (*model.ImportReport, error) {
	report := &model.ImportReport{Rows: len(figures)}

	for _, figure := range figures {
		inserted, err := w.InsertFigureIgnoreConflict(ctx, figure)
		if err != nil {
			return nil, helper.NewError("insert figure "+figure.Name, err)
		}
		if inserted {
			report.Inserted++
		} else {
			report.Skipped++
		}
	}

	return report, nil
}
