// Package dataset parses and serializes test-case datasets. The on-disk
// shape is a JSON array of rows in the bulk export format; the delimited
// export mirrors the same columns for spreadsheet tooling.
package dataset

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/arvind3/qa-intelligence-platform/src/go/types"
)

// delimitedHeader is the column order of the delimited export.
var delimitedHeader = []string{
	"test_case_id", "test_plan_id", "test_suite_id",
	"title", "description", "steps", "tags",
}

// ParseRows decodes and validates a JSON dataset. The input must be a JSON
// array of row objects where every row carries a non-empty test_case_id and
// title. Any violation returns an error wrapping types.ErrInvalidDataset
// and no rows; partial loads are never produced.
func ParseRows(data []byte) ([]types.TestCase, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty input", types.ErrInvalidDataset)
	}

	var rows []types.TestCase
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidDataset, err)
	}

	for i, r := range rows {
		if strings.TrimSpace(r.ID) == "" {
			return nil, fmt.Errorf("%w: row %d is missing test_case_id", types.ErrInvalidDataset, i)
		}
		if strings.TrimSpace(r.Title) == "" {
			return nil, fmt.Errorf("%w: row %d (%s) is missing title", types.ErrInvalidDataset, i, r.ID)
		}
	}
	return rows, nil
}

// LoadFile reads and parses a dataset file.
func LoadFile(path string) ([]types.TestCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset file: %w", err)
	}
	return ParseRows(data)
}

// ExportJSON serializes rows as an indented JSON array, the same shape
// ParseRows accepts.
func ExportJSON(rows []types.TestCase) ([]byte, error) {
	if rows == nil {
		rows = []types.TestCase{}
	}
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize dataset: %w", err)
	}
	return data, nil
}

// ExportDelimited serializes rows as CSV with a fixed header. Tags are
// joined with '|' inside their single column.
func ExportDelimited(rows []types.TestCase) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(delimitedHeader); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	for _, r := range rows {
		record := []string{
			r.ID, r.PlanID, r.SuiteID,
			r.Title, r.Description, r.Steps,
			strings.Join(r.Tags, "|"),
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write row %s: %w", r.ID, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush export: %w", err)
	}
	return buf.Bytes(), nil
}
