// Package dataset prepares uploads for the analysis service, which only parses CSV.
package dataset

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/bryanwahyu/biaslens/internal/domain/analysis"
)

// Prepare converts an .xlsx upload (first sheet) to CSV. Other files are returned as is.
func Prepare(ds *analysis.Dataset) (*analysis.Dataset, error) {
	ext := strings.ToLower(filepath.Ext(ds.Name))
	if ext != ".xlsx" {
		return ds, nil
	}

	f, err := excelize.OpenReader(bytes.NewReader(ds.Data))
	if err != nil {
		return nil, fmt.Errorf("%w: opening workbook: %v", analysis.ErrUnreadableDataset, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", analysis.ErrUnreadableDataset)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: reading sheet %s: %v", analysis.ErrUnreadableDataset, sheets[0], err)
	}

	// GetRows drops trailing empty cells, pad so every record has the same width
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for _, row := range rows {
		record := make([]string, width)
		copy(record, row)
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("writing csv: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("writing csv: %w", err)
	}

	name := strings.TrimSuffix(ds.Name, filepath.Ext(ds.Name)) + ".csv"
	log.Printf("dataset converted from=%s to=%s sheet=%s rows=%d", ds.Name, name, sheets[0], len(rows))
	return &analysis.Dataset{Name: name, ContentType: "text/csv", Data: buf.Bytes()}, nil
}

// Converting wraps an AnalysisBackend and prepares the dataset before each submission.
type Converting struct {
	next analysis.AnalysisBackend
}

// NewConverting wraps next so spreadsheets reach it as CSV.
func NewConverting(next analysis.AnalysisBackend) *Converting {
	return &Converting{next: next}
}

func (c *Converting) Submit(ctx context.Context, in analysis.ValidatedInput) (*analysis.AnalysisResult, error) {
	prepared, err := Prepare(in.File)
	if err != nil {
		return nil, err
	}
	in.File = prepared
	return c.next.Submit(ctx, in)
}
