package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bryanwahyu/biaslens/internal/domain/analysis"
)

// FileSaver writes reports into a local directory, overwriting a previous report of the same name.
type FileSaver struct {
	Dir string
}

// NewFileSaver writes into dir, or the working directory when dir is empty.
func NewFileSaver(dir string) *FileSaver {
	if dir == "" {
		dir = "."
	}
	return &FileSaver{Dir: dir}
}

func (s *FileSaver) Save(ctx context.Context, a *analysis.ReportArtifact) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("creating report dir: %w", err)
	}
	name := filepath.Base(a.Filename)
	if name == "." || name == string(filepath.Separator) {
		name = analysis.ReportFilename
	}
	dst := filepath.Join(s.Dir, name)
	if err := os.WriteFile(dst, a.Data, 0o644); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}
	return dst, nil
}
