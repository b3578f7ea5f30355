package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bryanwahyu/biaslens/internal/application/present"
	"github.com/bryanwahyu/biaslens/internal/application/session"
	"github.com/bryanwahyu/biaslens/internal/bootstrap"
	"github.com/bryanwahyu/biaslens/internal/config"
	"github.com/bryanwahyu/biaslens/internal/domain/analysis"
	"github.com/bryanwahyu/biaslens/internal/infra/storage"
)

type analyzeOptions struct {
	file      string
	sensitive string
	report    bool
	chartPath string
	outDir    string
	format    string
}

func newAnalyzeCmd(configPath *string) *cobra.Command {
	opts := &analyzeOptions{}
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Submit a dataset to the analysis service and print the result",
		Example: `  biaslens analyze --file people.csv --sensitive gender
  biaslens analyze --file people.xlsx --sensitive age --report --chart dist.png`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("out") {
				opts.outDir = cfg.Report.OutputDir
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return runAnalyze(ctx, cfg, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.file, "file", "f", "", "dataset file (.csv or .xlsx)")
	f.StringVarP(&opts.sensitive, "sensitive", "s", "", "sensitive attribute column, e.g. gender")
	f.BoolVar(&opts.report, "report", false, "also download the PDF report")
	f.StringVar(&opts.chartPath, "chart", "", "write the distribution chart PNG to this path")
	f.StringVar(&opts.outDir, "out", ".", "directory for the downloaded report")
	f.StringVar(&opts.format, "format", "text", "output format: text or html")
	return cmd
}

func runAnalyze(ctx context.Context, cfg *config.Config, opts *analyzeOptions, stdout, stderr io.Writer) error {
	deps, err := bootstrap.Dependencies(ctx, cfg)
	if err != nil {
		return err
	}
	// the terminal saves reports locally; MinIO stays a server concern
	deps.Saver = storage.NewFileSaver(opts.outDir)

	ctrl := session.New("cli", deps)
	defer ctrl.Close()
	ctrl.Subscribe(func(st session.Status) {
		fmt.Fprintf(stderr, "[%s] %s\n", st.Tone, st.Message)
	})

	dataset, err := readDataset(opts.file)
	if err != nil {
		return err
	}
	if err := ctrl.Analyze(ctx, dataset, opts.sensitive); err != nil {
		return err
	}

	model := ctrl.Snapshot().Display
	if model != nil {
		if opts.format == "html" {
			stdout.Write(present.HTML(*model))
		} else {
			fmt.Fprint(stdout, present.Markdown(*model))
		}
	}

	if opts.chartPath != "" {
		if err := writeChart(ctrl, opts.chartPath); err != nil {
			return err
		}
		fmt.Fprintf(stderr, "chart written to %s\n", opts.chartPath)
	}

	if opts.report {
		dl, err := ctrl.DownloadReport(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(stderr, "report saved to %s\n", dl.Location)
	}
	return nil
}

// readDataset returns nil for an empty path so validation reports the missing file.
func readDataset(path string) (*analysis.Dataset, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading dataset: %w", err)
	}
	return &analysis.Dataset{Name: filepath.Base(path), Data: data}, nil
}

func writeChart(ctrl *session.Controller, path string) error {
	png, ok := ctrl.ChartPNG()
	if !ok {
		return fmt.Errorf("no chart available for this result")
	}
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return fmt.Errorf("writing chart: %w", err)
	}
	return nil
}
