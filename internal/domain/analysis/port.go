package analysis

import "context"

// AnalysisBackend submits validated input to the analysis service.
type AnalysisBackend interface {
	Submit(ctx context.Context, in ValidatedInput) (*AnalysisResult, error)
}

// ReportBackend turns a previous result into a report artifact.
type ReportBackend interface {
	FetchReport(ctx context.Context, r *AnalysisResult) (*ReportArtifact, error)
}

// ArtifactSaver stores a report and returns where it went.
type ArtifactSaver interface {
	Save(ctx context.Context, a *ReportArtifact) (string, error)
}

// ChartRenderer draws a chart series.
type ChartRenderer interface {
	Render(series ChartSeries) (Chart, error)
}
