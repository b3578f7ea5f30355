package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/biaslens/internal/application"
	"github.com/bryanwahyu/biaslens/internal/application/advice"
	"github.com/bryanwahyu/biaslens/internal/domain/ai"
	"github.com/bryanwahyu/biaslens/internal/domain/analysis"
)

type mockAnalyzer struct{ mock.Mock }

func (m *mockAnalyzer) Submit(ctx context.Context, in analysis.ValidatedInput) (*analysis.AnalysisResult, error) {
	args := m.Called(ctx, in)
	r, _ := args.Get(0).(*analysis.AnalysisResult)
	return r, args.Error(1)
}

type mockReports struct{ mock.Mock }

func (m *mockReports) FetchReport(ctx context.Context, r *analysis.AnalysisResult) (*analysis.ReportArtifact, error) {
	args := m.Called(ctx, r)
	a, _ := args.Get(0).(*analysis.ReportArtifact)
	return a, args.Error(1)
}

type mockSaver struct{ mock.Mock }

func (m *mockSaver) Save(ctx context.Context, a *analysis.ReportArtifact) (string, error) {
	args := m.Called(ctx, a)
	return args.String(0), args.Error(1)
}

type staticAdvisor []string

func (s staticAdvisor) Recommend(context.Context, *analysis.AnalysisResult) []string { return s }

type recorder struct {
	mu       sync.Mutex
	statuses []Status
}

func (r *recorder) observe(s Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, s)
}

func (r *recorder) states() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]State, len(r.statuses))
	for i, s := range r.statuses {
		out[i] = s.State
	}
	return out
}

func (r *recorder) last() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.statuses[len(r.statuses)-1]
}

var (
	csvFile = &analysis.Dataset{Name: "people.csv", Data: []byte("gender,income\nmale,1\n")}
	now     = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
)

func result(t *testing.T, di, spd float64) *analysis.AnalysisResult {
	t.Helper()
	r, err := analysis.ParseResult([]byte(`{"rows": 2, "sensitive_attribute": "gender", "attribute_type": "categorical",
		"group_distribution": {"male": 0.5, "female": 0.5}, "explanation": "ok",
		"columns": ["gender"], "preview": [{"gender": "male"}]}`))
	require.NoError(t, err)
	r.DisparateImpact = analysis.Known(di)
	r.ParityDifference = analysis.Known(spd)
	return r
}

func newController(analyzer analysis.AnalysisBackend, reports analysis.ReportBackend, saver analysis.ArtifactSaver) (*Controller, *recorder) {
	deps := Dependencies{
		Analyzer: analyzer,
		Reports:  reports,
		Advisor:  staticAdvisor{"No major bias detected."},
		Saver:    saver,
		Clock:    application.FixedClock{T: now},
	}
	c := New("s-1", deps)
	rec := &recorder{}
	c.Subscribe(rec.observe)
	return c, rec
}

func TestInitialSnapshot(t *testing.T) {
	c, _ := newController(&mockAnalyzer{}, &mockReports{}, nil)
	snap := c.Snapshot()
	assert.Equal(t, "s-1", snap.ID)
	assert.Equal(t, StateIdle, snap.State)
	assert.Equal(t, ToneNeutral, snap.Status.Tone)
	assert.False(t, snap.HasResult)
	assert.Nil(t, snap.Display)
}

func TestAnalyzeValidationFailureMakesNoCall(t *testing.T) {
	analyzer := &mockAnalyzer{}
	c, rec := newController(analyzer, &mockReports{}, nil)

	err := c.Analyze(context.Background(), nil, "gender")
	assert.ErrorIs(t, err, analysis.ErrMissingFile)
	assert.Equal(t, MsgMissingFile, rec.last().Message)
	assert.Equal(t, ToneError, rec.last().Tone)

	err = c.Analyze(context.Background(), csvFile, "   ")
	assert.ErrorIs(t, err, analysis.ErrMissingAttribute)
	assert.Equal(t, MsgMissingAttr, rec.last().Message)

	analyzer.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
	assert.Equal(t, StateIdle, c.Snapshot().State)
	assert.Equal(t, []State{StateValidating, StateFailed, StateValidating, StateFailed}, rec.states())
}

func TestAnalyzeSuccess(t *testing.T) {
	analyzer := &mockAnalyzer{}
	r := result(t, 0.5, 0.05)
	analyzer.On("Submit", mock.Anything, analysis.ValidatedInput{File: csvFile, Attribute: "gender"}).Return(r, nil).Once()

	c, rec := newController(analyzer, &mockReports{}, nil)
	require.NoError(t, c.Analyze(context.Background(), csvFile, " gender "))

	snap := c.Snapshot()
	assert.Equal(t, StateRendered, snap.State)
	assert.True(t, snap.HasResult)
	require.NotNil(t, snap.Display)
	assert.Equal(t, analysis.RiskHigh, snap.Display.Summary.Risk)
	assert.Equal(t, []string{"No major bias detected."}, snap.Display.Summary.Recommendations)
	assert.Same(t, r, c.Result())

	assert.Equal(t, []State{StateValidating, StateSubmitting, StateRendered}, rec.states())
	assert.Equal(t, ToneSuccess, rec.last().Tone)
	assert.Contains(t, rec.last().Message, "High Bias Risk")
	assert.Equal(t, now, rec.last().At)
	analyzer.AssertExpectations(t)
}

func TestAnalyzeFailureKeepsPreviousResult(t *testing.T) {
	analyzer := &mockAnalyzer{}
	first := result(t, 0.9, 0.01)
	analyzer.On("Submit", mock.Anything, mock.Anything).Return(first, nil).Once()
	analyzer.On("Submit", mock.Anything, mock.Anything).Return(nil, &analysis.BackendError{Status: 400, Message: "Column not found"}).Once()

	c, rec := newController(analyzer, &mockReports{}, nil)
	require.NoError(t, c.Analyze(context.Background(), csvFile, "gender"))
	before := c.Snapshot().Display

	err := c.Analyze(context.Background(), csvFile, "race")
	var backendErr *analysis.BackendError
	require.ErrorAs(t, err, &backendErr)

	snap := c.Snapshot()
	assert.Equal(t, StateRendered, snap.State)
	assert.Same(t, first, c.Result())
	assert.Equal(t, before, snap.Display)
	assert.Equal(t, "Column not found", rec.last().Message)
	assert.Equal(t, ToneError, rec.last().Tone)
}

func TestAnalyzeUnreachable(t *testing.T) {
	cases := map[string]error{
		"transport":          analysis.ErrBackendUnreachable,
		"error without text": &analysis.BackendError{Status: 500},
	}
	for name, backendErr := range cases {
		t.Run(name, func(t *testing.T) {
			analyzer := &mockAnalyzer{}
			analyzer.On("Submit", mock.Anything, mock.Anything).Return(nil, backendErr)

			c, rec := newController(analyzer, &mockReports{}, nil)
			assert.Error(t, c.Analyze(context.Background(), csvFile, "gender"))
			assert.Equal(t, MsgUnreachable, rec.last().Message)
			assert.Equal(t, StateIdle, c.Snapshot().State)
			assert.False(t, c.Snapshot().HasResult)
		})
	}
}

func TestDownloadReportWithoutResult(t *testing.T) {
	reports := &mockReports{}
	c, rec := newController(&mockAnalyzer{}, reports, nil)

	dl, err := c.DownloadReport(context.Background())
	assert.Nil(t, dl)
	assert.ErrorIs(t, err, analysis.ErrNoResultAvailable)
	assert.Equal(t, MsgNoResult, rec.last().Message)
	assert.Equal(t, StateIdle, c.Snapshot().State)
	reports.AssertNotCalled(t, "FetchReport", mock.Anything, mock.Anything)
}

func TestDownloadReportSendsHeldResult(t *testing.T) {
	analyzer := &mockAnalyzer{}
	r := result(t, 0.9, 0.01)
	analyzer.On("Submit", mock.Anything, mock.Anything).Return(r, nil)

	artifact := &analysis.ReportArtifact{Filename: analysis.ReportFilename, ContentType: "application/pdf", Data: []byte("%PDF")}
	reports := &mockReports{}
	reports.On("FetchReport", mock.Anything, mock.MatchedBy(func(got *analysis.AnalysisResult) bool { return got == r })).
		Return(artifact, nil).Once()
	saver := &mockSaver{}
	saver.On("Save", mock.Anything, artifact).Return("/tmp/BiasLens_Report.pdf", nil).Once()

	c, rec := newController(analyzer, reports, saver)
	require.NoError(t, c.Analyze(context.Background(), csvFile, "gender"))

	dl, err := c.DownloadReport(context.Background())
	require.NoError(t, err)
	assert.Same(t, artifact, dl.Artifact)
	assert.Equal(t, "/tmp/BiasLens_Report.pdf", dl.Location)
	assert.Equal(t, MsgReportReady+analysis.ReportFilename, rec.last().Message)
	assert.Equal(t, StateRendered, c.Snapshot().State)

	reports.AssertExpectations(t)
	saver.AssertExpectations(t)
}

func TestDownloadReportFailureKeepsResult(t *testing.T) {
	analyzer := &mockAnalyzer{}
	r := result(t, 0.9, 0.01)
	analyzer.On("Submit", mock.Anything, mock.Anything).Return(r, nil)
	reports := &mockReports{}
	reports.On("FetchReport", mock.Anything, r).Return(nil, analysis.ErrBackendUnreachable)

	c, rec := newController(analyzer, reports, nil)
	require.NoError(t, c.Analyze(context.Background(), csvFile, "gender"))

	_, err := c.DownloadReport(context.Background())
	assert.ErrorIs(t, err, analysis.ErrBackendUnreachable)
	assert.Equal(t, MsgUnreachable, rec.last().Message)
	assert.Same(t, r, c.Result())
	assert.Equal(t, StateRendered, c.Snapshot().State)
}

type blockingAnalyzer struct {
	started chan struct{}
	release chan struct{}
	calls   int
	mu      sync.Mutex
	result  *analysis.AnalysisResult
}

func (b *blockingAnalyzer) Submit(ctx context.Context, _ analysis.ValidatedInput) (*analysis.AnalysisResult, error) {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()
	close(b.started)
	<-b.release
	return b.result, nil
}

func TestSecondTriggerWhileInFlight(t *testing.T) {
	analyzer := &blockingAnalyzer{
		started: make(chan struct{}),
		release: make(chan struct{}),
		result:  result(t, 0.9, 0.01),
	}
	reports := &mockReports{}
	c, _ := newController(analyzer, reports, nil)

	done := make(chan error, 1)
	go func() { done <- c.Analyze(context.Background(), csvFile, "gender") }()
	<-analyzer.started

	assert.Equal(t, StateSubmitting, c.Snapshot().State)
	assert.ErrorIs(t, c.Analyze(context.Background(), csvFile, "gender"), analysis.ErrSubmissionInFlight)
	_, err := c.DownloadReport(context.Background())
	assert.ErrorIs(t, err, analysis.ErrSubmissionInFlight)

	close(analyzer.release)
	require.NoError(t, <-done)

	assert.Equal(t, 1, analyzer.calls)
	assert.Equal(t, StateRendered, c.Snapshot().State)
	reports.AssertNotCalled(t, "FetchReport", mock.Anything, mock.Anything)
}

type stalledAdvisorClient struct{}

func (stalledAdvisorClient) Advise(ctx context.Context, _ ai.AdviceRequest) ([]string, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestAnalyzeFinishesWhenAdvisorStalls(t *testing.T) {
	analyzer := &mockAnalyzer{}
	r := result(t, 0.9, 0.01)
	analyzer.On("Submit", mock.Anything, mock.Anything).Return(r, nil).Once()

	svc := advice.NewService(stalledAdvisorClient{})
	svc.Timeout = 20 * time.Millisecond
	c := New("s-3", Dependencies{
		Analyzer: analyzer,
		Reports:  &mockReports{},
		Advisor:  svc,
		Clock:    application.FixedClock{T: now},
	})

	done := make(chan error, 1)
	go func() { done <- c.Analyze(context.Background(), csvFile, "gender") }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("analysis stuck behind the advisor")
	}

	snap := c.Snapshot()
	assert.Equal(t, StateRendered, snap.State)
	assert.True(t, snap.HasResult)
	require.NotNil(t, snap.Display)
	assert.Equal(t, advice.Rules(r), snap.Display.Summary.Recommendations)
}

func TestUnsubscribe(t *testing.T) {
	c := New("s-2", Dependencies{Analyzer: &mockAnalyzer{}, Clock: application.FixedClock{T: now}})
	rec := &recorder{}
	cancel := c.Subscribe(rec.observe)
	cancel()

	_ = c.Analyze(context.Background(), nil, "")
	assert.Empty(t, rec.states())
}

func TestMessageFor(t *testing.T) {
	assert.Equal(t, MsgMissingFile, MessageFor(analysis.ErrMissingFile))
	assert.Equal(t, MsgBusy, MessageFor(analysis.ErrSubmissionInFlight))
	assert.Equal(t, MsgUnreadable, MessageFor(analysis.ErrUnreadableDataset))
	assert.Equal(t, "bad column", MessageFor(&analysis.BackendError{Status: 400, Message: "bad column"}))
	assert.Equal(t, MsgUnexpected+assert.AnError.Error(), MessageFor(assert.AnError))
}
