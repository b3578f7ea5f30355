// Package session runs the analyze and report workflow for one user session.
package session

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/bryanwahyu/biaslens/internal/application"
	"github.com/bryanwahyu/biaslens/internal/application/present"
	"github.com/bryanwahyu/biaslens/internal/domain/analysis"
)

// Advisor produces mitigation recommendations for a result.
type Advisor interface {
	Recommend(ctx context.Context, r *analysis.AnalysisResult) []string
}

// Dependencies wires a controller. Saver, Advisor and Charts are optional.
type Dependencies struct {
	Analyzer analysis.AnalysisBackend
	Reports  analysis.ReportBackend
	Saver    analysis.ArtifactSaver
	Advisor  Advisor
	Charts   analysis.ChartRenderer
	Clock    application.Clock
}

// Download is the outcome of DownloadReport. Location is empty when no saver is configured.
type Download struct {
	Artifact *analysis.ReportArtifact
	Location string
}

// Snapshot is a read-only view of the controller.
type Snapshot struct {
	ID        string                `json:"id"`
	State     State                 `json:"state"`
	Status    Status                `json:"status"`
	HasResult bool                  `json:"has_result"`
	Display   *present.DisplayModel `json:"display,omitempty"`
}

// Controller owns the workflow of one session: the held result, the display
// and the status area. It is safe for concurrent use.
type Controller struct {
	id   string
	deps Dependencies

	mu         sync.Mutex
	state      State
	status     Status
	result     *analysis.AnalysisResult
	display    *present.Display
	observers  map[int]Observer
	nextObs    int
	lastActive time.Time
	closed     bool
}

// New creates an idle controller. A nil Clock means the system clock.
func New(id string, deps Dependencies) *Controller {
	if deps.Clock == nil {
		deps.Clock = application.SystemClock{}
	}
	c := &Controller{
		id:        id,
		deps:      deps,
		state:     StateIdle,
		display:   present.NewDisplay(deps.Charts),
		observers: make(map[int]Observer),
	}
	now := deps.Clock.Now()
	c.status = Status{Tone: ToneNeutral, Message: MsgReady, State: StateIdle, At: now}
	c.lastActive = now
	return c
}

// ID returns the session id.
func (c *Controller) ID() string { return c.id }

// Subscribe registers an observer and returns a function that removes it.
func (c *Controller) Subscribe(o Observer) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextObs
	c.nextObs++
	c.observers[id] = o
	return func() {
		c.mu.Lock()
		delete(c.observers, id)
		c.mu.Unlock()
	}
}

// Analyze validates, submits and renders. On failure the previous result and display stay.
func (c *Controller) Analyze(ctx context.Context, file *analysis.Dataset, attribute string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrSessionNotFound
	}
	if c.state == StateSubmitting {
		c.mu.Unlock()
		return analysis.ErrSubmissionInFlight
	}
	c.touch()
	resting := c.restingState()

	validating := c.transition(StateValidating, ToneNeutral, MsgValidating)
	input, err := analysis.Validate(file, attribute)
	if err != nil {
		failed := c.transition(StateFailed, ToneError, MessageFor(err))
		c.state = resting
		obs := c.observerList()
		c.mu.Unlock()
		notify(obs, validating, failed)
		return err
	}
	submitting := c.transition(StateSubmitting, ToneNeutral, MsgAnalyzing)
	obs := c.observerList()
	c.mu.Unlock()
	notify(obs, validating, submitting)

	log.Printf("analysis started session=%s attribute=%s file=%s", c.id, input.Attribute, input.File.Name)
	result, err := c.deps.Analyzer.Submit(ctx, input)
	if err != nil {
		log.Printf("analysis failed session=%s err=%v", c.id, err)
		return c.fail(err)
	}

	model := present.Present(result)
	if c.deps.Advisor != nil {
		model.Summary.Recommendations = c.deps.Advisor.Recommend(ctx, result)
	}

	c.mu.Lock()
	c.result = result
	c.display.Show(model)
	done := c.transition(StateRendered, ToneSuccess, fmt.Sprintf("%s Risk: %s.", MsgAnalysisDone, model.Summary.RiskLabel))
	obs = c.observerList()
	c.mu.Unlock()
	notify(obs, done)

	log.Printf("analysis rendered session=%s rows=%d risk=%s", c.id, result.Rows, model.Summary.Risk)
	return nil
}

// DownloadReport requests a report for the held result. It never changes the held result.
func (c *Controller) DownloadReport(ctx context.Context) (*Download, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	if c.state == StateSubmitting {
		c.mu.Unlock()
		return nil, analysis.ErrSubmissionInFlight
	}
	c.touch()
	if c.result == nil {
		failed := c.transition(StateFailed, ToneError, MsgNoResult)
		c.state = c.restingState()
		obs := c.observerList()
		c.mu.Unlock()
		notify(obs, failed)
		return nil, analysis.ErrNoResultAvailable
	}
	result := c.result
	generating := c.transition(StateSubmitting, ToneNeutral, MsgGenerating)
	obs := c.observerList()
	c.mu.Unlock()
	notify(obs, generating)

	artifact, err := c.deps.Reports.FetchReport(ctx, result)
	if err != nil {
		log.Printf("report failed session=%s err=%v", c.id, err)
		return nil, c.fail(err)
	}

	dl := &Download{Artifact: artifact}
	if c.deps.Saver != nil {
		loc, err := c.deps.Saver.Save(ctx, artifact)
		if err != nil {
			log.Printf("report save failed session=%s err=%v", c.id, err)
			return nil, c.failWith(err, MsgReportSaveFail+err.Error())
		}
		dl.Location = loc
	}

	c.mu.Lock()
	done := c.transition(StateRendered, ToneSuccess, MsgReportReady+artifact.Filename)
	obs = c.observerList()
	c.mu.Unlock()
	notify(obs, done)

	log.Printf("report ready session=%s bytes=%d location=%s", c.id, len(artifact.Data), dl.Location)
	return dl, nil
}

// Snapshot returns the current state without side effects on the workflow.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		ID:        c.id,
		State:     c.state,
		Status:    c.status,
		HasResult: c.result != nil,
		Display:   c.display.Model(),
	}
}

// Result returns the held result, or nil.
func (c *Controller) Result() *analysis.AnalysisResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}

// ChartPNG returns the chart of the current display.
func (c *Controller) ChartPNG() ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.display.ChartPNG()
}

// LastActive is the time of the last user action.
func (c *Controller) LastActive() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActive
}

// Close releases the display. Later Analyze and DownloadReport calls fail with ErrSessionNotFound.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

// expire closes the controller if it has been idle since cutoff and nothing is in flight.
// The check and the close happen under one lock so no action can start in between.
func (c *Controller) expire(cutoff time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.state == StateSubmitting || !c.lastActive.Before(cutoff) {
		return false
	}
	c.closeLocked()
	return true
}

func (c *Controller) closeLocked() {
	c.closed = true
	c.display.Close()
	c.observers = make(map[int]Observer)
}

func (c *Controller) fail(err error) error {
	return c.failWith(err, MessageFor(err))
}

func (c *Controller) failWith(err error, msg string) error {
	c.mu.Lock()
	failed := c.transition(StateFailed, ToneError, msg)
	c.state = c.restingState()
	obs := c.observerList()
	c.mu.Unlock()
	notify(obs, failed)
	return err
}

// transition must be called with mu held.
func (c *Controller) transition(s State, tone Tone, msg string) Status {
	c.state = s
	c.status = Status{Tone: tone, Message: msg, State: s, At: c.deps.Clock.Now()}
	return c.status
}

func (c *Controller) restingState() State {
	if c.result != nil {
		return StateRendered
	}
	return StateIdle
}

func (c *Controller) touch() { c.lastActive = c.deps.Clock.Now() }

func (c *Controller) observerList() []Observer {
	out := make([]Observer, 0, len(c.observers))
	for i := 0; i < c.nextObs; i++ {
		if o, ok := c.observers[i]; ok {
			out = append(out, o)
		}
	}
	return out
}

func notify(obs []Observer, statuses ...Status) {
	for _, st := range statuses {
		for _, o := range obs {
			o(st)
		}
	}
}
