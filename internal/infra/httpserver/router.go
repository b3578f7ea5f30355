package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"

	"github.com/bryanwahyu/biaslens/internal/application/present"
	"github.com/bryanwahyu/biaslens/internal/application/session"
	"github.com/bryanwahyu/biaslens/internal/domain/analysis"
	"github.com/bryanwahyu/biaslens/internal/middleware"
)

const (
	defaultMaxUpload = 32 << 20
	multipartMemory  = 8 << 20
)

// Options configures the HTTP surface. Zero values disable auth and rate limiting.
type Options struct {
	AllowedOrigins []string
	MaxUploadBytes int64
	APIKeys        map[string]string
	RateCapacity   int
	RateRefill     int
	Checkers       map[string]middleware.HealthChecker
}

// Router serves the session API on top of a session registry.
type Router struct {
	sessions  *session.Registry
	maxUpload int64
	upgrader  websocket.Upgrader
}

var errBadRequest = errors.New("bad request")

// NewRouter builds the chi handler with CORS, logging, metrics and the optional
// auth and rate limit middleware.
func NewRouter(sessions *session.Registry, opts Options) http.Handler {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUpload
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	r := &Router{
		sessions:  sessions,
		maxUpload: opts.MaxUploadBytes,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(opts.AllowedOrigins),
		},
	}

	mux := chi.NewRouter()
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition", "X-Report-Location"},
		MaxAge:         300,
	}))
	mux.Use(middleware.LoggingMiddleware, middleware.MetricsMiddleware)
	if len(opts.APIKeys) > 0 {
		mux.Use(middleware.APIKeyAuth(opts.APIKeys))
	}
	if opts.RateCapacity > 0 {
		mux.Use(middleware.RateLimitMiddleware(opts.RateCapacity, opts.RateRefill))
	}

	mux.Get("/health", middleware.LivenessHandler)
	mux.Get("/healthz", middleware.HealthHandler(opts.Checkers))
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/v1/sessions", func(rt chi.Router) {
		rt.Post("/", r.wrap(r.handleCreate))
		rt.Route("/{id}", func(rt chi.Router) {
			rt.Get("/", r.wrap(r.handleSnapshot))
			rt.Post("/analyze", r.wrap(r.handleAnalyze))
			rt.Post("/report", r.wrap(r.handleReport))
			rt.Get("/chart.png", r.wrap(r.handleChart))
			rt.Get("/summary", r.wrap(r.handleSummary))
			rt.Get("/events", r.wrap(r.handleEvents))
		})
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			writeJSON(w, statusCode(err), response{Error: err.Error()})
		}
	}
}

// statusCode maps workflow errors to HTTP status codes.
func statusCode(err error) int {
	var backendErr *analysis.BackendError
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, analysis.ErrMissingFile),
		errors.Is(err, analysis.ErrMissingAttribute),
		errors.Is(err, analysis.ErrUnreadableDataset):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, analysis.ErrNoResultAvailable),
		errors.Is(err, analysis.ErrSubmissionInFlight):
		return http.StatusConflict
	case errors.As(err, &backendErr):
		return http.StatusBadGateway
	case errors.Is(err, analysis.ErrBackendUnreachable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

type response struct {
	Session *session.Snapshot `json:"session,omitempty"`
	Status  *session.Status   `json:"status,omitempty"`
	Error   string            `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response error: %v", err)
	}
}

// writeOutcome answers an action with the session state, so the page can paint its status area.
func writeOutcome(w http.ResponseWriter, ctrl *session.Controller, err error) {
	snap := ctrl.Snapshot()
	resp := response{Session: &snap, Status: &snap.Status}
	code := http.StatusOK
	if err != nil {
		code = statusCode(err)
		resp.Error = session.MessageFor(err)
	}
	writeJSON(w, code, resp)
}

func (r *Router) session(req *http.Request) (*session.Controller, error) {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateSessionID(id); err != nil {
		return nil, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return r.sessions.Get(id)
}

// POST /v1/sessions
func (r *Router) handleCreate(w http.ResponseWriter, req *http.Request) error {
	ctrl := r.sessions.Create()
	middleware.IncrementSessions()
	snap := ctrl.Snapshot()
	writeJSON(w, http.StatusCreated, response{Session: &snap, Status: &snap.Status})
	return nil
}

// GET /v1/sessions/{id}
func (r *Router) handleSnapshot(w http.ResponseWriter, req *http.Request) error {
	ctrl, err := r.session(req)
	if err != nil {
		return err
	}
	writeOutcome(w, ctrl, nil)
	return nil
}

// POST /v1/sessions/{id}/analyze
// Multipart form: file=<dataset>, sensitive=<column name>
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	ctrl, err := r.session(req)
	if err != nil {
		return err
	}

	req.Body = http.MaxBytesReader(w, req.Body, r.maxUpload)
	if err := req.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return fmt.Errorf("%w: reading form: %v", errBadRequest, err)
	}

	dataset, err := formDataset(req)
	if err != nil {
		return err
	}

	err = ctrl.Analyze(req.Context(), dataset, req.FormValue("sensitive"))
	middleware.RecordAnalysis(err != nil)
	writeOutcome(w, ctrl, err)
	return nil
}

// formDataset returns nil when no file part was sent; the controller reports that.
func formDataset(req *http.Request) (*analysis.Dataset, error) {
	file, header, err := req.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading file: %v", errBadRequest, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("%w: reading file: %v", errBadRequest, err)
	}
	return &analysis.Dataset{
		Name:        middleware.CleanUploadName(header.Filename),
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// POST /v1/sessions/{id}/report
func (r *Router) handleReport(w http.ResponseWriter, req *http.Request) error {
	ctrl, err := r.session(req)
	if err != nil {
		return err
	}

	dl, err := ctrl.DownloadReport(req.Context())
	middleware.RecordReport(err != nil)
	if err != nil {
		writeOutcome(w, ctrl, err)
		return nil
	}

	w.Header().Set("Content-Type", dl.Artifact.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", dl.Artifact.Filename))
	if dl.Location != "" {
		w.Header().Set("X-Report-Location", dl.Location)
	}
	w.WriteHeader(http.StatusOK)
	_, err = w.Write(dl.Artifact.Data)
	return err
}

// GET /v1/sessions/{id}/chart.png
func (r *Router) handleChart(w http.ResponseWriter, req *http.Request) error {
	ctrl, err := r.session(req)
	if err != nil {
		return err
	}
	png, ok := ctrl.ChartPNG()
	if !ok {
		http.Error(w, "no chart rendered", http.StatusNotFound)
		return nil
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, err = w.Write(png)
	return err
}

// GET /v1/sessions/{id}/summary?format=text
func (r *Router) handleSummary(w http.ResponseWriter, req *http.Request) error {
	ctrl, err := r.session(req)
	if err != nil {
		return err
	}
	model := ctrl.Snapshot().Display
	if model == nil {
		http.Error(w, "no analysis rendered", http.StatusNotFound)
		return nil
	}

	if req.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		_, err = io.WriteString(w, present.Markdown(*model))
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err = w.Write(present.HTML(*model))
	return err
}
