package middleware

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"
)

// Metrics stores application metrics
type Metrics struct {
	RequestsTotal      uint64
	RequestsInProgress uint64
	RequestsSuccess    uint64
	RequestsFailed     uint64
	AnalysesTotal      uint64
	AnalysesFailed     uint64
	ReportsTotal       uint64
	ReportsFailed      uint64
	SessionsCreated    uint64
	StartTime          time.Time
}

var globalMetrics = &Metrics{
	StartTime: time.Now(),
}

// IncrementRequests increments total request counter
func IncrementRequests() {
	atomic.AddUint64(&globalMetrics.RequestsTotal, 1)
}

// IncrementInProgress increments in-progress request counter
func IncrementInProgress() {
	atomic.AddUint64(&globalMetrics.RequestsInProgress, 1)
}

// DecrementInProgress decrements in-progress request counter
func DecrementInProgress() {
	atomic.AddUint64(&globalMetrics.RequestsInProgress, ^uint64(0))
}

// IncrementSuccess increments successful request counter
func IncrementSuccess() {
	atomic.AddUint64(&globalMetrics.RequestsSuccess, 1)
}

// IncrementFailed increments failed request counter
func IncrementFailed() {
	atomic.AddUint64(&globalMetrics.RequestsFailed, 1)
}

// RecordAnalysis counts one analysis attempt.
func RecordAnalysis(failed bool) {
	atomic.AddUint64(&globalMetrics.AnalysesTotal, 1)
	if failed {
		atomic.AddUint64(&globalMetrics.AnalysesFailed, 1)
	}
}

// RecordReport counts one report attempt.
func RecordReport(failed bool) {
	atomic.AddUint64(&globalMetrics.ReportsTotal, 1)
	if failed {
		atomic.AddUint64(&globalMetrics.ReportsFailed, 1)
	}
}

// IncrementSessions increments created sessions counter
func IncrementSessions() {
	atomic.AddUint64(&globalMetrics.SessionsCreated, 1)
}

// GetMetrics returns current metrics
func GetMetrics() map[string]interface{} {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return map[string]interface{}{
		"requests_total":       atomic.LoadUint64(&globalMetrics.RequestsTotal),
		"requests_in_progress": atomic.LoadUint64(&globalMetrics.RequestsInProgress),
		"requests_success":     atomic.LoadUint64(&globalMetrics.RequestsSuccess),
		"requests_failed":      atomic.LoadUint64(&globalMetrics.RequestsFailed),
		"analyses_total":       atomic.LoadUint64(&globalMetrics.AnalysesTotal),
		"analyses_failed":      atomic.LoadUint64(&globalMetrics.AnalysesFailed),
		"reports_total":        atomic.LoadUint64(&globalMetrics.ReportsTotal),
		"reports_failed":       atomic.LoadUint64(&globalMetrics.ReportsFailed),
		"sessions_created":     atomic.LoadUint64(&globalMetrics.SessionsCreated),
		"uptime_seconds":       time.Since(globalMetrics.StartTime).Seconds(),
		"memory": map[string]interface{}{
			"alloc_bytes":       m.Alloc,
			"total_alloc_bytes": m.TotalAlloc,
			"sys_bytes":         m.Sys,
			"num_gc":            m.NumGC,
		},
		"goroutines": runtime.NumGoroutine(),
	}
}

// MetricsMiddleware tracks request metrics
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		IncrementRequests()
		IncrementInProgress()
		defer DecrementInProgress()

		// Wrap response writer to capture status
		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapped, r)

		// Track success/failure based on status code; 101 is a websocket upgrade
		if wrapped.statusCode >= 100 && wrapped.statusCode < 400 {
			IncrementSuccess()
		} else {
			IncrementFailed()
		}
	})
}

// MetricsHandler returns metrics as JSON
func MetricsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(GetMetrics())
}
