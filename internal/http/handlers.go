package http

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).String(),
	})
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]interface{})

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if err := s.dashboard.Ready(ctx); err != nil {
		checks["dataset"] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["dataset"] = "ok"
	}

	stats := s.dashboard.CacheStats()
	checks["cache"] = map[string]interface{}{
		"entries": stats.Entries,
		"status":  "ok",
	}
	checks["rate_limiter"] = map[string]interface{}{
		"active_clients": s.reloadLimiter.ActiveClients(),
		"status":         "ok",
	}

	writeJSON(w, httpStatus, map[string]interface{}{
		"status":    status,
		"source":    s.dashboard.SourceID(),
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics provides application metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	traceMetrics := s.tracer.GetMetrics()
	limitMetrics := s.reloadLimiter.GetMetrics()
	cacheStats := s.dashboard.CacheStats()
	uptime := time.Since(s.appMetrics.uptime)

	w.WriteHeader(http.StatusOK)

	// Prometheus-like text format
	writeMetric(w, "http_requests_total", "counter", "Total number of HTTP requests", traceMetrics.TotalRequests)
	writeMetric(w, "http_server_errors_total", "counter", "Responses with a 5xx status", traceMetrics.ServerErrors)
	writeMetric(w, "http_response_time_avg_us", "gauge", "Average response time in microseconds", traceMetrics.AverageResponseTime)

	writeMetric(w, "dashboard_renders_total", "counter", "Dashboard views rendered", s.appMetrics.renders.Load())
	writeMetric(w, "dashboard_render_errors_total", "counter", "Renders that failed during compute or charts", s.appMetrics.renderErrors.Load())
	writeMetric(w, "dashboard_load_errors_total", "counter", "Requests that failed because the dataset could not be loaded", s.appMetrics.loadErrors.Load())
	writeMetric(w, "chart_png_renders_total", "counter", "PNG chart snapshots rendered", s.appMetrics.pngRenders.Load())
	writeMetric(w, "dataset_reloads_total", "counter", "Manual dataset reloads", s.appMetrics.reloads.Load())

	writeMetric(w, "table_cache_hits_total", "counter", "Table cache hits", cacheStats.Hits)
	writeMetric(w, "table_cache_misses_total", "counter", "Table cache misses", cacheStats.Misses)
	writeMetric(w, "table_cache_loads_total", "counter", "Source loads performed", cacheStats.Loads)
	writeMetric(w, "table_cache_load_errors_total", "counter", "Source loads that failed", cacheStats.Errors)
	writeMetric(w, "table_cache_entries", "gauge", "Tables currently cached", int64(cacheStats.Entries))

	writeMetric(w, "rate_limit_allowed_total", "counter", "Reload requests allowed", limitMetrics.Allowed)
	writeMetric(w, "rate_limit_hits_total", "counter", "Reload requests rejected by the rate limiter", limitMetrics.Denied)
	writeMetric(w, "active_rate_limit_clients", "gauge", "Currently tracked rate limit clients", limitMetrics.ClientCount)

	writeMetric(w, "suspicious_requests_total", "counter", "Total suspicious requests rejected", s.detector.SuspiciousRequests())

	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n", uptime.Seconds())
}

func writeMetric(w http.ResponseWriter, name, kind, help string, value int64) {
	fmt.Fprintf(w, "# HELP %s %s\n", name, help)
	fmt.Fprintf(w, "# TYPE %s %s\n", name, kind)
	fmt.Fprintf(w, "%s %d\n\n", name, value)
}
