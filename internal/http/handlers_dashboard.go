package http

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"net/http"
	"strings"
	"time"

	"purchases/internal/analytics"
	"purchases/internal/charts"
	"purchases/internal/core"
	applog "purchases/internal/log"
	"purchases/internal/middleware/trace"
	"purchases/internal/services"
)

const (
	renderTimeout = 30 * time.Second
	reloadTimeout = 2 * time.Minute
	pageTitle     = "Purchases Analytics Dashboard"
)

// chartPanel pairs a chart with its snapshot link.
type chartPanel struct {
	Spec charts.ChartSpec
	PNG  template.URL
}

type pageData struct {
	Title    string
	Source   string
	LoadedAt time.Time
	Rows     int
	View     analytics.View
	Query    template.URL
	Overview []chartPanel
	Detail   []chartPanel
	selected map[string]bool
}

// UnitChecked reports whether unit is part of the explicit global filter.
func (p pageData) UnitChecked(unit string) bool {
	return p.selected[unit]
}

// SectionWarnings returns the warnings attached to section.
func (p pageData) SectionWarnings(section string) []core.Warning {
	var out []core.Warning
	for _, w := range p.View.Warnings {
		if w.Section == section {
			out = append(out, w)
		}
	}
	return out
}

func newPageData(out services.RenderOutput) pageData {
	query := SelectionQuery(out.View.Selection).Encode()
	panel := func(spec charts.ChartSpec) chartPanel {
		return chartPanel{Spec: spec, PNG: template.URL("/charts/" + spec.ID + "/png?" + query)}
	}
	p := pageData{
		Title:    pageTitle,
		Source:   out.Source,
		LoadedAt: out.LoadedAt,
		Rows:     out.Rows,
		View:     out.View,
		Query:    template.URL(query),
		Overview: []chartPanel{panel(out.Charts.Trend)},
		Detail: []chartPanel{
			panel(out.Charts.Suppliers),
			panel(out.Charts.Categories),
			panel(out.Charts.Products),
			panel(out.Charts.SupplierTrend),
		},
		selected: make(map[string]bool),
	}
	for _, u := range out.View.Selection.Global.Units {
		p.selected[u] = true
	}
	return p
}

// render computes the dashboard for the request's selection and counts the
// outcome.
func (s *Server) render(r *http.Request) (services.RenderOutput, error) {
	ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
	defer cancel()

	sel := ParseSelection(r.URL.Query())
	start := time.Now()
	out, err := s.dashboard.Render(ctx, sel)
	if err != nil {
		s.countFailure(err)
		return services.RenderOutput{}, err
	}
	s.appMetrics.renders.Add(1)
	s.structured.LogRender(r.Context(), out.Source, out.Rows, out.View.Selection, time.Since(start).Milliseconds())
	return out, nil
}

func (s *Server) countFailure(err error) {
	var dle *core.DataLoadError
	switch {
	case errors.As(err, &dle):
		s.appMetrics.loadErrors.Add(1)
	case errors.Is(err, core.ErrUnknownChart):
	default:
		s.appMetrics.renderErrors.Add(1)
	}
}

// handleIndex renders the full dashboard page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		s.logger.ErrorContext(r.Context(), "Templates not loaded",
			applog.FieldPath, r.URL.Path,
			applog.FieldComponent, applog.ComponentTemplate,
			applog.FieldErrorType, applog.ErrorTypeConfiguration)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	out, err := s.render(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	s.executeTemplate(w, r, http.StatusOK, "index.html", newPageData(out))
}

// handleStats returns the stat cards partial.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.renderPartial(w, r, "stats")
}

// handleCharts returns the chart sections partial, detail controls included.
func (s *Server) handleCharts(w http.ResponseWriter, r *http.Request) {
	s.renderPartial(w, r, "charts")
}

func (s *Server) renderPartial(w http.ResponseWriter, r *http.Request, name string) {
	if s.templates == nil {
		InternalServerError("Templates not loaded").Write(w)
		return
	}
	out, err := s.render(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data := newPageData(out)

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Partial template execution failed", "error", err, "template", name)
		InternalServerError("Error rendering dashboard").Write(w)
		return
	}
	sel := out.View.Selection
	NewHTMXResponse().
		Header("Cache-Control", "no-store").
		TriggerSelectionChanged(sel.DetailUnit, sel.Category).
		BodyHTML(buf.String()).
		Write(w)
}

// handleView returns the computed view and every chart spec as JSON.
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	out, err := s.render(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, out)
}

// handleChart returns one chart spec as JSON. Empty charts are still
// returned with their placeholder message.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	spec, err := s.chart(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, spec)
}

// handleChartPNG rasterizes one chart. Optional width and height query
// parameters size the image.
func (s *Server) handleChartPNG(w http.ResponseWriter, r *http.Request) {
	spec, err := s.chart(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	width := parseDimension(q, "width", charts.DefaultWidth, 200, 4000)
	height := parseDimension(q, "height", spec.Height, 150, 3000)

	var buf bytes.Buffer
	if err := charts.RenderPNG(spec, width, height, &buf); err != nil {
		if errors.Is(err, charts.ErrEmptyChart) {
			msg := spec.Message
			if msg == "" {
				msg = err.Error()
			}
			writeJSON(w, http.StatusNotFound, map[string]string{"error": msg, "chart": spec.ID})
			return
		}
		s.structured.LogError(r.Context(), "PNG render failed", err, applog.ComponentHTTP, applog.OpRender,
			applog.NewFields().WithOperation(applog.OpRender))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "chart could not be rendered"})
		return
	}
	s.appMetrics.pngRenders.Add(1)
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) chart(r *http.Request) (charts.ChartSpec, error) {
	ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
	defer cancel()

	spec, err := s.dashboard.Chart(ctx, ParseSelection(r.URL.Query()), r.PathValue("id"))
	if err != nil {
		s.countFailure(err)
	}
	return spec, err
}

// handleReload drops the cached table and loads the source again.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), reloadTimeout)
	defer cancel()

	rows, err := s.dashboard.Reload(ctx)
	if err != nil {
		s.appMetrics.loadErrors.Add(1)
		s.structured.LogError(r.Context(), "Dataset reload failed", err, applog.ComponentDashboard, applog.OpReload,
			applog.NewFields().WithDataset(s.dashboard.SourceID(), 0))
		if isHTMX(r) {
			ServiceUnavailableError("Reload failed: "+err.Error()).
				TriggerErrorNotification("The dataset could not be reloaded").
				Write(w)
			return
		}
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		return
	}
	s.appMetrics.reloads.Add(1)

	if isHTMX(r) {
		NewHTMXResponse().
			TriggerDatasetReloaded(s.dashboard.SourceID(), rows).
			TriggerSuccessNotification("Dataset reloaded: " + formatCount(rows) + " rows").
			BodyHTML(`<span class="reload-status">Reloaded ` + formatCount(rows) + ` rows</span>`).
			Write(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"source": s.dashboard.SourceID(),
		"rows":   rows,
	})
}

func (s *Server) handleReloadLimited(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Reload rate limit exceeded",
		applog.FieldClientIP, s.detector.ExtractClientIP(r))
	if isHTMX(r) {
		ErrorResponse(http.StatusTooManyRequests, "Too many reloads, try again shortly").
			TriggerErrorNotification("Too many reloads").
			Write(w)
		return
	}
	writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
}

// statusFor maps a render error to an HTTP status and a user-facing message.
func statusFor(err error) (int, string) {
	var dle *core.DataLoadError
	var re *services.RenderError
	switch {
	case errors.As(err, &dle):
		return http.StatusServiceUnavailable, "The purchases dataset could not be loaded: " + dle.Error()
	case errors.As(err, &re):
		return http.StatusInternalServerError, "Something went wrong while drawing the dashboard."
	case errors.Is(err, core.ErrUnknownChart):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "The dashboard took too long to compute."
	default:
		return http.StatusInternalServerError, "Unexpected error."
	}
}

// writeError answers with JSON for API routes, an HTML fragment for htmx
// requests and the error page otherwise.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.structured.LogError(r.Context(), "Dashboard request failed", err, applog.ComponentHTTP, applog.OpRender,
			applog.NewFields().
				WithRequestID(trace.GetRequestID(r.Context())).
				WithHTTPResponse(status, 0, false))
	}

	switch {
	case r.URL.Path == "/api/view" || strings.HasPrefix(r.URL.Path, "/charts/"):
		writeJSON(w, status, map[string]string{"error": msg})
	case isHTMX(r) || s.templates == nil:
		ErrorResponse(status, msg).Write(w)
	default:
		s.executeTemplate(w, r, status, "error.html", struct {
			Title   string
			Status  int
			Message string
		}{Title: pageTitle, Status: status, Message: msg})
	}
}

func (s *Server) executeTemplate(w http.ResponseWriter, r *http.Request, status int, name string, data interface{}) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed", "error", err, "template", name)
		http.Error(w, "error rendering page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
