package services

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"purchases/internal/analytics"
	"purchases/internal/cache"
	"purchases/internal/charts"
	"purchases/internal/core"
	"purchases/internal/sheets"
)

// RenderOutput is everything the HTTP layer needs to draw one request.
type RenderOutput struct {
	Source   string           `json:"source"`
	LoadedAt time.Time        `json:"loaded_at"`
	Rows     int              `json:"rows"`
	View     analytics.View   `json:"view"`
	Charts   charts.Dashboard `json:"charts"`
}

// RenderError wraps a panic raised while computing or drawing a view.
type RenderError struct {
	Stage string
	Cause interface{}
	Stack []byte
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render failed during %s: %v", e.Stage, e.Cause)
}

// Dashboard loads the table through the cache and turns selections into
// rendered views.
type Dashboard struct {
	cache  *cache.TableCache
	source sheets.TableSource

	compute func(*core.Table, core.Selection) analytics.View
	render  func(analytics.View) charts.Dashboard
}

func NewDashboard(c *cache.TableCache, src sheets.TableSource) *Dashboard {
	return &Dashboard{
		cache:   c,
		source:  src,
		compute: analytics.Compute,
		render:  charts.Render,
	}
}

// SourceID identifies the configured source.
func (d *Dashboard) SourceID() string { return d.source.SourceID() }

// Table returns the cached table, loading it on first use.
func (d *Dashboard) Table(ctx context.Context) (*core.Table, error) {
	return d.cache.Get(ctx, d.source)
}

// DefaultSelection returns the initial selection for the loaded table.
func (d *Dashboard) DefaultSelection(ctx context.Context) (core.Selection, error) {
	t, err := d.Table(ctx)
	if err != nil {
		return core.Selection{}, err
	}
	return core.DefaultSelection(t.Units()), nil
}

// Render loads the table and recomputes the whole dashboard for sel.
// Load failures are *core.DataLoadError; panics become *RenderError.
func (d *Dashboard) Render(ctx context.Context, sel core.Selection) (RenderOutput, error) {
	t, err := d.Table(ctx)
	if err != nil {
		return RenderOutput{}, err
	}
	start := time.Now()
	out, err := d.build(t, sel)
	if err != nil {
		slog.ErrorContext(ctx, "Dashboard render failed", "error", err, "source", t.Source())
		return RenderOutput{}, err
	}
	slog.DebugContext(ctx, "Dashboard rendered",
		"source", t.Source(),
		"rows", t.Len(),
		"detail_unit", out.View.Selection.DetailUnit,
		"duration_ms", time.Since(start).Milliseconds())
	return out, nil
}

func (d *Dashboard) build(t *core.Table, sel core.Selection) (out RenderOutput, err error) {
	stage := "compute"
	defer func() {
		if r := recover(); r != nil {
			err = &RenderError{Stage: stage, Cause: r, Stack: debug.Stack()}
		}
	}()

	view := d.compute(t, sel)
	stage = "charts"
	dash := d.render(view)
	return RenderOutput{
		Source:   t.Source(),
		LoadedAt: t.LoadedAt(),
		Rows:     t.Len(),
		View:     view,
		Charts:   dash,
	}, nil
}

// Chart renders a single chart for sel.
func (d *Dashboard) Chart(ctx context.Context, sel core.Selection, id string) (charts.ChartSpec, error) {
	out, err := d.Render(ctx, sel)
	if err != nil {
		return charts.ChartSpec{}, err
	}
	return out.Charts.Get(id)
}

// Reload drops the cached table and loads it again, returning the new row
// count.
func (d *Dashboard) Reload(ctx context.Context) (int, error) {
	d.cache.Invalidate(d.source.SourceID())
	t, err := d.Table(ctx)
	if err != nil {
		return 0, err
	}
	slog.InfoContext(ctx, "Dataset reloaded", "source", t.Source(), "rows", t.Len())
	return t.Len(), nil
}

// Ready reports whether the table can be loaded.
func (d *Dashboard) Ready(ctx context.Context) error {
	_, err := d.Table(ctx)
	return err
}

// CacheStats exposes the table cache counters.
func (d *Dashboard) CacheStats() cache.TableStats {
	return d.cache.Stats()
}
