package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	applog "purchases/internal/log"
	"purchases/internal/middleware/ratelimit"
	"purchases/internal/middleware/security"
	"purchases/internal/middleware/trace"
	"purchases/internal/services"
	appweb "purchases/web"
)

// Options tunes the server. Zero values fall back to defaults.
type Options struct {
	Logger *applog.Logger
	// ReloadPerMinute caps POST /admin/reload per client.
	ReloadPerMinute int
	TrustedProxies  []string
	// Templates overrides the embedded templates, mainly for tests.
	Templates fs.FS
}

type Server struct {
	http.Server
	templates *template.Template
	dashboard *services.Dashboard

	logger        *applog.Logger
	structured    *applog.StructuredLogger
	detector      *security.Detector
	tracer        *trace.Middleware
	reloadLimiter *ratelimit.Limiter
	appMetrics    *appMetrics

	onShutdown   []func()
	shutdownOnce sync.Once
}

type appMetrics struct {
	uptime       time.Time
	renders      atomic.Int64
	renderErrors atomic.Int64
	loadErrors   atomic.Int64
	pngRenders   atomic.Int64
	reloads      atomic.Int64
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, dash *services.Dashboard, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	perMinute := opts.ReloadPerMinute
	if perMinute <= 0 {
		perMinute = 6
	}

	detector := security.NewDetector()
	for _, cidr := range opts.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring invalid trusted proxy", "cidr", cidr, "error", err)
		}
	}

	mux := http.NewServeMux()
	s := &Server{
		dashboard:  dash,
		logger:     logger,
		structured: applog.NewStructuredLogger(logger),
		detector:   detector,
		tracer:     trace.NewMiddleware(logger, detector.ExtractClientIP),
		reloadLimiter: ratelimit.NewLimiter(ratelimit.Config{
			Requests:        perMinute,
			Window:          time.Minute,
			CleanupInterval: 5 * time.Minute,
		}),
		appMetrics: &appMetrics{uptime: time.Now()},
	}

	templates := opts.Templates
	if templates == nil {
		templates = appweb.TemplatesFS
	}
	t, err := template.New("").Funcs(templateFuncs()).ParseFS(templates, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", "error", err)
		t = nil
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /ui/stats", s.handleStats)
	mux.HandleFunc("GET /ui/charts", s.handleCharts)
	mux.HandleFunc("GET /api/view", s.handleView)
	mux.HandleFunc("GET /charts/{id}", s.handleChart)
	mux.HandleFunc("GET /charts/{id}/png", s.handleChartPNG)

	reload := s.reloadLimiter.Middleware(detector.ExtractClientIP, s.handleReloadLimited)
	mux.Handle("POST /admin/reload", security.NoStore(reload(http.HandlerFunc(s.handleReload))))

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	var handler http.Handler = mux
	handler = detector.Middleware(handler)
	handler = headers.Middleware(handler)
	handler = trace.Recover(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// OnShutdown registers fn to run once when the server shuts down.
func (s *Server) OnShutdown(fn func()) {
	s.onShutdown = append(s.onShutdown, fn)
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.reloadLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
		for _, fn := range s.onShutdown {
			fn()
		}
	})
	return shutdownErr
}
