package api

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/richtext/internal/config"
	"github.com/dgallion1/richtext/internal/images"
	"github.com/dgallion1/richtext/internal/measure"
	"github.com/dgallion1/richtext/internal/render"
	"github.com/dgallion1/richtext/internal/stats"
	"github.com/dgallion1/richtext/internal/style"
)

// Deps are the long-lived services the API renders and measures with. Any
// field but Store may be nil.
type Deps struct {
	Store       *measure.Store
	Images      *images.Loader
	Math        render.MathRenderer
	Highlighter render.Highlighter
	Stats       *stats.Tracker
}

// Server is the HTTP API server for richtext.
type Server struct {
	router chi.Router
	deps   Deps
	log    *slog.Logger
	cfg    config.Config

	mu        sync.Mutex
	renderers map[string]*render.Renderer

	viewsMu sync.Mutex
	views   map[measure.Handle]*view
}

// NewServer creates and configures the HTTP server.
func NewServer(deps Deps, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		deps:      deps,
		log:       log,
		cfg:       cfg,
		renderers: make(map[string]*render.Renderer),
		views:     make(map[measure.Handle]*view),
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/render", s.handleRender)

		r.Post("/api/views", s.handleOpenView)
		r.Put("/api/views/{id}", s.handleStoreView)
		r.Get("/api/views/{id}/measure", s.handleMeasureView)
		r.Delete("/api/views/{id}", s.handleReleaseView)
		r.Post("/api/views/{id}/links", s.handleActivateLink)

		r.Get("/api/images/status", s.handleImageStatus)
		r.Get("/api/stats", s.handleStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// renderer returns the shared renderer for a theme, building it on first
// use. An empty theme means the configured default.
func (s *Server) renderer(theme string) (*render.Renderer, error) {
	if theme == "" {
		theme = s.cfg.Theme
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.renderers[theme]; ok {
		return r, nil
	}
	cfg, err := style.ThemeByName(theme)
	if err != nil {
		return nil, err
	}

	opts := []render.Option{
		render.WithLogger(s.log.With("component", "render", "theme", cfg.Name)),
		render.WithLinkHandler(func(url string) {
			s.log.Info("link activated", "url", url)
		}),
	}
	if s.deps.Highlighter != nil {
		opts = append(opts, render.WithHighlighter(s.deps.Highlighter))
	}
	if s.deps.Math != nil {
		opts = append(opts, render.WithMath(s.deps.Math))
	}
	if s.deps.Images != nil {
		opts = append(opts, render.WithImages(s.deps.Images))
	}
	r := render.New(cfg, opts...)
	s.renderers[theme] = r
	return r, nil
}
