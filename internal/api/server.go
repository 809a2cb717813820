// Package api exposes albums, ad hoc queries and scheduler state over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/orgball2608/fedi-albums/internal/ratelimit"
	"github.com/orgball2608/fedi-albums/internal/repositories"
	"github.com/orgball2608/fedi-albums/internal/repositories/album"
	"github.com/orgball2608/fedi-albums/internal/repositories/photo"
	"github.com/orgball2608/fedi-albums/internal/resolver"
	"github.com/orgball2608/fedi-albums/internal/scheduler"
	"github.com/orgball2608/fedi-albums/pkg/config"
	"github.com/orgball2608/fedi-albums/pkg/logger"
	"go.uber.org/fx"
)

type Opts struct {
	fx.In

	Config     *config.Config
	Logger     logger.Logger
	AlbumRepo  album.Repository
	PhotoRepo  photo.Repository
	Transactor *repositories.Transactor
	Resolver   resolver.Client
	Scheduler  scheduler.Client
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	albumRepo    album.Repository
	photoRepo    photo.Repository
	transactor   *repositories.Transactor
	resolver     resolver.Client
	scheduler    scheduler.Client
	queryLimiter ratelimit.Limiter
	validator    *Validator
	corsOrigins  []string
	router       *chi.Mux
	logger       logger.Logger
}

// NewServer creates the HTTP handler with all routes configured.
func NewServer(opts Opts) *Server {
	s := &Server{
		albumRepo:    opts.AlbumRepo,
		photoRepo:    opts.PhotoRepo,
		transactor:   opts.Transactor,
		resolver:     opts.Resolver,
		scheduler:    opts.Scheduler,
		queryLimiter: ratelimit.NewInMemoryLimiter(opts.Config.API.QueryRPS, opts.Config.API.QueryBurst),
		validator:    NewValidator(),
		corsOrigins:  opts.Config.API.CORSOrigins,
		router:       chi.NewRouter(),
		logger:       opts.Logger.WithComponent("API"),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"Retry-After", "X-Request-Id"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealthCheck)

	s.router.Route("/albums", func(r chi.Router) {
		r.Get("/", s.handleListAlbums)
		r.Post("/", s.handleCreateAlbum)
		r.Get("/{id}", s.handleGetAlbum)
		r.Patch("/{id}", s.handleUpdateAlbum)
		r.Delete("/{id}", s.handleDeleteAlbum)
		r.Post("/{id}/refresh", s.handleRefreshAlbum)
		r.Get("/{id}/photos", s.handleListAlbumPhotos)
	})

	s.router.Route("/photos", func(r chi.Router) {
		r.With(s.rateLimitByIP(s.queryLimiter)).Post("/query", s.handleQueryPhotos)
		r.Delete("/unreferenced", s.handleRemoveUnreferenced)
	})

	s.router.Get("/scheduler/status", s.handleSchedulerStatus)
}

// handleHealthCheck returns server health status.
func (s *Server) handleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requestLogger logs one line per request through the component logger.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		started := time.Now()

		next.ServeHTTP(ww, r)

		s.logger.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(started),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
