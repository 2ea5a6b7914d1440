// Package api exposes the day-tag and export operations over HTTP using huma
// on a chi router.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/daylogapp/daylog-server/internal/export"
	"github.com/daylogapp/daylog-server/internal/http/response"
	"github.com/daylogapp/daylog-server/internal/ratelimit"
	"github.com/daylogapp/daylog-server/internal/service"
	"github.com/daylogapp/daylog-server/internal/store/sqlite"
)

// Database is the slice of the store the API reads directly for health and
// admin statistics.
type Database interface {
	Ping(ctx context.Context) error
	Stats(ctx context.Context) (*sqlite.Stats, error)
}

// Options tunes the HTTP surface.
type Options struct {
	Version          string
	ExportDir        string        // Only artifacts under this directory may be shared
	PreviewLimit     int           // Rows rendered when a preview request names no limit
	ExportRetryAfter time.Duration // Retry-After hint sent with 429s
	CORSOrigins      []string
}

// Server holds the dependencies for HTTP handlers.
type Server struct {
	db            Database
	dayTags       *service.DayTagService
	exporter      *export.Exporter
	exportLimiter *ratelimit.KeyedRateLimiter
	opts          Options
	router        *chi.Mux
	api           huma.API
	logger        *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
// exportLimiter may be nil to disable export rate limiting.
func NewServer(
	db Database,
	dayTags *service.DayTagService,
	exporter *export.Exporter,
	exportLimiter *ratelimit.KeyedRateLimiter,
	opts Options,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}
	if opts.PreviewLimit < 1 {
		opts.PreviewLimit = defaultPreviewLimit
	}
	if opts.ExportRetryAfter <= 0 {
		opts.ExportRetryAfter = time.Minute
	}

	router := chi.NewRouter()

	s := &Server{
		db:            db,
		dayTags:       dayTags,
		exporter:      exporter,
		exportLimiter: exportLimiter,
		opts:          opts,
		router:        router,
		logger:        logger,
	}

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger(logger))
	router.Use(middleware.Recoverer)
	if len(opts.CORSOrigins) > 0 {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.CORSOrigins,
			AllowedMethods: []string{
				http.MethodGet, http.MethodPost, http.MethodPut,
				http.MethodPatch, http.MethodDelete, http.MethodOptions,
			},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
			ExposedHeaders:   []string{"Retry-After"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, r, logger)
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.MethodNotAllowed(w, r, logger)
	})

	RegisterErrorHandler()

	humaConfig := huma.DefaultConfig("Daylog API", opts.Version)
	humaConfig.Info.Description = "Day tags and data export for the Daylog health log"
	s.api = humachi.New(router, humaConfig)

	s.registerRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) registerRoutes() {
	s.registerHealthRoutes()
	s.registerDayTagRoutes()
	s.registerDateRoutes()
	s.registerExportRoutes()
	s.registerAdminRoutes()
}

// requestLogger logs one line per request once the handler returns.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			level := slog.LevelInfo
			if r.URL.Path == "/health" {
				level = slog.LevelDebug
			}
			logger.Log(r.Context(), level, "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
