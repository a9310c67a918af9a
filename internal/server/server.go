// Package server exposes the tutor over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/abhisek/gilbot/internal/logger"
)

const (
	// DefaultMaxImageBytes bounds uploaded screenshots.
	DefaultMaxImageBytes = 10 << 20

	multipartMemory = 8 << 20
)

// Config holds HTTP server settings.
type Config struct {
	Addr          string
	AllowOrigins  []string
	MaxImageBytes int64

	// Tracing adds otelgin spans for every request.
	Tracing     bool
	ServiceName string

	ShutdownTimeout   time.Duration
	ReadHeaderTimeout time.Duration
}

// DefaultConfig returns the server defaults.
func DefaultConfig() Config {
	return Config{
		Addr:              ":5000",
		MaxImageBytes:     DefaultMaxImageBytes,
		ServiceName:       "gilbot",
		ShutdownTimeout:   10 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// ConfigFromEnv overlays GILBOT_ADDR, GILBOT_CORS_ORIGINS (comma separated)
// and GILBOT_MAX_IMAGE_BYTES on the defaults.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	if v := strings.TrimSpace(os.Getenv("GILBOT_ADDR")); v != "" {
		cfg.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv("GILBOT_CORS_ORIGINS")); v != "" {
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowOrigins = append(cfg.AllowOrigins, o)
			}
		}
	}
	if n, err := strconv.ParseInt(os.Getenv("GILBOT_MAX_IMAGE_BYTES"), 10, 64); err == nil && n > 0 {
		cfg.MaxImageBytes = n
	}
	return cfg
}

// NewRouter builds the gin engine. The API is mounted under /api and, for
// older clients, at the root.
func NewRouter(cfg Config, t Tutor, log *logger.Logger) *gin.Engine {
	if cfg.MaxImageBytes <= 0 {
		cfg.MaxImageBytes = DefaultMaxImageBytes
	}

	r := gin.New()
	r.MaxMultipartMemory = multipartMemory
	r.Use(gin.Recovery())
	if cfg.Tracing {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(AttachRequestID())
	r.Use(RequestLogger(log))
	r.Use(CORS(cfg.AllowOrigins))

	h := &handler{tutor: t, maxImageBytes: cfg.MaxImageBytes}

	r.GET("/healthcheck", HealthCheck)

	api := r.Group("/api")
	{
		api.POST("/ask", h.Ask)
		api.POST("/alternates", h.Alternates)
	}
	r.POST("/ask", h.Ask)
	r.POST("/alternates", h.Alternates)

	return r
}

// Server is an HTTP server with graceful shutdown.
type Server struct {
	cfg    Config
	log    *logger.Logger
	server *http.Server
}

// New creates a Server for t.
func New(cfg Config, t Tutor, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	return &Server{
		cfg: cfg,
		log: log,
		server: &http.Server{
			Addr:              cfg.Addr,
			Handler:           NewRouter(cfg, t, log),
			ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		},
	}
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.server.Handler }

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", s.cfg.Addr)
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		timeout := s.cfg.ShutdownTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		s.log.Info("http server shutting down")
		return s.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
