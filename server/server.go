// Package server exposes the simulators over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"golang.org/x/time/rate"

	"github.com/njchilds90/apoptosim/config"
	"github.com/njchilds90/apoptosim/loop"
	"github.com/njchilds90/apoptosim/store"
)

var tracer = otel.Tracer("apoptosim.server")

// RequestIDHeader carries the request identifier in both directions.
const RequestIDHeader = "X-Request-ID"

// Server routes API requests to the simulators. Loop compilations are
// cached across requests.
type Server struct {
	cfg     config.ServerConfig
	router  *gin.Engine
	cache   *loop.Cache
	limiter *rate.Limiter
	store   *store.Store
	logger  *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithStore serves stored ensemble results under /v1/results.
func WithStore(st *store.Store) Option {
	return func(s *Server) { s.store = st }
}

// New builds the router.
func New(cfg config.ServerConfig, opts ...Option) *Server {
	s := &Server{
		cfg:    cfg,
		cache:  loop.NewCache(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("apoptosim"))
	router.Use(s.requestID())
	s.setupRoutes(router)
	s.router = router
	return s
}

func (s *Server) setupRoutes(router *gin.Engine) {
	router.GET("/health", s.health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	{
		v1.GET("/models", s.listModels)
		v1.POST("/solve", s.limit(), s.solve)
		v1.POST("/tool", s.tool)
		v1.GET("/schema", s.schema)
		if s.store != nil {
			v1.GET("/results", s.listResults)
			v1.GET("/results/*key", s.getResult)
		}
	}
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Cache returns the compile cache shared by all requests.
func (s *Server) Cache() *loop.Cache { return s.cache }

// ListenAndServe serves on cfg.Addr until ctx is done, then drains
// in-flight requests for up to five seconds.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", slog.String("addr", s.cfg.Addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func (s *Server) limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.limiter != nil && !s.limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
