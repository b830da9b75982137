package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/askyc/askyc-go/internal/catalog"
	"github.com/askyc/askyc-go/internal/config"
	"github.com/askyc/askyc-go/internal/guardrails"
	"github.com/askyc/askyc-go/internal/metrics"
	"github.com/askyc/askyc-go/internal/relay"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	cfg     *config.Config
	engine  *gin.Engine
	relay   *relay.Relay
	catalog *catalog.Catalog
	guards  *guardrails.Guardrails
	log     *zap.Logger
}

func New(cfg *config.Config, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log))
	rl := relay.New(cfg.BackendURL,
		relay.WithClient(relay.NewClient(cfg.ResponseHeaderTimeout)),
		relay.WithLogger(log.Named("relay")),
		relay.WithStats(&metrics.Relay{}),
	)
	srv := &Server{
		cfg:     cfg,
		engine:  r,
		relay:   rl,
		catalog: catalog.New(cfg.Models),
		guards:  guardrails.New(cfg.MaxBodyBytes),
		log:     log,
	}
	srv.registerRoutes()
	return srv
}

func (s *Server) registerRoutes() {
	s.engine.POST("/api/stream", s.stream)
	s.engine.GET("/healthz", s.health)
	api := s.engine.Group("/v1")
	api.GET("/models", s.listModels)
	api.GET("/stats", s.stats)
}

// Handler exposes the routes without starting a listener.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Address,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.Info("relay listening", zap.String("address", s.cfg.Address), zap.String("backend", s.relay.Target()))
	return Run(ctx, srv)
}

// Run serves srv until ctx is done or the listener fails.
func Run(ctx context.Context, srv *http.Server) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) stream(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, s.guards.MaxBody()+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if err := s.guards.CheckBody(body); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, guardrails.ErrBodyTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	// Failures are logged by the relay and already reflected in the status.
	_ = s.relay.Serve(c.Request.Context(), c.Writer, body)
}

func (s *Server) listModels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"models": s.catalog.Models(), "default": s.catalog.Default().Identifier})
}

func (s *Server) stats(c *gin.Context) {
	c.JSON(http.StatusOK, s.relay.Stats().Snapshot())
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}
