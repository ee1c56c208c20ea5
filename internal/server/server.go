package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/emilythestrangee/hackernews-clone/backend/internal/config"
	"github.com/emilythestrangee/hackernews-clone/backend/internal/graph"
	"github.com/emilythestrangee/hackernews-clone/backend/internal/handlers"
	"github.com/emilythestrangee/hackernews-clone/backend/internal/middleware"
)

type Server struct {
	cfg     *config.Config
	builder *graph.ContextBuilder
	handler *handlers.Handler
}

// NewServer wires the handlers; the caller owns the database and the bus.
func NewServer(cfg *config.Config, exec *graph.Executor, builder *graph.ContextBuilder, db handlers.HealthChecker) *Server {
	return &Server{
		cfg:     cfg,
		builder: builder,
		handler: handlers.NewHandler(exec, builder, db, cfg.Server.AllowedOrigins),
	}
}

// RegisterRoutes sets up all application routes
func (s *Server) RegisterRoutes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())

	// CORS configuration
	corsConfig := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Accept", "Authorization", "Content-Type", "X-Requested-With", middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if allowsAnyOrigin(s.cfg.Server.AllowedOrigins) {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = s.cfg.Server.AllowedOrigins
		corsConfig.AllowCredentials = true
	}
	r.Use(cors.New(corsConfig))

	// Health check endpoint
	r.GET("/health", s.handler.Health.Check)

	// GraphQL endpoint; every request gets a RequestContext, anonymous or not
	api := r.Group("/graphql")
	api.Use(middleware.Authenticate(s.builder))
	{
		api.POST("", s.handler.GraphQL.Post)
		api.GET("", s.handler.GraphQL.Get)
	}

	return r
}

// Start serves the API until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  s.cfg.Server.IdleTimeout,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	log.Info().
		Str("addr", srv.Addr).
		Str("endpoint", "/graphql").
		Msg("starting GraphQL server")

	return serve(ctx, srv, s.cfg.Server.ShutdownTimeout, "GraphQL server")
}

// StartMetrics serves /metrics on the metrics port until ctx is done.
func (s *Server) StartMetrics(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:         s.cfg.Server.Host + ":" + s.cfg.Metrics.Port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	log.Info().
		Str("addr", srv.Addr).
		Msg("starting metrics server")

	return serve(ctx, srv, 5*time.Second, "metrics server")
}

func serve(ctx context.Context, srv *http.Server, shutdownTimeout time.Duration, name string) error {
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msgf("shutting down %s", name)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err, ok := <-errCh:
		if !ok {
			return nil
		}
		return fmt.Errorf("%s error: %w", name, err)
	}
}

func allowsAnyOrigin(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
