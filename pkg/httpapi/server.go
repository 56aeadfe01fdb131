package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bellum/bellum/pkg/estimator"
	"github.com/bellum/bellum/pkg/scheduler"
	"github.com/bellum/bellum/pkg/solver/registry"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"
)

// Server is the thin gin transport of SPEC_FULL.md §4.8, grounded on the
// teacher's own pkg/api server shape (gin.Engine + a websocket hub layered
// on top, gin-contrib/cors for dashboard-origin access).
type Server struct {
	registry  *registry.Registry
	estimator estimator.TimeEstimator
	runs      *RunRegistry
	logger    hclog.Logger
	ledger    scheduler.RunLedger

	schedulers map[string]*scheduler.Scheduler

	httpServer *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithLogger overrides the default hclog logger.
func WithLogger(logger hclog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithRunLedger attaches a run ledger shared across every solver's
// Scheduler.
func WithRunLedger(ledger scheduler.RunLedger) Option {
	return func(s *Server) { s.ledger = ledger }
}

// NewServer builds a Server exposing every solver registered in reg.
func NewServer(reg *registry.Registry, est estimator.TimeEstimator, opts ...Option) *Server {
	s := &Server{
		registry:   reg,
		estimator:  est,
		runs:       NewRunRegistry(),
		logger:     hclog.NewNullLogger(),
		schedulers: make(map[string]*scheduler.Scheduler),
	}
	for _, opt := range opts {
		opt(s)
	}

	for _, name := range reg.Names() {
		descriptor, err := reg.Lookup(name)
		if err != nil {
			continue
		}
		engine := descriptor.NewEngine(est)
		schedOpts := []scheduler.Option{
			scheduler.WithLogger(s.logger),
			scheduler.WithSolutionBroadcaster(s.runs),
		}
		if s.ledger != nil {
			schedOpts = append(schedOpts, scheduler.WithRunLedger(s.ledger))
		}
		s.schedulers[strings.ToLower(name)] = scheduler.NewScheduler(descriptor.Name, engine, schedOpts...)
	}
	return s
}

// Router builds the gin engine: permissive CORS for a locally-hosted
// dashboard collaborator, the three §4.8 routes, recovery middleware.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept"},
	}))

	router.POST("/runs", s.postRun)
	router.GET("/runs/:id", s.getRun)
	router.GET("/runs/:id/stream", s.streamRun)
	return router
}

// Start runs the HTTP server until ctx is canceled.
func (s *Server) Start(ctx context.Context, addr string) error {
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	s.logger.Info("http facade listening", "addr", addr)

	errCh := make(chan error, 1)
	go func() { errCh <- s.httpServer.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return fmt.Errorf("httpapi: server error: %w", err)
	}
}
