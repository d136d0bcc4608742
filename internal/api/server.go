package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/trebuchet-org/treb-deployd/internal/domain/models"
	"github.com/trebuchet-org/treb-deployd/internal/metrics"
	"github.com/trebuchet-org/treb-deployd/internal/usecase"
)

// Deployer runs a deployment request through the orchestrator
type Deployer interface {
	Run(ctx context.Context, req models.DeploymentRequest) (*models.DeploymentRecord, error)
}

// DeploymentLister lists recorded deployments
type DeploymentLister interface {
	Run(ctx context.Context, params usecase.ListDeploymentsParams) (*usecase.DeploymentListResult, error)
}

// DeploymentShower shows the state of one deployment key
type DeploymentShower interface {
	Run(ctx context.Context, params usecase.ShowDeploymentParams) (*usecase.DeploymentDetails, error)
}

// Options configures one trigger server
type Options struct {
	Port      int
	AuthToken string
	// Request is the fixed deployment served by GET /deploy
	Request models.DeploymentRequest
}

// Server is the HTTP trigger for one deployment request. Besides
// GET /deploy it serves read-only ledger endpoints, health and metrics.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	opts       Options
	deployer   Deployer
	lister     DeploymentLister
	shower     DeploymentShower
	log        *slog.Logger
}

// NewServer creates a new trigger server
func NewServer(opts Options, deployer Deployer, lister DeploymentLister, shower DeploymentShower, log *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		mux:      mux,
		opts:     opts,
		deployer: deployer,
		lister:   lister,
		shower:   shower,
		log:      log.With("component", "api", "port", opts.Port),
	}

	s.httpServer = &http.Server{
		Addr:              net.JoinHostPort("", strconv.Itoa(opts.Port)),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	s.registerRoutes()

	return s
}

// registerRoutes sets up all HTTP routes
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.Handle("GET /metrics", promhttp.Handler())

	s.mux.Handle("GET /deploy", s.requireToken(http.HandlerFunc(s.handleDeploy)))
	s.mux.HandleFunc("GET /deployments", s.handleListDeployments)
	s.mux.HandleFunc("GET /deployments/{contract}/{network}", s.handleShowDeployment)
}

// Handler returns the routes wrapped in panic recovery and request metrics
func (s *Server) Handler() http.Handler {
	return s.instrument(s.recoverer(s.mux))
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
// within shutdownTimeout
func (s *Server) ListenAndServe(ctx context.Context, shutdownTimeout time.Duration) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", s.opts.Port, err)
	}

	s.log.Info("trigger server starting",
		"addr", ln.Addr().String(),
		"contract", s.opts.Request.ContractName,
		"network", s.opts.Request.NetworkName,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// Shutdown gracefully shuts down the HTTP server.
// Waits for active requests to finish or ctx to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("trigger server shutting down")
	return s.httpServer.Shutdown(ctx)
}

// statusRecorder captures the response code for metrics
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
	})
}

func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				s.log.Error("panic in handler", "path", r.URL.Path, "panic", rec)
				s.sendError(w, errorResponse{
					Error: "internal server error",
					Kind:  "InternalError",
				}, http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
