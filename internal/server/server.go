package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sundayezeilo/shortlinks/internal/assets"
	"github.com/sundayezeilo/shortlinks/internal/auth"
	"github.com/sundayezeilo/shortlinks/internal/config"
	"github.com/sundayezeilo/shortlinks/internal/httpx"
	"github.com/sundayezeilo/shortlinks/internal/idgen"
	"github.com/sundayezeilo/shortlinks/internal/link"
)

const (
	apiPrefix     = "/api"
	uiPrefix      = "/ui"
	healthPath    = "/x/health"
	healthTimeout = 2 * time.Second
)

// Deps are the collaborators the server routes to.
type Deps struct {
	Links *link.Handler
	Gate  *auth.Gate
	// Ping checks the store for the health endpoint. Optional.
	Ping func(ctx context.Context) error
	// RequestIDs generates X-Request-ID values. Defaults to UUID v7.
	RequestIDs idgen.Generator
}

// Server represents the HTTP server with all dependencies.
type Server struct {
	config   *config.Config
	logger   *slog.Logger
	deps     Deps
	rejecter *httpx.Rejecter
	router   *Router
	server   *http.Server
}

// New creates a new Server instance.
func New(cfg *config.Config, logger *slog.Logger, deps Deps) *Server {
	if deps.RequestIDs == nil {
		deps.RequestIDs = idgen.NewV7(idgen.WithRetries(1))
	}
	s := &Server{
		config:   cfg,
		logger:   logger,
		deps:     deps,
		rejecter: httpx.NewRejecter(logger, cfg.Auth.Realm),
	}
	s.router = s.setupRoutes()
	return s
}

// Handler returns the routed handler wrapped in middleware.
func (s *Server) Handler() http.Handler {
	return s.applyMiddleware(s.router)
}

// Start starts the HTTP server and blocks until shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.config.Server.ListenAddress,
		Handler:      s.Handler(),
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
		IdleTimeout:  s.config.Server.IdleTimeout,
	}

	// Listen for errors from the server
	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("starting http server",
			"addr", s.server.Addr,
			"env", s.config.App.Environment,
			"routes", s.router.Routes(),
		)
		serverErrors <- s.server.ListenAndServe()
	}()

	// Listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		s.logger.Info("received shutdown signal", "signal", sig.String())

	case <-ctx.Done():
		s.logger.Info("context cancelled", "error", ctx.Err())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	if err := s.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	s.logger.Info("server stopped gracefully")
	return nil
}

// setupRoutes builds the route table. Order is precedence: the admin
// prefixes are claimed before the short-name route, so names equal to
// "api", "ui" or "x" can never resolve.
func (s *Server) setupRoutes() *Router {
	routes := []Route{}

	if target := s.config.Server.RootRedirect; target != "" {
		// Validated by config.
		if u, err := url.Parse(target); err == nil {
			routes = append(routes, Route{Name: "root", Serve: rootRoute(u)})
		}
	}

	routes = append(routes,
		Route{Name: "health", Serve: s.healthRoute},
		Route{Name: "admin", Serve: s.adminRoute(s.adminHandler())},
		Route{Name: "redirect", Serve: s.redirectRoute},
	)

	return NewRouter(s.rejecter, routes...)
}

// applyMiddleware wraps the handler with middleware in the correct order.
func (s *Server) applyMiddleware(handler http.Handler) http.Handler {
	return httpx.Chain(
		httpx.Recovery(s.logger),           // Outermost: catch panics
		httpx.RequestID(s.deps.RequestIDs), // Add request ID
		httpx.Logger(s.logger),             // Log requests
		httpx.CORS(s.config.Server.AllowedOrigins),
	)(handler)
}

func rootRoute(target *url.URL) RouteFunc {
	dest := target.String()
	return func(w http.ResponseWriter, r *http.Request) (Result, error) {
		if r.URL.Path != "/" {
			return Pass, nil
		}
		if !isRead(r) {
			return methodNotAllowed(w, "GET, HEAD")
		}
		http.Redirect(w, r, dest, http.StatusTemporaryRedirect)
		return Handled, nil
	}
}

func (s *Server) healthRoute(w http.ResponseWriter, r *http.Request) (Result, error) {
	if r.URL.Path != healthPath {
		return Pass, nil
	}
	if !isRead(r) {
		return methodNotAllowed(w, "GET, HEAD")
	}

	if s.deps.Ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()
		if err := s.deps.Ping(ctx); err != nil {
			s.logger.ErrorContext(r.Context(), "health check failed",
				"request_id", httpx.GetRequestID(r.Context()),
				"error", err.Error(),
			)
			httpx.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return Handled, nil
		}
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	return Handled, nil
}

// adminRoute claims the management prefixes and sends them through the
// credential gate before anything else runs.
func (s *Server) adminRoute(admin http.Handler) RouteFunc {
	gated := s.deps.Gate.Require(s.rejecter)(admin)
	return func(w http.ResponseWriter, r *http.Request) (Result, error) {
		if !hasPrefixSegment(r.URL.Path, apiPrefix) && !hasPrefixSegment(r.URL.Path, uiPrefix) {
			return Pass, nil
		}
		gated.ServeHTTP(w, r)
		return Handled, nil
	}
}

// adminHandler routes authorized management requests.
func (s *Server) adminHandler() http.Handler {
	rj := s.rejecter
	links := s.deps.Links

	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		rj.Reject(w, r, httpx.ErrNoRoute)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		rj.Reject(w, r, httpx.ErrMethodNotAllowed)
	})

	r.Route(apiPrefix, func(r chi.Router) {
		r.Get("/", rj.Handle(links.List))
		r.Post("/", rj.Handle(links.Create))
		r.Put("/{id:[0-9]+}", rj.Handle(links.Update))
		r.Delete("/{id:[0-9]+}", rj.Handle(links.Delete))
	})

	ui := rj.Handle(func(w http.ResponseWriter, r *http.Request) error {
		return assets.Serve(w, r, chi.URLParam(r, "*"))
	})
	for _, pattern := range []string{uiPrefix, uiPrefix + "/*"} {
		r.Get(pattern, ui)
		r.Head(pattern, ui)
	}

	return r
}

// redirectRoute resolves single-segment paths. It is not gated.
func (s *Server) redirectRoute(w http.ResponseWriter, r *http.Request) (Result, error) {
	name, ok := singleSegment(r.URL.Path)
	if !ok {
		return Pass, nil
	}
	if !isRead(r) {
		return methodNotAllowed(w, "GET, HEAD")
	}
	r.SetPathValue(link.NamePathValue, name)
	return Handled, s.deps.Links.Redirect(w, r)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	s.logger.Info("shutting down server")

	if err := s.server.Shutdown(ctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			s.logger.Warn("shutdown timeout exceeded, forcing close")
			return s.server.Close()
		}
		return err
	}

	return nil
}
