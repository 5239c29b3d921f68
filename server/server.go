package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/kbukum/streamkit/component"
	"github.com/kbukum/streamkit/logger"
)

const componentName = "http-server"

var (
	_ component.Component   = (*Server)(nil)
	_ component.Describable = (*Server)(nil)
)

// Server is a Gin HTTP server managed as a component.
type Server struct {
	cfg    Config
	engine *gin.Engine
	http   *http.Server
	log    *logger.Logger

	mu      sync.Mutex
	addr    net.Addr
	serving bool
}

// New creates a server with the standard middleware stack applied. Routes
// are registered on Engine before Start.
func New(cfg Config, log *logger.Logger) *Server {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	log = log.WithComponent("server")

	engine := gin.New()
	engine.Use(Recovery(log), RequestID(), CORS(cfg.CORS), RequestLogger(log))

	return &Server{
		cfg:    cfg,
		engine: engine,
		log:    log,
		http: &http.Server{
			Addr:         cfg.Addr(),
			Handler:      engine,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
	}
}

// Engine returns the Gin engine for route registration.
func (s *Server) Engine() *gin.Engine { return s.engine }

// RegisterDefaultEndpoints mounts /health and /version.
func (s *Server) RegisterDefaultEndpoints(service string, checker HealthChecker) {
	s.engine.GET("/health", Health(service, checker))
	s.engine.GET("/version", Version())
}

// Name implements component.Component.
func (s *Server) Name() string { return componentName }

// Start binds the listener and serves in the background. It returns once the
// port is bound.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("server: bind %s: %w", s.http.Addr, err)
	}
	s.mu.Lock()
	s.addr = ln.Addr()
	s.serving = true
	s.mu.Unlock()

	go func() {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("server error", logger.Fields(logger.FieldError, err.Error()))
		}
		s.mu.Lock()
		s.serving = false
		s.mu.Unlock()
	}()

	s.log.Info("HTTP server started", logger.Fields("addr", ln.Addr().String()))
	return nil
}

// Stop shuts the server down, waiting at most five seconds for in-flight
// requests.
func (s *Server) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	s.log.Info("HTTP server stopped")
	return nil
}

// Addr returns the bound address, or the configured one before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.addr != nil {
		return s.addr.String()
	}
	return s.http.Addr
}

// Health implements component.Component.
func (s *Server) Health(ctx context.Context) component.Health {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.serving {
		return component.Health{Name: componentName, Status: component.StatusUnhealthy, Message: "not serving"}
	}
	return component.Health{Name: componentName, Status: component.StatusHealthy, Message: s.addr.String()}
}

// Describe implements component.Describable.
func (s *Server) Describe() component.Description {
	return component.Description{Name: "HTTP Server", Type: "server", Details: s.Addr()}
}
