package web

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/middrag/middrag/internal/config"
)

type Server struct {
	handler  *Handler
	server   *http.Server
	listener net.Listener
}

// NewServer builds the HTTP server. A customPort > 0 overrides the configured port.
func NewServer(cfg config.WebConfig, handler *Handler, customPort int) *Server {
	mux := http.NewServeMux()
	handler.SetupRoutes(mux)

	port := cfg.Port
	if customPort > 0 {
		port = customPort
	}

	addr := net.JoinHostPort(cfg.Host, fmt.Sprint(port))
	httpServer := &http.Server{
		Addr:        addr,
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	return &Server{
		handler: handler,
		server:  httpServer,
	}
}

// Listen binds the address so that callers learn about port clashes before Serve.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.server.Addr, err)
	}
	s.listener = ln
	s.server.Addr = ln.Addr().String()
	return nil
}

// Start serves until Shutdown. It returns http.ErrServerClosed after a clean shutdown.
func (s *Server) Start() error {
	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}
	log.Infof("Starting web server on http://%s", s.server.Addr)
	return s.server.Serve(s.listener)
}

func (s *Server) Shutdown(ctx context.Context) error {
	log.Info("Shutting down web server...")
	return s.server.Shutdown(ctx)
}

func (s *Server) GetAddress() string {
	return s.server.Addr
}
