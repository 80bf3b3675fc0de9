package web

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/worklens/worklens/internal/config"
	"github.com/worklens/worklens/internal/engine"
)

// Server serves the daemon's local JSON API.
type Server struct {
	srv *http.Server
}

func NewServer(cfg *config.Config, eng *engine.Engine) *Server {
	mux := http.NewServeMux()
	NewHandler(cfg, eng).SetupRoutes(mux)

	return &Server{
		srv: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port),
			Handler:           mux,
			ReadTimeout:       10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
}

// Start blocks serving the API until Shutdown.
func (s *Server) Start() error {
	log.Printf("Local API listening on http://%s", s.srv.Addr)
	return s.srv.ListenAndServe()
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Stopping local API...")
	return s.srv.Shutdown(ctx)
}

// Address returns the bound host:port.
func (s *Server) Address() string {
	return s.srv.Addr
}
